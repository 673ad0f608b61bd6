package layout

import (
	"errors"
	"fmt"
)

// ErrConfiguration is the sentinel wrapped by every ConfigurationError. It
// signals a parameter or layout problem that must block circuit building.
var ErrConfiguration = errors.New("configuration error")

// ConfigurationError describes a parameter set or public-input layout that
// cannot be used to build a wrapper.
type ConfigurationError struct {
	Family Family
	Param  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: %s: parameter %s: %s", ErrConfiguration, e.Family, e.Param, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrConfiguration, e.Family, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

func configErr(family Family, param, format string, args ...any) error {
	return &ConfigurationError{Family: family, Param: param, Reason: fmt.Sprintf(format, args...)}
}
