package storage

import (
	"errors"
	"fmt"

	"github.com/gnosisguild/enclave-aggregator/layout"
	"github.com/gnosisguild/enclave-aggregator/types"
)

// ErrParamsMismatch is returned when recording a parameter set for an E3 that
// already has a different one.
var ErrParamsMismatch = errors.New("parameter set differs from the one recorded for the E3")

// SetParams records the parameter set of the E3. Recording the same set twice
// is a no-op, recording a different one returns ErrParamsMismatch.
func (s *Storage) SetParams(e3ID *types.E3ID, params layout.Params) error {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	current, err := s.Params(e3ID)
	switch {
	case err == nil:
		if !current.Equal(params) {
			return fmt.Errorf("%w: recorded %s, got %s", ErrParamsMismatch, current, params)
		}
		return nil
	case !errors.Is(err, ErrNotFound):
		return err
	}
	return s.setArtifact(paramsPrefix, e3ID.Marshal(), params)
}

// Params returns the parameter set recorded for the E3, or ErrNotFound.
func (s *Storage) Params(e3ID *types.E3ID) (layout.Params, error) {
	params := layout.Params{}
	if err := s.getArtifact(paramsPrefix, e3ID.Marshal(), &params); err != nil {
		return nil, err
	}
	return params, nil
}
