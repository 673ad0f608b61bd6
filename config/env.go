package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gnosisguild/enclave-aggregator/layout"
)

const (
	envPrefix        = "ENCLAVE_"
	envParamPrefix   = envPrefix + "PARAM_"
	envNProofsPrefix = envPrefix + "NPROOFS_"
)

// EnvFamily returns the environment variable suffix of a family, e.g.
// THRESHOLD_PK_AGGREGATION for threshold/pk_aggregation.
func EnvFamily(f layout.Family) string {
	return strings.ToUpper(strings.ReplaceAll(string(f), "/", "_"))
}

// ApplyEnv overrides the configuration with the environment provided as
// KEY=value entries. Recognized variables:
//
//	ENCLAVE_PARAM_<NAME>       protocol parameter, e.g. ENCLAVE_PARAM_L_THRESHOLD
//	ENCLAVE_NPROOFS_<FAMILY>   proofs per wrapper, e.g. ENCLAVE_NPROOFS_DKG_PK
//	ENCLAVE_ARTIFACTS_DIR      artifact cache directory
//	ENCLAVE_LOG_LEVEL          log level
//	ENCLAVE_PARALLEL           parallel verification (true/false)
func (c *Config) ApplyEnv(environ []string) error {
	byEnv := map[string]layout.Family{}
	for _, f := range layout.Families() {
		byEnv[EnvFamily(f)] = f
	}
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, envPrefix) {
			continue
		}
		switch {
		case strings.HasPrefix(key, envParamPrefix):
			v, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			if c.Params == nil {
				c.Params = layout.Params{}
			}
			c.Params[strings.TrimPrefix(key, envParamPrefix)] = v
		case strings.HasPrefix(key, envNProofsPrefix):
			f, ok := byEnv[strings.TrimPrefix(key, envNProofsPrefix)]
			if !ok {
				return fmt.Errorf("%s: unknown family", key)
			}
			n, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			if c.NProofs == nil {
				c.NProofs = map[layout.Family]int{}
			}
			c.NProofs[f] = n
		case key == envPrefix+"ARTIFACTS_DIR":
			c.ArtifactsDir = value
		case key == envPrefix+"LOG_LEVEL":
			c.Log.Level = value
		case key == envPrefix+"PARALLEL":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			c.ParallelVerification = b
		}
	}
	return nil
}
