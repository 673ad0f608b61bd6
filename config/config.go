// Package config holds the node configuration: the protocol parameters used
// to resolve every wrapper layout, the number of proofs wrapped per family
// and the verifying key artifacts of the base circuits. It is loaded from an
// optional YAML file and overridden by ENCLAVE_* environment variables.
package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/gnosisguild/enclave-aggregator/layout"
	"gopkg.in/yaml.v3"
)

// Config is the full node configuration.
type Config struct {
	// Params are the protocol parameters shared by every family.
	Params layout.Params `yaml:"params"`
	// NProofs is the number of proofs wrapped per family.
	NProofs map[layout.Family]int `yaml:"nproofs"`
	// Artifacts are the verifying keys of the base circuits.
	Artifacts []Artifact `yaml:"artifacts"`
	// ArtifactsDir overrides the artifact cache directory if set.
	ArtifactsDir string `yaml:"artifactsDir"`
	// ParallelVerification verifies the proofs of a wrapper concurrently.
	ParallelVerification bool `yaml:"parallelVerification"`

	API     APIConfig     `yaml:"api"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// Artifact locates the verifying key of one base circuit.
type Artifact struct {
	Family  layout.Family `yaml:"family"`
	Circuit string        `yaml:"circuit"`
	// Mode is the verification flavour of the key, "zk" or "nonzk".
	Mode string `yaml:"mode"`
	URL  string `yaml:"url"`
	// Hash is the hex encoded sha256 of the key content.
	Hash string `yaml:"hash"`
}

type APIConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type StorageConfig struct {
	Datadir string `yaml:"datadir"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Output string `yaml:"output"`
}

// Default returns the default configuration. The parameter set is small
// enough to keep the base circuits cheap in development networks.
func Default() *Config {
	return &Config{
		Params: layout.Params{
			layout.LThreshold:          2,
			layout.NParties:            5,
			layout.H:                   5,
			layout.T:                   2,
			layout.L:                   2,
			layout.N:                   1024,
			layout.MaxMsgNonZeroCoeffs: 100,
		},
		NProofs: map[layout.Family]int{
			layout.DKGPk:                               5,
			layout.DKGShareComputation:                 5,
			layout.DKGShareEncryption:                  5,
			layout.DKGShareDecryption:                  5,
			layout.ThresholdPkGeneration:               5,
			layout.ThresholdPkAggregation:              1,
			layout.ThresholdShareDecryption:            5,
			layout.ThresholdDecryptedSharesAggregation: 1,
			layout.ThresholdUserDataEncryption:         layout.UserDataEncryptionProofs,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 9090,
		},
		Storage: StorageConfig{
			Datadir: "data",
		},
		Log: LogConfig{
			Level:  "info",
			Output: "stdout",
		},
	}
}

// Load returns the default configuration overridden by the YAML file at path
// (if path is not empty) and then by the environment.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read config file: %w", err)
		}
		if err := c.unmarshal(data); err != nil {
			return nil, err
		}
	}
	if err := c.ApplyEnv(os.Environ()); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// unmarshal merges the YAML document into c. Parameters and proof counts
// present in the document replace the defaults one by one.
func (c *Config) unmarshal(data []byte) error {
	params, nproofs := c.Params.Clone(), make(map[layout.Family]int, len(c.NProofs))
	for f, n := range c.NProofs {
		nproofs[f] = n
	}
	c.Params, c.NProofs = nil, nil
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("cannot decode config file: %w", err)
	}
	for k, v := range c.Params {
		params[k] = v
	}
	for f, n := range c.NProofs {
		nproofs[f] = n
	}
	c.Params, c.NProofs = params, nproofs
	return nil
}

// Layout returns the layout configuration of the family.
func (c *Config) Layout(family layout.Family) (layout.Config, error) {
	n, ok := c.NProofs[family]
	if !ok {
		return layout.Config{}, fmt.Errorf("%w: no proof count configured for %s", layout.ErrConfiguration, family)
	}
	return layout.Config{Family: family, NProofs: n, Params: c.Params.Clone()}, nil
}

// Families returns the configured families in a stable order.
func (c *Config) Families() []layout.Family {
	families := make([]layout.Family, 0, len(c.NProofs))
	for f := range c.NProofs {
		families = append(families, f)
	}
	sort.Slice(families, func(i, j int) bool { return families[i] < families[j] })
	return families
}

// Validate resolves the layout of every configured family, so that a bad
// parameter set is reported before any circuit is built.
func (c *Config) Validate() error {
	for _, f := range c.Families() {
		lc, err := c.Layout(f)
		if err != nil {
			return err
		}
		if _, err := lc.Resolve(); err != nil {
			return err
		}
	}
	for i, a := range c.Artifacts {
		if !a.Family.Valid() {
			return fmt.Errorf("%w: artifact %d: unknown family %q", layout.ErrConfiguration, i, a.Family)
		}
		if a.Circuit == "" || a.Hash == "" {
			return fmt.Errorf("%w: artifact %d: circuit and hash are required", layout.ErrConfiguration, i)
		}
		if a.Mode != "zk" && a.Mode != "nonzk" {
			return fmt.Errorf("%w: artifact %d: invalid mode %q", layout.ErrConfiguration, i, a.Mode)
		}
	}
	return nil
}
