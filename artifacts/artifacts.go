// Package artifacts keeps a local cache of circuit artifacts (constraint
// systems, proving and verifying keys) addressed by the sha256 of their
// content, downloading missing ones from their remote URL.
package artifacts

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gnosisguild/enclave-aggregator/log"
	"github.com/gnosisguild/enclave-aggregator/types"
	"github.com/gnosisguild/enclave-aggregator/util"
)

// CheckHashes enables the content hash check on load and download. It is
// disabled with ENCLAVE_CHECK_HASHES=false (or 0).
var CheckHashes = true

// BaseDir is the cache directory. Defaults to ENCLAVE_ARTIFACTS_DIR or
// ~/.cache/enclave-artifacts.
var BaseDir string

// ErrNotCached is returned by Load when the artifact is not in the cache and
// has no remote URL to download it from.
var ErrNotCached = errors.New("artifact not cached")

func init() {
	if v := os.Getenv("ENCLAVE_CHECK_HASHES"); v != "" {
		if strings.ToLower(v) == "false" || v == "0" {
			CheckHashes = false
		}
	}
	if dir := os.Getenv("ENCLAVE_ARTIFACTS_DIR"); dir != "" {
		BaseDir = dir
		return
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		log.Warnf("unable to access user home directory, using temporary directory: %v", err)
		BaseDir = filepath.Join(os.TempDir(), "enclave-artifacts")
		return
	}
	BaseDir = filepath.Join(home, ".cache", "enclave-artifacts")
}

// Artifact is a cached file identified by the sha256 hash of its content.
type Artifact struct {
	RemoteURL string
	Hash      types.HexBytes
	Content   types.HexBytes
}

// New returns an artifact from its remote URL and hex encoded hash.
func New(remoteURL, hash string) (*Artifact, error) {
	h, err := hex.DecodeString(util.TrimHex(hash))
	if err != nil {
		return nil, fmt.Errorf("invalid artifact hash %q: %w", hash, err)
	}
	if len(h) != sha256.Size {
		return nil, fmt.Errorf("invalid artifact hash %q: expected %d bytes", hash, sha256.Size)
	}
	return &Artifact{RemoteURL: remoteURL, Hash: h}, nil
}

// FromContent returns an already loaded artifact, storing it in the cache.
func FromContent(content []byte) (*Artifact, error) {
	sum := sha256.Sum256(content)
	a := &Artifact{Hash: sum[:], Content: content}
	if err := a.Store(); err != nil {
		return nil, err
	}
	return a, nil
}

// Load fills the artifact content from the cache, downloading it first if it
// is not cached and a remote URL is set. It does nothing if the content is
// already loaded.
func (a *Artifact) Load(ctx context.Context) error {
	if len(a.Content) != 0 {
		return nil
	}
	if len(a.Hash) == 0 {
		return fmt.Errorf("artifact hash not provided")
	}
	content, err := load(a.Hash)
	if err != nil {
		return err
	}
	if content == nil {
		if a.RemoteURL == "" {
			return fmt.Errorf("%w: %x", ErrNotCached, []byte(a.Hash))
		}
		log.Debugw("downloading artifact", "url", a.RemoteURL, "hash", a.Hash.String())
		if err := downloadAndStore(ctx, a.Hash, a.RemoteURL); err != nil {
			return err
		}
		if content, err = load(a.Hash); err != nil {
			return err
		}
		if content == nil {
			return fmt.Errorf("artifact %x not found after download", []byte(a.Hash))
		}
	}
	a.Content = content
	return nil
}

// Store writes the loaded content into the cache.
func (a *Artifact) Store() error {
	if len(a.Content) == 0 {
		return fmt.Errorf("artifact has no content")
	}
	if CheckHashes {
		if sum := sha256.Sum256(a.Content); !bytes.Equal(sum[:], a.Hash) {
			return fmt.Errorf("hash mismatch: expected %x, got %x", []byte(a.Hash), sum)
		}
	}
	if err := os.MkdirAll(BaseDir, 0o755); err != nil {
		return fmt.Errorf("error creating the base directory: %w", err)
	}
	path := filepath.Join(BaseDir, hex.EncodeToString(a.Hash))
	if err := os.WriteFile(path+".partial", a.Content, 0o644); err != nil {
		return fmt.Errorf("error writing artifact: %w", err)
	}
	return os.Rename(path+".partial", path)
}

// CircuitArtifacts groups the artifacts of a compiled circuit. Any of them
// may be nil, verifiers for instance only need the verifying key.
type CircuitArtifacts struct {
	circuitDefinition *Artifact
	provingKey        *Artifact
	verifyingKey      *Artifact
}

func NewCircuitArtifacts(circuit, provingKey, verifyingKey *Artifact) *CircuitArtifacts {
	return &CircuitArtifacts{
		circuitDefinition: circuit,
		provingKey:        provingKey,
		verifyingKey:      verifyingKey,
	}
}

// LoadAll loads every artifact set, downloading the missing ones.
func (ca *CircuitArtifacts) LoadAll(ctx context.Context) error {
	for name, a := range map[string]*Artifact{
		"circuit definition": ca.circuitDefinition,
		"proving key":        ca.provingKey,
		"verifying key":      ca.verifyingKey,
	} {
		if a == nil {
			continue
		}
		if err := a.Load(ctx); err != nil {
			return fmt.Errorf("error loading %s: %w", name, err)
		}
	}
	return nil
}

func (ca *CircuitArtifacts) CircuitDefinition() types.HexBytes {
	if ca.circuitDefinition == nil {
		return nil
	}
	return ca.circuitDefinition.Content
}

func (ca *CircuitArtifacts) ProvingKey() types.HexBytes {
	if ca.provingKey == nil {
		return nil
	}
	return ca.provingKey.Content
}

func (ca *CircuitArtifacts) VerifyingKey() types.HexBytes {
	if ca.verifyingKey == nil {
		return nil
	}
	return ca.verifyingKey.Content
}

// load returns the cached content for the hash, or nil if it is not cached.
func load(hash []byte) ([]byte, error) {
	path := filepath.Join(BaseDir, hex.EncodeToString(hash))
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("error reading file %s: %w", path, err)
	}
	if CheckHashes {
		if sum := sha256.Sum256(content); !bytes.Equal(sum[:], hash) {
			return nil, fmt.Errorf("hash mismatch for file %s: expected %x, got %x", path, hash, sum)
		}
	}
	return content, nil
}
