// Package storage persists the artifacts of the aggregator in a prefixed
// key-value store. The following prefixes are used:
//   - 'p/' for the parameter set recorded for each E3
//   - 'o/' for wrapper outputs, keyed by E3, family and index
//   - 'r/' for the fold roots, keyed by E3 and family
//   - 't/' for the output registry trees, one per E3
package storage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/gnosisguild/enclave-aggregator/log"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

var (
	paramsPrefix   = []byte("p/")
	outputPrefix   = []byte("o/")
	rootPrefix     = []byte("r/")
	registryPrefix = []byte("t/")

	// ErrNotFound is returned when the requested artifact is not stored.
	ErrNotFound = errors.New("not found")
)

// Storage wraps the database with the typed accessors of the aggregator.
type Storage struct {
	db db.Database
	// serializes output index assignment and registry updates
	globalLock sync.Mutex
}

// New creates a new Storage instance.
func New(database db.Database) *Storage {
	return &Storage{db: database}
}

// Close closes the storage.
func (s *Storage) Close() {
	if err := s.db.Close(); err != nil {
		log.Warnw("error closing storage", "error", err.Error())
	}
}

// Artifact encoding/decoding
func encodeArtifact(a any) ([]byte, error) {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("encode artifact: %w", err)
	}
	return em.Marshal(a)
}

func decodeArtifact(data []byte, out any) error {
	return cbor.Unmarshal(data, out)
}

func (s *Storage) setArtifact(prefix, key []byte, artifact any) error {
	data, err := encodeArtifact(artifact)
	if err != nil {
		return err
	}
	wTx := prefixeddb.NewPrefixedWriteTx(s.db.WriteTx(), prefix)
	if err := wTx.Set(key, data); err != nil {
		wTx.Discard()
		return err
	}
	return wTx.Commit()
}

// getArtifact decodes the artifact stored under prefix and key into out. It
// returns ErrNotFound if the key does not exist.
func (s *Storage) getArtifact(prefix, key []byte, out any) error {
	data, err := prefixeddb.NewPrefixedReader(s.db, prefix).Get(key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := decodeArtifact(data, out); err != nil {
		return fmt.Errorf("decode artifact: %w", err)
	}
	return nil
}

// iterateArtifacts calls fn for every artifact under prefix whose key starts
// with keyPrefix. The key passed to fn has keyPrefix removed.
func (s *Storage) iterateArtifacts(prefix, keyPrefix []byte, fn func(k, v []byte) error) error {
	var fnErr error
	if err := prefixeddb.NewPrefixedReader(s.db, prefix).Iterate(keyPrefix, func(k, v []byte) bool {
		fnErr = fn(k, v)
		return fnErr == nil
	}); err != nil {
		return err
	}
	return fnErr
}
