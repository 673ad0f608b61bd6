package storage

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/gnosisguild/enclave-aggregator/layout"
	"github.com/gnosisguild/enclave-aggregator/types"
	"github.com/vocdoni/arbo"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

const (
	// registryLevels fits keys of familyID || index (9 bytes).
	registryLevels = 72

	registryValueLen = 32
)

var registryHash = arbo.HashFunctionMiMC_BLS12_377

// RegistryProof is a Merkle proof of an output in the E3 output registry.
type RegistryProof struct {
	Key      types.HexBytes `json:"key"`
	Value    types.HexBytes `json:"value"`
	Siblings types.HexBytes `json:"siblings"`
	Root     types.HexBytes `json:"root"`
}

func (s *Storage) registry(e3ID *types.E3ID) (*arbo.Tree, error) {
	return arbo.NewTree(arbo.Config{
		Database:     prefixeddb.NewPrefixedDatabase(s.db, registryTreePrefix(e3ID)),
		MaxLevels:    registryLevels,
		HashFunction: registryHash,
	})
}

func registryKey(family layout.Family, index uint64) ([]byte, error) {
	id, err := familyID(family)
	if err != nil {
		return nil, err
	}
	return binary.BigEndian.AppendUint64([]byte{id}, index), nil
}

// registryValue is the sha256 of the encoded output reduced into the
// BLS12-377 scalar field.
func registryValue(so *StoredOutput) ([]byte, error) {
	data, err := encodeArtifact(so)
	if err != nil {
		return nil, err
	}
	digest := sha256.Sum256(data)
	v := arbo.BigToFF(ecc.BLS12_377.ScalarField(), new(big.Int).SetBytes(digest[:]))
	return arbo.BigIntToBytes(registryValueLen, v), nil
}

func registryTreePrefix(e3ID *types.E3ID) []byte {
	return append(append([]byte{}, registryPrefix...), e3ID.Marshal()...)
}

// registerOutput adds the output leaf within wTx. Callers hold globalLock.
func (s *Storage) registerOutput(wTx db.WriteTx, e3ID *types.E3ID, so *StoredOutput) error {
	tree, err := s.registry(e3ID)
	if err != nil {
		return err
	}
	key, err := registryKey(so.Family, so.Index)
	if err != nil {
		return err
	}
	value, err := registryValue(so)
	if err != nil {
		return err
	}
	return tree.AddWithTx(prefixeddb.NewPrefixedWriteTx(wTx, registryTreePrefix(e3ID)), key, value)
}

// RegistryRoot returns the root of the E3 output registry.
func (s *Storage) RegistryRoot(e3ID *types.E3ID) (types.HexBytes, error) {
	tree, err := s.registry(e3ID)
	if err != nil {
		return nil, err
	}
	return tree.Root()
}

// RegistryProof returns the inclusion proof of the output stored at index for
// the E3 and family.
func (s *Storage) RegistryProof(e3ID *types.E3ID, family layout.Family, index uint64) (*RegistryProof, error) {
	// the output must exist, the tree only holds its digest
	if _, err := s.Output(e3ID, family, index); err != nil {
		return nil, err
	}
	tree, err := s.registry(e3ID)
	if err != nil {
		return nil, err
	}
	key, err := registryKey(family, index)
	if err != nil {
		return nil, err
	}
	leafKey, leafValue, siblings, exists, err := tree.GenProof(key)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("output %s/%d not in registry: %w", family, index, ErrNotFound)
	}
	root, err := tree.Root()
	if err != nil {
		return nil, err
	}
	return &RegistryProof{Key: leafKey, Value: leafValue, Siblings: siblings, Root: root}, nil
}

// CheckRegistryProof verifies the proof against its root and checks that it
// proves the given output.
func CheckRegistryProof(proof *RegistryProof, so *StoredOutput) (bool, error) {
	key, err := registryKey(so.Family, so.Index)
	if err != nil {
		return false, err
	}
	value, err := registryValue(so)
	if err != nil {
		return false, err
	}
	if string(key) != string(proof.Key) || string(value) != string(proof.Value) {
		return false, nil
	}
	return arbo.CheckProof(registryHash, proof.Key, proof.Value, proof.Root, proof.Siblings)
}
