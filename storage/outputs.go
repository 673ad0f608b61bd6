package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/gnosisguild/enclave-aggregator/layout"
	"github.com/gnosisguild/enclave-aggregator/log"
	"github.com/gnosisguild/enclave-aggregator/types"
	"github.com/gnosisguild/enclave-aggregator/wrapper"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

// StoredOutput is the encoding of a wrapper output in the database.
type StoredOutput struct {
	Family layout.Family   `cbor:"0,keyasint" json:"family"`
	Kind   wrapper.Kind    `cbor:"1,keyasint" json:"kind"`
	Index  uint64          `cbor:"2,keyasint" json:"index"`
	Values []*types.BigInt `cbor:"3,keyasint" json:"values"`
}

// NewStoredOutput returns the storable form of out.
func NewStoredOutput(index uint64, out wrapper.Output) *StoredOutput {
	values := out.Values()
	so := &StoredOutput{
		Family: out.OutputFamily(),
		Kind:   out.Kind(),
		Index:  index,
		Values: make([]*types.BigInt, len(values)),
	}
	for i, v := range values {
		so.Values[i] = types.BigIntFromMath(v)
	}
	return so
}

// Output rebuilds the wrapper output.
func (so *StoredOutput) Output() (wrapper.Output, error) {
	values := make([]*big.Int, len(so.Values))
	for i, v := range so.Values {
		values[i] = v.MathBigInt()
	}
	return wrapper.NewOutput(so.Family, so.Kind, values)
}

// familyID returns the single byte identifying the family in keys.
func familyID(family layout.Family) (byte, error) {
	for i, f := range layout.Families() {
		if f == family {
			return byte(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown family %q", layout.ErrConfiguration, family)
}

// familyKey is e3ID || familyID.
func familyKey(e3ID *types.E3ID, family layout.Family) ([]byte, error) {
	id, err := familyID(family)
	if err != nil {
		return nil, err
	}
	return append(e3ID.Marshal(), id), nil
}

// outputKey is e3ID || familyID || index, with the index big endian so
// iteration follows submission order.
func outputKey(e3ID *types.E3ID, family layout.Family, index uint64) ([]byte, error) {
	key, err := familyKey(e3ID, family)
	if err != nil {
		return nil, err
	}
	return binary.BigEndian.AppendUint64(key, index), nil
}

// PushOutput stores the output as the next one of its family for the E3 and
// adds it to the E3 output registry. It returns the index assigned to it.
func (s *Storage) PushOutput(e3ID *types.E3ID, out wrapper.Output) (uint64, error) {
	if out == nil {
		return 0, fmt.Errorf("nil output")
	}
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	index, err := s.countOutputs(e3ID, out.OutputFamily())
	if err != nil {
		return 0, err
	}
	key, err := outputKey(e3ID, out.OutputFamily(), index)
	if err != nil {
		return 0, err
	}
	so := NewStoredOutput(index, out)
	data, err := encodeArtifact(so)
	if err != nil {
		return 0, err
	}
	// the registry leaf and the output are committed together
	wTx := s.db.WriteTx()
	defer wTx.Discard()
	if err := s.registerOutput(wTx, e3ID, so); err != nil {
		return 0, fmt.Errorf("register output: %w", err)
	}
	if err := prefixeddb.NewPrefixedWriteTx(wTx, outputPrefix).Set(key, data); err != nil {
		return 0, fmt.Errorf("store output: %w", err)
	}
	if err := wTx.Commit(); err != nil {
		return 0, fmt.Errorf("commit output: %w", err)
	}
	log.Debugw("output stored", "e3", e3ID.String(), "family", out.OutputFamily(), "index", index)
	return index, nil
}

// Output returns the output stored at index for the E3 and family.
func (s *Storage) Output(e3ID *types.E3ID, family layout.Family, index uint64) (*StoredOutput, error) {
	key, err := outputKey(e3ID, family, index)
	if err != nil {
		return nil, err
	}
	so := &StoredOutput{}
	if err := s.getArtifact(outputPrefix, key, so); err != nil {
		return nil, err
	}
	return so, nil
}

// Outputs returns every output stored for the E3 and family, in submission
// order.
func (s *Storage) Outputs(e3ID *types.E3ID, family layout.Family) ([]*StoredOutput, error) {
	prefix, err := familyKey(e3ID, family)
	if err != nil {
		return nil, err
	}
	var outputs []*StoredOutput
	if err := s.iterateArtifacts(outputPrefix, prefix, func(_, v []byte) error {
		so := &StoredOutput{}
		if err := decodeArtifact(v, so); err != nil {
			return fmt.Errorf("decode output: %w", err)
		}
		outputs = append(outputs, so)
		return nil
	}); err != nil {
		return nil, err
	}
	return outputs, nil
}

func (s *Storage) countOutputs(e3ID *types.E3ID, family layout.Family) (uint64, error) {
	prefix, err := familyKey(e3ID, family)
	if err != nil {
		return 0, err
	}
	var count uint64
	err = s.iterateArtifacts(outputPrefix, prefix, func(_, _ []byte) error {
		count++
		return nil
	})
	return count, err
}

// SetRoot stores the fold root of the family outputs for the E3, replacing
// any previous one.
func (s *Storage) SetRoot(e3ID *types.E3ID, root wrapper.Output, leaves uint64) error {
	key, err := familyKey(e3ID, root.OutputFamily())
	if err != nil {
		return err
	}
	return s.setArtifact(rootPrefix, key, NewStoredOutput(leaves, root))
}

// Root returns the last fold root stored for the E3 and family. The Index of
// the returned output is the number of leaves folded into it.
func (s *Storage) Root(e3ID *types.E3ID, family layout.Family) (*StoredOutput, error) {
	key, err := familyKey(e3ID, family)
	if err != nil {
		return nil, err
	}
	so := &StoredOutput{}
	if err := s.getArtifact(rootPrefix, key, so); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("no root for %s: %w", family, ErrNotFound)
		}
		return nil, err
	}
	return so, nil
}
