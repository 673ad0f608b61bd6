// Package commitment computes the aggregation commitment of a set of
// verified proofs natively. The commitment is a MiMC hash over the BW6-761
// scalar field, the native field of the wrapper circuits, so the same value
// can be recomputed and asserted in-circuit.
//
// For objects o_0..o_{n-1} the commitment is
//
//	MiMC(d_0, ..., d_{n-1}, o_0.inputs..., ..., o_{n-1}.inputs...)
//
// where d_i = MiMC(o_i.mode_tag, o_i.key_digest).
package commitment

import (
	"errors"
	"fmt"
	"math/big"

	fr_bw6761 "github.com/consensys/gnark-crypto/ecc/bw6-761/fr"
	"github.com/consensys/gnark-crypto/ecc/bw6-761/fr/mimc"
	"github.com/gnosisguild/enclave-aggregator/proofsys"
)

// ErrNoObjects is returned when a commitment over an empty set is requested.
var ErrNoObjects = errors.New("no aggregation objects")

// Modulus returns the modulus of the commitment field.
func Modulus() *big.Int {
	return fr_bw6761.Modulus()
}

// Hash returns the MiMC hash of the inputs, each absorbed as one field
// element. Inputs must be reduced elements of the BW6-761 scalar field.
func Hash(inputs ...*big.Int) (*big.Int, error) {
	modulus := fr_bw6761.Modulus()
	h := mimc.NewMiMC()
	buf := make([]byte, fr_bw6761.Bytes)
	for i, in := range inputs {
		if in == nil || in.Sign() < 0 || in.Cmp(modulus) >= 0 {
			return nil, fmt.Errorf("hash input %d is not a field element", i)
		}
		in.FillBytes(buf)
		if _, err := h.Write(buf); err != nil {
			return nil, fmt.Errorf("hash input %d: %w", i, err)
		}
	}
	return new(big.Int).SetBytes(h.Sum(nil)), nil
}

// ObjectDigest binds a verifying key digest to the verification mode.
func ObjectDigest(mode proofsys.Mode, keyDigest *big.Int) (*big.Int, error) {
	return Hash(new(big.Int).SetUint64(mode.Tag()), keyDigest)
}

// Inputs returns the ordered list of field elements absorbed by the
// commitment of the objects, without consuming them.
func Inputs(objs []*proofsys.AggregationObject) ([]*big.Int, error) {
	if len(objs) == 0 {
		return nil, ErrNoObjects
	}
	inputs := make([]*big.Int, 0, len(objs))
	for i, o := range objs {
		d, err := ObjectDigest(o.Mode, o.KeyDigest)
		if err != nil {
			return nil, fmt.Errorf("object %d digest: %w", i, err)
		}
		inputs = append(inputs, d)
	}
	for _, o := range objs {
		inputs = append(inputs, o.PublicInputs...)
	}
	return inputs, nil
}

// Committer computes the aggregation commitment of verified objects,
// consuming them.
type Committer interface {
	Commit(objs []*proofsys.AggregationObject) (*big.Int, error)
}

// MiMC is the default Committer.
type MiMC struct{}

// Commit consumes every object and returns their aggregation commitment. It
// fails without consuming anything if one of them was already consumed.
func (MiMC) Commit(objs []*proofsys.AggregationObject) (*big.Int, error) {
	for _, o := range objs {
		if o.Consumed() {
			return nil, fmt.Errorf("%w: %s", proofsys.ErrObjectConsumed, o.Key)
		}
	}
	inputs, err := Inputs(objs)
	if err != nil {
		return nil, err
	}
	for _, o := range objs {
		if err := o.Consume(); err != nil {
			return nil, err
		}
	}
	return Hash(inputs...)
}
