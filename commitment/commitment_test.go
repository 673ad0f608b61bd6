package commitment

import (
	"errors"
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/gnosisguild/enclave-aggregator/layout"
	"github.com/gnosisguild/enclave-aggregator/proofsys"
)

var testKey = proofsys.KeyID{Family: layout.DKGPk, Circuit: layout.BaseCircuit}

func object(mode proofsys.Mode, digest int64, inputs ...int64) *proofsys.AggregationObject {
	in := []*big.Int{}
	for _, v := range inputs {
		in = append(in, big.NewInt(v))
	}
	return proofsys.NewAggregationObject(testKey, mode, big.NewInt(digest), in)
}

func TestHash(t *testing.T) {
	c := qt.New(t)

	h1, err := Hash(big.NewInt(1), big.NewInt(2))
	c.Assert(err, qt.IsNil)
	h2, err := Hash(big.NewInt(1), big.NewInt(2))
	c.Assert(err, qt.IsNil)
	c.Assert(h1.Cmp(h2), qt.Equals, 0)
	c.Assert(h1.Cmp(Modulus()) < 0, qt.IsTrue)

	h3, err := Hash(big.NewInt(2), big.NewInt(1))
	c.Assert(err, qt.IsNil)
	c.Assert(h1.Cmp(h3), qt.Not(qt.Equals), 0)

	_, err = Hash(Modulus())
	c.Assert(err, qt.IsNotNil)
	_, err = Hash(big.NewInt(-1))
	c.Assert(err, qt.IsNotNil)
}

func TestCommitDeterministic(t *testing.T) {
	c := qt.New(t)

	a, err := MiMC{}.Commit([]*proofsys.AggregationObject{object(proofsys.ModeZK, 7, 1, 2), object(proofsys.ModeZK, 7, 3, 4)})
	c.Assert(err, qt.IsNil)
	b, err := MiMC{}.Commit([]*proofsys.AggregationObject{object(proofsys.ModeZK, 7, 1, 2), object(proofsys.ModeZK, 7, 3, 4)})
	c.Assert(err, qt.IsNil)
	c.Assert(a.Cmp(b), qt.Equals, 0)

	// order of proofs
	swapped, err := MiMC{}.Commit([]*proofsys.AggregationObject{object(proofsys.ModeZK, 7, 3, 4), object(proofsys.ModeZK, 7, 1, 2)})
	c.Assert(err, qt.IsNil)
	c.Assert(a.Cmp(swapped), qt.Not(qt.Equals), 0)

	// order of fields
	fields, err := MiMC{}.Commit([]*proofsys.AggregationObject{object(proofsys.ModeZK, 7, 2, 1), object(proofsys.ModeZK, 7, 3, 4)})
	c.Assert(err, qt.IsNil)
	c.Assert(a.Cmp(fields), qt.Not(qt.Equals), 0)

	// mode and key are bound
	mode, err := MiMC{}.Commit([]*proofsys.AggregationObject{object(proofsys.ModeNonZK, 7, 1, 2), object(proofsys.ModeZK, 7, 3, 4)})
	c.Assert(err, qt.IsNil)
	c.Assert(a.Cmp(mode), qt.Not(qt.Equals), 0)
	key, err := MiMC{}.Commit([]*proofsys.AggregationObject{object(proofsys.ModeZK, 8, 1, 2), object(proofsys.ModeZK, 7, 3, 4)})
	c.Assert(err, qt.IsNil)
	c.Assert(a.Cmp(key), qt.Not(qt.Equals), 0)
}

func TestCommitMatchesInputs(t *testing.T) {
	c := qt.New(t)

	objs := []*proofsys.AggregationObject{object(proofsys.ModeZK, 5, 10), object(proofsys.ModeZK, 6, 11)}
	inputs, err := Inputs(objs)
	c.Assert(err, qt.IsNil)
	c.Assert(inputs, qt.HasLen, 4)
	d0, err := ObjectDigest(proofsys.ModeZK, big.NewInt(5))
	c.Assert(err, qt.IsNil)
	c.Assert(inputs[0].Cmp(d0), qt.Equals, 0)
	c.Assert(inputs[2].Int64(), qt.Equals, int64(10))

	want, err := Hash(inputs...)
	c.Assert(err, qt.IsNil)
	got, err := MiMC{}.Commit(objs)
	c.Assert(err, qt.IsNil)
	c.Assert(got.Cmp(want), qt.Equals, 0)
}

func TestCommitConsumesOnce(t *testing.T) {
	c := qt.New(t)

	o1, o2 := object(proofsys.ModeZK, 1, 1), object(proofsys.ModeZK, 1, 2)
	_, err := MiMC{}.Commit([]*proofsys.AggregationObject{o1})
	c.Assert(err, qt.IsNil)
	c.Assert(o1.Consumed(), qt.IsTrue)

	_, err = MiMC{}.Commit([]*proofsys.AggregationObject{o2, o1})
	c.Assert(errors.Is(err, proofsys.ErrObjectConsumed), qt.IsTrue)
	// nothing consumed on failure
	c.Assert(o2.Consumed(), qt.IsFalse)

	_, err = MiMC{}.Commit(nil)
	c.Assert(errors.Is(err, ErrNoObjects), qt.IsTrue)
}
