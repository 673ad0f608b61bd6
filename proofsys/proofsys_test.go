package proofsys

import (
	"errors"
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/gnosisguild/enclave-aggregator/circuits/testutil"
	"github.com/gnosisguild/enclave-aggregator/layout"
)

var (
	pkKey  = KeyID{Family: layout.ThresholdPkAggregation, Circuit: layout.BaseCircuit}
	ct1Key = KeyID{Family: layout.ThresholdUserDataEncryption, Circuit: layout.Ct1Circuit}
)

func setup(c *qt.C, width int) (*Groth16, *testutil.Base) {
	base, err := testutil.SetupBase(width)
	c.Assert(err, qt.IsNil)
	g := NewGroth16()
	c.Assert(g.Register(pkKey, ModeZK, base.VK), qt.IsNil)
	raw, err := base.VerifyingKeyBytes()
	c.Assert(err, qt.IsNil)
	c.Assert(g.RegisterBytes(ct1Key, ModeNonZK, raw), qt.IsNil)
	return g, base
}

func TestVerify(t *testing.T) {
	c := qt.New(t)
	g, base := setup(c, 3)

	inputs := testutil.RandomInputs(3)
	proof, err := base.Prove(inputs)
	c.Assert(err, qt.IsNil)

	obj, err := g.VerifyZK(pkKey, &BaseProof{Proof: proof, PublicInputs: inputs})
	c.Assert(err, qt.IsNil)
	c.Assert(obj.Key, qt.Equals, pkKey)
	c.Assert(obj.Mode, qt.Equals, ModeZK)
	c.Assert(obj.PublicInputs, qt.HasLen, 3)
	for i := range inputs {
		c.Assert(obj.PublicInputs[i].Cmp(inputs[i]), qt.Equals, 0)
	}
	// the object owns its inputs
	inputs[0].SetInt64(0)
	c.Assert(obj.PublicInputs[0].Sign(), qt.Not(qt.Equals), 0)

	// same key bytes, same digest
	d1, err := g.Digest(pkKey)
	c.Assert(err, qt.IsNil)
	d2, err := g.Digest(ct1Key)
	c.Assert(err, qt.IsNil)
	c.Assert(d1.Cmp(d2), qt.Equals, 0)
	c.Assert(obj.KeyDigest.Cmp(d1), qt.Equals, 0)

	width, err := g.Width(pkKey)
	c.Assert(err, qt.IsNil)
	c.Assert(width, qt.Equals, 3)
	c.Assert(g.Keys(), qt.DeepEquals, []KeyID{pkKey, ct1Key})
}

func TestVerifyFailures(t *testing.T) {
	c := qt.New(t)
	g, base := setup(c, 2)

	inputs := testutil.Inputs(4, 5)
	proof, err := base.Prove(inputs)
	c.Assert(err, qt.IsNil)
	valid := &BaseProof{Proof: proof, PublicInputs: inputs}

	// mode mismatch both ways
	_, err = g.VerifyNonZK(pkKey, valid)
	c.Assert(errors.Is(err, ErrModeMismatch), qt.IsTrue)
	_, err = g.VerifyZK(ct1Key, valid)
	c.Assert(errors.Is(err, ErrModeMismatch), qt.IsTrue)
	_, err = g.VerifyNonZK(ct1Key, valid)
	c.Assert(err, qt.IsNil)

	// unknown key
	_, err = g.VerifyZK(KeyID{Family: layout.DKGPk, Circuit: layout.BaseCircuit}, valid)
	c.Assert(errors.Is(err, ErrUnknownKey), qt.IsTrue)

	// tampered public input
	_, err = g.VerifyZK(pkKey, &BaseProof{Proof: proof, PublicInputs: testutil.Inputs(4, 6)})
	c.Assert(errors.Is(err, ErrInvalidProof), qt.IsTrue)

	// wrong width
	_, err = g.VerifyZK(pkKey, &BaseProof{Proof: proof, PublicInputs: testutil.Inputs(4)})
	c.Assert(errors.Is(err, ErrInvalidProof), qt.IsTrue)

	// corrupted and trailing bytes
	_, err = g.VerifyZK(pkKey, &BaseProof{Proof: proof[:len(proof)/2], PublicInputs: inputs})
	c.Assert(errors.Is(err, ErrInvalidProof), qt.IsTrue)
	_, err = g.VerifyZK(pkKey, &BaseProof{Proof: append(append([]byte{}, proof...), 0), PublicInputs: inputs})
	c.Assert(errors.Is(err, ErrInvalidProof), qt.IsTrue)

	// a non reduced input equal modulo r is rejected, not reduced
	shifted := new(big.Int).Add(inputs[1], BaseCurve.ScalarField())
	_, err = g.VerifyZK(pkKey, &BaseProof{Proof: proof, PublicInputs: []*big.Int{inputs[0], shifted}})
	c.Assert(errors.Is(err, ErrNonCanonicalInput), qt.IsTrue)

	_, err = g.VerifyZK(pkKey, nil)
	c.Assert(errors.Is(err, ErrInvalidProof), qt.IsTrue)
}

func TestAggregationObjectConsume(t *testing.T) {
	c := qt.New(t)

	o := NewAggregationObject(pkKey, ModeZK, big.NewInt(1), testutil.Inputs(1, 2))
	c.Assert(o.Consumed(), qt.IsFalse)
	c.Assert(o.Consume(), qt.IsNil)
	c.Assert(o.Consumed(), qt.IsTrue)
	c.Assert(errors.Is(o.Consume(), ErrObjectConsumed), qt.IsTrue)
}

func TestMode(t *testing.T) {
	c := qt.New(t)

	for _, m := range []Mode{ModeZK, ModeNonZK} {
		parsed, err := ParseMode(m.String())
		c.Assert(err, qt.IsNil)
		c.Assert(parsed, qt.Equals, m)
	}
	_, err := ParseMode("fast")
	c.Assert(err, qt.IsNotNil)
	c.Assert(ModeZK.Tag(), qt.Not(qt.Equals), ModeNonZK.Tag())
	c.Assert(NewGroth16().Register(pkKey, Mode(7), nil), qt.IsNotNil)
}
