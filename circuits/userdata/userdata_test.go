package userdata

import (
	"context"
	"math/big"
	"os"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/native/sw_bls12377"
	"github.com/consensys/gnark/std/math/emulated"
	stdgroth16 "github.com/consensys/gnark/std/recursion/groth16"
	"github.com/consensys/gnark/test"
	qt "github.com/frankban/quicktest"
	"github.com/gnosisguild/enclave-aggregator/circuits"
	"github.com/gnosisguild/enclave-aggregator/circuits/testutil"
	"github.com/gnosisguild/enclave-aggregator/commitment"
	"github.com/gnosisguild/enclave-aggregator/layout"
	"github.com/gnosisguild/enclave-aggregator/proofsys"
	"github.com/gnosisguild/enclave-aggregator/wrapper"
)

var (
	ct0Key = proofsys.KeyID{Family: layout.ThresholdUserDataEncryption, Circuit: layout.Ct0Circuit}
	ct1Key = proofsys.KeyID{Family: layout.ThresholdUserDataEncryption, Circuit: layout.Ct1Circuit}
)

// nativeTriple computes the user data outputs of ct0 = [pk, ct, u, k1] and
// ct1 = [pk, ct, u] verified against keys with the given digests. The u
// commitments are not compared.
func nativeTriple(c *qt.C, digests [2]*big.Int, in0, in1 []*big.Int) wrapper.Triple {
	ciphertext, err := commitment.Hash(in0[1], in1[1])
	c.Assert(err, qt.IsNil)
	publicKey, err := commitment.Hash(in0[0], in1[0])
	c.Assert(err, qt.IsNil)
	aggregation, err := commitment.MiMC{}.Commit([]*proofsys.AggregationObject{
		proofsys.NewAggregationObject(ct0Key, proofsys.ModeNonZK, digests[0], in0),
		proofsys.NewAggregationObject(ct1Key, proofsys.ModeNonZK, digests[1], in1),
	})
	c.Assert(err, qt.IsNil)
	return wrapper.Triple{
		Family:      layout.ThresholdUserDataEncryption,
		Ciphertext:  ciphertext,
		PublicKey:   publicKey,
		Aggregation: aggregation,
	}
}

type fixture struct {
	keys     *proofsys.Groth16
	layout   *layout.Layout
	ct0, ct1 *testutil.Base
}

func newFixture(c *qt.C) *fixture {
	f := &fixture{keys: proofsys.NewGroth16()}
	var err error
	f.ct0, err = testutil.SetupBase(4)
	c.Assert(err, qt.IsNil)
	f.ct1, err = testutil.SetupBase(3)
	c.Assert(err, qt.IsNil)
	c.Assert(f.keys.Register(ct0Key, proofsys.ModeNonZK, f.ct0.VK), qt.IsNil)
	c.Assert(f.keys.Register(ct1Key, proofsys.ModeNonZK, f.ct1.VK), qt.IsNil)
	f.layout, err = layout.Resolve(layout.ThresholdUserDataEncryption, 2, nil)
	c.Assert(err, qt.IsNil)
	return f
}

func (f *fixture) proofs(c *qt.C, in0, in1 []*big.Int) []*proofsys.BaseProof {
	p0, err := f.ct0.Prove(in0)
	c.Assert(err, qt.IsNil)
	p1, err := f.ct1.Prove(in1)
	c.Assert(err, qt.IsNil)
	return []*proofsys.BaseProof{{Proof: p0, PublicInputs: in0}, {Proof: p1, PublicInputs: in1}}
}

func (f *fixture) digests(c *qt.C) [2]*big.Int {
	d0, err := f.keys.Digest(ct0Key)
	c.Assert(err, qt.IsNil)
	d1, err := f.keys.Digest(ct1Key)
	c.Assert(err, qt.IsNil)
	return [2]*big.Int{d0, d1}
}

func TestUserDataCircuit(t *testing.T) {
	if os.Getenv("RUN_CIRCUIT_TESTS") == "" {
		t.Skip("skipping circuit tests...")
	}
	c := qt.New(t)
	f := newFixture(c)

	in0, in1 := testutil.Inputs(1, 2, 42, 3), testutil.Inputs(4, 5, 42)
	proofs := f.proofs(c, in0, in1)
	w, err := wrapper.New(f.layout, f.keys)
	c.Assert(err, qt.IsNil)
	out, err := w.Wrap(context.Background(), proofs)
	c.Assert(err, qt.IsNil)
	c.Assert(wrapper.Equal(out, nativeTriple(c, f.digests(c), in0, in1)), qt.IsTrue)

	placeholder, err := Placeholder(f.layout, f.keys)
	c.Assert(err, qt.IsNil)
	assignment, err := Assignment(proofs, out)
	c.Assert(err, qt.IsNil)

	assert := test.NewAssert(t)
	assert.SolvingSucceeded(placeholder, assignment,
		test.WithCurves(ecc.BW6_761), test.WithBackends(backend.GROTH16),
		test.NoFuzzing(), test.NoSerializationChecks())

	// swapped public key and ciphertext commitments
	swapped := *assignment
	swapped.Ciphertext, swapped.PublicKey = assignment.PublicKey, assignment.Ciphertext
	assert.SolvingFailed(placeholder, &swapped,
		test.WithCurves(ecc.BW6_761), test.WithBackends(backend.GROTH16),
		test.NoFuzzing(), test.NoSerializationChecks())
}

func TestUserDataCircuitCrossProof(t *testing.T) {
	if os.Getenv("RUN_CIRCUIT_TESTS") == "" {
		t.Skip("skipping circuit tests...")
	}
	c := qt.New(t)
	f := newFixture(c)

	// valid proofs with different u commitments, the native wrapper refuses
	// them so the outputs are computed by hand. Every output matches its
	// inputs, only the u equality fails.
	in0, in1 := testutil.Inputs(1, 2, 42, 3), testutil.Inputs(4, 5, 43)
	proofs := f.proofs(c, in0, in1)
	w, err := wrapper.New(f.layout, f.keys)
	c.Assert(err, qt.IsNil)
	_, err = w.Wrap(context.Background(), proofs)
	c.Assert(err, qt.ErrorIs, wrapper.ErrCrossProofConstraint)

	placeholder, err := Placeholder(f.layout, f.keys)
	c.Assert(err, qt.IsNil)
	assignment, err := Assignment(proofs, nativeTriple(c, f.digests(c), in0, in1))
	c.Assert(err, qt.IsNil)
	test.NewAssert(t).SolvingFailed(placeholder, assignment,
		test.WithCurves(ecc.BW6_761), test.WithBackends(backend.GROTH16),
		test.NoFuzzing(), test.NoSerializationChecks())
}

// outputsCircuit checks the output constraints of Circuit over plain public
// inputs, without verifying the proofs.
type outputsCircuit struct {
	Ciphertext  frontend.Variable `gnark:",public"`
	PublicKey   frontend.Variable `gnark:",public"`
	Aggregation frontend.Variable `gnark:",public"`
	Ct0, Ct1    circuits.Witness

	fixed *Circuit `gnark:"-"`
}

func (o *outputsCircuit) Define(api frontend.API) error {
	inputs := make([][]frontend.Variable, 2)
	for i, w := range []circuits.Witness{o.Ct0, o.Ct1} {
		packed, err := circuits.PackWitness(api, w)
		if err != nil {
			return err
		}
		inputs[i] = packed
	}
	c := *o.fixed
	c.Ciphertext, c.PublicKey, c.Aggregation = o.Ciphertext, o.PublicKey, o.Aggregation
	return c.assertOutputs(api, inputs)
}

func witnessOf(c *qt.C, inputs []*big.Int) circuits.Witness {
	w, err := proofsys.NewPublicWitness(inputs)
	c.Assert(err, qt.IsNil)
	res, err := stdgroth16.ValueOfWitness[sw_bls12377.ScalarField](w)
	c.Assert(err, qt.IsNil)
	return res
}

func TestOutputConstraints(t *testing.T) {
	c := qt.New(t)

	l, err := layout.Resolve(layout.ThresholdUserDataEncryption, 2, nil)
	c.Assert(err, qt.IsNil)
	digests := [2]*big.Int{big.NewInt(21), big.NewInt(22)}
	fixed := &Circuit{Slots: [2]circuits.Slot{
		{ModeTag: proofsys.ModeNonZK.Tag(), KeyDigest: digests[0]},
		{ModeTag: proofsys.ModeNonZK.Tag(), KeyDigest: digests[1]},
	}}
	c.Assert(fixed.setFields(l), qt.IsNil)
	placeholder := &outputsCircuit{
		Ct0:   circuits.Witness{Public: make([]emulated.Element[sw_bls12377.ScalarField], 4)},
		Ct1:   circuits.Witness{Public: make([]emulated.Element[sw_bls12377.ScalarField], 3)},
		fixed: fixed,
	}
	assign := func(in0, in1 []*big.Int, out wrapper.Triple) *outputsCircuit {
		return &outputsCircuit{
			Ciphertext:  out.Ciphertext,
			PublicKey:   out.PublicKey,
			Aggregation: out.Aggregation,
			Ct0:         witnessOf(c, in0),
			Ct1:         witnessOf(c, in1),
		}
	}
	field := circuits.WrapperCurve.ScalarField()

	in0, in1 := testutil.Inputs(1, 2, 42, 3), testutil.Inputs(4, 5, 42)
	out := nativeTriple(c, digests, in0, in1)
	c.Assert(test.IsSolved(placeholder, assign(in0, in1, out), field), qt.IsNil)

	// swapped ciphertext and public key commitments
	swapped := out
	swapped.Ciphertext, swapped.PublicKey = out.PublicKey, out.Ciphertext
	c.Assert(test.IsSolved(placeholder, assign(in0, in1, swapped), field), qt.IsNotNil)

	// outputs consistent with the inputs, but ct1 proves another u
	in1 = testutil.Inputs(4, 5, 43)
	out = nativeTriple(c, digests, in0, in1)
	err = test.IsSolved(placeholder, assign(in0, in1, out), field)
	c.Assert(err, qt.IsNotNil)
	c.Assert(err, qt.ErrorMatches, "(?s).*42 == 43.*")
}

func TestPlaceholderErrors(t *testing.T) {
	c := qt.New(t)

	keys := proofsys.NewGroth16()
	l, err := layout.Resolve(layout.ThresholdUserDataEncryption, 2, nil)
	c.Assert(err, qt.IsNil)
	_, err = Placeholder(l, keys)
	c.Assert(err, qt.ErrorIs, layout.ErrConfiguration)

	pk, err := layout.Resolve(layout.DKGPk, 2, nil)
	c.Assert(err, qt.IsNil)
	_, err = Placeholder(pk, keys)
	c.Assert(err, qt.ErrorIs, layout.ErrConfiguration)

	_, err = Assignment(nil, wrapper.Scalar{})
	c.Assert(err, qt.IsNotNil)
	_, err = Assignment(nil, wrapper.Triple{})
	c.Assert(err, qt.IsNotNil)

	// ct0 key registered for zero-knowledge proofs
	ct0, err := testutil.SetupBase(4)
	c.Assert(err, qt.IsNil)
	ct1, err := testutil.SetupBase(3)
	c.Assert(err, qt.IsNil)
	c.Assert(keys.Register(ct0Key, proofsys.ModeZK, ct0.VK), qt.IsNil)
	c.Assert(keys.Register(ct1Key, proofsys.ModeNonZK, ct1.VK), qt.IsNil)
	_, err = Placeholder(l, keys)
	c.Assert(err, qt.ErrorIs, layout.ErrConfiguration)
	c.Assert(err, qt.ErrorMatches, ".*slot 0.*verifies zk proofs.*")
}
