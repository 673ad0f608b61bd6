package wrapper

import (
	"context"
	"math/big"
	"os"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/test"
	qt "github.com/frankban/quicktest"
	"github.com/gnosisguild/enclave-aggregator/circuits"
	"github.com/gnosisguild/enclave-aggregator/circuits/testutil"
	"github.com/gnosisguild/enclave-aggregator/layout"
	"github.com/gnosisguild/enclave-aggregator/proofsys"
	"github.com/gnosisguild/enclave-aggregator/wrapper"
)

func TestWrapperCircuit(t *testing.T) {
	if os.Getenv("RUN_CIRCUIT_TESTS") == "" {
		t.Skip("skipping circuit tests...")
	}
	c := qt.New(t)

	keys := proofsys.NewGroth16()
	base, err := testutil.SetupBase(2)
	c.Assert(err, qt.IsNil)
	c.Assert(keys.Register(proofsys.KeyID{Family: layout.ThresholdPkAggregation, Circuit: layout.BaseCircuit}, proofsys.ModeZK, base.VK), qt.IsNil)

	l, err := layout.Resolve(layout.ThresholdPkAggregation, 2, layout.Params{layout.H: 1})
	c.Assert(err, qt.IsNil)
	proofs := []*proofsys.BaseProof{}
	for range 2 {
		inputs := testutil.RandomInputs(2)
		raw, err := base.Prove(inputs)
		c.Assert(err, qt.IsNil)
		proofs = append(proofs, &proofsys.BaseProof{Proof: raw, PublicInputs: inputs})
	}

	w, err := wrapper.New(l, keys)
	c.Assert(err, qt.IsNil)
	out, err := w.Wrap(context.Background(), proofs)
	c.Assert(err, qt.IsNil)

	placeholder, err := Placeholder(l, keys)
	c.Assert(err, qt.IsNil)
	assignment, err := Assignment(proofs, out)
	c.Assert(err, qt.IsNil)

	assert := test.NewAssert(t)
	assert.SolvingSucceeded(placeholder, assignment,
		test.WithCurves(ecc.BW6_761), test.WithBackends(backend.GROTH16),
		test.NoFuzzing(), test.NoSerializationChecks())

	// any other commitment is rejected
	assignment.Commitment = new(big.Int).Add(out.(wrapper.Scalar).Value, big.NewInt(1))
	assert.SolvingFailed(placeholder, assignment,
		test.WithCurves(ecc.BW6_761), test.WithBackends(backend.GROTH16),
		test.NoFuzzing(), test.NoSerializationChecks())
}

func TestWrapperCircuitProve(t *testing.T) {
	if os.Getenv("RUN_CIRCUIT_TESTS") == "" {
		t.Skip("skipping circuit tests...")
	}
	c := qt.New(t)

	keys := proofsys.NewGroth16()
	base, err := testutil.SetupBase(1)
	c.Assert(err, qt.IsNil)
	c.Assert(keys.Register(proofsys.KeyID{Family: layout.DKGPk, Circuit: layout.BaseCircuit}, proofsys.ModeZK, base.VK), qt.IsNil)
	l, err := layout.Resolve(layout.DKGPk, 1, nil)
	c.Assert(err, qt.IsNil)

	inputs := testutil.RandomInputs(1)
	raw, err := base.Prove(inputs)
	c.Assert(err, qt.IsNil)
	proofs := []*proofsys.BaseProof{{Proof: raw, PublicInputs: inputs}}
	out, err := wrapper.Commit(context.Background(), layout.Config{Family: layout.DKGPk, NProofs: 1}, keys, proofs)
	c.Assert(err, qt.IsNil)

	placeholder, err := Placeholder(l, keys)
	c.Assert(err, qt.IsNil)
	ccs, err := circuits.Compile(placeholder)
	c.Assert(err, qt.IsNil)
	pk, vk, err := groth16.Setup(ccs)
	c.Assert(err, qt.IsNil)
	assignment, err := Assignment(proofs, out)
	c.Assert(err, qt.IsNil)
	proof, err := circuits.Prove(ccs, pk, assignment)
	c.Assert(err, qt.IsNil)
	c.Assert(circuits.Verify(vk, proof, assignment), qt.IsNil)
}

func TestPlaceholderErrors(t *testing.T) {
	c := qt.New(t)

	keys := proofsys.NewGroth16()
	l, err := layout.Resolve(layout.DKGPk, 1, nil)
	c.Assert(err, qt.IsNil)
	_, err = Placeholder(l, keys)
	c.Assert(err, qt.ErrorIs, layout.ErrConfiguration)

	ud, err := layout.Resolve(layout.ThresholdUserDataEncryption, 2, nil)
	c.Assert(err, qt.IsNil)
	_, err = Placeholder(ud, keys)
	c.Assert(err, qt.ErrorIs, layout.ErrConfiguration)

	_, err = Assignment(nil, wrapper.Triple{})
	c.Assert(err, qt.IsNotNil)

	// a key registered for non zero-knowledge proofs
	base, err := testutil.SetupBase(1)
	c.Assert(err, qt.IsNil)
	c.Assert(keys.Register(proofsys.KeyID{Family: layout.DKGPk, Circuit: layout.BaseCircuit}, proofsys.ModeNonZK, base.VK), qt.IsNil)
	_, err = Placeholder(l, keys)
	c.Assert(err, qt.ErrorIs, layout.ErrConfiguration)
	c.Assert(err, qt.ErrorMatches, ".*verifies nonzk proofs.*")
}
