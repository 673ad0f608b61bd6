// Package testutil provides a small base circuit, its Groth16 setup and
// helpers to produce base proofs to feed the wrapper circuits in tests.
package testutil

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	stdgroth16 "github.com/consensys/gnark/std/recursion/groth16"
	"github.com/gnosisguild/enclave-aggregator/util"
	"github.com/vocdoni/arbo"
)

// BaseCircuit proves the knowledge of the sum of its public inputs.
type BaseCircuit struct {
	Sum    frontend.Variable
	Public []frontend.Variable `gnark:",public"`
}

func (c *BaseCircuit) Define(api frontend.API) error {
	sum := frontend.Variable(0)
	for _, p := range c.Public {
		sum = api.Add(sum, p)
	}
	api.AssertIsEqual(sum, c.Sum)
	return nil
}

// Base is a compiled and set up base circuit with a fixed number of public
// inputs.
type Base struct {
	Width int
	CCS   constraint.ConstraintSystem
	PK    groth16.ProvingKey
	VK    groth16.VerifyingKey
}

// SetupBase compiles the base circuit over BLS12-377 with width public inputs
// and runs the Groth16 setup.
func SetupBase(width int) (*Base, error) {
	ccs, err := frontend.Compile(ecc.BLS12_377.ScalarField(), r1cs.NewBuilder, &BaseCircuit{
		Public: make([]frontend.Variable, width),
	})
	if err != nil {
		return nil, fmt.Errorf("compile base circuit: %w", err)
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, fmt.Errorf("setup base circuit: %w", err)
	}
	return &Base{Width: width, CCS: ccs, PK: pk, VK: vk}, nil
}

// ProveRaw proves the inputs and returns the gnark proof, with the options
// required to verify it inside a BW6-761 circuit.
func (b *Base) ProveRaw(inputs []*big.Int) (groth16.Proof, error) {
	if len(inputs) != b.Width {
		return nil, fmt.Errorf("expected %d inputs, got %d", b.Width, len(inputs))
	}
	modulus := ecc.BLS12_377.ScalarField()
	sum := new(big.Int)
	public := make([]frontend.Variable, len(inputs))
	for i, in := range inputs {
		sum.Add(sum, in)
		public[i] = in
	}
	sum.Mod(sum, modulus)
	fullWitness, err := frontend.NewWitness(&BaseCircuit{Sum: sum, Public: public}, modulus)
	if err != nil {
		return nil, fmt.Errorf("base witness: %w", err)
	}
	proof, err := groth16.Prove(b.CCS, b.PK, fullWitness, stdgroth16.GetNativeProverOptions(
		ecc.BW6_761.ScalarField(), ecc.BLS12_377.ScalarField()))
	if err != nil {
		return nil, fmt.Errorf("prove base circuit: %w", err)
	}
	return proof, nil
}

// Prove proves the inputs and returns the serialized proof.
func (b *Base) Prove(inputs []*big.Int) ([]byte, error) {
	proof, err := b.ProveRaw(inputs)
	if err != nil {
		return nil, err
	}
	return Encode(proof)
}

// VerifyingKeyBytes returns the serialized verifying key.
func (b *Base) VerifyingKeyBytes() ([]byte, error) {
	return Encode(b.VK)
}

// RandomInputs returns n random elements of the BLS12-377 scalar field.
func RandomInputs(n int) []*big.Int {
	modulus := ecc.BLS12_377.ScalarField()
	inputs := make([]*big.Int, n)
	for i := range inputs {
		inputs[i] = arbo.BigToFF(modulus, new(big.Int).SetBytes(util.RandomBytes(32)))
	}
	return inputs
}

// Inputs returns the small integers provided as field elements.
func Inputs(values ...int64) []*big.Int {
	inputs := make([]*big.Int, len(values))
	for i, v := range values {
		inputs[i] = big.NewInt(v)
	}
	return inputs
}
