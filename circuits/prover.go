package circuits

import (
	"bytes"
	"context"
	"fmt"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/gnosisguild/enclave-aggregator/artifacts"
)

// Compile compiles a wrapper circuit over the wrapper curve.
func Compile(placeholder frontend.Circuit) (constraint.ConstraintSystem, error) {
	ccs, err := frontend.Compile(WrapperCurve.ScalarField(), r1cs.NewBuilder, placeholder)
	if err != nil {
		return nil, fmt.Errorf("compile wrapper circuit: %w", err)
	}
	return ccs, nil
}

// Prove generates the wrapper proof of the assignment.
func Prove(ccs constraint.ConstraintSystem, pk groth16.ProvingKey, assignment frontend.Circuit) (groth16.Proof, error) {
	witness, err := frontend.NewWitness(assignment, WrapperCurve.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("failed to create witness: %w", err)
	}
	return groth16.Prove(ccs, pk, witness)
}

// ProveWithArtifacts loads the circuit definition and proving key from the
// artifacts, downloading them if needed, and proves the assignment.
func ProveWithArtifacts(ctx context.Context, ca *artifacts.CircuitArtifacts, assignment frontend.Circuit) (groth16.Proof, error) {
	if err := ca.LoadAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to load wrapper artifacts: %w", err)
	}
	ccs := groth16.NewCS(WrapperCurve)
	if _, err := ccs.ReadFrom(bytes.NewReader(ca.CircuitDefinition())); err != nil {
		return nil, fmt.Errorf("failed to read wrapper definition: %w", err)
	}
	pk := groth16.NewProvingKey(WrapperCurve)
	if _, err := pk.ReadFrom(bytes.NewReader(ca.ProvingKey())); err != nil {
		return nil, fmt.Errorf("failed to read wrapper proving key: %w", err)
	}
	return Prove(ccs, pk, assignment)
}

// Verify verifies a wrapper proof against the public part of the assignment.
func Verify(vk groth16.VerifyingKey, proof groth16.Proof, assignment frontend.Circuit) error {
	public, err := frontend.NewWitness(assignment, WrapperCurve.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return fmt.Errorf("failed to create public witness: %w", err)
	}
	return groth16.Verify(proof, vk, public)
}
