// Package wrapper contains the gnark circuit of the scalar output wrappers.
// The circuit verifies N BLS12-377 Groth16 proofs against the fixed
// verifying keys of their slots and asserts that the public Commitment is
// the aggregation commitment of the verified public inputs. The value of
// Commitment is the one computed natively by the wrapper package.
package wrapper

import (
	"fmt"

	"github.com/consensys/gnark/frontend"
	"github.com/gnosisguild/enclave-aggregator/circuits"
	"github.com/gnosisguild/enclave-aggregator/layout"
	"github.com/gnosisguild/enclave-aggregator/proofsys"
	"github.com/gnosisguild/enclave-aggregator/wrapper"
)

type Circuit struct {
	Commitment frontend.Variable `gnark:",public"`
	Proofs     []circuits.InnerProof
	// Slots are fixed at compile time, in slot order.
	Slots []circuits.Slot `gnark:"-"`
}

func (c *Circuit) Define(api frontend.API) error {
	inputs, err := circuits.VerifySlots(api, c.Slots, c.Proofs)
	if err != nil {
		circuits.FrontendError(api, "failed to verify base proofs", err)
		return err
	}
	res, err := circuits.SlotsCommitment(api, c.Slots, inputs)
	if err != nil {
		circuits.FrontendError(api, "failed to compute aggregation commitment", err)
		return err
	}
	api.AssertIsEqual(res, c.Commitment)
	return nil
}

// Placeholder returns the circuit to compile for the layout, with the
// verifying keys taken from keys.
func Placeholder(l *layout.Layout, keys circuits.KeySource) (*Circuit, error) {
	if l.Family == layout.ThresholdUserDataEncryption {
		return nil, fmt.Errorf("%w: %s has a triple output", layout.ErrConfiguration, l.Family)
	}
	slots, err := circuits.FixedSlots(l, keys)
	if err != nil {
		return nil, err
	}
	if err := circuits.CheckModes(l, slots, proofsys.ModeZK); err != nil {
		return nil, err
	}
	return &Circuit{
		Proofs: circuits.PlaceholderProofs(l),
		Slots:  slots,
	}, nil
}

// Assignment returns the witness assignment for the proofs and the output
// computed natively for them.
func Assignment(proofs []*proofsys.BaseProof, out wrapper.Output) (*Circuit, error) {
	scalar, ok := out.(wrapper.Scalar)
	if !ok {
		return nil, fmt.Errorf("expected a scalar output, got %s", out.Kind())
	}
	inner, err := circuits.ValueOfProofs(proofs)
	if err != nil {
		return nil, err
	}
	return &Circuit{
		Commitment: scalar.Value,
		Proofs:     inner,
	}, nil
}
