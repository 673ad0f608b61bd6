// Package userdata contains the gnark circuit of the
// threshold/user_data_encryption wrapper. It verifies the ct0 and ct1 proofs,
// which are generated without zero-knowledge blinding, asserts that both
// share the same u_commitment and exposes three public outputs: the
// ciphertext, public key and aggregation commitments.
package userdata

import (
	"fmt"

	"github.com/consensys/gnark/frontend"
	"github.com/gnosisguild/enclave-aggregator/circuits"
	"github.com/gnosisguild/enclave-aggregator/layout"
	"github.com/gnosisguild/enclave-aggregator/proofsys"
	"github.com/gnosisguild/enclave-aggregator/wrapper"
)

type Circuit struct {
	Ciphertext  frontend.Variable `gnark:",public"`
	PublicKey   frontend.Variable `gnark:",public"`
	Aggregation frontend.Variable `gnark:",public"`

	Ct0 circuits.InnerProof
	Ct1 circuits.InnerProof

	Slots [2]circuits.Slot `gnark:"-"`
	// positions of the named fields in each slot
	u, pk, ct [2]int `gnark:"-"`
}

func (c *Circuit) Define(api frontend.API) error {
	inputs, err := circuits.VerifySlots(api, c.Slots[:], []circuits.InnerProof{c.Ct0, c.Ct1})
	if err != nil {
		circuits.FrontendError(api, "failed to verify ciphertext proofs", err)
		return err
	}
	return c.assertOutputs(api, inputs)
}

// assertOutputs binds the packed public inputs of ct0 and ct1 to the three
// public outputs.
func (c *Circuit) assertOutputs(api frontend.API, inputs [][]frontend.Variable) error {
	ct0, ct1 := inputs[wrapper.SlotCt0], inputs[wrapper.SlotCt1]
	// both ciphertexts were encrypted with the same randomness
	api.AssertIsEqual(ct0[c.u[0]], ct1[c.u[1]])

	ciphertext, err := circuits.Hash(api, ct0[c.ct[0]], ct1[c.ct[1]])
	if err != nil {
		return err
	}
	api.AssertIsEqual(ciphertext, c.Ciphertext)
	publicKey, err := circuits.Hash(api, ct0[c.pk[0]], ct1[c.pk[1]])
	if err != nil {
		return err
	}
	api.AssertIsEqual(publicKey, c.PublicKey)
	aggregation, err := circuits.SlotsCommitment(api, c.Slots[:], inputs)
	if err != nil {
		circuits.FrontendError(api, "failed to compute aggregation commitment", err)
		return err
	}
	api.AssertIsEqual(aggregation, c.Aggregation)
	return nil
}

// setFields reads the named field positions of both slots from the layout.
func (c *Circuit) setFields(l *layout.Layout) error {
	for slot := range 2 {
		var err error
		if c.u[slot], err = l.FieldIndex(slot, layout.FieldUCommitment); err != nil {
			return err
		}
		if c.pk[slot], err = l.FieldIndex(slot, layout.FieldPkCommitment); err != nil {
			return err
		}
		if c.ct[slot], err = l.FieldIndex(slot, layout.FieldCtCommitment); err != nil {
			return err
		}
	}
	return nil
}

// Placeholder returns the circuit to compile for the user data encryption
// layout.
func Placeholder(l *layout.Layout, keys circuits.KeySource) (*Circuit, error) {
	if l.Family != layout.ThresholdUserDataEncryption || l.NProofs() != layout.UserDataEncryptionProofs {
		return nil, fmt.Errorf("%w: not a user data encryption layout", layout.ErrConfiguration)
	}
	slots, err := circuits.FixedSlots(l, keys)
	if err != nil {
		return nil, err
	}
	if err := circuits.CheckModes(l, slots, proofsys.ModeNonZK); err != nil {
		return nil, err
	}
	proofs := circuits.PlaceholderProofs(l)
	c := &Circuit{
		Ct0:   proofs[wrapper.SlotCt0],
		Ct1:   proofs[wrapper.SlotCt1],
		Slots: [2]circuits.Slot{slots[0], slots[1]},
	}
	if err := c.setFields(l); err != nil {
		return nil, err
	}
	return c, nil
}

// Assignment returns the witness assignment for the ct0 and ct1 proofs and
// the triple computed natively for them.
func Assignment(proofs []*proofsys.BaseProof, out wrapper.Output) (*Circuit, error) {
	triple, ok := out.(wrapper.Triple)
	if !ok {
		return nil, fmt.Errorf("expected a triple output, got %s", out.Kind())
	}
	if len(proofs) != layout.UserDataEncryptionProofs {
		return nil, fmt.Errorf("expected %d proofs, got %d", layout.UserDataEncryptionProofs, len(proofs))
	}
	inner, err := circuits.ValueOfProofs(proofs)
	if err != nil {
		return nil, err
	}
	return &Circuit{
		Ciphertext:  triple.Ciphertext,
		PublicKey:   triple.PublicKey,
		Aggregation: triple.Aggregation,
		Ct0:         inner[wrapper.SlotCt0],
		Ct1:         inner[wrapper.SlotCt1],
	}, nil
}
