package circuits

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/native/sw_bls12377"
	"github.com/consensys/gnark/std/math/emulated"
	stdgroth16 "github.com/consensys/gnark/std/recursion/groth16"
	"github.com/gnosisguild/enclave-aggregator/layout"
	"github.com/gnosisguild/enclave-aggregator/proofsys"
)

// KeySource provides the native verifying keys of the base circuits.
// *proofsys.Groth16 implements it.
type KeySource interface {
	VerifyingKey(proofsys.KeyID) (groth16.VerifyingKey, proofsys.Mode, error)
	Digest(proofsys.KeyID) (*big.Int, error)
}

// Slot is the part of a wrapper slot fixed at compile time.
type Slot struct {
	VerifyingKey VerifyingKey
	ModeTag      uint64
	KeyDigest    *big.Int
}

// FixedSlots returns the compile time data of every slot of the layout,
// checking that each key expects the number of public inputs of its slot.
func FixedSlots(l *layout.Layout, keys KeySource) ([]Slot, error) {
	slots := make([]Slot, l.NProofs())
	for i, s := range l.Slots {
		id := proofsys.KeyID{Family: l.Family, Circuit: s.Circuit}
		vk, mode, err := keys.VerifyingKey(id)
		if err != nil {
			return nil, fmt.Errorf("%w: slot %d: %v", layout.ErrConfiguration, i, err)
		}
		if err := l.CheckCompiled(i, vk.NbPublicWitness()); err != nil {
			return nil, err
		}
		digest, err := keys.Digest(id)
		if err != nil {
			return nil, err
		}
		fixed, err := stdgroth16.ValueOfVerifyingKeyFixed[sw_bls12377.G1Affine, sw_bls12377.G2Affine, sw_bls12377.GT](vk)
		if err != nil {
			return nil, fmt.Errorf("slot %d verifying key: %w", i, err)
		}
		slots[i] = Slot{VerifyingKey: fixed, ModeTag: mode.Tag(), KeyDigest: digest}
	}
	return slots, nil
}

// CheckModes returns a configuration error if the key of any slot was not
// registered with the given verification mode.
func CheckModes(l *layout.Layout, slots []Slot, mode proofsys.Mode) error {
	for i, s := range slots {
		if s.ModeTag != mode.Tag() {
			return fmt.Errorf("%w: slot %d (%s) key verifies %s proofs, %s wraps %s proofs",
				layout.ErrConfiguration, i, l.Slots[i].Circuit, proofsys.Mode(s.ModeTag), l.Family, mode)
		}
	}
	return nil
}

// PlaceholderProofs returns empty inner proofs sized for the layout.
func PlaceholderProofs(l *layout.Layout) []InnerProof {
	proofs := make([]InnerProof, l.NProofs())
	for i := range proofs {
		proofs[i].Witness = Witness{
			Public: make([]emulated.Element[sw_bls12377.ScalarField], l.Width(i)),
		}
	}
	return proofs
}

// ValueOfProof converts a native base proof into its circuit assignment.
func ValueOfProof(bp *proofsys.BaseProof) (InnerProof, error) {
	proof, err := proofsys.ParseProof(bp.Proof)
	if err != nil {
		return InnerProof{}, err
	}
	w, err := proofsys.NewPublicWitness(bp.PublicInputs)
	if err != nil {
		return InnerProof{}, err
	}
	res := InnerProof{}
	if res.Proof, err = stdgroth16.ValueOfProof[sw_bls12377.G1Affine, sw_bls12377.G2Affine](proof); err != nil {
		return InnerProof{}, fmt.Errorf("convert proof: %w", err)
	}
	if res.Witness, err = stdgroth16.ValueOfWitness[sw_bls12377.ScalarField](w); err != nil {
		return InnerProof{}, fmt.Errorf("convert public inputs: %w", err)
	}
	return res, nil
}

// ValueOfProofs converts every base proof of a wrapper.
func ValueOfProofs(proofs []*proofsys.BaseProof) ([]InnerProof, error) {
	res := make([]InnerProof, len(proofs))
	for i, bp := range proofs {
		p, err := ValueOfProof(bp)
		if err != nil {
			return nil, fmt.Errorf("proof %d: %w", i, err)
		}
		res[i] = p
	}
	return res, nil
}

// VerifySlots asserts every proof against the fixed key of its slot and
// returns the packed public inputs of each one.
func VerifySlots(api frontend.API, slots []Slot, proofs []InnerProof) ([][]frontend.Variable, error) {
	if len(slots) != len(proofs) {
		return nil, fmt.Errorf("%d slots, %d proofs", len(slots), len(proofs))
	}
	verifier, err := stdgroth16.NewVerifier[sw_bls12377.ScalarField, sw_bls12377.G1Affine, sw_bls12377.G2Affine, sw_bls12377.GT](api)
	if err != nil {
		return nil, err
	}
	inputs := make([][]frontend.Variable, len(proofs))
	for i := range proofs {
		if err := verifier.AssertProof(slots[i].VerifyingKey, proofs[i].Proof, proofs[i].Witness, stdgroth16.WithCompleteArithmetic()); err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
		if inputs[i], err = PackWitness(api, proofs[i].Witness); err != nil {
			return nil, err
		}
	}
	return inputs, nil
}

// SlotsCommitment returns the aggregation commitment of the verified inputs.
func SlotsCommitment(api frontend.API, slots []Slot, inputs [][]frontend.Variable) (frontend.Variable, error) {
	tags := make([]frontend.Variable, len(slots))
	digests := make([]frontend.Variable, len(slots))
	for i, s := range slots {
		tags[i] = s.ModeTag
		digests[i] = s.KeyDigest
	}
	return AggregationCommitment(api, tags, digests, inputs)
}
