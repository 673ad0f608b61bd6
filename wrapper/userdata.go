package wrapper

import (
	"context"
	"fmt"

	"github.com/gnosisguild/enclave-aggregator/layout"
	"github.com/gnosisguild/enclave-aggregator/log"
	"github.com/gnosisguild/enclave-aggregator/proofsys"
)

// Slots of the user data encryption wrapper.
const (
	SlotCt0 = 0
	SlotCt1 = 1
)

// UserData is the threshold/user_data_encryption wrapper. It verifies the
// ct0 and ct1 proofs in non zero-knowledge mode, asserts both were produced
// with the same randomness commitment and returns a Triple.
type UserData struct {
	*base
	// field positions per slot
	u, pk, ct [2]int
}

func newUserData(b *base) (*UserData, error) {
	if b.layout.NProofs() != layout.UserDataEncryptionProofs {
		return nil, fmt.Errorf("%w: user data encryption wraps %d proofs, layout has %d",
			layout.ErrConfiguration, layout.UserDataEncryptionProofs, b.layout.NProofs())
	}
	w := &UserData{base: b}
	for slot := range 2 {
		var err error
		if w.u[slot], err = b.layout.FieldIndex(slot, layout.FieldUCommitment); err != nil {
			return nil, err
		}
		if w.pk[slot], err = b.layout.FieldIndex(slot, layout.FieldPkCommitment); err != nil {
			return nil, err
		}
		if w.ct[slot], err = b.layout.FieldIndex(slot, layout.FieldCtCommitment); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func (w *UserData) Wrap(ctx context.Context, proofs []*proofsys.BaseProof) (Output, error) {
	objs, err := w.verifyAll(ctx, proofs, w.verifier.VerifyNonZK)
	if err != nil {
		return nil, err
	}
	ct0, ct1 := objs[SlotCt0].PublicInputs, objs[SlotCt1].PublicInputs
	if u0, u1 := ct0[w.u[SlotCt0]], ct1[w.u[SlotCt1]]; u0.Cmp(u1) != 0 {
		return nil, &CrossProofError{Field: layout.FieldUCommitment, Left: u0, Right: u1}
	}
	ciphertext, err := hash(ct0[w.ct[SlotCt0]], ct1[w.ct[SlotCt1]])
	if err != nil {
		return nil, fmt.Errorf("cannot compute ciphertext commitment: %w", err)
	}
	publicKey, err := hash(ct0[w.pk[SlotCt0]], ct1[w.pk[SlotCt1]])
	if err != nil {
		return nil, fmt.Errorf("cannot compute public key commitment: %w", err)
	}
	aggregation, err := w.committer.Commit(objs)
	if err != nil {
		return nil, fmt.Errorf("cannot compute aggregation commitment: %w", err)
	}
	log.Debugw("user data proofs wrapped", "ciphertext", ciphertext.String(), "publicKey", publicKey.String())
	return Triple{
		Family:      w.layout.Family,
		Ciphertext:  ciphertext,
		PublicKey:   publicKey,
		Aggregation: aggregation,
	}, nil
}
