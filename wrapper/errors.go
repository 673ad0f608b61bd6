package wrapper

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/gnosisguild/enclave-aggregator/proofsys"
)

var (
	// ErrProofVerification is wrapped by every ProofVerificationError.
	ErrProofVerification = errors.New("proof verification failed")
	// ErrCrossProofConstraint signals that the ct0 and ct1 proofs of a user
	// data encryption wrapper were not produced with the same randomness.
	ErrCrossProofConstraint = errors.New("cross proof constraint violated")
)

// ProofVerificationError reports the slot of the first proof that failed.
type ProofVerificationError struct {
	Slot int
	Key  proofsys.KeyID
	Err  error
}

func (e *ProofVerificationError) Error() string {
	return fmt.Sprintf("%s: slot %d (%s): %v", ErrProofVerification, e.Slot, e.Key, e.Err)
}

func (e *ProofVerificationError) Is(target error) bool {
	return target == ErrProofVerification
}

func (e *ProofVerificationError) Unwrap() error {
	return e.Err
}

// CrossProofError reports the mismatching values of a cross proof field.
type CrossProofError struct {
	Field       string
	Left, Right *big.Int
}

func (e *CrossProofError) Error() string {
	return fmt.Sprintf("%s: %s differs between proofs (%s != %s)", ErrCrossProofConstraint, e.Field, e.Left, e.Right)
}

func (e *CrossProofError) Is(target error) bool {
	return target == ErrCrossProofConstraint
}
