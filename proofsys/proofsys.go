// Package proofsys verifies the base proofs wrapped by the aggregation
// circuits. A successful verification returns an AggregationObject: the
// verified public inputs bound to the verifying key and mode that accepted
// them, ready to be folded into an aggregation commitment exactly once.
package proofsys

import (
	"errors"
	"fmt"
	"math/big"
	"sync/atomic"

	"github.com/gnosisguild/enclave-aggregator/layout"
)

var (
	// ErrUnknownKey is returned when no verifying key is registered for a
	// KeyID.
	ErrUnknownKey = errors.New("unknown verifying key")
	// ErrModeMismatch is returned when a proof is verified in a mode other
	// than the one its verifying key was registered with.
	ErrModeMismatch = errors.New("verification mode mismatch")
	// ErrInvalidProof is returned when the proof bytes cannot be decoded or
	// the proof does not verify against the public inputs.
	ErrInvalidProof = errors.New("invalid proof")
	// ErrNonCanonicalInput is returned when a public input is negative or
	// not reduced modulo the base proof scalar field.
	ErrNonCanonicalInput = errors.New("non canonical public input")
	// ErrObjectConsumed is returned when an AggregationObject is consumed
	// twice.
	ErrObjectConsumed = errors.New("aggregation object already consumed")
)

// Mode is the verification flavour of a verifying key.
type Mode uint8

const (
	// ModeZK verifies zero-knowledge proofs.
	ModeZK Mode = 1
	// ModeNonZK verifies proofs generated without blinding, used by the
	// user data encryption circuits.
	ModeNonZK Mode = 2
)

func (m Mode) String() string {
	switch m {
	case ModeZK:
		return "zk"
	case ModeNonZK:
		return "nonzk"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// Tag is the value bound into the aggregation commitment for the mode.
func (m Mode) Tag() uint64 {
	return uint64(m)
}

// ParseMode parses the textual form of a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "zk":
		return ModeZK, nil
	case "nonzk":
		return ModeNonZK, nil
	default:
		return 0, fmt.Errorf("unknown verification mode %q", s)
	}
}

// KeyID identifies the verifying key of a base circuit.
type KeyID struct {
	Family  layout.Family
	Circuit string
}

func (k KeyID) String() string {
	return fmt.Sprintf("%s/%s", k.Family, k.Circuit)
}

// BaseProof is a serialized base proof and its public inputs in the order the
// base circuit declares them.
type BaseProof struct {
	Proof        []byte
	PublicInputs []*big.Int
}

// AggregationObject is the result of a successful verification.
type AggregationObject struct {
	Key  KeyID
	Mode Mode
	// KeyDigest identifies the verifying key, as an element of the wrapper
	// scalar field.
	KeyDigest *big.Int
	// PublicInputs are the verified public inputs, in order.
	PublicInputs []*big.Int

	consumed atomic.Bool
}

// NewAggregationObject builds an object from already verified data. Verifier
// implementations use it, so the object copies its inputs.
func NewAggregationObject(key KeyID, mode Mode, keyDigest *big.Int, inputs []*big.Int) *AggregationObject {
	o := &AggregationObject{
		Key:          key,
		Mode:         mode,
		KeyDigest:    new(big.Int).Set(keyDigest),
		PublicInputs: make([]*big.Int, len(inputs)),
	}
	for i, in := range inputs {
		o.PublicInputs[i] = new(big.Int).Set(in)
	}
	return o
}

// Consume marks the object as used by a commitment computation. It fails with
// ErrObjectConsumed if it was already consumed.
func (o *AggregationObject) Consume() error {
	if !o.consumed.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: %s", ErrObjectConsumed, o.Key)
	}
	return nil
}

// Consumed reports whether the object was already consumed.
func (o *AggregationObject) Consumed() bool {
	return o.consumed.Load()
}

// Verifier verifies base proofs.
type Verifier interface {
	// VerifyZK verifies a zero-knowledge proof against the key.
	VerifyZK(key KeyID, proof *BaseProof) (*AggregationObject, error)
	// VerifyNonZK verifies a non zero-knowledge proof against the key.
	VerifyNonZK(key KeyID, proof *BaseProof) (*AggregationObject, error)
	// Width returns the number of public inputs of the key.
	Width(key KeyID) (int, error)
}
