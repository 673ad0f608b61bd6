package proofsys

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
)

// ParseProof decodes a serialized BLS12-377 Groth16 proof. Trailing bytes are
// rejected.
func ParseProof(raw []byte) (groth16.Proof, error) {
	proof := groth16.NewProof(BaseCurve)
	n, err := proof.ReadFrom(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: cannot decode proof: %v", ErrInvalidProof, err)
	}
	if n != int64(len(raw)) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrInvalidProof, int64(len(raw))-n)
	}
	return proof, nil
}

// EncodeProof serializes a Groth16 proof.
func EncodeProof(proof groth16.Proof) ([]byte, error) {
	buf := bytes.Buffer{}
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("cannot encode proof: %w", err)
	}
	return buf.Bytes(), nil
}

// CheckCanonical fails if any input is not a reduced element of the base
// proof scalar field.
func CheckCanonical(inputs []*big.Int) error {
	modulus := BaseCurve.ScalarField()
	for i, in := range inputs {
		if in == nil || in.Sign() < 0 || in.Cmp(modulus) >= 0 {
			return fmt.Errorf("%w: input %d", ErrNonCanonicalInput, i)
		}
	}
	return nil
}

// NewPublicWitness builds the public witness of a base proof.
func NewPublicWitness(inputs []*big.Int) (witness.Witness, error) {
	if err := CheckCanonical(inputs); err != nil {
		return nil, err
	}
	w, err := witness.New(BaseCurve.ScalarField())
	if err != nil {
		return nil, err
	}
	values := make(chan any, len(inputs))
	for _, in := range inputs {
		values <- in
	}
	close(values)
	if err := w.Fill(len(inputs), 0, values); err != nil {
		return nil, fmt.Errorf("cannot fill public witness: %w", err)
	}
	return w, nil
}
