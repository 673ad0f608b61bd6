package circuits

import (
	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/std/algebra/native/sw_bls12377"
	"github.com/consensys/gnark/std/recursion/groth16"
)

// The base proofs are BLS12-377 Groth16 proofs, verified natively inside
// BW6-761 wrapper circuits. Wrapper outputs are BW6-761 scalars and can be
// folded further on the same curve.
const (
	BaseCurve    = ecc.BLS12_377
	WrapperCurve = ecc.BW6_761
)

type (
	Proof        = groth16.Proof[sw_bls12377.G1Affine, sw_bls12377.G2Affine]
	Witness      = groth16.Witness[sw_bls12377.ScalarField]
	VerifyingKey = groth16.VerifyingKey[sw_bls12377.G1Affine, sw_bls12377.G2Affine, sw_bls12377.GT]
)

// InnerProof is a base proof with its public witness, to be verified in
// a wrapper circuit against a fixed verifying key.
type InnerProof struct {
	Proof   Proof
	Witness Witness
}
