package api

import (
	"math/big"

	"github.com/gnosisguild/enclave-aggregator/layout"
	"github.com/gnosisguild/enclave-aggregator/proofsys"
	"github.com/gnosisguild/enclave-aggregator/storage"
	"github.com/gnosisguild/enclave-aggregator/types"
)

// BaseProof is a base proof as sent by the client: the gnark binary encoding
// of the Groth16 proof and its public inputs.
type BaseProof struct {
	Proof        types.HexBytes  `json:"proof"`
	PublicInputs []*types.BigInt `json:"publicInputs"`
}

// BaseProof converts the request proof into the verifier's representation.
func (p *BaseProof) BaseProof() *proofsys.BaseProof {
	inputs := make([]*big.Int, len(p.PublicInputs))
	for i, v := range p.PublicInputs {
		inputs[i] = v.MathBigInt()
	}
	return &proofsys.BaseProof{Proof: p.Proof, PublicInputs: inputs}
}

// WrapRequest submits the base proofs of a family for an E3. Params is
// optional, when set it must match the parameter set served.
type WrapRequest struct {
	Family layout.Family `json:"family"`
	Params layout.Params `json:"params,omitempty"`
	Proofs []*BaseProof  `json:"proofs"`
}

// WrapResponse is the result of an accepted wrap request.
type WrapResponse struct {
	Output *storage.StoredOutput `json:"output"`
	Root   *storage.StoredOutput `json:"root"`
}

// Outputs is the list of outputs of a family for an E3.
type Outputs struct {
	Outputs []*storage.StoredOutput `json:"outputs"`
}

// Slot describes one slot of a layout.
type Slot struct {
	Circuit string         `json:"circuit"`
	Width   int            `json:"width"`
	Fields  map[string]int `json:"fields,omitempty"`
}

// Layout describes the resolved layout of a family.
type Layout struct {
	Family      layout.Family `json:"family"`
	NProofs     int           `json:"nProofs"`
	TotalInputs int           `json:"totalInputs"`
	Slots       []Slot        `json:"slots"`
}

// Layouts is the response of the layouts endpoint.
type Layouts struct {
	Params  layout.Params `json:"params"`
	Layouts []Layout      `json:"layouts"`
}
