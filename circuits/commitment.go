package circuits

import (
	"math/big"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/native/sw_bls12377"
	"github.com/consensys/gnark/std/hash/mimc"
	"github.com/consensys/gnark/std/math/emulated"
)

// Hash returns the MiMC hash of the inputs over the native field.
func Hash(api frontend.API, inputs ...frontend.Variable) (frontend.Variable, error) {
	h, err := mimc.NewMiMC(api)
	if err != nil {
		return nil, err
	}
	h.Write(inputs...)
	return h.Sum(), nil
}

// PackWitness returns the public inputs of a base proof as native variables.
// Each emulated element is strictly reduced before packing, so the result is
// the canonical value the base proof was verified with.
func PackWitness(api frontend.API, w Witness) ([]frontend.Variable, error) {
	field, err := emulated.NewField[sw_bls12377.ScalarField](api)
	if err != nil {
		return nil, err
	}
	var fr sw_bls12377.ScalarField
	nbBits := fr.BitsPerLimb()
	packed := make([]frontend.Variable, len(w.Public))
	for i := range w.Public {
		reduced := field.ReduceStrict(&w.Public[i])
		res := frontend.Variable(0)
		for j := range reduced.Limbs {
			coef := new(big.Int).Lsh(big.NewInt(1), nbBits*uint(j))
			res = api.Add(res, api.Mul(reduced.Limbs[j], coef))
		}
		packed[i] = res
	}
	return packed, nil
}

// AggregationCommitment returns the commitment of a set of verified proofs:
// the hash of the per proof digests MiMC(modeTag, keyDigest) followed by all
// public inputs in proof order.
func AggregationCommitment(api frontend.API, modeTags, keyDigests []frontend.Variable, inputs [][]frontend.Variable) (frontend.Variable, error) {
	all := make([]frontend.Variable, 0, len(keyDigests))
	for i := range keyDigests {
		d, err := Hash(api, modeTags[i], keyDigests[i])
		if err != nil {
			return nil, err
		}
		all = append(all, d)
	}
	for _, in := range inputs {
		all = append(all, in...)
	}
	return Hash(api, all...)
}
