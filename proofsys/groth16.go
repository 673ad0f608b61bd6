package proofsys

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	stdgroth16 "github.com/consensys/gnark/std/recursion/groth16"
	"github.com/gnosisguild/enclave-aggregator/log"
)

// BaseCurve is the curve of the base proofs.
const BaseCurve = ecc.BLS12_377

// WrapperCurve is the curve of the circuits verifying the base proofs.
const WrapperCurve = ecc.BW6_761

type registeredKey struct {
	vk     groth16.VerifyingKey
	mode   Mode
	width  int
	digest *big.Int
}

// Groth16 is a keyring of BLS12-377 Groth16 verifying keys. Each key is
// registered with the mode it verifies; gnark Groth16 proofs carry no
// blinding flag, so the mode is a property of the registered key.
type Groth16 struct {
	mu   sync.RWMutex
	keys map[KeyID]*registeredKey
}

// NewGroth16 returns an empty keyring.
func NewGroth16() *Groth16 {
	return &Groth16{keys: map[KeyID]*registeredKey{}}
}

// Register adds a verifying key to the keyring, replacing any key with the
// same id.
func (g *Groth16) Register(id KeyID, mode Mode, vk groth16.VerifyingKey) error {
	if mode != ModeZK && mode != ModeNonZK {
		return fmt.Errorf("cannot register %s: invalid mode %s", id, mode)
	}
	if vk.CurveID() != BaseCurve {
		return fmt.Errorf("cannot register %s: verifying key over %s, expected %s", id, vk.CurveID(), BaseCurve)
	}
	buf := bytes.Buffer{}
	if _, err := vk.WriteTo(&buf); err != nil {
		return fmt.Errorf("cannot encode verifying key %s: %w", id, err)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.keys[id] = &registeredKey{
		vk:     vk,
		mode:   mode,
		width:  vk.NbPublicWitness(),
		digest: KeyDigest(buf.Bytes()),
	}
	log.Debugw("verifying key registered", "key", id.String(), "mode", mode.String(), "width", vk.NbPublicWitness())
	return nil
}

// RegisterBytes decodes a serialized verifying key and registers it.
func (g *Groth16) RegisterBytes(id KeyID, mode Mode, raw []byte) error {
	vk := groth16.NewVerifyingKey(BaseCurve)
	if _, err := vk.ReadFrom(bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("cannot decode verifying key %s: %w", id, err)
	}
	return g.Register(id, mode, vk)
}

// VerifyingKey returns the registered key and its mode.
func (g *Groth16) VerifyingKey(id KeyID) (groth16.VerifyingKey, Mode, error) {
	k, err := g.key(id)
	if err != nil {
		return nil, 0, err
	}
	return k.vk, k.mode, nil
}

// Digest returns the digest of the registered key.
func (g *Groth16) Digest(id KeyID) (*big.Int, error) {
	k, err := g.key(id)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(k.digest), nil
}

// Keys returns the registered ids sorted by family and circuit.
func (g *Groth16) Keys() []KeyID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := make([]KeyID, 0, len(g.keys))
	for id := range g.keys {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Family != ids[j].Family {
			return ids[i].Family < ids[j].Family
		}
		return ids[i].Circuit < ids[j].Circuit
	})
	return ids
}

func (g *Groth16) Width(id KeyID) (int, error) {
	k, err := g.key(id)
	if err != nil {
		return 0, err
	}
	return k.width, nil
}

func (g *Groth16) VerifyZK(id KeyID, proof *BaseProof) (*AggregationObject, error) {
	return g.verify(id, ModeZK, proof)
}

func (g *Groth16) VerifyNonZK(id KeyID, proof *BaseProof) (*AggregationObject, error) {
	return g.verify(id, ModeNonZK, proof)
}

func (g *Groth16) key(id KeyID) (*registeredKey, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	k, ok := g.keys[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, id)
	}
	return k, nil
}

func (g *Groth16) verify(id KeyID, mode Mode, bp *BaseProof) (*AggregationObject, error) {
	k, err := g.key(id)
	if err != nil {
		return nil, err
	}
	if k.mode != mode {
		return nil, fmt.Errorf("%w: key %s verifies %s proofs, got %s", ErrModeMismatch, id, k.mode, mode)
	}
	if bp == nil {
		return nil, fmt.Errorf("%w: nil proof", ErrInvalidProof)
	}
	if len(bp.PublicInputs) != k.width {
		return nil, fmt.Errorf("%w: %d public inputs, key %s expects %d", ErrInvalidProof, len(bp.PublicInputs), id, k.width)
	}
	proof, err := ParseProof(bp.Proof)
	if err != nil {
		return nil, err
	}
	pubWitness, err := NewPublicWitness(bp.PublicInputs)
	if err != nil {
		return nil, err
	}
	if err := groth16.Verify(proof, k.vk, pubWitness, stdgroth16.GetNativeVerifierOptions(
		WrapperCurve.ScalarField(), BaseCurve.ScalarField())); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidProof, id, err)
	}
	return NewAggregationObject(id, mode, k.digest, bp.PublicInputs), nil
}

// KeyDigest maps a serialized verifying key to the wrapper scalar field.
func KeyDigest(raw []byte) *big.Int {
	sum := sha256.Sum256(raw)
	d := new(big.Int).SetBytes(sum[:])
	return d.Mod(d, WrapperCurve.ScalarField())
}
