// Package layout resolves the public input layout of every wrapper circuit
// family from the protocol parameters. Resolution happens once, when a
// wrapper is built, and any inconsistency is reported as a ConfigurationError
// so that it never reaches proving or verification.
package layout

import (
	"math"
)

// Slot describes the public inputs of one proof position in a wrapper.
type Slot struct {
	// Circuit is the name of the base circuit proving this slot.
	Circuit string
	// Width is the number of public inputs of the slot.
	Width int
	// Fields maps named public outputs to their position, when the base
	// circuit declares them.
	Fields map[string]int
}

// Layout is the resolved public input layout of a wrapper. Slots are in the
// canonical proof order.
type Layout struct {
	Family Family
	Params Params
	Slots  []Slot
}

// Config is the wrapper configuration resolved by Resolve.
type Config struct {
	Family  Family
	NProofs int
	Params  Params
}

// Resolve returns the layout for the configuration.
func (c Config) Resolve() (*Layout, error) {
	return Resolve(c.Family, c.NProofs, c.Params)
}

// Resolve computes the layout of a wrapper of nProofs proofs of the family
// provided. The user data encryption family only accepts two proofs.
func Resolve(family Family, nProofs int, params Params) (*Layout, error) {
	if !family.Valid() {
		return nil, configErr(family, "", "unknown family")
	}
	if nProofs < 1 {
		return nil, configErr(family, "", "N_PROOFS must be positive, got %d", nProofs)
	}
	l := &Layout{Family: family, Params: params.Clone()}
	if family == ThresholdUserDataEncryption {
		if nProofs != UserDataEncryptionProofs {
			return nil, configErr(family, "", "N_PROOFS must be %d, got %d", UserDataEncryptionProofs, nProofs)
		}
		l.Slots = userDataEncryptionSlots()
		return l, nil
	}
	width, err := PublicInputs(family, params)
	if err != nil {
		return nil, err
	}
	for range nProofs {
		l.Slots = append(l.Slots, Slot{Circuit: BaseCircuit, Width: width})
	}
	return l, nil
}

// PublicInputs returns N_PUBLIC_INPUTS of a uniform family. The user data
// encryption family has per slot widths and must be resolved with Resolve.
func PublicInputs(family Family, params Params) (int, error) {
	fn, ok := widths[family]
	if !ok {
		if family == ThresholdUserDataEncryption {
			return 0, configErr(family, "", "widths differ per slot")
		}
		return 0, configErr(family, "", "unknown family")
	}
	r := &reader{family: family, params: params}
	width := fn(r)
	if r.err != nil {
		return 0, r.err
	}
	if width > math.MaxInt32 {
		return 0, configErr(family, "", "public input count %d too large", width)
	}
	return int(width), nil
}

// NProofs returns the number of proofs wrapped.
func (l *Layout) NProofs() int {
	return len(l.Slots)
}

// Width returns the public input count of the slot.
func (l *Layout) Width(slot int) int {
	return l.Slots[slot].Width
}

// TotalInputs returns the number of public inputs bound by the commitment.
func (l *Layout) TotalInputs() int {
	total := 0
	for _, s := range l.Slots {
		total += s.Width
	}
	return total
}

// Circuits returns the distinct base circuits in slot order.
func (l *Layout) Circuits() []string {
	seen := map[string]bool{}
	circuits := []string{}
	for _, s := range l.Slots {
		if !seen[s.Circuit] {
			seen[s.Circuit] = true
			circuits = append(circuits, s.Circuit)
		}
	}
	return circuits
}

// FieldIndex returns the position of a named public output in a slot.
func (l *Layout) FieldIndex(slot int, name string) (int, error) {
	if slot < 0 || slot >= len(l.Slots) {
		return 0, configErr(l.Family, "", "slot %d out of range", slot)
	}
	idx, ok := l.Slots[slot].Fields[name]
	if !ok {
		return 0, configErr(l.Family, "", "slot %d (%s) has no field %s", slot, l.Slots[slot].Circuit, name)
	}
	if idx < 0 || idx >= l.Slots[slot].Width {
		return 0, configErr(l.Family, "", "field %s at %d outside slot %d width %d", name, idx, slot, l.Slots[slot].Width)
	}
	return idx, nil
}

// CheckCompiled compares the width of a slot with the number of public
// inputs its base circuit was compiled with.
func (l *Layout) CheckCompiled(slot, compiled int) error {
	if slot < 0 || slot >= len(l.Slots) {
		return configErr(l.Family, "", "slot %d out of range", slot)
	}
	if want := l.Slots[slot].Width; compiled != want {
		return configErr(l.Family, "", "slot %d (%s) base circuit compiled with %d public inputs, layout expects %d",
			slot, l.Slots[slot].Circuit, compiled, want)
	}
	return nil
}

// CheckShape verifies that exactly one public input vector per slot is
// provided and that each one has the width of its slot. Vectors are never
// padded or truncated.
func (l *Layout) CheckShape(widths []int) error {
	if len(widths) != len(l.Slots) {
		return configErr(l.Family, "", "expected %d proofs, got %d", len(l.Slots), len(widths))
	}
	for i, w := range widths {
		if w != l.Slots[i].Width {
			return configErr(l.Family, "", "proof %d has %d public inputs, layout expects %d", i, w, l.Slots[i].Width)
		}
	}
	return nil
}
