package wrapper

import (
	"fmt"
	"math/big"

	"github.com/gnosisguild/enclave-aggregator/layout"
)

// Kind is the tag of an Output.
type Kind string

const (
	KindScalar Kind = "scalar"
	KindTriple Kind = "triple"
)

// Output is the result of a wrapper: a Scalar for every family except user
// data encryption, which returns a Triple. Consumers dispatch on the
// concrete type or on Kind.
type Output interface {
	Kind() Kind
	OutputFamily() layout.Family
	// Values returns the field elements of the output in canonical order.
	Values() []*big.Int
	isOutput()
}

// Scalar is the aggregation commitment of a uniform family.
type Scalar struct {
	Family layout.Family
	Value  *big.Int
}

func (Scalar) Kind() Kind { return KindScalar }
func (s Scalar) OutputFamily() layout.Family { return s.Family }
func (s Scalar) Values() []*big.Int { return []*big.Int{new(big.Int).Set(s.Value)} }
func (Scalar) isOutput() {}
func (s Scalar) String() string { return fmt.Sprintf("%s(%s)", s.Family, s.Value) }

// Triple is the output of the user data encryption wrapper.
type Triple struct {
	Family layout.Family
	// Ciphertext binds the ct0 and ct1 ciphertext commitments.
	Ciphertext *big.Int
	// PublicKey binds the public key commitments of both proofs.
	PublicKey *big.Int
	// Aggregation is the standard aggregation commitment over both proofs.
	Aggregation *big.Int
}

func (Triple) Kind() Kind { return KindTriple }
func (t Triple) OutputFamily() layout.Family { return t.Family }
func (t Triple) Values() []*big.Int {
	return []*big.Int{
		new(big.Int).Set(t.Ciphertext),
		new(big.Int).Set(t.PublicKey),
		new(big.Int).Set(t.Aggregation),
	}
}
func (Triple) isOutput() {}
func (t Triple) String() string {
	return fmt.Sprintf("%s(%s, %s, %s)", t.Family, t.Ciphertext, t.PublicKey, t.Aggregation)
}

// NewOutput rebuilds an output from its kind and values, as returned by Kind
// and Values.
func NewOutput(family layout.Family, kind Kind, values []*big.Int) (Output, error) {
	switch kind {
	case KindScalar:
		if len(values) != 1 {
			return nil, fmt.Errorf("scalar output needs 1 value, got %d", len(values))
		}
		return Scalar{Family: family, Value: values[0]}, nil
	case KindTriple:
		if len(values) != 3 {
			return nil, fmt.Errorf("triple output needs 3 values, got %d", len(values))
		}
		return Triple{Family: family, Ciphertext: values[0], PublicKey: values[1], Aggregation: values[2]}, nil
	default:
		return nil, fmt.Errorf("unknown output kind %q", kind)
	}
}

// Equal reports whether both outputs have the same family, kind and values.
func Equal(a, b Output) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind() != b.Kind() || a.OutputFamily() != b.OutputFamily() {
		return false
	}
	av, bv := a.Values(), b.Values()
	for i := range av {
		if av[i].Cmp(bv[i]) != 0 {
			return false
		}
	}
	return true
}
