package layout

import (
	"fmt"
	"math/bits"
	"sort"
	"strings"
)

// Names of the protocol parameters used to derive public input widths.
const (
	LThreshold          = "L_THRESHOLD"
	NParties            = "N_PARTIES"
	H                   = "H"
	T                   = "T"
	L                   = "L"
	N                   = "N"
	MaxMsgNonZeroCoeffs = "MAX_MSG_NON_ZERO_COEFFS"
)

// Params maps a protocol parameter name to its value.
type Params map[string]uint64

// Clone returns a copy of the parameter set.
func (p Params) Clone() Params {
	c := make(Params, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// Equal reports whether both parameter sets hold the same names and values.
func (p Params) Equal(o Params) bool {
	if len(p) != len(o) {
		return false
	}
	for k, v := range p {
		if ov, ok := o[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

func (p Params) String() string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, p[k]))
	}
	return strings.Join(parts, ",")
}

// reader fetches parameters for one family and records the first error, so
// the closed forms below read like the formulas they implement.
type reader struct {
	family Family
	params Params
	err    error
}

// positive returns the named parameter, failing if it is missing or zero.
func (r *reader) positive(name string) uint64 {
	v := r.get(name)
	if r.err == nil && v == 0 {
		r.err = configErr(r.family, name, "must be positive")
	}
	return v
}

// get returns the named parameter, failing only if it is missing.
func (r *reader) get(name string) uint64 {
	if r.err != nil {
		return 0
	}
	v, ok := r.params[name]
	if !ok {
		r.err = configErr(r.family, name, "missing")
	}
	return v
}

func (r *reader) mul(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	if r.err == nil && hi != 0 {
		r.err = configErr(r.family, "", "public input count overflows")
	}
	return lo
}

func (r *reader) add(a, b uint64) uint64 {
	sum, carry := bits.Add64(a, b, 0)
	if r.err == nil && carry != 0 {
		r.err = configErr(r.family, "", "public input count overflows")
	}
	return sum
}
