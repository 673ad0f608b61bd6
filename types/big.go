package types

import (
	"fmt"
	"math/big"
)

// BigInt wraps math/big.Int to encode it as a decimal string in JSON and as
// big-endian bytes in CBOR.
type BigInt big.Int

// NewInt returns a *BigInt holding x.
func NewInt(x int64) *BigInt {
	return (*BigInt)(big.NewInt(x))
}

// BigIntFromMath converts a *big.Int. A nil input returns nil.
func BigIntFromMath(x *big.Int) *BigInt {
	if x == nil {
		return nil
	}
	return (*BigInt)(new(big.Int).Set(x))
}

// MathBigInt returns a copy as *big.Int.
func (i *BigInt) MathBigInt() *big.Int {
	if i == nil {
		return nil
	}
	return new(big.Int).Set((*big.Int)(i))
}

func (i *BigInt) String() string {
	return (*big.Int)(i).String()
}

// SetString parses a base 10 or 0x-prefixed base 16 number.
func (i *BigInt) SetString(s string) (*BigInt, error) {
	x, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, fmt.Errorf("invalid number %q", s)
	}
	*i = BigInt(*x)
	return i, nil
}

func (i BigInt) MarshalText() ([]byte, error) {
	return (*big.Int)(&i).MarshalText()
}

func (i *BigInt) UnmarshalText(data []byte) error {
	_, err := i.SetString(string(data))
	return err
}

func (i *BigInt) MarshalCBOR() ([]byte, error) {
	return cborBytes((*big.Int)(i).Bytes()), nil
}

func (i *BigInt) UnmarshalCBOR(data []byte) error {
	raw, err := cborUnbytes(data)
	if err != nil {
		return err
	}
	(*big.Int)(i).SetBytes(raw)
	return nil
}

// Equal reports whether i and j hold the same value.
func (i *BigInt) Equal(j *BigInt) bool {
	if i == nil || j == nil {
		return i == j
	}
	return (*big.Int)(i).Cmp((*big.Int)(j)) == 0
}
