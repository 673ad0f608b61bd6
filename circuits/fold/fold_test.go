package fold

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark/test"
	qt "github.com/frankban/quicktest"
	"github.com/gnosisguild/enclave-aggregator/circuits"
	"github.com/gnosisguild/enclave-aggregator/fold"
	"github.com/gnosisguild/enclave-aggregator/layout"
	"github.com/gnosisguild/enclave-aggregator/wrapper"
)

func scalar(v int64) wrapper.Output {
	return wrapper.Scalar{Family: layout.DKGPk, Value: big.NewInt(v)}
}

func triple(a, b, c int64) wrapper.Output {
	return wrapper.Triple{
		Family:      layout.ThresholdUserDataEncryption,
		Ciphertext:  big.NewInt(a),
		PublicKey:   big.NewInt(b),
		Aggregation: big.NewInt(c),
	}
}

func TestFoldCircuit(t *testing.T) {
	c := qt.New(t)
	field := circuits.WrapperCurve.ScalarField()

	assignment, err := Assignment(scalar(1), scalar(2))
	c.Assert(err, qt.IsNil)
	c.Assert(test.IsSolved(Placeholder(wrapper.KindScalar), assignment, field), qt.IsNil)

	assignment, err = Assignment(triple(1, 2, 3), triple(4, 5, 6))
	c.Assert(err, qt.IsNil)
	c.Assert(test.IsSolved(Placeholder(wrapper.KindTriple), assignment, field), qt.IsNil)

	// the fold is not commutative
	swapped := &Circuit{Left: assignment.Right, Right: assignment.Left, Folded: assignment.Folded}
	c.Assert(test.IsSolved(Placeholder(wrapper.KindTriple), swapped, field), qt.IsNotNil)

	_, err = Assignment(scalar(1), triple(1, 2, 3))
	c.Assert(err, qt.ErrorIs, fold.ErrFamilyMismatch)
}

func TestTreeCircuit(t *testing.T) {
	c := qt.New(t)
	field := circuits.WrapperCurve.ScalarField()

	for _, n := range []int{1, 2, 3, 5} {
		outputs := make([]wrapper.Output, n)
		for i := range outputs {
			outputs[i] = scalar(int64(i + 10))
		}
		assignment, err := TreeAssignment(outputs)
		c.Assert(err, qt.IsNil)
		c.Assert(test.IsSolved(TreePlaceholder(wrapper.KindScalar, n), assignment, field), qt.IsNil,
			qt.Commentf("%d leaves", n))
	}

	outputs := []wrapper.Output{triple(1, 2, 3), triple(4, 5, 6), triple(7, 8, 9)}
	assignment, err := TreeAssignment(outputs)
	c.Assert(err, qt.IsNil)
	c.Assert(test.IsSolved(TreePlaceholder(wrapper.KindTriple, 3), assignment, field), qt.IsNil)

	// a wrong root is rejected
	assignment.Root[0] = big.NewInt(0)
	c.Assert(test.IsSolved(TreePlaceholder(wrapper.KindTriple, 3), assignment, field), qt.IsNotNil)

	_, err = TreeAssignment(nil)
	c.Assert(err, qt.ErrorIs, fold.ErrEmpty)
}
