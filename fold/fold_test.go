package fold

import (
	"errors"
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/gnosisguild/enclave-aggregator/commitment"
	"github.com/gnosisguild/enclave-aggregator/layout"
	"github.com/gnosisguild/enclave-aggregator/wrapper"
)

func scalar(v int64) wrapper.Output {
	return wrapper.Scalar{Family: layout.DKGShareDecryption, Value: big.NewInt(v)}
}

func h(c *qt.C, a, b *big.Int) *big.Int {
	res, err := commitment.Hash(a, b)
	c.Assert(err, qt.IsNil)
	return res
}

func TestFoldScalar(t *testing.T) {
	c := qt.New(t)

	out, err := Fold(scalar(1), scalar(2))
	c.Assert(err, qt.IsNil)
	c.Assert(out.(wrapper.Scalar).Value.Cmp(h(c, big.NewInt(1), big.NewInt(2))), qt.Equals, 0)
	c.Assert(out.OutputFamily(), qt.Equals, layout.DKGShareDecryption)

	swapped, err := Fold(scalar(2), scalar(1))
	c.Assert(err, qt.IsNil)
	c.Assert(wrapper.Equal(out, swapped), qt.IsFalse)
}

func TestFoldTriple(t *testing.T) {
	c := qt.New(t)

	l := wrapper.Triple{Family: layout.ThresholdUserDataEncryption, Ciphertext: big.NewInt(1), PublicKey: big.NewInt(2), Aggregation: big.NewInt(3)}
	r := wrapper.Triple{Family: layout.ThresholdUserDataEncryption, Ciphertext: big.NewInt(4), PublicKey: big.NewInt(5), Aggregation: big.NewInt(6)}
	out, err := Fold(l, r)
	c.Assert(err, qt.IsNil)
	tr := out.(wrapper.Triple)
	c.Assert(tr.Ciphertext.Cmp(h(c, big.NewInt(1), big.NewInt(4))), qt.Equals, 0)
	c.Assert(tr.PublicKey.Cmp(h(c, big.NewInt(2), big.NewInt(5))), qt.Equals, 0)
	c.Assert(tr.Aggregation.Cmp(h(c, big.NewInt(3), big.NewInt(6))), qt.Equals, 0)
}

func TestFoldMismatch(t *testing.T) {
	c := qt.New(t)

	other := wrapper.Scalar{Family: layout.DKGPk, Value: big.NewInt(1)}
	_, err := Fold(scalar(1), other)
	c.Assert(errors.Is(err, ErrFamilyMismatch), qt.IsTrue)

	// same family, different kind
	triple := wrapper.Triple{Family: layout.DKGShareDecryption, Ciphertext: big.NewInt(1), PublicKey: big.NewInt(1), Aggregation: big.NewInt(1)}
	_, err = Fold(scalar(1), triple)
	c.Assert(errors.Is(err, ErrShapeMismatch), qt.IsTrue)
	_, err = Fold(nil, scalar(1))
	c.Assert(errors.Is(err, ErrShapeMismatch), qt.IsTrue)

	_, err = Tree([]wrapper.Output{scalar(1), scalar(2), other})
	c.Assert(errors.Is(err, ErrFamilyMismatch), qt.IsTrue)
}

func TestTree(t *testing.T) {
	c := qt.New(t)

	_, err := Tree(nil)
	c.Assert(errors.Is(err, ErrEmpty), qt.IsTrue)

	single, err := Tree([]wrapper.Output{scalar(7)})
	c.Assert(err, qt.IsNil)
	c.Assert(wrapper.Equal(single, scalar(7)), qt.IsTrue)

	// ((1,2),(3,4)),5 with 5 promoted twice
	levels, err := Levels([]wrapper.Output{scalar(1), scalar(2), scalar(3), scalar(4), scalar(5)})
	c.Assert(err, qt.IsNil)
	c.Assert(levels, qt.HasLen, 4)
	c.Assert(levels[1], qt.HasLen, 3)
	c.Assert(levels[2], qt.HasLen, 2)
	c.Assert(levels[3], qt.HasLen, 1)
	c.Assert(wrapper.Equal(levels[2][1], scalar(5)), qt.IsTrue)

	h12 := h(c, big.NewInt(1), big.NewInt(2))
	h34 := h(c, big.NewInt(3), big.NewInt(4))
	want := h(c, h(c, h12, h34), big.NewInt(5))
	root, err := Tree([]wrapper.Output{scalar(1), scalar(2), scalar(3), scalar(4), scalar(5)})
	c.Assert(err, qt.IsNil)
	c.Assert(root.(wrapper.Scalar).Value.Cmp(want), qt.Equals, 0)
}
