// Package fold contains the in-circuit rendition of the output fold: a gadget
// combining two outputs component-wise with MiMC, and a tree circuit proving
// the root of a list of outputs.
package fold

import (
	"fmt"

	"github.com/consensys/gnark/frontend"
	"github.com/gnosisguild/enclave-aggregator/circuits"
	"github.com/gnosisguild/enclave-aggregator/fold"
	"github.com/gnosisguild/enclave-aggregator/wrapper"
)

// Fold returns the component-wise MiMC of left and right.
func Fold(api frontend.API, left, right []frontend.Variable) ([]frontend.Variable, error) {
	if len(left) != len(right) {
		return nil, fmt.Errorf("%w: %d and %d values", fold.ErrShapeMismatch, len(left), len(right))
	}
	folded := make([]frontend.Variable, len(left))
	for i := range left {
		h, err := circuits.Hash(api, left[i], right[i])
		if err != nil {
			return nil, err
		}
		folded[i] = h
	}
	return folded, nil
}

// Circuit proves that Folded is the fold of Left and Right.
type Circuit struct {
	Left   []frontend.Variable
	Right  []frontend.Variable
	Folded []frontend.Variable `gnark:",public"`
}

func (c *Circuit) Define(api frontend.API) error {
	folded, err := Fold(api, c.Left, c.Right)
	if err != nil {
		circuits.FrontendError(api, "failed to fold outputs", err)
		return err
	}
	if len(folded) != len(c.Folded) {
		return fmt.Errorf("%w: folded %d values, expected %d", fold.ErrShapeMismatch, len(folded), len(c.Folded))
	}
	for i := range folded {
		api.AssertIsEqual(folded[i], c.Folded[i])
	}
	return nil
}

// TreeCircuit proves that Root is the root of the aggregation tree of Leaves,
// with odd nodes promoted unchanged.
type TreeCircuit struct {
	Leaves [][]frontend.Variable
	Root   []frontend.Variable `gnark:",public"`
}

func (c *TreeCircuit) Define(api frontend.API) error {
	if len(c.Leaves) == 0 {
		return fold.ErrEmpty
	}
	level := c.Leaves
	for len(level) > 1 {
		next := make([][]frontend.Variable, 0, (len(level)+1)/2)
		for i := 0; i+1 < len(level); i += 2 {
			node, err := Fold(api, level[i], level[i+1])
			if err != nil {
				return err
			}
			next = append(next, node)
		}
		if len(level)%2 == 1 {
			next = append(next, level[len(level)-1])
		}
		level = next
	}
	if len(level[0]) != len(c.Root) {
		return fmt.Errorf("%w: root has %d values, expected %d", fold.ErrShapeMismatch, len(level[0]), len(c.Root))
	}
	for i := range c.Root {
		api.AssertIsEqual(level[0][i], c.Root[i])
	}
	return nil
}

// width is the number of values of an output of the given kind.
func width(kind wrapper.Kind) int {
	if kind == wrapper.KindTriple {
		return 3
	}
	return 1
}

func variables(out wrapper.Output) []frontend.Variable {
	values := out.Values()
	vars := make([]frontend.Variable, len(values))
	for i, v := range values {
		vars[i] = v
	}
	return vars
}

// Placeholder returns the pairwise fold circuit for outputs of the given kind.
func Placeholder(kind wrapper.Kind) *Circuit {
	w := width(kind)
	return &Circuit{
		Left:   make([]frontend.Variable, w),
		Right:  make([]frontend.Variable, w),
		Folded: make([]frontend.Variable, w),
	}
}

// Assignment folds left and right natively and returns the witness for both
// and their fold.
func Assignment(left, right wrapper.Output) (*Circuit, error) {
	folded, err := fold.Fold(left, right)
	if err != nil {
		return nil, err
	}
	return &Circuit{
		Left:   variables(left),
		Right:  variables(right),
		Folded: variables(folded),
	}, nil
}

// TreePlaceholder returns the tree circuit for n outputs of the given kind.
func TreePlaceholder(kind wrapper.Kind, n int) *TreeCircuit {
	w := width(kind)
	c := &TreeCircuit{
		Leaves: make([][]frontend.Variable, n),
		Root:   make([]frontend.Variable, w),
	}
	for i := range c.Leaves {
		c.Leaves[i] = make([]frontend.Variable, w)
	}
	return c
}

// TreeAssignment computes the root natively and returns the witness for the
// outputs and their root.
func TreeAssignment(outputs []wrapper.Output) (*TreeCircuit, error) {
	root, err := fold.Tree(outputs)
	if err != nil {
		return nil, err
	}
	c := &TreeCircuit{
		Leaves: make([][]frontend.Variable, len(outputs)),
		Root:   variables(root),
	}
	for i, out := range outputs {
		c.Leaves[i] = variables(out)
	}
	return c, nil
}
