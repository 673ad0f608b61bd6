// Package fold combines wrapper outputs pairwise into a binary aggregation
// tree. Only outputs of the same family and kind can be folded together.
package fold

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/gnosisguild/enclave-aggregator/commitment"
	"github.com/gnosisguild/enclave-aggregator/wrapper"
)

var (
	// ErrFamilyMismatch is returned when folding outputs of different families.
	ErrFamilyMismatch = errors.New("cannot fold outputs of different families")
	// ErrShapeMismatch is returned when folding a scalar with a triple.
	ErrShapeMismatch = errors.New("cannot fold outputs of different kinds")
	// ErrEmpty is returned when building a tree without outputs.
	ErrEmpty = errors.New("no outputs to fold")
)

// Fold returns the output combining left and right: MiMC(left, right) for
// scalars, and the component-wise MiMC for triples.
func Fold(left, right wrapper.Output) (wrapper.Output, error) {
	if left == nil || right == nil {
		return nil, fmt.Errorf("%w: nil output", ErrShapeMismatch)
	}
	if left.OutputFamily() != right.OutputFamily() {
		return nil, fmt.Errorf("%w: %s and %s", ErrFamilyMismatch, left.OutputFamily(), right.OutputFamily())
	}
	if left.Kind() != right.Kind() {
		return nil, fmt.Errorf("%w: %s and %s", ErrShapeMismatch, left.Kind(), right.Kind())
	}
	lv, rv := left.Values(), right.Values()
	folded := make([]*big.Int, len(lv))
	for i := range lv {
		h, err := commitment.Hash(lv[i], rv[i])
		if err != nil {
			return nil, err
		}
		folded[i] = h
	}
	return wrapper.NewOutput(left.OutputFamily(), left.Kind(), folded)
}

// Levels folds the outputs level by level and returns every level, from the
// leaves to the root. An odd node is promoted unchanged to the next level.
func Levels(outputs []wrapper.Output) ([][]wrapper.Output, error) {
	if len(outputs) == 0 {
		return nil, ErrEmpty
	}
	levels := [][]wrapper.Output{outputs}
	for level := outputs; len(level) > 1; {
		next := make([]wrapper.Output, 0, (len(level)+1)/2)
		for i := 0; i+1 < len(level); i += 2 {
			node, err := Fold(level[i], level[i+1])
			if err != nil {
				return nil, fmt.Errorf("level %d, nodes %d and %d: %w", len(levels)-1, i, i+1, err)
			}
			next = append(next, node)
		}
		if len(level)%2 == 1 {
			next = append(next, level[len(level)-1])
		}
		levels = append(levels, next)
		level = next
	}
	return levels, nil
}

// Tree returns the root of the aggregation tree of the outputs.
func Tree(outputs []wrapper.Output) (wrapper.Output, error) {
	levels, err := Levels(outputs)
	if err != nil {
		return nil, err
	}
	return levels[len(levels)-1][0], nil
}
