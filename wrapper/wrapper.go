// Package wrapper implements the native aggregation wrappers: it verifies the
// base proofs of a family against their registered verifying keys and folds
// every verified public input into a single aggregation commitment. The
// in-circuit counterparts live in circuits/wrapper and circuits/userdata and
// produce the same values.
package wrapper

import (
	"context"
	"fmt"
	"math/big"

	"github.com/gnosisguild/enclave-aggregator/commitment"
	"github.com/gnosisguild/enclave-aggregator/layout"
	"github.com/gnosisguild/enclave-aggregator/log"
	"github.com/gnosisguild/enclave-aggregator/proofsys"
	"golang.org/x/sync/errgroup"
)

// Wrapper aggregates the base proofs of one family.
type Wrapper interface {
	// Layout returns the resolved layout the wrapper was built for.
	Layout() *layout.Layout
	// Wrap verifies the proofs, in slot order, and returns their
	// aggregation output. It fails closed: no output is returned if any
	// proof or constraint fails.
	Wrap(ctx context.Context, proofs []*proofsys.BaseProof) (Output, error)
}

// Option configures a wrapper.
type Option func(*base)

// WithCommitter replaces the default MiMC committer.
func WithCommitter(c commitment.Committer) Option {
	return func(b *base) {
		b.committer = c
	}
}

// WithParallelVerification verifies up to n proofs concurrently. n <= 0
// removes the limit.
func WithParallelVerification(n int) Option {
	return func(b *base) {
		b.parallel = true
		b.limit = n
	}
}

// New builds the wrapper for the layout. It checks that every slot's
// verifying key is registered and expects as many public inputs as the
// layout, so a parameter mismatch fails here and never at proving time.
func New(l *layout.Layout, verifier proofsys.Verifier, opts ...Option) (Wrapper, error) {
	if l == nil || l.NProofs() == 0 {
		return nil, fmt.Errorf("%w: empty layout", layout.ErrConfiguration)
	}
	b := &base{
		layout:    l,
		verifier:  verifier,
		committer: commitment.MiMC{},
	}
	for _, opt := range opts {
		opt(b)
	}
	for i, slot := range l.Slots {
		key := proofsys.KeyID{Family: l.Family, Circuit: slot.Circuit}
		width, err := verifier.Width(key)
		if err != nil {
			return nil, fmt.Errorf("%w: slot %d: %v", layout.ErrConfiguration, i, err)
		}
		if err := l.CheckCompiled(i, width); err != nil {
			return nil, err
		}
	}
	if l.Family == layout.ThresholdUserDataEncryption {
		w, err := newUserData(b)
		if err != nil {
			return nil, err
		}
		return w, nil
	}
	return &General{base: b}, nil
}

// base holds what every wrapper shares: the layout, the verifier and the
// commitment function.
type base struct {
	layout    *layout.Layout
	verifier  proofsys.Verifier
	committer commitment.Committer
	parallel  bool
	limit     int
}

func (b *base) Layout() *layout.Layout {
	return b.layout
}

type verifyFunc func(proofsys.KeyID, *proofsys.BaseProof) (*proofsys.AggregationObject, error)

// verifyAll checks the shape of the proofs and verifies them, returning the
// aggregation objects in slot order. On failure the error of the lowest
// failing slot is returned, regardless of the evaluation order.
func (b *base) verifyAll(ctx context.Context, proofs []*proofsys.BaseProof, verify verifyFunc) ([]*proofsys.AggregationObject, error) {
	widths := make([]int, len(proofs))
	for i, p := range proofs {
		if p == nil {
			return nil, fmt.Errorf("%w: proof %d is missing", layout.ErrConfiguration, i)
		}
		widths[i] = len(p.PublicInputs)
	}
	if err := b.layout.CheckShape(widths); err != nil {
		return nil, err
	}

	objs := make([]*proofsys.AggregationObject, len(proofs))
	errs := make([]error, len(proofs))
	verifySlot := func(i int) error {
		key := proofsys.KeyID{Family: b.layout.Family, Circuit: b.layout.Slots[i].Circuit}
		obj, err := verify(key, proofs[i])
		if err != nil {
			errs[i] = &ProofVerificationError{Slot: i, Key: key, Err: err}
			return errs[i]
		}
		objs[i] = obj
		return nil
	}

	if !b.parallel {
		for i := range proofs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := verifySlot(i); err != nil {
				return nil, err
			}
		}
		return objs, nil
	}

	// a failing slot does not cancel the others, every slot is verified so
	// the lowest failing one is known
	var g errgroup.Group
	if b.limit > 0 {
		g.SetLimit(b.limit)
	}
	for i := range proofs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return verifySlot(i)
		})
	}
	waitErr := g.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	if waitErr != nil {
		return nil, waitErr
	}
	return objs, nil
}

// General is the wrapper of every family with a scalar output. All proofs
// are verified in zero-knowledge mode.
type General struct {
	*base
}

func (w *General) Wrap(ctx context.Context, proofs []*proofsys.BaseProof) (Output, error) {
	objs, err := w.verifyAll(ctx, proofs, w.verifier.VerifyZK)
	if err != nil {
		return nil, err
	}
	value, err := w.committer.Commit(objs)
	if err != nil {
		return nil, fmt.Errorf("cannot compute aggregation commitment: %w", err)
	}
	log.Debugw("proofs wrapped", "family", w.layout.Family.String(), "proofs", len(proofs), "commitment", value.String())
	return Scalar{Family: w.layout.Family, Value: value}, nil
}

// Commit is a convenience to wrap proofs with a freshly resolved layout.
func Commit(ctx context.Context, cfg layout.Config, verifier proofsys.Verifier, proofs []*proofsys.BaseProof) (Output, error) {
	l, err := cfg.Resolve()
	if err != nil {
		return nil, err
	}
	w, err := New(l, verifier)
	if err != nil {
		return nil, err
	}
	return w.Wrap(ctx, proofs)
}

func hash(values ...*big.Int) (*big.Int, error) {
	return commitment.Hash(values...)
}
