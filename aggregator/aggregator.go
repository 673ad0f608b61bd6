// Package aggregator runs the wrappers of every configured family on behalf
// of E3 requests. Each accepted submission is verified, committed, persisted
// and folded into the per-family root of its E3.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/gnosisguild/enclave-aggregator/config"
	"github.com/gnosisguild/enclave-aggregator/fold"
	"github.com/gnosisguild/enclave-aggregator/layout"
	"github.com/gnosisguild/enclave-aggregator/log"
	"github.com/gnosisguild/enclave-aggregator/proofsys"
	"github.com/gnosisguild/enclave-aggregator/storage"
	"github.com/gnosisguild/enclave-aggregator/types"
	"github.com/gnosisguild/enclave-aggregator/wrapper"
)

var (
	// ErrFamilyUnavailable is returned for families without a wrapper, either
	// not configured or missing their verifying keys.
	ErrFamilyUnavailable = errors.New("family not available")
	// ErrUnsupportedParams is returned when a submission carries a parameter
	// set other than the one the wrappers were built for.
	ErrUnsupportedParams = errors.New("unsupported parameter set")
)

// Submission is a set of base proofs of one family for an E3.
type Submission struct {
	E3ID   *types.E3ID
	Family layout.Family
	// Params is optional, when present it must match the configured set.
	Params layout.Params
	Proofs []*proofsys.BaseProof
}

// Result is the outcome of an accepted submission.
type Result struct {
	Index  uint64
	Output wrapper.Output
	Root   wrapper.Output
	Leaves int
}

// Aggregator holds one wrapper per available family.
type Aggregator struct {
	stg      *storage.Storage
	params   layout.Params
	wrappers map[layout.Family]wrapper.Wrapper
	// serializes the store and refold of the outputs
	foldLock sync.Mutex
}

// New builds the wrapper of every family configured in cfg. Families whose
// verifying keys are not registered in the verifier are skipped, but a key
// registered with the wrong width is a configuration error.
func New(stg *storage.Storage, cfg *config.Config, verifier proofsys.Verifier) (*Aggregator, error) {
	if stg == nil {
		return nil, fmt.Errorf("storage cannot be nil")
	}
	a := &Aggregator{
		stg:      stg,
		params:   cfg.Params.Clone(),
		wrappers: make(map[layout.Family]wrapper.Wrapper),
	}
	var opts []wrapper.Option
	if cfg.ParallelVerification {
		opts = append(opts, wrapper.WithParallelVerification(runtime.NumCPU()))
	}
	for _, family := range cfg.Families() {
		lc, err := cfg.Layout(family)
		if err != nil {
			return nil, err
		}
		l, err := lc.Resolve()
		if err != nil {
			return nil, err
		}
		if missing := missingKeys(l, verifier); len(missing) > 0 {
			log.Warnw("family disabled, verifying keys not registered", "family", family.String(), "keys", missing)
			continue
		}
		w, err := wrapper.New(l, verifier, opts...)
		if err != nil {
			return nil, fmt.Errorf("cannot build wrapper for %s: %w", family, err)
		}
		a.wrappers[family] = w
		log.Infow("wrapper ready", "family", family.String(), "proofs", l.NProofs(), "inputs", l.TotalInputs())
	}
	return a, nil
}

func missingKeys(l *layout.Layout, verifier proofsys.Verifier) []string {
	var missing []string
	for _, slot := range l.Slots {
		key := proofsys.KeyID{Family: l.Family, Circuit: slot.Circuit}
		if _, err := verifier.Width(key); errors.Is(err, proofsys.ErrUnknownKey) {
			missing = append(missing, key.String())
		}
	}
	return missing
}

// Layouts returns the layouts of the available families.
func (a *Aggregator) Layouts() []*layout.Layout {
	layouts := make([]*layout.Layout, 0, len(a.wrappers))
	for _, f := range layout.Families() {
		if w, ok := a.wrappers[f]; ok {
			layouts = append(layouts, w.Layout())
		}
	}
	return layouts
}

// Params returns the parameter set the wrappers were built for.
func (a *Aggregator) Params() layout.Params {
	return a.params.Clone()
}

// Submit wraps the proofs, stores the output and refolds the family root of
// the E3. The parameter set is recorded for the E3 on its first accepted
// submission and every later one must match it.
func (a *Aggregator) Submit(ctx context.Context, sub *Submission) (*Result, error) {
	if sub == nil || sub.E3ID == nil {
		return nil, fmt.Errorf("%w: missing E3 identifier", layout.ErrConfiguration)
	}
	w, ok := a.wrappers[sub.Family]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFamilyUnavailable, sub.Family)
	}
	params := sub.Params
	if params == nil {
		params = a.params
	}
	if !params.Equal(a.params) {
		return nil, fmt.Errorf("%w: got %s, serving %s", ErrUnsupportedParams, params, a.params)
	}

	out, err := w.Wrap(ctx, sub.Proofs)
	if err != nil {
		log.Debugw("submission rejected", "e3", sub.E3ID.String(), "family", sub.Family.String(), "error", err.Error())
		return nil, err
	}

	a.foldLock.Lock()
	defer a.foldLock.Unlock()
	// only accepted submissions record the parameter set
	if err := a.stg.SetParams(sub.E3ID, params); err != nil {
		return nil, err
	}
	index, err := a.stg.PushOutput(sub.E3ID, out)
	if err != nil {
		return nil, err
	}
	root, leaves, err := a.refold(sub.E3ID, sub.Family)
	if err != nil {
		return nil, err
	}
	log.Infow("submission aggregated",
		"e3", sub.E3ID.String(),
		"family", sub.Family.String(),
		"index", index,
		"leaves", leaves)
	return &Result{Index: index, Output: out, Root: root, Leaves: leaves}, nil
}

// refold recomputes the fold root of the family outputs of the E3.
func (a *Aggregator) refold(e3ID *types.E3ID, family layout.Family) (wrapper.Output, int, error) {
	stored, err := a.stg.Outputs(e3ID, family)
	if err != nil {
		return nil, 0, err
	}
	outputs := make([]wrapper.Output, len(stored))
	for i, so := range stored {
		if outputs[i], err = so.Output(); err != nil {
			return nil, 0, fmt.Errorf("output %d: %w", i, err)
		}
	}
	root, err := fold.Tree(outputs)
	if err != nil {
		return nil, 0, err
	}
	if err := a.stg.SetRoot(e3ID, root, uint64(len(outputs))); err != nil {
		return nil, 0, err
	}
	return root, len(outputs), nil
}

// Outputs returns the stored outputs of the family for the E3.
func (a *Aggregator) Outputs(e3ID *types.E3ID, family layout.Family) ([]*storage.StoredOutput, error) {
	return a.stg.Outputs(e3ID, family)
}

// Root returns the fold root of the family for the E3.
func (a *Aggregator) Root(e3ID *types.E3ID, family layout.Family) (*storage.StoredOutput, error) {
	return a.stg.Root(e3ID, family)
}

// RegistryProof returns the inclusion proof of a stored output in the E3
// output registry.
func (a *Aggregator) RegistryProof(e3ID *types.E3ID, family layout.Family, index uint64) (*storage.RegistryProof, error) {
	return a.stg.RegistryProof(e3ID, family, index)
}
