package api

import (
	"encoding/json"
	"net/http"

	"github.com/gnosisguild/enclave-aggregator/aggregator"
	"github.com/gnosisguild/enclave-aggregator/log"
	"github.com/gnosisguild/enclave-aggregator/proofsys"
	"github.com/gnosisguild/enclave-aggregator/storage"
)

// layouts returns the parameter set and the layout of every family served
// GET /layouts
func (a *API) layouts(w http.ResponseWriter, r *http.Request) {
	res := &Layouts{Params: a.agg.Params()}
	for _, l := range a.agg.Layouts() {
		info := Layout{
			Family:      l.Family,
			NProofs:     l.NProofs(),
			TotalInputs: l.TotalInputs(),
		}
		for _, s := range l.Slots {
			info.Slots = append(info.Slots, Slot{Circuit: s.Circuit, Width: s.Width, Fields: s.Fields})
		}
		res.Layouts = append(res.Layouts, info)
	}
	httpWriteJSON(w, res)
}

// wrap verifies and aggregates the base proofs of a family
// POST /e3s/{e3ID}/wrap
func (a *API) wrap(w http.ResponseWriter, r *http.Request) {
	e3ID, apiErr := e3IDParam(r)
	if apiErr != nil {
		apiErr.Write(w)
		return
	}
	req := &WrapRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if !req.Family.Valid() {
		ErrUnknownFamily.Withf("%q", req.Family).Write(w)
		return
	}
	proofs := make([]*proofsys.BaseProof, len(req.Proofs))
	for i, p := range req.Proofs {
		if p == nil {
			ErrMalformedBody.Withf("proof %d is null", i).Write(w)
			return
		}
		for j, v := range p.PublicInputs {
			if v == nil {
				ErrMalformedPublicInputs.Withf("proof %d input %d is null", i, j).Write(w)
				return
			}
		}
		proofs[i] = p.BaseProof()
	}
	res, err := a.agg.Submit(r.Context(), &aggregator.Submission{
		E3ID:   e3ID,
		Family: req.Family,
		Params: req.Params,
		Proofs: proofs,
	})
	if err != nil {
		aggregationError(err).Write(w)
		return
	}
	log.Infow("proofs wrapped", "e3", e3ID.String(), "family", req.Family.String(), "index", res.Index)
	httpWriteJSON(w, &WrapResponse{
		Output: storage.NewStoredOutput(res.Index, res.Output),
		Root:   storage.NewStoredOutput(uint64(res.Leaves), res.Root),
	})
}

// outputs lists the outputs of a family
// GET /e3s/{e3ID}/outputs?family=
func (a *API) outputs(w http.ResponseWriter, r *http.Request) {
	e3ID, apiErr := e3IDParam(r)
	if apiErr != nil {
		apiErr.Write(w)
		return
	}
	family, apiErr := familyQuery(r)
	if apiErr != nil {
		apiErr.Write(w)
		return
	}
	outputs, err := a.agg.Outputs(e3ID, family)
	if err != nil {
		aggregationError(err).Write(w)
		return
	}
	if outputs == nil {
		outputs = []*storage.StoredOutput{}
	}
	httpWriteJSON(w, &Outputs{Outputs: outputs})
}

// root returns the fold root of a family
// GET /e3s/{e3ID}/root?family=
func (a *API) root(w http.ResponseWriter, r *http.Request) {
	e3ID, apiErr := e3IDParam(r)
	if apiErr != nil {
		apiErr.Write(w)
		return
	}
	family, apiErr := familyQuery(r)
	if apiErr != nil {
		apiErr.Write(w)
		return
	}
	root, err := a.agg.Root(e3ID, family)
	if err != nil {
		aggregationError(err).Write(w)
		return
	}
	httpWriteJSON(w, root)
}

// registryProof returns the inclusion proof of an output in the E3 registry
// GET /e3s/{e3ID}/outputs/{index}/proof?family=
func (a *API) registryProof(w http.ResponseWriter, r *http.Request) {
	e3ID, apiErr := e3IDParam(r)
	if apiErr != nil {
		apiErr.Write(w)
		return
	}
	family, apiErr := familyQuery(r)
	if apiErr != nil {
		apiErr.Write(w)
		return
	}
	index, apiErr := indexParam(r)
	if apiErr != nil {
		apiErr.Write(w)
		return
	}
	proof, err := a.agg.RegistryProof(e3ID, family, index)
	if err != nil {
		aggregationError(err).Write(w)
		return
	}
	httpWriteJSON(w, proof)
}
