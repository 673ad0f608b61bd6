package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gnosisguild/enclave-aggregator/aggregator"
	"github.com/gnosisguild/enclave-aggregator/layout"
	"github.com/gnosisguild/enclave-aggregator/log"
	"github.com/gnosisguild/enclave-aggregator/proofsys"
	"github.com/gnosisguild/enclave-aggregator/storage"
	"github.com/gnosisguild/enclave-aggregator/types"
	"github.com/gnosisguild/enclave-aggregator/wrapper"
)

// httpWriteJSON helper function allows to write a JSON response.
func httpWriteJSON(w http.ResponseWriter, data any) {
	jdata, err := json.Marshal(data)
	if err != nil {
		ErrMarshalingServerJSONFailed.WithErr(err).Write(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	n, err := w.Write(jdata)
	if err != nil {
		log.Warnw("failed to write http response", "error", err)
	}
	if _, err := w.Write([]byte("\n")); err != nil {
		log.Warnw("failed to write on response", "error", err)
	}
	log.Debugw("api response", "bytes", n, "data", strings.ReplaceAll(string(jdata), "\"", ""))
}

// httpWriteOK helper function allows to write an OK response.
func httpWriteOK(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("\n")); err != nil {
		log.Warnw("failed to write on response", "error", err)
	}
}

// e3IDParam parses the E3 ID of the request path.
func e3IDParam(r *http.Request) (*types.E3ID, *Error) {
	e3ID, err := types.E3IDFromString(chi.URLParam(r, E3URLParam))
	if err != nil {
		apiErr := ErrMalformedE3ID.WithErr(err)
		return nil, &apiErr
	}
	return e3ID, nil
}

// familyQuery parses the mandatory family query parameter.
func familyQuery(r *http.Request) (layout.Family, *Error) {
	family := layout.Family(r.URL.Query().Get(FamilyURLParam))
	if !family.Valid() {
		apiErr := ErrUnknownFamily.Withf("%q", family)
		return "", &apiErr
	}
	return family, nil
}

func indexParam(r *http.Request) (uint64, *Error) {
	index, err := strconv.ParseUint(chi.URLParam(r, IndexURLParam), 10, 64)
	if err != nil {
		apiErr := ErrMalformedIndex.WithErr(err)
		return 0, &apiErr
	}
	return index, nil
}

// aggregationError maps the errors of the aggregator to API errors.
func aggregationError(err error) Error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return ErrResourceNotFound.WithErr(err)
	case errors.Is(err, aggregator.ErrFamilyUnavailable):
		return ErrFamilyUnavailable.WithErr(err)
	case errors.Is(err, storage.ErrParamsMismatch), errors.Is(err, aggregator.ErrUnsupportedParams):
		return ErrParamsMismatch.WithErr(err)
	case errors.Is(err, wrapper.ErrCrossProofConstraint):
		return ErrCrossProofConstraint.WithErr(err)
	case errors.Is(err, proofsys.ErrNonCanonicalInput):
		return ErrMalformedPublicInputs.WithErr(err)
	case errors.Is(err, wrapper.ErrProofVerification):
		return ErrProofVerification.WithErr(err)
	case errors.Is(err, layout.ErrConfiguration):
		return ErrConfiguration.WithErr(err)
	default:
		return ErrGenericInternalServerError.WithErr(err)
	}
}
