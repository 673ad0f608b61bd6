//nolint:lll
package api

import (
	"fmt"
	"net/http"
)

// The custom Error type satisfies the error interface.
// Error() returns a human-readable description of the error.
//
// Error codes in the 40001-49999 range are the user's fault,
// and they return HTTP Status 400 or 404, whatever is most appropriate.
//
// Error codes 50001-59999 are the server's fault
// and they return HTTP Status 500 or 503, or something else if appropriate.
//
// NEVER change any of the current error codes, only append new errors after
// the current last 4XXX or 5XXX.
var (
	ErrResourceNotFound      = Error{Code: 40001, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("resource not found")}
	ErrMalformedBody         = Error{Code: 40004, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed JSON body")}
	ErrMalformedE3ID         = Error{Code: 40006, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed E3 ID")}
	ErrUnknownFamily         = Error{Code: 40007, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("unknown family")}
	ErrMalformedIndex        = Error{Code: 40008, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed output index")}
	ErrFamilyUnavailable     = Error{Code: 40009, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("family not available")}
	ErrConfiguration         = Error{Code: 40010, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("configuration error")}
	ErrProofVerification     = Error{Code: 40011, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("proof verification failed")}
	ErrCrossProofConstraint  = Error{Code: 40012, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("cross-proof constraint violated")}
	ErrParamsMismatch        = Error{Code: 40013, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("parameter set mismatch")}
	ErrMalformedPublicInputs = Error{Code: 40014, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed public inputs")}

	ErrMarshalingServerJSONFailed = Error{Code: 50001, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("marshaling (server-side) JSON failed")}
	ErrGenericInternalServerError = Error{Code: 50002, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("internal server error")}
)
