package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gnosisguild/enclave-aggregator/log"
)

// Error is used by handler functions to wrap errors, assigning a unique error
// code and the HTTP status to reply with.
type Error struct {
	Err        error
	Code       int
	HTTPstatus int
}

// errorResponse is the JSON body of an Error.
//
// Example: {"error":"proof verification failed: slot 2","code":40011}
type errorResponse struct {
	Err  string `json:"error"`
	Code int    `json:"code"`
}

// MarshalJSON returns a JSON containing Err.Error() and Code. Field
// HTTPstatus is ignored.
func (e Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(errorResponse{Err: e.Err.Error(), Code: e.Code})
}

// UnmarshalJSON decodes the body written by Write. The HTTP status is not
// part of it.
func (e *Error) UnmarshalJSON(data []byte) error {
	var res errorResponse
	if err := json.Unmarshal(data, &res); err != nil {
		return err
	}
	e.Err = errors.New(res.Err)
	e.Code = res.Code
	return nil
}

func (e Error) Error() string {
	return e.Err.Error()
}

// Is reports whether target is an Error with the same code.
func (e Error) Is(target error) bool {
	var t Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Write replies with the error as JSON and the error HTTP status.
func (e Error) Write(w http.ResponseWriter) {
	msg, err := json.Marshal(e)
	if err != nil {
		log.Warn(err)
		http.Error(w, "marshal failed", http.StatusInternalServerError)
		return
	}
	if log.Level() == log.LogLevelDebug {
		log.Debugw("API error response", "error", e.Error(), "code", e.Code, "httpStatus", e.HTTPstatus)
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(e.HTTPstatus)
	if _, err := w.Write(append(msg, '\n')); err != nil {
		log.Warnw("failed to write on response", "error", err)
	}
}

// Withf returns a copy of the Error with the formatted string appended.
func (e Error) Withf(format string, args ...any) Error {
	return e.With(fmt.Sprintf(format, args...))
}

// With returns a copy of the Error with the string appended.
func (e Error) With(s string) Error {
	return Error{
		Err:        fmt.Errorf("%w: %v", e.Err, s),
		Code:       e.Code,
		HTTPstatus: e.HTTPstatus,
	}
}

// WithErr returns a copy of the Error with err.Error() appended.
func (e Error) WithErr(err error) Error {
	return e.With(err.Error())
}
