package testutil

import (
	"bytes"
	"io"
)

// Encode serializes any gnark object.
func Encode(obj io.WriterTo) ([]byte, error) {
	buf := bytes.Buffer{}
	if _, err := obj.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
