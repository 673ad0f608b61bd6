package types

import "github.com/fxamacker/cbor/v2"

func cborBytes(b []byte) []byte {
	data, err := cbor.Marshal(b)
	if err != nil {
		// a byte slice always encodes
		panic(err)
	}
	return data
}

func cborUnbytes(data []byte) ([]byte, error) {
	var b []byte
	if err := cbor.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	return b, nil
}
