package types

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gnosisguild/enclave-aggregator/util"
)

// E3IDLen is the length in bytes of a marshaled E3ID.
const E3IDLen = 32

// E3ID identifies an Encrypted Execution Environment request. It is composed
// of:
// - ChainID (4 bytes)
// - Enclave contract address (20 bytes)
// - Index of the request in the contract (8 bytes)
type E3ID struct {
	ChainID uint32
	Enclave common.Address
	Index   uint64
}

// Marshal encodes the E3ID to bytes.
func (e *E3ID) Marshal() []byte {
	chainID := make([]byte, 4)
	binary.BigEndian.PutUint32(chainID, e.ChainID)

	index := make([]byte, 8)
	binary.BigEndian.PutUint64(index, e.Index)

	var id bytes.Buffer
	id.Write(chainID)
	id.Write(e.Enclave.Bytes())
	id.Write(index)
	return id.Bytes()
}

// Unmarshal decodes bytes to E3ID.
func (e *E3ID) Unmarshal(data []byte) error {
	if len(data) != E3IDLen {
		return fmt.Errorf("invalid E3ID length: %d", len(data))
	}
	e.ChainID = binary.BigEndian.Uint32(data[:4])
	e.Enclave = common.BytesToAddress(data[4:24])
	e.Index = binary.BigEndian.Uint64(data[24:32])
	return nil
}

// MarshalBinary implements the BinaryMarshaler interface
func (e *E3ID) MarshalBinary() ([]byte, error) {
	return e.Marshal(), nil
}

// UnmarshalBinary implements the BinaryUnmarshaler interface
func (e *E3ID) UnmarshalBinary(data []byte) error {
	return e.Unmarshal(data)
}

// String returns the hex representation of the E3ID.
func (e *E3ID) String() string {
	return hex.EncodeToString(e.Marshal())
}

// E3IDFromString parses the hex representation returned by String, with or
// without 0x prefix.
func E3IDFromString(s string) (*E3ID, error) {
	data, err := hex.DecodeString(util.TrimHex(s))
	if err != nil {
		return nil, fmt.Errorf("invalid E3ID hex: %w", err)
	}
	e := &E3ID{}
	if err := e.Unmarshal(data); err != nil {
		return nil, err
	}
	return e, nil
}
