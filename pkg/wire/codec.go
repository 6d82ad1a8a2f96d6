package wire

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"
)

// FingerprintSize is the number of digest bytes kept in a fingerprint.
const FingerprintSize = 8

// encMode is the canonical CBOR encoder mode.
var encMode cbor.EncMode

func init() {
	var err error

	// Configure encoder for deterministic output
	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeUnix,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}
}

// Snapshot is the canonical CBOR encoding of a value.
type Snapshot []byte

// Encode returns the canonical snapshot of v.
func Encode(v any) (Snapshot, error) {
	data, err := encMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode value: %w", err)
	}
	return data, nil
}

// Equal reports whether two snapshots encode the same structure.
func (s Snapshot) Equal(other Snapshot) bool {
	return bytes.Equal(s, other)
}

// Fingerprint returns the hex fingerprint of the snapshot.
func (s Snapshot) Fingerprint() string {
	sum := blake2b.Sum256(s)
	return hex.EncodeToString(sum[:FingerprintSize])
}
