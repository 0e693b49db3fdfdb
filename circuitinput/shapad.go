// Package circuitinput composes parsed documents, derived commitments and
// tree proofs into the fixed-layout numeric vectors the external prover
// consumes. Every value is a decimal string; every array has the exact
// length the circuit declares, zero-padded, never truncated.
package circuitinput

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrPayloadTooLarge reports content that exceeds the circuit's fixed
// maximum. There is no truncation path: a truncated input would hash to a
// different value and the proof would fail far downstream.
var ErrPayloadTooLarge = errors.New("unsupported document length")

// shaBlockSize returns the block and length-field sizes of the hash family.
// SHA-1/224/256 pad to 64-byte blocks with an 8-byte bit length; SHA-384/512
// pad to 128-byte blocks with a 16-byte bit length.
func shaBlockSize(algo string) (block, lengthField int, err error) {
	switch algo {
	case "sha1", "sha224", "sha256":
		return 64, 8, nil
	case "sha384", "sha512":
		return 128, 16, nil
	default:
		return 0, 0, fmt.Errorf("unknown hash algorithm %q", algo)
	}
}

// ShaPad applies the hash family's message padding to data and zero-extends
// the result to maxLen bytes. It returns the padded buffer and the length
// in bytes of the message-plus-padding region the circuit must hash.
func ShaPad(algo string, data []byte, maxLen int) (padded []byte, paddedLen int, err error) {
	block, lengthField, err := shaBlockSize(algo)
	if err != nil {
		return nil, 0, err
	}

	// message, 0x80 marker, zeros to the last block, bit length
	paddedLen = len(data) + 1 + lengthField
	if rem := paddedLen % block; rem != 0 {
		paddedLen += block - rem
	}
	if paddedLen > maxLen {
		return nil, 0, fmt.Errorf("%w: %d bytes pad to %d, circuit maximum is %d",
			ErrPayloadTooLarge, len(data), paddedLen, maxLen)
	}

	padded = make([]byte, maxLen)
	copy(padded, data)
	padded[len(data)] = 0x80
	bitLen := uint64(len(data)) * 8
	binary.BigEndian.PutUint64(padded[paddedLen-8:paddedLen], bitLen)
	return padded, paddedLen, nil
}
