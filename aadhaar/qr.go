// Package aadhaar parses the Aadhaar secure QR (V2) payload into the raw
// field slices the proof pipeline hashes. The QR carries one huge decimal
// integer; its bytes are a gzip stream whose decompressed form separates
// fields with 0xFF delimiter bytes and ends in a 256-byte RSA signature.
package aadhaar

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
)

// ErrFormat is wrapped by every malformed-payload error.
var ErrFormat = errors.New("malformed aadhaar payload")

const (
	delimiter      = 0xFF
	delimiterCount = 18
	signatureBytes = 256
)

// Field ordinals within the delimited buffer. Field k spans the bytes
// between delimiter k-1 and delimiter k; field 1 starts at the beginning of
// the buffer and holds the version specifier.
const (
	fieldVersion     = 1
	fieldReferenceID = 2
	fieldName        = 3
	fieldDOB         = 4
	fieldGender      = 5
	fieldPinCode     = 11
	fieldState       = 13
	fieldPhone       = 17
	fieldPhoto       = 18
)

// Date is a DOB split into its printed components.
type Date struct {
	Day, Month, Year int
}

// Document is the extracted QR record.
type Document struct {
	RawPayload []byte // decompressed delimited buffer, signature included

	Name              string
	DOB               Date
	Gender            string
	PinCode           string
	State             string
	LastFourDigits    string // last four digits of the Aadhaar number
	PhoneLastDigits   string // 4-digit phone suffix placeholder
	Timestamp         string // issuance timestamp from the reference id
	Photo             []byte
	Signature         []byte
	SignedPayload     []byte // everything the trailing signature covers
}

// ParseQR decodes the scanned QR content: a base-10 big integer whose bytes
// gzip-decompress into the delimited field buffer.
func ParseQR(scanned []byte) (*Document, error) {
	n, ok := new(big.Int).SetString(strings.TrimSpace(string(scanned)), 10)
	if !ok {
		return nil, fmt.Errorf("%w: payload is not a decimal integer", ErrFormat)
	}

	zr, err := gzip.NewReader(bytes.NewReader(n.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	defer zr.Close()
	buf, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: decompress: %v", ErrFormat, err)
	}

	return ParseDelimited(buf)
}

// ParseDelimited extracts fields from an already-decompressed buffer.
func ParseDelimited(buf []byte) (*Document, error) {
	if len(buf) <= signatureBytes {
		return nil, fmt.Errorf("%w: %d bytes is too short to carry a signature", ErrFormat, len(buf))
	}
	body := buf[:len(buf)-signatureBytes]

	// Delimiter positions decide every field boundary; without all of them
	// no offset can be trusted.
	var delims []int
	for i, b := range body {
		if b == delimiter {
			delims = append(delims, i)
		}
	}
	if len(delims) < delimiterCount {
		return nil, fmt.Errorf("%w: insufficient delimiters, found %d of %d",
			ErrFormat, len(delims), delimiterCount)
	}
	delims = delims[:delimiterCount]

	field := func(k int) []byte {
		start := 0
		if k > 1 {
			start = delims[k-2] + 1
		}
		return body[start:delims[k-1]]
	}

	if v := string(field(fieldVersion)); v != "V2" {
		return nil, fmt.Errorf("%w: unsupported version specifier %q", ErrFormat, v)
	}

	ref := string(field(fieldReferenceID))
	if len(ref) < 4 {
		return nil, fmt.Errorf("%w: reference id %q is too short", ErrFormat, ref)
	}

	dob, err := parseDOB(string(field(fieldDOB)))
	if err != nil {
		return nil, err
	}

	doc := &Document{
		RawPayload:      buf,
		Name:            string(field(fieldName)),
		DOB:             dob,
		Gender:          string(field(fieldGender)),
		PinCode:         string(field(fieldPinCode)),
		State:           string(field(fieldState)),
		LastFourDigits:  ref[:4],
		PhoneLastDigits: string(field(fieldPhone)),
		Timestamp:       ref[4:],
		Photo:           body[delims[delimiterCount-1]+1:],
		Signature:       buf[len(buf)-signatureBytes:],
		SignedPayload:   body,
	}
	return doc, nil
}

// parseDOB splits a DD-MM-YYYY or DD/MM/YYYY date.
func parseDOB(s string) (Date, error) {
	norm := strings.ReplaceAll(s, "/", "-")
	var d Date
	if _, err := fmt.Sscanf(norm, "%d-%d-%d", &d.Day, &d.Month, &d.Year); err != nil {
		return Date{}, fmt.Errorf("%w: date of birth %q", ErrFormat, s)
	}
	if d.Day < 1 || d.Day > 31 || d.Month < 1 || d.Month > 12 || d.Year < 1900 {
		return Date{}, fmt.Errorf("%w: date of birth %q out of range", ErrFormat, s)
	}
	return d, nil
}
