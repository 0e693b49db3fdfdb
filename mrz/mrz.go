// Package mrz extracts the fixed-column fields of an ICAO 9303 machine
// readable zone. Offsets are over the concatenated zone exactly as it is
// stored in DG1, so the returned slices can be hashed and packed without
// re-alignment.
package mrz

import (
	"errors"
	"fmt"
	"strings"
)

// ErrFieldLength is wrapped by every zone-shape violation.
var ErrFieldLength = errors.New("mrz field length mismatch")

// Format tags the physical document layout.
type Format int

const (
	// TD3 is the two-line, 44-column passport layout.
	TD3 Format = iota
	// TD1 is the three-line, 30-column ID-card layout.
	TD1
)

func (f Format) String() string {
	if f == TD1 {
		return "td1"
	}
	return "td3"
}

const (
	td3Length = 88
	td1Length = 90
)

// Field names a machine-readable zone field.
type Field string

const (
	DocumentType   Field = "documentType"
	IssuingState   Field = "issuingState"
	Name           Field = "name"
	DocumentNumber Field = "documentNumber"
	Nationality    Field = "nationality"
	BirthDate      Field = "birthDate"
	Sex            Field = "sex"
	ExpiryDate     Field = "expiryDate"
	OptionalData   Field = "optionalData"
)

type span struct {
	start, end int // end exclusive
}

// Offset tables over the concatenated zone. One table per layout; the two
// formats place the same fields at entirely different columns.
var td3Spans = map[Field]span{
	DocumentType:   {0, 2},
	IssuingState:   {2, 5},
	Name:           {5, 44},
	DocumentNumber: {44, 53},
	Nationality:    {54, 57},
	BirthDate:      {57, 63},
	Sex:            {64, 65},
	ExpiryDate:     {65, 71},
	OptionalData:   {72, 86},
}

var td1Spans = map[Field]span{
	DocumentType:   {0, 2},
	IssuingState:   {2, 5},
	DocumentNumber: {5, 14},
	OptionalData:   {15, 30},
	BirthDate:      {30, 36},
	Sex:            {37, 38},
	ExpiryDate:     {38, 44},
	Nationality:    {45, 48},
	Name:           {60, 90},
}

// Zone is a validated machine-readable zone.
type Zone struct {
	Format Format
	text   string
}

// Parse validates the zone shape and returns it tagged with its layout.
// Line breaks are tolerated and stripped; the layout is decided purely by
// the resulting length (88 for TD3, 90 for TD1).
func Parse(text string) (*Zone, error) {
	flat := strings.NewReplacer("\n", "", "\r", "").Replace(text)
	switch len(flat) {
	case td3Length:
		return &Zone{Format: TD3, text: flat}, nil
	case td1Length:
		return &Zone{Format: TD1, text: flat}, nil
	default:
		return nil, fmt.Errorf("%w: zone is %d characters, want %d (TD3) or %d (TD1)",
			ErrFieldLength, len(flat), td3Length, td1Length)
	}
}

// Text returns the concatenated zone.
func (z *Zone) Text() string { return z.text }

func (z *Zone) spans() map[Field]span {
	if z.Format == TD1 {
		return td1Spans
	}
	return td3Spans
}

// Field returns the raw ASCII codes of one field. The filler '<' is kept:
// downstream hashing works over the zone exactly as printed.
func (z *Zone) Field(f Field) ([]byte, error) {
	s, ok := z.spans()[f]
	if !ok {
		return nil, fmt.Errorf("no field %q in %s layout", f, z.Format)
	}
	return []byte(z.text[s.start:s.end]), nil
}

// checkDigitWeights is the ICAO 9303 7-3-1 repeating weight sequence.
var checkDigitWeights = [3]int{7, 3, 1}

// CheckDigit computes the ICAO 9303 check digit over data, where digits map
// to their value, letters to 10..35 and the filler '<' to 0.
func CheckDigit(data []byte) (int, error) {
	sum := 0
	for i, c := range data {
		var v int
		switch {
		case c >= '0' && c <= '9':
			v = int(c - '0')
		case c >= 'A' && c <= 'Z':
			v = int(c-'A') + 10
		case c == '<':
			v = 0
		default:
			return 0, fmt.Errorf("%w: invalid character %q", ErrFieldLength, c)
		}
		sum += v * checkDigitWeights[i%3]
	}
	return sum % 10, nil
}

// Validate recomputes the document number, birth date and expiry date check
// digits against the ones printed in the zone.
func (z *Zone) Validate() error {
	type check struct {
		field Field
		pos   int // index of the printed check digit, right after the field
	}
	var checks []check
	switch z.Format {
	case TD3:
		checks = []check{{DocumentNumber, 53}, {BirthDate, 63}, {ExpiryDate, 71}}
	case TD1:
		checks = []check{{DocumentNumber, 14}, {BirthDate, 36}, {ExpiryDate, 44}}
	}

	for _, c := range checks {
		s := z.spans()[c.field]
		data := []byte(z.text[s.start:c.pos])
		want := z.text[c.pos]
		if want < '0' || want > '9' {
			if want == '<' && c.field == DocumentNumber {
				continue // optional check digit on some ID cards
			}
			return fmt.Errorf("%w: check digit position %d holds %q", ErrFieldLength, c.pos, want)
		}
		got, err := CheckDigit(data)
		if err != nil {
			return err
		}
		if got != int(want-'0') {
			return fmt.Errorf("%w: %s check digit is %d, zone says %c", ErrFieldLength, c.field, got, want)
		}
	}
	return nil
}
