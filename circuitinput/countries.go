package circuitinput

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/veridoc/idproof/common"
)

// MaxForbiddenCountries bounds the exclusion list; the circuit allocates
// exactly this many 3-byte slots.
const MaxForbiddenCountries = 40

const countryChunkBytes = 31 // one field element holds 248 bits

// CountryTable validates ISO 3166-1 alpha-3 codes before packing. It is an
// explicit handle: the composing application constructs it once and passes
// it where needed, there is no import-time global registration.
type CountryTable struct {
	codes map[string]struct{}
}

// NewCountryTable builds the lookup table.
func NewCountryTable() *CountryTable {
	t := &CountryTable{codes: make(map[string]struct{}, len(iso3Codes))}
	for _, c := range iso3Codes {
		t.codes[c] = struct{}{}
	}
	return t
}

// Valid reports whether code is a known alpha-3 country code.
func (t *CountryTable) Valid(code string) bool {
	_, ok := t.codes[strings.ToUpper(code)]
	return ok
}

// PackForbiddenCountries packs the exclusion list for the circuit: each
// 3-letter code right-padded with null bytes to 3 bytes, all codes
// concatenated, the buffer byte-reversed and chunked into 31-byte groups
// from the least-significant end, one field element per group.
func (t *CountryTable) PackForbiddenCountries(codes []string) ([]*big.Int, error) {
	if len(codes) > MaxForbiddenCountries {
		return nil, fmt.Errorf("%d countries exceed the maximum of %d", len(codes), MaxForbiddenCountries)
	}

	buf := make([]byte, 3*MaxForbiddenCountries)
	for i, code := range codes {
		if len(code) > 3 {
			return nil, fmt.Errorf("country code %q is longer than 3 bytes", code)
		}
		if !t.Valid(code) {
			return nil, fmt.Errorf("unknown country code %q", code)
		}
		copy(buf[i*3:], strings.ToUpper(code))
	}

	reversed := common.ReverseBytes(buf)
	groups := (len(buf) + countryChunkBytes - 1) / countryChunkBytes
	packed := make([]*big.Int, groups)
	// chunk from the least-significant (tail) end of the reversed buffer
	for i := 0; i < groups; i++ {
		end := len(reversed) - i*countryChunkBytes
		start := end - countryChunkBytes
		if start < 0 {
			start = 0
		}
		packed[i] = new(big.Int).SetBytes(reversed[start:end])
	}
	return packed, nil
}

// UnpackForbiddenCountries reverses PackForbiddenCountries, recovering the
// original codes in order. Null-only slots are skipped.
func UnpackForbiddenCountries(packed []*big.Int) []string {
	// Extracting each group least-significant byte first walks the
	// reversed buffer backwards, which is the original byte order.
	var buf []byte
	mask := big.NewInt(0xFF)
	for _, p := range packed {
		v := new(big.Int).Set(p)
		for j := 0; j < countryChunkBytes; j++ {
			b := new(big.Int).And(v, mask)
			buf = append(buf, byte(b.Uint64()))
			v.Rsh(v, 8)
		}
	}
	if len(buf) > 3*MaxForbiddenCountries {
		buf = buf[:3*MaxForbiddenCountries]
	}

	var codes []string
	for i := 0; i+3 <= len(buf); i += 3 {
		code := strings.TrimRight(string(buf[i:i+3]), "\x00")
		if code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}
