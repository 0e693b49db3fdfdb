package common

import (
	"fmt"
	"math/big"
)

// BytesToBigInt interprets b as a big-endian unsigned integer.
func BytesToBigInt(b []byte) *big.Int {
	return new(big.Int).SetBytes(b)
}

// PackBytes splits b into groups of size bytes and returns each group as a
// big-endian integer. The last group may be shorter. With size 31 every
// group fits a BN254 field element.
func PackBytes(b []byte, size int) []*big.Int {
	if size <= 0 {
		return nil
	}
	var out []*big.Int
	for len(b) > 0 {
		n := size
		if len(b) < n {
			n = len(b)
		}
		out = append(out, new(big.Int).SetBytes(b[:n]))
		b = b[n:]
	}
	return out
}

// PadBytes right-pads b with zero bytes to length n.
func PadBytes(b []byte, n int) ([]byte, error) {
	if len(b) > n {
		return nil, fmt.Errorf("payload of %d bytes exceeds budget of %d", len(b), n)
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// ToDecimalStrings renders the integers in base 10, the form circuit input
// vectors carry field elements in.
func ToDecimalStrings(xs []*big.Int) []string {
	out := make([]string, len(xs))
	for i, x := range xs {
		out[i] = x.String()
	}
	return out
}

// BytesToDecimalStrings renders every byte as its own decimal string.
func BytesToDecimalStrings(b []byte) []string {
	out := make([]string, len(b))
	for i, v := range b {
		out[i] = fmt.Sprintf("%d", v)
	}
	return out
}

// ParseDecimalStrings parses base-10 strings back into integers.
func ParseDecimalStrings(ss []string) ([]*big.Int, error) {
	out := make([]*big.Int, len(ss))
	for i, s := range ss {
		x, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("not a decimal integer: %q", s)
		}
		out[i] = x
	}
	return out, nil
}

// ReverseBytes returns a reversed copy of b.
func ReverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}
