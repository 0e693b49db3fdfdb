package sigalg

import (
	"encoding/asn1"
	"fmt"
	"math/big"
)

// SplitToWords splits x into exactly k big-endian words of n bytes each,
// most significant word first. An x that needs more than n*k bytes is an
// error, never a truncation.
func SplitToWords(x *big.Int, n, k int) ([]*big.Int, error) {
	if x.Sign() < 0 {
		return nil, fmt.Errorf("cannot split negative integer")
	}
	if n <= 0 || k <= 0 {
		return nil, fmt.Errorf("invalid word layout n=%d k=%d", n, k)
	}
	total := n * k
	raw := x.Bytes()
	if len(raw) > total {
		return nil, fmt.Errorf("integer of %d bytes does not fit %d words of %d bytes",
			len(raw), k, n)
	}

	buf := make([]byte, total)
	copy(buf[total-len(raw):], raw)

	words := make([]*big.Int, k)
	for i := 0; i < k; i++ {
		words[i] = new(big.Int).SetBytes(buf[i*n : (i+1)*n])
	}
	return words, nil
}

// RecombineWords is the inverse of SplitToWords.
func RecombineWords(words []*big.Int, n int) *big.Int {
	x := new(big.Int)
	shift := uint(n * 8)
	for _, w := range words {
		x.Lsh(x, shift)
		x.Add(x, w)
	}
	return x
}

// SplitForAlgorithm splits x using the word spec of the named algorithm.
func SplitForAlgorithm(x *big.Int, fullName string) ([]*big.Int, error) {
	spec, err := Lookup(fullName)
	if err != nil {
		return nil, err
	}
	return SplitToWords(x, spec.N, spec.K)
}

type ecdsaSignatureASN struct {
	R, S *big.Int
}

// ExtractRS recovers the R and S integers from a DER-encoded ECDSA
// signature. Anything but a two-INTEGER SEQUENCE is rejected.
func ExtractRS(der []byte) (r, s *big.Int, err error) {
	var sig ecdsaSignatureASN
	rest, err := asn1.Unmarshal(der, &sig)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid signature format: %v", err)
	}
	if len(rest) != 0 {
		return nil, nil, fmt.Errorf("invalid signature format: %d trailing bytes", len(rest))
	}
	if sig.R == nil || sig.S == nil || sig.R.Sign() <= 0 || sig.S.Sign() <= 0 {
		return nil, nil, fmt.Errorf("invalid signature format: non-positive component")
	}
	return sig.R, sig.S, nil
}
