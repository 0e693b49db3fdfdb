package commitment

import (
	"crypto/sha256"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"golang.org/x/crypto/ripemd160"
)

// UserIdentifier derives the on-chain user identifier from opaque user
// context data: SHA-256, then RIPEMD-160, read as a 160-bit integer.
func UserIdentifier(userContextData []byte) *big.Int {
	sum := sha256.Sum256(userContextData)
	rip := ripemd160.New()
	rip.Write(sum[:])
	return new(big.Int).SetBytes(rip.Sum(nil))
}

// UserIdentifierHash renders the user identifier as a 0x-prefixed
// 40-character hex string, the address form external callers expect.
func UserIdentifierHash(userContextData []byte) string {
	return fmt.Sprintf("0x%040x", UserIdentifier(userContextData))
}

var schemeRe = regexp.MustCompile(`^https?://`)

// stringToField packs an ASCII string into a field element, one byte per
// 8 bits, capped at 31 bytes.
func stringToField(s string) (*big.Int, error) {
	if len(s) > 31 {
		return nil, fmt.Errorf("chunk of %d bytes exceeds 31-byte field capacity", len(s))
	}
	for _, c := range s {
		if c > 127 {
			return nil, fmt.Errorf("non-ASCII character %q", c)
		}
	}
	return new(big.Int).SetBytes([]byte(s)), nil
}

// ScopeHash binds a verifier scope to its endpoint domain: the domain is
// chunked into 31-byte field elements and poseidon-folded, then hashed with
// the packed scope.
func ScopeHash(endpoint, scope string) (*big.Int, error) {
	domain := schemeRe.ReplaceAllString(endpoint, "")
	if i := strings.IndexByte(domain, '/'); i >= 0 {
		domain = domain[:i]
	}

	var chunks []*big.Int
	for len(domain) > 0 {
		n := len(domain)
		if n > 31 {
			n = 31
		}
		c, err := stringToField(domain[:n])
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
		domain = domain[n:]
	}
	if len(chunks) == 0 || len(chunks) > maxPoseidonInputs {
		return nil, fmt.Errorf("endpoint must be between 1 and %d characters", 31*maxPoseidonInputs)
	}

	domainHash, err := Hash(chunks)
	if err != nil {
		return nil, err
	}
	scopeField, err := stringToField(scope)
	if err != nil {
		return nil, fmt.Errorf("scope: %w", err)
	}
	return Hash([]*big.Int{domainHash, scopeField})
}
