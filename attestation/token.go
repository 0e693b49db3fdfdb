// Package attestation validates remote-enclave attestation tokens: three
// dot-separated base64url segments signed by a pinned three-certificate
// chain. Validation has exactly two terminal outcomes, verified or rejected;
// a rejected result carries the reason but no key material.
package attestation

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrToken is wrapped by every malformed-token error.
var ErrToken = errors.New("malformed attestation token")

// Header is the decoded token header. X5C carries the full signing chain,
// leaf first.
type Header struct {
	Alg string   `json:"alg"`
	X5C []string `json:"x5c"`
}

// Payload is the decoded token body. EatNonce carries the enclave's two
// ephemeral public keys; the container submodule carries the measured image
// digest of the workload the enclave booted.
type Payload struct {
	EatNonce []string `json:"eat_nonce"`
	Dbgstat  string   `json:"dbgstat"`
	Submods  struct {
		Container struct {
			ImageDigest string `json:"image_digest"`
		} `json:"container"`
	} `json:"submods"`
}

// Token is a split but not yet validated attestation token. SigningInput is
// the exact byte region the signature covers.
type Token struct {
	Header       Header
	Payload      Payload
	Signature    []byte
	SigningInput []byte
}

// ParseToken splits and decodes the three token segments without validating
// anything cryptographic.
func ParseToken(raw string) (*Token, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: %d segments, want 3", ErrToken, len(parts))
	}

	headerJSON, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrToken, err)
	}
	payloadJSON, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: payload: %v", ErrToken, err)
	}
	signature, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: signature: %v", ErrToken, err)
	}

	t := &Token{
		Signature:    signature,
		SigningInput: []byte(parts[0] + "." + parts[1]),
	}
	if err := json.Unmarshal(headerJSON, &t.Header); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrToken, err)
	}
	if err := json.Unmarshal(payloadJSON, &t.Payload); err != nil {
		return nil, fmt.Errorf("%w: payload: %v", ErrToken, err)
	}
	return t, nil
}
