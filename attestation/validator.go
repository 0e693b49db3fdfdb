package attestation

import (
	"bytes"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"time"
)

// debugDisabled is the dbgstat sentinel a production enclave must report.
const debugDisabled = "disabled-since-boot"

// chainLength is the only accepted x5c length: leaf, intermediate, root.
const chainLength = 3

// Result is the terminal state of one validation. A rejected result carries
// the reason and empty key material; callers branch on Verified and apply
// their own retry or alerting policy.
type Result struct {
	Verified    bool
	PublicKeys  []string
	ImageDigest string
	Reason      string
}

func rejected(format string, args ...any) Result {
	return Result{Reason: fmt.Sprintf(format, args...)}
}

// Validator checks attestation tokens against one pinned root certificate.
type Validator struct {
	// RootDigest is the SHA-256 of the pinned root certificate's DER bytes.
	RootDigest [sha256.Size]byte

	// Production requires the enclave to report debugging disabled. Dev
	// tokens without a dbgstat field pass when this is false.
	Production bool

	// Now overrides the clock in tests. Nil means time.Now.
	Now func() time.Time
}

// Verify runs the full validation state machine over a raw token. It never
// returns an error: every failure is a rejected Result.
func (v *Validator) Verify(raw string) Result {
	token, err := ParseToken(raw)
	if err != nil {
		return rejected("%v", err)
	}

	if token.Header.Alg != "RS256" {
		return rejected("unsupported token algorithm %q", token.Header.Alg)
	}
	if len(token.Header.X5C) != chainLength {
		return rejected("chain has %d certificates, want %d", len(token.Header.X5C), chainLength)
	}

	chain := make([]*x509.Certificate, chainLength)
	for i, b64 := range token.Header.X5C {
		der, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return rejected("chain certificate %d: %v", i, err)
		}
		cert, err := x509.ParseCertificate(der)
		if err != nil {
			return rejected("chain certificate %d: %v", i, err)
		}
		chain[i] = cert
	}
	leaf, intermediate, root := chain[0], chain[1], chain[2]

	rootDigest := sha256.Sum256(root.Raw)
	if !bytes.Equal(rootDigest[:], v.RootDigest[:]) {
		return rejected("root certificate does not match the pinned root")
	}

	if err := intermediate.CheckSignatureFrom(root); err != nil {
		return rejected("intermediate not signed by root: %v", err)
	}
	if err := leaf.CheckSignatureFrom(intermediate); err != nil {
		return rejected("leaf not signed by intermediate: %v", err)
	}

	now := time.Now()
	if v.Now != nil {
		now = v.Now()
	}
	if now.Before(root.NotBefore) || now.After(root.NotAfter) {
		return rejected("root certificate outside its validity window")
	}

	pub, ok := leaf.PublicKey.(*rsa.PublicKey)
	if !ok {
		return rejected("leaf key is %T, want RSA", leaf.PublicKey)
	}
	digest := sha256.Sum256(token.SigningInput)
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], token.Signature); err != nil {
		return rejected("token signature does not verify")
	}

	if v.Production && token.Payload.Dbgstat != debugDisabled {
		return rejected("enclave reports debug status %q", token.Payload.Dbgstat)
	}

	if len(token.Payload.EatNonce) != 2 {
		return rejected("eat_nonce carries %d keys, want 2", len(token.Payload.EatNonce))
	}

	return Result{
		Verified:    true,
		PublicKeys:  token.Payload.EatNonce,
		ImageDigest: token.Payload.Submods.Container.ImageDigest,
	}
}
