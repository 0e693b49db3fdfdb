// Package sigalg names signature algorithms and converts their large
// integers into the fixed-count, fixed-width word arrays the proving
// circuits ingest.
package sigalg

import (
	"errors"
	"fmt"

	"github.com/veridoc/idproof/x509cert"
)

// ErrUnsupported is returned when an algorithm resolves to no word spec.
// Lookups fail closed: no entry, no default.
var ErrUnsupported = errors.New("unsupported signature type")

// WordSpec fixes how integers of one algorithm are split for the circuit:
// exactly K big-endian words of N bytes each.
type WordSpec struct {
	N int // word width in bytes
	K int // word count
}

// FullName builds the complete algorithm name used as the WordSpec key.
// ECDSA names carry the curve, RSA names the public exponent:
//
//	ecdsa_sha256_secp256r1_256
//	rsa_sha256_65537_2048
func FullName(cert *x509cert.Certificate, hashAlgo string) (string, error) {
	return NameFor(cert.SignatureFamily, hashAlgo, cert)
}

// NameFor builds the algorithm name for an explicit family, taking the key
// material from cert. Used where the signature family comes from somewhere
// other than the certificate itself, such as a CMS signerInfo.
func NameFor(family x509cert.SignatureFamily, hashAlgo string, cert *x509cert.Certificate) (string, error) {
	switch family {
	case x509cert.FamilyECDSA:
		if cert.ECDSA == nil {
			return "", fmt.Errorf("ecdsa certificate without EC public key")
		}
		return fmt.Sprintf("ecdsa_%s_%s_%d", hashAlgo, cert.ECDSA.Curve, cert.ECDSA.BitLength), nil
	case x509cert.FamilyRSA, x509cert.FamilyRSAPSS:
		if cert.RSA == nil {
			return "", fmt.Errorf("%s certificate without RSA public key", family)
		}
		return fmt.Sprintf("%s_%s_%d_%d",
			family, hashAlgo, cert.RSA.Exponent, cert.RSA.BitLength), nil
	default:
		return "", fmt.Errorf("unknown signature family %q", family)
	}
}

// Lookup resolves a full algorithm name to its word spec.
func Lookup(fullName string) (WordSpec, error) {
	spec, ok := wordSpecs[fullName]
	if !ok {
		return WordSpec{}, fmt.Errorf("%w: %s", ErrUnsupported, fullName)
	}
	return spec, nil
}

// Word layouts per algorithm.
//
// RSA moduli and signatures use 4-byte words (2048 bit -> 64 words,
// 4096 bit -> 128 words). ECDSA coordinates and signature halves use 8-byte
// words (secp256r1 -> 4 words). RSA-3072 keeps its historical 8-byte/48-word
// layout instead of the generic 4-byte formula; the deployed circuits were
// generated against that layout, so it must not be "fixed" here.
var (
	specRSA2048 = WordSpec{N: 4, K: 64}
	specRSA3072 = WordSpec{N: 8, K: 48}
	specRSA4096 = WordSpec{N: 4, K: 128}

	specEC224 = WordSpec{N: 8, K: 4}
	specEC256 = WordSpec{N: 8, K: 4}
	specEC384 = WordSpec{N: 8, K: 6}
	specEC512 = WordSpec{N: 8, K: 8}
	specEC521 = WordSpec{N: 8, K: 9}
)

// wordSpecs is the full dispatch table. Additions are data, not code: a new
// algorithm is one more line here, and anything absent is rejected by
// Lookup.
var wordSpecs = map[string]WordSpec{
	// RSA, e = 65537
	"rsa_sha1_65537_2048":   specRSA2048,
	"rsa_sha224_65537_2048": specRSA2048,
	"rsa_sha256_65537_2048": specRSA2048,
	"rsa_sha384_65537_2048": specRSA2048,
	"rsa_sha512_65537_2048": specRSA2048,
	"rsa_sha256_65537_3072": specRSA3072,
	"rsa_sha384_65537_3072": specRSA3072,
	"rsa_sha512_65537_3072": specRSA3072,
	"rsa_sha256_65537_4096": specRSA4096,
	"rsa_sha384_65537_4096": specRSA4096,
	"rsa_sha512_65537_4096": specRSA4096,

	// RSA, e = 3
	"rsa_sha1_3_2048":   specRSA2048,
	"rsa_sha256_3_2048": specRSA2048,
	"rsa_sha384_3_2048": specRSA2048,
	"rsa_sha256_3_3072": specRSA3072,
	"rsa_sha256_3_4096": specRSA4096,
	"rsa_sha512_3_4096": specRSA4096,

	// RSA-PSS, e = 65537
	"rsapss_sha1_65537_2048":   specRSA2048,
	"rsapss_sha256_65537_2048": specRSA2048,
	"rsapss_sha384_65537_2048": specRSA2048,
	"rsapss_sha512_65537_2048": specRSA2048,
	"rsapss_sha256_65537_3072": specRSA3072,
	"rsapss_sha384_65537_3072": specRSA3072,
	"rsapss_sha256_65537_4096": specRSA4096,
	"rsapss_sha512_65537_4096": specRSA4096,

	// RSA-PSS, e = 3
	"rsapss_sha256_3_2048": specRSA2048,
	"rsapss_sha256_3_3072": specRSA3072,
	"rsapss_sha256_3_4096": specRSA4096,

	// ECDSA, NIST curves
	"ecdsa_sha1_secp256r1_256":   specEC256,
	"ecdsa_sha224_secp224r1_224": specEC224,
	"ecdsa_sha224_secp256r1_256": specEC256,
	"ecdsa_sha256_secp256r1_256": specEC256,
	"ecdsa_sha384_secp256r1_256": specEC256,
	"ecdsa_sha512_secp256r1_256": specEC256,
	"ecdsa_sha256_secp384r1_384": specEC384,
	"ecdsa_sha384_secp384r1_384": specEC384,
	"ecdsa_sha512_secp384r1_384": specEC384,
	"ecdsa_sha512_secp521r1_521": specEC521,

	// ECDSA, brainpool curves
	"ecdsa_sha1_brainpoolP256r1_256":   specEC256,
	"ecdsa_sha224_brainpoolP256r1_256": specEC256,
	"ecdsa_sha256_brainpoolP256r1_256": specEC256,
	"ecdsa_sha384_brainpoolP256r1_256": specEC256,
	"ecdsa_sha512_brainpoolP256r1_256": specEC256,
	"ecdsa_sha256_brainpoolP384r1_384": specEC384,
	"ecdsa_sha384_brainpoolP384r1_384": specEC384,
	"ecdsa_sha512_brainpoolP384r1_384": specEC384,
	"ecdsa_sha384_brainpoolP512r1_512": specEC512,
	"ecdsa_sha512_brainpoolP512r1_512": specEC512,
}
