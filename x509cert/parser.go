package x509cert

import (
	"encoding/asn1"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"time"

	"crypto/x509/pkix"
)

// ErrParse is wrapped by every malformed-certificate error. Parsing is all
// or nothing: a certificate that cannot be fully decoded yields no record.
var ErrParse = errors.New("malformed certificate")

// SignatureFamily identifies the outer signature algorithm family.
type SignatureFamily string

const (
	FamilyRSA    SignatureFamily = "rsa"
	FamilyRSAPSS SignatureFamily = "rsapss"
	FamilyECDSA  SignatureFamily = "ecdsa"
)

// RSAPublicKey carries the raw modulus and exponent of an RSA subject key.
type RSAPublicKey struct {
	Modulus   *big.Int
	Exponent  int
	BitLength int
}

// ECDSAPublicKey carries the named curve and affine point of an EC subject key.
type ECDSAPublicKey struct {
	Curve     string
	X, Y      *big.Int
	BitLength int
}

// Certificate is the parsed, immutable record of one X.509 certificate.
// TBSBytes is the to-be-signed region verbatim as it appears on the wire;
// its hash, not a re-encoding, is what the issuer signed.
type Certificate struct {
	Raw      []byte
	TBSBytes []byte

	SerialNumber *big.Int
	Issuer       string
	Subject      string
	NotBefore    time.Time
	NotAfter     time.Time

	SignatureFamily SignatureFamily
	HashAlgorithm   string
	Signature       []byte

	RSA   *RSAPublicKey
	ECDSA *ECDSAPublicKey

	AuthorityKeyID []byte
	SubjectKeyID   []byte
}

// TBS byte budgets per signature family and key size. Certificates above
// budget are rejected outright, never truncated: the circuit arrays they
// feed have fixed sizes.
const (
	tbsBudgetSmall = 960  // ECDSA and RSA up to 2048 bit
	tbsBudgetLarge = 1664 // RSA/RSA-PSS 3072 and 4096 bit
)

// TBSBudget returns the fixed byte budget for the certificate's family.
func (c *Certificate) TBSBudget() int {
	if c.SignatureFamily == FamilyECDSA {
		return tbsBudgetSmall
	}
	if c.RSA != nil && c.RSA.BitLength > 2048 {
		return tbsBudgetLarge
	}
	return tbsBudgetSmall
}

// KeyBitLength returns the subject key size in bits.
func (c *Certificate) KeyBitLength() int {
	if c.RSA != nil {
		return c.RSA.BitLength
	}
	if c.ECDSA != nil {
		return c.ECDSA.BitLength
	}
	return 0
}

// Wire structures. Mirrors of the X.509 ASN.1 grammar with raw regions
// retained wherever verbatim bytes matter.

type certificateASN struct {
	TBS                asn1.RawValue
	SignatureAlgorithm pkix.AlgorithmIdentifier
	SignatureValue     asn1.BitString
}

type validityASN struct {
	NotBefore, NotAfter time.Time
}

type publicKeyInfoASN struct {
	Raw       asn1.RawContent
	Algorithm pkix.AlgorithmIdentifier
	PublicKey asn1.BitString
}

type tbsCertificateASN struct {
	Raw                asn1.RawContent
	Version            int `asn1:"optional,explicit,default:0,tag:0"`
	SerialNumber       *big.Int
	SignatureAlgorithm pkix.AlgorithmIdentifier
	Issuer             asn1.RawValue
	Validity           validityASN
	Subject            asn1.RawValue
	PublicKey          publicKeyInfoASN
	IssuerUniqueID     asn1.BitString   `asn1:"optional,tag:1"`
	SubjectUniqueID    asn1.BitString   `asn1:"optional,tag:2"`
	Extensions         []pkix.Extension `asn1:"optional,explicit,tag:3"`
}

type pssParametersASN struct {
	Hash         pkix.AlgorithmIdentifier `asn1:"optional,explicit,tag:0"`
	MGF          pkix.AlgorithmIdentifier `asn1:"optional,explicit,tag:1"`
	SaltLength   int                      `asn1:"optional,explicit,tag:2"`
	TrailerField int                      `asn1:"optional,explicit,tag:3,default:1"`
}

type authorityKeyIDASN struct {
	KeyID []byte `asn1:"optional,tag:0"`
}

// Parse decodes a PEM- or DER-encoded certificate into a Certificate record
// using the standard enricher. Callers on constrained runtimes that need the
// pure-ASN.1 key decoder should use ParseWith(data, RawEnricher{}).
func Parse(data []byte) (*Certificate, error) {
	return ParseWith(data, StdEnricher{})
}

// ParseWith decodes a certificate, resolving the subject public key with the
// given enricher.
func ParseWith(data []byte, e Enricher) (*Certificate, error) {
	der := data
	if block, _ := pem.Decode(data); block != nil {
		der = block.Bytes
	}

	var outer certificateASN
	rest, err := asn1.Unmarshal(der, &outer)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after certificate", ErrParse, len(rest))
	}

	var tbs tbsCertificateASN
	if _, err := asn1.Unmarshal(outer.TBS.FullBytes, &tbs); err != nil {
		return nil, fmt.Errorf("%w: tbsCertificate: %v", ErrParse, err)
	}

	algInfo, ok := signatureAlgorithms[outer.SignatureAlgorithm.Algorithm.String()]
	if !ok {
		return nil, fmt.Errorf("%w: unknown signature algorithm OID %s",
			ErrParse, outer.SignatureAlgorithm.Algorithm)
	}
	hashAlgo := algInfo.Hash
	if algInfo.Family == FamilyRSAPSS {
		hashAlgo, err = pssHash(outer.SignatureAlgorithm.Parameters)
		if err != nil {
			return nil, err
		}
	}

	cert := &Certificate{
		Raw:             der,
		TBSBytes:        outer.TBS.FullBytes,
		SerialNumber:    tbs.SerialNumber,
		Issuer:          nameString(tbs.Issuer),
		Subject:         nameString(tbs.Subject),
		NotBefore:       tbs.Validity.NotBefore,
		NotAfter:        tbs.Validity.NotAfter,
		SignatureFamily: algInfo.Family,
		HashAlgorithm:   hashAlgo,
		Signature:       outer.SignatureValue.RightAlign(),
	}

	for _, ext := range tbs.Extensions {
		switch {
		case ext.Id.Equal(oidExtAuthorityKeyID):
			var aki authorityKeyIDASN
			if _, err := asn1.Unmarshal(ext.Value, &aki); err == nil {
				cert.AuthorityKeyID = aki.KeyID
			}
		case ext.Id.Equal(oidExtSubjectKeyID):
			var ski []byte
			if _, err := asn1.Unmarshal(ext.Value, &ski); err == nil {
				cert.SubjectKeyID = ski
			}
		}
	}

	if err := e.Enrich(cert, tbs.PublicKey); err != nil {
		return nil, err
	}

	if len(cert.TBSBytes) > cert.TBSBudget() {
		return nil, fmt.Errorf("%w: tbsCertificate is %d bytes, budget for this family is %d",
			ErrParse, len(cert.TBSBytes), cert.TBSBudget())
	}

	return cert, nil
}

// PSSHashFromParameters resolves the hash of an RSASSA-PSS algorithm
// identifier from its parameters, defaulting to sha1 as the RFC does.
func PSSHashFromParameters(params asn1.RawValue) (string, error) {
	return pssHash(params)
}

func pssHash(params asn1.RawValue) (string, error) {
	if len(params.FullBytes) == 0 {
		return "sha1", nil // RSASSA-PSS-params defaults
	}
	var pss pssParametersASN
	if _, err := asn1.Unmarshal(params.FullBytes, &pss); err != nil {
		return "", fmt.Errorf("%w: rsassa-pss parameters: %v", ErrParse, err)
	}
	if len(pss.Hash.Algorithm) == 0 {
		return "sha1", nil
	}
	h, ok := LookupHash(pss.Hash.Algorithm)
	if !ok {
		return "", fmt.Errorf("%w: unknown rsassa-pss hash OID %s", ErrParse, pss.Hash.Algorithm)
	}
	return h, nil
}

func nameString(raw asn1.RawValue) string {
	var rdn pkix.RDNSequence
	if _, err := asn1.Unmarshal(raw.FullBytes, &rdn); err != nil {
		return ""
	}
	return rdn.String()
}
