// Package document models one physical identity document and the one-shot
// parse that decorates it with its cryptographic structure: the security
// object's signed content, signed attributes, signature and both
// certificates of the issuing chain.
package document

import (
	"bytes"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/veridoc/idproof/x509cert"
)

// ErrParse is wrapped by every malformed-document error.
var ErrParse = errors.New("malformed document")

// Category tags the physical document kind.
type Category string

const (
	Passport Category = "passport"
	IDCard   Category = "id_card"
)

// Metadata is filled by Parse and never touched again.
type Metadata struct {
	DG1HashAlgo        string
	EContentHashAlgo   string
	SignedAttrHashAlgo string
	SignatureAlgorithm string // full algorithm name, the WordSpec key
	IssuerCertHashAlgo string
	DG1HashOffset      int // offset of hash(DG1) inside the signed content
	EContentHashOffset int // offset of hash(signed content) inside the signed attributes
}

// Document is one passport or ID card. A raw Document carries only the
// category, zone text and security object; Parse decorates it once with
// metadata and parsed certificates.
type Document struct {
	Category Category
	MRZText  string
	DG1      []byte
	SOD      []byte // raw CMS SignedData blob

	EContent         []byte
	SignedAttributes []byte
	Signature        []byte

	SigningCertPEM string
	IssuerCertPEM  string // optional, empty when the chain ships separately

	Metadata    *Metadata
	SigningCert *x509cert.Certificate
	IssuerCert  *x509cert.Certificate

	parsed bool
}

// New builds a raw, unparsed document. issuerPEM may be empty.
func New(category Category, mrzText string, sod []byte, issuerPEM string) *Document {
	return &Document{
		Category:      category,
		MRZText:       mrzText,
		DG1:           BuildDG1(mrzText),
		SOD:           sod,
		IssuerCertPEM: issuerPEM,
	}
}

// BuildDG1 wraps the machine-readable zone in its data-group encoding, the
// exact byte form the document's digest covers.
func BuildDG1(mrzText string) []byte {
	inner := encodeTLV(0x5F1F, []byte(mrzText))
	return encodeTLV(0x61, inner)
}

func encodeTLV(tag int, value []byte) []byte {
	var out []byte
	if tag > 0xFF {
		out = append(out, byte(tag>>8), byte(tag))
	} else {
		out = append(out, byte(tag))
	}
	n := len(value)
	switch {
	case n < 0x80:
		out = append(out, byte(n))
	case n <= 0xFF:
		out = append(out, 0x81, byte(n))
	default:
		out = append(out, 0x82, byte(n>>8), byte(n))
	}
	return append(out, value...)
}

// Parse walks the security object once and fills in everything derived:
// signed content, signed attributes, signature, certificates and the hash
// metadata binding them together. Calling Parse twice is an error; a
// document is parsed exactly once and read-only afterwards.
func (d *Document) Parse() error {
	if d.parsed {
		return fmt.Errorf("%w: document already parsed", ErrParse)
	}

	sod, err := parseSOD(d.SOD)
	if err != nil {
		return err
	}

	d.EContent = sod.EContent
	d.SignedAttributes = sod.SignedAttributes
	d.Signature = sod.Signature

	dsc, err := x509cert.Parse(sod.SigningCertDER)
	if err != nil {
		return fmt.Errorf("%w: signing certificate: %v", ErrParse, err)
	}
	d.SigningCert = dsc
	d.SigningCertPEM = string(pem.EncodeToMemory(&pem.Block{
		Type: "CERTIFICATE", Bytes: sod.SigningCertDER,
	}))

	meta := &Metadata{
		EContentHashAlgo:   sod.DigestAlgo,
		SignedAttrHashAlgo: sod.SignatureHashAlgo,
	}

	// The digest of DG1 must appear verbatim inside the signed content,
	// and the digest of the signed content inside the signed attributes.
	// Finding them pins down the hash algorithms actually used.
	algo, offset, err := locateDigest(d.DG1, d.EContent)
	if err != nil {
		return fmt.Errorf("%w: digest of DG1 not present in signed content", ErrParse)
	}
	meta.DG1HashAlgo, meta.DG1HashOffset = algo, offset

	algo, offset, err = locateDigest(d.EContent, d.SignedAttributes)
	if err != nil {
		return fmt.Errorf("%w: digest of signed content not present in signed attributes", ErrParse)
	}
	meta.EContentHashAlgo, meta.EContentHashOffset = algo, offset

	fullName, err := documentSignatureName(dsc, sod, meta.SignedAttrHashAlgo)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrParse, err)
	}
	meta.SignatureAlgorithm = fullName

	if d.IssuerCertPEM != "" {
		issuer, err := x509cert.Parse([]byte(d.IssuerCertPEM))
		if err != nil {
			return fmt.Errorf("%w: issuer certificate: %v", ErrParse, err)
		}
		d.IssuerCert = issuer
		meta.IssuerCertHashAlgo = issuer.HashAlgorithm
	}

	d.Metadata = meta
	d.parsed = true
	return nil
}

// locateDigest hashes needle with each supported algorithm and searches for
// the digest inside haystack, returning the first algorithm that matches
// and the digest's byte offset.
func locateDigest(needle, haystack []byte) (string, int, error) {
	for _, algo := range []string{"sha256", "sha384", "sha512", "sha1", "sha224"} {
		digest, err := hashWith(algo, needle)
		if err != nil {
			return "", 0, err
		}
		if i := bytes.Index(haystack, digest); i >= 0 {
			return algo, i, nil
		}
	}
	return "", 0, fmt.Errorf("digest not found")
}
