package document

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/asn1"
	"fmt"
	"hash"

	"crypto/x509/pkix"

	"github.com/veridoc/idproof/sigalg"
	"github.com/veridoc/idproof/x509cert"
)

// CMS SignedData wire structures, RFC 5652 shapes with raw regions kept
// where the verbatim bytes feed hashing.

var (
	oidSignedData = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 2}
	oidRSAPSS     = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 10}
)

type contentInfoASN struct {
	ContentType asn1.ObjectIdentifier
	Content     asn1.RawValue `asn1:"explicit,optional,tag:0"`
}

type encapContentInfoASN struct {
	EContentType asn1.ObjectIdentifier
	EContent     []byte `asn1:"explicit,optional,tag:0"`
}

type signerInfoASN struct {
	Version            int
	SID                asn1.RawValue
	DigestAlgorithm    pkix.AlgorithmIdentifier
	SignedAttrs        asn1.RawValue `asn1:"optional,tag:0"`
	SignatureAlgorithm pkix.AlgorithmIdentifier
	Signature          []byte
	UnsignedAttrs      asn1.RawValue `asn1:"optional,tag:1"`
}

type signedDataASN struct {
	Version          int
	DigestAlgorithms []pkix.AlgorithmIdentifier `asn1:"set"`
	EncapContentInfo encapContentInfoASN
	Certificates     asn1.RawValue `asn1:"optional,tag:0"`
	CRLs             asn1.RawValue `asn1:"optional,tag:1"`
	SignerInfos      []signerInfoASN `asn1:"set"`
}

// parsedSOD is the flattened result of one CMS walk.
type parsedSOD struct {
	EContent          []byte
	SignedAttributes  []byte // SET re-tagged, the exact bytes the signature covers
	Signature         []byte
	SigningCertDER    []byte
	DigestAlgo        string
	SignatureHashAlgo string
	SignatureFamily   x509cert.SignatureFamily
}

func parseSOD(blob []byte) (*parsedSOD, error) {
	var ci contentInfoASN
	if _, err := asn1.Unmarshal(blob, &ci); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if !ci.ContentType.Equal(oidSignedData) {
		return nil, fmt.Errorf("%w: content type %s is not signedData", ErrParse, ci.ContentType)
	}

	var sd signedDataASN
	if _, err := asn1.Unmarshal(ci.Content.Bytes, &sd); err != nil {
		return nil, fmt.Errorf("%w: signedData: %v", ErrParse, err)
	}
	if len(sd.SignerInfos) != 1 {
		return nil, fmt.Errorf("%w: expected one signerInfo, found %d", ErrParse, len(sd.SignerInfos))
	}
	si := sd.SignerInfos[0]

	if len(si.SignedAttrs.FullBytes) == 0 {
		return nil, fmt.Errorf("%w: signerInfo carries no signed attributes", ErrParse)
	}
	// The attributes are tagged [0] IMPLICIT on the wire but signed as an
	// explicit SET: re-tag the first byte before hashing.
	signedAttrs := make([]byte, len(si.SignedAttrs.FullBytes))
	copy(signedAttrs, si.SignedAttrs.FullBytes)
	signedAttrs[0] = 0x31

	digestAlgo, ok := x509cert.LookupHash(si.DigestAlgorithm.Algorithm)
	if !ok {
		return nil, fmt.Errorf("%w: unknown digest algorithm OID %s", ErrParse, si.DigestAlgorithm.Algorithm)
	}

	sigHashAlgo, family, err := signatureAlgorithmOf(si)
	if err != nil {
		return nil, err
	}

	certDER, err := firstCertificate(sd.Certificates)
	if err != nil {
		return nil, err
	}

	return &parsedSOD{
		EContent:          sd.EncapContentInfo.EContent,
		SignedAttributes:  signedAttrs,
		Signature:         si.Signature,
		SigningCertDER:    certDER,
		DigestAlgo:        digestAlgo,
		SignatureHashAlgo: sigHashAlgo,
		SignatureFamily:   family,
	}, nil
}

// signatureAlgorithmOf resolves the signerInfo's signature algorithm into a
// hash name and family. Some issuers put the bare key algorithm OID here
// and rely on digestAlgorithm for the hash, so that is the fallback.
func signatureAlgorithmOf(si signerInfoASN) (string, x509cert.SignatureFamily, error) {
	oid := si.SignatureAlgorithm.Algorithm
	if info, ok := x509cert.LookupSignatureAlgorithm(oid); ok {
		h := info.Hash
		if h == "" { // RSA-PSS, hash in parameters
			var err error
			h, err = x509cert.PSSHashFromParameters(si.SignatureAlgorithm.Parameters)
			if err != nil {
				return "", "", fmt.Errorf("%w: %v", ErrParse, err)
			}
		}
		return h, info.Family, nil
	}

	digest, ok := x509cert.LookupHash(si.DigestAlgorithm.Algorithm)
	if !ok {
		return "", "", fmt.Errorf("%w: unknown signature algorithm OID %s", ErrParse, oid)
	}
	switch {
	case oid.Equal(asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 1}): // rsaEncryption
		return digest, x509cert.FamilyRSA, nil
	case oid.Equal(oidRSAPSS):
		return digest, x509cert.FamilyRSAPSS, nil
	case oid.Equal(asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}): // ecPublicKey
		return digest, x509cert.FamilyECDSA, nil
	}
	return "", "", fmt.Errorf("%w: unknown signature algorithm OID %s", ErrParse, oid)
}

// firstCertificate peels the first certificate out of the [0] IMPLICIT
// certificate set.
func firstCertificate(raw asn1.RawValue) ([]byte, error) {
	if len(raw.Bytes) == 0 {
		return nil, fmt.Errorf("%w: signedData carries no certificates", ErrParse)
	}
	var cert asn1.RawValue
	if _, err := asn1.Unmarshal(raw.Bytes, &cert); err != nil {
		return nil, fmt.Errorf("%w: embedded certificate: %v", ErrParse, err)
	}
	return cert.FullBytes, nil
}

// documentSignatureName composes the full algorithm name of the document
// signature: the family comes from the signerInfo, the key from the signing
// certificate.
func documentSignatureName(dsc *x509cert.Certificate, sod *parsedSOD, hashAlgo string) (string, error) {
	return sigalg.NameFor(sod.SignatureFamily, hashAlgo, dsc)
}

func hashWith(algo string, data []byte) ([]byte, error) {
	var h hash.Hash
	switch algo {
	case "sha1":
		h = sha1.New()
	case "sha224":
		h = sha256.New224()
	case "sha256":
		h = sha256.New()
	case "sha384":
		h = sha512.New384()
	case "sha512":
		h = sha512.New()
	default:
		return nil, fmt.Errorf("unknown hash algorithm %q", algo)
	}
	h.Write(data)
	return h.Sum(nil), nil
}
