package x509cert

import (
	"encoding/asn1"
)

// Signature algorithm OIDs. The hash is part of the OID for everything but
// RSA-PSS, whose hash lives in the algorithm parameters.
var (
	oidSHA1WithRSA     = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 5}
	oidSHA224WithRSA   = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 14}
	oidSHA256WithRSA   = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 11}
	oidSHA384WithRSA   = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 12}
	oidSHA512WithRSA   = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 13}
	oidRSAPSS          = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 10}
	oidECDSAWithSHA1   = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 1}
	oidECDSAWithSHA224 = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 1}
	oidECDSAWithSHA256 = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 2}
	oidECDSAWithSHA384 = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 3}
	oidECDSAWithSHA512 = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 4}
)

// Public key algorithm OIDs.
var (
	oidPublicKeyRSA   = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 1}
	oidPublicKeyECDSA = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}
)

// Hash algorithm OIDs, used inside RSA-PSS parameters and CMS digest
// algorithm identifiers.
var (
	oidSHA1   = asn1.ObjectIdentifier{1, 3, 14, 3, 2, 26}
	oidSHA224 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 4}
	oidSHA256 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 1}
	oidSHA384 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 2}
	oidSHA512 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 3}
)

// Extension OIDs.
var (
	oidExtAuthorityKeyID = asn1.ObjectIdentifier{2, 5, 29, 35}
	oidExtSubjectKeyID   = asn1.ObjectIdentifier{2, 5, 29, 14}
)

// SignatureAlgorithmInfo names the family and hash behind a signature OID.
type SignatureAlgorithmInfo struct {
	Family SignatureFamily
	Hash   string // empty for RSA-PSS, resolved from parameters
}

// signatureAlgorithms maps a signature OID to its family and hash. Lookup
// failure is a ParseError: an unknown OID must never resolve to a default.
var signatureAlgorithms = map[string]SignatureAlgorithmInfo{
	oidSHA1WithRSA.String():     {FamilyRSA, "sha1"},
	oidSHA224WithRSA.String():   {FamilyRSA, "sha224"},
	oidSHA256WithRSA.String():   {FamilyRSA, "sha256"},
	oidSHA384WithRSA.String():   {FamilyRSA, "sha384"},
	oidSHA512WithRSA.String():   {FamilyRSA, "sha512"},
	oidRSAPSS.String():          {FamilyRSAPSS, ""},
	oidECDSAWithSHA1.String():   {FamilyECDSA, "sha1"},
	oidECDSAWithSHA224.String(): {FamilyECDSA, "sha224"},
	oidECDSAWithSHA256.String(): {FamilyECDSA, "sha256"},
	oidECDSAWithSHA384.String(): {FamilyECDSA, "sha384"},
	oidECDSAWithSHA512.String(): {FamilyECDSA, "sha512"},
}

// hashAlgorithms maps digest OIDs to hash names.
var hashAlgorithms = map[string]string{
	oidSHA1.String():   "sha1",
	oidSHA224.String(): "sha224",
	oidSHA256.String(): "sha256",
	oidSHA384.String(): "sha384",
	oidSHA512.String(): "sha512",
}

type curveInfo struct {
	Name string
	Bits int
}

// namedCurves maps named-curve OIDs to their canonical lowercase names and
// key sizes. Brainpool curves are listed even though crypto/x509 cannot
// parse their keys; the raw enricher handles those certificates.
var namedCurves = map[string]curveInfo{
	"1.2.840.10045.3.1.7": {"secp256r1", 256},
	"1.3.132.0.33":        {"secp224r1", 224},
	"1.3.132.0.34":        {"secp384r1", 384},
	"1.3.132.0.35":        {"secp521r1", 521},
	"1.3.36.3.3.2.8.1.1.7":  {"brainpoolP256r1", 256},
	"1.3.36.3.3.2.8.1.1.11": {"brainpoolP384r1", 384},
	"1.3.36.3.3.2.8.1.1.13": {"brainpoolP512r1", 512},
}

// LookupHash resolves a digest algorithm OID to a hash name.
func LookupHash(oid asn1.ObjectIdentifier) (string, bool) {
	h, ok := hashAlgorithms[oid.String()]
	return h, ok
}

// LookupSignatureAlgorithm resolves a signature algorithm OID.
func LookupSignatureAlgorithm(oid asn1.ObjectIdentifier) (SignatureAlgorithmInfo, bool) {
	info, ok := signatureAlgorithms[oid.String()]
	return info, ok
}

// oidDescriptions gives human-readable names for the dumper. Not a general
// OID registry: only what identity documents actually carry.
var oidDescriptions = map[string]string{
	oidSHA1WithRSA.String():     "sha1WithRSAEncryption",
	oidSHA224WithRSA.String():   "sha224WithRSAEncryption",
	oidSHA256WithRSA.String():   "sha256WithRSAEncryption",
	oidSHA384WithRSA.String():   "sha384WithRSAEncryption",
	oidSHA512WithRSA.String():   "sha512WithRSAEncryption",
	oidRSAPSS.String():          "rsassa-pss",
	oidECDSAWithSHA1.String():   "ecdsa-with-SHA1",
	oidECDSAWithSHA224.String(): "ecdsa-with-SHA224",
	oidECDSAWithSHA256.String(): "ecdsa-with-SHA256",
	oidECDSAWithSHA384.String(): "ecdsa-with-SHA384",
	oidECDSAWithSHA512.String(): "ecdsa-with-SHA512",
	oidPublicKeyRSA.String():    "rsaEncryption",
	oidPublicKeyECDSA.String():  "ecPublicKey",
	oidSHA1.String():            "sha1",
	oidSHA224.String():          "sha224",
	oidSHA256.String():          "sha256",
	oidSHA384.String():          "sha384",
	oidSHA512.String():          "sha512",
	oidExtAuthorityKeyID.String(): "authorityKeyIdentifier",
	oidExtSubjectKeyID.String():   "subjectKeyIdentifier",
	"1.2.840.113549.1.7.2":        "signedData",
	"1.2.840.113549.1.9.3":        "contentType",
	"1.2.840.113549.1.9.4":        "messageDigest",
	"1.2.840.113549.1.9.5":        "signingTime",
	"2.5.4.3":                     "commonName",
	"2.5.4.6":                     "countryName",
	"2.5.4.10":                    "organizationName",
	"2.5.4.11":                    "organizationalUnitName",
	"1.2.840.10045.3.1.7":         "secp256r1",
	"1.3.132.0.33":                "secp224r1",
	"1.3.132.0.34":                "secp384r1",
	"1.3.132.0.35":                "secp521r1",
	"1.3.36.3.3.2.8.1.1.7":        "brainpoolP256r1",
	"1.3.36.3.3.2.8.1.1.11":       "brainpoolP384r1",
	"1.3.36.3.3.2.8.1.1.13":       "brainpoolP512r1",
	"2.23.136.1.1.1":              "ldsSecurityObject",
}
