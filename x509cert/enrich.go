package x509cert

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/asn1"
	"fmt"
	"math/big"
)

// Enricher resolves the subject public key of a certificate being parsed.
//
// Two implementations exist because crypto/x509 rejects key types the
// document PKI still uses (brainpool curves in particular). The caller picks
// one explicitly; Parse never sniffs the runtime to decide.
type Enricher interface {
	Enrich(cert *Certificate, spki publicKeyInfoASN) error
}

// StdEnricher resolves keys through crypto/x509. It handles RSA and the
// NIST curves and is the default.
type StdEnricher struct{}

func (StdEnricher) Enrich(cert *Certificate, spki publicKeyInfoASN) error {
	pub, err := x509.ParsePKIXPublicKey(spki.Raw)
	if err != nil {
		// crypto/x509 cannot represent this key; the raw decoder can.
		return fmt.Errorf("%w: subject public key: %v", ErrParse, err)
	}
	switch k := pub.(type) {
	case *rsa.PublicKey:
		cert.RSA = &RSAPublicKey{
			Modulus:   k.N,
			Exponent:  k.E,
			BitLength: k.N.BitLen(),
		}
	case *ecdsa.PublicKey:
		oid, err := curveOID(spki)
		if err != nil {
			return err
		}
		info, ok := namedCurves[oid.String()]
		if !ok {
			return fmt.Errorf("%w: unknown named curve OID %s", ErrParse, oid)
		}
		cert.ECDSA = &ECDSAPublicKey{
			Curve:     info.Name,
			X:         k.X,
			Y:         k.Y,
			BitLength: info.Bits,
		}
	default:
		return fmt.Errorf("%w: unsupported public key type %T", ErrParse, pub)
	}
	return nil
}

// RawEnricher resolves keys from the SubjectPublicKeyInfo bytes alone, with
// no crypto/x509 involvement. It accepts every named curve in the registry,
// brainpool included, at the cost of not validating the point.
type RawEnricher struct{}

type rsaPublicKeyASN struct {
	Modulus  *big.Int
	Exponent int
}

func (RawEnricher) Enrich(cert *Certificate, spki publicKeyInfoASN) error {
	switch {
	case spki.Algorithm.Algorithm.Equal(oidPublicKeyRSA):
		var k rsaPublicKeyASN
		if _, err := asn1.Unmarshal(spki.PublicKey.RightAlign(), &k); err != nil {
			return fmt.Errorf("%w: rsa public key: %v", ErrParse, err)
		}
		cert.RSA = &RSAPublicKey{
			Modulus:   k.Modulus,
			Exponent:  k.Exponent,
			BitLength: k.Modulus.BitLen(),
		}
		return nil

	case spki.Algorithm.Algorithm.Equal(oidPublicKeyECDSA):
		oid, err := curveOID(spki)
		if err != nil {
			return err
		}
		info, ok := namedCurves[oid.String()]
		if !ok {
			return fmt.Errorf("%w: unknown named curve OID %s", ErrParse, oid)
		}
		point := spki.PublicKey.RightAlign()
		coord := (info.Bits + 7) / 8
		if len(point) != 1+2*coord || point[0] != 4 {
			return fmt.Errorf("%w: expected uncompressed EC point of %d bytes, got %d",
				ErrParse, 1+2*coord, len(point))
		}
		cert.ECDSA = &ECDSAPublicKey{
			Curve:     info.Name,
			X:         new(big.Int).SetBytes(point[1 : 1+coord]),
			Y:         new(big.Int).SetBytes(point[1+coord:]),
			BitLength: info.Bits,
		}
		return nil

	default:
		return fmt.Errorf("%w: unsupported public key algorithm OID %s",
			ErrParse, spki.Algorithm.Algorithm)
	}
}

func curveOID(spki publicKeyInfoASN) (asn1.ObjectIdentifier, error) {
	var oid asn1.ObjectIdentifier
	if _, err := asn1.Unmarshal(spki.Algorithm.Parameters.FullBytes, &oid); err != nil {
		return nil, fmt.Errorf("%w: EC parameters: %v", ErrParse, err)
	}
	return oid, nil
}
