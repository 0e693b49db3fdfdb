package circuitinput

import (
	"fmt"
	"math/big"

	"github.com/veridoc/idproof/common"
	"github.com/veridoc/idproof/document"
	"github.com/veridoc/idproof/sigalg"
	"github.com/veridoc/idproof/x509cert"
)

// Attestation identifiers, one per document family. They are bound into the
// commitment, so a passport and an ID card with identical contents still
// commit to different values.
var (
	AttestationIDPassport = big.NewInt(1)
	AttestationIDIDCard   = big.NewInt(2)
	AttestationIDAadhaar  = big.NewInt(3)
)

// AttestationIDFor maps a document category to its attestation identifier.
func AttestationIDFor(category document.Category) (*big.Int, error) {
	switch category {
	case document.Passport:
		return AttestationIDPassport, nil
	case document.IDCard:
		return AttestationIDIDCard, nil
	default:
		return nil, fmt.Errorf("unknown document category %q", category)
	}
}

// Fixed byte layouts shared by the builders. DG1 sizes follow from the
// data-group TLV encoding of each zone format.
const (
	dg1PassportLen = 93 // TD3, 88-char zone
	dg1IDCardLen   = 95 // TD1, 90-char zone

	// SHA-padded content budgets, multiples of both 64 and 128 so either
	// hash family's block convention fits.
	maxEContentLen   = 768
	maxSignedAttrLen = 512
)

func dg1Length(category document.Category) (int, error) {
	switch category {
	case document.Passport:
		return dg1PassportLen, nil
	case document.IDCard:
		return dg1IDCardLen, nil
	default:
		return 0, fmt.Errorf("unknown document category %q", category)
	}
}

// signatureWords renders a signature into the word array layout of the named
// algorithm. ECDSA signatures contribute R's words followed by S's; RSA
// family signatures are one integer split whole.
func signatureWords(family x509cert.SignatureFamily, sig []byte, fullName string) ([]*big.Int, error) {
	if family == x509cert.FamilyECDSA {
		r, s, err := sigalg.ExtractRS(sig)
		if err != nil {
			return nil, err
		}
		rw, err := sigalg.SplitForAlgorithm(r, fullName)
		if err != nil {
			return nil, err
		}
		sw, err := sigalg.SplitForAlgorithm(s, fullName)
		if err != nil {
			return nil, err
		}
		return append(rw, sw...), nil
	}
	return sigalg.SplitForAlgorithm(common.BytesToBigInt(sig), fullName)
}

// publicKeyWords renders a subject public key into word arrays: X words then
// Y words for EC keys, the modulus for RSA keys.
func publicKeyWords(cert *x509cert.Certificate, fullName string) ([]*big.Int, error) {
	if cert.ECDSA != nil {
		xw, err := sigalg.SplitForAlgorithm(cert.ECDSA.X, fullName)
		if err != nil {
			return nil, err
		}
		yw, err := sigalg.SplitForAlgorithm(cert.ECDSA.Y, fullName)
		if err != nil {
			return nil, err
		}
		return append(xw, yw...), nil
	}
	if cert.RSA != nil {
		return sigalg.SplitForAlgorithm(cert.RSA.Modulus, fullName)
	}
	return nil, fmt.Errorf("certificate carries no usable public key")
}
