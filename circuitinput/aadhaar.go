package circuitinput

import (
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/veridoc/idproof/aadhaar"
	"github.com/veridoc/idproof/commitment"
	"github.com/veridoc/idproof/common"
	"github.com/veridoc/idproof/imt"
	"github.com/veridoc/idproof/sigalg"
	"github.com/veridoc/idproof/smt"
	"github.com/veridoc/idproof/x509cert"
)

// Revealed-data layout for QR-carried documents. The 119-byte buffer plays
// the role DG1 plays for zone-carried documents; selectors index into it
// byte by byte.
const (
	aadhaarDataLen = 119

	aadhaarGenderIdx  = 0
	aadhaarDOBStart   = 1 // DDMMYYYY
	aadhaarDOBLen     = 8
	aadhaarNameStart  = 9
	aadhaarNameLen    = 62
	aadhaarIDStart    = 71 // last four digits of the Aadhaar number
	aadhaarIDLen      = 4
	aadhaarStateStart = 81
	aadhaarStateLen   = 31
)

// aadhaarHashAlgo is fixed by the secure-QR format: the trailing signature
// is RSA over SHA-256 of everything before it.
const aadhaarHashAlgo = "sha256"

// AadhaarDiscloseInputs is the selective-disclosure vector for a QR-carried
// document.
type AadhaarDiscloseInputs struct {
	Secret        string   `json:"secret"`
	AttestationID string   `json:"attestation_id"`
	QRData        []string `json:"qr_data"`
	Selector      []string `json:"selector_qr_data"`

	Nullifier string   `json:"nullifier"`
	Signature []string `json:"signature"`
	PubKey    []string `json:"pubkey"`

	MerkleRoot      string   `json:"merkle_root"`
	MerkleLeafDepth string   `json:"merkle_leaf_depth"`
	MerkleSiblings  []string `json:"merkle_siblings"`
	MerklePath      []string `json:"merkle_path"`

	NameDobProof SMTProofInputs `json:"name_dob_smt"`
	NameYobProof SMTProofInputs `json:"name_yob_smt"`

	Scope          string   `json:"scope"`
	UserIdentifier string   `json:"user_identifier"`
	CurrentDate    []string `json:"current_date"`

	ForbiddenCountries []string `json:"forbidden_countries_list_packed"`
}

// AadhaarDiscloseParams collects everything an Aadhaar disclosure vector is
// assembled from. SignerCert is the issuing authority's certificate whose
// key produced the trailing QR signature.
type AadhaarDiscloseParams struct {
	Doc        *aadhaar.Document
	SignerCert *x509cert.Certificate
	Secret     *big.Int

	CommitmentTree *imt.Tree
	MaxTreeDepth   int

	NameDobTree *smt.Tree
	NameYobTree *smt.Tree

	// Selector holds one 0/1 flag per revealed-data byte; 1 reveals it.
	Selector []int

	Endpoint        string
	Scope           string
	UserContextData []byte

	Now time.Time

	ForbiddenCountries []string
	Countries          *CountryTable
}

// BuildAadhaarDisclose assembles the disclosure vector for a parsed QR
// document: the registered commitment's inclusion proof, the two
// screening-list proofs keyed from the QR fields, the issuer signature
// words, and the disclosure controls. There is no certificate chain and no
// document-number screening list in this flow.
func BuildAadhaarDisclose(p AadhaarDiscloseParams) (*AadhaarDiscloseInputs, error) {
	if len(p.Selector) != aadhaarDataLen {
		return nil, fmt.Errorf("selector has %d entries, revealed data has %d bytes",
			len(p.Selector), aadhaarDataLen)
	}
	for i, b := range p.Selector {
		if b != 0 && b != 1 {
			return nil, fmt.Errorf("selector entry %d is %d, want 0 or 1", i, b)
		}
	}

	data, err := packAadhaarData(p.Doc)
	if err != nil {
		return nil, err
	}

	fullName, err := sigalg.NameFor(p.SignerCert.SignatureFamily, aadhaarHashAlgo, p.SignerCert)
	if err != nil {
		return nil, err
	}
	sigWords, err := signatureWords(p.SignerCert.SignatureFamily, p.Doc.Signature, fullName)
	if err != nil {
		return nil, err
	}
	keyWords, err := publicKeyWords(p.SignerCert, fullName)
	if err != nil {
		return nil, err
	}

	nullifier, err := commitment.Nullifier(aadhaarHashAlgo, p.Doc.SignedPayload)
	if err != nil {
		return nil, err
	}
	leaf, err := commitment.CommitQR(p.Secret, AttestationIDAadhaar, data)
	if err != nil {
		return nil, err
	}
	proof, err := p.CommitmentTree.ProofForLeaf(leaf, p.MaxTreeDepth)
	if err != nil {
		return nil, err
	}

	name := []byte(p.Doc.Name)
	dob := aadhaarDOBDigits(p.Doc.DOB)
	nameDobProof, err := aadhaarScreeningProof(p.NameDobTree, name, dob)
	if err != nil {
		return nil, err
	}
	nameYobProof, err := aadhaarScreeningProof(p.NameYobTree, name, dob[:2])
	if err != nil {
		return nil, err
	}

	scope, err := commitment.ScopeHash(p.Endpoint, p.Scope)
	if err != nil {
		return nil, err
	}

	packed, err := p.Countries.PackForbiddenCountries(p.ForbiddenCountries)
	if err != nil {
		return nil, err
	}

	return &AadhaarDiscloseInputs{
		Secret:        p.Secret.String(),
		AttestationID: AttestationIDAadhaar.String(),
		QRData:        common.BytesToDecimalStrings(data),
		Selector:      pathStrings(p.Selector),

		Nullifier: nullifier.String(),
		Signature: common.ToDecimalStrings(sigWords),
		PubKey:    common.ToDecimalStrings(keyWords),

		MerkleRoot:      p.CommitmentTree.Root().String(),
		MerkleLeafDepth: strconv.Itoa(proof.LeafDepth),
		MerkleSiblings:  common.ToDecimalStrings(proof.Siblings),
		MerklePath:      pathStrings(proof.Path),

		NameDobProof: nameDobProof,
		NameYobProof: nameYobProof,

		Scope:          scope.String(),
		UserIdentifier: commitment.UserIdentifier(p.UserContextData).String(),
		CurrentDate:    dateDigits(p.Now),

		ForbiddenCountries: common.ToDecimalStrings(packed),
	}, nil
}

// packAadhaarData lays the extracted QR fields into the fixed revealed-data
// buffer. Unused regions stay zero.
func packAadhaarData(doc *aadhaar.Document) ([]byte, error) {
	if doc.Gender == "" {
		return nil, fmt.Errorf("%w: document carries no gender field", aadhaar.ErrFormat)
	}
	if len(doc.Name) > aadhaarNameLen {
		return nil, fmt.Errorf("%w: name of %d bytes exceeds %d",
			ErrPayloadTooLarge, len(doc.Name), aadhaarNameLen)
	}
	if len(doc.LastFourDigits) != aadhaarIDLen {
		return nil, fmt.Errorf("%w: id suffix %q, want %d digits",
			aadhaar.ErrFormat, doc.LastFourDigits, aadhaarIDLen)
	}
	state := doc.State
	if len(state) > aadhaarStateLen {
		state = state[:aadhaarStateLen]
	}

	data := make([]byte, aadhaarDataLen)
	data[aadhaarGenderIdx] = doc.Gender[0]
	copy(data[aadhaarDOBStart:], fmt.Sprintf("%02d%02d%04d", doc.DOB.Day, doc.DOB.Month, doc.DOB.Year))
	copy(data[aadhaarNameStart:], doc.Name)
	copy(data[aadhaarIDStart:], doc.LastFourDigits)
	copy(data[aadhaarStateStart:], state)
	return data, nil
}

// aadhaarDOBDigits renders a birth date as YYMMDD, the digit order the
// screening-list keys use for every document kind.
func aadhaarDOBDigits(d aadhaar.Date) []byte {
	return []byte(fmt.Sprintf("%02d%02d%02d", d.Year%100, d.Month, d.Day))
}

func aadhaarScreeningProof(tree *smt.Tree, parts ...[]byte) (SMTProofInputs, error) {
	key, err := screeningKey(parts...)
	if err != nil {
		return SMTProofInputs{}, err
	}
	proof, err := tree.GenerateProof(key)
	if err != nil {
		return SMTProofInputs{}, err
	}
	return renderSMTProof(proof), nil
}
