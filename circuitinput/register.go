package circuitinput

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/veridoc/idproof/commitment"
	"github.com/veridoc/idproof/common"
	"github.com/veridoc/idproof/document"
	"github.com/veridoc/idproof/imt"
)

// RegisterInputs is the document-registration proof vector. Every field is a
// decimal string or an array of decimal strings with the exact length the
// circuit declares.
type RegisterInputs struct {
	DG1           []string `json:"dg1"`
	DG1HashOffset string   `json:"dg1_hash_offset"`

	EContent           []string `json:"econtent"`
	EContentPaddedLen  string   `json:"econtent_padded_length"`
	EContentHashOffset string   `json:"econtent_hash_offset"`

	SignedAttr          []string `json:"signed_attr"`
	SignedAttrPaddedLen string   `json:"signed_attr_padded_length"`

	Signature []string `json:"signature"`
	PubKey    []string `json:"pubkey"`

	Secret        string `json:"secret"`
	AttestationID string `json:"attestation_id"`

	MerkleRoot      string   `json:"merkle_root"`
	MerkleLeafDepth string   `json:"merkle_leaf_depth"`
	MerkleSiblings  []string `json:"merkle_siblings"`
	MerklePath      []string `json:"merkle_path"`
}

// BuildRegister assembles the registration vector for a parsed document. The
// certificate registry snapshot must already contain the document's
// certificate-pair leaf; absence means the signing chain was never
// registered and surfaces as imt.ErrNotFound.
func BuildRegister(doc *document.Document, secret *big.Int, certTree *imt.Tree, maxTreeDepth int) (*RegisterInputs, error) {
	if doc.Metadata == nil {
		return nil, fmt.Errorf("document not parsed")
	}
	if doc.IssuerCert == nil {
		return nil, fmt.Errorf("document carries no issuer certificate")
	}
	meta := doc.Metadata

	attestationID, err := AttestationIDFor(doc.Category)
	if err != nil {
		return nil, err
	}

	dg1Len, err := dg1Length(doc.Category)
	if err != nil {
		return nil, err
	}
	dg1, err := common.PadBytes(doc.DG1, dg1Len)
	if err != nil {
		return nil, fmt.Errorf("%w: dg1: %v", ErrPayloadTooLarge, err)
	}

	econtent, econtentLen, err := ShaPad(meta.EContentHashAlgo, doc.EContent, maxEContentLen)
	if err != nil {
		return nil, fmt.Errorf("signed content: %w", err)
	}
	signedAttr, signedAttrLen, err := ShaPad(meta.SignedAttrHashAlgo, doc.SignedAttributes, maxSignedAttrLen)
	if err != nil {
		return nil, fmt.Errorf("signed attributes: %w", err)
	}

	sigWords, err := signatureWords(doc.SigningCert.SignatureFamily, doc.Signature, meta.SignatureAlgorithm)
	if err != nil {
		return nil, err
	}
	keyWords, err := publicKeyWords(doc.SigningCert, meta.SignatureAlgorithm)
	if err != nil {
		return nil, err
	}

	leaf, err := commitment.CertLeaf(doc.SigningCert, doc.IssuerCert)
	if err != nil {
		return nil, err
	}
	proof, err := certTree.ProofForLeaf(leaf, maxTreeDepth)
	if err != nil {
		return nil, err
	}

	return &RegisterInputs{
		DG1:           common.BytesToDecimalStrings(dg1),
		DG1HashOffset: strconv.Itoa(meta.DG1HashOffset),

		EContent:           common.BytesToDecimalStrings(econtent),
		EContentPaddedLen:  strconv.Itoa(econtentLen),
		EContentHashOffset: strconv.Itoa(meta.EContentHashOffset),

		SignedAttr:          common.BytesToDecimalStrings(signedAttr),
		SignedAttrPaddedLen: strconv.Itoa(signedAttrLen),

		Signature: common.ToDecimalStrings(sigWords),
		PubKey:    common.ToDecimalStrings(keyWords),

		Secret:        secret.String(),
		AttestationID: attestationID.String(),

		MerkleRoot:      certTree.Root().String(),
		MerkleLeafDepth: strconv.Itoa(proof.LeafDepth),
		MerkleSiblings:  common.ToDecimalStrings(proof.Siblings),
		MerklePath:      pathStrings(proof.Path),
	}, nil
}

func pathStrings(path []int) []string {
	out := make([]string, len(path))
	for i, b := range path {
		out[i] = strconv.Itoa(b)
	}
	return out
}
