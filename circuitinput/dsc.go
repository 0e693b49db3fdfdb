package circuitinput

import (
	"fmt"
	"strconv"

	"github.com/veridoc/idproof/commitment"
	"github.com/veridoc/idproof/common"
	"github.com/veridoc/idproof/imt"
	"github.com/veridoc/idproof/sigalg"
	"github.com/veridoc/idproof/x509cert"
)

// DSCInputs is the certificate-chain proof vector: the document signing
// certificate's signed region, the authority key that signed it, and the
// authority's inclusion in the root-of-trust registry.
type DSCInputs struct {
	RawDSC          []string `json:"raw_dsc"`
	RawDSCPaddedLen string   `json:"raw_dsc_padded_length"`

	Signature []string `json:"signature"`
	CSCAKey   []string `json:"csca_pubkey"`

	MerkleRoot      string   `json:"merkle_root"`
	MerkleLeafDepth string   `json:"merkle_leaf_depth"`
	MerkleSiblings  []string `json:"merkle_siblings"`
	MerklePath      []string `json:"merkle_path"`
}

// BuildDSC assembles the certificate-chain vector proving that dsc was
// signed by csca and that csca sits in the root-of-trust registry snapshot.
func BuildDSC(dsc, csca *x509cert.Certificate, cscaTree *imt.Tree, maxTreeDepth int) (*DSCInputs, error) {
	// The signature over the DSC was produced with the CSCA's key, so the
	// word layout is keyed by the DSC's signature algorithm and the CSCA's
	// key material.
	fullName, err := sigalg.NameFor(dsc.SignatureFamily, dsc.HashAlgorithm, csca)
	if err != nil {
		return nil, err
	}

	rawDSC, rawLen, err := ShaPad(dsc.HashAlgorithm, dsc.TBSBytes, dsc.TBSBudget())
	if err != nil {
		return nil, fmt.Errorf("dsc: %w", err)
	}

	sigWords, err := signatureWords(dsc.SignatureFamily, dsc.Signature, fullName)
	if err != nil {
		return nil, err
	}
	keyWords, err := publicKeyWords(csca, fullName)
	if err != nil {
		return nil, err
	}

	leaf, err := commitment.AuthorityLeaf(csca)
	if err != nil {
		return nil, err
	}
	proof, err := cscaTree.ProofForLeaf(leaf, maxTreeDepth)
	if err != nil {
		return nil, err
	}

	return &DSCInputs{
		RawDSC:          common.BytesToDecimalStrings(rawDSC),
		RawDSCPaddedLen: strconv.Itoa(rawLen),

		Signature: common.ToDecimalStrings(sigWords),
		CSCAKey:   common.ToDecimalStrings(keyWords),

		MerkleRoot:      cscaTree.Root().String(),
		MerkleLeafDepth: strconv.Itoa(proof.LeafDepth),
		MerkleSiblings:  common.ToDecimalStrings(proof.Siblings),
		MerklePath:      pathStrings(proof.Path),
	}, nil
}
