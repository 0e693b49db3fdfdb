package circuitinput

import (
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/veridoc/idproof/commitment"
	"github.com/veridoc/idproof/common"
	"github.com/veridoc/idproof/document"
	"github.com/veridoc/idproof/imt"
	"github.com/veridoc/idproof/mrz"
	"github.com/veridoc/idproof/smt"
)

// SMTProofInputs is the circuit rendering of one screening-list proof.
type SMTProofInputs struct {
	Root        string   `json:"root"`
	ClosestLeaf string   `json:"closest_leaf"`
	Siblings    []string `json:"siblings"`
	LeafDepth   string   `json:"leaf_depth"`
}

// DiscloseInputs is the selective-disclosure proof vector.
type DiscloseInputs struct {
	Secret        string   `json:"secret"`
	AttestationID string   `json:"attestation_id"`
	DG1           []string `json:"dg1"`
	Selector      []string `json:"selector_dg1"`

	MerkleRoot      string   `json:"merkle_root"`
	MerkleLeafDepth string   `json:"merkle_leaf_depth"`
	MerkleSiblings  []string `json:"merkle_siblings"`
	MerklePath      []string `json:"merkle_path"`

	PassportNoProof SMTProofInputs `json:"passport_no_smt"`
	NameDobProof    SMTProofInputs `json:"name_dob_smt"`
	NameYobProof    SMTProofInputs `json:"name_yob_smt"`

	Scope          string   `json:"scope"`
	UserIdentifier string   `json:"user_identifier"`
	CurrentDate    []string `json:"current_date"`

	ForbiddenCountries []string `json:"forbidden_countries_list_packed"`
}

// DiscloseParams collects everything a disclosure vector is assembled from.
// The trees are externally supplied snapshots, read-only here.
type DiscloseParams struct {
	Doc    *document.Document
	Secret *big.Int

	CommitmentTree *imt.Tree
	MaxTreeDepth   int

	PassportNoTree *smt.Tree
	NameDobTree    *smt.Tree
	NameYobTree    *smt.Tree

	// Selector holds one 0/1 flag per zone character; 1 reveals the byte.
	Selector []int

	Endpoint        string
	Scope           string
	UserContextData []byte

	Now time.Time

	ForbiddenCountries []string
	Countries          *CountryTable
}

// BuildDisclose assembles the selective-disclosure vector: the registered
// commitment's inclusion proof, the three screening-list proofs keyed from
// the zone fields, and the disclosure controls.
func BuildDisclose(p DiscloseParams) (*DiscloseInputs, error) {
	if p.Doc.Metadata == nil {
		return nil, fmt.Errorf("document not parsed")
	}
	if p.Doc.IssuerCert == nil {
		return nil, fmt.Errorf("document carries no issuer certificate")
	}
	meta := p.Doc.Metadata

	attestationID, err := AttestationIDFor(p.Doc.Category)
	if err != nil {
		return nil, err
	}

	zone, err := mrz.Parse(p.Doc.MRZText)
	if err != nil {
		return nil, err
	}
	if len(p.Selector) != len(zone.Text()) {
		return nil, fmt.Errorf("selector has %d entries, zone has %d characters",
			len(p.Selector), len(zone.Text()))
	}
	for i, b := range p.Selector {
		if b != 0 && b != 1 {
			return nil, fmt.Errorf("selector entry %d is %d, want 0 or 1", i, b)
		}
	}

	dg1Len, err := dg1Length(p.Doc.Category)
	if err != nil {
		return nil, err
	}
	dg1, err := common.PadBytes(p.Doc.DG1, dg1Len)
	if err != nil {
		return nil, fmt.Errorf("%w: dg1: %v", ErrPayloadTooLarge, err)
	}

	leaf, err := commitment.Commit(commitment.Params{
		Secret:        p.Secret,
		AttestationID: attestationID,
		DG1:           p.Doc.DG1,
		DG1HashAlgo:   meta.DG1HashAlgo,
		EContent:      p.Doc.EContent,
		EContentAlgo:  meta.EContentHashAlgo,
		DSC:           p.Doc.SigningCert,
		CSCA:          p.Doc.IssuerCert,
	})
	if err != nil {
		return nil, err
	}
	proof, err := p.CommitmentTree.ProofForLeaf(leaf, p.MaxTreeDepth)
	if err != nil {
		return nil, err
	}

	passportNoProof, err := screeningProof(p.PassportNoTree, zone, mrz.DocumentNumber, mrz.Nationality)
	if err != nil {
		return nil, err
	}
	nameDobProof, err := screeningProof(p.NameDobTree, zone, mrz.Name, mrz.BirthDate)
	if err != nil {
		return nil, err
	}
	nameYobProof, err := nameYearProof(p.NameYobTree, zone)
	if err != nil {
		return nil, err
	}

	scope, err := commitment.ScopeHash(p.Endpoint, p.Scope)
	if err != nil {
		return nil, err
	}
	userID := commitment.UserIdentifier(p.UserContextData)

	packed, err := p.Countries.PackForbiddenCountries(p.ForbiddenCountries)
	if err != nil {
		return nil, err
	}

	return &DiscloseInputs{
		Secret:        p.Secret.String(),
		AttestationID: attestationID.String(),
		DG1:           common.BytesToDecimalStrings(dg1),
		Selector:      pathStrings(p.Selector),

		MerkleRoot:      p.CommitmentTree.Root().String(),
		MerkleLeafDepth: strconv.Itoa(proof.LeafDepth),
		MerkleSiblings:  common.ToDecimalStrings(proof.Siblings),
		MerklePath:      pathStrings(proof.Path),

		PassportNoProof: passportNoProof,
		NameDobProof:    nameDobProof,
		NameYobProof:    nameYobProof,

		Scope:          scope.String(),
		UserIdentifier: userID.String(),
		CurrentDate:    dateDigits(p.Now),

		ForbiddenCountries: common.ToDecimalStrings(packed),
	}, nil
}

// screeningKey folds the concatenated field bytes into the screening tree's
// key space: packed into field elements, poseidon hashed.
func screeningKey(parts ...[]byte) (*big.Int, error) {
	var joined []byte
	for _, p := range parts {
		joined = append(joined, p...)
	}
	h, err := commitment.Hash(common.PackBytes(joined, 31))
	if err != nil {
		return nil, err
	}
	return h, nil
}

func screeningProof(tree *smt.Tree, zone *mrz.Zone, fields ...mrz.Field) (SMTProofInputs, error) {
	parts := make([][]byte, 0, len(fields))
	for _, f := range fields {
		b, err := zone.Field(f)
		if err != nil {
			return SMTProofInputs{}, err
		}
		parts = append(parts, b)
	}
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

// nameYearProof keys on the holder name plus the two birth-year digits only,
// the coarser screening list used when full dates are unreliable.
func nameYearProof(tree *smt.Tree, zone *mrz.Zone) (SMTProofInputs, error) {
	name, err := zone.Field(mrz.Name)
	if err != nil {
		return SMTProofInputs{}, err
	}
	birth, err := zone.Field(mrz.BirthDate)
	if err != nil {
		return SMTProofInputs{}, err
	}
	key, err := screeningKey(name, birth[:2])
	if err != nil {
		return SMTProofInputs{}, err
	}
	proof, err := tree.GenerateProof(key)
	if err != nil {
		return SMTProofInputs{}, err
	}
	return renderSMTProof(proof), nil
}

func renderSMTProof(p *smt.Proof) SMTProofInputs {
	return SMTProofInputs{
		Root:        p.Root.String(),
		ClosestLeaf: p.ClosestLeaf.String(),
		Siblings:    common.ToDecimalStrings(p.Siblings),
		LeafDepth:   strconv.Itoa(p.LeafDepth),
	}
}

// dateDigits renders a date as six decimal digits, YYMMDD.
func dateDigits(t time.Time) []string {
	s := t.UTC().Format("060102")
	out := make([]string, len(s))
	for i := range s {
		out[i] = string(s[i])
	}
	return out
}
