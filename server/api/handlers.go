package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/veridoc/idproof/aadhaar"
	"github.com/veridoc/idproof/attestation"
	"github.com/veridoc/idproof/circuitinput"
	"github.com/veridoc/idproof/document"
	"github.com/veridoc/idproof/imt"
	"github.com/veridoc/idproof/sigalg"
	"github.com/veridoc/idproof/x509cert"
)

// Server handles HTTP requests for proof-input assembly and attestation
// validation.
type Server struct {
	registry  *TreeRegistry
	validator *attestation.Validator
	countries *circuitinput.CountryTable
	maxDepth  int
}

// NewServer creates a new HTTP server around a tree registry.
func NewServer(registry *TreeRegistry, validator *attestation.Validator, maxDepth int) *Server {
	return &Server{
		registry:  registry,
		validator: validator,
		countries: circuitinput.NewCountryTable(),
		maxDepth:  maxDepth,
	}
}

// ==== Request/Response Types ====

// DocumentRequest carries one raw identity document.
type DocumentRequest struct {
	Category  string `json:"category"` // "passport" or "id_card"
	MRZ       string `json:"mrz"`
	SOD       string `json:"sod"` // base64 CMS SignedData
	IssuerPEM string `json:"issuer_pem"`
}

// RegisterInputsRequest asks for a document-registration input vector.
type RegisterInputsRequest struct {
	Document DocumentRequest `json:"document"`
	Secret   string          `json:"secret"` // decimal field element
	Tree     string          `json:"tree"`   // dense tree holding certificate leaves
}

// DSCInputsRequest asks for a certificate-chain input vector.
type DSCInputsRequest struct {
	DSCPEM  string `json:"dsc_pem"`
	CSCAPEM string `json:"csca_pem"`
	Tree    string `json:"tree"` // dense root-of-trust tree
}

// DiscloseInputsRequest asks for a selective-disclosure input vector.
type DiscloseInputsRequest struct {
	Document DocumentRequest `json:"document"`
	Secret   string          `json:"secret"`

	CommitmentTree string `json:"commitment_tree"`
	PassportNoTree string `json:"passport_no_tree"`
	NameDobTree    string `json:"name_dob_tree"`
	NameYobTree    string `json:"name_yob_tree"`

	Selector           []int    `json:"selector"`
	Endpoint           string   `json:"endpoint"`
	Scope              string   `json:"scope"`
	UserContextData    string   `json:"user_context_data"` // base64
	ForbiddenCountries []string `json:"forbidden_countries"`
}

// AadhaarInputsRequest asks for a QR-document disclosure input vector.
type AadhaarInputsRequest struct {
	QR        string `json:"qr"` // scanned decimal payload
	SignerPEM string `json:"signer_pem"`
	Secret    string `json:"secret"`

	CommitmentTree string `json:"commitment_tree"`
	NameDobTree    string `json:"name_dob_tree"`
	NameYobTree    string `json:"name_yob_tree"`

	Selector           []int    `json:"selector"`
	Endpoint           string   `json:"endpoint"`
	Scope              string   `json:"scope"`
	UserContextData    string   `json:"user_context_data"` // base64
	ForbiddenCountries []string `json:"forbidden_countries"`
}

// AttestationRequest carries one raw attestation token.
type AttestationRequest struct {
	Token string `json:"token"`
}

// AttestationResponse mirrors attestation.Result.
type AttestationResponse struct {
	Verified    bool     `json:"verified"`
	PublicKeys  []string `json:"public_keys,omitempty"`
	ImageDigest string   `json:"image_digest,omitempty"`
	Reason      string   `json:"reason,omitempty"`
}

// TreeListResponse lists the loaded registry snapshots.
type TreeListResponse struct {
	Trees []TreeInfo `json:"trees"`
	Count int        `json:"count"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string    `json:"error"`
	Code      string    `json:"code,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ==== Handlers ====

// HandleHealth handles health check requests
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// HandleListTrees lists all loaded tree snapshots.
func (s *Server) HandleListTrees(w http.ResponseWriter, r *http.Request) {
	trees := s.registry.List()
	respondJSON(w, http.StatusOK, TreeListResponse{Trees: trees, Count: len(trees)})
}

// HandleImportTree installs a snapshot under /trees/{kind}/{name}. The body
// is the serialized snapshot, imported verbatim.
func (s *Server) HandleImportTree(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	name := chi.URLParam(r, "name")

	data, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "failed to read body")
		return
	}

	switch kind {
	case "dense":
		err = s.registry.ImportDense(name, data)
	case "sparse":
		err = s.registry.ImportSparse(name, data)
	default:
		respondError(w, http.StatusNotFound, "unknown_kind",
			fmt.Sprintf("tree kind %q, want dense or sparse", kind))
		return
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_snapshot", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"name": name, "kind": kind})
}

// HandleRegisterInputs assembles a document-registration input vector.
func (s *Server) HandleRegisterInputs(w http.ResponseWriter, r *http.Request) {
	var req RegisterInputsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	doc, secret, ok := s.parseDocument(w, req.Document, req.Secret)
	if !ok {
		return
	}
	tree, err := s.registry.Dense(req.Tree)
	if err != nil {
		respondError(w, http.StatusNotFound, "tree_not_found", err.Error())
		return
	}

	inputs, err := circuitinput.BuildRegister(doc, secret, tree, s.maxDepth)
	if err != nil {
		s.respondBuildError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, inputs)
}

// HandleDSCInputs assembles a certificate-chain input vector.
func (s *Server) HandleDSCInputs(w http.ResponseWriter, r *http.Request) {
	var req DSCInputsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	dsc, err := x509cert.Parse([]byte(req.DSCPEM))
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_certificate", err.Error())
		return
	}
	csca, err := x509cert.Parse([]byte(req.CSCAPEM))
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_certificate", err.Error())
		return
	}
	tree, err := s.registry.Dense(req.Tree)
	if err != nil {
		respondError(w, http.StatusNotFound, "tree_not_found", err.Error())
		return
	}

	inputs, err := circuitinput.BuildDSC(dsc, csca, tree, s.maxDepth)
	if err != nil {
		s.respondBuildError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, inputs)
}

// HandleDiscloseInputs assembles a selective-disclosure input vector.
func (s *Server) HandleDiscloseInputs(w http.ResponseWriter, r *http.Request) {
	var req DiscloseInputsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	doc, secret, ok := s.parseDocument(w, req.Document, req.Secret)
	if !ok {
		return
	}
	commitmentTree, err := s.registry.Dense(req.CommitmentTree)
	if err != nil {
		respondError(w, http.StatusNotFound, "tree_not_found", err.Error())
		return
	}
	passportNo, err := s.registry.Sparse(req.PassportNoTree)
	if err != nil {
		respondError(w, http.StatusNotFound, "tree_not_found", err.Error())
		return
	}
	nameDob, err := s.registry.Sparse(req.NameDobTree)
	if err != nil {
		respondError(w, http.StatusNotFound, "tree_not_found", err.Error())
		return
	}
	nameYob, err := s.registry.Sparse(req.NameYobTree)
	if err != nil {
		respondError(w, http.StatusNotFound, "tree_not_found", err.Error())
		return
	}
	userContext, err := base64.StdEncoding.DecodeString(req.UserContextData)
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "user_context_data is not base64")
		return
	}

	inputs, err := circuitinput.BuildDisclose(circuitinput.DiscloseParams{
		Doc:                doc,
		Secret:             secret,
		CommitmentTree:     commitmentTree,
		MaxTreeDepth:       s.maxDepth,
		PassportNoTree:     passportNo,
		NameDobTree:        nameDob,
		NameYobTree:        nameYob,
		Selector:           req.Selector,
		Endpoint:           req.Endpoint,
		Scope:              req.Scope,
		UserContextData:    userContext,
		Now:                time.Now(),
		ForbiddenCountries: req.ForbiddenCountries,
		Countries:          s.countries,
	})
	if err != nil {
		s.respondBuildError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, inputs)
}

// HandleAadhaarInputs assembles a QR-document disclosure input vector.
func (s *Server) HandleAadhaarInputs(w http.ResponseWriter, r *http.Request) {
	var req AadhaarInputsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	doc, err := aadhaar.ParseQR([]byte(req.QR))
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_document", err.Error())
		return
	}
	signer, err := x509cert.Parse([]byte(req.SignerPEM))
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_certificate", err.Error())
		return
	}
	secret, ok := new(big.Int).SetString(req.Secret, 10)
	if !ok {
		respondError(w, http.StatusBadRequest, "bad_request", "secret is not a decimal integer")
		return
	}
	commitmentTree, err := s.registry.Dense(req.CommitmentTree)
	if err != nil {
		respondError(w, http.StatusNotFound, "tree_not_found", err.Error())
		return
	}
	nameDob, err := s.registry.Sparse(req.NameDobTree)
	if err != nil {
		respondError(w, http.StatusNotFound, "tree_not_found", err.Error())
		return
	}
	nameYob, err := s.registry.Sparse(req.NameYobTree)
	if err != nil {
		respondError(w, http.StatusNotFound, "tree_not_found", err.Error())
		return
	}
	userContext, err := base64.StdEncoding.DecodeString(req.UserContextData)
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "user_context_data is not base64")
		return
	}

	inputs, err := circuitinput.BuildAadhaarDisclose(circuitinput.AadhaarDiscloseParams{
		Doc:                doc,
		SignerCert:         signer,
		Secret:             secret,
		CommitmentTree:     commitmentTree,
		MaxTreeDepth:       s.maxDepth,
		NameDobTree:        nameDob,
		NameYobTree:        nameYob,
		Selector:           req.Selector,
		Endpoint:           req.Endpoint,
		Scope:              req.Scope,
		UserContextData:    userContext,
		Now:                time.Now(),
		ForbiddenCountries: req.ForbiddenCountries,
		Countries:          s.countries,
	})
	if err != nil {
		s.respondBuildError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, inputs)
}

// HandleVerifyAttestation validates an attestation token. Rejection is a 200
// with verified=false; the caller branches, not the transport.
func (s *Server) HandleVerifyAttestation(w http.ResponseWriter, r *http.Request) {
	var req AttestationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	res := s.validator.Verify(req.Token)
	respondJSON(w, http.StatusOK, AttestationResponse{
		Verified:    res.Verified,
		PublicKeys:  res.PublicKeys,
		ImageDigest: res.ImageDigest,
		Reason:      res.Reason,
	})
}

// ==== Helpers ====

func (s *Server) parseDocument(w http.ResponseWriter, req DocumentRequest, secretStr string) (*document.Document, *big.Int, bool) {
	var category document.Category
	switch req.Category {
	case string(document.Passport):
		category = document.Passport
	case string(document.IDCard):
		category = document.IDCard
	default:
		respondError(w, http.StatusBadRequest, "bad_request",
			fmt.Sprintf("unknown document category %q", req.Category))
		return nil, nil, false
	}

	sod, err := base64.StdEncoding.DecodeString(req.SOD)
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "sod is not base64")
		return nil, nil, false
	}
	secret, ok := new(big.Int).SetString(secretStr, 10)
	if !ok {
		respondError(w, http.StatusBadRequest, "bad_request", "secret is not a decimal integer")
		return nil, nil, false
	}

	doc := document.New(category, req.MRZ, sod, req.IssuerPEM)
	if err := doc.Parse(); err != nil {
		respondError(w, http.StatusBadRequest, "bad_document", err.Error())
		return nil, nil, false
	}
	return doc, secret, true
}

func (s *Server) respondBuildError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, imt.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_registered", err.Error())
	case errors.Is(err, sigalg.ErrUnsupported):
		respondError(w, http.StatusUnprocessableEntity, "unsupported_algorithm", err.Error())
	case errors.Is(err, circuitinput.ErrPayloadTooLarge):
		respondError(w, http.StatusUnprocessableEntity, "payload_too_large", err.Error())
	default:
		respondError(w, http.StatusBadRequest, "bad_request", err.Error())
	}
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:     message,
		Code:      code,
		Timestamp: time.Now(),
	})
}
