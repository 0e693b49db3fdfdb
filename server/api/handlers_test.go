package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/veridoc/idproof/attestation"
)

func newTestRouter(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	s := NewServer(NewTreeRegistry(), &attestation.Validator{}, 33)
	r := chi.NewRouter()
	r.Get("/health", s.HandleHealth)
	r.Get("/trees", s.HandleListTrees)
	r.Post("/trees/{kind}/{name}", s.HandleImportTree)
	r.Post("/inputs/register", s.HandleRegisterInputs)
	r.Post("/inputs/dsc", s.HandleDSCInputs)
	r.Post("/inputs/aadhaar", s.HandleAadhaarInputs)
	r.Post("/attestation/verify", s.HandleVerifyAttestation)
	return s, r
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	_, r := newTestRouter(t)
	rec := doJSON(t, r, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "healthy" {
		t.Fatalf("status field: %q", body["status"])
	}
}

func TestHandleImportAndListTrees(t *testing.T) {
	_, r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/trees/dense/commitments",
		bytes.NewReader(denseSnapshot(t, 10, 20)))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("import status %d: %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, r, http.MethodGet, "/trees", nil)
	var list TreeListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if list.Count != 1 || list.Trees[0].Name != "commitments" || list.Trees[0].Kind != "dense" {
		t.Fatalf("list: %+v", list)
	}
	if list.Trees[0].Size != 2 {
		t.Fatalf("size: %d", list.Trees[0].Size)
	}
}

func TestHandleImportTreeUnknownKind(t *testing.T) {
	_, r := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/trees/ternary/x", strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", rec.Code)
	}
	var errResp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatal(err)
	}
	if errResp.Code != "unknown_kind" {
		t.Fatalf("code: %q", errResp.Code)
	}
}

func TestHandleImportTreeBadSnapshot(t *testing.T) {
	_, r := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/trees/dense/x", strings.NewReader("junk"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestHandleRegisterInputsMissingTree(t *testing.T) {
	_, r := newTestRouter(t)
	rec := doJSON(t, r, http.MethodPost, "/inputs/register", RegisterInputsRequest{
		Document: DocumentRequest{Category: "passport", MRZ: "x", SOD: "AAAA"},
		Secret:   "1",
		Tree:     "missing",
	})
	// The document fails to parse before the tree lookup runs.
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestHandleRegisterInputsBadRequests(t *testing.T) {
	_, r := newTestRouter(t)

	tests := []struct {
		name string
		req  RegisterInputsRequest
		code string
	}{
		{
			"unknown category",
			RegisterInputsRequest{Document: DocumentRequest{Category: "visa"}, Secret: "1"},
			"bad_request",
		},
		{
			"sod not base64",
			RegisterInputsRequest{Document: DocumentRequest{Category: "passport", SOD: "!!"}, Secret: "1"},
			"bad_request",
		},
		{
			"secret not decimal",
			RegisterInputsRequest{Document: DocumentRequest{Category: "passport", SOD: "AAAA"}, Secret: "0x12"},
			"bad_request",
		},
	}
	for _, tt := range tests {
		rec := doJSON(t, r, http.MethodPost, "/inputs/register", tt.req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d, want 400", tt.name, rec.Code)
			continue
		}
		var errResp ErrorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
			t.Fatal(err)
		}
		if errResp.Code != tt.code {
			t.Errorf("%s: code %q, want %q", tt.name, errResp.Code, tt.code)
		}
	}
}

func TestHandleDSCInputsBadCertificate(t *testing.T) {
	_, r := newTestRouter(t)
	rec := doJSON(t, r, http.MethodPost, "/inputs/dsc", DSCInputsRequest{
		DSCPEM: "not a certificate", CSCAPEM: "also not", Tree: "roots",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
	var errResp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatal(err)
	}
	if errResp.Code != "bad_certificate" {
		t.Fatalf("code: %q", errResp.Code)
	}
}

func TestHandleAadhaarInputsBadDocument(t *testing.T) {
	_, r := newTestRouter(t)
	rec := doJSON(t, r, http.MethodPost, "/inputs/aadhaar", AadhaarInputsRequest{
		QR: "not a decimal payload", Secret: "1",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
	var errResp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatal(err)
	}
	if errResp.Code != "bad_document" {
		t.Fatalf("code: %q", errResp.Code)
	}
}

func TestHandleVerifyAttestationRejection(t *testing.T) {
	_, r := newTestRouter(t)
	rec := doJSON(t, r, http.MethodPost, "/attestation/verify", AttestationRequest{Token: "aa.bb.cc"})

	// Trust rejection is still a 200, carried in the verified flag.
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	var resp AttestationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Verified {
		t.Fatal("garbage token verified")
	}
	if resp.Reason == "" {
		t.Fatal("rejection carries no reason")
	}
}

func TestHandleVerifyAttestationBadJSON(t *testing.T) {
	_, r := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/attestation/verify", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}
