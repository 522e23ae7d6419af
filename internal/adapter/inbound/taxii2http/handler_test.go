package taxii2http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/darwis-taxii/taxii-server/internal/adapter/outbound/memory"
	"github.com/darwis-taxii/taxii-server/internal/domain/auth"
	"github.com/darwis-taxii/taxii-server/internal/domain/taxii2"
)

func newTestHandler(t *testing.T) (*Handler, *memory.Taxii2Store) {
	t.Helper()
	store := memory.NewTaxii2Store()
	store.SeedAPIRoot(taxii2.APIRoot{ID: "root1", Title: "Root", Default: true, IsPublic: true})
	store.SeedCollection(taxii2.Collection{ID: "col1", APIRootID: "root1", Title: "Collection", IsPublic: true, IsPublicWrite: true})

	accounts := memory.NewAuthStore()
	tokens := auth.NewTokenIssuer([]byte("test-secret"), time.Minute)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := New(store, accounts, tokens, Config{Title: "Test Server", PublicDiscovery: true, MaxContentLength: 1 << 20}, logger)
	return h, store
}

func TestHandleDiscovery(t *testing.T) {
	h, _ := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/taxii2/", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp discoveryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Default != "/taxii2/root1/" {
		t.Errorf("Default = %q, want /taxii2/root1/", resp.Default)
	}
}

func TestHandleDiscoveryRequiresAuthWhenNotPublic(t *testing.T) {
	h, _ := newTestHandler(t)
	h.cfg.PublicDiscovery = false
	req := httptest.NewRequest(http.MethodGet, "/taxii2/", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestHandleListCollections(t *testing.T) {
	h, _ := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/taxii2/root1/collections/", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string][]collectionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp["collections"]) != 1 || resp["collections"][0].ID != "col1" {
		t.Errorf("got %+v", resp)
	}
}

func TestHandleAddAndListObjects(t *testing.T) {
	h, store := newTestHandler(t)

	body := `{"type":"bundle","id":"bundle--9c6d6dd1-e4f4-4f6b-8e0c-111111111111","objects":[` +
		`{"type":"indicator","spec_version":"2.1","id":"indicator--9c6d6dd1-e4f4-4f6b-8e0c-222222222222",` +
		`"created":"2023-01-01T00:00:00.000Z","modified":"2023-01-01T00:00:00.000Z",` +
		`"pattern":"[ipv4-addr:value = '1.2.3.4']","pattern_type":"stix","indicator_types":["malicious-activity"],"valid_from":"2023-01-01T00:00:00.000Z"}` +
		`]}`
	req := httptest.NewRequest(http.MethodPost, "/taxii2/root1/collections/col1/objects/", strings.NewReader(body))
	req.Header.Set("Content-Type", mediaType)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}
	var job jobResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &job); err != nil {
		t.Fatalf("decode: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		j, _, err := store.GetJobAndDetails(req.Context(), "root1", job.ID)
		if err != nil {
			t.Fatalf("GetJobAndDetails: %v", err)
		}
		if j.Status == taxii2.JobComplete {
			break
		}
		time.Sleep(time.Millisecond)
	}

	listReq := httptest.NewRequest(http.MethodGet, "/taxii2/root1/collections/col1/objects/", nil)
	listRec := httptest.NewRecorder()
	h.Routes().ServeHTTP(listRec, listReq)
	if listRec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", listRec.Code, listRec.Body.String())
	}
	var envelope envelopeResponse
	if err := json.Unmarshal(listRec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Objects) != 1 {
		t.Fatalf("len(Objects) = %d, want 1", len(envelope.Objects))
	}
}

func TestHandleGetCollectionNotFound(t *testing.T) {
	h, _ := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/taxii2/root1/collections/missing/", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404: %s", rec.Code, rec.Body.String())
	}
}
