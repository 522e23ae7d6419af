package service

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/darwis-taxii/taxii-server/internal/adapter/outbound/memory"
	"github.com/darwis-taxii/taxii-server/internal/domain/auth"
)

func newTestAuthFixture(t *testing.T) (auth.AccountStore, *auth.ActivityLog, *memory.ActivityStore, *auth.TokenIssuer) {
	t.Helper()
	hash, err := auth.HashPassword("correct-horse")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	accounts := memory.NewAuthStore()
	if err := accounts.CreateAccount(t.Context(), &auth.Account{
		ID:           "acct-1",
		Username:     "analyst",
		PasswordHash: hash,
	}); err != nil {
		t.Fatalf("create account: %v", err)
	}
	activityStore := memory.NewActivityStore()
	tokens := auth.NewTokenIssuer([]byte("test-secret-test-secret"), time.Minute)
	return accounts, auth.NewActivityLog(activityStore), activityStore, tokens
}

func TestHandleHealth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/management/health", nil)
	rec := httptest.NewRecorder()
	handleHealth(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !body["alive"] {
		t.Fatal("expected alive=true")
	}
}

func TestHandleAuthSuccess(t *testing.T) {
	accounts, activityLog, activityStore, tokens := newTestAuthFixture(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := handleAuth(accounts, activityLog, tokens, logger)

	body, _ := json.Marshal(loginRequest{Username: "analyst", Password: "correct-horse"})
	req := httptest.NewRequest(http.MethodPost, "/management/auth", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected a non-empty token")
	}
	if accountID, err := tokens.Validate(resp.Token); err != nil || accountID != "acct-1" {
		t.Fatalf("token did not validate to acct-1: id=%q err=%v", accountID, err)
	}

	entries, err := activityStore.ListActivity(req.Context(), "acct-1", time.Time{})
	if err != nil || len(entries) != 1 || entries[0].EventType != auth.EventLoginSuccess {
		t.Fatalf("expected one success activity entry, got %+v (err=%v)", entries, err)
	}
}

func TestHandleAuthWrongPassword(t *testing.T) {
	accounts, activityLog, activityStore, tokens := newTestAuthFixture(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := handleAuth(accounts, activityLog, tokens, logger)

	body, _ := json.Marshal(loginRequest{Username: "analyst", Password: "wrong"})
	req := httptest.NewRequest(http.MethodPost, "/management/auth", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	entries, err := activityStore.ListActivity(req.Context(), "acct-1", time.Time{})
	if err != nil || len(entries) != 1 || entries[0].EventType != auth.EventLoginFailed {
		t.Fatalf("expected one failure activity entry, got %+v (err=%v)", entries, err)
	}
}

func TestHandleAuthUnknownUsername(t *testing.T) {
	accounts, activityLog, activityStore, tokens := newTestAuthFixture(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := handleAuth(accounts, activityLog, tokens, logger)

	body, _ := json.Marshal(loginRequest{Username: "nobody", Password: "whatever"})
	req := httptest.NewRequest(http.MethodPost, "/management/auth", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	active, err := activityStore.ListAccountIDsWithActivity(req.Context())
	if err != nil {
		t.Fatalf("list active accounts: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected no activity logged for an unknown username, got %v", active)
	}
}

func TestHandleAuthMissingFields(t *testing.T) {
	accounts, activityLog, _, tokens := newTestAuthFixture(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := handleAuth(accounts, activityLog, tokens, logger)

	req := httptest.NewRequest(http.MethodPost, "/management/auth", bytes.NewReader([]byte(`{"username":""}`)))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
