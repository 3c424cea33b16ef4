package kis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kofin-ai/kofin/internal/provider"
)

func TestTokenValidPredicate(t *testing.T) {
	now := time.Now()
	tok := &Token{
		AccessToken: "abc",
		ExpiresAt:   now.Add(time.Hour),
		Environment: EnvProd,
	}

	if !tok.Valid(EnvProd, now) {
		t.Error("expected valid token")
	}
	if tok.Valid(EnvSandbox, now) {
		t.Error("environment mismatch must invalidate")
	}
	// Inside the five-minute margin counts as absent.
	if tok.Valid(EnvProd, now.Add(56*time.Minute)) {
		t.Error("token within the validity margin must be invalid")
	}
	var nilTok *Token
	if nilTok.Valid(EnvProd, now) {
		t.Error("nil token must be invalid")
	}
	if (&Token{Environment: EnvProd, ExpiresAt: now.Add(time.Hour)}).Valid(EnvProd, now) {
		t.Error("empty bearer must be invalid")
	}
}

func TestTokenManagerLoadsPersistedToken(t *testing.T) {
	dir := t.TempDir()
	tok := Token{
		AccessToken: "persisted",
		ExpiresAt:   time.Now().Add(time.Hour),
		IssuedAt:    time.Now(),
		Environment: EnvProd,
	}
	data, _ := json.Marshal(tok)
	if err := os.WriteFile(filepath.Join(dir, "kis-token.json"), data, 0o600); err != nil {
		t.Fatal(err)
	}

	m := NewTokenManager("k", "s", EnvProd, "http://unused", dir, nil)
	if !m.IsValid() {
		t.Fatal("expected persisted token accepted")
	}
	got, err := m.GetToken(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != "persisted" {
		t.Errorf("token = %q", got)
	}
}

func TestTokenManagerRejectsWrongEnvironment(t *testing.T) {
	dir := t.TempDir()
	tok := Token{
		AccessToken: "sandbox-token",
		ExpiresAt:   time.Now().Add(time.Hour),
		Environment: EnvSandbox,
	}
	data, _ := json.Marshal(tok)
	path := filepath.Join(dir, "kis-token.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	m := NewTokenManager("k", "s", EnvProd, "http://unused", dir, nil)
	if m.IsValid() {
		t.Error("sandbox token must not satisfy a production manager")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("mismatched token file should have been discarded")
	}
}

func TestTokenRefreshIssuesAndPersists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth2/tokenP" || r.Method != http.MethodPost {
			t.Errorf("unexpected issuance call %s %s", r.Method, r.URL.Path)
		}
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["grant_type"] != "client_credentials" || req["appkey"] != "k" || req["appsecret"] != "s" {
			t.Errorf("issuance body = %v", req)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":               "fresh-bearer",
			"token_type":                 "Bearer",
			"expires_in":                 86400,
			"access_token_token_expired": time.Now().Add(24 * time.Hour).Format("2006-01-02 15:04:05"),
		})
	}))
	defer srv.Close()

	dir := t.TempDir()
	m := NewTokenManager("k", "s", EnvProd, srv.URL, dir, nil)
	if m.IsValid() {
		t.Fatal("no token should exist yet")
	}

	got, err := m.GetToken(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != "fresh-bearer" {
		t.Errorf("token = %q", got)
	}
	if !m.IsValid() {
		t.Error("manager should hold a valid token after refresh")
	}

	// The file on disk carries the new bearer and the environment tag.
	data, err := os.ReadFile(filepath.Join(dir, "kis-token.json"))
	if err != nil {
		t.Fatal(err)
	}
	var persisted Token
	if err := json.Unmarshal(data, &persisted); err != nil {
		t.Fatal(err)
	}
	if persisted.AccessToken != "fresh-bearer" || persisted.Environment != EnvProd {
		t.Errorf("persisted = %+v", persisted)
	}
}

func TestTokenRefreshHTTPFailureIsRetryableNetworkError(t *testing.T) {
	for _, status := range []int{http.StatusForbidden, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			w.Write([]byte(`{"error_code":"EGW00133","error_description":"접근토큰 발급 잠시 후 다시 시도하세요"}`))
		}))

		m := NewTokenManager("k", "s", EnvProd, srv.URL, t.TempDir(), nil)
		_, err := m.GetToken(context.Background())
		srv.Close()

		if provider.KindOf(err) != provider.NetworkError {
			t.Errorf("HTTP %d kind = %s, want network_error", status, provider.KindOf(err))
		}
		if !provider.IsRetryable(err) {
			t.Errorf("HTTP %d issuance failure must be retryable (back off and retry)", status)
		}
	}
}

func TestTokenRefreshNetworkFailureIsRetryable(t *testing.T) {
	// A server that is already gone exercises the raw dial-failure path.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	m := NewTokenManager("k", "s", EnvProd, srv.URL, t.TempDir(), nil)
	_, err := m.GetToken(context.Background())

	if provider.KindOf(err) != provider.NetworkError {
		t.Fatalf("kind = %s, want network_error", provider.KindOf(err))
	}
	if !provider.IsRetryable(err) {
		t.Error("raw network failure must be retryable")
	}
}

func TestTokenRefreshEmptyToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"access_token": ""})
	}))
	defer srv.Close()

	m := NewTokenManager("k", "s", EnvProd, srv.URL, t.TempDir(), nil)
	if _, err := m.GetToken(context.Background()); err == nil {
		t.Fatal("expected error for empty token body")
	}
}
