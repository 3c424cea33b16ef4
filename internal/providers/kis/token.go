package kis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kofin-ai/kofin/internal/infra"
	"github.com/kofin-ai/kofin/internal/provider"
	"github.com/kofin-ai/kofin/pkg/utils"
)

// validityMargin is how far from expiry a token must be to count as valid.
const validityMargin = 5 * time.Minute

// Token is the persisted bearer credential. The environment tag prevents a
// sandbox token from leaking into production use and vice versa.
type Token struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
	IssuedAt    time.Time `json:"issuedAt"`
	Environment string    `json:"environment"` // "prod" or "sandbox"
}

// Valid reports whether the token can still authenticate requests for env.
func (t *Token) Valid(env string, now time.Time) bool {
	if t == nil || t.AccessToken == "" || t.Environment != env {
		return false
	}
	return t.ExpiresAt.Sub(now) > validityMargin
}

// TokenManager owns the OAuth2 client-credentials lifecycle for one
// environment. The token file is shared between sibling processes with
// last-writer-wins semantics.
type TokenManager struct {
	mu        sync.Mutex
	appKey    string
	appSecret string
	env       string
	baseURL   string
	path      string
	tok       *Token
	log       *zap.Logger

	now func() time.Time // test seam
}

// NewTokenManager loads any cached token from disk, discarding it when the
// environment tag mismatches or it is no longer valid.
func NewTokenManager(appKey, appSecret, env, baseURL, stateDir string, logger *zap.Logger) *TokenManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &TokenManager{
		appKey:    appKey,
		appSecret: appSecret,
		env:       env,
		baseURL:   baseURL,
		path:      filepath.Join(stateDir, "kis-token.json"),
		log:       logger,
		now:       time.Now,
	}
	m.loadFromDisk()
	return m
}

// IsValid is the pure validity predicate over the in-memory token.
func (m *TokenManager) IsValid() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tok.Valid(m.env, m.now())
}

// GetToken returns a valid bearer string, refreshing when the cached token
// is absent or within the validity margin of expiry.
func (m *TokenManager) GetToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tok.Valid(m.env, m.now()) {
		return m.tok.AccessToken, nil
	}
	if err := m.refreshLocked(ctx); err != nil {
		return "", err
	}
	return m.tok.AccessToken, nil
}

// RefreshToken forces issuance of a new token.
func (m *TokenManager) RefreshToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.refreshLocked(ctx); err != nil {
		return "", err
	}
	return m.tok.AccessToken, nil
}

// tokenIssueBody is the upstream issuance response. access_token_token_expired
// is a wall-clock timestamp in provider-local (KST) format.
type tokenIssueBody struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	ExpiredAt   string `json:"access_token_token_expired"` // "2006-01-02 15:04:05"
}

// refreshLocked issues a new token. The upstream enforces at least a
// one-minute gap between issuances and answers violations with non-2xx,
// so failures tell the caller to back off. Must be called with mu held.
func (m *TokenManager) refreshLocked(ctx context.Context) error {
	reqBody, err := json.Marshal(map[string]string{
		"grant_type": "client_credentials",
		"appkey":     m.appKey,
		"appsecret":  m.appSecret,
	})
	if err != nil {
		return provider.NewError(provider.ParseError, ProviderName, "token request encode failed").WithCause(err)
	}

	// A non-2xx here is typically the upstream throttling issuance (it
	// enforces at least a one-minute gap); raw IO failures are plain
	// network trouble. Both surface as retryable NetworkError so callers
	// back off and retry rather than re-checking credentials.
	body, _, err := infra.DoPost(ctx, m.baseURL+"/oauth2/tokenP", reqBody,
		map[string]string{"content-type": "application/json; charset=utf-8"})
	if err != nil {
		var httpErr *infra.ErrHTTP
		if errors.As(err, &httpErr) {
			return provider.NewError(provider.NetworkError, ProviderName,
				fmt.Sprintf("token issuance refused (HTTP %d); wait at least a minute before retrying", httpErr.StatusCode)).
				WithRetryable(true).WithCause(err)
		}
		return provider.MapHTTPErr(ProviderName, err)
	}

	var issued tokenIssueBody
	if err := json.Unmarshal(body, &issued); err != nil {
		return provider.NewError(provider.ParseError, ProviderName, "token response malformed").WithCause(err)
	}
	if issued.AccessToken == "" {
		return provider.NewError(provider.AuthExpired, ProviderName, "token response carried no token")
	}

	now := m.now()
	expiresAt, perr := time.ParseInLocation("2006-01-02 15:04:05", issued.ExpiredAt, utils.KST)
	if perr != nil {
		// Fall back to the relative lifetime when the wall-clock form is absent.
		expiresAt = now.Add(time.Duration(issued.ExpiresIn) * time.Second)
	}

	m.tok = &Token{
		AccessToken: issued.AccessToken,
		TokenType:   issued.TokenType,
		ExpiresAt:   expiresAt,
		IssuedAt:    now,
		Environment: m.env,
	}
	m.persistLocked()
	m.log.Debug("token refreshed", zap.Time("expires_at", expiresAt))
	return nil
}

func (m *TokenManager) loadFromDisk() {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return
	}
	var tok Token
	if err := json.Unmarshal(data, &tok); err != nil {
		_ = os.Remove(m.path)
		return
	}
	if !tok.Valid(m.env, m.now()) {
		_ = os.Remove(m.path)
		return
	}
	m.tok = &tok
}

// persistLocked writes the token file; sibling processes race as
// last-writer-wins and both end up with a valid token.
func (m *TokenManager) persistLocked() {
	data, err := json.Marshal(m.tok)
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return
	}
	if err := os.WriteFile(m.path, data, 0o600); err != nil {
		m.log.Warn("token persist failed", zap.Error(err))
	}
}
