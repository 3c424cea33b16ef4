// Package kis implements the Korea Investment & Securities quotes client.
// KIS authenticates with an OAuth2 client-credentials bearer plus app key,
// app secret, and a per-endpoint tr_id routing header. Two base URLs exist
// for the production and sandbox environments.
//
// Docs: https://apiportal.koreainvestment.com
package kis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kofin-ai/kofin/internal/infra"
	"github.com/kofin-ai/kofin/internal/provider"
)

const (
	ProviderName = "kis"

	prodBaseURL    = "https://openapi.koreainvestment.com:9443"
	sandboxBaseURL = "https://openapivts.koreainvestment.com:29443"

	EnvProd    = "prod"
	EnvSandbox = "sandbox"
)

// rateLimitMsgCd is the per-call message code signalling throttling.
const rateLimitMsgCd = "EGW00201"

// defaultTokenSentinels are the HTTP 500 body substrings the gateway uses
// for token-lifecycle failures. A 500 carrying one of these is treated as
// a 401 for refresh-and-retry purposes.
var defaultTokenSentinels = []string{"EGW00121", "EGW00122", "EGW00123"}

var _ provider.Client = (*Client)(nil)

// Client is the KIS quotes adapter. One per process.
type Client struct {
	*provider.Base
	appKey         string
	appSecret      string
	env            string
	base           string
	tokens         *TokenManager
	tokenSentinels []string
}

// New creates the KIS client for the given environment (EnvProd or
// EnvSandbox).
func New(appKey, appSecret, env, stateDir string, logger *zap.Logger) (*Client, error) {
	b, err := provider.NewBase(ProviderName, infra.DefaultLimits[ProviderName], stateDir, logger)
	if err != nil {
		return nil, err
	}
	base := prodBaseURL
	if env == EnvSandbox {
		base = sandboxBaseURL
	}
	return &Client{
		Base:           b,
		appKey:         appKey,
		appSecret:      appSecret,
		env:            env,
		base:           base,
		tokens:         NewTokenManager(appKey, appSecret, env, base, stateDir, logger),
		tokenSentinels: defaultTokenSentinels,
	}, nil
}

// SetBaseURL overrides the upstream base URL for both the data plane and
// token issuance (tests and mirrors).
func (c *Client) SetBaseURL(u string) {
	c.base = u
	c.tokens.baseURL = u
}

// Tokens exposes the token manager.
func (c *Client) Tokens() *TokenManager { return c.tokens }

// rtEnvelope is the per-call result wrapper shared by all KIS endpoints.
type rtEnvelope struct {
	RtCd  string `json:"rt_cd"`
	MsgCd string `json:"msg_cd"`
	Msg1  string `json:"msg1"`
}

// Request performs a GET call with no routing id. Endpoints that need a
// tr_id use RequestTR.
func (c *Client) Request(ctx context.Context, endpoint string, params provider.Params, opts provider.CacheOptions) (*provider.Response, error) {
	return c.RequestTR(ctx, endpoint, http.MethodGet, "", params, opts)
}

// RequestTR performs one KIS call. GET places params in the query string;
// POST sends them as a JSON body. On HTTP 401 — or an HTTP 500 whose body
// carries a token-lifecycle sentinel — the token is refreshed and the call
// retried exactly once; a second 401 surfaces as AuthExpired.
func (c *Client) RequestTR(ctx context.Context, endpoint, method, trID string, params provider.Params, opts provider.CacheOptions) (*provider.Response, error) {
	fetch := func(ctx context.Context) ([]byte, error) {
		body, err := c.fetchOnce(ctx, endpoint, method, trID, params)
		if err != nil && c.isTokenFailure(err) {
			if _, rerr := c.tokens.RefreshToken(ctx); rerr != nil {
				return nil, rerr
			}
			body, err = c.fetchOnce(ctx, endpoint, method, trID, params)
			if err != nil && c.isTokenFailure(err) {
				return nil, provider.NewError(provider.AuthExpired, ProviderName,
					"still unauthorized after token refresh")
			}
		}
		if err != nil {
			return nil, err
		}
		return c.checkResult(body)
	}

	return c.Do(ctx, endpoint, params, opts, infra.TTLFor(time.Hour), fetch)
}

// fetchOnce performs a single authenticated HTTP exchange.
func (c *Client) fetchOnce(ctx context.Context, endpoint, method, trID string, params provider.Params) ([]byte, error) {
	bearer, err := c.tokens.GetToken(ctx)
	if err != nil {
		return nil, err
	}

	headers := map[string]string{
		"authorization": "Bearer " + bearer,
		"appkey":        c.appKey,
		"appsecret":     c.appSecret,
		"content-type":  "application/json; charset=utf-8",
	}
	if trID != "" {
		headers["tr_id"] = trID
	}

	var body []byte
	var ferr error
	switch method {
	case http.MethodPost:
		payload, merr := json.Marshal(params)
		if merr != nil {
			return nil, provider.NewError(provider.ParseError, ProviderName, "request encode failed").WithCause(merr)
		}
		body, _, ferr = infra.DoPost(ctx, c.base+endpoint, payload, headers)
	default:
		q := url.Values{}
		for k, v := range params {
			q.Set(k, v)
		}
		u := c.base + endpoint
		if len(q) > 0 {
			u += "?" + q.Encode()
		}
		body, _, ferr = infra.DoGet(ctx, u, headers)
	}
	if ferr != nil {
		return body, provider.MapHTTPErr(ProviderName, ferr)
	}
	return body, nil
}

// isTokenFailure recognizes an HTTP 401, or an HTTP 500 whose body carries
// one of the token-lifecycle sentinels.
func (c *Client) isTokenFailure(err error) bool {
	var httpErr *infra.ErrHTTP
	if !errors.As(err, &httpErr) {
		return false
	}
	if httpErr.StatusCode == http.StatusUnauthorized {
		return true
	}
	if httpErr.StatusCode == http.StatusInternalServerError {
		for _, sentinel := range c.tokenSentinels {
			if strings.Contains(httpErr.Body, sentinel) {
				return true
			}
		}
	}
	return false
}

// checkResult interprets the per-call rt_cd field after HTTP success.
func (c *Client) checkResult(body []byte) ([]byte, error) {
	var env rtEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, provider.NewError(provider.ParseError, ProviderName, "malformed response body").WithCause(err)
	}
	if env.RtCd == "0" {
		return body, nil
	}
	if env.MsgCd == rateLimitMsgCd {
		return nil, provider.NewError(provider.RateLimited, ProviderName, env.Msg1)
	}
	return nil, provider.NewError(provider.APIError, ProviderName,
		fmt.Sprintf("rt_cd %s (%s): %s", env.RtCd, env.MsgCd, env.Msg1))
}
