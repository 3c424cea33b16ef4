// Package kosis implements the Statistics Korea KOSIS client. KOSIS
// authenticates with an apiKey query parameter and always requests
// format=json with jsonVD=Y. A successful response is a JSON array; an
// empty array means no matching rows, and an error response is an object
// with err/errMsg fields.
//
// Docs: https://kosis.kr/openapi
package kosis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kofin-ai/kofin/internal/infra"
	"github.com/kofin-ai/kofin/internal/provider"
)

const (
	ProviderName = "kosis"
	baseURL      = "https://kosis.kr/openapi"

	EndpointData = "Param/statisticsParameterData.do"
)

var _ provider.Client = (*Client)(nil)

// Client is the KOSIS adapter. One per process.
type Client struct {
	*provider.Base
	apiKey string
	base   string
}

// New creates the KOSIS client.
func New(apiKey, stateDir string, logger *zap.Logger) (*Client, error) {
	b, err := provider.NewBase(ProviderName, infra.DefaultLimits[ProviderName], stateDir, logger)
	if err != nil {
		return nil, err
	}
	return &Client{Base: b, apiKey: apiKey, base: baseURL}, nil
}

// SetBaseURL overrides the upstream base URL (tests and mirrors).
func (c *Client) SetBaseURL(u string) { c.base = u }

// errBody is the object KOSIS returns instead of a data array on failure.
type errBody struct {
	Err    string `json:"err"`
	ErrMsg string `json:"errMsg"`
}

// Request performs one KOSIS call with apiKey, format=json, and jsonVD=Y
// always present.
func (c *Client) Request(ctx context.Context, endpoint string, params provider.Params, opts provider.CacheOptions) (*provider.Response, error) {
	fetch := func(ctx context.Context) ([]byte, error) {
		q := url.Values{}
		for k, v := range params {
			q.Set(k, v)
		}
		q.Set("apiKey", c.apiKey)
		q.Set("format", "json")
		q.Set("jsonVD", "Y")
		u := fmt.Sprintf("%s/%s?%s", c.base, endpoint, q.Encode())

		body, _, err := infra.DoGet(ctx, u, nil)
		if err != nil {
			return nil, provider.MapHTTPErr(ProviderName, err)
		}
		return c.checkResult(body)
	}

	return c.Do(ctx, endpoint, params, opts, infra.TTLFor(24*time.Hour), fetch)
}

// checkResult distinguishes the array (data) and object (error) shapes.
// An empty array means the query matched nothing.
func (c *Client) checkResult(body []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, provider.NewError(provider.ParseError, ProviderName, "empty response body")
	}

	if trimmed[0] == '[' {
		var rows []json.RawMessage
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, provider.NewError(provider.ParseError, ProviderName, "malformed response body").WithCause(err)
		}
		if len(rows) == 0 {
			return nil, provider.NewError(provider.NotFound, ProviderName, "no rows matched the query")
		}
		return trimmed, nil
	}

	var e errBody
	if err := json.Unmarshal(trimmed, &e); err != nil || (e.Err == "" && e.ErrMsg == "") {
		return nil, provider.NewError(provider.ParseError, ProviderName, "unrecognized response shape")
	}
	switch {
	case strings.Contains(strings.ToUpper(e.Err), "AUTH"):
		return nil, provider.NewError(provider.AuthExpired, ProviderName, e.ErrMsg)
	case strings.Contains(e.ErrMsg, "호출 한도") || strings.Contains(strings.ToLower(e.ErrMsg), "limit"):
		return nil, provider.NewError(provider.RateLimited, ProviderName, e.ErrMsg)
	default:
		return nil, provider.NewError(provider.APIError, ProviderName,
			fmt.Sprintf("%s: %s", e.Err, e.ErrMsg))
	}
}
