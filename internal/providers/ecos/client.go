// Package ecos implements the Bank of Korea ECOS statistics client.
// ECOS authenticates with a path-segment API key and builds request URLs
// entirely from path segments: <base>/<endpoint>/<key>/json/kr/<start>/<end>/...
// with trailing empty segments trimmed and Korean search terms URL-encoded.
//
// Docs: https://ecos.bok.or.kr/api
package ecos

import (
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
	ProviderName = "ecos"
	baseURL      = "https://ecos.bok.or.kr/api"

	EndpointSeries  = "StatisticSearch"
	EndpointKeyStat = "KeyStatisticList"
	EndpointCatalog = "StatisticTableList"
)

var _ provider.Client = (*Client)(nil)

// Client is the ECOS adapter. One per process.
type Client struct {
	*provider.Base
	apiKey string
	base   string
}

// New creates the ECOS client.
func New(apiKey, stateDir string, logger *zap.Logger) (*Client, error) {
	b, err := provider.NewBase(ProviderName, infra.DefaultLimits[ProviderName], stateDir, logger)
	if err != nil {
		return nil, err
	}
	return &Client{Base: b, apiKey: apiKey, base: baseURL}, nil
}

// SetBaseURL overrides the upstream base URL (tests and mirrors).
func (c *Client) SetBaseURL(u string) { c.base = u }

// resultEnvelope is the top-level error object ECOS returns in place of
// data. A successful body has the endpoint name as its top-level key and
// no RESULT member.
type resultEnvelope struct {
	Result *struct {
		Code    string `json:"CODE"`
		Message string `json:"MESSAGE"`
	} `json:"RESULT"`
}

// Request performs one ECOS call. Pagination bounds come from the
// "start_idx"/"end_idx" params (defaulting to 1/100); the endpoint's extra
// path segments come from the endpoint-specific named params:
//
//	StatisticSearch:    table, period, start, end, item1..item3
//	StatisticTableList: query (URL-encoded)
func (c *Client) Request(ctx context.Context, endpoint string, params provider.Params, opts provider.CacheOptions) (*provider.Response, error) {
	fetch := func(ctx context.Context) ([]byte, error) {
		body, _, err := infra.DoGet(ctx, c.buildURL(endpoint, params), nil)
		if err != nil {
			return nil, provider.MapHTTPErr(ProviderName, err)
		}
		return c.checkResult(body)
	}

	return c.Do(ctx, endpoint, params, opts, defaultFreshness(endpoint), fetch)
}

// buildURL assembles the path-segment URL, truncating trailing empty
// segments so optional item codes never leave dangling slashes.
func (c *Client) buildURL(endpoint string, params provider.Params) string {
	startIdx := params["start_idx"]
	if startIdx == "" {
		startIdx = "1"
	}
	endIdx := params["end_idx"]
	if endIdx == "" {
		endIdx = "100"
	}

	segments := []string{c.base, endpoint, c.apiKey, "json", "kr", startIdx, endIdx}

	switch endpoint {
	case EndpointSeries:
		segments = append(segments,
			params["table"], params["period"], params["start"], params["end"],
			params["item1"], params["item2"], params["item3"])
	case EndpointCatalog:
		segments = append(segments, url.PathEscape(params["query"]))
	}

	for len(segments) > 0 && segments[len(segments)-1] == "" {
		segments = segments[:len(segments)-1]
	}
	return strings.Join(segments, "/")
}

// checkResult maps the top-level RESULT error object, when present, onto
// the typed taxonomy by sentinel prefix.
func (c *Client) checkResult(body []byte) ([]byte, error) {
	var env resultEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, provider.NewError(provider.ParseError, ProviderName, "malformed response body").WithCause(err)
	}
	if env.Result == nil {
		return body, nil
	}

	code, msg := env.Result.Code, env.Result.Message
	switch {
	case strings.HasPrefix(code, "INFO-100"):
		return nil, provider.NewError(provider.AuthExpired, ProviderName, msg)
	case strings.HasPrefix(code, "INFO-200"):
		return nil, provider.NewError(provider.NotFound, ProviderName, msg)
	case strings.HasPrefix(code, "ERROR-6"):
		return nil, provider.NewError(provider.RateLimited, ProviderName, msg)
	default:
		return nil, provider.NewError(provider.APIError, ProviderName,
			fmt.Sprintf("%s: %s", code, msg))
	}
}

// defaultFreshness: catalog searches drift monthly; series freshness is
// decided per call by the tool layer (closed vs current period).
func defaultFreshness(endpoint string) infra.Freshness {
	switch endpoint {
	case EndpointCatalog:
		return infra.TTLFor(30 * 24 * time.Hour)
	default:
		return infra.TTLFor(time.Hour)
	}
}
