// Package dart implements the OpenDART corporate-filings client.
// OpenDART serves disclosure listings, company overviews, financial
// statements, and the corp-code master list via a REST API authenticated
// with a query-string key.
//
// Docs: https://opendart.fss.or.kr/guide/main.do
// The HTTP status is unreliable; the body's own status field decides the
// outcome of every call.
package dart

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
	ProviderName = "dart"
	baseURL      = "https://opendart.fss.or.kr"
)

// Result codes carried in the body's status field.
const (
	statusOK          = "000"
	statusInvalidKey  = "010"
	statusNoData      = "011"
	statusNotFound    = "013"
	statusRateLimited = "020"
)

var _ provider.Client = (*Client)(nil)

// Client is the OpenDART adapter. One per process.
type Client struct {
	*provider.Base
	apiKey string
	base   string
}

// New creates the DART client. stateDir holds the rate-limit counter and
// the disk cache.
func New(apiKey, stateDir string, logger *zap.Logger) (*Client, error) {
	b, err := provider.NewBase(ProviderName, infra.DefaultLimits[ProviderName], stateDir, logger)
	if err != nil {
		return nil, err
	}
	return &Client{Base: b, apiKey: apiKey, base: baseURL}, nil
}

// SetBaseURL overrides the upstream base URL (tests and mirrors).
func (c *Client) SetBaseURL(u string) { c.base = u }

// statusEnvelope is the minimal shape every DART JSON body shares.
type statusEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Request performs one DART call: GET <base>/api/<endpoint>.json with the
// parameters and the crtfc_key appended to the query string.
func (c *Client) Request(ctx context.Context, endpoint string, params provider.Params, opts provider.CacheOptions) (*provider.Response, error) {
	fetch := func(ctx context.Context) ([]byte, error) {
		q := url.Values{}
		for k, v := range params {
			q.Set(k, v)
		}
		q.Set("crtfc_key", c.apiKey)
		u := fmt.Sprintf("%s/api/%s.json?%s", c.base, endpoint, q.Encode())

		body, _, err := infra.DoGet(ctx, u, nil)
		if err != nil {
			return nil, provider.MapHTTPErr(ProviderName, err)
		}
		return c.checkStatus(body)
	}

	return c.Do(ctx, endpoint, params, opts, defaultFreshness(endpoint), fetch)
}

// checkStatus maps the body's status field onto the typed taxonomy and
// returns the body unchanged on success.
func (c *Client) checkStatus(body []byte) ([]byte, error) {
	var env statusEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, provider.NewError(provider.ParseError, ProviderName, "malformed response body").WithCause(err)
	}
	switch env.Status {
	case statusOK:
		return body, nil
	case statusInvalidKey:
		return nil, provider.NewError(provider.AuthExpired, ProviderName, "invalid or expired API key")
	case statusNoData, statusNotFound:
		return nil, provider.NewError(provider.NotFound, ProviderName, env.Message)
	case statusRateLimited:
		return nil, provider.NewError(provider.RateLimited, ProviderName, "request limit exceeded")
	default:
		e := provider.NewError(provider.APIError, ProviderName,
			fmt.Sprintf("status %s: %s", env.Status, env.Message))
		// 8xx-class codes are transient upstream conditions.
		if strings.HasPrefix(env.Status, "8") {
			e = e.WithRetryable(true)
		}
		return nil, e
	}
}

// defaultFreshness assigns the endpoint's freshness policy: filed
// statements are immutable, overviews drift slowly, listings churn hourly.
func defaultFreshness(endpoint string) infra.Freshness {
	switch endpoint {
	case "fnlttSinglAcntAll", "fnlttSinglAcnt":
		return infra.Forever()
	case "company":
		return infra.TTLFor(30 * 24 * time.Hour)
	case "list":
		return infra.TTLFor(time.Hour)
	default:
		return infra.TTLFor(time.Hour)
	}
}
