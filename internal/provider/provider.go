// Package provider defines the uniform request contract shared by the four
// upstream clients: typed errors, response metadata, cache options, and the
// Client interface the cache-through wrapper and tool functions depend on.
package provider

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kofin-ai/kofin/internal/infra"
)

// Params is the query/body parameter mapping passed to Request.
type Params map[string]string

// CacheOptions control freshness and key construction for one request.
type CacheOptions struct {
	// TTL bounds how long the payload stays fresh. Zero means the
	// endpoint default; Permanent wins over TTL.
	TTL time.Duration

	// Permanent stores the payload on disk only, with no time expiry.
	Permanent bool

	// Key overrides the canonical derived cache key.
	Key string

	// ForceRefresh bypasses both cache tiers but still writes through.
	ForceRefresh bool
}

// Freshness converts the options into the cache-through representation,
// falling back to def when no explicit TTL is set.
func (o CacheOptions) Freshness(def infra.Freshness) infra.Freshness {
	if o.Permanent {
		return infra.Forever()
	}
	if o.TTL > 0 {
		return infra.TTLFor(o.TTL)
	}
	return def
}

// Meta carries per-request observability data on every successful response.
type Meta struct {
	Provider       string           `json:"provider"`
	Endpoint       string           `json:"endpoint"`
	ResponseTime   time.Duration    `json:"response_time"`
	DailyRemaining int              `json:"daily_remaining"`
	MarketOpen     bool             `json:"market_open"`
	Provenance     infra.Provenance `json:"provenance"`

	// UsedFallback and FsDiv are set by the financial-statement tool when
	// the consolidated division was silently replaced by the separate one.
	UsedFallback bool   `json:"used_fallback,omitempty"`
	FsDiv        string `json:"fs_div,omitempty"`
}

// Response is the raw payload + metadata returned by a client request.
// Decode unmarshals the payload into a typed value.
type Response struct {
	Body []byte
	Meta Meta
}

// Client is the uniform contract implemented by each provider adapter.
// Request admits through the rate limiter, resolves through the two-tier
// cache, performs the authenticated fetch on a miss, and maps the
// provider's result encoding into the typed error taxonomy.
type Client interface {
	// Name returns the provider tag ("dart", "kis", "ecos", "kosis").
	Name() string

	// Request performs one upstream call through the shared pipeline.
	Request(ctx context.Context, endpoint string, params Params, opts CacheOptions) (*Response, error)

	// Status reports the daily rate-limit budget.
	Status() infra.Status

	// Close releases the disk-cache handle.
	Close() error
}

// Decode unmarshals a response payload into T, mapping JSON failures to
// the ParseError kind.
func Decode[T any](providerTag string, resp *Response) (T, error) {
	var v T
	if err := json.Unmarshal(resp.Body, &v); err != nil {
		return v, NewError(ParseError, providerTag, "malformed response body").WithCause(err)
	}
	return v, nil
}
