package provider

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/kofin-ai/kofin/internal/infra"
	"github.com/kofin-ai/kofin/pkg/utils"
)

// Base carries the per-provider singletons every concrete client embeds:
// the rate limiter, the memory cache, and the disk-cache handle. Embed it
// and call Do from Request with a provider-specific fetch function.
type Base struct {
	name    string
	limiter *infra.RateLimiter
	cache   *infra.LayeredCache
	disk    *infra.DiskCache
	log     *zap.Logger
}

// NewBase builds the shared client state for one provider. stateDir holds
// the rate-limit counter file and the "<name>-cache.sqlite" disk cache.
func NewBase(name string, cfg infra.LimitConfig, stateDir string, logger *zap.Logger) (*Base, error) {
	disk, err := infra.OpenDiskCache(filepath.Join(stateDir, name+"-cache.sqlite"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Base{
		name:    name,
		limiter: infra.NewRateLimiter(name, cfg, filepath.Join(stateDir, "rate-limits")),
		cache:   infra.NewLayeredCache(infra.NewMemoryCache(256), disk),
		disk:    disk,
		log:     logger.Named(name),
	}, nil
}

// Name returns the provider tag.
func (b *Base) Name() string { return b.name }

// Status reports the daily rate-limit budget.
func (b *Base) Status() infra.Status { return b.limiter.Status() }

// Cache exposes the layered cache for explicit invalidation.
func (b *Base) Cache() *infra.LayeredCache { return b.cache }

// DiskStats returns disk-cache statistics.
func (b *Base) DiskStats() (infra.DiskCacheStats, error) { return b.disk.Stats() }

// Close releases the disk-cache handle.
func (b *Base) Close() error { return b.disk.Close() }

// Acquire admits one request outside the cache pipeline, for endpoints
// that return non-JSON payloads (the corp-code archive download).
func (b *Base) Acquire(ctx context.Context) (int, error) {
	remaining, err := b.limiter.Acquire(ctx)
	if err != nil {
		return 0, b.mapLimiterErr(err)
	}
	return remaining, nil
}

// Do runs the shared request pipeline: canonical key, cache-through
// lookup, and — on a miss — rate-limiter admission followed by the
// provider-specific fetch. fetch must return the validated payload bytes
// with the provider's result encoding already mapped to typed errors.
func (b *Base) Do(ctx context.Context, endpoint string, params Params, opts CacheOptions, def infra.Freshness, fetch func(ctx context.Context) ([]byte, error)) (*Response, error) {
	key := opts.Key
	if key == "" {
		key = infra.BuildKey(b.name, endpoint, params)
	}

	start := time.Now()
	remaining := -1

	origin := func(ctx context.Context) ([]byte, error) {
		r, err := b.limiter.Acquire(ctx)
		if err != nil {
			return nil, b.mapLimiterErr(err)
		}
		remaining = r
		return fetch(ctx)
	}

	body, prov, err := b.cache.Lookup(ctx, key, opts.Freshness(def), opts.ForceRefresh, origin)
	if err != nil {
		b.log.Debug("request failed",
			zap.String("endpoint", endpoint),
			zap.String("kind", string(KindOf(err))),
			zap.Error(err))
		return nil, err
	}

	if remaining < 0 {
		remaining = b.limiter.Status().Remaining
	}
	b.log.Debug("request served",
		zap.String("endpoint", endpoint),
		zap.String("provenance", string(prov)),
		zap.Duration("elapsed", time.Since(start)))

	return &Response{
		Body: body,
		Meta: Meta{
			Provider:       b.name,
			Endpoint:       endpoint,
			ResponseTime:   time.Since(start),
			DailyRemaining: remaining,
			MarketOpen:     utils.IsMarketOpen(),
			Provenance:     prov,
		},
	}, nil
}

// mapLimiterErr converts limiter failures into the typed taxonomy.
// Context errors pass through untouched so callers can see cancellation.
func (b *Base) mapLimiterErr(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var quota *infra.ErrDailyQuota
	if errors.As(err, &quota) {
		return NewError(RateLimited, b.name, quota.Error()).WithCause(err)
	}
	var exhausted *infra.ErrRetryExhausted
	if errors.As(err, &exhausted) {
		return NewError(RateLimited, b.name, exhausted.Error()).WithCause(err)
	}
	return NewError(NetworkError, b.name, "rate limiter failure").WithCause(err)
}

// MapHTTPErr converts transport-level failures into the typed taxonomy:
// HTTP 5xx responses and raw IO failures (DNS, timeout) become retryable
// NetworkError; other HTTP statuses become non-retryable ones.
func MapHTTPErr(providerTag string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var httpErr *infra.ErrHTTP
	if errors.As(err, &httpErr) {
		retryable := httpErr.StatusCode >= 500
		return NewError(NetworkError, providerTag,
			fmt.Sprintf("HTTP %d from upstream", httpErr.StatusCode)).
			WithRetryable(retryable).WithCause(err)
	}
	return NewError(NetworkError, providerTag, "request failed").
		WithRetryable(true).WithCause(err)
}
