package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/kofin-ai/kofin/pkg/utils"
)

// LimitConfig holds the per-tier admission limits for one provider.
type LimitConfig struct {
	PerSecond int
	PerMinute int
	PerDay    int
}

// Per-provider defaults. Tunable through config; these mirror the upstream
// published quotas with headroom.
var DefaultLimits = map[string]LimitConfig{
	"dart":  {PerSecond: 2, PerMinute: 60, PerDay: 20000},
	"kis":   {PerSecond: 5, PerMinute: 100, PerDay: 100000},
	"ecos":  {PerSecond: 2, PerMinute: 30, PerDay: 50000},
	"kosis": {PerSecond: 1, PerMinute: 20, PerDay: 10000},
}

// ErrDailyQuota is returned when the civil-day budget is exhausted.
// It is not retryable before the next KST midnight.
type ErrDailyQuota struct {
	Provider string
	Limit    int
	ResetAt  time.Time
}

func (e *ErrDailyQuota) Error() string {
	return fmt.Sprintf("%s: daily quota of %d exhausted, resets at %s",
		e.Provider, e.Limit, e.ResetAt.In(utils.KST).Format("2006-01-02 15:04 MST"))
}

// ErrRetryExhausted is returned when per-second/per-minute starvation
// outlasts the bounded retry rounds.
type ErrRetryExhausted struct {
	Provider string
	Rounds   int
}

func (e *ErrRetryExhausted) Error() string {
	return fmt.Sprintf("%s: rate-limit wait exhausted after %d rounds", e.Provider, e.Rounds)
}

// Status reports daily-budget consumption for budget alerts.
type Status struct {
	Provider    string  `json:"provider"`
	DailyUsed   int     `json:"daily_used"`
	DailyLimit  int     `json:"daily_limit"`
	Remaining   int     `json:"remaining"`
	PercentUsed float64 `json:"percent_used"`
	NearLimit   bool    `json:"near_limit"` // true above 80%
	ResetAt     string  `json:"reset_at"`
}

// limiterState is the persisted daily-counter tuple.
type limiterState struct {
	DailyUsed int       `json:"dailyUsed"`
	ResetAt   time.Time `json:"resetAt"`
}

// RateLimiter admits requests through two in-memory token buckets
// (per-second and per-minute) guarding a daily counter that persists to
// disk after every successful acquisition. The daily counter resets at
// the next KST midnight and survives process restarts via the state file.
type RateLimiter struct {
	mu        sync.Mutex
	provider  string
	cfg       LimitConfig
	second    *rate.Limiter
	minute    *rate.Limiter
	dailyUsed int
	resetAt   time.Time
	statePath string

	// Bounded-wait policy for bucket starvation.
	maxRetries    int
	retryInterval time.Duration

	now func() time.Time // test seam
}

// NewRateLimiter creates a limiter for the named provider, loading any
// persisted daily counter from stateDir. An empty stateDir disables
// persistence (used by tests and ephemeral callers).
func NewRateLimiter(provider string, cfg LimitConfig, stateDir string) *RateLimiter {
	rl := &RateLimiter{
		provider:      provider,
		cfg:           cfg,
		second:        rate.NewLimiter(rate.Limit(cfg.PerSecond), cfg.PerSecond),
		minute:        rate.NewLimiter(rate.Limit(cfg.PerMinute)/60, cfg.PerMinute),
		maxRetries:    3,
		retryInterval: time.Second,
		now:           time.Now,
	}
	if stateDir != "" {
		rl.statePath = filepath.Join(stateDir, provider+".json")
	}
	rl.resetAt = utils.NextMidnightKST(rl.now())
	rl.loadState()
	return rl
}

// Acquire admits one request, blocking for at most maxRetries rounds of
// retryInterval while the token buckets refill. On success it returns the
// remaining daily budget. Daily exhaustion fails fast with *ErrDailyQuota;
// bucket starvation past the retry bound fails with *ErrRetryExhausted.
func (rl *RateLimiter) Acquire(ctx context.Context) (int, error) {
	for round := 0; ; round++ {
		rl.mu.Lock()
		rl.rollDay()

		if rl.dailyUsed >= rl.cfg.PerDay {
			err := &ErrDailyQuota{Provider: rl.provider, Limit: rl.cfg.PerDay, ResetAt: rl.resetAt}
			rl.mu.Unlock()
			return 0, err
		}

		// Both tiers must have a token before either is consumed, so a
		// starved minute bucket never drains the second bucket.
		now := rl.now()
		if rl.second.TokensAt(now) >= 1 && rl.minute.TokensAt(now) >= 1 {
			rl.second.AllowN(now, 1)
			rl.minute.AllowN(now, 1)
			rl.dailyUsed++
			remaining := rl.cfg.PerDay - rl.dailyUsed
			rl.persistState()
			rl.mu.Unlock()
			return remaining, nil
		}
		rl.mu.Unlock()

		if round >= rl.maxRetries {
			return 0, &ErrRetryExhausted{Provider: rl.provider, Rounds: round}
		}

		// The per-minute bucket can be up to a minute away from a token;
		// cap each wait at the retry interval so stalls stay bounded.
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(rl.retryInterval):
		}
	}
}

// Status returns the daily-budget status for budget alerts.
func (rl *RateLimiter) Status() Status {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.rollDay()

	pct := 0.0
	if rl.cfg.PerDay > 0 {
		pct = float64(rl.dailyUsed) / float64(rl.cfg.PerDay) * 100
	}
	return Status{
		Provider:    rl.provider,
		DailyUsed:   rl.dailyUsed,
		DailyLimit:  rl.cfg.PerDay,
		Remaining:   rl.cfg.PerDay - rl.dailyUsed,
		PercentUsed: pct,
		NearLimit:   pct > 80,
		ResetAt:     rl.resetAt.In(utils.KST).Format(time.RFC3339),
	}
}

// rollDay zeroes the daily counter once the KST midnight boundary passes.
// Must be called with mu held.
func (rl *RateLimiter) rollDay() {
	now := rl.now()
	if !now.Before(rl.resetAt) {
		rl.dailyUsed = 0
		rl.resetAt = utils.NextMidnightKST(now)
		rl.persistState()
	}
}

// loadState restores the persisted daily counter if its reset point has
// not yet passed; a stale or unreadable file is ignored.
func (rl *RateLimiter) loadState() {
	if rl.statePath == "" {
		return
	}
	data, err := os.ReadFile(rl.statePath)
	if err != nil {
		return
	}
	var st limiterState
	if err := json.Unmarshal(data, &st); err != nil {
		return
	}
	if rl.now().Before(st.ResetAt) {
		rl.dailyUsed = st.DailyUsed
		rl.resetAt = st.ResetAt
	}
}

// persistState writes the daily counter tuple. Two processes sharing the
// file race as last-writer-wins; daily budgets carry enough headroom that
// the bounded under-count is acceptable. Must be called with mu held.
func (rl *RateLimiter) persistState() {
	if rl.statePath == "" {
		return
	}
	st := limiterState{DailyUsed: rl.dailyUsed, ResetAt: rl.resetAt}
	data, err := json.Marshal(st)
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(rl.statePath), 0o755); err != nil {
		return
	}
	_ = os.WriteFile(rl.statePath, data, 0o644)
}
