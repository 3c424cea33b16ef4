package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kofin-ai/kofin/pkg/models"
)

const (
	// fuzzyThreshold is the minimum jamo similarity kept as a candidate.
	fuzzyThreshold = 0.7

	// minFuzzyInput is the minimum rune length for fuzzy search.
	minFuzzyInput = 2

	// maxAlternatives bounds the runner-up list.
	maxAlternatives = 4
)

// CorpCodeSource downloads the master list; the DART client implements it.
type CorpCodeSource interface {
	DownloadCorpCodes(ctx context.Context) ([]models.CorpMapping, error)
}

// Resolver resolves user queries against the corp-code master list using
// four strategies in fixed order: exact ticker, exact registration code,
// exact name, then jamo-level fuzzy name matching.
type Resolver struct {
	mu       sync.RWMutex
	mappings []models.CorpMapping
	byTicker map[string]int
	byCode   map[string]int
	byName   map[string]int
	path     string
	log      *zap.Logger
}

// New creates an empty resolver persisting its mappings at
// <stateDir>/corp-codes.json.
func New(stateDir string, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		path: filepath.Join(stateDir, "corp-codes.json"),
		log:  logger,
	}
}

// SetMappings replaces the mapping set and rebuilds the three indices.
func (r *Resolver) SetMappings(mappings []models.CorpMapping) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mappings = mappings
	r.byTicker = make(map[string]int, len(mappings))
	r.byCode = make(map[string]int, len(mappings))
	r.byName = make(map[string]int, len(mappings))
	for i, m := range mappings {
		if m.StockCode != "" {
			r.byTicker[m.StockCode] = i
		}
		r.byCode[m.CorpCode] = i
		r.byName[strings.TrimSpace(m.CorpName)] = i
	}
}

// Len returns the number of loaded mappings.
func (r *Resolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.mappings)
}

// Mappings returns the loaded mapping slice.
func (r *Resolver) Mappings() []models.CorpMapping {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.mappings
}

// LoadFromCache reads the persisted corp-codes.json.
func (r *Resolver) LoadFromCache() error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("read corp codes: %w", err)
	}
	var mappings []models.CorpMapping
	if err := json.Unmarshal(data, &mappings); err != nil {
		return fmt.Errorf("parse corp codes: %w", err)
	}
	r.SetMappings(mappings)
	r.log.Debug("corp codes loaded from cache", zap.Int("count", len(mappings)))
	return nil
}

// LoadFromAPI downloads the master list, rebuilds the indices, and
// persists the result for the next process.
func (r *Resolver) LoadFromAPI(ctx context.Context, src CorpCodeSource) error {
	mappings, err := src.DownloadCorpCodes(ctx)
	if err != nil {
		return err
	}
	r.SetMappings(mappings)

	data, merr := json.Marshal(mappings)
	if merr == nil {
		if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err == nil {
			_ = os.WriteFile(r.path, data, 0o644)
		}
	}
	r.log.Info("corp codes downloaded", zap.Int("count", len(mappings)))
	return nil
}

// Load restores mappings from cache, falling back to the API download.
func (r *Resolver) Load(ctx context.Context, src CorpCodeSource) error {
	if err := r.LoadFromCache(); err == nil {
		return nil
	}
	return r.LoadFromAPI(ctx, src)
}

// Resolve maps a query to a company. Returns nil when nothing matches.
func (r *Resolver) Resolve(query string) *models.Resolution {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(q) == 6 && isDigits(q) {
		if i, ok := r.byTicker[q]; ok {
			return &models.Resolution{Mapping: r.mappings[i], Confidence: 1.0, MatchType: models.MatchExactTicker}
		}
	}
	if len(q) == 8 && isDigits(q) {
		if i, ok := r.byCode[q]; ok {
			return &models.Resolution{Mapping: r.mappings[i], Confidence: 1.0, MatchType: models.MatchExactCode}
		}
	}
	if i, ok := r.byName[q]; ok {
		return &models.Resolution{Mapping: r.mappings[i], Confidence: 1.0, MatchType: models.MatchExactName}
	}

	return r.fuzzyResolve(q)
}

type scored struct {
	idx int
	sim float64
}

// fuzzyResolve scores every mapping by jamo similarity, keeps candidates
// above the threshold, and prefers listed companies on ties.
func (r *Resolver) fuzzyResolve(q string) *models.Resolution {
	if len([]rune(q)) < minFuzzyInput {
		return nil
	}

	candidates := make([]scored, 0, 8)
	for i, m := range r.mappings {
		sim := jamoSimilarity(q, m.CorpName)
		if sim >= fuzzyThreshold {
			candidates = append(candidates, scored{idx: i, sim: sim})
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		ca, cb := candidates[a], candidates[b]
		if ca.sim != cb.sim {
			return ca.sim > cb.sim
		}
		return r.mappings[ca.idx].Listed() && !r.mappings[cb.idx].Listed()
	})

	best := candidates[0]
	res := &models.Resolution{
		Mapping:    r.mappings[best.idx],
		Confidence: best.sim,
		MatchType:  models.MatchFuzzyName,
	}
	for _, c := range candidates[1:] {
		if len(res.Alternatives) >= maxAlternatives {
			break
		}
		res.Alternatives = append(res.Alternatives, r.mappings[c.idx])
	}
	return res
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
