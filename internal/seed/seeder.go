package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kofin-ai/kofin/internal/provider"
	"github.com/kofin-ai/kofin/internal/tools"
	"github.com/kofin-ai/kofin/pkg/models"
	"github.com/kofin-ai/kofin/pkg/utils"
)

// annualReportCode is the only report code the seeder crawls; quarterly
// filings add little to the offline demo set.
const annualReportCode = "11011"

// Config scopes one seeding run.
type Config struct {
	Companies int // number of listed companies to crawl
	Years     int // number of fiscal years back from the last closed year
}

// Seeder crawls financial statements (and per-company overviews) for the
// top-of-list companies into the store. Runs are idempotent: checkpointed
// units are skipped, and every write is an upsert.
type Seeder struct {
	store       *Store
	tools       *tools.Tools
	log         *zap.Logger
	interrupted atomic.Bool
}

// NewSeeder wires a seeder over an open store and tool set.
func NewSeeder(store *Store, ts *tools.Tools, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{store: store, tools: ts, log: logger}
}

// Interrupt asks the run loop to stop after the current company. Safe to
// call from a signal handler.
func (s *Seeder) Interrupt() { s.interrupted.Store(true) }

// Result summarizes one run.
type Result struct {
	Companies   int
	Fetched     int
	Skipped     int
	Interrupted bool
}

// Run crawls cfg.Companies listed companies over cfg.Years fiscal years.
// Cancellation of ctx behaves like an interrupt: the current company is
// finished and the loop exits cleanly.
func (s *Seeder) Run(ctx context.Context, cfg Config) (Result, error) {
	var res Result

	companies := s.listedCompanies(cfg.Companies)
	if len(companies) == 0 {
		return res, fmt.Errorf("no listed companies loaded; run the resolver download first")
	}
	if err := s.store.PutMappings(companies); err != nil {
		return res, fmt.Errorf("store mappings: %w", err)
	}
	if _, ok := s.store.GetMeta("started_at"); !ok {
		_ = s.store.SetMeta("started_at", time.Now().Format(time.RFC3339))
	}

	years := fiscalYears(cfg.Years)

	for _, company := range companies {
		if s.interrupted.Load() || ctx.Err() != nil {
			res.Interrupted = true
			break
		}
		if err := s.seedCompany(context.WithoutCancel(ctx), company, years, &res); err != nil {
			return res, err
		}
		res.Companies++
		s.log.Info("company seeded",
			zap.String("corp", company.CorpName),
			zap.Int("fetched", res.Fetched),
			zap.Int("skipped", res.Skipped))
	}

	_ = s.store.SetMeta("last_run", time.Now().Format(time.RFC3339))
	return res, nil
}

// seedCompany crawls every pending unit for one company. The company is
// always finished once started, so an interrupt never orphans a unit.
func (s *Seeder) seedCompany(ctx context.Context, company models.CorpMapping, years []string, res *Result) error {
	// Company overview, checkpointed under a pseudo report code.
	if !s.store.IsDone(company.CorpCode, "company", "-") {
		info, _, err := s.tools.CompanyInfo(ctx, company.CorpCode, provider.CacheOptions{})
		if err != nil && !provider.IsNotFound(err) {
			return fmt.Errorf("company %s: %w", company.CorpCode, err)
		}
		if err == nil {
			if err := s.putJSON("dart:company:"+company.CorpCode, info); err != nil {
				return err
			}
		}
		if err := s.store.MarkDone(company.CorpCode, "company", "-"); err != nil {
			return err
		}
		res.Fetched++
	} else {
		res.Skipped++
	}

	for _, year := range years {
		if s.store.IsDone(company.CorpCode, annualReportCode, year) {
			res.Skipped++
			continue
		}

		stmt, _, err := s.tools.FinancialStatements(ctx, company.CorpCode, year, annualReportCode, "", provider.CacheOptions{})
		switch {
		case provider.IsNotFound(err):
			// Nothing filed for that year; checkpoint so reruns skip it.
		case err != nil:
			return fmt.Errorf("financials %s %s: %w", company.CorpCode, year, err)
		default:
			key := fmt.Sprintf("dart:fnltt:%s:%s:%s", company.CorpCode, year, annualReportCode)
			if err := s.putJSON(key, stmt); err != nil {
				return err
			}
		}

		if err := s.store.MarkDone(company.CorpCode, annualReportCode, year); err != nil {
			return err
		}
		res.Fetched++
	}
	return nil
}

func (s *Seeder) putJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.store.PutResponse(key, data, "dart")
}

// listedCompanies returns the first n listed mappings from the resolver.
func (s *Seeder) listedCompanies(n int) []models.CorpMapping {
	var out []models.CorpMapping
	for _, m := range s.tools.Resolver().Mappings() {
		if !m.Listed() {
			continue
		}
		out = append(out, m)
		if len(out) == n {
			break
		}
	}
	return out
}

// fiscalYears lists the y most recent closed fiscal years, newest first.
func fiscalYears(y int) []string {
	last := utils.NowKST().Year() - 1
	out := make([]string, 0, y)
	for i := 0; i < y; i++ {
		out = append(out, fmt.Sprintf("%d", last-i))
	}
	return out
}
