package tools

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/kofin-ai/kofin/internal/provider"
	"github.com/kofin-ai/kofin/pkg/models"
)

// FinancialStatements fetches a company's statement for one year and
// report code. When fsDiv is empty the consolidated division is tried
// first and, if the filer reports none, the separate division is fetched
// once instead; the metadata records the fallback. An explicitly
// requested division is never substituted.
func (t *Tools) FinancialStatements(ctx context.Context, corpCode, year, reportCode, fsDiv string, opts provider.CacheOptions) (*models.FinancialStatement, *provider.Meta, error) {
	explicit := fsDiv != ""
	div := fsDiv
	if !explicit {
		div = models.DivConsolidated
	}

	stmt, meta, err := t.clients.Dart.FinancialStatements(ctx, corpCode, year, reportCode, div, opts)
	usedFallback := false
	if err != nil && !explicit && provider.IsNotFound(err) {
		div = models.DivSeparate
		stmt, meta, err = t.clients.Dart.FinancialStatements(ctx, corpCode, year, reportCode, div, opts)
		usedFallback = true
	}
	if err != nil {
		return nil, nil, err
	}

	meta.FsDiv = div
	meta.UsedFallback = usedFallback
	for i := range stmt.Accounts {
		stmt.Accounts[i].Concept = t.concepts.Concept(stmt.Accounts[i].Name, stmt.Accounts[i].Statement)
	}
	return stmt, meta, nil
}

// CompanyInfo fetches the filings authority's company overview.
func (t *Tools) CompanyInfo(ctx context.Context, corpCode string, opts provider.CacheOptions) (*models.CompanyInfo, *provider.Meta, error) {
	return t.clients.Dart.Company(ctx, corpCode, opts)
}

// Disclosures fetches the disclosure listing for a date range.
func (t *Tools) Disclosures(ctx context.Context, corpCode, begin, end string, opts provider.CacheOptions) ([]models.Disclosure, *provider.Meta, error) {
	return t.clients.Dart.Disclosures(ctx, corpCode, begin, end, opts)
}

// TodayDisclosures reads the public recent-filings feed.
func (t *Tools) TodayDisclosures(ctx context.Context, limit int) ([]models.Disclosure, error) {
	return t.clients.Dart.TodayDisclosures(ctx, limit)
}

// CompanySnapshot bundles the overview, the latest annual statement, and
// the live quote into one concurrent fetch. Pieces from providers without
// credentials are left nil.
type CompanySnapshot struct {
	Info       *models.CompanyInfo        `json:"info"`
	Financials *models.FinancialStatement `json:"financials,omitempty"`
	Price      *models.PriceSnapshot      `json:"price,omitempty"`
}

// Snapshot assembles a company snapshot for the resolved company.
func (t *Tools) Snapshot(ctx context.Context, mapping models.CorpMapping, year string) (*CompanySnapshot, error) {
	snap := &CompanySnapshot{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		info, _, err := t.CompanyInfo(gctx, mapping.CorpCode, provider.CacheOptions{})
		if err != nil {
			return err
		}
		snap.Info = info
		return nil
	})
	g.Go(func() error {
		stmt, _, err := t.FinancialStatements(gctx, mapping.CorpCode, year, "11011", "", provider.CacheOptions{})
		if err != nil {
			// The latest year may not be filed yet; the snapshot is
			// still useful without it.
			if provider.IsNotFound(err) {
				return nil
			}
			return err
		}
		snap.Financials = stmt
		return nil
	})
	if t.clients.Kis != nil && mapping.Listed() {
		g.Go(func() error {
			price, _, err := t.clients.Kis.Price(gctx, mapping.StockCode, provider.CacheOptions{})
			if err != nil {
				return err
			}
			snap.Price = price
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}
