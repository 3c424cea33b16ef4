package tools

import (
	"context"
	"time"

	"github.com/kofin-ai/kofin/internal/provider"
	"github.com/kofin-ai/kofin/pkg/models"
	"github.com/kofin-ai/kofin/pkg/utils"
)

// Indicator fetches a central-bank statistics series. Closed periods keep
// a week of freshness; a range reaching into the current period refreshes
// hourly.
func (t *Tools) Indicator(ctx context.Context, table, period, start, end string, items []string, opts provider.CacheOptions) (*models.IndicatorSeries, *provider.Meta, error) {
	if opts.TTL == 0 && !opts.Permanent {
		opts.TTL = indicatorFreshness(end)
	}
	return t.clients.Ecos.Series(ctx, table, period, start, end, items, opts)
}

// indicatorFreshness decides the TTL from the range's end token: a period
// that has already closed will not be revised often.
func indicatorFreshness(end string) time.Duration {
	p, err := utils.PeriodFromEcosTime(end)
	if err != nil {
		return time.Hour
	}
	if p.End.Before(utils.DayPeriod(utils.NowKST()).Start) {
		return 7 * 24 * time.Hour
	}
	return time.Hour
}

// KeyStatistics fetches the central bank's headline statistics list.
func (t *Tools) KeyStatistics(ctx context.Context, opts provider.CacheOptions) ([]models.KeyStatistic, *provider.Meta, error) {
	return t.clients.Ecos.KeyStatistics(ctx, opts)
}

// SearchCatalog searches the statistics catalog by a Korean query term.
func (t *Tools) SearchCatalog(ctx context.Context, query string, opts provider.CacheOptions) ([]models.CatalogEntry, *provider.Meta, error) {
	return t.clients.Ecos.SearchCatalog(ctx, query, opts)
}

// StatsTable fetches observations from a national-statistics table.
func (t *Tools) StatsTable(ctx context.Context, orgID, tblID, prdSe, startPrd, endPrd, itmID, objL1 string, opts provider.CacheOptions) ([]models.StatsCell, *provider.Meta, error) {
	return t.clients.Kosis.Table(ctx, orgID, tblID, prdSe, startPrd, endPrd, itmID, objL1, opts)
}
