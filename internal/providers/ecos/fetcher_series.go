package ecos

import (
	"context"

	"github.com/kofin-ai/kofin/internal/provider"
	"github.com/kofin-ai/kofin/pkg/models"
	"github.com/kofin-ai/kofin/pkg/utils"
)

// Series fetches a statistics time series for table between start and end
// time tokens (YYYY, YYYYQn, YYYYMM or YYYYMMDD depending on period:
// A, Q, M, D). items may hold up to three item codes.
func (c *Client) Series(ctx context.Context, table, period, start, end string, items []string, opts provider.CacheOptions) (*models.IndicatorSeries, *provider.Meta, error) {
	params := provider.Params{
		"table":  table,
		"period": period,
		"start":  start,
		"end":    end,
	}
	for i, item := range items {
		if i >= 3 {
			break
		}
		params[[3]string{"item1", "item2", "item3"}[i]] = item
	}

	resp, err := c.Request(ctx, EndpointSeries, params, opts)
	if err != nil {
		return nil, nil, err
	}
	body, err := provider.Decode[seriesBody](ProviderName, resp)
	if err != nil {
		return nil, nil, err
	}

	series := &models.IndicatorSeries{TableCode: table}
	for _, row := range body.StatisticSearch.Row {
		if series.Name == "" {
			series.Name = row.StatName
			series.Unit = row.UnitName
			series.ItemCode = row.ItemCode1
		}
		p, perr := utils.PeriodFromEcosTime(row.Time)
		if perr != nil {
			return nil, nil, provider.NewError(provider.ParseError, ProviderName, perr.Error()).WithCause(perr)
		}
		series.Points = append(series.Points, models.IndicatorPoint{
			Time:   row.Time,
			Period: p,
			Value:  utils.ParseAmount(row.DataValue),
		})
	}
	return series, &resp.Meta, nil
}

// KeyStatistics fetches the headline statistics list.
func (c *Client) KeyStatistics(ctx context.Context, opts provider.CacheOptions) ([]models.KeyStatistic, *provider.Meta, error) {
	resp, err := c.Request(ctx, EndpointKeyStat, provider.Params{}, opts)
	if err != nil {
		return nil, nil, err
	}
	body, err := provider.Decode[keyStatBody](ProviderName, resp)
	if err != nil {
		return nil, nil, err
	}

	out := make([]models.KeyStatistic, 0, len(body.KeyStatisticList.Row))
	for _, row := range body.KeyStatisticList.Row {
		out = append(out, models.KeyStatistic{
			Class: row.ClassName,
			Name:  row.KeyStatName,
			Value: utils.ParseAmount(row.DataValue),
			Unit:  row.UnitName,
			Time:  row.Cycle,
		})
	}
	return out, &resp.Meta, nil
}

// SearchCatalog searches the statistics catalog by a (Korean) query term.
func (c *Client) SearchCatalog(ctx context.Context, query string, opts provider.CacheOptions) ([]models.CatalogEntry, *provider.Meta, error) {
	resp, err := c.Request(ctx, EndpointCatalog, provider.Params{"query": query}, opts)
	if err != nil {
		return nil, nil, err
	}
	body, err := provider.Decode[catalogBody](ProviderName, resp)
	if err != nil {
		return nil, nil, err
	}

	out := make([]models.CatalogEntry, 0, len(body.StatisticTableList.Row))
	for _, row := range body.StatisticTableList.Row {
		out = append(out, models.CatalogEntry{
			TableCode: row.StatCode,
			Name:      row.StatName,
			Cycle:     row.Cycle,
			Org:       row.OrgName,
		})
	}
	return out, &resp.Meta, nil
}
