package kis

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/kofin-ai/kofin/internal/provider"
	"github.com/kofin-ai/kofin/pkg/models"
	"github.com/kofin-ai/kofin/pkg/utils"
)

const (
	pathInquirePrice = "/uapi/domestic-stock/v1/quotations/inquire-price"
	pathDailyChart   = "/uapi/domestic-stock/v1/quotations/inquire-daily-itemchartprice"
	pathIndexPrice   = "/uapi/domestic-stock/v1/quotations/inquire-index-price"

	trInquirePrice = "FHKST01010100"
	trDailyChart   = "FHKST03010100"
	trIndexPrice   = "FHPUP02100000"
)

// Well-known index codes for the index snapshot endpoint.
const (
	IndexKOSPI  = "0001"
	IndexKOSDAQ = "1001"
)

// snapshotFreshness keeps live quotes short-lived while the market trades
// and relaxes to an hour after the close.
func snapshotFreshness() time.Duration {
	if utils.IsMarketOpen() {
		return 30 * time.Second
	}
	return time.Hour
}

// Price fetches the live (or last-session) quote for a 6-digit ticker.
func (c *Client) Price(ctx context.Context, stockCode string, opts provider.CacheOptions) (*models.PriceSnapshot, *provider.Meta, error) {
	if opts.TTL == 0 && !opts.Permanent {
		opts.TTL = snapshotFreshness()
	}
	params := provider.Params{
		"fid_cond_mrkt_div_code": "J",
		"fid_input_iscd":         stockCode,
	}
	resp, err := c.RequestTR(ctx, pathInquirePrice, http.MethodGet, trInquirePrice, params, opts)
	if err != nil {
		return nil, nil, err
	}
	body, err := provider.Decode[priceBody](ProviderName, resp)
	if err != nil {
		return nil, nil, err
	}

	o := body.Output
	snap := &models.PriceSnapshot{
		StockCode:  stockCode,
		Price:      atof(o.Price),
		Change:     atof(o.Change),
		ChangePct:  atof(o.ChangePct),
		Open:       atof(o.Open),
		High:       atof(o.High),
		Low:        atof(o.Low),
		Volume:     atoi(o.Volume),
		PER:        atofp(o.PER),
		PBR:        atofp(o.PBR),
		EPS:        atofp(o.EPS),
		High52W:    atofp(o.High52W),
		Low52W:     atofp(o.Low52W),
		MarketOpen: resp.Meta.MarketOpen,
	}
	// hts_avls arrives in 억원; normalize to won.
	if mc := atofp(o.MarketCap); mc != nil {
		v := *mc * 1e8
		snap.MarketCap = &v
	}
	return snap, &resp.Meta, nil
}

// DailyHistory fetches daily OHLCV bars for an inclusive YYYYMMDD range.
// Bars for prior dates never change, so the payload is cached permanently
// unless the range includes today.
func (c *Client) DailyHistory(ctx context.Context, stockCode, begin, end string, opts provider.CacheOptions) ([]models.DailyPrice, *provider.Meta, error) {
	if opts.TTL == 0 && !opts.Permanent {
		if end < utils.NowKST().Format("20060102") {
			opts.Permanent = true
		} else {
			opts.TTL = snapshotFreshness()
		}
	}
	params := provider.Params{
		"fid_cond_mrkt_div_code": "J",
		"fid_input_iscd":         stockCode,
		"fid_input_date_1":       begin,
		"fid_input_date_2":       end,
		"fid_period_div_code":    "D",
		"fid_org_adj_prc":        "0",
	}
	resp, err := c.RequestTR(ctx, pathDailyChart, http.MethodGet, trDailyChart, params, opts)
	if err != nil {
		return nil, nil, err
	}
	body, err := provider.Decode[dailyChartBody](ProviderName, resp)
	if err != nil {
		return nil, nil, err
	}

	bars := make([]models.DailyPrice, 0, len(body.Output2))
	for _, b := range body.Output2 {
		if b.Date == "" {
			continue
		}
		period, perr := utils.PeriodFromDailyDate(b.Date)
		if perr != nil {
			return nil, nil, provider.NewError(provider.ParseError, ProviderName, perr.Error()).WithCause(perr)
		}
		bars = append(bars, models.DailyPrice{
			Date:   b.Date,
			Period: period,
			Open:   atof(b.Open),
			High:   atof(b.High),
			Low:    atof(b.Low),
			Close:  atof(b.Close),
			Volume: atoi(b.Volume),
		})
	}
	return bars, &resp.Meta, nil
}

// Index fetches a market-index snapshot (KOSPI, KOSDAQ).
func (c *Client) Index(ctx context.Context, indexCode, name string, opts provider.CacheOptions) (*models.IndexSnapshot, *provider.Meta, error) {
	if opts.TTL == 0 && !opts.Permanent {
		opts.TTL = snapshotFreshness()
	}
	params := provider.Params{
		"fid_cond_mrkt_div_code": "U",
		"fid_input_iscd":         indexCode,
	}
	resp, err := c.RequestTR(ctx, pathIndexPrice, http.MethodGet, trIndexPrice, params, opts)
	if err != nil {
		return nil, nil, err
	}
	body, err := provider.Decode[indexBody](ProviderName, resp)
	if err != nil {
		return nil, nil, err
	}

	o := body.Output
	return &models.IndexSnapshot{
		IndexCode: indexCode,
		Name:      name,
		Value:     atof(o.Value),
		Change:    atof(o.Change),
		ChangePct: atof(o.ChangePct),
		Volume:    atoi(o.Volume),
	}, &resp.Meta, nil
}

func atof(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func atofp(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func atoi(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}
