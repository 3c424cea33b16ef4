package tools

import (
	"context"
	"sort"
	"strings"

	"github.com/kofin-ai/kofin/internal/provider"
	"github.com/kofin-ai/kofin/internal/providers/kis"
	"github.com/kofin-ai/kofin/pkg/models"
)

// sparkGlyphs are the block glyphs a sparkline is drawn with.
var sparkGlyphs = []rune("▁▂▃▄▅▆▇█")

// Price fetches the live quote for a 6-digit ticker.
func (t *Tools) Price(ctx context.Context, stockCode string, opts provider.CacheOptions) (*models.PriceSnapshot, *provider.Meta, error) {
	return t.clients.Kis.Price(ctx, stockCode, opts)
}

// MarketIndex fetches a market-index snapshot by well-known name
// ("KOSPI" or "KOSDAQ").
func (t *Tools) MarketIndex(ctx context.Context, name string, opts provider.CacheOptions) (*models.IndexSnapshot, *provider.Meta, error) {
	code := kis.IndexKOSPI
	canonical := "KOSPI"
	if strings.EqualFold(name, "KOSDAQ") {
		code = kis.IndexKOSDAQ
		canonical = "KOSDAQ"
	}
	return t.clients.Kis.Index(ctx, code, canonical, opts)
}

// PriceHistory fetches daily bars for an inclusive YYYYMMDD range and
// condenses them into a summary with a closing-price sparkline.
func (t *Tools) PriceHistory(ctx context.Context, stockCode, begin, end string, opts provider.CacheOptions) (*models.PriceHistorySummary, []models.DailyPrice, error) {
	bars, _, err := t.clients.Kis.DailyHistory(ctx, stockCode, begin, end, opts)
	if err != nil {
		return nil, nil, err
	}
	if len(bars) == 0 {
		return nil, nil, provider.NewError(provider.NotFound, kis.ProviderName, "no bars in range")
	}

	// The upstream returns newest-first; summaries read oldest-first.
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date < bars[j].Date })

	return summarize(stockCode, bars), bars, nil
}

func summarize(stockCode string, bars []models.DailyPrice) *models.PriceHistorySummary {
	s := &models.PriceHistorySummary{
		StockCode:  stockCode,
		Days:       len(bars),
		FirstClose: bars[0].Close,
		LastClose:  bars[len(bars)-1].Close,
		High:       bars[0].High,
		HighDate:   bars[0].Date,
		Low:        bars[0].Low,
		LowDate:    bars[0].Date,
	}

	var volumeSum int64
	for _, b := range bars {
		if b.High > s.High {
			s.High = b.High
			s.HighDate = b.Date
		}
		if b.Low < s.Low {
			s.Low = b.Low
			s.LowDate = b.Date
		}
		volumeSum += b.Volume
	}
	s.AvgVolume = volumeSum / int64(len(bars))
	if s.FirstClose != 0 {
		s.ReturnPct = (s.LastClose - s.FirstClose) / s.FirstClose * 100
	}
	s.Sparkline = sparkline(bars)
	return s
}

// sparkline renders closing prices as one glyph per bar, scaled between
// the range's low and high close.
func sparkline(bars []models.DailyPrice) string {
	lo, hi := bars[0].Close, bars[0].Close
	for _, b := range bars {
		if b.Close < lo {
			lo = b.Close
		}
		if b.Close > hi {
			hi = b.Close
		}
	}

	var sb strings.Builder
	span := hi - lo
	for _, b := range bars {
		idx := 0
		if span > 0 {
			idx = int((b.Close - lo) / span * float64(len(sparkGlyphs)-1))
		}
		sb.WriteRune(sparkGlyphs[idx])
	}
	return sb.String()
}
