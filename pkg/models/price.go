package models

import "github.com/kofin-ai/kofin/pkg/utils"

// PriceSnapshot is a live (or last-session) quote for one listed stock.
type PriceSnapshot struct {
	StockCode     string  `json:"stock_code"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePct     float64 `json:"change_pct"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Volume        int64   `json:"volume"`
	MarketCap     *float64 `json:"market_cap,omitempty"` // won
	PER           *float64 `json:"per,omitempty"`
	PBR           *float64 `json:"pbr,omitempty"`
	EPS           *float64 `json:"eps,omitempty"`
	High52W       *float64 `json:"high_52w,omitempty"`
	Low52W        *float64 `json:"low_52w,omitempty"`
	MarketOpen    bool    `json:"market_open"`
}

// DailyPrice is one daily OHLCV bar.
type DailyPrice struct {
	Date   string       `json:"date"` // YYYYMMDD
	Period utils.Period `json:"period"`
	Open   float64      `json:"open"`
	High   float64      `json:"high"`
	Low    float64      `json:"low"`
	Close  float64      `json:"close"`
	Volume int64        `json:"volume"`
}

// PriceHistorySummary condenses a daily history for the agent.
type PriceHistorySummary struct {
	StockCode   string  `json:"stock_code"`
	Days        int     `json:"days"`
	FirstClose  float64 `json:"first_close"`
	LastClose   float64 `json:"last_close"`
	ReturnPct   float64 `json:"return_pct"`
	High        float64 `json:"high"`
	HighDate    string  `json:"high_date"`
	Low         float64 `json:"low"`
	LowDate     string  `json:"low_date"`
	AvgVolume   int64   `json:"avg_volume"`
	Sparkline   string  `json:"sparkline"` // closing prices, one glyph per bar
}

// IndexSnapshot is a market-index quote (KOSPI, KOSDAQ).
type IndexSnapshot struct {
	IndexCode string  `json:"index_code"`
	Name      string  `json:"name"`
	Value     float64 `json:"value"`
	Change    float64 `json:"change"`
	ChangePct float64 `json:"change_pct"`
	Volume    int64   `json:"volume,omitempty"`
}
