package models

import "github.com/kofin-ai/kofin/pkg/utils"

// IndicatorPoint is one observation in a statistics time series.
type IndicatorPoint struct {
	Time   string       `json:"time"` // provider-native token
	Period utils.Period `json:"period"`
	Value  *float64     `json:"value"`
}

// IndicatorSeries is a central-bank statistics time series.
type IndicatorSeries struct {
	TableCode string           `json:"table_code"`
	ItemCode  string           `json:"item_code,omitempty"`
	Name      string           `json:"name"`
	Unit      string           `json:"unit,omitempty"`
	Points    []IndicatorPoint `json:"points"`
}

// KeyStatistic is one entry of the central bank's headline statistics list.
type KeyStatistic struct {
	Class string   `json:"class"`
	Name  string   `json:"name"`
	Value *float64 `json:"value"`
	Unit  string   `json:"unit,omitempty"`
	Time  string   `json:"time,omitempty"`
}

// CatalogEntry is one hit of a statistics catalog search.
type CatalogEntry struct {
	TableCode string `json:"table_code"`
	Name      string `json:"name"`
	Cycle     string `json:"cycle,omitempty"` // A, Q, M, D
	Org       string `json:"org,omitempty"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
}

// StatsCell is one observation from a national-statistics table.
type StatsCell struct {
	TableID  string   `json:"table_id"`
	ItemName string   `json:"item_name"`
	Category string   `json:"category,omitempty"`
	Time     string   `json:"time"`
	Value    *float64 `json:"value"`
	Unit     string   `json:"unit,omitempty"`
}
