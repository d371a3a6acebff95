package models

import (
	"time"

	"github.com/google/uuid"

	"sideways-trend/internal/trend"
)

// Analysis is the result of one sideways trend search.
type Analysis struct {
	ID           string    `json:"id"`
	Symbol       string    `json:"symbol"`
	Source       string    `json:"source,omitempty"`
	Algorithm    string    `json:"algorithm"`
	MaxPctChange float64   `json:"max_pct_change"`
	FirstIndex   int       `json:"first_index"`
	LastIndex    int       `json:"last_index"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	Days         int       `json:"trading_days"`
	Low          int64     `json:"low"`
	High         int64     `json:"high"`
	Scale        int32     `json:"scale"`
	SpreadPct    float64   `json:"spread_pct"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewAnalysis maps a range found in series back to dates.
func NewAnalysis(series *PriceSeries, r trend.Range, alg trend.Algorithm, maxPctChange float64) *Analysis {
	return &Analysis{
		ID:           uuid.NewString(),
		Symbol:       series.Symbol,
		Source:       series.Source,
		Algorithm:    string(alg),
		MaxPctChange: maxPctChange,
		FirstIndex:   r.First,
		LastIndex:    r.Last,
		StartDate:    series.Points[r.First].Date,
		EndDate:      series.Points[r.Last].Date,
		Days:         r.Len(),
		Low:          r.Low,
		High:         r.High,
		Scale:        series.Scale,
		SpreadPct:    trend.SpreadPercent(r),
		CreatedAt:    time.Now().UTC(),
	}
}

// Range returns the index range the analysis describes.
func (a *Analysis) Range() trend.Range {
	return trend.Range{First: a.FirstIndex, Last: a.LastIndex, Low: a.Low, High: a.High}
}
