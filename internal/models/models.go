// Package models provides domain models for the sideways trend analyser.
package models

import (
	"time"
)

// PricePoint is one trading day's closing price in minor units.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close int64     `json:"close"`
}

// PriceSeries is an immutable, date-ascending sequence of closing prices.
type PriceSeries struct {
	Symbol string       `json:"symbol"`
	Source string       `json:"source,omitempty"`
	Scale  int32        `json:"scale"` // decimals in one major unit, 2 for cents
	Points []PricePoint `json:"points"`
}

// Len returns the number of trading days in the series.
func (s *PriceSeries) Len() int {
	return len(s.Points)
}

// Prices returns the closing prices indexed 0..n-1.
func (s *PriceSeries) Prices() []int64 {
	prices := make([]int64, len(s.Points))
	for i, p := range s.Points {
		prices[i] = p.Close
	}
	return prices
}

// Dates returns the trading dates indexed 0..n-1.
func (s *PriceSeries) Dates() []time.Time {
	dates := make([]time.Time, len(s.Points))
	for i, p := range s.Points {
		dates[i] = p.Date
	}
	return dates
}
