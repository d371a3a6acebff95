package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sideways-trend/internal/trend"
)

func testSeries() *PriceSeries {
	day := time.Date(2015, 3, 2, 0, 0, 0, 0, time.UTC)
	closes := []int64{12550, 12610, 12490, 13900}
	s := &PriceSeries{Symbol: "ACME", Source: "acme.csv", Scale: 2}
	for i, c := range closes {
		s.Points = append(s.Points, PricePoint{Date: day.AddDate(0, 0, i), Close: c})
	}
	return s
}

func TestPriceSeries(t *testing.T) {
	s := testSeries()

	assert.Equal(t, 4, s.Len())
	assert.Equal(t, []int64{12550, 12610, 12490, 13900}, s.Prices())
	dates := s.Dates()
	require.Len(t, dates, 4)
	assert.Equal(t, time.Date(2015, 3, 5, 0, 0, 0, 0, time.UTC), dates[3])
}

func TestNewAnalysis(t *testing.T) {
	s := testSeries()
	r := trend.Find(trend.DivideAndConquer, 5, s.Prices())

	a := NewAnalysis(s, r, trend.DivideAndConquer, 5)

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "ACME", a.Symbol)
	assert.Equal(t, "divide", a.Algorithm)
	assert.Equal(t, 0, a.FirstIndex)
	assert.Equal(t, 2, a.LastIndex)
	assert.Equal(t, 3, a.Days)
	assert.Equal(t, time.Date(2015, 3, 2, 0, 0, 0, 0, time.UTC), a.StartDate)
	assert.Equal(t, time.Date(2015, 3, 4, 0, 0, 0, 0, time.UTC), a.EndDate)
	assert.Equal(t, int64(12490), a.Low)
	assert.Equal(t, int64(12610), a.High)
	assert.InDelta(t, 0.9608, a.SpreadPct, 1e-4)
	assert.Equal(t, r, a.Range())
}
