// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"

	"sideways-trend/internal/models"
)

// DataStore defines the interface for data persistence.
type DataStore interface {
	// Price series
	SaveSeries(ctx context.Context, series *models.PriceSeries) error
	GetSeries(ctx context.Context, symbol string) (*models.PriceSeries, error)
	ListSymbols(ctx context.Context) ([]string, error)

	// Analyses
	SaveAnalysis(ctx context.Context, analysis *models.Analysis) error
	GetAnalyses(ctx context.Context, filter AnalysisFilter) ([]models.Analysis, error)

	// Lifecycle
	Close() error
}

// AnalysisFilter represents filters for querying analyses.
type AnalysisFilter struct {
	Symbol string
	Limit  int
}
