package services

import (
	"context"
	"time"

	"salesdash/internal/core"
)

// Store is the transaction collection: filterable listings, a handful of
// aggregations, and a wholesale replace. The SQLite repository implements it;
// tests substitute fakes.
type Store interface {
	ReplaceAll(ctx context.Context, txns []core.Transaction) error
	List(ctx context.Context, f core.ListFilter) ([]core.Transaction, error)
	SumSoldAmount(ctx context.Context, start, end time.Time) (float64, error)
	CountSold(ctx context.Context, start, end time.Time) (int64, error)
	CountUnsold(ctx context.Context, start, end time.Time) (int64, error)
	Count(ctx context.Context, start, end time.Time) (int64, error)
	CountPriceRange(ctx context.Context, start, end time.Time, min float64, max *float64) (int64, error)
	CountByCategory(ctx context.Context, start, end time.Time) ([]core.CategoryCount, error)
}

// DatasetFetcher retrieves the upstream dataset.
type DatasetFetcher interface {
	Fetch(ctx context.Context) ([]core.Transaction, error)
}

// RefreshPublisher announces completed dataset reloads. Optional; a nil
// publisher disables events.
type RefreshPublisher interface {
	PublishDatasetRefresh(ctx context.Context, count int, source string) error
}
