package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"salesdash/internal/cache"
	"salesdash/internal/core"
)

const (
	defaultCacheSize = 100
	defaultCacheTTL  = 5 * time.Minute

	DefaultPage    = 1
	DefaultPerPage = 10
)

// Options configures a ReportService.
type Options struct {
	// Year scopes every month-keyed report; the dataset is fixed to one
	// calendar year.
	Year int

	// DatasetURL is reported in refresh events as the reload source.
	DatasetURL string

	CacheSize int
	CacheTTL  time.Duration
}

// ReportService implements the six operations over the transaction
// collection: the five reads plus the wholesale reload.
type ReportService struct {
	store   Store
	fetcher DatasetFetcher
	events  RefreshPublisher

	year       int
	datasetURL string

	statsCache *cache.LRUCache[core.Statistics]
	barCache   *cache.LRUCache[[]core.BarChartEntry]
	pieCache   *cache.LRUCache[[]core.CategoryCount]
}

// NewReportService wires the service. events may be nil, which disables
// refresh messages.
func NewReportService(store Store, fetcher DatasetFetcher, events RefreshPublisher, opts Options) *ReportService {
	if opts.CacheSize <= 0 {
		opts.CacheSize = defaultCacheSize
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}

	return &ReportService{
		store:      store,
		fetcher:    fetcher,
		events:     events,
		year:       opts.Year,
		datasetURL: opts.DatasetURL,
		statsCache: cache.NewLRUCache[core.Statistics](opts.CacheSize, opts.CacheTTL),
		barCache:   cache.NewLRUCache[[]core.BarChartEntry](opts.CacheSize, opts.CacheTTL),
		pieCache:   cache.NewLRUCache[[]core.CategoryCount](opts.CacheSize, opts.CacheTTL),
	}
}

// Year returns the fixed calendar year the reports are scoped to.
func (s *ReportService) Year() int {
	return s.year
}

// Ready reports whether the store can serve queries. The probe is a cheap
// count over the report year.
func (s *ReportService) Ready(ctx context.Context) error {
	start, _ := core.MonthRange(s.year, 1)
	_, end := core.MonthRange(s.year, 12)
	if _, err := s.store.Count(ctx, start, end); err != nil {
		return fmt.Errorf("store not ready: %w", err)
	}
	return nil
}

// Reload replaces the whole collection from the upstream dataset. Cached
// reports are purged before returning; a refresh event is published
// best-effort when a publisher is wired.
func (s *ReportService) Reload(ctx context.Context) (int, error) {
	txns, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch dataset: %w", err)
	}

	if err := s.store.ReplaceAll(ctx, txns); err != nil {
		return 0, fmt.Errorf("replace collection: %w", err)
	}

	s.statsCache.Purge()
	s.barCache.Purge()
	s.pieCache.Purge()

	if s.events != nil {
		if err := s.events.PublishDatasetRefresh(ctx, len(txns), s.datasetURL); err != nil {
			slog.WarnContext(ctx, "Failed to publish dataset refresh event", "error", err)
		}
	}

	slog.InfoContext(ctx, "Dataset reloaded", "count", len(txns), "source", s.datasetURL)
	return len(txns), nil
}

// ListTransactions returns one page of the month's transactions, optionally
// narrowed by a search term. Ordering is whatever the store returns.
func (s *ReportService) ListTransactions(ctx context.Context, month, page, perPage int, search string) ([]core.Transaction, error) {
	if page < 1 {
		page = DefaultPage
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}

	start, end := core.MonthRange(s.year, month)
	txns, err := s.store.List(ctx, core.ListFilter{
		Start:  start,
		End:    end,
		Search: search,
		Offset: (page - 1) * perPage,
		Limit:  perPage,
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions (month=%d): %w", month, err)
	}
	return txns, nil
}

// Statistics computes the month's sales summary. The three aggregations are
// independent and run concurrently.
func (s *ReportService) Statistics(ctx context.Context, month int) (core.Statistics, error) {
	key := s.cacheKey(month)
	if stats, found := s.statsCache.Get(key); found {
		return stats, nil
	}

	start, end := core.MonthRange(s.year, month)

	var stats core.Statistics
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats.TotalSaleAmount, err = s.store.SumSoldAmount(gctx, start, end)
		return err
	})
	g.Go(func() error {
		var err error
		stats.TotalSoldItems, err = s.store.CountSold(gctx, start, end)
		return err
	})
	g.Go(func() error {
		var err error
		stats.TotalNotSoldItems, err = s.store.CountUnsold(gctx, start, end)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Statistics{}, fmt.Errorf("statistics (month=%d): %w", month, err)
	}

	s.statsCache.Set(key, stats)
	return stats, nil
}

// BarChart counts the month's transactions per fixed price bucket. The ten
// counts run concurrently and are reassembled in declaration order; one
// failing count fails the whole histogram.
func (s *ReportService) BarChart(ctx context.Context, month int) ([]core.BarChartEntry, error) {
	key := s.cacheKey(month)
	if entries, found := s.barCache.Get(key); found {
		return copySlice(entries), nil
	}

	start, end := core.MonthRange(s.year, month)

	entries := make([]core.BarChartEntry, len(core.PriceBuckets))
	g, gctx := errgroup.WithContext(ctx)
	for i, bucket := range core.PriceBuckets {
		g.Go(func() error {
			var max *float64
			if !math.IsInf(bucket.Max, 1) {
				max = &bucket.Max
			}
			count, err := s.store.CountPriceRange(gctx, start, end, bucket.Min, max)
			if err != nil {
				return err
			}
			entries[i] = core.BarChartEntry{Range: bucket.Label(), Count: count}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("bar chart (month=%d): %w", month, err)
	}

	s.barCache.Set(key, entries)
	return copySlice(entries), nil
}

// PieChart breaks the month down by category. Absent categories produce no
// entry; ordering is not guaranteed.
func (s *ReportService) PieChart(ctx context.Context, month int) ([]core.CategoryCount, error) {
	key := s.cacheKey(month)
	if counts, found := s.pieCache.Get(key); found {
		return copySlice(counts), nil
	}

	start, end := core.MonthRange(s.year, month)
	counts, err := s.store.CountByCategory(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("pie chart (month=%d): %w", month, err)
	}

	s.pieCache.Set(key, counts)
	return copySlice(counts), nil
}

// Combined fans out to the four report operations in-process with identical
// parameters and joins the results under fixed keys. All-or-nothing: the
// first failing sub-report fails the whole call.
func (s *ReportService) Combined(ctx context.Context, month, page, perPage int, search string) (core.CombinedReport, error) {
	var report core.CombinedReport

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		report.Transactions, err = s.ListTransactions(gctx, month, page, perPage, search)
		return err
	})
	g.Go(func() error {
		var err error
		report.Statistics, err = s.Statistics(gctx, month)
		return err
	})
	g.Go(func() error {
		var err error
		report.BarChart, err = s.BarChart(gctx, month)
		return err
	})
	g.Go(func() error {
		var err error
		report.PieChart, err = s.PieChart(gctx, month)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.CombinedReport{}, fmt.Errorf("combined report (month=%d): %w", month, err)
	}

	return report, nil
}

// CleanExpiredCaches drops expired report cache entries and returns how many
// were removed. Called periodically by the server.
func (s *ReportService) CleanExpiredCaches() int {
	return s.statsCache.CleanExpired() + s.barCache.CleanExpired() + s.pieCache.CleanExpired()
}

func (s *ReportService) cacheKey(month int) string {
	return strconv.Itoa(s.year) + "-" + strconv.Itoa(month)
}

func copySlice[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}
