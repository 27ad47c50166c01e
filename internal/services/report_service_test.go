package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"salesdash/internal/core"
)

// fakeStore serves Store queries from an in-memory slice, with optional
// per-operation failure injection.
type fakeStore struct {
	docs   []core.Transaction
	failOn string
}

func (f *fakeStore) fail(op string) error {
	if f.failOn == op {
		return errors.New(op + " failed")
	}
	return nil
}

func inRange(t core.Transaction, start, end time.Time) bool {
	return !t.DateOfSale.Before(start) && !t.DateOfSale.After(end)
}

func (f *fakeStore) ReplaceAll(ctx context.Context, txns []core.Transaction) error {
	if err := f.fail("replace"); err != nil {
		return err
	}
	f.docs = append([]core.Transaction(nil), txns...)
	return nil
}

func (f *fakeStore) List(ctx context.Context, filter core.ListFilter) ([]core.Transaction, error) {
	if err := f.fail("list"); err != nil {
		return nil, err
	}
	matched := []core.Transaction{}
	search := strings.ToLower(filter.Search)
	for _, d := range f.docs {
		if !inRange(d, filter.Start, filter.End) {
			continue
		}
		if search != "" {
			price := strconv.FormatFloat(d.Price, 'f', -1, 64)
			if !strings.Contains(strings.ToLower(d.Title), search) &&
				!strings.Contains(strings.ToLower(d.Description), search) &&
				!strings.Contains(price, search) {
				continue
			}
		}
		matched = append(matched, d)
	}
	if filter.Offset >= len(matched) {
		return []core.Transaction{}, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (f *fakeStore) SumSoldAmount(ctx context.Context, start, end time.Time) (float64, error) {
	if err := f.fail("sum"); err != nil {
		return 0, err
	}
	var sum float64
	for _, d := range f.docs {
		if d.Sold && inRange(d, start, end) {
			sum += d.Price
		}
	}
	return sum, nil
}

func (f *fakeStore) CountSold(ctx context.Context, start, end time.Time) (int64, error) {
	if err := f.fail("countSold"); err != nil {
		return 0, err
	}
	var n int64
	for _, d := range f.docs {
		if d.Sold && inRange(d, start, end) {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) CountUnsold(ctx context.Context, start, end time.Time) (int64, error) {
	if err := f.fail("countUnsold"); err != nil {
		return 0, err
	}
	var n int64
	for _, d := range f.docs {
		if !d.Sold && inRange(d, start, end) {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) Count(ctx context.Context, start, end time.Time) (int64, error) {
	if err := f.fail("count"); err != nil {
		return 0, err
	}
	var n int64
	for _, d := range f.docs {
		if inRange(d, start, end) {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) CountPriceRange(ctx context.Context, start, end time.Time, min float64, max *float64) (int64, error) {
	if err := f.fail("priceRange"); err != nil {
		return 0, err
	}
	var n int64
	for _, d := range f.docs {
		if !inRange(d, start, end) {
			continue
		}
		if d.Price < min {
			continue
		}
		if max != nil && d.Price > *max {
			continue
		}
		n++
	}
	return n, nil
}

func (f *fakeStore) CountByCategory(ctx context.Context, start, end time.Time) ([]core.CategoryCount, error) {
	if err := f.fail("byCategory"); err != nil {
		return nil, err
	}
	order := []string{}
	byCat := map[string]int64{}
	for _, d := range f.docs {
		if !inRange(d, start, end) {
			continue
		}
		if _, seen := byCat[d.Category]; !seen {
			order = append(order, d.Category)
		}
		byCat[d.Category]++
	}
	counts := []core.CategoryCount{}
	for _, cat := range order {
		counts = append(counts, core.CategoryCount{Category: cat, Count: byCat[cat]})
	}
	return counts, nil
}

type fakeFetcher struct {
	docs []core.Transaction
	err  error
}

func (f *fakeFetcher) Fetch(ctx context.Context) ([]core.Transaction, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.docs, nil
}

type fakePublisher struct {
	published []int
	err       error
}

func (f *fakePublisher) PublishDatasetRefresh(ctx context.Context, count int, source string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, count)
	return nil
}

func date(month, day int) time.Time {
	return time.Date(2022, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// The single-document scenario exercised across statistics, bar chart and
// pie chart.
func bagStore() *fakeStore {
	return &fakeStore{docs: []core.Transaction{
		{ID: 1, Title: "Bag", Price: 150, Category: "Clothing", Sold: true, DateOfSale: date(3, 5)},
	}}
}

func newService(store Store) *ReportService {
	return NewReportService(store, &fakeFetcher{}, nil, Options{Year: 2022})
}

func TestStatisticsSingleDocument(t *testing.T) {
	svc := newService(bagStore())

	stats, err := svc.Statistics(context.Background(), 3)
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}

	want := core.Statistics{TotalSaleAmount: 150, TotalSoldItems: 1, TotalNotSoldItems: 0}
	if stats != want {
		t.Errorf("Statistics = %+v, want %+v", stats, want)
	}
}

func TestStatisticsEmptyMonthIsZero(t *testing.T) {
	svc := newService(bagStore())

	stats, err := svc.Statistics(context.Background(), 11)
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	if stats.TotalSaleAmount != 0 {
		t.Errorf("TotalSaleAmount = %v, want 0 for a month with no sold documents", stats.TotalSaleAmount)
	}
}

func TestBarChartSingleDocument(t *testing.T) {
	svc := newService(bagStore())

	entries, err := svc.BarChart(context.Background(), 3)
	if err != nil {
		t.Fatalf("BarChart: %v", err)
	}

	if len(entries) != 10 {
		t.Fatalf("BarChart returned %d entries, want 10", len(entries))
	}
	for i, e := range entries {
		wantLabel := core.PriceBuckets[i].Label()
		if e.Range != wantLabel {
			t.Errorf("entry %d range = %q, want %q", i, e.Range, wantLabel)
		}
		wantCount := int64(0)
		if e.Range == "101-200" {
			wantCount = 1
		}
		if e.Count != wantCount {
			t.Errorf("bucket %q count = %d, want %d", e.Range, e.Count, wantCount)
		}
	}
}

func TestBarChartCountsSumToPricedDocuments(t *testing.T) {
	store := &fakeStore{docs: []core.Transaction{
		{Title: "A", Price: 0, DateOfSale: date(5, 1)},
		{Title: "B", Price: 100, DateOfSale: date(5, 2)},
		{Title: "C", Price: 450.75, DateOfSale: date(5, 3)},
		{Title: "D", Price: 901, DateOfSale: date(5, 4)},
		{Title: "E", Price: 12000, DateOfSale: date(5, 5)},
		{Title: "F", Price: 55, DateOfSale: date(6, 1)}, // outside month
	}}
	svc := newService(store)

	entries, err := svc.BarChart(context.Background(), 5)
	if err != nil {
		t.Fatalf("BarChart: %v", err)
	}

	var sum int64
	for _, e := range entries {
		sum += e.Count
	}
	if sum != 5 {
		t.Errorf("bucket counts sum to %d, want 5 (documents in range)", sum)
	}
}

func TestBarChartFailsWholeOnAnyBucketError(t *testing.T) {
	store := bagStore()
	store.failOn = "priceRange"
	svc := newService(store)

	entries, err := svc.BarChart(context.Background(), 3)
	if err == nil {
		t.Fatal("BarChart should fail when a bucket count fails")
	}
	if entries != nil {
		t.Errorf("BarChart returned partial histogram %v, want nil", entries)
	}
}

func TestPieChartSingleDocument(t *testing.T) {
	svc := newService(bagStore())

	counts, err := svc.PieChart(context.Background(), 3)
	if err != nil {
		t.Fatalf("PieChart: %v", err)
	}
	if len(counts) != 1 || counts[0].Category != "Clothing" || counts[0].Count != 1 {
		t.Errorf("PieChart = %v, want [{Clothing 1}]", counts)
	}
}

func TestPieChartNoZeroCountEntries(t *testing.T) {
	svc := newService(bagStore())

	counts, err := svc.PieChart(context.Background(), 9)
	if err != nil {
		t.Fatalf("PieChart: %v", err)
	}
	if len(counts) != 0 {
		t.Errorf("PieChart for an empty month = %v, want no entries", counts)
	}
}

func TestCombinedMatchesIndividualReports(t *testing.T) {
	store := &fakeStore{docs: []core.Transaction{
		{ID: 1, Title: "Bag", Price: 150, Category: "Clothing", Sold: true, DateOfSale: date(3, 5)},
		{ID: 2, Title: "Laptop", Price: 950, Category: "Electronics", Sold: false, DateOfSale: date(3, 7)},
		{ID: 3, Title: "Shirt", Price: 45, Category: "Clothing", Sold: true, DateOfSale: date(3, 9)},
	}}
	svc := newService(store)
	ctx := context.Background()

	combined, err := svc.Combined(ctx, 3, 1, 10, "")
	if err != nil {
		t.Fatalf("Combined: %v", err)
	}

	txns, err := svc.ListTransactions(ctx, 3, 1, 10, "")
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	stats, err := svc.Statistics(ctx, 3)
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	bar, err := svc.BarChart(ctx, 3)
	if err != nil {
		t.Fatalf("BarChart: %v", err)
	}
	pie, err := svc.PieChart(ctx, 3)
	if err != nil {
		t.Fatalf("PieChart: %v", err)
	}

	want := core.CombinedReport{Transactions: txns, Statistics: stats, BarChart: bar, PieChart: pie}

	gotJSON, err := json.Marshal(combined)
	if err != nil {
		t.Fatalf("marshal combined: %v", err)
	}
	wantJSON, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("marshal individual: %v", err)
	}
	if string(gotJSON) != string(wantJSON) {
		t.Errorf("Combined = %s, want the individual reports %s", gotJSON, wantJSON)
	}
}

func TestCombinedFailsWholeOnAnySubReport(t *testing.T) {
	store := bagStore()
	store.failOn = "byCategory"
	svc := newService(store)

	if _, err := svc.Combined(context.Background(), 3, 1, 10, ""); err == nil {
		t.Fatal("Combined should fail when any sub-report fails")
	}
}

func TestListTransactionsPagination(t *testing.T) {
	docs := make([]core.Transaction, 15)
	for i := range docs {
		docs[i] = core.Transaction{Title: "Item", Price: float64(i), DateOfSale: date(2, 1+i)}
	}
	svc := newService(&fakeStore{docs: docs})
	ctx := context.Background()

	page2, err := svc.ListTransactions(ctx, 2, 2, 10, "")
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(page2) != 5 {
		t.Errorf("page 2 has %d items, want 5", len(page2))
	}

	// Out-of-range paging values fall back to defaults.
	defaulted, err := svc.ListTransactions(ctx, 2, 0, 0, "")
	if err != nil {
		t.Fatalf("ListTransactions with zero paging: %v", err)
	}
	if len(defaulted) != 10 {
		t.Errorf("defaulted page has %d items, want 10", len(defaulted))
	}
}

func TestListTransactionsSearch(t *testing.T) {
	svc := newService(&fakeStore{docs: []core.Transaction{
		{Title: "Bag", Description: "Leather", Price: 150, DateOfSale: date(3, 5)},
		{Title: "Shoes", Description: "Running", Price: 80, DateOfSale: date(3, 6)},
	}})

	got, err := svc.ListTransactions(context.Background(), 3, 1, 10, "150")
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Bag" {
		t.Errorf("search 150 = %v, want the Bag document", got)
	}
}

func TestReloadReplacesCollectionAndPublishes(t *testing.T) {
	store := &fakeStore{}
	fetcher := &fakeFetcher{docs: []core.Transaction{
		{Title: "Bag", Price: 150, Category: "Clothing", Sold: true, DateOfSale: date(3, 5)},
		{Title: "Laptop", Price: 950, Category: "Electronics", DateOfSale: date(4, 1)},
	}}
	pub := &fakePublisher{}
	svc := NewReportService(store, fetcher, pub, Options{Year: 2022, DatasetURL: "https://example.com/seed.json"})

	n, err := svc.Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if n != 2 {
		t.Errorf("Reload count = %d, want 2", n)
	}
	if len(store.docs) != 2 {
		t.Errorf("store has %d documents, want 2", len(store.docs))
	}
	if len(pub.published) != 1 || pub.published[0] != 2 {
		t.Errorf("published = %v, want one event with count 2", pub.published)
	}
}

func TestReloadPurgesCachedReports(t *testing.T) {
	store := bagStore()
	fetcher := &fakeFetcher{docs: []core.Transaction{
		{Title: "Bag", Price: 150, Category: "Clothing", Sold: true, DateOfSale: date(3, 5)},
		{Title: "Hat", Price: 20, Category: "Clothing", Sold: true, DateOfSale: date(3, 6)},
	}}
	svc := NewReportService(store, fetcher, nil, Options{Year: 2022})
	ctx := context.Background()

	before, err := svc.Statistics(ctx, 3)
	if err != nil {
		t.Fatalf("Statistics before reload: %v", err)
	}
	if before.TotalSoldItems != 1 {
		t.Fatalf("TotalSoldItems before reload = %d, want 1", before.TotalSoldItems)
	}

	if _, err := svc.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	after, err := svc.Statistics(ctx, 3)
	if err != nil {
		t.Fatalf("Statistics after reload: %v", err)
	}
	if after.TotalSoldItems != 2 {
		t.Errorf("TotalSoldItems after reload = %d, want 2 (stale cache served)", after.TotalSoldItems)
	}
}

func TestReadyProbesStore(t *testing.T) {
	if err := newService(bagStore()).Ready(context.Background()); err != nil {
		t.Errorf("Ready with a healthy store: %v", err)
	}

	store := bagStore()
	store.failOn = "count"
	if err := newService(store).Ready(context.Background()); err == nil {
		t.Error("Ready should fail when the store count fails")
	}
}

func TestReloadFetchErrorPropagates(t *testing.T) {
	svc := NewReportService(&fakeStore{}, &fakeFetcher{err: errors.New("upstream down")}, nil, Options{Year: 2022})

	if _, err := svc.Reload(context.Background()); err == nil {
		t.Fatal("Reload should fail when the fetch fails")
	}
}

func TestReloadStoreErrorPropagates(t *testing.T) {
	store := &fakeStore{failOn: "replace"}
	svc := NewReportService(store, &fakeFetcher{docs: []core.Transaction{{Title: "X"}}}, nil, Options{Year: 2022})

	if _, err := svc.Reload(context.Background()); err == nil {
		t.Fatal("Reload should fail when the replace fails")
	}
}

func TestReloadPublisherErrorDoesNotFailReload(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewReportService(store, &fakeFetcher{docs: []core.Transaction{{Title: "X", DateOfSale: date(1, 1)}}}, pub, Options{Year: 2022})

	if _, err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("Reload should tolerate a failing publisher, got %v", err)
	}
}
