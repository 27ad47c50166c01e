package core

import (
	"fmt"
	"math"
)

// Statistics is the month-scoped sales summary.
type Statistics struct {
	TotalSaleAmount   float64 `json:"totalSaleAmount"`
	TotalSoldItems    int64   `json:"totalSoldItems"`
	TotalNotSoldItems int64   `json:"totalNotSoldItems"`
}

// PriceBucket is one fixed histogram bucket. Max is +Inf for the open-ended
// top bucket.
type PriceBucket struct {
	Min float64
	Max float64
}

// Label renders the bucket bounds the way the API reports them, e.g.
// "101-200" or "901-above".
func (b PriceBucket) Label() string {
	if math.IsInf(b.Max, 1) {
		return fmt.Sprintf("%d-above", int(b.Min))
	}
	return fmt.Sprintf("%d-%d", int(b.Min), int(b.Max))
}

// Contains reports whether a price falls inclusively within the bucket.
func (b PriceBucket) Contains(price float64) bool {
	return price >= b.Min && price <= b.Max
}

// PriceBuckets are the ten histogram buckets in their fixed reporting order.
// Bounds are inclusive on both ends.
var PriceBuckets = [10]PriceBucket{
	{Min: 0, Max: 100},
	{Min: 101, Max: 200},
	{Min: 201, Max: 300},
	{Min: 301, Max: 400},
	{Min: 401, Max: 500},
	{Min: 501, Max: 600},
	{Min: 601, Max: 700},
	{Min: 701, Max: 800},
	{Min: 801, Max: 900},
	{Min: 901, Max: math.Inf(1)},
}

// BarChartEntry is one labelled histogram bucket with its document count.
type BarChartEntry struct {
	Range string `json:"range"`
	Count int64  `json:"count"`
}

// CategoryCount is a per-category document count within a month.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// CombinedReport bundles the four month-scoped reports into one payload.
type CombinedReport struct {
	Transactions []Transaction   `json:"transactions"`
	Statistics   Statistics      `json:"statistics"`
	BarChart     []BarChartEntry `json:"barChart"`
	PieChart     []CategoryCount `json:"pieChart"`
}
