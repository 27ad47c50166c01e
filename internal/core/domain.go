package core

import (
	"errors"
	"time"
)

type (
	// Transaction is a single product sale record as served by the upstream
	// dataset. Field tags match the upstream JSON exactly so records survive
	// a fetch-store-serve round trip unchanged.
	Transaction struct {
		ID          int64     `json:"id"`
		Title       string    `json:"title"`
		Price       float64   `json:"price"`
		Description string    `json:"description"`
		Category    string    `json:"category"`
		Image       string    `json:"image,omitempty"`
		Sold        bool      `json:"sold"`
		DateOfSale  time.Time `json:"dateOfSale"`
	}

	// ListFilter narrows a transaction listing to a date range and an
	// optional case-insensitive search over title, description and the
	// stringified price.
	ListFilter struct {
		Start  time.Time
		End    time.Time
		Search string
		Offset int
		Limit  int
	}
)

// ErrInvalidMonth marks a month parameter outside 1-12.
var ErrInvalidMonth = errors.New("invalid month")

// MonthRange returns the inclusive [start, end] day boundaries of a month in
// the given year. End is computed as day 0 of the following month, which
// yields the last calendar day for 28/29/30/31-day months alike.
//
// The function performs no bounds checking: out-of-range months normalize
// through time.Date arithmetic (month 13 becomes January of year+1). Callers
// wanting strict 1-12 semantics validate before calling.
func MonthRange(year, month int) (start, end time.Time) {
	start = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end = time.Date(year, time.Month(month)+1, 0, 23, 59, 59, 999999999, time.UTC)
	return start, end
}

// DaysIn returns the number of calendar days of a month in the given year.
func DaysIn(year, month int) int {
	_, end := MonthRange(year, month)
	return end.Day()
}
