package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"salesdash/internal/core"

	_ "modernc.org/sqlite"
)

// dateLayout is the canonical text form of date_of_sale. RFC 3339 in UTC
// with fixed-width fractional seconds: every timestamp renders at the same
// length, so lexicographic comparison in SQL matches chronological order.
// RFC3339Nano would trim trailing zeros and break that for sub-second values.
const dateLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ReplaceAll swaps the whole collection for the given records inside a single
// SQL transaction: readers see either the old set or the new one. IDs are
// assigned by the store, never carried over from the source.
func (r *SQLiteRepository) ReplaceAll(ctx context.Context, txns []core.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("delete existing transactions: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions (title, price, description, category, image, sold, date_of_sale)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range txns {
		_, err := stmt.ExecContext(ctx,
			t.Title, t.Price, t.Description, t.Category, t.Image,
			boolToInt(t.Sold), t.DateOfSale.UTC().Format(dateLayout))
		if err != nil {
			return fmt.Errorf("insert transaction %q: %w", t.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}

	slog.InfoContext(ctx, "Transaction collection replaced", "count", len(txns))
	return nil
}

// List returns the filter's page of transactions in store order. The search
// term matches title, description, or the price rendered as text,
// case-insensitively.
func (r *SQLiteRepository) List(ctx context.Context, f core.ListFilter) ([]core.Transaction, error) {
	query := `
		SELECT id, title, price, description, category, image, sold, date_of_sale
		FROM transactions
		WHERE date_of_sale >= ? AND date_of_sale <= ?`
	args := []any{f.Start.UTC().Format(dateLayout), f.End.UTC().Format(dateLayout)}

	if f.Search != "" {
		pattern := "%" + strings.ToLower(f.Search) + "%"
		query += ` AND (LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR CAST(price AS TEXT) LIKE ?)`
		args = append(args, pattern, pattern, pattern)
	}

	query += ` LIMIT ? OFFSET ?`
	args = append(args, f.Limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	txns := []core.Transaction{}
	for rows.Next() {
		var (
			t        core.Transaction
			sold     int
			saleDate string
		)
		if err := rows.Scan(&t.ID, &t.Title, &t.Price, &t.Description, &t.Category, &t.Image, &sold, &saleDate); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Sold = sold != 0
		if t.DateOfSale, err = time.Parse(dateLayout, saleDate); err != nil {
			return nil, fmt.Errorf("parse date_of_sale %q: %w", saleDate, err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return txns, nil
}

// SumSoldAmount totals the price of sold transactions in the date range.
// An empty range sums to 0.
func (r *SQLiteRepository) SumSoldAmount(ctx context.Context, start, end time.Time) (float64, error) {
	var total float64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(price), 0)
		FROM transactions
		WHERE sold = 1 AND date_of_sale >= ? AND date_of_sale <= ?`,
		start.UTC().Format(dateLayout), end.UTC().Format(dateLayout)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum sold amount: %w", err)
	}
	return total, nil
}

// CountSold counts sold transactions in the date range.
func (r *SQLiteRepository) CountSold(ctx context.Context, start, end time.Time) (int64, error) {
	return r.countWhere(ctx, `sold = 1`, start, end)
}

// CountUnsold counts unsold transactions in the date range.
func (r *SQLiteRepository) CountUnsold(ctx context.Context, start, end time.Time) (int64, error) {
	return r.countWhere(ctx, `sold = 0`, start, end)
}

// Count counts all transactions in the date range.
func (r *SQLiteRepository) Count(ctx context.Context, start, end time.Time) (int64, error) {
	return r.countWhere(ctx, `1 = 1`, start, end)
}

func (r *SQLiteRepository) countWhere(ctx context.Context, cond string, start, end time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM transactions
		WHERE `+cond+` AND date_of_sale >= ? AND date_of_sale <= ?`,
		start.UTC().Format(dateLayout), end.UTC().Format(dateLayout)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count transactions (%s): %w", cond, err)
	}
	return n, nil
}

// CountPriceRange counts transactions in the date range whose price lies
// inclusively within [min, max]. A nil max leaves the range unbounded above.
func (r *SQLiteRepository) CountPriceRange(ctx context.Context, start, end time.Time, min float64, max *float64) (int64, error) {
	query := `
		SELECT COUNT(*) FROM transactions
		WHERE date_of_sale >= ? AND date_of_sale <= ? AND price >= ?`
	args := []any{start.UTC().Format(dateLayout), end.UTC().Format(dateLayout), min}

	if max != nil {
		query += ` AND price <= ?`
		args = append(args, *max)
	}

	var n int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count price range: %w", err)
	}
	return n, nil
}

// CountByCategory groups transactions in the date range by category. Only
// categories actually present are returned; ordering follows the store.
func (r *SQLiteRepository) CountByCategory(ctx context.Context, start, end time.Time) ([]core.CategoryCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT category, COUNT(*)
		FROM transactions
		WHERE date_of_sale >= ? AND date_of_sale <= ?
		GROUP BY category`,
		start.UTC().Format(dateLayout), end.UTC().Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("count by category: %w", err)
	}
	defer rows.Close()

	counts := []core.CategoryCount{}
	for rows.Next() {
		var c core.CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category counts: %w", err)
	}

	return counts, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
