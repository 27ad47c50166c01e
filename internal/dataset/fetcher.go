// Package dataset fetches the upstream product-transaction dataset.
package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"salesdash/internal/core"
)

// Fetcher downloads the remote dataset: a plain JSON array of
// transaction-shaped records behind an unauthenticated URL.
type Fetcher struct {
	url        string
	httpClient *http.Client
}

func NewFetcher(url string, timeout time.Duration) *Fetcher {
	return &Fetcher{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch retrieves and decodes the dataset. There is no retry: a failed fetch
// is reported to the caller as-is.
func (f *Fetcher) Fetch(ctx context.Context) ([]core.Transaction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build dataset request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch dataset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("dataset source returned %d: %s", resp.StatusCode, string(body))
	}

	var txns []core.Transaction
	if err := json.NewDecoder(resp.Body).Decode(&txns); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}

	slog.InfoContext(ctx, "Dataset fetched", "url", f.url, "count", len(txns))
	return txns, nil
}
