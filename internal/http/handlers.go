package http

import (
	"log/slog"
	"net/http"
)

const (
	msgInvalidMonth     = "month must be a number between 1 and 12"
	msgInitFailed       = "failed to initialize the transaction dataset"
	msgListFailed       = "failed to list transactions"
	msgStatsFailed      = "failed to compute statistics"
	msgBarChartFailed   = "failed to compute the price range chart"
	msgPieChartFailed   = "failed to compute the category chart"
	msgCombinedFailed   = "failed to compute the combined report"
	msgMethodNotAllowed = "only GET is supported"
)

func requireGET(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return false
	}
	return true
}

// handleInit refetches the seed dataset and replaces the whole collection.
func (s *Server) handleInit(w http.ResponseWriter, r *http.Request) {
	if !requireGET(w, r) {
		return
	}

	count, err := s.reports.Reload(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Dataset reload failed", "error", err)
		writeError(w, http.StatusInternalServerError, msgInitFailed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "database initialized",
		"count":   count,
	})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	if !requireGET(w, r) {
		return
	}

	params, err := ParseListParams(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidMonth)
		return
	}

	txns, err := s.reports.ListTransactions(r.Context(), params.Month, params.Page, params.PerPage, params.Search)
	if err != nil {
		slog.ErrorContext(r.Context(), "Transaction listing failed", "error", err, "month", params.Month)
		writeError(w, http.StatusInternalServerError, msgListFailed)
		return
	}

	writeJSON(w, http.StatusOK, txns)
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	if !requireGET(w, r) {
		return
	}

	month, err := ParseMonth(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidMonth)
		return
	}

	stats, err := s.reports.Statistics(r.Context(), month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Statistics failed", "error", err, "month", month)
		writeError(w, http.StatusInternalServerError, msgStatsFailed)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleBarChart(w http.ResponseWriter, r *http.Request) {
	if !requireGET(w, r) {
		return
	}

	month, err := ParseMonth(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidMonth)
		return
	}

	entries, err := s.reports.BarChart(r.Context(), month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Bar chart failed", "error", err, "month", month)
		writeError(w, http.StatusInternalServerError, msgBarChartFailed)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handlePieChart(w http.ResponseWriter, r *http.Request) {
	if !requireGET(w, r) {
		return
	}

	month, err := ParseMonth(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidMonth)
		return
	}

	counts, err := s.reports.PieChart(r.Context(), month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Pie chart failed", "error", err, "month", month)
		writeError(w, http.StatusInternalServerError, msgPieChartFailed)
		return
	}

	writeJSON(w, http.StatusOK, counts)
}

// handleCombined assembles the listing, statistics and both charts for a
// month in a single response.
func (s *Server) handleCombined(w http.ResponseWriter, r *http.Request) {
	if !requireGET(w, r) {
		return
	}

	params, err := ParseListParams(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidMonth)
		return
	}

	report, err := s.reports.Combined(r.Context(), params.Month, params.Page, params.PerPage, params.Search)
	if err != nil {
		slog.ErrorContext(r.Context(), "Combined report failed", "error", err, "month", params.Month)
		writeError(w, http.StatusInternalServerError, msgCombinedFailed)
		return
	}

	writeJSON(w, http.StatusOK, report)
}
