package http

import (
	"net/http"

	"tracker/internal/auth"
	"tracker/internal/store"
)

// handleSummary returns the owner's aggregation snapshot: every entry,
// the newest few for the dashboard preview, and the running totals.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())

	ctx, cancel := storeContext(r)
	defer cancel()

	snap, err := s.entries.Snapshot(ctx, user.Email)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type dailyReportResponse struct {
	Days []store.DailySummary `json:"days"`
}

// handleDailyReport serves the per-day totals the worker maintains.
func (s *Server) handleDailyReport(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())

	if s.reports == nil {
		writeErrorStatus(w, http.StatusNotImplemented, "daily reports not configured")
		return
	}

	ctx, cancel := storeContext(r)
	defer cancel()

	days, err := s.reports.ListDailySummaries(ctx, user.Email)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if days == nil {
		days = []store.DailySummary{}
	}
	writeJSON(w, http.StatusOK, dailyReportResponse{Days: days})
}
