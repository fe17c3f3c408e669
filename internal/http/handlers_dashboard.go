package http

import (
	"net/http"
)

// handleDashboard assembles the monthly summary in one response: the
// period total, per-category breakdowns, budget alerts and the years
// the picker can offer.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, userID int64) {
	year, month := parseYearMonth(r)
	ctx := r.Context()

	total, err := s.summary.TotalExpenditure(ctx, userID, year, month)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	totals, err := s.summary.PerCategoryTotals(ctx, userID, year, month)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	averages, err := s.summary.PerCategoryAverages(ctx, userID, year, month)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	alerts, err := s.alerts.Generate(ctx, userID, year, month)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	years, err := s.summary.AvailableYears(ctx, userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"year":     year,
		"month":    month,
		"total":    total,
		"totals":   totals,
		"averages": averages,
		"alerts":   alerts,
		"years":    years,
	})
}
