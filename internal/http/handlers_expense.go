package http

import (
	"io"
	"net/http"
	"strings"
	"time"

	"outlay/internal/core"
)

const requestDateLayout = "2006-01-02"

type expenseRequest struct {
	Date        string `json:"date"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

type expenseResponse struct {
	ID          int64   `json:"id"`
	Date        string  `json:"date"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	AmountCents int64   `json:"amount_cents"`
	Description string  `json:"description"`
}

func toExpenseResponse(e core.Expense) expenseResponse {
	return expenseResponse{
		ID:          e.ID,
		Date:        e.Date.Format(requestDateLayout),
		Category:    e.Category,
		Amount:      e.Amount.Major(),
		AmountCents: e.Amount.Cents,
		Description: e.Description,
	}
}

// parseExpenseRequest turns the wire form into store-ready values.
// Amounts travel as decimal strings so clients never do float math on
// money.
func (s *Server) parseExpenseRequest(w http.ResponseWriter, req expenseRequest) (cents int64, date time.Time, category string, ok bool) {
	date, err := time.Parse(requestDateLayout, strings.TrimSpace(req.Date))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "date must be YYYY-MM-DD")
		return 0, time.Time{}, "", false
	}

	cents, err = core.ParseDecimalToCents(strings.TrimSpace(req.Amount))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, core.ErrInvalidAmount.Error())
		return 0, time.Time{}, "", false
	}

	category, known := core.CanonicalCategory(req.Category)
	if !known {
		writeError(w, http.StatusUnprocessableEntity, core.ErrEmptyCategory.Error())
		return 0, time.Time{}, "", false
	}

	return cents, date, category, true
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request, userID int64) {
	year, month := parseYearMonth(r)
	page := parsePage(r)

	expenses, err := s.expenses.List(r.Context(), userID, year, month, page, s.pageSize)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	total, err := s.expenses.Count(r.Context(), userID, year, month)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	years, err := s.expenses.AvailableYears(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	items := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		items = append(items, toExpenseResponse(e))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"expenses":  items,
		"total":     total,
		"page":      page,
		"page_size": s.pageSize,
		"year":      year,
		"month":     month,
		"years":     years,
	})
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request, userID int64) {
	var req expenseRequest
	if !readJSON(w, r, &req) {
		return
	}
	cents, date, category, ok := s.parseExpenseRequest(w, req)
	if !ok {
		return
	}

	expense, err := s.expenses.Create(r.Context(), userID, cents, req.Description, date, category)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toExpenseResponse(*expense))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid expense id")
		return
	}
	var req expenseRequest
	if !readJSON(w, r, &req) {
		return
	}
	cents, date, category, ok := s.parseExpenseRequest(w, req)
	if !ok {
		return
	}

	expense, err := s.expenses.Update(r.Context(), userID, id, cents, req.Description, date, category)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseResponse(*expense))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid expense id")
		return
	}
	if err := s.expenses.Delete(r.Context(), userID, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleImportExpenses(w http.ResponseWriter, r *http.Request, userID int64) {
	body, err := io.ReadAll(io.LimitReader(r.Body, s.maxImportBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	if int64(len(body)) > s.maxImportBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
		return
	}

	result, err := s.importer.ImportCSV(r.Context(), userID, body)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
