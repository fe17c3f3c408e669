// Package core holds the expense domain model shared by the query,
// reporting and import layers.
package core

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidAmount    = errors.New("introduce a valid amount")
	ErrEmptyDescription = errors.New("write a description")
	ErrFutureDate       = errors.New("introduce the current date")
	ErrEmptyCategory    = errors.New("select a category")
)

type (
	// Expense is a single ledger entry. ID is zero until the store
	// assigns one on insert.
	Expense struct {
		ID          int64
		UserID      int64
		Date        time.Time // date-only, no time component
		Category    string
		Amount      Money
		Description string
	}

	// Criteria narrows ledger queries. Zero-valued fields are not
	// applied; set fields compose conjunctively. Year and Month match
	// the calendar components of the expense date.
	Criteria struct {
		UserID int64
		Year   int
		Month  int
	}

	// CategoryAggregate is one row of a grouped computation: the
	// summed or averaged value in major units, and its share of the
	// period's total expenditure.
	CategoryAggregate struct {
		Category   string  `json:"category"`
		Value      float64 `json:"value"`
		Percentage float64 `json:"percentage"`
	}
)

// NewDate builds a date-only time in UTC.
func NewDate(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// Validate checks the invariants shared by interactive creation,
// updates and the CSV import path. now anchors the future-date check.
func (e Expense) Validate(now time.Time) error {
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	if e.Date.After(now) {
		return ErrFutureDate
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}
