package services

import (
	"context"
	"fmt"

	"outlay/internal/core"
	"outlay/internal/storage"
)

// SummaryService derives monthly reporting figures from the ledger.
// Pure read-through computations, no side effects. Aggregation happens
// in cents inside the store; this layer converts to major units and
// annotates percentages.
type SummaryService struct {
	ledger Ledger
}

func NewSummaryService(ledger Ledger) *SummaryService {
	return &SummaryService{ledger: ledger}
}

// TotalExpenditure returns the month's total in major units.
func (s *SummaryService) TotalExpenditure(ctx context.Context, userID int64, year, month int) (float64, error) {
	cents, err := s.ledger.SumAmounts(ctx, core.Criteria{UserID: userID, Year: year, Month: month})
	if err != nil {
		return 0, fmt.Errorf("sum amounts: %w", err)
	}
	return core.Money{Cents: cents}.Major(), nil
}

// PerCategoryTotals returns per-category sums, largest first, each
// annotated with its percentage of the month's total expenditure.
func (s *SummaryService) PerCategoryTotals(ctx context.Context, userID int64, year, month int) ([]core.CategoryAggregate, error) {
	criteria := core.Criteria{UserID: userID, Year: year, Month: month}
	sums, err := s.ledger.SumAmountsByCategory(ctx, criteria)
	if err != nil {
		return nil, fmt.Errorf("sum amounts by category: %w", err)
	}
	return s.annotate(ctx, criteria, sums)
}

// PerCategoryAverages returns per-category averages, largest first.
// The percentage is computed against the month's total expenditure,
// not an average-based total; the ratio deliberately mixes magnitudes
// to match the totals view.
func (s *SummaryService) PerCategoryAverages(ctx context.Context, userID int64, year, month int) ([]core.CategoryAggregate, error) {
	criteria := core.Criteria{UserID: userID, Year: year, Month: month}
	avgs, err := s.ledger.AverageAmountsByCategory(ctx, criteria)
	if err != nil {
		return nil, fmt.Errorf("average amounts by category: %w", err)
	}
	return s.annotate(ctx, criteria, avgs)
}

// AvailableYears lists the user's expenditure years for the period
// selector.
func (s *SummaryService) AvailableYears(ctx context.Context, userID int64) ([]int, error) {
	years, err := s.ledger.ListExpenditureYears(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenditure years: %w", err)
	}
	return years, nil
}

func (s *SummaryService) annotate(ctx context.Context, criteria core.Criteria, sums []storage.CategorySum) ([]core.CategoryAggregate, error) {
	totalCents, err := s.ledger.SumAmounts(ctx, criteria)
	if err != nil {
		return nil, fmt.Errorf("sum amounts: %w", err)
	}

	aggregates := make([]core.CategoryAggregate, len(sums))
	for i, sum := range sums {
		agg := core.CategoryAggregate{
			Category: sum.Category,
			Value:    core.Money{Cents: sum.Cents}.Major(),
		}
		if totalCents > 0 {
			// Ratio in cents, percentage at the boundary.
			agg.Percentage = float64(sum.Cents) / float64(totalCents) * 100
		}
		aggregates[i] = agg
	}
	return aggregates, nil
}
