package services

import (
	"context"
	"fmt"
	"strings"

	"outlay/internal/core"
)

// Alert kinds.
const (
	AlertOverBudget = "over-budget"
	AlertOnBudget   = "on-budget"
)

// Alert is one budget finding for the dashboard. Over-budget alerts
// carry the category, spend, ceiling and overage; the on-budget
// summary carries the total spend across configured categories in
// Spent.
type Alert struct {
	Kind     string  `json:"kind"`
	Category string  `json:"category,omitempty"`
	Spent    float64 `json:"spent"`
	Budget   float64 `json:"budget,omitempty"`
	Overage  float64 `json:"overage,omitempty"`
	Message  string  `json:"message"`
}

// AlertGenerator compares per-category spending against the injected
// budget table.
type AlertGenerator struct {
	summary *SummaryService
	budgets core.BudgetTable
}

func NewAlertGenerator(summary *SummaryService, budgets core.BudgetTable) *AlertGenerator {
	return &AlertGenerator{summary: summary, budgets: budgets}
}

// Generate walks the budget table in order and emits an over-budget
// alert for every exceeded category. When nothing overran and the
// table is non-empty, a single trailing on-budget alert sums the spend
// of the configured categories (spending outside the table is not
// counted). An empty table produces no alerts.
func (g *AlertGenerator) Generate(ctx context.Context, userID int64, year, month int) ([]Alert, error) {
	if len(g.budgets) == 0 {
		return nil, nil
	}

	totals, err := g.summary.PerCategoryTotals(ctx, userID, year, month)
	if err != nil {
		return nil, fmt.Errorf("per-category totals: %w", err)
	}

	var (
		alerts     []Alert
		totalSpent float64
	)
	for _, entry := range g.budgets {
		spent := spentFor(totals, entry.Category)
		totalSpent += spent

		if spent > entry.Limit {
			overage := spent - entry.Limit
			alerts = append(alerts, Alert{
				Kind:     AlertOverBudget,
				Category: entry.Category,
				Spent:    spent,
				Budget:   entry.Limit,
				Overage:  overage,
				Message: fmt.Sprintf(
					"You spent %.2f on %s, which is more than your budget of %.2f (%.2f over budget)",
					spent, strings.ToLower(entry.Category), entry.Limit, overage),
			})
		}
	}

	if len(alerts) == 0 {
		alerts = append(alerts, Alert{
			Kind:    AlertOnBudget,
			Spent:   totalSpent,
			Message: fmt.Sprintf("You are on budget! Total spent: %.2f", totalSpent),
		})
	}

	return alerts, nil
}

// spentFor finds the total for a category by case-insensitive name
// match, first match wins. Missing categories count as zero spend.
func spentFor(totals []core.CategoryAggregate, category string) float64 {
	for _, t := range totals {
		if strings.EqualFold(t.Category, category) {
			return t.Value
		}
	}
	return 0
}
