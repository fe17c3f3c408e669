// Package services implements expense management, monthly reporting,
// budget alerts and bulk CSV import on top of the ledger store.
package services

import (
	"context"

	"outlay/internal/core"
	"outlay/internal/storage"
)

// Ledger is the store contract the services consume. storage's SQLite
// repository satisfies it; tests swap in a fake.
type Ledger interface {
	Find(ctx context.Context, id int64) (*core.Expense, error)
	Save(ctx context.Context, e *core.Expense) error
	Delete(ctx context.Context, id int64) error
	FindBy(ctx context.Context, c core.Criteria, offset, limit int) ([]core.Expense, error)
	CountBy(ctx context.Context, c core.Criteria) (int64, error)
	SumAmounts(ctx context.Context, c core.Criteria) (int64, error)
	SumAmountsByCategory(ctx context.Context, c core.Criteria) ([]storage.CategorySum, error)
	AverageAmountsByCategory(ctx context.Context, c core.Criteria) ([]storage.CategorySum, error)
	ListExpenditureYears(ctx context.Context, userID int64) ([]int, error)
}

// EventPublisher notifies downstream consumers of ledger changes. May
// be nil when no queue is configured.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, id int64, action string) error
}
