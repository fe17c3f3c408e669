package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"outlay/internal/amqp"
	"outlay/internal/core"
)

var (
	// ErrNotFound reports a lookup for an id the ledger does not hold.
	ErrNotFound = errors.New("expense not found")
	// ErrForbidden reports an operation on an expense owned by a
	// different user.
	ErrForbidden = errors.New("expense belongs to a different user")
)

// ExpenseService manages the expense lifecycle. All operations take an
// explicit userID; the service never reads authentication context.
type ExpenseService struct {
	ledger Ledger
	events EventPublisher
	now    func() time.Time
}

func NewExpenseService(ledger Ledger, events EventPublisher) *ExpenseService {
	return &ExpenseService{
		ledger: ledger,
		events: events,
		now:    time.Now,
	}
}

// List returns one page of the user's expenses for year/month, newest
// first. page is 1-based.
func (s *ExpenseService) List(ctx context.Context, userID int64, year, month, page, pageSize int) ([]core.Expense, error) {
	if page < 1 {
		page = 1
	}
	criteria := core.Criteria{UserID: userID, Year: year, Month: month}
	expenses, err := s.ledger.FindBy(ctx, criteria, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

// Count returns the number of matching rows, ignoring pagination.
func (s *ExpenseService) Count(ctx context.Context, userID int64, year, month int) (int64, error) {
	count, err := s.ledger.CountBy(ctx, core.Criteria{UserID: userID, Year: year, Month: month})
	if err != nil {
		return 0, fmt.Errorf("count expenses: %w", err)
	}
	return count, nil
}

// AvailableYears lists the years present in the user's ledger,
// ascending, always including the current year.
func (s *ExpenseService) AvailableYears(ctx context.Context, userID int64) ([]int, error) {
	years, err := s.ledger.ListExpenditureYears(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenditure years: %w", err)
	}
	return years, nil
}

// FindByID returns the expense or ErrNotFound.
func (s *ExpenseService) FindByID(ctx context.Context, id int64) (*core.Expense, error) {
	e, err := s.ledger.Find(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find expense: %w", err)
	}
	if e == nil {
		return nil, ErrNotFound
	}
	return e, nil
}

// Create validates and persists a new expense for the user, then
// notifies the export queue.
func (s *ExpenseService) Create(ctx context.Context, userID int64, amountCents int64, description string, date time.Time, category string) (*core.Expense, error) {
	e := &core.Expense{
		UserID:      userID,
		Date:        date,
		Category:    category,
		Amount:      core.Money{Cents: amountCents},
		Description: description,
	}
	if err := e.Validate(s.now()); err != nil {
		return nil, err
	}
	if err := s.ledger.Save(ctx, e); err != nil {
		return nil, fmt.Errorf("save expense: %w", err)
	}

	s.publish(ctx, e.ID, amqp.ActionUpsert)
	return e, nil
}

// Update re-validates every field and persists. The ownership gate
// runs before any mutation is applied.
func (s *ExpenseService) Update(ctx context.Context, userID, id int64, amountCents int64, description string, date time.Time, category string) (*core.Expense, error) {
	e, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.UserID != userID {
		return nil, ErrForbidden
	}

	e.Date = date
	e.Category = category
	e.Amount = core.Money{Cents: amountCents}
	e.Description = description

	if err := e.Validate(s.now()); err != nil {
		return nil, err
	}
	if err := s.ledger.Save(ctx, e); err != nil {
		return nil, fmt.Errorf("save expense: %w", err)
	}

	s.publish(ctx, e.ID, amqp.ActionUpsert)
	return e, nil
}

// Delete removes the user's expense by id.
func (s *ExpenseService) Delete(ctx context.Context, userID, id int64) error {
	e, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if e.UserID != userID {
		return ErrForbidden
	}

	if err := s.ledger.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	s.publish(ctx, id, amqp.ActionDelete)
	return nil
}

// publish is best effort: the row is already durable locally, so a
// queue failure must never fail the request.
func (s *ExpenseService) publish(ctx context.Context, id int64, action string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishExpenseEvent(ctx, id, action); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense event",
			"id", id, "action", action, "error", err)
	}
}
