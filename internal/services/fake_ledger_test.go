package services

import (
	"context"
	"sort"
	"time"

	"outlay/internal/core"
	"outlay/internal/storage"
)

// fakeLedger is an in-memory Ledger mirroring the SQLite store's
// semantics closely enough for service tests.
type fakeLedger struct {
	nextID   int64
	expenses map[int64]core.Expense

	saveErr error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{nextID: 1, expenses: make(map[int64]core.Expense)}
}

func (f *fakeLedger) Find(_ context.Context, id int64) (*core.Expense, error) {
	e, ok := f.expenses[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (f *fakeLedger) Save(_ context.Context, e *core.Expense) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	if e.ID == 0 {
		e.ID = f.nextID
		f.nextID++
		f.expenses[e.ID] = *e
		return nil
	}
	// Update scoped to (id, user_id), like the SQL layer.
	existing, ok := f.expenses[e.ID]
	if ok && existing.UserID == e.UserID {
		f.expenses[e.ID] = *e
	}
	return nil
}

func (f *fakeLedger) Delete(_ context.Context, id int64) error {
	delete(f.expenses, id)
	return nil
}

func (f *fakeLedger) matching(c core.Criteria) []core.Expense {
	var out []core.Expense
	for _, e := range f.expenses {
		if c.UserID != 0 && e.UserID != c.UserID {
			continue
		}
		if c.Year != 0 && e.Date.Year() != c.Year {
			continue
		}
		if c.Month != 0 && int(e.Date.Month()) != c.Month {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (f *fakeLedger) FindBy(_ context.Context, c core.Criteria, offset, limit int) ([]core.Expense, error) {
	all := f.matching(c)
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakeLedger) CountBy(_ context.Context, c core.Criteria) (int64, error) {
	return int64(len(f.matching(c))), nil
}

func (f *fakeLedger) SumAmounts(_ context.Context, c core.Criteria) (int64, error) {
	var total int64
	for _, e := range f.matching(c) {
		total += e.Amount.Cents
	}
	return total, nil
}

func (f *fakeLedger) SumAmountsByCategory(_ context.Context, c core.Criteria) ([]storage.CategorySum, error) {
	sums := make(map[string]int64)
	for _, e := range f.matching(c) {
		sums[e.Category] += e.Amount.Cents
	}
	return sortedSums(sums), nil
}

func (f *fakeLedger) AverageAmountsByCategory(_ context.Context, c core.Criteria) ([]storage.CategorySum, error) {
	sums := make(map[string]int64)
	counts := make(map[string]int64)
	for _, e := range f.matching(c) {
		sums[e.Category] += e.Amount.Cents
		counts[e.Category]++
	}
	avgs := make(map[string]int64, len(sums))
	for cat, total := range sums {
		avgs[cat] = total / counts[cat]
	}
	return sortedSums(avgs), nil
}

func (f *fakeLedger) ListExpenditureYears(_ context.Context, userID int64) ([]int, error) {
	present := make(map[int]struct{})
	for _, e := range f.expenses {
		if e.UserID == userID {
			present[e.Date.Year()] = struct{}{}
		}
	}
	present[time.Now().Year()] = struct{}{}

	years := make([]int, 0, len(present))
	for y := range present {
		years = append(years, y)
	}
	sort.Ints(years)
	return years, nil
}

func sortedSums(byCategory map[string]int64) []storage.CategorySum {
	out := make([]storage.CategorySum, 0, len(byCategory))
	for cat, cents := range byCategory {
		out = append(out, storage.CategorySum{Category: cat, Cents: cents})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cents > out[j].Cents })
	return out
}

// fakePublisher records published events.
type fakePublisher struct {
	events []string
	err    error
}

func (p *fakePublisher) PublishExpenseEvent(_ context.Context, id int64, action string) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, action)
	return nil
}
