package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"outlay/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "outlay.db"))
	if err != nil {
		t.Fatalf("open test repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedUser(t *testing.T, repo *SQLiteRepository, username string) int64 {
	t.Helper()
	id, err := repo.CreateUser(context.Background(), username, "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return id
}

func mustSave(t *testing.T, repo *SQLiteRepository, e *core.Expense) {
	t.Helper()
	if err := repo.Save(context.Background(), e); err != nil {
		t.Fatalf("save expense: %v", err)
	}
}

func TestSaveAssignsIDAndFind(t *testing.T) {
	repo := newTestRepo(t)
	userID := seedUser(t, repo, "alice")

	e := &core.Expense{
		UserID:      userID,
		Date:        core.NewDate(2025, 6, 10),
		Category:    "Groceries",
		Amount:      core.Money{Cents: 1234},
		Description: "weekly shop",
	}
	mustSave(t, repo, e)
	if e.ID == 0 {
		t.Fatal("insert should assign an id")
	}

	got, err := repo.Find(context.Background(), e.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got == nil {
		t.Fatal("expected expense, got nil")
	}
	if got.Amount.Cents != 1234 || got.Category != "Groceries" || !got.Date.Equal(core.NewDate(2025, 6, 10)) {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

func TestFindAbsentReturnsNil(t *testing.T) {
	repo := newTestRepo(t)
	got, err := repo.Find(context.Background(), 9999)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for absent id, got %+v", got)
	}
}

func TestSaveUpdateScopedToOwner(t *testing.T) {
	repo := newTestRepo(t)
	alice := seedUser(t, repo, "alice")
	bob := seedUser(t, repo, "bob")

	e := &core.Expense{
		UserID:      alice,
		Date:        core.NewDate(2025, 6, 10),
		Category:    "Groceries",
		Amount:      core.Money{Cents: 1000},
		Description: "shop",
	}
	mustSave(t, repo, e)

	// Update attempt under another user's id must not touch the row.
	hijack := *e
	hijack.UserID = bob
	hijack.Description = "hijacked"
	mustSave(t, repo, &hijack)

	got, err := repo.Find(context.Background(), e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Description != "shop" {
		t.Fatalf("cross-user update must be a no-op, got %q", got.Description)
	}

	e.Description = "bigger shop"
	e.Amount.Cents = 2000
	mustSave(t, repo, e)

	got, err = repo.Find(context.Background(), e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Description != "bigger shop" || got.Amount.Cents != 2000 {
		t.Fatalf("owner update not applied: %+v", got)
	}
}

func TestFindByOrderingAndPagination(t *testing.T) {
	repo := newTestRepo(t)
	userID := seedUser(t, repo, "alice")

	// Two expenses share a date so the id tie-break matters.
	dates := []time.Time{
		core.NewDate(2025, 6, 1),
		core.NewDate(2025, 6, 20),
		core.NewDate(2025, 6, 20),
		core.NewDate(2025, 5, 31),
	}
	var ids []int64
	for i, d := range dates {
		e := &core.Expense{
			UserID:      userID,
			Date:        d,
			Category:    "Other",
			Amount:      core.Money{Cents: int64(100 * (i + 1))},
			Description: "row",
		}
		mustSave(t, repo, e)
		ids = append(ids, e.ID)
	}

	crit := core.Criteria{UserID: userID, Year: 2025, Month: 6}
	got, err := repo.FindBy(context.Background(), crit, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 rows for June, got %d", len(got))
	}
	// Newest date first; equal dates newest id first.
	want := []int64{ids[2], ids[1], ids[0]}
	for i, e := range got {
		if e.ID != want[i] {
			t.Fatalf("order mismatch at %d: got id %d, want %d", i, e.ID, want[i])
		}
	}

	page, err := repo.FindBy(context.Background(), crit, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 || page[0].ID != ids[1] {
		t.Fatalf("pagination mismatch: %+v", page)
	}

	count, err := repo.CountBy(context.Background(), crit)
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Fatalf("CountBy = %d, want 3", count)
	}
}

func TestAggregatesInCents(t *testing.T) {
	repo := newTestRepo(t)
	userID := seedUser(t, repo, "alice")

	rows := []struct {
		category string
		cents    int64
	}{
		{"Groceries", 1234},
		{"Groceries", 2000},
		{"Utilities", 500},
	}
	for _, row := range rows {
		mustSave(t, repo, &core.Expense{
			UserID:      userID,
			Date:        core.NewDate(2025, 6, 5),
			Category:    row.category,
			Amount:      core.Money{Cents: row.cents},
			Description: "x",
		})
	}

	crit := core.Criteria{UserID: userID, Year: 2025, Month: 6}

	total, err := repo.SumAmounts(context.Background(), crit)
	if err != nil {
		t.Fatal(err)
	}
	if total != 3734 {
		t.Fatalf("SumAmounts = %d, want 3734", total)
	}

	sums, err := repo.SumAmountsByCategory(context.Background(), crit)
	if err != nil {
		t.Fatal(err)
	}
	if len(sums) != 2 || sums[0].Category != "Groceries" || sums[0].Cents != 3234 || sums[1].Cents != 500 {
		t.Fatalf("SumAmountsByCategory = %+v", sums)
	}

	avgs, err := repo.AverageAmountsByCategory(context.Background(), crit)
	if err != nil {
		t.Fatal(err)
	}
	if len(avgs) != 2 || avgs[0].Category != "Groceries" || avgs[0].Cents != 1617 {
		t.Fatalf("AverageAmountsByCategory = %+v", avgs)
	}
}

func TestSumAmountsEmptyIsZero(t *testing.T) {
	repo := newTestRepo(t)
	total, err := repo.SumAmounts(context.Background(), core.Criteria{UserID: 1, Year: 2025, Month: 1})
	if err != nil {
		t.Fatal(err)
	}
	if total != 0 {
		t.Fatalf("SumAmounts on empty ledger = %d, want 0", total)
	}
}

func TestListExpenditureYears(t *testing.T) {
	repo := newTestRepo(t)
	userID := seedUser(t, repo, "alice")

	years, err := repo.ListExpenditureYears(context.Background(), userID)
	if err != nil {
		t.Fatal(err)
	}
	current := time.Now().Year()
	if len(years) != 1 || years[0] != current {
		t.Fatalf("empty ledger should still list the current year, got %v", years)
	}

	for _, y := range []int{2019, 2023} {
		mustSave(t, repo, &core.Expense{
			UserID:      userID,
			Date:        core.NewDate(y, 2, 1),
			Category:    "Other",
			Amount:      core.Money{Cents: 100},
			Description: "x",
		})
	}

	years, err = repo.ListExpenditureYears(context.Background(), userID)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{2019, 2023, current}
	if len(years) != len(want) {
		t.Fatalf("years = %v, want %v", years, want)
	}
	for i := range want {
		if years[i] != want[i] {
			t.Fatalf("years = %v, want %v", years, want)
		}
	}
}

func TestDeleteAndSyncStatus(t *testing.T) {
	repo := newTestRepo(t)
	userID := seedUser(t, repo, "alice")

	e := &core.Expense{
		UserID:      userID,
		Date:        core.NewDate(2025, 6, 10),
		Category:    "Other",
		Amount:      core.Money{Cents: 100},
		Description: "x",
	}
	mustSave(t, repo, e)

	pending, err := repo.PendingSyncIDs(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0] != e.ID {
		t.Fatalf("PendingSyncIDs = %v", pending)
	}

	if err := repo.MarkSynced(context.Background(), e.ID); err != nil {
		t.Fatal(err)
	}
	pending, err = repo.PendingSyncIDs(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending rows after MarkSynced, got %v", pending)
	}

	// Errored rows go back into the sweep.
	if err := repo.MarkSyncError(context.Background(), e.ID); err != nil {
		t.Fatal(err)
	}
	pending, err = repo.PendingSyncIDs(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0] != e.ID {
		t.Fatalf("PendingSyncIDs after MarkSyncError = %v", pending)
	}

	if err := repo.Delete(context.Background(), e.ID); err != nil {
		t.Fatal(err)
	}
	got, err := repo.Find(context.Background(), e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatal("expense should be gone after delete")
	}
}

func TestUserRoundTrip(t *testing.T) {
	repo := newTestRepo(t)

	id, err := repo.CreateUser(context.Background(), "alice", "bcrypt-digest")
	if err != nil {
		t.Fatal(err)
	}

	u, err := repo.FindUserByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatal(err)
	}
	if u == nil || u.ID != id || u.PasswordHash != "bcrypt-digest" {
		t.Fatalf("user round-trip mismatch: %+v", u)
	}

	missing, err := repo.FindUserByUsername(context.Background(), "nobody")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown user, got %+v", missing)
	}
}
