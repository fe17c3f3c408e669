// Package storage implements the durable ledger store on SQLite.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"outlay/internal/core"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

// CategorySum is one grouped aggregation row in integer minor units.
type CategorySum struct {
	Category string
	Cents    int64
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// criteriaWhere translates filter criteria into a WHERE clause. Year
// and month match the calendar components of the stored date, not the
// literal text.
func criteriaWhere(c core.Criteria) (string, []any) {
	var (
		where []string
		args  []any
	)
	if c.UserID != 0 {
		where = append(where, "user_id = ?")
		args = append(args, c.UserID)
	}
	if c.Year != 0 {
		where = append(where, "strftime('%Y', date) = ?")
		args = append(args, fmt.Sprintf("%04d", c.Year))
	}
	if c.Month != 0 {
		where = append(where, "strftime('%m', date) = ?")
		args = append(args, fmt.Sprintf("%02d", c.Month))
	}
	if len(where) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

// Find returns the expense with the given id, or nil when absent.
func (r *SQLiteRepository) Find(ctx context.Context, id int64) (*core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, date, category, amount_cents, description FROM expenses WHERE id = ?`, id)

	e, err := scanExpense(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find expense: %w", err)
	}
	return e, nil
}

// Save inserts the expense when its ID is zero, assigning a new
// identity, and otherwise updates the existing row scoped to
// (id, user_id).
func (r *SQLiteRepository) Save(ctx context.Context, e *core.Expense) error {
	if e.ID == 0 {
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO expenses (user_id, date, category, amount_cents, description)
			 VALUES (?, ?, ?, ?, ?)`,
			e.UserID, e.Date.Format(dateLayout), e.Category, e.Amount.Cents, e.Description)
		if err != nil {
			return fmt.Errorf("insert expense: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		e.ID = id

		slog.InfoContext(ctx, "Expense saved",
			"id", e.ID,
			"user_id", e.UserID,
			"amount_cents", e.Amount.Cents,
			"category", e.Category)
		return nil
	}

	_, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET date = ?, category = ?, amount_cents = ?, description = ?, sync_status = 'pending'
		 WHERE id = ? AND user_id = ?`,
		e.Date.Format(dateLayout), e.Category, e.Amount.Cents, e.Description, e.ID, e.UserID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}

// FindBy lists matching expenses newest first, ties broken by id so
// pagination stays deterministic.
func (r *SQLiteRepository) FindBy(ctx context.Context, c core.Criteria, offset, limit int) ([]core.Expense, error) {
	where, args := criteriaWhere(c)
	query := `SELECT id, user_id, date, category, amount_cents, description FROM expenses` +
		where + ` ORDER BY date DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, *e)
	}
	return expenses, rows.Err()
}

func (r *SQLiteRepository) CountBy(ctx context.Context, c core.Criteria) (int64, error) {
	where, args := criteriaWhere(c)
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM expenses`+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count expenses: %w", err)
	}
	return count, nil
}

// SumAmounts returns the total of matching rows in cents, 0 when
// nothing matches.
func (r *SQLiteRepository) SumAmounts(ctx context.Context, c core.Criteria) (int64, error) {
	where, args := criteriaWhere(c)
	var total sql.NullInt64
	err := r.db.QueryRowContext(ctx, `SELECT SUM(amount_cents) FROM expenses`+where, args...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum expenses: %w", err)
	}
	return total.Int64, nil
}

// SumAmountsByCategory groups matching rows by category, summed cents,
// largest first.
func (r *SQLiteRepository) SumAmountsByCategory(ctx context.Context, c core.Criteria) ([]CategorySum, error) {
	where, args := criteriaWhere(c)
	query := `SELECT category, SUM(amount_cents) AS total_cents FROM expenses` + where +
		` GROUP BY category ORDER BY total_cents DESC`
	return r.queryCategorySums(ctx, query, args)
}

// AverageAmountsByCategory groups matching rows by category with the
// per-row average rounded to the nearest cent, largest first.
func (r *SQLiteRepository) AverageAmountsByCategory(ctx context.Context, c core.Criteria) ([]CategorySum, error) {
	where, args := criteriaWhere(c)
	query := `SELECT category, CAST(ROUND(AVG(amount_cents)) AS INTEGER) AS avg_cents FROM expenses` + where +
		` GROUP BY category ORDER BY avg_cents DESC`
	return r.queryCategorySums(ctx, query, args)
}

func (r *SQLiteRepository) queryCategorySums(ctx context.Context, query string, args []any) ([]CategorySum, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query category sums: %w", err)
	}
	defer rows.Close()

	var sums []CategorySum
	for rows.Next() {
		var s CategorySum
		if err := rows.Scan(&s.Category, &s.Cents); err != nil {
			return nil, fmt.Errorf("scan category sum: %w", err)
		}
		sums = append(sums, s)
	}
	return sums, rows.Err()
}

// ListExpenditureYears returns the years present in the user's ledger
// in ascending order. The current year is always included so the
// year selector has a sane default for new users.
func (r *SQLiteRepository) ListExpenditureYears(ctx context.Context, userID int64) ([]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT CAST(strftime('%Y', date) AS INTEGER) AS year
		 FROM expenses WHERE user_id = ? ORDER BY year ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query expenditure years: %w", err)
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, fmt.Errorf("scan year: %w", err)
		}
		years = append(years, y)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	current := time.Now().Year()
	for _, y := range years {
		if y == current {
			return years, nil
		}
	}
	return append(years, current), nil
}

// PendingSyncIDs returns up to limit expense ids still waiting to be
// exported, oldest first. Covers rows whose export failed as well, so
// the sweep retries them.
func (r *SQLiteRepository) PendingSyncIDs(ctx context.Context, limit int) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM expenses WHERE sync_status IN ('pending', 'error') ORDER BY id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending sync ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan pending id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MarkSynced records a successful export of the expense.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET sync_status = 'synced' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark expense synced: %w", err)
	}
	return nil
}

// MarkSyncError flags the expense so the periodic sweep retries it.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET sync_status = 'error' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark expense sync error: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (*core.Expense, error) {
	var (
		e       core.Expense
		dateStr string
	)
	if err := row.Scan(&e.ID, &e.UserID, &dateStr, &e.Category, &e.Amount.Cents, &e.Description); err != nil {
		return nil, err
	}
	date, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return nil, fmt.Errorf("parse stored date %q: %w", dateStr, err)
	}
	e.Date = date
	return &e, nil
}
