package services

import (
	"context"
	"crypto/sha256"
	"encoding/csv"
	"strconv"
	"strings"
	"time"

	"outlay/internal/core"
	"outlay/internal/log"
)

const csvDateLayout = "2006-01-02"

// ImportResult is the accounting of one CSV batch. Skipped counts
// validation rejects and in-batch duplicates; Errored counts rows that
// failed after validation (unparsable date, store failure).
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Errored  int `json:"errored"`
}

// Importer runs the bulk CSV ingestion pipeline. Rows go through the
// same creation path as interactive entry, so both share one
// validation rule set. The batch is best effort: a bad row is logged
// and counted, never aborts the rest.
type Importer struct {
	expenses *ExpenseService
	logger   *log.Logger
}

func NewImporter(expenses *ExpenseService, logger *log.Logger) *Importer {
	if logger == nil {
		logger = log.Default(log.ComponentImport)
	}
	return &Importer{expenses: expenses, logger: logger}
}

// ImportCSV ingests rows of (date, amount, description, category) for
// the given user. Lines are processed in file order; blank lines are
// passed over silently.
func (im *Importer) ImportCSV(ctx context.Context, userID int64, content []byte) (ImportResult, error) {
	var result ImportResult
	seen := make(map[[sha256.Size]byte]struct{})

	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields, err := csv.NewReader(strings.NewReader(line)).Read()
		if err != nil || len(fields) != 4 {
			im.logger.InfoContext(ctx, "Skipped row - invalid column count", log.FieldRow, line)
			result.Skipped++
			continue
		}

		dateStr, amountStr, rawDescription, rawCategory := fields[0], fields[1], fields[2], fields[3]
		description := strings.TrimSpace(rawDescription)
		category := strings.TrimSpace(rawCategory)

		if description == "" {
			im.logger.InfoContext(ctx, "Skipped row - empty description", log.FieldRow, line)
			result.Skipped++
			continue
		}

		canonical, ok := core.CanonicalCategory(category)
		if !ok {
			im.logger.InfoContext(ctx, "Skipped row - invalid category",
				log.FieldRow, line, "category", category)
			result.Skipped++
			continue
		}

		amount, err := strconv.ParseFloat(strings.TrimSpace(amountStr), 64)
		if err != nil {
			im.logger.InfoContext(ctx, "Skipped row - invalid amount",
				log.FieldRow, line, "amount", amountStr)
			result.Skipped++
			continue
		}
		if amount <= 0 {
			im.logger.InfoContext(ctx, "Skipped row - non-positive amount",
				log.FieldRow, line, "amount", amountStr)
			result.Skipped++
			continue
		}

		// Fingerprint over the raw field text: rows differing only in
		// surrounding whitespace stay distinct.
		fingerprint := rowFingerprint(dateStr, rawDescription, amountStr, rawCategory)
		if _, dup := seen[fingerprint]; dup {
			im.logger.InfoContext(ctx, "Skipped row - duplicate", log.FieldRow, line)
			result.Skipped++
			continue
		}
		seen[fingerprint] = struct{}{}

		date, err := time.Parse(csvDateLayout, strings.TrimSpace(dateStr))
		if err != nil {
			im.logger.ErrorContext(ctx, "Failed to import row - unparsable date",
				log.FieldRow, line, log.FieldError, err.Error())
			result.Errored++
			continue
		}

		cents, err := core.ParseDecimalToCents(strings.TrimSpace(amountStr))
		if err != nil {
			im.logger.InfoContext(ctx, "Skipped row - invalid amount",
				log.FieldRow, line, "amount", amountStr)
			result.Skipped++
			continue
		}

		// Same creation path as interactive entry: single-expense
		// validation applies a second time.
		if _, err := im.expenses.Create(ctx, userID, cents, description, date, canonical); err != nil {
			im.logger.ErrorContext(ctx, "Failed to import row",
				log.FieldRow, line, log.FieldError, err.Error())
			result.Errored++
			continue
		}

		result.Imported++
	}

	im.logger.InfoContext(ctx, "Import completed",
		"imported", result.Imported,
		"skipped", result.Skipped,
		"errored", result.Errored,
		log.FieldUserID, userID)

	return result, nil
}

func rowFingerprint(date, description, amount, category string) [sha256.Size]byte {
	h := sha256.New()
	for _, field := range []string{date, description, amount, category} {
		h.Write([]byte(field))
		h.Write([]byte{0})
	}
	var sum [sha256.Size]byte
	copy(sum[:], h.Sum(nil))
	return sum
}
