package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"outlay/internal/core"
	applog "outlay/internal/log"
)

func newTestImporter(t *testing.T) (*Importer, *fakeLedger) {
	t.Helper()
	ledger := newFakeLedger()
	svc := NewExpenseService(ledger, nil)
	fixedServiceClock(svc, core.NewDate(2026, 5, 20))
	logger := applog.New(applog.ComponentImport, slog.NewTextHandler(io.Discard, nil))
	return NewImporter(svc, logger), ledger
}

func TestImportCSVHappyPath(t *testing.T) {
	im, ledger := newTestImporter(t)

	csv := "2026-05-01,12.34,Weekly shop,Groceries\n" +
		"2026-05-02,8.50,Bus ticket,Transport\n"

	result, err := im.ImportCSV(context.Background(), 1, []byte(csv))
	if err != nil {
		t.Fatal(err)
	}
	if result.Imported != 2 || result.Skipped != 0 || result.Errored != 0 {
		t.Fatalf("result = %+v", result)
	}
	if len(ledger.expenses) != 2 {
		t.Fatalf("ledger holds %d rows, want 2", len(ledger.expenses))
	}
	for _, e := range ledger.expenses {
		if e.UserID != 1 {
			t.Fatalf("imported row has wrong user: %+v", e)
		}
	}
}

func TestImportCSVStoresCentsExactly(t *testing.T) {
	im, ledger := newTestImporter(t)

	if _, err := im.ImportCSV(context.Background(), 1, []byte("2026-05-01,12.34,Shop,Groceries\n")); err != nil {
		t.Fatal(err)
	}
	for _, e := range ledger.expenses {
		if e.Amount.Cents != 1234 {
			t.Fatalf("stored %d cents, want 1234", e.Amount.Cents)
		}
	}
}

func TestImportCSVBlankLinesIgnored(t *testing.T) {
	im, _ := newTestImporter(t)

	csv := "\n2026-05-01,12.34,Shop,Groceries\n\n   \n"
	result, err := im.ImportCSV(context.Background(), 1, []byte(csv))
	if err != nil {
		t.Fatal(err)
	}
	if result.Imported != 1 || result.Skipped != 0 || result.Errored != 0 {
		t.Fatalf("blank lines must not be counted: %+v", result)
	}
}

func TestImportCSVRejectsBadRows(t *testing.T) {
	cases := []struct {
		name string
		line string
	}{
		{"too few columns", "2026-05-01,12.34,Shop"},
		{"too many columns", "2026-05-01,12.34,Shop,Groceries,extra"},
		{"empty description", "2026-05-01,12.34,   ,Groceries"},
		{"unknown category", "2026-05-01,12.34,Shop,Rent"},
		{"non-numeric amount", "2026-05-01,abc,Shop,Groceries"},
		{"negative amount", "2026-05-01,-5,Shop,Groceries"},
		{"zero amount", "2026-05-01,0,Shop,Groceries"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			im, ledger := newTestImporter(t)
			result, err := im.ImportCSV(context.Background(), 1, []byte(tc.line+"\n"))
			if err != nil {
				t.Fatal(err)
			}
			if result.Imported != 0 || result.Skipped != 1 {
				t.Fatalf("result = %+v, want skipped=1 imported=0", result)
			}
			if len(ledger.expenses) != 0 {
				t.Fatal("rejected row must not be persisted")
			}
		})
	}
}

func TestImportCSVDuplicateSuppression(t *testing.T) {
	im, ledger := newTestImporter(t)

	line := "2026-05-01,12.34,Shop,Groceries"
	csv := line + "\n" + line + "\n"

	result, err := im.ImportCSV(context.Background(), 1, []byte(csv))
	if err != nil {
		t.Fatal(err)
	}
	if result.Imported != 1 || result.Skipped != 1 {
		t.Fatalf("result = %+v, want one import and one duplicate skip", result)
	}
	if len(ledger.expenses) != 1 {
		t.Fatalf("ledger holds %d rows, want 1", len(ledger.expenses))
	}
}

func TestImportCSVFingerprintUsesRawFields(t *testing.T) {
	im, _ := newTestImporter(t)

	// Same content, differing only in field whitespace: distinct rows.
	csv := "2026-05-01,12.34,Shop,Groceries\n" +
		"2026-05-01,12.34, Shop,Groceries\n"

	result, err := im.ImportCSV(context.Background(), 1, []byte(csv))
	if err != nil {
		t.Fatal(err)
	}
	if result.Imported != 2 || result.Skipped != 0 {
		t.Fatalf("whitespace variants must stay distinct: %+v", result)
	}
}

func TestImportCSVCanonicalCategoryCasing(t *testing.T) {
	im, ledger := newTestImporter(t)

	if _, err := im.ImportCSV(context.Background(), 1, []byte("2026-05-01,12.34,Shop,GROCERIES\n")); err != nil {
		t.Fatal(err)
	}
	for _, e := range ledger.expenses {
		if e.Category != "Groceries" {
			t.Fatalf("stored category %q, want canonical %q", e.Category, "Groceries")
		}
	}
}

func TestImportCSVUnparsableDateErrors(t *testing.T) {
	im, ledger := newTestImporter(t)

	csv := "not-a-date,12.34,Shop,Groceries\n" +
		"2026-05-01,12.34,Shop,Groceries\n"

	result, err := im.ImportCSV(context.Background(), 1, []byte(csv))
	if err != nil {
		t.Fatal(err)
	}
	if result.Imported != 1 || result.Errored != 1 || result.Skipped != 0 {
		t.Fatalf("result = %+v, want imported=1 errored=1", result)
	}
	if len(ledger.expenses) != 1 {
		t.Fatal("bad date row must not abort the batch")
	}
}

func TestImportCSVSecondValidationApplies(t *testing.T) {
	im, ledger := newTestImporter(t)

	// Parses fine but fails single-expense validation (future date).
	csv := "2027-01-01,12.34,Shop,Groceries\n"

	result, err := im.ImportCSV(context.Background(), 1, []byte(csv))
	if err != nil {
		t.Fatal(err)
	}
	if result.Imported != 0 || result.Errored != 1 {
		t.Fatalf("result = %+v, want errored=1", result)
	}
	if len(ledger.expenses) != 0 {
		t.Fatal("row failing creation validation must not be persisted")
	}
}

func TestImportCSVQuotedFields(t *testing.T) {
	im, ledger := newTestImporter(t)

	csv := `2026-05-01,12.34,"Dinner, with friends",Entertainment` + "\n"
	result, err := im.ImportCSV(context.Background(), 1, []byte(csv))
	if err != nil {
		t.Fatal(err)
	}
	if result.Imported != 1 {
		t.Fatalf("result = %+v", result)
	}
	for _, e := range ledger.expenses {
		if e.Description != "Dinner, with friends" {
			t.Fatalf("quoted description mangled: %q", e.Description)
		}
	}
}
