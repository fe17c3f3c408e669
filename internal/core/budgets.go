package core

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// BudgetEntry pairs a category with its monthly ceiling in major
// units.
type BudgetEntry struct {
	Category string
	Limit    float64
}

// BudgetTable is an ordered list of category budgets. Order matters:
// alerts are emitted in table order.
type BudgetTable []BudgetEntry

// DefaultBudgets returns the built-in table used when configuration is
// absent or malformed.
func DefaultBudgets() BudgetTable {
	return BudgetTable{
		{"Groceries", 300},
		{"Utilities", 200},
		{"Transport", 500},
		{"Entertainment", 100},
		{"Housing", 1000},
		{"Health", 100},
		{"Other", 50},
	}
}

// ParseBudgets decodes a JSON object of category to ceiling, keeping
// the key order of the document. A plain json.Unmarshal into a map
// would lose it.
func ParseBudgets(data []byte) (BudgetTable, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode budgets: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("decode budgets: expected object, got %v", tok)
	}

	var table BudgetTable
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode budget key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("decode budget key: got %v", keyTok)
		}

		var limit float64
		if err := dec.Decode(&limit); err != nil {
			return nil, fmt.Errorf("decode budget for %q: %w", key, err)
		}
		if limit < 0 {
			return nil, fmt.Errorf("budget for %q is negative", key)
		}
		table = append(table, BudgetEntry{Category: key, Limit: limit})
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode budgets: %w", err)
	}
	return table, nil
}
