package core

import "strings"

// DefaultCategories is the configured category list in canonical
// casing. Imported rows are stored under these spellings regardless of
// the casing they arrive with.
var DefaultCategories = []string{
	"Groceries",
	"Utilities",
	"Transport",
	"Entertainment",
	"Housing",
	"Health",
	"Other",
}

// CanonicalCategory resolves name against DefaultCategories using a
// case-insensitive match and returns the canonical spelling. ok is
// false when the name matches no configured category.
func CanonicalCategory(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, c := range DefaultCategories {
		if strings.EqualFold(c, name) {
			return c, true
		}
	}
	return "", false
}
