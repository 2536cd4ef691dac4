package store

import (
	"strings"

	"golang.org/x/text/cases"
)

// Norm folds case and collapses whitespace so user input and catalog values compare equal.
func Norm(s string) string {
	return cases.Fold().String(strings.Join(strings.Fields(s), " "))
}
