package utils

import (
	"github.com/pmezard/go-difflib/difflib"
)

// UnifiedDiff returns a line diff between two version contents.
func UnifiedDiff(fromName, from, toName, to string) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(from),
		B:        difflib.SplitLines(to),
		FromFile: fromName,
		ToFile:   toName,
		Context:  3,
	})
}
