package core

import (
	"strings"

	"golang.org/x/text/cases"
)

// The four Turkish i forms fold to plain i, so "ÇALIŞMA" finds "Çalışma"
// and "LIFTING" still finds "Lifting".
var dottedI = strings.NewReplacer("\u0131", "i", "i\u0307", "i")

// FoldActivityName returns the case-folded form used to compare activity names.
func FoldActivityName(s string) string {
	return dottedI.Replace(cases.Fold().String(s))
}

// MatchesActivity reports whether name contains query, ignoring case.
// A blank query matches every name.
func MatchesActivity(name, query string) bool {
	return strings.Contains(FoldActivityName(name), FoldActivityName(strings.TrimSpace(query)))
}
