package knowledge

import (
	"sort"
	"strings"
)

// queryTerms lowercases query and splits it on whitespace. Returns nil for a
// blank query so callers can skip the scan entirely.
func queryTerms(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// matchesTerms reports whether any term appears as a substring of the
// entry's lowercased question, answer, or category, or matches one of its
// keywords. The keyword test is symmetric: a keyword containing the term
// counts, and so does a term containing the keyword. No fuzzy matching or
// stemming happens here.
func matchesTerms(e Entry, terms []string) bool {
	question := strings.ToLower(e.Question)
	answer := strings.ToLower(e.Answer)
	category := strings.ToLower(e.Category)

	for _, term := range terms {
		if strings.Contains(question, term) ||
			strings.Contains(answer, term) ||
			strings.Contains(category, term) {
			return true
		}
		for _, kw := range e.Keywords {
			kw = strings.ToLower(kw)
			if strings.Contains(kw, term) || strings.Contains(term, kw) {
				return true
			}
		}
	}
	return false
}

// sortByPriority orders entries by priority descending, ties broken by
// ascending ID. IDs are assigned in insertion order, so entries with equal
// priority come back in the order they were created. Both store
// implementations rely on this for identical ranking.
func sortByPriority(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Priority != entries[j].Priority {
			return entries[i].Priority > entries[j].Priority
		}
		return entries[i].ID < entries[j].ID
	})
}
