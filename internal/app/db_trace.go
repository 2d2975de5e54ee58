package app

import (
	"strings"
	"unicode/utf8"
)

const maxTracedQueryLength = 512

// formatDBQueryForTrace collapses whitespace and caps the statement length
// before it becomes the db.statement span attribute.
func formatDBQueryForTrace(query string) string {
	normalized := strings.Join(strings.Fields(query), " ")
	if len(normalized) <= maxTracedQueryLength {
		return normalized
	}

	cut := maxTracedQueryLength
	for cut > 0 && !utf8.RuneStart(normalized[cut]) {
		cut--
	}
	return normalized[:cut] + "..."
}
