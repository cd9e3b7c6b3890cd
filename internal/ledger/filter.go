package ledger

import (
	"strings"

	"cloud.google.com/go/civil"
)

// Filter selects ledger rows. Zero fields match everything.
type Filter struct {
	// Category matches case-insensitively.
	Category string
	// Merchant matches as a case-insensitive substring.
	Merchant string
	// Start and End are inclusive.
	Start civil.Date
	End   civil.Date
	// Limit keeps only the last N matches.
	Limit int
}

// Match reports whether r passes every set criterion.
func (f Filter) Match(r Row) bool {
	if f.Category != "" && !strings.EqualFold(strings.TrimSpace(r.Category), strings.TrimSpace(f.Category)) {
		return false
	}
	if f.Merchant != "" {
		if !strings.Contains(strings.ToLower(r.Merchant), strings.ToLower(strings.TrimSpace(f.Merchant))) {
			return false
		}
	}
	if !f.Start.IsZero() && r.Date.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && r.Date.After(f.End) {
		return false
	}
	return true
}

// Apply filters rows, keeping order, then trims to the limit.
func (f Filter) Apply(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out
}
