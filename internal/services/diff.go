package services

import (
	"strconv"
	"strings"
	"time"

	"github.com/jgpdata/emissions-backend/internal/models"
)

// diffEmissions compares the stored row against the update candidate
// and returns only the fields whose effective value differs. Dates are
// compared at calendar-day granularity; a time-of-day shift within the
// same day does not count as a change.
func diffEmissions(old, upd models.Emission) map[string]models.FieldChange {
	changes := map[string]models.FieldChange{}

	if !sameDay(old.IssueDate, upd.IssueDate) {
		changes["issue_date"] = change(formatDay(old.IssueDate), formatDay(upd.IssueDate))
	}
	if old.Type != upd.Type {
		changes["type"] = change(old.Type, upd.Type)
	}
	if old.Issuer != upd.Issuer {
		changes["issuer"] = change(old.Issuer, upd.Issuer)
	}
	if old.Amount != upd.Amount {
		changes["amount"] = change(formatAmount(old.Amount), formatAmount(upd.Amount))
	}
	if !eqLink(old.Link, upd.Link) {
		changes["link"] = models.FieldChange{Previous: old.Link, New: upd.Link}
	}
	return changes
}

func change(prev, next string) models.FieldChange {
	return models.FieldChange{Previous: &prev, New: &next}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func formatDay(t time.Time) string { return t.Format("2006-01-02") }

// formatAmount always carries a fractional part ("100.0", not "100"),
// so audit entries read unambiguously as decimals.
func formatAmount(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func eqLink(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
