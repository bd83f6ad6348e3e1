// Package search filters, sorts and paginates an already-loaded event list.
// Nothing here performs I/O.
package search

import (
	"slices"
	"strings"

	"github.com/Shivanand-hulikatti/club-events/internal/model"
)

// SortKey selects an ordering for Sort.
type SortKey string

const (
	DateAsc   SortKey = "date-asc"
	DateDesc  SortKey = "date-desc"
	TitleAsc  SortKey = "title-asc"
	TitleDesc SortKey = "title-desc"
)

// ParseSortKey accepts the four known keys and reports whether s was one.
func ParseSortKey(s string) (SortKey, bool) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case DateAsc, DateDesc, TitleAsc, TitleDesc:
		return k, true
	default:
		return "", false
	}
}

// Filter keeps events whose title, description or location contains term,
// ignoring case. A blank term returns events unchanged.
func Filter(events []model.Event, term string) []model.Event {
	term = strings.TrimSpace(term)
	if term == "" {
		return events
	}
	term = strings.ToLower(term)

	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if strings.Contains(strings.ToLower(e.Title), term) ||
			strings.Contains(strings.ToLower(e.Description), term) ||
			strings.Contains(strings.ToLower(e.Location), term) {
			out = append(out, e)
		}
	}
	return out
}

// FilterByDateRange keeps events dated within [from, to]. A zero bound is open.
func FilterByDateRange(events []model.Event, from, to model.Date) []model.Event {
	if from.IsZero() && to.IsZero() {
		return events
	}
	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if !from.IsZero() && e.Date.Before(from.Time) {
			continue
		}
		if !to.IsZero() && e.Date.After(to.Time) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Sort returns a new slice ordered by key. The sort is stable, so events with
// equal keys keep their relative input order. An unknown key yields a copy in
// input order.
func Sort(events []model.Event, key SortKey) []model.Event {
	sorted := slices.Clone(events)

	var cmp func(a, b model.Event) int
	switch key {
	case DateAsc:
		cmp = func(a, b model.Event) int { return a.Date.Compare(b.Date.Time) }
	case DateDesc:
		cmp = func(a, b model.Event) int { return b.Date.Compare(a.Date.Time) }
	case TitleAsc:
		cmp = func(a, b model.Event) int { return compareTitle(a.Title, b.Title) }
	case TitleDesc:
		cmp = func(a, b model.Event) int { return compareTitle(b.Title, a.Title) }
	default:
		return sorted
	}
	slices.SortStableFunc(sorted, cmp)
	return sorted
}

func compareTitle(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}
