package search

import "github.com/Shivanand-hulikatti/club-events/internal/model"

// DefaultPerPage is used when the caller passes a non-positive page size.
const DefaultPerPage = 20

// MaxPerPage caps the page size a client may request.
const MaxPerPage = 100

// PageInfo carries pagination metadata.
type PageInfo struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPageInfo computes pagination metadata. Page is clamped to [1, TotalPages]
// and TotalPages is at least 1.
func NewPageInfo(page, perPage, total int) PageInfo {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	totalPages := (total + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return PageInfo{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// Offset returns the index of the first item on the page.
func (p PageInfo) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Paginate returns the slice of events for the requested page.
func Paginate(events []model.Event, page, perPage int) ([]model.Event, PageInfo) {
	info := NewPageInfo(page, perPage, len(events))
	start := info.Offset()
	if start >= len(events) {
		return []model.Event{}, info
	}
	end := min(start+info.PerPage, len(events))
	return events[start:end], info
}
