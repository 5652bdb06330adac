// Package listutil parses schedule list parameters and pages results.
package listutil

import (
	"net/url"
	"strconv"
	"strings"
)

// Scope values select which games a schedule list shows.
const (
	ScopeUpcoming = "upcoming"
	ScopePast     = "past"
	ScopeAll      = "all"
)

// DefaultPerPage is the default number of game cards per page.
const DefaultPerPage = 20

// PerPageOptions are the allowed cards-per-page values.
var PerPageOptions = []int{10, 20, 50, 100}

// ScheduleParams carries the filters and paging for a schedule list.
type ScheduleParams struct {
	Scope   string // upcoming, past or all
	League  string // exact match; empty for any
	Search  string // case-insensitive opponent substring
	Page    int    // 1-indexed
	PerPage int
}

// ParseScheduleParams extracts schedule parameters from URL query values.
// PRE: none
// POST: returns valid params with defaults applied; Search is lowercased
func ParseScheduleParams(q url.Values) ScheduleParams {
	scope := q.Get("scope")
	if scope != ScopePast && scope != ScopeAll {
		scope = ScopeUpcoming
	}
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if !isValidPerPage(perPage) {
		perPage = DefaultPerPage
	}
	return ScheduleParams{
		Scope:   scope,
		League:  strings.TrimSpace(q.Get("league")),
		Search:  strings.ToLower(strings.TrimSpace(q.Get("q"))),
		Page:    page,
		PerPage: perPage,
	}
}

// InScope reports whether a game on date belongs in scope, given today's date.
// Dates compare as YYYY-MM-DD strings; a game today counts as upcoming.
func (p ScheduleParams) InScope(date, today string) bool {
	switch p.Scope {
	case ScopePast:
		return date < today
	case ScopeAll:
		return true
	default:
		return date >= today
	}
}

// Matches reports whether a game passes the league and search filters.
func (p ScheduleParams) Matches(league, opponent string) bool {
	if p.League != "" && league != p.League {
		return false
	}
	return p.Search == "" || strings.Contains(strings.ToLower(opponent), p.Search)
}

// PageInfo carries pagination metadata for rendering.
type PageInfo struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// NewPageInfo computes pagination metadata.
// PRE: total >= 0
// POST: TotalPages >= 1; Page clamped to [1, TotalPages]
func NewPageInfo(page, perPage, total int) PageInfo {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	totalPages := (total + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
	page = min(max(page, 1), totalPages)
	return PageInfo{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// Offset returns the index of the first item on the current page.
func (p PageInfo) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// HasPrev reports whether a previous page exists.
func (p PageInfo) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a following page exists.
func (p PageInfo) HasNext() bool { return p.Page < p.TotalPages }

// ShowPagination returns true if pagination controls should be displayed.
func (p PageInfo) ShowPagination() bool {
	return p.Total > p.PerPage
}

// Window returns the slice of items on the page described by p.
// POST: never nil
func Window[T any](items []T, p PageInfo) []T {
	start := min(p.Offset(), len(items))
	end := min(start+p.PerPage, len(items))
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out
}

func isValidPerPage(n int) bool {
	for _, opt := range PerPageOptions {
		if n == opt {
			return true
		}
	}
	return false
}
