// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"sort"
	"time"
)

// YearRecord holds the activity counts of the viewer for a single calendar year.
// It is the core domain entity of this application.
type YearRecord struct {
	Year          int `json:"year"`
	Commits       int `json:"commits"`
	PRsCreated    int `json:"prs_created"`
	PRsMerged     int `json:"prs_merged"`
	IssuesCreated int `json:"issues_created"`
}

// Viewer is the GitHub account the resolved credential belongs to.
type Viewer struct {
	Login string
	ID    string
}

// SearchMetrics holds the search-index counts for one year.
type SearchMetrics struct {
	PRsCreated    int
	PRsMerged     int
	IssuesCreated int
}

// Report is the result of a single run: who was measured and the per-year records.
type Report struct {
	Viewer  Viewer
	Records []YearRecord
}

// NormalizeYears returns a sorted copy of years with duplicates removed.
func NormalizeYears(years []int) []int {
	seen := make(map[int]struct{}, len(years))
	out := make([]int, 0, len(years))
	for _, y := range years {
		if _, ok := seen[y]; ok {
			continue
		}
		seen[y] = struct{}{}
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}

// DefaultYears returns the previous and the current calendar year relative to now.
func DefaultYears(now time.Time) []int {
	return []int{now.Year() - 1, now.Year()}
}

// YearBounds returns the first and last second of year in UTC.
func YearBounds(year int) (since, until time.Time) {
	since = time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	until = time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC)
	return since, until
}
