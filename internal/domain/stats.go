// Package domain contains the core data structures and domain logic for the application.
package domain

import "time"

// RepoRef identifies a GitHub repository.
type RepoRef struct {
	Owner string `mapstructure:"owner" json:"owner"`
	Name  string `mapstructure:"name" json:"name"`
}

// FullName returns "owner/name".
func (r RepoRef) FullName() string {
	return r.Owner + "/" + r.Name
}

// Category is a display grouping of repositories. Repos holds repository names,
// not full names, in configured order.
type Category struct {
	Name  string   `mapstructure:"name" json:"name"`
	Repos []string `mapstructure:"repos" json:"repos"`
}

// Window is a half-open time range [Start, End). A zero bound is unbounded.
type Window struct {
	Start time.Time
	End   time.Time
}

// Unbounded reports whether neither bound is set.
func (w Window) Unbounded() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && !t.Before(w.End) {
		return false
	}
	return true
}

// PeriodMetric holds the activity of one author in one repository for one window.
type PeriodMetric struct {
	Commits int `json:"commits"`
	Added   int `json:"added"`
	Removed int `json:"removed"`
}

// Add returns the element-wise sum of m and o.
func (m PeriodMetric) Add(o PeriodMetric) PeriodMetric {
	return PeriodMetric{
		Commits: m.Commits + o.Commits,
		Added:   m.Added + o.Added,
		Removed: m.Removed + o.Removed,
	}
}

// Net is added minus removed lines.
func (m PeriodMetric) Net() int {
	return m.Added - m.Removed
}

// IsZero reports whether nothing was counted.
func (m PeriodMetric) IsZero() bool {
	return m == PeriodMetric{}
}

// RepoResult is the outcome of fetching one repository's metric.
// A non-nil Err marks the repository as unreachable; Metric is then zero.
type RepoResult struct {
	Repo   string
	Metric PeriodMetric
	Err    error
}

// Unreachable reports whether the fetch failed.
func (r RepoResult) Unreachable() bool {
	return r.Err != nil
}

// CategoryRow is a PeriodMetric reduced over a category's member repositories.
type CategoryRow struct {
	Category string `json:"category"`
	PeriodMetric
}

// PeriodTable is the aggregated view of one reporting period.
type PeriodTable struct {
	Label       string        `json:"label"`
	Rows        []CategoryRow `json:"rows"`
	Total       CategoryRow   `json:"total"`
	Unreachable []string      `json:"unreachable,omitempty"`
}

// Report is the ordered set of period tables produced by one run.
type Report struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Periods     []PeriodTable `json:"periods"`
}
