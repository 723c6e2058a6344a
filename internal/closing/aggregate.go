// Package closing aggregates the fiscal closing snapshot: what ran, what
// failed fatally, and what still needs a human decision inside the window.
package closing

import (
	"sort"
	"time"

	"tribultz/internal/audit"
	"tribultz/internal/exception"
	"tribultz/internal/job"
	"tribultz/internal/validation"
)

const (
	// DefaultWindowDays is the closing window when the caller does not choose.
	DefaultWindowDays = 7
	// DefaultListLimit caps the detail lists on the snapshot.
	DefaultListLimit = 5
)

// Counts are the headline numbers of the closing window.
type Counts struct {
	FatalFindings  int `json:"fatalFindings"`
	OpenExceptions int `json:"openExceptions"`
	JobsExecuted   int `json:"jobsExecuted"`
	RecentAudits   int `json:"recentAudits"`
}

// Snapshot is the aggregated closing view for one tenant.
type Snapshot struct {
	Since             time.Time           `json:"since"`
	Until             time.Time           `json:"until"`
	Counts            Counts              `json:"counts"`
	RecentJobs        []job.Job           `json:"recentJobs"`
	RecentAuditRows   []audit.Log         `json:"recentAuditRows"`
	OpenExceptionRows []exception.Request `json:"openExceptionRows"`
}

// Input carries the raw rows plus the window parameters. Zero Days or
// ListLimit fall back to the defaults.
type Input struct {
	Jobs       []job.Job
	Audits     []audit.Log
	Exceptions []exception.Request
	Now        time.Time
	Days       int
	ListLimit  int
}

// BuildSnapshot computes the closing snapshot over [Now-Days, Now], both ends
// inclusive. Rows with a zero timestamp never enter the window.
func BuildSnapshot(in Input) Snapshot {
	days := in.Days
	if days <= 0 {
		days = DefaultWindowDays
	}
	limit := in.ListLimit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	until := in.Now
	since := until.Add(-time.Duration(days) * 24 * time.Hour)

	jobsInWindow := filterWindow(in.Jobs, since, until, func(j job.Job) time.Time { return j.CreatedAt })
	auditsInWindow := filterWindow(in.Audits, since, until, func(l audit.Log) time.Time { return l.CreatedAt })
	openInWindow := filterWindow(in.Exceptions, since, until, func(r exception.Request) time.Time {
		if r.Status != exception.StatusOpen {
			return time.Time{}
		}
		return r.CreatedAt
	})

	fatalFindings := 0
	for _, j := range jobsInWindow {
		for _, f := range j.Findings {
			if f.Severity == validation.SeverityFatal {
				fatalFindings++
			}
		}
	}

	return Snapshot{
		Since: since,
		Until: until,
		Counts: Counts{
			FatalFindings:  fatalFindings,
			OpenExceptions: len(openInWindow),
			JobsExecuted:   len(jobsInWindow),
			RecentAudits:   len(auditsInWindow),
		},
		RecentJobs:        topByDateDesc(jobsInWindow, limit, func(j job.Job) time.Time { return j.CreatedAt }),
		RecentAuditRows:   topByDateDesc(auditsInWindow, limit, func(l audit.Log) time.Time { return l.CreatedAt }),
		OpenExceptionRows: topByDateDesc(openInWindow, limit, func(r exception.Request) time.Time { return r.CreatedAt }),
	}
}

func filterWindow[T any](rows []T, since, until time.Time, at func(T) time.Time) []T {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		ts := at(row)
		if ts.IsZero() || ts.Before(since) || ts.After(until) {
			continue
		}
		out = append(out, row)
	}
	return out
}

func topByDateDesc[T any](rows []T, limit int, at func(T) time.Time) []T {
	out := make([]T, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		return at(out[i]).After(at(out[j]))
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
