// Package stats derives dashboard metrics from a record set. Every function
// is pure: the reference time is always passed in.
package stats

import (
	"slices"
	"time"

	"github.com/mklimuk/job-pilot/pkg/tracker"
)

// DefaultHorizonDays is used when a caller passes a non-positive horizon.
const DefaultHorizonDays = 7

type StatusCount struct {
	Status tracker.Status `json:"status"`
	Count  int            `json:"count"`
}

// Summary holds the dashboard counters.
type Summary struct {
	Total        int           `json:"total"`
	Applied      int           `json:"applied"`
	NotApplied   int           `json:"not_applied"`
	Interviewing int           `json:"interviewing"`
	Offers       int           `json:"offers"`
	Rejected     int           `json:"rejected"`
	Hidden       int           `json:"hidden"`
	Unknown      int           `json:"unknown"`
	ByStatus     []StatusCount `json:"by_status"`
	ResponseRate float64       `json:"response_rate"`
}

// Count returns the number of records with status s.
func (s Summary) Count(st tracker.Status) int {
	for _, c := range s.ByStatus {
		if c.Status == st {
			return c.Count
		}
	}
	return 0
}

// Options controls which records take part.
type Options struct {
	IncludeHidden bool
}

// Compute aggregates apps. Hidden records are counted in Hidden but are
// otherwise excluded unless IncludeHidden is set.
func Compute(apps []tracker.Application, opts Options) Summary {
	s := Summary{ByStatus: make([]StatusCount, len(tracker.Statuses))}
	for i, st := range tracker.Statuses {
		s.ByStatus[i].Status = st
	}

	var considered []tracker.Application
	for _, a := range apps {
		if a.Hidden {
			s.Hidden++
			if !opts.IncludeHidden {
				continue
			}
		}
		considered = append(considered, a)

		s.Total++
		if r := a.Status.Rank(); r < len(s.ByStatus) {
			s.ByStatus[r].Count++
		} else {
			s.Unknown++
		}
		if a.Status.IsApplied() {
			s.Applied++
		} else {
			s.NotApplied++
		}
		if a.Status.IsInterviewing() {
			s.Interviewing++
		}
		if a.Status.IsOffer() {
			s.Offers++
		}
		if a.Status.IsClosedOut() {
			s.Rejected++
		}
	}
	s.ResponseRate = ResponseRate(considered)
	return s
}

// ResponseRate is the share of sent applications that got any reply. It is
// 0 when nothing has been sent.
func ResponseRate(apps []tracker.Application) float64 {
	sent, replied := 0, 0
	for _, a := range apps {
		if !a.Status.IsApplied() {
			continue
		}
		sent++
		if a.Status.Responded() {
			replied++
		}
	}
	if sent == 0 {
		return 0
	}
	return float64(replied) / float64(sent)
}

// FollowUp is a record with a follow-up date, relative to a reference day.
type FollowUp struct {
	Index     int                 `json:"index"`
	App       tracker.Application `json:"application"`
	Due       time.Time           `json:"due"`
	DaysUntil int                 `json:"days_until"`
}

// Upcoming returns records whose follow-up falls between today and
// today+horizonDays inclusive, soonest first. Index is the position in apps.
func Upcoming(apps []tracker.Application, now time.Time, horizonDays int, includeHidden bool) []FollowUp {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	return followUps(apps, now, includeHidden, func(days int) bool {
		return days >= 0 && days <= horizonDays
	})
}

// Overdue returns records whose follow-up date has passed, oldest first.
func Overdue(apps []tracker.Application, now time.Time, includeHidden bool) []FollowUp {
	return followUps(apps, now, includeHidden, func(days int) bool {
		return days < 0
	})
}

func followUps(apps []tracker.Application, now time.Time, includeHidden bool, keep func(days int) bool) []FollowUp {
	today := tracker.Day(now)
	var out []FollowUp
	for i, a := range apps {
		if a.Hidden && !includeHidden {
			continue
		}
		due, ok := a.NextFollowUp()
		if !ok {
			continue
		}
		days := int(due.Sub(today).Hours() / 24)
		if !keep(days) {
			continue
		}
		out = append(out, FollowUp{Index: i, App: a, Due: due, DaysUntil: days})
	}
	slices.SortStableFunc(out, func(x, y FollowUp) int {
		return x.Due.Compare(y.Due)
	})
	return out
}
