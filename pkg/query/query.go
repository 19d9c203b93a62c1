// Package query filters and orders loaded applications without mutating them.
package query

import (
	"cmp"
	"fmt"
	"iter"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/mklimuk/job-pilot/pkg/tracker"
)

// Entry pairs a record with its position in the tracker file.
type Entry struct {
	Index int                 `json:"index"`
	App   tracker.Application `json:"application"`
}

// Group is a coarse pipeline bucket used by the dashboard tabs.
type Group string

const (
	GroupAll          Group = ""
	GroupApplied      Group = "applied"
	GroupNotApplied   Group = "not_applied"
	GroupInterviewing Group = "interviewing"
	GroupOffers       Group = "offers"
	GroupRejected     Group = "rejected"
)

// Groups lists the named groups in display order.
var Groups = []Group{GroupApplied, GroupNotApplied, GroupInterviewing, GroupOffers, GroupRejected}

func ParseGroup(s string) (Group, error) {
	g := Group(strings.ToLower(strings.TrimSpace(s)))
	if g == GroupAll || slices.Contains(Groups, g) {
		return g, nil
	}
	return GroupAll, fmt.Errorf("unknown group %q", s)
}

// Contains reports whether status belongs to the group.
func (g Group) Contains(s tracker.Status) bool {
	switch g {
	case GroupAll:
		return true
	case GroupApplied:
		return s.IsApplied()
	case GroupNotApplied:
		return s == tracker.StatusNotApplied
	case GroupInterviewing:
		return s.IsInterviewing()
	case GroupOffers:
		return s.IsOffer()
	case GroupRejected:
		return s.IsClosedOut()
	}
	return false
}

// Filter selects records. Empty sets match everything.
type Filter struct {
	Statuses      []tracker.Status
	Priorities    []tracker.Priority
	IncludeHidden bool
	Group         Group
	Company       string // case-insensitive substring
}

// Match reports whether a satisfies every predicate of f.
func (f Filter) Match(a tracker.Application) bool {
	if a.Hidden && !f.IncludeHidden {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, a.Status) {
		return false
	}
	if len(f.Priorities) > 0 && !slices.Contains(f.Priorities, a.Priority) {
		return false
	}
	if !f.Group.Contains(a.Status) {
		return false
	}
	if q := strings.TrimSpace(f.Company); q != "" {
		if !strings.Contains(strings.ToLower(a.Company), strings.ToLower(q)) {
			return false
		}
	}
	return true
}

// Apply yields the matching records lazily, in file order.
func Apply(apps []tracker.Application, f Filter) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for i, a := range apps {
			if !f.Match(a) {
				continue
			}
			if !yield(Entry{Index: i, App: a}) {
				return
			}
		}
	}
}

// Collect materializes seq.
func Collect(seq iter.Seq[Entry]) []Entry {
	return slices.Collect(seq)
}

// All wraps every record as an Entry.
func All(apps []tracker.Application) []Entry {
	return Collect(Apply(apps, Filter{IncludeHidden: true}))
}

// Apps strips the indexes.
func Apps(entries []Entry) []tracker.Application {
	out := make([]tracker.Application, len(entries))
	for i, e := range entries {
		out[i] = e.App
	}
	return out
}

type Field string

const (
	FieldCompany      Field = "company"
	FieldPosition     Field = "position"
	FieldStatus       Field = "status"
	FieldPriority     Field = "priority"
	FieldSalary       Field = "salary"
	FieldAppliedDate  Field = "applied_date"
	FieldLastContact  Field = "last_contact_date"
	FieldNextFollowUp Field = "next_followup_date"
)

var Fields = []Field{
	FieldCompany, FieldPosition, FieldStatus, FieldPriority, FieldSalary,
	FieldAppliedDate, FieldLastContact, FieldNextFollowUp,
}

func ParseField(s string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(Fields, f) {
		return f, nil
	}
	return "", fmt.Errorf("unknown sort field %q", s)
}

type Direction int

const (
	Asc Direction = iota
	Desc
)

func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), "desc") {
		return Desc
	}
	return Asc
}

func (d Direction) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

// Sort orders entries in place with a stable sort. For date and salary
// fields, records without a parseable value go last in both directions.
func Sort(entries []Entry, field Field, dir Direction) {
	switch field {
	case FieldAppliedDate:
		sortOptional(entries, tracker.Application.Applied, time.Time.Compare, dir)
	case FieldLastContact:
		sortOptional(entries, tracker.Application.LastContact, time.Time.Compare, dir)
	case FieldNextFollowUp:
		sortOptional(entries, tracker.Application.NextFollowUp, time.Time.Compare, dir)
	case FieldSalary:
		sortOptional(entries, SalaryValue, cmp.Compare[float64], dir)
	default:
		key := compareBy(field)
		slices.SortStableFunc(entries, func(x, y Entry) int {
			return orient(key(x.App, y.App), dir)
		})
	}
}

func sortOptional[K any](entries []Entry, key func(tracker.Application) (K, bool), compare func(K, K) int, dir Direction) {
	slices.SortStableFunc(entries, func(x, y Entry) int {
		kx, okx := key(x.App)
		ky, oky := key(y.App)
		switch {
		case !okx && !oky:
			return 0
		case !okx:
			return 1
		case !oky:
			return -1
		}
		return orient(compare(kx, ky), dir)
	})
}

func orient(c int, dir Direction) int {
	if dir == Desc {
		return -c
	}
	return c
}

func compareBy(field Field) func(x, y tracker.Application) int {
	switch field {
	case FieldPosition:
		return func(x, y tracker.Application) int { return compareFold(x.Position, y.Position) }
	case FieldStatus:
		return func(x, y tracker.Application) int { return cmp.Compare(x.Status.Rank(), y.Status.Rank()) }
	case FieldPriority:
		return func(x, y tracker.Application) int { return cmp.Compare(x.Priority.Rank(), y.Priority.Rank()) }
	default:
		return func(x, y tracker.Application) int { return compareFold(x.Company, y.Company) }
	}
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

var salaryPattern = regexp.MustCompile(`(\d[\d,]*(?:\.\d+)?)\s*([kK])?`)

// SalaryValue extracts the first amount from the total compensation
// estimate, falling back to the base salary. "150k" and "$150,000" both
// read as 150000.
func SalaryValue(a tracker.Application) (float64, bool) {
	for _, text := range []string{a.TotalComp, a.SalaryBase} {
		m := salaryPattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil {
			continue
		}
		if m[2] != "" {
			v *= 1000
		}
		return v, true
	}
	return 0, false
}
