package tracker

import (
	"slices"
	"strings"
	"time"
)

// Status is the application pipeline state. Values outside Statuses are
// preserved when read but refused on write.
type Status string

const (
	StatusNotApplied           Status = "Not Applied"
	StatusApplied              Status = "Applied"
	StatusPhoneScreenScheduled Status = "Phone Screen Scheduled"
	StatusPhoneScreenComplete  Status = "Phone Screen Complete"
	StatusTechScheduled        Status = "Technical Interview Scheduled"
	StatusTechComplete         Status = "Technical Interview Complete"
	StatusOnsiteScheduled      Status = "On-Site/Virtual Interview Scheduled"
	StatusOnsiteComplete       Status = "On-Site/Virtual Interview Complete"
	StatusOfferReceived        Status = "Offer Received"
	StatusOfferAccepted        Status = "Offer Accepted"
	StatusOfferDeclined        Status = "Offer Declined"
	StatusRejected             Status = "Rejected"
	StatusWithdrawn            Status = "Withdrawn"
	StatusNoResponse           Status = "No Response"
	StatusPositionClosed       Status = "Position Closed"
)

// Statuses lists every valid status in pipeline order.
var Statuses = []Status{
	StatusNotApplied,
	StatusApplied,
	StatusPhoneScreenScheduled,
	StatusPhoneScreenComplete,
	StatusTechScheduled,
	StatusTechComplete,
	StatusOnsiteScheduled,
	StatusOnsiteComplete,
	StatusOfferReceived,
	StatusOfferAccepted,
	StatusOfferDeclined,
	StatusRejected,
	StatusWithdrawn,
	StatusNoResponse,
	StatusPositionClosed,
}

// Valid reports whether s is one of Statuses.
func (s Status) Valid() bool {
	return slices.Contains(Statuses, s)
}

// Rank is the pipeline position of s, or len(Statuses) for unknown values.
func (s Status) Rank() int {
	if i := slices.Index(Statuses, s); i >= 0 {
		return i
	}
	return len(Statuses)
}

// Display returns the status text, or "unknown" for values outside the set.
func (s Status) Display() string {
	if s.Valid() {
		return string(s)
	}
	return "unknown"
}

// IsApplied is true for every status except Not Applied.
func (s Status) IsApplied() bool {
	return s != StatusNotApplied
}

// IsInterviewing covers phone screens and every interview round.
func (s Status) IsInterviewing() bool {
	return strings.Contains(string(s), "Interview") || strings.Contains(string(s), "Screen")
}

func (s Status) IsOffer() bool {
	return strings.Contains(string(s), "Offer")
}

// IsClosedOut covers outcomes where the company ended the process.
func (s Status) IsClosedOut() bool {
	switch s {
	case StatusRejected, StatusNoResponse, StatusPositionClosed:
		return true
	}
	return false
}

// Responded is true when the company replied in any way.
func (s Status) Responded() bool {
	if !s.Valid() {
		return false
	}
	return s.IsInterviewing() || s.IsOffer() || s == StatusRejected
}

// ParseStatus matches s against Statuses ignoring case and surrounding space.
func ParseStatus(s string) (Status, bool) {
	s = strings.TrimSpace(s)
	for _, st := range Statuses {
		if strings.EqualFold(string(st), s) {
			return st, true
		}
	}
	return Status(s), false
}

type Priority string

const (
	PriorityCritical Priority = "Critical"
	PriorityHigh     Priority = "High"
	PriorityMedium   Priority = "Medium"
	PriorityLow      Priority = "Low"
)

var Priorities = []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}

func (p Priority) Valid() bool {
	return slices.Contains(Priorities, p)
}

// Rank orders priorities from Critical (0) to Low (3). Unknown values rank as Medium.
func (p Priority) Rank() int {
	if i := slices.Index(Priorities, p); i >= 0 {
		return i
	}
	return 2
}

func ParsePriority(s string) (Priority, bool) {
	s = strings.TrimSpace(s)
	for _, p := range Priorities {
		if strings.EqualFold(string(p), s) {
			return p, true
		}
	}
	return Priority(s), false
}

// HideReasons are the reasons offered when hiding a record.
var HideReasons = []string{
	"Not a Good Fit",
	"Bad Location",
	"Low Compensation",
	"Position Closed",
	"Bad Reviews",
	"Other",
}

// InterviewStages are the suggested values for Application.InterviewStage.
var InterviewStages = []string{
	"None",
	"Recruiter Screen",
	"Hiring Manager Screen",
	"Technical Phone",
	"Take-Home Assessment",
	"Virtual On-Site",
	"In-Person On-Site",
	"Final Round",
	"Team Match",
	"Offer Stage",
	"Negotiation",
}

// Application is one row of the tracker file. Dates are kept as written so
// that unparseable values survive a load/save cycle.
type Application struct {
	Company          string   `json:"company"`
	Position         string   `json:"position"`
	Location         string   `json:"location"`
	SalaryBase       string   `json:"salary_base"`
	TotalComp        string   `json:"total_comp_estimate"`
	Status           Status   `json:"status"`
	AppliedDate      string   `json:"applied_date"`
	JobURL           string   `json:"job_url"`
	ContactName      string   `json:"contact_name"`
	ContactEmail     string   `json:"contact_email"`
	ContactPhone     string   `json:"contact_phone"`
	LastContactDate  string   `json:"last_contact_date"`
	NextFollowUpDate string   `json:"next_followup_date"`
	InterviewStage   string   `json:"interview_stage"`
	Notes            string   `json:"notes"`
	Priority         Priority `json:"priority"`
	Hidden           bool     `json:"hidden"`
	HideReason       string   `json:"hide_reason"`
}

// Applied returns the parsed applied date.
func (a Application) Applied() (time.Time, bool) {
	return ParseDate(a.AppliedDate)
}

func (a Application) LastContact() (time.Time, bool) {
	return ParseDate(a.LastContactDate)
}

func (a Application) NextFollowUp() (time.Time, bool) {
	return ParseDate(a.NextFollowUpDate)
}

// MatchesCompany compares company names ignoring case and surrounding space.
func (a Application) MatchesCompany(company string) bool {
	return strings.EqualFold(strings.TrimSpace(a.Company), strings.TrimSpace(company))
}

// Notes separators and layout.
const (
	noteSeparator  = " | "
	noteDateFormat = DateLayout
)

// NoteEntries splits the notes blob into its individual entries.
func (a Application) NoteEntries() []string {
	if strings.TrimSpace(a.Notes) == "" {
		return nil
	}
	return strings.Split(a.Notes, noteSeparator)
}

// appendNote extends the notes history; existing text is never rewritten.
func appendNote(existing, text string, at time.Time) string {
	entry := at.Format(noteDateFormat) + ": " + text
	if strings.TrimSpace(existing) == "" {
		return entry
	}
	return existing + noteSeparator + entry
}
