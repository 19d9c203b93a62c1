package tracker

import (
	"fmt"
	"strings"
	"time"
)

// Patch is a partial update. Nil fields are left alone; Note is appended to
// the notes history rather than replacing it.
type Patch struct {
	Company          *string `json:"company,omitempty"`
	Position         *string `json:"position,omitempty"`
	Location         *string `json:"location,omitempty"`
	SalaryBase       *string `json:"salary_base,omitempty"`
	TotalComp        *string `json:"total_comp_estimate,omitempty"`
	Status           *string `json:"status,omitempty"`
	AppliedDate      *string `json:"applied_date,omitempty"`
	JobURL           *string `json:"job_url,omitempty"`
	ContactName      *string `json:"contact_name,omitempty"`
	ContactEmail     *string `json:"contact_email,omitempty"`
	ContactPhone     *string `json:"contact_phone,omitempty"`
	LastContactDate  *string `json:"last_contact_date,omitempty"`
	NextFollowUpDate *string `json:"next_followup_date,omitempty"`
	InterviewStage   *string `json:"interview_stage,omitempty"`
	Priority         *string `json:"priority,omitempty"`
	Note             *string `json:"note,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p == Patch{}
}

func (p Patch) apply(a *Application, now time.Time) error {
	if p.Company != nil {
		v := strings.TrimSpace(*p.Company)
		if v == "" {
			return &ValidationError{Field: "Company", Msg: "is required"}
		}
		a.Company = v
	}
	if p.Position != nil {
		v := strings.TrimSpace(*p.Position)
		if v == "" {
			return &ValidationError{Field: "Position", Msg: "is required"}
		}
		a.Position = v
	}
	if p.Priority != nil {
		pr, ok := ParsePriority(*p.Priority)
		if !ok {
			return &ValidationError{Field: "Priority", Msg: fmt.Sprintf("%q is not a known priority", *p.Priority)}
		}
		a.Priority = pr
	}

	dates := []struct {
		field string
		src   *string
		dst   *string
	}{
		{"Applied Date", p.AppliedDate, &a.AppliedDate},
		{"Last Contact Date", p.LastContactDate, &a.LastContactDate},
		{"Next Follow-Up", p.NextFollowUpDate, &a.NextFollowUpDate},
	}
	for _, d := range dates {
		if d.src == nil {
			continue
		}
		v := strings.TrimSpace(*d.src)
		if err := validateDate(d.field, v); err != nil {
			return err
		}
		*d.dst = v
	}

	if p.Status != nil {
		st, ok := ParseStatus(*p.Status)
		if !ok {
			return &ValidationError{Field: "Status", Msg: fmt.Sprintf("%q is not a known status", *p.Status)}
		}
		applyStatus(a, st, Day(now))
		// an explicit last contact date wins over the one the status sets
		if p.LastContactDate != nil {
			if v := strings.TrimSpace(*p.LastContactDate); v != "" {
				a.LastContactDate = v
			}
		}
	}

	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&a.Location, p.Location)
	set(&a.SalaryBase, p.SalaryBase)
	set(&a.TotalComp, p.TotalComp)
	set(&a.JobURL, p.JobURL)
	set(&a.ContactName, p.ContactName)
	set(&a.ContactEmail, p.ContactEmail)
	set(&a.ContactPhone, p.ContactPhone)
	set(&a.InterviewStage, p.InterviewStage)

	if p.Note != nil && strings.TrimSpace(*p.Note) != "" {
		a.Notes = appendNote(a.Notes, strings.TrimSpace(*p.Note), now)
	}
	return nil
}
