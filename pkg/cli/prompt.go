package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/mklimuk/job-pilot/pkg/tracker"
)

// field is one prompted value of an application.
type field struct {
	label string
	get   func(tracker.Application) string
	patch func(*tracker.Patch, string)
}

var fields = []field{
	{"Company", func(a tracker.Application) string { return a.Company }, func(p *tracker.Patch, v string) { p.Company = &v }},
	{"Position", func(a tracker.Application) string { return a.Position }, func(p *tracker.Patch, v string) { p.Position = &v }},
	{"Location", func(a tracker.Application) string { return a.Location }, func(p *tracker.Patch, v string) { p.Location = &v }},
	{"Salary", func(a tracker.Application) string { return a.SalaryBase }, func(p *tracker.Patch, v string) { p.SalaryBase = &v }},
	{"Total comp", func(a tracker.Application) string { return a.TotalComp }, func(p *tracker.Patch, v string) { p.TotalComp = &v }},
	{"Job URL", func(a tracker.Application) string { return a.JobURL }, func(p *tracker.Patch, v string) { p.JobURL = &v }},
	{"Status", func(a tracker.Application) string { return string(a.Status) }, func(p *tracker.Patch, v string) { p.Status = &v }},
	{"Priority", func(a tracker.Application) string { return string(a.Priority) }, func(p *tracker.Patch, v string) { p.Priority = &v }},
	{"Applied date", func(a tracker.Application) string { return a.AppliedDate }, func(p *tracker.Patch, v string) { p.AppliedDate = &v }},
	{"Contact name", func(a tracker.Application) string { return a.ContactName }, func(p *tracker.Patch, v string) { p.ContactName = &v }},
	{"Contact email", func(a tracker.Application) string { return a.ContactEmail }, func(p *tracker.Patch, v string) { p.ContactEmail = &v }},
	{"Contact phone", func(a tracker.Application) string { return a.ContactPhone }, func(p *tracker.Patch, v string) { p.ContactPhone = &v }},
	{"Last contact", func(a tracker.Application) string { return a.LastContactDate }, func(p *tracker.Patch, v string) { p.LastContactDate = &v }},
	{"Next follow-up", func(a tracker.Application) string { return a.NextFollowUpDate }, func(p *tracker.Patch, v string) { p.NextFollowUpDate = &v }},
	{"Interview stage", func(a tracker.Application) string { return a.InterviewStage }, func(p *tracker.Patch, v string) { p.InterviewStage = &v }},
}

// ask prompts for every field, keeping current values on an empty answer.
// A single "-" clears a value.
func (a *App) ask(current tracker.Application) (tracker.Patch, error) {
	var p tracker.Patch
	for _, f := range fields {
		old := f.get(current)
		v, err := a.prompt(f.label, old)
		if err != nil {
			return p, err
		}
		switch v {
		case "":
			continue
		case "-":
			v = ""
		}
		if v != old {
			f.patch(&p, v)
		}
	}
	note, err := a.prompt("Note", "")
	if err != nil {
		return p, err
	}
	if note != "" {
		p.Note = &note
	}
	return p, nil
}

func (a *App) cmdAdd(_ context.Context, args []string) error {
	if err := exactArgs(args, 0, "add"); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Statuses: %s\n", joinStatuses())
	p, err := a.ask(tracker.Application{Status: tracker.StatusNotApplied, Priority: tracker.PriorityMedium})
	if err != nil {
		return err
	}
	app := fromPatch(p)
	// Choosing the shown default leaves the patch field empty.
	if app.Status == "" {
		app.Status = tracker.StatusNotApplied
	} else if st, ok := tracker.ParseStatus(string(app.Status)); ok {
		app.Status = st
	}
	if pr, ok := tracker.ParsePriority(string(app.Priority)); ok {
		app.Priority = pr
	}

	var note string
	if p.Note != nil {
		note = *p.Note
	}
	i, err := a.Store.AddWithNote(app, note)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added %s as #%d.\n", app.Company, i)
	return nil
}

func fromPatch(p tracker.Patch) tracker.Application {
	v := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	return tracker.Application{
		Company:          v(p.Company),
		Position:         v(p.Position),
		Location:         v(p.Location),
		SalaryBase:       v(p.SalaryBase),
		TotalComp:        v(p.TotalComp),
		Status:           tracker.Status(v(p.Status)),
		AppliedDate:      v(p.AppliedDate),
		JobURL:           v(p.JobURL),
		ContactName:      v(p.ContactName),
		ContactEmail:     v(p.ContactEmail),
		ContactPhone:     v(p.ContactPhone),
		LastContactDate:  v(p.LastContactDate),
		NextFollowUpDate: v(p.NextFollowUpDate),
		InterviewStage:   v(p.InterviewStage),
		Priority:         tracker.Priority(v(p.Priority)),
	}
}

func (a *App) cmdEdit(_ context.Context, args []string) error {
	if err := exactArgs(args, 1, "edit N"); err != nil {
		return err
	}
	i, err := index(args[0])
	if err != nil {
		return err
	}
	app, err := a.Store.Get(i)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Press enter to keep a value, - to clear it.")
	p, err := a.ask(app)
	if err != nil {
		return err
	}
	if p.Empty() {
		fmt.Fprintln(a.out, "Nothing changed.")
		return nil
	}
	if err := a.Store.Update(i, p); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Updated #%d.\n", i)
	return nil
}

func joinStatuses() string {
	s := make([]string, len(tracker.Statuses))
	for i, st := range tracker.Statuses {
		s[i] = string(st)
	}
	return strings.Join(s, ", ")
}
