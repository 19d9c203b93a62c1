package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mklimuk/job-pilot/pkg/query"
	"github.com/mklimuk/job-pilot/pkg/stats"
	"github.com/mklimuk/job-pilot/pkg/tracker"
)

func (a *App) cmdInit(_ context.Context, args []string) error {
	if err := exactArgs(args, 0, "init"); err != nil {
		return err
	}
	created, err := a.Store.Init()
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(a.out, "Created %s\n", a.Store.Path())
	} else {
		fmt.Fprintf(a.out, "%s already exists\n", a.Store.Path())
	}
	return nil
}

func (a *App) cmdList(_ context.Context, args []string) error {
	fs := a.flags("list")
	all := fs.Bool("all", false, "include hidden applications")
	status := fs.String("status", "", "only this status")
	priority := fs.String("priority", "", "only this priority")
	group := fs.String("group", "", "applied, not_applied, interviewing, offers or rejected")
	q := fs.String("q", "", "company name contains")
	sortBy := fs.String("sort", "", "sort field")
	desc := fs.Bool("desc", false, "sort descending")
	rest, err := parse(fs, args)
	if err != nil {
		return err
	}
	if err := exactArgs(rest, 0, "list [flags]"); err != nil {
		return err
	}

	f := query.Filter{IncludeHidden: *all, Company: *q}
	if f.Group, err = query.ParseGroup(*group); err != nil {
		return err
	}
	if *status != "" {
		st, ok := tracker.ParseStatus(*status)
		if !ok {
			return &tracker.ValidationError{Field: "status", Msg: fmt.Sprintf("%q is not a known status", *status)}
		}
		f.Statuses = []tracker.Status{st}
	}
	if *priority != "" {
		p, ok := tracker.ParsePriority(*priority)
		if !ok {
			return &tracker.ValidationError{Field: "priority", Msg: fmt.Sprintf("%q is not a known priority", *priority)}
		}
		f.Priorities = []tracker.Priority{p}
	}
	var field query.Field
	if *sortBy != "" {
		if field, err = query.ParseField(*sortBy); err != nil {
			return err
		}
	}
	dir := query.Asc
	if *desc {
		dir = query.Desc
	}
	return a.list(f, field, dir)
}

func (a *App) cmdApplied(_ context.Context, args []string) error {
	return a.listGroup("applied", query.GroupApplied, args)
}

func (a *App) cmdPending(_ context.Context, args []string) error {
	return a.listGroup("pending", query.GroupNotApplied, args)
}

func (a *App) listGroup(name string, g query.Group, args []string) error {
	fs := a.flags(name)
	all := fs.Bool("all", false, "include hidden applications")
	rest, err := parse(fs, args)
	if err != nil {
		return err
	}
	if err := exactArgs(rest, 0, name+" [-all]"); err != nil {
		return err
	}
	return a.list(query.Filter{Group: g, IncludeHidden: *all}, "", query.Asc)
}

func (a *App) list(f query.Filter, field query.Field, dir query.Direction) error {
	apps, err := a.Store.Load()
	if err != nil {
		return err
	}
	entries := query.Collect(query.Apply(apps, f))
	if field != "" {
		query.Sort(entries, field, dir)
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No applications.")
		return nil
	}
	w := a.table()
	fmt.Fprintln(w, "#\tCOMPANY\tPOSITION\tSTATUS\tPRIORITY\tAPPLIED\tFOLLOW-UP")
	for _, e := range entries {
		company := e.App.Company
		if e.App.Hidden {
			company += " (hidden)"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n", e.Index, company, e.App.Position,
			e.App.Status.Display(), e.App.Priority, dash(e.App.AppliedDate), dash(e.App.NextFollowUpDate))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "\n%d of %d applications\n", len(entries), len(apps))
	return nil
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func (a *App) cmdFollowUps(_ context.Context, args []string) error {
	fs := a.flags("followups")
	days := fs.Int("days", a.horizon(), "days ahead to include")
	all := fs.Bool("all", false, "include hidden applications")
	rest, err := parse(fs, args)
	if err != nil {
		return err
	}
	if err := exactArgs(rest, 0, "followups [-days N] [-all]"); err != nil {
		return err
	}
	apps, err := a.Store.Load()
	if err != nil {
		return err
	}
	now := a.now()
	overdue := stats.Overdue(apps, now, *all)
	upcoming := stats.Upcoming(apps, now, *days, *all)
	if len(overdue) == 0 && len(upcoming) == 0 {
		fmt.Fprintf(a.out, "No follow-ups in the next %d days.\n", *days)
		return nil
	}
	w := a.table()
	if len(overdue) > 0 {
		fmt.Fprintln(w, "OVERDUE")
		followUpRows(w, overdue)
	}
	if len(upcoming) > 0 {
		if len(overdue) > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "NEXT %d DAYS\n", *days)
		followUpRows(w, upcoming)
	}
	return w.Flush()
}

func followUpRows(w io.Writer, rows []stats.FollowUp) {
	for _, f := range rows {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", f.Index, f.App.Company, f.App.Position,
			f.App.Status.Display(), f.App.NextFollowUpDate, relative(f.DaysUntil))
	}
}

func relative(days int) string {
	switch {
	case days == 0:
		return "today"
	case days == 1:
		return "tomorrow"
	case days > 1:
		return fmt.Sprintf("in %d days", days)
	case days == -1:
		return "1 day overdue"
	}
	return fmt.Sprintf("%d days overdue", -days)
}

func (a *App) horizon() int {
	if a.Config.FollowUpHorizonDays > 0 {
		return a.Config.FollowUpHorizonDays
	}
	return stats.DefaultHorizonDays
}

func (a *App) cmdStats(_ context.Context, args []string) error {
	fs := a.flags("stats")
	all := fs.Bool("all", false, "include hidden applications")
	rest, err := parse(fs, args)
	if err != nil {
		return err
	}
	if err := exactArgs(rest, 0, "stats [-all]"); err != nil {
		return err
	}
	apps, err := a.Store.Load()
	if err != nil {
		return err
	}
	s := stats.Compute(apps, stats.Options{IncludeHidden: *all})

	w := a.table()
	fmt.Fprintf(w, "Total\t%d\n", s.Total)
	fmt.Fprintf(w, "Applied\t%d\n", s.Applied)
	fmt.Fprintf(w, "Not applied\t%d\n", s.NotApplied)
	fmt.Fprintf(w, "Interviewing\t%d\n", s.Interviewing)
	fmt.Fprintf(w, "Offers\t%d\n", s.Offers)
	fmt.Fprintf(w, "Rejected\t%d\n", s.Rejected)
	fmt.Fprintf(w, "Hidden\t%d\n", s.Hidden)
	fmt.Fprintf(w, "Response rate\t%.0f%%\n", s.ResponseRate*100)
	fmt.Fprintln(w)
	for _, c := range s.ByStatus {
		if c.Count > 0 {
			fmt.Fprintf(w, "%s\t%d\n", c.Status, c.Count)
		}
	}
	if s.Unknown > 0 {
		fmt.Fprintf(w, "unknown\t%d\n", s.Unknown)
	}
	return w.Flush()
}

func (a *App) cmdShow(_ context.Context, args []string) error {
	if err := exactArgs(args, 1, "show N"); err != nil {
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
	w := a.table()
	rows := [][2]string{
		{"Company", app.Company},
		{"Position", app.Position},
		{"Location", app.Location},
		{"Salary", app.SalaryBase},
		{"Total comp", app.TotalComp},
		{"Status", app.Status.Display()},
		{"Priority", string(app.Priority)},
		{"Applied", app.AppliedDate},
		{"Last contact", app.LastContactDate},
		{"Next follow-up", app.NextFollowUpDate},
		{"Interview stage", app.InterviewStage},
		{"Contact", strings.TrimSpace(strings.Join([]string{app.ContactName, app.ContactEmail, app.ContactPhone}, " "))},
		{"Posting", app.JobURL},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\n", r[0], dash(r[1]))
	}
	if app.Hidden {
		fmt.Fprintf(w, "Hidden\t%s\n", dash(app.HideReason))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if notes := app.NoteEntries(); len(notes) > 0 {
		fmt.Fprintln(a.out, "\nNotes:")
		for _, n := range notes {
			fmt.Fprintf(a.out, "  %s\n", n)
		}
	}
	return nil
}

func (a *App) cmdNote(_ context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: tracker note COMPANY TEXT")
	}
	company, text := args[0], strings.Join(args[1:], " ")
	if err := a.Store.AppendNote(company, text); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Note added to %s.\n", company)
	return nil
}

func (a *App) cmdStatus(_ context.Context, args []string) error {
	fs := a.flags("status")
	date := fs.String("date", "", "date of the change (default today)")
	rest, err := parse(fs, args)
	if err != nil {
		return err
	}
	if len(rest) < 2 {
		return fmt.Errorf("usage: tracker status COMPANY STATUS [-date YYYY-MM-DD]")
	}
	company, value := rest[0], strings.Join(rest[1:], " ")
	st, ok := tracker.ParseStatus(value)
	if !ok {
		return &tracker.ValidationError{Field: "status", Msg: fmt.Sprintf("%q is not a known status", value)}
	}
	var at *time.Time
	if *date != "" {
		d, ok := tracker.ParseDate(*date)
		if !ok {
			return &tracker.ValidationError{Field: "date", Msg: fmt.Sprintf("%q is not a YYYY-MM-DD date", *date)}
		}
		at = &d
	}
	if err := a.Store.UpdateStatus(company, st, at); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s is now %s.\n", company, st)
	return nil
}

func (a *App) cmdHide(_ context.Context, args []string) error {
	fs := a.flags("hide")
	reason := fs.String("reason", "Other", "why the application is hidden")
	rest, err := parse(fs, args)
	if err != nil {
		return err
	}
	if err := exactArgs(rest, 1, "hide N [-reason R]"); err != nil {
		return err
	}
	i, err := index(rest[0])
	if err != nil {
		return err
	}
	if err := a.Store.Hide(i, *reason); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Hid #%d.\n", i)
	return nil
}

func (a *App) cmdUnhide(_ context.Context, args []string) error {
	if err := exactArgs(args, 1, "unhide N"); err != nil {
		return err
	}
	i, err := index(args[0])
	if err != nil {
		return err
	}
	if err := a.Store.Unhide(i); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Unhid #%d.\n", i)
	return nil
}

func (a *App) cmdDelete(_ context.Context, args []string) error {
	fs := a.flags("delete")
	yes := fs.Bool("yes", false, "do not ask for confirmation")
	rest, err := parse(fs, args)
	if err != nil {
		return err
	}
	if err := exactArgs(rest, 1, "delete N [-yes]"); err != nil {
		return err
	}
	i, err := index(rest[0])
	if err != nil {
		return err
	}
	app, err := a.Store.Get(i)
	if err != nil {
		return err
	}
	if !*yes {
		ok, err := a.confirm(fmt.Sprintf("Delete %s (%s)?", app.Company, app.Position))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(a.out, "Cancelled.")
			return nil
		}
	}
	removed, err := a.Store.Delete(i)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted %s.\n", removed.Company)
	return nil
}
