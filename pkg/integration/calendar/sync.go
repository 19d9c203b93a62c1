package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mklimuk/job-pilot/pkg/db"
	"github.com/mklimuk/job-pilot/pkg/logging"
	"github.com/mklimuk/job-pilot/pkg/stats"
	"github.com/mklimuk/job-pilot/pkg/tracker"
)

// Report counts what a push did to the calendar.
type Report struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Deleted   int `json:"deleted"`
	Unchanged int `json:"unchanged"`
	Failed    int `json:"failed"`
}

// FollowUps mirrors upcoming follow-up dates as all-day calendar events,
// one event per company.
type FollowUps struct {
	service     CalendarAPI
	repo        *db.Repository
	horizonDays int
	log         *logging.Logger
}

// NewFollowUps creates a follow-up pusher.
func NewFollowUps(service CalendarAPI, repo *db.Repository, horizonDays int, log *logging.Logger) *FollowUps {
	if log == nil {
		log = logging.NewNop()
	}
	return &FollowUps{service: service, repo: repo, horizonDays: horizonDays, log: log}
}

// Push creates or moves events for follow-ups due within the horizon and
// removes events whose record was hidden, closed out, deleted or
// rescheduled out of range. Calendar failures are counted and skipped;
// history database failures abort the push.
func (f *FollowUps) Push(ctx context.Context, apps []tracker.Application, now time.Time) (Report, error) {
	var rep Report
	wanted := make(map[string]bool)

	for _, fu := range stats.Upcoming(apps, now, f.horizonDays, false) {
		a := fu.App
		company := strings.TrimSpace(a.Company)
		if a.Status.IsClosedOut() || wanted[company] {
			continue
		}
		wanted[company] = true
		if err := ctx.Err(); err != nil {
			return rep, err
		}

		key := syncKey(a)
		rec, err := f.repo.GetCalendarSyncByCompany(company)
		if err != nil {
			return rep, err
		}

		switch {
		case rec == nil:
			id, err := f.service.CreateEvent(ctx, toEvent(a, fu.Due))
			if err != nil {
				f.log.Warn("failed to create follow-up event", "company", company, "error", err)
				rep.Failed++
				continue
			}
			if err := f.repo.InsertCalendarSync(id, company, key); err != nil {
				return rep, err
			}
			rep.Created++
		case rec.SyncKey != key:
			if err := f.service.UpdateEvent(ctx, rec.EventID, toEvent(a, fu.Due)); err != nil {
				f.log.Warn("failed to update follow-up event", "company", company, "error", err)
				rep.Failed++
				continue
			}
			if err := f.repo.UpdateCalendarSync(rec.EventID, key); err != nil {
				return rep, err
			}
			rep.Updated++
		default:
			rep.Unchanged++
		}
	}

	records, err := f.repo.ListCalendarSync()
	if err != nil {
		return rep, err
	}
	for _, rec := range records {
		if wanted[rec.Company] || !f.stale(apps, rec) {
			continue
		}
		if err := f.service.DeleteEvent(ctx, rec.EventID); err != nil {
			f.log.Warn("failed to delete follow-up event", "company", rec.Company, "error", err)
			rep.Failed++
			continue
		}
		if err := f.repo.DeleteCalendarSync(rec.EventID); err != nil {
			return rep, err
		}
		rep.Deleted++
	}

	f.log.Info("calendar follow-ups pushed", "created", rep.Created, "updated", rep.Updated,
		"deleted", rep.Deleted, "unchanged", rep.Unchanged, "failed", rep.Failed)
	return rep, nil
}

// stale reports whether the event for rec no longer matches any record.
// A follow-up that simply passed keeps its event.
func (f *FollowUps) stale(apps []tracker.Application, rec db.CalendarSyncRecord) bool {
	for _, a := range apps {
		if !a.MatchesCompany(rec.Company) {
			continue
		}
		if a.Hidden || a.Status.IsClosedOut() {
			return true
		}
		return syncKey(a) != rec.SyncKey
	}
	return true
}

func syncKey(a tracker.Application) string {
	return strings.TrimSpace(a.NextFollowUpDate) + "|" + strings.TrimSpace(a.Position)
}

func toEvent(a tracker.Application, due time.Time) Event {
	var desc []string
	desc = append(desc, "Status: "+a.Status.Display())
	if a.ContactName != "" || a.ContactEmail != "" {
		desc = append(desc, strings.TrimSpace(fmt.Sprintf("Contact: %s %s", a.ContactName, angle(a.ContactEmail))))
	}
	if a.JobURL != "" {
		desc = append(desc, "Posting: "+a.JobURL)
	}
	if notes := a.NoteEntries(); len(notes) > 0 {
		desc = append(desc, "Last note: "+notes[len(notes)-1])
	}
	return Event{
		Summary:     fmt.Sprintf("Follow up: %s (%s)", a.Company, a.Position),
		Description: strings.Join(desc, "\n"),
		Date:        due,
	}
}

func angle(email string) string {
	if email == "" {
		return ""
	}
	return "<" + email + ">"
}
