// Package chat implements the text commands shared by the chat bots.
package chat

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mklimuk/job-pilot/pkg/stats"
	"github.com/mklimuk/job-pilot/pkg/tracker"
)

// Store is the part of the tracker store the commands use.
type Store interface {
	Load() ([]tracker.Application, error)
	AppendNote(company, text string) error
	UpdateStatus(company string, status tracker.Status, date *time.Time) error
}

// Commands answers chat messages.
type Commands struct {
	store       Store
	horizonDays int
	now         func() time.Time
}

func NewCommands(store Store, horizonDays int) *Commands {
	return &Commands{store: store, horizonDays: horizonDays, now: time.Now}
}

// ParseCommand splits a prefixed message into its command and arguments.
// A "@botname" suffix on the command is dropped. Text without the prefix
// yields an empty command.
func ParseCommand(prefix, text string) (command, args string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, prefix) {
		return "", text
	}
	word, rest, _ := strings.Cut(strings.TrimPrefix(text, prefix), " ")
	word, _, _ = strings.Cut(word, "@")
	return strings.ToLower(word), strings.TrimSpace(rest)
}

// Reply returns the answer to text, or "" when text is not a command.
func (c *Commands) Reply(prefix, text string) string {
	cmd, args := ParseCommand(prefix, text)
	switch cmd {
	case "":
		return ""
	case "stats":
		return c.stats()
	case "followups":
		return c.followUps(args)
	case "note":
		return c.note(args)
	case "status":
		return c.status(args)
	case "help", "start":
		return Help(prefix)
	}
	return fmt.Sprintf("Unknown command %s%s.\n\n%s", prefix, cmd, Help(prefix))
}

// Help lists the commands with the given prefix.
func Help(prefix string) string {
	lines := []string{
		prefix + "stats - application counters",
		prefix + "followups [days] - overdue and upcoming follow-ups",
		prefix + "note <company>: <text> - add a dated note",
		prefix + "status <company>: <status> - change the status",
	}
	return strings.Join(lines, "\n")
}

func (c *Commands) stats() string {
	apps, err := c.store.Load()
	if err != nil {
		return "Error: " + err.Error()
	}
	s := stats.Compute(apps, stats.Options{})
	return fmt.Sprintf("Applications: %d (applied %d, not applied %d)\nInterviewing: %d\nOffers: %d\nRejected: %d\nResponse rate: %.0f%%\nHidden: %d",
		s.Total, s.Applied, s.NotApplied, s.Interviewing, s.Offers, s.Rejected, s.ResponseRate*100, s.Hidden)
}

func (c *Commands) followUps(args string) string {
	days := c.horizonDays
	if args != "" {
		n, err := strconv.Atoi(args)
		if err != nil || n <= 0 {
			return fmt.Sprintf("%q is not a number of days.", args)
		}
		days = n
	}
	if days <= 0 {
		days = stats.DefaultHorizonDays
	}
	apps, err := c.store.Load()
	if err != nil {
		return "Error: " + err.Error()
	}

	now := c.now()
	overdue := stats.Overdue(apps, now, false)
	upcoming := stats.Upcoming(apps, now, days, false)
	if len(overdue) == 0 && len(upcoming) == 0 {
		return fmt.Sprintf("No follow-ups in the next %d days.", days)
	}

	var b strings.Builder
	if len(overdue) > 0 {
		b.WriteString("Overdue:\n")
		for _, fu := range overdue {
			fmt.Fprintf(&b, "- %s (%s) %s, %s\n", fu.App.Company, fu.App.Position, fu.App.NextFollowUpDate, relative(fu.DaysUntil))
		}
	}
	if len(upcoming) > 0 {
		fmt.Fprintf(&b, "Next %d days:\n", days)
		for _, fu := range upcoming {
			fmt.Fprintf(&b, "- %s (%s) %s, %s\n", fu.App.Company, fu.App.Position, fu.App.NextFollowUpDate, relative(fu.DaysUntil))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func relative(days int) string {
	switch {
	case days == 0:
		return "today"
	case days == 1:
		return "tomorrow"
	case days == -1:
		return "yesterday"
	case days < 0:
		return fmt.Sprintf("%d days ago", -days)
	}
	return fmt.Sprintf("in %d days", days)
}

func (c *Commands) note(args string) string {
	company, text, ok := splitArgs(args)
	if !ok {
		return "Usage: note <company>: <text>"
	}
	if err := c.store.AppendNote(company, text); err != nil {
		return failure(company, err)
	}
	return fmt.Sprintf("Note added to %s.", company)
}

func (c *Commands) status(args string) string {
	company, value, ok := splitArgs(args)
	if !ok {
		return "Usage: status <company>: <status>"
	}
	st, ok := tracker.ParseStatus(value)
	if !ok {
		return fmt.Sprintf("Unknown status %q.", value)
	}
	if err := c.store.UpdateStatus(company, st, nil); err != nil {
		return failure(company, err)
	}
	return fmt.Sprintf("%s is now %s.", company, st)
}

// splitArgs parses "<company>: <text>".
func splitArgs(args string) (company, text string, ok bool) {
	company, text, found := strings.Cut(args, ":")
	company, text = strings.TrimSpace(company), strings.TrimSpace(text)
	if !found || company == "" || text == "" {
		return "", "", false
	}
	return company, text, true
}

func failure(company string, err error) string {
	if tracker.IsNotFound(err) {
		return fmt.Sprintf("No application for %s.", company)
	}
	return "Error: " + err.Error()
}

// Split breaks text into chunks of at most limit bytes, on line boundaries
// where possible.
func Split(text string, limit int) []string {
	var out []string
	for len(text) > limit {
		cut := strings.LastIndex(text[:limit], "\n")
		if cut <= 0 {
			cut = limit
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
		}
		out = append(out, text[:cut])
		text = strings.TrimPrefix(text[cut:], "\n")
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}
