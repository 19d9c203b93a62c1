package chat

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mklimuk/job-pilot/pkg/tracker"
)

var today = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newCommands(t *testing.T) (*Commands, *tracker.Store) {
	t.Helper()
	store := tracker.NewStore(filepath.Join(t.TempDir(), "job_tracker.csv"), tracker.WithClock(func() time.Time { return today }))
	err := store.Save([]tracker.Application{
		{Company: "Acme", Position: "SRE", Status: tracker.StatusApplied, AppliedDate: "2026-03-01", NextFollowUpDate: "2026-03-08"},
		{Company: "Globex", Position: "Dev", Status: tracker.StatusPhoneScreenScheduled, NextFollowUpDate: "2026-03-11"},
		{Company: "Initech", Position: "Ops", Status: tracker.StatusNotApplied},
	})
	if err != nil {
		t.Fatal(err)
	}
	c := NewCommands(store, 7)
	c.now = func() time.Time { return today }
	return c, store
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		input    string
		wantCmd  string
		wantArgs string
	}{
		{"telegram command with args", "/", "/note Acme: sent thank-you", "note", "Acme: sent thank-you"},
		{"bot mention", "/", "/stats@job_pilot_bot", "stats", ""},
		{"discord prefix", "!", "!followups 14", "followups", "14"},
		{"upper case command", "!", "!STATS", "stats", ""},
		{"plain text", "/", "hello world", "", "hello world"},
		{"other prefix", "!", "/stats", "", "/stats"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args := ParseCommand(tt.prefix, tt.input)
			if cmd != tt.wantCmd || args != tt.wantArgs {
				t.Errorf("ParseCommand(%q) = %q, %q; want %q, %q", tt.input, cmd, args, tt.wantCmd, tt.wantArgs)
			}
		})
	}
}

func TestReplyStats(t *testing.T) {
	c, _ := newCommands(t)
	got := c.Reply("/", "/stats")
	for _, want := range []string{"Applications: 3 (applied 2, not applied 1)", "Interviewing: 1", "Response rate: 50%"} {
		if !strings.Contains(got, want) {
			t.Errorf("stats reply %q lacks %q", got, want)
		}
	}
}

func TestReplyFollowUps(t *testing.T) {
	c, _ := newCommands(t)
	got := c.Reply("!", "!followups")
	want := "Overdue:\n- Acme (SRE) 2026-03-08, 2 days ago\nNext 7 days:\n- Globex (Dev) 2026-03-11, tomorrow"
	if got != want {
		t.Errorf("followups reply =\n%s\nwant\n%s", got, want)
	}
	if got := c.Reply("!", "!followups soon"); !strings.Contains(got, "not a number") {
		t.Errorf("bad days reply = %q", got)
	}
}

func TestReplyNoteAndStatus(t *testing.T) {
	c, store := newCommands(t)

	if got := c.Reply("/", "/note acme: recruiter replied"); got != "Note added to acme." {
		t.Errorf("note reply = %q", got)
	}
	if got := c.Reply("/", "/status Globex: technical interview scheduled"); got != "Globex is now Technical Interview Scheduled." {
		t.Errorf("status reply = %q", got)
	}
	if got := c.Reply("/", "/status Globex: hired"); got != `Unknown status "hired".` {
		t.Errorf("bad status reply = %q", got)
	}
	if got := c.Reply("/", "/note Hooli: hi"); got != "No application for Hooli." {
		t.Errorf("missing company reply = %q", got)
	}
	if got := c.Reply("/", "/note Acme"); !strings.HasPrefix(got, "Usage:") {
		t.Errorf("usage reply = %q", got)
	}

	apps, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if apps[0].Notes != "2026-03-10: recruiter replied" {
		t.Errorf("notes = %q", apps[0].Notes)
	}
	if apps[1].Status != tracker.StatusTechScheduled {
		t.Errorf("status = %s", apps[1].Status)
	}
}

func TestReplyIgnoresPlainText(t *testing.T) {
	c, _ := newCommands(t)
	if got := c.Reply("/", "thanks!"); got != "" {
		t.Errorf("reply = %q", got)
	}
	if got := c.Reply("/", "/dance"); !strings.HasPrefix(got, "Unknown command /dance.") {
		t.Errorf("reply = %q", got)
	}
}

func TestSplit(t *testing.T) {
	text := strings.Repeat("line\n", 5) + "tail"
	parts := Split(text, 12)
	if len(parts) != 3 || parts[0] != "line\nline" || parts[2] != "line\ntail" {
		t.Errorf("parts = %q", parts)
	}
	if parts := Split("abcdef", 4); len(parts) != 2 || parts[0] != "abcd" {
		t.Errorf("no newline parts = %q", parts)
	}
	if parts := Split("", 10); len(parts) != 0 {
		t.Errorf("empty = %q", parts)
	}
}
