package ai

import (
	"fmt"
	"strings"
	"time"

	"github.com/mklimuk/job-pilot/pkg/tracker"
)

// SystemPrompt frames every request.
const SystemPrompt = `You help a job seeker keep in touch with employers. You write short, specific, polite emails in plain text. You never invent facts that are not in the input.`

// FollowUpPrompt asks for a follow-up email about app, written as candidate.
func FollowUpPrompt(app tracker.Application, candidate string, now time.Time) string {
	var facts []string
	add := func(label, v string) {
		if v = strings.TrimSpace(v); v != "" {
			facts = append(facts, fmt.Sprintf("- %s: %s", label, v))
		}
	}
	add("Company", app.Company)
	add("Position", app.Position)
	add("Status", app.Status.Display())
	add("Interview stage", app.InterviewStage)
	add("Applied on", app.AppliedDate)
	add("Last contact", app.LastContactDate)
	add("Contact", app.ContactName)
	add("Posting", app.JobURL)
	if notes := app.NoteEntries(); len(notes) > 0 {
		facts = append(facts, "- Notes:")
		for _, n := range notes {
			facts = append(facts, "  - "+n)
		}
	}

	greeting := "Hiring Team"
	if name := strings.TrimSpace(app.ContactName); name != "" {
		greeting = name
	}

	return fmt.Sprintf(`Write a follow-up email for this job application.

Today is %s.
Candidate: %s
Address it to: %s

Application:
%s

Instructions:
1. Start with a "Subject:" line, then a blank line, then the body.
2. Keep the body under 150 words.
3. Mention the position and the most recent step in the process.
4. End with the candidate's name.
`, now.Format("January 2, 2006"), strings.ReplaceAll(candidate, "_", " "), greeting, strings.Join(facts, "\n"))
}
