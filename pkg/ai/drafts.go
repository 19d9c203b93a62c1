package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mklimuk/job-pilot/pkg/tracker"
)

const requestTimeout = 60 * time.Second

// Provider names accepted by New.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// ErrNoKey is returned by New when the provider's API key is empty.
var ErrNoKey = errors.New("ai: API key is not configured")

// New returns the Generator for provider.
func New(ctx context.Context, provider, model, apiKey string) (Generator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w for %s", ErrNoKey, provider)
	}
	switch provider {
	case ProviderGemini, "":
		return NewGeminiClient(ctx, apiKey, model)
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey, model), nil
	case ProviderAnthropic:
		return NewAnthropicClient(apiKey, model), nil
	}
	return nil, fmt.Errorf("ai: unknown provider %q", provider)
}

// DraftStore keeps generated drafts. *db.Repository implements it.
type DraftStore interface {
	InsertDraft(company, provider, body string) (int64, error)
}

// Draft is a generated follow-up email.
type Draft struct {
	ID      int64  `json:"id,omitempty"`
	Company string `json:"company"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Drafter writes follow-up emails for tracked applications.
type Drafter struct {
	gen       Generator
	provider  string
	candidate string
	store     DraftStore
	now       func() time.Time
}

// NewDrafter creates a drafter. store may be nil.
func NewDrafter(gen Generator, provider, candidate string, store DraftStore) *Drafter {
	return &Drafter{gen: gen, provider: provider, candidate: candidate, store: store, now: time.Now}
}

// FollowUp drafts a follow-up email for app and stores it when a store is set.
func (d *Drafter) FollowUp(ctx context.Context, app tracker.Application) (Draft, error) {
	text, err := d.gen.GenerateText(ctx, FollowUpPrompt(app, d.candidate, d.now()))
	if err != nil {
		return Draft{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Draft{}, errors.New("ai: empty draft returned")
	}

	draft := Draft{Company: app.Company}
	draft.Subject, draft.Body = splitSubject(text)
	if d.store != nil {
		id, err := d.store.InsertDraft(app.Company, d.provider, text)
		if err != nil {
			return draft, err
		}
		draft.ID = id
	}
	return draft, nil
}

// splitSubject separates a leading "Subject:" line from the body.
func splitSubject(text string) (subject, body string) {
	first, rest, _ := strings.Cut(text, "\n")
	if s, ok := strings.CutPrefix(strings.TrimSpace(first), "Subject:"); ok {
		return strings.TrimSpace(s), strings.TrimSpace(rest)
	}
	return "", text
}
