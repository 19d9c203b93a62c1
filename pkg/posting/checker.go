// Package posting checks whether tracked job postings are still open.
package posting

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mklimuk/job-pilot/pkg/db"
	"github.com/mklimuk/job-pilot/pkg/logging"
	"github.com/mklimuk/job-pilot/pkg/tracker"
)

// Verdict classifies a posting.
type Verdict string

const (
	VerdictOpen        Verdict = "OPEN"
	VerdictClosed      Verdict = "CLOSED"
	VerdictBlocked     Verdict = "BLOCKED"
	VerdictError       Verdict = "ERROR"
	VerdictUnreachable Verdict = "UNREACHABLE"
	VerdictNoURL       Verdict = "NO_URL"
)

const (
	DefaultWorkers   = 5
	DefaultTimeout   = 15 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

	maxRedirects = 5
	maxBody      = 2 << 20
)

// closedPatterns match page text of postings that were filled or removed.
var closedPatterns = regexp.MustCompile(`(?i)` +
	`no longer (available|accepting|open)` +
	`|position.{0,20}(has been |been )?(filled|closed|removed)` +
	`|job.{0,20}(has been |been )?(closed|expired|removed|no longer)` +
	`|this role has been` +
	`|this (job|position) (is|has) (no longer|been)` +
	`|page\s*not\s*found` +
	`|we couldn.?t find` +
	`|does not exist` +
	`|posting has been` +
	`|opening is no longer` +
	`|not currently accepting` +
	`|no matching job` +
	`|job not found` +
	`|this listing has` +
	`|opportunity is no longer`)

// Result is the outcome of checking one record.
type Result struct {
	Index      int     `json:"index"`
	Company    string  `json:"company"`
	Position   string  `json:"position"`
	URL        string  `json:"url"`
	Verdict    Verdict `json:"verdict"`
	HTTPStatus int     `json:"http_status,omitempty"`
	Detail     string  `json:"detail"`
}

// Report summarises a run over the tracker.
type Report struct {
	RunID      string   `json:"run_id,omitempty"`
	Results    []Result `json:"results"`
	Open       int      `json:"open"`
	Closed     int      `json:"closed"`
	Unverified int      `json:"unverified"`
	Updated    int      `json:"updated"`
}

// Store is the part of the tracker store the checker needs.
type Store interface {
	Load() ([]tracker.Application, error)
	Get(i int) (tracker.Application, error)
	SetStatusAt(i int, status tracker.Status, date *time.Time) error
}

// History records runs and individual checks. *db.Repository implements it.
type History interface {
	StartRun(kind string) (string, error)
	FinishRun(id, status, result string) error
	InsertPostingCheck(c db.PostingCheck) error
}

// Options control a run.
type Options struct {
	All     bool // include records already marked Position Closed
	Update  bool // mark closed postings Position Closed
	Workers int
}

// Checker fetches posting pages.
type Checker struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	history   History
	log       *logging.Logger
}

type Option func(*Checker)

func WithHTTPClient(c *http.Client) Option {
	return func(ch *Checker) { ch.client = c }
}

func WithTimeout(d time.Duration) Option {
	return func(ch *Checker) { ch.timeout = d }
}

func WithUserAgent(ua string) Option {
	return func(ch *Checker) { ch.userAgent = ua }
}

func WithHistory(h History) Option {
	return func(ch *Checker) { ch.history = h }
}

func WithLogger(l *logging.Logger) Option {
	return func(ch *Checker) { ch.log = l }
}

func NewChecker(opts ...Option) *Checker {
	c := &Checker{
		timeout:   DefaultTimeout,
		userAgent: DefaultUserAgent,
		log:       logging.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.client == nil {
		c.client = &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		}
	}
	return c
}

// Check classifies a single URL. Network failures are reported as a
// verdict, never as an error.
func (c *Checker) Check(ctx context.Context, url string) Result {
	url = strings.TrimSpace(url)
	r := Result{URL: url}
	if !strings.HasPrefix(url, "http") {
		r.Verdict, r.Detail = VerdictNoURL, "no valid URL provided"
		return r
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		r.Verdict, r.Detail = VerdictNoURL, err.Error()
		return r
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		r.Verdict, r.Detail = VerdictUnreachable, "connection failed or timed out"
		c.log.Debug("posting unreachable", "url", url, "error", err)
		return r
	}
	defer resp.Body.Close()
	r.HTTPStatus = resp.StatusCode

	switch code := resp.StatusCode; {
	case code == http.StatusNotFound, code == http.StatusGone:
		r.Verdict, r.Detail = VerdictClosed, fmt.Sprintf("HTTP %d - page not found", code)
		return r
	case code == http.StatusForbidden, code == http.StatusTooManyRequests:
		r.Verdict, r.Detail = VerdictBlocked, fmt.Sprintf("HTTP %d - site blocks automated access", code)
		return r
	case code >= 400:
		r.Verdict, r.Detail = VerdictError, fmt.Sprintf("HTTP %d", code)
		return r
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil && !errors.Is(err, io.EOF) {
		r.Verdict, r.Detail = VerdictUnreachable, "failed to read page"
		return r
	}
	if closedPatterns.Match(body) {
		r.Verdict, r.Detail = VerdictClosed, "page content indicates posting is closed"
		return r
	}
	r.Verdict, r.Detail = VerdictOpen, fmt.Sprintf("HTTP %d - no closed signals detected", resp.StatusCode)
	return r
}

// Run checks every record with a job URL, in parallel, and optionally marks
// closed postings. Results are ordered by record index.
func (c *Checker) Run(ctx context.Context, store Store, opts Options) (Report, error) {
	apps, err := store.Load()
	if err != nil {
		return Report{}, err
	}

	var rep Report
	for i, a := range apps {
		if !opts.All && a.Status == tracker.StatusPositionClosed {
			continue
		}
		if strings.TrimSpace(a.JobURL) == "" {
			continue
		}
		rep.Results = append(rep.Results, Result{Index: i, Company: a.Company, Position: a.Position, URL: a.JobURL})
	}
	if len(rep.Results) == 0 {
		return rep, nil
	}

	if c.history != nil {
		if id, err := c.history.StartRun("check-urls"); err != nil {
			c.log.Warn("failed to record check run", "error", err)
		} else {
			rep.RunID = id
		}
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for k := range rep.Results {
		g.Go(func() error {
			job := rep.Results[k]
			res := c.Check(gctx, job.URL)
			res.Index, res.Company, res.Position = job.Index, job.Company, job.Position
			rep.Results[k] = res
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		c.finish(rep, db.RunCanceled)
		return rep, err
	}

	slices.SortFunc(rep.Results, func(a, b Result) int { return a.Index - b.Index })
	for _, res := range rep.Results {
		switch res.Verdict {
		case VerdictOpen:
			rep.Open++
		case VerdictClosed:
			rep.Closed++
		default:
			rep.Unverified++
		}
		c.record(rep.RunID, res)
	}

	if opts.Update {
		for _, res := range rep.Results {
			if res.Verdict != VerdictClosed {
				continue
			}
			updated, err := c.markClosed(store, res)
			if err != nil {
				c.finish(rep, db.RunFailed)
				return rep, err
			}
			if updated {
				rep.Updated++
			}
		}
	}

	c.finish(rep, db.RunDone)
	c.log.Info("posting check finished", "open", rep.Open, "closed", rep.Closed, "unverified", rep.Unverified, "updated", rep.Updated)
	return rep, nil
}

// markClosed re-reads the record so an edit made during the check is not
// applied to a different company.
func (c *Checker) markClosed(store Store, res Result) (bool, error) {
	cur, err := store.Get(res.Index)
	if err != nil {
		return false, err
	}
	if cur.Company != res.Company {
		c.log.Warn("record moved during check, not updating", "index", res.Index, "company", res.Company)
		return false, nil
	}
	if cur.Status == tracker.StatusPositionClosed {
		return false, nil
	}
	if err := store.SetStatusAt(res.Index, tracker.StatusPositionClosed, nil); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Checker) record(runID string, res Result) {
	if c.history == nil {
		return
	}
	err := c.history.InsertPostingCheck(db.PostingCheck{
		RunID:      runID,
		Company:    res.Company,
		URL:        res.URL,
		Verdict:    string(res.Verdict),
		HTTPStatus: res.HTTPStatus,
		Detail:     res.Detail,
	})
	if err != nil {
		c.log.Warn("failed to record posting check", "company", res.Company, "error", err)
	}
}

func (c *Checker) finish(rep Report, status string) {
	if c.history == nil || rep.RunID == "" {
		return
	}
	result := fmt.Sprintf("open %d, closed %d, unverified %d, updated %d", rep.Open, rep.Closed, rep.Unverified, rep.Updated)
	if err := c.history.FinishRun(rep.RunID, status, result); err != nil {
		c.log.Warn("failed to record check run", "error", err)
	}
}
