// Package cli implements the tracker command line.
package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mklimuk/job-pilot/pkg/config"
	"github.com/mklimuk/job-pilot/pkg/db"
	"github.com/mklimuk/job-pilot/pkg/logging"
	"github.com/mklimuk/job-pilot/pkg/tracker"
)

// App runs one command against the configured tracker.
type App struct {
	Config config.Config
	Store  *tracker.Store
	Log    *logging.Logger

	in  *bufio.Reader
	out io.Writer
	err io.Writer
	now func() time.Time

	database *db.DB
	repo     *db.Repository
}

type Option func(*App)

// WithIO replaces stdin, stdout and stderr.
func WithIO(in io.Reader, out, errOut io.Writer) Option {
	return func(a *App) {
		a.in = bufio.NewReader(in)
		a.out = out
		a.err = errOut
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

func New(cfg config.Config, store *tracker.Store, log *logging.Logger, opts ...Option) *App {
	if log == nil {
		log = logging.NewNop()
	}
	a := &App{
		Config: cfg,
		Store:  store,
		Log:    log,
		in:     bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		err:    os.Stderr,
		now:    time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

type command struct {
	name    string
	usage   string
	summary string
	run     func(a *App, ctx context.Context, args []string) error
}

var commands []command

func init() {
	commands = []command{
		{"init", "init", "create an empty tracker file", (*App).cmdInit},
		{"list", "list [-all] [-status S] [-priority P] [-group G] [-q TEXT] [-sort FIELD] [-desc]", "list applications", (*App).cmdList},
		{"applied", "applied [-all]", "list applications that were sent", (*App).cmdApplied},
		{"pending", "pending [-all]", "list applications not sent yet", (*App).cmdPending},
		{"followups", "followups [-days N] [-all]", "show overdue and upcoming follow-ups", (*App).cmdFollowUps},
		{"stats", "stats [-all]", "show pipeline statistics", (*App).cmdStats},
		{"show", "show N", "show one application", (*App).cmdShow},
		{"add", "add", "add an application interactively", (*App).cmdAdd},
		{"edit", "edit N", "edit an application interactively", (*App).cmdEdit},
		{"note", "note COMPANY TEXT", "append a dated note", (*App).cmdNote},
		{"status", "status COMPANY STATUS [-date YYYY-MM-DD]", "change the status of an application", (*App).cmdStatus},
		{"hide", "hide N [-reason R]", "hide an application", (*App).cmdHide},
		{"unhide", "unhide N", "unhide an application", (*App).cmdUnhide},
		{"delete", "delete N [-yes]", "delete an application", (*App).cmdDelete},
		{"docs", "docs COMPANY", "list the documents for a company", (*App).cmdDocs},
		{"new-doc", "new-doc -kind resume|cover|why COMPANY", "create a document from its template", (*App).cmdNewDoc},
		{"convert", "convert -kind resumes|coverletters [-format docx|pdf|both] [FILE...]", "render markdown documents", (*App).cmdConvert},
		{"check-urls", "check-urls [-all] [-update] [-workers N]", "check whether job postings are still open", (*App).cmdCheckURLs},
		{"export", "export -xlsx PATH | -sheets [-all]", "export the tracker to a spreadsheet", (*App).cmdExport},
		{"backup", "backup [-list] [-restore PATH -to DEST]", "back up to Google Drive", (*App).cmdBackup},
		{"calendar-sync", "calendar-sync [-days N]", "push follow-ups to Google Calendar", (*App).cmdCalendarSync},
		{"draft-followup", "draft-followup N", "draft a follow-up email with AI", (*App).cmdDraftFollowUp},
		{"help", "help", "show this help", (*App).cmdHelp},
	}
}

// Run executes args[0] with the remaining arguments and returns the exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	defer a.Close()
	if len(args) == 0 {
		a.usage()
		return 1
	}
	i := slices.IndexFunc(commands, func(c command) bool { return c.name == args[0] })
	if i < 0 {
		fmt.Fprintf(a.err, "error: unknown command %q\n\n", args[0])
		a.usage()
		return 1
	}
	if err := commands[i].run(a, ctx, args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(a.err, "error: %v\n", err)
		return 1
	}
	return 0
}

// Close releases the history database when a command opened it.
func (a *App) Close() {
	if a.database != nil {
		a.database.Close()
		a.database, a.repo = nil, nil
	}
}

func (a *App) usage() {
	fmt.Fprintln(a.err, "Usage: tracker [-config FILE] COMMAND [ARGS]")
	fmt.Fprintln(a.err)
	w := tabwriter.NewWriter(a.err, 0, 0, 2, ' ', 0)
	for _, c := range commands {
		fmt.Fprintf(w, "  %s\t%s\n", c.usage, c.summary)
	}
	w.Flush()
}

func (a *App) cmdHelp(_ context.Context, _ []string) error {
	a.usage()
	return nil
}

func (a *App) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.err)
	return fs
}

// parse accepts flags before, between and after positional arguments.
func parse(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		if args[0] == "--" {
			return append(positional, args[1:]...), nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

func exactArgs(args []string, n int, usage string) error {
	if len(args) != n {
		return fmt.Errorf("usage: tracker %s", usage)
	}
	return nil
}

// index parses a record number as shown by list.
func index(s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, &tracker.ValidationError{Field: "index", Msg: fmt.Sprintf("%q is not a number", s)}
	}
	return i, nil
}

func (a *App) history() (*db.Repository, error) {
	if a.repo != nil {
		return a.repo, nil
	}
	database, err := db.NewDB(a.Config.HistoryDB)
	if err != nil {
		return nil, err
	}
	if err := database.InitSchema(); err != nil {
		database.Close()
		return nil, err
	}
	a.database, a.repo = database, db.NewRepository(database)
	return a.repo, nil
}

func (a *App) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
}

func (a *App) prompt(label, current string) (string, error) {
	if current != "" {
		fmt.Fprintf(a.out, "%s [%s]: ", label, current)
	} else {
		fmt.Fprintf(a.out, "%s: ", label)
	}
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", io.ErrUnexpectedEOF
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *App) confirm(question string) (bool, error) {
	answer, err := a.prompt(question+" (y/N)", "")
	if err != nil {
		return false, err
	}
	return strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes"), nil
}
