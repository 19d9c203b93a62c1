package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mklimuk/job-pilot/pkg/ai"
	"github.com/mklimuk/job-pilot/pkg/db"
	"github.com/mklimuk/job-pilot/pkg/documents"
	"github.com/mklimuk/job-pilot/pkg/export"
	"github.com/mklimuk/job-pilot/pkg/integration/calendar"
	"github.com/mklimuk/job-pilot/pkg/integration/drive"
	"github.com/mklimuk/job-pilot/pkg/integration/sheets"
	"github.com/mklimuk/job-pilot/pkg/posting"
	"github.com/mklimuk/job-pilot/pkg/render"
)

// ErrNotConfigured is returned by commands whose integration has no settings.
var ErrNotConfigured = errors.New("not configured")

func (a *App) locator() *documents.Locator {
	c := a.Config
	return documents.NewLocator(c.CandidateName, c.ResumesDir, c.CoverLettersDir, c.WhyCompanyDir)
}

func (a *App) cmdDocs(_ context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: tracker docs COMPANY")
	}
	company := strings.Join(args, " ")
	_, app, err := a.Store.Find(company)
	if err != nil {
		return err
	}
	l := a.locator()
	paths, err := l.Resolve(app.Company)
	if err != nil {
		return err
	}
	docs, err := l.CompanyDocuments(app.Company, app.Position)
	if err != nil {
		return err
	}

	w := a.table()
	fmt.Fprintf(w, "Resume\t%s\t%s\n", paths.Resume, found(paths.ResumeExists))
	fmt.Fprintf(w, "Cover letter\t%s\t%s\n", paths.CoverLetter, found(paths.CoverLetterExists))
	for _, kind := range []documents.Kind{documents.KindResume, documents.KindCoverLetter, documents.KindWhyCompany} {
		for _, d := range docs[kind] {
			fmt.Fprintf(w, "%s\t%s\t%s\n", kind, d.Path, d.Label)
		}
	}
	return w.Flush()
}

func found(ok bool) string {
	if ok {
		return "found"
	}
	return "missing"
}

func parseKind(s string) (documents.Kind, error) {
	switch strings.ToLower(s) {
	case "resume":
		return documents.KindResume, nil
	case "cover", "cover_letter", "coverletter":
		return documents.KindCoverLetter, nil
	case "why", "why_company":
		return documents.KindWhyCompany, nil
	}
	return "", fmt.Errorf("unknown document kind %q (want resume, cover or why)", s)
}

func (a *App) cmdNewDoc(_ context.Context, args []string) error {
	fs := a.flags("new-doc")
	kindFlag := fs.String("kind", "resume", "resume, cover or why")
	rest, err := parse(fs, args)
	if err != nil {
		return err
	}
	if len(rest) == 0 {
		return fmt.Errorf("usage: tracker new-doc -kind resume|cover|why COMPANY")
	}
	kind, err := parseKind(*kindFlag)
	if err != nil {
		return err
	}
	_, app, err := a.Store.Find(strings.Join(rest, " "))
	if err != nil {
		return err
	}
	path, err := documents.NewTemplateEngine(a.Config.TemplatesDir).Create(a.locator(), kind, app)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created %s\n", path)
	return nil
}

func (a *App) cmdConvert(ctx context.Context, args []string) error {
	fs := a.flags("convert")
	kind := fs.String("kind", "resumes", "resumes or coverletters")
	format := fs.String("format", "both", "docx, pdf or both")
	files, err := parse(fs, args)
	if err != nil {
		return err
	}
	formats, err := render.ParseFormats(*format)
	if err != nil {
		return err
	}

	var layout render.Layout
	var dir string
	switch strings.ToLower(*kind) {
	case "resumes", "resume":
		layout, dir = render.LayoutResume, a.Config.ResumesDir
	case "coverletters", "cover_letters", "cover":
		layout, dir = render.LayoutLetter, a.Config.CoverLettersDir
	default:
		return fmt.Errorf("unknown kind %q (want resumes or coverletters)", *kind)
	}
	if len(files) == 0 {
		if files, err = render.Sources(dir); err != nil {
			return err
		}
	}
	if len(files) == 0 {
		fmt.Fprintf(a.out, "No markdown files in %s\n", dir)
		return nil
	}

	var runs render.RunRecorder
	if repo, err := a.history(); err != nil {
		a.Log.Warn("history database unavailable", "error", err)
	} else {
		runs = repo
	}
	s, err := render.NewConverter(layout, runs, a.Log).Batch(ctx, files, formats)
	for _, r := range s.Results {
		if r.Error != "" {
			fmt.Fprintf(a.out, "FAIL  %s\n", r.Error)
		} else {
			fmt.Fprintf(a.out, "OK    %s\n", r.Output)
		}
	}
	fmt.Fprintf(a.out, "\n%d succeeded, %d failed\n", s.Succeeded, s.Failed)
	if err != nil {
		return err
	}
	if s.Failed > 0 {
		return fmt.Errorf("%d conversions failed", s.Failed)
	}
	return nil
}

func (a *App) cmdCheckURLs(ctx context.Context, args []string) error {
	fs := a.flags("check-urls")
	all := fs.Bool("all", false, "also check postings already marked Position Closed")
	update := fs.Bool("update", false, "mark closed postings as Position Closed")
	workers := fs.Int("workers", a.Config.Checker.Workers, "parallel requests")
	rest, err := parse(fs, args)
	if err != nil {
		return err
	}
	if err := exactArgs(rest, 0, "check-urls [-all] [-update] [-workers N]"); err != nil {
		return err
	}

	opts := []posting.Option{posting.WithLogger(a.Log)}
	if a.Config.Checker.Timeout > 0 {
		opts = append(opts, posting.WithTimeout(a.Config.Checker.Timeout))
	}
	if a.Config.Checker.UserAgent != "" {
		opts = append(opts, posting.WithUserAgent(a.Config.Checker.UserAgent))
	}
	if repo, err := a.history(); err != nil {
		a.Log.Warn("history database unavailable", "error", err)
	} else {
		opts = append(opts, posting.WithHistory(repo))
	}

	rep, err := posting.NewChecker(opts...).Run(ctx, a.Store, posting.Options{All: *all, Update: *update, Workers: *workers})
	if err != nil {
		return err
	}
	if len(rep.Results) == 0 {
		fmt.Fprintln(a.out, "No postings to check.")
		return nil
	}
	w := a.table()
	for _, r := range rep.Results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Verdict, r.Company, r.Position, r.Detail)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "\nOpen: %d  Closed: %d  Unverified: %d", rep.Open, rep.Closed, rep.Unverified)
	if *update {
		fmt.Fprintf(a.out, "  Updated: %d", rep.Updated)
	}
	fmt.Fprintln(a.out)
	return nil
}

func (a *App) cmdExport(ctx context.Context, args []string) error {
	fs := a.flags("export")
	xlsx := fs.String("xlsx", "", "write an Excel workbook to this path")
	toSheets := fs.Bool("sheets", false, "replace the configured Google Sheets tab")
	all := fs.Bool("all", false, "include hidden applications")
	rest, err := parse(fs, args)
	if err != nil {
		return err
	}
	if err := exactArgs(rest, 0, "export -xlsx PATH | -sheets [-all]"); err != nil {
		return err
	}
	if *xlsx == "" && !*toSheets {
		return fmt.Errorf("usage: tracker export -xlsx PATH | -sheets [-all]")
	}
	apps, err := a.Store.Load()
	if err != nil {
		return err
	}

	if *xlsx != "" {
		opts := export.Options{IncludeHidden: *all, HorizonDays: a.horizon(), Now: a.now()}
		if err := export.SaveXLSX(*xlsx, apps, opts); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Wrote %s\n", *xlsx)
	}
	if *toSheets {
		g := a.Config.Google
		if g.SpreadsheetID == "" || g.CredentialsFile == "" {
			return fmt.Errorf("google sheets export: %w (set SPREADSHEET_ID and GOOGLE_CREDENTIALS_FILE)", ErrNotConfigured)
		}
		client, err := sheets.NewClient(ctx, g.CredentialsFile)
		if err != nil {
			return err
		}
		exp, err := sheets.NewExporter(client, g.SpreadsheetID, g.SheetTab)
		if err != nil {
			return err
		}
		n, err := exp.Export(ctx, apps, *all)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Exported %d applications to Google Sheets\n", n)
	}
	return nil
}

func (a *App) backup(ctx context.Context) (*drive.Backup, error) {
	g := a.Config.Google
	if g.DriveFolderID == "" || g.CredentialsFile == "" {
		return nil, fmt.Errorf("drive backup: %w (set DRIVE_FOLDER_ID and GOOGLE_CREDENTIALS_FILE)", ErrNotConfigured)
	}
	repo, err := a.history()
	if err != nil {
		return nil, err
	}
	svc, err := drive.NewService(ctx, g.CredentialsFile, g.DriveFolderID)
	if err != nil {
		return nil, err
	}
	return drive.NewBackup(svc, repo, a.Config.Root, a.Config.BackupPaths(), 0, a.Log), nil
}

func (a *App) cmdBackup(ctx context.Context, args []string) error {
	fs := a.flags("backup")
	list := fs.Bool("list", false, "list the files in the Drive folder")
	restore := fs.String("restore", "", "restore this path (relative to the data root)")
	to := fs.String("to", "", "destination of the restored file")
	rest, err := parse(fs, args)
	if err != nil {
		return err
	}
	if err := exactArgs(rest, 0, "backup [-list] [-restore PATH -to DEST]"); err != nil {
		return err
	}
	if *restore != "" && *to == "" {
		return fmt.Errorf("usage: tracker backup -restore PATH -to DEST")
	}
	b, err := a.backup(ctx)
	if err != nil {
		return err
	}

	switch {
	case *list:
		files, err := b.Remote(ctx)
		if err != nil {
			return err
		}
		w := a.table()
		for _, f := range files {
			fmt.Fprintf(w, "%s\t%d\t%s\n", f.Name, f.Size, f.ModifiedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	case *restore != "":
		if err := b.Restore(ctx, *restore, *to); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Restored %s to %s\n", *restore, *to)
		return nil
	}

	runID, err := a.repo.StartRun("backup")
	if err != nil {
		a.Log.Warn("failed to record backup run", "error", err)
	}
	rep, err := b.RunOnce(ctx)
	a.finishRun(runID, err, fmt.Sprintf("uploaded %d, updated %d, unchanged %d, failed %d", rep.Uploaded, rep.Updated, rep.Unchanged, rep.Failed))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Uploaded: %d  Updated: %d  Unchanged: %d  Failed: %d\n", rep.Uploaded, rep.Updated, rep.Unchanged, rep.Failed)
	if rep.Failed > 0 {
		return fmt.Errorf("%d uploads failed", rep.Failed)
	}
	return nil
}

func (a *App) finishRun(id string, err error, result string) {
	if id == "" || a.repo == nil {
		return
	}
	status := db.RunDone
	if err != nil {
		status, result = db.RunFailed, err.Error()
	}
	if err := a.repo.FinishRun(id, status, result); err != nil {
		a.Log.Warn("failed to record run", "id", id, "error", err)
	}
}

func (a *App) cmdCalendarSync(ctx context.Context, args []string) error {
	fs := a.flags("calendar-sync")
	days := fs.Int("days", a.horizon(), "days ahead to mirror")
	rest, err := parse(fs, args)
	if err != nil {
		return err
	}
	if err := exactArgs(rest, 0, "calendar-sync [-days N]"); err != nil {
		return err
	}
	g := a.Config.Google
	if g.CredentialsFile == "" {
		return fmt.Errorf("calendar sync: %w (set GOOGLE_CREDENTIALS_FILE)", ErrNotConfigured)
	}
	apps, err := a.Store.Load()
	if err != nil {
		return err
	}
	repo, err := a.history()
	if err != nil {
		return err
	}
	svc, err := calendar.NewService(ctx, g.CredentialsFile, g.CalendarID)
	if err != nil {
		return err
	}
	rep, err := calendar.NewFollowUps(svc, repo, *days, a.Log).Push(ctx, apps, a.now())
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created: %d  Updated: %d  Deleted: %d  Unchanged: %d  Failed: %d\n",
		rep.Created, rep.Updated, rep.Deleted, rep.Unchanged, rep.Failed)
	if rep.Failed > 0 {
		return fmt.Errorf("%d calendar operations failed", rep.Failed)
	}
	return nil
}

func (a *App) cmdDraftFollowUp(ctx context.Context, args []string) error {
	if err := exactArgs(args, 1, "draft-followup N"); err != nil {
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
	c := a.Config.AI
	gen, err := ai.New(ctx, c.Provider, c.Model, a.Config.AIKey())
	if err != nil {
		return err
	}
	defer gen.Close()

	var store ai.DraftStore
	if repo, err := a.history(); err != nil {
		a.Log.Warn("history database unavailable", "error", err)
	} else {
		store = repo
	}
	draft, err := ai.NewDrafter(gen, c.Provider, a.Config.CandidateName, store).FollowUp(ctx, app)
	if err != nil {
		return err
	}
	if draft.Subject != "" {
		fmt.Fprintf(a.out, "Subject: %s\n\n", draft.Subject)
	}
	fmt.Fprintln(a.out, draft.Body)
	return nil
}
