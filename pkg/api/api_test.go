package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mklimuk/job-pilot/pkg/ai"
	"github.com/mklimuk/job-pilot/pkg/documents"
	"github.com/mklimuk/job-pilot/pkg/query"
	"github.com/mklimuk/job-pilot/pkg/render"
	"github.com/mklimuk/job-pilot/pkg/stats"
	"github.com/mklimuk/job-pilot/pkg/tracker"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

// MockGenerator implements ai.Generator for testing
type MockGenerator struct {
	Response string
	Err      error
	Prompt   string
}

func (m *MockGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	m.Prompt = prompt
	return m.Response, m.Err
}

func (m *MockGenerator) Close() error { return nil }

type testEnv struct {
	dir     string
	handler *Handler
	router  http.Handler
}

func setup(t *testing.T, apps []tracker.Application) *testEnv {
	t.Helper()
	dir := t.TempDir()
	store := tracker.NewStore(filepath.Join(dir, "job_tracker.csv"), tracker.WithClock(func() time.Time { return testNow }))
	if apps != nil {
		if err := store.Save(apps); err != nil {
			t.Fatal(err)
		}
	}
	resumes := filepath.Join(dir, "Resumes")
	letters := filepath.Join(dir, "CoverLetters")
	for _, d := range []string{resumes, letters} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatal(err)
		}
	}
	h := &Handler{
		Store:   store,
		Locator: documents.NewLocator("Jane_Doe", resumes, letters, ""),
		Resumes: render.NewConverter(render.LayoutResume, nil, nil),
		Letters: render.NewConverter(render.LayoutLetter, nil, nil),
		now:     func() time.Time { return testNow },
	}
	return &testEnv{dir: dir, handler: h, router: NewRouter(h)}
}

func (e *testEnv) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) form(t *testing.T, target string, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func sampleApps() []tracker.Application {
	return []tracker.Application{
		{Company: "Acme", Position: "Platform Engineer", Status: tracker.StatusApplied, Priority: tracker.PriorityHigh, AppliedDate: "2026-03-01", NextFollowUpDate: "2026-03-12"},
		{Company: "Globex", Position: "SRE", Status: tracker.StatusNotApplied, Priority: tracker.PriorityLow},
		{Company: "Initech", Position: "Backend", Status: tracker.StatusRejected, Priority: tracker.PriorityMedium, AppliedDate: "2026-02-01", NextFollowUpDate: "2026-03-05"},
		{Company: "Hooli", Position: "PM", Status: tracker.StatusApplied, Priority: tracker.PriorityMedium, Hidden: true, HideReason: "Bad Location"},
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&tracker.NotFoundError{Company: "Acme"}, http.StatusNotFound},
		{&tracker.ValidationError{Field: "Status", Msg: "bad"}, http.StatusBadRequest},
		{&render.RenderError{Source: "a.md", Format: render.FormatPDF, Err: errors.New("line 3: malformed table")}, http.StatusUnprocessableEntity},
		{&tracker.StorageError{Op: "load", Path: "x.csv", Err: fs.ErrNotExist}, http.StatusInternalServerError},
		{fmt.Errorf("open: %w", documents.ErrOutsideRoot), http.StatusForbidden},
		{fmt.Errorf("x.md: %w", documents.ErrExists), http.StatusConflict},
		{fmt.Errorf("a.pdf: %w", fs.ErrNotExist), http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAPIJobLifecycle(t *testing.T) {
	env := setup(t, []tracker.Application{})

	rr := env.do(t, http.MethodPost, "/api/jobs", map[string]string{"company": "Acme", "position": "SRE"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rr.Code, rr.Body)
	}
	var created query.Entry
	if err := json.NewDecoder(rr.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	if created.Index != 0 || created.App.Status != tracker.StatusNotApplied || created.App.Priority != tracker.PriorityMedium {
		t.Errorf("created = %+v", created)
	}

	rr = env.do(t, http.MethodPatch, "/api/jobs/0", map[string]string{"status": "applied", "location": "Remote"})
	if rr.Code != http.StatusOK {
		t.Fatalf("patch status = %d: %s", rr.Code, rr.Body)
	}
	var patched query.Entry
	json.NewDecoder(rr.Body).Decode(&patched)
	if patched.App.Status != tracker.StatusApplied || patched.App.Location != "Remote" || patched.App.AppliedDate != "2026-03-10" {
		t.Errorf("patched = %+v", patched.App)
	}

	rr = env.do(t, http.MethodPost, "/api/jobs/0/notes", map[string]string{"text": "Sent portfolio"})
	if rr.Code != http.StatusOK {
		t.Fatalf("note status = %d: %s", rr.Code, rr.Body)
	}
	var noted query.Entry
	json.NewDecoder(rr.Body).Decode(&noted)
	if noted.App.Notes != "2026-03-10: Sent portfolio" {
		t.Errorf("notes = %q", noted.App.Notes)
	}

	rr = env.do(t, http.MethodPost, "/api/jobs/0/status", map[string]string{"status": "Phone Screen Scheduled", "date": "2026-03-09"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status change = %d: %s", rr.Code, rr.Body)
	}
	var moved query.Entry
	json.NewDecoder(rr.Body).Decode(&moved)
	if moved.App.Status != tracker.StatusPhoneScreenScheduled || moved.App.LastContactDate != "2026-03-09" {
		t.Errorf("moved = %+v", moved.App)
	}

	if rr := env.do(t, http.MethodPost, "/api/jobs/0/hide", map[string]string{"reason": "Other"}); rr.Code != http.StatusOK {
		t.Fatalf("hide = %d", rr.Code)
	}
	rr = env.do(t, http.MethodGet, "/api/jobs", nil)
	var listed []query.Entry
	json.NewDecoder(rr.Body).Decode(&listed)
	if len(listed) != 0 {
		t.Errorf("hidden record listed: %+v", listed)
	}
	if rr := env.do(t, http.MethodPost, "/api/jobs/0/unhide", nil); rr.Code != http.StatusOK {
		t.Fatalf("unhide = %d", rr.Code)
	}

	rr = env.do(t, http.MethodDelete, "/api/jobs/0", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete = %d", rr.Code)
	}
	if rr := env.do(t, http.MethodGet, "/api/jobs/0", nil); rr.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d", rr.Code)
	}
}

func TestAPIErrorStatuses(t *testing.T) {
	env := setup(t, sampleApps())
	tests := []struct {
		name   string
		method string
		target string
		body   any
		want   int
	}{
		{"missing index", http.MethodGet, "/api/jobs/42", nil, http.StatusNotFound},
		{"non-numeric index", http.MethodGet, "/api/jobs/abc", nil, http.StatusBadRequest},
		{"negative index", http.MethodGet, "/api/jobs/-1", nil, http.StatusNotFound},
		{"create without position", http.MethodPost, "/api/jobs", map[string]string{"company": "X"}, http.StatusBadRequest},
		{"create with bad status", http.MethodPost, "/api/jobs", map[string]string{"company": "X", "position": "Y", "status": "Ghosted"}, http.StatusBadRequest},
		{"patch bad date", http.MethodPatch, "/api/jobs/0", map[string]string{"applied_date": "03/01/2026"}, http.StatusBadRequest},
		{"bad status value", http.MethodPost, "/api/jobs/0/status", map[string]string{"status": "Ghosted"}, http.StatusBadRequest},
		{"empty note", http.MethodPost, "/api/jobs/0/notes", map[string]string{"text": " "}, http.StatusBadRequest},
		{"unknown filter status", http.MethodGet, "/api/jobs?status=ghosted", nil, http.StatusBadRequest},
		{"unknown sort", http.MethodGet, "/api/jobs?sort=mood", nil, http.StatusBadRequest},
		{"draft without AI", http.MethodPost, "/api/jobs/0/draft", nil, http.StatusServiceUnavailable},
		{"check without checker", http.MethodPost, "/api/check-urls", nil, http.StatusServiceUnavailable},
		{"sheets without config", http.MethodPost, "/api/export/sheets", nil, http.StatusServiceUnavailable},
		{"convert bad kind", http.MethodPost, "/api/convert", map[string]string{"kind": "memos"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, tt.method, tt.target, tt.body)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rr.Code, tt.want, rr.Body)
			}
			if !strings.Contains(rr.Header().Get("Content-Type"), "application/json") {
				t.Errorf("content type = %q", rr.Header().Get("Content-Type"))
			}
		})
	}
}

func TestAPIMissingTrackerIs500(t *testing.T) {
	env := setup(t, nil)
	rr := env.do(t, http.MethodGet, "/api/jobs", nil)
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rr.Code)
	}
}

func TestAPIListFilters(t *testing.T) {
	env := setup(t, sampleApps())
	tests := []struct {
		target string
		want   []string
	}{
		{"/api/jobs", []string{"Acme", "Globex", "Initech"}},
		{"/api/jobs?show_hidden=1", []string{"Acme", "Globex", "Initech", "Hooli"}},
		{"/api/jobs?group=applied", []string{"Acme", "Initech"}},
		{"/api/jobs?status=not+applied", []string{"Globex"}},
		{"/api/jobs?priority=high", []string{"Acme"}},
		{"/api/jobs?q=glo", []string{"Globex"}},
		{"/api/jobs?sort=company&dir=desc", []string{"Initech", "Globex", "Acme"}},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rr := env.do(t, http.MethodGet, tt.target, nil)
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", rr.Code, rr.Body)
			}
			var entries []query.Entry
			if err := json.NewDecoder(rr.Body).Decode(&entries); err != nil {
				t.Fatal(err)
			}
			var got []string
			for _, e := range entries {
				got = append(got, e.App.Company)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAPIStatsAndFollowUps(t *testing.T) {
	env := setup(t, sampleApps())

	rr := env.do(t, http.MethodGet, "/api/stats", nil)
	var s stats.Summary
	if err := json.NewDecoder(rr.Body).Decode(&s); err != nil {
		t.Fatal(err)
	}
	if s.Total != 3 || s.Applied != 2 || s.NotApplied != 1 || s.Hidden != 1 {
		t.Errorf("summary = %+v", s)
	}

	rr = env.do(t, http.MethodGet, "/api/followups?days=3", nil)
	var f followUpsResponse
	if err := json.NewDecoder(rr.Body).Decode(&f); err != nil {
		t.Fatal(err)
	}
	if f.Days != 3 || len(f.Upcoming) != 1 || f.Upcoming[0].App.Company != "Acme" || f.Upcoming[0].DaysUntil != 2 {
		t.Errorf("upcoming = %+v", f.Upcoming)
	}
	if len(f.Overdue) != 1 || f.Overdue[0].App.Company != "Initech" {
		t.Errorf("overdue = %+v", f.Overdue)
	}

	if rr := env.do(t, http.MethodGet, "/api/followups?days=soon", nil); rr.Code != http.StatusBadRequest {
		t.Errorf("bad days status = %d", rr.Code)
	}
}

func TestAPIDraftFollowUp(t *testing.T) {
	env := setup(t, sampleApps())
	gen := &MockGenerator{Response: "Subject: Checking in\n\nHi team,\nAny news?"}
	env.handler.Drafter = ai.NewDrafter(gen, ai.ProviderGemini, "Jane_Doe", nil)

	rr := env.do(t, http.MethodPost, "/api/jobs/0/draft", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body)
	}
	var d ai.Draft
	json.NewDecoder(rr.Body).Decode(&d)
	if d.Company != "Acme" || d.Subject != "Checking in" || !strings.HasPrefix(d.Body, "Hi team,") {
		t.Errorf("draft = %+v", d)
	}
	if !strings.Contains(gen.Prompt, "Platform Engineer") {
		t.Errorf("prompt lacks position: %s", gen.Prompt)
	}

	gen.Err = errors.New("quota exceeded")
	if rr := env.do(t, http.MethodPost, "/api/jobs/0/draft", nil); rr.Code != http.StatusBadGateway {
		t.Errorf("failing generator status = %d", rr.Code)
	}
}

func TestAPIConvertContinuesPastFailures(t *testing.T) {
	env := setup(t, sampleApps())
	resumes := env.handler.Locator.ResumesDir
	writeFile(t, filepath.Join(resumes, "Jane_Doe_Resume_Acme.md"), "# Jane Doe\n\n- Go\n")
	writeFile(t, filepath.Join(resumes, "Jane_Doe_Resume_Broken.md"), "# Jane\n\n| a | b |\n| c | d |\n")

	rr := env.do(t, http.MethodPost, "/api/convert", map[string]string{"kind": "resumes", "format": "pdf"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body)
	}
	var s render.Summary
	json.NewDecoder(rr.Body).Decode(&s)
	if s.Succeeded != 1 || s.Failed != 1 {
		t.Errorf("summary = %+v", s)
	}
	if _, err := os.Stat(filepath.Join(resumes, "Jane_Doe_Resume_Acme.pdf")); err != nil {
		t.Errorf("pdf not written: %v", err)
	}

	rr = env.do(t, http.MethodPost, "/api/convert", map[string]any{"kind": "resumes", "files": []string{"/etc/passwd"}})
	if rr.Code != http.StatusForbidden {
		t.Errorf("outside file status = %d", rr.Code)
	}
}

func TestAPIDocuments(t *testing.T) {
	env := setup(t, sampleApps())
	env.handler.Templates = documents.NewTemplateEngine(filepath.Join(env.dir, "templates"))
	writeFile(t, filepath.Join(env.handler.Locator.ResumesDir, "Jane_Doe_Resume_Acme.md"), "# Jane\n")

	rr := env.do(t, http.MethodGet, "/api/jobs/0/documents", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body)
	}
	var body struct {
		Expected  documents.Paths                         `json:"expected"`
		Documents map[documents.Kind][]documents.Document `json:"documents"`
	}
	json.NewDecoder(rr.Body).Decode(&body)
	if !body.Expected.ResumeExists || body.Expected.CoverLetterExists {
		t.Errorf("expected = %+v", body.Expected)
	}
	if len(body.Documents[documents.KindResume]) != 1 {
		t.Errorf("documents = %+v", body.Documents)
	}

	rr = env.do(t, http.MethodPost, "/api/jobs/0/documents", map[string]string{"kind": "resume"})
	if rr.Code != http.StatusConflict {
		t.Errorf("existing resume status = %d: %s", rr.Code, rr.Body)
	}
	rr = env.do(t, http.MethodPost, "/api/jobs/0/documents", map[string]string{"kind": "memo"})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad kind status = %d", rr.Code)
	}
}

func TestAPIExportXLSX(t *testing.T) {
	env := setup(t, sampleApps())
	rr := env.do(t, http.MethodGet, "/api/export.xlsx", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("Content-Disposition"), "job_tracker_2026-03-10.xlsx") {
		t.Errorf("disposition = %q", rr.Header().Get("Content-Disposition"))
	}
	if !bytes.HasPrefix(rr.Body.Bytes(), []byte("PK")) {
		t.Error("body is not a zip archive")
	}
}

func TestPagesRender(t *testing.T) {
	env := setup(t, sampleApps())
	tests := []struct {
		target string
		want   string
	}{
		{"/", "Overdue follow-ups"},
		{"/jobs", "Globex"},
		{"/jobs?show_hidden=1", "Hooli"},
		{"/jobs/0", "Platform Engineer"},
		{"/jobs/new", "New application"},
		{"/jobs/0/edit", "Edit Acme"},
		{"/documents", "Documents"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rr := env.do(t, http.MethodGet, tt.target, nil)
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", rr.Code, rr.Body)
			}
			if !strings.Contains(rr.Body.String(), tt.want) {
				t.Errorf("page lacks %q", tt.want)
			}
		})
	}

	if rr := env.do(t, http.MethodGet, "/jobs/9", nil); rr.Code != http.StatusNotFound {
		t.Errorf("missing job page = %d", rr.Code)
	}
}

func TestJobForms(t *testing.T) {
	env := setup(t, sampleApps())

	rr := env.form(t, "/jobs/new", url.Values{"company": {"Umbrella"}, "position": {"QA"}, "status": {"Not Applied"}, "priority": {"Low"}, "note": {"Found on a board"}})
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/jobs/4" {
		t.Fatalf("create = %d %q", rr.Code, rr.Header().Get("Location"))
	}
	app, err := env.handler.Store.Get(4)
	if err != nil {
		t.Fatal(err)
	}
	if app.Company != "Umbrella" || app.Notes != "2026-03-10: Found on a board" {
		t.Errorf("created = %+v", app)
	}

	rr = env.form(t, "/jobs/new", url.Values{"company": {"Umbrella"}})
	if rr.Code != http.StatusBadRequest || !strings.Contains(rr.Body.String(), "Position") {
		t.Errorf("invalid create = %d", rr.Code)
	}

	rr = env.form(t, "/jobs/1/edit", url.Values{"location": {"Berlin"}, "note": {"Recruiter called"}})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("edit = %d: %s", rr.Code, rr.Body)
	}
	app, _ = env.handler.Store.Get(1)
	if app.Location != "Berlin" || app.Position != "SRE" || app.Notes != "2026-03-10: Recruiter called" {
		t.Errorf("edited = %+v", app)
	}

	if rr := env.form(t, "/jobs/1/hide", url.Values{"reason": {"Low Compensation"}}); rr.Code != http.StatusSeeOther {
		t.Errorf("hide = %d", rr.Code)
	}
	app, _ = env.handler.Store.Get(1)
	if !app.Hidden || app.HideReason != "Low Compensation" {
		t.Errorf("hidden = %+v", app)
	}

	if rr := env.form(t, "/jobs/1/note", url.Values{"note": {""}}); rr.Code != http.StatusBadRequest {
		t.Errorf("empty note = %d", rr.Code)
	}

	if rr := env.form(t, "/jobs/1/delete", nil); rr.Code != http.StatusSeeOther {
		t.Errorf("delete = %d", rr.Code)
	}
	apps, _ := env.handler.Store.Load()
	if len(apps) != 4 || apps[1].Company != "Initech" {
		t.Errorf("after delete = %d records", len(apps))
	}
}

func TestDocumentView(t *testing.T) {
	env := setup(t, sampleApps())
	resumes := env.handler.Locator.ResumesDir
	md := filepath.Join(resumes, "Jane_Doe_Resume_Acme.md")
	writeFile(t, md, "---\ncompany: Acme\n---\n# Jane Doe\n\n<script>x</script>\n")
	writeFile(t, filepath.Join(resumes, "Jane_Doe_Resume_Acme.pdf"), "%PDF-1.3")
	outside := filepath.Join(env.dir, "secret.md")
	writeFile(t, outside, "# secret")

	rr := env.do(t, http.MethodGet, "/documents/view?path="+url.QueryEscape(md), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("view = %d: %s", rr.Code, rr.Body)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "<h1>Jane Doe</h1>") || strings.Contains(body, "<script>x") {
		t.Errorf("rendered body = %s", body)
	}
	if !strings.Contains(body, "/documents/download/Jane_Doe_Resume_Acme.pdf") {
		t.Error("missing PDF link")
	}

	tests := []struct {
		path string
		want int
	}{
		{outside, http.StatusForbidden},
		{filepath.Join(resumes, "..", "secret.md"), http.StatusForbidden},
		{"", http.StatusForbidden},
		{filepath.Join(resumes, "Jane_Doe_Resume_Acme.pdf"), http.StatusBadRequest},
		{filepath.Join(resumes, "Jane_Doe_Resume_Nope.md"), http.StatusNotFound},
	}
	for _, tt := range tests {
		rr := env.do(t, http.MethodGet, "/documents/view?path="+url.QueryEscape(tt.path), nil)
		if rr.Code != tt.want {
			t.Errorf("view %q = %d, want %d", tt.path, rr.Code, tt.want)
		}
	}
}

func TestDocumentDownload(t *testing.T) {
	env := setup(t, sampleApps())
	writeFile(t, filepath.Join(env.handler.Locator.CoverLettersDir, "Jane_Doe_CoverLetter_Acme.pdf"), "%PDF-1.3 letter")

	rr := env.do(t, http.MethodGet, "/documents/download/Jane_Doe_CoverLetter_Acme.pdf", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("download = %d", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("Content-Disposition"), "attachment") || rr.Body.String() != "%PDF-1.3 letter" {
		t.Errorf("headers = %v body = %q", rr.Header(), rr.Body)
	}

	for _, name := range []string{"Jane_Doe_CoverLetter_Nope.pdf", "Jane_Doe_Resume_Acme.md"} {
		if rr := env.do(t, http.MethodGet, "/documents/download/"+name, nil); rr.Code != http.StatusNotFound {
			t.Errorf("%s = %d", name, rr.Code)
		}
	}
}

func TestBaseResume(t *testing.T) {
	env := setup(t, sampleApps())
	if rr := env.do(t, http.MethodGet, "/base-resume", nil); rr.Code != http.StatusNotFound {
		t.Errorf("unset base resume = %d", rr.Code)
	}
	env.handler.BaseResume = filepath.Join(env.dir, "base.md")
	writeFile(t, env.handler.BaseResume, "# Base\n")
	rr := env.do(t, http.MethodGet, "/base-resume", nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "<h1>Base</h1>") {
		t.Errorf("base resume = %d", rr.Code)
	}
}
