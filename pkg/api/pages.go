package api

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mklimuk/job-pilot/pkg/documents"
	"github.com/mklimuk/job-pilot/pkg/query"
	"github.com/mklimuk/job-pilot/pkg/render"
	"github.com/mklimuk/job-pilot/pkg/stats"
	"github.com/mklimuk/job-pilot/pkg/tracker"
)

//go:embed templates/*.html
var templateFS embed.FS

type page struct {
	tmpl *template.Template
}

var funcs = template.FuncMap{
	"display": func(s tracker.Status) string { return s.Display() },
	"percent": func(f float64) string { return fmt.Sprintf("%.0f%%", f*100) },
	"relative": func(days int) string {
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
	},
	"kindLabel": func(k documents.Kind) string {
		switch k {
		case documents.KindCoverLetter:
			return "Cover letters"
		case documents.KindWhyCompany:
			return "Why company"
		}
		return "Resumes"
	},
}

func loadPages() map[string]*page {
	names := []string{"dashboard", "jobs", "job_detail", "job_form", "documents", "document_view"}
	pages := make(map[string]*page, len(names))
	for _, name := range names {
		t := template.Must(template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html"))
		pages[name] = &page{tmpl: t}
	}
	return pages
}

// view is the data every page receives.
type view struct {
	Title string
	Nav   string
	Data  any
}

func (h *Handler) renderPage(w http.ResponseWriter, status int, name, title string, data any) {
	p, ok := h.pages[name]
	if !ok {
		http.Error(w, "unknown page "+name, http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, view{Title: title, Nav: name, Data: data}); err != nil {
		h.Log.Error("template failed", "page", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (h *Handler) pageError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= 500 {
		h.Log.Error("page failed", "error", err)
	}
	http.Error(w, err.Error(), status)
}

type dashboardData struct {
	Summary  stats.Summary
	Overdue  []stats.FollowUp
	Upcoming []stats.FollowUp
	Days     int
	Groups   []query.Group
}

// HandleDashboard handles GET /
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	apps, err := h.Store.Load()
	if err != nil {
		h.pageError(w, err)
		return
	}
	days, err := h.horizon(r)
	if err != nil {
		h.pageError(w, err)
		return
	}
	now := h.now()
	h.renderPage(w, http.StatusOK, "dashboard", "Dashboard", dashboardData{
		Summary:  stats.Compute(apps, stats.Options{}),
		Overdue:  stats.Overdue(apps, now, false),
		Upcoming: stats.Upcoming(apps, now, days, false),
		Days:     days,
		Groups:   query.Groups,
	})
}

type jobsData struct {
	Entries    []query.Entry
	Params     url.Values
	Statuses   []tracker.Status
	Priorities []tracker.Priority
	Groups     []query.Group
	Fields     []query.Field
}

// HandleJobs handles GET /jobs
func (h *Handler) HandleJobs(w http.ResponseWriter, r *http.Request) {
	entries, _, err := h.list(r.URL.Query())
	if err != nil {
		h.pageError(w, err)
		return
	}
	h.renderPage(w, http.StatusOK, "jobs", "Applications", jobsData{
		Entries:    entries,
		Params:     r.URL.Query(),
		Statuses:   tracker.Statuses,
		Priorities: tracker.Priorities,
		Groups:     query.Groups,
		Fields:     query.Fields,
	})
}

type jobDetailData struct {
	Entry       query.Entry
	Notes       []string
	Documents   map[documents.Kind][]documents.Document
	Expected    documents.Paths
	Statuses    []tracker.Status
	HideReasons []string
}

// HandleJobDetail handles GET /jobs/{index}
func (h *Handler) HandleJobDetail(w http.ResponseWriter, r *http.Request) {
	i, err := pathIndex(r)
	if err != nil {
		h.pageError(w, err)
		return
	}
	app, err := h.Store.Get(i)
	if err != nil {
		h.pageError(w, err)
		return
	}
	data := jobDetailData{
		Entry:       query.Entry{Index: i, App: app},
		Notes:       app.NoteEntries(),
		Statuses:    tracker.Statuses,
		HideReasons: tracker.HideReasons,
	}
	// A company name that cannot be a file name still has a detail page.
	if docs, err := h.Locator.CompanyDocuments(app.Company, app.Position); err == nil {
		data.Documents = docs
	}
	if paths, err := h.Locator.Resolve(app.Company); err == nil {
		data.Expected = paths
	}
	h.renderPage(w, http.StatusOK, "job_detail", app.Company, data)
}

type jobFormData struct {
	Index      int // -1 for a new record
	App        tracker.Application
	Error      string
	Statuses   []tracker.Status
	Priorities []tracker.Priority
	Stages     []string
}

func (h *Handler) renderForm(w http.ResponseWriter, status int, index int, app tracker.Application, formErr error) {
	data := jobFormData{
		Index:      index,
		App:        app,
		Statuses:   tracker.Statuses,
		Priorities: tracker.Priorities,
		Stages:     tracker.InterviewStages,
	}
	if formErr != nil {
		data.Error = formErr.Error()
	}
	title := "New application"
	if index >= 0 {
		title = "Edit " + app.Company
	}
	h.renderPage(w, status, "job_form", title, data)
}

// HandleJobForm handles GET /jobs/new and GET /jobs/{index}/edit
func (h *Handler) HandleJobForm(w http.ResponseWriter, r *http.Request) {
	if r.PathValue("index") == "" {
		h.renderForm(w, http.StatusOK, -1, tracker.Application{Status: tracker.StatusNotApplied, Priority: tracker.PriorityMedium}, nil)
		return
	}
	i, err := pathIndex(r)
	if err != nil {
		h.pageError(w, err)
		return
	}
	app, err := h.Store.Get(i)
	if err != nil {
		h.pageError(w, err)
		return
	}
	h.renderForm(w, http.StatusOK, i, app, nil)
}

var formFields = []string{
	"company", "position", "location", "salary_base", "total_comp_estimate",
	"status", "applied_date", "job_url", "contact_name", "contact_email",
	"contact_phone", "last_contact_date", "next_followup_date",
	"interview_stage", "priority",
}

func applicationFromForm(r *http.Request) tracker.Application {
	f := func(k string) string { return strings.TrimSpace(r.PostFormValue(k)) }
	return tracker.Application{
		Company:          f("company"),
		Position:         f("position"),
		Location:         f("location"),
		SalaryBase:       f("salary_base"),
		TotalComp:        f("total_comp_estimate"),
		Status:           tracker.Status(f("status")),
		AppliedDate:      f("applied_date"),
		JobURL:           f("job_url"),
		ContactName:      f("contact_name"),
		ContactEmail:     f("contact_email"),
		ContactPhone:     f("contact_phone"),
		LastContactDate:  f("last_contact_date"),
		NextFollowUpDate: f("next_followup_date"),
		InterviewStage:   f("interview_stage"),
		Priority:         tracker.Priority(f("priority")),
	}
}

// patchFromForm sets only the fields present in the submitted form.
func patchFromForm(r *http.Request) tracker.Patch {
	var p tracker.Patch
	targets := map[string]**string{
		"company":             &p.Company,
		"position":            &p.Position,
		"location":            &p.Location,
		"salary_base":         &p.SalaryBase,
		"total_comp_estimate": &p.TotalComp,
		"status":              &p.Status,
		"applied_date":        &p.AppliedDate,
		"job_url":             &p.JobURL,
		"contact_name":        &p.ContactName,
		"contact_email":       &p.ContactEmail,
		"contact_phone":       &p.ContactPhone,
		"last_contact_date":   &p.LastContactDate,
		"next_followup_date":  &p.NextFollowUpDate,
		"interview_stage":     &p.InterviewStage,
		"priority":            &p.Priority,
	}
	for _, k := range formFields {
		if _, ok := r.PostForm[k]; !ok {
			continue
		}
		v := strings.TrimSpace(r.PostForm.Get(k))
		*targets[k] = &v
	}
	if note := strings.TrimSpace(r.PostFormValue("note")); note != "" {
		p.Note = &note
	}
	return p
}

// HandleJobCreate handles POST /jobs/new
func (h *Handler) HandleJobCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	app := applicationFromForm(r)
	idx, err := h.Store.AddWithNote(app, r.PostFormValue("note"))
	if tracker.IsValidation(err) {
		h.renderForm(w, http.StatusBadRequest, -1, app, err)
		return
	}
	if err != nil {
		h.pageError(w, err)
		return
	}
	http.Redirect(w, r, "/jobs/"+strconv.Itoa(idx), http.StatusSeeOther)
}

// HandleJobEdit handles POST /jobs/{index}/edit
func (h *Handler) HandleJobEdit(w http.ResponseWriter, r *http.Request) {
	i, err := pathIndex(r)
	if err != nil {
		h.pageError(w, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	err = h.Store.Update(i, patchFromForm(r))
	if tracker.IsValidation(err) {
		h.renderForm(w, http.StatusBadRequest, i, applicationFromForm(r), err)
		return
	}
	if err != nil {
		h.pageError(w, err)
		return
	}
	http.Redirect(w, r, "/jobs/"+strconv.Itoa(i), http.StatusSeeOther)
}

// HandleJobDelete handles POST /jobs/{index}/delete
func (h *Handler) HandleJobDelete(w http.ResponseWriter, r *http.Request) {
	i, err := pathIndex(r)
	if err != nil {
		h.pageError(w, err)
		return
	}
	if _, err := h.Store.Delete(i); err != nil {
		h.pageError(w, err)
		return
	}
	http.Redirect(w, r, "/jobs", http.StatusSeeOther)
}

// HandleJobHide handles POST /jobs/{index}/hide
func (h *Handler) HandleJobHide(w http.ResponseWriter, r *http.Request) {
	h.mutateAndReturn(w, r, func(i int) error {
		return h.Store.Hide(i, r.PostFormValue("reason"))
	})
}

// HandleJobUnhide handles POST /jobs/{index}/unhide
func (h *Handler) HandleJobUnhide(w http.ResponseWriter, r *http.Request) {
	h.mutateAndReturn(w, r, h.Store.Unhide)
}

// HandleJobNote handles POST /jobs/{index}/note
func (h *Handler) HandleJobNote(w http.ResponseWriter, r *http.Request) {
	h.mutateAndReturn(w, r, func(i int) error {
		text := strings.TrimSpace(r.PostFormValue("note"))
		if text == "" {
			return &tracker.ValidationError{Field: "note", Msg: "is required"}
		}
		return h.Store.AppendNoteAt(i, text)
	})
}

func (h *Handler) mutateAndReturn(w http.ResponseWriter, r *http.Request, fn func(i int) error) {
	i, err := pathIndex(r)
	if err != nil {
		h.pageError(w, err)
		return
	}
	if err := fn(i); err != nil {
		h.pageError(w, err)
		return
	}
	http.Redirect(w, r, "/jobs/"+strconv.Itoa(i), http.StatusSeeOther)
}

type documentsData struct {
	Documents map[documents.Kind][]documents.Document
	Kinds     []documents.Kind
}

// HandleDocuments handles GET /documents
func (h *Handler) HandleDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.Locator.List()
	if err != nil {
		h.pageError(w, err)
		return
	}
	h.renderPage(w, http.StatusOK, "documents", "Documents", documentsData{
		Documents: docs,
		Kinds:     []documents.Kind{documents.KindResume, documents.KindCoverLetter},
	})
}

type documentViewData struct {
	Name     string
	Rendered string
	HTML     template.HTML
}

func (h *Handler) renderMarkdown(w http.ResponseWriter, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		h.pageError(w, err)
		return
	}
	out, err := render.HTML(data)
	if err != nil {
		h.pageError(w, err)
		return
	}
	name := filepath.Base(path)
	v := documentViewData{Name: name, HTML: template.HTML(out)}
	pdf := strings.TrimSuffix(name, filepath.Ext(name)) + ".pdf"
	if _, err := os.Stat(filepath.Join(filepath.Dir(path), pdf)); err == nil {
		v.Rendered = pdf
	}
	h.renderPage(w, http.StatusOK, "document_view", name, v)
}

// HandleDocumentView handles GET /documents/view?path=
func (h *Handler) HandleDocumentView(w http.ResponseWriter, r *http.Request) {
	path, err := h.Locator.Open(r.URL.Query().Get("path"))
	if err != nil {
		h.pageError(w, err)
		return
	}
	if !strings.EqualFold(filepath.Ext(path), ".md") {
		h.pageError(w, &tracker.ValidationError{Field: "path", Msg: "only markdown documents can be viewed"})
		return
	}
	h.renderMarkdown(w, path)
}

// HandleBaseResume handles GET /base-resume
func (h *Handler) HandleBaseResume(w http.ResponseWriter, r *http.Request) {
	if h.BaseResume == "" {
		http.NotFound(w, r)
		return
	}
	h.renderMarkdown(w, h.BaseResume)
}

// HandleDocumentDownload handles GET /documents/download/{name}
func (h *Handler) HandleDocumentDownload(w http.ResponseWriter, r *http.Request) {
	path, err := h.Locator.Download(r.PathValue("name"))
	if err != nil {
		h.pageError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}
