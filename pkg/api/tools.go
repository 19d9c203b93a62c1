package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/mklimuk/job-pilot/pkg/db"
	"github.com/mklimuk/job-pilot/pkg/documents"
	"github.com/mklimuk/job-pilot/pkg/export"
	"github.com/mklimuk/job-pilot/pkg/posting"
	"github.com/mklimuk/job-pilot/pkg/render"
	"github.com/mklimuk/job-pilot/pkg/stats"
	"github.com/mklimuk/job-pilot/pkg/tracker"
)

func unavailable(w http.ResponseWriter, what string) {
	writeMessage(w, http.StatusServiceUnavailable, what+" is not configured")
}

func (h *Handler) horizon(r *http.Request) (int, error) {
	days := h.HorizonDays
	if days <= 0 {
		days = stats.DefaultHorizonDays
	}
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, &tracker.ValidationError{Field: "days", Msg: "must be a non-negative number"}
		}
		days = n
	}
	return days, nil
}

// APIStats handles GET /api/stats
func (h *Handler) APIStats(w http.ResponseWriter, r *http.Request) {
	apps, err := h.Store.Load()
	if err != nil {
		writeError(w, err)
		return
	}
	opts := stats.Options{IncludeHidden: r.URL.Query().Get("show_hidden") != ""}
	writeJSON(w, http.StatusOK, stats.Compute(apps, opts))
}

type followUpsResponse struct {
	Days     int              `json:"days"`
	Overdue  []stats.FollowUp `json:"overdue"`
	Upcoming []stats.FollowUp `json:"upcoming"`
}

// APIFollowUps handles GET /api/followups
func (h *Handler) APIFollowUps(w http.ResponseWriter, r *http.Request) {
	days, err := h.horizon(r)
	if err != nil {
		writeError(w, err)
		return
	}
	apps, err := h.Store.Load()
	if err != nil {
		writeError(w, err)
		return
	}
	hidden := r.URL.Query().Get("show_hidden") != ""
	now := h.now()
	resp := followUpsResponse{
		Days:     days,
		Overdue:  stats.Overdue(apps, now, hidden),
		Upcoming: stats.Upcoming(apps, now, days, hidden),
	}
	if resp.Overdue == nil {
		resp.Overdue = []stats.FollowUp{}
	}
	if resp.Upcoming == nil {
		resp.Upcoming = []stats.FollowUp{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// APIJobDocuments handles GET /api/jobs/{index}/documents
func (h *Handler) APIJobDocuments(w http.ResponseWriter, r *http.Request) {
	i, err := pathIndex(r)
	if err != nil {
		writeError(w, err)
		return
	}
	app, err := h.Store.Get(i)
	if err != nil {
		writeError(w, err)
		return
	}
	paths, err := h.Locator.Resolve(app.Company)
	if err != nil {
		writeError(w, err)
		return
	}
	docs, err := h.Locator.CompanyDocuments(app.Company, app.Position)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"expected": paths, "documents": docs})
}

type createDocumentRequest struct {
	Kind documents.Kind `json:"kind"`
}

// APICreateDocument handles POST /api/jobs/{index}/documents
func (h *Handler) APICreateDocument(w http.ResponseWriter, r *http.Request) {
	if h.Templates == nil {
		unavailable(w, "document templates")
		return
	}
	i, err := pathIndex(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req createDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	switch req.Kind {
	case documents.KindResume, documents.KindCoverLetter, documents.KindWhyCompany:
	default:
		writeError(w, &tracker.ValidationError{Field: "kind", Msg: fmt.Sprintf("%q is not a document kind", req.Kind)})
		return
	}
	app, err := h.Store.Get(i)
	if err != nil {
		writeError(w, err)
		return
	}
	path, err := h.Templates.Create(h.Locator, req.Kind, app)
	if err != nil {
		writeError(w, err)
		return
	}
	h.Log.Info("document created", "company", app.Company, "kind", req.Kind, "path", path)
	writeJSON(w, http.StatusCreated, map[string]string{"path": path})
}

// APIDraftFollowUp handles POST /api/jobs/{index}/draft
func (h *Handler) APIDraftFollowUp(w http.ResponseWriter, r *http.Request) {
	if h.Drafter == nil {
		unavailable(w, "AI drafting")
		return
	}
	i, err := pathIndex(r)
	if err != nil {
		writeError(w, err)
		return
	}
	app, err := h.Store.Get(i)
	if err != nil {
		writeError(w, err)
		return
	}
	draft, err := h.Drafter.FollowUp(r.Context(), app)
	if err != nil {
		h.Log.Error("draft failed", "company", app.Company, "error", err)
		writeMessage(w, http.StatusBadGateway, fmt.Sprintf("draft failed: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// APIDocuments handles GET /api/documents
func (h *Handler) APIDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.Locator.List()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

type convertRequest struct {
	Kind   string   `json:"kind"`
	Format string   `json:"format"`
	Files  []string `json:"files,omitempty"`
}

// APIConvert handles POST /api/convert. Individual file failures are part
// of the summary; the request itself only fails on bad input.
func (h *Handler) APIConvert(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var conv *render.Converter
	var dir string
	switch req.Kind {
	case "resumes", "resume":
		conv, dir = h.Resumes, h.Locator.ResumesDir
	case "coverletters", "cover_letters", "cover_letter":
		conv, dir = h.Letters, h.Locator.CoverLettersDir
	default:
		writeError(w, &tracker.ValidationError{Field: "kind", Msg: "must be resumes or coverletters"})
		return
	}
	if conv == nil {
		unavailable(w, "conversion")
		return
	}
	if req.Format == "" {
		req.Format = "both"
	}
	formats, err := render.ParseFormats(req.Format)
	if err != nil {
		writeError(w, &tracker.ValidationError{Field: "format", Msg: err.Error()})
		return
	}

	var files []string
	if len(req.Files) == 0 {
		if files, err = render.Sources(dir); err != nil {
			writeError(w, err)
			return
		}
	} else {
		for _, f := range req.Files {
			p, err := h.Locator.Open(f)
			if err != nil {
				writeError(w, err)
				return
			}
			files = append(files, p)
		}
	}

	s, err := conv.Batch(r.Context(), files, formats)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

type checkRequest struct {
	All    bool `json:"all"`
	Update bool `json:"update"`
}

// APICheckURLs handles POST /api/check-urls
func (h *Handler) APICheckURLs(w http.ResponseWriter, r *http.Request) {
	if h.Checker == nil {
		unavailable(w, "posting checker")
		return
	}
	var req checkRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	rep, err := h.Checker.Run(r.Context(), h.Store, posting.Options{All: req.All, Update: req.Update})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// APIRuns handles GET /api/runs
func (h *Handler) APIRuns(w http.ResponseWriter, r *http.Request) {
	if h.Runs == nil {
		unavailable(w, "run history")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.Runs.ListRuns(r.URL.Query().Get("kind"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if runs == nil {
		runs = []db.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// APIExportXLSX handles GET /api/export.xlsx
func (h *Handler) APIExportXLSX(w http.ResponseWriter, r *http.Request) {
	apps, err := h.Store.Load()
	if err != nil {
		writeError(w, err)
		return
	}
	days, err := h.horizon(r)
	if err != nil {
		writeError(w, err)
		return
	}
	name := fmt.Sprintf("job_tracker_%s.xlsx", h.now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	opts := export.Options{
		IncludeHidden: r.URL.Query().Get("show_hidden") != "",
		HorizonDays:   days,
		Now:           h.now(),
	}
	if err := export.WriteXLSX(w, apps, opts); err != nil {
		h.Log.Error("xlsx export failed", "error", err)
	}
}

// APIExportSheets handles POST /api/export/sheets
func (h *Handler) APIExportSheets(w http.ResponseWriter, r *http.Request) {
	if h.Sheets == nil {
		unavailable(w, "Google Sheets export")
		return
	}
	apps, err := h.Store.Load()
	if err != nil {
		writeError(w, err)
		return
	}
	var runID string
	if h.Runs != nil {
		if runID, err = h.Runs.StartRun("export-sheets"); err != nil {
			h.Log.Warn("failed to record export run", "error", err)
		}
	}
	n, err := h.Sheets.Export(r.Context(), apps, r.URL.Query().Get("show_hidden") != "")
	h.finishRun(runID, err, fmt.Sprintf("%d records", n))
	if err != nil {
		h.Log.Error("sheets export failed", "error", err)
		writeMessage(w, http.StatusBadGateway, fmt.Sprintf("export failed: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"exported": n, "exported_at": h.now().Format(time.RFC3339)})
}

func (h *Handler) finishRun(id string, err error, result string) {
	if h.Runs == nil || id == "" {
		return
	}
	status := db.RunDone
	if err != nil {
		status, result = db.RunFailed, err.Error()
	}
	if err := h.Runs.FinishRun(id, status, result); err != nil {
		h.Log.Warn("failed to record run", "id", id, "error", err)
	}
}
