// Package api serves the web dashboard and the JSON API.
package api

import (
	"net/http"
	"time"

	"github.com/mklimuk/job-pilot/pkg/ai"
	"github.com/mklimuk/job-pilot/pkg/db"
	"github.com/mklimuk/job-pilot/pkg/documents"
	"github.com/mklimuk/job-pilot/pkg/integration/sheets"
	"github.com/mklimuk/job-pilot/pkg/logging"
	"github.com/mklimuk/job-pilot/pkg/posting"
	"github.com/mklimuk/job-pilot/pkg/render"
	"github.com/mklimuk/job-pilot/pkg/tracker"
)

// Handler holds dependencies for the web and API handlers. Optional
// integrations are nil when not configured; their endpoints answer 503.
type Handler struct {
	Store       *tracker.Store
	Locator     *documents.Locator
	Templates   *documents.TemplateEngine
	Resumes     *render.Converter
	Letters     *render.Converter
	Checker     *posting.Checker
	Runs        *db.Repository
	Drafter     *ai.Drafter
	Sheets      *sheets.Exporter
	BaseResume  string
	HorizonDays int
	Log         *logging.Logger

	now   func() time.Time
	pages map[string]*page
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler) http.Handler {
	if h.Log == nil {
		h.Log = logging.NewNop()
	}
	if h.now == nil {
		h.now = time.Now
	}
	h.pages = loadPages()

	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.HandleDashboard)
	mux.HandleFunc("GET /jobs", h.HandleJobs)
	mux.HandleFunc("GET /jobs/new", h.HandleJobForm)
	mux.HandleFunc("POST /jobs/new", h.HandleJobCreate)
	mux.HandleFunc("GET /jobs/{index}", h.HandleJobDetail)
	mux.HandleFunc("GET /jobs/{index}/edit", h.HandleJobForm)
	mux.HandleFunc("POST /jobs/{index}/edit", h.HandleJobEdit)
	mux.HandleFunc("POST /jobs/{index}/delete", h.HandleJobDelete)
	mux.HandleFunc("POST /jobs/{index}/hide", h.HandleJobHide)
	mux.HandleFunc("POST /jobs/{index}/unhide", h.HandleJobUnhide)
	mux.HandleFunc("POST /jobs/{index}/note", h.HandleJobNote)
	mux.HandleFunc("GET /base-resume", h.HandleBaseResume)
	mux.HandleFunc("GET /documents", h.HandleDocuments)
	mux.HandleFunc("GET /documents/view", h.HandleDocumentView)
	mux.HandleFunc("GET /documents/download/{name}", h.HandleDocumentDownload)

	mux.HandleFunc("GET /api/jobs", h.APIListJobs)
	mux.HandleFunc("POST /api/jobs", h.APICreateJob)
	mux.HandleFunc("GET /api/jobs/{index}", h.APIGetJob)
	mux.HandleFunc("PATCH /api/jobs/{index}", h.APIUpdateJob)
	mux.HandleFunc("DELETE /api/jobs/{index}", h.APIDeleteJob)
	mux.HandleFunc("POST /api/jobs/{index}/hide", h.APIHideJob)
	mux.HandleFunc("POST /api/jobs/{index}/unhide", h.APIUnhideJob)
	mux.HandleFunc("POST /api/jobs/{index}/notes", h.APIAppendNote)
	mux.HandleFunc("POST /api/jobs/{index}/status", h.APISetStatus)
	mux.HandleFunc("GET /api/jobs/{index}/documents", h.APIJobDocuments)
	mux.HandleFunc("POST /api/jobs/{index}/documents", h.APICreateDocument)
	mux.HandleFunc("POST /api/jobs/{index}/draft", h.APIDraftFollowUp)
	mux.HandleFunc("GET /api/stats", h.APIStats)
	mux.HandleFunc("GET /api/followups", h.APIFollowUps)
	mux.HandleFunc("GET /api/documents", h.APIDocuments)
	mux.HandleFunc("POST /api/convert", h.APIConvert)
	mux.HandleFunc("POST /api/check-urls", h.APICheckURLs)
	mux.HandleFunc("GET /api/runs", h.APIRuns)
	mux.HandleFunc("GET /api/export.xlsx", h.APIExportXLSX)
	mux.HandleFunc("POST /api/export/sheets", h.APIExportSheets)

	return h.logRequests(mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.Log.Debug("request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
	})
}
