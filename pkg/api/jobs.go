package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mklimuk/job-pilot/pkg/query"
	"github.com/mklimuk/job-pilot/pkg/tracker"
)

// listParams are the filters shared by the jobs page and GET /api/jobs.
type listParams struct {
	Filter query.Filter
	Sort   query.Field
	Dir    query.Direction
}

func parseListParams(v url.Values) (listParams, error) {
	var p listParams
	p.Filter.IncludeHidden = v.Get("show_hidden") != ""
	p.Filter.Company = v.Get("q")

	g, err := query.ParseGroup(v.Get("group"))
	if err != nil {
		return p, &tracker.ValidationError{Field: "group", Msg: err.Error()}
	}
	p.Filter.Group = g

	if s := v.Get("status"); s != "" {
		st, ok := tracker.ParseStatus(s)
		if !ok {
			return p, &tracker.ValidationError{Field: "status", Msg: fmt.Sprintf("%q is not a known status", s)}
		}
		p.Filter.Statuses = []tracker.Status{st}
	}
	if s := v.Get("priority"); s != "" {
		pr, ok := tracker.ParsePriority(s)
		if !ok {
			return p, &tracker.ValidationError{Field: "priority", Msg: fmt.Sprintf("%q is not a known priority", s)}
		}
		p.Filter.Priorities = []tracker.Priority{pr}
	}
	if s := v.Get("sort"); s != "" {
		f, err := query.ParseField(s)
		if err != nil {
			return p, &tracker.ValidationError{Field: "sort", Msg: err.Error()}
		}
		p.Sort = f
	}
	p.Dir = query.ParseDirection(v.Get("dir"))
	return p, nil
}

func (h *Handler) list(v url.Values) ([]query.Entry, listParams, error) {
	p, err := parseListParams(v)
	if err != nil {
		return nil, p, err
	}
	apps, err := h.Store.Load()
	if err != nil {
		return nil, p, err
	}
	entries := query.Collect(query.Apply(apps, p.Filter))
	if p.Sort != "" {
		query.Sort(entries, p.Sort, p.Dir)
	}
	return entries, p, nil
}

// APIListJobs handles GET /api/jobs
func (h *Handler) APIListJobs(w http.ResponseWriter, r *http.Request) {
	entries, _, err := h.list(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []query.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// APICreateJob handles POST /api/jobs
func (h *Handler) APICreateJob(w http.ResponseWriter, r *http.Request) {
	var app tracker.Application
	if err := json.NewDecoder(r.Body).Decode(&app); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	idx, err := h.Store.Add(app)
	if err != nil {
		writeError(w, err)
		return
	}
	created, err := h.Store.Get(idx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, query.Entry{Index: idx, App: created})
}

// APIGetJob handles GET /api/jobs/{index}
func (h *Handler) APIGetJob(w http.ResponseWriter, r *http.Request) {
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
	writeJSON(w, http.StatusOK, query.Entry{Index: i, App: app})
}

// APIUpdateJob handles PATCH /api/jobs/{index}
func (h *Handler) APIUpdateJob(w http.ResponseWriter, r *http.Request) {
	i, err := pathIndex(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var p tracker.Patch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.Store.Update(i, p); err != nil {
		writeError(w, err)
		return
	}
	h.APIGetJob(w, r)
}

// APIDeleteJob handles DELETE /api/jobs/{index}
func (h *Handler) APIDeleteJob(w http.ResponseWriter, r *http.Request) {
	i, err := pathIndex(r)
	if err != nil {
		writeError(w, err)
		return
	}
	removed, err := h.Store.Delete(i)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, removed)
}

type hideRequest struct {
	Reason string `json:"reason"`
}

// APIHideJob handles POST /api/jobs/{index}/hide
func (h *Handler) APIHideJob(w http.ResponseWriter, r *http.Request) {
	i, err := pathIndex(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req hideRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if err := h.Store.Hide(i, req.Reason); err != nil {
		writeError(w, err)
		return
	}
	h.APIGetJob(w, r)
}

// APIUnhideJob handles POST /api/jobs/{index}/unhide
func (h *Handler) APIUnhideJob(w http.ResponseWriter, r *http.Request) {
	i, err := pathIndex(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Store.Unhide(i); err != nil {
		writeError(w, err)
		return
	}
	h.APIGetJob(w, r)
}

type noteRequest struct {
	Text string `json:"text"`
}

// APIAppendNote handles POST /api/jobs/{index}/notes
func (h *Handler) APIAppendNote(w http.ResponseWriter, r *http.Request) {
	i, err := pathIndex(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, &tracker.ValidationError{Field: "text", Msg: "is required"})
		return
	}
	if err := h.Store.AppendNoteAt(i, req.Text); err != nil {
		writeError(w, err)
		return
	}
	h.APIGetJob(w, r)
}

type statusRequest struct {
	Status string `json:"status"`
	Date   string `json:"date,omitempty"`
}

// APISetStatus handles POST /api/jobs/{index}/status
func (h *Handler) APISetStatus(w http.ResponseWriter, r *http.Request) {
	i, err := pathIndex(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	st, ok := tracker.ParseStatus(req.Status)
	if !ok {
		writeError(w, &tracker.ValidationError{Field: "status", Msg: fmt.Sprintf("%q is not a known status", req.Status)})
		return
	}
	var date *time.Time
	if req.Date != "" {
		d, ok := tracker.ParseDate(req.Date)
		if !ok {
			writeError(w, &tracker.ValidationError{Field: "date", Msg: "must be YYYY-MM-DD"})
			return
		}
		date = &d
	}
	if err := h.Store.SetStatusAt(i, st, date); err != nil {
		writeError(w, err)
		return
	}
	h.APIGetJob(w, r)
}
