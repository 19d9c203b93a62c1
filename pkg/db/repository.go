package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository handles data access
type Repository struct {
	db *DB
}

// NewRepository creates a new Repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Run statuses
const (
	RunRunning  = "running"
	RunDone     = "done"
	RunFailed   = "failed"
	RunCanceled = "canceled"
)

// Run represents a row in the runs table: one conversion batch, posting
// check, export or backup.
type Run struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Status    string    `json:"status"`
	Result    string    `json:"result"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StartRun records a new running run of kind and returns its ID.
func (r *Repository) StartRun(kind string) (string, error) {
	id := uuid.NewString()
	query := `INSERT INTO runs (id, kind, status) VALUES (?, ?, ?)`
	if _, err := r.db.Exec(query, id, kind, RunRunning); err != nil {
		return "", fmt.Errorf("failed to start run: %w", err)
	}
	return id, nil
}

// FinishRun stores the final status and a short result summary.
func (r *Repository) FinishRun(id, status, result string) error {
	query := `UPDATE runs SET status = ?, result = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	res, err := r.db.Exec(query, status, result, id)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

// GetRun returns a run by ID, or nil when there is none.
func (r *Repository) GetRun(id string) (*Run, error) {
	query := `SELECT id, kind, status, COALESCE(result, ''), created_at, updated_at FROM runs WHERE id = ?`
	run, err := scanRun(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first. An empty kind lists
// every kind.
func (r *Repository) ListRuns(kind string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, kind, status, COALESCE(result, ''), created_at, updated_at FROM runs
		WHERE (? = '' OR kind = ?) ORDER BY created_at DESC, rowid DESC LIMIT ?`
	rows, err := r.db.Query(query, kind, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var run Run
	if err := s.Scan(&run.ID, &run.Kind, &run.Status, &run.Result, &run.CreatedAt, &run.UpdatedAt); err != nil {
		return nil, err
	}
	return &run, nil
}

// PostingCheck is one recorded posting status check.
type PostingCheck struct {
	ID         int64
	RunID      string
	Company    string
	URL        string
	Verdict    string
	HTTPStatus int
	Detail     string
	CheckedAt  time.Time
}

// InsertPostingCheck stores the outcome of one posting check.
func (r *Repository) InsertPostingCheck(c PostingCheck) error {
	query := `INSERT INTO posting_checks (run_id, company, url, verdict, http_status, detail) VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := r.db.Exec(query, c.RunID, c.Company, c.URL, c.Verdict, c.HTTPStatus, c.Detail); err != nil {
		return fmt.Errorf("failed to insert posting check: %w", err)
	}
	return nil
}

// LatestPostingCheck returns the newest check for company, or nil.
func (r *Repository) LatestPostingCheck(company string) (*PostingCheck, error) {
	query := `SELECT id, COALESCE(run_id, ''), company, COALESCE(url, ''), verdict, COALESCE(http_status, 0), COALESCE(detail, ''), checked_at
		FROM posting_checks WHERE company = ? ORDER BY checked_at DESC, id DESC LIMIT 1`
	var c PostingCheck
	err := r.db.QueryRow(query, company).Scan(&c.ID, &c.RunID, &c.Company, &c.URL, &c.Verdict, &c.HTTPStatus, &c.Detail, &c.CheckedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get posting check: %w", err)
	}
	return &c, nil
}

// DriveSyncRecord maps a local file to its uploaded Drive copy.
type DriveSyncRecord struct {
	DriveFileID string
	LocalPath   string
	ModTime     time.Time
	Direction   string
	SyncedAt    time.Time
}

// InsertDriveSync records a newly uploaded file.
func (r *Repository) InsertDriveSync(driveFileID, localPath string, modTime time.Time, direction string) error {
	query := `INSERT INTO drive_sync (drive_file_id, local_path, mod_time, direction) VALUES (?, ?, ?, ?)`
	if _, err := r.db.Exec(query, driveFileID, localPath, modTime.UTC(), direction); err != nil {
		return fmt.Errorf("failed to insert drive sync: %w", err)
	}
	return nil
}

// GetDriveSyncByLocalPath returns the record for localPath, or nil.
func (r *Repository) GetDriveSyncByLocalPath(localPath string) (*DriveSyncRecord, error) {
	query := `SELECT drive_file_id, local_path, mod_time, direction, synced_at FROM drive_sync WHERE local_path = ?`
	var rec DriveSyncRecord
	err := r.db.QueryRow(query, localPath).Scan(&rec.DriveFileID, &rec.LocalPath, &rec.ModTime, &rec.Direction, &rec.SyncedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get drive sync: %w", err)
	}
	return &rec, nil
}

// UpdateDriveSync stores the modification time of the latest upload.
func (r *Repository) UpdateDriveSync(driveFileID string, modTime time.Time) error {
	query := `UPDATE drive_sync SET mod_time = ?, synced_at = CURRENT_TIMESTAMP WHERE drive_file_id = ?`
	if _, err := r.db.Exec(query, modTime.UTC(), driveFileID); err != nil {
		return fmt.Errorf("failed to update drive sync: %w", err)
	}
	return nil
}

// CalendarSyncRecord maps a company to the calendar event holding its
// follow-up. SyncKey is the follow-up date the event was written with.
type CalendarSyncRecord struct {
	EventID  string
	Company  string
	SyncKey  string
	SyncedAt time.Time
}

// InsertCalendarSync records a newly created follow-up event.
func (r *Repository) InsertCalendarSync(eventID, company, syncKey string) error {
	query := `INSERT INTO calendar_sync (event_id, company, sync_key) VALUES (?, ?, ?)`
	if _, err := r.db.Exec(query, eventID, company, syncKey); err != nil {
		return fmt.Errorf("failed to insert calendar sync: %w", err)
	}
	return nil
}

// GetCalendarSyncByEventID returns the record for eventID, or nil.
func (r *Repository) GetCalendarSyncByEventID(eventID string) (*CalendarSyncRecord, error) {
	return r.getCalendarSync(`SELECT event_id, company, sync_key, synced_at FROM calendar_sync WHERE event_id = ?`, eventID)
}

// GetCalendarSyncByCompany returns the record for company, or nil.
func (r *Repository) GetCalendarSyncByCompany(company string) (*CalendarSyncRecord, error) {
	return r.getCalendarSync(`SELECT event_id, company, sync_key, synced_at FROM calendar_sync WHERE company = ?`, company)
}

func (r *Repository) getCalendarSync(query string, arg string) (*CalendarSyncRecord, error) {
	var rec CalendarSyncRecord
	err := r.db.QueryRow(query, arg).Scan(&rec.EventID, &rec.Company, &rec.SyncKey, &rec.SyncedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get calendar sync: %w", err)
	}
	return &rec, nil
}

// UpdateCalendarSync stores a new sync key for eventID.
func (r *Repository) UpdateCalendarSync(eventID, syncKey string) error {
	query := `UPDATE calendar_sync SET sync_key = ?, synced_at = CURRENT_TIMESTAMP WHERE event_id = ?`
	if _, err := r.db.Exec(query, syncKey, eventID); err != nil {
		return fmt.Errorf("failed to update calendar sync: %w", err)
	}
	return nil
}

// ListCalendarSync returns every follow-up event record.
func (r *Repository) ListCalendarSync() ([]CalendarSyncRecord, error) {
	rows, err := r.db.Query(`SELECT event_id, company, sync_key, synced_at FROM calendar_sync ORDER BY company`)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendar sync: %w", err)
	}
	defer rows.Close()

	var out []CalendarSyncRecord
	for rows.Next() {
		var rec CalendarSyncRecord
		if err := rows.Scan(&rec.EventID, &rec.Company, &rec.SyncKey, &rec.SyncedAt); err != nil {
			return nil, fmt.Errorf("failed to scan calendar sync: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeleteCalendarSync forgets the record for eventID.
func (r *Repository) DeleteCalendarSync(eventID string) error {
	if _, err := r.db.Exec(`DELETE FROM calendar_sync WHERE event_id = ?`, eventID); err != nil {
		return fmt.Errorf("failed to delete calendar sync: %w", err)
	}
	return nil
}

// Draft is a generated follow-up message.
type Draft struct {
	ID        int64
	Company   string
	Provider  string
	Body      string
	CreatedAt time.Time
}

// InsertDraft stores a generated follow-up draft.
func (r *Repository) InsertDraft(company, provider, body string) (int64, error) {
	query := `INSERT INTO drafts (company, provider, body) VALUES (?, ?, ?)`
	res, err := r.db.Exec(query, company, provider, body)
	if err != nil {
		return 0, fmt.Errorf("failed to insert draft: %w", err)
	}
	return res.LastInsertId()
}

// ListDrafts returns drafts for company, newest first.
func (r *Repository) ListDrafts(company string) ([]Draft, error) {
	query := `SELECT id, company, provider, body, created_at FROM drafts WHERE company = ? ORDER BY created_at DESC, id DESC`
	rows, err := r.db.Query(query, company)
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	defer rows.Close()

	var drafts []Draft
	for rows.Next() {
		var d Draft
		if err := rows.Scan(&d.ID, &d.Company, &d.Provider, &d.Body, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan draft: %w", err)
		}
		drafts = append(drafts, d)
	}
	return drafts, rows.Err()
}
