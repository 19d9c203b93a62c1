package tracker

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mklimuk/job-pilot/pkg/logging"
)

// errUnchanged lets a mutation skip the write.
var errUnchanged = errors.New("unchanged")

// Store reads and rewrites the tracker CSV. Every operation reloads the file;
// nothing is cached between calls.
type Store struct {
	path   string
	mu     sync.Mutex
	now    func() time.Time
	onSave func(message string)
	log    *logging.Logger

	warnedColumns atomic.Bool
}

type Option func(*Store)

// WithClock overrides the clock used for note timestamps and status dates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithSaveHook registers fn to run after every successful mutation.
func WithSaveHook(fn func(message string)) Option {
	return func(s *Store) { s.onSave = fn }
}

func WithLogger(l *logging.Logger) Option {
	return func(s *Store) { s.log = l }
}

// NewStore creates a store backed by the CSV file at path.
func NewStore(path string, opts ...Option) *Store {
	s := &Store{
		path: path,
		now:  time.Now,
		log:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the tracker file location.
func (s *Store) Path() string {
	return s.path
}

// Init creates an empty tracker file with a header. It reports whether the file was created.
func (s *Store) Init() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, &StorageError{Op: "stat", Path: s.path, Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return false, &StorageError{Op: "init", Path: s.path, Err: err}
	}
	if err := s.save(nil); err != nil {
		return false, err
	}
	s.log.Info("created tracker file", "path", s.path)
	return true, nil
}

// Load returns every record in file order.
func (s *Store) Load() ([]Application, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, &StorageError{Op: "load", Path: s.path, Err: err}
	}
	defer f.Close()

	apps, unknown, err := decode(f)
	if len(unknown) > 0 && !s.warnedColumns.Swap(true) {
		s.log.Warn("tracker file has unknown columns; they are dropped on the next save", "path", s.path, "columns", unknown)
	}
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			return nil, fmt.Errorf("load %s: %w", s.path, err)
		}
		return nil, &StorageError{Op: "load", Path: s.path, Err: err}
	}
	return apps, nil
}

// Save atomically replaces the file with apps.
func (s *Store) Save(apps []Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(apps)
}

func (s *Store) save(apps []Application) (err error) {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return &StorageError{Op: "save", Path: s.path, Err: err}
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if err := Encode(tmp, apps); err != nil {
		return &StorageError{Op: "save", Path: s.path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		return &StorageError{Op: "save", Path: s.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &StorageError{Op: "save", Path: s.path, Err: err}
	}

	mode := fs.FileMode(0644)
	if fi, statErr := os.Stat(s.path); statErr == nil {
		mode = fi.Mode().Perm()
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return &StorageError{Op: "save", Path: s.path, Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return &StorageError{Op: "save", Path: s.path, Err: err}
	}

	s.log.Debug("tracker saved", "path", s.path, "records", len(apps))
	return nil
}

// mutate runs a locked load/modify/save cycle.
func (s *Store) mutate(message string, fn func([]Application) ([]Application, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	apps, err := s.Load()
	if err != nil {
		return err
	}
	apps, err = fn(apps)
	if errors.Is(err, errUnchanged) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.save(apps); err != nil {
		return err
	}
	if s.onSave != nil {
		s.onSave(message)
	}
	return nil
}

func (s *Store) today() time.Time {
	return Day(s.now())
}

// Get returns the record at index i.
func (s *Store) Get(i int) (Application, error) {
	apps, err := s.Load()
	if err != nil {
		return Application{}, err
	}
	if i < 0 || i >= len(apps) {
		return Application{}, &NotFoundError{Index: i}
	}
	return apps[i], nil
}

// Find returns the index and record of the first application for company.
func (s *Store) Find(company string) (int, Application, error) {
	apps, err := s.Load()
	if err != nil {
		return -1, Application{}, err
	}
	i := indexOf(apps, company)
	if i < 0 {
		return -1, Application{}, &NotFoundError{Company: company}
	}
	return i, apps[i], nil
}

func indexOf(apps []Application, company string) int {
	for i, a := range apps {
		if a.MatchesCompany(company) {
			return i
		}
	}
	return -1
}

// Add validates a and appends it, returning its index. Empty status and
// priority default to Not Applied and Medium.
func (s *Store) Add(a Application) (int, error) {
	return s.AddWithNote(a, "")
}

// AddWithNote is Add with a first dated note, written in the same save.
func (s *Store) AddWithNote(a Application, note string) (int, error) {
	a.Company = strings.TrimSpace(a.Company)
	a.Position = strings.TrimSpace(a.Position)
	if a.Status == "" {
		a.Status = StatusNotApplied
	}
	if a.Priority == "" {
		a.Priority = PriorityMedium
	}
	if err := validateNew(a); err != nil {
		return -1, err
	}
	fillDerived(&a)
	if n := strings.TrimSpace(note); n != "" {
		a.Notes = appendNote(a.Notes, n, s.now())
	}

	idx := -1
	err := s.mutate("Add application: "+a.Company, func(apps []Application) ([]Application, error) {
		idx = len(apps)
		return append(apps, a), nil
	})
	if err != nil {
		return -1, err
	}
	return idx, nil
}

// Update applies p to the record at index i. Only the fields present in p are validated.
func (s *Store) Update(i int, p Patch) error {
	return s.mutate(fmt.Sprintf("Update application #%d", i), func(apps []Application) ([]Application, error) {
		if i < 0 || i >= len(apps) {
			return nil, &NotFoundError{Index: i}
		}
		a := apps[i]
		if err := p.apply(&a, s.now()); err != nil {
			return nil, err
		}
		fillDerived(&a)
		apps[i] = a
		return apps, nil
	})
}

// Delete removes the record at index i and returns it.
func (s *Store) Delete(i int) (Application, error) {
	var removed Application
	err := s.mutate(fmt.Sprintf("Delete application #%d", i), func(apps []Application) ([]Application, error) {
		if i < 0 || i >= len(apps) {
			return nil, &NotFoundError{Index: i}
		}
		removed = apps[i]
		return append(apps[:i], apps[i+1:]...), nil
	})
	return removed, err
}

// Hide flags the record at index i as hidden with an optional reason.
func (s *Store) Hide(i int, reason string) error {
	return s.mutate(fmt.Sprintf("Hide application #%d", i), func(apps []Application) ([]Application, error) {
		if i < 0 || i >= len(apps) {
			return nil, &NotFoundError{Index: i}
		}
		apps[i].Hidden = true
		apps[i].HideReason = strings.TrimSpace(reason)
		return apps, nil
	})
}

func (s *Store) Unhide(i int) error {
	return s.mutate(fmt.Sprintf("Unhide application #%d", i), func(apps []Application) ([]Application, error) {
		if i < 0 || i >= len(apps) {
			return nil, &NotFoundError{Index: i}
		}
		apps[i].Hidden = false
		apps[i].HideReason = ""
		return apps, nil
	})
}

// AppendNote adds a dated entry to the notes of the first record for
// company. Empty text leaves the file untouched.
func (s *Store) AppendNote(company, text string) error {
	return s.mutate("Add note: "+company, func(apps []Application) ([]Application, error) {
		i := indexOf(apps, company)
		if i < 0 {
			return nil, &NotFoundError{Company: company}
		}
		return s.noteAt(apps, i, text)
	})
}

// AppendNoteAt is AppendNote addressed by index.
func (s *Store) AppendNoteAt(i int, text string) error {
	return s.mutate(fmt.Sprintf("Add note to application #%d", i), func(apps []Application) ([]Application, error) {
		if i < 0 || i >= len(apps) {
			return nil, &NotFoundError{Index: i}
		}
		return s.noteAt(apps, i, text)
	})
}

func (s *Store) noteAt(apps []Application, i int, text string) ([]Application, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errUnchanged
	}
	apps[i].Notes = appendNote(apps[i].Notes, text, s.now())
	return apps, nil
}

// UpdateStatus sets the status of the first record for company. Any status
// may follow any other. date defaults to today.
func (s *Store) UpdateStatus(company string, status Status, date *time.Time) error {
	if !status.Valid() {
		return &ValidationError{Field: "Status", Msg: fmt.Sprintf("%q is not a known status", status)}
	}
	return s.mutate(fmt.Sprintf("Status %s: %s", company, status), func(apps []Application) ([]Application, error) {
		i := indexOf(apps, company)
		if i < 0 {
			return nil, &NotFoundError{Company: company}
		}
		applyStatus(&apps[i], status, s.dateOrToday(date))
		return apps, nil
	})
}

// SetStatusAt is UpdateStatus addressed by index.
func (s *Store) SetStatusAt(i int, status Status, date *time.Time) error {
	if !status.Valid() {
		return &ValidationError{Field: "Status", Msg: fmt.Sprintf("%q is not a known status", status)}
	}
	return s.mutate(fmt.Sprintf("Status #%d: %s", i, status), func(apps []Application) ([]Application, error) {
		if i < 0 || i >= len(apps) {
			return nil, &NotFoundError{Index: i}
		}
		applyStatus(&apps[i], status, s.dateOrToday(date))
		return apps, nil
	})
}

func (s *Store) dateOrToday(date *time.Time) time.Time {
	if date != nil {
		return Day(*date)
	}
	return s.today()
}

// applyStatus records a transition. Re-setting the current status is a no-op.
func applyStatus(a *Application, status Status, day time.Time) {
	if a.Status == status {
		return
	}
	a.Status = status
	switch {
	case status == StatusApplied:
		if strings.TrimSpace(a.AppliedDate) == "" {
			a.AppliedDate = FormatDate(day)
		}
		fillDerived(a)
	case status.Responded():
		a.LastContactDate = FormatDate(day)
	}
}

// fillDerived moves a record with an applied date out of Not Applied and
// schedules the default follow-up.
func fillDerived(a *Application) {
	applied, ok := a.Applied()
	if !ok {
		return
	}
	if a.Status == StatusNotApplied {
		a.Status = StatusApplied
	}
	if strings.TrimSpace(a.NextFollowUpDate) == "" {
		a.NextFollowUpDate = FormatDate(applied.Add(FollowUpDelay))
	}
}

func validateNew(a Application) error {
	if a.Company == "" {
		return &ValidationError{Field: "Company", Msg: "is required"}
	}
	if a.Position == "" {
		return &ValidationError{Field: "Position", Msg: "is required"}
	}
	if !a.Status.Valid() {
		return &ValidationError{Field: "Status", Msg: fmt.Sprintf("%q is not a known status", a.Status)}
	}
	if !a.Priority.Valid() {
		return &ValidationError{Field: "Priority", Msg: fmt.Sprintf("%q is not a known priority", a.Priority)}
	}
	for field, v := range map[string]string{
		"Applied Date":      a.AppliedDate,
		"Last Contact Date": a.LastContactDate,
		"Next Follow-Up":    a.NextFollowUpDate,
	} {
		if err := validateDate(field, v); err != nil {
			return err
		}
	}
	return nil
}

func validateDate(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	if _, ok := ParseDate(v); !ok {
		return &ValidationError{Field: field, Msg: fmt.Sprintf("%q is not a YYYY-MM-DD date", v)}
	}
	return nil
}
