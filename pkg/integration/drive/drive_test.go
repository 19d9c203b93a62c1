package drive

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mklimuk/job-pilot/pkg/db"
)

// mockDriveAPI is a test double for DriveAPI.
type mockDriveAPI struct {
	files        []FileInfo
	uploadedIDs  map[string]string // fileName -> id
	updatedFiles map[string]bool   // fileID -> true
	downloads    map[string]string // fileID -> content
	failUpload   string
}

func newMockDriveAPI() *mockDriveAPI {
	return &mockDriveAPI{
		uploadedIDs:  make(map[string]string),
		updatedFiles: make(map[string]bool),
		downloads:    make(map[string]string),
	}
}

func (m *mockDriveAPI) ListFiles(_ context.Context) ([]FileInfo, error) {
	return m.files, nil
}

func (m *mockDriveAPI) UploadFile(_ context.Context, localPath, fileName, existingFileID string) (string, error) {
	if fileName == m.failUpload {
		return "", errors.New("quota exceeded")
	}
	if existingFileID != "" {
		m.updatedFiles[existingFileID] = true
		return existingFileID, nil
	}
	id := "drv-" + fileName
	m.uploadedIDs[fileName] = id
	return id, nil
}

func (m *mockDriveAPI) DownloadFile(_ context.Context, fileID string) (io.ReadCloser, error) {
	content, ok := m.downloads[fileID]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

func setupTestDB(t *testing.T) *db.Repository {
	t.Helper()
	database, err := db.NewDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := database.InitSchema(); err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}
	return db.NewRepository(database)
}

// setupRoot creates a tracker file and document folders.
func setupRoot(t *testing.T) (string, []string) {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"job_tracker.csv":                           "Company,Position\n",
		"Resumes/Jane_Doe_Resume_Acme.md":           "# Jane",
		"Resumes/Jane_Doe_Resume_Acme.pdf":          "%PDF",
		"Resumes/notes.txt":                         "skip me",
		"Resumes/.drafts/Jane_Doe_Resume_Old.md":    "skip me too",
		"CoverLetters/Jane_Doe_CoverLetter_Acme.md": "Dear",
	}
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	paths := []string{
		filepath.Join(root, "job_tracker.csv"),
		filepath.Join(root, "Resumes"),
		filepath.Join(root, "CoverLetters"),
		filepath.Join(root, "WhyCompany"),
	}
	return root, paths
}

func TestBackupNewFiles(t *testing.T) {
	repo := setupTestDB(t)
	root, paths := setupRoot(t)

	mock := newMockDriveAPI()
	backup := NewBackup(mock, repo, root, paths, time.Hour, nil)

	rep, err := backup.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("backup: %v", err)
	}
	if rep.Uploaded != 4 || rep.Failed != 0 {
		t.Errorf("report = %+v", rep)
	}
	if _, ok := mock.uploadedIDs["Resumes/.drafts/Jane_Doe_Resume_Old.md"]; ok {
		t.Error("hidden directory was backed up")
	}
	if _, ok := mock.uploadedIDs["Resumes/notes.txt"]; ok {
		t.Error("unsupported file was backed up")
	}

	rec, _ := repo.GetDriveSyncByLocalPath("job_tracker.csv")
	if rec == nil {
		t.Fatal("expected sync record")
	}
	if rec.Direction != "upload" || rec.DriveFileID != "drv-job_tracker.csv" {
		t.Errorf("record = %+v", rec)
	}
}

func TestBackupUnmodifiedAndModified(t *testing.T) {
	repo := setupTestDB(t)
	root, paths := setupRoot(t)

	mock := newMockDriveAPI()
	backup := NewBackup(mock, repo, root, paths, time.Hour, nil)
	if _, err := backup.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}

	rep, err := backup.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if rep.Unchanged != 4 || rep.Uploaded != 0 || rep.Updated != 0 {
		t.Errorf("second pass = %+v", rep)
	}

	csvPath := filepath.Join(root, "job_tracker.csv")
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(csvPath, future, future); err != nil {
		t.Fatal(err)
	}
	rep, err = backup.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if rep.Updated != 1 || !mock.updatedFiles["drv-job_tracker.csv"] {
		t.Errorf("modified pass = %+v, updated = %v", rep, mock.updatedFiles)
	}
}

func TestBackupCountsFailures(t *testing.T) {
	repo := setupTestDB(t)
	root, paths := setupRoot(t)

	mock := newMockDriveAPI()
	mock.failUpload = "job_tracker.csv"
	rep, err := NewBackup(mock, repo, root, paths, time.Hour, nil).RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if rep.Failed != 1 || rep.Uploaded != 3 {
		t.Errorf("report = %+v", rep)
	}
	if rec, _ := repo.GetDriveSyncByLocalPath("job_tracker.csv"); rec != nil {
		t.Error("failed upload was recorded")
	}
}

func TestRestore(t *testing.T) {
	repo := setupTestDB(t)
	root, paths := setupRoot(t)

	mock := newMockDriveAPI()
	backup := NewBackup(mock, repo, root, paths, time.Hour, nil)
	if _, err := backup.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	mock.downloads["drv-job_tracker.csv"] = "Company,Position\nAcme,SRE\n"

	dest := filepath.Join(root, "restored.csv")
	if err := backup.Restore(context.Background(), "job_tracker.csv", dest); err != nil {
		t.Fatalf("restore: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "Company,Position\nAcme,SRE\n" {
		t.Errorf("restored = %q", data)
	}

	if err := backup.Restore(context.Background(), "missing.csv", dest); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("restore missing: %v", err)
	}
}

func TestRemote(t *testing.T) {
	mock := newMockDriveAPI()
	mock.files = []FileInfo{{ID: "1", Name: "job_tracker.csv"}}
	files, err := NewBackup(mock, setupTestDB(t), t.TempDir(), nil, time.Hour, nil).Remote(context.Background())
	if err != nil || len(files) != 1 {
		t.Errorf("files = %v, err = %v", files, err)
	}
}
