package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mklimuk/job-pilot/pkg/db"
	"github.com/mklimuk/job-pilot/pkg/logging"
)

// backedUp are the document extensions copied to Drive.
var backedUp = map[string]bool{".md": true, ".pdf": true, ".docx": true, ".csv": true}

// Report counts what one backup pass did.
type Report struct {
	Uploaded  int `json:"uploaded"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Failed    int `json:"failed"`
}

// Backup performs incremental backup of the tracker and document folders to
// Google Drive. Files are keyed by their path relative to root.
type Backup struct {
	service  DriveAPI
	repo     *db.Repository
	root     string
	paths    []string
	interval time.Duration
	log      *logging.Logger
	stopCh   chan struct{}
}

// NewBackup creates a Drive backup of paths, which may be files or
// directories under root.
func NewBackup(service DriveAPI, repo *db.Repository, root string, paths []string, interval time.Duration, log *logging.Logger) *Backup {
	if log == nil {
		log = logging.NewNop()
	}
	return &Backup{
		service:  service,
		repo:     repo,
		root:     root,
		paths:    paths,
		interval: interval,
		log:      log,
		stopCh:   make(chan struct{}),
	}
}

// Start runs a backup immediately and then every interval until Stop.
func (b *Backup) Start(ctx context.Context) {
	if _, err := b.RunOnce(ctx); err != nil {
		b.log.Error("drive backup failed", "error", err)
	}

	go func() {
		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := b.RunOnce(ctx); err != nil {
					b.log.Error("drive backup failed", "error", err)
				}
			case <-ctx.Done():
				return
			case <-b.stopCh:
				return
			}
		}
	}()
}

// Stop stops the backup loop.
func (b *Backup) Stop() {
	close(b.stopCh)
}

// RunOnce uploads new files and re-uploads files modified since their last
// upload. Individual upload failures are counted, not returned.
func (b *Backup) RunOnce(ctx context.Context) (Report, error) {
	var rep Report
	for _, p := range b.paths {
		err := filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return nil
				}
				return err
			}
			if d.IsDir() {
				if path != p && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if !backedUp[strings.ToLower(filepath.Ext(d.Name()))] {
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			b.backupFile(ctx, path, info.ModTime(), &rep)
			return nil
		})
		if err != nil {
			return rep, fmt.Errorf("walk %s: %w", p, err)
		}
	}
	b.log.Info("drive backup finished", "uploaded", rep.Uploaded, "updated", rep.Updated, "unchanged", rep.Unchanged, "failed", rep.Failed)
	return rep, nil
}

func (b *Backup) relPath(path string) string {
	rel, err := filepath.Rel(b.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.Base(path)
	}
	return filepath.ToSlash(rel)
}

func (b *Backup) backupFile(ctx context.Context, path string, modTime time.Time, rep *Report) {
	relPath := b.relPath(path)
	modTime = modTime.Truncate(time.Second)

	rec, err := b.repo.GetDriveSyncByLocalPath(relPath)
	if err != nil {
		b.log.Warn("drive backup: db error", "path", relPath, "error", err)
		rep.Failed++
		return
	}

	switch {
	case rec == nil:
		fileID, err := b.service.UploadFile(ctx, path, relPath, "")
		if err != nil {
			b.log.Warn("drive backup: upload failed", "path", relPath, "error", err)
			rep.Failed++
			return
		}
		if err := b.repo.InsertDriveSync(fileID, relPath, modTime, "upload"); err != nil {
			b.log.Warn("drive backup: insert sync failed", "path", relPath, "error", err)
		}
		rep.Uploaded++
	case modTime.After(rec.ModTime):
		if _, err := b.service.UploadFile(ctx, path, relPath, rec.DriveFileID); err != nil {
			b.log.Warn("drive backup: re-upload failed", "path", relPath, "error", err)
			rep.Failed++
			return
		}
		if err := b.repo.UpdateDriveSync(rec.DriveFileID, modTime); err != nil {
			b.log.Warn("drive backup: update sync failed", "path", relPath, "error", err)
		}
		rep.Updated++
	default:
		rep.Unchanged++
	}
}

// Remote lists the files currently in the Drive folder.
func (b *Backup) Remote(ctx context.Context) ([]FileInfo, error) {
	return b.service.ListFiles(ctx)
}

// Restore downloads the backed-up copy of the file at path (relative to
// root, as it was uploaded) into dest. dest is replaced only after the
// download completes.
func (b *Backup) Restore(ctx context.Context, path, dest string) error {
	relPath := filepath.ToSlash(path)
	rec, err := b.repo.GetDriveSyncByLocalPath(relPath)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("%s has not been backed up: %w", relPath, fs.ErrNotExist)
	}

	rc, err := b.service.DownloadFile(ctx, rec.DriveFileID)
	if err != nil {
		return err
	}
	defer rc.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, rc); err != nil {
		tmp.Close()
		return fmt.Errorf("download %s: %w", relPath, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}
