// Package drive backs the tracker and its documents up to a Google Drive folder.
package drive

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	gdrive "google.golang.org/api/drive/v3"

	googleauth "github.com/mklimuk/job-pilot/pkg/integration/google"
)

// FileInfo represents metadata about a Drive file.
type FileInfo struct {
	ID         string
	Name       string
	MimeType   string
	ModifiedAt time.Time
	Size       int64
}

// DriveAPI is the interface used by Backup for testability.
type DriveAPI interface {
	ListFiles(ctx context.Context) ([]FileInfo, error)
	UploadFile(ctx context.Context, localPath, fileName, existingFileID string) (string, error)
	DownloadFile(ctx context.Context, fileID string) (io.ReadCloser, error)
}

// Service wraps the Google Drive API.
type Service struct {
	srv      *gdrive.Service
	folderID string
}

// NewService creates a new Drive service using service account credentials.
func NewService(ctx context.Context, credentialsFile, folderID string) (*Service, error) {
	if folderID == "" {
		return nil, fmt.Errorf("drive folder ID is not configured")
	}
	opts, err := googleauth.ClientOptions(ctx, credentialsFile, gdrive.DriveFileScope)
	if err != nil {
		return nil, err
	}
	srv, err := gdrive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return &Service{srv: srv, folderID: folderID}, nil
}

// ListFiles returns all files in the configured folder.
func (s *Service) ListFiles(ctx context.Context) ([]FileInfo, error) {
	query := fmt.Sprintf("'%s' in parents and trashed = false", s.folderID)
	var result []FileInfo

	pageToken := ""
	for {
		call := s.srv.Files.List().
			Q(query).
			Fields("nextPageToken, files(id, name, mimeType, modifiedTime, size)").
			Context(ctx)

		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list files: %w", err)
		}

		for _, f := range resp.Files {
			modTime, _ := time.Parse(time.RFC3339, f.ModifiedTime)
			result = append(result, FileInfo{
				ID:         f.Id,
				Name:       f.Name,
				MimeType:   f.MimeType,
				ModifiedAt: modTime,
				Size:       f.Size,
			})
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	return result, nil
}

// UploadFile uploads a local file to the Drive folder. If existingFileID is non-empty,
// it updates the existing file; otherwise it creates a new one. Returns the file ID.
func (s *Service) UploadFile(ctx context.Context, localPath, fileName, existingFileID string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open local file: %w", err)
	}
	defer f.Close()

	if existingFileID != "" {
		file := &gdrive.File{Name: fileName}
		updated, err := s.srv.Files.Update(existingFileID, file).
			Media(f).
			Context(ctx).
			Do()
		if err != nil {
			return "", fmt.Errorf("update file: %w", err)
		}
		return updated.Id, nil
	}

	file := &gdrive.File{
		Name:    fileName,
		Parents: []string{s.folderID},
	}
	created, err := s.srv.Files.Create(file).
		Media(f).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	return created.Id, nil
}

// DownloadFile downloads a file from Drive by its ID.
func (s *Service) DownloadFile(ctx context.Context, fileID string) (io.ReadCloser, error) {
	resp, err := s.srv.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	return resp.Body, nil
}
