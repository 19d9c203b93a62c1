package google

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestNewHTTPClient_InvalidPath(t *testing.T) {
	_, err := NewHTTPClient(context.Background(), "/nonexistent/path.json", "https://www.googleapis.com/auth/drive.file")
	if err == nil {
		t.Fatal("expected error for nonexistent credentials file")
	}
}

func TestNewHTTPClient_InvalidJSON(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "bad.json")
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := NewHTTPClient(context.Background(), path, "https://www.googleapis.com/auth/spreadsheets")
	if err == nil {
		t.Fatal("expected error for invalid JSON credentials")
	}
}

func TestClientOptions(t *testing.T) {
	if _, err := ClientOptions(context.Background(), ""); err == nil {
		t.Error("expected error without a credentials file")
	}

	opts, err := ClientOptions(context.Background(), "/some/path.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(opts) != 1 {
		t.Fatalf("expected one option, got %d", len(opts))
	}

	if _, err := ClientOptions(context.Background(), "/nonexistent/path.json", "https://www.googleapis.com/auth/calendar"); err == nil {
		t.Error("scoped options should read the credentials file")
	}
}
