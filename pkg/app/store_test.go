package app

import (
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/mklimuk/job-pilot/pkg/config"
	"github.com/mklimuk/job-pilot/pkg/tracker"
)

func commits(t *testing.T, dir string) []string {
	t.Helper()
	r, err := git.PlainOpen(dir)
	if err != nil {
		t.Fatal(err)
	}
	head, err := r.Head()
	if err != nil {
		return nil
	}
	iter, err := r.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		t.Fatal(err)
	}
	var msgs []string
	iter.ForEach(func(c *object.Commit) error {
		msgs = append(msgs, c.Message)
		return nil
	})
	return msgs
}

func TestOpenStoreCommitsWhenGitEnabled(t *testing.T) {
	dir := t.TempDir()
	if _, err := git.PlainInit(dir, false); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.DataFile = filepath.Join(dir, "job_tracker.csv")
	cfg.Git.Enabled = true

	s := OpenStore(cfg, nil)
	if s.Path() != cfg.DataFile {
		t.Errorf("path = %q", s.Path())
	}
	if _, err := s.Init(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddWithNote(tracker.Application{Company: "Acme", Position: "SRE"}, "found on a job board"); err != nil {
		t.Fatal(err)
	}
	msgs := commits(t, dir)
	if len(msgs) == 0 || msgs[0] != "Add application: Acme" {
		t.Errorf("commits = %q", msgs)
	}
}

func TestOpenStoreWithoutGit(t *testing.T) {
	dir := t.TempDir()
	if _, err := git.PlainInit(dir, false); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.DataFile = filepath.Join(dir, "job_tracker.csv")

	s := OpenStore(cfg, nil)
	if _, err := s.Init(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Add(tracker.Application{Company: "Acme", Position: "SRE"}); err != nil {
		t.Fatal(err)
	}
	if msgs := commits(t, dir); len(msgs) != 0 {
		t.Errorf("commits = %q, want none", msgs)
	}
}
