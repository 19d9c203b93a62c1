package sync

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func commitCount(t *testing.T, dir string) int {
	t.Helper()
	r, err := git.PlainOpen(dir)
	if err != nil {
		t.Fatal(err)
	}
	head, err := r.Head()
	if err != nil {
		return 0
	}
	iter, err := r.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		t.Fatal(err)
	}
	n := 0
	iter.ForEach(func(*object.Commit) error { n++; return nil })
	return n
}

func TestSyncCommitsChanges(t *testing.T) {
	dir := t.TempDir()
	if _, err := git.PlainInit(dir, false); err != nil {
		t.Fatal(err)
	}
	csv := filepath.Join(dir, "job_tracker.csv")
	if err := os.WriteFile(csv, []byte("Company,Position\n"), 0644); err != nil {
		t.Fatal(err)
	}

	g := NewGitManager(dir)
	if err := g.Sync("Add application: Acme"); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if n := commitCount(t, dir); n != 1 {
		t.Fatalf("commits = %d, want 1", n)
	}

	r, _ := git.PlainOpen(dir)
	head, _ := r.Head()
	c, err := r.CommitObject(head.Hash())
	if err != nil {
		t.Fatal(err)
	}
	if c.Message != "Add application: Acme" || c.Author.Name != "Job Pilot" {
		t.Errorf("commit = %q by %q", c.Message, c.Author.Name)
	}

	// nothing changed
	if err := g.Sync("noop"); err != nil {
		t.Fatalf("Sync clean: %v", err)
	}
	if n := commitCount(t, dir); n != 1 {
		t.Errorf("commits after clean sync = %d", n)
	}

	os.WriteFile(csv, []byte("Company,Position\nAcme,SRE\n"), 0644)
	g.Hook("")
	if n := commitCount(t, dir); n != 2 {
		t.Errorf("commits after hook = %d", n)
	}
}

func TestSyncSubdirectory(t *testing.T) {
	root := t.TempDir()
	if _, err := git.PlainInit(root, false); err != nil {
		t.Fatal(err)
	}
	data := filepath.Join(root, "data")
	os.MkdirAll(data, 0755)
	os.WriteFile(filepath.Join(data, "job_tracker.csv"), []byte("x\n"), 0644)
	os.WriteFile(filepath.Join(root, "unrelated.txt"), []byte("y\n"), 0644)

	if err := NewGitManager(data).Sync("data only"); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	r, _ := git.PlainOpen(root)
	head, err := r.Head()
	if err != nil {
		t.Fatal(err)
	}
	c, _ := r.CommitObject(head.Hash())
	tree, err := c.Tree()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tree.File("data/job_tracker.csv"); err != nil {
		t.Errorf("data file not committed: %v", err)
	}
	if _, err := tree.File("unrelated.txt"); err == nil {
		t.Error("file outside the data directory was committed")
	}
}

func TestSyncWithoutRepo(t *testing.T) {
	if err := NewGitManager(t.TempDir()).Sync("x"); err == nil {
		t.Error("expected error outside a repository")
	}
}
