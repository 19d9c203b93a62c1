package documents

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mklimuk/job-pilot/pkg/tracker"
)

func TestTemplateEngine(t *testing.T) {
	tmpDir := t.TempDir()
	engine := NewTemplateEngine(tmpDir)
	engine.now = func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) }

	content := "Dear {{contact}},\n{{candidate}} applies for {{position}} at {{company}} ({{location}}).\n{{date:MMMM D, YYYY}} / {{date:YYYY-MM-DD}}"
	got := engine.Render(content, "Jane_Doe", tracker.Application{
		Company:     "Acme",
		Position:    "Platform Engineer",
		Location:    "Remote",
		ContactName: "Bob",
	})
	want := "Dear Bob,\nJane Doe applies for Platform Engineer at Acme (Remote).\nMarch 10, 2026 / 2026-03-10"
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}

	writeFile(t, filepath.Join(tmpDir, "Resume Template.md"), "# {{candidate}}")
	loaded, err := engine.LoadTemplate("Resume Template")
	if err != nil {
		t.Fatalf("LoadTemplate: %v", err)
	}
	if loaded != "# {{candidate}}" {
		t.Errorf("loaded = %q", loaded)
	}
}

func TestCreateDocument(t *testing.T) {
	root := t.TempDir()
	templates := filepath.Join(root, "Templates")
	writeFile(t, filepath.Join(templates, "Cover Letter Template.md"), "To {{company}} hiring team")

	l := NewLocator("Jane_Doe", filepath.Join(root, "Resumes"), filepath.Join(root, "CoverLetters"), "")
	engine := NewTemplateEngine(templates)

	path, err := engine.Create(l, KindCoverLetter, tracker.Application{Company: "Acme Corp"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if filepath.Base(path) != "Jane_Doe_CoverLetter_Acme_Corp.md" {
		t.Errorf("path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "To Acme Corp hiring team" {
		t.Errorf("content = %q", data)
	}

	if _, err := engine.Create(l, KindCoverLetter, tracker.Application{Company: "Acme Corp"}); !errors.Is(err, ErrExists) {
		t.Errorf("second create err = %v, want ErrExists", err)
	}
	if _, err := engine.Create(l, KindResume, tracker.Application{Company: "Acme Corp"}); err == nil {
		t.Error("missing template should fail")
	}
}

func TestParseSource(t *testing.T) {
	src, err := ParseSource([]byte("---\ncompany: Acme\nrole: SRE\n---\n# Jane Doe\nbody"))
	if err != nil {
		t.Fatal(err)
	}
	if src.Meta("company") != "Acme" || src.Meta("role") != "SRE" {
		t.Errorf("frontmatter = %v", src.Frontmatter)
	}
	if src.Body != "# Jane Doe\nbody" {
		t.Errorf("body = %q", src.Body)
	}

	plain, err := ParseSource([]byte("# Title\n---\ntext"))
	if err != nil {
		t.Fatal(err)
	}
	if plain.Frontmatter != nil || plain.Body != "# Title\n---\ntext" {
		t.Errorf("plain = %+v", plain)
	}

	open, err := ParseSource([]byte("---\nnot closed"))
	if err != nil {
		t.Fatal(err)
	}
	if open.Body != "---\nnot closed" {
		t.Errorf("unterminated = %+v", open)
	}

	if _, err := ParseSource([]byte("---\n: [bad\n---\n")); err == nil {
		t.Error("invalid yaml should fail")
	}
}
