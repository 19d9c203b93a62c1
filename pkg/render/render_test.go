package render

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const resumeMD = `---
company: Acme
---
# Jane Doe

(555) 123-4567 | jane@example.com

## Experience

### Staff Engineer, *Initech*

- Led **platform** migration
- Cut costs by 30%
  - nested detail

---

| Skill | Years |
|-------|-------|
| Go | 8 |
`

func TestParseBlocks(t *testing.T) {
	blocks, err := Parse([]byte(resumeMD))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	var kinds []BlockKind
	for _, b := range blocks {
		kinds = append(kinds, b.Kind)
	}
	want := []BlockKind{
		BlockHeading, BlockParagraph, BlockHeading, BlockHeading,
		BlockBullet, BlockBullet, BlockBullet, BlockRule,
		BlockTableRow, BlockTableRow,
	}
	if len(kinds) != len(want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("block %d kind = %v, want %v", i, kinds[i], want[i])
		}
	}

	if blocks[0].Text() != "Jane Doe" || blocks[0].Level != 1 || blocks[0].Line != 4 {
		t.Errorf("heading = %+v", blocks[0])
	}
	if blocks[3].Level != 3 || blocks[3].Text() != "Staff Engineer, Initech" {
		t.Errorf("h3 = %+v", blocks[3])
	}

	bullet := blocks[4]
	if bullet.Text() != "Led platform migration" {
		t.Errorf("bullet text = %q", bullet.Text())
	}
	var bold []string
	for _, s := range bullet.Spans {
		if s.Bold {
			bold = append(bold, s.Text)
		}
	}
	if len(bold) != 1 || bold[0] != "platform" {
		t.Errorf("bold spans = %v", bold)
	}
	if blocks[6].Level != 2 || blocks[6].Text() != "nested detail" {
		t.Errorf("nested bullet = %+v", blocks[6])
	}

	if !blocks[8].Header || blocks[8].Text() != "Skill | Years" {
		t.Errorf("header row = %+v", blocks[8])
	}
	if blocks[9].Text() != "Go | 8" {
		t.Errorf("row = %q", blocks[9].Text())
	}
}

func TestParseMalformedTable(t *testing.T) {
	md := "# Jane\n\nIntro\n\n| Skill | Years |\n| Go | 8 |\n"
	_, err := Parse([]byte(md))
	if err == nil {
		t.Fatal("expected error for table without delimiter row")
	}
	if !strings.Contains(err.Error(), "line 5") || !strings.Contains(err.Error(), "malformed table") {
		t.Errorf("err = %v", err)
	}
}

func readZipPart(t *testing.T, data []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("zip: %v", err)
	}
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		defer rc.Close()
		b, err := io.ReadAll(rc)
		if err != nil {
			t.Fatal(err)
		}
		return string(b)
	}
	t.Fatalf("part %s missing", name)
	return ""
}

func TestWriteDOCX(t *testing.T) {
	blocks, err := Parse([]byte(resumeMD + "\nR&D <team>\n"))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WriteDOCX(&buf, blocks); err != nil {
		t.Fatalf("WriteDOCX: %v", err)
	}

	doc := readZipPart(t, buf.Bytes(), "word/document.xml")
	for _, want := range []string{
		"EXPERIENCE",
		`<w:jc w:val="center"/>`,
		`<w:pStyle w:val="ListBullet"/>`,
		`<w:sz w:val="36"/>`,
		"Skill | Years",
		"R&amp;D",
		`w:left="864"`,
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document.xml missing %q", want)
		}
	}
	styles := readZipPart(t, buf.Bytes(), "word/styles.xml")
	if !strings.Contains(styles, `w:ascii="Calibri"`) || !strings.Contains(styles, `<w:sz w:val="21"/>`) {
		t.Error("styles.xml lacks the Calibri 10.5pt default")
	}
	readZipPart(t, buf.Bytes(), "[Content_Types].xml")
}

func TestWritePDF(t *testing.T) {
	blocks, err := Parse([]byte(resumeMD))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WritePDF(&buf, blocks); err != nil {
		t.Fatalf("WritePDF: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Errorf("output is not a PDF: %q", buf.Bytes()[:min(8, buf.Len())])
	}
}

const letterMD = `Jane Doe
(555) 123-4567 | jane@example.com
March 10, 2026

Hiring Team
Acme Corp
https://acme.example/jobs/1

Dear Hiring Team,

I am excited to apply for the **Platform Engineer**
role at Acme.

I have shipped things.

Sincerely,

Jane Doe
`

func TestParseLetter(t *testing.T) {
	l, err := ParseLetter([]byte(letterMD))
	if err != nil {
		t.Fatal(err)
	}
	if len(l.Sender) != 3 || l.Sender[0] != "Jane Doe" || l.Sender[2] != "March 10, 2026" {
		t.Errorf("sender = %q", l.Sender)
	}
	if len(l.Recipient) != 2 || l.Recipient[1] != "Acme Corp" {
		t.Errorf("recipient = %q", l.Recipient)
	}
	if l.Salutation != "Dear Hiring Team," {
		t.Errorf("salutation = %q", l.Salutation)
	}
	if len(l.Body) != 2 || l.Body[0] != "I am excited to apply for the Platform Engineer role at Acme." {
		t.Errorf("body = %q", l.Body)
	}
	if l.Closing != "Sincerely," || l.Signature != "Jane Doe" {
		t.Errorf("closing = %q signature = %q", l.Closing, l.Signature)
	}

	var buf bytes.Buffer
	if err := WriteLetterPDF(&buf, l); err != nil {
		t.Fatalf("WriteLetterPDF: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Error("output is not a PDF")
	}
}

type recorder struct {
	started  []string
	finished map[string]string
}

func (r *recorder) StartRun(kind string) (string, error) {
	r.started = append(r.started, kind)
	return "run-1", nil
}

func (r *recorder) FinishRun(id, status, result string) error {
	if r.finished == nil {
		r.finished = make(map[string]string)
	}
	r.finished[id] = status + ": " + result
	return nil
}

func TestBatchContinuesPastFailures(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "Jane_Doe_Resume_Acme.md")
	bad := filepath.Join(dir, "Jane_Doe_Resume_Broken.md")
	other := filepath.Join(dir, "Jane_Doe_Resume_Globex.md")
	for path, content := range map[string]string{
		good:  resumeMD,
		bad:   "# Jane\n\n| a | b |\n| c | d |\n",
		other: "# Jane\n\nHello\n",
	} {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	files, err := Sources(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 3 {
		t.Fatalf("sources = %v", files)
	}

	rec := &recorder{}
	c := NewConverter(LayoutResume, rec, nil)
	s, err := c.Batch(context.Background(), files, []Format{FormatDOCX, FormatPDF})
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	if s.Succeeded != 4 || s.Failed != 2 || len(s.Results) != 6 {
		t.Errorf("summary = %+v", s)
	}
	if s.RunID != "run-1" || rec.finished["run-1"] != "done: 4 succeeded, 2 failed" {
		t.Errorf("run bookkeeping: id=%s finished=%v", s.RunID, rec.finished)
	}
	if len(rec.started) != 1 || rec.started[0] != "convert-resume" {
		t.Errorf("started = %v", rec.started)
	}

	for _, f := range []string{"Jane_Doe_Resume_Acme.docx", "Jane_Doe_Resume_Acme.pdf", "Jane_Doe_Resume_Globex.pdf"} {
		if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
			t.Errorf("expected %s: %v", f, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "Jane_Doe_Resume_Broken.docx")); !errors.Is(err, os.ErrNotExist) {
		t.Error("failed conversion left an output file")
	}
}

func TestConvertReturnsRenderError(t *testing.T) {
	c := NewConverter(LayoutLetter, nil, nil)
	_, err := c.Convert(filepath.Join(t.TempDir(), "missing.md"), FormatPDF)
	var re *RenderError
	if !errors.As(err, &re) {
		t.Fatalf("err = %v, want *RenderError", err)
	}
	if re.Format != FormatPDF || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("render error = %+v", re)
	}
}

func TestBatchStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewConverter(LayoutResume, nil, nil)
	s, err := c.Batch(ctx, []string{"a.md"}, []Format{FormatDOCX})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
	if len(s.Results) != 0 || s.RunID == "" {
		t.Errorf("summary = %+v", s)
	}
}

func TestOutputPathAndFormats(t *testing.T) {
	c := NewConverter(LayoutResume, nil, nil)
	if got := c.OutputPath(filepath.Join("Resumes", "a.md"), FormatDOCX); got != filepath.Join("Resumes", "a.docx") {
		t.Errorf("got %q", got)
	}
	c.OutDir = "Output"
	if got := c.OutputPath(filepath.Join("Resumes", "a.md"), FormatPDF); got != filepath.Join("Output", "a.pdf") {
		t.Errorf("got %q", got)
	}

	both, err := ParseFormats("Both")
	if err != nil || len(both) != 2 {
		t.Errorf("both = %v, %v", both, err)
	}
	if _, err := ParseFormats("odt"); err == nil {
		t.Error("expected error for odt")
	}
}

func TestHTMLOmitsRawHTML(t *testing.T) {
	out, err := HTML([]byte("---\ntitle: x\n---\n# Hi\n\n<script>alert(1)</script>\n"))
	if err != nil {
		t.Fatal(err)
	}
	s := string(out)
	if !strings.Contains(s, "<h1>Hi</h1>") {
		t.Errorf("html = %s", s)
	}
	if strings.Contains(s, "<script>") || strings.Contains(s, "title: x") {
		t.Errorf("html leaked raw content: %s", s)
	}
}
