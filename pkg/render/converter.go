// Package render converts markdown resumes and cover letters into Word and
// PDF files.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/mklimuk/job-pilot/pkg/logging"
)

// Format is an output file type.
type Format string

const (
	FormatDOCX Format = "docx"
	FormatPDF  Format = "pdf"
)

// ParseFormats accepts "docx", "pdf" or "both".
func ParseFormats(s string) ([]Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "docx":
		return []Format{FormatDOCX}, nil
	case "pdf":
		return []Format{FormatPDF}, nil
	case "both":
		return []Format{FormatDOCX, FormatPDF}, nil
	}
	return nil, fmt.Errorf("unknown format %q (want docx, pdf or both)", s)
}

// Layout selects how a document is laid out in PDF.
type Layout string

const (
	LayoutResume Layout = "resume"
	LayoutLetter Layout = "letter"
)

// RenderError reports a failed conversion of one file. Err carries the
// underlying message, e.g. a malformed table.
type RenderError struct {
	Source string
	Format Format
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s to %s: %v", filepath.Base(e.Source), e.Format, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// IsRender reports whether err carries a *RenderError.
func IsRender(err error) bool {
	var re *RenderError
	return errors.As(err, &re)
}

// RunRecorder stores batch runs. *db.Repository implements it.
type RunRecorder interface {
	StartRun(kind string) (string, error)
	FinishRun(id, status, result string) error
}

// Converter renders markdown files of one layout.
type Converter struct {
	Layout Layout
	OutDir string // empty writes next to the source
	runs   RunRecorder
	log    *logging.Logger
}

func NewConverter(layout Layout, runs RunRecorder, log *logging.Logger) *Converter {
	if log == nil {
		log = logging.NewNop()
	}
	return &Converter{Layout: layout, runs: runs, log: log}
}

// OutputPath returns where src is written in format.
func (c *Converter) OutputPath(src string, format Format) string {
	dir := filepath.Dir(src)
	if c.OutDir != "" {
		dir = c.OutDir
	}
	stem := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	return filepath.Join(dir, stem+"."+string(format))
}

// Convert renders src to format and returns the output path. Failures are
// *RenderError; no partial output file is left behind.
func (c *Converter) Convert(src string, format Format) (string, error) {
	out := c.OutputPath(src, format)
	fail := func(err error) (string, error) {
		return "", &RenderError{Source: src, Format: format, Err: err}
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return fail(err)
	}

	var buf bytes.Buffer
	switch {
	case format == FormatPDF && c.Layout == LayoutLetter:
		letter, err := ParseLetter(data)
		if err != nil {
			return fail(err)
		}
		err = WriteLetterPDF(&buf, letter)
		if err != nil {
			return fail(err)
		}
	case format == FormatPDF || format == FormatDOCX:
		blocks, err := Parse(data)
		if err != nil {
			return fail(err)
		}
		if format == FormatPDF {
			err = WritePDF(&buf, blocks)
		} else {
			err = WriteDOCX(&buf, blocks)
		}
		if err != nil {
			return fail(err)
		}
	default:
		return fail(fmt.Errorf("unsupported format %q", format))
	}

	if c.OutDir != "" {
		if err := os.MkdirAll(c.OutDir, 0755); err != nil {
			return fail(err)
		}
	}
	if err := os.WriteFile(out, buf.Bytes(), 0644); err != nil {
		return fail(err)
	}
	return out, nil
}

// Result is the outcome of one file in a batch.
type Result struct {
	Source string `json:"source"`
	Format Format `json:"format"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Summary describes a finished batch.
type Summary struct {
	RunID     string   `json:"run_id"`
	Results   []Result `json:"results"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
}

// Batch converts every file to every format, continuing past failures.
// It stops early only when ctx is done; the partial summary is returned
// with ctx.Err().
func (c *Converter) Batch(ctx context.Context, files []string, formats []Format) (Summary, error) {
	var s Summary
	recorded := false
	if c.runs != nil {
		id, err := c.runs.StartRun("convert-" + string(c.Layout))
		if err != nil {
			c.log.Warn("failed to record conversion run", "error", err)
		}
		s.RunID, recorded = id, err == nil
	}
	if !recorded {
		s.RunID = uuid.NewString()
	}

	var ctxErr error
loop:
	for _, f := range files {
		for _, format := range formats {
			if err := ctx.Err(); err != nil {
				ctxErr = err
				break loop
			}
			r := Result{Source: f, Format: format}
			out, err := c.Convert(f, format)
			if err != nil {
				r.Error = err.Error()
				s.Failed++
				c.log.Warn("conversion failed", "source", f, "format", format, "error", err)
			} else {
				r.Output = out
				s.Succeeded++
				c.log.Debug("converted", "source", f, "output", out)
			}
			s.Results = append(s.Results, r)
		}
	}

	c.log.Info("conversion batch finished", "run", s.RunID, "succeeded", s.Succeeded, "failed", s.Failed)
	if recorded {
		status := "done"
		if ctxErr != nil {
			status = "canceled"
		}
		result := fmt.Sprintf("%d succeeded, %d failed", s.Succeeded, s.Failed)
		if err := c.runs.FinishRun(s.RunID, status, result); err != nil {
			c.log.Warn("failed to record conversion run", "error", err)
		}
	}
	return s, ctxErr
}

// Sources lists the markdown files in dir, sorted by name.
func Sources(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}
