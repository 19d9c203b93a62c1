// Package documents maps applications to the resume and cover letter files
// kept next to the tracker.
package documents

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/mklimuk/job-pilot/pkg/tracker"
)

// Kind identifies a document family.
type Kind string

const (
	KindResume      Kind = "resume"
	KindCoverLetter Kind = "cover_letter"
	KindWhyCompany  Kind = "why_company"
)

// ErrOutsideRoot is returned when a requested path escapes the document roots.
var ErrOutsideRoot = errors.New("path is outside the document directories")

// Locator resolves expected document paths from the naming convention
// {candidate}_Resume_{Company}.md and {candidate}_CoverLetter_{Company}.md.
type Locator struct {
	Candidate       string
	ResumesDir      string
	CoverLettersDir string
	WhyCompanyDir   string
}

func NewLocator(candidate, resumesDir, coverLettersDir, whyCompanyDir string) *Locator {
	return &Locator{
		Candidate:       candidate,
		ResumesDir:      resumesDir,
		CoverLettersDir: coverLettersDir,
		WhyCompanyDir:   whyCompanyDir,
	}
}

// Paths are the expected files for one company.
type Paths struct {
	Resume            string `json:"resume"`
	CoverLetter       string `json:"cover_letter"`
	ResumeExists      bool   `json:"resume_exists"`
	CoverLetterExists bool   `json:"cover_letter_exists"`
}

// Prefix returns the filename prefix for kind, e.g. "Jane_Doe_Resume_".
func (l *Locator) Prefix(kind Kind) string {
	switch kind {
	case KindCoverLetter:
		return l.Candidate + "_CoverLetter_"
	case KindWhyCompany:
		return l.Candidate + "_WhyCompany_"
	default:
		return l.Candidate + "_Resume_"
	}
}

// Dir returns the directory holding kind.
func (l *Locator) Dir(kind Kind) string {
	switch kind {
	case KindCoverLetter:
		return l.CoverLettersDir
	case KindWhyCompany:
		return l.WhyCompanyDir
	default:
		return l.ResumesDir
	}
}

// CompanySlug turns a company name into the filename fragment used by the
// naming convention. Names that could address another directory are refused.
func CompanySlug(company string) (string, error) {
	c := strings.TrimSpace(company)
	if c == "" {
		return "", &tracker.ValidationError{Field: "company", Msg: "is empty"}
	}
	if strings.ContainsAny(c, `/\`+"\x00") || strings.Contains(c, "..") {
		return "", &tracker.ValidationError{Field: "company", Msg: fmt.Sprintf("%q is not a safe file name", company)}
	}
	return strings.ReplaceAll(c, " ", "_"), nil
}

// Path returns the expected markdown path for kind and company.
func (l *Locator) Path(kind Kind, company string) (string, error) {
	slug, err := CompanySlug(company)
	if err != nil {
		return "", err
	}
	dir := l.Dir(kind)
	p := filepath.Join(dir, l.Prefix(kind)+slug+".md")
	if !within(dir, p) {
		return "", &tracker.ValidationError{Field: "company", Msg: fmt.Sprintf("%q resolves outside %s", company, dir)}
	}
	return p, nil
}

// Resolve returns the expected resume and cover letter paths for company
// and whether each exists. Files are never opened.
func (l *Locator) Resolve(company string) (Paths, error) {
	var p Paths
	var err error
	if p.Resume, err = l.Path(KindResume, company); err != nil {
		return Paths{}, err
	}
	if p.CoverLetter, err = l.Path(KindCoverLetter, company); err != nil {
		return Paths{}, err
	}
	p.ResumeExists = exists(p.Resume)
	p.CoverLetterExists = exists(p.CoverLetter)
	return p, nil
}

func exists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}

func within(root, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Document is one file found on disk.
type Document struct {
	Kind     Kind   `json:"kind"`
	Path     string `json:"path"`
	Name     string `json:"name"`
	Tag      string `json:"tag"`   // company part of the file name, e.g. "Acme_Platform"
	Label    string `json:"label"` // Tag with spaces
	Format   string `json:"format"`
	Rendered string `json:"rendered,omitempty"` // sibling PDF name
}

// CompanyDocuments finds every document for company, including
// role-specific variants such as Acme_Platform.md. When several match and
// position is given, the list is narrowed to files whose role suffix occurs
// in the position title, falling back to all matches.
func (l *Locator) CompanyDocuments(company, position string) (map[Kind][]Document, error) {
	if _, err := CompanySlug(company); err != nil {
		return nil, err
	}
	c := strings.TrimSpace(company)
	variants := []string{strings.ReplaceAll(c, " ", "_"), strings.ReplaceAll(c, " ", "")}

	out := make(map[Kind][]Document)
	for _, kind := range []Kind{KindResume, KindCoverLetter, KindWhyCompany} {
		dir := l.Dir(kind)
		if dir == "" {
			continue
		}
		prefix := l.Prefix(kind)
		for _, v := range variants {
			matches, err := filepath.Glob(filepath.Join(dir, globEscape(prefix+v)+"*.md"))
			if err != nil {
				return nil, fmt.Errorf("glob %s: %w", kind, err)
			}
			slices.Sort(matches)
			for _, m := range matches {
				out[kind] = append(out[kind], l.document(kind, m))
			}
			if len(out[kind]) > 0 {
				break
			}
		}
		out[kind] = narrowByPosition(out[kind], c, position)
	}
	return out, nil
}

func (l *Locator) document(kind Kind, path string) Document {
	name := filepath.Base(path)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	tag := strings.TrimPrefix(stem, l.Prefix(kind))
	d := Document{
		Kind:   kind,
		Path:   path,
		Name:   name,
		Tag:    tag,
		Label:  strings.ReplaceAll(tag, "_", " "),
		Format: strings.TrimPrefix(ext, "."),
	}
	if d.Format == "md" {
		d.Rendered = stem + ".pdf"
	}
	return d
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]`)

func normalize(s string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(s), "")
}

func narrowByPosition(docs []Document, company, position string) []Document {
	if len(docs) <= 1 || strings.TrimSpace(position) == "" {
		return docs
	}
	pos := normalize(position)
	comp := normalize(company)
	var matched []Document
	for _, d := range docs {
		role := strings.TrimPrefix(normalize(d.Tag), comp)
		if role != "" && strings.Contains(pos, role) {
			matched = append(matched, d)
		}
	}
	if len(matched) == 0 {
		return docs
	}
	return matched
}

func globEscape(s string) string {
	r := strings.NewReplacer(`*`, `\*`, `?`, `\?`, `[`, `\[`)
	return r.Replace(s)
}

// List returns every markdown, PDF and DOCX document in the resume and
// cover letter directories, sorted by name.
func (l *Locator) List() (map[Kind][]Document, error) {
	out := make(map[Kind][]Document)
	for _, kind := range []Kind{KindResume, KindCoverLetter} {
		dir := l.Dir(kind)
		entries, err := os.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", dir, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			switch strings.ToLower(filepath.Ext(e.Name())) {
			case ".md", ".pdf", ".docx":
				out[kind] = append(out[kind], l.document(kind, filepath.Join(dir, e.Name())))
			}
		}
	}
	return out, nil
}

// Open resolves a user-supplied path for viewing. The path must name a file
// inside the resume or cover letter directory; anything else is
// ErrOutsideRoot.
func (l *Locator) Open(requested string) (string, error) {
	if requested == "" {
		return "", ErrOutsideRoot
	}
	abs, err := filepath.Abs(requested)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	for _, root := range []string{l.ResumesDir, l.CoverLettersDir} {
		rootAbs, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		if resolved, err := filepath.EvalSymlinks(rootAbs); err == nil {
			rootAbs = resolved
		}
		rel, err := filepath.Rel(rootAbs, abs)
		if err != nil || !filepath.IsLocal(rel) {
			continue
		}
		return securejoin.SecureJoin(rootAbs, rel)
	}
	return "", ErrOutsideRoot
}

// Download looks up a rendered file by bare name in the resume and cover
// letter directories. Only .pdf and .docx files are served.
func (l *Locator) Download(name string) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf", ".docx":
	default:
		return "", fmt.Errorf("%q: %w", name, fs.ErrNotExist)
	}
	for _, root := range []string{l.ResumesDir, l.CoverLettersDir} {
		p, err := securejoin.SecureJoin(root, name)
		if err != nil {
			return "", err
		}
		if exists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%q: %w", name, fs.ErrNotExist)
}
