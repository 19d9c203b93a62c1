package documents

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/mklimuk/job-pilot/pkg/tracker"
)

// TemplateEngine renders markdown skeletons for new resumes and cover letters.
type TemplateEngine struct {
	TemplateDir string
	now         func() time.Time
}

func NewTemplateEngine(templateDir string) *TemplateEngine {
	return &TemplateEngine{
		TemplateDir: templateDir,
		now:         time.Now,
	}
}

// TemplateName is the file, without extension, used for kind.
func TemplateName(kind Kind) string {
	switch kind {
	case KindCoverLetter:
		return "Cover Letter Template"
	case KindWhyCompany:
		return "Why Company Template"
	default:
		return "Resume Template"
	}
}

// LoadTemplate reads a template file from the template directory
func (e *TemplateEngine) LoadTemplate(name string) (string, error) {
	if !strings.HasSuffix(name, ".md") {
		name += ".md"
	}
	content, err := os.ReadFile(filepath.Join(e.TemplateDir, name))
	if err != nil {
		return "", err
	}
	return string(content), nil
}

var datePlaceholder = regexp.MustCompile(`\{\{date:(.*?)\}\}`)

// Render fills the placeholders of content:
//
//	{{company}} {{position}} {{candidate}} {{contact}} {{location}}
//	{{date:FORMAT}} with a Moment-style FORMAT such as YYYY-MM-DD or MMMM D, YYYY
func (e *TemplateEngine) Render(content, candidate string, app tracker.Application) string {
	r := strings.NewReplacer(
		"{{company}}", app.Company,
		"{{position}}", app.Position,
		"{{candidate}}", strings.ReplaceAll(candidate, "_", " "),
		"{{contact}}", app.ContactName,
		"{{location}}", app.Location,
	)
	content = r.Replace(content)

	now := e.now()
	return datePlaceholder.ReplaceAllStringFunc(content, func(match string) string {
		parts := datePlaceholder.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		return now.Format(convertMomentToGoFormat(parts[1]))
	})
}

// convertMomentToGoFormat converts simple Moment.js format strings to Go time format
func convertMomentToGoFormat(format string) string {
	r := strings.NewReplacer(
		"YYYY", "2006",
		"MMMM", "January",
		"MMM", "Jan",
		"MM", "01",
		"DD", "02",
		"D", "2",
		"HH", "15",
		"mm", "04",
		"ss", "05",
	)
	return r.Replace(format)
}

// ErrExists is returned by Create when the target document is already present.
var ErrExists = errors.New("document already exists")

// Create renders the template for kind into the path the locator expects
// for app.Company. Existing files are never overwritten.
func (e *TemplateEngine) Create(l *Locator, kind Kind, app tracker.Application) (string, error) {
	path, err := l.Path(kind, app.Company)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err == nil {
		return path, fmt.Errorf("%s: %w", path, ErrExists)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	tmpl, err := e.LoadTemplate(TemplateName(kind))
	if err != nil {
		return "", fmt.Errorf("failed to load template: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	content := e.Render(tmpl, l.Candidate, app)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", err
	}
	return path, nil
}
