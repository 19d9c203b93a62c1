package documents

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source is a markdown document split into optional YAML frontmatter and body.
type Source struct {
	Path        string
	Frontmatter map[string]any
	Body        string
}

// Meta returns a frontmatter string value, or "".
func (s *Source) Meta(key string) string {
	if v, ok := s.Frontmatter[key]; ok {
		return fmt.Sprint(v)
	}
	return ""
}

// ReadSource reads a markdown file and separates its frontmatter.
func ReadSource(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	src, err := ParseSource(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	src.Path = path
	return src, nil
}

// ParseSource splits data into frontmatter and body. A document that does
// not open with a "---" line has no frontmatter.
func ParseSource(data []byte) (*Source, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var fmLines, bodyLines []string
	inFrontmatter := false
	closed := false
	lineCount := 0

	for scanner.Scan() {
		line := scanner.Text()
		lineCount++

		if lineCount == 1 && strings.TrimRight(line, " \r") == "---" {
			inFrontmatter = true
			continue
		}
		if inFrontmatter {
			if strings.TrimRight(line, " \r") == "---" {
				inFrontmatter = false
				closed = true
				continue
			}
			fmLines = append(fmLines, line)
			continue
		}
		bodyLines = append(bodyLines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	// an unterminated block is a horizontal rule, not frontmatter
	if inFrontmatter && !closed {
		return &Source{Body: string(data)}, nil
	}

	src := &Source{Body: strings.Join(bodyLines, "\n")}
	if len(fmLines) > 0 {
		if err := yaml.Unmarshal([]byte(strings.Join(fmLines, "\n")), &src.Frontmatter); err != nil {
			return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
		}
	}
	return src, nil
}
