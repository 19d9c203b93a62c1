package render

import (
	"strings"

	"github.com/mklimuk/job-pilot/pkg/documents"
)

// Letter is a cover letter split into its conventional parts.
type Letter struct {
	Sender     []string // name, contact line, date
	Recipient  []string
	Salutation string
	Body       []string
	Closing    string
	Signature  string
}

var closings = map[string]bool{
	"sincerely":    true,
	"best regards": true,
	"regards":      true,
	"best":         true,
	"respectfully": true,
}

// ParseLetter groups a cover letter into blank-line separated blocks: the
// first is the sender, the second the recipient (URLs dropped), a block
// starting with "Dear " is the salutation, a recognised closing followed by
// a one-line block is the closing and signature, everything else is body.
// Inline markdown is reduced to plain text.
func ParseLetter(data []byte) (Letter, error) {
	src, err := documents.ParseSource(data)
	if err != nil {
		return Letter{}, err
	}

	var blocks [][]string
	var current []string
	for _, line := range strings.Split(strings.TrimSpace(src.Body), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if len(current) > 0 {
				blocks = append(blocks, current)
				current = nil
			}
			continue
		}
		current = append(current, plainInline(line))
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}

	var l Letter
	if len(blocks) > 0 {
		l.Sender = blocks[0]
	}
	if len(blocks) > 1 {
		for _, line := range blocks[1] {
			if !strings.HasPrefix(line, "http") {
				l.Recipient = append(l.Recipient, line)
			}
		}
	}

	rest := blocks[min(2, len(blocks)):]
	for i, block := range rest {
		text := strings.Join(block, " ")
		last := i == len(rest)-1
		secondLast := i == len(rest)-2
		switch {
		case last && len(block) == 1 && (l.Closing != "" || len(rest) > 1):
			l.Signature = text
		case secondLast && closings[strings.ToLower(strings.TrimRight(text, ","))]:
			l.Closing = text
		case l.Salutation == "" && len(l.Body) == 0 && strings.HasPrefix(text, "Dear "):
			l.Salutation = text
		default:
			l.Body = append(l.Body, text)
		}
	}
	return l, nil
}

// plainInline strips inline markdown from a single line.
func plainInline(line string) string {
	if !strings.ContainsAny(line, "*_`[<\\") {
		return line
	}
	blocks, err := Parse([]byte(line))
	if err != nil || len(blocks) == 0 {
		return line
	}
	return strings.TrimSpace(blocks[0].Text())
}
