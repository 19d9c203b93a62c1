package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/mklimuk/job-pilot/pkg/documents"
)

// BlockKind is the layout role of a block.
type BlockKind int

const (
	BlockParagraph BlockKind = iota
	BlockHeading
	BlockBullet
	BlockRule
	BlockTableRow
)

// Span is a run of text with uniform emphasis.
type Span struct {
	Text   string
	Bold   bool
	Italic bool
}

// Block is one laid-out unit of a document.
type Block struct {
	Kind   BlockKind
	Level  int // heading level or bullet depth
	Spans  []Span
	Cells  [][]Span // table rows only
	Header bool     // table header row
	Line   int
}

// Text returns the block's text without emphasis. Table cells are joined
// with " | ".
func (b Block) Text() string {
	if b.Kind == BlockTableRow {
		cells := make([]string, 0, len(b.Cells))
		for _, c := range b.Cells {
			if t := strings.TrimSpace(plain(c)); t != "" {
				cells = append(cells, t)
			}
		}
		return strings.Join(cells, " | ")
	}
	return plain(b.Spans)
}

// AllBold reports whether every non-blank span is bold.
func (b Block) AllBold() bool {
	seen := false
	for _, s := range b.Spans {
		if strings.TrimSpace(s.Text) == "" {
			continue
		}
		if !s.Bold {
			return false
		}
		seen = true
	}
	return seen
}

func plain(spans []Span) string {
	var sb strings.Builder
	for _, s := range spans {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

func newMarkdown() goldmark.Markdown {
	return goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough))
}

// Parse turns markdown into layout blocks. YAML frontmatter is skipped. A
// pipe row that does not form a valid table is an error naming its line.
func Parse(data []byte) ([]Block, error) {
	src, err := documents.ParseSource(data)
	if err != nil {
		return nil, err
	}
	body := []byte(src.Body)
	p := &blockParser{
		src:    body,
		offset: lineCount(data) - lineCount(body),
	}
	doc := newMarkdown().Parser().Parse(text.NewReader(body))
	for c := doc.FirstChild(); c != nil; c = c.NextSibling() {
		if err := p.block(c, 0); err != nil {
			return nil, err
		}
	}
	return p.blocks, nil
}

func lineCount(b []byte) int {
	return bytes.Count(bytes.TrimSuffix(b, []byte("\n")), []byte("\n")) + 1
}

type blockParser struct {
	src    []byte
	offset int
	blocks []Block
}

func (p *blockParser) line(n ast.Node) int {
	lines := n.Lines()
	if lines == nil || lines.Len() == 0 {
		return 0
	}
	return bytes.Count(p.src[:lines.At(0).Start], []byte("\n")) + 1 + p.offset
}

func (p *blockParser) block(n ast.Node, depth int) error {
	switch n := n.(type) {
	case *ast.Heading:
		p.blocks = append(p.blocks, Block{Kind: BlockHeading, Level: n.Level, Spans: p.inline(n), Line: p.line(n)})
	case *ast.Paragraph, *ast.TextBlock:
		if err := p.checkTable(n); err != nil {
			return err
		}
		if spans := p.inline(n); len(spans) > 0 {
			p.blocks = append(p.blocks, Block{Kind: BlockParagraph, Spans: spans, Line: p.line(n)})
		}
	case *ast.List:
		for item := n.FirstChild(); item != nil; item = item.NextSibling() {
			if err := p.listItem(item, depth+1); err != nil {
				return err
			}
		}
	case *ast.ThematicBreak:
		p.blocks = append(p.blocks, Block{Kind: BlockRule})
	case *east.Table:
		for row := n.FirstChild(); row != nil; row = row.NextSibling() {
			b := Block{Kind: BlockTableRow}
			if _, ok := row.(*east.TableHeader); ok {
				b.Header = true
			}
			for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
				b.Cells = append(b.Cells, p.inline(cell))
			}
			p.blocks = append(p.blocks, b)
		}
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			t := strings.TrimRight(string(seg.Value(p.src)), "\r\n")
			p.blocks = append(p.blocks, Block{Kind: BlockParagraph, Spans: []Span{{Text: t}}})
		}
	case *ast.HTMLBlock:
	default:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if err := p.block(c, depth); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *blockParser) listItem(item ast.Node, depth int) error {
	bullet := Block{Kind: BlockBullet, Level: depth, Line: p.line(item)}
	flushed := false
	flush := func() {
		if !flushed {
			p.blocks = append(p.blocks, bullet)
			flushed = true
		}
	}
	for c := item.FirstChild(); c != nil; c = c.NextSibling() {
		switch c.(type) {
		case *ast.Paragraph, *ast.TextBlock:
			if flushed {
				if err := p.block(c, depth); err != nil {
					return err
				}
				continue
			}
			if err := p.checkTable(c); err != nil {
				return err
			}
			if bullet.Line == 0 {
				bullet.Line = p.line(c)
			}
			if len(bullet.Spans) > 0 {
				bullet.Spans = append(bullet.Spans, Span{Text: " "})
			}
			bullet.Spans = append(bullet.Spans, p.inline(c)...)
		default:
			flush()
			if err := p.block(c, depth); err != nil {
				return err
			}
		}
	}
	flush()
	return nil
}

// checkTable rejects paragraphs holding pipe rows the table extension
// refused, typically a table without its |---| delimiter row.
func (p *blockParser) checkTable(n ast.Node) error {
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		if bytes.HasPrefix(bytes.TrimSpace(seg.Value(p.src)), []byte("|")) {
			l := bytes.Count(p.src[:seg.Start], []byte("\n")) + 1 + p.offset
			return fmt.Errorf("line %d: malformed table: %q", l, strings.TrimSpace(string(seg.Value(p.src))))
		}
	}
	return nil
}

func (p *blockParser) inline(n ast.Node) []Span {
	var spans []Span
	p.collect(n, false, false, &spans)
	return spans
}

func (p *blockParser) collect(n ast.Node, bold, italic bool, out *[]Span) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *ast.Text:
			appendSpan(out, Span{Text: string(c.Segment.Value(p.src)), Bold: bold, Italic: italic})
			switch {
			case c.HardLineBreak():
				appendSpan(out, Span{Text: "\n", Bold: bold, Italic: italic})
			case c.SoftLineBreak():
				appendSpan(out, Span{Text: " ", Bold: bold, Italic: italic})
			}
		case *ast.String:
			appendSpan(out, Span{Text: string(c.Value), Bold: bold, Italic: italic})
		case *ast.Emphasis:
			if c.Level >= 2 {
				p.collect(c, true, italic, out)
			} else {
				p.collect(c, bold, true, out)
			}
		case *ast.AutoLink:
			appendSpan(out, Span{Text: string(c.Label(p.src)), Bold: bold, Italic: italic})
		case *ast.RawHTML:
		default:
			p.collect(c, bold, italic, out)
		}
	}
}

// appendSpan merges s into the previous span when the emphasis matches.
func appendSpan(out *[]Span, s Span) {
	if s.Text == "" {
		return
	}
	if n := len(*out); n > 0 && (*out)[n-1].Bold == s.Bold && (*out)[n-1].Italic == s.Italic {
		(*out)[n-1].Text += s.Text
		return
	}
	*out = append(*out, s)
}

// HTML renders markdown to an HTML fragment for the document viewer. Raw
// HTML in the source is omitted.
func HTML(data []byte) ([]byte, error) {
	src, err := documents.ParseSource(data)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := newMarkdown().Convert([]byte(src.Body), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
