package render

import (
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
)

const pdfFont = "Helvetica"

type pdfDoc struct {
	*fpdf.Fpdf
	tr func(string) string
}

// newPDF returns a Letter page with margins given in inches.
func newPDF(top, side float64) *pdfDoc {
	f := fpdf.New("P", "mm", "Letter", "")
	f.SetMargins(side*25.4, top*25.4, side*25.4)
	f.SetAutoPageBreak(true, top*25.4)
	f.AddPage()
	return &pdfDoc{Fpdf: f, tr: f.UnicodeTranslatorFromDescriptor("")}
}

func (d *pdfDoc) lineHeight(size, factor float64) float64 {
	return d.PointConvert(size * factor)
}

func (d *pdfDoc) gap(pt float64) {
	d.Ln(d.PointConvert(pt))
}

func (d *pdfDoc) width() float64 {
	w, _ := d.GetPageSize()
	left, _, right, _ := d.GetMargins()
	return w - left - right
}

func style(s Span, bold bool) string {
	st := ""
	if s.Bold || bold {
		st += "B"
	}
	if s.Italic {
		st += "I"
	}
	return st
}

// flow writes spans left-aligned, wrapping at the right margin and
// continuing at indent.
func (d *pdfDoc) flow(spans []Span, size float64, bold bool, indent float64) {
	h := d.lineHeight(size, 1.4)
	left, _, _, _ := d.GetMargins()
	if indent > 0 {
		d.SetLeftMargin(left + indent)
		d.SetX(left + indent)
		defer d.SetLeftMargin(left)
	}
	for _, s := range spans {
		d.SetFont(pdfFont, style(s, bold), size)
		d.Write(h, d.tr(s.Text))
	}
	d.Ln(h)
}

// block writes text as one aligned cell in a single font style.
func (d *pdfDoc) block(text string, size float64, fontStyle, align string) {
	d.SetFont(pdfFont, fontStyle, size)
	d.MultiCell(0, d.lineHeight(size, 1.4), d.tr(text), "", align, false)
}

func (d *pdfDoc) rule(r, g, b int, width float64) {
	left, _, _, _ := d.GetMargins()
	y := d.GetY()
	d.SetDrawColor(r, g, b)
	d.SetLineWidth(width)
	d.Line(left, y, left+d.width(), y)
}

// WritePDF lays out resume blocks on Letter pages with the same hierarchy
// as the Word output: a centered name, ruled section headings and compact
// bullets.
func WritePDF(w io.Writer, blocks []Block) error {
	d := newPDF(0.5, 0.6)
	prev := BlockKind(-1)
	prevLevel := 0
	for _, b := range blocks {
		switch b.Kind {
		case BlockHeading:
			d.SetTextColor(0x1a, 0x1a, 0x2e)
			switch b.Level {
			case 1:
				d.block(b.Text(), 18, "B", "C")
				d.gap(2)
			case 2:
				d.gap(10)
				d.block(strings.ToUpper(b.Text()), 12, "B", "L")
				d.rule(0x1a, 0x1a, 0x2e, 0.3)
				d.gap(4)
			default:
				d.gap(6)
				d.flow(b.Spans, 11, true, 0)
			}
			d.SetTextColor(0x33, 0x33, 0x33)
		case BlockBullet:
			d.SetTextColor(0x33, 0x33, 0x33)
			left, _, _, _ := d.GetMargins()
			indent := 6.35 * float64(b.Level)
			d.SetX(left + indent - 3.5)
			d.SetFont(pdfFont, "", 10)
			d.Write(d.lineHeight(10, 1.4), d.tr("•"))
			d.flow(b.Spans, 10, false, indent)
		case BlockTableRow:
			if t := b.Text(); t != "" {
				st := ""
				if b.Header {
					st = "B"
				}
				d.block(t, 9.5, st, "L")
			}
		case BlockRule:
			d.gap(6)
			d.rule(0xcc, 0xcc, 0xcc, 0.2)
			d.gap(6)
		default:
			d.SetTextColor(0x33, 0x33, 0x33)
			switch {
			case b.AllBold():
				d.block(b.Text(), 10, "B", "C")
			case prev == BlockHeading && prevLevel == 1, isContactLine(b.Text()):
				d.block(b.Text(), 10, "", "C")
				d.gap(4)
			default:
				d.flow(b.Spans, 10, false, 0)
			}
		}
		prev, prevLevel = b.Kind, b.Level
	}
	if err := d.Error(); err != nil {
		return err
	}
	return d.Output(w)
}

// WriteLetterPDF lays out a cover letter with 1in margins.
func WriteLetterPDF(w io.Writer, l Letter) error {
	d := newPDF(1, 1)
	dark := func() { d.SetTextColor(0x22, 0x22, 0x22) }
	grey := func() { d.SetTextColor(0x55, 0x55, 0x55) }

	for i, line := range l.Sender {
		switch i {
		case 0:
			d.SetTextColor(0x1a, 0x1a, 0x2e)
			d.block(line, 16, "B", "L")
		default:
			grey()
			d.block(line, 10, "", "L")
		}
	}
	if len(l.Sender) > 0 {
		d.gap(24)
	}

	dark()
	for _, line := range l.Recipient {
		d.block(line, 11, "", "L")
	}
	if len(l.Recipient) > 0 {
		d.gap(20)
	}

	if l.Salutation != "" {
		d.block(l.Salutation, 11, "", "L")
		d.gap(12)
	}
	for _, p := range l.Body {
		d.block(p, 11, "", "J")
		d.gap(10)
	}
	if l.Closing != "" {
		d.gap(10)
		d.block(l.Closing, 11, "", "L")
		d.gap(4)
	}
	if l.Signature != "" {
		d.SetTextColor(0x1a, 0x1a, 0x2e)
		d.block(l.Signature, 11, "B", "L")
	}
	if err := d.Error(); err != nil {
		return err
	}
	return d.Output(w)
}
