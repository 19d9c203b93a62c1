package render

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Sizes are in half-points, spacing in twentieths of a point.
const (
	docxTextSize    = 20
	docxTableSize   = 19
	docxH1Size      = 36
	docxH2Size      = 24
	docxH3Size      = 22
	docxAccentColor = "1A1A2E"
	docxTextColor   = "333333"
)

type docxPara struct {
	style  string
	align  string
	before int
	after  int
	indent int
	border bool
	size   int
	bold   bool
	upper  bool
	color  string
	spans  []Span
}

// WriteDOCX writes blocks as an ATS-friendly Word document: Calibri
// 10.5pt, narrow margins, one paragraph per block.
func WriteDOCX(w io.Writer, blocks []Block) error {
	var body bytes.Buffer
	prev := BlockKind(-1)
	prevLevel := 0
	for _, b := range blocks {
		p, ok := docxParagraph(b, prev, prevLevel)
		prev, prevLevel = b.Kind, b.Level
		if !ok {
			continue
		}
		writePara(&body, p)
	}

	zw := zip.NewWriter(w)
	parts := []struct {
		name    string
		content string
	}{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", relsXML},
		{"word/_rels/document.xml.rels", documentRelsXML},
		{"word/styles.xml", stylesXML},
		{"word/numbering.xml", numberingXML},
		{"word/document.xml", documentHead + body.String() + documentTail},
	}
	for _, part := range parts {
		f, err := zw.Create(part.name)
		if err != nil {
			return fmt.Errorf("create %s: %w", part.name, err)
		}
		if _, err := io.WriteString(f, part.content); err != nil {
			return fmt.Errorf("write %s: %w", part.name, err)
		}
	}
	return zw.Close()
}

func docxParagraph(b Block, prev BlockKind, prevLevel int) (docxPara, bool) {
	switch b.Kind {
	case BlockHeading:
		switch b.Level {
		case 1:
			return docxPara{align: "center", after: 40, size: docxH1Size, bold: true, color: docxAccentColor, spans: b.Spans}, true
		case 2:
			return docxPara{before: 200, after: 80, size: docxH2Size, bold: true, upper: true, border: true, color: docxAccentColor, spans: b.Spans}, true
		default:
			return docxPara{before: 120, after: 40, size: docxH3Size, bold: true, spans: b.Spans}, true
		}
	case BlockBullet:
		return docxPara{style: "ListBullet", before: 20, after: 20, indent: 360 * b.Level, size: docxTextSize, spans: b.Spans}, true
	case BlockTableRow:
		if b.Text() == "" {
			return docxPara{}, false
		}
		return docxPara{after: 20, size: docxTableSize, bold: b.Header, spans: []Span{{Text: b.Text()}}}, true
	case BlockRule:
		return docxPara{}, false
	}

	p := docxPara{after: 40, size: docxTextSize, spans: b.Spans}
	switch {
	case b.AllBold():
		p.align = "center"
	case prev == BlockHeading && prevLevel == 1, isContactLine(b.Text()):
		p.align = "center"
		p.after = 120
	}
	return p, true
}

// isContactLine matches lines such as "(555) 123-4567 | jane@example.com".
func isContactLine(s string) bool {
	return strings.HasPrefix(s, "(") && strings.Contains(s, "|")
}

func writePara(buf *bytes.Buffer, p docxPara) {
	buf.WriteString("<w:p><w:pPr>")
	if p.style != "" {
		fmt.Fprintf(buf, `<w:pStyle w:val="%s"/>`, p.style)
	}
	if p.border {
		fmt.Fprintf(buf, `<w:pBdr><w:bottom w:val="single" w:sz="6" w:space="1" w:color="%s"/></w:pBdr>`, docxAccentColor)
	}
	fmt.Fprintf(buf, `<w:spacing w:before="%d" w:after="%d"/>`, p.before, p.after)
	if p.indent > 0 {
		fmt.Fprintf(buf, `<w:ind w:left="%d" w:hanging="180"/>`, p.indent)
	}
	if p.align != "" {
		fmt.Fprintf(buf, `<w:jc w:val="%s"/>`, p.align)
	}
	buf.WriteString("</w:pPr>")

	for _, s := range p.spans {
		t := s.Text
		if p.upper {
			t = strings.ToUpper(t)
		}
		for i, line := range strings.Split(t, "\n") {
			buf.WriteString("<w:r><w:rPr>")
			if p.bold || s.Bold {
				buf.WriteString("<w:b/>")
			}
			if s.Italic {
				buf.WriteString("<w:i/>")
			}
			if p.color != "" {
				fmt.Fprintf(buf, `<w:color w:val="%s"/>`, p.color)
			}
			fmt.Fprintf(buf, `<w:sz w:val="%d"/><w:szCs w:val="%d"/>`, p.size, p.size)
			buf.WriteString("</w:rPr>")
			if i > 0 {
				buf.WriteString("<w:br/>")
			}
			buf.WriteString(`<w:t xml:space="preserve">`)
			_ = xml.EscapeText(buf, []byte(line))
			buf.WriteString("</w:t></w:r>")
		}
	}
	buf.WriteString("</w:p>")
}

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>
<Override PartName="/word/numbering.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.numbering+xml"/>
</Types>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const documentRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>
<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/numbering" Target="numbering.xml"/>
</Relationships>`

const stylesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:docDefaults>
<w:rPrDefault><w:rPr><w:rFonts w:ascii="Calibri" w:hAnsi="Calibri" w:eastAsia="Calibri" w:cs="Calibri"/><w:color w:val="` + docxTextColor + `"/><w:sz w:val="21"/><w:szCs w:val="21"/></w:rPr></w:rPrDefault>
<w:pPrDefault><w:pPr><w:spacing w:after="0" w:line="240" w:lineRule="auto"/></w:pPr></w:pPrDefault>
</w:docDefaults>
<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/></w:style>
<w:style w:type="paragraph" w:styleId="ListBullet"><w:name w:val="List Bullet"/><w:basedOn w:val="Normal"/><w:pPr><w:numPr><w:ilvl w:val="0"/><w:numId w:val="1"/></w:numPr></w:pPr></w:style>
</w:styles>`

const numberingXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:numbering xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:abstractNum w:abstractNumId="0"><w:lvl w:ilvl="0"><w:start w:val="1"/><w:numFmt w:val="bullet"/><w:lvlText w:val="•"/><w:lvlJc w:val="left"/></w:lvl></w:abstractNum>
<w:num w:numId="1"><w:abstractNumId w:val="0"/></w:num>
</w:numbering>`

const documentHead = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`

// Letter page, 0.5in top/bottom and 0.6in left/right margins.
const documentTail = `<w:sectPr><w:pgSz w:w="12240" w:h="15840"/><w:pgMar w:top="720" w:right="864" w:bottom="720" w:left="864" w:header="720" w:footer="720" w:gutter="0"/></w:sectPr></w:body></w:document>`
