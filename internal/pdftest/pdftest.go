// Package pdftest builds small, valid PDF files for tests. Every object
// offset in the xref table is exact so strict readers accept the output.
package pdftest

import (
	"fmt"
	"strings"
)

// Text is one line of Helvetica text placed at an absolute position.
type Text struct {
	X, Y float64
	S    string
	Size float64
}

// Line places s at (x, y) in 11pt type.
func Line(x, y float64, s string) Text {
	return Text{X: x, Y: y, S: s, Size: 11}
}

// Build returns a PDF with one page per element of pages.
func Build(pages ...[]Text) []byte {
	return build(pages, "")
}

// Encrypted returns a single-page PDF whose trailer declares standard
// security handler encryption with an owner/user key pair that no empty
// password can satisfy.
func Encrypted() []byte {
	enc := "/Encrypt << /Filter /Standard /V 1 /R 2 /Length 40 /P -4" +
		" /O <" + strings.Repeat("4f", 32) + "> /U <" + strings.Repeat("55", 32) + "> >>" +
		" /ID [<" + strings.Repeat("ab", 16) + "> <" + strings.Repeat("ab", 16) + ">]"
	return build([][]Text{{Line(72, 720, "secret")}}, enc)
}

func build(pages [][]Text, trailerExtra string) []byte {
	// 1 catalog, 2 pages tree, 3 font, then a page object and a content
	// stream per page.
	numObjs := 3 + 2*len(pages)
	offsets := make([]int, numObjs+1)

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}

	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	offsets[2] = b.Len()
	fmt.Fprintf(&b, "2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n", strings.Join(kids, " "), len(pages))

	offsets[3] = b.Len()
	b.WriteString("3 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>\nendobj\n")

	for i, page := range pages {
		pageObj := 4 + 2*i
		contentObj := pageObj + 1
		stream := contentStream(page)

		offsets[pageObj] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents %d 0 R /Resources << /Font << /F1 3 0 R >> >> >>\nendobj\n", pageObj, contentObj)

		offsets[contentObj] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", contentObj, len(stream), stream)
	}

	xrefOffset := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", numObjs+1)
	b.WriteString("0000000000 65535 f \n")
	for i := 1; i <= numObjs; i++ {
		fmt.Fprintf(&b, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R", numObjs+1)
	if trailerExtra != "" {
		b.WriteString(" " + trailerExtra)
	}
	fmt.Fprintf(&b, " >>\nstartxref\n%d\n%%%%EOF\n", xrefOffset)
	return []byte(b.String())
}

func contentStream(lines []Text) string {
	var b strings.Builder
	for _, l := range lines {
		size := l.Size
		if size <= 0 {
			size = 11
		}
		fmt.Fprintf(&b, "BT\n/F1 %g Tf\n1 0 0 1 %g %g Tm\n(%s) Tj\nET\n", size, l.X, l.Y, escape(l.S))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "(", `\(`)
	return strings.ReplaceAll(s, ")", `\)`)
}
