// Package pageindex extracts per-page text lines with layout metadata from a
// PDF and gives random access to them by 1-based page number.
package pageindex

import "strings"

// Line is one visual text line on a page.
type Line struct {
	Text     string
	X        float64 // left edge of the line in points
	Y        float64 // baseline in PDF user space; larger is higher on the page
	FontSize float64 // largest glyph size on the line, 0 if unknown
}

// PageText holds the lines of a single page in reading order.
type PageText struct {
	Number  int    // 1-based page number
	Lines   []Line // reading order, top to bottom
	Columns int    // 1 single column, 2 two columns reordered, 0 ambiguous (stream order kept)
}

// RawText returns the page lines as plain strings.
func (p PageText) RawText() []string {
	out := make([]string, len(p.Lines))
	for i, l := range p.Lines {
		out[i] = l.Text
	}
	return out
}

// Index is an immutable, per-request collection of page texts.
type Index struct {
	pages []PageText
}

// New builds an Index. Pages are renumbered 1..n in the given order.
func New(pages []PageText) *Index {
	out := make([]PageText, len(pages))
	for i, p := range pages {
		p.Number = i + 1
		out[i] = p
	}
	return &Index{pages: out}
}

// NumPages returns the number of pages in the index.
func (ix *Index) NumPages() int {
	return len(ix.pages)
}

// Page returns page n (1-based).
func (ix *Index) Page(n int) (PageText, bool) {
	if n < 1 || n > len(ix.pages) {
		return PageText{}, false
	}
	return ix.pages[n-1], true
}

// Pages returns all pages in order. Callers must not modify the result.
func (ix *Index) Pages() []PageText {
	return ix.pages
}

// TextLength counts non-space characters across all pages.
func (ix *Index) TextLength() int {
	n := 0
	for _, p := range ix.pages {
		for _, l := range p.Lines {
			n += len(strings.Join(strings.Fields(l.Text), ""))
		}
	}
	return n
}

const (
	textCharWidth  = 6.0
	textLineHeight = 12.0
	textTop        = 780.0
)

// FromText builds an Index from plain-text pages such as pdftotext -layout
// output. Leading spaces become the X offset and blank lines widen the
// vertical gap, so indentation and paragraph cues survive.
func FromText(pages ...string) *Index {
	out := make([]PageText, 0, len(pages))
	for _, page := range pages {
		pt := PageText{Columns: 1}
		y := textTop
		for _, raw := range strings.Split(strings.ReplaceAll(page, "\r\n", "\n"), "\n") {
			text := strings.Join(strings.Fields(raw), " ")
			if text != "" {
				indent := len(raw) - len(strings.TrimLeft(raw, " \t"))
				pt.Lines = append(pt.Lines, Line{
					Text: text,
					X:    float64(indent) * textCharWidth,
					Y:    y,
				})
			}
			y -= textLineHeight
		}
		out = append(out, pt)
	}
	return New(out)
}
