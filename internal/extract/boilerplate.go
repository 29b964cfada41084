package extract

import (
	"math"
	"regexp"
	"strings"

	"github.com/dgallion1/tocsplit/internal/pageindex"
)

var (
	pageNumberRe = regexp.MustCompile(`(?i)^(page\s+)?\d{1,4}(\s*(of|/)\s*\d{1,4})?$`)
	romanRe      = regexp.MustCompile(`^(x{0,3})(ix|iv|v?i{0,3})$`)
	digitsRe     = regexp.MustCompile(`\d+`)
)

// template folds a line so running headers that differ only by page or
// revision numbers compare equal.
func template(s string) string {
	return digitsRe.ReplaceAllString(strings.ToLower(collapse(s)), "#")
}

// isPageNumber matches a line that could be a printed page number on its
// own: "12", "Page 3", "4 of 90", "iv".
func isPageNumber(text string) bool {
	return text != "" && (pageNumberRe.MatchString(text) || romanRe.MatchString(strings.ToLower(text)))
}

// atEdge reports whether line i lies within edge lines of the top or
// bottom of the page. A non-positive edge admits every line.
func atEdge(page pageindex.PageText, i, edge int) bool {
	if edge <= 0 {
		return true
	}
	return i < edge || i >= len(page.Lines)-edge
}

// furniture is the page furniture found by sampling.
type furniture struct {
	templates map[string]bool // repeated header/footer lines
	numberTop bool            // pages open with a printed page number
	numberEnd bool            // pages close with a printed page number
}

// detectBoilerplate returns the header/footer templates found on at least
// BoilerplateRatio of the sampled pages, and whether printed page numbers
// sit on the first or last line of that many pages. Bare numbers are kept
// out of the templates so numeric body lines near an edge survive.
func detectBoilerplate(ix *pageindex.Index, opts Options) furniture {
	pages := samplePages(ix.Pages(), opts.SamplePages)
	counts := make(map[string]int)
	top, end := 0, 0
	for _, p := range pages {
		if len(p.Lines) == 0 {
			continue
		}
		if isPageNumber(collapse(p.Lines[0].Text)) {
			top++
		}
		if last := len(p.Lines) - 1; last > 0 && isPageNumber(collapse(p.Lines[last].Text)) {
			end++
		}
		seen := make(map[string]bool)
		for i, l := range p.Lines {
			if !atEdge(p, i, opts.EdgeLines) {
				continue
			}
			text := collapse(l.Text)
			if isPageNumber(text) {
				continue
			}
			t := template(text)
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			counts[t]++
		}
	}

	need := max(int(math.Ceil(opts.BoilerplateRatio*float64(len(pages)))), opts.MinPages, 1)
	f := furniture{
		templates: make(map[string]bool),
		numberTop: top >= need,
		numberEnd: end >= need,
	}
	for t, n := range counts {
		if n >= need {
			f.templates[t] = true
		}
	}
	return f
}

// samplePages picks n pages spread evenly across the document.
func samplePages(pages []pageindex.PageText, n int) []pageindex.PageText {
	if n <= 0 || len(pages) <= n {
		return pages
	}
	step := float64(len(pages)) / float64(n)
	out := make([]pageindex.PageText, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, pages[int(float64(i)*step)])
	}
	return out
}

// isBoilerplate reports whether line i of page is page furniture: a
// denylisted line anywhere, a repeated header/footer near the page edges,
// or a page number on the outermost line when the document numbers its
// pages there.
func (e *Extractor) isBoilerplate(page pageindex.PageText, i int) bool {
	text := collapse(page.Lines[i].Text)
	if text == "" {
		return false
	}
	for _, re := range e.deny {
		if re.MatchString(text) {
			return true
		}
	}
	if isPageNumber(text) {
		last := len(page.Lines) - 1
		return (i == 0 && e.boiler.numberTop) || (i == last && i > 0 && e.boiler.numberEnd)
	}
	if !atEdge(page, i, e.opts.EdgeLines) {
		return false
	}
	return e.boiler.templates[template(text)]
}

// IsBoilerplate reports whether a line of the given page would be stripped.
func (e *Extractor) IsBoilerplate(pageNumber, line int) bool {
	page, ok := e.ix.Page(pageNumber)
	if !ok || line < 0 || line >= len(page.Lines) {
		return false
	}
	return e.isBoilerplate(page, line)
}
