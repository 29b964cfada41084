// Package extract fills section nodes with the text inside their resolved
// spans, stripping page furniture and normalizing whitespace.
package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/dgallion1/tocsplit/internal/doctree"
	"github.com/dgallion1/tocsplit/internal/pageindex"
)

// Options tunes content extraction.
type Options struct {
	BoilerplateRatio    float64  // share of sampled pages a header/footer line must appear on
	SamplePages         int      // pages sampled for boilerplate detection, 0 = all
	MinPages            int      // absolute minimum pages a template must appear on
	EdgeLines           int      // lines from the top and bottom searched for headers/footers, 0 = whole page
	Denylist            []string // regexes for lines always stripped
	IncludeRootPreamble bool     // keep text between body start and the first section
}

// DefaultOptions returns the stock extraction settings.
func DefaultOptions() Options {
	return Options{
		BoilerplateRatio: 0.7,
		SamplePages:      60,
		MinPages:         3,
		EdgeLines:        3,
	}
}

// Extractor reads span text from one page index. It is built per request.
type Extractor struct {
	ix      *pageindex.Index
	opts    Options
	deny    []*regexp.Regexp
	boiler  furniture
	spacing []float64 // median line spacing per page, index 0 = page 1
}

// New samples the index for repeated header and footer lines and compiles
// the denylist.
func New(ix *pageindex.Index, opts Options) (*Extractor, error) {
	if opts.BoilerplateRatio <= 0 || opts.BoilerplateRatio > 1 {
		opts.BoilerplateRatio = DefaultOptions().BoilerplateRatio
	}
	e := &Extractor{ix: ix, opts: opts}
	for _, pat := range opts.Denylist {
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, fmt.Errorf("boilerplate denylist %q: %w", pat, err)
		}
		e.deny = append(e.deny, re)
	}
	e.boiler = detectBoilerplate(ix, opts)
	e.spacing = make([]float64, ix.NumPages())
	for i, p := range ix.Pages() {
		e.spacing[i] = medianSpacing(p.Lines)
	}
	return e, nil
}

// Fill sets Content on root and every descendant. Containers keep only
// their preamble; suspect entries stay empty.
func (e *Extractor) Fill(root *doctree.SectionNode) {
	root.Walk(func(n *doctree.SectionNode) {
		switch {
		case n.Level == 0 && !e.opts.IncludeRootPreamble:
			n.Content = ""
		case n.Suspect:
			n.Content = ""
		default:
			n.Content = e.SpanText(n.Start, n.ContentEnd(), n.HeadingLines)
		}
	})
}

// SpanText returns the normalized text in [start, end), dropping the first
// skip lines (the heading itself). Lines are joined with newlines and
// paragraphs with a blank line.
func (e *Extractor) SpanText(start, end doctree.Position, skip int) string {
	if !start.Before(end) {
		return ""
	}
	var b strings.Builder
	lastPage := min(end.Page, e.ix.NumPages())
	for pn := max(start.Page, 1); pn <= lastPage; pn++ {
		page, _ := e.ix.Page(pn)
		from, to := 0, len(page.Lines)
		if pn == start.Page {
			from = start.Line + skip
		}
		if pn == end.Page {
			to = min(end.Line, to)
		}
		var prev pageindex.Line
		havePrev := false
		for i := from; i < to; i++ {
			line := page.Lines[i]
			if e.isBoilerplate(page, i) {
				// Measure the next gap from the stripped line.
				if havePrev {
					prev = line
				}
				continue
			}
			text := collapse(line.Text)
			if text == "" {
				continue
			}
			if b.Len() > 0 {
				sep := "\n"
				if havePrev && e.paragraphBreak(pn, prev, line) {
					sep = "\n\n"
				}
				b.WriteString(sep)
			}
			b.WriteString(text)
			prev, havePrev = line, true
		}
	}
	return strings.TrimSpace(b.String())
}

// paragraphBreak reports a vertical gap well beyond the page's usual line
// spacing. Column jumps move upwards and are not breaks.
func (e *Extractor) paragraphBreak(page int, prev, cur pageindex.Line) bool {
	median := e.spacing[page-1]
	if median <= 0 {
		return false
	}
	gap := prev.Y - cur.Y
	return gap > median*1.5
}

func medianSpacing(lines []pageindex.Line) float64 {
	var gaps []float64
	for i := 1; i < len(lines); i++ {
		if g := lines[i-1].Y - lines[i].Y; g > 0 {
			gaps = append(gaps, g)
		}
	}
	if len(gaps) == 0 {
		return 0
	}
	sort.Float64s(gaps)
	return gaps[len(gaps)/2]
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
