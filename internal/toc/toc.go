// Package toc locates the table of contents pages of a document and parses
// their lines into ordered entries.
package toc

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/dgallion1/tocsplit/internal/pageindex"
)

// Entry is one heading listed in the table of contents.
type Entry struct {
	Title        string // full heading text including any outline number
	Number       string // outline number such as "2.3.1", empty if none
	Level        int    // >= 1
	DeclaredPage int    // page number as printed
	Suspect      bool   // declared page goes backwards relative to earlier entries
	SourcePage   int    // TOC page the entry was read from
}

// Options tunes TOC detection.
type Options struct {
	ScanPages    int     // pages from the front searched for the TOC
	MatchRatio   float64 // share of lines that must look like TOC lines
	MinEntries   int     // minimum TOC-like lines on a TOC page
	IndentStep   float64 // points of indentation per level when no outline number exists
	SkipCaptions bool    // drop "Figure 2-1 ..." and "Table 3-4 ..." list entries
}

// DefaultOptions returns defaults that cover the front matter of a typical
// specification.
func DefaultOptions() Options {
	return Options{
		ScanPages:    40,
		MatchRatio:   0.6,
		MinEntries:   3,
		IndentStep:   12,
		SkipCaptions: true,
	}
}

// Result is the parsed table of contents.
type Result struct {
	Entries []Entry
	Pages   []int // TOC page numbers, ascending
}

// LastPage returns the last TOC page, or 0 when there is none.
func (r *Result) LastPage() int {
	if len(r.Pages) == 0 {
		return 0
	}
	return r.Pages[len(r.Pages)-1]
}

// ErrNotFound matches any NotFoundError via errors.Is.
var ErrNotFound = errors.New("table of contents not found")

// NotFoundError reports that no page cleared the TOC match threshold.
type NotFoundError struct {
	ScannedPages int
	BestRatio    float64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("table of contents not found in first %d pages (best match ratio %.2f)", e.ScannedPages, e.BestRatio)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

var (
	// <title> <dot leaders or whitespace> <page number>
	tocLineRe = regexp.MustCompile(`^(.+?)[\s.·…_]+(\d{1,4})$`)
	// "2.3.1 Title" or "A.2 Title"
	outlineRe = regexp.MustCompile(`^(\d+(?:\.\d+)*|[A-Z](?:\.\d+)+)\.?\s+(\S.*)$`)
	// numbered heading line without a page number, e.g. a wrapped title
	outlineOnlyRe = regexp.MustCompile(`^(\d+(?:\.\d+)*|[A-Z](?:\.\d+)+)\.?\s+\S`)
	captionRe     = regexp.MustCompile(`(?i)^(figure|table)\s+[A-Z]?\d+([-.–]\d+)*\b`)
	pageNoiseRe   = regexp.MustCompile(`(?i)^page(\s+\d+(\s+of)?)?$`)
)

type candidate struct {
	title   string
	number  string
	page    int
	x       float64
	srcPage int
}

// LocateAndParse finds the TOC pages among the first ScanPages pages and
// returns their entries in listing order.
func LocateAndParse(ix *pageindex.Index, opts Options) (*Result, error) {
	if opts.ScanPages <= 0 {
		opts.ScanPages = DefaultOptions().ScanPages
	}
	if opts.MatchRatio <= 0 {
		opts.MatchRatio = DefaultOptions().MatchRatio
	}
	if opts.MinEntries <= 0 {
		opts.MinEntries = 1
	}

	numPages := ix.NumPages()
	scan := min(opts.ScanPages, numPages)

	var tocPages []pageindex.PageText
	best := 0.0
	for n := 1; n <= scan; n++ {
		page, _ := ix.Page(n)
		ratio, matches := pageScore(page, numPages)
		best = math.Max(best, ratio)
		qualifies := ratio >= opts.MatchRatio && matches >= opts.MinEntries
		if qualifies {
			tocPages = append(tocPages, page)
			continue
		}
		if len(tocPages) > 0 {
			break
		}
	}
	if len(tocPages) == 0 {
		return nil, &NotFoundError{ScannedPages: scan, BestRatio: best}
	}

	running := runningLines(tocPages)
	var cands []candidate
	for _, page := range tocPages {
		cands = append(cands, parsePage(page, numPages, running, opts)...)
	}
	if len(cands) == 0 {
		return nil, &NotFoundError{ScannedPages: scan, BestRatio: best}
	}

	res := &Result{Entries: assignLevels(cands, opts.IndentStep)}
	for _, p := range tocPages {
		res.Pages = append(res.Pages, p.Number)
	}
	markSuspects(res.Entries)
	return res, nil
}

// pageScore returns the share of non-empty lines shaped like TOC lines.
func pageScore(page pageindex.PageText, numPages int) (float64, int) {
	total, matches := 0, 0
	for _, l := range page.Lines {
		text := strings.TrimSpace(l.Text)
		if text == "" {
			continue
		}
		total++
		if _, _, ok := splitTOCLine(text, numPages); ok {
			matches++
		}
	}
	if total == 0 {
		return 0, 0
	}
	return float64(matches) / float64(total), matches
}

// splitTOCLine separates the title from the trailing page number.
func splitTOCLine(text string, numPages int) (string, int, bool) {
	m := tocLineRe.FindStringSubmatch(text)
	if m == nil {
		return "", 0, false
	}
	title := strings.TrimRight(m[1], " .·…_")
	page := 0
	for _, r := range m[2] {
		page = page*10 + int(r-'0')
	}
	if page < 1 || page > numPages {
		return "", 0, false
	}
	if !hasLetter(title) || pageNoiseRe.MatchString(title) {
		return "", 0, false
	}
	return title, page, true
}

// runningLines returns lines repeated on several TOC pages, which are
// running headers or footers rather than entries.
func runningLines(pages []pageindex.PageText) map[string]bool {
	out := make(map[string]bool)
	if len(pages) < 2 {
		return out
	}
	counts := make(map[string]int)
	for _, p := range pages {
		seen := make(map[string]bool)
		for _, l := range p.Lines {
			if !seen[l.Text] {
				seen[l.Text] = true
				counts[l.Text]++
			}
		}
	}
	for text, n := range counts {
		if n >= 2 {
			out[text] = true
		}
	}
	return out
}

func parsePage(page pageindex.PageText, numPages int, running map[string]bool, opts Options) []candidate {
	var out []candidate
	pending := ""
	pendingX := 0.0
	for _, l := range page.Lines {
		text := strings.TrimSpace(l.Text)
		if text == "" || running[l.Text] {
			pending = ""
			continue
		}
		title, pageNo, ok := splitTOCLine(text, numPages)
		if !ok {
			// A numbered title that wraps onto the next line.
			if outlineOnlyRe.MatchString(text) && hasLetter(text) {
				pending, pendingX = text, l.X
			} else {
				pending = ""
			}
			continue
		}
		x := l.X
		if pending != "" && !outlineOnlyRe.MatchString(title) {
			title = pending + " " + title
			x = pendingX
		}
		pending = ""

		if opts.SkipCaptions && captionRe.MatchString(title) {
			continue
		}
		c := candidate{title: title, page: pageNo, x: x, srcPage: page.Number}
		if m := outlineRe.FindStringSubmatch(title); m != nil {
			c.number = m[1]
		}
		out = append(out, c)
	}
	return out
}

// assignLevels derives levels from outline numbers, falling back to the
// indentation relative to the shallowest entry.
func assignLevels(cands []candidate, indentStep float64) []Entry {
	minX := math.Inf(1)
	for _, c := range cands {
		minX = math.Min(minX, c.x)
	}

	entries := make([]Entry, 0, len(cands))
	for _, c := range cands {
		level := 1
		if c.number != "" {
			level = strings.Count(c.number, ".") + 1
		} else if indentStep > 0 {
			level = 1 + int(math.Round((c.x-minX)/indentStep))
		}
		entries = append(entries, Entry{
			Title:        c.title,
			Number:       c.number,
			Level:        level,
			DeclaredPage: c.page,
			SourcePage:   c.srcPage,
		})
	}
	return entries
}

// markSuspects flags entries whose declared page is lower than an earlier
// entry's. They are not reordered.
func markSuspects(entries []Entry) {
	highest := 0
	for i := range entries {
		if entries[i].DeclaredPage < highest {
			entries[i].Suspect = true
			continue
		}
		highest = entries[i].DeclaredPage
	}
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
