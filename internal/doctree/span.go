package doctree

import (
	"strings"
	"unicode"

	"github.com/dgallion1/tocsplit/internal/pageindex"
)

// SpanOptions controls span resolution.
type SpanOptions struct {
	// BodyStart is the first page after the table of contents.
	BodyStart int
	// PageOffset is actual page minus declared page. When nil it is derived
	// from the first heading, falling back to 0 with a warning.
	PageOffset *int
}

// Resolve fills Start and End for every node of the tree. Each node ends
// where the first reliable entry after its own subsection begins; the last
// ones run to the end of the document. Suspect entries never act as
// boundaries.
func Resolve(root *SectionNode, ix *pageindex.Index, opts SpanOptions) []AmbiguousSpanWarning {
	numPages := ix.NumPages()
	if numPages == 0 {
		return nil
	}
	bodyStart := min(max(opts.BodyStart, 1), numPages)
	docEnd := Position{Page: numPages + 1}
	root.Start = Position{Page: bodyStart}
	root.End = docEnd

	nodes := root.Descendants()
	if len(nodes) == 0 {
		return nil
	}

	var warnings []AmbiguousSpanWarning
	record := func(n *SectionNode, page int, reason string) {
		w := AmbiguousSpanWarning{Title: n.Title, Page: page, Reason: reason}
		n.warn(w)
		warnings = append(warnings, w)
	}

	offset := 0
	if opts.PageOffset != nil {
		offset = *opts.PageOffset
	} else {
		var first *SectionNode
		for _, n := range nodes {
			if !n.Suspect {
				first = n
				break
			}
		}
		off, reason := frontMatterOffset(first, ix, bodyStart)
		offset = off
		if reason != "" {
			record(root, first.DeclaredPage, reason)
		}
	}

	// Starts of the monotonic subsequence, in TOC order.
	located := make([]bool, len(nodes))
	var prev *SectionNode
	for i, n := range nodes {
		if n.Suspect {
			continue
		}
		page := n.DeclaredPage + offset
		if page < bodyStart || page > numPages {
			record(n, page, ReasonPageClamped)
			page = min(max(page, bodyStart), numPages)
		}
		from := 0
		if prev != nil && prev.Start.Page == page {
			from = prev.Start.Line + prev.HeadingLines
		}

		pt, _ := ix.Page(page)
		if line, span, ok := locateHeading(pt, n.Title, from); ok {
			n.Start = Position{Page: page, Line: line}
			n.HeadingLines = span
			located[i] = true
		} else {
			n.Start = Position{Page: page}
			if prev != nil && prev.Start.Page == page {
				n.Start = prev.Start
			}
			record(n, page, ReasonHeadingNotFound)
		}
		prev = n
	}

	// Suspect entries collapse onto the next reliable start.
	next := docEnd
	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		if !n.Suspect {
			next = n.Start
			continue
		}
		n.Start = next
		record(n, n.DeclaredPage, ReasonSuspectPage)
	}

	for i, n := range nodes {
		n.End = docEnd
		// Pre-order: the subtree of n is the next Count() nodes, and anything
		// after it sits at the same or a higher level. Reliable entries below a
		// skipped suspect still bound n.
		for j := i + 1 + n.Count(); j < len(nodes); j++ {
			nx := nodes[j]
			if nx.Suspect {
				continue
			}
			n.End = nx.Start
			if !located[j] && !n.Suspect && n.Start.Page == nx.Start.Page {
				// Whole-page fallback: both sections keep the full page.
				n.End = Position{Page: nx.Start.Page + 1}
				record(n, nx.Start.Page, ReasonSharedPage)
			}
			break
		}
		if n.End.Before(n.Start) {
			n.End = n.Start
		}
	}

	widen(root)
	return warnings
}

// widen makes every parent span cover its children after page-level
// fallbacks pushed a child's end past the parent's.
func widen(n *SectionNode) {
	for _, c := range n.Children {
		widen(c)
		if n.End.Before(c.End) {
			n.End = c.End
		}
	}
}

// frontMatterOffset derives actual-minus-declared page from the first
// heading. It only trusts a unique match; otherwise it returns 0 and the
// reason.
func frontMatterOffset(first *SectionNode, ix *pageindex.Index, bodyStart int) (int, string) {
	if first == nil {
		return 0, ""
	}
	var hits []int
	for p := bodyStart; p <= ix.NumPages(); p++ {
		pt, _ := ix.Page(p)
		if _, _, ok := locateHeading(pt, first.Title, 0); ok {
			hits = append(hits, p)
		}
	}
	switch len(hits) {
	case 1:
		return hits[0] - first.DeclaredPage, ""
	case 0:
		return 0, ReasonOffsetNotFound
	default:
		return 0, ReasonOffsetAmbiguous
	}
}

// locateHeading finds the first line at or after from whose text equals
// title, ignoring case and whitespace. Headings wrapped over two lines are
// matched too; span reports how many lines the heading uses.
func locateHeading(page pageindex.PageText, title string, from int) (line, span int, ok bool) {
	want := headingKey(title)
	if want == "" {
		return 0, 0, false
	}
	for i := max(from, 0); i < len(page.Lines); i++ {
		k := headingKey(page.Lines[i].Text)
		if k == "" {
			continue
		}
		if k == want {
			return i, 1, true
		}
		if i+1 < len(page.Lines) && strings.HasPrefix(want, k) && k+headingKey(page.Lines[i+1].Text) == want {
			return i, 2, true
		}
	}
	return 0, 0, false
}

func headingKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if !unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
