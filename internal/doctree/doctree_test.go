package doctree

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/dgallion1/tocsplit/internal/pageindex"
	"github.com/dgallion1/tocsplit/internal/toc"
)

func entry(title string, level, page int) toc.Entry {
	return toc.Entry{Title: title, Level: level, DeclaredPage: page}
}

func titles(nodes []*SectionNode) string {
	var out []string
	for _, n := range nodes {
		out = append(out, n.Title)
	}
	return strings.Join(out, "|")
}

func TestBuild_PreOrderMatchesEntries(t *testing.T) {
	entries := []toc.Entry{
		entry("1 Introduction", 1, 3),
		entry("1.1 Scope", 2, 3),
		entry("1.1.1 Deep", 3, 4),
		entry("2 Definitions", 1, 5),
		entry("2.1 Terms", 2, 5),
		entry("A Jump", 3, 6),
		entry("3 Last", 1, 7),
	}
	root := Build("doc", entries)
	if root.Level != 0 || root.Title != "doc" {
		t.Fatalf("unexpected root %+v", root)
	}
	if len(root.Children) != 3 {
		t.Fatalf("expected 3 top-level sections, got %d", len(root.Children))
	}
	var want []string
	for _, e := range entries {
		want = append(want, e.Title)
	}
	if got := titles(root.Descendants()); got != strings.Join(want, "|") {
		t.Errorf("pre-order mismatch:\n got %s\nwant %s", got, strings.Join(want, "|"))
	}
	if root.Count() != len(entries) {
		t.Errorf("expected %d nodes, got %d", len(entries), root.Count())
	}
	defs := root.Children[1]
	if len(defs.Children) != 1 || len(defs.Children[0].Children) != 1 {
		t.Fatalf("expected level jump to nest under 2.1, got %+v", defs.Children)
	}
}

func TestBuild_LevelBelowOneIsTopLevel(t *testing.T) {
	root := Build("doc", []toc.Entry{entry("A", 0, 1), entry("B", -2, 2)})
	if len(root.Children) != 2 {
		t.Fatalf("expected 2 top-level sections, got %d", len(root.Children))
	}
	for _, c := range root.Children {
		if c.Level != 1 {
			t.Errorf("expected level 1 for %q, got %d", c.Title, c.Level)
		}
	}
}

func TestBuild_Empty(t *testing.T) {
	root := Build("doc", nil)
	if len(root.Children) != 0 || root.Count() != 0 {
		t.Errorf("expected empty tree, got %d children", len(root.Children))
	}
}

func threeLevelIndex() *pageindex.Index {
	return pageindex.FromText(
		"Contents\n1 Introduction 3\n1.1 Scope 3\n2 Definitions 5",
		"Foreword",
		"1 Introduction\nIntro text\n1.1 Scope\nScope text",
		"More scope",
		"2 Definitions\nDefinition text",
	)
}

func TestResolve_ThreeEntries(t *testing.T) {
	root := Build("doc", []toc.Entry{
		entry("1 Introduction", 1, 3),
		entry("1.1 Scope", 2, 3),
		entry("2 Definitions", 1, 5),
	})
	warnings := Resolve(root, threeLevelIndex(), SpanOptions{BodyStart: 2})
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	intro, defs := root.Children[0], root.Children[1]
	scope := intro.Children[0]

	if intro.Start != (Position{Page: 3, Line: 0}) {
		t.Errorf("intro start: got %v", intro.Start)
	}
	if scope.Start != (Position{Page: 3, Line: 2}) {
		t.Errorf("scope start: got %v", scope.Start)
	}
	if intro.End != defs.Start {
		t.Errorf("expected intro end %v to equal definitions start %v", intro.End, defs.Start)
	}
	if scope.End != defs.Start {
		t.Errorf("expected scope end %v to equal definitions start %v", scope.End, defs.Start)
	}
	if intro.ContentEnd() != scope.Start {
		t.Errorf("expected intro preamble to stop at scope, got %v", intro.ContentEnd())
	}
	if defs.End != (Position{Page: 6}) {
		t.Errorf("expected last section to run to document end, got %v", defs.End)
	}
	if root.Start != (Position{Page: 2}) || root.End != (Position{Page: 6}) {
		t.Errorf("unexpected root span %v-%v", root.Start, root.End)
	}
}

func TestResolve_DerivesFrontMatterOffset(t *testing.T) {
	// Printed page numbers lag the physical ones by two.
	root := Build("doc", []toc.Entry{
		entry("1 Introduction", 1, 1),
		entry("1.1 Scope", 2, 1),
		entry("2 Definitions", 1, 3),
	})
	warnings := Resolve(root, threeLevelIndex(), SpanOptions{BodyStart: 2})
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if got := root.Children[1].Start; got != (Position{Page: 5}) {
		t.Errorf("expected definitions on page 5, got %v", got)
	}
}

func TestResolve_UserOffsetWins(t *testing.T) {
	root := Build("doc", []toc.Entry{
		entry("1 Introduction", 1, 1),
		entry("2 Definitions", 1, 3),
	})
	offset := 2
	Resolve(root, threeLevelIndex(), SpanOptions{BodyStart: 2, PageOffset: &offset})
	if got := root.Children[0].Start; got != (Position{Page: 3}) {
		t.Errorf("expected introduction on page 3, got %v", got)
	}
}

func TestResolve_AmbiguousOffsetWarnsOnRoot(t *testing.T) {
	ix := pageindex.FromText(
		"Contents",
		"Overview\ntext",
		"Overview\nmore text",
	)
	root := Build("doc", []toc.Entry{entry("Overview", 1, 2)})
	warnings := Resolve(root, ix, SpanOptions{BodyStart: 2})
	if len(root.Warnings) != 1 || root.Warnings[0].Reason != ReasonOffsetAmbiguous {
		t.Fatalf("expected ambiguous offset warning on root, got %v", root.Warnings)
	}
	if len(warnings) != 1 {
		t.Errorf("expected 1 warning, got %v", warnings)
	}
	if got := root.Children[0].Start; got != (Position{Page: 2}) {
		t.Errorf("expected offset 0 fallback, got %v", got)
	}
}

func TestResolve_SamePageSplit(t *testing.T) {
	pages := make([]string, 11)
	pages[0] = "Contents"
	for i := 1; i < 11; i++ {
		pages[i] = "filler"
	}
	pages[9] = "2.1 Overview\noverview text\n2.2 Details\ndetail text"
	root := Build("doc", []toc.Entry{
		entry("2.1 Overview", 1, 10),
		entry("2.2 Details", 1, 10),
	})
	warnings := Resolve(root, pageindex.FromText(pages...), SpanOptions{BodyStart: 2})
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	ov, det := root.Children[0], root.Children[1]
	if ov.Start != (Position{Page: 10, Line: 0}) || ov.End != (Position{Page: 10, Line: 2}) {
		t.Errorf("unexpected overview span %v-%v", ov.Start, ov.End)
	}
	if det.Start != ov.End {
		t.Errorf("expected details to start where overview ends, got %v", det.Start)
	}
}

func TestResolve_SamePageFallback(t *testing.T) {
	pages := make([]string, 11)
	pages[0] = "Contents"
	for i := 1; i < 11; i++ {
		pages[i] = "filler"
	}
	pages[9] = "2.1 Overview\noverview text\ndetail text"
	root := Build("doc", []toc.Entry{
		entry("2.1 Overview", 1, 10),
		entry("2.2 Details", 1, 10),
	})
	offset := 0
	warnings := Resolve(root, pageindex.FromText(pages...), SpanOptions{BodyStart: 2, PageOffset: &offset})
	ov, det := root.Children[0], root.Children[1]
	if ov.End != (Position{Page: 11}) {
		t.Errorf("expected overview to keep the full page, got end %v", ov.End)
	}
	if det.Start.Page != 10 || det.End != (Position{Page: 12}) {
		t.Errorf("unexpected details span %v-%v", det.Start, det.End)
	}
	if len(ov.Warnings) == 0 || len(det.Warnings) == 0 {
		t.Errorf("expected warnings on both sections, got %v and %v", ov.Warnings, det.Warnings)
	}
	if len(warnings) != 2 {
		t.Errorf("expected 2 warnings, got %d: %v", len(warnings), warnings)
	}
}

func TestResolve_SuspectEntryIsNotABoundary(t *testing.T) {
	ix := pageindex.FromText(
		"Contents",
		"1 Alpha\na",
		"a more",
		"2 Beta\nb",
		"4 Delta\nd",
	)
	root := Build("doc", []toc.Entry{
		entry("1 Alpha", 1, 2),
		entry("2 Beta", 1, 4),
		{Title: "3 Gamma", Level: 1, DeclaredPage: 3, Suspect: true},
		entry("4 Delta", 1, 5),
	})
	offset := 0
	Resolve(root, ix, SpanOptions{BodyStart: 2, PageOffset: &offset})
	beta, gamma, delta := root.Children[1], root.Children[2], root.Children[3]
	if beta.End != delta.Start {
		t.Errorf("expected beta to end at delta, got %v", beta.End)
	}
	if gamma.Start != delta.Start || gamma.End != gamma.Start {
		t.Errorf("expected empty suspect span at %v, got %v-%v", delta.Start, gamma.Start, gamma.End)
	}
	if len(gamma.Warnings) != 1 || gamma.Warnings[0].Reason != ReasonSuspectPage {
		t.Errorf("expected suspect warning, got %v", gamma.Warnings)
	}
}

func TestResolve_SuspectContainerChildrenStillBound(t *testing.T) {
	ix := pageindex.FromText(
		"Contents",
		"1 A\na",
		"2 B\nb",
		"3.1 D\nd",
		"4 E\ne",
	)
	root := Build("doc", []toc.Entry{
		entry("1 A", 1, 2),
		entry("2 B", 1, 3),
		{Title: "3 C", Level: 1, DeclaredPage: 2, Suspect: true},
		entry("3.1 D", 2, 4),
		entry("4 E", 1, 5),
	})
	offset := 0
	Resolve(root, ix, SpanOptions{BodyStart: 2, PageOffset: &offset})

	b, c, e := root.Children[1], root.Children[2], root.Children[3]
	d := c.Children[0]
	if b.End != d.Start {
		t.Errorf("expected 2 B to end where 3.1 D starts (%v), got %v", d.Start, b.End)
	}
	if c.Start != d.Start || c.End != e.Start {
		t.Errorf("expected suspect container to span %v-%v, got %v-%v", d.Start, e.Start, c.Start, c.End)
	}
	if d.End != e.Start {
		t.Errorf("expected 3.1 D to end at 4 E, got %v", d.End)
	}
	for i := 1; i < len(root.Children); i++ {
		if prev := root.Children[i-1]; root.Children[i].Start.Before(prev.End) {
			t.Errorf("%q overlaps %q", prev.Title, root.Children[i].Title)
		}
	}
}

func TestResolve_ClampsPagesOutsideBody(t *testing.T) {
	ix := pageindex.FromText("Contents", "1 A\ntext", "2 B\ntext")
	root := Build("doc", []toc.Entry{entry("1 A", 1, 2), entry("2 B", 1, 9)})
	offset := 0
	Resolve(root, ix, SpanOptions{BodyStart: 2, PageOffset: &offset})
	b := root.Children[1]
	if b.Start.Page != 3 {
		t.Errorf("expected clamp to last page, got %v", b.Start)
	}
	if len(b.Warnings) == 0 || b.Warnings[0].Reason != ReasonPageClamped {
		t.Errorf("expected clamp warning, got %v", b.Warnings)
	}
}

func TestResolve_WrappedHeading(t *testing.T) {
	ix := pageindex.FromText("Contents", "6.4.1 Source Capabilities\nMessage\nbody text")
	root := Build("doc", []toc.Entry{entry("6.4.1 Source Capabilities Message", 1, 2)})
	warnings := Resolve(root, ix, SpanOptions{BodyStart: 2})
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if n := root.Children[0]; n.HeadingLines != 2 || n.Start != (Position{Page: 2}) {
		t.Errorf("expected two-line heading at p2:l0, got %v lines at %v", n.HeadingLines, n.Start)
	}
}

// Spans must nest and siblings must tile for any level sequence.
func TestResolve_InvariantsHoldForRandomTrees(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for round := 0; round < 50; round++ {
		var entries []toc.Entry
		var body []string
		level := 1
		page := 2
		pages := map[int][]string{}
		for i := 0; i < 2+rng.IntN(30); i++ {
			level = max(1, min(level+rng.IntN(3)-1, 4))
			page += rng.IntN(2)
			title := "Section " + string(rune('A'+i%26)) + strings.Repeat("x", i/26)
			entries = append(entries, entry(title, level, page))
			pages[page] = append(pages[page], title, "text of "+title)
		}
		body = append(body, "Contents")
		for p := 2; p <= page; p++ {
			body = append(body, strings.Join(pages[p], "\n"))
		}
		ix := pageindex.FromText(body...)
		root := Build("doc", entries)
		offset := 0
		warnings := Resolve(root, ix, SpanOptions{BodyStart: 2, PageOffset: &offset})
		if len(warnings) != 0 {
			t.Fatalf("round %d: unexpected warnings %v", round, warnings)
		}
		root.Walk(func(n *SectionNode) {
			if n.End.Before(n.Start) {
				t.Errorf("round %d: %q ends before it starts", round, n.Title)
			}
			for i, c := range n.Children {
				if c.Start.Before(n.Start) || n.End.Before(c.End) {
					t.Errorf("round %d: %q %v-%v escapes parent %q %v-%v", round, c.Title, c.Start, c.End, n.Title, n.Start, n.End)
				}
				if i > 0 && n.Children[i-1].End != c.Start {
					t.Errorf("round %d: gap between %q and %q", round, n.Children[i-1].Title, c.Title)
				}
			}
		})
	}
}

func TestLocateHeading(t *testing.T) {
	page, _ := pageindex.FromText("Intro\n1.1  SCOPE\nScope text\n1.1 Scope").Page(1)
	if line, span, ok := locateHeading(page, "1.1 Scope", 0); !ok || line != 1 || span != 1 {
		t.Errorf("expected case and space insensitive match on line 1, got %d,%d,%v", line, span, ok)
	}
	if line, _, ok := locateHeading(page, "1.1 Scope", 2); !ok || line != 3 {
		t.Errorf("expected search from line 2 to find line 3, got %d,%v", line, ok)
	}
	if _, _, ok := locateHeading(page, "2 Missing", 0); ok {
		t.Error("expected no match")
	}
}
