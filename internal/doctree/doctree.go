// Package doctree holds the section tree rebuilt from a table of contents
// and resolves the page/line span each section's content occupies.
package doctree

import "fmt"

// Position is a point in the page text index: a 1-based page number and a
// 0-based line offset within that page.
type Position struct {
	Page int
	Line int
}

// Compare returns -1, 0 or +1 in document order.
func (p Position) Compare(q Position) int {
	switch {
	case p.Page < q.Page:
		return -1
	case p.Page > q.Page:
		return 1
	case p.Line < q.Line:
		return -1
	case p.Line > q.Line:
		return 1
	}
	return 0
}

// Before reports whether p comes strictly before q.
func (p Position) Before(q Position) bool { return p.Compare(q) < 0 }

func (p Position) String() string { return fmt.Sprintf("p%d:l%d", p.Page, p.Line) }

// SectionNode is one heading of the document. The root is synthetic
// (Level 0) and spans the whole body.
type SectionNode struct {
	Title    string
	Level    int
	Children []*SectionNode

	Start Position // first line of the heading
	End   Position // exclusive

	Content string // own text: the whole span for leaves, the preamble for containers

	DeclaredPage int  // page printed in the TOC
	Suspect      bool // declared page went backwards in the TOC
	HeadingLines int  // lines the heading itself occupies at Start; 0 if not located

	Warnings []AmbiguousSpanWarning
}

// ContentEnd is where the node's own text stops: the first child's start
// for containers, End for leaves.
func (n *SectionNode) ContentEnd() Position {
	if len(n.Children) > 0 {
		first := n.Children[0].Start
		if first.Before(n.End) {
			return first
		}
	}
	return n.End
}

// Walk visits n and its descendants in pre-order.
func (n *SectionNode) Walk(fn func(*SectionNode)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Descendants returns every node below n in pre-order (TOC order).
func (n *SectionNode) Descendants() []*SectionNode {
	var out []*SectionNode
	for _, c := range n.Children {
		c.Walk(func(d *SectionNode) { out = append(out, d) })
	}
	return out
}

// Count returns the number of nodes below n.
func (n *SectionNode) Count() int {
	return len(n.Descendants())
}

func (n *SectionNode) warn(w AmbiguousSpanWarning) {
	n.Warnings = append(n.Warnings, w)
}
