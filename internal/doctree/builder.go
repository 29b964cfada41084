package doctree

import "github.com/dgallion1/tocsplit/internal/toc"

// Build nests TOC entries under a synthetic root purely from their level
// sequence. Pre-order traversal of the result reproduces the entry order.
func Build(title string, entries []toc.Entry) *SectionNode {
	root := &SectionNode{Title: title, Level: 0}

	// Stack of open ancestors; the root (level 0) is never popped.
	stack := []*SectionNode{root}
	for _, e := range entries {
		level := e.Level
		if level < 1 {
			level = 1
		}
		node := &SectionNode{
			Title:        e.Title,
			Level:        level,
			DeclaredPage: e.DeclaredPage,
			Suspect:      e.Suspect,
		}
		for len(stack) > 1 && stack[len(stack)-1].Level >= level {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1]
		parent.Children = append(parent.Children, node)
		stack = append(stack, node)
	}
	return root
}
