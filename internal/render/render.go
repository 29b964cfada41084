// Package render serializes a resolved section tree: the JSON document
// handed back to callers, plus Markdown and HTML previews.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dgallion1/tocsplit/internal/doctree"
)

// Section is the serialized shape of one node. Field order is the key order
// of the output.
type Section struct {
	Title       string    `json:"title"`
	Level       int       `json:"level"`
	Content     string    `json:"content"`
	Subsections []Section `json:"subsections"`
}

// FromTree converts a node and its descendants. Spans and warnings are
// internal and not carried over.
func FromTree(n *doctree.SectionNode) Section {
	s := Section{
		Title:       n.Title,
		Level:       n.Level,
		Content:     n.Content,
		Subsections: make([]Section, 0, len(n.Children)),
	}
	for _, c := range n.Children {
		s.Subsections = append(s.Subsections, FromTree(c))
	}
	return s
}

// JSON encodes the tree as UTF-8 JSON with two-space indentation. Output is
// byte-identical for identical trees.
func JSON(root *doctree.SectionNode) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(FromTree(root)); err != nil {
		return nil, fmt.Errorf("encode section tree: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeJSON parses a document produced by JSON.
func DecodeJSON(data []byte) (Section, error) {
	var s Section
	if err := json.Unmarshal(data, &s); err != nil {
		return Section{}, fmt.Errorf("decode section tree: %w", err)
	}
	normalize(&s)
	return s, nil
}

// normalize replaces null subsections with empty slices so decoded trees
// compare equal to encoded ones.
func normalize(s *Section) {
	if s.Subsections == nil {
		s.Subsections = []Section{}
	}
	for i := range s.Subsections {
		normalize(&s.Subsections[i])
	}
}

// Count returns the number of sections below s.
func (s Section) Count() int {
	n := len(s.Subsections)
	for _, c := range s.Subsections {
		n += c.Count()
	}
	return n
}
