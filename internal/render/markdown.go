package render

import (
	"regexp"
	"strings"
)

var (
	inlineEscaper = strings.NewReplacer(
		`\`, `\\`, "`", "\\`", `*`, `\*`, `_`, `\_`, `[`, `\[`, `]`, `\]`, `<`, `\<`,
	)
	// Characters that start a block construct at the beginning of a line.
	blockStartRe = regexp.MustCompile(`^([#>+=|~-]|\d+[.)](\s|$))`)
)

// Markdown renders the tree as a Markdown document. The root becomes an H1
// and a section of level L an H(L+1), capped at H6.
func Markdown(root Section) string {
	var b strings.Builder
	writeMarkdown(&b, root)
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeMarkdown(b *strings.Builder, s Section) {
	depth := min(s.Level+1, 6)
	b.WriteString(strings.Repeat("#", depth))
	b.WriteByte(' ')
	b.WriteString(escapeInline(s.Title))
	b.WriteString("\n\n")

	if s.Content != "" {
		for _, para := range strings.Split(s.Content, "\n\n") {
			lines := strings.Split(para, "\n")
			for i, l := range lines {
				lines[i] = escapeLine(l)
			}
			// Trailing double space keeps the PDF line breaks.
			b.WriteString(strings.Join(lines, "  \n"))
			b.WriteString("\n\n")
		}
	}
	for _, c := range s.Subsections {
		writeMarkdown(b, c)
	}
}

func escapeInline(s string) string {
	return inlineEscaper.Replace(s)
}

func escapeLine(s string) string {
	s = escapeInline(s)
	if blockStartRe.MatchString(s) {
		return `\` + s
	}
	return s
}
