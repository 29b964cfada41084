package render

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	"golang.org/x/net/html"
)

// HTMLRenderer turns a section tree into sanitized HTML via Markdown. It is
// safe for concurrent use.
type HTMLRenderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func NewHTMLRenderer() *HTMLRenderer {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("id").Matching(regexp.MustCompile(`^[\w-]+$`)).OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	return &HTMLRenderer{
		md:     goldmark.New(goldmark.WithParserOptions(parser.WithAutoHeadingID())),
		policy: policy,
	}
}

// Fragment renders the tree body without a document shell.
func (r *HTMLRenderer) Fragment(s Section) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(Markdown(s)), &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	return r.policy.SanitizeBytes(buf.Bytes()), nil
}

// Page renders a standalone document with an outline of the headings.
func (r *HTMLRenderer) Page(s Section) ([]byte, error) {
	body, err := r.Fragment(s)
	if err != nil {
		return nil, err
	}
	outline, err := Outline(body)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	err = pageTmpl.Execute(&buf, struct {
		Title   string
		Outline []Heading
		Body    template.HTML
	}{
		Title:   s.Title,
		Outline: outline,
		Body:    template.HTML(body), // sanitized above
	})
	if err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return buf.Bytes(), nil
}

// Heading is one h1-h6 element found in rendered markup.
type Heading struct {
	Level int
	ID    string
	Text  string
}

// Outline lists the headings of an HTML fragment in document order.
func Outline(fragment []byte) ([]Heading, error) {
	doc, err := html.Parse(bytes.NewReader(fragment))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	var out []Heading
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				out = append(out, Heading{Level: level, ID: attr(n, "id"), Text: textContent(n)})
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out, nil
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 0; display: flex; }
nav { width: 18rem; padding: 1rem; border-right: 1px solid #ddd; height: 100vh; overflow-y: auto; position: sticky; top: 0; font-size: 0.9rem; }
nav a { display: block; text-decoration: none; color: #225; padding: 0.1rem 0; }
main { padding: 1rem 2rem; max-width: 60rem; }
</style>
</head>
<body>
<nav>
{{range .Outline}}<a href="#{{.ID}}" style="padding-left: {{.Level}}em">{{.Text}}</a>
{{end}}</nav>
<main>
{{.Body}}
</main>
</body>
</html>
`))
