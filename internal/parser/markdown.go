package parser

import (
	"io"

	"github.com/dgallion1/docpersona/internal/outline"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. ATX and setext
// headings keep their declared depth.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*outline.Outline, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, malformed(err)
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	headings := []outline.Heading{}
	firstH1 := ""
	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		node, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		title := string(node.Text(src))
		if node.Level == 1 && firstH1 == "" {
			firstH1 = title
		}
		if h, ok := structuredHeading(node.Level, title, 1); ok {
			headings = append(headings, h)
		}
		return ast.WalkSkipChildren, nil
	})
	if err != nil {
		return nil, malformed(err)
	}

	return outline.New(structuredTitle("", firstH1), headings, filename), nil
}
