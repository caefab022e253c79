package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/dgallion1/docpersona/internal/outline"
	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files. Paragraph styles "Heading N" set the depth
// and a "Title" styled paragraph sets the title.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*outline.Outline, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, malformed(err)
	}
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, malformed(err)
	}

	headings := []outline.Heading{}
	title, firstH1 := "", ""
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := docxParagraphText(para)
		if text == "" {
			continue
		}
		if title == "" && docxIsTitle(para) {
			title = text
			continue
		}
		level := docxHeadingLevel(para)
		if level == 0 {
			continue
		}
		if level == 1 && firstH1 == "" {
			firstH1 = text
		}
		if h, ok := structuredHeading(level, text, 1); ok {
			headings = append(headings, h)
		}
	}

	return outline.New(structuredTitle(title, firstH1), headings, filename), nil
}

func docxStyle(para *docx.Paragraph) string {
	if para.Properties == nil || para.Properties.Style == nil {
		return ""
	}
	return strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
}

func docxIsTitle(para *docx.Paragraph) bool {
	return docxStyle(para) == "title"
}

func docxHeadingLevel(para *docx.Paragraph) int {
	style := docxStyle(para)
	if !strings.HasPrefix(style, "heading") {
		return 0
	}
	switch strings.TrimPrefix(style, "heading") {
	case "1":
		return 1
	case "2":
		return 2
	case "3":
		return 3
	case "4":
		return 4
	case "5":
		return 5
	case "6":
		return 6
	}
	return 0
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
