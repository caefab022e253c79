package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/docpersona/internal/outline"
)

// TextParser handles plain text files. Form feeds separate pages. Without
// font data only the pattern rules can mark a line as a heading.
type TextParser struct {
	MaxLines int
}

func (p *TextParser) Parse(r io.Reader, filename string) (*outline.Outline, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []lineInfo
	title := ""
	page := 1
	count := 0
	for scanner.Scan() {
		if p.MaxLines > 0 && count >= p.MaxLines {
			break
		}
		count++
		raw := scanner.Text()
		for strings.Contains(raw, "\f") {
			i := strings.Index(raw, "\f")
			if before := strings.TrimSpace(raw[:i]); before != "" {
				lines = appendTextLine(lines, before, page)
			}
			page++
			raw = raw[i+1:]
		}
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if title == "" && len(lines) == 0 && hasTitleShape(line) {
			title = line
		}
		lines = appendTextLine(lines, line, page)
	}
	if err := scanner.Err(); err != nil {
		return nil, malformed(err)
	}

	if title == "" {
		title = outline.UntitledDocument
	}
	return outline.New(title, headingsFrom(lines, sizelessThresholds), filename), nil
}

func appendTextLine(lines []lineInfo, text string, page int) []lineInfo {
	text = strings.Join(strings.Fields(text), " ")
	if runeLen(text) <= minLineLen {
		return lines
	}
	return append(lines, lineInfo{text: text, page: page})
}
