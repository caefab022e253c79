package parser

import (
	"strings"

	"github.com/dgallion1/docpersona/internal/outline"
)

// levelForDepth maps an explicit heading depth (1 for h1) to an outline level.
func levelForDepth(depth int) outline.Level {
	switch {
	case depth <= 1:
		return outline.H1
	case depth == 2:
		return outline.H2
	default:
		return outline.H3
	}
}

// structuredHeading builds a heading from a format that tags levels itself.
func structuredHeading(depth int, text string, page int) (outline.Heading, bool) {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" || runeLen(text) > maxHeadingLen {
		return outline.Heading{}, false
	}
	clean := outline.CleanHeadingText(text)
	if clean == "" {
		return outline.Heading{}, false
	}
	return outline.Heading{Level: levelForDepth(depth), Text: clean, Page: page}, true
}

// structuredTitle prefers an explicit title, then the first top-level heading.
func structuredTitle(explicit, firstH1 string) string {
	if t := strings.TrimSpace(explicit); t != "" {
		return t
	}
	if t := strings.TrimSpace(firstH1); t != "" {
		return t
	}
	return outline.UntitledDocument
}
