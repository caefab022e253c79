package parser

import (
	"strings"
	"unicode/utf8"
)

// Span is a run of text drawn with a single font and size.
type Span struct {
	Text string
	Size float64
	Bold bool
	Top  float64 // distance from the top of the page; smaller is higher
}

// Line is a row of spans sharing a baseline.
type Line struct {
	Spans []Span
}

// Text joins the non-blank spans with single spaces.
func (l Line) Text() string {
	var parts []string
	for _, s := range l.Spans {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// Size is the largest font size among non-blank spans.
func (l Line) Size() float64 {
	var size float64
	for _, s := range l.Spans {
		if strings.TrimSpace(s.Text) != "" && s.Size > size {
			size = s.Size
		}
	}
	return size
}

// Bold reports whether any non-blank span is bold.
func (l Line) Bold() bool {
	for _, s := range l.Spans {
		if strings.TrimSpace(s.Text) != "" && s.Bold {
			return true
		}
	}
	return false
}

// Block is a group of vertically adjacent lines.
type Block struct {
	Lines []Line
}

// Page holds the blocks of one page in reading order.
type Page struct {
	Number int // 1-based
	Blocks []Block
}

// Layout is the positioned text of a whole document.
type Layout struct {
	Pages     []Page
	MetaTitle string
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
