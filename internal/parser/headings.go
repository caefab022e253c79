package parser

import (
	"math"
	"regexp"
	"sort"

	"github.com/dgallion1/docpersona/internal/outline"
)

const (
	minLineLen        = 3   // lines this short are noise
	maxHeadingLen     = 150 // longer lines are paragraphs
	maxBoldHeadingLen = 100
)

var (
	numberedHeadingRe = regexp.MustCompile(`^\d+\.?\s+[A-Z]`)
	upperHeadingRe    = regexp.MustCompile(`^[A-Z][A-Z\s]+$`)
	chapterHeadingRe  = regexp.MustCompile(`(?i)^Chapter\s+\d+`)
	subsectionRe      = regexp.MustCompile(`^\d+\.\d+\.?\s+`)
)

// Thresholds are the minimum font sizes for each heading level.
type Thresholds struct {
	H1, H2, H3 float64
}

// sizelessThresholds disables size-based detection for formats without fonts.
var sizelessThresholds = Thresholds{H1: math.Inf(1), H2: math.Inf(1), H3: math.Inf(1)}

// DeriveThresholds maps the distinct font sizes of a document to level
// thresholds. With four or more sizes the largest is assumed to be the title.
func DeriveThresholds(sizes []float64) Thresholds {
	distinct := distinctDescending(sizes)
	switch {
	case len(distinct) >= 4:
		return Thresholds{H1: distinct[1], H2: distinct[2], H3: distinct[3]}
	case len(distinct) >= 3:
		return Thresholds{H1: distinct[0], H2: distinct[1], H3: distinct[2]}
	case len(distinct) == 0:
		return sizelessThresholds
	default:
		m := median(distinct)
		return Thresholds{H1: m + 2, H2: m + 1, H3: m}
	}
}

func distinctDescending(sizes []float64) []float64 {
	seen := make(map[float64]bool, len(sizes))
	var out []float64
	for _, s := range sizes {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(out)))
	return out
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// lineInfo is a line reduced to the features the heading rules look at.
type lineInfo struct {
	text string
	size float64
	bold bool
	page int
}

type headingRule struct {
	name  string
	match func(l lineInfo, t Thresholds) bool
}

// detectionRules decide whether a line is a heading; any match qualifies.
var detectionRules = []headingRule{
	{"size", func(l lineInfo, t Thresholds) bool { return l.size >= t.H3 }},
	{"numbered", func(l lineInfo, _ Thresholds) bool { return numberedHeadingRe.MatchString(l.text) }},
	{"uppercase", func(l lineInfo, _ Thresholds) bool { return upperHeadingRe.MatchString(l.text) }},
	{"chapter", func(l lineInfo, _ Thresholds) bool { return chapterHeadingRe.MatchString(l.text) }},
	{"bold", func(l lineInfo, _ Thresholds) bool { return l.bold && runeLen(l.text) < maxBoldHeadingLen }},
	{"subsection", func(l lineInfo, _ Thresholds) bool { return subsectionRe.MatchString(l.text) }},
}

type levelRule struct {
	level outline.Level
	match func(l lineInfo, t Thresholds) bool
}

// levelRules are evaluated in order; the first match assigns the level.
var levelRules = []levelRule{
	{outline.H1, func(l lineInfo, t Thresholds) bool {
		return l.size >= t.H1 || numberedHeadingRe.MatchString(l.text)
	}},
	{outline.H2, func(l lineInfo, t Thresholds) bool {
		return l.size >= t.H2 || subsectionRe.MatchString(l.text)
	}},
	{outline.H3, func(lineInfo, Thresholds) bool { return true }},
}

// classifyLine returns the heading for a line, or false when the line is body
// text or cleans down to nothing.
func classifyLine(l lineInfo, t Thresholds) (outline.Heading, bool) {
	if runeLen(l.text) <= minLineLen || runeLen(l.text) > maxHeadingLen {
		return outline.Heading{}, false
	}
	if matchingRule(l, t) == "" {
		return outline.Heading{}, false
	}

	var level outline.Level
	for _, r := range levelRules {
		if r.match(l, t) {
			level = r.level
			break
		}
	}

	text := outline.CleanHeadingText(l.text)
	if text == "" {
		return outline.Heading{}, false
	}
	return outline.Heading{Level: level, Text: text, Page: l.page}, true
}

// matchingRule names the first detection rule a line satisfies, or "".
func matchingRule(l lineInfo, t Thresholds) string {
	for _, r := range detectionRules {
		if r.match(l, t) {
			return r.name
		}
	}
	return ""
}

// collectLines flattens the layout into document order, dropping noise lines.
func collectLines(l *Layout) []lineInfo {
	var lines []lineInfo
	for _, p := range l.Pages {
		for _, b := range p.Blocks {
			for _, line := range b.Lines {
				text := line.Text()
				if runeLen(text) <= minLineLen {
					continue
				}
				lines = append(lines, lineInfo{
					text: text,
					size: line.Size(),
					bold: line.Bold(),
					page: p.Number,
				})
			}
		}
	}
	return lines
}

// detectHeadings finds headings across the layout in page then line order.
func detectHeadings(l *Layout) []outline.Heading {
	lines := collectLines(l)
	sizes := make([]float64, 0, len(lines))
	for _, line := range lines {
		sizes = append(sizes, line.size)
	}
	return headingsFrom(lines, DeriveThresholds(sizes))
}

func headingsFrom(lines []lineInfo, t Thresholds) []outline.Heading {
	headings := []outline.Heading{}
	for _, line := range lines {
		if h, ok := classifyLine(line, t); ok {
			headings = append(headings, h)
		}
	}
	return headings
}

// BuildOutline runs the title and heading heuristics over a layout.
func BuildOutline(l *Layout, filename string) *outline.Outline {
	return outline.New(selectTitle(l), detectHeadings(l), filename)
}
