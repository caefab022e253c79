package parser

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/dgallion1/docpersona/internal/outline"
	pdflib "github.com/ledongthuc/pdf"
)

const (
	defaultPageHeight = 792.0 // US Letter, used when MediaBox is missing
	glyphsPerLine     = 400
	blockGapFactor    = 1.5
	spaceGapFactor    = 0.2
)

// PDFParser extracts title and headings from PDF font and position data.
type PDFParser struct {
	Options Options
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*outline.Outline, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	layout, err := ReadPDFLayout(data, p.Options)
	if err != nil {
		return nil, err
	}
	return BuildOutline(layout, filename), nil
}

// ReadPDFLayout reads the positioned text of a PDF. Work is bounded by
// opts regardless of what the document claims about itself.
func ReadPDFLayout(data []byte, opts Options) (layout *Layout, err error) {
	if opts.MaxPages <= 0 || opts.MaxLinesPerPage <= 0 {
		opts = DefaultOptions()
	}
	// The pdf library panics on some corrupt streams.
	defer func() {
		if r := recover(); r != nil {
			layout = nil
			err = malformed(fmt.Errorf("pdf reader panic: %v", r))
		}
	}()

	if len(data) == 0 {
		return nil, malformed(fmt.Errorf("empty input"))
	}
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, malformed(err)
	}
	numPages := reader.NumPage()
	if numPages <= 0 {
		return nil, malformed(fmt.Errorf("document has no pages"))
	}
	if numPages > opts.MaxPages {
		numPages = opts.MaxPages
	}

	layout = &Layout{
		MetaTitle: reader.Trailer().Key("Info").Key("Title").Text(),
	}
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		pg := Page{Number: i}
		if !page.V.IsNull() {
			pg.Blocks = pageBlocks(page, opts.MaxLinesPerPage)
		}
		layout.Pages = append(layout.Pages, pg)
	}
	return layout, nil
}

func pageBlocks(page pdflib.Page, maxLines int) []Block {
	height := pageHeight(page)
	glyphs := page.Content().Text
	if limit := maxLines * glyphsPerLine; len(glyphs) > limit {
		glyphs = glyphs[:limit]
	}
	lines := groupLines(glyphs, height, maxLines)
	return groupBlocks(lines)
}

func pageHeight(page pdflib.Page) float64 {
	box := page.V.Key("MediaBox")
	if box.Len() == 4 {
		if h := box.Index(3).Float64() - box.Index(1).Float64(); h > 0 {
			return h
		}
	}
	return defaultPageHeight
}

// positionedLine is a line plus the geometry needed to split blocks.
type positionedLine struct {
	line Line
	top  float64
	size float64
}

// groupLines turns glyphs in content-stream order into lines of spans. A new
// line starts when the baseline moves or the pen jumps back to the left.
func groupLines(glyphs []pdflib.Text, height float64, maxLines int) []positionedLine {
	var (
		lines   []positionedLine
		spans   []Span
		cur     strings.Builder
		curSpan Span
		lastX   float64
		lastY   float64
		started bool
	)

	flushSpan := func() {
		if cur.Len() > 0 {
			curSpan.Text = cur.String()
			spans = append(spans, curSpan)
		}
		cur.Reset()
	}
	flushLine := func() {
		flushSpan()
		if len(spans) > 0 {
			l := Line{Spans: spans}
			top := spans[0].Top
			for _, s := range spans {
				top = math.Min(top, s.Top)
			}
			lines = append(lines, positionedLine{line: l, top: top, size: l.Size()})
		}
		spans = nil
	}

	for _, g := range glyphs {
		if len(lines) >= maxLines {
			break
		}
		size := roundSize(g.FontSize)
		tol := math.Max(size, 1) * 0.5
		newLine := started && (math.Abs(g.Y-lastY) > tol || g.X < lastX-math.Max(size, 1)*2)
		if newLine {
			flushLine()
		}

		bold := isBoldFont(g.Font)
		if cur.Len() == 0 || curSpan.Size != size || curSpan.Bold != bold {
			flushSpan()
			curSpan = Span{Size: size, Bold: bold, Top: height - g.Y - size}
		} else if g.X-lastX > size*spaceGapFactor {
			cur.WriteByte(' ')
		}
		cur.WriteString(g.S)

		lastX = g.X + g.W
		lastY = g.Y
		started = true
	}
	if len(lines) < maxLines {
		flushLine()
	}
	return lines
}

// groupBlocks splits lines into blocks at large vertical gaps.
func groupBlocks(lines []positionedLine) []Block {
	var blocks []Block
	var cur []Line
	for i, pl := range lines {
		if i > 0 {
			prev := lines[i-1]
			gap := pl.top - prev.top
			if gap < 0 || gap > blockGapFactor*math.Max(prev.size, 1)+prev.size {
				blocks = append(blocks, Block{Lines: cur})
				cur = nil
			}
		}
		cur = append(cur, pl.line)
	}
	if len(cur) > 0 {
		blocks = append(blocks, Block{Lines: cur})
	}
	return blocks
}

func isBoldFont(name string) bool {
	n := strings.ToLower(name)
	return strings.Contains(n, "bold") || strings.Contains(n, "black") || strings.Contains(n, "heavy")
}

// roundSize collapses floating point noise so equal sizes compare equal.
func roundSize(size float64) float64 {
	return math.Round(size*100) / 100
}
