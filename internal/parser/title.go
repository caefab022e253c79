package parser

import (
	"sort"
	"strings"

	"github.com/dgallion1/docpersona/internal/outline"
)

const (
	titleScanBlocks = 5
	titleMinLen     = 10
	titleMaxLen     = 200
	titleMinSize    = 14.0
	metaTitleMinLen = 3
)

var titleStopPrefixes = []string{"abstract", "introduction", "chapter"}

type titleCandidate struct {
	text string
	size float64
	top  float64
}

// selectTitle picks the largest, highest span among the first blocks of page
// one, then falls back to the metadata title.
func selectTitle(l *Layout) string {
	var candidates []titleCandidate
	if len(l.Pages) > 0 {
		blocks := l.Pages[0].Blocks
		if len(blocks) > titleScanBlocks {
			blocks = blocks[:titleScanBlocks]
		}
		for _, b := range blocks {
			for _, line := range b.Lines {
				for _, s := range line.Spans {
					text := strings.TrimSpace(s.Text)
					if isTitleCandidate(text, s.Size) {
						candidates = append(candidates, titleCandidate{text: text, size: s.Size, top: s.Top})
					}
				}
			}
		}
	}

	if len(candidates) > 0 {
		sort.SliceStable(candidates, func(i, j int) bool {
			if candidates[i].size != candidates[j].size {
				return candidates[i].size > candidates[j].size
			}
			return candidates[i].top < candidates[j].top
		})
		return candidates[0].text
	}

	if meta := strings.TrimSpace(l.MetaTitle); runeLen(meta) > metaTitleMinLen {
		return meta
	}
	return outline.UntitledDocument
}

func isTitleCandidate(text string, size float64) bool {
	return size > titleMinSize && hasTitleShape(text)
}

// hasTitleShape applies the length and leading-word filters for titles.
func hasTitleShape(text string) bool {
	n := runeLen(text)
	if n <= titleMinLen || n >= titleMaxLen {
		return false
	}
	lower := strings.ToLower(text)
	for _, p := range titleStopPrefixes {
		if strings.HasPrefix(lower, p) {
			return false
		}
	}
	return true
}
