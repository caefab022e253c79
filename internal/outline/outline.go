package outline

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Level is a heading depth.
type Level string

const (
	H1 Level = "H1"
	H2 Level = "H2"
	H3 Level = "H3"
)

// UntitledDocument is the title used when no candidate or metadata title exists.
const UntitledDocument = "Untitled Document"

// Heading is a single detected section heading.
type Heading struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
	Page  int    `json:"page"` // 1-based
}

// Outline is the extracted title and heading sequence for one document.
// Headings are kept in document order.
type Outline struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Headings  []Heading `json:"outline"`
	Filename  string    `json:"filename"`
	CreatedAt time.Time `json:"timestamp"`
}

// New creates an outline record with a fresh id and creation time.
func New(title string, headings []Heading, filename string) *Outline {
	if headings == nil {
		headings = []Heading{}
	}
	return &Outline{
		ID:        uuid.NewString(),
		Title:     title,
		Headings:  headings,
		Filename:  filename,
		CreatedAt: time.Now().UTC(),
	}
}

// RankedSection is one entry of an analysis' top sections.
type RankedSection struct {
	Document     string `json:"document"`
	PageNumber   int    `json:"page_number"`
	SectionTitle string `json:"section_title"`
	Rank         int    `json:"importance_rank"`
}

// RefinedExcerpt is a persona/task annotated section.
type RefinedExcerpt struct {
	Document    string `json:"document"`
	RefinedText string `json:"refined_text"`
	PageNumber  int    `json:"page_number"`
}

// AnalysisResult is the output of one persona ranking request.
type AnalysisResult struct {
	ID              string           `json:"id"`
	Persona         string           `json:"persona"`
	Task            string           `json:"job_to_be_done"`
	InputDocuments  []string         `json:"input_documents"`
	CreatedAt       time.Time        `json:"processing_timestamp"`
	RankedSections  []RankedSection  `json:"extracted_sections"`
	RefinedExcerpts []RefinedExcerpt `json:"sub_section_analysis"`
}

var (
	numberPrefixRe     = regexp.MustCompile(`^\d+\.?\s*`)
	subsectionPrefixRe = regexp.MustCompile(`^\d+\.\d+\.?\s*`)
)

// CleanHeadingText strips a leading "1." then a leading "1.2." style number,
// repeating until no numeric prefix is left so the result is stable.
func CleanHeadingText(text string) string {
	for {
		cleaned := numberPrefixRe.ReplaceAllString(text, "")
		cleaned = subsectionPrefixRe.ReplaceAllString(cleaned, "")
		cleaned = strings.TrimSpace(cleaned)
		if cleaned == text {
			return cleaned
		}
		text = cleaned
	}
}
