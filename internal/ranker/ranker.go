package ranker

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/dgallion1/docpersona/internal/outline"
	"github.com/google/uuid"
)

var (
	ErrNoDocumentsFound   = errors.New("no documents found")
	ErrRankingUnavailable = errors.New("ranking unavailable")
)

const (
	personaTokenBonus = 0.1
	taskTokenBonus    = 0.15
	maxKeywordBonus   = 0.5
)

// Options controls selection sizes and the vectorizer vocabulary cap.
type Options struct {
	TopSections int
	TopExcerpts int
	MaxFeatures int
}

// DefaultOptions returns 10 sections, 5 excerpts and a 1000 term vocabulary.
func DefaultOptions() Options {
	return Options{TopSections: 10, TopExcerpts: 5, MaxFeatures: defaultMaxFeatures}
}

// Ranker scores every heading of a document set against a persona and task.
// It holds no fitted state; each Rank call builds its own vectorizer.
type Ranker struct {
	opts          Options
	newVectorizer func() Vectorizer
}

func New(opts Options) *Ranker {
	d := DefaultOptions()
	if opts.TopSections <= 0 {
		opts.TopSections = d.TopSections
	}
	if opts.TopExcerpts <= 0 {
		opts.TopExcerpts = d.TopExcerpts
	}
	if opts.MaxFeatures <= 0 {
		opts.MaxFeatures = d.MaxFeatures
	}
	r := &Ranker{opts: opts}
	r.newVectorizer = func() Vectorizer { return NewTFIDF(r.opts.MaxFeatures) }
	return r
}

// candidate is a heading paired with the document it came from.
type candidate struct {
	document string
	heading  outline.Heading
	score    float64
}

// Rank builds an analysis for persona and task over docs. It fails with
// ErrNoDocumentsFound when docs is empty and ErrRankingUnavailable when the
// vectorizer cannot be fitted after one retry. Documents without headings
// produce empty section lists.
func (r *Ranker) Rank(persona, task string, docs []*outline.Outline) (*outline.AnalysisResult, error) {
	if len(docs) == 0 {
		return nil, ErrNoDocumentsFound
	}

	result := &outline.AnalysisResult{
		ID:              uuid.NewString(),
		Persona:         persona,
		Task:            task,
		InputDocuments:  make([]string, 0, len(docs)),
		CreatedAt:       time.Now().UTC(),
		RankedSections:  []outline.RankedSection{},
		RefinedExcerpts: []outline.RefinedExcerpt{},
	}

	var candidates []candidate
	corpus := []string{persona + " " + task}
	for _, doc := range docs {
		result.InputDocuments = append(result.InputDocuments, doc.Filename)
		for _, h := range doc.Headings {
			candidates = append(candidates, candidate{document: doc.Filename, heading: h})
			corpus = append(corpus, h.Text)
		}
	}
	if len(candidates) == 0 {
		return result, nil
	}

	vectors, err := r.fit(corpus)
	if err != nil {
		return nil, err
	}
	query := vectors[0]
	for i := range candidates {
		text := candidates[i].heading.Text
		candidates[i].score = query.Dot(vectors[i+1]) + KeywordBonus(text, persona, task)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	for i, c := range candidates[:min(r.opts.TopSections, len(candidates))] {
		result.RankedSections = append(result.RankedSections, outline.RankedSection{
			Document:     c.document,
			PageNumber:   c.heading.Page,
			SectionTitle: c.heading.Text,
			Rank:         i + 1,
		})
	}
	for _, c := range candidates[:min(r.opts.TopExcerpts, len(candidates))] {
		result.RefinedExcerpts = append(result.RefinedExcerpts, outline.RefinedExcerpt{
			Document:    c.document,
			RefinedText: RefineText(c.heading.Text, persona, task),
			PageNumber:  c.heading.Page,
		})
	}
	return result, nil
}

// fit vectorizes the corpus, recreating the vectorizer once on failure.
func (r *Ranker) fit(corpus []string) ([]Vector, error) {
	vectors, err := r.newVectorizer().FitTransform(corpus)
	if err == nil {
		return vectors, nil
	}
	vectors, err = r.newVectorizer().FitTransform(corpus)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRankingUnavailable, err)
	}
	return vectors, nil
}

// KeywordBonus adds 0.1 for every whitespace token of persona and 0.15 for
// every token of task found as a substring of text, capped at 0.5.
// Matching is case-insensitive and repeated tokens count each time.
func KeywordBonus(text, persona, task string) float64 {
	lower := strings.ToLower(text)
	var bonus float64
	for _, tok := range strings.Fields(strings.ToLower(persona)) {
		if strings.Contains(lower, tok) {
			bonus += personaTokenBonus
		}
	}
	for _, tok := range strings.Fields(strings.ToLower(task)) {
		if strings.Contains(lower, tok) {
			bonus += taskTokenBonus
		}
	}
	return math.Min(bonus, maxKeywordBonus)
}

// RefineText annotates a section title with the persona and task.
func RefineText(text, persona, task string) string {
	return "[" + persona + "] " + text + " - Relevant for: " + task
}
