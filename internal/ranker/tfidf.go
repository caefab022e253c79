package ranker

import (
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// ErrEmptyVocabulary is returned by FitTransform when no corpus item
// contributes a single term after stop word removal.
var ErrEmptyVocabulary = errors.New("empty vocabulary: corpus contains only stop words")

const defaultMaxFeatures = 1000

var tokenRe = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Vector is a sparse L2-normalised term weight vector keyed by vocabulary index.
type Vector map[int]float64

// Dot returns the inner product of two vectors. For normalised vectors this
// is their cosine similarity; an all-zero vector yields 0.
func (v Vector) Dot(o Vector) float64 {
	if len(o) < len(v) {
		v, o = o, v
	}
	var sum float64
	for i, w := range v {
		sum += w * o[i]
	}
	return sum
}

// Vectorizer fits a vocabulary on a corpus and returns one vector per item.
// A fitted vectorizer is only valid for the corpus it was fitted on.
type Vectorizer interface {
	FitTransform(corpus []string) ([]Vector, error)
}

// TFIDF is a term frequency, inverse document frequency vectorizer with
// smoothed idf and L2 row normalisation.
type TFIDF struct {
	MaxFeatures int

	vocabulary map[string]int
}

// NewTFIDF returns a vectorizer capped at maxFeatures terms.
func NewTFIDF(maxFeatures int) *TFIDF {
	if maxFeatures <= 0 {
		maxFeatures = defaultMaxFeatures
	}
	return &TFIDF{MaxFeatures: maxFeatures}
}

// Vocabulary returns the term index of the last fit.
func (t *TFIDF) Vocabulary() map[string]int {
	return t.vocabulary
}

func (t *TFIDF) FitTransform(corpus []string) ([]Vector, error) {
	docs := make([][]string, len(corpus))
	termFreq := make(map[string]int)
	for i, text := range corpus {
		docs[i] = analyze(text)
		for _, tok := range docs[i] {
			termFreq[tok]++
		}
	}
	if len(termFreq) == 0 {
		return nil, ErrEmptyVocabulary
	}

	t.vocabulary = selectVocabulary(termFreq, t.MaxFeatures)

	docFreq := make([]int, len(t.vocabulary))
	counts := make([]map[int]int, len(docs))
	for i, toks := range docs {
		c := make(map[int]int)
		for _, tok := range toks {
			if idx, ok := t.vocabulary[tok]; ok {
				c[idx]++
			}
		}
		for idx := range c {
			docFreq[idx]++
		}
		counts[i] = c
	}

	n := float64(len(docs))
	idf := make([]float64, len(docFreq))
	for i, df := range docFreq {
		idf[i] = math.Log((1+n)/(1+float64(df))) + 1
	}

	vectors := make([]Vector, len(docs))
	for i, c := range counts {
		v := make(Vector, len(c))
		var norm float64
		for idx, tf := range c {
			w := float64(tf) * idf[idx]
			v[idx] = w
			norm += w * w
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for idx := range v {
				v[idx] /= norm
			}
		}
		vectors[i] = v
	}
	return vectors, nil
}

// analyze lower-cases text and returns its tokens of two or more runes that
// are not stop words.
func analyze(text string) []string {
	raw := tokenRe.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, tok := range raw {
		if utf8.RuneCountInString(tok) < 2 || isStopWord(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// selectVocabulary keeps the limit most frequent terms across the corpus.
// Equal frequencies fall back to alphabetical order. Indices are assigned in
// alphabetical order of the kept terms.
func selectVocabulary(termFreq map[string]int, limit int) map[string]int {
	terms := make([]string, 0, len(termFreq))
	for term := range termFreq {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if termFreq[terms[i]] != termFreq[terms[j]] {
			return termFreq[terms[i]] > termFreq[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > limit {
		terms = terms[:limit]
	}
	sort.Strings(terms)

	vocab := make(map[string]int, len(terms))
	for i, term := range terms {
		vocab[term] = i
	}
	return vocab
}
