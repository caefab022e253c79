package ranker

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/dgallion1/docpersona/internal/outline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doc(filename string, texts ...string) *outline.Outline {
	var hs []outline.Heading
	for i, t := range texts {
		hs = append(hs, outline.Heading{Level: outline.H1, Text: t, Page: i + 1})
	}
	return outline.New("Doc", hs, filename)
}

func TestKeywordBonus(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		persona string
		task    string
		want    float64
	}{
		{"task tokens only", "Literature Review Methods", "Researcher", "literature review", 0.3},
		{"persona token", "Notes for the researcher", "Researcher", "budget", 0.1},
		{"no match", "Appendix", "Researcher", "literature review", 0},
		{"capped", "data analysis report summary", "data analysis", "report summary data", 0.5},
		{"repeated tokens count twice", "Review", "", "review review", 0.3},
		{"substring match", "Reviewing", "", "review", 0.15},
		{"empty text", "", "Researcher", "review", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, KeywordBonus(tt.text, tt.persona, tt.task), 1e-9)
		})
	}
}

func TestKeywordBonusMonotonic(t *testing.T) {
	text := "alpha beta gamma delta epsilon"
	task := ""
	prev := 0.0
	for _, tok := range []string{"alpha", "beta", "gamma", "delta", "epsilon"} {
		task += " " + tok
		got := KeywordBonus(text, "", task)
		assert.GreaterOrEqual(t, got, prev)
		assert.LessOrEqual(t, got, maxKeywordBonus)
		prev = got
	}
	assert.Equal(t, maxKeywordBonus, prev)
}

func TestRefineText(t *testing.T) {
	assert.Equal(t, "[Analyst] Results - Relevant for: summarise findings",
		RefineText("Results", "Analyst", "summarise findings"))
}

func TestRankNoDocuments(t *testing.T) {
	r := New(DefaultOptions())
	_, err := r.Rank("Researcher", "review", nil)
	require.ErrorIs(t, err, ErrNoDocumentsFound)
}

func TestRankNoHeadings(t *testing.T) {
	r := New(DefaultOptions())
	res, err := r.Rank("Researcher", "review", []*outline.Outline{doc("empty.pdf")})
	require.NoError(t, err)
	assert.Empty(t, res.RankedSections)
	assert.Empty(t, res.RefinedExcerpts)
	assert.NotNil(t, res.RankedSections)
	assert.Equal(t, []string{"empty.pdf"}, res.InputDocuments)
}

func TestRankOrdersByRelevance(t *testing.T) {
	r := New(DefaultOptions())
	docs := []*outline.Outline{
		doc("a.pdf", "Budget Appendix", "Literature Review Methods"),
		doc("b.pdf", "Experimental Results"),
	}
	res, err := r.Rank("Researcher", "literature review", docs)
	require.NoError(t, err)

	require.Len(t, res.RankedSections, 3)
	top := res.RankedSections[0]
	assert.Equal(t, "Literature Review Methods", top.SectionTitle)
	assert.Equal(t, "a.pdf", top.Document)
	assert.Equal(t, 2, top.PageNumber)
	assert.Equal(t, 1, top.Rank)

	require.Len(t, res.RefinedExcerpts, 3)
	assert.Equal(t, "[Researcher] Literature Review Methods - Relevant for: literature review",
		res.RefinedExcerpts[0].RefinedText)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, res.InputDocuments)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, "Researcher", res.Persona)
	assert.Equal(t, "literature review", res.Task)
}

func TestRankTiesKeepCorpusOrder(t *testing.T) {
	r := New(DefaultOptions())
	res, err := r.Rank("Chef", "cooking", []*outline.Outline{
		doc("a.pdf", "Zebra", "Yak", "Xylophone"),
	})
	require.NoError(t, err)
	var titles []string
	for _, s := range res.RankedSections {
		titles = append(titles, s.SectionTitle)
	}
	assert.Equal(t, []string{"Zebra", "Yak", "Xylophone"}, titles)
}

func TestRankSelectionSizes(t *testing.T) {
	r := New(DefaultOptions())
	for _, n := range []int{1, 4, 5, 9, 10, 11, 25} {
		t.Run(fmt.Sprintf("%d headings", n), func(t *testing.T) {
			texts := make([]string, n)
			for i := range texts {
				texts[i] = fmt.Sprintf("Section topic%d", i)
			}
			res, err := r.Rank("Engineer", "design review", []*outline.Outline{doc("d.pdf", texts...)})
			require.NoError(t, err)
			assert.Len(t, res.RankedSections, min(10, n))
			assert.Len(t, res.RefinedExcerpts, min(5, n))
			for i, s := range res.RankedSections {
				assert.Equal(t, i+1, s.Rank)
			}
		})
	}
}

func TestRankCustomSizes(t *testing.T) {
	r := New(Options{TopSections: 2, TopExcerpts: 1})
	res, err := r.Rank("p", "t", []*outline.Outline{doc("d.pdf", "Alpha one", "Beta two", "Gamma three")})
	require.NoError(t, err)
	assert.Len(t, res.RankedSections, 2)
	assert.Len(t, res.RefinedExcerpts, 1)
}

type stubVectorizer struct {
	calls *int
	fail  int
}

func (s stubVectorizer) FitTransform(corpus []string) ([]Vector, error) {
	*s.calls++
	if *s.calls <= s.fail {
		return nil, ErrEmptyVocabulary
	}
	out := make([]Vector, len(corpus))
	for i := range out {
		out[i] = Vector{}
	}
	return out, nil
}

func TestRankRetriesVectorizerOnce(t *testing.T) {
	calls := 0
	r := New(DefaultOptions())
	r.newVectorizer = func() Vectorizer { return stubVectorizer{calls: &calls, fail: 1} }

	res, err := r.Rank("p", "t", []*outline.Outline{doc("d.pdf", "Heading")})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, res.RankedSections, 1)
}

func TestRankUnavailableAfterRetry(t *testing.T) {
	calls := 0
	r := New(DefaultOptions())
	r.newVectorizer = func() Vectorizer { return stubVectorizer{calls: &calls, fail: 5} }

	_, err := r.Rank("p", "t", []*outline.Outline{doc("d.pdf", "Heading")})
	require.ErrorIs(t, err, ErrRankingUnavailable)
	assert.True(t, errors.Is(err, ErrRankingUnavailable))
	assert.Equal(t, 2, calls)
}

func TestRankStopWordsOnlyCorpus(t *testing.T) {
	r := New(DefaultOptions())
	_, err := r.Rank("the", "of and", []*outline.Outline{doc("d.pdf", "The", "About this")})
	require.ErrorIs(t, err, ErrRankingUnavailable)
}

func TestTFIDFWeights(t *testing.T) {
	v := NewTFIDF(0)
	vecs, err := v.FitTransform([]string{"apple banana", "apple"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, map[string]int{"apple": 0, "banana": 1}, v.Vocabulary())

	idfBanana := math.Log(3.0/2.0) + 1
	norm := math.Sqrt(1 + idfBanana*idfBanana)
	assert.InDelta(t, 1/norm, vecs[0][0], 1e-9)
	assert.InDelta(t, idfBanana/norm, vecs[0][1], 1e-9)
	assert.InDelta(t, 1.0, vecs[1][0], 1e-9)
	assert.InDelta(t, 1/norm, vecs[0].Dot(vecs[1]), 1e-9)
}

func TestTFIDFDropsStopWordsAndShortTokens(t *testing.T) {
	v := NewTFIDF(0)
	_, err := v.FitTransform([]string{"The A x Methods of Review", "methods"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"methods": 0, "review": 1}, v.Vocabulary())
}

func TestTFIDFMaxFeatures(t *testing.T) {
	v := NewTFIDF(2)
	_, err := v.FitTransform([]string{"gamma beta alpha", "gamma beta", "gamma"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"beta": 0, "gamma": 1}, v.Vocabulary())
}

func TestTFIDFEmptyVocabulary(t *testing.T) {
	_, err := NewTFIDF(0).FitTransform([]string{"the of", "and"})
	require.ErrorIs(t, err, ErrEmptyVocabulary)
}

func TestDotZeroVector(t *testing.T) {
	assert.Equal(t, 0.0, Vector{}.Dot(Vector{0: 1}))
}
