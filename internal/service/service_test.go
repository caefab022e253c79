package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/docpersona/internal/metrics"
	"github.com/dgallion1/docpersona/internal/outline"
	"github.com/dgallion1/docpersona/internal/parser"
	"github.com/dgallion1/docpersona/internal/ranker"
	"github.com/dgallion1/docpersona/internal/store"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, st store.Store) (*Service, *metrics.Metrics) {
	t.Helper()
	m := metrics.New(time.Hour)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(st, ranker.New(ranker.DefaultOptions()), parser.DefaultOptions(), m, log), m
}

const researchDoc = `# Research Handbook

## Literature Review Methods

## Budget Planning

## Experimental Results
`

func TestIngestPersistsOutline(t *testing.T) {
	st := store.NewMemory()
	svc, m := newTestService(t, st)

	o, err := svc.Ingest(context.Background(), strings.NewReader(researchDoc), "handbook.md")
	require.NoError(t, err)
	assert.Equal(t, "Research Handbook", o.Title)
	assert.Len(t, o.Headings, 4)

	stored, err := st.GetOutline(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.Title, stored.Title)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExtractionsTotal.WithLabelValues("md", metrics.OutcomeOK)))
}

func TestExtractUnsupportedFormat(t *testing.T) {
	svc, _ := newTestService(t, store.NewMemory())
	_, err := svc.Extract(context.Background(), strings.NewReader("x"), "data.xlsx")
	require.ErrorIs(t, err, parser.ErrUnsupportedFormat)
}

func TestExtractMalformedPDF(t *testing.T) {
	svc, m := newTestService(t, store.NewMemory())
	_, err := svc.Extract(context.Background(), strings.NewReader("definitely not a pdf"), "broken.pdf")
	require.ErrorIs(t, err, parser.ErrMalformedDocument)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExtractionsTotal.WithLabelValues("pdf", metrics.OutcomeError)))
}

func TestExtractCancelledContext(t *testing.T) {
	svc, _ := newTestService(t, store.NewMemory())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Extract(ctx, strings.NewReader(researchDoc), "a.md")
	require.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeRanksAndPersists(t *testing.T) {
	st := store.NewMemory()
	svc, _ := newTestService(t, st)
	ctx := context.Background()

	o, err := svc.Ingest(ctx, strings.NewReader(researchDoc), "handbook.md")
	require.NoError(t, err)

	res, err := svc.Analyze(ctx, "Researcher", "literature review", []string{o.ID})
	require.NoError(t, err)
	require.NotEmpty(t, res.RankedSections)
	assert.Equal(t, "Literature Review Methods", res.RankedSections[0].SectionTitle)
	assert.Equal(t, []string{"handbook.md"}, res.InputDocuments)

	analyses, err := st.ListAnalyses(ctx, 0)
	require.NoError(t, err)
	require.Len(t, analyses, 1)
	assert.Equal(t, res.ID, analyses[0].ID)
}

func TestAnalyzeEmptyIDs(t *testing.T) {
	svc, _ := newTestService(t, store.NewMemory())
	_, err := svc.Analyze(context.Background(), "p", "t", nil)
	require.ErrorIs(t, err, ranker.ErrNoDocumentsFound)
}

func TestAnalyzeUnknownIDs(t *testing.T) {
	svc, _ := newTestService(t, store.NewMemory())
	_, err := svc.Analyze(context.Background(), "p", "t", []string{"invalid-uuid-12345"})
	require.ErrorIs(t, err, ranker.ErrNoDocumentsFound)
}

func TestAnalyzeSkipsUnknownAndKeepsOrder(t *testing.T) {
	st := store.NewMemory()
	svc, _ := newTestService(t, st)
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"b.md", "a.md", "c.md"} {
		o, err := svc.Ingest(ctx, strings.NewReader("# "+name+"\n\n## Section\n"), name)
		require.NoError(t, err)
		ids = append(ids, o.ID, "missing-"+name)
	}

	res, err := svc.Analyze(ctx, "p", "t", ids)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.md", "a.md", "c.md"}, res.InputDocuments)
}

type failingStore struct {
	store.Store
	err error
}

func (f failingStore) GetOutline(context.Context, string) (*outline.Outline, error) {
	return nil, f.err
}

func TestAnalyzeStoreFailure(t *testing.T) {
	boom := errors.New("connection refused")
	svc, _ := newTestService(t, failingStore{Store: store.NewMemory(), err: boom})
	_, err := svc.Analyze(context.Background(), "p", "t", []string{"x"})
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ranker.ErrNoDocumentsFound)
}

func TestAnalyzeDocumentsWithoutHeadings(t *testing.T) {
	st := store.NewMemory()
	svc, _ := newTestService(t, st)
	ctx := context.Background()

	o, err := svc.Ingest(ctx, strings.NewReader("plain paragraph only"), "plain.md")
	require.NoError(t, err)

	res, err := svc.Analyze(ctx, "p", "t", []string{o.ID})
	require.NoError(t, err)
	assert.Empty(t, res.RankedSections)
	assert.Empty(t, res.RefinedExcerpts)
}
