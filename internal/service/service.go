// Package service ties the extractor, ranker and document store together.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/docpersona/internal/metrics"
	"github.com/dgallion1/docpersona/internal/outline"
	"github.com/dgallion1/docpersona/internal/parser"
	"github.com/dgallion1/docpersona/internal/ranker"
	"github.com/dgallion1/docpersona/internal/store"
	"golang.org/x/sync/errgroup"
)

// resolveConcurrency bounds parallel store reads for one analysis.
const resolveConcurrency = 8

type Service struct {
	store      store.Store
	ranker     *ranker.Ranker
	parserOpts parser.Options
	metrics    *metrics.Metrics
	log        *slog.Logger
}

// New builds a Service. m may be nil.
func New(st store.Store, rk *ranker.Ranker, opts parser.Options, m *metrics.Metrics, log *slog.Logger) *Service {
	return &Service{store: st, ranker: rk, parserOpts: opts, metrics: m, log: log}
}

// Extract parses a document into an outline without persisting it.
func (s *Service) Extract(ctx context.Context, r io.Reader, filename string) (*outline.Outline, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	format := formatOf(filename)
	p, err := parser.ForFile(filename, s.parserOpts)
	if err != nil {
		s.metrics.ObserveExtraction(format, 0, 0, err)
		return nil, err
	}

	start := time.Now()
	o, err := p.Parse(r, filename)
	elapsed := time.Since(start)
	if err != nil {
		s.metrics.ObserveExtraction(format, elapsed, 0, err)
		return nil, err
	}
	s.metrics.ObserveExtraction(format, elapsed, len(o.Headings), nil)
	s.log.Debug("outline extracted", "filename", filename, "title", o.Title, "headings", len(o.Headings), "duration_ms", elapsed.Milliseconds())
	return o, nil
}

// Ingest extracts an outline and persists it.
func (s *Service) Ingest(ctx context.Context, r io.Reader, filename string) (*outline.Outline, error) {
	o, err := s.Extract(ctx, r, filename)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.PutOutline(ctx, o); err != nil {
		return nil, fmt.Errorf("store outline: %w", err)
	}
	s.log.Info("document stored", "document_id", o.ID, "filename", filename, "headings", len(o.Headings))
	return o, nil
}

// Analyze resolves the given document ids, ranks their headings for persona
// and task, and persists the result. Unknown ids are skipped; if none
// resolve it fails with ranker.ErrNoDocumentsFound.
func (s *Service) Analyze(ctx context.Context, persona, task string, ids []string) (*outline.AnalysisResult, error) {
	docs, err := s.resolve(ctx, ids)
	if err != nil {
		return nil, err
	}
	result, err := s.Rank(persona, task, docs)
	if err != nil {
		return nil, err
	}
	if err := s.store.PutAnalysis(ctx, result); err != nil {
		return nil, fmt.Errorf("store analysis: %w", err)
	}
	s.log.Info("analysis stored", "analysis_id", result.ID, "documents", len(docs), "sections", len(result.RankedSections))
	return result, nil
}

// Rank scores already extracted outlines without touching the store.
func (s *Service) Rank(persona, task string, docs []*outline.Outline) (*outline.AnalysisResult, error) {
	start := time.Now()
	result, err := s.ranker.Rank(persona, task, docs)
	s.metrics.ObserveRank(time.Since(start), err)
	if err != nil {
		if errors.Is(err, ranker.ErrRankingUnavailable) {
			s.log.Error("ranking failed", "error", err)
		}
		return nil, err
	}
	return result, nil
}

// resolve loads outlines concurrently, keeping the order of ids.
func (s *Service) resolve(ctx context.Context, ids []string) ([]*outline.Outline, error) {
	if len(ids) == 0 {
		return nil, ranker.ErrNoDocumentsFound
	}
	found := make([]*outline.Outline, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveConcurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			o, err := s.store.GetOutline(gctx, id)
			if errors.Is(err, store.ErrNotFound) {
				s.log.Debug("document not found, skipping", "document_id", id)
				return nil
			}
			if err != nil {
				return fmt.Errorf("load document %s: %w", id, err)
			}
			found[i] = o
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	docs := make([]*outline.Outline, 0, len(found))
	for _, o := range found {
		if o != nil {
			docs = append(docs, o)
		}
	}
	if len(docs) == 0 {
		return nil, ranker.ErrNoDocumentsFound
	}
	return docs, nil
}

func (s *Service) Document(ctx context.Context, id string) (*outline.Outline, error) {
	return s.store.GetOutline(ctx, id)
}

func (s *Service) Documents(ctx context.Context, limit int) ([]*outline.Outline, error) {
	return s.store.ListOutlines(ctx, limit)
}

func (s *Service) Analyses(ctx context.Context, limit int) ([]*outline.AnalysisResult, error) {
	return s.store.ListAnalyses(ctx, limit)
}

// Store exposes the underlying store to the ingest pipeline.
func (s *Service) Store() store.Store {
	return s.store
}

func formatOf(filename string) string {
	if !parser.IsSupportedExtension(filename) {
		return "other"
	}
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}
