package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/dgallion1/docpersona/internal/outline"
)

// Memory is an in-process Store. Records are lost on restart.
type Memory struct {
	mu       sync.RWMutex
	outlines map[string]*outline.Outline
	order    []string
	analyses []*outline.AnalysisResult
}

func NewMemory() *Memory {
	return &Memory{outlines: make(map[string]*outline.Outline)}
}

func (m *Memory) PutOutline(_ context.Context, o *outline.Outline) (string, error) {
	if err := validateOutline(o); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.outlines[o.ID]; !exists {
		m.order = append(m.order, o.ID)
	}
	m.outlines[o.ID] = o
	return o.ID, nil
}

func (m *Memory) GetOutline(_ context.Context, id string) (*outline.Outline, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.outlines[id]
	if !ok {
		return nil, fmt.Errorf("outline %s: %w", id, ErrNotFound)
	}
	return o, nil
}

func (m *Memory) ListOutlines(_ context.Context, limit int) ([]*outline.Outline, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := m.order
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]*outline.Outline, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.outlines[id])
	}
	return out, nil
}

func (m *Memory) PutAnalysis(_ context.Context, a *outline.AnalysisResult) error {
	if err := validateAnalysis(a); err != nil {
		return err
	}
	m.mu.Lock()
	m.analyses = append(m.analyses, a)
	m.mu.Unlock()
	return nil
}

func (m *Memory) ListAnalyses(_ context.Context, limit int) ([]*outline.AnalysisResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := len(m.analyses)
	if limit > 0 && n > limit {
		n = limit
	}
	out := make([]*outline.AnalysisResult, n)
	copy(out, m.analyses[:n])
	return out, nil
}

func (m *Memory) Close() error { return nil }
