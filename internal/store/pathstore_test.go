package store

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/docpersona/internal/outline"
	"github.com/dgallion1/docpersona/internal/pathstore"
)

// fakePathstore is a minimal in-memory pathstore server.
type fakePathstore struct {
	mu       sync.Mutex
	nodes    map[string]json.RawMessage
	failNext int
}

func newFakePathstore(t *testing.T) (*fakePathstore, *httptest.Server) {
	t.Helper()
	f := &fakePathstore{nodes: make(map[string]json.RawMessage)}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakePathstore) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext > 0 {
		f.failNext--
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	key := strings.TrimPrefix(r.URL.Path, "/kv/")
	switch {
	case r.Method == http.MethodPut:
		var req struct {
			Value json.RawMessage `json:"value"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.nodes[key] = req.Value
		w.WriteHeader(http.StatusCreated)
	case strings.HasSuffix(key, "/*"):
		prefix := strings.TrimSuffix(key, "*")
		type node struct {
			Key   string          `json:"key_path"`
			Value json.RawMessage `json:"value"`
		}
		nodes := []node{}
		for k, v := range f.nodes {
			if strings.HasPrefix(k, prefix) {
				nodes = append(nodes, node{Key: k, Value: v})
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"nodes": nodes})
	default:
		v, ok := f.nodes[key]
		if !ok {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"key_path": key, "value": v})
	}
}

func TestPathstore_RoundTrip(t *testing.T) {
	_, srv := newFakePathstore(t)
	s := NewPathstore(pathstore.NewClient(srv.URL, "key"))
	ctx := context.Background()

	o := outline.New("Report", []outline.Heading{{Level: outline.H2, Text: "Methods", Page: 3}}, "r.pdf")
	if _, err := s.PutOutline(ctx, o); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := s.GetOutline(ctx, o.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Report" || got.Headings[0].Page != 3 || got.Headings[0].Level != outline.H2 {
		t.Errorf("unexpected outline: %+v", got)
	}

	if _, err := s.GetOutline(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPathstore_ListSortedAndLimited(t *testing.T) {
	_, srv := newFakePathstore(t)
	s := NewPathstore(pathstore.NewClient(srv.URL, ""))
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"c.pdf", "a.pdf", "b.pdf"} {
		o := outline.New("T", nil, name)
		o.CreatedAt = base.Add(time.Duration([]int{3, 1, 2}[i]) * time.Minute)
		s.PutOutline(ctx, o)
	}
	all, err := s.ListOutlines(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"a.pdf", "b.pdf", "c.pdf"}
	for i, o := range all {
		if o.Filename != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], o.Filename)
		}
	}
	limited, _ := s.ListOutlines(ctx, 2)
	if len(limited) != 2 {
		t.Errorf("expected 2, got %d", len(limited))
	}

	if err := s.PutAnalysis(ctx, &outline.AnalysisResult{ID: "an1", Persona: "p"}); err != nil {
		t.Fatalf("put analysis: %v", err)
	}
	analyses, _ := s.ListAnalyses(ctx, 0)
	if len(analyses) != 1 || analyses[0].Persona != "p" {
		t.Errorf("unexpected analyses: %+v", analyses)
	}
}

func TestPathstore_ServerErrorIsRetryable(t *testing.T) {
	f, srv := newFakePathstore(t)
	f.failNext = 1
	s := NewPathstore(pathstore.NewClient(srv.URL, ""))

	_, err := s.PutOutline(context.Background(), outline.New("T", nil, "x.pdf"))
	if !IsRetryable(err) {
		t.Errorf("expected retryable error, got %v", err)
	}
}
