package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/dgallion1/docpersona/internal/outline"
)

func TestPgLimit(t *testing.T) {
	if pgLimit(0) != nil || pgLimit(-3) != nil {
		t.Error("expected nil limit for non-positive values")
	}
	if l := pgLimit(5); l == nil || *l != 5 {
		t.Errorf("expected 5, got %v", l)
	}
}

func TestPgError_PlainErrorNotRetryable(t *testing.T) {
	base := errors.New("syntax error at or near")
	err := pgError("list outlines", base)
	if IsRetryable(err) {
		t.Error("plain error should not be retryable")
	}
	if !errors.Is(err, base) {
		t.Error("expected wrapped error")
	}
}

func TestConnectPostgres_BadURL(t *testing.T) {
	if _, err := ConnectPostgres(context.Background(), "postgres://%zz"); err == nil {
		t.Fatal("expected error for invalid url")
	}
}

// TestPostgres_RoundTrip runs against a real database when
// TEST_DATABASE_URL is set.
func TestPostgres_RoundTrip(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	p, err := ConnectPostgres(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer p.Close()

	o := outline.New("Title", []outline.Heading{{Level: outline.H2, Text: "Scope", Page: 2}}, "pg.pdf")
	if _, err := p.PutOutline(ctx, o); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := p.GetOutline(ctx, o.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Title" || len(got.Headings) != 1 || got.Headings[0].Page != 2 {
		t.Errorf("unexpected outline: %+v", got)
	}
	if _, err := p.GetOutline(ctx, "missing-"+o.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	a := &outline.AnalysisResult{ID: o.ID, Persona: "p", CreatedAt: time.Now().UTC()}
	if err := p.PutAnalysis(ctx, a); err != nil {
		t.Fatalf("put analysis: %v", err)
	}
	list, err := p.ListAnalyses(ctx, 0)
	if err != nil {
		t.Fatalf("list analyses: %v", err)
	}
	found := false
	for _, x := range list {
		found = found || x.ID == a.ID
	}
	if !found {
		t.Error("stored analysis not listed")
	}
}
