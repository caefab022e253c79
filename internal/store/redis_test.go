package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dgallion1/docpersona/internal/outline"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	r := NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}))
	t.Cleanup(func() { r.Close() })
	return r, mr
}

func TestRedis_PutGet(t *testing.T) {
	r, _ := newTestRedis(t)
	ctx := context.Background()
	o := outline.New("Title", []outline.Heading{{Level: outline.H1, Text: "Intro", Page: 1}}, "a.pdf")

	id, err := r.PutOutline(ctx, o)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := r.GetOutline(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Title" || got.Filename != "a.pdf" || len(got.Headings) != 1 {
		t.Errorf("unexpected outline: %+v", got)
	}
	if !got.CreatedAt.Equal(o.CreatedAt) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, o.CreatedAt)
	}
}

func TestRedis_GetMissing(t *testing.T) {
	r, _ := newTestRedis(t)
	_, err := r.GetOutline(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRedis_ListOldestFirst(t *testing.T) {
	r, mr := newTestRedis(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Ids sort opposite to creation order, so only the index score decides.
	records := []*outline.Outline{
		{ID: "zz-first", Title: "1", Headings: []outline.Heading{}, CreatedAt: base},
		{ID: "mm-second", Title: "2", Headings: []outline.Heading{}, CreatedAt: base.Add(time.Microsecond)},
		{ID: "aa-third", Title: "3", Headings: []outline.Heading{}, CreatedAt: base.Add(2 * time.Microsecond)},
	}
	for _, o := range records {
		if _, err := r.PutOutline(ctx, o); err != nil {
			t.Fatalf("put %s: %v", o.ID, err)
		}
	}

	all, err := r.ListOutlines(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 outlines, got %d", len(all))
	}
	for i, o := range all {
		if o.ID != records[i].ID {
			t.Errorf("position %d: expected %q, got %q", i, records[i].ID, o.ID)
		}
	}

	score, err := mr.ZScore(redisOutlineIndex, "mm-second")
	if err != nil {
		t.Fatal(err)
	}
	if want := float64(records[1].CreatedAt.UnixMicro()); score != want {
		t.Errorf("score = %v, want %v", score, want)
	}

	limited, err := r.ListOutlines(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(limited) != 2 || limited[1].ID != "mm-second" {
		t.Errorf("unexpected limited list: %+v", limited)
	}
}

func TestRedis_Analyses(t *testing.T) {
	r, _ := newTestRedis(t)
	ctx := context.Background()
	base := time.Now().UTC()
	for i, id := range []string{"a1", "a2"} {
		a := &outline.AnalysisResult{ID: id, Persona: "p", CreatedAt: base.Add(time.Duration(i) * time.Second)}
		if err := r.PutAnalysis(ctx, a); err != nil {
			t.Fatalf("put analysis: %v", err)
		}
	}
	got, err := r.ListAnalyses(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != "a1" || got[1].ID != "a2" {
		t.Errorf("unexpected analyses: %+v", got)
	}
}

func TestRedis_PutWithoutID(t *testing.T) {
	r, _ := newTestRedis(t)
	if _, err := r.PutOutline(context.Background(), &outline.Outline{}); err == nil {
		t.Error("expected error for outline without id")
	}
}

func TestRedis_ServerGoneIsRetryable(t *testing.T) {
	r, mr := newTestRedis(t)
	mr.Close()

	_, err := r.GetOutline(context.Background(), "x")
	if !IsRetryable(err) {
		t.Errorf("expected retryable error, got %v", err)
	}
}
