package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sort"

	"github.com/dgallion1/docpersona/internal/outline"
	"github.com/dgallion1/docpersona/internal/pathstore"
)

const (
	pathstoreOutlines = "docpersona/outlines"
	pathstoreAnalyses = "docpersona/analyses"
	pathstoreSource   = "docpersona"
)

// Pathstore keeps records in a pathstore key/value service, one node per record.
type Pathstore struct {
	client *pathstore.Client
}

func NewPathstore(client *pathstore.Client) *Pathstore {
	return &Pathstore{client: client}
}

func (p *Pathstore) PutOutline(ctx context.Context, o *outline.Outline) (string, error) {
	if err := validateOutline(o); err != nil {
		return "", err
	}
	err := p.client.PutNode(ctx, pathstoreOutlines+"/"+o.ID, pathstore.NodeRequest{Value: o, Source: pathstoreSource})
	if err != nil {
		return "", pathstoreError("put outline", err)
	}
	return o.ID, nil
}

func (p *Pathstore) GetOutline(ctx context.Context, id string) (*outline.Outline, error) {
	node, err := p.client.GetNode(ctx, pathstoreOutlines+"/"+id)
	if err != nil {
		if errors.Is(err, pathstore.ErrNotFound) {
			return nil, fmt.Errorf("outline %s: %w", id, ErrNotFound)
		}
		return nil, pathstoreError("get outline", err)
	}
	var o outline.Outline
	if err := json.Unmarshal(node.Value, &o); err != nil {
		return nil, fmt.Errorf("decode outline %s: %w", id, err)
	}
	return &o, nil
}

func (p *Pathstore) ListOutlines(ctx context.Context, limit int) ([]*outline.Outline, error) {
	out, err := pathstoreList[outline.Outline](ctx, p.client, pathstoreOutlines)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return truncate(out, limit), nil
}

func (p *Pathstore) PutAnalysis(ctx context.Context, a *outline.AnalysisResult) error {
	if err := validateAnalysis(a); err != nil {
		return err
	}
	err := p.client.PutNode(ctx, pathstoreAnalyses+"/"+a.ID, pathstore.NodeRequest{Value: a, Source: pathstoreSource})
	if err != nil {
		return pathstoreError("put analysis", err)
	}
	return nil
}

func (p *Pathstore) ListAnalyses(ctx context.Context, limit int) ([]*outline.AnalysisResult, error) {
	out, err := pathstoreList[outline.AnalysisResult](ctx, p.client, pathstoreAnalyses)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return truncate(out, limit), nil
}

func (p *Pathstore) Close() error {
	p.client.Close()
	return nil
}

// pathstoreList reads every child; the service has no server-side ordering,
// so the limit is applied after sorting.
func pathstoreList[T any](ctx context.Context, client *pathstore.Client, prefix string) ([]*T, error) {
	nodes, err := client.ListChildren(ctx, prefix, 0)
	if err != nil {
		return nil, pathstoreError("list "+prefix, err)
	}
	out := make([]*T, 0, len(nodes))
	for _, n := range nodes {
		v := new(T)
		if err := json.Unmarshal(n.Value, v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", n.Key, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func truncate[T any](s []T, limit int) []T {
	if limit > 0 && len(s) > limit {
		return s[:limit]
	}
	return s
}

func pathstoreError(op string, err error) error {
	var statusErr *pathstore.StatusError
	if errors.As(err, &statusErr) && statusErr.Temporary() {
		return &RetryableError{Op: op, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &RetryableError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
