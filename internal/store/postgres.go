package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgallion1/docpersona/internal/outline"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS document_outlines (
	id         TEXT PRIMARY KEY,
	filename   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	body       JSONB NOT NULL
);
CREATE TABLE IF NOT EXISTS persona_analyses (
	id         TEXT PRIMARY KEY,
	persona    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	body       JSONB NOT NULL
);`

// Postgres stores outlines and analyses as JSONB rows.
type Postgres struct {
	pool *pgxpool.Pool
}

// ConnectPostgres opens a pool, verifies it and creates the tables if needed.
func ConnectPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) PutOutline(ctx context.Context, o *outline.Outline) (string, error) {
	if err := validateOutline(o); err != nil {
		return "", err
	}
	body, err := json.Marshal(o)
	if err != nil {
		return "", fmt.Errorf("marshal outline: %w", err)
	}
	_, err = p.pool.Exec(ctx,
		`INSERT INTO document_outlines (id, filename, created_at, body)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET filename = $2, body = $4`,
		o.ID, o.Filename, o.CreatedAt, body,
	)
	if err != nil {
		return "", pgError("put outline", err)
	}
	return o.ID, nil
}

func (p *Postgres) GetOutline(ctx context.Context, id string) (*outline.Outline, error) {
	var body []byte
	err := p.pool.QueryRow(ctx,
		`SELECT body FROM document_outlines WHERE id = $1`, id,
	).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("outline %s: %w", id, ErrNotFound)
		}
		return nil, pgError("get outline", err)
	}
	var o outline.Outline
	if err := json.Unmarshal(body, &o); err != nil {
		return nil, fmt.Errorf("decode outline %s: %w", id, err)
	}
	return &o, nil
}

func (p *Postgres) ListOutlines(ctx context.Context, limit int) ([]*outline.Outline, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT body FROM document_outlines ORDER BY created_at ASC LIMIT $1`, pgLimit(limit),
	)
	if err != nil {
		return nil, pgError("list outlines", err)
	}
	return collectJSON[outline.Outline](rows)
}

func (p *Postgres) PutAnalysis(ctx context.Context, a *outline.AnalysisResult) error {
	if err := validateAnalysis(a); err != nil {
		return err
	}
	body, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	_, err = p.pool.Exec(ctx,
		`INSERT INTO persona_analyses (id, persona, created_at, body)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO NOTHING`,
		a.ID, a.Persona, a.CreatedAt, body,
	)
	if err != nil {
		return pgError("put analysis", err)
	}
	return nil
}

func (p *Postgres) ListAnalyses(ctx context.Context, limit int) ([]*outline.AnalysisResult, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT body FROM persona_analyses ORDER BY created_at ASC LIMIT $1`, pgLimit(limit),
	)
	if err != nil {
		return nil, pgError("list analyses", err)
	}
	return collectJSON[outline.AnalysisResult](rows)
}

func (p *Postgres) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

func collectJSON[T any](rows pgx.Rows) ([]*T, error) {
	defer rows.Close()
	out := []*T{}
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		v := new(T)
		if err := json.Unmarshal(body, v); err != nil {
			return nil, fmt.Errorf("decode row: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, pgError("iterate rows", err)
	}
	return out, nil
}

// pgLimit maps a non-positive limit to NULL, which Postgres treats as no limit.
func pgLimit(limit int) *int {
	if limit <= 0 {
		return nil
	}
	return &limit
}

func pgError(op string, err error) error {
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return &RetryableError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
