package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/dgallion1/docpersona/internal/outline"
	"github.com/redis/go-redis/v9"
)

const (
	redisOutlinePrefix  = "docpersona:outline:"
	redisOutlineIndex   = "docpersona:outlines"
	redisAnalysisPrefix = "docpersona:analysis:"
	redisAnalysisIndex  = "docpersona:analyses"
)

// Redis stores records as JSON strings, indexed by sorted sets scored on
// creation time.
type Redis struct {
	client *redis.Client
}

// ConnectRedis dials and pings the server.
func ConnectRedis(ctx context.Context, addr, password string, db int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Redis{client: client}, nil
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) PutOutline(ctx context.Context, o *outline.Outline) (string, error) {
	if err := validateOutline(o); err != nil {
		return "", err
	}
	if err := r.put(ctx, redisOutlinePrefix, redisOutlineIndex, o.ID, o.CreatedAt, o); err != nil {
		return "", err
	}
	return o.ID, nil
}

func (r *Redis) GetOutline(ctx context.Context, id string) (*outline.Outline, error) {
	body, err := r.client.Get(ctx, redisOutlinePrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("outline %s: %w", id, ErrNotFound)
		}
		return nil, redisError("get outline", err)
	}
	var o outline.Outline
	if err := json.Unmarshal(body, &o); err != nil {
		return nil, fmt.Errorf("decode outline %s: %w", id, err)
	}
	return &o, nil
}

func (r *Redis) ListOutlines(ctx context.Context, limit int) ([]*outline.Outline, error) {
	return redisList[outline.Outline](ctx, r.client, redisOutlinePrefix, redisOutlineIndex, limit)
}

func (r *Redis) PutAnalysis(ctx context.Context, a *outline.AnalysisResult) error {
	if err := validateAnalysis(a); err != nil {
		return err
	}
	return r.put(ctx, redisAnalysisPrefix, redisAnalysisIndex, a.ID, a.CreatedAt, a)
}

func (r *Redis) ListAnalyses(ctx context.Context, limit int) ([]*outline.AnalysisResult, error) {
	return redisList[outline.AnalysisResult](ctx, r.client, redisAnalysisPrefix, redisAnalysisIndex, limit)
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) put(ctx context.Context, prefix, index, id string, created time.Time, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", id, err)
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, prefix+id, body, 0)
		pipe.ZAdd(ctx, index, redis.Z{Score: float64(created.UnixMicro()), Member: id})
		return nil
	})
	if err != nil {
		return redisError("put "+id, err)
	}
	return nil
}

func redisList[T any](ctx context.Context, client *redis.Client, prefix, index string, limit int) ([]*T, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	ids, err := client.ZRange(ctx, index, 0, stop).Result()
	if err != nil {
		return nil, redisError("list "+index, err)
	}
	out := []*T{}
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = prefix + id
	}
	vals, err := client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, redisError("mget "+index, err)
	}
	for i, val := range vals {
		s, ok := val.(string)
		if !ok {
			// Index entry without a body; skip it.
			continue
		}
		v := new(T)
		if err := json.Unmarshal([]byte(s), v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", keys[i], err)
		}
		out = append(out, v)
	}
	return out, nil
}

func redisError(op string, err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, io.EOF) || errors.Is(err, context.DeadlineExceeded) {
		return &RetryableError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
