// Package store persists outlines and analysis results.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgallion1/docpersona/internal/outline"
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New("not found")

// Store is the document store used by the service layer. Implementations are
// safe for concurrent use. List methods return records oldest first.
type Store interface {
	PutOutline(ctx context.Context, o *outline.Outline) (string, error)
	GetOutline(ctx context.Context, id string) (*outline.Outline, error)
	ListOutlines(ctx context.Context, limit int) ([]*outline.Outline, error)
	PutAnalysis(ctx context.Context, a *outline.AnalysisResult) error
	ListAnalyses(ctx context.Context, limit int) ([]*outline.AnalysisResult, error)
	Close() error
}

// RetryableError indicates a transient backend failure that can be retried.
type RetryableError struct {
	Op  string
	Err error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable store error (%s): %v", e.Op, e.Err)
}

func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err wraps a RetryableError.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

func validateOutline(o *outline.Outline) error {
	if o == nil || o.ID == "" {
		return fmt.Errorf("outline without id")
	}
	return nil
}

func validateAnalysis(a *outline.AnalysisResult) error {
	if a == nil || a.ID == "" {
		return fmt.Errorf("analysis without id")
	}
	return nil
}
