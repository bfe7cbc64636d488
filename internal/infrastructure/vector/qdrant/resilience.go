package qdrant

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/zxcasde/RecipeGraphRAG/internal/core/domain"
	"github.com/zxcasde/RecipeGraphRAG/internal/infrastructure/resilience"
)

type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "qdrant status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("qdrant %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("qdrant %s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Body))
}

func asStatusError(err error, target **HTTPStatusError) bool {
	return err != nil && errors.As(err, target)
}

func classifyQdrantError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusRequestTimeout, http.StatusTooManyRequests,
			http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		}
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}

// ResilientStore wraps vector search with retries and a circuit
// breaker. Retryable failures surface as ErrTemporary so the retrieval
// leg degrades to zero candidates instead of failing the call.
type ResilientStore struct {
	inner    *Client
	executor *resilience.Executor
}

func NewResilientStore(inner *Client, executor *resilience.Executor) *ResilientStore {
	return &ResilientStore{inner: inner, executor: executor}
}

func (s *ResilientStore) Search(ctx context.Context, vector []float32, k int, space domain.VectorSpace) ([]domain.VectorHit, error) {
	var result []domain.VectorHit
	err := s.executor.Execute(ctx, "qdrant_search", func(ctx context.Context) error {
		var innerErr error
		result, innerErr = s.inner.Search(ctx, vector, k, space)
		return innerErr
	}, classifyQdrantError)
	if err != nil {
		class := classifyQdrantError(err)
		if class.Retryable || resilience.IsCircuitOpen(err) {
			return nil, domain.WrapError(domain.ErrTemporary, "qdrant_search", err)
		}
		return nil, err
	}
	return result, nil
}
