package ports

import (
	"context"

	"github.com/zxcasde/RecipeGraphRAG/internal/core/domain"
)

// Retriever is the inbound contract for hybrid retrieval. userID may
// be empty for anonymous queries.
type Retriever interface {
	Retrieve(ctx context.Context, query, userID string, k int) (*domain.ResultBundle, error)
}

// InteractionRecorder accepts explicit user actions for asynchronous
// persistence.
type InteractionRecorder interface {
	Record(ctx context.Context, event domain.InteractionEvent) error
}

// InteractionProcessor is the worker-side contract persisting queued
// interaction events.
type InteractionProcessor interface {
	Process(ctx context.Context, event domain.InteractionEvent) error
}

// ProfileReader is the inbound read model for user history and
// preferences.
type ProfileReader interface {
	Profile(ctx context.Context, userID string) (*domain.UserData, error)
}

// RecipeReader is the inbound read model for hydrated recipe details.
type RecipeReader interface {
	Detail(ctx context.Context, name string, depth int) (domain.RecipeDetail, error)
	Similar(ctx context.Context, name string, k int) ([]domain.SimilarHit, error)
}
