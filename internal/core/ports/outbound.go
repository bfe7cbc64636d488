package ports

import (
	"context"

	"github.com/zxcasde/RecipeGraphRAG/internal/core/domain"
)

// GraphStore executes parameterized pattern queries over the recipe
// property graph. Absence of an entity is a normal outcome: lookups
// return empty results, never an error, for unknown names.
type GraphStore interface {
	// RecipeDetail fetches the neighborhood of one recipe up to depth
	// hops. Unknown names yield an empty detail.
	RecipeDetail(ctx context.Context, name string, depth int) (domain.RecipeDetail, error)

	ByIngredient(ctx context.Context, name string, limit int) ([]domain.GraphHit, error)
	ByTag(ctx context.Context, name string, limit int) ([]domain.GraphHit, error)
	ByFlavor(ctx context.Context, name string, limit int) ([]domain.GraphHit, error)
	// ByTags ranks recipes by how many of the given tags they carry.
	ByTags(ctx context.Context, tags []string, limit int) ([]domain.GraphHit, error)

	// SimilarRecipes merges explicit similarity links, shared-ingredient
	// counts and shared-flavor counts into one additive score.
	SimilarRecipes(ctx context.Context, name string, limit int) ([]domain.SimilarHit, error)

	UserHistory(ctx context.Context, userID string) ([]domain.Interaction, error)
	// InferredPreferences derives flavor/tag interest from the user's
	// liked and cooked recipes.
	InferredPreferences(ctx context.Context, userID string) (domain.PreferenceDocument, error)

	// Vocabulary snapshots every recipe/ingredient/flavor/tag name.
	Vocabulary(ctx context.Context) (domain.Vocabulary, error)

	// UnexploredRecipes scores recipes the user has not cooked against
	// the flavor/tag profile aggregated from their history.
	UnexploredRecipes(ctx context.Context, userID string, limit int) ([]domain.UnexploredRecommendation, error)
	// SimilarToHistory pairs recent liked/cooked seeds with un-cooked
	// recipes sharing flavors, ingredients or tags.
	SimilarToHistory(ctx context.Context, userID string, limit int) ([]domain.SimilarRecommendation, error)

	RecordInteraction(ctx context.Context, event domain.InteractionEvent) error
}

// VectorStore performs top-k cosine search against the offline-built
// recipe embedding index.
type VectorStore interface {
	Search(ctx context.Context, vector []float32, k int, space domain.VectorSpace) ([]domain.VectorHit, error)
}

// Embedder builds the query-side vector for semantic search.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// UserStore persists the per-user preference document.
type UserStore interface {
	// GetPreferences returns domain.ErrNotFound when no document exists.
	GetPreferences(ctx context.Context, userID string) (domain.PreferenceDocument, error)
	// MergePreferences unions prefs into the stored document,
	// creating it if absent. Unions are monotonic; concurrent merges
	// for one user converge.
	MergePreferences(ctx context.Context, userID string, prefs domain.PreferenceDocument) error
}

// QueryAnalyzer is the external classification model. Callers must
// fall back to the deterministic classifier when it errors.
type QueryAnalyzer interface {
	Analyze(ctx context.Context, query string) (domain.QueryContext, error)
}

// InteractionQueue transports explicit user actions to the worker.
type InteractionQueue interface {
	PublishInteraction(ctx context.Context, event domain.InteractionEvent) error
	SubscribeInteractions(ctx context.Context, handler func(context.Context, domain.InteractionEvent) error) error
}
