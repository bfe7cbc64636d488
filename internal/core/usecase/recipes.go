package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/zxcasde/RecipeGraphRAG/internal/core/domain"
	"github.com/zxcasde/RecipeGraphRAG/internal/core/ports"
)

// RecipeUseCase is the read model for single-recipe lookups.
type RecipeUseCase struct {
	graph  ports.GraphStore
	logger *slog.Logger
}

func NewRecipeUseCase(graph ports.GraphStore, logger *slog.Logger) *RecipeUseCase {
	return &RecipeUseCase{graph: graph, logger: logger}
}

// Detail implements ports.RecipeReader. Depth is clamped to [1, 3];
// deeper neighborhoods blow up on dense tag and flavor hubs.
func (u *RecipeUseCase) Detail(ctx context.Context, name string, depth int) (domain.RecipeDetail, error) {
	if name == "" {
		return domain.RecipeDetail{}, domain.WrapError(domain.ErrInvalidInput, "recipe detail", errors.New("empty name"))
	}
	if depth < 1 {
		depth = 1
	}
	if depth > 3 {
		depth = 3
	}
	detail, err := u.graph.RecipeDetail(ctx, name, depth)
	if err != nil {
		return domain.RecipeDetail{}, err
	}
	if detail.Empty() {
		return domain.RecipeDetail{}, domain.WrapError(domain.ErrNotFound, "recipe detail", errors.New(name))
	}
	return detail, nil
}

// Similar implements ports.RecipeReader.
func (u *RecipeUseCase) Similar(ctx context.Context, name string, k int) ([]domain.SimilarHit, error) {
	if name == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "similar recipes", errors.New("empty name"))
	}
	if k <= 0 {
		k = 5
	}
	return u.graph.SimilarRecipes(ctx, name, k)
}
