package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/zxcasde/RecipeGraphRAG/internal/core/domain"
	"github.com/zxcasde/RecipeGraphRAG/internal/core/ports"
)

// ProfileUseCase assembles the per-user view of history and
// preferences. The stored preference document is authoritative;
// categories it leaves empty are backfilled from graph inference, and
// a wholly missing document is bootstrapped from inference and written
// back.
type ProfileUseCase struct {
	graph  ports.GraphStore
	users  ports.UserStore
	logger *slog.Logger
}

func NewProfileUseCase(graph ports.GraphStore, users ports.UserStore, logger *slog.Logger) *ProfileUseCase {
	return &ProfileUseCase{graph: graph, users: users, logger: logger}
}

// Profile implements ports.ProfileReader.
func (p *ProfileUseCase) Profile(ctx context.Context, userID string) (*domain.UserData, error) {
	if userID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "profile", errors.New("empty user id"))
	}
	return p.Load(ctx, userID)
}

// Load fetches history and preferences without the empty-id guard, for
// internal callers that already validated the id.
func (p *ProfileUseCase) Load(ctx context.Context, userID string) (*domain.UserData, error) {
	data := &domain.UserData{UserID: userID}

	history, err := p.graph.UserHistory(ctx, userID)
	if err != nil {
		p.logger.Warn("user history lookup failed", "user_id", userID, "error", err)
	} else {
		data.History = history
	}

	prefs, err := p.users.GetPreferences(ctx, userID)
	switch {
	case err == nil:
		data.Preferences = p.fillFromGraph(ctx, userID, prefs)
	case domain.IsKind(err, domain.ErrNotFound):
		inferred := p.fillFromGraph(ctx, userID, domain.PreferenceDocument{})
		data.Preferences = inferred
		if !inferred.IsEmpty() {
			if mergeErr := p.users.MergePreferences(ctx, userID, inferred); mergeErr != nil {
				p.logger.Warn("preference bootstrap write failed", "user_id", userID, "error", mergeErr)
			}
		}
	default:
		p.logger.Warn("preference lookup failed", "user_id", userID, "error", err)
	}

	return data, nil
}

// fillFromGraph backfills empty preference categories from the graph's
// liked/cooked inference. Stored values win; only missing categories
// are filled, so a partial document is merged, never replaced.
func (p *ProfileUseCase) fillFromGraph(ctx context.Context, userID string, prefs domain.PreferenceDocument) domain.PreferenceDocument {
	if len(prefs.Flavors) > 0 && len(prefs.Tags) > 0 && len(prefs.Ingredients) > 0 {
		return prefs
	}
	inferred, err := p.graph.InferredPreferences(ctx, userID)
	if err != nil {
		p.logger.Warn("preference inference failed", "user_id", userID, "error", err)
		return prefs
	}
	if len(prefs.Flavors) == 0 {
		prefs.Flavors = inferred.Flavors
	}
	if len(prefs.Tags) == 0 {
		prefs.Tags = inferred.Tags
	}
	if len(prefs.Ingredients) == 0 {
		prefs.Ingredients = inferred.Ingredients
	}
	return prefs
}
