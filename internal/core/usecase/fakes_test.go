package usecase

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/zxcasde/RecipeGraphRAG/internal/core/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeGraph struct {
	mu             sync.Mutex
	details        map[string]domain.RecipeDetail
	byIngredient   map[string][]domain.GraphHit
	byTag          map[string][]domain.GraphHit
	byFlavor       map[string][]domain.GraphHit
	byTags         func(tags []string, limit int) []domain.GraphHit
	similar        map[string][]domain.SimilarHit
	history        []domain.Interaction
	inferred       domain.PreferenceDocument
	vocab          domain.Vocabulary
	unexplored     []domain.UnexploredRecommendation
	similarHistory []domain.SimilarRecommendation
	recorded       []domain.InteractionEvent
	err            error
	byTagsArgs     [][]string
}

func (f *fakeGraph) RecipeDetail(_ context.Context, name string, _ int) (domain.RecipeDetail, error) {
	if f.err != nil {
		return domain.RecipeDetail{}, f.err
	}
	return f.details[name], nil
}

func (f *fakeGraph) ByIngredient(_ context.Context, name string, _ int) ([]domain.GraphHit, error) {
	return f.byIngredient[name], f.err
}

func (f *fakeGraph) ByTag(_ context.Context, name string, _ int) ([]domain.GraphHit, error) {
	return f.byTag[name], f.err
}

func (f *fakeGraph) ByFlavor(_ context.Context, name string, _ int) ([]domain.GraphHit, error) {
	return f.byFlavor[name], f.err
}

func (f *fakeGraph) ByTags(_ context.Context, tags []string, limit int) ([]domain.GraphHit, error) {
	f.mu.Lock()
	f.byTagsArgs = append(f.byTagsArgs, tags)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.byTags == nil {
		return nil, nil
	}
	return f.byTags(tags, limit), nil
}

func (f *fakeGraph) SimilarRecipes(_ context.Context, name string, _ int) ([]domain.SimilarHit, error) {
	return f.similar[name], f.err
}

func (f *fakeGraph) UserHistory(_ context.Context, _ string) ([]domain.Interaction, error) {
	return f.history, f.err
}

func (f *fakeGraph) InferredPreferences(_ context.Context, _ string) (domain.PreferenceDocument, error) {
	return f.inferred, f.err
}

func (f *fakeGraph) Vocabulary(_ context.Context) (domain.Vocabulary, error) {
	return f.vocab, f.err
}

func (f *fakeGraph) UnexploredRecipes(_ context.Context, _ string, _ int) ([]domain.UnexploredRecommendation, error) {
	return f.unexplored, f.err
}

func (f *fakeGraph) SimilarToHistory(_ context.Context, _ string, _ int) ([]domain.SimilarRecommendation, error) {
	return f.similarHistory, f.err
}

func (f *fakeGraph) RecordInteraction(_ context.Context, event domain.InteractionEvent) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	f.recorded = append(f.recorded, event)
	f.mu.Unlock()
	return nil
}

type fakeVector struct {
	identity []domain.VectorHit
	profile  []domain.VectorHit
	err      error
}

func (f *fakeVector) Search(_ context.Context, _ []float32, _ int, space domain.VectorSpace) ([]domain.VectorHit, error) {
	if f.err != nil {
		return nil, f.err
	}
	if space == domain.SpaceIdentity {
		return f.identity, nil
	}
	return f.profile, nil
}

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeUsers struct {
	mu     sync.Mutex
	prefs  map[string]domain.PreferenceDocument
	getErr error
	merged []domain.PreferenceDocument
}

func (f *fakeUsers) GetPreferences(_ context.Context, userID string) (domain.PreferenceDocument, error) {
	if f.getErr != nil {
		return domain.PreferenceDocument{}, f.getErr
	}
	prefs, ok := f.prefs[userID]
	if !ok {
		return domain.PreferenceDocument{}, domain.ErrNotFound
	}
	return prefs, nil
}

func (f *fakeUsers) MergePreferences(_ context.Context, _ string, prefs domain.PreferenceDocument) error {
	f.mu.Lock()
	f.merged = append(f.merged, prefs)
	f.mu.Unlock()
	return nil
}

type fakeAnalyzer struct {
	qc  domain.QueryContext
	err error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, _ string) (domain.QueryContext, error) {
	return f.qc, f.err
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []domain.InteractionEvent
	err    error
}

func (f *fakeRecorder) Record(_ context.Context, event domain.InteractionEvent) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	f.events = append(f.events, event)
	f.mu.Unlock()
	return nil
}

type fakeQueue struct {
	mu        sync.Mutex
	published []domain.InteractionEvent
	err       error
}

func (f *fakeQueue) PublishInteraction(_ context.Context, event domain.InteractionEvent) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	f.published = append(f.published, event)
	f.mu.Unlock()
	return nil
}

func (f *fakeQueue) SubscribeInteractions(_ context.Context, _ func(context.Context, domain.InteractionEvent) error) error {
	return nil
}
