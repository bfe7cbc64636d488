package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/zxcasde/RecipeGraphRAG/internal/core/domain"
	"github.com/zxcasde/RecipeGraphRAG/internal/core/ports"
)

// preferenceQueryPhrases make the fusion policy trust the graph almost
// entirely: the user is asking about their own taste.
var preferenceQueryPhrases = []string{
	"my taste", "suits me", "my preference", "my usual",
}

// sceneTriggerWords gate the scene shortcut: when any of them appears
// in the raw text, the scene-search recommender runs and its hits join
// the graph candidates. Deliberately smaller than the phrase table in
// recommend.go.
var sceneTriggerWords = []string{
	"late night", "working late", "overtime", "bento",
	"dinner party", "workout", "weight loss",
}

// RetrieveOptions carries the operational knobs for one retriever
// instance.
type RetrieveOptions struct {
	// TopK is the default result count when the caller passes k <= 0.
	TopK int
	// LegTimeout bounds each retrieval leg. Zero means unbounded.
	LegTimeout time.Duration
	// Parallel runs the vector and graph legs concurrently. Off means
	// sequential degradation, vector first.
	Parallel bool
	// GraphDepth is the neighborhood depth for detail hydration.
	GraphDepth int
}

// RetrieveUseCase orchestrates one hybrid retrieval call end to end:
// analysis, user context, dual-leg recall, fusion, hydration.
type RetrieveUseCase struct {
	analyzer    ports.QueryAnalyzer
	graph       ports.GraphStore
	vector      ports.VectorStore
	embedder    ports.Embedder
	users       ports.UserStore
	profile     *ProfileUseCase
	recommender *RecommendationEngine
	recorder    ports.InteractionRecorder
	opts        RetrieveOptions
	logger      *slog.Logger
}

func NewRetrieveUseCase(
	analyzer ports.QueryAnalyzer,
	graph ports.GraphStore,
	vector ports.VectorStore,
	embedder ports.Embedder,
	users ports.UserStore,
	profile *ProfileUseCase,
	recommender *RecommendationEngine,
	recorder ports.InteractionRecorder,
	opts RetrieveOptions,
	logger *slog.Logger,
) *RetrieveUseCase {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	if opts.GraphDepth <= 0 {
		opts.GraphDepth = 1
	}
	return &RetrieveUseCase{
		analyzer:    analyzer,
		graph:       graph,
		vector:      vector,
		embedder:    embedder,
		users:       users,
		profile:     profile,
		recommender: recommender,
		recorder:    recorder,
		opts:        opts,
		logger:      logger,
	}
}

// Retrieve implements ports.Retriever.
func (u *RetrieveUseCase) Retrieve(ctx context.Context, query, userID string, k int) (*domain.ResultBundle, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "retrieve", errors.New("empty query"))
	}
	if k <= 0 {
		k = u.opts.TopK
	}

	qc := u.analyze(ctx, query)
	bundle := &domain.ResultBundle{
		Query:   qc,
		Results: []domain.FusedResult{},
		Details: map[string]domain.RecipeDetail{},
	}

	if userID != "" {
		user, err := u.profile.Load(ctx, userID)
		if err == nil {
			bundle.User = user
		}
		u.mineQueryPreferences(ctx, userID, query)
	}

	var vector, graph []domain.Candidate
	if qc.Intent == domain.IntentHowToCook && len(qc.Entities.Dishes) > 0 {
		// Exactness-first branch: fetch named dishes directly so step
		// answers are not diluted by loosely related hits.
		vector, graph = u.directDishLeg(ctx, qc, bundle)
	} else {
		vector, graph = u.runLegs(ctx, qc, bundle, k)
	}
	bundle.VectorCandidates = vector
	bundle.GraphCandidates = graph

	isPreference := containsAny(strings.ToLower(query), preferenceQueryPhrases)
	hasDishType := len(qc.Entities.Dishes) > 0
	bundle.Fusion = weightPolicy(isPreference, hasDishType)
	bundle.Results = fuseCandidates(vector, graph, bundle.Fusion, k)

	u.hydrate(ctx, bundle)
	u.attachUserExtras(ctx, qc, bundle, query, userID, k)
	return bundle, nil
}

// analyze runs the external classifier and falls back to the
// deterministic keyword classifier on any failure.
func (u *RetrieveUseCase) analyze(ctx context.Context, query string) domain.QueryContext {
	qc, err := u.analyzer.Analyze(ctx, query)
	if err != nil {
		u.logger.Warn("query analysis failed, using fallback classifier", "error", err)
		return fallbackClassify(query)
	}
	if qc.RawText == "" {
		qc.RawText = query
	}
	if qc.OptimizedText == "" {
		qc.OptimizedText = query
	}
	return qc
}

// mineQueryPreferences extracts taste signals from the query text,
// merges them into the stored document and enqueues liked/cooked dish
// mentions as interactions. Every failure here is logged and ignored:
// preference mining never blocks retrieval.
func (u *RetrieveUseCase) mineQueryPreferences(ctx context.Context, userID, query string) {
	vocab, err := u.graph.Vocabulary(ctx)
	if err != nil {
		u.logger.Warn("vocabulary snapshot failed", "error", err)
		vocab = domain.Vocabulary{}
	}
	extracted := ExtractPreferences(query, vocab)
	if !extracted.HasPreference {
		return
	}

	doc := domain.PreferenceDocument{
		Flavors:     extracted.Flavors,
		Tags:        extracted.Tags,
		Ingredients: extracted.Ingredients,
	}
	if !doc.IsEmpty() {
		if err := u.users.MergePreferences(ctx, userID, doc); err != nil {
			u.logger.Warn("preference merge failed", "user_id", userID, "error", err)
		}
	}

	if u.recorder == nil {
		return
	}
	for _, dish := range extracted.DishesCooked {
		u.recordMention(ctx, userID, domain.ActionCooked, dish)
	}
	for _, dish := range extracted.DishesLiked {
		u.recordMention(ctx, userID, domain.ActionLiked, dish)
	}
}

func (u *RetrieveUseCase) recordMention(ctx context.Context, userID string, action domain.InteractionAction, dish string) {
	event := domain.InteractionEvent{UserID: userID, Action: action, Recipe: dish, At: time.Now().UTC()}
	if err := u.recorder.Record(ctx, event); err != nil {
		u.logger.Warn("interaction enqueue failed", "user_id", userID, "action", action, "error", err)
	}
}

// directDishLeg fetches each named dish straight from the graph. A
// dish that comes back without steps or ingredients was not really
// found, so the identity embedding space recovers near-name matches
// for it instead.
func (u *RetrieveUseCase) directDishLeg(ctx context.Context, qc domain.QueryContext, bundle *domain.ResultBundle) (vector, graph []domain.Candidate) {
	for _, dish := range qc.Entities.Dishes {
		detail, err := u.graph.RecipeDetail(ctx, dish, 1)
		if err != nil {
			u.logger.Warn("dish lookup failed", "dish", dish, "error", err)
			continue
		}
		if !detail.Empty() {
			bundle.Details[detail.Name] = detail
			graph = append(graph, domain.Candidate{
				Name:   detail.Name,
				Score:  weightDirectDish,
				Source: domain.SourceDish,
				Reason: fmt.Sprintf("exact match for %s", dish),
			})
			continue
		}
		vector = append(vector, u.nearNameCandidates(ctx, dish)...)
	}
	return vector, graph
}

// nearNameCandidates searches the name-only embedding space with the
// dish name itself, so misspelled or partial names still resolve.
func (u *RetrieveUseCase) nearNameCandidates(ctx context.Context, dish string) []domain.Candidate {
	embedding, err := u.embedder.EmbedQuery(ctx, dish)
	if err != nil {
		u.logger.Warn("dish name embedding failed", "dish", dish, "error", err)
		return nil
	}
	hits, err := u.vector.Search(ctx, embedding, 3, domain.SpaceIdentity)
	if err != nil {
		u.logger.Warn("identity vector search failed", "dish", dish, "error", err)
		return nil
	}
	out := make([]domain.Candidate, 0, len(hits))
	for _, hit := range hits {
		out = append(out, domain.Candidate{
			Name:   hit.Name,
			Score:  hit.Score,
			Source: domain.SourceVector,
			Reason: fmt.Sprintf("closest match to %s", dish),
		})
	}
	return out
}

// runLegs executes the vector and graph recall legs, concurrently when
// configured. A failed leg contributes zero candidates and is logged;
// it never aborts the call.
func (u *RetrieveUseCase) runLegs(ctx context.Context, qc domain.QueryContext, bundle *domain.ResultBundle, k int) (vector, graph []domain.Candidate) {
	legCtx := ctx
	if u.opts.LegTimeout > 0 {
		var cancel context.CancelFunc
		legCtx, cancel = context.WithTimeout(ctx, u.opts.LegTimeout)
		defer cancel()
	}

	if !u.opts.Parallel {
		vector = u.vectorLeg(legCtx, qc, k)
		graph = u.graphLeg(legCtx, qc, bundle, k)
		return vector, graph
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		vector = u.vectorLeg(legCtx, qc, k)
	}()
	go func() {
		defer wg.Done()
		graph = u.graphLeg(legCtx, qc, bundle, k)
	}()
	wg.Wait()
	return vector, graph
}

func (u *RetrieveUseCase) vectorLeg(ctx context.Context, qc domain.QueryContext, k int) []domain.Candidate {
	embedding, err := u.embedder.EmbedQuery(ctx, qc.OptimizedText)
	if err != nil {
		u.logger.Warn("query embedding failed", "error", err)
		return nil
	}
	hits, err := u.vector.Search(ctx, embedding, 2*k, domain.SpaceProfile)
	if err != nil {
		u.logger.Warn("vector search failed", "error", err)
		return nil
	}
	out := make([]domain.Candidate, 0, len(hits))
	for _, hit := range hits {
		out = append(out, domain.Candidate{
			Name:   hit.Name,
			Score:  hit.Score,
			Source: domain.SourceVector,
			Reason: "semantically similar to your query",
		})
	}
	return out
}

// graphLeg fans out over the extracted entities plus the scene
// shortcut and the user's preference profile. Each sub-lookup failure
// is logged and skipped. Ingredient and flavor lookups are suppressed
// when a named dish already pins the query, so exact answers are not
// diluted by generalized matches.
func (u *RetrieveUseCase) graphLeg(ctx context.Context, qc domain.QueryContext, bundle *domain.ResultBundle, k int) []domain.Candidate {
	out := []domain.Candidate{}

	queryIntent := qc.Intent == domain.IntentQueryDish || qc.Intent == domain.IntentIngredientSearch
	suppressEntityLookups := len(qc.Entities.Dishes) > 0 &&
		(qc.Intent == domain.IntentQueryDish || qc.Intent == domain.IntentHowToCook)

	for _, dish := range qc.Entities.Dishes {
		detail, err := u.graph.RecipeDetail(ctx, dish, 1)
		if err != nil {
			u.logger.Warn("dish lookup failed", "dish", dish, "error", err)
			continue
		}
		if detail.Empty() {
			continue
		}
		bundle.Details[detail.Name] = detail
		if queryIntent {
			out = append(out, domain.Candidate{
				Name:   detail.Name,
				Score:  weightDirectDish,
				Source: domain.SourceDish,
				Reason: fmt.Sprintf("exact match for %s", dish),
			})
		}
	}

	if !suppressEntityLookups {
		for _, ingredient := range qc.Entities.Ingredients {
			hits, err := u.graph.ByIngredient(ctx, ingredient, k)
			if err != nil {
				u.logger.Warn("ingredient lookup failed", "ingredient", ingredient, "error", err)
				continue
			}
			for _, hit := range hits {
				out = append(out, domain.Candidate{
					Name:   hit.Name,
					Score:  weightIngredient,
					Source: domain.SourceIngredient,
					Reason: fmt.Sprintf("uses %s", ingredient),
				})
			}
		}

		for _, flavor := range qc.Entities.Flavors {
			hits, err := u.graph.ByFlavor(ctx, flavor, k)
			if err != nil {
				u.logger.Warn("flavor lookup failed", "flavor", flavor, "error", err)
				continue
			}
			for _, hit := range hits {
				out = append(out, domain.Candidate{
					Name:   hit.Name,
					Score:  weightFlavor,
					Source: domain.SourceFlavor,
					Reason: fmt.Sprintf("%s flavor", flavor),
				})
			}
		}
	}

	sceneTags := append([]string{}, qc.Entities.Scenes...)
	sceneTags = append(sceneTags, qc.Entities.Tags...)
	for _, tag := range sceneTags {
		hits, err := u.graph.ByTag(ctx, tag, k)
		if err != nil {
			u.logger.Warn("tag lookup failed", "tag", tag, "error", err)
			continue
		}
		for _, hit := range hits {
			out = append(out, domain.Candidate{
				Name:   hit.Name,
				Score:  weightSceneTag,
				Source: domain.SourceScene,
				Reason: fmt.Sprintf("tagged %s", tag),
			})
		}
	}

	if containsAny(strings.ToLower(qc.RawText), sceneTriggerWords) && u.recommender != nil {
		scenes, err := u.recommender.SceneSearch(ctx, qc.RawText, k)
		if err != nil {
			u.logger.Warn("scene search failed", "error", err)
		} else {
			for _, scene := range scenes {
				out = append(out, domain.Candidate{
					Name:   scene.Name,
					Score:  weightSceneMatch,
					Source: domain.SourceScene,
					Reason: scene.Reason,
				})
			}
		}
	}

	out = append(out, u.profileCandidates(ctx, qc, bundle, k)...)
	return out
}

// profileCandidates injects graph hits driven by the stored preference
// document. Explicit taste queries inject flavors, tags and
// ingredients at near-top weight; a recommend intent that names no
// flavor, tag or ingredient of its own injects flavors and tags at a
// softer weight.
func (u *RetrieveUseCase) profileCandidates(ctx context.Context, qc domain.QueryContext, bundle *domain.ResultBundle, k int) []domain.Candidate {
	if bundle.User == nil || bundle.User.Preferences.IsEmpty() {
		return nil
	}
	explicit := containsAny(strings.ToLower(qc.RawText), preferenceQueryPhrases)
	implicit := qc.Intent == domain.IntentRecommend &&
		len(qc.Entities.Flavors) == 0 &&
		len(qc.Entities.Tags) == 0 &&
		len(qc.Entities.Ingredients) == 0
	if !explicit && !implicit {
		return nil
	}

	flavorWeight, tagWeight := weightProfileFlavorImplicit, weightProfileTagImplicit
	if explicit {
		flavorWeight, tagWeight = weightProfileFlavorExplicit, weightProfileTagExplicit
	}
	prefs := bundle.User.Preferences
	out := []domain.Candidate{}

	for _, flavor := range prefs.Flavors {
		hits, err := u.graph.ByFlavor(ctx, flavor, k)
		if err != nil {
			u.logger.Warn("profile flavor lookup failed", "flavor", flavor, "error", err)
			continue
		}
		for _, hit := range hits {
			out = append(out, domain.Candidate{
				Name:   hit.Name,
				Score:  flavorWeight,
				Source: domain.SourceProfile,
				Reason: fmt.Sprintf("you favor %s flavors", flavor),
			})
		}
	}
	for _, tag := range prefs.Tags {
		hits, err := u.graph.ByTag(ctx, tag, k)
		if err != nil {
			u.logger.Warn("profile tag lookup failed", "tag", tag, "error", err)
			continue
		}
		for _, hit := range hits {
			out = append(out, domain.Candidate{
				Name:   hit.Name,
				Score:  tagWeight,
				Source: domain.SourceProfile,
				Reason: fmt.Sprintf("matches your %s habit", tag),
			})
		}
	}
	if explicit {
		for _, ingredient := range prefs.Ingredients {
			hits, err := u.graph.ByIngredient(ctx, ingredient, k)
			if err != nil {
				u.logger.Warn("profile ingredient lookup failed", "ingredient", ingredient, "error", err)
				continue
			}
			for _, hit := range hits {
				out = append(out, domain.Candidate{
					Name:   hit.Name,
					Score:  weightProfileIngredientExplicit,
					Source: domain.SourceProfile,
					Reason: fmt.Sprintf("you often cook with %s", ingredient),
				})
			}
		}
	}
	return out
}

// hydrate attaches full recipe details to every fused result not
// already fetched by an earlier step.
func (u *RetrieveUseCase) hydrate(ctx context.Context, bundle *domain.ResultBundle) {
	for _, result := range bundle.Results {
		if _, ok := bundle.Details[result.Name]; ok {
			continue
		}
		detail, err := u.graph.RecipeDetail(ctx, result.Name, u.opts.GraphDepth)
		if err != nil {
			u.logger.Warn("detail hydration failed", "recipe", result.Name, "error", err)
			continue
		}
		if detail.Empty() {
			continue
		}
		bundle.Details[result.Name] = detail
	}
	if len(bundle.Details) == 0 {
		bundle.Details = nil
	}
}

// attachUserExtras adds the per-user bundle fields that ride alongside
// the fused ranking: scene recommendations, cooking guidance and the
// two recommend-intent lists. Each is independent and never merges
// into the primary ranking.
func (u *RetrieveUseCase) attachUserExtras(ctx context.Context, qc domain.QueryContext, bundle *domain.ResultBundle, query, userID string, k int) {
	if userID == "" {
		return
	}

	if containsAny(strings.ToLower(query), sceneTriggerWords) && u.recommender != nil {
		scenes, err := u.recommender.SceneSearch(ctx, query, k)
		if err != nil {
			u.logger.Warn("scene search failed", "error", err)
		} else {
			bundle.SceneMatches = scenes
		}
	}

	if isGuidanceQuery(query) && len(qc.Entities.Dishes) > 0 {
		u.attachGuidance(ctx, qc.Entities.Dishes[0], bundle, query)
	}

	if qc.Intent == domain.IntentRecommend && u.recommender != nil {
		unexplored, err := u.recommender.Unexplored(ctx, userID, k)
		if err != nil {
			u.logger.Warn("unexplored recommendation failed", "user_id", userID, "error", err)
		} else {
			bundle.Unexplored = unexplored
		}
		similar, err := u.recommender.SimilarWithExplanation(ctx, userID, k)
		if err != nil {
			u.logger.Warn("similar recommendation failed", "user_id", userID, "error", err)
		} else {
			bundle.Similar = similar
		}
	}
}

func (u *RetrieveUseCase) attachGuidance(ctx context.Context, dish string, bundle *domain.ResultBundle, message string) {
	detail, ok := bundle.Details[dish]
	if !ok {
		fetched, err := u.graph.RecipeDetail(ctx, dish, 1)
		if err != nil {
			u.logger.Warn("guidance dish lookup failed", "dish", dish, "error", err)
			return
		}
		detail = fetched
	}
	if detail.Empty() {
		return
	}
	guidance := BuildGuidance(detail, message)
	bundle.Guidance = &guidance
}
