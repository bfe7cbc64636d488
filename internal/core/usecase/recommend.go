package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/zxcasde/RecipeGraphRAG/internal/core/domain"
	"github.com/zxcasde/RecipeGraphRAG/internal/core/ports"
)

// sceneTagTable maps scene phrases onto the canonical tag set used for
// graph lookup. First matching entry wins.
var sceneTagTable = []struct {
	scene   string
	phrases []string
	tags    []string
}{
	{
		scene:   "late-night",
		phrases: []string{"late night", "working late", "stay up", "midnight", "night shift"},
		tags:    []string{"late-night", "quick", "simple"},
	},
	{
		scene:   "overtime",
		phrases: []string{"overtime", "just got off work", "no time to cook", "after work"},
		tags:    []string{"quick", "simple", "convenient"},
	},
	{
		scene:   "bento",
		phrases: []string{"bento", "packed lunch", "lunchbox", "bring to work"},
		tags:    []string{"bento", "keeps-well", "simple"},
	},
	{
		scene:   "entertaining",
		phrases: []string{"dinner party", "guests over", "potluck", "hosting friends", "entertaining"},
		tags:    []string{"entertaining", "impressive", "banquet"},
	},
	{
		scene:   "fitness",
		phrases: []string{"workout", "after the gym", "fitness", "high protein", "muscle"},
		tags:    []string{"fitness", "high-protein", "low-fat"},
	},
	{
		scene:   "diet",
		phrases: []string{"diet", "weight loss", "slimming", "low calorie", "eating light"},
		tags:    []string{"weight-loss", "low-calorie", "light"},
	},
	{
		scene:   "breakfast",
		phrases: []string{"breakfast", "morning meal", "start the day"},
		tags:    []string{"breakfast", "quick"},
	},
	{
		scene:   "wellness",
		phrases: []string{"nourishing", "feeling under the weather", "recovery meal", "wellness"},
		tags:    []string{"wellness", "soup", "light"},
	},
}

// sceneFallbackKeywords are single keywords tried one by one when no
// scene phrase matched. Each hit contributes itself as a lookup tag.
var sceneFallbackKeywords = []string{
	"quick", "simple", "midnight snack", "bento", "entertaining", "healthy", "light",
}

// RecommendationEngine produces the graph-only recommendation lists.
// Its outputs are kept separate from the fused hybrid ranking.
type RecommendationEngine struct {
	graph  ports.GraphStore
	logger *slog.Logger
}

func NewRecommendationEngine(graph ports.GraphStore, logger *slog.Logger) *RecommendationEngine {
	return &RecommendationEngine{graph: graph, logger: logger}
}

// Unexplored returns recipes the user has never cooked, scored 2 per
// flavor match and 1 per tag match against the profile aggregated from
// their history. Zero-score entries are dropped; ties break on easier
// difficulty first.
func (e *RecommendationEngine) Unexplored(ctx context.Context, userID string, limit int) ([]domain.UnexploredRecommendation, error) {
	hits, err := e.graph.UnexploredRecipes(ctx, userID, limit*3)
	if err != nil {
		return nil, err
	}
	out := make([]domain.UnexploredRecommendation, 0, len(hits))
	for _, hit := range hits {
		hit.Score = 2*hit.FlavorMatches + hit.TagMatches
		if hit.Score <= 0 {
			continue
		}
		hit.Reason = unexploredReason(hit)
		out = append(out, hit)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Difficulty < out[j].Difficulty
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func unexploredReason(hit domain.UnexploredRecommendation) string {
	parts := []string{}
	if hit.FlavorMatches > 0 {
		parts = append(parts, fmt.Sprintf("matches %d of your flavors", hit.FlavorMatches))
	}
	if hit.TagMatches > 0 {
		parts = append(parts, fmt.Sprintf("matches %d of your tags", hit.TagMatches))
	}
	return "You haven't cooked this yet; " + strings.Join(parts, " and ")
}

// SceneTags resolves the query text to the canonical tag set for its
// scene, or nil when no scene is recognized.
func SceneTags(query string) (string, []string) {
	lower := strings.ToLower(query)
	for _, entry := range sceneTagTable {
		if containsAny(lower, entry.phrases) {
			return entry.scene, entry.tags
		}
	}
	for _, keyword := range sceneFallbackKeywords {
		if strings.Contains(lower, keyword) {
			return keyword, []string{keyword}
		}
	}
	return "", nil
}

// SceneSearch recognizes the scene behind the query and returns
// recipes ranked by how many of the scene's tags they carry.
func (e *RecommendationEngine) SceneSearch(ctx context.Context, query string, limit int) ([]domain.SceneRecommendation, error) {
	scene, tags := SceneTags(query)
	if len(tags) == 0 {
		return nil, nil
	}
	hits, err := e.graph.ByTags(ctx, tags, limit)
	if err != nil {
		return nil, err
	}
	out := make([]domain.SceneRecommendation, 0, len(hits))
	for _, hit := range hits {
		matched := intersect(hit.Tags, tags)
		out = append(out, domain.SceneRecommendation{
			Name:        hit.Name,
			Difficulty:  hit.Difficulty,
			Tags:        hit.Tags,
			Flavors:     hit.Flavors,
			TagMatches:  len(matched),
			MatchedTags: matched,
			Reason:      fmt.Sprintf("fits your %s scene (%s)", scene, strings.Join(matched, ", ")),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TagMatches != out[j].TagMatches {
			return out[i].TagMatches > out[j].TagMatches
		}
		return out[i].Difficulty < out[j].Difficulty
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SimilarWithExplanation pairs the user's recent liked and cooked
// recipes with un-cooked ones sharing flavors, ingredients or tags,
// scored 3 per flavor, 2 per ingredient and 1 per tag, each with a
// readable explanation of the overlap.
func (e *RecommendationEngine) SimilarWithExplanation(ctx context.Context, userID string, limit int) ([]domain.SimilarRecommendation, error) {
	hits, err := e.graph.SimilarToHistory(ctx, userID, limit*3)
	if err != nil {
		return nil, err
	}
	out := make([]domain.SimilarRecommendation, 0, len(hits))
	for _, hit := range hits {
		hit.Score = 3*len(hit.CommonFlavors) + 2*len(hit.CommonIngredients) + len(hit.CommonTags)
		if hit.Score <= 0 {
			continue
		}
		hit.Explanation, hit.ShortReason = similarExplanation(hit)
		out = append(out, hit)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Difficulty < out[j].Difficulty
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func similarExplanation(hit domain.SimilarRecommendation) (string, string) {
	verb := "cooked"
	if hit.Action == string(domain.ActionLiked) {
		verb = "liked"
	}
	parts := []string{}
	short := []string{}
	if len(hit.CommonFlavors) > 0 {
		parts = append(parts, "the same "+strings.Join(hit.CommonFlavors, ", ")+" flavor")
		short = append(short, "same flavor")
	}
	if len(hit.CommonIngredients) > 0 {
		parts = append(parts, "shared ingredients ("+strings.Join(hit.CommonIngredients, ", ")+")")
		short = append(short, "shared ingredients")
	}
	if len(hit.CommonTags) > 0 {
		parts = append(parts, "matching tags ("+strings.Join(hit.CommonTags, ", ")+")")
		short = append(short, "matching tags")
	}
	explanation := fmt.Sprintf("Because you %s %s, you may enjoy %s: it has %s.",
		verb, hit.Source, hit.Name, strings.Join(parts, " and "))
	switch {
	case hit.Difficulty > 0 && hit.Difficulty <= 2:
		explanation += " It is also simpler to make."
	case hit.Difficulty >= 4:
		explanation += " It makes a good step-up challenge."
	}
	return explanation, strings.Join(short, ", ")
}

func intersect(a, b []string) []string {
	set := make(map[string]struct{}, len(b))
	for _, v := range b {
		set[v] = struct{}{}
	}
	out := []string{}
	for _, v := range a {
		if _, ok := set[v]; ok {
			out = append(out, v)
		}
	}
	return out
}
