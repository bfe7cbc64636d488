package usecase

import (
	"sort"
	"strings"

	"github.com/zxcasde/RecipeGraphRAG/internal/core/domain"
)

// Fixed base weights per graph source kind.
const (
	weightIngredient = 0.9
	weightFlavor     = 0.95
	weightSceneTag   = 0.8
	weightDirectDish = 1.0
	weightSceneMatch = 0.95
)

// Profile-injection weights. Explicit applies when the query names the
// user's own taste; implicit when a bare recommend intent falls back
// onto stored preferences. Ingredients are injected on explicit
// triggers only.
const (
	weightProfileFlavorExplicit     = 0.98
	weightProfileTagExplicit        = 0.92
	weightProfileIngredientExplicit = 0.85
	weightProfileFlavorImplicit     = 0.88
	weightProfileTagImplicit        = 0.82
)

// weightPolicy selects the vector/graph split for one call. Exactly
// one branch fires and the two weights always sum to 1.0.
func weightPolicy(isPreferenceQuery, hasDishType bool) domain.FusionWeights {
	switch {
	case isPreferenceQuery:
		return domain.FusionWeights{Vector: 0.15, Graph: 0.85, Branch: "preference"}
	case hasDishType:
		return domain.FusionWeights{Vector: 0.7, Graph: 0.3, Branch: "dish_type"}
	default:
		return domain.FusionWeights{Vector: 0.4, Graph: 0.6, Branch: "default"}
	}
}

type fusedEntry struct {
	score   float64
	reasons []string
	order   int
}

// fuseCandidates merges vector and graph hits into one ranked list.
// Each source's scores are normalized against that source's own
// maximum in this call, then weighted; duplicate hits for one recipe
// accumulate additively so multi-signal agreement outranks a single
// strong signal.
func fuseCandidates(vector, graph []domain.Candidate, weights domain.FusionWeights, k int) []domain.FusedResult {
	acc := make(map[string]*fusedEntry, len(vector)+len(graph))
	nextOrder := 0

	add := func(name string, contribution float64, reason string) {
		entry, ok := acc[name]
		if !ok {
			entry = &fusedEntry{order: nextOrder}
			nextOrder++
			acc[name] = entry
		}
		entry.score += contribution
		entry.reasons = append(entry.reasons, reason)
	}

	if maxScore := maxCandidateScore(vector); maxScore > 0 {
		for _, c := range vector {
			add(c.Name, c.Score/maxScore*weights.Vector, c.Reason)
		}
	}
	if maxScore := maxCandidateScore(graph); maxScore > 0 {
		for _, c := range graph {
			add(c.Name, c.Score/maxScore*weights.Graph, c.Reason)
		}
	}

	out := make([]domain.FusedResult, 0, len(acc))
	for name, entry := range acc {
		out = append(out, domain.FusedResult{
			Name:   name,
			Score:  entry.score,
			Reason: strings.Join(entry.reasons, "; "),
			Rank:   entry.order, // temporary: first-seen order as tie-break
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Rank < out[j].Rank
	})

	if k > 0 && len(out) > k {
		out = out[:k]
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

func maxCandidateScore(candidates []domain.Candidate) float64 {
	max := 0.0
	for _, c := range candidates {
		if c.Score > max {
			max = c.Score
		}
	}
	return max
}
