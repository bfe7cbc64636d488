package usecase

import (
	"strings"

	"github.com/zxcasde/RecipeGraphRAG/internal/core/domain"
)

// Keyword vocabularies for the deterministic fallback classifier, used
// whenever the external analyzer is absent or fails.
var (
	recommendKeywords  = []string{"recommend", "suggest", "what should", "what can i", "any ideas"}
	howToKeywords      = []string{"how to make", "how do i make", "how to cook", "recipe for", "steps for", "how is it made"}
	ingredientKeywords = []string{"what ingredients", "what do i need", "made with", "what goes into"}

	fallbackScenes  = []string{"overtime", "late night", "night shift", "workout", "weight loss", "dinner party", "weekend", "midnight snack"}
	fallbackFlavors = []string{"spicy", "numbing", "light", "sour", "sweet", "sweet and sour", "salty", "savory"}
	fallbackTags    = []string{"simple", "quick", "easy", "beginner", "homestyle"}
)

// fallbackClassify derives a QueryContext from keyword membership
// alone. Deterministic: same text, same output.
func fallbackClassify(query string) domain.QueryContext {
	lower := strings.ToLower(query)

	intent := domain.IntentQueryDish
	switch {
	case containsAny(lower, recommendKeywords):
		intent = domain.IntentRecommend
	case containsAny(lower, howToKeywords):
		intent = domain.IntentHowToCook
	case containsAny(lower, ingredientKeywords):
		intent = domain.IntentIngredientSearch
	}

	qc := domain.QueryContext{
		RawText:       query,
		OptimizedText: query,
		Intent:        intent,
		Fallback:      true,
	}

	for _, scene := range fallbackScenes {
		if strings.Contains(lower, scene) {
			qc.Entities.Scenes = append(qc.Entities.Scenes, scene)
			qc.Keywords = append(qc.Keywords, scene)
		}
	}
	for _, flavor := range fallbackFlavors {
		if strings.Contains(lower, flavor) {
			qc.Entities.Flavors = append(qc.Entities.Flavors, flavor)
			qc.Keywords = append(qc.Keywords, flavor)
		}
	}
	for _, tag := range fallbackTags {
		if strings.Contains(lower, tag) {
			qc.Entities.Tags = append(qc.Entities.Tags, tag)
			qc.Keywords = append(qc.Keywords, tag)
		}
	}

	return qc
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
