package usecase

import (
	"regexp"
	"strings"

	"github.com/zxcasde/RecipeGraphRAG/internal/core/domain"
)

// cookedVerbPattern gates dishes_cooked: a dish mention only counts as
// cooked when the text contains a cooking-completion verb.
var cookedVerbPattern = regexp.MustCompile(`(?i)\b(?:cooked|made|prepared|baked|grilled|fried|stewed|steamed|roasted)\b`)

// likeWords gate dishes_liked.
var likeWords = []string{"love", "like", "favorite", "favourite", "enjoy", "fond of", "crazy about"}

// preferenceContextWords gate flavor and ingredient extraction so that
// purely informational queries do not register as likes.
var preferenceContextWords = []string{"love", "like", "prefer", "favorite", "favourite", "enjoy", "crave", "fond of", "in the mood for", "taste"}

// Fallback keyword tables. Each canonical entry only fires when the
// graph vocabulary produced no hit for that category.
var flavorFallbackTable = []struct {
	canonical string
	keywords  []string
}{
	{"sour", []string{"sour", "tangy", "vinegary"}},
	{"sweet", []string{"sweet", "sugary", "dessert"}},
	{"bitter", []string{"bitter"}},
	{"spicy", []string{"spicy", "hot and spicy", "chili", "fiery", "mild heat"}},
	{"salty", []string{"salty", "briny", "strong flavored"}},
	{"savory", []string{"savory", "umami"}},
	{"numbing", []string{"numbing", "sichuan pepper", "mala"}},
	{"fragrant", []string{"fragrant", "aromatic"}},
	{"light", []string{"light", "plain", "low oil", "low salt"}},
}

var tagFallbackTable = []struct {
	canonical string
	keywords  []string
}{
	{"late-night", []string{"late night", "stay up", "night owl", "midnight snack"}},
	{"overtime", []string{"overtime", "busy at work", "no time to cook"}},
	{"fitness", []string{"fitness", "workout", "exercise", "muscle"}},
	{"weight-loss", []string{"weight loss", "diet", "slimming", "low calorie", "low-cal"}},
	{"wellness", []string{"wellness", "nourishing", "restorative"}},
	{"quick", []string{"quick", "fast", "simple", "convenient", "10 minutes", "5 minutes"}},
	{"entertaining", []string{"entertaining", "hosting", "dinner party", "guests over"}},
	{"bento", []string{"bento", "packed lunch", "lunchbox"}},
	{"drinking", []string{"goes with beer", "drinking snack", "with drinks"}},
	{"breakfast", []string{"breakfast", "morning meal"}},
	{"lunch", []string{"lunch", "midday meal"}},
	{"dinner", []string{"dinner", "evening meal"}},
}

var ingredientFallbackList = []string{
	"chicken", "pork", "beef", "lamb", "fish", "shrimp", "crab", "egg", "tofu",
	"potato", "tomato", "cucumber", "eggplant", "bell pepper", "onion", "garlic", "ginger",
	"rice", "noodles", "flour", "bean sprouts", "cabbage", "spinach", "celery",
}

// ExtractPreferences mines dish/flavor/tag/ingredient signals from
// free text against a graph vocabulary snapshot. Pure and
// deterministic: same (text, vocabulary) pair, same output, no side
// effects. Persistence is the caller's responsibility.
func ExtractPreferences(text string, vocab domain.Vocabulary) domain.ExtractedPreferences {
	result := domain.ExtractedPreferences{
		DishesCooked: []string{},
		DishesLiked:  []string{},
		Flavors:      []string{},
		Tags:         []string{},
		Ingredients:  []string{},
	}
	lower := strings.ToLower(text)

	hasCookedVerb := cookedVerbPattern.MatchString(text)
	hasLikeWord := containsAny(lower, likeWords)
	hasPreferenceContext := containsAny(lower, preferenceContextWords)

	// Dishes: greedy substring scan over the full vocabulary, gated by
	// the cooked-verb pattern or a like word.
	for _, dish := range vocab.Dishes {
		if dish == "" || !strings.Contains(lower, strings.ToLower(dish)) {
			continue
		}
		if hasCookedVerb {
			result.DishesCooked = appendUnique(result.DishesCooked, dish)
			continue
		}
		if hasLikeWord && !contains(result.DishesCooked, dish) {
			result.DishesLiked = appendUnique(result.DishesLiked, dish)
		}
	}

	// Flavors require a preference-context word so informational
	// queries ("is this dish spicy?") cannot register as likes.
	if hasPreferenceContext {
		for _, flavor := range vocab.Flavors {
			if flavor != "" && strings.Contains(lower, strings.ToLower(flavor)) {
				result.Flavors = appendUnique(result.Flavors, flavor)
			}
		}
	}
	if len(result.Flavors) == 0 && hasPreferenceContext {
		for _, entry := range flavorFallbackTable {
			if containsAny(lower, entry.keywords) {
				result.Flavors = appendUnique(result.Flavors, entry.canonical)
			}
		}
	}

	// Tags carry no preference gate: mentioning a habit is the signal.
	for _, tag := range vocab.Tags {
		if tag != "" && strings.Contains(lower, strings.ToLower(tag)) {
			result.Tags = appendUnique(result.Tags, tag)
		}
	}
	if len(result.Tags) == 0 {
		for _, entry := range tagFallbackTable {
			if containsAny(lower, entry.keywords) {
				result.Tags = appendUnique(result.Tags, entry.canonical)
			}
		}
	}

	if hasPreferenceContext {
		for _, ingredient := range vocab.Ingredients {
			if ingredient != "" && strings.Contains(lower, strings.ToLower(ingredient)) {
				result.Ingredients = appendUnique(result.Ingredients, ingredient)
			}
		}
		if len(result.Ingredients) == 0 {
			for _, ingredient := range ingredientFallbackList {
				if strings.Contains(lower, ingredient) {
					result.Ingredients = appendUnique(result.Ingredients, ingredient)
				}
			}
		}
	}

	result.HasPreference = len(result.DishesCooked) > 0 ||
		len(result.DishesLiked) > 0 ||
		len(result.Flavors) > 0 ||
		len(result.Tags) > 0 ||
		len(result.Ingredients) > 0
	return result
}

func appendUnique(list []string, value string) []string {
	if contains(list, value) {
		return list
	}
	return append(list, value)
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
