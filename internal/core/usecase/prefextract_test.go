package usecase

import (
	"reflect"
	"testing"

	"github.com/zxcasde/RecipeGraphRAG/internal/core/domain"
)

func testVocabulary() domain.Vocabulary {
	return domain.Vocabulary{
		Dishes:      []string{"Mapo Tofu", "Kung Pao Chicken", "Tomato Egg Stir-Fry"},
		Ingredients: []string{"tofu", "chicken", "tomato", "egg"},
		Flavors:     []string{"spicy", "numbing", "sweet"},
		Tags:        []string{"quick", "homestyle", "late-night"},
	}
}

func TestExtractPreferencesCookedVerbGatesDishes(t *testing.T) {
	got := ExtractPreferences("I cooked Mapo Tofu last night", testVocabulary())
	if !reflect.DeepEqual(got.DishesCooked, []string{"Mapo Tofu"}) {
		t.Fatalf("dishes cooked = %v", got.DishesCooked)
	}
	if len(got.DishesLiked) != 0 {
		t.Fatalf("dishes liked = %v", got.DishesLiked)
	}
	if !got.HasPreference {
		t.Fatal("HasPreference not set")
	}
}

func TestExtractPreferencesLikeWordGatesDishes(t *testing.T) {
	got := ExtractPreferences("I love Kung Pao Chicken", testVocabulary())
	if !reflect.DeepEqual(got.DishesLiked, []string{"Kung Pao Chicken"}) {
		t.Fatalf("dishes liked = %v", got.DishesLiked)
	}
	if len(got.DishesCooked) != 0 {
		t.Fatalf("dishes cooked = %v", got.DishesCooked)
	}
}

func TestExtractPreferencesDishMentionAloneIsNotASignal(t *testing.T) {
	got := ExtractPreferences("Mapo Tofu", testVocabulary())
	if len(got.DishesCooked) != 0 || len(got.DishesLiked) != 0 {
		t.Fatalf("bare mention registered: %+v", got)
	}
}

func TestExtractPreferencesFlavorNeedsPreferenceContext(t *testing.T) {
	got := ExtractPreferences("is mapo tofu spicy?", testVocabulary())
	if len(got.Flavors) != 0 {
		t.Fatalf("informational query registered flavors: %v", got.Flavors)
	}

	got = ExtractPreferences("I really like spicy food", testVocabulary())
	if !reflect.DeepEqual(got.Flavors, []string{"spicy"}) {
		t.Fatalf("flavors = %v", got.Flavors)
	}
}

func TestExtractPreferencesFallbackOnlyWhenVocabularyMisses(t *testing.T) {
	// "mala" is not in the vocabulary, so the fallback table fires and
	// canonicalizes it to numbing.
	got := ExtractPreferences("I love mala dishes", testVocabulary())
	if !reflect.DeepEqual(got.Flavors, []string{"numbing"}) {
		t.Fatalf("flavors = %v", got.Flavors)
	}

	// A vocabulary hit suppresses the fallback even when a fallback
	// keyword is also present.
	got = ExtractPreferences("I love spicy mala dishes", testVocabulary())
	if !reflect.DeepEqual(got.Flavors, []string{"spicy"}) {
		t.Fatalf("flavors = %v", got.Flavors)
	}
}

func TestExtractPreferencesTagsNeedNoGate(t *testing.T) {
	got := ExtractPreferences("something quick tonight", testVocabulary())
	if !reflect.DeepEqual(got.Tags, []string{"quick"}) {
		t.Fatalf("tags = %v", got.Tags)
	}
}

func TestExtractPreferencesIngredientFallback(t *testing.T) {
	vocab := testVocabulary()
	vocab.Ingredients = nil
	got := ExtractPreferences("I'm in the mood for shrimp", vocab)
	if !reflect.DeepEqual(got.Ingredients, []string{"shrimp"}) {
		t.Fatalf("ingredients = %v", got.Ingredients)
	}
}

func TestExtractPreferencesEmptyText(t *testing.T) {
	got := ExtractPreferences("", testVocabulary())
	if got.HasPreference {
		t.Fatalf("empty text registered preferences: %+v", got)
	}
}

func TestExtractPreferencesDeterministic(t *testing.T) {
	a := ExtractPreferences("I cooked Mapo Tofu and love spicy food", testVocabulary())
	b := ExtractPreferences("I cooked Mapo Tofu and love spicy food", testVocabulary())
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("non-deterministic: %+v vs %+v", a, b)
	}
}
