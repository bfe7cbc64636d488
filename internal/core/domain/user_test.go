package domain

import (
	"reflect"
	"testing"
)

func TestPreferenceDocumentMergeIsMonotonicUnion(t *testing.T) {
	doc := PreferenceDocument{Flavors: []string{"spicy"}, Tags: []string{"quick"}}

	changed := doc.Merge(PreferenceDocument{
		Flavors:     []string{"spicy", "sweet"},
		Ingredients: []string{"tofu"},
	})
	if !changed {
		t.Fatal("merge reported no change")
	}
	if !reflect.DeepEqual(doc.Flavors, []string{"spicy", "sweet"}) {
		t.Fatalf("flavors = %v", doc.Flavors)
	}
	if !reflect.DeepEqual(doc.Tags, []string{"quick"}) {
		t.Fatalf("tags = %v", doc.Tags)
	}
	if !reflect.DeepEqual(doc.Ingredients, []string{"tofu"}) {
		t.Fatalf("ingredients = %v", doc.Ingredients)
	}

	// Merging the same content again is a no-op.
	if doc.Merge(PreferenceDocument{Flavors: []string{"sweet"}}) {
		t.Fatal("idempotent merge reported a change")
	}
}

func TestPreferenceDocumentIsEmpty(t *testing.T) {
	if !(PreferenceDocument{}).IsEmpty() {
		t.Fatal("zero document not empty")
	}
	if (PreferenceDocument{Tags: []string{"quick"}}).IsEmpty() {
		t.Fatal("document with tags reported empty")
	}
}

func TestValidAction(t *testing.T) {
	for _, a := range []InteractionAction{ActionSearched, ActionCooked, ActionLiked} {
		if !ValidAction(a) {
			t.Fatalf("%q rejected", a)
		}
	}
	if ValidAction("bookmarked") {
		t.Fatal("unknown action accepted")
	}
}

func TestRecipeDetailEmpty(t *testing.T) {
	if !(RecipeDetail{Name: "x"}).Empty() {
		t.Fatal("detail without steps or ingredients not empty")
	}
	if (RecipeDetail{Name: "x", Steps: []string{"chop"}}).Empty() {
		t.Fatal("detail with steps reported empty")
	}
	if (RecipeDetail{Name: "x", Ingredients: []RecipePart{{Name: "tofu"}}}).Empty() {
		t.Fatal("detail with ingredients reported empty")
	}
}
