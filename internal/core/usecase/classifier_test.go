package usecase

import (
	"testing"

	"github.com/zxcasde/RecipeGraphRAG/internal/core/domain"
)

func TestFallbackClassifyIntents(t *testing.T) {
	cases := []struct {
		query string
		want  domain.Intent
	}{
		{"recommend me something spicy", domain.IntentRecommend},
		{"how to make mapo tofu", domain.IntentHowToCook},
		{"what ingredients are in kung pao chicken", domain.IntentIngredientSearch},
		// Scene phrases stay entities; the intent set is fixed at four.
		{"working overtime again, dinner ideas", domain.IntentQueryDish},
		{"mapo tofu", domain.IntentQueryDish},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			qc := fallbackClassify(tc.query)
			if qc.Intent != tc.want {
				t.Fatalf("intent = %q, want %q", qc.Intent, tc.want)
			}
			if !qc.Fallback {
				t.Fatal("fallback flag not set")
			}
			if qc.RawText != tc.query || qc.OptimizedText != tc.query {
				t.Fatalf("texts = %q / %q", qc.RawText, qc.OptimizedText)
			}
		})
	}
}

func TestFallbackClassifyEntities(t *testing.T) {
	qc := fallbackClassify("something spicy and quick for a late night")

	if len(qc.Entities.Scenes) == 0 || qc.Entities.Scenes[0] != "late night" {
		t.Fatalf("scenes = %v", qc.Entities.Scenes)
	}
	if len(qc.Entities.Flavors) == 0 || qc.Entities.Flavors[0] != "spicy" {
		t.Fatalf("flavors = %v", qc.Entities.Flavors)
	}
	if len(qc.Entities.Tags) == 0 || qc.Entities.Tags[0] != "quick" {
		t.Fatalf("tags = %v", qc.Entities.Tags)
	}
	if len(qc.Keywords) != 3 {
		t.Fatalf("keywords = %v", qc.Keywords)
	}
}

func TestFallbackClassifyDeterministic(t *testing.T) {
	a := fallbackClassify("recommend a sweet and sour dish")
	b := fallbackClassify("recommend a sweet and sour dish")
	if a.Intent != b.Intent || len(a.Keywords) != len(b.Keywords) {
		t.Fatalf("non-deterministic result: %+v vs %+v", a, b)
	}
}
