package usecase

import (
	"strings"
	"testing"

	"github.com/zxcasde/RecipeGraphRAG/internal/core/domain"
)

func sixStepRecipe() domain.RecipeDetail {
	return domain.RecipeDetail{
		Name: "Braised Pork Belly",
		Tips: "Keep the heat low during the braise.",
		Steps: []string{
			"Cut the pork belly into cubes",
			"Blanch the cubes and drain",
			"Caramelize sugar in the wok",
			"Add pork and aromatics, then braise",
			"Season and reduce the sauce",
			"Plate and garnish",
		},
	}
}

func TestBuildGuidanceMidProgress(t *testing.T) {
	g := BuildGuidance(sixStepRecipe(), "the pan is hot, what's next?")

	if g.Completed {
		t.Fatal("marked completed mid-recipe")
	}
	if g.Progress != "2/6" {
		t.Fatalf("progress = %q, want 2/6", g.Progress)
	}
	if g.NextStep != "Caramelize sugar in the wok" {
		t.Fatalf("next step = %q", g.NextStep)
	}
	if g.Tips == "" {
		t.Fatal("tips dropped")
	}
}

func TestBuildGuidanceUnmatchedTextStaysAtFirstStep(t *testing.T) {
	g := BuildGuidance(sixStepRecipe(), "what now?")

	if g.Progress != "1/6" {
		t.Fatalf("progress = %q, want 1/6", g.Progress)
	}
	if g.NextStep != "Blanch the cubes and drain" {
		t.Fatalf("next step = %q", g.NextStep)
	}
}

func TestBuildGuidanceNegativeOffsetCountsFromEnd(t *testing.T) {
	g := BuildGuidance(sixStepRecipe(), "I've seasoned it, then what?")

	// "seasoned" is the second-to-last step, so the next is the last.
	if g.Progress != "5/6" {
		t.Fatalf("progress = %q, want 5/6", g.Progress)
	}
	if g.NextStep != "Plate and garnish" {
		t.Fatalf("next step = %q", g.NextStep)
	}
}

func TestBuildGuidanceCompleted(t *testing.T) {
	g := BuildGuidance(sixStepRecipe(), "all plated, how do I continue?")

	if !g.Completed {
		t.Fatal("not marked completed")
	}
	if g.Progress != "6/6" {
		t.Fatalf("progress = %q, want 6/6", g.Progress)
	}
	if g.NextStep != "" {
		t.Fatalf("next step = %q after completion", g.NextStep)
	}
	if !strings.Contains(g.Message, "Braised Pork Belly") {
		t.Fatalf("message = %q", g.Message)
	}
}

func TestBuildGuidanceNoSteps(t *testing.T) {
	g := BuildGuidance(domain.RecipeDetail{Name: "Mystery Dish"}, "what's next?")

	if !g.Completed {
		t.Fatal("steps-less recipe should short-circuit")
	}
	if g.Progress != "0/0" {
		t.Fatalf("progress = %q", g.Progress)
	}
}

func TestIsGuidanceQuery(t *testing.T) {
	if !isGuidanceQuery("I've chopped everything, what's next?") {
		t.Fatal("progress report not detected")
	}
	if isGuidanceQuery("how to make mapo tofu") {
		t.Fatal("plain how-to misdetected as progress report")
	}
}
