package usecase

import (
	"fmt"
	"strings"

	"github.com/zxcasde/RecipeGraphRAG/internal/core/domain"
)

// progressKeywords map progress phrases in the user's message onto a
// step offset. Positive offsets are absolute indexes into the step
// list; negative offsets count back from the end. Ordered: first
// match wins.
var progressKeywords = []struct {
	keyword string
	offset  int
}{
	{"chopped", 0},
	{"prepped", 0},
	{"heated the pan", 1},
	{"pan is hot", 1},
	{"oil is hot", 1},
	{"stir fried", 2},
	{"stir-fried", 2},
	{"seasoned", -2},
	{"added the seasoning", -2},
	{"plated", -1},
	{"ready to serve", -1},
}

// guidancePhrases detect a progress-report request embedded in a
// how_to_cook query.
var guidancePhrases = []string{
	"next step", "what's next", "what now", "then what",
	"how do i continue", "i've chopped", "i have chopped",
}

// isGuidanceQuery reports whether the message asks for mid-cooking
// guidance rather than the full recipe.
func isGuidanceQuery(text string) bool {
	return containsAny(strings.ToLower(text), guidancePhrases)
}

// BuildGuidance resolves the user's reported progress against the
// recipe's ordered steps and returns the next instruction.
func BuildGuidance(detail domain.RecipeDetail, message string) domain.CookingGuidance {
	guidance := domain.CookingGuidance{
		Recipe:     detail.Name,
		TotalSteps: len(detail.Steps),
		Tips:       detail.Tips,
	}
	if len(detail.Steps) == 0 {
		guidance.Completed = true
		guidance.Progress = "0/0"
		guidance.Message = fmt.Sprintf("No step-by-step instructions are recorded for %s.", detail.Name)
		return guidance
	}

	// Unmatched text leaves the state at the first step.
	lower := strings.ToLower(message)
	currentIdx := 0
	for _, entry := range progressKeywords {
		if strings.Contains(lower, entry.keyword) {
			currentIdx = entry.offset
			if currentIdx < 0 {
				currentIdx = len(detail.Steps) + currentIdx
			}
			break
		}
	}

	nextIdx := currentIdx + 1
	if nextIdx >= len(detail.Steps) {
		guidance.Completed = true
		guidance.CurrentStep = len(detail.Steps)
		guidance.Progress = fmt.Sprintf("%d/%d", len(detail.Steps), len(detail.Steps))
		guidance.Message = fmt.Sprintf("All steps for %s are done. Enjoy!", detail.Name)
		return guidance
	}

	guidance.CurrentStep = nextIdx
	guidance.Progress = fmt.Sprintf("%d/%d", nextIdx, len(detail.Steps))
	guidance.NextStep = detail.Steps[nextIdx]
	return guidance
}
