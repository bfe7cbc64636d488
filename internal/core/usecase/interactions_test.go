package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/zxcasde/RecipeGraphRAG/internal/core/domain"
)

func TestInteractionRecordValidation(t *testing.T) {
	queue := &fakeQueue{}
	u := NewInteractionUseCase(queue, discardLogger())
	ctx := context.Background()

	cases := []struct {
		name  string
		event domain.InteractionEvent
	}{
		{"missing user", domain.InteractionEvent{Action: domain.ActionLiked, Recipe: "Mapo Tofu"}},
		{"missing recipe", domain.InteractionEvent{UserID: "u1", Action: domain.ActionLiked}},
		{"unknown action", domain.InteractionEvent{UserID: "u1", Action: "bookmarked", Recipe: "Mapo Tofu"}},
		{"rating too high", domain.InteractionEvent{UserID: "u1", Action: domain.ActionCooked, Recipe: "Mapo Tofu", Rating: 6}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := u.Record(ctx, tc.event)
			if !domain.IsKind(err, domain.ErrInvalidInput) {
				t.Fatalf("err = %v, want invalid input", err)
			}
		})
	}
	if len(queue.published) != 0 {
		t.Fatalf("invalid events published: %+v", queue.published)
	}
}

func TestInteractionRecordPublishesWithTimestamp(t *testing.T) {
	queue := &fakeQueue{}
	u := NewInteractionUseCase(queue, discardLogger())

	err := u.Record(context.Background(), domain.InteractionEvent{
		UserID: "u1", Action: domain.ActionCooked, Recipe: "Mapo Tofu", Rating: 5,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(queue.published) != 1 {
		t.Fatalf("published = %+v", queue.published)
	}
	if queue.published[0].At.IsZero() {
		t.Fatal("timestamp not stamped")
	}
}

func TestInteractionWorkerPersistsEdgeAndRefreshesPreferences(t *testing.T) {
	graph := &fakeGraph{inferred: domain.PreferenceDocument{Flavors: []string{"spicy"}}}
	users := &fakeUsers{}
	w := NewInteractionWorker(graph, users, discardLogger())

	event := domain.InteractionEvent{
		UserID: "u1", Action: domain.ActionLiked, Recipe: "Mapo Tofu", At: time.Now().UTC(),
	}
	if err := w.Process(context.Background(), event); err != nil {
		t.Fatal(err)
	}
	if len(graph.recorded) != 1 || graph.recorded[0].Recipe != "Mapo Tofu" {
		t.Fatalf("recorded = %+v", graph.recorded)
	}
	if len(users.merged) != 1 || users.merged[0].Flavors[0] != "spicy" {
		t.Fatalf("merged = %+v", users.merged)
	}
}

func TestInteractionWorkerSearchedSkipsPreferenceRefresh(t *testing.T) {
	graph := &fakeGraph{inferred: domain.PreferenceDocument{Flavors: []string{"spicy"}}}
	users := &fakeUsers{}
	w := NewInteractionWorker(graph, users, discardLogger())

	event := domain.InteractionEvent{UserID: "u1", Action: domain.ActionSearched, Recipe: "Mapo Tofu"}
	if err := w.Process(context.Background(), event); err != nil {
		t.Fatal(err)
	}
	if len(users.merged) != 0 {
		t.Fatalf("searched event refreshed preferences: %+v", users.merged)
	}
}

func TestInteractionWorkerDropsUnknownAction(t *testing.T) {
	graph := &fakeGraph{}
	w := NewInteractionWorker(graph, &fakeUsers{}, discardLogger())

	event := domain.InteractionEvent{UserID: "u1", Action: "bookmarked", Recipe: "Mapo Tofu"}
	if err := w.Process(context.Background(), event); err != nil {
		t.Fatal(err)
	}
	if len(graph.recorded) != 0 {
		t.Fatalf("unknown action persisted: %+v", graph.recorded)
	}
}

func TestInteractionWorkerDropsEventForUnknownRecipe(t *testing.T) {
	graph := &fakeGraph{err: domain.WrapError(domain.ErrNotFound, "record interaction", domain.ErrNotFound)}
	users := &fakeUsers{}
	w := NewInteractionWorker(graph, users, discardLogger())

	event := domain.InteractionEvent{UserID: "u1", Action: domain.ActionLiked, Recipe: "Ghost Dish"}
	if err := w.Process(context.Background(), event); err != nil {
		t.Fatalf("unknown recipe should be dropped, got %v", err)
	}
	if len(users.merged) != 0 {
		t.Fatalf("dropped event refreshed preferences: %+v", users.merged)
	}
}
