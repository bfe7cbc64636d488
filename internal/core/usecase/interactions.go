package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/zxcasde/RecipeGraphRAG/internal/core/domain"
	"github.com/zxcasde/RecipeGraphRAG/internal/core/ports"
)

// InteractionUseCase validates explicit user actions and hands them to
// the queue. Persistence happens asynchronously in the worker.
type InteractionUseCase struct {
	queue  ports.InteractionQueue
	logger *slog.Logger
}

func NewInteractionUseCase(queue ports.InteractionQueue, logger *slog.Logger) *InteractionUseCase {
	return &InteractionUseCase{queue: queue, logger: logger}
}

// Record implements ports.InteractionRecorder.
func (u *InteractionUseCase) Record(ctx context.Context, event domain.InteractionEvent) error {
	if event.UserID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "record interaction", errors.New("empty user id"))
	}
	if event.Recipe == "" {
		return domain.WrapError(domain.ErrInvalidInput, "record interaction", errors.New("empty recipe"))
	}
	if !domain.ValidAction(event.Action) {
		return domain.WrapError(domain.ErrInvalidInput, "record interaction",
			fmt.Errorf("unknown action %q", event.Action))
	}
	if event.Rating != 0 && (event.Rating < 1 || event.Rating > 5) {
		return domain.WrapError(domain.ErrInvalidInput, "record interaction",
			fmt.Errorf("rating %d out of range", event.Rating))
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	return u.queue.PublishInteraction(ctx, event)
}

// InteractionWorker drains the queue and persists each event as a
// typed edge in the graph plus a preference-document update.
type InteractionWorker struct {
	graph  ports.GraphStore
	users  ports.UserStore
	logger *slog.Logger
}

func NewInteractionWorker(graph ports.GraphStore, users ports.UserStore, logger *slog.Logger) *InteractionWorker {
	return &InteractionWorker{graph: graph, users: users, logger: logger}
}

// Process implements ports.InteractionProcessor. Graph persistence is
// authoritative; a failed preference refresh is logged, not retried,
// since the next liked or cooked event re-derives it.
func (w *InteractionWorker) Process(ctx context.Context, event domain.InteractionEvent) error {
	if !domain.ValidAction(event.Action) {
		w.logger.Warn("dropping event with unknown action", "action", event.Action, "user_id", event.UserID)
		return nil
	}
	if err := w.graph.RecordInteraction(ctx, event); err != nil {
		if domain.IsKind(err, domain.ErrNotFound) {
			w.logger.Warn("dropping event for unknown recipe",
				"recipe", event.Recipe, "user_id", event.UserID)
			return nil
		}
		return domain.WrapError(domain.ErrTemporary, "record interaction edge", err)
	}
	w.logger.Info("interaction persisted",
		"user_id", event.UserID, "action", event.Action, "recipe", event.Recipe)

	if event.Action == domain.ActionSearched {
		return nil
	}
	inferred, err := w.graph.InferredPreferences(ctx, event.UserID)
	if err != nil {
		w.logger.Warn("preference inference after interaction failed", "user_id", event.UserID, "error", err)
		return nil
	}
	if inferred.IsEmpty() {
		return nil
	}
	if err := w.users.MergePreferences(ctx, event.UserID, inferred); err != nil {
		w.logger.Warn("preference refresh failed", "user_id", event.UserID, "error", err)
	}
	return nil
}
