package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zxcasde/RecipeGraphRAG/internal/bootstrap"
	"github.com/zxcasde/RecipeGraphRAG/internal/config"
	"github.com/zxcasde/RecipeGraphRAG/internal/core/domain"
	"github.com/zxcasde/RecipeGraphRAG/internal/observability/logging"
	"github.com/zxcasde/RecipeGraphRAG/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("worker", cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		logger.Info("worker metrics listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("worker metrics server failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeInteractions(ctx, func(handlerCtx context.Context, event domain.InteractionEvent) error {
		workerMetrics.StartEvent()
		if !event.At.IsZero() {
			workerMetrics.ObserveQueueLag("worker", time.Since(event.At))
		}

		start := time.Now()
		processCtx, cancel := context.WithTimeout(handlerCtx, 1*time.Minute)
		defer cancel()

		processErr := app.Worker.Process(processCtx, event)
		workerMetrics.FinishEvent("worker", string(event.Action), time.Since(start), processErr)
		return processErr
	})
	if err != nil {
		logger.Error("worker subscribe failed", "error", err)
		os.Exit(1)
	}
}
