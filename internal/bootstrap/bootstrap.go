package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zxcasde/RecipeGraphRAG/internal/config"
	"github.com/zxcasde/RecipeGraphRAG/internal/core/ports"
	"github.com/zxcasde/RecipeGraphRAG/internal/core/usecase"
	neo4jstore "github.com/zxcasde/RecipeGraphRAG/internal/infrastructure/graph/neo4j"
	"github.com/zxcasde/RecipeGraphRAG/internal/infrastructure/llm/ollama"
	"github.com/zxcasde/RecipeGraphRAG/internal/infrastructure/queue/nats"
	"github.com/zxcasde/RecipeGraphRAG/internal/infrastructure/repository/postgres"
	"github.com/zxcasde/RecipeGraphRAG/internal/infrastructure/resilience"
	"github.com/zxcasde/RecipeGraphRAG/internal/infrastructure/vector/qdrant"
)

// App wires every adapter and use case once; api and worker binaries
// pick the ports they serve.
type App struct {
	Config config.Config

	Queue     *nats.Queue
	Retriever ports.Retriever
	Recorder  ports.InteractionRecorder
	Profiles  ports.ProfileReader
	Recipes   ports.RecipeReader
	Worker    ports.InteractionProcessor

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	driver, err := neo4jstore.Connect(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
	if err != nil {
		return nil, fmt.Errorf("connect neo4j: %w", err)
	}
	graph := neo4jstore.NewStore(driver, logger)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	prefs := postgres.NewPreferenceRepository(db, logger)
	if err := prefs.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig(), logger)

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, logger, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel)
	analyzer := ollama.NewResilientAnalyzer(ollama.NewAnalyzer(ollamaClient), executor)
	embedder := ollama.NewResilientEmbedder(ollama.NewEmbedder(ollamaClient), executor)

	vector := qdrant.NewResilientStore(qdrant.New(cfg.QdrantURL, cfg.QdrantCollection), executor)

	profileUC := usecase.NewProfileUseCase(graph, prefs, logger)
	recommender := usecase.NewRecommendationEngine(graph, logger)
	interactionUC := usecase.NewInteractionUseCase(queue, logger)
	retrieveUC := usecase.NewRetrieveUseCase(
		analyzer,
		graph,
		vector,
		embedder,
		prefs,
		profileUC,
		recommender,
		interactionUC,
		usecase.RetrieveOptions{
			TopK:       cfg.RetrieveTopK,
			LegTimeout: cfg.RetrieveLegTimeout,
			Parallel:   cfg.RetrieveParallel,
			GraphDepth: cfg.GraphDepth,
		},
		logger,
	)
	recipeUC := usecase.NewRecipeUseCase(graph, logger)
	worker := usecase.NewInteractionWorker(graph, prefs, logger)

	return &App{
		Config: cfg,

		Queue:     queue,
		Retriever: retrieveUC,
		Recorder:  interactionUC,
		Profiles:  profileUC,
		Recipes:   recipeUC,
		Worker:    worker,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
			_ = driver.Close(context.Background())
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
