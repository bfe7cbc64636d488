package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/zxcasde/RecipeGraphRAG/internal/core/domain"
	"github.com/zxcasde/RecipeGraphRAG/internal/core/ports"
	"github.com/zxcasde/RecipeGraphRAG/internal/observability/metrics"
)

// Options tunes the traffic-control middleware in front of the API.
type Options struct {
	RateLimitRPS     int
	RateLimitBurst   int
	MaxConcurrent    int
	BackpressureWait time.Duration
	Service          string
}

type Router struct {
	retriever ports.Retriever
	recorder  ports.InteractionRecorder
	profiles  ports.ProfileReader
	recipes   ports.RecipeReader
	metrics   *metrics.HTTPServerMetrics
	logger    *slog.Logger
	opts      Options
}

func NewRouter(
	retriever ports.Retriever,
	recorder ports.InteractionRecorder,
	profiles ports.ProfileReader,
	recipes ports.RecipeReader,
	serverMetrics *metrics.HTTPServerMetrics,
	logger *slog.Logger,
	opts Options,
) *Router {
	if opts.Service == "" {
		opts.Service = "api"
	}
	return &Router{
		retriever: retriever,
		recorder:  recorder,
		profiles:  profiles,
		recipes:   recipes,
		metrics:   serverMetrics,
		logger:    logger,
		opts:      opts,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/retrieve", rt.retrieve)
	mux.HandleFunc("/v1/interactions", rt.recordInteraction)
	mux.HandleFunc("/v1/recipes/", rt.recipeRoutes)
	mux.HandleFunc("/v1/users/", rt.userProfile)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.opts.MaxConcurrent > 0 {
		handler = backpressureMiddleware(handler, rt.opts.MaxConcurrent, rt.opts.BackpressureWait)
	}
	if rt.opts.RateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.opts.RateLimitRPS, rt.opts.RateLimitBurst)
	}
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.opts.Service, handler)
	}
	handler = accessLogMiddleware(rt.logger, handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) retrieve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Query  string `json:"query"`
		UserID string `json:"user_id"`
		TopK   int    `json:"top_k"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	start := time.Now()
	bundle, err := rt.retriever.Retrieve(r.Context(), req.Query, req.UserID, req.TopK)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordRetrieval(
			rt.opts.Service,
			string(bundle.Query.Intent),
			bundle.Fusion.Branch,
			len(bundle.Results),
			len(bundle.VectorCandidates),
			len(bundle.GraphCandidates),
			bundle.Query.Fallback,
			time.Since(start),
		)
	}
	writeJSON(w, http.StatusOK, bundle)
}

func (rt *Router) recordInteraction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var event domain.InteractionEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	if err := rt.recorder.Record(r.Context(), event); err != nil {
		rt.writeError(w, r, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordInteractionAccepted(rt.opts.Service, string(event.Action))
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (rt *Router) recipeRoutes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/recipes/")
	if name, ok := strings.CutSuffix(rest, "/similar"); ok {
		rt.similarRecipes(w, r, name)
		return
	}
	rt.recipeDetail(w, r, rest)
}

func (rt *Router) recipeDetail(w http.ResponseWriter, r *http.Request, rawName string) {
	name, err := url.PathUnescape(rawName)
	if err != nil || name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "recipe name is required"})
		return
	}

	depth := queryInt(r, "depth", 1)
	detail, err := rt.recipes.Detail(r.Context(), name, depth)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (rt *Router) similarRecipes(w http.ResponseWriter, r *http.Request, rawName string) {
	name, err := url.PathUnescape(rawName)
	if err != nil || name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "recipe name is required"})
		return
	}

	k := queryInt(r, "k", 5)
	hits, err := rt.recipes.Similar(r.Context(), name, k)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recipe": name, "similar": hits})
}

func (rt *Router) userProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/users/")
	userID, ok := strings.CutSuffix(rest, "/profile")
	if !ok || userID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user id is required"})
		return
	}

	profile, err := rt.profiles.Profile(r.Context(), userID)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= 500 {
		rt.logger.Error("request failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
