package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zxcasde/RecipeGraphRAG/internal/core/domain"
	"github.com/zxcasde/RecipeGraphRAG/internal/observability/metrics"
)

type fakeRetriever struct {
	bundle *domain.ResultBundle
	err    error
	lastK  int
}

func (f *fakeRetriever) Retrieve(_ context.Context, query, userID string, k int) (*domain.ResultBundle, error) {
	f.lastK = k
	if f.err != nil {
		return nil, f.err
	}
	if f.bundle != nil {
		return f.bundle, nil
	}
	return &domain.ResultBundle{
		Query: domain.QueryContext{RawText: query, Intent: domain.IntentQueryDish},
		Results: []domain.FusedResult{
			{Name: "Mapo Tofu", Score: 1.0, Reason: "semantic match", Rank: 1},
		},
		Fusion: domain.FusionWeights{Vector: 0.4, Graph: 0.6, Branch: "default"},
	}, nil
}

type fakeRecorder struct {
	events []domain.InteractionEvent
	err    error
}

func (f *fakeRecorder) Record(_ context.Context, event domain.InteractionEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

type fakeProfiles struct {
	data *domain.UserData
	err  error
}

func (f *fakeProfiles) Profile(_ context.Context, userID string) (*domain.UserData, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.data != nil {
		return f.data, nil
	}
	return &domain.UserData{UserID: userID}, nil
}

type fakeRecipes struct {
	details map[string]domain.RecipeDetail
	similar map[string][]domain.SimilarHit
	err     error
}

func (f *fakeRecipes) Detail(_ context.Context, name string, _ int) (domain.RecipeDetail, error) {
	if f.err != nil {
		return domain.RecipeDetail{}, f.err
	}
	detail, ok := f.details[name]
	if !ok {
		return domain.RecipeDetail{}, domain.WrapError(domain.ErrNotFound, "recipe detail", domain.ErrNotFound)
	}
	return detail, nil
}

func (f *fakeRecipes) Similar(_ context.Context, name string, _ int) ([]domain.SimilarHit, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.similar[name], nil
}

type testDeps struct {
	retriever *fakeRetriever
	recorder  *fakeRecorder
	profiles  *fakeProfiles
	recipes   *fakeRecipes
}

func newTestHandler(t *testing.T, opts Options) (http.Handler, *testDeps) {
	t.Helper()
	deps := &testDeps{
		retriever: &fakeRetriever{},
		recorder:  &fakeRecorder{},
		profiles:  &fakeProfiles{},
		recipes: &fakeRecipes{
			details: map[string]domain.RecipeDetail{
				"Mapo Tofu": {
					Name:        "Mapo Tofu",
					Difficulty:  2,
					Ingredients: []domain.RecipePart{{Name: "tofu", Amount: "400g"}},
					Steps:       []string{"Press the tofu", "Stir fry"},
				},
			},
			similar: map[string][]domain.SimilarHit{
				"Mapo Tofu": {{Name: "Twice Cooked Pork", Score: 4, Features: []string{"spicy"}}},
			},
		},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter(
		deps.retriever,
		deps.recorder,
		deps.profiles,
		deps.recipes,
		metrics.NewHTTPServerMetrics("api-test"),
		logger,
		opts,
	)
	return router.Handler(), deps
}

func postJSONRequest(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

func TestRetrieveReturnsBundle(t *testing.T) {
	handler, deps := newTestHandler(t, Options{})

	res := postJSONRequest(t, handler, "/v1/retrieve", map[string]any{
		"query": "something spicy", "user_id": "u1", "top_k": 7,
	})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if deps.retriever.lastK != 7 {
		t.Fatalf("top_k not forwarded, got %d", deps.retriever.lastK)
	}

	var bundle domain.ResultBundle
	if err := json.NewDecoder(res.Body).Decode(&bundle); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(bundle.Results) != 1 || bundle.Results[0].Name != "Mapo Tofu" {
		t.Fatalf("unexpected results: %+v", bundle.Results)
	}
	if res.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected request id header")
	}
}

func TestRetrieveRejectsEmptyQuery(t *testing.T) {
	handler, _ := newTestHandler(t, Options{})

	res := postJSONRequest(t, handler, "/v1/retrieve", map[string]any{"query": "   "})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestRetrieveMapsTemporaryErrorTo503(t *testing.T) {
	handler, deps := newTestHandler(t, Options{})
	deps.retriever.err = domain.WrapError(domain.ErrTemporary, "vector search", domain.ErrTemporary)

	res := postJSONRequest(t, handler, "/v1/retrieve", map[string]any{"query": "spicy"})
	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
}

func TestRecordInteractionAccepted(t *testing.T) {
	handler, deps := newTestHandler(t, Options{})

	res := postJSONRequest(t, handler, "/v1/interactions", map[string]any{
		"user_id": "u1", "recipe": "Mapo Tofu", "action": "cooked", "rating": 5,
	})
	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", res.Code, res.Body.String())
	}
	if len(deps.recorder.events) != 1 {
		t.Fatalf("expected one recorded event, got %d", len(deps.recorder.events))
	}
	if deps.recorder.events[0].Action != domain.ActionCooked {
		t.Fatalf("action = %q", deps.recorder.events[0].Action)
	}
}

func TestRecordInteractionMapsInvalidInputTo400(t *testing.T) {
	handler, deps := newTestHandler(t, Options{})
	deps.recorder.err = domain.WrapError(domain.ErrInvalidInput, "record interaction", domain.ErrInvalidInput)

	res := postJSONRequest(t, handler, "/v1/interactions", map[string]any{
		"user_id": "u1", "recipe": "Mapo Tofu", "action": "devoured",
	})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestRecipeDetailFound(t *testing.T) {
	handler, _ := newTestHandler(t, Options{})

	req := httptest.NewRequest(http.MethodGet, "/v1/recipes/Mapo%20Tofu?depth=2", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}

	var detail domain.RecipeDetail
	if err := json.NewDecoder(res.Body).Decode(&detail); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if detail.Name != "Mapo Tofu" || len(detail.Steps) != 2 {
		t.Fatalf("unexpected detail: %+v", detail)
	}
}

func TestRecipeDetailNotFound(t *testing.T) {
	handler, _ := newTestHandler(t, Options{})

	req := httptest.NewRequest(http.MethodGet, "/v1/recipes/Unknown%20Dish", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestSimilarRecipes(t *testing.T) {
	handler, _ := newTestHandler(t, Options{})

	req := httptest.NewRequest(http.MethodGet, "/v1/recipes/Mapo%20Tofu/similar?k=3", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}

	var resp struct {
		Recipe  string              `json:"recipe"`
		Similar []domain.SimilarHit `json:"similar"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Recipe != "Mapo Tofu" || len(resp.Similar) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestUserProfileRoute(t *testing.T) {
	handler, deps := newTestHandler(t, Options{})
	deps.profiles.data = &domain.UserData{
		UserID:      "u1",
		Preferences: domain.PreferenceDocument{Flavors: []string{"spicy"}},
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/users/u1/profile", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}

	var data domain.UserData
	if err := json.NewDecoder(res.Body).Decode(&data); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if data.UserID != "u1" || len(data.Preferences.Flavors) != 1 {
		t.Fatalf("unexpected profile: %+v", data)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler, _ := newTestHandler(t, Options{})

	req := httptest.NewRequest(http.MethodGet, "/v1/retrieve", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", res.Code)
	}
}

func TestHealthz(t *testing.T) {
	handler, _ := newTestHandler(t, Options{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
}
