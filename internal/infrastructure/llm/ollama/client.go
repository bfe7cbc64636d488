package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/zxcasde/RecipeGraphRAG/internal/core/domain"
)

type Client struct {
	baseURL    string
	genModel   string
	embedModel string
	httpClient *http.Client
}

func New(baseURL, genModel, embedModel string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		genModel:   genModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// Analyzer classifies query intent and extracts entities through the
// generation model. Callers fall back to the keyword classifier when
// it errs; an Analyzer failure must never fail retrieval.
type Analyzer struct {
	client *Client
}

func NewAnalyzer(client *Client) *Analyzer {
	return &Analyzer{client: client}
}

func (a *Analyzer) Analyze(ctx context.Context, query string) (domain.QueryContext, error) {
	respText, err := a.client.generateJSON(ctx, buildAnalysisPrompt(query))
	if err != nil {
		return domain.QueryContext{}, err
	}

	var result domain.QueryContext
	if err := json.Unmarshal([]byte(extractJSONObject(respText)), &result); err != nil {
		return domain.QueryContext{}, fmt.Errorf("parse analysis json: %w", err)
	}
	result.RawText = query
	if result.OptimizedText == "" {
		result.OptimizedText = query
	}
	if !validIntent(result.Intent) {
		return domain.QueryContext{}, fmt.Errorf("model returned unknown intent %q", result.Intent)
	}
	return result, nil
}

func validIntent(intent domain.Intent) bool {
	switch intent {
	case domain.IntentQueryDish, domain.IntentRecommend, domain.IntentHowToCook,
		domain.IntentIngredientSearch:
		return true
	}
	return false
}

// Embedder builds query vectors with the embedding model.
type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": e.client.embedModel,
		"input": texts,
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := e.client.postJSON(ctx, "/api/embed", request, &response, "embed"); err != nil {
		return nil, err
	}
	return response.Embeddings, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

func (c *Client) generateJSON(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.genModel,
		"prompt": prompt,
		"stream": false,
		"format": "json",
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := c.postJSON(ctx, "/api/generate", reqBody, &response, "generate"); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
