package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zxcasde/RecipeGraphRAG/internal/core/domain"
)

// Client talks to Qdrant's HTTP API. Each recipe point carries two
// named vectors: "identity" embeds the name alone, "profile" embeds
// the full attribute text. The recipe name lives in the payload and is
// the join key back to the graph.
type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client
}

func New(baseURL, collection string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Search runs top-k cosine search in the given space.
func (c *Client) Search(ctx context.Context, vector []float32, k int, space domain.VectorSpace) ([]domain.VectorHit, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("empty query vector")
	}
	if k <= 0 {
		k = 5
	}

	reqBody := map[string]any{
		"vector": map[string]any{
			"name":   string(space),
			"vector": vector,
		},
		"limit":        k,
		"with_payload": true,
	}

	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	path := fmt.Sprintf("/collections/%s/points/search", c.collection)
	if err := c.postJSON(ctx, path, reqBody, &searchResp, "search"); err != nil {
		return nil, err
	}

	out := make([]domain.VectorHit, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		name := getStringPayload(r.Payload, "name")
		if name == "" {
			continue
		}
		out = append(out, domain.VectorHit{Name: name, Score: r.Score})
	}
	return out, nil
}

// IndexRecipes upserts one point per recipe with both named vectors.
// Used by the offline loader; the serving path is read-only.
func (c *Client) IndexRecipes(ctx context.Context, names []string, identity, profile [][]float32) error {
	if len(names) == 0 {
		return nil
	}
	if len(names) != len(identity) || len(names) != len(profile) {
		return fmt.Errorf("names/vectors mismatch")
	}
	if err := c.ensureCollection(ctx, len(identity[0]), len(profile[0])); err != nil {
		return err
	}

	type point struct {
		ID      string               `json:"id"`
		Vector  map[string][]float32 `json:"vector"`
		Payload map[string]any       `json:"payload"`
	}

	points := make([]point, 0, len(names))
	for i, name := range names {
		points = append(points, point{
			ID: uuid.NewString(),
			Vector: map[string][]float32{
				string(domain.SpaceIdentity): identity[i],
				string(domain.SpaceProfile):  profile[i],
			},
			Payload: map[string]any{"name": name},
		})
	}

	path := fmt.Sprintf("/collections/%s/points?wait=true", c.collection)
	return c.putJSON(ctx, path, map[string]any{"points": points}, nil, "upsert")
}

func (c *Client) ensureCollection(ctx context.Context, identitySize, profileSize int) error {
	reqBody := map[string]any{
		"vectors": map[string]any{
			string(domain.SpaceIdentity): map[string]any{
				"size":     identitySize,
				"distance": "Cosine",
			},
			string(domain.SpaceProfile): map[string]any{
				"size":     profileSize,
				"distance": "Cosine",
			},
		},
	}
	path := fmt.Sprintf("/collections/%s", c.collection)
	err := c.putJSON(ctx, path, reqBody, nil, "ensure collection")
	var statusErr *HTTPStatusError
	// 409 means the collection already exists.
	if asStatusError(err, &statusErr) && statusErr.StatusCode == http.StatusConflict {
		return nil
	}
	return err
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any, operation string) error {
	return c.doJSON(ctx, http.MethodPost, path, payload, out, operation)
}

func (c *Client) putJSON(ctx context.Context, path string, payload, out any, operation string) error {
	return c.doJSON(ctx, http.MethodPut, path, payload, out, operation)
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s body: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &HTTPStatusError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(respBody)),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
