package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// remoteDimensions is the embedding width carried on Chunk/KnowledgeNote
// rows; every Embedder in this package, remote or local, must agree on it.
const remoteDimensions = 1024

// Remote calls an external embedding service over HTTP. It posts
// {"input": text} and expects {"embedding": [...]} back, the minimal
// request/response shape shared by the embedding-service APIs this daemon
// is meant to sit in front of.
type Remote struct {
	endpoint string
	client   *http.Client
}

// NewRemote builds a Remote client against endpoint with the given request
// timeout. No third-party HTTP client in the example pack (gRPC/gin are
// both server-side concerns there) fits an outbound JSON POST better than
// net/http's own client, so this is built on the standard library.
func NewRemote(endpoint string, timeout time.Duration) *Remote {
	return &Remote{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type remoteRequest struct {
	Input string `json:"input"`
}

type remoteResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (r *Remote) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(remoteRequest{Input: text})
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call embedding service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding service returned status %d", resp.StatusCode)
	}

	var out remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}
	if len(out.Embedding) != remoteDimensions {
		return nil, fmt.Errorf("embedding service returned %d dimensions, want %d", len(out.Embedding), remoteDimensions)
	}

	return out.Embedding, nil
}

func (r *Remote) Dimensions() int {
	return remoteDimensions
}
