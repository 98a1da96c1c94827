// Package rerank adapts a Cohere-style /rerank HTTP API to the domain
// Reranker contract.
package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kbindex/kbindex/internal/domain"
	"github.com/kbindex/kbindex/internal/metrics"
)

// Reranker is a cross-encoder relevance scoring provider.
type Reranker struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	logger     *zap.Logger
}

// Config holds the rerank provider settings.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewReranker creates a rerank provider client.
func NewReranker(cfg *Config) *Reranker {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Reranker{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		logger:     cfg.Logger,
	}
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// Rerank scores every candidate against the query. The returned slice
// has one score per candidate; index refers to the candidate position.
func (r *Reranker) Rerank(ctx context.Context, query string, candidates []string) ([]domain.RerankScore, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(rerankRequest{
		Model:     r.model,
		Query:     query,
		Documents: candidates,
		TopN:      len(candidates),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	start := time.Now()

	resp, err := r.httpClient.Do(req)

	duration := time.Since(start)

	if err != nil {
		metrics.RerankRequestsTotal.WithLabelValues(r.model, "error").Inc()
		return nil, fmt.Errorf("rerank request failed: %w: %w", err, domain.ErrRerankProviderError)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.RerankRequestsTotal.WithLabelValues(r.model, "error").Inc()
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("rerank API error %d: %s: %w",
			resp.StatusCode, strings.TrimSpace(string(detail)), domain.ErrRerankProviderError)
	}

	var parsed rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		metrics.RerankRequestsTotal.WithLabelValues(r.model, "error").Inc()
		return nil, fmt.Errorf("decode rerank response: %w: %w", err, domain.ErrRerankProviderError)
	}

	if len(parsed.Results) != len(candidates) {
		metrics.RerankRequestsTotal.WithLabelValues(r.model, "error").Inc()
		return nil, fmt.Errorf("rerank response has %d scores for %d candidates: %w",
			len(parsed.Results), len(candidates), domain.ErrRerankProviderError)
	}

	scores := make([]domain.RerankScore, len(parsed.Results))
	for i, res := range parsed.Results {
		if res.Index < 0 || res.Index >= len(candidates) {
			metrics.RerankRequestsTotal.WithLabelValues(r.model, "error").Inc()
			return nil, fmt.Errorf("rerank response index %d out of range: %w",
				res.Index, domain.ErrRerankProviderError)
		}
		scores[i] = domain.RerankScore{Index: res.Index, Score: res.RelevanceScore}
	}

	metrics.RerankRequestsTotal.WithLabelValues(r.model, "success").Inc()
	metrics.RerankRequestDuration.WithLabelValues(r.model).Observe(duration.Seconds())
	metrics.RerankCandidatesTotal.WithLabelValues(r.model).Add(float64(len(candidates)))

	return scores, nil
}

// HealthCheck probes the provider with a minimal one-pair rerank call.
// Rerank APIs have no free listing endpoint, so a tiny scoring request
// is the cheapest availability signal.
func (r *Reranker) HealthCheck(ctx context.Context) error {
	if _, err := r.Rerank(ctx, "ping", []string{"pong"}); err != nil {
		return fmt.Errorf("rerank probe: %w", err)
	}
	return nil
}
