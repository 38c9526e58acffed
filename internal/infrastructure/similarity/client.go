// Package similarity talks to an external vector index that returns catalog
// neighbours of a product. The index is optional; callers fall back to
// lexical ranking whenever it is absent or failing.
package similarity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/catalogrank/backend/internal/domain"
	"github.com/catalogrank/backend/internal/infrastructure/logging"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const maxAttempts = 3

// Config holds configuration for the similarity client
type Config struct {
	BaseURL           string
	APIKey            string
	Namespace         string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// Client queries a Pinecone-style vector index by stored vector id
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	namespace   string
	rateLimiter *rate.Limiter
	backoff     func(attempt int) time.Duration
	logger      *zap.Logger
}

// queryRequest is the body of POST /query
type queryRequest struct {
	ID              string `json:"id"`
	TopK            int    `json:"topK"`
	Namespace       string `json:"namespace,omitempty"`
	IncludeMetadata bool   `json:"includeMetadata"`
}

// queryResponse is the subset of the index response the service reads
type queryResponse struct {
	Matches []struct {
		ID    string  `json:"id"`
		Score float64 `json:"score"`
	} `json:"matches"`
}

// NewClient creates a new similarity client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		namespace:   cfg.Namespace,
		rateLimiter: rate.NewLimiter(rate.Limit(rps), max(int(rps), 1)),
		backoff:     exponentialBackoff,
		logger:      logging.OrNop(logger).Named("similarity"),
	}
}

// exponentialBackoff returns the delay before retry attempt n (1-based)
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// SimilarByID returns up to topK neighbours of productID, best first.
// Transport failures, 429 and 5xx responses are retried; other statuses fail immediately.
func (c *Client) SimilarByID(ctx context.Context, productID string, topK int) ([]domain.SimilarMatch, error) {
	if topK <= 0 {
		return []domain.SimilarMatch{}, nil
	}

	body, err := json.Marshal(queryRequest{
		ID:        productID,
		TopK:      topK,
		Namespace: c.namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %w", domain.ErrSimilarityAPIFailure, ctx.Err())
			case <-time.After(c.backoff(attempt - 1)):
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		matches, retry, err := c.query(ctx, body)
		if err == nil {
			c.logger.Debug("similarity query succeeded",
				zap.String("id", productID),
				zap.Int("matches", len(matches)),
			)
			return matches, nil
		}

		lastErr = err
		c.logger.Warn("similarity query failed",
			zap.String("id", productID),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if !retry {
			break
		}
	}

	return nil, lastErr
}

// query performs one request and reports whether a failure is worth retrying
func (c *Client) query(ctx context.Context, body []byte) ([]domain.SimilarMatch, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/query", bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("User-Agent", "CatalogRank/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, fmt.Errorf("%w: %v", domain.ErrSimilarityAPIFailure, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("%w: read body: %v", domain.ErrSimilarityAPIFailure, err)
	}

	if resp.StatusCode != http.StatusOK {
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retry, fmt.Errorf("%w: status %d, body: %s", domain.ErrSimilarityAPIFailure, resp.StatusCode, truncate(payload, 256))
	}

	var parsed queryResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, false, fmt.Errorf("%w: failed to decode response: %v", domain.ErrSimilarityAPIFailure, err)
	}

	matches := make([]domain.SimilarMatch, 0, len(parsed.Matches))
	for _, m := range parsed.Matches {
		if m.ID == "" {
			continue
		}
		matches = append(matches, domain.SimilarMatch{ID: m.ID, Score: m.Score})
	}
	return matches, false, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
