// Package backendapi is the HTTP client for the hosted Swytch analysis
// backend, covering the vision and visual-search endpoints.
package backendapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/swytch/backend/internal/domain"
	"github.com/swytch/backend/internal/platform/logger"
)

const (
	maxAttempts   = 3
	retryBackoff  = 500 * time.Millisecond
	maxBodyBytes  = 4 << 20
	requestFormat = "application/json"
)

// Client talks to the hosted analysis backend. Requests are rate limited
// client-side and retried on transient failures.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	authToken   string
	rateLimiter *rate.Limiter
	log         *logger.Logger
}

// NewClient creates a backend API client. The limiter allows 5 requests per
// second with a burst of 10, matching the backend's per-client quota.
func NewClient(baseURL, authToken string, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:     baseURL,
		authToken:   authToken,
		rateLimiter: rate.NewLimiter(rate.Limit(5), 10),
		log:         log.With("component", "backendapi"),
	}
}

type analyzeRequest struct {
	ImageURL string `json:"imageUrl"`
}

type searchRequest struct {
	VisualEmbedding []float64            `json:"visualEmbedding"`
	Category        domain.Category      `json:"category"`
	SearchTags      []string             `json:"searchTags"`
	Attributes      domain.Attributes    `json:"attributes"`
	PriceRange      domain.PriceRange    `json:"priceRange"`
	SourceProduct   domain.SourceProduct `json:"sourceProduct"`
}

type searchResponse struct {
	Products []domain.AlternativeProduct `json:"products"`
}

// AnalyzeImage submits an image reference for feature extraction.
func (c *Client) AnalyzeImage(ctx context.Context, imageURL string) (*domain.VisionProfile, error) {
	var profile domain.VisionProfile
	err := c.post(ctx, "/api/v1/vision/analyze", analyzeRequest{ImageURL: imageURL}, &profile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrImageAnalysis, err)
	}
	return &profile, nil
}

// FindSimilar submits a vision profile for visual candidate search.
func (c *Client) FindSimilar(ctx context.Context, profile *domain.VisionProfile, source *domain.SourceProduct) ([]domain.AlternativeProduct, error) {
	req := searchRequest{
		VisualEmbedding: profile.VisualEmbedding,
		Category:        profile.Category,
		SearchTags:      profile.SearchTags,
		Attributes:      profile.Attributes,
		PriceRange:      profile.EstimatedPriceRange,
		SourceProduct:   *source,
	}
	var resp searchResponse
	if err := c.post(ctx, "/api/v1/search/visual", req, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSearchFailed, err)
	}
	return resp.Products, nil
}

// post sends a JSON request and decodes the JSON response, retrying
// transient failures with linear backoff. 4xx statuses other than 429 are
// not retried.
func (c *Client) post(ctx context.Context, path string, payload, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	reqURL := c.baseURL + path

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}

		respBody, status, err := c.doRequest(ctx, reqURL, body)
		if err != nil {
			c.log.Warn("request failed", "url", reqURL, "attempt", attempt, "error", err)
			lastErr = err
			if !sleepBackoff(ctx, attempt) {
				return ctx.Err()
			}
			continue
		}

		if status != http.StatusOK {
			lastErr = fmt.Errorf("status %d: %s", status, string(respBody))
			c.log.Warn("unexpected status", "url", reqURL, "attempt", attempt, "status", status)
			if status >= 400 && status < 500 && status != http.StatusTooManyRequests {
				return lastErr
			}
			if !sleepBackoff(ctx, attempt) {
				return ctx.Err()
			}
			continue
		}

		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}

	return lastErr
}

func (c *Client) doRequest(ctx context.Context, reqURL string, body []byte) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", requestFormat)
	req.Header.Set("User-Agent", "Swytch/1.0")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response: %w", err)
	}
	return respBody, resp.StatusCode, nil
}

func sleepBackoff(ctx context.Context, attempt int) bool {
	select {
	case <-time.After(time.Duration(attempt) * retryBackoff):
		return true
	case <-ctx.Done():
		return false
	}
}
