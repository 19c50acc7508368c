package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/yourorg/forecast-service/internal/config"
	"github.com/yourorg/forecast-service/internal/model"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// NewsClient queries the news-corpus semantic search service. A failed
// or slow corpus degrades the prompt, it never fails a forecast, so
// retries are short and callers treat errors as "no headlines".
type NewsClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewNewsClient creates a new news corpus client
func NewNewsClient(cfg config.ServiceConfig, logger *zap.Logger) *NewsClient {
	return &NewsClient{
		baseURL: cfg.URL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// Search returns up to limit headlines semantically matching the query,
// newest first.
func (c *NewsClient) Search(ctx context.Context, query string, limit int) ([]model.NewsItem, error) {
	endpoint := fmt.Sprintf("%s/api/v1/search?query=%s&limit=%s",
		c.baseURL, url.QueryEscape(query), strconv.Itoa(limit))

	var items []model.NewsItem

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("news corpus returned status %d", resp.StatusCode)
		}

		var body struct {
			Results []model.NewsItem `json:"results"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode news response: %w", err))
		}

		items = body.Results
		return nil
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.MaxElapsedTime = 15 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(expBackoff, ctx)); err != nil {
		c.logger.Warn("News corpus search failed",
			zap.Error(err),
			zap.String("query", query))
		return nil, err
	}

	return items, nil
}
