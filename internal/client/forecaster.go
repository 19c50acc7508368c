package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yourorg/forecast-service/internal/config"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ForecasterClient wraps the chat-completion API used to generate
// forecasts. A shared limiter paces requests across goroutines so the
// batch pipeline stays inside the provider's per-minute quota.
type ForecasterClient struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewForecasterClient creates a new forecaster client
func NewForecasterClient(cfg config.ForecasterConfig, logger *zap.Logger) (*ForecasterClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("forecaster API key is not set")
	}

	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 20
	}

	return &ForecasterClient{
		client:  openai.NewClient(cfg.APIKey),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1),
		logger:  logger,
	}, nil
}

// Generate sends one prompt and returns the raw reply text. The reply is
// not interpreted here; parsing belongs to the caller.
func (c *ForecasterClient) Generate(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	reqCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.CreateChatCompletion(reqCtx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "You are a disciplined equity analyst. Answer strictly in the " +
					"JSON format requested, with no commentary outside the JSON.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: 0.2,
	})
	if err != nil {
		c.logger.Error("Forecaster request failed", zap.Error(err))
		return "", fmt.Errorf("forecaster request: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("forecaster returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
