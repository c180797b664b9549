package aisvc

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"

	"github.com/trezcool/classboard/core"
	"github.com/trezcool/classboard/core/report"
)

// ErrNotConfigured is returned by every call when no API key was configured.
var ErrNotConfigured = errors.New("AI API key is not configured")

const temperature = 0.4

type Client struct {
	llm     llms.Model
	limiter *rate.Limiter
	timeout time.Duration
	logger  core.Logger
}

var _ report.Completer = (*Client)(nil)

// NewClient talks to any OpenAI compatible chat completion endpoint (Gemini by default).
func NewClient(conf *core.Config, logger core.Logger) (*Client, error) {
	c := &Client{
		limiter: rate.NewLimiter(rate.Inf, 1),
		timeout: conf.AI.Timeout,
		logger:  logger,
	}
	if conf.AI.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(conf.AI.RateLimit), 1)
	}
	if conf.AI.APIKey == "" {
		logger.Warn("AI API key is not set: reports and chat are disabled")
		return c, nil
	}

	llm, err := openai.New(
		openai.WithBaseURL(conf.AI.BaseURL),
		openai.WithModel(conf.AI.Model),
		openai.WithToken(conf.AI.APIKey),
		openai.WithHTTPClient(&http.Client{Timeout: conf.AI.Timeout}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "creating AI client")
	}
	c.llm = llm
	return c, nil
}

// Complete sends prompt as a single user message and returns the text answer.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if c.llm == nil {
		return "", ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", errors.Wrap(err, "waiting for AI rate limiter")
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	answer, err := llms.GenerateFromSinglePrompt(ctx, c.llm, prompt, llms.WithTemperature(temperature))
	if err != nil {
		return "", errors.Wrap(err, "AI completion")
	}
	c.logger.Debug("AI completion", "took", time.Since(start), "promptChars", len(prompt))
	return answer, nil
}
