package ai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/aadhil-anwer/resume-analyzer/internal/config"
	"github.com/aadhil-anwer/resume-analyzer/internal/domain"
	"github.com/aadhil-anwer/resume-analyzer/internal/observability"
)

// Limiter throttles outbound AI calls. A nil Limiter means unlimited.
type Limiter interface {
	Allow(ctx domain.Context) error
}

// OpenAIClient talks to an OpenAI-compatible chat completions endpoint.
type OpenAIClient struct {
	cfg     config.Config
	hc      *http.Client
	limiter Limiter
}

// NewOpenAI constructs the client with a timeout suited to chat latency.
// Outbound calls carry otel spans so provider latency shows up in traces.
func NewOpenAI(cfg config.Config, limiter Limiter) *OpenAIClient {
	timeout := 60 * time.Second
	if cfg.IsDev() {
		timeout = 300 * time.Second
	}
	hc := &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	return &OpenAIClient{cfg: cfg, hc: hc, limiter: limiter}
}

func (c *OpenAIClient) backoffConfig() *backoff.ExponentialBackOff {
	expo := backoff.NewExponentialBackOff()
	maxElapsedTime, initialInterval, maxInterval, multiplier := c.cfg.GetAIBackoffConfig()
	expo.MaxElapsedTime = maxElapsedTime
	expo.InitialInterval = initialInterval
	expo.MaxInterval = maxInterval
	expo.Multiplier = multiplier
	return expo
}

// ChatJSON sends a system+user prompt pair and returns the raw message
// content. Rate limits and 5xx are retried with exponential backoff;
// other 4xx are permanent.
func (c *OpenAIClient) ChatJSON(ctx domain.Context, model, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	if c.cfg.OpenAIAPIKey == "" {
		return "", fmt.Errorf("%w: OPENAI_API_KEY missing", domain.ErrInvalidArgument)
	}
	if c.limiter != nil {
		if err := c.limiter.Allow(ctx); err != nil {
			return "", fmt.Errorf("op=ai.ChatJSON: %w", err)
		}
	}

	body := map[string]any{
		"model":       model,
		"temperature": 0.2,
		"max_tokens":  maxTokens,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
	}
	b, _ := json.Marshal(body)

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	endpoint := c.cfg.OpenAIBaseURL + "/chat/completions"
	op := func() error {
		start := time.Now()
		// Recreate the request each attempt; the body reader is consumed.
		r, _ := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
		r.Header.Set("Authorization", "Bearer "+c.cfg.OpenAIAPIKey)
		r.Header.Set("Content-Type", "application/json")
		resp, err := c.hc.Do(r)
		observability.AIRequestsTotal.WithLabelValues("openai", "chat").Inc()
		observability.AIRequestDuration.WithLabelValues("openai", "chat").Observe(time.Since(start).Seconds())
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			slog.Warn("ai provider rate limited", slog.String("provider", "openai"), slog.String("model", model))
			return fmt.Errorf("rate limited: 429")
		}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			snippet := string(bodyBytes)
			if len(snippet) > 512 {
				snippet = snippet[:512]
			}
			slog.Warn("ai provider 4xx", slog.String("provider", "openai"), slog.Int("status", resp.StatusCode), slog.String("model", model), slog.String("body", snippet))
			return backoff.Permanent(fmt.Errorf("chat status %d", resp.StatusCode))
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			slog.Error("ai provider non-2xx", slog.String("provider", "openai"), slog.Int("status", resp.StatusCode), slog.String("model", model))
			return fmt.Errorf("chat status %d", resp.StatusCode)
		}
		return json.Unmarshal(bodyBytes, &out)
	}

	bo := backoff.WithContext(c.backoffConfig(), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return "", fmt.Errorf("openai chat failed: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("empty choices from chat completions")
	}
	return out.Choices[0].Message.Content, nil
}
