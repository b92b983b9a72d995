package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labdraft/backend/internal/domain/providers"
	"github.com/labdraft/backend/pkg/config"
	apperrors "github.com/labdraft/backend/pkg/errors"
)

const (
	defaultCallTimeout = 60 * time.Second
	defaultRetryDelay  = 2 * time.Second
	defaultMaxAttempts = 3

	transportSDK  = "sdk"
	transportWire = "wire"
)

// Client invokes the external generative-text service. The first attempt goes
// through the structured SDK-shaped endpoint; subsequent attempts fall back to
// the direct wire endpoint for the same logical service. The delay between
// attempts is fixed, not exponential: the service is latency-bound, not
// load-bound, at this call site.
type Client struct {
	apiKey       string
	model        string
	sdkEndpoint  string
	wireEndpoint string
	httpClient   *http.Client
	callTimeout  time.Duration
	retryDelay   time.Duration
	maxAttempts  int
}

// NewClient creates a new generation client.
func NewClient(cfg *config.GenAIConfig) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("genai api key is required")
	}

	callTimeout := cfg.CallTimeout
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	return &Client{
		apiKey:       cfg.APIKey,
		model:        cfg.Model,
		sdkEndpoint:  cfg.SDKEndpoint,
		wireEndpoint: cfg.WireEndpoint,
		httpClient:   &http.Client{},
		callTimeout:  callTimeout,
		retryDelay:   retryDelay,
		maxAttempts:  maxAttempts,
	}, nil
}

// Generate invokes the external service and returns the transport-normalized
// response envelope. It mutates no job state; persistence is the caller's
// concern.
func (c *Client) Generate(ctx context.Context, prompt string) (*providers.RawServiceResponse, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, apperrors.NewTransportError("generation aborted", ctx.Err())
			case <-time.After(c.retryDelay):
			}
		}

		transport := transportWire
		if attempt == 1 {
			transport = transportSDK
		}

		resp, err := c.callTransport(ctx, transport, prompt)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}

	if errors.Is(lastErr, context.DeadlineExceeded) {
		return nil, apperrors.NewTimeoutError(
			fmt.Sprintf("generation service timed out after %d attempts", c.maxAttempts), lastErr)
	}
	return nil, apperrors.NewTransportError(
		fmt.Sprintf("generation service unreachable after %d attempts", c.maxAttempts), lastErr)
}

// callTransport performs one attempt against the named transport under the
// per-call deadline. A timed-out attempt fails whole; partial bodies are
// discarded.
func (c *Client) callTransport(ctx context.Context, transport, prompt string) (*providers.RawServiceResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	var (
		url  string
		body []byte
		err  error
	)

	switch transport {
	case transportSDK:
		url = fmt.Sprintf("%s/models/%s:generate", c.sdkEndpoint, c.model)
		body, err = json.Marshal(map[string]any{
			"prompt":      map[string]string{"text": prompt},
			"temperature": 0.3,
		})
	default:
		url = c.wireEndpoint + "/generate"
		body, err = json.Marshal(map[string]any{
			"model": c.model,
			"input": prompt,
		})
	}
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		recordGenerationMetric(ctx, c.model, transport, 0, time.Since(start), err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("generation request failed with status %d", resp.StatusCode)
		recordGenerationMetric(ctx, c.model, transport, resp.StatusCode, time.Since(start), err)
		return nil, err
	}

	var normalized *providers.RawServiceResponse
	switch transport {
	case transportSDK:
		var envelope sdkEnvelope
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			recordGenerationMetric(ctx, c.model, transport, resp.StatusCode, time.Since(start), err)
			return nil, fmt.Errorf("failed to decode sdk envelope: %w", err)
		}
		normalized = envelope.normalize()
	default:
		var envelope wireEnvelope
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			recordGenerationMetric(ctx, c.model, transport, resp.StatusCode, time.Since(start), err)
			return nil, fmt.Errorf("failed to decode wire envelope: %w", err)
		}
		normalized = envelope.normalize()
	}

	recordGenerationMetric(ctx, c.model, transport, resp.StatusCode, time.Since(start), nil)
	return normalized, nil
}
