// Package forward implements the HTTP shell that wraps the request/response
// translators: it issues the outbound POST to the configured provider,
// retries transient failures with bounded backoff, reframes streaming
// bodies into Anthropic SSE events, and forwards passthrough requests
// byte-for-byte to a provider that already speaks the Anthropic wire format.
package forward

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/outpostai/claudeproxy/internal/apperror"
	"github.com/outpostai/claudeproxy/internal/config"
	"github.com/outpostai/claudeproxy/internal/logging"
	"github.com/outpostai/claudeproxy/internal/protocol/anthropic"
	"github.com/outpostai/claudeproxy/internal/protocol/openai"
	"github.com/outpostai/claudeproxy/internal/translate"
	"github.com/outpostai/claudeproxy/internal/utils"
)

// retryableStatuses are upstream HTTP statuses worth retrying: rate limiting
// and the 5xx family that usually clears up on its own.
var retryableStatuses = map[int]bool{
	429: true,
	500: true,
	502: true,
	503: true,
	504: true,
}

const maxRetries = 2

// Client forwards translated requests to the configured upstream provider.
type Client struct {
	HTTP   *http.Client
	Config *config.Config
	Logger *logging.Logger
}

// NewClient builds a Client sharing one *http.Client across all requests, as
// recommended for connection reuse.
func NewClient(cfg *config.Config, logger *logging.Logger) *Client {
	return &Client{
		HTTP: &http.Client{
			Timeout: 300 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
			},
		},
		Config: cfg,
		Logger: logger,
	}
}

// Result is the outcome of SendNonStreaming: either a translated success
// response or an Anthropic-shaped error paired with the HTTP status to
// return to the caller.
type Result struct {
	Response *anthropic.MessagesResponse
	Error    *anthropic.ErrorResponse
	Status   int
}

// SendNonStreaming translates req to O-protocol, posts it to the configured
// provider with bounded retry on transient failures, and translates the
// response back to A-protocol.
func (c *Client) SendNonStreaming(ctx context.Context, req *anthropic.MessagesRequest) (*Result, error) {
	apiKey, err := c.Config.ResolveAPIKey()
	if err != nil {
		return nil, err
	}
	baseURL, err := c.Config.EffectiveBaseURL()
	if err != nil {
		return nil, err
	}
	url := trimTrailingSlash(baseURL) + "/chat/completions"

	openaiReq, err := translate.RequestToOpenAI(req, c.Config.Models)
	if err != nil {
		return nil, apperror.Translation("failed to translate request: %v", err)
	}

	body, err := json.Marshal(openaiReq)
	if err != nil {
		return nil, apperror.Translation("failed to serialize provider request: %v", err)
	}

	c.Logger.Info("proxy", fmt.Sprintf("POST %s model=%s", url, openaiReq.Model))

	status, respBody, err := c.postWithRetry(ctx, url, apiKey, body)
	if err != nil {
		return nil, err
	}

	c.Logger.Debug("proxy", fmt.Sprintf("Response status=%d body_len=%d", status, len(respBody)))

	if status >= 400 {
		var upstreamErr openai.ChatErrorResponse
		if json.Unmarshal(respBody, &upstreamErr) == nil && upstreamErr.Error.Message != "" {
			anthropicErr := translate.OpenAIErrorToAnthropic(&upstreamErr)
			c.Logger.Warn("proxy", fmt.Sprintf("Provider error: %s", upstreamErr.Error.Message))
			return &Result{Error: &anthropicErr, Status: status}, nil
		}
		anthropicErr := anthropic.APIError(fmt.Sprintf("Provider returned status %d: %s", status, utils.Truncate(string(respBody), 500)))
		return &Result{Error: &anthropicErr, Status: status}, nil
	}

	var openaiResp openai.ChatCompletionResponse
	if err := json.Unmarshal(respBody, &openaiResp); err != nil {
		return nil, apperror.Translation("failed to parse provider response: %v. Body: %s", err, utils.Truncate(string(respBody), 300))
	}

	anthropicResp := translate.ResponseToAnthropic(&openaiResp, req.Model)
	c.Logger.Info("proxy", fmt.Sprintf("Completed: in=%d out=%d tokens", anthropicResp.Usage.InputTokens, anthropicResp.Usage.OutputTokens))

	return &Result{Response: anthropicResp, Status: 200}, nil
}

// postWithRetry issues one POST, retrying up to maxRetries times when the
// response status is in retryableStatuses. Each retried response body is
// drained before retrying so the connection can be reused.
func (c *Client) postWithRetry(ctx context.Context, url, apiKey string, body []byte) (int, []byte, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.Multiplier = 2
	b.RandomizationFactor = 0

	var lastStatus int
	var lastBody []byte

	for attempt := 0; attempt <= maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return 0, nil, apperror.Provider(0, "failed to build request: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.HTTP.Do(req)
		if err != nil {
			return 0, nil, apperror.Provider(0, "request failed: %v", err)
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return 0, nil, apperror.Provider(resp.StatusCode, "failed to read response body: %v", err)
		}

		lastStatus, lastBody = resp.StatusCode, respBody

		if !retryableStatuses[resp.StatusCode] || attempt == maxRetries {
			return lastStatus, lastBody, nil
		}

		c.Logger.Warn("proxy", fmt.Sprintf("Retryable status %d, attempt %d/%d", resp.StatusCode, attempt+1, maxRetries+1))
		time.Sleep(b.NextBackOff())
	}

	return lastStatus, lastBody, nil
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

