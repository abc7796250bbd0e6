package forward

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/outpostai/claudeproxy/internal/protocol/anthropic"
	"github.com/outpostai/claudeproxy/internal/protocol/openai"
	"github.com/outpostai/claudeproxy/internal/translate"
	"github.com/outpostai/claudeproxy/internal/utils"
)

// SSEEvent pairs an SSE "event:" name with its "data:" payload, ready to be
// written out by the server layer.
type SSEEvent struct {
	Event string
	Data  string
}

// SendStreaming translates req to O-protocol, posts it with Stream=true, and
// returns a channel of Anthropic SSE events. Streaming requests are never
// retried: the client-visible event stream may already have started.
func (c *Client) SendStreaming(ctx context.Context, req *anthropic.MessagesRequest) (<-chan SSEEvent, error) {
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
		return nil, err
	}
	body, err := json.Marshal(openaiReq)
	if err != nil {
		return nil, err
	}

	c.Logger.Info("proxy", fmt.Sprintf("POST %s model=%s (streaming)", url, openaiReq.Model))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("streaming request failed: %w", err)
	}

	events := make(chan SSEEvent)

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		c.Logger.Warn("proxy", fmt.Sprintf("Streaming error status=%d: %s", resp.StatusCode, utils.Truncate(string(respBody), 300)))

		var upstreamErr openai.ChatErrorResponse
		var errResp anthropic.ErrorResponse
		if json.Unmarshal(respBody, &upstreamErr) == nil && upstreamErr.Error.Message != "" {
			errResp = translate.OpenAIErrorToAnthropic(&upstreamErr)
		} else {
			errResp = anthropic.APIError(fmt.Sprintf("Provider returned status %d", resp.StatusCode))
		}

		go func() {
			defer close(events)
			errJSON, _ := json.Marshal(errResp)
			events <- SSEEvent{Event: "error", Data: string(errJSON)}
		}()
		return events, nil
	}

	go c.translateStream(resp.Body, req.Model, events)

	return events, nil
}

func (c *Client) translateStream(body io.ReadCloser, model string, events chan<- SSEEvent) {
	defer close(events)
	defer body.Close()

	translator := translate.NewStreamTranslator(model)
	reader := newSSELineReader(body)

	for {
		data, ok := reader.Next()
		if !ok {
			break
		}

		if data == "[DONE]" {
			emitAll(events, translator.Finish())
			break
		}

		var chunk openai.ChatCompletionChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			c.Logger.Debug("stream", fmt.Sprintf("Skipping unparseable chunk: %v", err))
			continue
		}

		emitAll(events, translator.ProcessChunk(&chunk))
	}

	// Finish is a no-op if [DONE] already triggered it; otherwise the
	// upstream byte stream ended without one, which is not an error.
	emitAll(events, translator.Finish())
	c.Logger.Info("stream", "Stream completed")
}

func emitAll(events chan<- SSEEvent, streamEvents []anthropic.StreamEvent) {
	for _, e := range streamEvents {
		data, err := json.Marshal(e)
		if err != nil {
			continue
		}
		events <- SSEEvent{Event: e.EventName(), Data: string(data)}
	}
}
