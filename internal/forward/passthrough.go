package forward

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/outpostai/claudeproxy/internal/apperror"
)

// PassthroughResult is the raw upstream response for a provider that already
// speaks the Anthropic wire format: no translation, just header fix-up.
type PassthroughResult struct {
	Status      int
	ContentType string
	Body        []byte
}

// Passthrough forwards an Anthropic-format request body byte-for-byte to the
// configured provider's /v1/messages endpoint, carrying over the caller's
// anthropic-version header if present.
func (c *Client) Passthrough(ctx context.Context, body []byte, anthropicVersion string) (*PassthroughResult, error) {
	apiKey, err := c.Config.ResolveAPIKey()
	if err != nil {
		return nil, err
	}
	baseURL, err := c.Config.EffectiveBaseURL()
	if err != nil {
		return nil, err
	}
	url := trimTrailingSlash(baseURL) + "/v1/messages"

	c.Logger.Info("proxy", fmt.Sprintf("Passthrough POST %s", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, apperror.Provider(0, "failed to build passthrough request: %v", err)
	}
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("Content-Type", "application/json")
	if anthropicVersion != "" {
		req.Header.Set("anthropic-version", anthropicVersion)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, apperror.Provider(0, "passthrough request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.Provider(resp.StatusCode, "failed to read passthrough response: %v", err)
	}

	c.Logger.Info("proxy", fmt.Sprintf("Passthrough response: status=%d len=%d", resp.StatusCode, len(respBody)))

	return &PassthroughResult{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        respBody,
	}, nil
}
