// Package anthropic models the wire format of Anthropic's Messages API
// ("A-protocol"): the request/response/streaming shapes the proxy exposes to
// its caller (typically Claude Code) and, in passthrough mode, forwards
// untouched to an Anthropic-compatible upstream.
package anthropic

import "encoding/json"

/*
	MESSAGES API — REQUEST TYPES
*/

// MessagesRequest is the body of a POST /v1/messages request.
type MessagesRequest struct {
	Model         string          `json:"model"`
	MaxTokens     int             `json:"max_tokens"`
	Messages      []Message       `json:"messages"`
	System        json.RawMessage `json:"system,omitempty"` // string or []SystemBlock
	Stream        *bool           `json:"stream,omitempty"`
	Temperature   *float64        `json:"temperature,omitempty"`
	TopP          *float64        `json:"top_p,omitempty"`
	TopK          *int            `json:"top_k,omitempty"`
	Tools         []Tool          `json:"tools,omitempty"`
	ToolChoice    *ToolChoice     `json:"tool_choice,omitempty"`
	Metadata      *Metadata       `json:"metadata,omitempty"`
	StopSequences []string        `json:"stop_sequences,omitempty"`
}

// Message is a single turn in the conversation. Content is either a bare
// string or an array of ContentBlock, decoded uniformly by Blocks below.
type Message struct {
	Role    string          `json:"role"` // "user" or "assistant"
	Content json.RawMessage `json:"content"`
}

// Blocks decodes Content into a uniform []ContentBlock regardless of whether
// the caller sent a plain string or a content-block array, matching the
// Anthropic API's accepted shorthand.
func (m Message) Blocks() ([]ContentBlock, error) {
	var asText string
	if err := json.Unmarshal(m.Content, &asText); err == nil {
		return []ContentBlock{{Type: "text", Text: asText}}, nil
	}

	var blocks []ContentBlock
	if err := json.Unmarshal(m.Content, &blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

// ContentBlock is a discriminated union over Type:
//   - "text": Text
//   - "image": Source
//   - "tool_use": ID, Name, Input
//   - "tool_result": ToolUseID, Content, IsError
//   - "thinking": Thinking, Signature
type ContentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	Source    *ImageSource    `json:"source,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"` // string or []ContentBlock
	IsError   *bool           `json:"is_error,omitempty"`
	Thinking  string          `json:"thinking,omitempty"`
	Signature string          `json:"signature,omitempty"`
}

// ToolResultBlocks decodes a tool_result block's Content into []ContentBlock,
// whether the caller sent a plain string or a content-block array.
func (b ContentBlock) ToolResultBlocks() ([]ContentBlock, error) {
	if len(b.Content) == 0 {
		return nil, nil
	}
	var asText string
	if err := json.Unmarshal(b.Content, &asText); err == nil {
		return []ContentBlock{{Type: "text", Text: asText}}, nil
	}
	var blocks []ContentBlock
	if err := json.Unmarshal(b.Content, &blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

// ImageSource describes an inline base64 image attached to a content block.
type ImageSource struct {
	Type      string `json:"type"` // "base64"
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// Tool describes a tool/function available to the model.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// ToolChoice controls which tool, if any, the model must use. Exactly one of
// the two shapes applies: a bare {"type": "auto"|"any"|"none"}, or
// {"type": "tool", "name": "..."}.
type ToolChoice struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

// Metadata carries optional request metadata.
type Metadata struct {
	UserID string `json:"user_id,omitempty"`
}

/*
	MESSAGES API — RESPONSE TYPES
*/

// MessagesResponse is the body returned from a non-streaming request.
type MessagesResponse struct {
	ID           string                 `json:"id"`
	Type         string                 `json:"type"` // "message"
	Role         string                 `json:"role"` // "assistant"
	Content      []ResponseContentBlock `json:"content"`
	Model        string                 `json:"model"`
	StopReason   *string                `json:"stop_reason"`
	StopSequence *string                `json:"stop_sequence"`
	Usage        Usage                  `json:"usage"`
}

// ResponseContentBlock is a discriminated union over Type ("text" or
// "tool_use") for blocks the proxy itself produces.
type ResponseContentBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

// Usage reports token consumption for a request.
type Usage struct {
	InputTokens              int  `json:"input_tokens"`
	OutputTokens             int  `json:"output_tokens"`
	CacheCreationInputTokens *int `json:"cache_creation_input_tokens,omitempty"`
	CacheReadInputTokens     *int `json:"cache_read_input_tokens,omitempty"`
}

/*
	ERROR RESPONSE
*/

// ErrorResponse is the envelope returned on any error path, matching
// Anthropic's {"type": "error", "error": {"type": ..., "message": ...}} shape.
type ErrorResponse struct {
	Type  string    `json:"type"` // "error"
	Error ErrorBody `json:"error"`
}

// ErrorBody carries the error kind and human-readable message.
type ErrorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewError builds an ErrorResponse of the given Anthropic error type.
func NewError(errType, message string) ErrorResponse {
	return ErrorResponse{
		Type: "error",
		Error: ErrorBody{
			Type:    errType,
			Message: message,
		},
	}
}

// InvalidRequestError builds an "invalid_request_error" envelope.
func InvalidRequestError(message string) ErrorResponse {
	return NewError("invalid_request_error", message)
}

// APIError builds an "api_error" envelope, the fallback kind for anything
// that doesn't map to a more specific Anthropic error type.
func APIError(message string) ErrorResponse {
	return NewError("api_error", message)
}
