// Package openai models the wire format of the OpenAI Chat Completions API
// ("O-protocol"): the request the proxy sends upstream and the
// response/streaming-chunk shapes it receives back, for any provider that
// speaks this format (OpenAI itself, OpenRouter, Fireworks, Groq, ...).
package openai

import "encoding/json"

/*
	CHAT COMPLETIONS API — REQUEST TYPES
*/

// ChatCompletionRequest is the body of a POST /chat/completions request.
type ChatCompletionRequest struct {
	Model         string         `json:"model"`
	Messages      []ChatMessage  `json:"messages"`
	MaxTokens     *int           `json:"max_tokens,omitempty"`
	Temperature   *float64       `json:"temperature,omitempty"`
	TopP          *float64       `json:"top_p,omitempty"`
	Stream        *bool          `json:"stream,omitempty"`
	StreamOptions *StreamOptions `json:"stream_options,omitempty"`
	Tools         []ChatTool     `json:"tools,omitempty"`
	ToolChoice    *ChatToolChoice `json:"tool_choice,omitempty"`
	Stop          []string       `json:"stop,omitempty"`
	User          string         `json:"user,omitempty"`
}

// StreamOptions configures streaming behavior. IncludeUsage=true asks the
// provider to attach a Usage block to the final chunk.
type StreamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

// ChatMessage is a single flat, role-typed message. Content is either a
// plain string or a multi-part array (text/image); Go's untagged-union
// absence is worked around with ChatContent below.
type ChatMessage struct {
	Role       string        `json:"role"`
	Content    *ChatContent  `json:"content,omitempty"`
	ToolCalls  []ChatToolCall `json:"tool_calls,omitempty"`
	ToolCallID string        `json:"tool_call_id,omitempty"`
	Name       string        `json:"name,omitempty"`
}

// ChatContent marshals as a bare JSON string when Parts is nil, or as a JSON
// array of ContentPart otherwise — mirroring the API's untagged union of
// `string | ContentPart[]` without needing a custom unmarshaler (the proxy
// never parses ChatContent back, only constructs it for outbound requests).
type ChatContent struct {
	Text  string
	Parts []ContentPart
}

// TextContent builds a plain-string ChatContent.
func TextContent(text string) *ChatContent {
	return &ChatContent{Text: text}
}

// PartsContent builds a multi-part ChatContent.
func PartsContent(parts []ContentPart) *ChatContent {
	return &ChatContent{Parts: parts}
}

func (c ChatContent) MarshalJSON() ([]byte, error) {
	if c.Parts != nil {
		return json.Marshal(c.Parts)
	}
	return json.Marshal(c.Text)
}

// ContentPart is a discriminated union over Type: "text" (Text) or
// "image_url" (ImageURL).
type ContentPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *ImageURLDetail `json:"image_url,omitempty"`
}

// ImageURLDetail carries a (possibly data:-URI) image reference.
type ImageURLDetail struct {
	URL string `json:"url"`
}

// ChatTool describes a callable function, always Type "function".
type ChatTool struct {
	Type     string       `json:"type"`
	Function ChatFunction `json:"function"`
}

// ChatFunction is a tool's name, description, and JSON Schema parameters.
type ChatFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters"`
}

// ChatToolChoice marshals as a bare string ("auto"/"required"/"none") when
// Specific is nil, or as a named-function choice otherwise.
type ChatToolChoice struct {
	String   string
	Specific *ChatToolChoiceSpecific
}

// ToolChoiceString builds a bare-string tool choice.
func ToolChoiceString(s string) *ChatToolChoice {
	return &ChatToolChoice{String: s}
}

// ToolChoiceFunction builds a named-function tool choice.
func ToolChoiceFunction(name string) *ChatToolChoice {
	return &ChatToolChoice{Specific: &ChatToolChoiceSpecific{
		Type:     "function",
		Function: ChatToolChoiceFunctionName{Name: name},
	}}
}

func (c ChatToolChoice) MarshalJSON() ([]byte, error) {
	if c.Specific != nil {
		return json.Marshal(c.Specific)
	}
	return json.Marshal(c.String)
}

// ChatToolChoiceSpecific pins the model to a single named function.
type ChatToolChoiceSpecific struct {
	Type     string                     `json:"type"`
	Function ChatToolChoiceFunctionName `json:"function"`
}

// ChatToolChoiceFunctionName names the pinned function.
type ChatToolChoiceFunctionName struct {
	Name string `json:"name"`
}

// ChatToolCall is one tool invocation the assistant has requested.
type ChatToolCall struct {
	ID       string               `json:"id"`
	Type     string               `json:"type"` // "function"
	Function ChatToolCallFunction `json:"function"`
}

// ChatToolCallFunction carries the invoked function's name and its
// (already-serialized) JSON argument string.
type ChatToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

/*
	CHAT COMPLETIONS API — RESPONSE TYPES
*/

// ChatCompletionResponse is the body of a non-streaming response.
type ChatCompletionResponse struct {
	ID      string     `json:"id"`
	Object  string     `json:"object"`
	Created int64      `json:"created"`
	Model   string     `json:"model"`
	Choices []Choice   `json:"choices"`
	Usage   *ChatUsage `json:"usage,omitempty"`
}

// Choice is one completion candidate (the proxy only ever looks at index 0).
type Choice struct {
	Index        int            `json:"index"`
	Message      ChoiceMessage  `json:"message"`
	FinishReason *string        `json:"finish_reason"`
}

// ChoiceMessage is the assistant turn a non-streaming response carries.
type ChoiceMessage struct {
	Role             string         `json:"role"`
	Content          *string        `json:"content"`
	ReasoningContent *string        `json:"reasoning_content,omitempty"`
	ToolCalls        []ChatToolCall `json:"tool_calls,omitempty"`
}

// ChatUsage reports token consumption.
type ChatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

/*
	ERROR TYPES
*/

// ChatErrorResponse is the envelope a provider returns on a non-2xx status.
type ChatErrorResponse struct {
	Error ChatError `json:"error"`
}

// ChatError carries the provider's error message, type, and optional code.
type ChatError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}
