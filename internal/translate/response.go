package translate

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/outpostai/claudeproxy/internal/protocol/anthropic"
	"github.com/outpostai/claudeproxy/internal/protocol/openai"
	"github.com/outpostai/claudeproxy/internal/utils"
)

// ResponseToAnthropic converts a non-streaming OpenAI ChatCompletionResponse
// into an Anthropic MessagesResponse. originalModel is echoed back verbatim
// (Claude Code expects to see the model name it originally requested, not
// whatever the upstream's own response.model field says).
func ResponseToAnthropic(resp *openai.ChatCompletionResponse, originalModel string) *anthropic.MessagesResponse {
	var choice *openai.Choice
	if len(resp.Choices) > 0 {
		choice = &resp.Choices[0]
	}

	var content []anthropic.ResponseContentBlock

	if choice != nil {
		if choice.Message.Content != nil && *choice.Message.Content != "" {
			content = append(content, anthropic.ResponseContentBlock{
				Type: "text",
				Text: *choice.Message.Content,
			})
		}

		for _, tc := range choice.Message.ToolCalls {
			content = append(content, anthropic.ResponseContentBlock{
				Type:  "tool_use",
				ID:    tc.ID,
				Name:  tc.Function.Name,
				Input: parseToolArguments(tc.Function.Arguments),
			})
		}
	}

	if len(content) == 0 {
		content = append(content, anthropic.ResponseContentBlock{Type: "text", Text: ""})
	}

	stopReason := "end_turn"
	if choice != nil && choice.FinishReason != nil {
		stopReason = MapFinishReason(*choice.FinishReason)
	}

	usage := anthropic.Usage{}
	if resp.Usage != nil {
		usage.InputTokens = resp.Usage.PromptTokens
		usage.OutputTokens = resp.Usage.CompletionTokens
	}

	return &anthropic.MessagesResponse{
		ID:           "msg_" + strings.TrimPrefix(resp.ID, "chatcmpl-"),
		Type:         "message",
		Role:         "assistant",
		Content:      content,
		Model:        originalModel,
		StopReason:   utils.Ptr(stopReason),
		StopSequence: nil,
		Usage:        usage,
	}
}

// parseToolArguments parses a tool call's raw argument string into a
// json.RawMessage. Near-valid JSON (trailing commas, unescaped quotes) is
// repaired with jsonrepair before falling back to a JSON null, matching how
// Anthropic's own clients treat unparseable model output.
func parseToolArguments(arguments string) json.RawMessage {
	var v any
	if err := json.Unmarshal([]byte(arguments), &v); err == nil {
		return json.RawMessage(arguments)
	}

	repaired, err := jsonrepair.JSONRepair(arguments)
	if err == nil {
		if err := json.Unmarshal([]byte(repaired), &v); err == nil {
			return json.RawMessage(repaired)
		}
	}

	return json.RawMessage("null")
}

// MapFinishReason maps an OpenAI finish_reason to an Anthropic stop_reason.
func MapFinishReason(reason string) string {
	switch reason {
	case "stop":
		return "end_turn"
	case "length":
		return "max_tokens"
	case "tool_calls", "function_call":
		return "tool_use"
	case "content_filter":
		return "end_turn"
	default:
		return reason
	}
}

// OpenAIErrorToAnthropic maps an upstream's OpenAI-shaped error envelope
// into the Anthropic error envelope this proxy returns to its own caller.
func OpenAIErrorToAnthropic(err *openai.ChatErrorResponse) anthropic.ErrorResponse {
	var errType string
	switch err.Error.Type {
	case "invalid_request_error":
		errType = "invalid_request_error"
	case "rate_limit_error", "rate_limit_exceeded":
		errType = "rate_limit_error"
	case "server_error", "internal_error":
		errType = "api_error"
	default:
		errType = "api_error"
	}
	return anthropic.NewError(errType, err.Error.Message)
}
