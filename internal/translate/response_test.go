package translate

import (
	"testing"

	"github.com/outpostai/claudeproxy/internal/protocol/openai"
	"github.com/outpostai/claudeproxy/internal/utils"
)

func TestResponseToAnthropic_SimpleTextResponse(t *testing.T) {
	resp := &openai.ChatCompletionResponse{
		ID: "chatcmpl-abc123",
		Choices: []openai.Choice{
			{
				Message:      openai.ChoiceMessage{Role: "assistant", Content: utils.Ptr("Hello!")},
				FinishReason: utils.Ptr("stop"),
			},
		},
		Usage: &openai.ChatUsage{PromptTokens: 10, CompletionTokens: 20},
	}

	result := ResponseToAnthropic(resp, "claude-sonnet-4-20250514")

	if result.Role != "assistant" {
		t.Errorf("expected role assistant, got %s", result.Role)
	}
	if result.Model != "claude-sonnet-4-20250514" {
		t.Errorf("expected original model echoed back, got %s", result.Model)
	}
	if result.StopReason == nil || *result.StopReason != "end_turn" {
		t.Errorf("expected stop_reason end_turn, got %v", result.StopReason)
	}
	if len(result.Content) != 1 || result.Content[0].Text != "Hello!" {
		t.Fatalf("expected single text block 'Hello!', got %+v", result.Content)
	}
	if result.Usage.InputTokens != 10 || result.Usage.OutputTokens != 20 {
		t.Errorf("expected usage 10/20, got %+v", result.Usage)
	}
	if result.ID != "msg_abc123" {
		t.Errorf("expected id msg_abc123, got %s", result.ID)
	}
}

func TestResponseToAnthropic_ToolCallResponse(t *testing.T) {
	resp := &openai.ChatCompletionResponse{
		ID: "chatcmpl-xyz",
		Choices: []openai.Choice{
			{
				Message: openai.ChoiceMessage{
					Role:    "assistant",
					Content: utils.Ptr("Let me check."),
					ToolCalls: []openai.ChatToolCall{
						{ID: "call_abc", Type: "function", Function: openai.ChatToolCallFunction{
							Name: "get_weather", Arguments: `{"city":"London"}`,
						}},
					},
				},
				FinishReason: utils.Ptr("tool_calls"),
			},
		},
	}

	result := ResponseToAnthropic(resp, "test-model")

	if len(result.Content) != 2 {
		t.Fatalf("expected 2 content blocks, got %d", len(result.Content))
	}
	if result.StopReason == nil || *result.StopReason != "tool_use" {
		t.Errorf("expected stop_reason tool_use, got %v", result.StopReason)
	}
	toolBlock := result.Content[1]
	if toolBlock.Type != "tool_use" || toolBlock.ID != "call_abc" || toolBlock.Name != "get_weather" {
		t.Errorf("unexpected tool_use block: %+v", toolBlock)
	}
}

func TestResponseToAnthropic_EmptyContentGetsPlaceholder(t *testing.T) {
	resp := &openai.ChatCompletionResponse{
		ID:      "chatcmpl-empty",
		Choices: []openai.Choice{{Message: openai.ChoiceMessage{Role: "assistant"}, FinishReason: utils.Ptr("stop")}},
	}

	result := ResponseToAnthropic(resp, "test-model")
	if len(result.Content) != 1 || result.Content[0].Type != "text" || result.Content[0].Text != "" {
		t.Errorf("expected single empty text placeholder block, got %+v", result.Content)
	}
}

func TestResponseToAnthropic_MalformedToolArgumentsFallBackToNull(t *testing.T) {
	resp := &openai.ChatCompletionResponse{
		ID: "chatcmpl-bad",
		Choices: []openai.Choice{
			{
				Message: openai.ChoiceMessage{
					Role: "assistant",
					ToolCalls: []openai.ChatToolCall{
						{ID: "call_1", Function: openai.ChatToolCallFunction{
							Name: "f", Arguments: "not json at all {{{",
						}},
					},
				},
				FinishReason: utils.Ptr("tool_calls"),
			},
		},
	}

	result := ResponseToAnthropic(resp, "test-model")
	toolBlock := result.Content[len(result.Content)-1]
	if string(toolBlock.Input) != "null" {
		t.Errorf("expected input to fall back to null, got %s", string(toolBlock.Input))
	}
}

func TestResponseToAnthropic_RepairableToolArgumentsAreRepaired(t *testing.T) {
	resp := &openai.ChatCompletionResponse{
		ID: "chatcmpl-repair",
		Choices: []openai.Choice{
			{
				Message: openai.ChoiceMessage{
					Role: "assistant",
					ToolCalls: []openai.ChatToolCall{
						{ID: "call_1", Function: openai.ChatToolCallFunction{
							Name: "f", Arguments: `{"city":"London",}`,
						}},
					},
				},
				FinishReason: utils.Ptr("tool_calls"),
			},
		},
	}

	result := ResponseToAnthropic(resp, "test-model")
	toolBlock := result.Content[len(result.Content)-1]
	if string(toolBlock.Input) == "null" {
		t.Errorf("expected repaired JSON, got null fallback")
	}
}

func TestMapFinishReason(t *testing.T) {
	cases := map[string]string{
		"stop":            "end_turn",
		"length":          "max_tokens",
		"tool_calls":      "tool_use",
		"function_call":   "tool_use",
		"content_filter":  "end_turn",
		"something_else":  "something_else",
	}
	for in, want := range cases {
		if got := MapFinishReason(in); got != want {
			t.Errorf("MapFinishReason(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOpenAIErrorToAnthropic(t *testing.T) {
	cases := []struct {
		openaiType string
		want       string
	}{
		{"invalid_request_error", "invalid_request_error"},
		{"rate_limit_error", "rate_limit_error"},
		{"rate_limit_exceeded", "rate_limit_error"},
		{"server_error", "api_error"},
		{"something_unknown", "api_error"},
	}
	for _, tc := range cases {
		err := &openai.ChatErrorResponse{Error: openai.ChatError{Type: tc.openaiType, Message: "boom"}}
		result := OpenAIErrorToAnthropic(err)
		if result.Error.Type != tc.want {
			t.Errorf("for %q expected %q, got %q", tc.openaiType, tc.want, result.Error.Type)
		}
		if result.Error.Message != "boom" {
			t.Errorf("expected message to pass through, got %q", result.Error.Message)
		}
	}
}
