// Package translate implements the pure conversion logic between the
// Anthropic Messages API ("A-protocol") and the OpenAI Chat Completions API
// ("O-protocol"): request translation, non-streaming response translation,
// and the streaming SSE state machine.
package translate

import (
	"encoding/json"

	"github.com/outpostai/claudeproxy/internal/protocol/anthropic"
	"github.com/outpostai/claudeproxy/internal/protocol/openai"
	"github.com/outpostai/claudeproxy/internal/utils"
)

// RequestToOpenAI converts an Anthropic MessagesRequest into an OpenAI
// ChatCompletionRequest. modelMap maps caller-facing model names (as
// configured under the proxy's [models] table) to the upstream's own model
// name; a model absent from the map passes through unchanged.
func RequestToOpenAI(req *anthropic.MessagesRequest, modelMap map[string]string) (*openai.ChatCompletionRequest, error) {
	targetModel := req.Model
	if mapped, ok := modelMap[req.Model]; ok {
		targetModel = mapped
	}

	var messages []openai.ChatMessage

	if len(req.System) > 0 {
		systemText, err := systemToText(req.System)
		if err != nil {
			return nil, err
		}
		messages = append(messages, openai.ChatMessage{
			Role:    "system",
			Content: openai.TextContent(systemText),
		})
	}

	for _, msg := range req.Messages {
		translated, err := translateMessage(msg)
		if err != nil {
			return nil, err
		}
		messages = append(messages, translated...)
	}

	out := &openai.ChatCompletionRequest{
		Model:       targetModel,
		Messages:    messages,
		MaxTokens:   utils.Ptr(req.MaxTokens),
		Temperature: req.Temperature,
		TopP:        req.TopP,
		Stream:      req.Stream,
		Stop:        req.StopSequences,
	}

	if req.Stream != nil && *req.Stream {
		out.StreamOptions = &openai.StreamOptions{IncludeUsage: true}
	}

	if len(req.Tools) > 0 {
		out.Tools = buildTools(req.Tools)
	}

	if req.ToolChoice != nil {
		out.ToolChoice = translateToolChoice(*req.ToolChoice)
	}

	if req.Metadata != nil && req.Metadata.UserID != "" {
		out.User = req.Metadata.UserID
	}

	return out, nil
}

// systemToText decodes the A-protocol "system" field, which may be either a
// bare string or an array of text blocks, into a single joined string.
func systemToText(raw json.RawMessage) (string, error) {
	var asText string
	if err := json.Unmarshal(raw, &asText); err == nil {
		return asText, nil
	}

	var blocks []anthropic.ContentBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return "", err
	}
	text := ""
	for i, b := range blocks {
		if i > 0 {
			text += "\n"
		}
		text += b.Text
	}
	return text, nil
}

// translateMessage expands a single Anthropic message into one or more
// OpenAI messages — a user turn with tool_result blocks splits into separate
// tool-role messages, per the API's flat message model.
func translateMessage(msg anthropic.Message) ([]openai.ChatMessage, error) {
	blocks, err := msg.Blocks()
	if err != nil {
		return nil, err
	}

	switch msg.Role {
	case "user":
		return translateUserMessage(blocks)
	case "assistant":
		return translateAssistantMessage(blocks), nil
	default:
		return translateUserMessage(blocks)
	}
}

func translateUserMessage(blocks []anthropic.ContentBlock) ([]openai.ChatMessage, error) {
	var messages []openai.ChatMessage
	var parts []openai.ContentPart

	flush := func() {
		if len(parts) == 0 {
			return
		}
		messages = append(messages, openai.ChatMessage{
			Role:    "user",
			Content: collapseParts(parts),
		})
		parts = nil
	}

	for _, block := range blocks {
		switch block.Type {
		case "text":
			parts = append(parts, openai.ContentPart{Type: "text", Text: block.Text})

		case "image":
			if block.Source == nil {
				continue
			}
			dataURI := "data:" + block.Source.MediaType + ";base64," + block.Source.Data
			parts = append(parts, openai.ContentPart{
				Type:     "image_url",
				ImageURL: &openai.ImageURLDetail{URL: dataURI},
			})

		case "tool_result":
			flush()

			resultText, err := toolResultToString(block)
			if err != nil {
				return nil, err
			}

			messages = append(messages, openai.ChatMessage{
				Role:       "tool",
				Content:    openai.TextContent(resultText),
				ToolCallID: block.ToolUseID,
			})

		case "thinking", "tool_use":
			// Not meaningful on an inbound user turn; ignore.
		}
	}

	flush()

	if len(messages) == 0 {
		messages = append(messages, openai.ChatMessage{
			Role:    "user",
			Content: openai.TextContent(""),
		})
	}

	return messages, nil
}

func translateAssistantMessage(blocks []anthropic.ContentBlock) []openai.ChatMessage {
	var textParts []string
	var toolCalls []openai.ChatToolCall

	for _, block := range blocks {
		switch block.Type {
		case "text":
			textParts = append(textParts, block.Text)

		case "tool_use":
			input := block.Input
			if len(input) == 0 {
				input = json.RawMessage("{}")
			}
			toolCalls = append(toolCalls, openai.ChatToolCall{
				ID:   block.ID,
				Type: "function",
				Function: openai.ChatToolCallFunction{
					Name:      block.Name,
					Arguments: string(input),
				},
			})

		case "thinking", "image", "tool_result":
			// Not part of the assistant's own flat content/tool_calls shape.
		}
	}

	msg := openai.ChatMessage{Role: "assistant"}
	if len(textParts) > 0 {
		msg.Content = openai.TextContent(joinStrings(textParts))
	}
	if len(toolCalls) > 0 {
		msg.ToolCalls = toolCalls
	}

	return []openai.ChatMessage{msg}
}

func collapseParts(parts []openai.ContentPart) *openai.ChatContent {
	if len(parts) == 1 && parts[0].Type == "text" {
		return openai.TextContent(parts[0].Text)
	}
	return openai.PartsContent(parts)
}

func toolResultToString(block anthropic.ContentBlock) (string, error) {
	prefix := ""
	if block.IsError != nil && *block.IsError {
		prefix = "ERROR: "
	}

	resultBlocks, err := block.ToolResultBlocks()
	if err != nil {
		return "", err
	}
	if resultBlocks == nil {
		return prefix + "(no content)", nil
	}

	var texts []string
	for _, b := range resultBlocks {
		if b.Type == "text" {
			texts = append(texts, b.Text)
		}
	}
	return prefix + joinStringsNewline(texts), nil
}

func buildTools(tools []anthropic.Tool) []openai.ChatTool {
	out := make([]openai.ChatTool, 0, len(tools))
	for _, t := range tools {
		schema := t.InputSchema
		if len(schema) == 0 {
			schema = json.RawMessage(`{"type":"object","properties":{}}`)
		}
		out = append(out, openai.ChatTool{
			Type: "function",
			Function: openai.ChatFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  schema,
			},
		})
	}
	return out
}

func translateToolChoice(tc anthropic.ToolChoice) *openai.ChatToolChoice {
	if tc.Type == "tool" {
		return openai.ToolChoiceFunction(tc.Name)
	}
	switch tc.Type {
	case "any":
		return openai.ToolChoiceString("required")
	case "none":
		return openai.ToolChoiceString("none")
	default:
		return openai.ToolChoiceString("auto")
	}
}

func joinStrings(parts []string) string {
	out := ""
	for _, p := range parts {
		out += p
	}
	return out
}

func joinStringsNewline(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "\n"
		}
		out += p
	}
	return out
}
