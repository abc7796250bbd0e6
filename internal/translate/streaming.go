package translate

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/outpostai/claudeproxy/internal/protocol/anthropic"
	"github.com/outpostai/claudeproxy/internal/protocol/openai"
	"github.com/outpostai/claudeproxy/internal/utils"
)

// activeToolCall tracks the state of one tool call being streamed: which
// Anthropic content-block index it was assigned and whether its
// content_block_start has already been emitted.
type activeToolCall struct {
	anthropicBlockIndex int
	emittedStart        bool
}

// StreamTranslator converts a sequence of OpenAI streaming chunks into the
// corresponding sequence of Anthropic SSE events, one chunk at a time,
// without buffering the whole response. It is not safe for concurrent use;
// each inbound streaming request gets its own instance.
type StreamTranslator struct {
	model    string
	msgID    string
	started  bool
	finished bool

	contentBlockIndex int
	inTextBlock       bool
	activeToolCalls   map[int]*activeToolCall

	inputTokens  int
	outputTokens int
}

// NewStreamTranslator creates a translator for a single streaming request.
// model is the caller-facing model name echoed back in message_start.
func NewStreamTranslator(model string) *StreamTranslator {
	return &StreamTranslator{
		model:           model,
		msgID:           "msg_" + strings.ReplaceAll(uuid.New().String(), "-", ""),
		activeToolCalls: make(map[int]*activeToolCall),
	}
}

// ProcessChunk translates one OpenAI streaming chunk into zero or more
// Anthropic SSE events. Returns nil once the translator has finished.
func (t *StreamTranslator) ProcessChunk(chunk *openai.ChatCompletionChunk) []anthropic.StreamEvent {
	if t.finished {
		return nil
	}

	var events []anthropic.StreamEvent

	if chunk.Usage != nil {
		t.inputTokens = chunk.Usage.PromptTokens
		t.outputTokens = chunk.Usage.CompletionTokens
	}

	if !t.started {
		events = append(events, t.makeMessageStart(), anthropic.PingEvent{})
		t.started = true
	}

	if len(chunk.Choices) == 0 {
		return events
	}
	choice := chunk.Choices[0]

	// Some reasoning models (DeepSeek R1, Kimi K2.5) stream chain-of-thought
	// in reasoning_content and the final answer in content. Both surface as
	// Anthropic text deltas so the caller sees the full response.
	effectiveContent := ""
	if choice.Delta.Content != nil && *choice.Delta.Content != "" {
		effectiveContent = *choice.Delta.Content
	} else if choice.Delta.ReasoningContent != nil && *choice.Delta.ReasoningContent != "" {
		effectiveContent = *choice.Delta.ReasoningContent
	}

	if effectiveContent != "" {
		if !t.inTextBlock {
			events = append(events, anthropic.ContentBlockStartEvent{
				Index:        t.contentBlockIndex,
				ContentBlock: anthropic.ResponseContentBlock{Type: "text", Text: ""},
			})
			t.inTextBlock = true
		}
		events = append(events, anthropic.ContentBlockDeltaEvent{
			Index: t.contentBlockIndex,
			Delta: anthropic.TextDelta(effectiveContent),
		})
	}

	for _, tc := range choice.Delta.ToolCalls {
		if tc.ID != "" {
			if t.inTextBlock {
				events = append(events, anthropic.ContentBlockStopEvent{Index: t.contentBlockIndex})
				t.contentBlockIndex++
				t.inTextBlock = false
			}

			toolName := ""
			if tc.Function != nil {
				toolName = tc.Function.Name
			}

			events = append(events, anthropic.ContentBlockStartEvent{
				Index: t.contentBlockIndex,
				ContentBlock: anthropic.ResponseContentBlock{
					Type:  "tool_use",
					ID:    tc.ID,
					Name:  toolName,
					Input: []byte("{}"),
				},
			})

			t.activeToolCalls[tc.Index] = &activeToolCall{
				anthropicBlockIndex: t.contentBlockIndex,
				emittedStart:        true,
			}
		}

		if tc.Function != nil && tc.Function.Arguments != "" {
			blockIndex := t.contentBlockIndex
			if active, ok := t.activeToolCalls[tc.Index]; ok {
				blockIndex = active.anthropicBlockIndex
			}
			events = append(events, anthropic.ContentBlockDeltaEvent{
				Index: blockIndex,
				Delta: anthropic.InputJSONDelta(tc.Function.Arguments),
			})
		}
	}

	if choice.FinishReason != nil {
		events = append(events, t.makeFinishEvents(*choice.FinishReason)...)
	}

	return events
}

// Finish flushes any remaining open blocks and the terminal message_delta /
// message_stop events. Call this when the upstream SSE stream ends (on the
// [DONE] sentinel, or when the connection closes without one). Safe to call
// more than once — after the first call it is a no-op.
func (t *StreamTranslator) Finish() []anthropic.StreamEvent {
	if t.finished {
		return nil
	}

	if !t.started {
		events := []anthropic.StreamEvent{t.makeMessageStart()}
		return append(events, t.makeFinishEvents("stop")...)
	}

	return t.makeFinishEvents("stop")
}

func (t *StreamTranslator) makeMessageStart() anthropic.StreamEvent {
	return anthropic.MessageStartEvent{
		Message: anthropic.MessagesResponse{
			ID:      t.msgID,
			Type:    "message",
			Role:    "assistant",
			Content: []anthropic.ResponseContentBlock{},
			Model:   t.model,
			Usage: anthropic.Usage{
				InputTokens:  t.inputTokens,
				OutputTokens: 0,
			},
		},
	}
}

func (t *StreamTranslator) makeFinishEvents(reason string) []anthropic.StreamEvent {
	if t.finished {
		return nil
	}
	t.finished = true

	var events []anthropic.StreamEvent

	if t.inTextBlock {
		events = append(events, anthropic.ContentBlockStopEvent{Index: t.contentBlockIndex})
		t.inTextBlock = false
	}

	toolIndices := make([]int, 0, len(t.activeToolCalls))
	for idx := range t.activeToolCalls {
		toolIndices = append(toolIndices, idx)
	}
	sort.Ints(toolIndices)
	for _, idx := range toolIndices {
		if tc := t.activeToolCalls[idx]; tc.emittedStart {
			events = append(events, anthropic.ContentBlockStopEvent{Index: tc.anthropicBlockIndex})
		}
	}
	t.activeToolCalls = make(map[int]*activeToolCall)

	stopReason := MapFinishReason(reason)
	events = append(events, anthropic.MessageDeltaEvent{
		Delta: anthropic.MessageDeltaBody{StopReason: utils.Ptr(stopReason)},
		Usage: anthropic.DeltaUsage{OutputTokens: t.outputTokens},
	})
	events = append(events, anthropic.MessageStopEvent{})

	return events
}
