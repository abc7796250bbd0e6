package anthropic

import "encoding/json"

/*
	MESSAGES API — SSE STREAM EVENTS (emitted by this proxy)

	Anthropic streaming uses SSE "event:" lines naming the event, paired with
	a "data:" line carrying the JSON payload. Unlike the parsing direction
	(one envelope struct discriminated by an inner "type" field), the proxy
	only ever emits events it constructs itself, so each event name gets its
	own struct — marshaling it directly produces the exact payload, and
	EventName() supplies the matching "event:" line.

	Lifecycle: message_start → ping → (content_block_start →
	content_block_delta* → content_block_stop)* → message_delta → message_stop.
*/

// StreamEvent is implemented by every concrete SSE event type this package
// emits. EventName returns the literal string used on the SSE "event:" line.
type StreamEvent interface {
	EventName() string
}

// MessageStartEvent opens a message: a skeleton MessagesResponse with empty
// content and zero output tokens, filled in by subsequent events.
type MessageStartEvent struct {
	Message MessagesResponse `json:"message"`
}

func (MessageStartEvent) EventName() string { return "message_start" }

// MarshalJSON injects the literal "type" field Anthropic's wire format
// requires alongside the event's own fields.
func (e MessageStartEvent) MarshalJSON() ([]byte, error) {
	type alias MessageStartEvent
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: "message_start", alias: alias(e)})
}

// PingEvent is a keep-alive with no payload beyond its type.
type PingEvent struct{}

func (PingEvent) EventName() string { return "ping" }

func (PingEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
	}{Type: "ping"})
}

// ContentBlockStartEvent opens a new content block at Index.
type ContentBlockStartEvent struct {
	Index        int                  `json:"index"`
	ContentBlock ResponseContentBlock `json:"content_block"`
}

func (ContentBlockStartEvent) EventName() string { return "content_block_start" }

func (e ContentBlockStartEvent) MarshalJSON() ([]byte, error) {
	type alias ContentBlockStartEvent
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: "content_block_start", alias: alias(e)})
}

// ContentBlockDeltaEvent carries one incremental update to the block at Index.
type ContentBlockDeltaEvent struct {
	Index int   `json:"index"`
	Delta Delta `json:"delta"`
}

func (ContentBlockDeltaEvent) EventName() string { return "content_block_delta" }

func (e ContentBlockDeltaEvent) MarshalJSON() ([]byte, error) {
	type alias ContentBlockDeltaEvent
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: "content_block_delta", alias: alias(e)})
}

// Delta is a discriminated union over Type: "text_delta" (Text populated) or
// "input_json_delta" (PartialJSON populated).
type Delta struct {
	Type        string `json:"type"`
	Text        string `json:"text,omitempty"`
	PartialJSON string `json:"partial_json,omitempty"`
}

// TextDelta builds a text_delta.
func TextDelta(text string) Delta {
	return Delta{Type: "text_delta", Text: text}
}

// InputJSONDelta builds an input_json_delta carrying a fragment of a
// tool_use block's JSON input.
func InputJSONDelta(partialJSON string) Delta {
	return Delta{Type: "input_json_delta", PartialJSON: partialJSON}
}

// ContentBlockStopEvent closes the block at Index.
type ContentBlockStopEvent struct {
	Index int `json:"index"`
}

func (ContentBlockStopEvent) EventName() string { return "content_block_stop" }

func (e ContentBlockStopEvent) MarshalJSON() ([]byte, error) {
	type alias ContentBlockStopEvent
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: "content_block_stop", alias: alias(e)})
}

// MessageDeltaEvent carries the final stop_reason/stop_sequence plus the
// cumulative output token count.
type MessageDeltaEvent struct {
	Delta MessageDeltaBody `json:"delta"`
	Usage DeltaUsage       `json:"usage"`
}

func (MessageDeltaEvent) EventName() string { return "message_delta" }

func (e MessageDeltaEvent) MarshalJSON() ([]byte, error) {
	type alias MessageDeltaEvent
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: "message_delta", alias: alias(e)})
}

// MessageDeltaBody carries the fields that change at stream end.
type MessageDeltaBody struct {
	StopReason   *string `json:"stop_reason,omitempty"`
	StopSequence *string `json:"stop_sequence,omitempty"`
}

// DeltaUsage reports the output token count as of message_delta.
type DeltaUsage struct {
	OutputTokens int `json:"output_tokens"`
}

// MessageStopEvent closes the message. It carries no fields beyond its type.
type MessageStopEvent struct{}

func (MessageStopEvent) EventName() string { return "message_stop" }

func (MessageStopEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
	}{Type: "message_stop"})
}

// ErrorEvent reports a mid-stream error using the same envelope shape as a
// non-streaming ErrorResponse.
type ErrorEvent struct {
	Error ErrorBody `json:"error"`
}

func (ErrorEvent) EventName() string { return "error" }

func (e ErrorEvent) MarshalJSON() ([]byte, error) {
	type alias ErrorEvent
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: "error", alias: alias(e)})
}
