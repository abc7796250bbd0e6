package forward

import (
	"strings"
	"testing"
)

func TestSSELineReader_StripsDataPrefixAndSkipsControlLines(t *testing.T) {
	raw := "event: message\n" +
		"data: {\"a\":1}\n" +
		"\n" +
		": this is a comment\n" +
		"id: 123\n" +
		"retry: 3000\n" +
		"data:{\"b\":2}\n" +
		"data: [DONE]\n"

	reader := newSSELineReader(strings.NewReader(raw))

	var payloads []string
	for {
		data, ok := reader.Next()
		if !ok {
			break
		}
		payloads = append(payloads, data)
	}

	want := []string{`{"a":1}`, `{"b":2}`, "[DONE]"}
	if len(payloads) != len(want) {
		t.Fatalf("expected %d payloads, got %d: %v", len(want), len(payloads), payloads)
	}
	for i, p := range payloads {
		if p != want[i] {
			t.Errorf("payload %d: expected %q, got %q", i, want[i], p)
		}
	}
}

func TestSSELineReader_EmptyStreamYieldsNothing(t *testing.T) {
	reader := newSSELineReader(strings.NewReader(""))
	if _, ok := reader.Next(); ok {
		t.Error("expected no payloads from an empty stream")
	}
}
