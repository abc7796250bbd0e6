package server

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/outpostai/claudeproxy/internal/config"
	"github.com/outpostai/claudeproxy/internal/forward"
	"github.com/outpostai/claudeproxy/internal/logging"
	"github.com/outpostai/claudeproxy/internal/protocol/openai"
)

func newTestApp(t *testing.T, upstreamURL string) *App {
	t.Helper()
	t.Setenv("TEST_SERVER_KEY", "sk-test")

	logger, err := logging.New(t.TempDir() + "/test.log")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	t.Cleanup(func() { logger.Close() })

	cfg := &config.Config{
		Provider: config.ProviderConfig{Name: "openai", BaseURL: &upstreamURL, APIKeyEnv: "TEST_SERVER_KEY"},
		Models:   map[string]string{"claude-sonnet-4-20250514": "gpt-4o"},
	}

	return &App{
		Config:  cfg,
		Client:  forward.NewClient(cfg, logger),
		Logger:  logger,
		Version: "test",
	}
}

func TestHandleMessages_NonStreamingSuccess(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := openai.ChatCompletionResponse{
			ID:      "chatcmpl-1",
			Choices: []openai.Choice{{Message: openai.ChoiceMessage{Role: "assistant", Content: strPtr("hello")}, FinishReason: strPtr("stop")}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer upstream.Close()

	app := newTestApp(t, upstream.URL)
	router := NewRouter(app)

	reqBody := `{"model":"claude-sonnet-4-20250514","max_tokens":100,"messages":[{"role":"user","content":"hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(reqBody))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body map[string]any
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["role"] != "assistant" {
		t.Errorf("expected assistant role in response, got %+v", body)
	}
}

func TestHandleMessages_InvalidJSON(t *testing.T) {
	app := newTestApp(t, "http://unused.invalid")
	router := NewRouter(app)

	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader("not json"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	app := newTestApp(t, "http://unused.invalid")
	router := NewRouter(app)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]string
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %+v", body)
	}
}

func TestHandleModels(t *testing.T) {
	app := newTestApp(t, "http://unused.invalid")
	router := NewRouter(app)

	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Data []map[string]string `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if len(body.Data) != 1 || body.Data[0]["id"] != "claude-sonnet-4-20250514" {
		t.Errorf("expected configured model listed, got %+v", body.Data)
	}
}

func TestHandleMessages_StreamingSuccess(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("data: {\"choices\":[{\"index\":0,\"delta\":{\"content\":\"hi\"},\"finish_reason\":\"stop\"}]}\n\n"))
		w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer upstream.Close()

	app := newTestApp(t, upstream.URL)
	router := NewRouter(app)

	reqBody := `{"model":"claude-sonnet-4-20250514","max_tokens":100,"stream":true,"messages":[{"role":"user","content":"hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(reqBody))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("expected text/event-stream, got %s", ct)
	}

	scanner := bufio.NewScanner(strings.NewReader(w.Body.String()))
	var sawMessageStart, sawMessageStop bool
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, "message_start") {
			sawMessageStart = true
		}
		if strings.Contains(line, "message_stop") {
			sawMessageStop = true
		}
	}
	if !sawMessageStart || !sawMessageStop {
		t.Errorf("expected full SSE sequence in body, got:\n%s", w.Body.String())
	}
}

func TestHandleMessages_PassthroughMode(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"type":"message","id":"msg_direct"}`))
	}))
	defer upstream.Close()

	app := newTestApp(t, upstream.URL)
	app.Config.Provider.Name = "anthropic"
	format := "anthropic"
	app.Config.Provider.Format = &format
	router := NewRouter(app)

	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(`{"model":"claude-sonnet-4-20250514"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "msg_direct") {
		t.Errorf("expected raw upstream body forwarded, got %s", w.Body.String())
	}
}

func TestHandleMessages_LogsDroppedFields(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := openai.ChatCompletionResponse{
			ID:      "chatcmpl-1",
			Choices: []openai.Choice{{Message: openai.ChoiceMessage{Role: "assistant", Content: strPtr("hi")}, FinishReason: strPtr("stop")}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer upstream.Close()

	app := newTestApp(t, upstream.URL)
	app.Config.Params.Drop = []string{"thinking", "betas"}
	router := NewRouter(app)

	reqBody := `{"model":"claude-sonnet-4-20250514","max_tokens":100,"thinking":{"type":"enabled"},"messages":[{"role":"user","content":"hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(reqBody))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	found := false
	for _, e := range app.Logger.Recent(10) {
		if strings.Contains(e.Message, "thinking") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a log entry naming the dropped 'thinking' field")
	}
}

func strPtr(s string) *string { return &s }
