package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/outpostai/claudeproxy/internal/apperror"
	"github.com/outpostai/claudeproxy/internal/protocol/anthropic"
)

// keepAliveInterval is how often a comment line is sent to keep an idle SSE
// connection from being closed by an intermediary proxy.
const keepAliveInterval = 15 * time.Second

func (app *App) handleMessages(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, anthropic.InvalidRequestError("failed to read request body: "+err.Error()))
		return
	}

	if app.Config.IsAnthropicFormat() {
		app.handlePassthrough(w, r, body)
		return
	}

	app.logDroppedFields(body)

	var req anthropic.MessagesRequest
	if err := json.Unmarshal(body, &req); err != nil {
		app.Logger.Error("server", fmt.Sprintf("failed to parse request: %v", err))
		writeError(w, http.StatusBadRequest, anthropic.InvalidRequestError(fmt.Sprintf("invalid request body: %v", err)))
		return
	}

	isStreaming := req.Stream != nil && *req.Stream
	app.Logger.Info("server", fmt.Sprintf("Request: model=%s streaming=%v messages=%d", req.Model, isStreaming, len(req.Messages)))

	if isStreaming {
		app.handleStreaming(w, r, &req)
		return
	}
	app.handleNonStreaming(w, r, &req)
}

// logDroppedFields decodes body loosely and logs, at debug level, which of
// the configured params.drop keys the caller actually sent. MessagesRequest
// never declares fields for these keys, so encoding/json already discards
// them on the real decode; this is pure observability, it never changes
// forwarding behavior.
func (app *App) logDroppedFields(body []byte) {
	if len(app.Config.Params.Drop) == 0 {
		return
	}

	var raw map[string]json.RawMessage
	if json.Unmarshal(body, &raw) != nil {
		return
	}

	var present []string
	for _, key := range app.Config.Params.Drop {
		if _, ok := raw[key]; ok {
			present = append(present, key)
		}
	}
	if len(present) > 0 {
		app.Logger.Debug("server", fmt.Sprintf("Dropping unsupported fields: %v", present))
	}
}

func (app *App) handleNonStreaming(w http.ResponseWriter, r *http.Request, req *anthropic.MessagesRequest) {
	result, err := app.Client.SendNonStreaming(r.Context(), req)
	if err != nil {
		app.Logger.Error("server", fmt.Sprintf("proxy error: %v", err))
		status := http.StatusBadGateway
		var appErr *apperror.Error
		if errors.As(err, &appErr) {
			status = appErr.Status()
		}
		writeError(w, status, anthropic.APIError(fmt.Sprintf("proxy error: %v", err)))
		return
	}

	if result.Error != nil {
		status := result.Status
		if status < 400 {
			status = http.StatusBadGateway
		}
		writeError(w, status, *result.Error)
		return
	}

	writeJSON(w, http.StatusOK, result.Response)
}

func (app *App) handleStreaming(w http.ResponseWriter, r *http.Request, req *anthropic.MessagesRequest) {
	events, err := app.Client.SendStreaming(r.Context(), req)
	if err != nil {
		app.Logger.Error("server", fmt.Sprintf("streaming setup error: %v", err))
		writeError(w, http.StatusBadGateway, anthropic.APIError(fmt.Sprintf("streaming error: %v", err)))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, anthropic.APIError("streaming not supported by this response writer"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, event.Data)
			flusher.Flush()
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func (app *App) handlePassthrough(w http.ResponseWriter, r *http.Request, body []byte) {
	result, err := app.Client.Passthrough(r.Context(), body, r.Header.Get("anthropic-version"))
	if err != nil {
		app.Logger.Error("server", fmt.Sprintf("passthrough error: %v", err))
		writeError(w, http.StatusBadGateway, anthropic.APIError(fmt.Sprintf("passthrough error: %v", err)))
		return
	}

	status := result.Status
	if status == 0 {
		status = http.StatusBadGateway
	}

	if isEventStream(result.ContentType) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
	} else {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(status)
	w.Write(result.Body)
}

func (app *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": app.Version})
}

func (app *App) handleModels(w http.ResponseWriter, r *http.Request) {
	models := make([]map[string]string, 0, len(app.Config.Models))
	for name := range app.Config.Models {
		models = append(models, map[string]string{
			"id":       name,
			"object":   "model",
			"owned_by": app.Config.Provider.Name,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": models, "object": "list"})
}

func isEventStream(contentType string) bool {
	return strings.Contains(contentType, "text/event-stream")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err anthropic.ErrorResponse) {
	writeJSON(w, status, err)
}
