package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/fablewright/fablewright/internal/agent"
)

// SessionsHandler serves the saved-game API:
//
//	POST   /v1/sessions                  start a new game
//	GET    /v1/sessions                  list saved games
//	GET    /v1/sessions/{id}             fetch one session
//	DELETE /v1/sessions/{id}             delete a saved game
//	GET    /v1/sessions/{id}/turns/{n}   fetch one completed turn
//	POST   /v1/sessions/{id}/actions     submit a player action (SSE response)
type SessionsHandler struct {
	manager *agent.Manager
	logger  *slog.Logger
}

// NewSessionRequest is the body of a session-creation request.
type NewSessionRequest struct {
	Name string `json:"name,omitempty"`
}

// ActionRequest is the body of an action submission.
type ActionRequest struct {
	Action string `json:"action"`
}

func NewSessionsHandler(manager *agent.Manager, logger *slog.Logger) *SessionsHandler {
	return &SessionsHandler{
		manager: manager,
		logger:  logger,
	}
}

func (h *SessionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 2 || parts[0] != "v1" || parts[1] != "sessions" {
		writeError(w, h.logger, http.StatusNotFound, "Not found.")
		return
	}

	switch {
	case len(parts) == 2:
		switch r.Method {
		case http.MethodPost:
			h.createSession(w, r)
		case http.MethodGet:
			h.listSessions(w, r)
		default:
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed.")
		}
		return

	case len(parts) == 3:
		id, ok := h.parseID(w, parts[2])
		if !ok {
			return
		}
		switch r.Method {
		case http.MethodGet:
			h.getSession(w, r, id)
		case http.MethodDelete:
			h.deleteSession(w, r, id)
		default:
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed.")
		}
		return

	case len(parts) == 5 && parts[3] == "turns":
		id, ok := h.parseID(w, parts[2])
		if !ok {
			return
		}
		if r.Method != http.MethodGet {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
			return
		}
		h.getTurn(w, r, id, parts[4])
		return

	case len(parts) == 4 && parts[3] == "actions":
		id, ok := h.parseID(w, parts[2])
		if !ok {
			return
		}
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
			return
		}
		h.submitAction(w, r, id)
		return
	}

	writeError(w, h.logger, http.StatusNotFound, "Not found.")
}

func (h *SessionsHandler) parseID(w http.ResponseWriter, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format.")
		return uuid.Nil, false
	}
	return id, true
}

func (h *SessionsHandler) createSession(w http.ResponseWriter, r *http.Request) {
	var req NewSessionRequest
	if r.Body != nil {
		// An empty body is allowed; the session just gets no name.
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err.Error() != "EOF" {
			writeError(w, h.logger, http.StatusBadRequest, "Invalid request body.")
			return
		}
	}

	s, err := h.manager.StartSession(r.Context(), req.Name)
	if err != nil {
		h.logger.Error("Failed to start session", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to start a new game.")
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, s)
}

func (h *SessionsHandler) listSessions(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.manager.ListSessions(r.Context())
	if err != nil {
		h.logger.Error("Failed to list sessions", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to list saved games.")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, summaries)
}

func (h *SessionsHandler) getSession(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	s, err := h.manager.GetSession(r.Context(), id)
	if err != nil {
		if errors.Is(err, agent.ErrSessionNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "Session not found.")
			return
		}
		h.logger.Error("Failed to load session", "error", err, "session_id", id.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session.")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, s)
}

func (h *SessionsHandler) deleteSession(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.manager.DeleteSession(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete session", "error", err, "session_id", id.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete session.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionsHandler) getTurn(w http.ResponseWriter, r *http.Request, id uuid.UUID, rawTurn string) {
	n, err := strconv.Atoi(rawTurn)
	if err != nil || n < 0 {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid turn number.")
		return
	}

	turn, err := h.manager.GetTurn(r.Context(), id, n)
	if err != nil {
		if errors.Is(err, agent.ErrSessionNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "Session not found.")
			return
		}
		writeError(w, h.logger, http.StatusNotFound, "Turn not found.")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, turn)
}

// submitAction processes one player turn and streams TurnEvents back
// as Server-Sent Events, one event per TurnEvent, in emission order.
func (h *SessionsHandler) submitAction(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body. Expected JSON with 'action' field.")
		return
	}
	if strings.TrimSpace(req.Action) == "" {
		writeError(w, h.logger, http.StatusBadRequest, "Action cannot be empty.")
		return
	}

	// Confirm the session exists before committing to an SSE response,
	// so missing sessions still get a proper status code.
	if _, err := h.manager.GetSession(r.Context(), id); err != nil {
		if errors.Is(err, agent.ErrSessionNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "Session not found.")
			return
		}
		h.logger.Error("Failed to load session", "error", err, "session_id", id.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session.")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	h.logger.Info("Action stream started",
		"session_id", id.String(),
		"remote_addr", r.RemoteAddr)

	_, err := h.manager.SubmitAction(r.Context(), id, req.Action, func(ev agent.TurnEvent) {
		h.sendSSE(w, string(ev.Type), ev)
	})
	if err != nil {
		// The SSE response is already underway; surface the failure as
		// a terminal error event.
		h.logger.Error("Action processing failed", "error", err, "session_id", id.String())
		h.sendSSE(w, string(agent.EventError), agent.TurnEvent{
			Type:    agent.EventError,
			Message: err.Error(),
		})
	}
}

// sendSSE sends a Server-Sent Event to the client
func (h *SessionsHandler) sendSSE(w http.ResponseWriter, eventType string, data interface{}) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("Failed to marshal SSE data", "error", err)
		return
	}

	if _, err := w.Write([]byte("event: " + eventType + "\ndata: " + string(dataJSON) + "\n\n")); err != nil {
		h.logger.Error("Failed to write event", "error", err)
		return
	}

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}
