package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wanderwise-ai/orchestrator/internal/auth"
	"github.com/wanderwise-ai/orchestrator/internal/chat"
	"github.com/wanderwise-ai/orchestrator/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true }, // secure via proxy in prod
}

// ChatHandler serves the conversational side-channel: session creation,
// request/response chat, and a WebSocket variant.
type ChatHandler struct {
	svc      *chat.Service
	sessions *session.Manager
	logger   *zap.Logger
}

func NewChatHandler(svc *chat.Service, sessions *session.Manager, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{svc: svc, sessions: sessions, logger: logger}
}

func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux, mw *auth.Middleware) {
	mux.Handle("/api/v1/sessions", mw.Optional(http.HandlerFunc(h.handleSessions)))
	mux.Handle("/api/v1/chat", mw.Optional(http.HandlerFunc(h.handleChat)))
	mux.Handle("/api/v1/chat/ws", mw.Optional(http.HandlerFunc(h.handleChatWS)))
}

func (h *ChatHandler) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	userID := "guest"
	if userCtx, ok := auth.GetUserContext(r.Context()); ok {
		userID = userCtx.UserID.String()
	}

	sess, err := h.sessions.CreateSession(r.Context(), userID)
	if err != nil {
		h.logger.Error("Session creation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"session_id": sess.ID,
		"expires_at": sess.ExpiresAt,
	})
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

func (h *ChatHandler) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.SessionID == "" || req.Message == "" {
		writeError(w, http.StatusBadRequest, "missing session_id or message")
		return
	}

	reply, err := h.svc.Send(r.Context(), req.SessionID, req.Message)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) || errors.Is(err, session.ErrSessionExpired) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		h.logger.Error("Chat failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "chat unavailable")
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{SessionID: req.SessionID, Reply: reply})
}

func (h *ChatHandler) handleChatWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id required")
		return
	}
	if _, err := h.sessions.GetSession(r.Context(), sessionID); err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	conn.SetReadLimit(4096)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	pingTicker := time.NewTicker(20 * time.Second)
	defer pingTicker.Stop()

	incoming := make(chan chatRequest)
	go func() {
		defer close(incoming)
		for {
			var req chatRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			select {
			case incoming <- req:
			case <-r.Context().Done():
				return
			}
		}
	}()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-pingTicker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(10*time.Second)); err != nil {
				return
			}
		case req, ok := <-incoming:
			if !ok {
				return
			}
			reply, err := h.svc.Send(r.Context(), sessionID, req.Message)
			if err != nil {
				if werr := conn.WriteJSON(map[string]string{"error": sanitizeErr(err.Error())}); werr != nil {
					return
				}
				continue
			}
			if err := conn.WriteJSON(chatResponse{SessionID: sessionID, Reply: reply}); err != nil {
				return
			}
		}
	}
}
