package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/quiplabs/quip-backend/internal/logger"
	"github.com/quiplabs/quip-backend/internal/sse"
)

type RealtimeHandler struct {
	log *logger.Logger
	hub *sse.Hub
}

func NewRealtimeHandler(log *logger.Logger, hub *sse.Hub) *RealtimeHandler {
	return &RealtimeHandler{
		log: log.With("handler", "RealtimeHandler"),
		hub: hub,
	}
}

// Events handles GET /events?session_id=. The connection stays open,
// streaming every broadcast for that session until the client goes away.
func (h *RealtimeHandler) Events(c *gin.Context) {
	raw := c.Query("session_id")
	if raw == "" {
		RespondError(c, http.StatusBadRequest, "missing_session_id", errors.New("missing 'session_id' query parameter"))
		return
	}
	sessionID, err := uuid.Parse(raw)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_session_id", err)
		return
	}

	client := h.hub.NewClient()
	h.hub.AddChannel(client, sessionID.String())
	h.log.Info("SSE stream open", "session_id", sessionID, "client_id", client.ID)

	h.hub.ServeHTTP(c.Writer, c.Request, client)

	h.hub.CloseClient(client)
	h.log.Info("SSE stream closed", "session_id", sessionID, "client_id", client.ID)
}
