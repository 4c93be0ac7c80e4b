package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/quiplabs/quip-backend/internal/logger"
	"github.com/quiplabs/quip-backend/internal/services"
)

type CreateHandler struct {
	log      *logger.Logger
	creation services.CourseCreationService
}

func NewCreateHandler(log *logger.Logger, creation services.CourseCreationService) *CreateHandler {
	return &CreateHandler{
		log:      log.With("handler", "CreateHandler"),
		creation: creation,
	}
}

type createCourseRequest struct {
	SessionID   string `json:"session_id"`
	Description string `json:"description" binding:"required"`
	Level       string `json:"level"`
}

// StartCreation handles POST /create. It mints (or reuses) a session id,
// kicks the creation run off on its own goroutine, and returns
// immediately; progress arrives on the session's event stream.
func (h *CreateHandler) StartCreation(c *gin.Context) {
	var req createCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "missing_description", errors.New("missing 'description' in request body"))
		return
	}

	sessionID := uuid.Nil
	if req.SessionID != "" {
		parsed, err := uuid.Parse(req.SessionID)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_session_id", err)
			return
		}
		sessionID = parsed
	}
	if sessionID == uuid.Nil {
		sessionID = uuid.New()
	}

	// Detached from the request context: the run outlives this response.
	go h.creation.Start(context.Background(), sessionID, req.Description, req.Level)

	h.log.Info("Course creation started", "session_id", sessionID)
	c.JSON(http.StatusAccepted, gin.H{"session_id": sessionID.String()})
}
