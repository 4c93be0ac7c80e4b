package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/quiplabs/quip-backend/internal/logger"
	"github.com/quiplabs/quip-backend/internal/services"
)

type SectionHandler struct {
	log        *logger.Logger
	completion services.CompletionService
}

func NewSectionHandler(log *logger.Logger, completion services.CompletionService) *SectionHandler {
	return &SectionHandler{
		log:        log.With("handler", "SectionHandler"),
		completion: completion,
	}
}

type completeSectionRequest struct {
	SectionID string `json:"section_id" binding:"required"`
}

// CompleteSection handles POST /section/complete.
func (h *SectionHandler) CompleteSection(c *gin.Context) {
	var req completeSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "missing_section_id", errors.New("missing 'section_id' in request body"))
		return
	}
	sectionID, err := uuid.Parse(req.SectionID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_section_id", err)
		return
	}

	if err := h.completion.CompleteSection(c.Request.Context(), sectionID); err != nil {
		h.log.Error("CompleteSection failed", "section_id", sectionID, "error", err)
		RespondError(c, http.StatusInternalServerError, "complete_section_failed", err)
		return
	}
	RespondOK(c, gin.H{
		"status":  "success",
		"message": fmt.Sprintf("Section %s marked as complete", sectionID),
	})
}
