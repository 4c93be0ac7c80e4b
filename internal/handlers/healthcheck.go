package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quiplabs/quip-backend/internal/db"
)

func HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

type HomeHandler struct {
	database *db.DatabaseService
}

func NewHomeHandler(database *db.DatabaseService) *HomeHandler {
	return &HomeHandler{database: database}
}

// Home re-runs the schema health check and reports liveness.
func (h *HomeHandler) Home(c *gin.Context) {
	healthy := h.database.HealthCheck()
	RespondOK(c, gin.H{
		"message": "Hello from Quip!",
		"healthy": healthy,
	})
}
