package handlers

import (
	"context"
	"net/http"
	"time"

	"clinic-pos/internal/database"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GET /health
// Reports the process as up only while the database answers.
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := database.Ping(ctx, h.db); err != nil {
		h.log.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "online", "database": "ok"})
}
