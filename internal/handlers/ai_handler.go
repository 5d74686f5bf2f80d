package handlers

import (
	"net/http"
	"strings"

	"clinic-pos/internal/apperror"
	"clinic-pos/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AskRequest struct {
	Message string `json:"message" binding:"required"`
}

// POST /api/ask
func (h *Handler) AskAI(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		h.fail(c, apperror.Validation("message is required"))
		return
	}

	// 1. The assistant only exists when GEMINI_API_KEY is set
	if h.assistant == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success":    false,
			"error":      "AI assistant is not configured",
			"request_id": middleware.RequestIDFrom(c),
		})
		return
	}

	// 2. Run the agent
	reply, err := h.assistant.Ask(c.Request.Context(), req.Message)
	if err != nil {
		h.log.Error("assistant failed", zap.Error(err), zap.String("request_id", middleware.RequestIDFrom(c)))
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{
			"success":    false,
			"error":      "AI assistant is unavailable",
			"request_id": middleware.RequestIDFrom(c),
		})
		return
	}

	respond(c, http.StatusOK, gin.H{"reply": reply}, "")
}
