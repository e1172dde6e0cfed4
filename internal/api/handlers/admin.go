package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/phrasebook/internal/services"
)

type AdminHandler struct {
	limiter *services.RequestLimiter
	worker  *services.PhraseRefreshWorker
}

func NewAdminHandler(limiter *services.RequestLimiter, worker *services.PhraseRefreshWorker) *AdminHandler {
	return &AdminHandler{
		limiter: limiter,
		worker:  worker,
	}
}

// ResetQuota clears a user's daily generation quota
// POST /api/admin/quota/:userID/reset
func (h *AdminHandler) ResetQuota(c *gin.Context) {
	userID := c.Param("userID")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user id is required"})
		return
	}

	if err := h.limiter.ResetRequestCounter(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":            "Request quota reset",
		"user_id":            userID,
		"requests_remaining": h.limiter.MaxDaily(),
	})
}

// GetRefreshStatus returns the background refresh worker status
// GET /api/admin/refresh/status
func (h *AdminHandler) GetRefreshStatus(c *gin.Context) {
	if h.worker == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "refresh worker not available"})
		return
	}
	c.JSON(http.StatusOK, h.worker.GetStatus())
}
