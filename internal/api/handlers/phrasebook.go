package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/phrasebook/internal/auth"
	"github.com/codyseavey/phrasebook/internal/models"
	"github.com/codyseavey/phrasebook/internal/services"
)

type PhrasebookHandler struct {
	phrasebook *services.PhrasebookService
	worker     *services.PhraseRefreshWorker
}

func NewPhrasebookHandler(phrasebook *services.PhrasebookService, worker *services.PhraseRefreshWorker) *PhrasebookHandler {
	return &PhrasebookHandler{
		phrasebook: phrasebook,
		worker:     worker,
	}
}

// PhrasebookRequest is the body for phrasebook generation and refresh
type PhrasebookRequest struct {
	VisitedPlaces []models.VisitedPlace `json:"visited_places"`
}

// PreferencesRequest is the body for PUT /api/phrasebook/settings
type PreferencesRequest struct {
	FavoriteLanguages   []string `json:"favorite_languages"`
	ExplorableCountries []string `json:"explorable_countries"`
}

// FavoriteRequest is the body for POST /api/phrasebook/phrases/:id/favorite
type FavoriteRequest struct {
	Favorite bool           `json:"favorite"`
	Phrase   *models.Phrase `json:"phrase,omitempty"`
}

// GetPhrasebook returns the comprehensive phrasebook for the visited places
// POST /api/phrasebook
func (h *PhrasebookHandler) GetPhrasebook(c *gin.Context) {
	var req PhrasebookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	result, err := h.phrasebook.GetComprehensivePhrasebook(c.Request.Context(), req.VisitedPlaces)
	if err != nil {
		var limitErr *services.LimitReachedError
		if errors.As(err, &limitErr) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":               limitErr.Error(),
				"code":                "LIMIT_REACHED",
				"message":             limitErr.RetryMessage(),
				"next_available_time": limitErr.NextAvailableTime,
				"fallback_phrases":    services.CreateMockPhrases(),
			})
			return
		}

		// Provider failures are shown as sample phrases rather than an error
		c.JSON(http.StatusOK, gin.H{
			"phrases":       services.CreateMockPhrases(),
			"source":        services.SourceMock,
			"needs_refresh": true,
			"warning":       "Phrase generation is unavailable right now; showing sample phrases",
		})
		return
	}

	if result.NeedsRefresh && h.worker != nil && len(req.VisitedPlaces) > 0 {
		userID, _ := auth.UserIDFromContext(c.Request.Context())
		h.worker.QueueRefresh(userID, req.VisitedPlaces)
	}

	c.JSON(http.StatusOK, result)
}

// GetCache returns the cached phrases and whether they need refreshing
// GET /api/phrasebook/cache
func (h *PhrasebookHandler) GetCache(c *gin.Context) {
	c.JSON(http.StatusOK, h.phrasebook.Cache().GetCachedPhrases(c.Request.Context()))
}

// RefreshPhrasebook queues a background refresh for the visited places
// POST /api/phrasebook/refresh
func (h *PhrasebookHandler) RefreshPhrasebook(c *gin.Context) {
	var req PhrasebookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if len(services.LocationNames(req.VisitedPlaces)) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one visited place is required"})
		return
	}
	if h.worker == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "refresh worker not available"})
		return
	}

	userID, _ := auth.UserIDFromContext(c.Request.Context())
	queueLength := h.worker.QueueRefresh(userID, req.VisitedPlaces)

	c.JSON(http.StatusAccepted, gin.H{
		"message":      "Phrasebook refresh queued for next update",
		"queue_length": queueLength,
	})
}

// GetLanguagePhrases returns phrases for one country or language
// GET /api/phrasebook/languages/:country
func (h *PhrasebookHandler) GetLanguagePhrases(c *gin.Context) {
	country := strings.TrimSpace(c.Param("country"))
	if country == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "country is required"})
		return
	}

	c.JSON(http.StatusOK, h.phrasebook.GetLanguagePhrases(c.Request.Context(), country))
}

// GetQuota returns the user's remaining generation requests for today
// GET /api/phrasebook/quota
func (h *PhrasebookHandler) GetQuota(c *gin.Context) {
	limiter := h.phrasebook.Limiter()
	status := limiter.CheckRequestLimit(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"can_request":         status.CanRequest,
		"requests_remaining":  status.RequestsRemaining,
		"next_available_time": status.NextAvailableTime,
		"daily_limit":         limiter.MaxDaily(),
	})
}

// GetSettings returns the user's phrasebook settings
// GET /api/phrasebook/settings
func (h *PhrasebookHandler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.phrasebook.GetSettings(c.Request.Context()))
}

// UpdateSettings replaces favorite languages and explorable countries
// PUT /api/phrasebook/settings
func (h *PhrasebookHandler) UpdateSettings(c *gin.Context) {
	var req PreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	if err := h.phrasebook.UpdatePreferences(c.Request.Context(), req.FavoriteLanguages, req.ExplorableCountries); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.phrasebook.GetSettings(c.Request.Context()))
}

// GetSavedPhrases lists the user's saved phrases
// GET /api/phrasebook/saved
func (h *PhrasebookHandler) GetSavedPhrases(c *gin.Context) {
	phrases := h.phrasebook.Saved().GetSavedPhrases(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"phrases": phrases,
		"count":   len(phrases),
	})
}

// SavePhrase adds a phrase to the saved store
// POST /api/phrasebook/saved
func (h *PhrasebookHandler) SavePhrase(c *gin.Context) {
	var phrase models.Phrase
	if err := c.ShouldBindJSON(&phrase); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(phrase.PhraseText) == "" || strings.TrimSpace(phrase.Language) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "language and phrase are required"})
		return
	}

	id := h.phrasebook.Saved().SavePhrase(c.Request.Context(), phrase)
	if id == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save phrase"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// RemoveSavedPhrase deletes a saved phrase
// DELETE /api/phrasebook/saved/:id
func (h *PhrasebookHandler) RemoveSavedPhrase(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "phrase id is required"})
		return
	}

	if !h.phrasebook.Saved().RemoveSavedPhrase(c.Request.Context(), id) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove phrase"})
		return
	}

	c.Status(http.StatusNoContent)
}

// ToggleFavorite sets or clears the favorite flag on a cached phrase
// POST /api/phrasebook/phrases/:id/favorite
func (h *PhrasebookHandler) ToggleFavorite(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "phrase id is required"})
		return
	}

	var req FavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	ok := h.phrasebook.Saved().ToggleFavoritePhrase(c.Request.Context(), id, req.Favorite, req.Phrase)
	status := http.StatusOK
	if !ok {
		// One of the two writes failed; the client can retry the toggle
		status = http.StatusMultiStatus
	}

	c.JSON(status, gin.H{
		"id":       id,
		"favorite": req.Favorite,
		"success":  ok,
	})
}
