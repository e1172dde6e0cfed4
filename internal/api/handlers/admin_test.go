package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/phrasebook/internal/auth"
	"github.com/codyseavey/phrasebook/internal/models"
	"github.com/codyseavey/phrasebook/internal/services"
	"github.com/codyseavey/phrasebook/internal/store"
)

func TestAdminResetQuota(t *testing.T) {
	st := store.NewMemoryStore()
	limits := models.RequestLimitInfo{RequestCount: 5, LastRequestDate: time.Now()}
	if err := st.MergeSettings(context.Background(), "traveler", store.SettingsPatch{RequestLimits: &limits}); err != nil {
		t.Fatal(err)
	}

	limiter := services.NewRequestLimiter(st, auth.ContextAuth{}, nil, nil, 0)
	h := NewAdminHandler(limiter, nil)

	router := gin.New()
	router.POST("/api/admin/quota/:userID/reset", h.ResetQuota)
	router.GET("/api/admin/refresh/status", h.GetRefreshStatus)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/admin/quota/traveler/reset", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	ctx := auth.WithUserID(context.Background(), "traveler")
	if status := limiter.CheckRequestLimit(ctx); status.RequestsRemaining != services.MaxDailyRequests {
		t.Errorf("expected %d remaining after reset, got %d", services.MaxDailyRequests, status.RequestsRemaining)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/refresh/status", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503 without a worker, got %d", w.Code)
	}
}
