// Package api wires the phrasebook HTTP routes.
package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codyseavey/phrasebook/internal/api/handlers"
	"github.com/codyseavey/phrasebook/internal/metrics"
	"github.com/codyseavey/phrasebook/internal/middleware"
	"github.com/codyseavey/phrasebook/internal/services"
)

// RouterDeps are the services the routes call into
type RouterDeps struct {
	Phrasebook     *services.PhrasebookService
	Worker         *services.PhraseRefreshWorker
	AdminKey       string
	AllowedOrigins []string
}

// NewRouter builds the gin engine with every route registered
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	RegisterRoutes(router, deps)
	return router
}

// RegisterRoutes sets up all API routes and middleware
func RegisterRoutes(router *gin.Engine, deps RouterDeps) {
	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:8081"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.UserIDHeader},
	}))
	router.Use(metrics.HTTPMetrics())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	phrasebook := handlers.NewPhrasebookHandler(deps.Phrasebook, deps.Worker)
	admin := handlers.NewAdminHandler(deps.Phrasebook.Limiter(), deps.Worker)

	api := router.Group("/api")
	{
		api.GET("/auth/status", middleware.GetAuthStatus(deps.AdminKey))
		api.POST("/auth/verify", middleware.VerifyAdminKey(deps.AdminKey))

		pb := api.Group("/phrasebook", middleware.RequireUser())
		{
			pb.POST("", phrasebook.GetPhrasebook)
			pb.GET("/cache", phrasebook.GetCache)
			pb.POST("/refresh", phrasebook.RefreshPhrasebook)
			pb.GET("/languages/:country", phrasebook.GetLanguagePhrases)
			pb.GET("/quota", phrasebook.GetQuota)
			pb.GET("/settings", phrasebook.GetSettings)
			pb.PUT("/settings", phrasebook.UpdateSettings)
			pb.GET("/saved", phrasebook.GetSavedPhrases)
			pb.POST("/saved", phrasebook.SavePhrase)
			pb.DELETE("/saved/:id", phrasebook.RemoveSavedPhrase)
			pb.POST("/phrases/:id/favorite", phrasebook.ToggleFavorite)
		}

		adminGroup := api.Group("/admin", middleware.AdminKeyAuth(deps.AdminKey))
		{
			adminGroup.POST("/quota/:userID/reset", admin.ResetQuota)
			adminGroup.GET("/refresh/status", admin.GetRefreshStatus)
		}
	}
}
