package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codyseavey/phrasebook/internal/api"
	"github.com/codyseavey/phrasebook/internal/auth"
	"github.com/codyseavey/phrasebook/internal/config"
	"github.com/codyseavey/phrasebook/internal/metrics"
	"github.com/codyseavey/phrasebook/internal/services"
	"github.com/codyseavey/phrasebook/internal/store"
)

const (
	// how often the sqlite phrase-count gauges are refreshed
	storeMetricsInterval = time.Minute

	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	location, _ := cfg.Location()

	st, err := store.Open(cfg.Store)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	provider := services.NewGeminiPhraseService(cfg.Gemini)
	phrasebook := services.NewPhrasebook(st, provider, auth.ContextAuth{}, services.PhrasebookOptions{
		Location:             location,
		MaxDailyRequests:     cfg.Limits.MaxDailyRequests,
		RefreshInterval:      cfg.Limits.RefreshInterval,
		MaxPhrasesPerRequest: cfg.Limits.MaxPhrasesPerRequest,
	})
	worker := services.NewPhraseRefreshWorker(phrasebook, cfg.RefreshWorkerInterval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go worker.Start(ctx)

	if gormStore, ok := st.(*store.GormStore); ok {
		go runStoreMetrics(ctx, gormStore)
	}

	router := api.NewRouter(api.RouterDeps{
		Phrasebook:     phrasebook,
		Worker:         worker,
		AdminKey:       cfg.AdminKey,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // generation can take a while
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Phrasebook server listening on :%s (daily limit %d)", cfg.Port, cfg.Limits.MaxDailyRequests)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

func runStoreMetrics(ctx context.Context, st *store.GormStore) {
	metrics.UpdateStoreMetrics(st.DB())

	ticker := time.NewTicker(storeMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateStoreMetrics(st.DB())
		}
	}
}
