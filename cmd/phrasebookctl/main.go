package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/codyseavey/phrasebook/internal/auth"
	"github.com/codyseavey/phrasebook/internal/config"
	"github.com/codyseavey/phrasebook/internal/services"
	"github.com/codyseavey/phrasebook/internal/store"
)

var version = "dev"

// app is the service graph shared by every subcommand
type app struct {
	store      store.Store
	phrasebook *services.PhrasebookService
}

func openApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	location, _ := cfg.Location()

	st, err := store.Open(cfg.Store)
	if err != nil {
		return nil, err
	}

	pb := services.NewPhrasebook(st, services.NewGeminiPhraseService(cfg.Gemini), auth.ContextAuth{}, services.PhrasebookOptions{
		Location:             location,
		MaxDailyRequests:     cfg.Limits.MaxDailyRequests,
		RefreshInterval:      cfg.Limits.RefreshInterval,
		MaxPhrasesPerRequest: cfg.Limits.MaxPhrasesPerRequest,
	})
	return &app{store: st, phrasebook: pb}, nil
}

func (a *app) Close() {
	_ = a.store.Close()
}

func main() {
	var userID string

	root := &cobra.Command{
		Use:     "phrasebookctl",
		Short:   "Inspect and manage phrasebook caches and request quotas",
		Version: version,
	}
	root.PersistentFlags().StringVarP(&userID, "user", "u", "", "user id to operate on")

	userCtx := func() (context.Context, error) {
		if userID == "" {
			return nil, fmt.Errorf("--user is required")
		}
		return auth.WithUserID(context.Background(), userID), nil
	}

	root.AddCommand(
		newQuotaCmd(userCtx),
		newResetQuotaCmd(&userID),
		newCacheCmd(userCtx),
		newSavedCmd(userCtx),
		newGenerateCmd(userCtx),
		newCountryCmd(userCtx),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
