package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/codyseavey/phrasebook/internal/models"
	"github.com/codyseavey/phrasebook/internal/services"
)

type userContextFunc func() (context.Context, error)

func newQuotaCmd(userCtx userContextFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "quota",
		Short: "Show the user's remaining generation requests for today",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := userCtx()
			if err != nil {
				return err
			}
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			limiter := a.phrasebook.Limiter()
			status := limiter.CheckRequestLimit(ctx)
			fmt.Printf("Remaining: %d/%d\n", status.RequestsRemaining, limiter.MaxDaily())
			if status.NextAvailableTime != nil {
				fmt.Printf("Next available: %s\n", status.NextAvailableTime.Format(time.RFC1123))
			}
			return nil
		},
	}
}

func newResetQuotaCmd(userID *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-quota",
		Short: "Clear the user's daily request counter",
		RunE: func(cmd *cobra.Command, args []string) error {
			if *userID == "" {
				return fmt.Errorf("--user is required")
			}
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.phrasebook.Limiter().ResetRequestCounter(context.Background(), *userID); err != nil {
				return err
			}
			fmt.Printf("Quota reset for %s.\n", *userID)
			return nil
		},
	}
}

func newCacheCmd(userCtx userContextFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "cache",
		Short: "List the user's cached phrases",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := userCtx()
			if err != nil {
				return err
			}
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			cached := a.phrasebook.Cache().GetCachedPhrases(ctx)
			updated := "never"
			if cached.LastUpdatedAt != nil {
				updated = cached.LastUpdatedAt.Format(time.RFC1123)
			}
			fmt.Printf("Phrases: %d  Last updated: %s  Needs refresh: %v\n", len(cached.Phrases), updated, cached.NeedsRefresh)
			printPhrases(cached.Phrases)
			return nil
		},
	}
}

func newSavedCmd(userCtx userContextFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "saved",
		Short: "List the user's saved phrases",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := userCtx()
			if err != nil {
				return err
			}
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			saved := a.phrasebook.Saved().GetSavedPhrases(ctx)
			fmt.Printf("Saved phrases: %d\n", len(saved))
			printPhrases(saved)
			return nil
		},
	}
}

func newGenerateCmd(userCtx userContextFunc) *cobra.Command {
	var places []string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate phrases for visited places and replace the user's cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := userCtx()
			if err != nil {
				return err
			}
			if len(places) == 0 {
				return fmt.Errorf("at least one --place is required")
			}
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			visited := make([]models.VisitedPlace, 0, len(places))
			for _, p := range places {
				visited = append(visited, models.VisitedPlace{Name: p})
			}

			phrases, err := a.phrasebook.RefreshPhrasebook(ctx, visited)
			if err != nil {
				var limitErr *services.LimitReachedError
				if errors.As(err, &limitErr) {
					return errors.New(limitErr.RetryMessage())
				}
				return err
			}
			fmt.Printf("Generated %d phrases.\n", len(phrases))
			printPhrases(phrases)
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&places, "place", "p", nil, "visited place (repeatable)")
	return cmd
}

func newCountryCmd(userCtx userContextFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "country <name>",
		Short: "Show phrases for one country, generating them if none are cached",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := userCtx()
			if err != nil {
				return err
			}
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			result := a.phrasebook.GetLanguagePhrases(ctx, args[0])
			fmt.Printf("Source: %s\n", result.Source)
			printPhrases(result.Phrases)
			return nil
		},
	}
}

func printPhrases(phrases []models.Phrase) {
	for _, p := range phrases {
		star := " "
		if p.IsFavorite {
			star = "*"
		}
		fmt.Printf("%s [%s] %s  %s\n", star, p.Language, p.PhraseText, p.Translation)
		if p.Pronunciation != "" {
			fmt.Printf("    %s\n", p.Pronunciation)
		}
		if ctx := strings.TrimSpace(p.UseContext); ctx != "" {
			fmt.Printf("    (%s)\n", ctx)
		}
	}
}
