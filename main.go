package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"
	_ "time/tzdata"

	"mint-bot/config"
	"mint-bot/internal/localization"
	"mint-bot/internal/notifier"
	"mint-bot/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "mint-bot",
	Short:        "Telegram bot that tracks mint launches and alerts channels before each stage",
	SilenceUsage: true,
	RunE:         runServe,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app bundles what every command needs: configuration, the store and the localizer.
type app struct {
	cfg       *config.Config
	loc       *time.Location
	store     storage.EventStore
	localizer *localization.Localizer
}

func loadApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(ctx, cfg.DatabaseURL, cfg.DatabasePath, loc)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	localizer, err := localization.NewLocalizer(localization.Files)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to load locales: %w", err)
	}
	return &app{cfg: cfg, loc: loc, store: store, localizer: localizer}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		log.Printf("Failed to close database: %v", err)
	}
}

func (a *app) newNotifier(sender notifier.Sender) *notifier.Notifier {
	return notifier.New(a.store, sender, a.localizer, notifier.Config{
		Destinations:     a.cfg.ChannelIDs,
		Operators:        a.cfg.OwnerIDs,
		AlertLanguages:   a.cfg.AlertLanguages,
		OperatorLanguage: a.cfg.DefaultLanguage,
		ReportFailures:   a.cfg.ReportDeliveryErrors,
		Location:         a.loc,
	})
}

func (a *app) newBotAPI() (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(a.cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Telegram: %w", err)
	}
	api.Debug = false
	log.Printf("Authorized on account %s", api.Self.UserName)
	return api, nil
}
