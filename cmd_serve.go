package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"mint-bot/internal/bot"
	"mint-bot/internal/conversation"
	"mint-bot/internal/scheduler"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot with its alert and digest schedules",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	log.Println("Starting Mint Bot...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	api, err := a.newBotAPI()
	if err != nil {
		return err
	}

	appScheduler, err := scheduler.NewScheduler(a.loc)
	if err != nil {
		return err
	}
	defer func() {
		if err := appScheduler.Shutdown(); err != nil {
			log.Printf("Failed to stop scheduler: %v", err)
		}
	}()

	engine := conversation.NewEngine(a.store, a.localizer, a.loc, a.cfg.DefaultLanguage, a.cfg.MaxStages)
	n := a.newNotifier(bot.NewSender(api))
	telegramBot := bot.NewBot(api, a.cfg, a.localizer, engine, n, appScheduler)

	log.Printf("Bot is running (%s time)...", a.loc)
	if err := telegramBot.Start(ctx); err != nil {
		return err
	}
	log.Println("Shutting down.")
	return nil
}
