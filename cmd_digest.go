package main

import (
	"context"
	"fmt"
	"time"

	"mint-bot/internal/bot"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(digestCmd, checkCmd)
}

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Post today's digest to the channels now",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := loadApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		api, err := a.newBotAPI()
		if err != nil {
			return err
		}
		posted, err := a.newNotifier(bot.NewSender(api)).PostDailyDigest(ctx, time.Now())
		if err != nil {
			return err
		}
		if !posted {
			fmt.Println("No mints today, nothing posted.")
			return nil
		}
		fmt.Println("Digest posted.")
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one stage alert check now",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := loadApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		api, err := a.newBotAPI()
		if err != nil {
			return err
		}
		count, err := a.newNotifier(bot.NewSender(api)).CheckStages(ctx, time.Now())
		if err != nil {
			return err
		}
		fmt.Printf("Sent %d stage alert(s).\n", count)
		return nil
	},
}
