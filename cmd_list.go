package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print stored mints and their stages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := loadApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		events, err := a.store.ListEvents(ctx)
		if err != nil {
			return fmt.Errorf("list events: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No mints found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSTAGE\tSTARTS\tPRICE\tNOTIFIED")
		for _, e := range events {
			if len(e.Stages) == 0 {
				fmt.Fprintf(w, "%d\t%s\t-\t-\t-\t-\n", e.ID, e.Name)
				continue
			}
			for _, s := range e.Stages {
				fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\t%t\n",
					e.ID, e.Name, s.Number, s.StartsAt.In(a.loc).Format("2006-01-02 15:04"), s.Price, s.Notified)
			}
		}
		return w.Flush()
	},
}
