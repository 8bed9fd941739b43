package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/store"
)

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List recently dispatched actions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")
			prune, _ := cmd.Flags().GetDuration("prune")

			db, err := store.New(cfg.DBPath())
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			if prune > 0 {
				n, err := db.Events().Prune(time.Now().Add(-prune))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "pruned %d events\n", n)
			}

			events, err := db.Events().List(limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tACTION\tGESTURE\tRESULT")
			for _, e := range events {
				result := "ok"
				if !e.Succeeded {
					result = e.Error
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.CreatedAt.Local().Format(time.DateTime), e.Action, e.Gesture, result)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	cmd.Flags().Duration("prune", 0, "Delete events older than this before listing")
	return cmd
}
