package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/binding"
	"github.com/ayusman/mudra/internal/gesture"
)

func newBindingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bindings",
		Short: "Show the saved gesture bindings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			bindings, db, err := openBindings(cfg, logger, false)
			if err != nil {
				return err
			}
			defer closeDB(db)

			printBindings(cmd, bindings)
			return nil
		},
	}
}

func printBindings(cmd *cobra.Command, bindings *binding.Store) {
	out := cmd.OutOrStdout()
	for _, role := range binding.Roles() {
		id := bindings.Get(role)
		if id == gesture.None {
			fmt.Fprintf(out, "%-7s (unbound)\n", role)
			continue
		}
		fmt.Fprintf(out, "%-7s %s (%s)\n", role, id, id.Label())
	}
}
