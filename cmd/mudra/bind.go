package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/binding"
	"github.com/ayusman/mudra/internal/gesture"
)

func newBindCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bind <mute|unmute> [gesture]",
		Short: "Bind a gesture to an action and save",
		Long: `Binds a gesture (two_finger_sign, one_finger_up, or their emoji) to the mute
or unmute action, replacing the previous binding, and saves the result.
Pass --clear instead of a gesture to unbind the action.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			unbind, _ := cmd.Flags().GetBool("clear")
			if unbind == (len(args) == 2) {
				return fmt.Errorf("give either a gesture or --clear")
			}

			role, err := binding.ParseRole(args[0])
			if err != nil {
				return err
			}

			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			bindings, db, err := openBindings(cfg, logger, false)
			if err != nil {
				return err
			}
			defer closeDB(db)

			if unbind {
				err = bindings.Clear(role)
			} else {
				var id gesture.ID
				id, err = gesture.Parse(args[1])
				if err == nil {
					err = bindings.Set(role, id)
				}
			}
			if err != nil {
				return err
			}

			if err := bindings.Save(); err != nil {
				return err
			}
			printBindings(cmd, bindings)
			return nil
		},
	}
	cmd.Flags().Bool("clear", false, "Unbind the action")
	return cmd
}
