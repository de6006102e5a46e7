package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/dungeonmaster/internal/narrator"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List narrator models, or choose the DM and companion models",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		return withApp(ctx, func(a *app) error {
			lister, ok := a.narrator.(narrator.ModelLister)
			if !ok {
				return errors.New("the configured provider cannot list models")
			}
			models, err := lister.ListModels(ctx)
			if err != nil {
				return fmt.Errorf("listing models: %w", err)
			}
			current := a.engine.DMModel()
			for _, m := range models {
				marker := " "
				if m == current {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, m)
			}
			return nil
		})
	},
}

var modelsUseCmd = &cobra.Command{
	Use:   "use MODEL",
	Short: "Remember MODEL as the DM model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			if err := a.engine.SetDMModel(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "DM model set to %s\n", args[0])
			return nil
		})
	},
}

var modelsSlotCmd = &cobra.Command{
	Use:   "slot INDEX MODEL",
	Short: "Remember MODEL for one companion slot (0-based)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		slot, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("slot index %q: %w", args[0], err)
		}
		return withApp(cmd.Context(), func(a *app) error {
			if err := a.engine.SetSlotModel(cmd.Context(), slot, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Slot %d model set to %s\n", slot, args[1])
			return nil
		})
	},
}

func init() {
	modelsCmd.AddCommand(modelsUseCmd)
	modelsCmd.AddCommand(modelsSlotCmd)
}
