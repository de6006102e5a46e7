package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	partySaveAs string
	partyPlayer string
)

var partyCmd = &cobra.Command{
	Use:   "party",
	Short: "Generate and manage saved parties",
}

var partyGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a party of companions with the configured models",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		return withApp(ctx, func(a *app) error {
			if partyPlayer != "" {
				s, err := a.engine.LoadCharacter(ctx, partyPlayer)
				if err != nil {
					return fmt.Errorf("loading character %q: %w", partyPlayer, err)
				}
				if _, err := a.engine.GeneratePartyWithPlayer(ctx, s); err != nil {
					return err
				}
			} else if _, err := a.engine.GenerateParty(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.engine.Party().Roster())
			if partySaveAs == "" {
				return nil
			}
			if err := a.engine.SaveParty(ctx, partySaveAs); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Party saved as %q.\n", partySaveAs)
			return nil
		})
	},
}

var partyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved parties",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			names := a.engine.ListParties(cmd.Context())
			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No saved parties.")
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		})
	},
}

var partyShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Print a saved party's roster",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			if err := a.engine.LoadParty(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.engine.Party().Roster())
			return nil
		})
	},
}

func init() {
	partyGenerateCmd.Flags().StringVar(&partySaveAs, "save", "", "store the generated party under this name")
	partyGenerateCmd.Flags().StringVar(&partyPlayer, "player", "", "saved character to lead the party")

	partyCmd.AddCommand(partyGenerateCmd)
	partyCmd.AddCommand(partyListCmd)
	partyCmd.AddCommand(partyShowCmd)
}
