package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var savesCmd = &cobra.Command{
	Use:   "saves",
	Short: "List saved games, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			saves := a.engine.ListSaves(cmd.Context())
			if len(saves) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No saved games.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tLABEL\tSAVED")
			for _, s := range saves {
				fmt.Fprintf(w, "%s\t%s\t%s\n", s.ID, s.Label, s.CreatedAt.Local().Format(time.DateTime))
			}
			return w.Flush()
		})
	},
}
