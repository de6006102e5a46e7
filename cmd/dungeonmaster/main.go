// Package main is the terminal client for the narrated adventure engine.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "dungeonmaster",
	Short: "A language-model narrated D&D adventure",
	Long: `dungeonmaster runs a turn-based D&D 5e style adventure for one player and a
party of generated companions, narrated by a remote language model.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/dev.yaml", "path to configuration file")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(savesCmd)
	rootCmd.AddCommand(partyCmd)
	rootCmd.AddCommand(characterCmd)
	rootCmd.AddCommand(modelsCmd)
}
