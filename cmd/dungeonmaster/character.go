package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/dungeonmaster/internal/game/character"
	"github.com/cory-johannsen/dungeonmaster/internal/game/portrait"
)

var (
	newSheet      character.Sheet
	newEquipment  []string
	rollAbilities bool
)

var characterCmd = &cobra.Command{
	Use:   "character",
	Short: "Create and inspect saved characters",
}

var characterCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a player character and save it",
	Long: fmt.Sprintf(`Create a player character from flags and save it for later adventures.

Races: %s
Classes: %s
Backgrounds: %s
Alignments: %s`,
		strings.Join(character.Races, ", "),
		strings.Join(character.Classes, ", "),
		strings.Join(character.Backgrounds, ", "),
		strings.Join(character.Alignments, ", ")),
	RunE: runCharacterCreate,
}

func runCharacterCreate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	return withApp(ctx, func(a *app) error {
		s := newSheet
		s.Equipment = character.Equipment(newEquipment)
		s.HP = s.MaxHP
		if rollAbilities {
			for _, k := range character.AbilityKeys {
				res, err := a.engine.RollDice("4d6kh3")
				if err != nil {
					return err
				}
				s.Abilities.Set(k, res.Total())
			}
		}
		s.Normalize()
		if err := character.ValidateOptions(s); err != nil {
			return err
		}
		if err := a.engine.SaveCharacter(ctx, s); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), character.Encode(s))
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s.\n", s.Name)
		return nil
	})
}

var characterListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved characters",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			names := a.engine.ListCharacters(cmd.Context())
			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No saved characters.")
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		})
	},
}

var characterShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Print a saved character sheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			s, err := a.engine.LoadCharacter(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), character.Encode(s))
			return nil
		})
	},
}

var characterGenerateCmd = &cobra.Command{
	Use:   "generate [MODEL]",
	Short: "Ask the narrator to invent a character sheet",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		model := ""
		if len(args) == 1 {
			model = args[0]
		}
		return withApp(cmd.Context(), func(a *app) error {
			text, err := a.engine.GenerateCharacter(cmd.Context(), model)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		})
	},
}

var characterPortraitCmd = &cobra.Command{
	Use:   "portrait NAME",
	Short: "Write an image prompt for a saved character's portrait",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withApp(ctx, func(a *app) error {
			s, err := a.engine.LoadCharacter(ctx, args[0])
			if err != nil {
				return err
			}
			pr := &portrait.Prompter{Narrator: a.narrator, Model: a.engine.DMModel(), Logger: a.logger}
			fmt.Fprintln(cmd.OutOrStdout(), pr.PortraitPrompt(ctx, portrait.ProfileFromSheet(s)))
			fmt.Fprintf(cmd.OutOrStdout(), "(file name: %s)\n", portrait.PortraitFilename(s))
			return nil
		})
	},
}

func init() {
	f := characterCreateCmd.Flags()
	f.StringVar(&newSheet.Name, "name", "", "character name (required)")
	f.StringVar(&newSheet.Race, "race", "Human", "race")
	f.StringVar(&newSheet.Class, "class", "Fighter", "class")
	f.StringVar(&newSheet.Background, "background", character.DefaultBackground, "background")
	f.StringVar(&newSheet.Alignment, "alignment", character.DefaultAlignment, "alignment")
	f.IntVar(&newSheet.Level, "level", 1, "level")
	f.IntVar(&newSheet.MaxHP, "hp", character.DefaultHP, "maximum hit points")
	f.IntVar(&newSheet.AC, "ac", character.DefaultAC, "armor class")
	f.StringVar(&newSheet.Personality, "personality", "", "personality traits")
	f.StringVar(&newSheet.Backstory, "backstory", "", "backstory")
	f.StringSliceVar(&newEquipment, "equipment", nil, "carried items, comma separated")
	f.IntVar(&newSheet.Abilities.STR, "str", character.DefaultAbility, "strength")
	f.IntVar(&newSheet.Abilities.DEX, "dex", character.DefaultAbility, "dexterity")
	f.IntVar(&newSheet.Abilities.CON, "con", character.DefaultAbility, "constitution")
	f.IntVar(&newSheet.Abilities.INT, "int", character.DefaultAbility, "intelligence")
	f.IntVar(&newSheet.Abilities.WIS, "wis", character.DefaultAbility, "wisdom")
	f.IntVar(&newSheet.Abilities.CHA, "cha", character.DefaultAbility, "charisma")
	f.BoolVar(&rollAbilities, "roll", false, "roll 4d6, keep the highest 3, for each ability instead of using the flags")
	_ = characterCreateCmd.MarkFlagRequired("name")

	characterCmd.AddCommand(characterCreateCmd)
	characterCmd.AddCommand(characterListCmd)
	characterCmd.AddCommand(characterShowCmd)
	characterCmd.AddCommand(characterGenerateCmd)
	characterCmd.AddCommand(characterPortraitCmd)
}
