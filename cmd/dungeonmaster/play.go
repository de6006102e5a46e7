package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeonmaster/internal/game/adventure"
	"github.com/cory-johannsen/dungeonmaster/internal/game/command"
)

var (
	playPlayer string
	playParty  string
	playLoad   string
	playModel  string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Start or resume an adventure",
	Long: `Start a new adventure with a generated or saved party, or resume a saved game.
Type actions in plain text; lines starting with / are commands (/help lists them).`,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&playPlayer, "player", "", "saved character to play")
	playCmd.Flags().StringVar(&playParty, "party", "", "saved party to adventure with")
	playCmd.Flags().StringVar(&playLoad, "load", "", "save id to resume")
	playCmd.Flags().StringVar(&playModel, "model", "", "DM model to narrate with (remembered)")
}

func runPlay(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return withApp(ctx, func(a *app) error {
		out := cmd.OutOrStdout()
		if playModel != "" {
			if err := a.engine.SetDMModel(ctx, playModel); err != nil {
				return fmt.Errorf("selecting model: %w", err)
			}
		}

		opening, err := openAdventure(ctx, a.engine)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\n\n", a.engine.Party().Roster())
		fmt.Fprintf(out, "%s\n", opening)

		exec := command.NewExecutor(a.engine, command.DefaultRegistry(), out, a.logger)
		return repl(ctx, exec, cmd.InOrStdin(), out, a.logger)
	})
}

// openAdventure resumes the requested save or assembles a party and starts
// a new adventure, returning the opening narration.
func openAdventure(ctx context.Context, e *adventure.Engine) (string, error) {
	if playLoad != "" {
		recap, err := e.Load(ctx, playLoad)
		if err != nil {
			return "", fmt.Errorf("loading save %q: %w", playLoad, err)
		}
		if recap == "" {
			recap = e.Session().LastResponse()
		}
		return recap, nil
	}

	if playParty != "" {
		if err := e.LoadParty(ctx, playParty); err != nil {
			return "", fmt.Errorf("loading party %q: %w", playParty, err)
		}
		if playPlayer != "" {
			s, err := e.LoadCharacter(ctx, playPlayer)
			if err != nil {
				return "", fmt.Errorf("loading character %q: %w", playPlayer, err)
			}
			if err := e.SetPlayer(s); err != nil {
				return "", err
			}
		}
	} else if playPlayer != "" {
		s, err := e.LoadCharacter(ctx, playPlayer)
		if err != nil {
			return "", fmt.Errorf("loading character %q: %w", playPlayer, err)
		}
		if _, err := e.GeneratePartyWithPlayer(ctx, s); err != nil {
			return "", fmt.Errorf("generating party: %w", err)
		}
	} else if _, err := e.GenerateParty(ctx); err != nil {
		return "", fmt.Errorf("generating party: %w", err)
	}

	intro, err := e.StartAdventure(ctx)
	if err != nil {
		return "", err
	}
	return intro, nil
}

// repl feeds input lines to exec until the player quits, input ends, or ctx
// is cancelled. Command errors are already shown to the player and do not
// end the session.
func repl(ctx context.Context, exec *command.Executor, in io.Reader, out io.Writer, logger *zap.Logger) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := sc.Err(); err != nil {
			logger.Warn("reading input", zap.Error(err))
		}
	}()

	for {
		fmt.Fprint(out, "> ")
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			err := exec.Execute(ctx, line)
			if errors.Is(err, command.ErrQuit) {
				fmt.Fprintln(out, "Farewell, adventurer.")
				return nil
			}
			if err != nil {
				logger.Debug("command failed", zap.String("input", line), zap.Error(err))
			}
		}
	}
}
