package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeonmaster/internal/game/adventure"
	"github.com/cory-johannsen/dungeonmaster/internal/game/character"
	"github.com/cory-johannsen/dungeonmaster/internal/game/dice"
	"github.com/cory-johannsen/dungeonmaster/internal/game/party"
)

// DefaultRoll is rolled by /roll without an expression.
const DefaultRoll = "d20"

// ErrQuit is returned by Execute when the player asks to leave.
var ErrQuit = errors.New("quit")

// Game is the adventure surface the console drives.
type Game interface {
	ProcessPlayerAction(ctx context.Context, text string) (string, error)
	ProcessNPCTurn(ctx context.Context, name string) (string, error)
	RollDice(expr string) (dice.RollResult, error)
	AdvanceTurn() (int, error)
	GenerateStoryRecap(ctx context.Context) (string, error)
	Save(ctx context.Context, label string) (adventure.SaveSummary, error)
	Load(ctx context.Context, id string) (string, error)
	ListSaves(ctx context.Context) []adventure.SaveSummary
	Party() *party.Party
	Player() (character.Sheet, bool)
	Session() *adventure.Session
	State() adventure.State
}

var _ Game = (*adventure.Engine)(nil)

// Executor runs parsed console input against a Game and writes the results.
type Executor struct {
	game     Game
	registry *Registry
	out      io.Writer
	logger   *zap.Logger
}

// NewExecutor creates an Executor writing to out.
//
// Precondition: all arguments must be non-nil.
func NewExecutor(game Game, registry *Registry, out io.Writer, logger *zap.Logger) *Executor {
	return &Executor{game: game, registry: registry, out: out, logger: logger}
}

// Execute handles one input line. Game errors are reported to the output
// and returned; ErrQuit signals the end of the session.
func (x *Executor) Execute(ctx context.Context, line string) error {
	p := Parse(line)
	if !p.IsCommand() {
		if p.Action == "" {
			return nil
		}
		return x.narrate(x.game.ProcessPlayerAction(ctx, p.Action))
	}

	cmd, ok := x.registry.Resolve(p.Command)
	if !ok {
		x.printf("Unknown command %s%s. Type /help for a list.\n", Prefix, p.Command)
		return nil
	}
	x.logger.Debug("console command", zap.String("command", cmd.Name), zap.Strings("args", p.Args))

	switch cmd.Handler {
	case HandlerRoll:
		return x.roll(ctx, p.Args)
	case HandlerNPC:
		return x.npc(ctx, p.RawArgs)
	case HandlerTurn:
		turn, err := x.game.AdvanceTurn()
		if err != nil {
			return x.fail(err)
		}
		x.printf("Turn %d begins.\n", turn)
	case HandlerSave:
		sum, err := x.game.Save(ctx, p.RawArgs)
		if err != nil {
			return x.fail(err)
		}
		x.printf("Saved as %s\n", sum.ID)
	case HandlerLoad:
		if p.RawArgs == "" {
			x.printf("Usage: %s\n", cmd.Usage)
			return nil
		}
		return x.narrate(x.game.Load(ctx, p.RawArgs))
	case HandlerSaves:
		x.saves(ctx)
	case HandlerRecap:
		return x.narrate(x.game.GenerateStoryRecap(ctx))
	case HandlerParty:
		x.printf("%s\n", x.game.Party().Roster())
	case HandlerStatus:
		x.status()
	case HandlerHelp:
		x.printf("%s", x.registry.Help())
	case HandlerQuit:
		return ErrQuit
	}
	return nil
}

// roll rolls the given expression and, when the narrator is waiting on a
// check, submits the total as the player's roll.
func (x *Executor) roll(ctx context.Context, args []string) error {
	expr := DefaultRoll
	if len(args) > 0 {
		expr = args[0]
	}
	res, err := x.game.RollDice(expr)
	if err != nil {
		return x.fail(err)
	}
	x.printf("%s\n", res)
	if x.game.State() != adventure.StateAwaitingRoll {
		return nil
	}
	return x.narrate(x.game.ProcessPlayerAction(ctx, fmt.Sprintf("I rolled a %d", res.Total())))
}

// npc runs one NPC's turn, or every NPC's in party order when name is empty.
func (x *Executor) npc(ctx context.Context, name string) error {
	names := []string{name}
	if name == "" {
		names = x.npcNames()
		if len(names) == 0 {
			x.printf("The party has no NPCs.\n")
			return nil
		}
	}
	for _, n := range names {
		action, err := x.game.ProcessNPCTurn(ctx, n)
		if err != nil {
			return x.fail(err)
		}
		x.printf("%s\n", action)
	}
	return nil
}

func (x *Executor) npcNames() []string {
	player, hasPlayer := x.game.Player()
	var out []string
	for _, n := range x.game.Party().Names() {
		if hasPlayer && n == player.Name {
			continue
		}
		out = append(out, n)
	}
	return out
}

func (x *Executor) saves(ctx context.Context) {
	list := x.game.ListSaves(ctx)
	if len(list) == 0 {
		x.printf("No saved adventures.\n")
		return
	}
	for _, s := range list {
		x.printf("%s  %s  %s\n", s.ID, s.Label, s.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
}

func (x *Executor) status() {
	sess := x.game.Session()
	if sess == nil {
		x.printf("No adventure in progress.\n")
		return
	}
	x.printf("Turn %d (%s)", sess.Turn, x.game.State())
	if sess.LastRoll > 0 {
		x.printf(", last roll %d", sess.LastRoll)
	}
	x.printf("\n")
	if p, ok := x.game.Player(); ok {
		x.printf("%s: HP %d/%d, AC %d\n", p.Name, p.HP, p.MaxHP, p.AC)
	}
	var waiting []string
	for _, n := range x.game.Party().Names() {
		if done, tracked := sess.Participation[n]; tracked && !done {
			waiting = append(waiting, n)
		}
	}
	if len(waiting) > 0 {
		x.printf("Yet to act: %s\n", strings.Join(waiting, ", "))
	}
}

func (x *Executor) narrate(text string, err error) error {
	if err != nil {
		return x.fail(err)
	}
	if text != "" {
		x.printf("\n%s\n\n", text)
	}
	return nil
}

func (x *Executor) fail(err error) error {
	x.printf("Error: %v\n", err)
	return err
}

func (x *Executor) printf(format string, args ...any) {
	fmt.Fprintf(x.out, format, args...)
}
