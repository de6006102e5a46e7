// Package command provides the console command registry, the line parser,
// and an executor that drives an adventure from typed input.
package command

// Categories for organizing commands.
const (
	CategoryPlay    = "play"
	CategorySession = "session"
	CategoryParty   = "party"
	CategorySystem  = "system"
)

// Handler identifiers mapping commands to executor actions.
const (
	HandlerRoll   = "roll"
	HandlerSave   = "save"
	HandlerLoad   = "load"
	HandlerSaves  = "saves"
	HandlerParty  = "party"
	HandlerStatus = "status"
	HandlerRecap  = "recap"
	HandlerNPC    = "npc"
	HandlerTurn   = "turn"
	HandlerHelp   = "help"
	HandlerQuit   = "quit"
)

// Command defines a console command.
type Command struct {
	// Name is the canonical command name, without the leading slash.
	Name string
	// Aliases are alternate names for this command.
	Aliases []string
	// Usage shows the argument form, e.g. "/roll [expr]".
	Usage string
	// Help is the short help text displayed to players.
	Help string
	// Category groups the command.
	Category string
	// Handler maps to the executor action.
	Handler string
}

// BuiltinCommands returns all built-in console commands.
func BuiltinCommands() []Command {
	return []Command{
		{Name: "roll", Aliases: []string{"r"}, Usage: "/roll [expr]", Help: "Roll dice (default d20; adv and dis roll two d20s); submits the result when a check is pending", Category: CategoryPlay, Handler: HandlerRoll},
		{Name: "npc", Usage: "/npc [name]", Help: "Let one NPC, or every NPC, take a turn", Category: CategoryPlay, Handler: HandlerNPC},
		{Name: "turn", Aliases: []string{"next"}, Usage: "/turn", Help: "Advance to the next turn", Category: CategoryPlay, Handler: HandlerTurn},

		{Name: "save", Usage: "/save [label]", Help: "Save the adventure", Category: CategorySession, Handler: HandlerSave},
		{Name: "load", Usage: "/load <id>", Help: "Load a saved adventure", Category: CategorySession, Handler: HandlerLoad},
		{Name: "saves", Aliases: []string{"list"}, Usage: "/saves", Help: "List saved adventures", Category: CategorySession, Handler: HandlerSaves},
		{Name: "recap", Usage: "/recap", Help: "Recap the story so far", Category: CategorySession, Handler: HandlerRecap},

		{Name: "party", Aliases: []string{"p"}, Usage: "/party", Help: "Show the party", Category: CategoryParty, Handler: HandlerParty},
		{Name: "status", Aliases: []string{"st"}, Usage: "/status", Help: "Show turn, roll, and hit points", Category: CategoryParty, Handler: HandlerStatus},

		{Name: "help", Aliases: []string{"?"}, Usage: "/help", Help: "Show available commands", Category: CategorySystem, Handler: HandlerHelp},
		{Name: "quit", Aliases: []string{"exit", "q"}, Usage: "/quit", Help: "Leave the game", Category: CategorySystem, Handler: HandlerQuit},
	}
}
