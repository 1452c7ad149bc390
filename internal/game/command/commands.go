// Package command provides the command registry, parser, and built-in
// command definitions for the wheel tables.
package command

// Categories for organizing commands in help output.
const (
	CategoryTable   = "table"
	CategoryAccount = "account"
	CategorySystem  = "system"
)

// Handler identifiers dispatched by the Telnet front end.
const (
	HandlerCheat       = "cheat"
	HandlerSpin        = "spin"
	HandlerReplace     = "replace"
	HandlerWin         = "win"
	HandlerClear       = "clear"
	HandlerShow        = "show"
	HandlerWheels      = "wheels"
	HandlerLeaderboard = "leaderboard"
	HandlerHelp        = "help"
	HandlerQuit        = "quit"
)

// Command defines a player-invocable command.
type Command struct {
	// Name is the canonical command name.
	Name string
	// Aliases are alternate names for this command.
	Aliases []string
	// Usage shows the argument form, e.g. "replace <wheel name>".
	Usage string
	// Help is the short help text displayed to players.
	Help string
	// Category groups the command for help output.
	Category string
	// Handler names the front end operation that runs the command.
	Handler string
}

// BuiltinCommands returns the commands available at a seated table.
func BuiltinCommands() []Command {
	return []Command{
		{Name: "cheat", Usage: "cheat yes|no", Help: "Declare whether you cheated this round", Category: CategoryTable, Handler: HandlerCheat},
		{Name: "spin", Aliases: []string{"roll"}, Usage: "spin", Help: "Spin every wheel for a new round", Category: CategoryTable, Handler: HandlerSpin},
		{Name: "replace", Aliases: []string{"re"}, Usage: "replace <wheel name>", Help: "Re-roll one wheel with the Replacement wheel", Category: CategoryTable, Handler: HandlerReplace},
		{Name: "win", Usage: "win", Help: "Report a win; your next spin adds the Winner's Wheel", Category: CategoryTable, Handler: HandlerWin},
		{Name: "clear", Aliases: []string{"reset"}, Usage: "clear", Help: "Abandon the round without a win", Category: CategoryTable, Handler: HandlerClear},
		{Name: "show", Aliases: []string{"look", "l"}, Usage: "show", Help: "Show the round in play", Category: CategoryTable, Handler: HandlerShow},
		{Name: "wheels", Usage: "wheels", Help: "List the wheels and their outcome counts", Category: CategoryTable, Handler: HandlerWheels},
		{Name: "leaderboard", Aliases: []string{"top"}, Usage: "leaderboard", Help: "Show the players with the most wins", Category: CategoryAccount, Handler: HandlerLeaderboard},
		{Name: "help", Aliases: []string{"?"}, Usage: "help", Help: "Show this help", Category: CategorySystem, Handler: HandlerHelp},
		{Name: "quit", Aliases: []string{"exit"}, Usage: "quit", Help: "Leave the table and disconnect", Category: CategorySystem, Handler: HandlerQuit},
	}
}
