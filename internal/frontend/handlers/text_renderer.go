package handlers

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/wheels/internal/frontend/telnet"
	"github.com/cory-johannsen/wheels/internal/game/command"
	"github.com/cory-johannsen/wheels/internal/game/round"
	"github.com/cory-johannsen/wheels/internal/game/session"
	"github.com/cory-johannsen/wheels/internal/game/wheel"
	"github.com/cory-johannsen/wheels/internal/storage/postgres"
)

// RenderRound formats a round's results in draw order. Multi-label entries
// are joined with commas and replaced wheels are marked.
func RenderRound(st round.State) string {
	width := 0
	for _, r := range st.Results {
		width = max(width, telnet.VisibleWidth(r.Wheel))
	}

	var b strings.Builder
	b.WriteString("\r\n")
	b.WriteString(telnet.Colorize(telnet.Bold+telnet.BrightYellow, "This round:"))
	b.WriteString("\r\n")
	for _, r := range st.Results {
		name := telnet.PadRight(telnet.Colorize(telnet.BrightCyan, r.Wheel), width)
		value := strings.Join(r.Labels, ", ")
		if st.WasReplaced(r.Wheel) {
			value += " " + telnet.Colorize(telnet.Dim, "(replaced)")
		}
		fmt.Fprintf(&b, "  %s  %s\r\n", name, value)
	}

	switch {
	case !st.ReplacementAvailable:
		b.WriteString(telnet.Colorize(telnet.Red, "Replacement: none for cheaters"))
	case st.ReplacementUsed:
		b.WriteString(telnet.Colorize(telnet.Dim, "Replacement: used"))
	default:
		b.WriteString(telnet.Colorize(telnet.Green, "Replacement: available (replace <wheel name>)"))
	}
	b.WriteString("\r\n")
	for _, n := range st.Notes {
		b.WriteString(telnet.Colorize(telnet.Magenta, n))
		b.WriteString("\r\n")
	}
	return b.String()
}

// RenderTable formats the player's seat: the cheat declaration, the bonus
// flag, and the round in play with its last replacement message.
func RenderTable(t session.Table) string {
	var b strings.Builder
	b.WriteString("\r\n")
	switch {
	case !t.CheatDeclared:
		b.WriteString(telnet.Colorize(telnet.Yellow, "Did you cheat last round? Answer with: cheat yes|no"))
	case t.DidCheat:
		b.WriteString(telnet.Colorize(telnet.Red, "Declared: cheated"))
	default:
		b.WriteString(telnet.Colorize(telnet.Green, "Declared: played clean"))
	}
	b.WriteString("\r\n")
	if t.WonLastRound {
		b.WriteString(telnet.Colorize(telnet.BrightGreen, "You won last round: your next spin includes the Winner's Wheel."))
		b.WriteString("\r\n")
	}
	if !t.HasRound() {
		if t.CheatDeclared {
			b.WriteString("No round in play. Type " + telnet.Colorize(telnet.Green, "spin") + " to start one.\r\n")
		}
		return b.String()
	}
	b.WriteString(RenderRound(*t.Round))
	if t.LastMessage != "" {
		b.WriteString(RenderMessage(t.LastMessage))
		b.WriteString("\r\n")
	}
	return b.String()
}

// RenderMessage formats a replacement outcome message; ineligible
// requests are shown in red.
func RenderMessage(msg string) string {
	switch msg {
	case round.MsgCheatersBarred, round.MsgReplacementSpent, round.MsgInvalidWheel:
		return telnet.Colorize(telnet.Red, msg)
	default:
		return telnet.Colorize(telnet.BrightGreen, msg)
	}
}

// RenderLeaderboard formats the standings, or a placeholder when empty.
func RenderLeaderboard(standings []postgres.Standing) string {
	var b strings.Builder
	b.WriteString("\r\n")
	b.WriteString(telnet.Colorize(telnet.Bold+telnet.BrightYellow, "Leaderboard"))
	b.WriteString("\r\n")
	if len(standings) == 0 {
		b.WriteString(telnet.Colorize(telnet.Dim, "  No players yet."))
		b.WriteString("\r\n")
		return b.String()
	}
	width := len("Player")
	for _, s := range standings {
		width = max(width, len(s.Username))
	}
	fmt.Fprintf(&b, "  %s  %-*s  %s\r\n", telnet.Colorize(telnet.Underline, "#  "), width, "Player", "Wins")
	for _, s := range standings {
		fmt.Fprintf(&b, "  %-3d  %-*s  %d\r\n", s.Rank, width, s.Username, s.Wins)
	}
	return b.String()
}

// RenderWheels lists the registry's wheels with their outcome counts and
// the condition under which each is spun.
func RenderWheels(reg *wheel.Registry) string {
	var b strings.Builder
	b.WriteString("\r\n")
	b.WriteString(telnet.Colorize(telnet.Bold+telnet.BrightYellow, "Wheels:"))
	b.WriteString("\r\n")
	width := 0
	for _, w := range reg.Wheels() {
		width = max(width, telnet.VisibleWidth(w.Name))
	}
	for _, w := range reg.Wheels() {
		fmt.Fprintf(&b, "  %s  %3d outcomes  %s\r\n",
			telnet.PadRight(telnet.Colorize(telnet.BrightCyan, w.Name), width),
			len(w.Outcomes),
			telnet.Colorize(telnet.Dim, roleNote(w.Role)),
		)
	}
	return b.String()
}

func roleNote(r wheel.Role) string {
	switch r {
	case wheel.RoleTribeType:
		return "two tribes"
	case wheel.RoleManaBase:
		return "sets the color count"
	case wheel.RoleColorSelection:
		return "one color per mana"
	case wheel.RoleFirstCondition:
		return "two conditions for cheaters"
	case wheel.RoleCheaterOnly:
		return "cheaters only"
	case wheel.RoleWinnerOnly:
		return "after a win"
	case wheel.RoleReplacement:
		return "one re-roll per round"
	default:
		return ""
	}
}

// RenderHelp lists commands grouped by category, in registration order.
func RenderHelp(reg *command.Registry) string {
	cats := reg.CommandsByCategory()
	width := 0
	for _, c := range reg.Commands() {
		width = max(width, len(c.Usage))
	}

	var b strings.Builder
	b.WriteString(telnet.Colorize(telnet.Bold, "Available commands:"))
	b.WriteString("\r\n")
	for _, cat := range []string{command.CategoryTable, command.CategoryAccount, command.CategorySystem} {
		for _, c := range cats[cat] {
			fmt.Fprintf(&b, "  %s  %s\r\n", telnet.PadRight(telnet.Colorize(telnet.Green, c.Usage), width), c.Help)
		}
	}
	return b.String()
}
