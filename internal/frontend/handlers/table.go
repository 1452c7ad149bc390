package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/wheels/internal/frontend/telnet"
	"github.com/cory-johannsen/wheels/internal/game/command"
	"github.com/cory-johannsen/wheels/internal/game/session"
	"github.com/cory-johannsen/wheels/internal/storage/postgres"
)

// errQuit ends the table loop without an error.
var errQuit = errors.New("quit")

// playTable runs table commands for the seated acct until quit, disconnect,
// or shutdown. The seat is released on return; the persisted table survives.
//
// Postcondition: Returns nil on quit, or the error that ended the session.
func (h *AuthHandler) playTable(ctx context.Context, conn *telnet.Conn, acct postgres.Account, t session.Table, log *zap.Logger) error {
	start := time.Now()
	log = log.With(zap.Int64("account_id", acct.ID), zap.String("username", acct.Username))

	defer func() {
		if err := h.tables.Leave(acct.ID); err != nil {
			log.Warn("releasing seat", zap.Error(err))
		}
		log.Info("player left table", zap.Duration("seated", time.Since(start)))
	}()

	_ = conn.Write([]byte(RenderTable(t)))

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteLine(telnet.Colorize(telnet.Yellow, "The casino is closing. Your table is saved."))
			return ctx.Err()
		default:
		}

		if err := conn.WritePrompt(telnet.Colorize(telnet.BrightYellow, "table> ")); err != nil {
			return fmt.Errorf("writing prompt: %w", err)
		}
		line, err := conn.ReadLine()
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		in := command.Parse(line)
		if in.Command == "" {
			continue
		}
		cmd, ok := h.commands.Resolve(in.Command)
		if !ok {
			_ = conn.WriteLine(telnet.Colorf(telnet.Red, "Unknown command: %s. Type 'help' for available commands.", in.Command))
			continue
		}

		out, err := h.dispatch(ctx, acct.ID, cmd, in)
		if errors.Is(err, errQuit) {
			_ = conn.WriteLine(telnet.Colorize(telnet.Cyan, "Your table is saved. Goodbye!"))
			return nil
		}
		if err != nil {
			out = h.describeError(log, cmd, err)
		}
		if out != "" {
			if err := conn.Write([]byte(out)); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
		}
	}
}

// dispatch runs one resolved command and returns the text to show.
func (h *AuthHandler) dispatch(ctx context.Context, accountID int64, cmd *command.Command, in command.ParseResult) (string, error) {
	switch cmd.Handler {
	case command.HandlerCheat:
		cheat, ok := parseYesNo(in.RawArgs)
		if !ok {
			return telnet.Colorize(telnet.Red, "Usage: cheat yes|no") + "\r\n", nil
		}
		t, err := h.tables.SetCheat(ctx, accountID, cheat)
		if err != nil {
			return "", err
		}
		return RenderTable(t), nil

	case command.HandlerSpin:
		t, err := h.tables.Spin(ctx, accountID)
		if err != nil {
			return "", err
		}
		return RenderTable(t), nil

	case command.HandlerReplace:
		if in.RawArgs == "" {
			return telnet.Colorize(telnet.Red, "Usage: replace <wheel name>") + "\r\n", nil
		}
		t, _, err := h.tables.Replace(ctx, accountID, h.canonicalWheel(in.RawArgs))
		if err != nil {
			return "", err
		}
		return RenderTable(t), nil

	case command.HandlerWin:
		t, credited, err := h.tables.Win(ctx, accountID)
		if err != nil {
			return "", err
		}
		if !credited {
			return telnet.Colorize(telnet.Yellow, "No round in play, so no win was recorded.") + "\r\n" + RenderTable(t), nil
		}
		return telnet.Colorize(telnet.BrightGreen, "Win recorded!") + "\r\n" + RenderTable(t), nil

	case command.HandlerClear:
		t, err := h.tables.Clear(ctx, accountID)
		if err != nil {
			return "", err
		}
		return telnet.Colorize(telnet.Yellow, "Round cleared.") + "\r\n" + RenderTable(t), nil

	case command.HandlerShow:
		t, err := h.tables.Snapshot(accountID)
		if err != nil {
			return "", err
		}
		return RenderTable(t), nil

	case command.HandlerWheels:
		return RenderWheels(h.wheels), nil

	case command.HandlerLeaderboard:
		standings, err := h.board.Leaderboard(ctx, h.cfg.LeaderboardSize)
		if err != nil {
			return "", fmt.Errorf("loading leaderboard: %w", err)
		}
		return RenderLeaderboard(standings), nil

	case command.HandlerHelp:
		return RenderHelp(h.commands), nil

	case command.HandlerQuit:
		return "", errQuit
	}
	return "", fmt.Errorf("no handler for command %q", cmd.Name)
}

// describeError turns a command failure into player-facing text. Expected
// session errors get a hint; anything else is logged.
func (h *AuthHandler) describeError(log *zap.Logger, cmd *command.Command, err error) string {
	var msg string
	switch {
	case errors.Is(err, session.ErrCheatUndeclared):
		msg = "Answer the cheat question first: cheat yes|no"
	case errors.Is(err, session.ErrNoRound):
		msg = "No round in play. Type 'spin' to start one."
	case errors.Is(err, session.ErrWinNotRecorded):
		log.Error("command failed", zap.String("command", cmd.Name), zap.Error(err))
		msg = "The round is over, but your win could not be added to the leaderboard."
	default:
		log.Error("command failed", zap.String("command", cmd.Name), zap.Error(err))
		msg = "An internal error occurred. Please try again."
	}
	return telnet.Colorize(telnet.Red, msg) + "\r\n"
}

// canonicalWheel maps a case-insensitive wheel name to its registered form.
// Unknown names pass through so the engine reports them as invalid.
func (h *AuthHandler) canonicalWheel(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	for _, w := range h.wheels.Wheels() {
		if strings.EqualFold(w.Name, name) {
			return w.Name
		}
	}
	return name
}

func parseYesNo(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y":
		return true, true
	case "no", "n":
		return false, true
	}
	return false, false
}
