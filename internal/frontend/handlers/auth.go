// Package handlers provides Telnet session handling and command processing.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/wheels/internal/frontend/telnet"
	"github.com/cory-johannsen/wheels/internal/game/command"
	"github.com/cory-johannsen/wheels/internal/game/session"
	"github.com/cory-johannsen/wheels/internal/game/wheel"
	"github.com/cory-johannsen/wheels/internal/storage/postgres"
)

// AccountStore defines the account persistence operations required by AuthHandler.
type AccountStore interface {
	Create(ctx context.Context, username, password string) (postgres.Account, error)
	Authenticate(ctx context.Context, username, password string) (postgres.Account, error)
}

// LeaderboardSource returns the top standings by wins.
type LeaderboardSource interface {
	Leaderboard(ctx context.Context, limit int) ([]postgres.Standing, error)
}

// TableService is the seat management used once a player is logged in.
type TableService interface {
	Join(ctx context.Context, accountID int64, username string) (session.Table, error)
	Leave(accountID int64) error
	Snapshot(accountID int64) (session.Table, error)
	SetCheat(ctx context.Context, accountID int64, cheat bool) (session.Table, error)
	Spin(ctx context.Context, accountID int64) (session.Table, error)
	Replace(ctx context.Context, accountID int64, wheelName string) (session.Table, string, error)
	Win(ctx context.Context, accountID int64) (session.Table, bool, error)
	Clear(ctx context.Context, accountID int64) (session.Table, error)
}

const welcomeBanner = `
` + telnet.Bold + telnet.BrightCyan + `
  __      __ _               _
  \ \    / /| |_   ___  ___ | | ___
   \ \/\/ / | ' \ / -_)/ -_)| |(_-<
    \_/\_/  |_||_|\___|\___||_|/__/` + telnet.Reset + `

` + telnet.BrightYellow + `  Spin the wheels. Build the deck. Confess your sins.` + telnet.Reset + `

  Type ` + telnet.Green + `login <username> <password>` + telnet.Reset + ` to take a seat.
  Type ` + telnet.Green + `register <username> <password>` + telnet.Reset + ` to create an account.
  Type ` + telnet.Green + `leaderboard` + telnet.Reset + ` to see who wins the most.
  Type ` + telnet.Green + `quit` + telnet.Reset + ` to disconnect.
`

// Config carries the handler's tunables.
type Config struct {
	// LeaderboardSize is how many standings the leaderboard shows.
	LeaderboardSize int
}

// AuthHandler implements telnet.SessionHandler: it runs the login loop and
// then seats the player at their table.
type AuthHandler struct {
	accounts AccountStore
	board    LeaderboardSource
	tables   TableService
	wheels   *wheel.Registry
	commands *command.Registry
	cfg      Config
	logger   *zap.Logger
}

// NewAuthHandler creates an AuthHandler.
//
// Precondition: accounts, board, tables, wheels, and logger must be non-nil;
// cfg.LeaderboardSize > 0.
// Postcondition: Returns an AuthHandler ready to handle sessions.
func NewAuthHandler(
	accounts AccountStore,
	board LeaderboardSource,
	tables TableService,
	wheels *wheel.Registry,
	cfg Config,
	logger *zap.Logger,
) *AuthHandler {
	if accounts == nil || board == nil || tables == nil || wheels == nil || logger == nil {
		panic("handlers.NewAuthHandler: precondition violated: dependencies must be non-nil")
	}
	if cfg.LeaderboardSize <= 0 {
		panic("handlers.NewAuthHandler: precondition violated: LeaderboardSize must be > 0")
	}
	return &AuthHandler{
		accounts: accounts,
		board:    board,
		tables:   tables,
		wheels:   wheels,
		commands: command.DefaultRegistry(),
		cfg:      cfg,
		logger:   logger,
	}
}

// HandleSession implements telnet.SessionHandler. It shows the welcome banner
// and processes account commands until the player logs in or quits.
//
// Postcondition: Returns nil on clean quit, or an error if the session ended abnormally.
func (h *AuthHandler) HandleSession(ctx context.Context, conn *telnet.Conn) error {
	start := time.Now()
	log := h.logger.With(zap.String("session_id", conn.ID().String()))

	if err := conn.Write([]byte(welcomeBanner)); err != nil {
		return fmt.Errorf("sending welcome: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteLine(telnet.Colorize(telnet.Yellow, "The casino is closing. Goodbye!"))
			return ctx.Err()
		default:
		}

		if err := conn.WritePrompt(telnet.Colorize(telnet.White, "> ")); err != nil {
			return fmt.Errorf("writing prompt: %w", err)
		}
		line, err := conn.ReadLine()
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		in := command.Parse(line)
		switch in.Command {
		case "":
			continue

		case "quit", "exit":
			_ = conn.WriteLine(telnet.Colorize(telnet.Cyan, "Goodbye!"))
			log.Info("client quit", zap.Duration("session_duration", time.Since(start)))
			return nil

		case "login":
			acct, t, ok := h.handleLogin(ctx, conn, in.Args)
			if !ok {
				continue
			}
			log.Info("player logged in",
				zap.String("username", acct.Username),
				zap.Int64("account_id", acct.ID),
				zap.Duration("login_time", time.Since(start)),
			)
			return h.playTable(ctx, conn, acct, t, log)

		case "register":
			h.handleRegister(ctx, conn, in.Args)

		case "leaderboard", "top":
			h.showLeaderboard(ctx, conn)

		case "help", "?":
			h.showHelp(conn)

		default:
			_ = conn.WriteLine(telnet.Colorf(telnet.Red, "Unknown command: %s. Type 'help' for available commands.", in.Command))
		}
	}
}

// handleLogin authenticates and seats a player; failures are reported to
// the client.
//
// Postcondition: The bool is true only when the account was authenticated
// and seated; the caller then owns the seat and must Leave it.
func (h *AuthHandler) handleLogin(ctx context.Context, conn *telnet.Conn, args []string) (postgres.Account, session.Table, bool) {
	if len(args) < 2 {
		_ = conn.WriteLine(telnet.Colorize(telnet.Red, "Usage: login <username> <password>"))
		return postgres.Account{}, session.Table{}, false
	}

	start := time.Now()
	acct, err := h.accounts.Authenticate(ctx, args[0], args[1])
	elapsed := time.Since(start)
	if err != nil {
		switch {
		case errors.Is(err, postgres.ErrAccountNotFound):
			_ = conn.WriteLine(telnet.Colorize(telnet.Red, "Account not found. Use 'register' to create one."))
		case errors.Is(err, postgres.ErrInvalidCredentials):
			_ = conn.WriteLine(telnet.Colorize(telnet.Red, "Invalid password."))
		default:
			h.logger.Error("authentication error", zap.Error(err), zap.Duration("elapsed", elapsed))
			_ = conn.WriteLine(telnet.Colorize(telnet.Red, "An internal error occurred. Please try again."))
		}
		return postgres.Account{}, session.Table{}, false
	}

	t, err := h.tables.Join(ctx, acct.ID, acct.Username)
	if err != nil {
		if errors.Is(err, session.ErrAlreadySeated) {
			_ = conn.WriteLine(telnet.Colorize(telnet.Red, "That account is already seated at another table."))
			return postgres.Account{}, session.Table{}, false
		}
		h.logger.Error("seating player", zap.Int64("account_id", acct.ID), zap.Error(err))
		_ = conn.WriteLine(telnet.Colorize(telnet.Red, "Your table could not be prepared. Please try again later."))
		return postgres.Account{}, session.Table{}, false
	}

	_ = conn.WriteLine(telnet.Colorf(telnet.BrightGreen,
		"Welcome back, %s! Wins so far: %d", acct.Username, acct.Wins,
	))
	return acct, t, true
}

func (h *AuthHandler) handleRegister(ctx context.Context, conn *telnet.Conn, args []string) {
	if len(args) < 2 {
		_ = conn.WriteLine(telnet.Colorize(telnet.Red, "Usage: register <username> <password>"))
		return
	}
	username, password := args[0], args[1]
	if len(username) < 3 || len(username) > 32 {
		_ = conn.WriteLine(telnet.Colorize(telnet.Red, "Username must be 3-32 characters."))
		return
	}
	if len(password) < 6 {
		_ = conn.WriteLine(telnet.Colorize(telnet.Red, "Password must be at least 6 characters."))
		return
	}

	start := time.Now()
	acct, err := h.accounts.Create(ctx, username, password)
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(err, postgres.ErrAccountExists) {
			_ = conn.WriteLine(telnet.Colorize(telnet.Red, "That username is already taken."))
			return
		}
		h.logger.Error("registration error", zap.Error(err), zap.Duration("elapsed", elapsed))
		_ = conn.WriteLine(telnet.Colorize(telnet.Red, "An internal error occurred. Please try again."))
		return
	}

	h.logger.Info("account registered", zap.String("username", acct.Username), zap.Int64("account_id", acct.ID))
	_ = conn.WriteLine(telnet.Colorf(telnet.BrightGreen,
		"Account created: %s. You may now 'login'.", acct.Username,
	))
}

func (h *AuthHandler) showLeaderboard(ctx context.Context, conn *telnet.Conn) {
	standings, err := h.board.Leaderboard(ctx, h.cfg.LeaderboardSize)
	if err != nil {
		h.logger.Error("loading leaderboard", zap.Error(err))
		_ = conn.WriteLine(telnet.Colorize(telnet.Red, "The leaderboard is unavailable right now."))
		return
	}
	_ = conn.Write([]byte(RenderLeaderboard(standings)))
}

func (h *AuthHandler) showHelp(conn *telnet.Conn) {
	help := telnet.Colorize(telnet.White, "Available commands:") + "\r\n" +
		"  " + telnet.PadRight(telnet.Colorize(telnet.Green, "login <username> <password>"), 32) + "Take a seat at your table\r\n" +
		"  " + telnet.PadRight(telnet.Colorize(telnet.Green, "register <username> <password>"), 32) + "Create a new account\r\n" +
		"  " + telnet.PadRight(telnet.Colorize(telnet.Green, "leaderboard"), 32) + "Show the players with the most wins\r\n" +
		"  " + telnet.PadRight(telnet.Colorize(telnet.Green, "help"), 32) + "Show this help\r\n" +
		"  " + telnet.PadRight(telnet.Colorize(telnet.Green, "quit"), 32) + "Disconnect\r\n"
	_ = conn.Write([]byte(help))
}
