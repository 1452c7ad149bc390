package handlers

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/wheels/internal/config"
	"github.com/cory-johannsen/wheels/internal/frontend/telnet"
	"github.com/cory-johannsen/wheels/internal/game/dice"
	"github.com/cory-johannsen/wheels/internal/game/round"
	"github.com/cory-johannsen/wheels/internal/game/session"
	"github.com/cory-johannsen/wheels/internal/game/wheel"
	"github.com/cory-johannsen/wheels/internal/storage/postgres"
	"github.com/cory-johannsen/wheels/internal/testutil"
)

const tablePrompt = "table> "

// mockAccountStore implements AccountStore, LeaderboardSource, and
// session.WinRecorder in memory.
type mockAccountStore struct {
	mu        sync.Mutex
	accounts  map[string]postgres.Account
	passwords map[string]string
	winErr    error
}

func newMockAccountStore() *mockAccountStore {
	return &mockAccountStore{
		accounts:  make(map[string]postgres.Account),
		passwords: make(map[string]string),
	}
}

func (m *mockAccountStore) add(username, password string) postgres.Account {
	acct, _ := m.Create(context.Background(), username, password)
	return acct
}

func (m *mockAccountStore) Create(_ context.Context, username, password string) (postgres.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.accounts[username]; exists {
		return postgres.Account{}, postgres.ErrAccountExists
	}
	acct := postgres.Account{ID: int64(len(m.accounts) + 1), Username: username, CreatedAt: time.Now()}
	m.accounts[username] = acct
	m.passwords[username] = password
	return acct, nil
}

func (m *mockAccountStore) Authenticate(_ context.Context, username, password string) (postgres.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acct, exists := m.accounts[username]
	if !exists {
		return postgres.Account{}, postgres.ErrAccountNotFound
	}
	if m.passwords[username] != password {
		return postgres.Account{}, postgres.ErrInvalidCredentials
	}
	return acct, nil
}

func (m *mockAccountStore) RecordWin(_ context.Context, accountID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.winErr != nil {
		return m.winErr
	}
	for name, acct := range m.accounts {
		if acct.ID == accountID {
			acct.Wins++
			m.accounts[name] = acct
			return nil
		}
	}
	return postgres.ErrAccountNotFound
}

func (m *mockAccountStore) Leaderboard(_ context.Context, limit int) ([]postgres.Standing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []postgres.Standing
	for _, acct := range m.accounts {
		out = append(out, postgres.Standing{Username: acct.Username, Wins: acct.Wins})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		return out[i].Username < out[j].Username
	})
	for i := range out {
		out[i].Rank = i + 1
		if i > 0 && out[i].Wins == out[i-1].Wins {
			out[i].Rank = out[i-1].Rank
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockAccountStore) wins(username string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[username].Wins
}

func newTestHandler(t *testing.T, store *mockAccountStore) *AuthHandler {
	t.Helper()
	logger := zaptest.NewLogger(t)
	reg := wheel.DefaultRegistry()
	engine := round.NewEngine(reg, dice.NewPicker(dice.NewSeededSource(7)), logger)
	mgr := session.NewManager(engine, nil, store, logger)
	return NewAuthHandler(store, store, mgr, reg, Config{LeaderboardSize: 10}, logger)
}

// testServer starts a Telnet acceptor for handler on a random port and
// returns its address. The acceptor is stopped on test cleanup.
func testServer(t *testing.T, handler *AuthHandler) string {
	t.Helper()
	acc := telnet.NewAcceptor(config.TelnetConfig{
		Host:         "127.0.0.1",
		Port:         0,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}, handler, zaptest.NewLogger(t))
	go func() { _ = acc.ListenAndServe() }()
	require.Eventually(t, func() bool {
		return acc.IsRunning() && acc.Addr() != ""
	}, 2*time.Second, 5*time.Millisecond)
	t.Cleanup(acc.Stop)
	return acc.Addr()
}

// connect dials the server and reads through the welcome banner. The banner
// contains "> " inside <username> tags, so the last banner line is awaited.
func connect(t *testing.T, handler *AuthHandler) *testutil.TelnetClient {
	t.Helper()
	c := testutil.NewTelnetClient(t, testServer(t, handler))
	c.ReadUntil("to disconnect.", 3*time.Second)
	return c
}

func login(t *testing.T, c *testutil.TelnetClient, username, password string) {
	t.Helper()
	c.Send("login " + username + " " + password)
	c.ReadUntil("Welcome back", 2*time.Second)
}

func TestWelcomeBannerContainsKeyElements(t *testing.T) {
	stripped := telnet.StripANSI(welcomeBanner)
	assert.Contains(t, stripped, "Spin the wheels")
	assert.Contains(t, stripped, "login")
	assert.Contains(t, stripped, "register")
	assert.Contains(t, stripped, "leaderboard")
	assert.Contains(t, stripped, "quit")
}

func TestNewAuthHandler_Preconditions(t *testing.T) {
	store := newMockAccountStore()
	assert.Panics(t, func() {
		NewAuthHandler(store, store, nil, wheel.DefaultRegistry(), Config{LeaderboardSize: 10}, zaptest.NewLogger(t))
	})
	h := newTestHandler(t, store)
	assert.Panics(t, func() {
		NewAuthHandler(store, store, h.tables, h.wheels, Config{}, zaptest.NewLogger(t))
	})
}

func TestHandleSession_Quit(t *testing.T) {
	c := connect(t, newTestHandler(t, newMockAccountStore()))
	c.Send("quit")
	c.ReadUntil("Goodbye!", 2*time.Second)
}

func TestHandleSession_Exit(t *testing.T) {
	c := connect(t, newTestHandler(t, newMockAccountStore()))
	c.Send("EXIT")
	c.ReadUntil("Goodbye!", 2*time.Second)
}

func TestHandleSession_Help(t *testing.T) {
	c := connect(t, newTestHandler(t, newMockAccountStore()))
	c.Send("help")
	out := c.ReadUntil("Disconnect", 2*time.Second)
	assert.Contains(t, out, "login <username> <password>")
	assert.Contains(t, out, "register <username> <password>")
	assert.Contains(t, out, "leaderboard")
}

func TestHandleSession_UnknownCommand(t *testing.T) {
	c := connect(t, newTestHandler(t, newMockAccountStore()))
	c.Send("foobar")
	out := c.ReadUntil("available commands", 2*time.Second)
	assert.Contains(t, out, "foobar")
}

func TestHandleSession_Register(t *testing.T) {
	store := newMockAccountStore()
	c := connect(t, newTestHandler(t, store))
	c.Send("register testuser password123")
	out := c.ReadUntil("You may now", 2*time.Second)
	assert.Contains(t, out, "testuser")

	_, err := store.Authenticate(context.Background(), "testuser", "password123")
	assert.NoError(t, err)
}

func TestHandleSession_RegisterRejections(t *testing.T) {
	store := newMockAccountStore()
	store.add("taken", "password123")
	c := connect(t, newTestHandler(t, store))

	for _, tc := range []struct{ line, want string }{
		{"register taken password123", "already taken"},
		{"register ab password123", "3-32 characters"},
		{"register testuser abc", "at least 6"},
		{"register", "Usage:"},
	} {
		c.Send(tc.line)
		c.ReadUntil(tc.want, 2*time.Second)
	}
}

func TestHandleSession_LoginRejections(t *testing.T) {
	store := newMockAccountStore()
	store.add("testuser", "correctpass")
	c := connect(t, newTestHandler(t, store))

	for _, tc := range []struct{ line, want string }{
		{"login nobody secret123", "Account not found"},
		{"login testuser wrongpass", "Invalid password"},
		{"login", "Usage:"},
	} {
		c.Send(tc.line)
		c.ReadUntil(tc.want, 2*time.Second)
	}
}

func TestHandleSession_LeaderboardBeforeLogin(t *testing.T) {
	store := newMockAccountStore()
	c := connect(t, newTestHandler(t, store))
	c.Send("leaderboard")
	c.ReadUntil("No players yet.", 2*time.Second)

	store.add("alice", "password1")
	c.Send("top")
	out := c.ReadUntil("alice", 2*time.Second)
	assert.Contains(t, out, "Player")
}

func TestTable_FullRound(t *testing.T) {
	store := newMockAccountStore()
	store.add("spinner", "secret123")
	c := connect(t, newTestHandler(t, store))
	login(t, c, "spinner", "secret123")
	c.ReadUntil("cheat yes|no", 2*time.Second)

	out := c.Command(tablePrompt, "spin")
	assert.Contains(t, out, "Answer the cheat question first")

	out = c.Command(tablePrompt, "cheat no")
	assert.Contains(t, out, "Declared: played clean")

	out = c.Command(tablePrompt, "spin")
	assert.Contains(t, out, "This round:")
	for _, name := range []string{wheel.TribeType, wheel.ManaBase, wheel.StructuralCondition, wheel.ColorSelection} {
		assert.Contains(t, out, name)
	}
	assert.NotContains(t, out, wheel.CheatersWheel)
	assert.NotContains(t, out, wheel.WinnersWheel)
	assert.Contains(t, out, "Replacement: available")

	out = c.Command(tablePrompt, "replace mana   base")
	assert.Contains(t, out, "Mana Base replaced with: ")
	assert.Contains(t, out, "(replaced)")
	assert.Contains(t, out, "Replacement: used")

	out = c.Command(tablePrompt, "replace Tribe Type")
	assert.Contains(t, out, round.MsgReplacementSpent)

	out = c.Command(tablePrompt, "win")
	assert.Contains(t, out, "Win recorded!")
	assert.Contains(t, out, "Winner's Wheel")
	assert.Equal(t, 1, store.wins("spinner"))

	c.Command(tablePrompt, "cheat no")
	out = c.Command(tablePrompt, "spin")
	assert.Contains(t, out, wheel.WinnersWheel)

	out = c.Command(tablePrompt, "leaderboard")
	assert.Contains(t, out, "spinner")

	c.ReadUntil(tablePrompt, 2*time.Second)
	c.Send("quit")
	c.ReadUntil("Goodbye!", 2*time.Second)
}

func TestTable_WinNotRecorded(t *testing.T) {
	store := newMockAccountStore()
	store.add("unlucky", "secret123")
	store.winErr = errors.New("connection reset")
	c := connect(t, newTestHandler(t, store))
	login(t, c, "unlucky", "secret123")

	c.Command(tablePrompt, "cheat no")
	c.Command(tablePrompt, "spin")
	out := c.Command(tablePrompt, "win")
	assert.Contains(t, out, "could not be added to the leaderboard")

	out = c.Command(tablePrompt, "win")
	assert.Contains(t, out, "no win was recorded")
	assert.Equal(t, 0, store.wins("unlucky"))
}

func TestTable_CheaterRound(t *testing.T) {
	store := newMockAccountStore()
	store.add("rogue", "secret123")
	c := connect(t, newTestHandler(t, store))
	login(t, c, "rogue", "secret123")

	c.Command(tablePrompt, "cheat yes")
	out := c.Command(tablePrompt, "spin")
	assert.Contains(t, out, wheel.CheatersWheel)
	assert.Contains(t, out, "Replacement: none for cheaters")

	out = c.Command(tablePrompt, "replace Mana Base")
	assert.Contains(t, out, round.MsgCheatersBarred)
}

func TestTable_CommandErrors(t *testing.T) {
	store := newMockAccountStore()
	store.add("player", "secret123")
	c := connect(t, newTestHandler(t, store))
	login(t, c, "player", "secret123")

	for _, tc := range []struct{ line, want string }{
		{"replace Mana Base", "No round in play"},
		{"cheat maybe", "Usage: cheat yes|no"},
		{"replace", "Usage: replace <wheel name>"},
		{"dance", "Unknown command: dance"},
		{"win", "no win was recorded"},
	} {
		out := c.Command(tablePrompt, tc.line)
		assert.Contains(t, out, tc.want, tc.line)
	}
	assert.Zero(t, store.wins("player"))

	c.Command(tablePrompt, "cheat no")
	c.Command(tablePrompt, "spin")
	out := c.Command(tablePrompt, "replace Winner's Wheel")
	assert.Contains(t, out, round.MsgInvalidWheel)

	out = c.Command(tablePrompt, "clear")
	assert.Contains(t, out, "Round cleared.")
	assert.Contains(t, out, "cheat yes|no")
}

func TestTable_WheelsAndHelp(t *testing.T) {
	store := newMockAccountStore()
	store.add("player", "secret123")
	c := connect(t, newTestHandler(t, store))
	login(t, c, "player", "secret123")

	out := c.Command(tablePrompt, "wheels")
	assert.Contains(t, out, "158 outcomes")
	assert.Contains(t, out, "cheaters only")

	out = c.Command(tablePrompt, "help")
	for _, usage := range []string{"cheat yes|no", "spin", "replace <wheel name>", "win", "clear", "show", "wheels", "leaderboard", "quit"} {
		assert.Contains(t, out, usage)
	}

	out = c.Command(tablePrompt, "show")
	assert.Contains(t, out, "cheat yes|no")
}

func TestTable_RejectsSecondSeat(t *testing.T) {
	store := newMockAccountStore()
	store.add("twin", "secret123")
	h := newTestHandler(t, store)
	addr := testServer(t, h)

	first := testutil.NewTelnetClient(t, addr)
	first.ReadUntil("to disconnect.", 3*time.Second)
	login(t, first, "twin", "secret123")
	first.ReadUntil(tablePrompt, 2*time.Second)

	second := testutil.NewTelnetClient(t, addr)
	second.ReadUntil("to disconnect.", 3*time.Second)
	second.Send("login twin secret123")
	second.ReadUntil("already seated", 2*time.Second)

	first.Send("quit")
	first.ReadUntil("Goodbye!", 2*time.Second)
	require.Eventually(t, func() bool {
		_, err := h.tables.Snapshot(1)
		return err != nil
	}, 2*time.Second, 10*time.Millisecond)

	second.Send("login twin secret123")
	out := second.ReadUntil(tablePrompt, 2*time.Second)
	assert.True(t, strings.Contains(out, "Welcome back"))
}
