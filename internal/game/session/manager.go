// Package session tracks seated players and drives their rounds.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/wheels/internal/game/round"
)

// ErrNotSeated is returned for an account without a table.
var ErrNotSeated = errors.New("player not seated")

// ErrAlreadySeated is returned by Join for an account that already has a seat.
var ErrAlreadySeated = errors.New("player already seated")

// ErrCheatUndeclared is returned when spinning before answering the cheat prompt.
var ErrCheatUndeclared = errors.New("cheat declaration required before spinning")

// ErrNoRound is returned when a replacement is requested with no round in play.
var ErrNoRound = errors.New("no round in play")

// ErrWinNotRecorded is returned when a won round is saved but the win could
// not be credited to the account.
var ErrWinNotRecorded = errors.New("win not recorded")

// RoundEngine resolves rounds and applies replacements.
type RoundEngine interface {
	Resolve(didCheat, didWin bool) (round.State, error)
	ApplyReplacement(st round.State, wheelName string) (round.State, string, error)
}

// Store persists tables between connections.
type Store interface {
	SaveTable(ctx context.Context, t Table) error
	LoadTable(ctx context.Context, accountID int64) (Table, bool, error)
	DeleteTable(ctx context.Context, accountID int64) error
}

// WinRecorder credits a win to an account.
type WinRecorder interface {
	RecordWin(ctx context.Context, accountID int64) error
}

type seat struct {
	mu    sync.Mutex
	table Table
}

// Manager tracks all seated players. All methods are safe for concurrent
// use; operations on one table are serialized.
type Manager struct {
	mu     sync.RWMutex
	seats  map[int64]*seat
	engine RoundEngine
	store  Store
	wins   WinRecorder
	logger *zap.Logger
	now    func() time.Time
}

// NewManager creates an empty Manager.
//
// Precondition: engine and logger must be non-nil; store and wins may be nil,
// in which case tables are kept in memory only and wins are not credited.
func NewManager(engine RoundEngine, store Store, wins WinRecorder, logger *zap.Logger) *Manager {
	if engine == nil || logger == nil {
		panic("session.NewManager: precondition violated: engine and logger must be non-nil")
	}
	return &Manager{
		seats:  make(map[int64]*seat),
		engine: engine,
		store:  store,
		wins:   wins,
		logger: logger,
		now:    time.Now,
	}
}

// Join seats a player, restoring a persisted table when one exists.
//
// Precondition: accountID > 0.
// Postcondition: The player is seated and a copy of the table is returned,
// or ErrAlreadySeated if the account holds a seat.
func (m *Manager) Join(ctx context.Context, accountID int64, username string) (Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.seats[accountID]; ok {
		return Table{}, fmt.Errorf("%w: account %d", ErrAlreadySeated, accountID)
	}

	t := Table{AccountID: accountID, Username: username, UpdatedAt: m.now()}
	if m.store != nil {
		stored, found, err := m.store.LoadTable(ctx, accountID)
		if err != nil {
			return Table{}, fmt.Errorf("loading table for account %d: %w", accountID, err)
		}
		if found {
			t = stored
			t.Username = username
		}
	}

	m.seats[accountID] = &seat{table: t}
	m.logger.Info("player seated",
		zap.Int64("account_id", accountID),
		zap.String("username", username),
		zap.Bool("restored_round", t.HasRound()),
	)
	return t.Clone(), nil
}

// Leave unseats a player. The persisted table is kept for the next Join.
//
// Postcondition: Returns ErrNotSeated if the account was not seated.
func (m *Manager) Leave(accountID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.seats[accountID]; !ok {
		return fmt.Errorf("%w: account %d", ErrNotSeated, accountID)
	}
	delete(m.seats, accountID)
	return nil
}

// Seated returns the number of seated players.
func (m *Manager) Seated() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.seats)
}

// Snapshot returns a copy of the player's table.
func (m *Manager) Snapshot(accountID int64) (Table, error) {
	s, err := m.seat(accountID)
	if err != nil {
		return Table{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.Clone(), nil
}

// SetCheat records the player's cheat declaration and discards any round in play.
func (m *Manager) SetCheat(ctx context.Context, accountID int64, cheat bool) (Table, error) {
	return m.update(ctx, accountID, func(t *Table) error {
		t.CheatDeclared = true
		t.DidCheat = cheat
		t.clearRound()
		return nil
	})
}

// Spin resolves a new round using the declared cheat flag and the bonus flag,
// which is consumed by the spin.
//
// Postcondition: Returns the table with a fresh round, or ErrCheatUndeclared.
func (m *Manager) Spin(ctx context.Context, accountID int64) (Table, error) {
	return m.update(ctx, accountID, func(t *Table) error {
		if !t.CheatDeclared {
			return ErrCheatUndeclared
		}
		st, err := m.engine.Resolve(t.DidCheat, t.WonLastRound)
		if err != nil {
			return fmt.Errorf("resolving round: %w", err)
		}
		t.Round = &st
		t.RoundID = uuid.New()
		t.WonLastRound = false
		t.LastMessage = ""
		m.logger.Info("round spun",
			zap.Int64("account_id", t.AccountID),
			zap.String("round_id", t.RoundID.String()),
			zap.Bool("did_cheat", st.DidCheat),
			zap.Bool("did_win", st.DidWin),
		)
		return nil
	})
}

// Replace attempts the round's single replacement on wheelName. Ineligible
// requests are reported through the returned message, not as errors.
//
// Postcondition: Returns the updated table and the player-facing message, or ErrNoRound.
func (m *Manager) Replace(ctx context.Context, accountID int64, wheelName string) (Table, string, error) {
	var msg string
	t, err := m.update(ctx, accountID, func(t *Table) error {
		if !t.HasRound() {
			return ErrNoRound
		}
		st, out, err := m.engine.ApplyReplacement(*t.Round, wheelName)
		if err != nil {
			return fmt.Errorf("applying replacement: %w", err)
		}
		t.Round = &st
		t.LastMessage = out
		msg = out
		m.logger.Info("replacement requested",
			zap.Int64("account_id", t.AccountID),
			zap.String("round_id", t.RoundID.String()),
			zap.String("wheel", wheelName),
			zap.String("message", out),
		)
		return nil
	})
	if err != nil {
		return Table{}, "", err
	}
	return t, msg, nil
}

// Win ends the round as won: the next spin includes the Winner's Wheel and
// the win is credited once the table is saved. Without a round in play
// nothing is credited. Either way the round and the cheat declaration are
// cleared.
//
// Postcondition: Returns the table and whether a win was credited. A failure
// to credit is returned with the saved table; the round is not restored, so
// a win is never credited twice.
func (m *Manager) Win(ctx context.Context, accountID int64) (Table, bool, error) {
	var won bool
	t, err := m.commit(ctx, accountID, func(t *Table) error {
		won = t.HasRound()
		if won {
			t.WonLastRound = true
			m.logger.Info("round won",
				zap.Int64("account_id", t.AccountID),
				zap.String("round_id", t.RoundID.String()),
			)
		}
		t.clearRound()
		t.clearDeclaration()
		return nil
	}, func(t Table) error {
		if !won || m.wins == nil {
			return nil
		}
		if err := m.wins.RecordWin(ctx, t.AccountID); err != nil {
			m.logger.Error("crediting win",
				zap.Int64("account_id", t.AccountID),
				zap.Error(err),
			)
			return fmt.Errorf("%w for account %d: %w", ErrWinNotRecorded, t.AccountID, err)
		}
		return nil
	})
	if err != nil {
		return t, false, err
	}
	return t, won, nil
}

// Clear abandons the round without a win and forfeits any pending bonus.
func (m *Manager) Clear(ctx context.Context, accountID int64) (Table, error) {
	return m.update(ctx, accountID, func(t *Table) error {
		t.WonLastRound = false
		t.clearRound()
		t.clearDeclaration()
		return nil
	})
}

func (m *Manager) seat(accountID int64) (*seat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.seats[accountID]
	if !ok {
		return nil, fmt.Errorf("%w: account %d", ErrNotSeated, accountID)
	}
	return s, nil
}

// update applies fn to a copy of the table and commits it only when fn and
// persistence both succeed.
func (m *Manager) update(ctx context.Context, accountID int64, fn func(t *Table) error) (Table, error) {
	return m.commit(ctx, accountID, fn, nil)
}

// persist saves t, or deletes the stored row when t holds nothing a later
// Join would need to restore.
func (m *Manager) persist(ctx context.Context, t Table) error {
	if m.store == nil {
		return nil
	}
	if t.IsBlank() {
		if err := m.store.DeleteTable(ctx, t.AccountID); err != nil {
			return fmt.Errorf("deleting table for account %d: %w", t.AccountID, err)
		}
		return nil
	}
	if err := m.store.SaveTable(ctx, t); err != nil {
		return fmt.Errorf("saving table for account %d: %w", t.AccountID, err)
	}
	return nil
}

// commit is update with an after hook that runs under the seat lock once the
// table is saved and committed. An after error is returned together with the
// committed table.
func (m *Manager) commit(ctx context.Context, accountID int64, fn func(t *Table) error, after func(t Table) error) (Table, error) {
	s, err := m.seat(accountID)
	if err != nil {
		return Table{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.table.Clone()
	if err := fn(&next); err != nil {
		return Table{}, err
	}
	next.UpdatedAt = m.now()
	if err := m.persist(ctx, next); err != nil {
		return Table{}, err
	}
	s.table = next
	if after != nil {
		if err := after(next.Clone()); err != nil {
			return next.Clone(), err
		}
	}
	return next.Clone(), nil
}
