package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/wheels/internal/game/round"
	"github.com/cory-johannsen/wheels/internal/game/session"
)

// TableRepository persists player tables. The round state is stored in a
// json column so the order of drawn wheels survives.
type TableRepository struct {
	db *pgxpool.Pool
}

// NewTableRepository creates a TableRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewTableRepository(db *pgxpool.Pool) *TableRepository {
	return &TableRepository{db: db}
}

// SaveTable upserts the table for t.AccountID.
//
// Precondition: t.AccountID must reference an existing account.
// Postcondition: A later LoadTable returns an equal table.
func (r *TableRepository) SaveTable(ctx context.Context, t session.Table) error {
	var state []byte
	if t.Round != nil {
		var err error
		state, err = json.Marshal(t.Round)
		if err != nil {
			return fmt.Errorf("encoding round state: %w", err)
		}
	}
	var roundID *uuid.UUID
	if t.RoundID != uuid.Nil {
		id := t.RoundID
		roundID = &id
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO player_tables
		   (account_id, cheat_declared, did_cheat, won_last_round, round_id, round_state, last_message, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6::json, $7, $8)
		 ON CONFLICT (account_id) DO UPDATE SET
		   cheat_declared = EXCLUDED.cheat_declared,
		   did_cheat      = EXCLUDED.did_cheat,
		   won_last_round = EXCLUDED.won_last_round,
		   round_id       = EXCLUDED.round_id,
		   round_state    = EXCLUDED.round_state,
		   last_message   = EXCLUDED.last_message,
		   updated_at     = EXCLUDED.updated_at`,
		t.AccountID, t.CheatDeclared, t.DidCheat, t.WonLastRound,
		roundID, nullableText(state), t.LastMessage, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving table: %w", err)
	}
	return nil
}

// LoadTable returns the persisted table for accountID.
//
// Postcondition: found is false when no table was ever saved for the account.
func (r *TableRepository) LoadTable(ctx context.Context, accountID int64) (session.Table, bool, error) {
	var (
		t       session.Table
		roundID *uuid.UUID
		state   *string
	)
	err := r.db.QueryRow(ctx,
		`SELECT t.account_id, a.username, t.cheat_declared, t.did_cheat, t.won_last_round,
		        t.round_id, t.round_state::text, t.last_message, t.updated_at
		 FROM player_tables t JOIN accounts a ON a.id = t.account_id
		 WHERE t.account_id = $1`,
		accountID,
	).Scan(&t.AccountID, &t.Username, &t.CheatDeclared, &t.DidCheat, &t.WonLastRound,
		&roundID, &state, &t.LastMessage, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return session.Table{}, false, nil
		}
		return session.Table{}, false, fmt.Errorf("loading table: %w", err)
	}

	if roundID != nil {
		t.RoundID = *roundID
	}
	if state != nil {
		var st round.State
		if err := json.Unmarshal([]byte(*state), &st); err != nil {
			return session.Table{}, false, fmt.Errorf("decoding round state: %w", err)
		}
		t.Round = &st
	}
	return t, true, nil
}

// DeleteTable removes the persisted table for accountID, if any.
func (r *TableRepository) DeleteTable(ctx context.Context, accountID int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM player_tables WHERE account_id = $1`, accountID); err != nil {
		return fmt.Errorf("deleting table: %w", err)
	}
	return nil
}

func nullableText(b []byte) *string {
	if b == nil {
		return nil
	}
	s := string(b)
	return &s
}
