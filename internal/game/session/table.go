package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/wheels/internal/game/round"
)

// Table is one player's seat: the cheat declaration for the next spin, the
// bonus flag earned by winning, and the round currently in play.
type Table struct {
	// AccountID identifies the seated player.
	AccountID int64
	// Username is the account username (for display and logging).
	Username string
	// CheatDeclared is true once the player has answered the cheat prompt.
	CheatDeclared bool
	// DidCheat is the declared answer; meaningful only when CheatDeclared.
	DidCheat bool
	// WonLastRound unlocks the Winner's Wheel for the next spin only.
	WonLastRound bool
	// RoundID identifies the round in play; uuid.Nil when there is none.
	RoundID uuid.UUID
	// Round is the round in play, or nil.
	Round *round.State
	// LastMessage is the feedback of the last replacement attempt.
	LastMessage string
	// UpdatedAt is the time of the last mutation.
	UpdatedAt time.Time
}

// HasRound reports whether a round is in play.
func (t Table) HasRound() bool {
	return t.Round != nil
}

// IsBlank reports whether t holds nothing beyond what a fresh seat has.
func (t Table) IsBlank() bool {
	return !t.CheatDeclared && !t.WonLastRound && t.Round == nil && t.LastMessage == ""
}

// Clone returns a deep copy of t.
func (t Table) Clone() Table {
	out := t
	if t.Round != nil {
		st := t.Round.Clone()
		out.Round = &st
	}
	return out
}

func (t *Table) clearRound() {
	t.Round = nil
	t.RoundID = uuid.Nil
	t.LastMessage = ""
}

func (t *Table) clearDeclaration() {
	t.CheatDeclared = false
	t.DidCheat = false
}
