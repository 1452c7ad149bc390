// Package round resolves a wheel spin round and applies its single
// replacement re-roll.
package round

import (
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/cory-johannsen/wheels/internal/game/dice"
	"github.com/cory-johannsen/wheels/internal/game/wheel"
)

// ErrMalformedState is returned when the Mana Base draw is missing or does
// not yield a usable Color Selection count.
var ErrMalformedState = errors.New("malformed round state")

// Replacement outcome messages.
const (
	MsgCheatersBarred   = "No replacements allowed for cheaters."
	MsgReplacementSpent = "No more replacements this round."
	MsgInvalidWheel     = "Invalid wheel selection."
)

const (
	tribeTypeDraws      = 2
	firstConditionDraws = 1
	cheaterFirstDraws   = 2
)

// Engine resolves rounds against a wheel registry using an injected Picker.
//
// An Engine holds no round state; callers must serialize ApplyReplacement
// calls that target the same round.
type Engine struct {
	registry *wheel.Registry
	picker   dice.Picker
	logger   *zap.Logger
}

// NewEngine creates an Engine.
//
// Precondition: registry, picker, and logger must be non-nil.
func NewEngine(registry *wheel.Registry, picker dice.Picker, logger *zap.Logger) *Engine {
	if registry == nil || picker == nil || logger == nil {
		panic("round.NewEngine: precondition violated: registry, picker, and logger must be non-nil")
	}
	return &Engine{registry: registry, picker: picker, logger: logger}
}

// Registry returns the wheel registry the engine draws from.
func (e *Engine) Registry() *wheel.Registry {
	return e.registry
}

// Resolve spins every applicable wheel once for a new round.
//
// Postcondition: Returns a State with ReplacementAvailable == !didCheat,
// ReplacementUsed == false, empty Replaced and Notes, and the flags stamped;
// or a non-nil error wrapping wheel.ErrUnknownWheel,
// wheel.ErrInsufficientOutcomes, or ErrMalformedState.
func (e *Engine) Resolve(didCheat, didWin bool) (State, error) {
	st := State{
		Replaced:             []string{},
		Notes:                []string{},
		ReplacementAvailable: !didCheat,
		DidCheat:             didCheat,
		DidWin:               didWin,
	}

	manaCount := 0
	for _, w := range e.registry.Wheels() {
		var (
			res Result
			err error
		)
		switch w.Role {
		case wheel.RoleReplacement, wheel.RoleColorSelection:
			continue
		case wheel.RoleWinnerOnly:
			if !didWin {
				continue
			}
			res, err = e.drawSingle(w.Name)
		case wheel.RoleCheaterOnly:
			if !didCheat {
				continue
			}
			res, err = e.drawSingle(w.Name)
		case wheel.RoleTribeType:
			res, err = e.drawMulti(w.Name, tribeTypeDraws)
		case wheel.RoleFirstCondition:
			k := firstConditionDraws
			if didCheat {
				k = cheaterFirstDraws
			}
			res, err = e.drawMulti(w.Name, k)
		case wheel.RoleManaBase:
			res, err = e.drawSingle(w.Name)
			if err == nil {
				manaCount, err = colorCount(res.Label())
			}
		default:
			res, err = e.drawSingle(w.Name)
		}
		if err != nil {
			return State{}, fmt.Errorf("resolving %q: %w", w.Name, err)
		}
		st.Results = append(st.Results, res)
	}

	if manaCount < 1 {
		return State{}, fmt.Errorf("%w: no mana base drawn", ErrMalformedState)
	}
	colors, ok := e.registry.ByRole(wheel.RoleColorSelection)
	if !ok {
		return State{}, fmt.Errorf("%w: no color selection wheel", wheel.ErrUnknownWheel)
	}
	res, err := e.drawMulti(colors.Name, manaCount)
	if err != nil {
		return State{}, fmt.Errorf("resolving %q: %w", colors.Name, err)
	}
	st.Results = append(st.Results, res)

	e.logger.Debug("round resolved",
		zap.Bool("did_cheat", didCheat),
		zap.Bool("did_win", didWin),
		zap.Int("wheels", len(st.Results)),
		zap.Int("mana", manaCount),
	)
	return st, nil
}

// ApplyReplacement re-rolls one drawn wheel using the replacement wheel.
// Ineligible requests are not errors: they return st unmodified together
// with a message for the player.
//
// Postcondition: On success the returned State is a copy of st in which
// wheelName holds a single replacement label, wheelName is listed in
// Replaced, and ReplacementUsed is true; st itself is never modified.
func (e *Engine) ApplyReplacement(st State, wheelName string) (State, string, error) {
	switch {
	case !st.ReplacementAvailable:
		return st, MsgCheatersBarred, nil
	case st.ReplacementUsed:
		return st, MsgReplacementSpent, nil
	case !st.Has(wheelName):
		return st, MsgInvalidWheel, nil
	}

	repl, ok := e.registry.ByRole(wheel.RoleReplacement)
	if !ok {
		return st, "", fmt.Errorf("%w: no replacement wheel", wheel.ErrUnknownWheel)
	}
	label, err := e.registry.PickOne(repl.Name, e.picker)
	if err != nil {
		return st, "", fmt.Errorf("drawing replacement: %w", err)
	}

	out := st.Clone()
	for i := range out.Results {
		if out.Results[i].Wheel == wheelName {
			out.Results[i] = Single(wheelName, label)
			break
		}
	}
	if !out.WasReplaced(wheelName) {
		out.Replaced = append(out.Replaced, wheelName)
	}
	out.ReplacementUsed = true

	e.logger.Debug("wheel replaced",
		zap.String("wheel", wheelName),
		zap.String("label", label),
	)
	return out, fmt.Sprintf("%s replaced with: %s", wheelName, label), nil
}

func (e *Engine) drawSingle(name string) (Result, error) {
	label, err := e.registry.PickOne(name, e.picker)
	if err != nil {
		return Result{}, err
	}
	return Single(name, label), nil
}

func (e *Engine) drawMulti(name string, k int) (Result, error) {
	labels, err := e.registry.PickMany(name, k, e.picker)
	if err != nil {
		return Result{}, err
	}
	return Result{Wheel: name, Kind: KindMulti, Labels: labels}, nil
}

// colorCount converts a Mana Base label to the Color Selection draw count.
func colorCount(label string) (int, error) {
	n, err := strconv.Atoi(label)
	if err != nil {
		return 0, fmt.Errorf("%w: mana base %q is not a number", ErrMalformedState, label)
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: mana base %q is not positive", ErrMalformedState, label)
	}
	return n, nil
}
