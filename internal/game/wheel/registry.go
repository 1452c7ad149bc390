// Package wheel holds the named wheels a round is spun from and the uniform
// draws made against them.
package wheel

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/cory-johannsen/wheels/internal/game/dice"
)

// ErrUnknownWheel is returned when a wheel name is absent from the registry.
var ErrUnknownWheel = errors.New("unknown wheel")

// ErrInsufficientOutcomes is returned when more distinct labels are requested
// than a wheel carries.
var ErrInsufficientOutcomes = errors.New("insufficient outcomes")

// Wheel is a named category with a fixed, ordered set of outcome labels.
//
// Invariant: Outcomes is non-empty and holds no duplicate labels.
type Wheel struct {
	Name     string   `yaml:"name"`
	Role     Role     `yaml:"role"`
	Outcomes []string `yaml:"outcomes"`
}

// Registry is an ordered, read-only collection of wheels.
type Registry struct {
	wheels []*Wheel
	byName map[string]*Wheel
}

// NewRegistry validates wheels and returns a Registry preserving their order.
//
// Precondition: wheels must be non-nil entries.
// Postcondition: Returns a Registry in which names are unique, outcome lists
// are non-empty and duplicate-free, and the mana-base, color-selection and
// replacement roles each appear exactly once; or a non-nil error describing
// the first violation.
func NewRegistry(wheels []*Wheel) (*Registry, error) {
	r := &Registry{byName: make(map[string]*Wheel, len(wheels))}
	roleCount := make(map[Role]int)
	for _, w := range wheels {
		if w == nil {
			return nil, errors.New("wheel registry: nil wheel")
		}
		if w.Name == "" {
			return nil, errors.New("wheel registry: wheel name must not be empty")
		}
		if _, dup := r.byName[w.Name]; dup {
			return nil, fmt.Errorf("wheel registry: duplicate wheel %q", w.Name)
		}
		if len(w.Outcomes) == 0 {
			return nil, fmt.Errorf("wheel registry: wheel %q has no outcomes", w.Name)
		}
		seen := make(map[string]bool, len(w.Outcomes))
		for _, o := range w.Outcomes {
			if seen[o] {
				return nil, fmt.Errorf("wheel registry: wheel %q repeats outcome %q", w.Name, o)
			}
			seen[o] = true
		}
		cp := &Wheel{Name: w.Name, Role: w.Role, Outcomes: append([]string(nil), w.Outcomes...)}
		r.wheels = append(r.wheels, cp)
		r.byName[cp.Name] = cp
		roleCount[w.Role]++
	}

	for _, role := range []Role{RoleManaBase, RoleColorSelection, RoleReplacement} {
		if roleCount[role] != 1 {
			return nil, fmt.Errorf("wheel registry: need exactly one %s wheel, got %d", role, roleCount[role])
		}
	}

	colors := r.mustByRole(RoleColorSelection)
	for _, label := range r.mustByRole(RoleManaBase).Outcomes {
		n, err := strconv.Atoi(label)
		if err != nil || n < 1 || n > len(colors.Outcomes) {
			return nil, fmt.Errorf("wheel registry: mana base outcome %q must be an integer in [1, %d]",
				label, len(colors.Outcomes))
		}
	}
	return r, nil
}

// Wheels returns the wheels in registry order.
func (r *Registry) Wheels() []*Wheel {
	out := make([]*Wheel, len(r.wheels))
	copy(out, r.wheels)
	return out
}

// Wheel returns the wheel registered under name.
//
// Postcondition: Returns the wheel, or an error wrapping ErrUnknownWheel.
func (r *Registry) Wheel(name string) (*Wheel, error) {
	w, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownWheel, name)
	}
	return w, nil
}

// ByRole returns the first wheel carrying role, in registry order.
func (r *Registry) ByRole(role Role) (*Wheel, bool) {
	for _, w := range r.wheels {
		if w.Role == role {
			return w, true
		}
	}
	return nil, false
}

func (r *Registry) mustByRole(role Role) *Wheel {
	w, ok := r.ByRole(role)
	if !ok {
		panic("wheel registry: no wheel with role " + role.String())
	}
	return w
}

// Outcomes returns a copy of the ordered outcome labels of the named wheel.
//
// Postcondition: Returns the labels, or an error wrapping ErrUnknownWheel.
func (r *Registry) Outcomes(name string) ([]string, error) {
	w, err := r.Wheel(name)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), w.Outcomes...), nil
}

// Len returns the number of registered wheels.
func (r *Registry) Len() int {
	return len(r.wheels)
}

// PickOne draws one label from the named wheel, each with probability 1/|outcomes|.
//
// Precondition: p must be non-nil.
// Postcondition: Returns a member of the wheel's outcomes, or an error wrapping ErrUnknownWheel.
func (r *Registry) PickOne(name string, p dice.Picker) (string, error) {
	w, err := r.Wheel(name)
	if err != nil {
		return "", err
	}
	return w.Outcomes[p.Pick(len(w.Outcomes))], nil
}

// PickMany draws k distinct labels from the named wheel without replacement.
//
// Precondition: p must be non-nil; k >= 0.
// Postcondition: Returns k distinct members of the wheel's outcomes, or an
// error wrapping ErrUnknownWheel or ErrInsufficientOutcomes.
func (r *Registry) PickMany(name string, k int, p dice.Picker) ([]string, error) {
	w, err := r.Wheel(name)
	if err != nil {
		return nil, err
	}
	if k < 0 {
		return nil, fmt.Errorf("wheel %q: negative pick count %d", name, k)
	}
	if k > len(w.Outcomes) {
		return nil, fmt.Errorf("%w: wheel %q has %d outcomes, %d requested",
			ErrInsufficientOutcomes, name, len(w.Outcomes), k)
	}
	labels := make([]string, 0, k)
	for _, i := range p.Sample(len(w.Outcomes), k) {
		labels = append(labels, w.Outcomes[i])
	}
	return labels, nil
}
