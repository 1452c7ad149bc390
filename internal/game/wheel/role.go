package wheel

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Role tags a wheel with the resolution rule that applies to it.
type Role int

const (
	// RolePlain wheels draw a single label every round.
	RolePlain Role = iota
	// RoleManaBase draws a single label that doubles as the Color Selection count.
	RoleManaBase
	// RoleColorSelection draws as many distinct labels as the Mana Base count.
	RoleColorSelection
	// RoleTribeType always draws two distinct labels.
	RoleTribeType
	// RoleFirstCondition draws two distinct labels for cheaters, one otherwise.
	RoleFirstCondition
	// RoleCheaterOnly is drawn only when the player cheated.
	RoleCheaterOnly
	// RoleWinnerOnly is drawn only when the player won the previous round.
	RoleWinnerOnly
	// RoleReplacement is never drawn in the round pass; it feeds re-rolls.
	RoleReplacement
)

var roleNames = map[Role]string{
	RolePlain:          "plain",
	RoleManaBase:       "mana-base",
	RoleColorSelection: "color-selection",
	RoleTribeType:      "tribe-type",
	RoleFirstCondition: "first-condition",
	RoleCheaterOnly:    "cheater-only",
	RoleWinnerOnly:     "winner-only",
	RoleReplacement:    "replacement",
}

// String returns the YAML spelling of the role.
func (r Role) String() string {
	if s, ok := roleNames[r]; ok {
		return s
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// ParseRole converts the YAML spelling of a role to a Role.
//
// Postcondition: Returns the matching Role, or an error for unknown names.
func ParseRole(s string) (Role, error) {
	for r, name := range roleNames {
		if name == s {
			return r, nil
		}
	}
	return RolePlain, fmt.Errorf("unknown wheel role %q", s)
}

// UnmarshalYAML implements yaml.Unmarshaler. An omitted role means plain.
func (r *Role) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		*r = RolePlain
		return nil
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (r Role) MarshalYAML() (interface{}, error) {
	return r.String(), nil
}
