package wheel

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Names of the built-in wheels.
const (
	TribeType           = "Tribe Type"
	ManaBase            = "Mana Base"
	ColorSelection      = "Color Selection"
	StructuralCondition = "Structural Condition"
	FirstCondition      = "First Condition (Lands Unaffected)"
	SecondCondition     = "Second Condition (Lands Unaffected)"
	CheatersWheel       = "Cheater's Wheel"
	Replacement         = "Replacement"
	WinnersWheel        = "Winner's Wheel"
)

//go:embed default_wheels.yaml
var defaultWheelsYAML []byte

type registryFile struct {
	Wheels []*Wheel `yaml:"wheels"`
}

// ParseRegistry decodes a YAML wheel definition document into a Registry.
//
// Postcondition: Returns a validated Registry or a non-nil error.
func ParseRegistry(data []byte) (*Registry, error) {
	var f registryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing wheel definitions: %w", err)
	}
	return NewRegistry(f.Wheels)
}

// LoadRegistry reads and parses the YAML wheel definitions at path.
//
// Precondition: path must name a readable file.
// Postcondition: Returns a validated Registry or a non-nil error.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	r, err := ParseRegistry(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// MarshalRegistry encodes r in the YAML form read by ParseRegistry, wheels in
// registry order.
func MarshalRegistry(r *Registry) ([]byte, error) {
	out, err := yaml.Marshal(registryFile{Wheels: r.Wheels()})
	if err != nil {
		return nil, fmt.Errorf("encoding wheel definitions: %w", err)
	}
	return out, nil
}

// DefaultRegistry returns the built-in wheels of the game.
//
// Postcondition: Returns a non-nil Registry. Panics if the embedded definitions are invalid.
func DefaultRegistry() *Registry {
	r, err := ParseRegistry(defaultWheelsYAML)
	if err != nil {
		panic("wheel: embedded definitions invalid: " + err.Error())
	}
	return r
}
