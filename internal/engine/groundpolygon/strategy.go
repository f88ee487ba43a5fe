package groundpolygon

import (
	"fmt"
	"strings"
)

// Strategy selects how a polygon is composited onto the scene.
type Strategy int

const (
	// StrategySimple draws the volume once with alpha blending and no depth
	// test. Cheap, but shows the whole volume rather than its footprint.
	StrategySimple Strategy = iota
	// StrategyStencil counts volume crossings in the stencil buffer and
	// fills only the pixels whose depth lies inside the volume.
	StrategyStencil
)

// String returns the configuration name of s.
func (s Strategy) String() string {
	switch s {
	case StrategySimple:
		return "simple"
	case StrategyStencil:
		return "stencil"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// Next returns the strategy after s, wrapping around.
func (s Strategy) Next() Strategy {
	if s == StrategyStencil {
		return StrategySimple
	}
	return StrategyStencil
}

// ParseStrategy parses a configuration name.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "simple":
		return StrategySimple, nil
	case "stencil", "":
		return StrategyStencil, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// State is the construction progress of a Polygon.
type State int

const (
	Uninitialized State = iota
	MeshReady
	ShaderReady
	CommandsBuilt
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case MeshReady:
		return "MeshReady"
	case ShaderReady:
		return "ShaderReady"
	case CommandsBuilt:
		return "CommandsBuilt"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}
