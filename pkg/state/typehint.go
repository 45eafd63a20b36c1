package state

import (
	"github.com/rs/zerolog"

	"github.com/mycelium-sh/mycelium/pkg/types"
)

// TypeProbe guesses the component type of a name from some evidence
// source (plugin cache contents, tool config entries). Ok is false when
// the probe has no confident answer.
type TypeProbe interface {
	Name() string
	Detect(name string) (t types.ComponentType, ok bool)
}

// DetectType runs probes in priority order and returns the first
// confident match. The second return is false when every probe passed,
// in which case callers fall back to the skill default (and EnsureItem
// records that the default was applied).
func DetectType(logger zerolog.Logger, name string, probes ...TypeProbe) (types.ComponentType, bool) {
	for _, p := range probes {
		if t, ok := p.Detect(name); ok {
			logger.Debug().
				Str("item", name).
				Str("probe", p.Name()).
				Str("type", string(t)).
				Msg("component type detected")
			return t, true
		}
	}
	return "", false
}

// ProbeFunc adapts a function to the TypeProbe interface.
type ProbeFunc struct {
	ProbeName string
	Fn        func(name string) (types.ComponentType, bool)
}

func (p ProbeFunc) Name() string { return p.ProbeName }

func (p ProbeFunc) Detect(name string) (types.ComponentType, bool) {
	return p.Fn(name)
}
