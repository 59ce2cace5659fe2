// Package workflow holds the application stage state machine.
package workflow

import "github.com/nerdintosubs/hiring-agent/internal/types"

var transitions = map[types.Stage][]types.Stage{
	types.StageNew:         {types.StageScreened, types.StageDropped},
	types.StageScreened:    {types.StageInterviewed, types.StageShortlisted, types.StageDropped},
	types.StageInterviewed: {types.StageShortlisted, types.StageDropped},
	types.StageShortlisted: {types.StageOffered, types.StageDropped},
	types.StageOffered:     {types.StageJoined, types.StageDropped},
	types.StageJoined:      {},
	types.StageDropped:     {},
}

// Allowed returns the stages reachable in one step from from.
// Unknown stages have no outgoing transitions.
func Allowed(from types.Stage) []types.Stage {
	next := transitions[from]
	out := make([]types.Stage, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether from -> to is an edge of the state machine.
// A same-stage move is not an edge; callers treat it as a no-op.
func CanTransition(from, to types.Stage) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves the stage.
func IsTerminal(stage types.Stage) bool {
	return len(transitions[stage]) == 0
}
