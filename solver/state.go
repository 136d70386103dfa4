// Package solver implements AddressSolvingShared and its per-operand-shape
// specialisations (spec.md §4.5): the workspace a solve step uses to pick
// a legal address or data-processing operand value, map the pages it
// needs, and re-verify the result against the live VM state.
package solver

// State is the solve-step state machine spec.md §4.5 names: Init ->
// Setup -> SolveFree | (SolveConstrained -> (Accept|Reject)). SolveFree
// has no value of its own here: every Solve in this package passes through
// SolveConstrained.
type State uint8

const (
	Init State = iota
	Setup
	SolveConstrained
	Accept
	Reject
)

func (s State) String() string {
	switch s {
	case Init:
		return "Init"
	case Setup:
		return "Setup"
	case SolveConstrained:
		return "SolveConstrained"
	case Accept:
		return "Accept"
	case Reject:
		return "Reject"
	default:
		return "Unknown"
	}
}
