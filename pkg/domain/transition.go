package domain

// Transition is a move between two call states.
type Transition struct {
	From CallState `json:"from"`
	To   CallState `json:"to"`
}

// next lists the successful successor of every non-terminal state.
// Invoked may also skip straight to Done when the backend returned no output.
var next = map[CallState][]CallState{
	StateInit:              {StateShapeDetected},
	StateShapeDetected:     {StateDatastoreSelected},
	StateDatastoreSelected: {StateFlattened},
	StateFlattened:         {StateInvoked},
	StateInvoked:           {StateAssembled, StateDone},
	StateAssembled:         {StateDone},
}

// Valid reports whether the transition is allowed. Failed is reachable from
// every non-terminal state.
func (t Transition) Valid() bool {
	if t.From.Terminal() {
		return false
	}
	if t.To == StateFailed {
		return true
	}
	for _, s := range next[t.From] {
		if s == t.To {
			return true
		}
	}
	return false
}
