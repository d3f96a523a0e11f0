package domain

// CallState is a step of a single operation or action call.
type CallState int

const (
	StateInit CallState = iota
	StateShapeDetected
	StateDatastoreSelected
	StateFlattened
	StateInvoked
	StateAssembled
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateInit:              "init",
	StateShapeDetected:     "shape-detected",
	StateDatastoreSelected: "datastore-selected",
	StateFlattened:         "flattened",
	StateInvoked:           "invoked",
	StateAssembled:         "assembled",
	StateDone:              "done",
	StateFailed:            "failed",
}

func (s CallState) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no transition leaves s.
func (s CallState) Terminal() bool {
	return s == StateDone || s == StateFailed
}
