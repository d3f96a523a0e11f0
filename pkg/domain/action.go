package domain

// Shape tells how a call envelope is dispatched to the backend.
type Shape int

const (
	// ShapeOperation is a top-level operation invoked independent of any data instance.
	ShapeOperation Shape = iota
	// ShapeAction is an action nested inside a data instance; the envelope
	// carries the data path leading to it.
	ShapeAction
)

func (s Shape) String() string {
	if s == ShapeAction {
		return "action"
	}
	return "rpc"
}
