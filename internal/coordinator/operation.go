package coordinator

import "context"

// Operation is one unit of work run by a Coordinator.
//
// Runner performs the action. On success it returns the output handed back
// to the caller and the minimal input its Compensation needs to undo the
// effect later. Compensation is optional; its failures are logged and never
// abort the sweep. Label is used for logging, tracing and metrics only.
type Operation[O, C any] struct {
	Label        string
	Runner       func(ctx context.Context) (O, C, error)
	Compensation func(ctx context.Context, input C) error
}

// NoCompensation is the compensation input type of operations that have
// nothing to undo, such as reads.
type NoCompensation struct{}

// Read builds an Operation around a side-effect-free call.
func Read[O any](label string, fn func(ctx context.Context) (O, error)) Operation[O, NoCompensation] {
	return Operation[O, NoCompensation]{
		Label: label,
		Runner: func(ctx context.Context) (O, NoCompensation, error) {
			out, err := fn(ctx)
			return out, NoCompensation{}, err
		},
	}
}
