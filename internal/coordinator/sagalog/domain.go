// Package sagalog records saga incidents: terminal failures and compensations
// that could not undo their step.
//
// Entries are written after the fact and are never read back to resume or
// replay a saga. Their purpose is operational: a COMPENSATION_FAILED row is
// data drift between the identity store and the document store that someone
// has to reconcile by hand, and the trace_id column links it to the request.
package sagalog

import "time"

// Status is the kind of incident an entry records.
type Status string

const (
	// StatusFailed marks the operation that failed and stopped the saga.
	StatusFailed Status = "FAILED"

	// StatusCompensationFailed marks a compensation that returned an error
	// or panicked during the sweep.
	StatusCompensationFailed Status = "COMPENSATION_FAILED"
)

// Entry is a single row in the saga_incidents table.
type Entry struct {
	// SagaID identifies one coordinator lifetime (one inbound request).
	SagaID string

	Status Status

	// Operation is the label of the operation or compensation involved.
	Operation string

	// Error is the raw failure text. It is kept server-side only and is
	// never echoed to clients.
	Error string

	// Classified is the client-facing title the failure was mapped to;
	// empty for compensation failures.
	Classified string

	TraceID string
	SpanID  string

	CreatedAt time.Time
}
