package coordinator

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"

	"github.com/jcmexdev/nested-tictactoe/internal/coordinator/sagalog"
	"github.com/jcmexdev/nested-tictactoe/internal/pkg/metrics"
	"github.com/jcmexdev/nested-tictactoe/internal/pkg/serviceerror"
	"github.com/jcmexdev/nested-tictactoe/internal/pkg/telemetry"
)

// CompensationOrder selects the order in which succeeded operations are
// compensated after a failure.
type CompensationOrder int

const (
	// ReverseOrder undoes the most recent operation first.
	ReverseOrder CompensationOrder = iota
	// ForwardOrder undoes operations in the order they succeeded.
	ForwardOrder
)

// ParseCompensationOrder maps a config value to an order, defaulting to ReverseOrder.
func ParseCompensationOrder(s string) CompensationOrder {
	if s == "forward" {
		return ForwardOrder
	}
	return ReverseOrder
}

func (o CompensationOrder) String() string {
	if o == ForwardOrder {
		return "forward"
	}
	return "reverse"
}

// tracked is a succeeded operation with its compensation erased to any.
type tracked struct {
	label      string
	compensate func(ctx context.Context, input any) error
}

// Coordinator runs the operations of one request in sequence. The first
// failure is classified and kept as the terminal error, every previously
// succeeded operation is compensated, and further operations are skipped
// until Clear is called.
//
// A Coordinator is not safe for concurrent use. Create one per request.
type Coordinator struct {
	id        string
	logger    *telemetry.Logger
	order     CompensationOrder
	incidents sagalog.Repository
	metrics   *metrics.Metrics
	classify  func(error) *serviceerror.ServiceError

	// operations and inputs are always the same length and index-aligned.
	operations []tracked
	inputs     []any

	failed  bool
	failure *serviceerror.ServiceError
}

// Option configures a Coordinator.
type Option func(*Coordinator)

func WithLogger(l *telemetry.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

func WithCompensationOrder(o CompensationOrder) Option {
	return func(c *Coordinator) { c.order = o }
}

// WithIncidentLog records terminal failures and failed compensations.
func WithIncidentLog(repo sagalog.Repository) Option {
	return func(c *Coordinator) { c.incidents = repo }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// WithClassifier replaces serviceerror.From as the raw failure classifier.
func WithClassifier(fn func(error) *serviceerror.ServiceError) Option {
	return func(c *Coordinator) { c.classify = fn }
}

// WithID overrides the generated saga id.
func WithID(id string) Option {
	return func(c *Coordinator) { c.id = id }
}

func NewCoordinator(opts ...Option) *Coordinator {
	c := &Coordinator{
		id:       uuid.NewString(),
		order:    ReverseOrder,
		classify: serviceerror.From,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = telemetry.Discard()
	}
	return c
}

// ID identifies this coordinator in logs and incident entries.
func (c *Coordinator) ID() string { return c.id }

// Run executes op unless the coordinator already failed.
//
// On success the output is returned and the operation is tracked for later
// compensation. On failure the error is classified and stored, previously
// succeeded operations are compensated, and (false, zero) is returned.
func Run[O, C any](ctx context.Context, c *Coordinator, op Operation[O, C]) (bool, O) {
	var zero O

	c.logger.Debug("running " + op.Label)

	if c.failed {
		c.logger.Debug("skipping " + op.Label + ", because previous operation failed")
		return false, zero
	}

	ctx, span := telemetry.Tracer().Start(ctx, "saga "+op.Label)
	span.SetAttributes(attribute.String("saga.id", c.id))
	defer span.End()

	out, input, err := invoke(ctx, op.Runner)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		c.fail(ctx, op.Label, err)
		return false, zero
	}

	c.logger.Debug("success " + op.Label)

	var compensate func(context.Context, any) error
	if op.Compensation != nil {
		compensate = func(ctx context.Context, in any) error {
			typed, _ := in.(C)
			return op.Compensation(ctx, typed)
		}
	}
	c.operations = append(c.operations, tracked{label: op.Label, compensate: compensate})
	c.inputs = append(c.inputs, input)

	return true, out
}

// Abort records a failure raised outside Run, such as a pipeline pre-step
// or a business method returning an error. If the coordinator already
// failed, the original terminal error is kept and returned.
func (c *Coordinator) Abort(ctx context.Context, label string, err error) *serviceerror.ServiceError {
	if c.failed {
		c.logger.Debug("ignoring failure of " + label + ", terminal error already recorded")
		return c.failure
	}
	c.fail(ctx, label, err)
	return c.failure
}

func (c *Coordinator) fail(ctx context.Context, label string, err error) {
	// The request context is usually what just got cancelled.
	ctx = context.WithoutCancel(ctx)

	c.failed = true
	c.failure = c.classify(err)

	c.logger.Error(fmt.Sprintf("failed %s: %s", label, err.Error()),
		"saga_id", c.id,
		"code", c.failure.Code,
		"title", c.failure.Title,
	)
	c.metrics.SagaFailed(c.failure.Title)
	c.record(ctx, sagalog.NewEntry(ctx, c.id, sagalog.StatusFailed, label, err.Error(), c.failure.Title))

	c.compensate(ctx)
}

// compensate undoes every tracked operation that defines a compensation.
// It runs exactly once per failure, on a context that outlives request
// cancellation. Compensation failures are logged and recorded but never
// replace the terminal error.
func (c *Coordinator) compensate(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)

	c.logger.Debug("rolling back", "operations", len(c.operations), "order", c.order.String())

	for _, i := range c.sweepOrder() {
		op := c.operations[i]
		if op.compensate == nil {
			continue
		}

		c.logger.Debug("compensating " + op.label)
		err := invokeCompensation(ctx, op.compensate, c.inputs[i])
		c.metrics.Compensated(op.label, err)

		if err != nil {
			c.logger.Error(fmt.Sprintf("compensation of %s failed: %s", op.label, err.Error()), "saga_id", c.id)
			c.record(ctx, sagalog.NewEntry(ctx, c.id, sagalog.StatusCompensationFailed, op.label, err.Error(), ""))
			continue
		}
		c.logger.Debug("compensated " + op.label)
	}
}

func (c *Coordinator) sweepOrder() []int {
	idx := make([]int, len(c.operations))
	for i := range idx {
		if c.order == ForwardOrder {
			idx[i] = i
		} else {
			idx[i] = len(idx) - 1 - i
		}
	}
	return idx
}

func (c *Coordinator) record(ctx context.Context, entry *sagalog.Entry) {
	if c.incidents == nil {
		return
	}
	if err := c.incidents.Save(ctx, entry); err != nil {
		c.logger.Warn("could not record saga incident", "saga_id", c.id, "error", err)
	}
}

// Clear resets tracked operations and the failed state. It must be called
// once per request after the response has been sent.
func (c *Coordinator) Clear() {
	c.operations = nil
	c.inputs = nil
	c.failed = false
	c.failure = nil
}

func (c *Coordinator) DidFail() bool { return c.failed }

// Failure returns the terminal error, or nil if nothing failed.
func (c *Coordinator) Failure() *serviceerror.ServiceError { return c.failure }

// Err returns the terminal error as an error value, nil if nothing failed.
func (c *Coordinator) Err() error {
	if c.failure == nil {
		return nil
	}
	return c.failure
}

// Tracked reports how many succeeded operations are currently tracked.
func (c *Coordinator) Tracked() int { return len(c.operations) }

// invoke runs a runner and turns a panic into an error so the failure goes
// through classification like any other.
func invoke[O, C any](ctx context.Context, runner func(context.Context) (O, C, error)) (out O, input C, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("operation panicked: %v", r)
		}
	}()
	return runner(ctx)
}

func invokeCompensation(ctx context.Context, fn func(context.Context, any) error, input any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("compensation panicked: %v", r)
		}
	}()
	return fn(ctx, input)
}
