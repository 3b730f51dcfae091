// Package pipeline runs business methods between ordered pre-steps and
// post-steps. Every failure, wherever it happens, is classified once by the
// request's saga coordinator and answered through the same response path.
package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"

	"github.com/jcmexdev/nested-tictactoe/internal/coordinator"
	"github.com/jcmexdev/nested-tictactoe/internal/pkg/interceptors"
	"github.com/jcmexdev/nested-tictactoe/internal/pkg/metrics"
	"github.com/jcmexdev/nested-tictactoe/internal/pkg/telemetry"
)

// PreStep prepares a request. An error stops the remaining pre-steps and the
// method.
type PreStep struct {
	Name string
	Run  func(ctx context.Context, req *Request) error
}

// PostStep runs after the method. Steps that assume success are skipped once
// the request failed unless Always is set.
type PostStep struct {
	Name   string
	Run    func(ctx context.Context, req *Request, sink Sink) error
	Always bool
}

// Method is a business method. Its result becomes the response body.
type Method func(ctx context.Context, req *Request) (any, error)

type Pipeline struct {
	name     string
	pre      []PreStep
	post     []PostStep
	logger   *telemetry.Logger
	metrics  *metrics.Metrics
	sagaOpts []coordinator.Option
}

type Option func(*Pipeline)

func WithPreSteps(steps ...PreStep) Option {
	return func(p *Pipeline) { p.pre = append(p.pre, steps...) }
}

func WithPostSteps(steps ...PostStep) Option {
	return func(p *Pipeline) { p.post = append(p.post, steps...) }
}

func WithLogger(l *telemetry.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithSagaOptions configures the coordinator created for every request.
func WithSagaOptions(opts ...coordinator.Option) Option {
	return func(p *Pipeline) { p.sagaOpts = append(p.sagaOpts, opts...) }
}

// New creates a pipeline for the service called name. Without post-steps it
// uses SendResponse and Cleanup.
func New(name string, opts ...Option) *Pipeline {
	p := &Pipeline{name: name}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = telemetry.Discard()
	}
	if len(p.post) == 0 {
		p.post = []PostStep{SendResponse(), Cleanup()}
	}
	return p
}

// Execute runs one request through the pre, method and post stages with a
// fresh saga coordinator and returns the finished request.
func (p *Pipeline) Execute(ctx context.Context, method string, authorise bool, httpReq *http.Request, fn Method, sink Sink) *Request {
	start := time.Now()
	requestID := interceptors.GetIDFromContext(ctx)

	ctx, span := telemetry.Tracer().Start(ctx, "pipeline "+method)
	defer span.End()
	span.SetAttributes(
		attribute.String("service", p.name),
		attribute.String("method", method),
		attribute.Bool("authorise", authorise),
	)

	log := p.logger.Fork(ctx).With("request_id", requestID)
	log.AppendContext(p.name)
	log.AppendContext(method)
	defer log.PopContext()
	defer log.PopContext()

	sagaOpts := append([]coordinator.Option{
		coordinator.WithLogger(log),
		coordinator.WithMetrics(p.metrics),
	}, p.sagaOpts...)
	if requestID != "unknown" {
		sagaOpts = append(sagaOpts, coordinator.WithID(requestID))
	}

	req := &Request{
		Method:    method,
		Authorise: authorise,
		HTTP:      httpReq,
		Saga:      coordinator.NewCoordinator(sagaOpts...),
		Log:       log,
		ctx:       ctx,
	}
	req.transition(Idle)
	log.Info("executing method")

	p.runPre(ctx, req)
	if !req.Saga.DidFail() {
		p.runMethod(ctx, req, fn)
	}
	if req.Saga.DidFail() {
		req.transition(Failed)
		span.SetStatus(otelcodes.Error, req.Saga.Failure().Title)
		span.SetAttributes(attribute.String("error.message", req.Saga.Failure().Message))
	}
	p.runPost(ctx, req, sink)

	if !req.responded {
		log.Error("no post-step sent a response")
		req.Respond(sink, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}

	req.Saga.Clear()
	req.transition(Done)

	span.SetAttributes(attribute.Int("http.status_code", req.status))
	p.metrics.ObserveRequest(method, strconv.Itoa(req.status), time.Since(start).Seconds())
	return req
}

func (p *Pipeline) runPre(ctx context.Context, req *Request) {
	req.transition(PreRunning)
	req.Log.AppendContext("PreExecutor")
	defer req.Log.PopContext()

	for _, step := range p.pre {
		req.Log.Debug(step.Name)
		if err := safely(func() error { return step.Run(ctx, req) }); err != nil {
			req.Saga.Abort(ctx, step.Name, err)
			return
		}
	}
}

func (p *Pipeline) runMethod(ctx context.Context, req *Request, fn Method) {
	req.transition(MethodRunning)
	req.Log.AppendContext("MethodExecutor")
	defer req.Log.PopContext()

	var out any
	err := safely(func() error {
		var err error
		out, err = fn(ctx, req)
		return err
	})
	if err != nil {
		req.Saga.Abort(ctx, req.Method, err)
		return
	}
	req.Output = out
}

func (p *Pipeline) runPost(ctx context.Context, req *Request, sink Sink) {
	req.transition(PostRunning)
	req.Log.AppendContext("PostExecutor")
	defer req.Log.PopContext()

	for _, step := range p.post {
		if req.Saga.DidFail() && !step.Always {
			req.Log.Debug("skipping " + step.Name + ", request failed")
			continue
		}
		req.Log.Debug(step.Name)
		if err := safely(func() error { return step.Run(ctx, req, sink) }); err != nil {
			if req.responded {
				req.Log.Error(fmt.Sprintf("%s failed after the response was sent: %s", step.Name, err.Error()))
				continue
			}
			req.Saga.Abort(ctx, step.Name, err)
		}
	}
}

// safely runs fn and turns a panic into an error.
func safely(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("step panicked: %v", r)
		}
	}()
	return fn()
}

// SendResponse sends the terminal error when the request failed, otherwise
// the method output with status 200, or "OK" when there is none.
func SendResponse() PostStep {
	return PostStep{
		Name:   "send response",
		Always: true,
		Run: func(_ context.Context, req *Request, sink Sink) error {
			if failure := req.Saga.Failure(); failure != nil {
				req.Log.Error("some operations failed: " + failure.Message)
				req.Respond(sink, failure.Code, failure)
				return nil
			}

			req.Log.Debug("all operations were successful")
			if req.Output == nil {
				req.Respond(sink, http.StatusOK, http.StatusText(http.StatusOK))
				return nil
			}
			req.Respond(sink, http.StatusOK, req.Output)
			return nil
		},
	}
}

// Cleanup resets the request's saga.
func Cleanup() PostStep {
	return PostStep{
		Name:   "cleanup",
		Always: true,
		Run: func(_ context.Context, req *Request, _ Sink) error {
			req.Saga.Clear()
			return nil
		},
	}
}
