package pipeline

import (
	"context"
	"net/http"

	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/domain/entity"
	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/ports"
	"github.com/jcmexdev/nested-tictactoe/internal/coordinator"
	"github.com/jcmexdev/nested-tictactoe/internal/pkg/telemetry"
)

// State is the lifecycle position of one Request.
type State int

const (
	Idle State = iota
	PreRunning
	MethodRunning
	Failed
	PostRunning
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case PreRunning:
		return "PreRunning"
	case MethodRunning:
		return "MethodRunning"
	case Failed:
		return "Failed"
	case PostRunning:
		return "PostRunning"
	case Done:
		return "Done"
	default:
		return "Unknown"
	}
}

// Request is the state of one pipeline execution. It is created by Execute,
// threaded through every step, and never shared between requests.
type Request struct {
	// Method is the business method name, used for logs, spans and metrics.
	Method string
	// Authorise requires a valid session before the method runs.
	Authorise bool

	HTTP *http.Request
	Saga *coordinator.Coordinator
	Log  *telemetry.Logger

	// Client is bound by the pre-steps; a guest client until authorised.
	Client ports.Client
	// IssuedSession is set by methods that sign a user in.
	IssuedSession *entity.Session
	// ClearSession is set by methods that sign a user out.
	ClearSession bool

	// Output is the method result sent on success.
	Output any

	ctx         context.Context
	state       State
	transitions []State
	status      int
	responded   bool
}

func (r *Request) Context() context.Context { return r.ctx }

func (r *Request) State() State { return r.state }

// Transitions lists every state the request went through, in order.
func (r *Request) Transitions() []State {
	out := make([]State, len(r.transitions))
	copy(out, r.transitions)
	return out
}

// Status is the response status code, zero until a response was sent.
func (r *Request) Status() int { return r.status }

func (r *Request) Responded() bool { return r.responded }

// Respond sends payload through sink. Only the first call has an effect.
func (r *Request) Respond(sink Sink, status int, payload any) {
	if r.responded {
		r.Log.Warn("response already sent, dropping", "status", status)
		return
	}
	r.responded = true
	r.status = status
	sink.Send(status, payload)
}

func (r *Request) transition(s State) {
	r.state = s
	r.transitions = append(r.transitions, s)
}

// Sink receives the single response of a request.
type Sink interface {
	Send(status int, payload any)
	SetCookie(cookie *http.Cookie)
}
