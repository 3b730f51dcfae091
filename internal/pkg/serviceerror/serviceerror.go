// Package serviceerror defines the closed set of client-facing errors returned
// by every service, and the classifier that maps free-text failures coming
// from the identity and document stores onto that set.
package serviceerror

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind identifies one member of the closed error taxonomy.
type Kind int

const (
	KindInternalServerError Kind = iota
	KindBadRequest
	KindUnauthorised
	KindPermissionDenied
	KindNotFound
	KindConflict
)

// ServiceError is the only error shape that crosses the coordinator/pipeline
// boundary or reaches a client. Values are immutable once built.
type ServiceError struct {
	Code    int    `json:"code"`
	Title   string `json:"title"`
	Message string `json:"message"`

	kind Kind
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Code, e.Title, e.Message)
}

// Kind returns the taxonomy member the error belongs to.
func (e *ServiceError) Kind() Kind { return e.kind }

// GRPCStatus lets status.FromError recognise a ServiceError.
func (e *ServiceError) GRPCStatus() *status.Status {
	return status.New(grpcCode(e.kind), e.Message)
}

func grpcCode(k Kind) codes.Code {
	switch k {
	case KindBadRequest:
		return codes.InvalidArgument
	case KindUnauthorised:
		return codes.Unauthenticated
	case KindPermissionDenied:
		return codes.PermissionDenied
	case KindNotFound:
		return codes.NotFound
	case KindConflict:
		return codes.AlreadyExists
	default:
		return codes.Internal
	}
}

// Builder produces a ServiceError of a fixed kind. An empty or missing
// message falls back to the builder's default.
type Builder func(message ...string) *ServiceError

func builder(kind Kind, code int, title, defaultMessage string) Builder {
	return func(message ...string) *ServiceError {
		msg := defaultMessage
		if len(message) > 0 && message[0] != "" {
			msg = message[0]
		}
		return &ServiceError{Code: code, Title: title, Message: msg, kind: kind}
	}
}

var (
	BadRequest          = builder(KindBadRequest, http.StatusBadRequest, "Bad Request", "Invalid request")
	Unauthorised        = builder(KindUnauthorised, http.StatusUnauthorized, "Unauthorised", "Access token is missing or invalid")
	InvalidCredentials  = builder(KindUnauthorised, http.StatusUnauthorized, "Unauthorised", "Invalid credentials. Please check the email and password.")
	PermissionDenied    = builder(KindPermissionDenied, http.StatusForbidden, "Forbidden", "The current user is not authorized to perform the requested action.")
	NotFound            = builder(KindNotFound, http.StatusNotFound, "Not Found", "Resource not found")
	UserNotFound        = builder(KindNotFound, http.StatusNotFound, "Not Found", "User not found")
	DocumentNotFound    = builder(KindNotFound, http.StatusNotFound, "Not Found", "Document not found")
	Conflict            = builder(KindConflict, http.StatusConflict, "Conflict", "Resource already exists")
	UserAlreadyExists   = builder(KindConflict, http.StatusConflict, "Conflict", "User already exists")
	InternalServerError = builder(KindInternalServerError, http.StatusInternalServerError, "Internal Server Error", "Unknown error")
)

// From converts any error into a ServiceError. Errors that already are (or
// wrap) a ServiceError are returned unchanged; everything else is classified
// by its message text.
func From(err error) *ServiceError {
	if err == nil {
		return nil
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}
	return Classify(err.Error())
}
