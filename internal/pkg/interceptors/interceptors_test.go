package interceptors

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/jcmexdev/nested-tictactoe/internal/pkg/serviceerror"
)

var info = &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

func TestUnaryServerInterceptor_PropagatesRequestID(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-request-id", "req-42"))

	var seen string
	_, err := UnaryServerInterceptor()(ctx, nil, info, func(ctx context.Context, _ interface{}) (interface{}, error) {
		seen = GetIDFromContext(ctx)
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "req-42", seen)
}

func TestUnaryServerInterceptor_GeneratesRequestID(t *testing.T) {
	var seen string
	_, _ = UnaryServerInterceptor()(context.Background(), nil, info, func(ctx context.Context, _ interface{}) (interface{}, error) {
		seen = GetIDFromContext(ctx)
		return nil, nil
	})
	assert.NotEqual(t, unknownID, seen)
	assert.Len(t, seen, 36)
}

func TestGetIDFromContext(t *testing.T) {
	assert.Equal(t, "unknown", GetIDFromContext(context.Background()))
	assert.Equal(t, "abc", GetIDFromContext(ContextWithRequestID(context.Background(), "abc")))

	out := metadata.NewOutgoingContext(context.Background(), metadata.Pairs("x-request-id", "out-1"))
	assert.Equal(t, "out-1", GetIDFromContext(out))
}

func TestServiceErrorInterceptor(t *testing.T) {
	intercept := ServiceErrorInterceptor()

	call := func(err error) error {
		_, got := intercept(context.Background(), nil, info, func(context.Context, interface{}) (interface{}, error) {
			return nil, err
		})
		return got
	}

	assert.NoError(t, call(nil))

	err := call(errors.New("Document with the requested ID could not be found."))
	assert.Equal(t, codes.NotFound, status.Code(err))

	err = call(errors.New("socket closed"))
	assert.Equal(t, codes.Internal, status.Code(err))
	assert.Equal(t, "Unknown error", status.Convert(err).Message())

	err = call(status.Error(codes.Unavailable, "draining"))
	assert.Equal(t, codes.Unavailable, status.Code(err))

	err = call(serviceerror.PermissionDenied())
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}

func TestTraceServerInterceptor_Logs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	ctx := ContextWithRequestID(context.Background(), "req-7")
	_, _ = TraceServerInterceptor(logger)(ctx, nil, info, func(context.Context, interface{}) (interface{}, error) {
		return nil, status.Error(codes.NotFound, "x")
	})

	assert.Contains(t, buf.String(), `"request_id":"req-7"`)
	assert.Contains(t, buf.String(), `"code":"NotFound"`)
	assert.Contains(t, buf.String(), `"method":"/grpc.health.v1.Health/Check"`)
}
