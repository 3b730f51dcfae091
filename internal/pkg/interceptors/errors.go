package interceptors

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/jcmexdev/nested-tictactoe/internal/pkg/serviceerror"
)

// ServiceErrorInterceptor turns handler errors into gRPC statuses through
// the service error taxonomy. Errors that already carry a status pass
// through unchanged.
func ServiceErrorInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		resp, err := handler(ctx, req)
		if err == nil {
			return resp, nil
		}
		if _, ok := status.FromError(err); ok {
			return resp, err
		}
		return resp, serviceerror.From(err).GRPCStatus().Err()
	}
}
