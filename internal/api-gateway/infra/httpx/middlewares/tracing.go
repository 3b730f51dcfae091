package middlewares

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcmexdev/nested-tictactoe/internal/pkg/interceptors"
	"github.com/jcmexdev/nested-tictactoe/internal/pkg/interceptors/constants"
)

// AttachTracingMetadata copies chi's request id into the context key the
// pipeline reads and echoes it in the response. Must run after
// middleware.RequestID.
func AttachTracingMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())
		if requestID == "" {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set(constants.HeaderXRequestId, requestID)
		ctx := interceptors.ContextWithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
