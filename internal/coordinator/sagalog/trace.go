package sagalog

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// TraceInfo holds the OTel identifiers extracted from a context.
type TraceInfo struct {
	// TraceID is the W3C trace ID (32 lowercase hex chars), empty without an active span.
	TraceID string

	// SpanID is the W3C span ID (16 lowercase hex chars).
	SpanID string
}

// ExtractTraceInfo reads the active OpenTelemetry span from ctx and returns
// its trace_id and span_id as hex strings. Both are empty when ctx carries
// no valid span, e.g. in unit tests.
func ExtractTraceInfo(ctx context.Context) TraceInfo {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return TraceInfo{}
	}

	return TraceInfo{
		TraceID: sc.TraceID().String(),
		SpanID:  sc.SpanID().String(),
	}
}

// NewEntry builds an Entry with the trace info automatically extracted from ctx.
//
//	entry := sagalog.NewEntry(ctx, sagaID, sagalog.StatusCompensationFailed, "creating user", err.Error(), "")
//	_ = repo.Save(ctx, entry)
func NewEntry(ctx context.Context, sagaID string, status Status, operation, errText, classified string) *Entry {
	ti := ExtractTraceInfo(ctx)

	return &Entry{
		SagaID:     sagaID,
		Status:     status,
		Operation:  operation,
		Error:      errText,
		Classified: classified,
		TraceID:    ti.TraceID,
		SpanID:     ti.SpanID,
		CreatedAt:  time.Now().UTC(),
	}
}
