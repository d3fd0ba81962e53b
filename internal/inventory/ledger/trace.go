package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// TraceInfo holds the OTel identifiers extracted from a context.
type TraceInfo struct {
	// TraceID is the W3C trace ID (32 lowercase hex chars).
	// Empty string if no active span is found in the context.
	TraceID string

	// SpanID is the W3C span ID (16 lowercase hex chars).
	SpanID string
}

// ExtractTraceInfo reads the active OpenTelemetry span from ctx and returns
// its trace_id and span_id as hex strings. If the context carries no active
// span (e.g. in unit tests), both fields are returned empty — callers handle
// this gracefully.
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

// NewEntry is a convenience constructor that builds an Entry with the trace
// info automatically extracted from ctx.
//
//	entry := ledger.NewEntry(ctx, ref, ledger.ActionOrderOut, -3, 12, "Order ORD-...", orderNumber)
func NewEntry(ctx context.Context, ref EntityRef, action Action, delta, before int64, reason, reference string) *Entry {
	ti := ExtractTraceInfo(ctx)
	return &Entry{
		UUID:      uuid.NewString(),
		Entity:    ref,
		Action:    action,
		Delta:     delta,
		Before:    before,
		After:     before + delta,
		Reason:    reason,
		Reference: reference,
		TraceID:   ti.TraceID,
		SpanID:    ti.SpanID,
		CreatedAt: time.Now().UTC(),
	}
}
