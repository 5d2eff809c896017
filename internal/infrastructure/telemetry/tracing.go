package telemetry

import (
	"context"

	"github.com/erp/rental/internal/domain/shared"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer of ledger spans
const TracerName = "rental-ledger"

// Span attribute keys
const (
	AttrJob       = "ledger.job"
	AttrTenantID  = "ledger.tenant_id"
	AttrProcessed = "ledger.processed"
	AttrCreated   = "ledger.created"
	AttrSkipped   = "ledger.skipped"
	AttrFailed    = "ledger.failed"
)

// maxSpanErrors caps the item errors copied onto a job span
const maxSpanErrors = 10

// StartSpan starts an internal span on the global provider. The caller
// ends it.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// Trace runs fn under a "{service}.{method}" span labelled for the profiler
// with the same operation, and records the error fn returns
func Trace(ctx context.Context, service, method string, fn func(context.Context) error, attrs ...attribute.KeyValue) error {
	ctx, span := StartSpan(ctx, service+"."+method, attrs...)
	defer span.End()

	var err error
	WithProfilingLabels(ctx, map[string]string{LabelOperation: service + "." + method}, func(ctx context.Context) {
		err = fn(ctx)
	})
	RecordError(span, err)
	return err
}

// StartJobSpan starts the span of one batch job run
func StartJobSpan(ctx context.Context, job string) (context.Context, trace.Span) {
	return StartSpan(ctx, "job."+job, attribute.String(AttrJob, job))
}

// EndJobSpan records the job's counters and outcome, then ends span
func EndJobSpan(span trace.Span, result *shared.BatchResult, err error) {
	defer span.End()
	if result != nil {
		span.SetAttributes(
			attribute.Int(AttrProcessed, result.Processed),
			attribute.Int(AttrCreated, result.Created),
			attribute.Int(AttrSkipped, result.Skipped),
			attribute.Int(AttrFailed, result.Failed),
		)
		if result.HasFailures() {
			errs := result.Errors
			if len(errs) > maxSpanErrors {
				errs = errs[:maxSpanErrors]
			}
			span.AddEvent("item_failures", trace.WithAttributes(attribute.StringSlice("errors", errs)))
		}
	}
	if err != nil {
		RecordError(span, err)
		return
	}
	span.SetStatus(codes.Ok, "")
}

// TenantAttr tags a span with the tenant it works on
func TenantAttr(tenantID string) attribute.KeyValue {
	return attribute.String(AttrTenantID, tenantID)
}

// RecordError marks span failed with err. A nil err is ignored.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// TraceID returns the trace ID of the span in ctx, or ""
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.TraceID().IsValid() {
		return ""
	}
	return sc.TraceID().String()
}
