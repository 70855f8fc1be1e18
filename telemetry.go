package crypt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// instrumentationName names the tracer and meter used by this package.
const instrumentationName = "github.com/CLQuantizer/crypt"

// Operation names, used as span names and as the "operation" attribute.
const (
	opEncrypt      = "crypt.encrypt"
	opDecrypt      = "crypt.decrypt"
	opEncryptBytes = "crypt.encrypt_bytes"
	opDecryptBytes = "crypt.decrypt_bytes"
)

// Attribute keys.
const (
	attrOperation = "operation"
	attrStatus    = "status"
	attrErrorType = "error.type"
	attrInputSize = "crypt.input_size"
)

type telemetry struct {
	tracer   trace.Tracer
	total    metric.Int64Counter
	duration metric.Float64Histogram
}

func newTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) (*telemetry, error) {
	meter := mp.Meter(instrumentationName)

	total, err := meter.Int64Counter("crypt.operations",
		metric.WithDescription("Total number of encrypt and decrypt operations"),
	)
	if err != nil {
		return nil, fmt.Errorf("crypt: creating crypt.operations counter: %w", err)
	}

	duration, err := meter.Float64Histogram("crypt.operation.duration",
		metric.WithDescription("Duration of encrypt and decrypt operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("crypt: creating crypt.operation.duration histogram: %w", err)
	}

	return &telemetry{
		tracer:   tp.Tracer(instrumentationName),
		total:    total,
		duration: duration,
	}, nil
}

// start opens a span for op. The returned func ends it and records the metrics;
// it must be called exactly once with the operation's result.
func (t *telemetry) start(ctx context.Context, op string, inputSize int) (context.Context, func(error)) {
	begin := time.Now()
	ctx, span := t.tracer.Start(ctx, op,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.Int(attrInputSize, inputSize)),
	)

	return ctx, func(err error) {
		status := "ok"
		attrs := []attribute.KeyValue{attribute.String(attrOperation, op)}
		if err != nil {
			status = "error"
			kind := errorType(err)
			attrs = append(attrs, attribute.String(attrErrorType, kind))
			span.SetAttributes(attribute.String(attrErrorType, kind))
			span.RecordError(err)
			span.SetStatus(codes.Error, kind)
		}
		span.End()

		t.total.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.String(attrStatus, status))...))
		t.duration.Record(ctx, time.Since(begin).Seconds(), metric.WithAttributes(
			attribute.String(attrOperation, op),
		))
	}
}

// errorType maps an error to a low-cardinality label.
func errorType(err error) string {
	switch {
	case IsInvalidFormat(err):
		return "invalid_format"
	case IsDecryptionFailed(err):
		return "decryption_failed"
	case IsInvalidText(err):
		return "invalid_text"
	case IsInvalidKeySize(err):
		return "invalid_key_size"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}
