// Package tracer provides distributed tracing functionality using OpenTelemetry.
//
// It wraps the OpenTelemetry SDK behind a small API: StartSpan,
// RecordErrorOnSpan, and SetAttributes.
//
// Basic Usage:
//
//	tracerClient := tracer.NewClient(tracer.Config{
//		ServiceName:  "pgsearch",
//		AppEnv:       "development",
//		EnableExport: true,
//	}, log)
//
//	ctx, span := tracerClient.StartSpan(ctx, "search")
//	defer span.End()
//
//	tracerClient.SetAttributes(span, map[string]interface{}{
//		"search.index": "products",
//		"search.mode":  "hybrid",
//	})
//
//	if err != nil {
//		tracerClient.RecordErrorOnSpan(span, err)
//		return nil, err
//	}
//
// When export is enabled, spans are shipped over OTLP HTTP to the endpoint
// named by the standard OTEL_EXPORTER_OTLP_* environment variables.
//
// All methods on the Tracer type are safe for concurrent use by multiple
// goroutines.
package tracer
