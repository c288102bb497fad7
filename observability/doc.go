// Package observability carries OpenTelemetry tracing and metrics for
// pipelines and the playback controller.
//
// Spans come from StartSpan on the global tracer, so they cost nothing
// until Start installs exporting providers:
//
//	p, err := observability.Start(ctx, cfg, observability.ServiceInfo{Name: "mediaplay"}, log)
//	defer p.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanRequestState)
//	defer span.End()
//
// PipelineMetrics holds the pipeline instruments. A nil *PipelineMetrics
// records nothing.
package observability
