// Package observability provides OpenTelemetry tracing and metrics
// integration for the svckit supervision core.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("supervisor"))
//	defer tp.Shutdown(ctx)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("supervisor"))
//	defer mp.Shutdown(ctx)
//
//	sm, err := observability.NewSupervisionMetrics(observability.Meter("supervisor"))
//	sm.RecordProbe(ctx, "translator", "healthy", duration)
package observability
