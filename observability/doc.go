// Package observability provides OpenTelemetry metrics for the binding
// registry and the injection engine.
//
// Instruments are created on any metric.Meter; with no SDK installed the
// global meter is a no-op, so recording is always safe. A nil *Metrics is
// also valid and records nothing.
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("bindkit"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("bindkit"))
//	reg := binding.NewRegistry(binding.WithMetrics(metrics))
package observability
