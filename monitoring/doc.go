// Package monitoring provides Prometheus metrics and OpenTelemetry tracing
// helpers for the repair shop API.
//
// All metrics follow the naming convention repairshop_<metric>_<unit> and are
// registered against the default Prometheus registry on import, which is what
// the /metrics endpoint serves.
//
// Usage in services:
//
//	ctx, span := monitoring.StartServiceSpan(ctx, "Lifecycle.Transition", requestID)
//	defer span.End()
//	monitoring.RecordTransition(from, to, err)
package monitoring
