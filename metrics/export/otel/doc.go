// Package otel provides OpenTelemetry metric bindings for authcore
// counters.
//
// [NewExporter] registers one Int64ObservableCounter per engine counter and
// a single callback that reads the engine snapshot on each collection
// cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider — callers supply the Meter.
//   - Mutate engine state.
package otel
