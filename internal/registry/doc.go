// Package registry owns the loaded challenge models and dispatches
// predictions to them. It is structured into small files by concern:
//
//   - registry.go: Registry type, constructors, read-only accessors, Close.
//   - config.go: Config, poison policy and defaults.
//   - load.go: LoadDir, the parallel all-or-nothing directory load.
//   - guard.go: the per-challenge exclusive slot around an engine.
//   - predict.go: Predict, the request path.
//   - errors.go: LoadError and prediction errors with Is* helpers.
//   - events.go: lifecycle events and publishers.
//   - metrics.go: Prometheus collectors.
//
// The challenge→guard map is built once and never mutated, so lookups take
// no lock. Each guard admits one caller at a time; different challenges
// never contend.
package registry
