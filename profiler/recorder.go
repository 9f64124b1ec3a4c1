// Package profiler provides the diagnostic sinks a preprocessing pipeline
// reports stage timings and failures to. Sinks are purely informational and
// never influence pipeline outputs.
package profiler

// Recorder defines a minimal interface for recording pipeline diagnostics.
// Implementations must be safe for concurrent use.
type Recorder interface {
	// RecordOperation records a completed operation with its status
	// (e.g. "success", "error").
	RecordOperation(operation, status string)

	// RecordDuration records the duration of an operation in seconds.
	RecordDuration(operation string, seconds float64)

	// RecordError records an error occurrence with its category
	// (e.g. "shape_mismatch").
	RecordError(operation, category string)
}

// Nop is a Recorder that discards everything.
type Nop struct{}

// RecordOperation implements Recorder.
func (Nop) RecordOperation(string, string) {}

// RecordDuration implements Recorder.
func (Nop) RecordDuration(string, float64) {}

// RecordError implements Recorder.
func (Nop) RecordError(string, string) {}

// Multi fans every record out to each of its recorders in order.
type Multi []Recorder

// RecordOperation implements Recorder.
func (m Multi) RecordOperation(operation, status string) {
	for _, r := range m {
		r.RecordOperation(operation, status)
	}
}

// RecordDuration implements Recorder.
func (m Multi) RecordDuration(operation string, seconds float64) {
	for _, r := range m {
		r.RecordDuration(operation, seconds)
	}
}

// RecordError implements Recorder.
func (m Multi) RecordError(operation, category string) {
	for _, r := range m {
		r.RecordError(operation, category)
	}
}
