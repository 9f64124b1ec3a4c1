package profiler

import (
	"fmt"
	"io"
	"runtime"
	"sort"
	"sync"
	"time"
)

// DefaultMaxSamples is the number of durations a Timings keeps per operation
// when no limit is given.
const DefaultMaxSamples = 600

// Timings is an in-memory Recorder that keeps a bounded window of durations
// per operation, plus status and error counts. It backs the CLI's stage
// timing report and is the recorder tests assert against.
type Timings struct {
	mu         sync.RWMutex
	maxSamples int
	startTime  time.Time

	operations map[string]*TimeTracker
	statuses   map[string]map[string]int64
	errors     map[string]map[string]int64
}

// TimeTracker tracks timing statistics for one operation.
type TimeTracker struct {
	name      string
	durations []time.Duration
	totalTime time.Duration
	minTime   time.Duration
	maxTime   time.Duration
	count     int64
}

// OperationStats is a point-in-time summary of one operation's timings.
type OperationStats struct {
	Name    string        `json:"name" yaml:"name"`
	Count   int64         `json:"count" yaml:"count"`
	Samples int           `json:"samples" yaml:"samples"`
	Avg     time.Duration `json:"avg" yaml:"avg"`
	Min     time.Duration `json:"min" yaml:"min"`
	Max     time.Duration `json:"max" yaml:"max"`
}

// NewTimings creates a Timings that keeps up to maxSamples durations per
// operation. A non-positive maxSamples uses DefaultMaxSamples.
//
// Arguments:
// - maxSamples: The sliding window size per operation.
//
// Returns:
// - A ready to use Timings recorder.
func NewTimings(maxSamples int) *Timings {
	if maxSamples <= 0 {
		maxSamples = DefaultMaxSamples
	}
	return &Timings{
		maxSamples: maxSamples,
		startTime:  time.Now(),
		operations: make(map[string]*TimeTracker),
		statuses:   make(map[string]map[string]int64),
		errors:     make(map[string]map[string]int64),
	}
}

// StartOperation begins timing an operation.
//
// Arguments:
// - name: The name of the operation to track
//
// Returns:
// - A function to call when the operation completes
func (t *Timings) StartOperation(name string) func() {
	start := time.Now()
	return func() {
		t.record(name, time.Since(start))
	}
}

// RecordDuration implements Recorder.
func (t *Timings) RecordDuration(operation string, seconds float64) {
	t.record(operation, time.Duration(seconds*float64(time.Second)))
}

// RecordOperation implements Recorder.
func (t *Timings) RecordOperation(operation, status string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	bump(t.statuses, operation, status)
}

// RecordError implements Recorder.
func (t *Timings) RecordError(operation, category string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	bump(t.errors, operation, category)
}

func bump(counts map[string]map[string]int64, key, label string) {
	inner, ok := counts[key]
	if !ok {
		inner = make(map[string]int64)
		counts[key] = inner
	}
	inner[label]++
}

// record adds a duration to the operation's window, evicting the oldest
// sample once the window is full. Min and max cover the whole lifetime.
func (t *Timings) record(name string, duration time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tracker, exists := t.operations[name]
	if !exists {
		tracker = &TimeTracker{
			name:    name,
			minTime: duration,
			maxTime: duration,
		}
		t.operations[name] = tracker
	}

	tracker.durations = append(tracker.durations, duration)
	if len(tracker.durations) > t.maxSamples {
		tracker.totalTime -= tracker.durations[0]
		tracker.durations = tracker.durations[1:]
	}

	tracker.totalTime += duration
	tracker.count++

	if duration < tracker.minTime {
		tracker.minTime = duration
	}
	if duration > tracker.maxTime {
		tracker.maxTime = duration
	}
}

// Stats returns the summary for one operation and whether it was seen.
func (t *Timings) Stats(name string) (OperationStats, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	tracker, ok := t.operations[name]
	if !ok {
		return OperationStats{}, false
	}
	return tracker.stats(), true
}

// Snapshot returns the summaries of every recorded operation, sorted by name.
func (t *Timings) Snapshot() []OperationStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]OperationStats, 0, len(t.operations))
	for _, tracker := range t.operations {
		out = append(out, tracker.stats())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// StatusCount returns how many times operation finished with status.
func (t *Timings) StatusCount(operation, status string) int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.statuses[operation][status]
}

// ErrorCount returns how many errors of category operation reported.
func (t *Timings) ErrorCount(operation, category string) int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.errors[operation][category]
}

func (tr *TimeTracker) stats() OperationStats {
	s := OperationStats{
		Name:    tr.name,
		Count:   tr.count,
		Samples: len(tr.durations),
		Min:     tr.minTime,
		Max:     tr.maxTime,
	}
	if len(tr.durations) > 0 {
		s.Avg = tr.totalTime / time.Duration(len(tr.durations))
	}
	return s
}

// Report writes a human-readable timing report to w.
//
// Arguments:
// - w: The destination writer.
//
// Returns:
// - error if writing fails.
func (t *Timings) Report(w io.Writer) error {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	t.mu.RLock()
	uptime := time.Since(t.startTime)
	t.mu.RUnlock()

	if _, err := fmt.Fprintf(w, "PREPROCESS TIMINGS - uptime %v\n", uptime.Truncate(time.Millisecond)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "  Heap Alloc: %s, Total Alloc: %s, GC Cycles: %d\n",
		formatBytes(mem.HeapAlloc), formatBytes(mem.TotalAlloc), mem.NumGC); err != nil {
		return err
	}

	for _, s := range t.Snapshot() {
		if _, err := fmt.Fprintf(w, "  %s: avg=%v, min=%v, max=%v, count=%d\n",
			s.Name,
			s.Avg.Truncate(time.Microsecond),
			s.Min.Truncate(time.Microsecond),
			s.Max.Truncate(time.Microsecond),
			s.Count); err != nil {
			return err
		}
	}
	return nil
}

// formatBytes formats byte counts in human-readable format.
func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
