// Package benchmark runs preprocessing scenarios and reports their throughput.
package benchmark

import "time"

// PerformanceMetrics captures the measured performance of one scenario.
//
// FramesPerSecond counts only frames that preprocessed successfully; failed
// iterations are reported through ErrorRate.
type PerformanceMetrics struct {
	Scenario          Scenario      `json:"scenario" yaml:"scenario"`
	Timestamp         time.Time     `json:"timestamp" yaml:"timestamp"`
	TotalDuration     time.Duration `json:"total_duration" yaml:"total_duration"`
	ResizeDuration    time.Duration `json:"resize_duration" yaml:"resize_duration"`
	PlanarizeDuration time.Duration `json:"planarize_duration" yaml:"planarize_duration"`
	FramesPerSecond   float64       `json:"frames_per_second" yaml:"frames_per_second"`
	MemoryStats       MemoryMetrics `json:"memory_stats" yaml:"memory_stats"`
	CPUStats          CPUMetrics    `json:"cpu_stats" yaml:"cpu_stats"`
	Checksum          string        `json:"checksum" yaml:"checksum"`
	ErrorRate         float64       `json:"error_rate" yaml:"error_rate"`
}

// MemoryMetrics captures memory usage statistics.
type MemoryMetrics struct {
	AllocBytes      uint64 `json:"alloc_bytes" yaml:"alloc_bytes"`
	TotalAllocBytes uint64 `json:"total_alloc_bytes" yaml:"total_alloc_bytes"`
	SysBytes        uint64 `json:"sys_bytes" yaml:"sys_bytes"`
	NumGC           uint32 `json:"num_gc" yaml:"num_gc"`
	HeapAllocBytes  uint64 `json:"heap_alloc_bytes" yaml:"heap_alloc_bytes"`
	HeapSysBytes    uint64 `json:"heap_sys_bytes" yaml:"heap_sys_bytes"`
}

// CPUMetrics captures CPU information.
type CPUMetrics struct {
	NumCPU int `json:"num_cpu" yaml:"num_cpu"`
}
