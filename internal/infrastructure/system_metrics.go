package infrastructure

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// SystemMetrics records process memory after each pass, so the bounded
// memory of the streaming readers can be checked on real inputs.
type SystemMetrics struct {
	heapInUse     metric.Int64Gauge
	totalAlloc    metric.Int64Gauge
	gcCount       metric.Int64Gauge
	processUptime metric.Float64Gauge
	startTime     time.Time
}

// NewSystemMetrics creates the runtime gauges on meter
func NewSystemMetrics(meter metric.Meter) (*SystemMetrics, error) {
	heapInUse, err := meter.Int64Gauge(
		"system_heap_inuse_bytes",
		metric.WithDescription("Heap memory in use"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	totalAlloc, err := meter.Int64Gauge(
		"system_memory_allocated_bytes",
		metric.WithDescription("Cumulative bytes allocated by the Go runtime"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	gcCount, err := meter.Int64Gauge(
		"system_gc_count",
		metric.WithDescription("Completed garbage collection cycles"),
	)
	if err != nil {
		return nil, err
	}

	processUptime, err := meter.Float64Gauge(
		"system_process_uptime_seconds",
		metric.WithDescription("Process uptime in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &SystemMetrics{
		heapInUse:     heapInUse,
		totalAlloc:    totalAlloc,
		gcCount:       gcCount,
		processUptime: processUptime,
		startTime:     time.Now(),
	}, nil
}

// SystemStats holds a memory snapshot
type SystemStats struct {
	HeapInUse     uint64
	TotalAlloc    uint64
	GCCount       uint32
	ProcessUptime time.Duration
}

// Collect reads runtime memory statistics and records them
func (sm *SystemMetrics) Collect(ctx context.Context) SystemStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	stats := SystemStats{
		HeapInUse:     mem.HeapInuse,
		TotalAlloc:    mem.TotalAlloc,
		GCCount:       mem.NumGC,
		ProcessUptime: time.Since(sm.startTime),
	}

	sm.heapInUse.Record(ctx, int64(stats.HeapInUse))
	sm.totalAlloc.Record(ctx, int64(stats.TotalAlloc))
	sm.gcCount.Record(ctx, int64(stats.GCCount))
	sm.processUptime.Record(ctx, stats.ProcessUptime.Seconds())

	return stats
}

// LogValue renders the snapshot for structured logs
func (s SystemStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("heap_inuse_mb", s.HeapInUse/1024/1024),
		slog.Uint64("total_alloc_mb", s.TotalAlloc/1024/1024),
		slog.Int("gc_count", int(s.GCCount)),
		slog.Duration("uptime", s.ProcessUptime),
	)
}
