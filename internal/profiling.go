package internal

import (
	"context"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const memoryStatsInterval = time.Minute

type Profiler struct {
	enabled bool
	logger  *Logger
}

func NewProfiler(cfg *Config, logger *Logger) *Profiler {
	if logger == nil {
		logger = NopLogger()
	}
	return &Profiler{
		enabled: cfg.ProfilingEnabled,
		logger:  logger,
	}
}

func (p *Profiler) Enabled() bool {
	return p.enabled
}

// Mount exposes net/http/pprof under /debug.
func (p *Profiler) Mount(r chi.Router) {
	if !p.enabled {
		return
	}
	r.Mount("/debug", middleware.Profiler())

	p.logger.Info("profiler_mounted").
		Component("profiler").
		Operation("mount").
		Meta("path", "/debug/pprof").
		Log()
}

func (p *Profiler) LogMemoryStats() {
	if !p.enabled {
		return
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	p.logger.Info("memory_stats").
		Component("profiler").
		Operation("log_stats").
		Meta("alloc_mb", bToMb(m.Alloc)).
		Meta("total_alloc_mb", bToMb(m.TotalAlloc)).
		Meta("sys_mb", bToMb(m.Sys)).
		Meta("gc_cycles", m.NumGC).
		Meta("goroutines", runtime.NumGoroutine()).
		Log()
}

// StartPeriodicMemoryLogging logs runtime memory stats until ctx is done.
func (p *Profiler) StartPeriodicMemoryLogging(ctx context.Context) {
	if !p.enabled {
		return
	}

	go func() {
		ticker := time.NewTicker(memoryStatsInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.LogMemoryStats()
			}
		}
	}()

	p.logger.Info("periodic_memory_logging_started").
		Component("profiler").
		Operation("start_periodic").
		Log()
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
