package profiler

import (
	"log"
	"runtime"
	"time"
)

// Profiler tracks frame pacing and memory statistics. The allocation rate is
// the number to watch: the simulation path is supposed to be allocation-free,
// so a nonzero steady-state rate means something on the frame path regressed.
type Profiler struct {
	frameCount     int
	lastReport     time.Time
	lastFrame      time.Time
	worstFrame     time.Duration
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// NewProfiler creates a new Profiler that reports once per second.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler() *Profiler {
	now := time.Now()
	return &Profiler{
		lastReport:     now,
		lastFrame:      now,
		updateInterval: time.Second,
	}
}

// Tick should be called once per frame. Tracks the worst frame duration in
// the current window and logs FPS, worst frame time, heap usage, allocation
// rate, and GC activity when the report interval elapses.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	now := time.Now()
	frameDuration := now.Sub(p.lastFrame)
	p.lastFrame = now
	if frameDuration > p.worstFrame {
		p.worstFrame = frameDuration
	}
	p.frameCount++

	elapsed := now.Sub(p.lastReport)
	if elapsed < p.updateInterval {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024

	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateKB := float64(allocDelta) / 1024 / elapsed.Seconds()

	gcCount := p.memStats.NumGC
	var lastPauseUs uint64
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 GC pauses.
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
	}

	log.Printf("[Profiler] FPS: %.1f | Worst Frame: %.2f ms | Heap: %.2f MB | Alloc Rate: %.1f KB/s | GC: %d (last: %d µs)",
		fps, float64(p.worstFrame.Microseconds())/1000, allocMB, allocRateKB, gcCount, lastPauseUs)

	p.frameCount = 0
	p.worstFrame = 0
	p.lastReport = now
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
