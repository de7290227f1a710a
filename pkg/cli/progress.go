package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// ProgressReporter reports progress for long-running operations.
type ProgressReporter interface {
	Start(total int64)
	Increment()
	Finish()
}

// SimpleProgress implements a simple text-based progress reporter.
// Increment is safe to call from many goroutines; rendering is throttled.
type SimpleProgress struct {
	mu         sync.Mutex
	total      int64
	current    atomic.Int64
	started    time.Time
	lastRender time.Time
	interval   time.Duration
	writer     io.Writer
}

// NewProgressReporter creates a new progress reporter that writes to w.
// If w is nil, it defaults to os.Stderr.
func NewProgressReporter(w io.Writer) *SimpleProgress {
	if w == nil {
		w = os.Stderr
	}
	return &SimpleProgress{
		writer:   w,
		interval: 100 * time.Millisecond,
	}
}

// Start initializes the progress reporter with the total number of items.
func (p *SimpleProgress) Start(total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	p.current.Store(0)
	p.started = time.Now()

	p.render()
}

// Increment records one completed item.
func (p *SimpleProgress) Increment() {
	p.current.Add(1)

	if !p.mu.TryLock() {
		return
	}
	defer p.mu.Unlock()

	if time.Since(p.lastRender) >= p.interval {
		p.render()
	}
}

// Finish marks the progress as complete.
func (p *SimpleProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current.Store(p.total)
	p.render()
	fmt.Fprintln(p.writer)
}

// Current returns the number of completed items.
func (p *SimpleProgress) Current() int64 {
	return p.current.Load()
}

func (p *SimpleProgress) render() {
	if p.total == 0 {
		return
	}
	p.lastRender = time.Now()

	current := p.current.Load()
	percent := float64(current) / float64(p.total) * 100
	barWidth := 40
	filled := min(int(float64(barWidth)*percent/100), barWidth)

	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	rate := 0.0
	if elapsed := time.Since(p.started).Seconds(); elapsed > 0 {
		rate = float64(current) / elapsed
	}

	fmt.Fprintf(p.writer, "\rProgress: [%s] %.1f%% (%d/%d) %.1f calls/s",
		bar, percent, current, p.total, rate)
}
