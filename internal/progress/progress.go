// Package progress turns fractional engine progress into a non-decreasing
// stream of integer percentages for the host.
package progress

import "sync"

// Bridge forwards percentages to a report callback. Reported values never
// decrease between Start calls, so a fallback attempt that restarts at 0%
// stays silent until it overtakes the previous attempt. Safe for concurrent use.
type Bridge struct {
	mu      sync.Mutex
	report  func(int)
	last    int
	started bool
}

// New returns a Bridge reporting through fn. A nil fn discards reports.
func New(fn func(int)) *Bridge {
	if fn == nil {
		fn = func(int) {}
	}
	return &Bridge{report: fn}
}

// Start resets the state for a new job and reports 0.
func (b *Bridge) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last = 0
	b.started = true
	b.report(0)
}

// Update forwards int(fraction*100) if it exceeds the last reported value.
func (b *Bridge) Update(fraction float64) {
	pct := int(fraction * 100)
	if pct > 100 {
		pct = 100
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started || pct <= b.last {
		return
	}
	b.last = pct
	b.report(pct)
}

// Finish makes sure 100 has been reported exactly once, regardless of the
// last engine fraction.
func (b *Bridge) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started && b.last == 100 {
		return
	}
	b.last = 100
	b.report(100)
}

// Last returns the last reported percentage.
func (b *Bridge) Last() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}
