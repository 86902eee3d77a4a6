package systems

import "sync/atomic"

// Cadence fires at a fixed interval of simulation time. Leftover time carries
// over so the long-run rate matches the interval.
type Cadence struct {
	interval float64
	elapsed  float64
}

// NewCadence creates a cadence. A non-positive interval fires every step.
func NewCadence(interval float64) *Cadence {
	return &Cadence{interval: interval}
}

// Advance adds dt and reports whether the interval has been reached. It
// fires at most once per call.
func (c *Cadence) Advance(dt float64) bool {
	if c.interval <= 0 {
		return true
	}
	c.elapsed += dt
	if c.elapsed >= c.interval {
		c.elapsed -= c.interval
		if c.elapsed >= c.interval {
			c.elapsed = 0
		}
		return true
	}
	return false
}

// Heartbeat records when a shared one-second clock last reset. Cells compare
// their phase against the time since the last beat to stagger decisions.
type Heartbeat struct {
	cadence *Cadence
	beatAt  float64
}

// NewHeartbeat creates a heartbeat with the given period.
func NewHeartbeat(period float64) *Heartbeat {
	return &Heartbeat{cadence: NewCadence(period)}
}

// Advance moves the clock to now, resetting the beat when the period elapses.
func (h *Heartbeat) Advance(dt, now float64) {
	if h.cadence.Advance(dt) {
		h.beatAt = now
	}
}

// SinceBeat returns seconds elapsed since the last beat.
func (h *Heartbeat) SinceBeat(now float64) float64 {
	return now - h.beatAt
}

// Ready reports whether a cell with the given phase may act this tick.
func (h *Heartbeat) Ready(now, phase float64) bool {
	return h.SinceBeat(now) >= phase
}

// IDAllocator hands out unique cell ids. Ids are never reused.
type IDAllocator struct {
	next atomic.Uint32
}

// Next returns a fresh id. The first id is 1.
func (a *IDAllocator) Next() uint32 {
	return a.next.Add(1)
}
