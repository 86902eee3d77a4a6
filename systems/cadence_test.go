package systems

import (
	"sync"
	"testing"
)

func TestCadenceFiresOnInterval(t *testing.T) {
	c := NewCadence(0.5)
	const dt = 0.1

	fired := 0
	for i := 0; i < 50; i++ {
		if c.Advance(dt) {
			fired++
		}
	}
	// 5 seconds at 0.5s interval, allowing for float accumulation
	if fired < 9 || fired > 10 {
		t.Errorf("fired %d times, want ~10", fired)
	}
}

func TestCadenceZeroIntervalAlwaysFires(t *testing.T) {
	c := NewCadence(0)
	for i := 0; i < 3; i++ {
		if !c.Advance(0.01) {
			t.Error("zero-interval cadence did not fire")
		}
	}
}

func TestCadenceLargeStepFiresOnce(t *testing.T) {
	c := NewCadence(1)
	if !c.Advance(5) {
		t.Fatal("expected fire")
	}
	if c.Advance(0.1) {
		t.Error("backlog should be dropped after a large step")
	}
}

func TestHeartbeatReady(t *testing.T) {
	h := NewHeartbeat(1)

	// beat at 0: phase 0.3 is ready once 0.3s passed
	if h.Ready(0.2, 0.3) {
		t.Error("ready before phase elapsed")
	}
	if !h.Ready(0.3, 0.3) {
		t.Error("not ready at phase")
	}

	now := 0.0
	for i := 0; i < 4; i++ {
		now += 0.25
		h.Advance(0.25, now)
	}
	if since := h.SinceBeat(now); since > 1e-9 {
		t.Errorf("since beat = %v, want 0 right after reset", since)
	}
	if h.Ready(now, 0.5) {
		t.Error("ready immediately after reset")
	}
}

func TestHeartbeatReadyAtPhaseEdge(t *testing.T) {
	h := NewHeartbeat(1)
	for _, phase := range []float64{0.1, 0.3, 0.7} {
		if !h.Ready(phase, phase) {
			t.Errorf("phase %v not ready at since beat %v", phase, phase)
		}
	}
}

func TestIDAllocatorUnique(t *testing.T) {
	var a IDAllocator
	seen := make(map[uint32]bool)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 250; j++ {
				id := a.Next()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != 1000 {
		t.Errorf("got %d unique ids, want 1000", len(seen))
	}
	for id := uint32(1); id <= 1000; id++ {
		if !seen[id] {
			t.Errorf("id %d never allocated", id)
		}
	}
}
