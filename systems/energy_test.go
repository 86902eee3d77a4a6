package systems

import (
	"sync"
	"testing"
)

func newTestLedger() *Ledger {
	return NewLedger(100, 4000, 10)
}

func TestLedgerDecayCreatesAtBase(t *testing.T) {
	l := newTestLedger()

	if created := l.Decay(1, 5, 0); !created {
		t.Error("first decay should create the entry")
	}
	if got := l.Energy(1); got != 100 {
		t.Errorf("energy = %v, want base 100", got)
	}

	l.Decay(1, 7.5, 1)
	e, ok := l.Get(1)
	if !ok {
		t.Fatal("entry missing")
	}
	if e.Energy != 92.5 {
		t.Errorf("energy = %v, want 92.5", e.Energy)
	}
	if e.Touched != 1 {
		t.Errorf("touched = %v, want 1", e.Touched)
	}
}

func TestLedgerCreditClamped(t *testing.T) {
	l := newTestLedger()
	l.Decay(1, 0, 0)

	l.Credit(1, 3950, 0)
	if got := l.Credit(1, 70, 0); got != 4000 {
		t.Errorf("energy = %v, want clamp at 4000", got)
	}

	// 3990 + 70 also clamps to exactly max
	l2 := newTestLedger()
	l2.Credit(2, 3890, 0)
	if got := l2.Energy(2); got != 3990 {
		t.Fatalf("setup energy = %v, want 3990", got)
	}
	if got := l2.Credit(2, 70, 0); got != 4000 {
		t.Errorf("energy = %v, want 4000", got)
	}
}

func TestLedgerCreditCreatesEntry(t *testing.T) {
	l := newTestLedger()
	if got := l.Credit(9, 70, 3); got != 170 {
		t.Errorf("energy = %v, want base+70 = 170", got)
	}
}

func TestLedgerPenalizeMissingIsNoop(t *testing.T) {
	l := newTestLedger()
	if l.Penalize(3, 5, 0) {
		t.Error("penalize reported success on missing entry")
	}
	if _, ok := l.Get(3); ok {
		t.Error("penalize created an entry")
	}

	l.Decay(3, 0, 0)
	if !l.Penalize(3, 5, 1) {
		t.Error("penalize failed on existing entry")
	}
	if got := l.Energy(3); got != 95 {
		t.Errorf("energy = %v, want 95", got)
	}
}

func TestLedgerPurge(t *testing.T) {
	l := newTestLedger()
	l.Decay(1, 0, 0)
	l.Decay(2, 0, 5)

	if n := l.Purge(10); n != 0 {
		t.Errorf("purged %d at exactly ttl, want 0", n)
	}
	if n := l.Purge(10.5); n != 1 {
		t.Errorf("purged %d, want 1", n)
	}
	if _, ok := l.Get(1); ok {
		t.Error("stale entry survived purge")
	}
	if _, ok := l.Get(2); !ok {
		t.Error("fresh entry was purged")
	}
}

func TestLedgerConcurrentCredit(t *testing.T) {
	l := NewLedger(0, 1e9, 10)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				l.Credit(1, 1, 0)
			}
		}()
	}
	wg.Wait()

	if got := l.Energy(1); got != 8000 {
		t.Errorf("energy = %v, want 8000", got)
	}
}
