package components

import "testing"

func TestFitnessWindowKeepsNewest(t *testing.T) {
	w := NewFitnessWindow(10)
	for i := 1; i <= 12; i++ {
		w.Push(float32(i))
	}

	if w.Len() != 10 {
		t.Fatalf("len = %d, want 10", w.Len())
	}
	// 1 and 2 evicted: mean of 3..12
	if got := w.Mean(); got != 7.5 {
		t.Errorf("mean = %v, want 7.5", got)
	}
}

func TestFitnessWindowEmptyMean(t *testing.T) {
	var w FitnessWindow
	if got := w.Mean(); got != 0 {
		t.Errorf("empty mean = %v, want 0", got)
	}
}

func TestFitnessWindowZeroValueLimit(t *testing.T) {
	var w FitnessWindow
	for i := 0; i < 15; i++ {
		w.Push(1)
	}
	if w.Len() != DefaultFitnessWindow {
		t.Errorf("len = %d, want %d", w.Len(), DefaultFitnessWindow)
	}
}

func TestFitnessWindowPartialMean(t *testing.T) {
	w := NewFitnessWindow(10)
	w.Push(2)
	w.Push(4)
	if got := w.Mean(); got != 3 {
		t.Errorf("mean = %v, want 3", got)
	}
}

func TestCellDisplacementAbsolute(t *testing.T) {
	c := Cell{BirthX: 10, BirthY: 10}
	dx, dy := c.Displacement(Position{X: 4, Y: 13})
	if dx != 6 || dy != 3 {
		t.Errorf("displacement = (%v,%v), want (6,3)", dx, dy)
	}
}
