package components

// DefaultFitnessWindow is the number of samples averaged into a fitness score.
const DefaultFitnessWindow = 10

// FitnessWindow is a bounded FIFO of per-decision fitness samples.
// The zero value holds DefaultFitnessWindow samples.
type FitnessWindow struct {
	samples []float32
	limit   int
}

// NewFitnessWindow returns a window holding at most limit samples.
func NewFitnessWindow(limit int) FitnessWindow {
	if limit <= 0 {
		limit = DefaultFitnessWindow
	}
	return FitnessWindow{samples: make([]float32, 0, limit), limit: limit}
}

// Push appends a sample, evicting the oldest when full.
func (w *FitnessWindow) Push(v float32) {
	if w.limit == 0 {
		w.limit = DefaultFitnessWindow
	}
	if len(w.samples) >= w.limit {
		copy(w.samples, w.samples[1:])
		w.samples = w.samples[:len(w.samples)-1]
	}
	w.samples = append(w.samples, v)
}

// Mean returns the arithmetic mean of the stored samples, or 0 when empty.
func (w *FitnessWindow) Mean() float32 {
	if len(w.samples) == 0 {
		return 0
	}
	var sum float32
	for _, v := range w.samples {
		sum += v
	}
	return sum / float32(len(w.samples))
}

// Len returns the number of stored samples.
func (w *FitnessWindow) Len() int {
	return len(w.samples)
}
