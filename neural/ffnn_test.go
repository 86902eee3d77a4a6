package neural

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var testArch = []int{3, 8, 4}

func TestNewShapes(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	n := New(rng, testArch)

	if len(n.weights) != 2 {
		t.Fatalf("got %d weight layers, want 2", len(n.weights))
	}
	r, c := n.weights[0].Dims()
	if r != 8 || c != 3 {
		t.Errorf("layer 0 dims = %dx%d, want 8x3", r, c)
	}
	r, c = n.weights[1].Dims()
	if r != 4 || c != 8 {
		t.Errorf("layer 1 dims = %dx%d, want 4x8", r, c)
	}

	for l := range n.weights {
		for _, v := range n.weights[l].RawMatrix().Data {
			if v < -1 || v > 1 {
				t.Fatalf("weight %v outside [-1,1]", v)
			}
		}
	}
}

func TestPredictReturnsAllLayers(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	n := New(rng, testArch)

	input := []float64{0.2, 0.1, 0.1}
	acts := n.Predict(input)

	if len(acts) != 3 {
		t.Fatalf("got %d layers, want 3", len(acts))
	}
	if diff := cmp.Diff(input, acts[0]); diff != "" {
		t.Errorf("input layer mismatch (-want +got):\n%s", diff)
	}
	if len(acts[1]) != 8 || len(acts[2]) != 4 {
		t.Errorf("layer sizes = %d,%d, want 8,4", len(acts[1]), len(acts[2]))
	}
	for _, v := range acts[2] {
		if v <= 0 || v >= 1 {
			t.Errorf("output %v outside (0,1)", v)
		}
	}

	// Mutating the returned input copy must not affect the caller's slice
	acts[0][0] = 99
	if input[0] != 0.2 {
		t.Error("Predict aliased the input slice")
	}
}

func TestPredictDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	n := New(rng, testArch)

	input := []float64{0.5, 0.25, 0.75}
	a := output(n, input)
	b := output(n, input)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("outputs differ between calls:\n%s", diff)
	}
}

func TestPredictPanicsOnWrongInput(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	n := New(rng, testArch)

	defer func() {
		if recover() == nil {
			t.Error("expected panic for wrong input length")
		}
	}()
	n.Predict([]float64{1, 2})
}

func TestMutateZeroRateLeavesWeights(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	n := New(rng, testArch)
	before := n.MarshalWeights()

	if changed := n.Mutate(rng, 0, 0.1); changed != 0 {
		t.Errorf("changed %d values, want 0", changed)
	}
	if diff := cmp.Diff(before, n.MarshalWeights()); diff != "" {
		t.Errorf("weights changed with rate 0:\n%s", diff)
	}
}

func TestMutateBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	n := New(rng, testArch)
	before := n.MarshalWeights()

	const variation = 0.1
	changed := n.Mutate(rng, 1, variation)
	total := 8*3 + 8 + 4*8 + 4
	if changed != total {
		t.Errorf("changed %d values, want %d", changed, total)
	}

	after := n.MarshalWeights()
	for l := range before.Layers {
		for i, v := range before.Layers[l].W {
			d := after.Layers[l].W[i] - v
			if d < -variation || d > variation {
				t.Errorf("layer %d weight %d moved by %v", l, i, d)
			}
		}
	}
	if diff := cmp.Diff(before.Arch, after.Arch); diff != "" {
		t.Errorf("topology changed:\n%s", diff)
	}
}

func TestCloneIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	parent := New(rng, testArch)
	child := parent.Clone()

	if diff := cmp.Diff(parent.MarshalWeights(), child.MarshalWeights()); diff != "" {
		t.Fatalf("clone differs from parent:\n%s", diff)
	}

	child.Mutate(rng, 1, 0.5)
	if cmp.Equal(parent.MarshalWeights(), child.MarshalWeights()) {
		t.Error("mutating the clone changed the parent")
	}
}

func TestWeightsRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	n := New(rng, testArch)

	data, err := json.Marshal(n)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var bw BrainWeights
	if err := json.Unmarshal(data, &bw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	back, err := FromWeights(bw)
	if err != nil {
		t.Fatalf("FromWeights: %v", err)
	}

	input := []float64{0.3, 0.6, 0.9}
	if diff := cmp.Diff(output(n, input), output(back, input)); diff != "" {
		t.Errorf("restored network predicts differently:\n%s", diff)
	}
}

func TestFromWeightsRejectsBadShapes(t *testing.T) {
	bw := BrainWeights{Arch: []int{3, 4}, Layers: []LayerWeights{{W: make([]float64, 5), B: make([]float64, 4)}}}
	if _, err := FromWeights(bw); err == nil {
		t.Error("expected error for wrong weight count")
	}
}

func BenchmarkPredict(b *testing.B) {
	rng := rand.New(rand.NewSource(42))
	n := New(rng, testArch)
	input := []float64{0.5, 0.5, 0.5}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		n.Predict(input)
	}
}

func output(n *Net, input []float64) []float64 {
	acts := n.Predict(input)
	return acts[len(acts)-1]
}
