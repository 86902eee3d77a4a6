// Package neural provides the fixed-topology feedforward controllers that
// drive cell behavior.
package neural

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Output indices of the controller's final layer.
const (
	OutSpinLeft = iota
	OutSpinRight
	OutThrust
	OutShoot
)

// Net is a fully connected feedforward network with sigmoid activations.
// The topology is fixed at construction; mutation only perturbs values.
type Net struct {
	arch    []int
	weights []*mat.Dense    // layer l maps arch[l] -> arch[l+1], shape arch[l+1] x arch[l]
	biases  []*mat.VecDense // layer l has arch[l+1] entries
}

// New creates a network with the given layer widths. Weights and biases are
// drawn uniformly from [-1, 1].
func New(rng *rand.Rand, arch []int) *Net {
	if len(arch) < 2 {
		panic(fmt.Sprintf("neural: need at least input and output layers, got %v", arch))
	}
	n := &Net{arch: append([]int(nil), arch...)}
	for l := 0; l < len(arch)-1; l++ {
		in, out := arch[l], arch[l+1]
		w := make([]float64, out*in)
		for i := range w {
			w[i] = rng.Float64()*2 - 1
		}
		b := make([]float64, out)
		for i := range b {
			b[i] = rng.Float64()*2 - 1
		}
		n.weights = append(n.weights, mat.NewDense(out, in, w))
		n.biases = append(n.biases, mat.NewVecDense(out, b))
	}
	return n
}

// Arch returns a copy of the layer widths.
func (n *Net) Arch() []int {
	return append([]int(nil), n.arch...)
}

// Predict runs the network and returns the activations of every layer.
// Index 0 is a copy of the input; the last entry is the output layer.
func (n *Net) Predict(input []float64) [][]float64 {
	if len(input) != n.arch[0] {
		panic(fmt.Sprintf("neural: input has %d values, network expects %d", len(input), n.arch[0]))
	}
	acts := make([][]float64, len(n.arch))
	acts[0] = append([]float64(nil), input...)

	x := mat.NewVecDense(len(input), append([]float64(nil), input...))
	for l, w := range n.weights {
		out := mat.NewVecDense(n.arch[l+1], nil)
		out.MulVec(w, x)
		out.AddVec(out, n.biases[l])
		raw := out.RawVector().Data
		for i := range raw {
			raw[i] = sigmoid(raw[i])
		}
		acts[l+1] = append([]float64(nil), raw...)
		x = out
	}
	return acts
}

// Mutate perturbs each weight and bias independently: with probability rate
// it is shifted by a value drawn uniformly from [-variation, variation].
// Returns the number of values changed.
func (n *Net) Mutate(rng *rand.Rand, rate, variation float64) int {
	changed := 0
	perturb := func(data []float64) {
		for i := range data {
			if rng.Float64() < rate {
				data[i] += (rng.Float64()*2 - 1) * variation
				changed++
			}
		}
	}
	for l := range n.weights {
		perturb(n.weights[l].RawMatrix().Data)
		perturb(n.biases[l].RawVector().Data)
	}
	n.checkTopology()
	return changed
}

// Clone returns a deep copy that shares no storage with n.
func (n *Net) Clone() *Net {
	c := &Net{
		arch:    append([]int(nil), n.arch...),
		weights: make([]*mat.Dense, len(n.weights)),
		biases:  make([]*mat.VecDense, len(n.biases)),
	}
	for l := range n.weights {
		c.weights[l] = mat.DenseCopyOf(n.weights[l])
		c.biases[l] = mat.VecDenseCopyOf(n.biases[l])
	}
	return c
}

// checkTopology panics if any layer no longer matches the declared widths.
func (n *Net) checkTopology() {
	if len(n.weights) != len(n.arch)-1 || len(n.biases) != len(n.arch)-1 {
		panic("neural: layer count changed")
	}
	for l, w := range n.weights {
		r, c := w.Dims()
		if r != n.arch[l+1] || c != n.arch[l] || n.biases[l].Len() != n.arch[l+1] {
			panic(fmt.Sprintf("neural: layer %d shape changed", l))
		}
	}
}

// sigmoid is the logistic function.
func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// LayerWeights holds one layer in flattened row-major form.
type LayerWeights struct {
	W []float64 `json:"w"` // [out * in]
	B []float64 `json:"b"` // [out]
}

// BrainWeights holds flattened network weights for serialization.
type BrainWeights struct {
	Arch   []int          `json:"arch"`
	Layers []LayerWeights `json:"layers"`
}

// MarshalWeights flattens the network weights.
func (n *Net) MarshalWeights() BrainWeights {
	bw := BrainWeights{Arch: n.Arch(), Layers: make([]LayerWeights, len(n.weights))}
	for l := range n.weights {
		bw.Layers[l] = LayerWeights{
			W: append([]float64(nil), n.weights[l].RawMatrix().Data...),
			B: append([]float64(nil), n.biases[l].RawVector().Data...),
		}
	}
	return bw
}

// FromWeights rebuilds a network from flattened weights.
func FromWeights(bw BrainWeights) (*Net, error) {
	if len(bw.Arch) < 2 || len(bw.Layers) != len(bw.Arch)-1 {
		return nil, fmt.Errorf("brain weights: %d layers for arch %v", len(bw.Layers), bw.Arch)
	}
	n := &Net{arch: append([]int(nil), bw.Arch...)}
	for l, lw := range bw.Layers {
		in, out := bw.Arch[l], bw.Arch[l+1]
		if len(lw.W) != in*out || len(lw.B) != out {
			return nil, fmt.Errorf("brain weights: layer %d has %d weights and %d biases, want %d and %d",
				l, len(lw.W), len(lw.B), in*out, out)
		}
		n.weights = append(n.weights, mat.NewDense(out, in, append([]float64(nil), lw.W...)))
		n.biases = append(n.biases, mat.NewVecDense(out, append([]float64(nil), lw.B...)))
	}
	return n, nil
}

// MarshalJSON implements json.Marshaler.
func (n *Net) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.MarshalWeights())
}
