// Package inference loads dense feed-forward scoring models and evaluates
// them on feature vectors. A loaded Model is read-only and safe for
// concurrent use.
package inference

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

var (
	// ErrCorruptArtifact is returned when a model file cannot be decoded or
	// its layer shapes are inconsistent.
	ErrCorruptArtifact = errors.New("corrupt model artifact")

	// ErrInputShape is returned when an input does not match the model input size.
	ErrInputShape = errors.New("input shape mismatch")
)

const (
	ActivationLinear  = "linear"
	ActivationReLU    = "relu"
	ActivationSigmoid = "sigmoid"
	ActivationTanh    = "tanh"
)

// Artifact is the on-disk model layout.
type Artifact struct {
	Schema      string         `json:"schema"`
	InputSize   int            `json:"input_size"`
	Normalize   *Normalization `json:"normalize,omitempty"`
	Layers      []Layer        `json:"layers"`
	OutputScale *float64       `json:"output_scale,omitempty"`
}

// Normalization is applied to inputs before the first layer: (x-mean)/std.
type Normalization struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// Layer is a dense layer. Weights are indexed [output][input].
type Layer struct {
	Weights    [][]float64 `json:"weights"`
	Bias       []float64   `json:"bias"`
	Activation string      `json:"activation,omitempty"`
}

// Model is a validated artifact ready for inference.
type Model struct {
	artifact Artifact
}

// Load reads and validates a model artifact.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	return Decode(data)
}

// Decode validates an in-memory artifact.
func Decode(data []byte) (*Model, error) {
	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArtifact, err)
	}
	if err := validate(artifact); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArtifact, err)
	}
	return &Model{artifact: artifact}, nil
}

// Schema returns the feature schema the model was trained on.
func (m *Model) Schema() string {
	return m.artifact.Schema
}

// InputSize returns the expected input length.
func (m *Model) InputSize() int {
	return m.artifact.InputSize
}

// Predict runs a forward pass and returns the scalar output.
func (m *Model) Predict(input []float64) (float64, error) {
	if len(input) != m.artifact.InputSize {
		return 0, fmt.Errorf("%w: got %d values, want %d", ErrInputShape, len(input), m.artifact.InputSize)
	}

	act := make([]float64, len(input))
	copy(act, input)
	if norm := m.artifact.Normalize; norm != nil {
		for i := range act {
			act[i] = (act[i] - norm.Mean[i]) / norm.Std[i]
		}
	}

	for _, layer := range m.artifact.Layers {
		next := make([]float64, len(layer.Weights))
		for o, row := range layer.Weights {
			sum := layer.Bias[o]
			for i, w := range row {
				sum += w * act[i]
			}
			next[o] = activate(layer.Activation, sum)
		}
		act = next
	}

	if scale := m.artifact.OutputScale; scale != nil {
		return act[0] * *scale, nil
	}
	return act[0], nil
}

func activate(name string, x float64) float64 {
	switch name {
	case ActivationReLU:
		return math.Max(0, x)
	case ActivationSigmoid:
		return 1 / (1 + math.Exp(-x))
	case ActivationTanh:
		return math.Tanh(x)
	default:
		return x
	}
}

func validate(a Artifact) error {
	if a.Schema == "" {
		return fmt.Errorf("schema is required")
	}
	if a.InputSize <= 0 {
		return fmt.Errorf("input_size must be positive")
	}
	if len(a.Layers) == 0 {
		return fmt.Errorf("at least one layer is required")
	}
	if scale := a.OutputScale; scale != nil && (*scale == 0 || !isFinite(*scale)) {
		return fmt.Errorf("output_scale must be finite and non-zero")
	}

	if norm := a.Normalize; norm != nil {
		if len(norm.Mean) != a.InputSize || len(norm.Std) != a.InputSize {
			return fmt.Errorf("normalize length must equal input_size")
		}
		for i, std := range norm.Std {
			if std == 0 || !isFinite(std) || !isFinite(norm.Mean[i]) {
				return fmt.Errorf("normalize[%d] invalid", i)
			}
		}
	}

	width := a.InputSize
	for li, layer := range a.Layers {
		if len(layer.Weights) == 0 {
			return fmt.Errorf("layer %d has no outputs", li)
		}
		if len(layer.Bias) != len(layer.Weights) {
			return fmt.Errorf("layer %d bias length %d, want %d", li, len(layer.Bias), len(layer.Weights))
		}
		switch layer.Activation {
		case "", ActivationLinear, ActivationReLU, ActivationSigmoid, ActivationTanh:
		default:
			return fmt.Errorf("layer %d unknown activation %q", li, layer.Activation)
		}
		for o, row := range layer.Weights {
			if len(row) != width {
				return fmt.Errorf("layer %d row %d has %d weights, want %d", li, o, len(row), width)
			}
			for _, w := range row {
				if !isFinite(w) {
					return fmt.Errorf("layer %d has non-finite weight", li)
				}
			}
			if !isFinite(layer.Bias[o]) {
				return fmt.Errorf("layer %d has non-finite bias", li)
			}
		}
		width = len(layer.Weights)
	}
	if width != 1 {
		return fmt.Errorf("final layer must have 1 output, got %d", width)
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
