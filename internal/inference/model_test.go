package inference

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

const linearModel = `{
  "schema": "pool-v1",
  "input_size": 3,
  "layers": [{"weights": [[0.5, 0.25, -1]], "bias": [2]}]
}`

func TestDecodeAndPredictLinear(t *testing.T) {
	m, err := Decode([]byte(linearModel))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.Schema() != "pool-v1" || m.InputSize() != 3 {
		t.Fatalf("meta mismatch: %s %d", m.Schema(), m.InputSize())
	}

	got, err := m.Predict([]float64{4, 8, 1})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if got != 5 {
		t.Fatalf("prediction mismatch: %v", got)
	}
}

func TestPredictHiddenLayerAndNormalize(t *testing.T) {
	artifact := `{
	  "schema": "pool-v1",
	  "input_size": 2,
	  "normalize": {"mean": [10, 0], "std": [2, 1]},
	  "layers": [
	    {"weights": [[1, 0], [0, -1]], "bias": [0, 0], "activation": "relu"},
	    {"weights": [[1, 1]], "bias": [0.5], "activation": "linear"}
	  ],
	  "output_scale": 2
	}`
	m, err := Decode([]byte(artifact))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	// normalized [2, 3] -> relu [2, 0] -> 2.5 -> scaled 5
	got, err := m.Predict([]float64{14, 3})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if math.Abs(got-5) > 1e-12 {
		t.Fatalf("prediction mismatch: %v", got)
	}
}

func TestPredictSigmoid(t *testing.T) {
	artifact := `{"schema": "s", "input_size": 1, "layers": [{"weights": [[1]], "bias": [0], "activation": "sigmoid"}]}`
	m, err := Decode([]byte(artifact))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got, err := m.Predict([]float64{0})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if got != 0.5 {
		t.Fatalf("prediction mismatch: %v", got)
	}
}

func TestPredictInputShape(t *testing.T) {
	m, err := Decode([]byte(linearModel))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if _, err := m.Predict([]float64{1, 2}); !errors.Is(err, ErrInputShape) {
		t.Fatalf("expected ErrInputShape, got %v", err)
	}
}

func TestDecodeCorrupt(t *testing.T) {
	cases := map[string]string{
		"not json":          `{"schema":`,
		"missing schema":    `{"input_size": 1, "layers": [{"weights": [[1]], "bias": [0]}]}`,
		"no layers":         `{"schema": "s", "input_size": 1, "layers": []}`,
		"width mismatch":    `{"schema": "s", "input_size": 2, "layers": [{"weights": [[1]], "bias": [0]}]}`,
		"bias mismatch":     `{"schema": "s", "input_size": 1, "layers": [{"weights": [[1]], "bias": []}]}`,
		"multi output":      `{"schema": "s", "input_size": 1, "layers": [{"weights": [[1], [2]], "bias": [0, 0]}]}`,
		"bad activation":    `{"schema": "s", "input_size": 1, "layers": [{"weights": [[1]], "bias": [0], "activation": "gelu"}]}`,
		"zero std":          `{"schema": "s", "input_size": 1, "normalize": {"mean": [0], "std": [0]}, "layers": [{"weights": [[1]], "bias": [0]}]}`,
		"zero input size":   `{"schema": "s", "input_size": 0, "layers": [{"weights": [[]], "bias": [0]}]}`,
		"zero output scale": `{"schema": "s", "input_size": 1, "output_scale": 0, "layers": [{"weights": [[1]], "bias": [0]}]}`,
	}

	for name, artifact := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode([]byte(artifact)); !errors.Is(err, ErrCorruptArtifact) {
				t.Fatalf("expected ErrCorruptArtifact, got %v", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.json")
	if err := os.WriteFile(path, []byte(linearModel), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := Load(path); err != nil {
		t.Fatalf("load: %v", err)
	}

	_, err := Load(filepath.Join(dir, "missing.json"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not exist error, got %v", err)
	}
}

func TestOutputScaleAbsentIsIdentity(t *testing.T) {
	m, err := Decode([]byte(`{"schema": "s", "input_size": 1, "layers": [{"weights": [[3]], "bias": [0]}]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got, err := m.Predict([]float64{2})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if got != 6 {
		t.Fatalf("expected 6, got %v", got)
	}
}
