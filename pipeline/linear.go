package pipeline

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"slices"
)

// Artifact is the portable export of a fitted linear pipeline: a one-hot
// encoder over the categorical columns, a standard scaler over the numeric
// columns, and a linear regressor on top.
type Artifact struct {
	Columns     []string                      `json:"columns"`
	Intercept   float64                       `json:"intercept"`
	Numeric     map[string]NumericFeature     `json:"numeric"`
	Categorical map[string]map[string]float64 `json:"categorical"`
	Target      string                        `json:"target"` // "" or "log1p"
}

// NumericFeature is a scaled numeric input: coef * (x - mean) / scale.
type NumericFeature struct {
	Coef  float64 `json:"coef"`
	Mean  float64 `json:"mean"`
	Scale float64 `json:"scale"`
}

// Linear evaluates an Artifact. It is immutable and safe for concurrent use.
type Linear struct {
	artifact Artifact
}

// LoadLinear reads an exported artifact from path.
func LoadLinear(path string) (*Linear, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline artifact %s: %w", path, err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline artifact %s: %w", path, err)
	}
	return NewLinear(a)
}

// NewLinear validates a and returns a pipeline evaluating it. The artifact
// must declare exactly FeatureColumns, in order.
func NewLinear(a Artifact) (*Linear, error) {
	if !slices.Equal(a.Columns, FeatureColumns) {
		return nil, fmt.Errorf("pipeline columns %v do not match feature columns %v", a.Columns, FeatureColumns)
	}
	probe := FeatureRow{}
	for name, f := range a.Numeric {
		if _, ok := probe.Numeric(name); !ok {
			return nil, fmt.Errorf("pipeline declares unknown numeric column %q", name)
		}
		if f.Scale == 0 {
			return nil, fmt.Errorf("numeric column %q has zero scale", name)
		}
	}
	for name := range a.Categorical {
		if _, ok := probe.Categorical(name); !ok {
			return nil, fmt.Errorf("pipeline declares unknown categorical column %q", name)
		}
	}
	switch a.Target {
	case "", "log1p":
	default:
		return nil, fmt.Errorf("unsupported target transform %q", a.Target)
	}
	return &Linear{artifact: a}, nil
}

// Predict implements Pipeline. Category values never seen in training add
// nothing to the score.
func (l *Linear) Predict(rows []FeatureRow) ([]float64, error) {
	out := make([]float64, len(rows))
	for i, row := range rows {
		score := l.artifact.Intercept
		for name, f := range l.artifact.Numeric {
			x, _ := row.Numeric(name)
			score += f.Coef * (x - f.Mean) / f.Scale
		}
		for name, weights := range l.artifact.Categorical {
			v, _ := row.Categorical(name)
			score += weights[v]
		}
		if l.artifact.Target == "log1p" {
			score = math.Expm1(score)
		}
		if math.IsNaN(score) || math.IsInf(score, 0) {
			return nil, fmt.Errorf("row %d: prediction is not finite", i)
		}
		out[i] = score
	}
	return out, nil
}
