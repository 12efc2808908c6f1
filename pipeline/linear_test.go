package pipeline

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleArtifact() Artifact {
	return Artifact{
		Columns:   append([]string(nil), FeatureColumns...),
		Intercept: 5000,
		Numeric: map[string]NumericFeature{
			"duration_in_min": {Coef: 600, Mean: 120, Scale: 60},
			"stops":           {Coef: 1000, Mean: 0, Scale: 1},
		},
		Categorical: map[string]map[string]float64{
			"airline":        {"Indigo": -200, "Vistara": 900},
			"class_category": {"Business": 20000},
		},
	}
}

func TestLinear_Predict(t *testing.T) {
	l, err := NewLinear(sampleArtifact())
	require.NoError(t, err)

	got, err := l.Predict([]FeatureRow{
		{Airline: "Indigo", ClassCategory: "Economy", DurationInMin: 180, Stops: 0},
		{Airline: "Vistara", ClassCategory: "Business", DurationInMin: 120, Stops: 1},
		{Airline: "Unknown Air", DurationInMin: 120},
	})
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.InDelta(t, 5000+600-200, got[0], 1e-9)
	assert.InDelta(t, 5000+1000+900+20000, got[1], 1e-9)
	assert.InDelta(t, 5000, got[2], 1e-9, "unseen categories contribute nothing")
}

func TestLinear_Log1pTarget(t *testing.T) {
	a := sampleArtifact()
	a.Intercept = math.Log1p(8000)
	a.Numeric = nil
	a.Categorical = nil
	a.Target = "log1p"

	l, err := NewLinear(a)
	require.NoError(t, err)

	got, err := l.Predict([]FeatureRow{{}})
	require.NoError(t, err)
	assert.InDelta(t, 8000, got[0], 1e-6)
}

func TestNewLinear_RejectsSchemaDrift(t *testing.T) {
	a := sampleArtifact()
	a.Columns = a.Columns[:11]
	_, err := NewLinear(a)
	assert.ErrorContains(t, err, "do not match feature columns")

	a = sampleArtifact()
	a.Columns[0], a.Columns[1] = a.Columns[1], a.Columns[0]
	_, err = NewLinear(a)
	assert.ErrorContains(t, err, "do not match feature columns")

	a = sampleArtifact()
	a.Numeric["price"] = NumericFeature{Coef: 1, Scale: 1}
	_, err = NewLinear(a)
	assert.ErrorContains(t, err, "unknown numeric column")

	a = sampleArtifact()
	a.Numeric["day"] = NumericFeature{Coef: 1}
	_, err = NewLinear(a)
	assert.ErrorContains(t, err, "zero scale")

	a = sampleArtifact()
	a.Categorical["stops"] = map[string]float64{"0": 1}
	_, err = NewLinear(a)
	assert.ErrorContains(t, err, "unknown categorical column")

	a = sampleArtifact()
	a.Target = "log"
	_, err = NewLinear(a)
	assert.ErrorContains(t, err, "unsupported target")
}

func TestLoadLinear(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"columns": ["airline","from","to","route","class_category","stops_category",
		            "arr_daytime_category","dep_daytime_category","duration_in_min","stops","day","month"],
		"intercept": 4200,
		"categorical": {"route": {"Delhi-Mumbai": 300}}
	}`), 0o644))

	l, err := LoadLinear(path)
	require.NoError(t, err)
	got, err := l.Predict([]FeatureRow{{Route: "Delhi-Mumbai"}})
	require.NoError(t, err)
	assert.InDelta(t, 4500, got[0], 1e-9)

	_, err = LoadLinear(filepath.Join(dir, "missing.json"))
	assert.ErrorContains(t, err, "failed to read pipeline artifact")

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("not json"), 0o644))
	_, err = LoadLinear(bad)
	assert.ErrorContains(t, err, "failed to parse pipeline artifact")
}
