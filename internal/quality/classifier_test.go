package quality

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/aquasense/backend/internal/models"
)

// testForest builds a small two-tree ensemble: tree one splits on ammonia
// (index 9), tree two on dissolved oxygen (index 2).
func testForest() forestFile {
	return forestFile{
		Version:     1,
		NumFeatures: NumFeatures,
		Classes:     []string{"Excellent", "Good", "Poor"},
		Trees: []forestTree{
			{Nodes: []forestNode{
				{Feature: 9, Threshold: 0.5, Left: 1, Right: 2},
				{Left: -1, Right: -1, Values: [NumClasses]float64{8, 2, 0}},
				{Left: -1, Right: -1, Values: [NumClasses]float64{0, 1, 9}},
			}},
			{Nodes: []forestNode{
				{Feature: 2, Threshold: 4.0, Left: 1, Right: 2},
				{Left: -1, Right: -1, Values: [NumClasses]float64{0, 2, 8}},
				{Left: -1, Right: -1, Values: [NumClasses]float64{6, 4, 0}},
			}},
		},
	}
}

func writeModel(t *testing.T, file forestFile) string {
	t.Helper()
	data, err := json.Marshal(file)
	if err != nil {
		t.Fatalf("marshal model: %v", err)
	}
	path := filepath.Join(t.TempDir(), "aqua_sense_model.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write model: %v", err)
	}
	return path
}

func TestClassifier_Predict(t *testing.T) {
	c := NewClassifier(writeModel(t, testForest()))
	if !c.Ready() {
		t.Fatal("classifier not ready after successful load")
	}

	reading := models.SensorReading{
		Temperature:     val(26.0),
		DissolvedOxygen: val(8.0),
		PH:              val(7.5),
		Ammonia:         val(0.01),
		Nitrite:         val(0.01),
	}

	result, err := c.Predict(reading)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}

	if result.Label != "Excellent" {
		t.Errorf("Label = %q, want Excellent", result.Label)
	}
	if result.Class != 0 {
		t.Errorf("Class = %d, want 0", result.Class)
	}
	// Tree one: [0.8, 0.2, 0], tree two: [0.6, 0.4, 0], averaged.
	wantProbs := [NumClasses]float64{0.7, 0.3, 0}
	for i := range wantProbs {
		if math.Abs(result.Probabilities[i]-wantProbs[i]) > 1e-9 {
			t.Errorf("Probabilities[%d] = %v, want %v", i, result.Probabilities[i], wantProbs[i])
		}
	}
	if result.Confidence != result.Probabilities[result.Class] {
		t.Errorf("Confidence = %v, want probability of predicted class %v", result.Confidence, result.Probabilities[result.Class])
	}
}

func TestClassifier_PoorConditions(t *testing.T) {
	c := NewClassifier(writeModel(t, testForest()))

	reading := models.SensorReading{
		Ammonia:         val(2.0),
		DissolvedOxygen: val(3.0),
	}

	result, err := c.Predict(reading)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if result.Label != "Poor" {
		t.Errorf("Label = %q, want Poor", result.Label)
	}
}

func TestClassifier_ProbabilityInvariant(t *testing.T) {
	c := NewClassifier(writeModel(t, testForest()))

	readings := []models.SensorReading{
		{},
		{Ammonia: val(0.9)},
		{DissolvedOxygen: val(2.0), PH: val(6.0)},
		{Temperature: val(26.0), Turbidity: val(30.0), DissolvedOxygen: val(8.0), PH: val(7.5), Ammonia: val(0.01), Nitrite: val(0.01)},
	}

	for i, reading := range readings {
		result, err := c.Predict(reading)
		if err != nil {
			t.Fatalf("reading %d: %v", i, err)
		}

		var sum float64
		maxIdx := 0
		for j, p := range result.Probabilities {
			if p < 0 {
				t.Errorf("reading %d: Probabilities[%d] = %v, want non-negative", i, j, p)
			}
			sum += p
			if p > result.Probabilities[maxIdx] {
				maxIdx = j
			}
		}
		if math.Abs(sum-1.0) > 1e-6 {
			t.Errorf("reading %d: probabilities sum to %v, want 1.0", i, sum)
		}
		if result.Class != maxIdx {
			t.Errorf("reading %d: Class = %d, want arg-max %d", i, result.Class, maxIdx)
		}
		if result.Label != Labels[result.Class] {
			t.Errorf("reading %d: Label = %q, want %q", i, result.Label, Labels[result.Class])
		}
	}
}

func TestClassifier_Deterministic(t *testing.T) {
	c := NewClassifier(writeModel(t, testForest()))
	reading := models.SensorReading{Temperature: val(25.0), PH: val(7.2)}

	first, err := c.Predict(reading)
	if err != nil {
		t.Fatalf("first Predict: %v", err)
	}
	second, err := c.Predict(reading)
	if err != nil {
		t.Fatalf("second Predict: %v", err)
	}

	if first.Probabilities != second.Probabilities {
		t.Errorf("probabilities differ between identical calls: %v vs %v", first.Probabilities, second.Probabilities)
	}
	if first.Features != second.Features {
		t.Errorf("features differ between identical calls")
	}
	if first.Label != second.Label || first.Confidence != second.Confidence {
		t.Errorf("label/confidence differ between identical calls")
	}
}

func TestClassifier_MissingArtifact(t *testing.T) {
	c := NewClassifier(filepath.Join(t.TempDir(), "nope.json"))
	if c.Ready() {
		t.Fatal("classifier ready despite missing artifact")
	}

	_, err := c.Predict(models.SensorReading{Temperature: val(26.0)})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Predict error = %v, want ErrUnavailable", err)
	}

	// Still unavailable on a second call; no retry of the load.
	_, err = c.Predict(models.SensorReading{})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("second Predict error = %v, want ErrUnavailable", err)
	}
}

// A tree whose descent never reaches a leaf must be rejected at load time;
// otherwise evaluation would loop forever with no error to recover from.
func TestClassifier_CyclicArtifactDegrades(t *testing.T) {
	file := testForest()
	file.Trees[0].Nodes[0].Left = 0

	c := NewClassifier(writeModel(t, file))
	if c.Ready() {
		t.Fatal("classifier ready despite cyclic tree")
	}
	if _, err := c.Predict(models.SensorReading{Temperature: val(26.0)}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Predict error = %v, want ErrUnavailable", err)
	}
}

func TestLoadForest_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*forestFile)
	}{
		{"wrong feature count", func(f *forestFile) { f.NumFeatures = 6 }},
		{"wrong class order", func(f *forestFile) { f.Classes = []string{"Poor", "Good", "Excellent"} }},
		{"missing class", func(f *forestFile) { f.Classes = []string{"Excellent", "Good"} }},
		{"no trees", func(f *forestFile) { f.Trees = nil }},
		{"empty tree", func(f *forestFile) { f.Trees = []forestTree{{}} }},
		{"feature out of range", func(f *forestFile) { f.Trees[0].Nodes[0].Feature = 14 }},
		{"child out of range", func(f *forestFile) { f.Trees[0].Nodes[0].Left = 99 }},
		{"negative child", func(f *forestFile) { f.Trees[0].Nodes[0].Right = -2 }},
		{"self-referencing node", func(f *forestFile) { f.Trees[0].Nodes[0].Left = 0 }},
		{"backward child", func(f *forestFile) { f.Trees[1].Nodes[2] = forestNode{Feature: 0, Threshold: 1, Left: 0, Right: 1} }},
		{"empty leaf", func(f *forestFile) { f.Trees[0].Nodes[1].Values = [NumClasses]float64{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := testForest()
			tt.mutate(&file)
			if _, err := LoadForest(writeModel(t, file)); err == nil {
				t.Error("LoadForest accepted an invalid artifact")
			}
		})
	}
}

func TestLoadForest_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadForest(path); err == nil {
		t.Error("LoadForest accepted corrupt data")
	}
}
