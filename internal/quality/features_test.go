package quality

import (
	"database/sql"
	"reflect"
	"testing"

	"github.com/aquasense/backend/internal/models"
)

func val(f float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: f, Valid: true}
}

var untrackedNames = []string{"BOD", "CO2", "Alkalinity", "Hardness", "Calcium", "Phosphorus", "H2S", "Plankton"}

func TestAssemble_FullReading(t *testing.T) {
	reading := models.SensorReading{
		Temperature:     val(26.0),
		Turbidity:       val(30.0),
		DissolvedOxygen: val(8.0),
		PH:              val(7.5),
		Ammonia:         val(0.01),
		Nitrite:         val(0.01),
	}

	vec, rep := Assemble(reading)

	want := FeatureVector{26.0, 30.0, 8.0, 3.0, 5.0, 7.5, 100.0, 150.0, 60.0, 0.01, 0.01, 0.05, 0.001, 5000.0}
	if vec != want {
		t.Errorf("vector = %v, want %v", vec, want)
	}
	if !reflect.DeepEqual(rep.Dimensions, untrackedNames) {
		t.Errorf("Dimensions = %v, want only the 8 untracked names", rep.Dimensions)
	}
	if !reflect.DeepEqual(rep.Untracked, untrackedNames) {
		t.Errorf("Untracked = %v, want %v", rep.Untracked, untrackedNames)
	}
	if len(rep.Unmeasured) != 0 {
		t.Errorf("Unmeasured = %v, want empty", rep.Unmeasured)
	}
}

func TestAssemble_EmptyReading(t *testing.T) {
	vec, rep := Assemble(models.SensorReading{})

	// Every slot still resolves to a default.
	want := FeatureVector{26.0, 5.0, 7.0, 3.0, 5.0, 7.5, 100.0, 150.0, 60.0, 0.01, 0.01, 0.05, 0.001, 5000.0}
	if vec != want {
		t.Errorf("vector = %v, want %v", vec, want)
	}
	if len(rep.Dimensions) != NumFeatures {
		t.Errorf("len(Dimensions) = %d, want %d", len(rep.Dimensions), NumFeatures)
	}
	if !reflect.DeepEqual(rep.Dimensions, DimensionNames()) {
		t.Errorf("Dimensions = %v, want full order %v", rep.Dimensions, DimensionNames())
	}
	if len(rep.Untracked) != 8 {
		t.Errorf("len(Untracked) = %d, want 8", len(rep.Untracked))
	}
	if len(rep.Unmeasured) != 6 {
		t.Errorf("len(Unmeasured) = %d, want 6", len(rep.Unmeasured))
	}
}

func TestAssemble_SparseReading(t *testing.T) {
	reading := models.SensorReading{
		Temperature: val(25.0),
		PH:          val(7.2),
	}

	vec, rep := Assemble(reading)

	want := FeatureVector{25.0, 5.0, 7.0, 3.0, 5.0, 7.2, 100.0, 150.0, 60.0, 0.01, 0.01, 0.05, 0.001, 5000.0}
	if vec != want {
		t.Errorf("vector = %v, want %v", vec, want)
	}
	if len(rep.Dimensions) != 12 {
		t.Errorf("len(Dimensions) = %d, want 12", len(rep.Dimensions))
	}
	wantUnmeasured := []string{"turbidity", "dissolved_oxygen", "ammonia", "nitrite"}
	if !reflect.DeepEqual(rep.Unmeasured, wantUnmeasured) {
		t.Errorf("Unmeasured = %v, want %v", rep.Unmeasured, wantUnmeasured)
	}
}

func TestAssemble_MeasuredZeroIsNotMissing(t *testing.T) {
	reading := models.SensorReading{Ammonia: val(0)}

	vec, rep := Assemble(reading)

	if vec[9] != 0 {
		t.Errorf("ammonia slot = %v, want measured 0", vec[9])
	}
	for _, name := range rep.Unmeasured {
		if name == "ammonia" {
			t.Error("ammonia reported unmeasured despite a measured zero")
		}
	}
}

func TestDimensionNames_Order(t *testing.T) {
	want := []string{
		"temperature", "turbidity", "dissolved_oxygen", "BOD", "CO2", "ph",
		"Alkalinity", "Hardness", "Calcium", "ammonia", "nitrite",
		"Phosphorus", "H2S", "Plankton",
	}
	if got := DimensionNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("DimensionNames() = %v, want %v", got, want)
	}
}
