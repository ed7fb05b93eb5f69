package quality

import (
	"database/sql"

	"github.com/aquasense/backend/internal/models"
)

// NumFeatures is the input width of the quality model. The model was trained
// on exactly 14 parameters in a fixed order; both the order and the defaults
// below are contracts of the trained artifact.
const NumFeatures = 14

// FeatureVector is a complete, ordered model input. Every slot holds either a
// measured value or a default; no slot is ever left empty.
type FeatureVector [NumFeatures]float64

// MissingReport names the dimensions that received a default instead of a
// measured value for one inference call.
type MissingReport struct {
	// Dimensions lists every defaulted dimension in vector order.
	Dimensions []string `json:"dimensions"`
	// Untracked are permanently defaulted: the tank system has no sensor
	// for them.
	Untracked []string `json:"untracked"`
	// Unmeasured are trackable dimensions absent from this reading.
	Unmeasured []string `json:"unmeasured"`
}

type dimension struct {
	name string
	def  float64
	// value extracts the trackable attribute from a reading; nil for the
	// eight untracked dimensions.
	value func(models.SensorReading) sql.NullFloat64
}

// dimensions holds the 14 model inputs in training order. Defaults are safe
// mid-range aquaculture values.
var dimensions = [NumFeatures]dimension{
	{"temperature", 26.0, func(r models.SensorReading) sql.NullFloat64 { return r.Temperature }},
	{"turbidity", 5.0, func(r models.SensorReading) sql.NullFloat64 { return r.Turbidity }},
	{"dissolved_oxygen", 7.0, func(r models.SensorReading) sql.NullFloat64 { return r.DissolvedOxygen }},
	{"BOD", 3.0, nil},
	{"CO2", 5.0, nil},
	{"ph", 7.5, func(r models.SensorReading) sql.NullFloat64 { return r.PH }},
	{"Alkalinity", 100.0, nil},
	{"Hardness", 150.0, nil},
	{"Calcium", 60.0, nil},
	{"ammonia", 0.01, func(r models.SensorReading) sql.NullFloat64 { return r.Ammonia }},
	{"nitrite", 0.01, func(r models.SensorReading) sql.NullFloat64 { return r.Nitrite }},
	{"Phosphorus", 0.05, nil},
	{"H2S", 0.001, nil},
	{"Plankton", 5000.0, nil},
}

// DimensionNames returns the 14 dimension names in model order.
func DimensionNames() []string {
	names := make([]string, NumFeatures)
	for i, d := range dimensions {
		names[i] = d.name
	}
	return names
}

// Assemble maps a partial sensor reading onto the complete feature vector.
// Missing values are never an error: trackable dimensions fall back to their
// reading defaults, untracked dimensions always use theirs, and every
// defaulted slot is named in the report.
func Assemble(r models.SensorReading) (FeatureVector, MissingReport) {
	var vec FeatureVector
	var rep MissingReport

	for i, d := range dimensions {
		if d.value == nil {
			vec[i] = d.def
			rep.Dimensions = append(rep.Dimensions, d.name)
			rep.Untracked = append(rep.Untracked, d.name)
			continue
		}
		if v := d.value(r); v.Valid {
			vec[i] = v.Float64
			continue
		}
		vec[i] = d.def
		rep.Dimensions = append(rep.Dimensions, d.name)
		rep.Unmeasured = append(rep.Unmeasured, d.name)
	}

	return vec, rep
}
