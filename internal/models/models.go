package models

import (
	"database/sql"
	"time"
)

type Tank struct {
	ID           string
	Name         string
	Species      []string
	CapacityL    float64
	CurrentStock int64
	Location     string
	Status       string // "active", "inactive", "maintenance"
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SensorReading is one water-quality measurement event for a tank. Only six
// of the fields feed the quality model; nitrate, salinity and notes are kept
// for record-keeping. Absence of a value is meaningful, not zero.
type SensorReading struct {
	ID              int64
	TankID          string
	Temperature     sql.NullFloat64 // °C
	Turbidity       sql.NullFloat64 // cm
	DissolvedOxygen sql.NullFloat64 // mg/L
	PH              sql.NullFloat64
	Ammonia         sql.NullFloat64 // mg/L
	Nitrite         sql.NullFloat64 // mg/L
	Nitrate         sql.NullFloat64 // mg/L
	Salinity        sql.NullFloat64 // ppt
	Notes           sql.NullString
	QualityFlags    string
	CreatedAt       time.Time
}

// Prediction is the stored audit record of one classifier run over a reading.
type Prediction struct {
	ID            int64
	ReadingID     int64
	TankID        string
	Label         string
	Confidence    float64
	ProbExcellent float64
	ProbGood      float64
	ProbPoor      float64
	MissingJSON   string
	CreatedAt     time.Time
}

// LabResult is a full laboratory water analysis imported from the supplier
// FTP drop. Unlike sensor readings, lab analyses carry all 14 parameters the
// quality model was trained on.
type LabResult struct {
	ID              int64
	SampleID        string
	TankID          string
	SampledAt       time.Time
	Temperature     float64
	Turbidity       float64
	DissolvedOxygen float64
	BOD             float64
	CO2             float64
	PH              float64
	Alkalinity      float64
	Hardness        float64
	Calcium         float64
	Ammonia         float64
	Nitrite         float64
	Phosphorus      float64
	H2S             float64
	Plankton        float64
	CreatedAt       time.Time
}
