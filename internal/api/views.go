package api

import (
	"database/sql"
	"time"

	"github.com/aquasense/backend/internal/models"
)

// JSON views for the storage models. Null-able measurements become pointers
// so absence survives the round trip.

type tankJSON struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Species      []string  `json:"species"`
	CapacityL    float64   `json:"capacity_l"`
	CurrentStock int64     `json:"current_stock"`
	Location     string    `json:"location,omitempty"`
	Status       string    `json:"status"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func tankView(t *models.Tank) tankJSON {
	species := t.Species
	if species == nil {
		species = []string{}
	}
	return tankJSON{
		ID:           t.ID,
		Name:         t.Name,
		Species:      species,
		CapacityL:    t.CapacityL,
		CurrentStock: t.CurrentStock,
		Location:     t.Location,
		Status:       t.Status,
		Notes:        t.Notes,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

type readingJSON struct {
	ID              int64     `json:"id"`
	TankID          string    `json:"tank_id"`
	Temperature     *float64  `json:"temperature,omitempty"`
	Turbidity       *float64  `json:"turbidity,omitempty"`
	DissolvedOxygen *float64  `json:"dissolved_oxygen,omitempty"`
	PH              *float64  `json:"ph,omitempty"`
	Ammonia         *float64  `json:"ammonia,omitempty"`
	Nitrite         *float64  `json:"nitrite,omitempty"`
	Nitrate         *float64  `json:"nitrate,omitempty"`
	Salinity        *float64  `json:"salinity,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	QualityFlags    string    `json:"quality_flags,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func readingView(r *models.SensorReading) readingJSON {
	v := readingJSON{
		ID:              r.ID,
		TankID:          r.TankID,
		Temperature:     nullPtr(r.Temperature),
		Turbidity:       nullPtr(r.Turbidity),
		DissolvedOxygen: nullPtr(r.DissolvedOxygen),
		PH:              nullPtr(r.PH),
		Ammonia:         nullPtr(r.Ammonia),
		Nitrite:         nullPtr(r.Nitrite),
		Nitrate:         nullPtr(r.Nitrate),
		Salinity:        nullPtr(r.Salinity),
		QualityFlags:    r.QualityFlags,
		CreatedAt:       r.CreatedAt,
	}
	if r.Notes.Valid {
		v.Notes = r.Notes.String
	}
	return v
}

type predictionJSON struct {
	ID            int64     `json:"id"`
	ReadingID     int64     `json:"reading_id"`
	TankID        string    `json:"tank_id"`
	Label         string    `json:"label"`
	Confidence    float64   `json:"confidence"`
	ProbExcellent float64   `json:"prob_excellent"`
	ProbGood      float64   `json:"prob_good"`
	ProbPoor      float64   `json:"prob_poor"`
	CreatedAt     time.Time `json:"created_at"`
}

func predictionView(p *models.Prediction) predictionJSON {
	return predictionJSON{
		ID:            p.ID,
		ReadingID:     p.ReadingID,
		TankID:        p.TankID,
		Label:         p.Label,
		Confidence:    p.Confidence,
		ProbExcellent: p.ProbExcellent,
		ProbGood:      p.ProbGood,
		ProbPoor:      p.ProbPoor,
		CreatedAt:     p.CreatedAt,
	}
}

type labResultJSON struct {
	ID              int64     `json:"id"`
	SampleID        string    `json:"sample_id"`
	TankID          string    `json:"tank_id"`
	SampledAt       time.Time `json:"sampled_at"`
	Temperature     float64   `json:"temperature"`
	Turbidity       float64   `json:"turbidity"`
	DissolvedOxygen float64   `json:"dissolved_oxygen"`
	BOD             float64   `json:"bod"`
	CO2             float64   `json:"co2"`
	PH              float64   `json:"ph"`
	Alkalinity      float64   `json:"alkalinity"`
	Hardness        float64   `json:"hardness"`
	Calcium         float64   `json:"calcium"`
	Ammonia         float64   `json:"ammonia"`
	Nitrite         float64   `json:"nitrite"`
	Phosphorus      float64   `json:"phosphorus"`
	H2S             float64   `json:"h2s"`
	Plankton        float64   `json:"plankton"`
	CreatedAt       time.Time `json:"created_at"`
}

func labResultView(lr *models.LabResult) labResultJSON {
	return labResultJSON{
		ID:              lr.ID,
		SampleID:        lr.SampleID,
		TankID:          lr.TankID,
		SampledAt:       lr.SampledAt,
		Temperature:     lr.Temperature,
		Turbidity:       lr.Turbidity,
		DissolvedOxygen: lr.DissolvedOxygen,
		BOD:             lr.BOD,
		CO2:             lr.CO2,
		PH:              lr.PH,
		Alkalinity:      lr.Alkalinity,
		Hardness:        lr.Hardness,
		Calcium:         lr.Calcium,
		Ammonia:         lr.Ammonia,
		Nitrite:         lr.Nitrite,
		Phosphorus:      lr.Phosphorus,
		H2S:             lr.H2S,
		Plankton:        lr.Plankton,
		CreatedAt:       lr.CreatedAt,
	}
}

func nullPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func toNull(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}
