package store

import (
	"time"

	"github.com/aquasense/backend/internal/models"
)

func (s *Store) InsertPrediction(p *models.Prediction) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.Exec(`
		INSERT INTO predictions (reading_id, tank_id, label, confidence, prob_excellent, prob_good, prob_poor, missing_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(reading_id) DO NOTHING
	`, p.ReadingID, p.TankID, p.Label, p.Confidence, p.ProbExcellent, p.ProbGood, p.ProbPoor, p.MissingJSON, p.CreatedAt)
	if err != nil {
		return err
	}
	p.ID, _ = res.LastInsertId()
	return nil
}

func (s *Store) GetPredictions(tankID string, limit int) ([]models.Prediction, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(`
		SELECT id, reading_id, tank_id, label, confidence, prob_excellent, prob_good, prob_poor, missing_json, created_at
		FROM predictions
		WHERE tank_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, tankID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var preds []models.Prediction
	for rows.Next() {
		var p models.Prediction
		if err := rows.Scan(&p.ID, &p.ReadingID, &p.TankID, &p.Label, &p.Confidence, &p.ProbExcellent, &p.ProbGood, &p.ProbPoor, &p.MissingJSON, &p.CreatedAt); err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return preds, rows.Err()
}

// GetUnclassifiedReadings returns readings that have no prediction audit row
// yet, oldest first, for the background classification sweep.
func (s *Store) GetUnclassifiedReadings(limit int) ([]models.SensorReading, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT r.id, r.tank_id, r.temperature, r.turbidity, r.dissolved_oxygen, r.ph, r.ammonia, r.nitrite, r.nitrate, r.salinity, r.notes, r.quality_flags, r.created_at
		FROM sensor_readings r
		LEFT JOIN predictions p ON p.reading_id = r.id
		WHERE p.id IS NULL
		ORDER BY r.created_at ASC, r.id ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []models.SensorReading
	for rows.Next() {
		var r models.SensorReading
		if err := rows.Scan(&r.ID, &r.TankID, &r.Temperature, &r.Turbidity, &r.DissolvedOxygen, &r.PH, &r.Ammonia, &r.Nitrite, &r.Nitrate, &r.Salinity, &r.Notes, &r.QualityFlags, &r.CreatedAt); err != nil {
			return nil, err
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}
