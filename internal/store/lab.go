package store

import (
	"time"

	"github.com/aquasense/backend/internal/models"
)

// UpsertLabResult inserts a laboratory result, ignoring duplicates by sample
// id so the FTP import is safe to re-run.
func (s *Store) UpsertLabResult(lr *models.LabResult) (bool, error) {
	if lr.CreatedAt.IsZero() {
		lr.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.Exec(`
		INSERT INTO lab_results (sample_id, tank_id, sampled_at, temperature, turbidity, dissolved_oxygen, bod, co2, ph, alkalinity, hardness, calcium, ammonia, nitrite, phosphorus, h2s, plankton, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(sample_id) DO NOTHING
	`, lr.SampleID, lr.TankID, lr.SampledAt, lr.Temperature, lr.Turbidity, lr.DissolvedOxygen, lr.BOD, lr.CO2, lr.PH, lr.Alkalinity, lr.Hardness, lr.Calcium, lr.Ammonia, lr.Nitrite, lr.Phosphorus, lr.H2S, lr.Plankton, lr.CreatedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *Store) GetLabResults(tankID string, limit int) ([]models.LabResult, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(`
		SELECT id, sample_id, tank_id, sampled_at, temperature, turbidity, dissolved_oxygen, bod, co2, ph, alkalinity, hardness, calcium, ammonia, nitrite, phosphorus, h2s, plankton, created_at
		FROM lab_results
		WHERE tank_id = ?
		ORDER BY sampled_at DESC
		LIMIT ?
	`, tankID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.LabResult
	for rows.Next() {
		var lr models.LabResult
		if err := rows.Scan(&lr.ID, &lr.SampleID, &lr.TankID, &lr.SampledAt, &lr.Temperature, &lr.Turbidity, &lr.DissolvedOxygen, &lr.BOD, &lr.CO2, &lr.PH, &lr.Alkalinity, &lr.Hardness, &lr.Calcium, &lr.Ammonia, &lr.Nitrite, &lr.Phosphorus, &lr.H2S, &lr.Plankton, &lr.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, lr)
	}
	return results, rows.Err()
}
