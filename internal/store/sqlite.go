package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aquasense/backend/internal/models"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func newID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

func (s *Store) CreateTank(t *models.Tank) error {
	if t.ID == "" {
		t.ID = newID()
	}
	if t.Status == "" {
		t.Status = "active"
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	species, err := json.Marshal(t.Species)
	if err != nil {
		return fmt.Errorf("marshal species: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO tanks (id, name, species, capacity_l, current_stock, location, status, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.Name, string(species), t.CapacityL, t.CurrentStock, t.Location, t.Status, t.Notes, t.CreatedAt, t.UpdatedAt)
	return err
}

func (s *Store) GetTank(id string) (*models.Tank, error) {
	row := s.db.QueryRow(`
		SELECT id, name, species, capacity_l, current_stock, location, status, notes, created_at, updated_at
		FROM tanks WHERE id = ?
	`, id)
	return scanTank(row)
}

func (s *Store) ListTanks() ([]models.Tank, error) {
	rows, err := s.db.Query(`
		SELECT id, name, species, capacity_l, current_stock, location, status, notes, created_at, updated_at
		FROM tanks ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tanks []models.Tank
	for rows.Next() {
		t, err := scanTank(rows)
		if err != nil {
			return nil, err
		}
		tanks = append(tanks, *t)
	}
	return tanks, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTank(row rowScanner) (*models.Tank, error) {
	var t models.Tank
	var species string
	err := row.Scan(&t.ID, &t.Name, &species, &t.CapacityL, &t.CurrentStock, &t.Location, &t.Status, &t.Notes, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(species), &t.Species); err != nil {
		return nil, fmt.Errorf("unmarshal species: %w", err)
	}
	return &t, nil
}

func (s *Store) UpdateTank(t *models.Tank) error {
	t.UpdatedAt = time.Now().UTC()

	species, err := json.Marshal(t.Species)
	if err != nil {
		return fmt.Errorf("marshal species: %w", err)
	}

	res, err := s.db.Exec(`
		UPDATE tanks
		SET name = ?, species = ?, capacity_l = ?, current_stock = ?, location = ?, status = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`, t.Name, string(species), t.CapacityL, t.CurrentStock, t.Location, t.Status, t.Notes, t.UpdatedAt, t.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *Store) DeleteTank(id string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM tanks WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *Store) InsertReading(r *models.SensorReading) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.Exec(`
		INSERT INTO sensor_readings (tank_id, temperature, turbidity, dissolved_oxygen, ph, ammonia, nitrite, nitrate, salinity, notes, quality_flags, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.TankID, r.Temperature, r.Turbidity, r.DissolvedOxygen, r.PH, r.Ammonia, r.Nitrite, r.Nitrate, r.Salinity, r.Notes, r.QualityFlags, r.CreatedAt)
	if err != nil {
		return err
	}
	r.ID, err = res.LastInsertId()
	return err
}

func (s *Store) GetReadings(tankID string, limit int) ([]models.SensorReading, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(`
		SELECT id, tank_id, temperature, turbidity, dissolved_oxygen, ph, ammonia, nitrite, nitrate, salinity, notes, quality_flags, created_at
		FROM sensor_readings
		WHERE tank_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, tankID, limit)
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

func (s *Store) GetLatestReading(tankID string) (*models.SensorReading, error) {
	row := s.db.QueryRow(`
		SELECT id, tank_id, temperature, turbidity, dissolved_oxygen, ph, ammonia, nitrite, nitrate, salinity, notes, quality_flags, created_at
		FROM sensor_readings
		WHERE tank_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, tankID)

	var r models.SensorReading
	err := row.Scan(&r.ID, &r.TankID, &r.Temperature, &r.Turbidity, &r.DissolvedOxygen, &r.PH, &r.Ammonia, &r.Nitrite, &r.Nitrate, &r.Salinity, &r.Notes, &r.QualityFlags, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}
