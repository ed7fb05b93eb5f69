package store

import (
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aquasense/backend/internal/models"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := New(db)
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func testTank(t *testing.T, store *Store) *models.Tank {
	t.Helper()
	tank := &models.Tank{
		Name:         "Grow-out A",
		Species:      []string{"Tilapia", "Catfish"},
		CapacityL:    5000,
		CurrentStock: 420,
		Location:     "North shed",
	}
	if err := store.CreateTank(tank); err != nil {
		t.Fatalf("CreateTank: %v", err)
	}
	return tank
}

func TestTankCRUD(t *testing.T) {
	store := setupTestStore(t)
	tank := testTank(t, store)

	if tank.ID == "" {
		t.Fatal("CreateTank did not assign an id")
	}
	if tank.Status != "active" {
		t.Errorf("Status = %q, want active default", tank.Status)
	}

	got, err := store.GetTank(tank.ID)
	if err != nil {
		t.Fatalf("GetTank: %v", err)
	}
	if got == nil {
		t.Fatal("GetTank returned nil")
	}
	if got.Name != "Grow-out A" {
		t.Errorf("Name = %q, want 'Grow-out A'", got.Name)
	}
	if len(got.Species) != 2 || got.Species[0] != "Tilapia" {
		t.Errorf("Species = %v, want [Tilapia Catfish]", got.Species)
	}

	got.CurrentStock = 400
	got.Status = "maintenance"
	if err := store.UpdateTank(got); err != nil {
		t.Fatalf("UpdateTank: %v", err)
	}

	updated, err := store.GetTank(tank.ID)
	if err != nil {
		t.Fatalf("GetTank after update: %v", err)
	}
	if updated.CurrentStock != 400 || updated.Status != "maintenance" {
		t.Errorf("update not persisted: stock=%d status=%q", updated.CurrentStock, updated.Status)
	}

	tanks, err := store.ListTanks()
	if err != nil {
		t.Fatalf("ListTanks: %v", err)
	}
	if len(tanks) != 1 {
		t.Errorf("len(tanks) = %d, want 1", len(tanks))
	}

	deleted, err := store.DeleteTank(tank.ID)
	if err != nil {
		t.Fatalf("DeleteTank: %v", err)
	}
	if !deleted {
		t.Error("DeleteTank reported no row deleted")
	}

	gone, err := store.GetTank(tank.ID)
	if err != nil {
		t.Fatalf("GetTank after delete: %v", err)
	}
	if gone != nil {
		t.Error("tank still present after delete")
	}
}

func TestUpdateTank_NotFound(t *testing.T) {
	store := setupTestStore(t)
	err := store.UpdateTank(&models.Tank{ID: "missing", Species: []string{}})
	if err != sql.ErrNoRows {
		t.Errorf("UpdateTank error = %v, want sql.ErrNoRows", err)
	}
}

func TestReadings(t *testing.T) {
	store := setupTestStore(t)
	tank := testTank(t, store)

	first := &models.SensorReading{
		TankID:      tank.ID,
		Temperature: sql.NullFloat64{Float64: 25.5, Valid: true},
		PH:          sql.NullFloat64{Float64: 7.1, Valid: true},
		CreatedAt:   time.Now().UTC().Add(-time.Hour),
	}
	if err := store.InsertReading(first); err != nil {
		t.Fatalf("InsertReading: %v", err)
	}

	second := &models.SensorReading{
		TankID:          tank.ID,
		Temperature:     sql.NullFloat64{Float64: 26.0, Valid: true},
		DissolvedOxygen: sql.NullFloat64{Float64: 7.8, Valid: true},
	}
	if err := store.InsertReading(second); err != nil {
		t.Fatalf("InsertReading: %v", err)
	}

	latest, err := store.GetLatestReading(tank.ID)
	if err != nil {
		t.Fatalf("GetLatestReading: %v", err)
	}
	if latest == nil || latest.ID != second.ID {
		t.Fatalf("latest = %+v, want reading %d", latest, second.ID)
	}
	if !latest.DissolvedOxygen.Valid || latest.DissolvedOxygen.Float64 != 7.8 {
		t.Errorf("DissolvedOxygen = %+v, want 7.8", latest.DissolvedOxygen)
	}
	if latest.Ammonia.Valid {
		t.Error("Ammonia came back valid for a reading that never measured it")
	}

	readings, err := store.GetReadings(tank.ID, 10)
	if err != nil {
		t.Fatalf("GetReadings: %v", err)
	}
	if len(readings) != 2 {
		t.Errorf("len(readings) = %d, want 2", len(readings))
	}
}

func TestGetLatestReading_Empty(t *testing.T) {
	store := setupTestStore(t)
	tank := testTank(t, store)

	latest, err := store.GetLatestReading(tank.ID)
	if err != nil {
		t.Fatalf("GetLatestReading: %v", err)
	}
	if latest != nil {
		t.Errorf("latest = %+v, want nil", latest)
	}
}

func TestPredictionsAudit(t *testing.T) {
	store := setupTestStore(t)
	tank := testTank(t, store)

	reading := &models.SensorReading{TankID: tank.ID}
	if err := store.InsertReading(reading); err != nil {
		t.Fatalf("InsertReading: %v", err)
	}

	pred := &models.Prediction{
		ReadingID:     reading.ID,
		TankID:        tank.ID,
		Label:         "Good",
		Confidence:    0.61,
		ProbExcellent: 0.3,
		ProbGood:      0.61,
		ProbPoor:      0.09,
		MissingJSON:   `["BOD","CO2"]`,
	}
	if err := store.InsertPrediction(pred); err != nil {
		t.Fatalf("InsertPrediction: %v", err)
	}

	// Duplicate for the same reading is ignored.
	if err := store.InsertPrediction(pred); err != nil {
		t.Fatalf("duplicate InsertPrediction: %v", err)
	}

	preds, err := store.GetPredictions(tank.ID, 10)
	if err != nil {
		t.Fatalf("GetPredictions: %v", err)
	}
	if len(preds) != 1 {
		t.Fatalf("len(preds) = %d, want 1", len(preds))
	}
	if preds[0].Label != "Good" || preds[0].Confidence != 0.61 {
		t.Errorf("prediction = %+v", preds[0])
	}

	unclassified, err := store.GetUnclassifiedReadings(10)
	if err != nil {
		t.Fatalf("GetUnclassifiedReadings: %v", err)
	}
	if len(unclassified) != 0 {
		t.Errorf("len(unclassified) = %d, want 0", len(unclassified))
	}
}

func TestGetUnclassifiedReadings(t *testing.T) {
	store := setupTestStore(t)
	tank := testTank(t, store)

	for i := 0; i < 3; i++ {
		if err := store.InsertReading(&models.SensorReading{TankID: tank.ID}); err != nil {
			t.Fatalf("InsertReading: %v", err)
		}
	}

	unclassified, err := store.GetUnclassifiedReadings(10)
	if err != nil {
		t.Fatalf("GetUnclassifiedReadings: %v", err)
	}
	if len(unclassified) != 3 {
		t.Errorf("len(unclassified) = %d, want 3", len(unclassified))
	}
}

func TestLabResults(t *testing.T) {
	store := setupTestStore(t)
	tank := testTank(t, store)

	lr := &models.LabResult{
		SampleID:        "LAB-2026-0042",
		TankID:          tank.ID,
		SampledAt:       time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC),
		Temperature:     26.1,
		DissolvedOxygen: 7.4,
		PH:              7.6,
		Alkalinity:      98,
		Plankton:        4800,
	}

	inserted, err := store.UpsertLabResult(lr)
	if err != nil {
		t.Fatalf("UpsertLabResult: %v", err)
	}
	if !inserted {
		t.Error("first upsert reported no insert")
	}

	inserted, err = store.UpsertLabResult(lr)
	if err != nil {
		t.Fatalf("duplicate UpsertLabResult: %v", err)
	}
	if inserted {
		t.Error("duplicate sample id was inserted twice")
	}

	results, err := store.GetLabResults(tank.ID, 10)
	if err != nil {
		t.Fatalf("GetLabResults: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	if results[0].SampleID != "LAB-2026-0042" || results[0].Alkalinity != 98 {
		t.Errorf("result = %+v", results[0])
	}
}
