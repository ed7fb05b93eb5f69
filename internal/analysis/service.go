// Package analysis composes storage, the rule-based advisory, the
// statistical water-quality model and the disease detector into the
// tank-level reports the API serves.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/aquasense/backend/internal/advisor"
	"github.com/aquasense/backend/internal/disease"
	"github.com/aquasense/backend/internal/models"
	"github.com/aquasense/backend/internal/quality"
	"github.com/aquasense/backend/internal/store"
)

// narrationTimeout bounds the optional text-generation call so a slow
// upstream cannot stall an analysis request.
const narrationTimeout = 20 * time.Second

// ErrTankNotFound reports an analysis request for a tank that does not
// exist.
var ErrTankNotFound = errors.New("analysis: tank not found")

// statusPenalty maps the rule-based verdict to a deduction from a perfect
// health score.
var statusPenalty = map[advisor.Status]int{
	advisor.StatusExcellent: 0,
	advisor.StatusGood:      5,
	advisor.StatusFair:      15,
	advisor.StatusPoor:      30,
	advisor.StatusCritical:  50,
	advisor.StatusUnknown:   25,
}

// severityPenalty deducts for the worst detected disease.
var severityPenalty = map[string]int{
	"low":      5,
	"medium":   15,
	"high":     30,
	"critical": 50,
}

// TankAnalysis is the full report for one tank at the time of its latest
// reading.
type TankAnalysis struct {
	Tank           *models.Tank              `json:"tank"`
	Reading        *models.SensorReading     `json:"reading,omitempty"`
	Assessment     advisor.Assessment        `json:"assessment"`
	Prediction     *quality.PredictionResult `json:"prediction,omitempty"`
	ModelAvailable bool                      `json:"model_available"`
	HealthScore    int                       `json:"health_score"`
	Alerts         []string                  `json:"alerts"`
	Narrative      string                    `json:"narrative,omitempty"`
	GeneratedAt    time.Time                 `json:"generated_at"`
}

// DiseaseReport is the outcome of analyzing one fish photo.
type DiseaseReport struct {
	Detections  []disease.Detection `json:"detections"`
	Severity    string              `json:"severity"`
	Urgent      bool                `json:"urgent"`
	HealthScore int                 `json:"health_score"`
	Healthy     bool                `json:"healthy"`
	AnalyzedAt  time.Time           `json:"analyzed_at"`
}

// Service runs tank analyses. The classifier and narrator may be degraded or
// nil; the rule-based assessment always runs.
type Service struct {
	store      *store.Store
	classifier *quality.Classifier
	diseases   *disease.Classifier
	narrator   *advisor.Narrator
}

// New wires an analysis service. narrator may be nil to skip narration.
func New(st *store.Store, classifier *quality.Classifier, diseases *disease.Classifier, narrator *advisor.Narrator) *Service {
	return &Service{store: st, classifier: classifier, diseases: diseases, narrator: narrator}
}

// AnalyzeTank builds the full report for a tank from its latest reading. The
// statistical prediction and the narration are best effort: their failure
// never fails the analysis.
func (s *Service) AnalyzeTank(ctx context.Context, tankID string) (*TankAnalysis, error) {
	tank, err := s.store.GetTank(tankID)
	if err != nil {
		return nil, fmt.Errorf("analysis: load tank: %w", err)
	}
	if tank == nil {
		return nil, ErrTankNotFound
	}

	reading, err := s.store.GetLatestReading(tankID)
	if err != nil {
		return nil, fmt.Errorf("analysis: load latest reading: %w", err)
	}

	report := &TankAnalysis{
		Tank:        tank,
		Reading:     reading,
		GeneratedAt: time.Now().UTC(),
	}

	var r models.SensorReading
	if reading != nil {
		r = *reading
	}
	report.Assessment = advisor.AssessReading(r)

	if reading != nil {
		pred, err := s.classifier.Predict(r)
		switch {
		case err == nil:
			report.Prediction = pred
			report.ModelAvailable = true
			s.recordPrediction(reading, pred)
		case errors.Is(err, quality.ErrUnavailable):
			log.Printf("analysis: tank %s: statistical prediction unavailable, rule-based assessment only", tankID)
		default:
			log.Printf("analysis: tank %s: prediction error: %v", tankID, err)
		}
	}

	report.HealthScore = healthScore(report.Assessment.Status, report.Prediction)
	report.Alerts = buildAlerts(report.Assessment, report.Prediction)

	if s.narrator != nil {
		nctx, cancel := context.WithTimeout(ctx, narrationTimeout)
		defer cancel()
		text, err := s.narrator.Narrate(nctx, tank, report.Assessment, report.Prediction)
		if err != nil {
			log.Printf("analysis: tank %s: narration skipped: %v", tankID, err)
		} else {
			report.Narrative = text
		}
	}

	return report, nil
}

// recordPrediction writes the audit row for a classifier run. An insert
// failure is logged, not propagated.
func (s *Service) recordPrediction(reading *models.SensorReading, pred *quality.PredictionResult) {
	missing, err := json.Marshal(pred.Missing)
	if err != nil {
		missing = []byte("{}")
	}
	p := &models.Prediction{
		ReadingID:     reading.ID,
		TankID:        reading.TankID,
		Label:         pred.Label,
		Confidence:    pred.Confidence,
		ProbExcellent: pred.Probabilities[0],
		ProbGood:      pred.Probabilities[1],
		ProbPoor:      pred.Probabilities[2],
		MissingJSON:   string(missing),
	}
	if err := s.store.InsertPrediction(p); err != nil {
		log.Printf("analysis: record prediction for reading %d: %v", reading.ID, err)
	}
}

// DetectDisease analyzes a base64-encoded fish photo. When no inference
// service is configured the report comes back empty and healthy-unknown
// rather than failing.
func (s *Service) DetectDisease(ctx context.Context, imageBase64 string) (*DiseaseReport, error) {
	detections, err := s.diseases.Detect(ctx, imageBase64)
	if err != nil {
		return nil, fmt.Errorf("analysis: disease detection: %w", err)
	}

	diseased := false
	for _, d := range detections {
		if !d.Healthy {
			diseased = true
			break
		}
	}

	severity := disease.Severity(detections)
	report := &DiseaseReport{
		Detections:  detections,
		Severity:    severity,
		Urgent:      diseased && (severity == "high" || severity == "critical"),
		HealthScore: clampScore(100 - severityPenalty[severity]),
		Healthy:     !diseased,
		AnalyzedAt:  time.Now().UTC(),
	}
	if report.Healthy {
		report.HealthScore = 100
	}
	return report, nil
}

func healthScore(status advisor.Status, pred *quality.PredictionResult) int {
	score := 100 - statusPenalty[status]

	// A confident Poor verdict from the model costs extra even when the
	// measured subset looked acceptable.
	if pred != nil && pred.Label == "Poor" && pred.Confidence >= 0.6 {
		score -= 20
	}
	return clampScore(score)
}

func buildAlerts(a advisor.Assessment, pred *quality.PredictionResult) []string {
	var alerts []string

	if a.Status == advisor.StatusCritical || a.Status == advisor.StatusPoor {
		for _, p := range a.Parameters {
			if !p.OK {
				alerts = append(alerts, p.Issue)
			}
		}
	}
	if pred != nil && pred.Label == "Poor" {
		alerts = append(alerts, fmt.Sprintf("water-quality model predicts Poor conditions (%.0f%% confidence)", pred.Confidence*100))
	}
	return alerts
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
