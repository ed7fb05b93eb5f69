package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/aquasense/backend/internal/metrics"
	"github.com/aquasense/backend/internal/models"
	"github.com/aquasense/backend/internal/quality"
	"github.com/aquasense/backend/internal/store"
)

// classifyBatchSize caps how many backlogged readings one sweep classifies.
const classifyBatchSize = 200

// Scheduler runs the background ingest jobs: sweeping unclassified readings
// through the quality model and importing laboratory results from FTP.
type Scheduler struct {
	store            *store.Store
	classifier       *quality.Classifier
	lab              *LabClient
	classifyInterval time.Duration
	labInterval      time.Duration
}

// NewScheduler wires the background jobs. lab may be nil when no FTP drop is
// configured.
func NewScheduler(st *store.Store, classifier *quality.Classifier, lab *LabClient) *Scheduler {
	return &Scheduler{
		store:            st,
		classifier:       classifier,
		lab:              lab,
		classifyInterval: 10 * time.Minute,
		labInterval:      6 * time.Hour,
	}
}

func (s *Scheduler) Run(ctx context.Context) {
	s.classifySweep()
	s.importLabResults()

	classifyTicker := time.NewTicker(s.classifyInterval)
	labTicker := time.NewTicker(s.labInterval)
	defer classifyTicker.Stop()
	defer labTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("scheduler: shutting down")
			return
		case <-classifyTicker.C:
			s.classifySweep()
		case <-labTicker.C:
			s.importLabResults()
		}
	}
}

// RunOnce executes both jobs a single time, for the ingest-once CLI path.
func (s *Scheduler) RunOnce() {
	s.classifySweep()
	s.importLabResults()
}

// classifySweep classifies readings that have no stored prediction yet. When
// the model is unavailable the backlog simply waits for the next restart
// with a valid artifact.
func (s *Scheduler) classifySweep() {
	if !s.classifier.Ready() {
		return
	}

	readings, err := s.store.GetUnclassifiedReadings(classifyBatchSize)
	if err != nil {
		log.Printf("scheduler: load unclassified readings: %v", err)
		return
	}
	if len(readings) == 0 {
		return
	}

	classified := 0
	for _, r := range readings {
		pred, err := s.classifier.Predict(r)
		if err != nil {
			if errors.Is(err, quality.ErrUnavailable) {
				return
			}
			log.Printf("scheduler: classify reading %d: %v", r.ID, err)
			continue
		}

		missing, err := json.Marshal(pred.Missing)
		if err != nil {
			missing = []byte("{}")
		}
		p := &models.Prediction{
			ReadingID:     r.ID,
			TankID:        r.TankID,
			Label:         pred.Label,
			Confidence:    pred.Confidence,
			ProbExcellent: pred.Probabilities[0],
			ProbGood:      pred.Probabilities[1],
			ProbPoor:      pred.Probabilities[2],
			MissingJSON:   string(missing),
		}
		if err := s.store.InsertPrediction(p); err != nil {
			log.Printf("scheduler: store prediction for reading %d: %v", r.ID, err)
			continue
		}
		classified++
		metrics.ReadingsClassified.Inc()
	}

	log.Printf("scheduler: classified %d backlogged readings", classified)
}

// importLabResults pulls the supplier FTP drop and upserts new samples.
func (s *Scheduler) importLabResults() {
	if s.lab == nil {
		return
	}

	log.Println("scheduler: importing lab results")
	results, parseErrors, err := s.lab.FetchResults()
	if err != nil {
		log.Printf("scheduler: fetch lab results: %v", err)
		return
	}
	if parseErrors > 0 {
		log.Printf("scheduler: lab import skipped %d malformed rows", parseErrors)
	}

	imported := 0
	for i := range results {
		inserted, err := s.store.UpsertLabResult(&results[i])
		if err != nil {
			log.Printf("scheduler: store lab sample %s: %v", results[i].SampleID, err)
			continue
		}
		if inserted {
			imported++
			metrics.LabResultsImported.Inc()
		}
	}

	log.Printf("scheduler: imported %d new lab samples (%d fetched)", imported, len(results))
}
