package quality

import (
	"errors"
	"log"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/aquasense/backend/internal/metrics"
	"github.com/aquasense/backend/internal/models"
)

// ErrUnavailable is returned by Predict when no statistical prediction can
// be made, either because the model artifact never loaded or because
// evaluation failed. Callers are expected to fall back to the rule-based
// advisory path rather than treat this as fatal.
var ErrUnavailable = errors.New("quality: prediction unavailable")

// PredictionResult is the classifier output for one reading.
type PredictionResult struct {
	Label         string              `json:"label"`
	Class         int                 `json:"class"`
	Confidence    float64             `json:"confidence"`
	Probabilities [NumClasses]float64 `json:"probabilities"`
	Features      FeatureVector       `json:"features"`
	Missing       MissingReport       `json:"missing"`
}

// Classifier owns the lifecycle of the water-quality model. The artifact is
// read once at construction; a failed load leaves the classifier permanently
// degraded for this instance and every Predict call returns ErrUnavailable.
type Classifier struct {
	forest *Forest // nil when the artifact failed to load
}

// NewClassifier loads the model artifact from path. Load failure is logged
// once and does not error: the caller gets a degraded but usable classifier.
func NewClassifier(path string) *Classifier {
	forest, err := LoadForest(path)
	if err != nil {
		log.Printf("quality: model load failed, statistical predictions disabled: %v", err)
		metrics.ModelLoaded.Set(0)
		return &Classifier{}
	}
	log.Printf("quality: model loaded from %s (%d trees)", path, forest.NumTrees())
	metrics.ModelLoaded.Set(1)
	return &Classifier{forest: forest}
}

// Ready reports whether the model artifact loaded.
func (c *Classifier) Ready() bool {
	return c.forest != nil
}

// Predict assembles the feature vector for a reading and evaluates the
// model. It never panics or propagates an evaluation failure: anything that
// goes wrong is converted to ErrUnavailable so a broader tank-analysis
// request can still complete. Safe for concurrent use.
func (c *Classifier) Predict(reading models.SensorReading) (result *PredictionResult, err error) {
	if c.forest == nil {
		metrics.PredictionFailures.Inc()
		return nil, ErrUnavailable
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("quality: prediction panic: %v", r)
			metrics.PredictionFailures.Inc()
			result, err = nil, ErrUnavailable
		}
	}()

	start := time.Now()
	features, missing := Assemble(reading)
	probs := c.forest.Proba(features)
	class := floats.MaxIdx(probs[:])
	metrics.InferenceDuration.Observe(time.Since(start).Seconds())
	metrics.PredictionsTotal.WithLabelValues(Labels[class]).Inc()

	return &PredictionResult{
		Label:         Labels[class],
		Class:         class,
		Confidence:    probs[class],
		Probabilities: probs,
		Features:      features,
		Missing:       missing,
	}, nil
}
