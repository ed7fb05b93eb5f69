package disease

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"sort"
)

const (
	// confidenceThreshold drops marginal class scores from the result.
	confidenceThreshold = 0.2
	// healthyThreshold: "Healthy Fish" is only reported when the model is
	// quite sure, so a weak healthy score never hides a likely disease.
	healthyThreshold = 0.7
	// maxResults caps the detections returned per image.
	maxResults = 3
)

// Detection is one ranked disease prediction with catalog details attached.
type Detection struct {
	Info
	Confidence float64 `json:"confidence"`
	// Healthy marks the model's healthy class so consumers never treat a
	// confident "no disease" call as a disease finding.
	Healthy bool `json:"healthy"`
}

// Classifier ranks remote model output into farmer-facing detections. When
// no inference service is configured the classifier is permanently degraded
// and detects nothing, which keeps image-less deployments working.
type Classifier struct {
	client *InferenceClient
	labels map[int]string
}

func NewClassifier(serviceURL, labelMapPath string) *Classifier {
	labels := LoadLabelMap(labelMapPath)
	if serviceURL == "" {
		log.Printf("disease: no inference service configured, image detection disabled")
		return &Classifier{labels: labels}
	}
	return &Classifier{client: NewInferenceClient(serviceURL), labels: labels}
}

// Ready reports whether an inference service is configured.
func (c *Classifier) Ready() bool {
	return c.client != nil
}

// Detect runs the full image path: base64 decode, preprocess, remote
// inference, ranking. Returns an empty result without error when detection
// is disabled.
func (c *Classifier) Detect(ctx context.Context, imageBase64 string) ([]Detection, error) {
	if c.client == nil {
		return nil, nil
	}

	raw, err := base64.StdEncoding.DecodeString(imageBase64)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}

	tensor, err := Preprocess(raw)
	if err != nil {
		return nil, err
	}

	probs, err := c.client.Predict(ctx, tensor)
	if err != nil {
		return nil, err
	}

	return c.rank(probs), nil
}

// rank applies the model's post-processing contract: sort by confidence,
// drop scores below the threshold, suppress weak healthy calls, keep top 3.
func (c *Classifier) rank(probs []float64) []Detection {
	indices := make([]int, len(probs))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return probs[indices[a]] > probs[indices[b]]
	})

	var detections []Detection
	for _, idx := range indices {
		confidence := probs[idx]
		if confidence < confidenceThreshold {
			continue
		}

		name, ok := c.labels[idx]
		if !ok {
			log.Printf("disease: no label for class index %d", idx)
			continue
		}
		if name == healthyLabel && confidence < healthyThreshold {
			continue
		}

		detections = append(detections, Detection{
			Info:       InfoFor(name),
			Confidence: confidence,
			Healthy:    name == healthyLabel,
		})
		if len(detections) >= maxResults {
			break
		}
	}
	return detections
}

// Severity grades a detection set by the strongest disease confidence.
// Healthy detections carry no severity.
func Severity(detections []Detection) string {
	var max float64
	for _, d := range detections {
		if !d.Healthy && d.Confidence > max {
			max = d.Confidence
		}
	}
	switch {
	case max == 0:
		return "low"
	case max >= 0.8:
		return "critical"
	case max >= 0.6:
		return "high"
	case max >= 0.4:
		return "medium"
	default:
		return "low"
	}
}
