package disease

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/aquasense/backend/internal/metrics"
)

// InferenceClient talks to the hosted disease-model inference service. The
// Keras model itself runs out of process; this client ships the preprocessed
// tensor and receives the class probability vector.
type InferenceClient struct {
	baseURL string
	client  *http.Client
}

func NewInferenceClient(baseURL string) *InferenceClient {
	return &InferenceClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type inferRequest struct {
	Shape  []int     `json:"shape"`
	Inputs []float32 `json:"inputs"`
}

type inferResponse struct {
	Probabilities []float64 `json:"probabilities"`
}

// Predict posts a preprocessed image tensor and returns the model's class
// probabilities. Transient upstream failures are retried with exponential
// backoff; 4xx responses are not.
func (c *InferenceClient) Predict(ctx context.Context, tensor []float32) ([]float64, error) {
	payload, err := json.Marshal(inferRequest{
		Shape:  []int{1, InputSize, InputSize, 3},
		Inputs: tensor,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/predict", bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("inference call: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("inference service: status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(fmt.Errorf("inference service: status %d: %s", resp.StatusCode, string(b)))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 2 * time.Minute
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		metrics.DiseaseInferenceTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	var data inferResponse
	if err := json.Unmarshal(body, &data); err != nil {
		metrics.DiseaseInferenceTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(data.Probabilities) == 0 {
		metrics.DiseaseInferenceTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("inference service returned no probabilities")
	}

	metrics.DiseaseInferenceTotal.WithLabelValues("ok").Inc()
	return data.Probabilities, nil
}
