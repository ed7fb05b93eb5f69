package advisor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/aquasense/backend/internal/metrics"
	"github.com/aquasense/backend/internal/models"
	"github.com/aquasense/backend/internal/quality"
)

const narratorSystemPrompt = "You are an aquaculture water-quality assistant. " +
	"Cross-check the statistical prediction against the measured parameters and " +
	"write a short assessment for a fish farmer. Be direct and practical."

// Narrator produces a human-readable assessment from the rule result and the
// optional statistical prediction, via the hosted text-generation API.
type Narrator struct {
	client openai.Client
	model  string
}

// NewNarrator reads OPENAI_API_KEY for authentication. Narration is an
// optional layer: callers should treat a construction error as "run without
// narration", not as fatal.
func NewNarrator() (*Narrator, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}

	return &Narrator{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  openai.ChatModelGPT4oMini,
	}, nil
}

// Narrate asks the model to reconcile the statistical prediction with the
// measured values. pred may be nil when the classifier was unavailable; the
// narration then covers the measured values alone.
func (n *Narrator) Narrate(ctx context.Context, tank *models.Tank, assessment Assessment, pred *quality.PredictionResult) (string, error) {
	prompt := buildNarrationPrompt(tank, assessment, pred)

	var text string
	operation := func() error {
		resp, err := n.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model: n.model,
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(narratorSystemPrompt),
				openai.UserMessage(prompt),
			},
		})
		if err != nil {
			var apierr *openai.Error
			if errors.As(err, &apierr) && apierr.StatusCode >= 400 && apierr.StatusCode < 500 && apierr.StatusCode != 429 {
				return backoff.Permanent(fmt.Errorf("narration: %w", err))
			}
			return fmt.Errorf("narration: %w", err)
		}
		if len(resp.Choices) == 0 {
			return backoff.Permanent(errors.New("narration: no choices returned"))
		}
		text = resp.Choices[0].Message.Content
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = time.Minute
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		metrics.NarrationsTotal.WithLabelValues("error").Inc()
		return "", err
	}

	metrics.NarrationsTotal.WithLabelValues("ok").Inc()
	log.Printf("advisor: narration generated (%d chars)", len(text))
	return text, nil
}

func buildNarrationPrompt(tank *models.Tank, assessment Assessment, pred *quality.PredictionResult) string {
	var b strings.Builder

	if tank != nil {
		fmt.Fprintf(&b, "Tank: %s (species: %s, capacity %.0fL, stock %d)\n",
			tank.Name, strings.Join(tank.Species, ", "), tank.CapacityL, tank.CurrentStock)
	}

	b.WriteString("Measured parameters:\n")
	for _, p := range assessment.Parameters {
		state := "ok"
		if !p.OK {
			state = "outside optimal " + p.OptimalRange
		}
		fmt.Fprintf(&b, "- %s = %v (%s)\n", p.Name, p.Value, state)
	}
	fmt.Fprintf(&b, "Rule-based status: %s\n", assessment.Status)

	if pred != nil {
		fmt.Fprintf(&b, "\nStatistical model prediction: %s (%.1f%% confidence)\n", pred.Label, pred.Confidence*100)
		fmt.Fprintf(&b, "Probabilities: Excellent %.3f, Good %.3f, Poor %.3f\n",
			pred.Probabilities[0], pred.Probabilities[1], pred.Probabilities[2])
		if len(pred.Missing.Unmeasured) > 0 {
			fmt.Fprintf(&b, "Not measured this time (defaults used): %s\n", strings.Join(pred.Missing.Unmeasured, ", "))
		}
		fmt.Fprintf(&b, "Never tracked by the sensors (always defaults): %s\n", strings.Join(pred.Missing.Untracked, ", "))
	} else {
		b.WriteString("\nNo statistical prediction available; assess from measured values only.\n")
	}

	return b.String()
}
