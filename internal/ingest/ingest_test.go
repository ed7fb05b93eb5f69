package ingest

import (
	"database/sql"
	"strings"
	"testing"

	"github.com/aquasense/backend/internal/models"
)

func val(f float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: f, Valid: true}
}

func TestValidateReading(t *testing.T) {
	tests := []struct {
		name    string
		reading models.SensorReading
		want    []string
	}{
		{
			name: "clean reading",
			reading: models.SensorReading{
				Temperature:     val(26),
				Turbidity:       val(35),
				DissolvedOxygen: val(7),
				PH:              val(7.4),
				Ammonia:         val(0.01),
			},
			want: nil,
		},
		{
			name:    "empty reading",
			reading: models.SensorReading{},
			want:    nil,
		},
		{
			name: "impossible temperature",
			reading: models.SensorReading{
				Temperature: val(80),
			},
			want: []string{FlagTempOutOfRange},
		},
		{
			name: "negative concentrations",
			reading: models.SensorReading{
				Ammonia: val(-0.1),
				Nitrite: val(-0.2),
				Nitrate: val(-1),
			},
			want: []string{FlagAmmoniaNegative, FlagNitriteNegative, FlagNitrateNegative},
		},
		{
			name: "ph out of scale",
			reading: models.SensorReading{
				PH: val(15),
			},
			want: []string{FlagPHInvalid},
		},
		{
			name: "do sensor fault",
			reading: models.SensorReading{
				DissolvedOxygen: val(55),
			},
			want: []string{FlagDOOutOfRange},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateReading(&tt.reading)
			if len(got) != len(tt.want) {
				t.Fatalf("got flags %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("flag %d: got %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestQualityFlagsToJSON(t *testing.T) {
	if got := QualityFlagsToJSON(nil); got != "" {
		t.Errorf("no flags should encode to empty string, got %q", got)
	}
	got := QualityFlagsToJSON([]string{FlagPHInvalid})
	if got != `["ph_invalid"]` {
		t.Errorf("unexpected encoding: %s", got)
	}
}

const sampleLabCSV = `sample_id,tank_id,sampled_at,temperature,turbidity,dissolved_oxygen,bod,co2,ph,alkalinity,hardness,calcium,ammonia,nitrite,phosphorus,h2s,plankton
LAB-001,tank-1,2026-08-20T09:00:00Z,26.5,32.0,6.8,2.9,4.1,7.6,110,145,62,0.02,0.01,0.04,0.001,4200
LAB-002,tank-2,2026-08-20T09:30:00Z,27.1,28.5,7.2,3.1,4.4,7.4,98,139,58,0.03,0.02,0.05,0.002,3900
`

func TestParseLabCSV(t *testing.T) {
	results, skipped, err := parseLabCSV(strings.NewReader(sampleLabCSV))
	if err != nil {
		t.Fatalf("parseLabCSV: %v", err)
	}
	if skipped != 0 {
		t.Errorf("expected no skipped rows, got %d", skipped)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(results))
	}

	first := results[0]
	if first.SampleID != "LAB-001" || first.TankID != "tank-1" {
		t.Errorf("unexpected identifiers: %+v", first)
	}
	if first.Temperature != 26.5 || first.PH != 7.6 || first.Plankton != 4200 {
		t.Errorf("unexpected values: %+v", first)
	}
	if first.SampledAt.Hour() != 9 {
		t.Errorf("unexpected sample time: %v", first.SampledAt)
	}
}

func TestParseLabCSV_SkipsMalformedRows(t *testing.T) {
	csv := sampleLabCSV +
		"LAB-003,tank-1,not-a-time,26,30,7,3,4,7.5,100,140,60,0.01,0.01,0.05,0.001,4000\n" +
		"LAB-004,tank-1,2026-08-21T09:00:00Z,26,30,bogus,3,4,7.5,100,140,60,0.01,0.01,0.05,0.001,4000\n" +
		",tank-1,2026-08-22T09:00:00Z,26,30,7,3,4,7.5,100,140,60,0.01,0.01,0.05,0.001,4000\n"

	results, skipped, err := parseLabCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("parseLabCSV: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 good samples, got %d", len(results))
	}
	if skipped != 3 {
		t.Errorf("expected 3 skipped rows, got %d", skipped)
	}
}

func TestParseLabCSV_BadHeader(t *testing.T) {
	if _, _, err := parseLabCSV(strings.NewReader("sample,tank\nx,y\n")); err == nil {
		t.Fatal("expected error for wrong header")
	}
}
