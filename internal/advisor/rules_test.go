package advisor

import (
	"database/sql"
	"testing"

	"github.com/aquasense/backend/internal/models"
)

func val(f float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: f, Valid: true}
}

func TestAssessReading(t *testing.T) {
	tests := []struct {
		name    string
		reading models.SensorReading
		want    Status
	}{
		{
			name: "all optimal",
			reading: models.SensorReading{
				Temperature:     val(26.0),
				Turbidity:       val(30.0),
				DissolvedOxygen: val(8.0),
				PH:              val(7.5),
				Ammonia:         val(0.01),
				Nitrite:         val(0.01),
			},
			want: StatusExcellent,
		},
		{
			name: "few parameters measured but fine",
			reading: models.SensorReading{
				Temperature: val(26.0),
				PH:          val(7.2),
			},
			want: StatusGood,
		},
		{
			name: "mild warning",
			reading: models.SensorReading{
				Temperature:     val(31.0),
				DissolvedOxygen: val(7.0),
				PH:              val(7.0),
			},
			want: StatusFair,
		},
		{
			name: "single critical",
			reading: models.SensorReading{
				Temperature:     val(26.0),
				DissolvedOxygen: val(2.0),
				PH:              val(7.0),
			},
			want: StatusPoor,
		},
		{
			name: "multiple criticals",
			reading: models.SensorReading{
				DissolvedOxygen: val(2.0),
				Ammonia:         val(1.5),
				PH:              val(7.0),
			},
			want: StatusCritical,
		},
		{
			name:    "nothing measured",
			reading: models.SensorReading{},
			want:    StatusUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AssessReading(tt.reading)
			if got.Status != tt.want {
				t.Errorf("Status = %q, want %q (issues: %v)", got.Status, tt.want, got.Issues)
			}
		})
	}
}

func TestAssessReading_IssuesCarryAdvice(t *testing.T) {
	a := AssessReading(models.SensorReading{Ammonia: val(0.8)})

	if len(a.Issues) != 1 {
		t.Fatalf("len(Issues) = %d, want 1", len(a.Issues))
	}
	if len(a.Recommendations) != 1 {
		t.Fatalf("len(Recommendations) = %d, want 1", len(a.Recommendations))
	}
	if a.Parameters[0].OK {
		t.Error("ammonia check reported OK at 0.8 mg/L")
	}
}

func TestAssessReading_SkipsUnmeasured(t *testing.T) {
	a := AssessReading(models.SensorReading{PH: val(7.0)})

	if len(a.Parameters) != 1 {
		t.Fatalf("len(Parameters) = %d, want 1", len(a.Parameters))
	}
	if a.Parameters[0].Name != "ph" {
		t.Errorf("Parameters[0].Name = %q, want ph", a.Parameters[0].Name)
	}
}
