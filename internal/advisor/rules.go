package advisor

import (
	"database/sql"
	"fmt"

	"github.com/aquasense/backend/internal/models"
)

// Status is the overall water-quality verdict from the rule-based path.
type Status string

const (
	StatusExcellent Status = "excellent"
	StatusGood      Status = "good"
	StatusFair      Status = "fair"
	StatusPoor      Status = "poor"
	StatusCritical  Status = "critical"
	StatusUnknown   Status = "unknown"
)

// ParameterCheck records how one measured parameter compares to its optimal
// range.
type ParameterCheck struct {
	Name         string  `json:"name"`
	Value        float64 `json:"value"`
	OK           bool    `json:"ok"`
	OptimalRange string  `json:"optimal_range"`
	Issue        string  `json:"issue,omitempty"`
}

// Assessment is the rule-based advisory over measured values only. It does
// not depend on the statistical model and must stay usable when the model
// cannot run.
type Assessment struct {
	Status          Status           `json:"status"`
	Issues          []string         `json:"issues"`
	Recommendations []string         `json:"recommendations"`
	Parameters      []ParameterCheck `json:"parameters"`
}

type rule struct {
	name     string
	unit     string
	optimal  string
	value    func(models.SensorReading) sql.NullFloat64
	warnLow  float64
	warnHigh float64
	critLow  float64
	critHigh float64
	advice   string
}

// General freshwater aquaculture ranges. Species-specific tuning is left to
// the narration layer.
var rules = []rule{
	{
		name: "temperature", unit: "°C", optimal: "24-30",
		value:   func(r models.SensorReading) sql.NullFloat64 { return r.Temperature },
		warnLow: 24, warnHigh: 30, critLow: 18, critHigh: 34,
		advice: "Adjust heating or shading to bring temperature back to 24-30°C.",
	},
	{
		name: "ph", unit: "", optimal: "6.5-8.5",
		value:   func(r models.SensorReading) sql.NullFloat64 { return r.PH },
		warnLow: 6.5, warnHigh: 8.5, critLow: 5.5, critHigh: 9.5,
		advice: "Buffer the water gradually; sudden pH swings stress fish more than the level itself.",
	},
	{
		name: "dissolved_oxygen", unit: "mg/L", optimal: ">= 5",
		value:   func(r models.SensorReading) sql.NullFloat64 { return r.DissolvedOxygen },
		warnLow: 5, warnHigh: 20, critLow: 3, critHigh: 25,
		advice: "Increase aeration immediately and reduce feeding until DO recovers above 5 mg/L.",
	},
	{
		name: "turbidity", unit: "cm", optimal: ">= 25",
		value:   func(r models.SensorReading) sql.NullFloat64 { return r.Turbidity },
		warnLow: 25, warnHigh: 80, critLow: 15, critHigh: 120,
		advice: "Water is too turbid; check for overfeeding and algal blooms, and partially exchange water.",
	},
	{
		name: "ammonia", unit: "mg/L", optimal: "<= 0.05",
		value:   func(r models.SensorReading) sql.NullFloat64 { return r.Ammonia },
		warnLow: 0, warnHigh: 0.05, critLow: 0, critHigh: 0.5,
		advice: "Ammonia is elevated; perform a water change and check biofilter capacity and stocking density.",
	},
	{
		name: "nitrite", unit: "mg/L", optimal: "<= 0.1",
		value:   func(r models.SensorReading) sql.NullFloat64 { return r.Nitrite },
		warnLow: 0, warnHigh: 0.1, critLow: 0, critHigh: 0.5,
		advice: "Nitrite is elevated; add salt at 0.1-0.3% to block uptake and improve biofiltration.",
	},
	{
		name: "nitrate", unit: "mg/L", optimal: "<= 50",
		value:   func(r models.SensorReading) sql.NullFloat64 { return r.Nitrate },
		warnLow: 0, warnHigh: 50, critLow: 0, critHigh: 200,
		advice: "Nitrate is accumulating; increase water exchange frequency.",
	},
}

// AssessReading evaluates every measured parameter against its optimal
// range. Unmeasured parameters are simply skipped; a fully empty reading
// yields StatusUnknown.
func AssessReading(r models.SensorReading) Assessment {
	a := Assessment{Status: StatusUnknown}

	var warnings, criticals int
	for _, rule := range rules {
		v := rule.value(r)
		if !v.Valid {
			continue
		}

		check := ParameterCheck{
			Name:         rule.name,
			Value:        v.Float64,
			OK:           true,
			OptimalRange: rule.optimal,
		}

		switch {
		case v.Float64 < rule.critLow || v.Float64 > rule.critHigh:
			criticals++
			check.OK = false
			check.Issue = fmt.Sprintf("%s %v%s critically outside optimal range %s", rule.name, v.Float64, rule.unit, rule.optimal)
		case v.Float64 < rule.warnLow || v.Float64 > rule.warnHigh:
			warnings++
			check.OK = false
			check.Issue = fmt.Sprintf("%s %v%s outside optimal range %s", rule.name, v.Float64, rule.unit, rule.optimal)
		}

		if !check.OK {
			a.Issues = append(a.Issues, check.Issue)
			a.Recommendations = append(a.Recommendations, rule.advice)
		}
		a.Parameters = append(a.Parameters, check)
	}

	switch {
	case len(a.Parameters) == 0:
		a.Status = StatusUnknown
		a.Issues = append(a.Issues, "no water-quality parameters measured")
		a.Recommendations = append(a.Recommendations, "Add sensor readings to enable water-quality assessment.")
	case criticals >= 2:
		a.Status = StatusCritical
	case criticals == 1:
		a.Status = StatusPoor
	case warnings > 0:
		a.Status = StatusFair
	case len(a.Parameters) >= 5:
		a.Status = StatusExcellent
	default:
		a.Status = StatusGood
	}

	return a
}
