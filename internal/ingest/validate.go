package ingest

import (
	"encoding/json"

	"github.com/aquasense/backend/internal/models"
)

const (
	FlagTempOutOfRange      = "temp_out_of_range"
	FlagTurbidityNegative   = "turbidity_negative"
	FlagDOOutOfRange        = "do_out_of_range"
	FlagPHInvalid           = "ph_invalid"
	FlagAmmoniaNegative     = "ammonia_negative"
	FlagNitriteNegative     = "nitrite_negative"
	FlagNitrateNegative     = "nitrate_negative"
	FlagSalinityOutOfRange  = "salinity_out_of_range"
)

// ValidateReading flags physically implausible sensor values. Flagged
// readings are still stored; the flags travel with the reading so downstream
// consumers can discount them.
func ValidateReading(r *models.SensorReading) []string {
	var flags []string

	if r.Temperature.Valid {
		if r.Temperature.Float64 < -5 || r.Temperature.Float64 > 45 {
			flags = append(flags, FlagTempOutOfRange)
		}
	}

	if r.Turbidity.Valid && r.Turbidity.Float64 < 0 {
		flags = append(flags, FlagTurbidityNegative)
	}

	if r.DissolvedOxygen.Valid {
		if r.DissolvedOxygen.Float64 < 0 || r.DissolvedOxygen.Float64 > 30 {
			flags = append(flags, FlagDOOutOfRange)
		}
	}

	if r.PH.Valid {
		if r.PH.Float64 < 0 || r.PH.Float64 > 14 {
			flags = append(flags, FlagPHInvalid)
		}
	}

	if r.Ammonia.Valid && r.Ammonia.Float64 < 0 {
		flags = append(flags, FlagAmmoniaNegative)
	}
	if r.Nitrite.Valid && r.Nitrite.Float64 < 0 {
		flags = append(flags, FlagNitriteNegative)
	}
	if r.Nitrate.Valid && r.Nitrate.Float64 < 0 {
		flags = append(flags, FlagNitrateNegative)
	}

	if r.Salinity.Valid {
		if r.Salinity.Float64 < 0 || r.Salinity.Float64 > 45 {
			flags = append(flags, FlagSalinityOutOfRange)
		}
	}

	return flags
}

func QualityFlagsToJSON(flags []string) string {
	if len(flags) == 0 {
		return ""
	}
	b, _ := json.Marshal(flags)
	return string(b)
}
