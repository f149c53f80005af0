/*
settings.go - Policy parameters and built-in defaults

PURPOSE:
  A flat mapping of named numeric parameters steering both the recommender
  and the adjustment pipeline. Stored settings are always read back merged
  with the defaults, so parameters introduced after a file was written
  still resolve to a value.
*/
package exceptions

import (
	"github.com/shopspring/decimal"
)

// Parameter names. Values are float64 in the document; integer-valued
// parameters are read through Settings.Int.
const (
	// Target and base settings.
	SettingTargetSPPerPerson = "target_sp_per_person" // target SP for 100% utilization
	SettingSprintWorkingDays = "sprint_working_days"  // default working days per sprint
	SettingMinSPThreshold    = "min_sp_threshold"     // avoid very low assignments
	SettingTargetPushFactor  = "target_push_factor"   // how aggressively to push towards target

	// Exception settings.
	SettingDelegateMinSP           = "customer_delegate_min_sp"
	SettingDelegateDays            = "customer_delegate_days"
	SettingOnCallReductionSP       = "on_call_reduction_sp"
	SettingVacationReductionPerDay = "vacation_reduction_per_day"

	// Zero prevention settings.
	SettingMinSPUnlessFullyUnavailable = "min_sp_unless_fully_unavailable"
	SettingFullUnavailabilityThreshold = "full_unavailability_threshold"

	// Algorithm settings.
	SettingCapacityGrowthLimit = "capacity_growth_limit"
	SettingLowPerformerBoost   = "low_performer_boost"
	SettingTeamBalanceFactor   = "team_balance_factor"
)

// Settings is the flat parameter mapping.
type Settings map[string]float64

// DefaultSettings returns the built-in parameter values.
func DefaultSettings() Settings {
	return Settings{
		SettingTargetSPPerPerson: 21,
		SettingSprintWorkingDays: 5,
		SettingMinSPThreshold:    3,
		SettingTargetPushFactor:  0.7,

		SettingDelegateMinSP:           2,
		SettingDelegateDays:            5,
		SettingOnCallReductionSP:       3,
		SettingVacationReductionPerDay: 0.2,

		SettingMinSPUnlessFullyUnavailable: 2,
		SettingFullUnavailabilityThreshold: 1.0,

		SettingCapacityGrowthLimit: 1.5,
		SettingLowPerformerBoost:   2.0,
		SettingTeamBalanceFactor:   0.3,
	}
}

// Merge returns a copy of s overlaid with every entry of other.
func (s Settings) Merge(other Settings) Settings {
	merged := make(Settings, len(s)+len(other))
	for k, v := range s {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}

// Float reads a parameter, falling back to the built-in default for keys
// absent from the mapping.
func (s Settings) Float(key string) float64 {
	if v, ok := s[key]; ok {
		return v
	}
	return DefaultSettings()[key]
}

// Int reads an integer-valued parameter.
func (s Settings) Int(key string) int {
	return int(s.Float(key))
}

// Decimal reads a parameter as a decimal for capacity arithmetic.
func (s Settings) Decimal(key string) decimal.Decimal {
	return decimal.NewFromFloat(s.Float(key))
}
