/*
adjust.go - The capacity adjustment pipeline

PURPOSE:
  Takes a sprinter's base capacity and applies the sprint's exception
  entries in a fixed order, each stage mutating the running value and
  appending a human-readable note:

    1. Working-day scaling (supplied days vs configured default)
    2. Customer delegate (full-sprint clamp or partial reduction)
    3. Leave (proportional day-based reduction)
    4. On-call (fixed reduction, floored at 0)
    5. Zero prevention (floor unless fully unavailable)
    6. General minimum threshold (normal low cases only)

ORDERING MATTERS:
  Leave multiplies whatever the delegate stage left, and on-call subtracts
  after that. Zero prevention inspects the exception entries again to
  decide whether a near-zero result is deliberate.

ZERO PREVENTION vs MINIMUM THRESHOLD:
  Stage 5 guarantees a floor for sprinters who are not 100% unavailable.
  Stage 6 lifts ordinary low results up to the assignment minimum, but
  only values strictly above the stage-5 floor: a value sitting exactly on
  the floor was put there deliberately by an exception and stays put.

FAILURE POLICY:
  No stage may abort the pipeline. Degenerate configurations (zero
  working days) return the base capacity unmodified with an explanatory
  note instead of failing the caller.
*/
package exceptions

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Adjustment is the outcome of the pipeline for one sprinter.
type Adjustment struct {
	AdjustedSP  decimal.Decimal `json:"adjusted_sp"`
	OriginalSP  decimal.Decimal `json:"original_sp"`
	Adjustments []string        `json:"adjustments"`
	Explanation string          `json:"explanation"`
}

const noExceptionsNote = "No exceptions"

// AdjustedCapacity runs the pipeline for one sprinter. teamAverage is
// accepted for parity with the caller's data flow; the current stages use
// fixed configured reductions instead.
func (l *Ledger) AdjustedCapacity(ctx context.Context, sprinterID string, base decimal.Decimal, period int, teamAverage decimal.Decimal, workingDays int) Adjustment {
	l.mu.Lock()
	doc := l.load(ctx)
	l.mu.Unlock()

	settings := DefaultSettings().Merge(doc.Settings)
	exc := PeriodExceptions{}
	if rec, ok := doc.Sprints[fmt.Sprint(period)]; ok && rec.Exceptions != nil {
		exc = rec.Exceptions
	}

	defaultDays := settings.Int(SettingSprintWorkingDays)
	if workingDays <= 0 {
		workingDays = defaultDays
	}
	if defaultDays <= 0 || workingDays <= 0 {
		// Degenerate configuration; refuse to divide by it.
		l.log.Error("invalid working-day configuration",
			zap.Int("working_days", workingDays), zap.Int("default_days", defaultDays))
		return Adjustment{
			AdjustedSP:  base,
			OriginalSP:  base,
			Adjustments: []string{},
			Explanation: "calculation error: working days not configured",
		}
	}

	days := decimal.NewFromInt(int64(workingDays))
	entry, hasEntry := exc[sprinterID]

	// -------------------------------------------------------------------------
	// No entry: working-day scaling is still applied.
	// -------------------------------------------------------------------------
	if !hasEntry {
		if workingDays != defaultDays {
			factor := days.Div(decimal.NewFromInt(int64(defaultDays)))
			note := fmt.Sprintf("Working-day adjustment: %d days", workingDays)
			return Adjustment{
				AdjustedSP:  base.Mul(factor).Round(1),
				OriginalSP:  base,
				Adjustments: []string{note},
				Explanation: note,
			}
		}
		return Adjustment{
			AdjustedSP:  base,
			OriginalSP:  base,
			Adjustments: []string{},
			Explanation: noExceptionsNote,
		}
	}

	adjusted := base
	var notes []string

	// Stage 1: working-day scaling.
	if workingDays != defaultDays {
		adjusted = adjusted.Mul(days.Div(decimal.NewFromInt(int64(defaultDays))))
		notes = append(notes, fmt.Sprintf("Working-day adjustment: %d days", workingDays))
	}

	// Stage 2: customer delegate.
	if entry.CustomerDelegate {
		delegateDays := entry.CustomerDelegateDays
		if delegateDays <= 0 {
			delegateDays = settings.Int(SettingDelegateDays)
		}
		minSP := settings.Decimal(SettingDelegateMinSP)
		if delegateDays >= workingDays {
			adjusted = minSP
			notes = append(notes, fmt.Sprintf("Customer delegate (full sprint): %s SP", minSP))
		} else {
			remaining := decimal.NewFromInt(1).Sub(decimal.NewFromInt(int64(delegateDays)).Div(days))
			partial := decimal.Max(minSP, adjusted.Mul(remaining))
			adjusted = partial
			notes = append(notes, fmt.Sprintf("Customer delegate (%d/%d days): %s SP",
				delegateDays, workingDays, partial.StringFixed(1)))
		}
	}

	// Stage 3: leave.
	if entry.VacationDays > 0 {
		factor := decimal.Max(decimal.Zero,
			days.Sub(decimal.NewFromInt(int64(entry.VacationDays))).Div(days))
		before := adjusted
		adjusted = adjusted.Mul(factor)
		notes = append(notes, fmt.Sprintf("Leave (%d/%d days): -%s SP",
			entry.VacationDays, workingDays, before.Sub(adjusted).StringFixed(1)))
	}

	// Stage 4: on-call.
	if entry.OnCall {
		reduction := settings.Decimal(SettingOnCallReductionSP)
		adjusted = decimal.Max(decimal.Zero, adjusted.Sub(reduction))
		notes = append(notes, fmt.Sprintf("On-call duty: -%s SP", reduction))
	}

	// Stage 5: zero prevention.
	unavailableDays := entry.VacationDays
	if entry.CustomerDelegate {
		delegateDays := entry.CustomerDelegateDays
		if delegateDays <= 0 {
			delegateDays = settings.Int(SettingDelegateDays)
		}
		if delegateDays >= workingDays {
			unavailableDays += workingDays
		} else {
			unavailableDays += delegateDays
		}
	}
	unavailabilityRatio := decimal.NewFromInt(int64(unavailableDays)).Div(days)
	fullThreshold := settings.Decimal(SettingFullUnavailabilityThreshold)
	floor := settings.Decimal(SettingMinSPUnlessFullyUnavailable)

	if unavailabilityRatio.LessThan(fullThreshold) {
		if adjusted.LessThan(floor) {
			adjusted = floor
			notes = append(notes, fmt.Sprintf("Zero prevention: %s SP (not fully unavailable)", floor))
		}
	} else if adjusted.LessThanOrEqual(decimal.Zero) {
		adjusted = decimal.NewFromInt(1)
		notes = append(notes, "Emergency minimum: 1 SP")
	}

	// Stage 6: general minimum threshold. Values resting exactly on the
	// zero-prevention floor are exception-driven and are not lifted.
	minThreshold := settings.Decimal(SettingMinSPThreshold)
	if adjusted.GreaterThan(decimal.Zero) && adjusted.LessThan(minThreshold) && adjusted.GreaterThan(floor) {
		adjusted = minThreshold
		notes = append(notes, fmt.Sprintf("Minimum threshold: %s SP", minThreshold))
	}

	explanation := noExceptionsNote
	if len(notes) > 0 {
		explanation = strings.Join(notes, "; ")
	}
	if notes == nil {
		notes = []string{}
	}
	return Adjustment{
		AdjustedSP:  adjusted.Round(1),
		OriginalSP:  base,
		Adjustments: notes,
		Explanation: explanation,
	}
}
