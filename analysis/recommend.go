/*
recommend.go - Capacity recommendation

PURPOSE:
  Projects each sprinter's likely share of the upcoming sprint and pushes
  it towards the configured per-person target, then hands the result to
  the exception ledger for sprint-specific adjustment.

ALGORITHM (per sprinter with positive historical average):
  1. Average the sprinter's share of the team total across the sprints
     they participated in. No usable sprint data falls back to an equal
     split of 100% over the team, or 15% when the team size is unknown.
  2. projected = share x upcoming sprint total.
  3. Push towards target, branching on where projected sits:
       below half target     strong boost, capped by growth limit and 80%
                             of target
       below target          standard push, capped at 90% of target
       at or above target    5% stretch, capped at target
     then scale by historical completion rate and lift positive results to
     the minimum assignment threshold.
  4. The pre-exception figures are averaged into a team baseline, and each
     figure runs through the exception ledger when one is supplied.

INTERMEDIATE PRECISION:
  Base figures keep one decimal place; only the final suggested figure is
  rounded to a whole number for display.
*/
package analysis

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/capacity-engine/board"
	"github.com/warp/capacity-engine/exceptions"
)

var (
	dec100        = decimal.NewFromInt(100)
	decHalf       = decimal.NewFromFloat(0.5)
	decEighty     = decimal.NewFromFloat(0.8)
	decNinety     = decimal.NewFromFloat(0.9)
	decStretch    = decimal.NewFromFloat(1.05)
	fallbackShare = decimal.NewFromInt(15)
)

// Suggest computes capacity suggestions for the upcoming sprint.
//
// ledger may be nil: suggestions are then the rounded base figures with no
// adjustments. historical carries the filtered archive records backing the
// share calculation; without them every sprinter gets the equal-split
// share. workingDays <= 0 means "use the configured default".
func (a *Analyzer) Suggest(ctx context.Context, stats map[string]*MemberStats, currentTotal int, currentPeriod int, ledger *exceptions.Ledger, historical []board.Record, workingDays int) map[string]*Suggestion {
	settings := exceptions.DefaultSettings()
	if ledger != nil {
		settings = ledger.GetSettings(ctx)
	}

	target := settings.Decimal(exceptions.SettingTargetSPPerPerson)
	pushFactor := settings.Decimal(exceptions.SettingTargetPushFactor)
	growthLimit := settings.Decimal(exceptions.SettingCapacityGrowthLimit)
	lowBoost := settings.Decimal(exceptions.SettingLowPerformerBoost)
	minThreshold := settings.Decimal(exceptions.SettingMinSPThreshold)

	teamTotals, memberTotals := a.periodTotals(historical)
	totalDec := decimal.NewFromInt(int64(currentTotal))

	suggestions := make(map[string]*Suggestion)
	for key, m := range stats {
		if !m.AvgSPPerSprint.IsPositive() {
			continue
		}

		share := a.averageShare(key, m, teamTotals, memberTotals, len(stats))
		projected := share.Div(dec100).Mul(totalDec)
		boosted := pushTowardsTarget(projected, target, m.AvgSPPerSprint, pushFactor, growthLimit, lowBoost)

		// Scale by historical completion rate.
		boosted = boosted.Mul(m.CompletionRate.Div(dec100))
		if boosted.IsPositive() && boosted.LessThan(minThreshold) {
			boosted = minThreshold
		}
		base := boosted.Round(1)

		suggestions[key] = &Suggestion{
			Name:           m.Name,
			BaseSP:         base,
			HistoricalAvg:  m.AvgSPPerSprint.Round(1),
			CompletionRate: m.CompletionRate.Round(1),
			AvgShare:       share.Round(1),
			ProjectedSP:    projected.Round(1),
			TargetSP:       target,
			Adjustments:    []string{},
		}
	}

	teamAverage := decimal.Zero
	if len(suggestions) > 0 {
		sum := decimal.Zero
		for _, s := range suggestions {
			sum = sum.Add(s.BaseSP)
		}
		teamAverage = sum.Div(decimal.NewFromInt(int64(len(suggestions))))
	}

	for key, s := range suggestions {
		rationale := fmt.Sprintf("Historical average: %s SP, completion rate: %s%%, share of team: %s%%",
			s.HistoricalAvg, s.CompletionRate, s.AvgShare)

		final := s.BaseSP
		if ledger != nil {
			adj := ledger.AdjustedCapacity(ctx, key, s.BaseSP, currentPeriod, teamAverage, workingDays)
			final = adj.AdjustedSP
			s.Adjustments = adj.Adjustments
			if len(adj.Adjustments) > 0 {
				rationale += "; " + adj.Explanation
			}
		}
		s.SuggestedSP = int(final.Round(0).IntPart())
		s.Rationale = rationale
	}

	a.log.Info("capacity suggestions computed",
		zap.Int("sprint", currentPeriod),
		zap.Int("sprint_total", currentTotal),
		zap.Int("sprinters", len(suggestions)),
		zap.Bool("exceptions_applied", ledger != nil))
	return suggestions
}

// averageShare averages this sprinter's percentage of the team total over
// the sprints they participated in.
func (a *Analyzer) averageShare(key string, m *MemberStats, teamTotals map[int]int, memberTotals map[string]map[int]int, teamSize int) decimal.Decimal {
	sum := decimal.Zero
	valid := 0
	for _, p := range m.Sprints {
		teamTotal, ok := teamTotals[p]
		if !ok || teamTotal == 0 {
			continue
		}
		mine, ok := memberTotals[key][p]
		if !ok {
			continue
		}
		sum = sum.Add(decimal.NewFromInt(int64(mine)).
			Div(decimal.NewFromInt(int64(teamTotal))).
			Mul(dec100))
		valid++
	}
	if valid > 0 {
		return sum.Div(decimal.NewFromInt(int64(valid)))
	}
	if teamSize > 0 {
		return dec100.Div(decimal.NewFromInt(int64(teamSize)))
	}
	return fallbackShare
}

// pushTowardsTarget applies the target-push branch for one projection.
func pushTowardsTarget(projected, target, historicalAvg, pushFactor, growthLimit, lowBoost decimal.Decimal) decimal.Decimal {
	switch {
	case projected.LessThan(target.Mul(decHalf)):
		// Consistently low performer: push hard, but never past the
		// growth limit or 80% of target.
		boosted := projected.Add(target.Sub(projected).Mul(pushFactor).Mul(lowBoost))
		ceiling := decimal.Min(historicalAvg.Mul(growthLimit), target.Mul(decEighty))
		return decimal.Min(boosted, ceiling)

	case projected.LessThan(target):
		// Below target: standard push, capped at 90% of target.
		boosted := projected.Add(target.Sub(projected).Mul(pushFactor))
		return decimal.Min(boosted, target.Mul(decNinety))

	default:
		// At or above target already: small stretch, capped at target.
		return decimal.Min(projected.Mul(decStretch), target)
	}
}

// ListSprinters flattens member statistics into sorted id/name pairs.
func ListSprinters(stats map[string]*MemberStats) []Sprinter {
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	sprinters := make([]Sprinter, 0, len(keys))
	for _, key := range keys {
		sprinters = append(sprinters, Sprinter{ID: key, Name: stats[key].Name})
	}
	return sprinters
}
