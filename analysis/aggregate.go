/*
aggregate.go - Historical aggregation

PURPOSE:
  Filters board records to the archive container and the last three
  sprints, then aggregates per-sprinter statistics and per-sprint team
  totals.

EXTRACTION ORDER (applies everywhere in this file):
  sprint number: structured field first, then the leading-digits title
                 fallback
  effort size:   structured field first; a missing OR zero structured size
                 falls through to the parenthesized title fallback

SKIP RULES:
  A record contributes nothing when its assignee is missing or the
  dropdown was left unselected, when its size resolves to zero, or when no
  sprint number resolves at all. Skips are logged at debug level and never
  fail the run.
*/
package analysis

import (
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/capacity-engine/board"
)

// historyWindow is how many finished sprints feed the analysis.
const historyWindow = 3

// =============================================================================
// ANALYZER
// =============================================================================

// Analyzer runs aggregation and recommendation against one resolved board
// schema. It holds no mutable state; construct one per analysis run.
type Analyzer struct {
	schema board.Schema
	log    *zap.Logger
}

// NewAnalyzer resolves the board's field schema. Individually missing
// fields are tolerated (title fallbacks cover them) and logged.
func NewAnalyzer(defs []board.FieldDefinition, log *zap.Logger) (*Analyzer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	schema, err := board.ResolveSchema(defs)
	if err != nil {
		return nil, err
	}
	for _, name := range schema.Missing() {
		log.Warn("custom field not found, relying on title fallback", zap.String("field", name))
	}
	return &Analyzer{schema: schema, log: log}, nil
}

// Schema exposes the resolved schema for callers that extract values
// themselves.
func (a *Analyzer) Schema() board.Schema { return a.schema }

// recordPeriod resolves a record's sprint number, structured then title.
func (a *Analyzer) recordPeriod(rec board.Record) (int, bool) {
	if n, ok := a.schema.PeriodNumber(rec); ok {
		return n, true
	}
	return board.PeriodFromTitle(rec.Title)
}

// recordSize resolves a record's effort size, structured then title. A
// structured zero also falls through to the title.
func (a *Analyzer) recordSize(rec board.Record) int {
	if n, ok := a.schema.StoryPoints(rec); ok && n != 0 {
		return n
	}
	return board.SizeFromTitle(rec.Title)
}

// =============================================================================
// FILTERING
// =============================================================================

// FilterWindow returns the records of the archive container belonging to
// the three sprints before currentPeriod, plus the sorted distinct sprint
// numbers actually present (possibly fewer than three).
func (a *Analyzer) FilterWindow(records []board.Record, containerID string, currentPeriod int) ([]board.Record, []int) {
	window := make(map[int]bool, historyWindow)
	for i := 1; i <= historyWindow; i++ {
		window[currentPeriod-i] = true
	}

	var filtered []board.Record
	found := make(map[int]bool)
	for _, rec := range records {
		if rec.ContainerID != containerID {
			continue
		}
		period, ok := a.recordPeriod(rec)
		if !ok || !window[period] {
			continue
		}
		filtered = append(filtered, rec)
		found[period] = true
	}

	periods := make([]int, 0, len(found))
	for p := range found {
		periods = append(periods, p)
	}
	sort.Ints(periods)

	a.log.Debug("archive window filtered",
		zap.Int("current_sprint", currentPeriod),
		zap.Ints("sprints_found", periods),
		zap.Int("records", len(filtered)))
	return filtered, periods
}

// =============================================================================
// MEMBER STATISTICS
// =============================================================================

// Analyze filters and aggregates in one call, returning per-sprinter
// statistics, the sprint numbers found in the window, and the filtered
// records backing them (so callers feed the same set into Suggest without
// filtering again).
func (a *Analyzer) Analyze(records []board.Record, containerID string, currentPeriod int) (map[string]*MemberStats, []int, []board.Record, error) {
	if len(records) == 0 {
		return nil, nil, nil, board.ErrNoRecords
	}

	filtered, periods := a.FilterWindow(records, containerID, currentPeriod)
	if len(filtered) == 0 {
		window := make([]int, 0, historyWindow)
		for i := historyWindow; i >= 1; i-- {
			window = append(window, currentPeriod-i)
		}
		return nil, nil, nil, &NoPeriodRecordsError{Window: window}
	}

	stats := a.memberPerformance(filtered)
	if len(stats) == 0 {
		return nil, nil, nil, ErrNoAssignees
	}
	return stats, periods, filtered, nil
}

// memberPerformance aggregates the filtered record set per sprinter.
func (a *Analyzer) memberPerformance(records []board.Record) map[string]*MemberStats {
	stats := make(map[string]*MemberStats)
	participation := make(map[string]map[int]bool)

	var processed, withAssignee, emptyAssignee, counted int
	for _, rec := range records {
		processed++

		name, status := a.schema.Assignee(rec)
		switch status {
		case board.StatusMissing:
			a.log.Debug("record skipped: no sprinter field", zap.String("record", rec.ID))
			continue
		case board.StatusEmpty:
			emptyAssignee++
			a.log.Debug("record skipped: sprinter dropdown empty", zap.String("record", rec.ID))
			continue
		}
		withAssignee++

		size := a.recordSize(rec)
		period, ok := a.recordPeriod(rec)
		if size == 0 || !ok || period == 0 {
			a.log.Debug("record skipped: unusable size or sprint",
				zap.String("record", rec.ID), zap.Int("size", size), zap.Bool("has_sprint", ok))
			continue
		}
		counted++

		key := board.NormalizeKey(name)
		m, ok := stats[key]
		if !ok {
			m = &MemberStats{}
			stats[key] = m
			participation[key] = make(map[int]bool)
		}
		m.Name = name
		m.TotalAssigned += size
		// Archived records count as completed in full.
		m.TotalCompleted += size
		participation[key][period] = true
	}

	for key, m := range stats {
		periods := make([]int, 0, len(participation[key]))
		for p := range participation[key] {
			periods = append(periods, p)
		}
		sort.Ints(periods)
		m.Sprints = periods

		if m.TotalAssigned > 0 {
			m.CompletionRate = decimal.NewFromInt(int64(m.TotalCompleted)).
				Div(decimal.NewFromInt(int64(m.TotalAssigned))).
				Mul(decimal.NewFromInt(100))
		} else {
			m.CompletionRate = decimal.Zero
		}
		if len(periods) > 0 {
			m.AvgSPPerSprint = decimal.NewFromInt(int64(m.TotalCompleted)).
				Div(decimal.NewFromInt(int64(len(periods))))
		} else {
			m.AvgSPPerSprint = decimal.Zero
		}
	}

	a.log.Info("member performance aggregated",
		zap.Int("records_processed", processed),
		zap.Int("with_sprinter", withAssignee),
		zap.Int("empty_sprinter", emptyAssignee),
		zap.Int("counted", counted),
		zap.Int("sprinters", len(stats)))
	return stats
}

// =============================================================================
// PER-SPRINT TOTALS
// =============================================================================

// periodTotals computes team-wide and per-sprinter effort totals for each
// sprint in the record set, using the same extraction and skip rules as
// memberPerformance. Feeds the recommender's share calculation.
func (a *Analyzer) periodTotals(records []board.Record) (team map[int]int, member map[string]map[int]int) {
	team = make(map[int]int)
	member = make(map[string]map[int]int)

	for _, rec := range records {
		name, status := a.schema.Assignee(rec)
		if status != board.StatusFound {
			continue
		}
		size := a.recordSize(rec)
		period, ok := a.recordPeriod(rec)
		if size == 0 || !ok || period == 0 {
			continue
		}

		team[period] += size
		key := board.NormalizeKey(name)
		if member[key] == nil {
			member[key] = make(map[int]int)
		}
		member[key][period] += size
	}
	return team, member
}
