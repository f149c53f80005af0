/*
Package analysis turns board history into per-sprinter statistics and
capacity suggestions for an upcoming sprint.

PURPOSE:
  Two stages, both pure over their inputs:
  - Analyze: filter the archive container to the last three sprints and
    aggregate per-sprinter totals, completion rates and participation.
  - Suggest: project each sprinter's share of the upcoming sprint total,
    push it towards the configured target, and (optionally) run the result
    through the exception ledger.

KEY CONCEPTS IN THIS FILE (types.go):
  - MemberStats: aggregated history for one sprinter
  - Suggestion: the final recommendation for one sprinter
  - Sprinter: id/name pair for UI listings

SIMPLIFYING ASSUMPTION:
  Completion equals assignment inside the archive container: a record that
  was archived counts as completed. Completion rates therefore read 100%
  unless the record set is unusual. This mirrors the planning workflow the
  engine serves and is kept deliberately.

SEE ALSO:
  - aggregate.go: Analyze and the record filter
  - recommend.go: Suggest and ListSprinters
*/
package analysis

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ERRORS - Precondition failures, recoverable and descriptive
// =============================================================================

var (
	// ErrNoAssignees is returned when no analyzed record carries a usable
	// sprinter selection.
	ErrNoAssignees = errors.New("no sprinter selections found: fill in the Sprinter dropdown on the archived records")
)

// NoPeriodRecordsError reports an archive container with no records in the
// analysis window.
type NoPeriodRecordsError struct {
	Window []int
}

func (e *NoPeriodRecordsError) Error() string {
	return fmt.Sprintf("no records found for sprints %v in the archive container", e.Window)
}

// =============================================================================
// RESULTS
// =============================================================================

// MemberStats is the aggregated history for one sprinter, computed fresh
// on every analysis call.
type MemberStats struct {
	Name           string          `json:"name"`
	TotalAssigned  int             `json:"total_assigned"`
	TotalCompleted int             `json:"total_completed"`
	CompletionRate decimal.Decimal `json:"completion_rate"`
	AvgSPPerSprint decimal.Decimal `json:"avg_sp_per_sprint"`
	Sprints        []int           `json:"sprints_participated"`
}

// Suggestion is the recommendation for one sprinter. SuggestedSP is the
// display figure; the intermediate figures keep one decimal place.
type Suggestion struct {
	Name           string          `json:"name"`
	SuggestedSP    int             `json:"suggested_sp"`
	BaseSP         decimal.Decimal `json:"base_sp"`
	HistoricalAvg  decimal.Decimal `json:"historical_avg"`
	CompletionRate decimal.Decimal `json:"completion_rate"`
	AvgShare       decimal.Decimal `json:"avg_share_pct"`
	ProjectedSP    decimal.Decimal `json:"projected_sp"`
	TargetSP       decimal.Decimal `json:"target_sp"`
	Adjustments    []string        `json:"adjustments"`
	Rationale      string          `json:"rationale"`
}

// Sprinter is an id/name pair for listings.
type Sprinter struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
