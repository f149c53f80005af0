/*
Package exceptions manages the per-sprint exception ledger: which sprinters
are delegated to a customer, on leave, or on call, plus the tunable policy
parameters that govern capacity adjustments.

PURPOSE:
  The capacity recommender produces a base figure from history alone. This
  package owns everything that bends that figure for a specific sprint:
  exception entries keyed by (sprint, sprinter), the policy settings, and
  the fixed-order adjustment pipeline.

KEY CONCEPTS IN THIS FILE (types.go):
  - Entry: one sprinter's exception flags for one sprint
  - PeriodExceptions: all entries for one sprint, keyed by sprinter id
  - Document: the full persisted state (sprints + settings)
  - Store: persistence interface (file, sqlite, memory implementations)

PERSISTENCE MODEL:
  One structured document, created lazily on first write:

    {
      "sprints":  {"236": {"exceptions": {...}, "updated_at": ...}},
      "settings": {"target_sp_per_person": 21, ...},
      "created_at": ...
    }

  Sprint keys are period numbers as text. Entries persist until explicitly
  cleared. Settings are global, not per-sprint.

ERROR POLICY:
  Persistence failures never abort an analysis. Mutators report a boolean,
  readers fall back to empty entries or default settings.

SEE ALSO:
  - settings.go: parameter names and built-in defaults
  - ledger.go: the Ledger operations
  - adjust.go: the adjustment pipeline
*/
package exceptions

import (
	"context"
	"time"
)

// =============================================================================
// EXCEPTION ENTRIES
// =============================================================================

// Entry holds one sprinter's exception flags for one sprint.
type Entry struct {
	// CustomerDelegate marks the sprinter as dedicated to a customer.
	CustomerDelegate bool `json:"customer_delegate,omitempty"`

	// CustomerDelegateDays is the dedication duration in working days.
	// Zero means "use the configured default duration".
	CustomerDelegateDays int `json:"customer_delegate_days,omitempty"`

	// VacationDays counts leave days taken inside the sprint.
	VacationDays int `json:"vacation_days,omitempty"`

	// OnCall marks the sprinter as carrying the on-call duty.
	OnCall bool `json:"on_call,omitempty"`
}

// PeriodExceptions maps normalized sprinter ids to their entries for one
// sprint.
type PeriodExceptions map[string]Entry

// =============================================================================
// PERSISTED DOCUMENT
// =============================================================================

// PeriodRecord is the stored form of one sprint's exceptions.
type PeriodRecord struct {
	Exceptions PeriodExceptions `json:"exceptions"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// Document is the complete persisted ledger state.
type Document struct {
	Sprints           map[string]PeriodRecord `json:"sprints"`
	Settings          Settings                `json:"settings"`
	CreatedAt         time.Time               `json:"created_at"`
	SettingsUpdatedAt *time.Time              `json:"settings_updated_at,omitempty"`
}

// NewDocument returns the state an empty ledger starts from.
func NewDocument() *Document {
	return &Document{
		Sprints:   make(map[string]PeriodRecord),
		Settings:  DefaultSettings(),
		CreatedAt: time.Now().UTC(),
	}
}

// normalize repairs documents loaded from older or hand-edited files so
// the rest of the package never sees nil maps or missing parameters.
func (d *Document) normalize() {
	if d.Sprints == nil {
		d.Sprints = make(map[string]PeriodRecord)
	}
	if d.Settings == nil {
		d.Settings = DefaultSettings()
	} else {
		d.Settings = DefaultSettings().Merge(d.Settings)
	}
}

// =============================================================================
// STORE - Document persistence
// =============================================================================

// Store persists the ledger document. Load on a store that has never been
// written returns (nil, nil); the ledger substitutes a fresh document.
type Store interface {
	Load(ctx context.Context) (*Document, error)
	Save(ctx context.Context, doc *Document) error
}
