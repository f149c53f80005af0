/*
schema.go - Field resolution and typed extraction

PURPOSE:
  Locates the three semantic fields the engine needs (period identifier,
  effort size, assignee) inside the board's dynamic field schema, and
  extracts typed values from individual records.

RESOLUTION:
  Matching is by case-folded display name, exact match only:
    "sprintno"   -> period field
    "storypoint" -> size field
    "sprinter"   -> assignee field (full definition kept for option lookups)

THE THREE-WAY ASSIGNEE DISTINCTION:
  StatusFound    a usable display name was extracted
  StatusEmpty    the field is on the record but no selection was made
  StatusMissing  the record carries no value for the field at all
  Callers must treat Empty and Missing differently: both skip the record,
  but Empty is counted and reported as "dropdown not filled in".

TITLE FALLBACKS:
  Boards predating the custom fields encode data in card titles:
    "235 - Fix login"  -> period 235 (leading three digits)
    "Fix login (3)"    -> size 3 (first of 1/3/5 in parentheses)
  No parenthesized size yields an explicit 0, not an absence marker.

SEE ALSO:
  - types.go: FieldValue variant consumed here
  - analysis/aggregate.go: applies structured-then-fallback ordering
*/
package board

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Display names of the required fields, compared case-folded.
const (
	FieldNamePeriod   = "sprintno"
	FieldNameSize     = "storypoint"
	FieldNameAssignee = "sprinter"
)

// ExtractStatus qualifies an assignee extraction result.
type ExtractStatus int

const (
	StatusMissing ExtractStatus = iota
	StatusEmpty
	StatusFound
)

// =============================================================================
// SCHEMA - Immutable resolved field identifiers
// =============================================================================

// Schema holds the resolved field ids for one board. It is built once per
// analysis run and passed by value; it carries no mutable state.
type Schema struct {
	PeriodFieldID   string
	SizeFieldID     string
	AssigneeFieldID string

	// Option-id -> display-text lookup for the assignee dropdown.
	assigneeOptions map[string]string
}

// ResolveSchema scans the board's field definitions for the three required
// fields. An empty definition list is a precondition failure; individually
// missing fields are not (extraction falls back to titles), and are
// reported by Missing.
func ResolveSchema(defs []FieldDefinition) (Schema, error) {
	if len(defs) == 0 {
		return Schema{}, ErrNoFieldDefinitions
	}

	s := Schema{assigneeOptions: make(map[string]string)}
	for _, def := range defs {
		switch strings.ToLower(def.Name) {
		case FieldNamePeriod:
			s.PeriodFieldID = def.ID
		case FieldNameSize:
			s.SizeFieldID = def.ID
		case FieldNameAssignee:
			s.AssigneeFieldID = def.ID
			for _, opt := range def.Options {
				s.assigneeOptions[opt.ID] = opt.Text
			}
		}
	}
	return s, nil
}

// Missing lists the display names of required fields that were not found.
func (s Schema) Missing() []string {
	var missing []string
	if s.PeriodFieldID == "" {
		missing = append(missing, FieldNamePeriod)
	}
	if s.SizeFieldID == "" {
		missing = append(missing, FieldNameSize)
	}
	if s.AssigneeFieldID == "" {
		missing = append(missing, FieldNameAssignee)
	}
	return missing
}

// OptionText resolves an assignee dropdown option id to its display text.
func (s Schema) OptionText(optionID string) (string, bool) {
	text, ok := s.assigneeOptions[optionID]
	return text, ok
}

// =============================================================================
// ASSIGNEE EXTRACTION
// =============================================================================

// Assignee extracts the assignee display name from a record.
//
// Preference order per field item:
//  1. Direct option-id reference on the item, resolved via the cached
//     option list (current wire format).
//  2. Nested value payload: plain text, legacy option-id reference, or the
//     alternate option-object shapes (already folded to text at ingestion).
//  3. An explicit null payload with no option id means the dropdown exists
//     but nothing was selected: StatusEmpty.
func (s Schema) Assignee(rec Record) (string, ExtractStatus) {
	if s.AssigneeFieldID == "" || len(rec.Fields) == 0 {
		return "", StatusMissing
	}

	for _, item := range rec.Fields {
		if item.FieldID != s.AssigneeFieldID {
			continue
		}

		if item.OptionID != "" {
			if text, ok := s.OptionText(item.OptionID); ok && strings.TrimSpace(text) != "" {
				return strings.TrimSpace(text), StatusFound
			}
		}

		switch item.Value.Kind {
		case KindEmpty:
			if item.OptionID == "" {
				return "", StatusEmpty
			}
		case KindText:
			if name := strings.TrimSpace(item.Value.Text); name != "" {
				return name, StatusFound
			}
		case KindOptionRef:
			if text, ok := s.OptionText(item.Value.OptionID); ok && strings.TrimSpace(text) != "" {
				return strings.TrimSpace(text), StatusFound
			}
		}
	}
	return "", StatusMissing
}

// =============================================================================
// NUMERIC EXTRACTION (period, size)
// =============================================================================

// PeriodNumber extracts the planning-period number from a record's
// structured field. Un-parseable content counts as absent, not an error.
func (s Schema) PeriodNumber(rec Record) (int, bool) {
	return s.intField(rec, s.PeriodFieldID)
}

// StoryPoints extracts the effort size from a record's structured field.
func (s Schema) StoryPoints(rec Record) (int, bool) {
	return s.intField(rec, s.SizeFieldID)
}

func (s Schema) intField(rec Record, fieldID string) (int, bool) {
	if fieldID == "" || len(rec.Fields) == 0 {
		return 0, false
	}
	for _, item := range rec.Fields {
		if item.FieldID != fieldID {
			continue
		}
		switch item.Value.Kind {
		case KindText:
			if n, err := strconv.Atoi(strings.TrimSpace(item.Value.Text)); err == nil {
				return n, true
			}
		case KindNumber:
			if n, err := parseWireNumber(item.Value.Number); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// parseWireNumber accepts "5" as well as the float spellings some boards
// emit ("5.0").
func parseWireNumber(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("not an integer: %s", raw)
	}
	return int(f), nil
}

// =============================================================================
// TITLE FALLBACK PARSERS
// =============================================================================

var (
	titlePeriodPattern = regexp.MustCompile(`^(\d{3})`)
	titleSizePattern   = regexp.MustCompile(`\(([135])\)`)
)

// PeriodFromTitle parses the leading three-digit period number from a
// record title ("235 - Fix login" yields 235). Titles without leading
// digits yield no period.
func PeriodFromTitle(title string) (int, bool) {
	m := titlePeriodPattern.FindStringSubmatch(title)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// SizeFromTitle parses the first parenthesized effort size from a record
// title ("Fix login (3)" yields 3). Titles without one yield an explicit
// zero: "no structured size" is distinguishable from a missing field but
// not from an estimated zero.
func SizeFromTitle(title string) int {
	m := titleSizePattern.FindStringSubmatch(title)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}
