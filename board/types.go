/*
Package board models the raw material of a capacity analysis: work records
fetched from an external tracking board, the board's dynamic field schema,
and the typed values extracted from both.

PURPOSE:
  The tracking service returns loosely-typed JSON: a custom field value may
  be a text object, a number object, an option-id reference, an explicit
  null, or absent entirely. This package resolves that mess ONCE at
  ingestion into a tagged variant (FieldValue) so the analysis layer never
  re-interprets raw payloads.

KEY CONCEPTS IN THIS FILE (types.go):
  - Record: one unit of tracked work (a card)
  - FieldItem: one custom-field value attached to a record
  - FieldValue: tagged variant {Text, Number, OptionRef, Empty, Missing}
  - FieldDefinition: board-level description of one custom field
  - Source: the external collaborator that fetches board data

THE FIVE VALUE CASES:
  KindMissing   the record carries no payload for this field
  KindEmpty     the field exists on the record but holds an explicit null
                (a dropdown with no selection) - distinct from Missing
  KindText      free-text payload
  KindNumber    numeric payload, kept raw until integer parsing
  KindOptionRef legacy option-id reference inside the value payload

SEE ALSO:
  - schema.go: field resolution and typed extraction
  - normalize.go: assignee key normalization
*/
package board

import (
	"context"
	"encoding/json"
	"errors"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNoFieldDefinitions is returned when the board exposes no custom
	// fields at all. The analysis cannot run without SprintNo, StoryPoint
	// and Sprinter fields.
	ErrNoFieldDefinitions = errors.New("board has no custom fields: create SprintNo, StoryPoint and Sprinter fields")

	// ErrNoRecords is returned when the board holds no records.
	ErrNoRecords = errors.New("board has no records")
)

// =============================================================================
// FIELD VALUE - Tagged variant for the loosely-typed payload
// =============================================================================

type ValueKind int

const (
	// KindMissing is the zero value: no payload decoded.
	KindMissing ValueKind = iota
	KindEmpty
	KindText
	KindNumber
	KindOptionRef
)

// FieldValue is the decoded form of one custom-field value payload.
// Exactly one of Text, Number, OptionID is meaningful, selected by Kind.
type FieldValue struct {
	Kind     ValueKind
	Text     string
	Number   string // raw numeric payload, parsed to int at extraction time
	OptionID string
}

// UnmarshalJSON decodes the wire shapes the tracking service emits:
//
//	null                          -> Empty
//	{"text": "Ali"}               -> Text
//	{"number": "5"} / {"number":5}-> Number
//	{"idListOption": "abc"}       -> OptionRef (legacy dropdown format)
//	{"option": {"value": "Ali"}}  -> Text (alternate dropdown object)
//	{"option": {"text": "Ali"}}   -> Text
//	{"option": "Ali"}             -> Text
//
// Anything unrecognized stays Missing so callers skip it instead of failing.
func (v *FieldValue) UnmarshalJSON(data []byte) error {
	*v = FieldValue{}

	var probe *map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		// Unrecognized shape: leave Missing rather than failing the record.
		return nil
	}
	if probe == nil {
		v.Kind = KindEmpty
		return nil
	}
	payload := *probe

	if raw, ok := payload["text"]; ok {
		var s string
		if json.Unmarshal(raw, &s) == nil && s != "" {
			v.Kind = KindText
			v.Text = s
			return nil
		}
	}
	if raw, ok := payload["number"]; ok {
		var s string
		if json.Unmarshal(raw, &s) == nil && s != "" {
			v.Kind = KindNumber
			v.Number = s
			return nil
		}
		var n float64
		if json.Unmarshal(raw, &n) == nil {
			v.Kind = KindNumber
			v.Number = trimFloat(n)
			return nil
		}
	}
	if raw, ok := payload["idListOption"]; ok {
		var s string
		if json.Unmarshal(raw, &s) == nil && s != "" {
			v.Kind = KindOptionRef
			v.OptionID = s
			return nil
		}
	}
	if raw, ok := payload["option"]; ok {
		if text, ok := decodeOptionObject(raw); ok {
			v.Kind = KindText
			v.Text = text
			return nil
		}
	}
	return nil
}

// decodeOptionObject handles the alternate dropdown shapes: an object with
// a "value" string, an object with a "text" string, or a bare string.
func decodeOptionObject(raw json.RawMessage) (string, bool) {
	var obj map[string]json.RawMessage
	if json.Unmarshal(raw, &obj) == nil {
		for _, key := range []string{"value", "text"} {
			if inner, ok := obj[key]; ok {
				var s string
				if json.Unmarshal(inner, &s) == nil && s != "" {
					return s, true
				}
			}
		}
		return "", false
	}
	var s string
	if json.Unmarshal(raw, &s) == nil && s != "" {
		return s, true
	}
	return "", false
}

func trimFloat(n float64) string {
	// The wire sends integers as floats; keep "5" rather than "5.000000".
	b, _ := json.Marshal(n)
	return string(b)
}

// =============================================================================
// RECORD - One unit of tracked work
// =============================================================================

// FieldItem is one custom-field entry attached to a record. The current
// wire format puts dropdown selections in OptionID; older boards nest them
// inside Value.
type FieldItem struct {
	FieldID  string
	OptionID string
	Value    FieldValue
}

// Record is read-only to the engine within one analysis run.
type Record struct {
	ID          string
	Title       string
	ContainerID string
	Fields      []FieldItem
}

// =============================================================================
// FIELD DEFINITIONS
// =============================================================================

type FieldType string

const (
	FieldTypeText   FieldType = "text"
	FieldTypeNumber FieldType = "number"
	FieldTypeList   FieldType = "list"
)

// FieldOption is one choice of a single-choice (dropdown) field.
type FieldOption struct {
	ID   string
	Text string
}

// FieldDefinition describes one dynamic field on the board.
type FieldDefinition struct {
	ID      string
	Name    string
	Type    FieldType
	Options []FieldOption
}

// Container is a named grouping of records (a board list).
type Container struct {
	ID   string
	Name string
}

// =============================================================================
// SOURCE - External collaborator fetching board data
// =============================================================================

// Source fetches board data from the external tracking service. The board
// scope is fixed at construction time. Implementations may fail or return
// empty slices; the engine treats empty as a reportable precondition
// failure, not a crash.
type Source interface {
	FetchRecords(ctx context.Context) ([]Record, error)
	FetchFieldDefinitions(ctx context.Context) ([]FieldDefinition, error)
	FetchContainers(ctx context.Context) ([]Container, error)
}
