package board_test

import (
	"testing"

	"github.com/warp/capacity-engine/board"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func testDefs() []board.FieldDefinition {
	return []board.FieldDefinition{
		{ID: "f-sprint", Name: "SprintNo", Type: board.FieldTypeText},
		{ID: "f-size", Name: "StoryPoint", Type: board.FieldTypeNumber},
		{ID: "f-sprinter", Name: "Sprinter", Type: board.FieldTypeList, Options: []board.FieldOption{
			{ID: "opt-ali", Text: "Ali"},
			{ID: "opt-ayse", Text: "Ayşe"},
			{ID: "opt-blank", Text: "  "},
		}},
	}
}

func mustResolve(t *testing.T) board.Schema {
	t.Helper()
	schema, err := board.ResolveSchema(testDefs())
	if err != nil {
		t.Fatalf("ResolveSchema failed: %v", err)
	}
	return schema
}

func textItem(fieldID, text string) board.FieldItem {
	return board.FieldItem{FieldID: fieldID, Value: board.FieldValue{Kind: board.KindText, Text: text}}
}

func numberItem(fieldID, raw string) board.FieldItem {
	return board.FieldItem{FieldID: fieldID, Value: board.FieldValue{Kind: board.KindNumber, Number: raw}}
}

// =============================================================================
// SCHEMA RESOLUTION TESTS
// =============================================================================

func TestResolveSchema_MatchesFieldsCaseInsensitively(t *testing.T) {
	// GIVEN: Field definitions with mixed-case display names
	// WHEN: Resolving the schema
	// THEN: All three required fields are found

	schema := mustResolve(t)

	if schema.PeriodFieldID != "f-sprint" {
		t.Errorf("period field = %q, want f-sprint", schema.PeriodFieldID)
	}
	if schema.SizeFieldID != "f-size" {
		t.Errorf("size field = %q, want f-size", schema.SizeFieldID)
	}
	if schema.AssigneeFieldID != "f-sprinter" {
		t.Errorf("assignee field = %q, want f-sprinter", schema.AssigneeFieldID)
	}
	if missing := schema.Missing(); len(missing) != 0 {
		t.Errorf("Missing() = %v, want none", missing)
	}
}

func TestResolveSchema_EmptyDefinitions_Fails(t *testing.T) {
	// GIVEN: A board with no custom fields at all
	// WHEN: Resolving the schema
	// THEN: The precondition error is returned

	_, err := board.ResolveSchema(nil)
	if err != board.ErrNoFieldDefinitions {
		t.Fatalf("err = %v, want ErrNoFieldDefinitions", err)
	}
}

func TestResolveSchema_IndividuallyMissingFields_Reported(t *testing.T) {
	// GIVEN: A board that only defines the sprint field
	// WHEN: Resolving the schema
	// THEN: Resolution succeeds and Missing lists the other two

	schema, err := board.ResolveSchema([]board.FieldDefinition{
		{ID: "f-sprint", Name: "sprintno"},
	})
	if err != nil {
		t.Fatalf("ResolveSchema failed: %v", err)
	}

	missing := schema.Missing()
	if len(missing) != 2 {
		t.Fatalf("Missing() = %v, want 2 entries", missing)
	}
	if missing[0] != board.FieldNameSize || missing[1] != board.FieldNameAssignee {
		t.Errorf("Missing() = %v, want [storypoint sprinter]", missing)
	}
}

func TestSchema_OptionText(t *testing.T) {
	schema := mustResolve(t)

	if text, ok := schema.OptionText("opt-ali"); !ok || text != "Ali" {
		t.Errorf("OptionText(opt-ali) = %q, %v", text, ok)
	}
	if _, ok := schema.OptionText("opt-unknown"); ok {
		t.Error("unknown option id should not resolve")
	}
}

// =============================================================================
// ASSIGNEE EXTRACTION TESTS
// =============================================================================

func TestAssignee_OptionIDResolvesViaSchema(t *testing.T) {
	// GIVEN: A record whose sprinter item carries the current-format option id
	// WHEN: Extracting the assignee
	// THEN: The option text is returned with StatusFound

	schema := mustResolve(t)
	rec := board.Record{Fields: []board.FieldItem{
		{FieldID: "f-sprinter", OptionID: "opt-ayse"},
	}}

	name, status := schema.Assignee(rec)
	if status != board.StatusFound || name != "Ayşe" {
		t.Errorf("Assignee = %q, %v; want Ayşe, StatusFound", name, status)
	}
}

func TestAssignee_NestedValueShapes(t *testing.T) {
	schema := mustResolve(t)

	cases := []struct {
		name  string
		item  board.FieldItem
		want  string
		state board.ExtractStatus
	}{
		{
			name:  "plain text payload",
			item:  textItem("f-sprinter", " Mehmet "),
			want:  "Mehmet",
			state: board.StatusFound,
		},
		{
			name: "legacy option reference in value",
			item: board.FieldItem{
				FieldID: "f-sprinter",
				Value:   board.FieldValue{Kind: board.KindOptionRef, OptionID: "opt-ali"},
			},
			want:  "Ali",
			state: board.StatusFound,
		},
		{
			name: "explicit null means unselected dropdown",
			item: board.FieldItem{
				FieldID: "f-sprinter",
				Value:   board.FieldValue{Kind: board.KindEmpty},
			},
			want:  "",
			state: board.StatusEmpty,
		},
		{
			name:  "whitespace-only text is not a name",
			item:  textItem("f-sprinter", "   "),
			want:  "",
			state: board.StatusMissing,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := board.Record{Fields: []board.FieldItem{tc.item}}
			name, status := schema.Assignee(rec)
			if name != tc.want || status != tc.state {
				t.Errorf("Assignee = %q, %v; want %q, %v", name, status, tc.want, tc.state)
			}
		})
	}
}

func TestAssignee_NoFieldItem_Missing(t *testing.T) {
	// GIVEN: A record with field items for other fields only
	// WHEN: Extracting the assignee
	// THEN: StatusMissing, distinct from an empty dropdown

	schema := mustResolve(t)
	rec := board.Record{Fields: []board.FieldItem{textItem("f-sprint", "235")}}

	if _, status := schema.Assignee(rec); status != board.StatusMissing {
		t.Errorf("status = %v, want StatusMissing", status)
	}
}

func TestAssignee_BlankOptionTextFallsThrough(t *testing.T) {
	// GIVEN: An option id resolving to whitespace-only text and a nested
	//        text payload on the same item
	// WHEN: Extracting the assignee
	// THEN: The nested payload is used

	schema := mustResolve(t)
	rec := board.Record{Fields: []board.FieldItem{{
		FieldID:  "f-sprinter",
		OptionID: "opt-blank",
		Value:    board.FieldValue{Kind: board.KindText, Text: "Zeynep"},
	}}}

	name, status := schema.Assignee(rec)
	if status != board.StatusFound || name != "Zeynep" {
		t.Errorf("Assignee = %q, %v; want Zeynep, StatusFound", name, status)
	}
}

// =============================================================================
// NUMERIC EXTRACTION TESTS
// =============================================================================

func TestNumericExtraction(t *testing.T) {
	schema := mustResolve(t)

	cases := []struct {
		name   string
		rec    board.Record
		period int
		okP    bool
		size   int
		okS    bool
	}{
		{
			name: "text sprint number and float-spelled size",
			rec: board.Record{Fields: []board.FieldItem{
				textItem("f-sprint", " 235 "),
				numberItem("f-size", "5.0"),
			}},
			period: 235, okP: true, size: 5, okS: true,
		},
		{
			name: "integer wire number",
			rec: board.Record{Fields: []board.FieldItem{
				numberItem("f-sprint", "234"),
				numberItem("f-size", "3"),
			}},
			period: 234, okP: true, size: 3, okS: true,
		},
		{
			name: "unparseable content counts as absent",
			rec: board.Record{Fields: []board.FieldItem{
				textItem("f-sprint", "sprint two"),
				numberItem("f-size", "2.5"),
			}},
			okP: false, okS: false,
		},
		{
			name: "no items at all",
			rec:  board.Record{},
			okP:  false, okS: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, okP := schema.PeriodNumber(tc.rec)
			if okP != tc.okP || (okP && p != tc.period) {
				t.Errorf("PeriodNumber = %d, %v; want %d, %v", p, okP, tc.period, tc.okP)
			}
			s, okS := schema.StoryPoints(tc.rec)
			if okS != tc.okS || (okS && s != tc.size) {
				t.Errorf("StoryPoints = %d, %v; want %d, %v", s, okS, tc.size, tc.okS)
			}
		})
	}
}

// =============================================================================
// TITLE FALLBACK TESTS
// =============================================================================

func TestPeriodFromTitle(t *testing.T) {
	cases := []struct {
		title string
		want  int
		ok    bool
	}{
		{"235 - Fix login", 235, true},
		{"2357 extra digits keep the first three", 235, true},
		{"Fix login", 0, false},
		{"23 - only two digits", 0, false},
		{" 235 leading space breaks the anchor", 0, false},
	}

	for _, tc := range cases {
		got, ok := board.PeriodFromTitle(tc.title)
		if got != tc.want || ok != tc.ok {
			t.Errorf("PeriodFromTitle(%q) = %d, %v; want %d, %v", tc.title, got, ok, tc.want, tc.ok)
		}
	}
}

func TestSizeFromTitle(t *testing.T) {
	cases := []struct {
		title string
		want  int
	}{
		{"Fix login (3)", 3},
		{"Fix login (1) then (5)", 1},
		{"Fix login (5)", 5},
		{"Fix login (2)", 0},
		{"Fix login", 0},
	}

	for _, tc := range cases {
		if got := board.SizeFromTitle(tc.title); got != tc.want {
			t.Errorf("SizeFromTitle(%q) = %d, want %d", tc.title, got, tc.want)
		}
	}
}
