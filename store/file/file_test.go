package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/capacity-engine/exceptions"
	"github.com/warp/capacity-engine/store/file"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func testDocument() *exceptions.Document {
	doc := exceptions.NewDocument()
	doc.Sprints["236"] = exceptions.PeriodRecord{
		Exceptions: exceptions.PeriodExceptions{
			"ali": {VacationDays: 2, OnCall: true},
		},
		UpdatedAt: time.Date(2026, time.August, 30, 12, 0, 0, 0, time.UTC),
	}
	doc.Settings[exceptions.SettingTargetSPPerPerson] = 25
	return doc
}

// =============================================================================
// TESTS
// =============================================================================

func TestFileStore_LoadBeforeFirstSave_NilNil(t *testing.T) {
	// GIVEN: A path where no document exists yet
	// WHEN: Loading
	// THEN: (nil, nil) signals "never written"

	store := file.New(filepath.Join(t.TempDir(), "exceptions.json"))

	doc, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestFileStore_RoundTrip(t *testing.T) {
	// GIVEN: A document with entries and a custom setting
	// WHEN: Saving and loading it back
	// THEN: Everything round-trips

	path := filepath.Join(t.TempDir(), "exceptions.json")
	store := file.New(path)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testDocument()))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, 2, loaded.Sprints["236"].Exceptions["ali"].VacationDays)
	assert.True(t, loaded.Sprints["236"].Exceptions["ali"].OnCall)
	assert.Equal(t, 25.0, loaded.Settings[exceptions.SettingTargetSPPerPerson])
	assert.False(t, loaded.CreatedAt.IsZero())
}

func TestFileStore_SaveCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "exceptions.json")
	store := file.New(path)

	require.NoError(t, store.Save(context.Background(), exceptions.NewDocument()))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestFileStore_SaveOverwritesAtomically(t *testing.T) {
	// GIVEN: An existing document on disk
	// WHEN: Saving a replacement
	// THEN: The file holds the replacement and no temp files linger

	dir := t.TempDir()
	path := filepath.Join(dir, "exceptions.json")
	store := file.New(path)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testDocument()))

	replacement := exceptions.NewDocument()
	replacement.Sprints["240"] = exceptions.PeriodRecord{
		Exceptions: exceptions.PeriodExceptions{"gul": {OnCall: true}},
		UpdatedAt:  time.Now().UTC(),
	}
	require.NoError(t, store.Save(ctx, replacement))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.NotContains(t, loaded.Sprints, "236")
	assert.Contains(t, loaded.Sprints, "240")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files should not linger")
}

func TestFileStore_HandEditedFileParses(t *testing.T) {
	// GIVEN: A hand-written document in the on-disk layout
	// WHEN: Loading it
	// THEN: Entries and settings are picked up

	path := filepath.Join(t.TempDir(), "exceptions.json")
	raw := `{
	  "sprints": {
	    "236": {
	      "exceptions": {"ali": {"customer_delegate": true, "customer_delegate_days": 3}},
	      "updated_at": "2026-08-30T12:00:00Z"
	    }
	  },
	  "settings": {"target_sp_per_person": 18},
	  "created_at": "2026-01-01T00:00:00Z"
	}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	loaded, err := file.New(path).Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, loaded)

	entry := loaded.Sprints["236"].Exceptions["ali"]
	assert.True(t, entry.CustomerDelegate)
	assert.Equal(t, 3, entry.CustomerDelegateDays)
	assert.Equal(t, 18.0, loaded.Settings["target_sp_per_person"])
}

func TestFileStore_CorruptFile_Error(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exceptions.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := file.New(path).Load(context.Background())
	assert.Error(t, err)
}
