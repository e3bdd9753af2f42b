package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dejikatsu/dejiryu/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "state.json")
	log, err := logger.New(logger.Config{Level: "error", Format: "text", Output: "stdout"})
	require.NoError(t, err)

	store, err := NewStore(path, log)
	require.NoError(t, err)

	return store, path
}

func TestNewStore_MissingFileYieldsDefaults(t *testing.T) {
	store, path := newTestStore(t)

	snap := store.Snapshot()
	assert.Empty(t, snap.Events)
	assert.Empty(t, snap.ReactionCounts)
	assert.Equal(t, 0, snap.ExclusiveRotationIndex)
	assert.Nil(t, snap.LastAINewsPush)

	// No file is created until the first mutation.
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestNewStore_LoadsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	log, err := logger.New(logger.Config{Level: "error", Format: "text", Output: "stdout"})
	require.NoError(t, err)

	content := `{
  "reaction_counts": {"2025-W10": {"100": 4}},
  "achievement_logs": {"2025-W10": [11, 12]},
  "exclusive_rotation_index": 5,
  "events": [],
  "last_exclusive_drop": "2025-03-01T21:00:00+09:00"
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	store, err := NewStore(path, log)
	require.NoError(t, err)

	assert.Equal(t, 4, store.ReactionWeek("2025-W10")["100"])
	assert.Equal(t, []int64{11, 12}, store.AchievementWeek("2025-W10"))
	assert.Equal(t, 5, store.RotationIndex())
	require.NotNil(t, store.LastExclusiveDrop())
	// Keys absent from the file keep their defaults.
	assert.Nil(t, store.Snapshot().LastConsultationPing)
}

func TestNewStore_CorruptedFileFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	log, err := logger.New(logger.Config{Level: "error", Format: "text", Output: "stdout"})
	require.NoError(t, err)

	// Truncated JSON must not crash startup.
	require.NoError(t, os.WriteFile(path, []byte(`{"reaction_counts": {"2025-W10`), 0644))

	store, err := NewStore(path, log)
	require.NoError(t, err)

	snap := store.Snapshot()
	assert.Empty(t, snap.Events)
	assert.Empty(t, snap.ReactionCounts)
}

func TestNewStore_TypeMismatchFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	log, err := logger.New(logger.Config{Level: "error", Format: "text", Output: "stdout"})
	require.NoError(t, err)

	// Wrong shape for a known key is treated the same as corruption: no
	// partial recovery is attempted.
	require.NoError(t, os.WriteFile(path, []byte(`{"reaction_counts": "lots", "exclusive_rotation_index": 9}`), 0644))

	store, err := NewStore(path, log)
	require.NoError(t, err)

	assert.Equal(t, 0, store.RotationIndex())
	assert.Empty(t, store.ReactionWeek("2025-W10"))
}

func TestNewStore_ClampsNegativeLoadedCounts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	log, err := logger.New(logger.Config{Level: "error", Format: "text", Output: "stdout"})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"reaction_counts": {"2025-W10": {"100": -7}}}`), 0644))

	store, err := NewStore(path, log)
	require.NoError(t, err)

	assert.Equal(t, 0, store.ReactionWeek("2025-W10")["100"])
}

func TestAddReaction_IncrementDecrementClamp(t *testing.T) {
	store, _ := newTestStore(t)

	count, err := store.AddReaction("2025-W10", 100, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = store.AddReaction("2025-W10", 100, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Removing more reactions than were added clamps at zero.
	for i := 0; i < 5; i++ {
		count, err = store.AddReaction("2025-W10", 100, -1)
		require.NoError(t, err)
	}
	assert.Equal(t, 0, count)
	assert.Equal(t, 0, store.ReactionWeek("2025-W10")["100"])
}

func TestConcurrentMutations_NoLostUpdates(t *testing.T) {
	store, _ := newTestStore(t)

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := store.AddReaction("2025-W10", 100, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, store.ReactionWeek("2025-W10")["100"])
}

func TestFlushWritesAtomically(t *testing.T) {
	store, path := newTestStore(t)

	_, err := store.AddReaction("2025-W10", 100, 1)
	require.NoError(t, err)

	// The target file holds complete valid JSON and no temp file remains.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var onDisk map[string]any
	require.NoError(t, json.Unmarshal(raw, &onDisk))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFlushEmitsStableKeys(t *testing.T) {
	store, path := newTestStore(t)

	require.NoError(t, store.SetLastAINewsPush(time.Now()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var onDisk map[string]any
	require.NoError(t, json.Unmarshal(raw, &onDisk))

	for _, key := range []string{
		"reaction_counts",
		"achievement_logs",
		"exclusive_rotation_index",
		"last_exclusive_drop",
		"events",
		"last_consultation_ping",
		"last_self_intro_digest",
		"last_ai_news_push",
	} {
		assert.Contains(t, onDisk, key)
	}

	// Unset markers serialize as null, not as a missing key.
	assert.Nil(t, onDisk["last_consultation_ping"])
}

func TestStoreSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	log, err := logger.New(logger.Config{Level: "error", Format: "text", Output: "stdout"})
	require.NoError(t, err)

	store, err := NewStore(path, log)
	require.NoError(t, err)

	ev := NewEvent(42, -1007, "放課後もくもく会", time.Date(2025, 4, 1, 20, 0, 0, 0, time.UTC))
	require.NoError(t, store.AppendEvent(ev))
	_, err = store.AddReaction("2025-W14", 100, 1)
	require.NoError(t, err)

	// A fresh store over the same file sees everything.
	reopened, err := NewStore(path, log)
	require.NoError(t, err)

	events := reopened.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "放課後もくもく会", events[0].Title)
	assert.True(t, events[0].EventTime.Equal(ev.EventTime))
	assert.Equal(t, 1, reopened.ReactionWeek("2025-W14")["100"])
}

func TestRecordAchievement_AppendsInOrder(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.RecordAchievement("2025-W10", 11))
	require.NoError(t, store.RecordAchievement("2025-W10", 12))
	require.NoError(t, store.RecordAchievement("2025-W10", 13))

	assert.Equal(t, []int64{11, 12, 13}, store.AchievementWeek("2025-W10"))
}

func TestReplaceEvents_SwapsWholeList(t *testing.T) {
	store, _ := newTestStore(t)

	keep := NewEvent(1, 2, "keep", time.Now().Add(48*time.Hour))
	drop := NewEvent(3, 4, "drop", time.Now().Add(24*time.Hour))
	require.NoError(t, store.AppendEvent(keep))
	require.NoError(t, store.AppendEvent(drop))

	require.NoError(t, store.ReplaceEvents([]Event{keep}))

	events := store.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "keep", events[0].Title)
}

func TestEvictWeeks_Idempotent(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.AddReaction("2025-W10", 100, 1)
	require.NoError(t, err)

	require.NoError(t, store.EvictReactionWeek("2025-W10"))
	assert.Empty(t, store.ReactionWeek("2025-W10"))

	// Evicting again, or evicting a week that never existed, is a no-op.
	require.NoError(t, store.EvictReactionWeek("2025-W10"))
	require.NoError(t, store.EvictAchievementWeek("2099-W01"))
}

func TestAdvanceRotation_WritesCursorAndTimestamp(t *testing.T) {
	store, _ := newTestStore(t)

	at := time.Date(2025, 3, 9, 21, 0, 0, 0, time.UTC)
	require.NoError(t, store.AdvanceRotation(4, at))

	assert.Equal(t, 4, store.RotationIndex())
	require.NotNil(t, store.LastExclusiveDrop())
	assert.True(t, store.LastExclusiveDrop().Equal(at))
}

func TestReadsReturnCopies(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.AddReaction("2025-W10", 100, 3)
	require.NoError(t, err)
	require.NoError(t, store.AppendEvent(NewEvent(1, 2, "test", time.Now().Add(time.Hour))))

	// Mutating what a getter returned must not touch the store.
	week := store.ReactionWeek("2025-W10")
	week["100"] = 999

	events := store.Events()
	events[0].Title = "hijacked"
	events[0].MarkFired(events[0].Reminders[0])

	assert.Equal(t, 3, store.ReactionWeek("2025-W10")["100"])
	assert.Equal(t, "test", store.Events()[0].Title)
	assert.Empty(t, store.Events()[0].Reminded)
}
