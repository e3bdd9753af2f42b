package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/dejikatsu/dejiryu/internal/logger"
)

// Store is the single synchronization point for all persisted state. Reads
// are served from the in-memory mirror; every mutation holds the write lock,
// applies in place and flushes the whole document before returning, so two
// concurrent increments can never lose an update.
type Store struct {
	filePath string
	logger   *logger.Logger

	mu   sync.RWMutex
	data State
}

// NewStore loads (or initializes) the state file at filePath. A missing file
// yields defaults. A file that cannot be parsed is discarded with a warning
// and replaced by defaults on the next flush; read failures other than
// absence are startup errors.
func NewStore(filePath string, log *logger.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	s := &Store{
		filePath: filePath,
		logger:   log,
		data:     defaultState(),
	}

	raw, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		s.data.normalize()
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	loaded := defaultState()
	if err := json.Unmarshal(raw, &loaded); err != nil {
		log.Warn("state file is corrupted, recreating default state",
			logger.Field{Key: "file", Value: filePath},
			logger.Field{Key: "error", Value: err})
		loaded = defaultState()
	}
	loaded.normalize()
	s.data = loaded

	return s, nil
}

// Snapshot returns a deep copy of the whole state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Clone()
}

// Events returns a deep copy of the pending event list.
func (s *Store) Events() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Event, 0, len(s.data.Events))
	for _, ev := range s.data.Events {
		out = append(out, ev.Clone())
	}
	return out
}

// ReactionWeek returns a copy of one week's reaction tally. Unknown weeks
// yield an empty map.
func (s *Store) ReactionWeek(week string) map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := map[string]int{}
	for user, count := range s.data.ReactionCounts[week] {
		out[user] = count
	}
	return out
}

// AchievementWeek returns a copy of one week's achievement refs.
func (s *Store) AchievementWeek(week string) []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]int64(nil), s.data.AchievementLogs[week]...)
}

// RotationIndex returns the exclusive rotation cursor.
func (s *Store) RotationIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.ExclusiveRotationIndex
}

// LastExclusiveDrop returns the last exclusive push instant, or nil.
func (s *Store) LastExclusiveDrop() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTime(s.data.LastExclusiveDrop)
}

// Mutate applies fn to the state under the global write lock and flushes the
// result. Exactly one mutation is in flight at a time for the whole store;
// fn must not block on anything that needs the store.
func (s *Store) Mutate(fn func(*State)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.data)
	return s.flushLocked()
}

// AddReaction adjusts one user's tally for a week and returns the new count.
// Decrements clamp at zero.
func (s *Store) AddReaction(week string, userID int64, delta int) (int, error) {
	user := strconv.FormatInt(userID, 10)
	var newCount int

	err := s.Mutate(func(st *State) {
		weekCounts := st.ReactionCounts[week]
		if weekCounts == nil {
			weekCounts = map[string]int{}
			st.ReactionCounts[week] = weekCounts
		}
		newCount = weekCounts[user] + delta
		if newCount < 0 {
			newCount = 0
		}
		weekCounts[user] = newCount
	})

	return newCount, err
}

// RecordAchievement appends a message ref to a week's achievement log.
func (s *Store) RecordAchievement(week string, messageID int64) error {
	return s.Mutate(func(st *State) {
		st.AchievementLogs[week] = append(st.AchievementLogs[week], messageID)
	})
}

// AppendEvent adds a newly registered event.
func (s *Store) AppendEvent(ev Event) error {
	return s.Mutate(func(st *State) {
		st.Events = append(st.Events, ev.Clone())
	})
}

// ReplaceEvents swaps in the full event list produced by a reminder scan.
// One call per tick keeps the scan's write-back atomic.
func (s *Store) ReplaceEvents(events []Event) error {
	cloned := make([]Event, 0, len(events))
	for _, ev := range events {
		cloned = append(cloned, ev.Clone())
	}

	return s.Mutate(func(st *State) {
		st.Events = cloned
	})
}

// EvictReactionWeek removes a reported week's tally. Removing an absent week
// is a no-op.
func (s *Store) EvictReactionWeek(week string) error {
	return s.Mutate(func(st *State) {
		delete(st.ReactionCounts, week)
	})
}

// EvictAchievementWeek removes a reported week's achievement log.
func (s *Store) EvictAchievementWeek(week string) error {
	return s.Mutate(func(st *State) {
		delete(st.AchievementLogs, week)
	})
}

// AdvanceRotation writes the next cursor value and the drop instant in one
// mutation.
func (s *Store) AdvanceRotation(next int, at time.Time) error {
	return s.Mutate(func(st *State) {
		st.ExclusiveRotationIndex = next
		st.LastExclusiveDrop = &at
	})
}

// SetLastConsultationPing records the consultation prompt marker.
func (s *Store) SetLastConsultationPing(at time.Time) error {
	return s.Mutate(func(st *State) {
		st.LastConsultationPing = &at
	})
}

// SetLastSelfIntroDigest records the self-intro digest marker.
func (s *Store) SetLastSelfIntroDigest(at time.Time) error {
	return s.Mutate(func(st *State) {
		st.LastSelfIntroDigest = &at
	})
}

// SetLastAINewsPush records the news digest marker.
func (s *Store) SetLastAINewsPush(at time.Time) error {
	return s.Mutate(func(st *State) {
		st.LastAINewsPush = &at
	})
}

// flushLocked serializes the whole store and atomically replaces the state
// file: write to a temporary sibling, fsync, rename. A crash mid-write never
// leaves a torn document behind. Callers must hold the write lock.
func (s *Store) flushLocked() error {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tmpPath := s.filePath + ".tmp"

	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create temporary state file: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		return fmt.Errorf("failed to write temporary state file: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("failed to sync temporary state file: %w", err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close temporary state file: %w", err)
	}

	if err := os.Rename(tmpPath, s.filePath); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	s.logger.Debug("state flushed",
		logger.Field{Key: "file", Value: s.filePath},
		logger.Field{Key: "bytes", Value: len(data)})

	return nil
}
