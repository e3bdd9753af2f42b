// Package state owns the persisted bot state: weekly reaction tallies,
// achievement logs, the exclusive rotation cursor, pending events and the
// last-run markers. Everything is kept in one typed record, persisted as a
// single JSON document, and mutated only through the Store so concurrent
// jobs never interleave updates.
package state

import (
	"time"
)

// Reminder offsets relative to an event's start, ascending.
var reminderOffsets = []time.Duration{
	72 * time.Hour,
	24 * time.Hour,
	6 * time.Hour,
}

// Event is one user-registered event awaiting reminders. Reminders holds the
// absolute instants computed once at registration; Reminded holds the
// RFC 3339 identity of every offset already dispatched.
type Event struct {
	MessageID int64       `json:"message_id"`
	ChannelID int64       `json:"channel_id"`
	Title     string      `json:"title"`
	EventTime time.Time   `json:"event_time"`
	Reminders []time.Time `json:"reminders"`
	Reminded  []string    `json:"reminded"`
}

// NewEvent builds an Event for the given start time, deriving the three
// reminder instants (3 days, 1 day, 6 hours before) up front.
func NewEvent(messageID, channelID int64, title string, eventTime time.Time) Event {
	reminders := make([]time.Time, 0, len(reminderOffsets))
	for _, offset := range reminderOffsets {
		reminders = append(reminders, eventTime.Add(-offset))
	}

	return Event{
		MessageID: messageID,
		ChannelID: channelID,
		Title:     title,
		EventTime: eventTime,
		Reminders: reminders,
		Reminded:  []string{},
	}
}

// ReminderID is the identity under which a reminder instant is marked fired.
func ReminderID(reminder time.Time) string {
	return reminder.Format(time.RFC3339)
}

// HasFired reports whether the reminder instant was already dispatched.
func (e *Event) HasFired(reminder time.Time) bool {
	id := ReminderID(reminder)
	for _, fired := range e.Reminded {
		if fired == id {
			return true
		}
	}
	return false
}

// MarkFired records the reminder instant as dispatched. Marking twice is a
// no-op.
func (e *Event) MarkFired(reminder time.Time) {
	if e.HasFired(reminder) {
		return
	}
	e.Reminded = append(e.Reminded, ReminderID(reminder))
}

// Clone returns a deep copy of the event.
func (e Event) Clone() Event {
	out := e
	out.Reminders = append([]time.Time(nil), e.Reminders...)
	out.Reminded = append([]string(nil), e.Reminded...)
	return out
}

// State is the full persisted record. JSON field names are the stable file
// format; renaming them breaks existing state files.
type State struct {
	ReactionCounts         map[string]map[string]int `json:"reaction_counts"`
	AchievementLogs        map[string][]int64        `json:"achievement_logs"`
	ExclusiveRotationIndex int                       `json:"exclusive_rotation_index"`
	LastExclusiveDrop      *time.Time                `json:"last_exclusive_drop"`
	Events                 []Event                   `json:"events"`
	LastConsultationPing   *time.Time                `json:"last_consultation_ping"`
	LastSelfIntroDigest    *time.Time                `json:"last_self_intro_digest"`
	LastAINewsPush         *time.Time                `json:"last_ai_news_push"`
}

func defaultState() State {
	return State{
		ReactionCounts:  map[string]map[string]int{},
		AchievementLogs: map[string][]int64{},
		Events:          []Event{},
	}
}

// normalize repairs the shapes a hand-edited or legacy file may carry: nil
// maps and slices become empty, negative counts clamp to zero.
func (s *State) normalize() {
	if s.ReactionCounts == nil {
		s.ReactionCounts = map[string]map[string]int{}
	}
	for week, users := range s.ReactionCounts {
		if users == nil {
			s.ReactionCounts[week] = map[string]int{}
			continue
		}
		for user, count := range users {
			if count < 0 {
				users[user] = 0
			}
		}
	}

	if s.AchievementLogs == nil {
		s.AchievementLogs = map[string][]int64{}
	}

	if s.Events == nil {
		s.Events = []Event{}
	}
	for i := range s.Events {
		if s.Events[i].Reminders == nil {
			s.Events[i].Reminders = []time.Time{}
		}
		if s.Events[i].Reminded == nil {
			s.Events[i].Reminded = []string{}
		}
	}
}

// Clone returns a deep copy safe to hand outside the store.
func (s State) Clone() State {
	out := s

	out.ReactionCounts = make(map[string]map[string]int, len(s.ReactionCounts))
	for week, users := range s.ReactionCounts {
		weekCopy := make(map[string]int, len(users))
		for user, count := range users {
			weekCopy[user] = count
		}
		out.ReactionCounts[week] = weekCopy
	}

	out.AchievementLogs = make(map[string][]int64, len(s.AchievementLogs))
	for week, refs := range s.AchievementLogs {
		out.AchievementLogs[week] = append([]int64(nil), refs...)
	}

	out.Events = make([]Event, 0, len(s.Events))
	for _, ev := range s.Events {
		out.Events = append(out.Events, ev.Clone())
	}

	out.LastExclusiveDrop = cloneTime(s.LastExclusiveDrop)
	out.LastConsultationPing = cloneTime(s.LastConsultationPing)
	out.LastSelfIntroDigest = cloneTime(s.LastSelfIntroDigest)
	out.LastAINewsPush = cloneTime(s.LastAINewsPush)

	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	copied := *t
	return &copied
}
