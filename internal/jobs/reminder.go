package jobs

import (
	"context"
	"fmt"

	"github.com/dejikatsu/dejiryu/internal/state"
)

// ReminderScan walks all pending events and dispatches every reminder whose
// instant has passed and has not fired yet, oldest first. Expired events are
// dropped. The whole event list is written back once per tick, after all
// dispatches: a crash or send failure between dispatch and write-back means
// the same reminder fires again next scan (at least once, never zero times).
func (s *Service) ReminderScan(ctx context.Context) error {
	channelID := s.cfg.Channels.Events
	if channelID == 0 {
		return fmt.Errorf("events channel not configured")
	}

	now := s.clock.Now()
	events := s.store.Events()
	updated := make([]state.Event, 0, len(events))

	for _, event := range events {
		eventTime := event.EventTime.In(now.Location())
		if eventTime.Before(now) {
			// Expired events are garbage, not archived.
			continue
		}

		for _, reminderTime := range event.Reminders {
			if event.HasFired(reminderTime) || reminderTime.After(now) {
				continue
			}

			text := fmt.Sprintf(
				"《イベントリマインド》\n「%s」まであと %s だぞ！\n開始日時：%s\n準備は整ってるか？デジリューはテンションMAXで待ってるぞ🔥",
				event.Title,
				reminderLabel(eventTime, reminderTime),
				eventTime.Format("2006-01-02 15:04"),
			)
			if err := s.sink.Send(ctx, channelID, text); err != nil {
				return fmt.Errorf("failed to send event reminder: %w", err)
			}

			event.MarkFired(reminderTime)
			s.metrics.RecordMessage("events")
			s.metrics.RecordReminder()
		}

		updated = append(updated, event)
	}

	if err := s.store.ReplaceEvents(updated); err != nil {
		return err
	}

	s.metrics.SetEventsTracked(len(updated))

	return nil
}
