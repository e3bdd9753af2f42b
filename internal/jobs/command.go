package jobs

import (
	"fmt"
	"strings"
	"time"

	"github.com/dejikatsu/dejiryu/internal/logger"
	"github.com/dejikatsu/dejiryu/internal/state"
	"golang.org/x/text/unicode/norm"
)

const eventUsage = "日付は YYYY-MM-DD HH:MM 形式で頼むぞ！例: /event 2025-03-10 19:30 春のキックオフ会"

// RegisterEvent handles the /event command body: "<date> <time> <title>".
// The returned text is the user-facing reply. Malformed date or time yields
// the usage hint and mutates nothing; only a persistence failure is an error
// (the caller then stays silent).
func (s *Service) RegisterEvent(messageID, channelID int64, args string) (string, error) {
	date, timeOfDay, title, ok := splitEventArgs(args)
	if !ok {
		return eventUsage, nil
	}

	// Full-width digits and separators are common on Japanese keyboards;
	// the title itself is kept exactly as typed.
	normalized := norm.NFKC.String(date + " " + timeOfDay)
	eventTime, err := time.ParseInLocation("2006-01-02 15:04", normalized, s.location())
	if err != nil {
		return eventUsage, nil
	}

	event := state.NewEvent(messageID, channelID, title, eventTime)
	if err := s.store.AppendEvent(event); err != nil {
		return "", fmt.Errorf("failed to persist event: %w", err)
	}

	s.logger.Info("event registered",
		logger.Field{Key: "title", Value: title},
		logger.Field{Key: "event_time", Value: eventTime.Format(time.RFC3339)})

	return fmt.Sprintf("了解だぞ！イベント「%s」の予定をキャッチした。3日前・1日前・6時間前にデジリューが吠えるから覚悟しててくれ！", title), nil
}

// splitEventArgs splits the command tail into date, time and free-text title.
// The title keeps its inner spacing.
func splitEventArgs(args string) (date, timeOfDay, title string, ok bool) {
	rest := strings.TrimSpace(args)

	i := strings.IndexAny(rest, " \t")
	if i < 0 {
		return "", "", "", false
	}
	date, rest = rest[:i], strings.TrimLeft(rest[i:], " \t")

	j := strings.IndexAny(rest, " \t")
	if j < 0 {
		return "", "", "", false
	}
	timeOfDay, title = rest[:j], strings.TrimSpace(rest[j:])

	if title == "" {
		return "", "", "", false
	}

	return date, timeOfDay, title, true
}

func (s *Service) location() *time.Location {
	return s.clock.Now().Location()
}
