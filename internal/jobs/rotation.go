package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ExclusiveDrop posts the next item of the exclusive content round-robin.
// The 24h tick only proceeds when the configured number of days has passed
// since the last drop; the first drop always proceeds.
func (s *Service) ExclusiveDrop(ctx context.Context) error {
	channelID := s.cfg.Channels.Exclusive
	if channelID == 0 || len(s.cfg.Rotation.Items) == 0 {
		// The drop is optional, skip silently when unconfigured.
		return nil
	}

	now := s.clock.Now()
	if last := s.store.LastExclusiveDrop(); last != nil {
		if now.Sub(*last) < time.Duration(s.cfg.Rotation.PeriodDays)*24*time.Hour {
			return nil
		}
	}

	index := s.store.RotationIndex() % len(s.cfg.Rotation.Items)
	item := s.cfg.Rotation.Items[index]

	lines := []string{
		"デジリューの極秘コンテンツ搬入だぞ🔥",
		fmt.Sprintf("【%s】", item.Title),
		item.Description,
	}
	if item.URL != "" {
		lines = append(lines, fmt.Sprintf("アクセスはこちら👉 %s", item.URL))
	}
	lines = append(lines, "感想や活用例をスレッドで自慢してくれよな！")

	if err := s.sink.Send(ctx, channelID, strings.Join(lines, "\n")); err != nil {
		return fmt.Errorf("failed to send exclusive drop: %w", err)
	}

	s.metrics.RecordMessage("exclusive")

	return s.store.AdvanceRotation(index+1, now)
}
