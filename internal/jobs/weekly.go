package jobs

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dejikatsu/dejiryu/internal/clock"
)

// InteractionReport posts the previous ISO week's reaction ranking and then
// evicts that week's tally. Reactions landing between the read and the evict
// are lost with the bucket; the weekly reset tolerates that.
func (s *Service) InteractionReport(ctx context.Context) error {
	channelID := s.cfg.Channels.Interaction
	if channelID == 0 {
		// The ranking is optional, skip silently without a channel.
		return nil
	}

	now := s.clock.Now()
	lastWeek := now.Add(-7 * 24 * time.Hour)
	weekKey := clock.WeekKey(lastWeek)
	counts := s.store.ReactionWeek(weekKey)

	var text string
	if len(counts) == 0 {
		text = "デジリューからの報告だ！先週はリアクションが少なめだったぞ。次はもっとワイワイしようぜ！🔥"
	} else {
		type tally struct {
			userKey string
			count   int
		}
		ranking := make([]tally, 0, len(counts))
		for userKey, count := range counts {
			ranking = append(ranking, tally{userKey: userKey, count: count})
		}
		sort.Slice(ranking, func(i, j int) bool {
			if ranking[i].count != ranking[j].count {
				return ranking[i].count > ranking[j].count
			}
			return ranking[i].userKey < ranking[j].userKey
		})
		if len(ranking) > 10 {
			ranking = ranking[:10]
		}

		lines := []string{
			fmt.Sprintf("デジリューの交流会ランキング発表！ (%s)", dateRange(lastWeek, now)),
			"リアクション王は誰だ！？",
		}
		for idx, entry := range ranking {
			lines = append(lines, fmt.Sprintf("%d. %s：%dリアクション", idx+1, s.mentionKey(entry.userKey), entry.count))
		}
		lines = append(lines, "今週もデジリューを驚かせるリアクション頼むぞ！🌟")
		text = strings.Join(lines, "\n")
	}

	if err := s.sink.Send(ctx, channelID, text); err != nil {
		return fmt.Errorf("failed to send interaction report: %w", err)
	}

	s.metrics.RecordMessage("interaction")

	return s.store.EvictReactionWeek(weekKey)
}

// AchievementReport posts the previous ISO week's done-report roundup and
// evicts that week's log. Messages no longer resolvable locally are linked
// instead of quoted.
func (s *Service) AchievementReport(ctx context.Context) error {
	channelID := s.cfg.Channels.Achievements
	if channelID == 0 {
		return fmt.Errorf("achievements channel not configured")
	}

	now := s.clock.Now()
	lastWeek := now.Add(-7 * 24 * time.Hour)
	weekKey := clock.WeekKey(lastWeek)
	messageIDs := s.store.AchievementWeek(weekKey)

	var text string
	if len(messageIDs) == 0 {
		text = "デジリュー通信！先週は「できた！」報告が見当たらなかったぞ…。みんなの挑戦を聞かせてくれ！"
	} else {
		lines := []string{
			fmt.Sprintf("%sの「できた！」報告まとめだぞ💪", dateRange(lastWeek, now)),
			"みんなの成長、デジリューがしっかり見届けた！",
		}
		for _, messageID := range messageIDs {
			msg, ok := s.history.Lookup(channelID, messageID)
			if !ok {
				lines = append(lines, fmt.Sprintf("- 報告はこちら👉 %s", messageLink(channelID, messageID)))
				continue
			}
			body, _ := excerpt(msg.Text, 120)
			lines = append(lines, fmt.Sprintf("- %s：%s…", s.mention.Mention(msg.AuthorID), body))
		}
		lines = append(lines, "次もド派手な「できた！」を待ってるぞ🔥")
		text = strings.Join(lines, "\n")
	}

	if err := s.sink.Send(ctx, channelID, text); err != nil {
		return fmt.Errorf("failed to send achievement report: %w", err)
	}

	s.metrics.RecordMessage("achievements")

	return s.store.EvictAchievementWeek(weekKey)
}

// mentionKey resolves a stored user key to a mention. Keys that are not
// numeric ids are shown as-is.
func (s *Service) mentionKey(userKey string) string {
	userID, err := strconv.ParseInt(userKey, 10, 64)
	if err != nil {
		return userKey
	}

	return s.mention.Mention(userID)
}
