package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// SelfIntroDigest summarizes the last four days of self-introductions, one
// line per newcomer, newest post winning when someone introduced themselves
// twice.
func (s *Service) SelfIntroDigest(ctx context.Context) error {
	channelID := s.cfg.Channels.SelfIntro
	if channelID == 0 {
		return fmt.Errorf("self-intro channel not configured")
	}

	now := s.clock.Now()
	start := now.Add(-4 * 24 * time.Hour)
	messages := s.history.MessagesBetween(channelID, start, now)

	// Group by author, keeping first-post order.
	order := make([]int64, 0, len(messages))
	byAuthor := make(map[int64][]Message, len(messages))
	for _, msg := range messages {
		if _, seen := byAuthor[msg.AuthorID]; !seen {
			order = append(order, msg.AuthorID)
		}
		byAuthor[msg.AuthorID] = append(byAuthor[msg.AuthorID], msg)
	}

	var summary string
	if len(order) == 0 {
		summary = fmt.Sprintf(
			"デジリューが巡回完了！%sの間に新しい自己紹介はなかったぞ。\nまだ名乗ってない仲間は、どしどし自己紹介してくれよな！",
			dateRange(start, now))
	} else {
		lines := []string{
			fmt.Sprintf("デジリューの自己紹介パトロールだぞ！%sのニューフェイスをまとめたぜ🔥", dateRange(start, now)),
		}
		for _, authorID := range order {
			authorMessages := byAuthor[authorID]
			latest := authorMessages[0]
			for _, msg := range authorMessages[1:] {
				if msg.SentAt.After(latest.SentAt) {
					latest = msg
				}
			}

			intro, truncated := excerpt(latest.Text, 160)
			if truncated {
				intro += "…"
			}
			if intro == "" {
				intro = "自己紹介をしてくれたぞ！"
			}
			lines = append(lines, fmt.Sprintf("- %s さん：%s", s.mention.Mention(authorID), intro))
		}
		lines = append(lines, "", "仲良くなるチャンスを逃すなよ！気になった子にはスレッドで声をかけてみてくれ！")
		summary = strings.Join(lines, "\n")
	}

	if err := s.sink.Send(ctx, channelID, summary); err != nil {
		return fmt.Errorf("failed to send self-intro digest: %w", err)
	}

	s.metrics.RecordMessage("self_intro")

	return s.store.SetLastSelfIntroDigest(now)
}

// AINewsDigest posts the morning news push. A failed fetch degrades to the
// no-news line, the push itself still happens.
func (s *Service) AINewsDigest(ctx context.Context) error {
	channelID := s.cfg.Channels.AINews
	if channelID == 0 {
		return fmt.Errorf("ai-news channel not configured")
	}

	articles, err := s.news.Fetch(ctx)
	if err != nil {
		s.logger.Error("news fetch failed", err)
		articles = nil
	}

	today := s.clock.Now()

	var text string
	if len(articles) == 0 {
		text = "デジリュー速報…今日はAIニュースが拾えなかった。ソース追加してくれたらもっと熱いネタを届けられるぞ！"
	} else {
		lines := []string{
			fmt.Sprintf("おはデジー！%sのAIトピックをお届けだぞ☀️🤖", today.Format("01月02日")),
			"朝のアウトプットに使ってくれよな！",
			"",
		}
		for _, article := range articles {
			title := article.Title
			if title == "" {
				title = "タイトル未設定"
			}
			block := []string{fmt.Sprintf("- 【%s】", title)}
			if article.Description != "" {
				block = append(block, "  "+article.Description)
			}
			if article.URL != "" {
				block = append(block, "  "+article.URL)
			}
			lines = append(lines, strings.Join(block, "\n"))
		}
		text = strings.Join(lines, "\n")
	}

	if err := s.sink.Send(ctx, channelID, text); err != nil {
		return fmt.Errorf("failed to send news digest: %w", err)
	}

	s.metrics.RecordMessage("ai_news")

	return s.store.SetLastAINewsPush(today)
}
