package jobs

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// excerpt truncates text to limit runes and flattens newlines to spaces.
// Truncation happens before flattening so the cut is counted against the
// original text.
func excerpt(text string, limit int) (string, bool) {
	runes := []rune(text)
	truncated := len(runes) > limit
	if truncated {
		runes = runes[:limit]
	}

	return strings.ReplaceAll(string(runes), "\n", " "), truncated
}

// dateRange renders a window as "03/06〜03/10".
func dateRange(start, end time.Time) string {
	return start.Format("01/02") + "〜" + end.Format("01/02")
}

// messageLink builds a t.me deep link for a message in a supergroup or
// channel. The -100 prefix of the chat id is not part of the link form.
func messageLink(channelID, messageID int64) string {
	id := strconv.FormatInt(channelID, 10)
	id = strings.TrimPrefix(id, "-100")
	id = strings.TrimPrefix(id, "-")

	return fmt.Sprintf("https://t.me/c/%s/%d", id, messageID)
}

// reminderLabel renders the remaining time between a reminder and its event
// as whole days, else whole hours, else minutes (minimum 1).
func reminderLabel(eventTime, reminderTime time.Time) string {
	delta := eventTime.Sub(reminderTime)

	if days := int(delta / (24 * time.Hour)); days > 0 {
		return fmt.Sprintf("%d日", days)
	}
	if hours := int(delta / time.Hour); hours >= 1 {
		return fmt.Sprintf("%d時間", hours)
	}

	minutes := int(delta / time.Minute)
	if minutes < 1 {
		minutes = 1
	}

	return fmt.Sprintf("%d分", minutes)
}
