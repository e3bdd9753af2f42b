package telegram

import (
	"context"
	"fmt"

	"github.com/dejikatsu/dejiryu/internal/logger"
	"github.com/dejikatsu/dejiryu/internal/retry"
	"github.com/mymmrac/telego"
)

// Sender pushes job output to Telegram chats. Transient API failures are
// retried with backoff; what still fails is reported to the job, which will
// take the same reminder or report up again on its next tick.
type Sender struct {
	bot      BotInterface
	logger   *logger.Logger
	retryCfg retry.Config
}

// NewSender creates a sender. The bot is attached later by the connector,
// once the API session exists.
func NewSender(log *logger.Logger) *Sender {
	return &Sender{logger: log}
}

// SetBot attaches the bot session the sender dispatches through.
func (s *Sender) SetBot(bot BotInterface) {
	s.bot = bot
}

// Send delivers one text message to a chat.
func (s *Sender) Send(ctx context.Context, channelID int64, text string) error {
	if s.bot == nil {
		return fmt.Errorf("telegram bot is not connected")
	}

	params := telego.SendMessageParams{
		ChatID: telego.ChatID{ID: channelID},
		Text:   text,
	}

	err := retry.Do(ctx, s.retryCfg, func() error {
		_, sendErr := s.bot.SendMessage(ctx, &params)
		return sendErr
	})
	if err != nil {
		return fmt.Errorf("failed to send message to chat %d: %w", channelID, err)
	}

	s.logger.Debug("message sent",
		logger.Field{Key: "chat_id", Value: channelID},
		logger.Field{Key: "length", Value: len(text)})

	return nil
}
