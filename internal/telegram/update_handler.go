package telegram

import (
	"fmt"
	"strings"
	"time"

	"github.com/dejikatsu/dejiryu/internal/clock"
	"github.com/dejikatsu/dejiryu/internal/jobs"
	"github.com/dejikatsu/dejiryu/internal/logger"
	"github.com/mymmrac/telego"
)

// EventRegistrar handles the /event command body and produces the reply.
type EventRegistrar interface {
	RegisterEvent(messageID, channelID int64, args string) (string, error)
}

// UpdateHandler routes incoming Telegram updates: it captures messages in
// the tracked channels, tallies reactions in the interaction channel and
// dispatches the /event command.
type UpdateHandler struct {
	connector *Connector
	logger    *logger.Logger
}

// NewUpdateHandler creates a new update handler.
func NewUpdateHandler(connector *Connector, log *logger.Logger) *UpdateHandler {
	return &UpdateHandler{
		connector: connector,
		logger:    log,
	}
}

// Handle processes one Telegram update.
func (uh *UpdateHandler) Handle(update telego.Update) error {
	if update.MessageReaction != nil {
		return uh.handleReaction(update.MessageReaction)
	}
	if update.Message != nil {
		return uh.handleMessage(update.Message)
	}

	return nil
}

// handleMessage captures channel traffic and routes commands. Bot-authored
// messages are ignored everywhere.
func (uh *UpdateHandler) handleMessage(msg *telego.Message) error {
	if msg.From == nil || msg.From.IsBot {
		return nil
	}

	uh.connector.recorder.RememberUser(msg.From)

	chatID := msg.Chat.ID
	channels := uh.connector.cfg.Channels

	if chatID == channels.SelfIntro || chatID == channels.Achievements {
		uh.connector.recorder.Record(jobs.Message{
			ID:        int64(msg.MessageID),
			ChannelID: chatID,
			AuthorID:  msg.From.ID,
			Text:      msg.Text,
			SentAt:    time.Unix(msg.Date, 0),
		})
	}

	if chatID == channels.Achievements {
		week := clock.WeekKey(uh.connector.clock.Now())
		if err := uh.connector.store.RecordAchievement(week, int64(msg.MessageID)); err != nil {
			return fmt.Errorf("failed to record achievement: %w", err)
		}

		uh.logger.Debug("achievement recorded",
			logger.Field{Key: "week", Value: week},
			logger.Field{Key: "message_id", Value: msg.MessageID})
	}

	if command, args, ok := parseCommand(msg.Text); ok && command == "event" {
		return uh.handleEventCommand(msg, args)
	}

	return nil
}

// handleEventCommand registers the event and replies in the same chat. An
// empty reply with no error means stay silent.
func (uh *UpdateHandler) handleEventCommand(msg *telego.Message, args string) error {
	registrar := uh.connector.registrar
	if registrar == nil {
		uh.logger.Warn("event command received before registrar wired")
		return nil
	}

	reply, err := registrar.RegisterEvent(int64(msg.MessageID), msg.Chat.ID, args)
	if err != nil {
		return fmt.Errorf("failed to register event: %w", err)
	}
	if reply == "" {
		return nil
	}

	return uh.connector.sender.Send(uh.connector.ctx, msg.Chat.ID, reply)
}

// handleReaction adjusts the week's reaction tally by how many reactions the
// user added or removed on the message. Only the interaction channel counts.
func (uh *UpdateHandler) handleReaction(reaction *telego.MessageReactionUpdated) error {
	interactionChannel := uh.connector.cfg.Channels.Interaction
	if interactionChannel == 0 || reaction.Chat.ID != interactionChannel {
		return nil
	}
	if reaction.User == nil || reaction.User.IsBot {
		return nil
	}

	delta := len(reaction.NewReaction) - len(reaction.OldReaction)
	if delta == 0 {
		return nil
	}

	week := clock.WeekKey(uh.connector.clock.Now())
	count, err := uh.connector.store.AddReaction(week, reaction.User.ID, delta)
	if err != nil {
		return fmt.Errorf("failed to record reaction: %w", err)
	}

	uh.logger.Debug("reaction tally updated",
		logger.Field{Key: "week", Value: week},
		logger.Field{Key: "user_id", Value: reaction.User.ID},
		logger.Field{Key: "delta", Value: delta},
		logger.Field{Key: "count", Value: count})

	return nil
}

// parseCommand splits "/event 2025-03-10 19:30 title" into the command name
// and its argument tail. The "/event@BotName" form used in groups is
// accepted too.
func parseCommand(text string) (command, args string, ok bool) {
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}

	head := text[1:]
	if i := strings.IndexAny(head, " \t"); i >= 0 {
		head, args = head[:i], strings.TrimLeft(head[i:], " \t")
	}
	if at := strings.Index(head, "@"); at >= 0 {
		head = head[:at]
	}
	if head == "" {
		return "", "", false
	}

	return strings.ToLower(head), args, true
}
