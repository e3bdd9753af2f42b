package telegram

import (
	"context"

	"github.com/dejikatsu/dejiryu/internal/logger"
	"github.com/mymmrac/telego"
)

// LongPollManager handles long polling for Telegram updates. Reaction
// updates are not delivered by default and must be requested explicitly.
type LongPollManager struct {
	connector *Connector
	bot       BotInterface
	logger    *logger.Logger
	ctx       context.Context
}

// NewLongPollManager creates a new long poll manager.
func NewLongPollManager(connector *Connector, bot BotInterface, log *logger.Logger) *LongPollManager {
	return &LongPollManager{
		connector: connector,
		bot:       bot,
		logger:    log,
	}
}

// SetContext sets the context for the long poll manager.
func (lpm *LongPollManager) SetContext(ctx context.Context) {
	lpm.ctx = ctx
}

// Start starts long polling for Telegram updates.
func (lpm *LongPollManager) Start() {
	lpm.logger.Info("starting long polling for telegram updates")

	updates, err := lpm.bot.UpdatesViaLongPolling(lpm.ctx, &telego.GetUpdatesParams{
		Timeout:        30,
		AllowedUpdates: []string{"message", "message_reaction"},
	})
	if err != nil {
		lpm.logger.ErrorCtx(lpm.ctx, "failed to start long polling", err)
		return
	}

	for {
		select {
		case <-lpm.ctx.Done():
			lpm.logger.Info("long polling stopped")
			return
		case update, ok := <-updates:
			if !ok {
				lpm.logger.Info("updates channel closed")
				return
			}

			if err := lpm.connector.updateHandler.Handle(update); err != nil {
				lpm.logger.ErrorCtx(lpm.ctx, "failed to handle update", err)
			}
		}
	}
}
