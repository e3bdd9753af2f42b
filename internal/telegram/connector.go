// Package telegram binds DejiRyu to the Telegram Bot API using the Telego
// library. It long-polls for updates, captures channel traffic for the
// digests, tallies reactions, routes the /event command and delivers the
// scheduled job output.
package telegram

import (
	"context"
	"fmt"

	"github.com/dejikatsu/dejiryu/internal/clock"
	"github.com/dejikatsu/dejiryu/internal/config"
	"github.com/dejikatsu/dejiryu/internal/logger"
	"github.com/dejikatsu/dejiryu/internal/state"
	"github.com/mymmrac/telego"
)

// Connector owns the Telegram session and its sub-managers.
type Connector struct {
	cfg       *config.Config
	logger    *logger.Logger
	clock     clock.Clock
	store     *state.Store
	registrar EventRegistrar

	bot    BotInterface
	ctx    context.Context
	cancel context.CancelFunc

	sender          *Sender
	recorder        *Recorder
	longPollManager *LongPollManager
	updateHandler   *UpdateHandler
}

// New creates a new Telegram connector. The event registrar is attached
// separately because the job service needs the connector's sender and
// recorder first.
func New(cfg *config.Config, log *logger.Logger, clk clock.Clock, store *state.Store) *Connector {
	conn := &Connector{
		cfg:             cfg,
		logger:          log,
		clock:           clk,
		store:           store,
		sender:          NewSender(log),
		recorder:        NewRecorder(0),
		longPollManager: NewLongPollManager(nil, nil, log),
	}
	conn.updateHandler = NewUpdateHandler(conn, log)
	conn.longPollManager.connector = conn

	return conn
}

// Sender returns the outbound dispatcher for the job service.
func (c *Connector) Sender() *Sender {
	return c.sender
}

// Recorder returns the message history and mention source for the job
// service.
func (c *Connector) Recorder() *Recorder {
	return c.recorder
}

// AttachRegistrar wires the /event command body. Must happen before Start.
func (c *Connector) AttachRegistrar(registrar EventRegistrar) {
	c.registrar = registrar
}

// Start initializes the Telegram bot and starts listening for updates.
func (c *Connector) Start(ctx context.Context) error {
	if c.cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}

	if c.bot == nil {
		bot, err := telego.NewBot(c.cfg.Telegram.Token)
		if err != nil {
			return fmt.Errorf("failed to initialize telegram bot: %w", err)
		}
		c.bot = NewBotAdapter(bot)
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.sender.SetBot(c.bot)
	c.longPollManager.SetContext(c.ctx)
	c.longPollManager.bot = c.bot

	botUser, err := c.bot.GetMe(c.ctx)
	if err != nil {
		return fmt.Errorf("failed to get bot info: %w", err)
	}

	c.logger.Info("telegram bot initialized",
		logger.Field{Key: "bot_id", Value: botUser.ID},
		logger.Field{Key: "username", Value: botUser.Username})

	if err := c.registerCommands(); err != nil {
		c.logger.ErrorCtx(c.ctx, "failed to register bot commands", err)
	}

	go c.longPollManager.Start()

	return nil
}

// Stop gracefully stops the Telegram connector.
func (c *Connector) Stop() error {
	c.logger.Info("stopping telegram connector")

	if c.cancel != nil {
		c.cancel()
	}

	c.logger.Info("telegram connector stopped gracefully")

	return nil
}

// registerCommands publishes the bot command menu.
func (c *Connector) registerCommands() error {
	if c.bot == nil {
		return fmt.Errorf("bot is not initialized")
	}

	commands := &telego.SetMyCommandsParams{
		Commands: []telego.BotCommand{
			{Command: "event", Description: "イベントを登録する (例: /event 2025-03-10 19:30 キックオフ会)"},
		},
	}

	if err := c.bot.SetMyCommands(c.ctx, commands); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	c.logger.Info("bot commands registered successfully")

	return nil
}

// handleUpdate processes a Telegram update.
// This is a public wrapper for testing purposes.
func (c *Connector) handleUpdate(update telego.Update) error {
	return c.updateHandler.Handle(update)
}
