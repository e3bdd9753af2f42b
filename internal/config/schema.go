// Package config provides configuration loading and validation for DejiRyu.
// It supports TOML configuration files with environment variable expansion,
// default values, and comprehensive validation.
//
// Configuration structure:
//   - [telegram]: Bot token
//   - [schedule]: Time zone for anchors and week bucketing
//   - [channels]: Chat IDs per channel role
//   - [state]: Persisted state file location
//   - [news]: NewsAPI credentials and query
//   - [rotation]: Exclusive content cadence and items
//   - [consultation]: Prompt mention and message variations
//   - [logging]: Logging level, format, and output
//   - [ops]: Optional HTTP listener for health/metrics
//
// Environment variables can be referenced using ${VAR} or ${VAR:default}
// syntax, e.g. token = "${DEJIRYU_TELEGRAM_TOKEN}".
package config

// Config represents the main application configuration.
type Config struct {
	Telegram     TelegramConfig     `toml:"telegram"`
	Schedule     ScheduleConfig     `toml:"schedule"`
	Channels     ChannelsConfig     `toml:"channels"`
	State        StateConfig        `toml:"state"`
	News         NewsConfig         `toml:"news"`
	Rotation     RotationConfig     `toml:"rotation"`
	Consultation ConsultationConfig `toml:"consultation"`
	Logging      LoggingConfig      `toml:"logging"`
	Ops          OpsConfig          `toml:"ops"`
}

// TelegramConfig holds the bot credentials.
type TelegramConfig struct {
	Token string `toml:"token"`
}

// ScheduleConfig pins the wall-clock zone every anchor and week key uses.
type ScheduleConfig struct {
	Timezone string `toml:"timezone"`
}

// ChannelsConfig maps channel roles to Telegram chat IDs. Interaction and
// exclusive are optional; jobs bound to them skip silently when unset.
type ChannelsConfig struct {
	SelfIntro    int64 `toml:"self_intro"`
	AINews       int64 `toml:"ai_news"`
	Interaction  int64 `toml:"interaction"`
	Exclusive    int64 `toml:"exclusive"`
	Achievements int64 `toml:"achievements"`
	Consultation int64 `toml:"consultation"`
	Events       int64 `toml:"events"`
}

// StateConfig locates the persisted state file.
type StateConfig struct {
	Path string `toml:"path"`
}

// NewsConfig configures the NewsAPI client. An empty api_key disables
// fetching (the digest then posts its fallback line).
type NewsConfig struct {
	APIKey   string `toml:"api_key"`
	Query    string `toml:"query"`
	Language string `toml:"language"`
	PageSize int    `toml:"page_size"`
}

// RotationConfig drives the exclusive content drop.
type RotationConfig struct {
	PeriodDays int            `toml:"period_days"`
	Items      []RotationItem `toml:"items"`
}

// RotationItem is one exclusive content entry.
type RotationItem struct {
	Title       string `toml:"title"`
	Description string `toml:"description"`
	URL         string `toml:"url"`
}

// ConsultationConfig drives the consultation prompt.
type ConsultationConfig struct {
	Mention    string   `toml:"mention"`
	Variations []string `toml:"variations"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Output string `toml:"output"`
}

// OpsConfig enables the operational HTTP endpoint when listen is non-empty.
type OpsConfig struct {
	Listen string `toml:"listen"`
}
