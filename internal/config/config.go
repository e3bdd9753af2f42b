package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Load reads and parses the TOML configuration at path, applies defaults and
// expands environment references. Validation is a separate step so callers
// can report every problem at once.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	expandEnvVars(&cfg)

	return &cfg, nil
}

// Validate collects every configuration problem instead of stopping at the
// first one.
func (c *Config) Validate() []error {
	var errors []error

	if c.Telegram.Token == "" {
		errors = append(errors, fmt.Errorf("telegram.token is required"))
	} else if err := validateTelegramToken(c.Telegram.Token); err != nil {
		errors = append(errors, err)
	}

	if c.Schedule.Timezone == "" {
		errors = append(errors, fmt.Errorf("schedule.timezone is required"))
	} else if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		errors = append(errors, fmt.Errorf("invalid schedule.timezone %q: %w", c.Schedule.Timezone, err))
	}

	required := []struct {
		name string
		id   int64
	}{
		{"self_intro", c.Channels.SelfIntro},
		{"ai_news", c.Channels.AINews},
		{"events", c.Channels.Events},
		{"achievements", c.Channels.Achievements},
		{"consultation", c.Channels.Consultation},
	}
	for _, ch := range required {
		if ch.id == 0 {
			errors = append(errors, fmt.Errorf("channels.%s is required", ch.name))
		}
	}

	if c.State.Path == "" {
		errors = append(errors, fmt.Errorf("state.path is required"))
	} else if err := validatePath(c.State.Path, "state.path"); err != nil {
		errors = append(errors, err)
	}

	if c.Rotation.PeriodDays < 1 {
		errors = append(errors, fmt.Errorf("rotation.period_days must be >= 1"))
	}

	if len(c.Consultation.Variations) == 0 {
		errors = append(errors, fmt.Errorf("consultation.variations must contain at least one message"))
	}

	if c.News.PageSize < 1 {
		errors = append(errors, fmt.Errorf("news.page_size must be >= 1"))
	}

	if c.Logging.Level == "" {
		errors = append(errors, fmt.Errorf("logging.level is required"))
	} else {
		validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
		if !validLevels[strings.ToLower(c.Logging.Level)] {
			errors = append(errors, fmt.Errorf("invalid logging.level: %s (expected: debug, info, warn, error)", c.Logging.Level))
		}
	}

	if c.Logging.Format == "" {
		errors = append(errors, fmt.Errorf("logging.format is required"))
	} else {
		validFormats := map[string]bool{"json": true, "text": true}
		if !validFormats[strings.ToLower(c.Logging.Format)] {
			errors = append(errors, fmt.Errorf("invalid logging.format: %s (expected: json, text)", c.Logging.Format))
		}
	}

	if c.Logging.Output == "" {
		errors = append(errors, fmt.Errorf("logging.output is required"))
	}

	return errors
}

// Location resolves the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Schedule.Timezone)
}

func validateTelegramToken(token string) error {
	parts := strings.Split(token, ":")
	if len(parts) != 2 {
		return fmt.Errorf("telegram token has invalid format (expected <bot_id>:<token>, got: %s)", maskSecret(token))
	}

	botID := parts[0]
	botToken := parts[1]

	if len(botID) < 3 || len(botID) > 15 {
		return fmt.Errorf("telegram token has invalid bot ID length (expected 3-15 digits, got %d digits)", len(botID))
	}

	for _, r := range botID {
		if r < '0' || r > '9' {
			return fmt.Errorf("telegram token has invalid bot ID (expected digits only, got: %s)", botID)
		}
	}

	if len(botToken) < 10 || len(botToken) > 50 {
		return fmt.Errorf("telegram token has invalid token length (expected 10-50 characters, got %d)", len(botToken))
	}

	return nil
}

func validatePath(path, fieldName string) error {
	if strings.HasPrefix(path, "~") {
		return nil
	}

	if strings.Contains(path, "..") {
		return fmt.Errorf("%s contains potentially dangerous path traversal sequence", fieldName)
	}

	return nil
}

// expandEnvVars expands ${VAR} references and path shorthands. The state
// path additionally honors the DEJIRYU_STATE_PATH environment override.
func expandEnvVars(c *Config) {
	if strings.HasPrefix(c.Telegram.Token, "${") {
		c.Telegram.Token = expandEnv(c.Telegram.Token)
	}

	if strings.HasPrefix(c.News.APIKey, "${") {
		c.News.APIKey = expandEnv(c.News.APIKey)
	}

	if strings.HasPrefix(c.State.Path, "${") {
		c.State.Path = expandEnv(c.State.Path)
	}
	if override := os.Getenv("DEJIRYU_STATE_PATH"); override != "" {
		c.State.Path = override
	}
	c.State.Path = expandHome(c.State.Path)

	if strings.HasPrefix(c.Logging.Output, "${") {
		c.Logging.Output = expandEnv(c.Logging.Output)
	}
}

// expandEnv resolves a ${VAR} or ${VAR:default} reference.
func expandEnv(s string) string {
	if !strings.HasPrefix(s, "${") {
		return s
	}

	end := strings.Index(s, "}")
	if end == -1 {
		return s
	}

	content := s[2:end]
	if parts := strings.SplitN(content, ":", 2); len(parts) == 2 {
		key := parts[0]
		defaultVal := parts[1]
		if val := os.Getenv(key); val != "" {
			return val
		}
		return defaultVal
	}

	return os.Getenv(s[2:end])
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
