// Package config loads the TOML configuration file named by the CONFIG
// environment variable.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"

	"github.com/plextuner/ledshowd/internal/button"
)

// LogPeriod is how often the log file rotates.
type LogPeriod string

const (
	LogPeriodMinute LogPeriod = "minute"
	LogPeriodHour   LogPeriod = "hour"
	LogPeriodDay    LogPeriod = "day"
	LogPeriodNever  LogPeriod = "never"
)

// WebConfig configures the optional HTTP/REST surface.
type WebConfig struct {
	Bind string `toml:"bind"`
	Port int    `toml:"port"`
}

// LogConfig configures rotating log output.
type LogConfig struct {
	Directory string    `toml:"directory"`
	Prefix    string    `toml:"prefix"`
	Period    LogPeriod `toml:"period"`
	MaxFiles  int       `toml:"max_files"`
}

// SchedulerConfig configures the player's boot behavior.
type SchedulerConfig struct {
	AutoStart *bool `toml:"auto_start"`
}

// AutoStartOrDefault returns AutoStart, defaulting to true when unset,
// matching the original's `auto_start.unwrap_or(true)`.
func (s *SchedulerConfig) AutoStartOrDefault() bool {
	if s == nil || s.AutoStart == nil {
		return true
	}
	return *s.AutoStart
}

// buttonAction is the TOML shape of one button's configured Action: a
// discriminator plus an optional target for Playlist/Sequence.
type buttonAction struct {
	Type   string `toml:"type"`
	Target string `toml:"target"`
}

func (a buttonAction) toAction() (button.Action, error) {
	switch a.Type {
	case "", "schedule":
		return button.ActionSchedule{}, nil
	case "playlist":
		return button.ActionPlaylist{Target: a.Target}, nil
	case "sequence":
		return button.ActionSequence{Target: a.Target}, nil
	case "stop":
		return button.ActionStop{}, nil
	default:
		return nil, fmt.Errorf("config: button action: unknown type %q", a.Type)
	}
}

// buttonEntry is the TOML shape of one [[buttons]] table.
type buttonEntry struct {
	ID       string       `toml:"id"`
	Device   string       `toml:"device"`
	Baudrate int          `toml:"baudrate"`
	Action   buttonAction `toml:"action"`
}

// Config is the decoded contents of the TOML config file named by $CONFIG,
// per spec.md §6's minimum schema.
type Config struct {
	DatabaseURL string           `toml:"database_url"`
	Storage     string           `toml:"storage"`
	Multicast   *bool            `toml:"multicast"`
	Web         *WebConfig       `toml:"web"`
	Log         *LogConfig       `toml:"log"`
	Scheduler   *SchedulerConfig `toml:"scheduler"`
	Buttons     []buttonEntry    `toml:"buttons"`
}

// MulticastOrDefault returns Multicast, defaulting to true when unset.
func (c *Config) MulticastOrDefault() bool {
	if c.Multicast == nil {
		return true
	}
	return *c.Multicast
}

// ButtonConfigs decodes the TOML [[buttons]] tables into button.Config
// values, resolving each entry's action discriminator.
func (c *Config) ButtonConfigs() ([]button.Config, error) {
	out := make([]button.Config, 0, len(c.Buttons))
	for _, b := range c.Buttons {
		action, err := b.Action.toAction()
		if err != nil {
			return nil, fmt.Errorf("config: button %s: %w", b.ID, err)
		}
		out = append(out, button.Config{
			ID:       b.ID,
			Device:   b.Device,
			Baudrate: b.Baudrate,
			Action:   action,
		})
	}
	return out, nil
}

// Load reads and decodes the TOML file named by the CONFIG environment
// variable, per spec.md §6's Environment/Exit-codes sections: a missing or
// unreadable $CONFIG, or a file that fails to parse, is fatal.
func Load() (*Config, error) {
	path := os.Getenv("CONFIG")
	if path == "" {
		return nil, fmt.Errorf("config: CONFIG environment variable not set")
	}
	return LoadFile(path)
}

// LoadFile reads and decodes the TOML file at path, validating the required
// fields (database_url, storage).
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("config: %s: database_url is required", path)
	}
	if c.Storage == "" {
		return nil, fmt.Errorf("config: %s: storage is required", path)
	}

	return &c, nil
}
