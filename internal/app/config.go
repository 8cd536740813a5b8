package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"waitroom/internal/engine"
	"waitroom/internal/games"
	"waitroom/internal/plugin"

	"github.com/caarlos0/env/v11"
)

// Config controls runtime behavior for the demo host. Fields carry their
// WAITROOM_* environment overrides; command-line flags win over both.
type Config struct {
	DataDir     string        `env:"WAITROOM_DATA_DIR"`
	LogPath     string        `env:"WAITROOM_LOG_PATH"`
	JournalPath string        `env:"WAITROOM_JOURNAL_PATH"`
	Debug       bool          `env:"WAITROOM_DEBUG"`
	LoadFor     time.Duration `env:"WAITROOM_LOAD_FOR"`
	Content     string        `env:"WAITROOM_CONTENT"`

	Interaction InteractionConfig
	UI          UIConfig
}

type InteractionConfig struct {
	Mode                  string        `env:"WAITROOM_MODE"`
	AvailableModes        []string      `env:"WAITROOM_MODES" envSeparator:","`
	ShowModeSwitcher      bool          `env:"WAITROOM_SHOW_SWITCHER"`
	PersistModePreference bool          `env:"WAITROOM_PERSIST_MODE"`
	TransitionMS          int           `env:"WAITROOM_TRANSITION_MS"`
	MinDelay              time.Duration `env:"WAITROOM_MIN_DELAY"`
	Game                  string        `env:"WAITROOM_GAME"`
	FactsDir              string        `env:"WAITROOM_FACTS_DIR"`
}

type UIConfig struct {
	Theme       string            `env:"WAITROOM_THEME"`
	Position    string            `env:"WAITROOM_POSITION"`
	Style       map[string]string `env:"WAITROOM_STYLE" envSeparator:"," envKeyValSeparator:":"`
	MotionLevel string            `env:"WAITROOM_MOTION"`
}

func DefaultConfig() Config {
	return Config{
		LoadFor: 30 * time.Second,
		Content: "Build finished. Press Ctrl+C to quit.",
		Interaction: InteractionConfig{
			ShowModeSwitcher:      true,
			PersistModePreference: true,
			TransitionMS:          int(engine.DefaultTransition / time.Millisecond),
			Game:                  "snake",
		},
		UI: UIConfig{
			Theme:       "dark",
			Position:    "center",
			MotionLevel: "full",
		},
	}
}

// ParseEnv applies WAITROOM_* overrides on top of c.
func ParseEnv(c *Config) error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	if _, err := plugin.ParseMode(c.Interaction.Mode); err != nil {
		return err
	}
	for _, raw := range c.Interaction.AvailableModes {
		m, err := plugin.ParseMode(raw)
		if err != nil {
			return err
		}
		if m == plugin.ModeNone {
			return fmt.Errorf("invalid available mode %q", raw)
		}
	}
	if c.Interaction.TransitionMS < 0 {
		return fmt.Errorf("invalid transition %dms", c.Interaction.TransitionMS)
	}
	if c.Interaction.MinDelay < 0 {
		return fmt.Errorf("invalid min delay %s", c.Interaction.MinDelay)
	}
	if c.LoadFor < 0 {
		return fmt.Errorf("invalid load duration %s", c.LoadFor)
	}
	if c.Interaction.Game == "" {
		c.Interaction.Game = "snake"
	}
	if _, err := games.ByID(c.Interaction.Game, games.Options{}); err != nil {
		return err
	}

	switch c.UI.Theme {
	case "", "light", "dark", "custom":
	default:
		return fmt.Errorf("invalid theme %q", c.UI.Theme)
	}
	switch c.UI.Position {
	case "", "center", "corner", "inline":
	default:
		return fmt.Errorf("invalid position %q", c.UI.Position)
	}
	switch c.UI.MotionLevel {
	case "", "off", "reduced", "full":
	default:
		return fmt.Errorf("invalid ui motion level %q", c.UI.MotionLevel)
	}
	if c.UI.MotionLevel == "" {
		c.UI.MotionLevel = "full"
	}

	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return errors.New("cannot resolve user home directory")
		}
		c.DataDir = filepath.Join(home, ".local", "share", "waitroom")
	}
	if c.JournalPath == "" {
		c.JournalPath = filepath.Join(c.DataDir, "journal.jsonl")
	}
	return nil
}

// StatePath is the sqlite database holding preferences and game records.
func (c Config) StatePath() string {
	return filepath.Join(c.DataDir, "state.db")
}

// modes converts the validated mode names. An explicit empty mode stays
// empty so the host can fall back to the first available mode.
func (c Config) modes() (plugin.Mode, []plugin.Mode) {
	var mode plugin.Mode
	if strings.TrimSpace(c.Interaction.Mode) != "" {
		mode, _ = plugin.ParseMode(c.Interaction.Mode)
	}
	var available []plugin.Mode
	for _, raw := range c.Interaction.AvailableModes {
		if m, err := plugin.ParseMode(raw); err == nil {
			available = append(available, m)
		}
	}
	return mode, available
}
