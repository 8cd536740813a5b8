package engine

import (
	"fmt"
	"time"

	"waitroom/internal/plugin"
)

const DefaultTransition = 300 * time.Millisecond

// Config is supplied by the host once per session. The engine reads it and
// never writes to it.
type Config struct {
	IsLoading bool
	MinDelay  time.Duration

	Mode                  plugin.Mode
	AvailableModes        []plugin.Mode
	ShowModeSwitcher      bool
	PersistModePreference bool
	TransitionDuration    time.Duration

	// Presentation hints, passed through untouched.
	Theme    string
	Position string
	Style    map[string]string

	OnInteract   func()
	OnExpand     func()
	OnModeChange func(mode plugin.Mode)
	OnError      func(mode plugin.Mode, err error)

	Game   plugin.GamePlugin
	Facts  plugin.FactsPlugin
	Doodle plugin.DoodlePlugin
}

func (c Config) Validate() error {
	if c.Mode != "" && !c.Mode.Valid() {
		return fmt.Errorf("%w %q", plugin.ErrUnknownMode, c.Mode)
	}
	for _, m := range c.AvailableModes {
		if !m.Valid() || m == plugin.ModeNone {
			return fmt.Errorf("invalid available mode %q", m)
		}
	}
	if c.TransitionDuration < 0 {
		return fmt.Errorf("invalid transition duration %s", c.TransitionDuration)
	}
	switch c.Theme {
	case "", "light", "dark", "custom":
	default:
		return fmt.Errorf("invalid theme %q", c.Theme)
	}
	switch c.Position {
	case "", "center", "corner", "inline":
	default:
		return fmt.Errorf("invalid position %q", c.Position)
	}
	return nil
}

func (c Config) transition() time.Duration {
	if c.TransitionDuration <= 0 {
		return DefaultTransition
	}
	return c.TransitionDuration
}

// Modes returns the enabled modes, defaulting to every mode.
func (c Config) Modes() []plugin.Mode {
	if len(c.AvailableModes) == 0 {
		return plugin.Modes()
	}
	return append([]plugin.Mode(nil), c.AvailableModes...)
}
