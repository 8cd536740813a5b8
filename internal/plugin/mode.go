package plugin

import (
	"errors"
	"fmt"
	"strings"
)

type Mode string

const (
	ModeGame   Mode = "game"
	ModeFacts  Mode = "facts"
	ModeDoodle Mode = "doodle"
	ModeNone   Mode = "none"
)

var ErrUnknownMode = errors.New("unknown interaction mode")

// Modes lists the interactive modes in switcher order.
func Modes() []Mode {
	return []Mode{ModeGame, ModeFacts, ModeDoodle}
}

// ParseMode accepts the canonical names plus an empty string for none.
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(ModeNone):
		return ModeNone, nil
	case string(ModeGame), "games":
		return ModeGame, nil
	case string(ModeFacts), "fact":
		return ModeFacts, nil
	case string(ModeDoodle), "draw", "canvas":
		return ModeDoodle, nil
	default:
		return ModeNone, fmt.Errorf("%w %q", ErrUnknownMode, raw)
	}
}

func (m Mode) Valid() bool {
	switch m {
	case ModeGame, ModeFacts, ModeDoodle, ModeNone:
		return true
	default:
		return false
	}
}

func (m Mode) Label() string {
	switch m {
	case ModeGame:
		return "Game"
	case ModeFacts:
		return "Facts"
	case ModeDoodle:
		return "Doodle"
	default:
		return "None"
	}
}

// ContainsMode reports whether m is in modes.
func ContainsMode(modes []Mode, m Mode) bool {
	for _, candidate := range modes {
		if candidate == m {
			return true
		}
	}
	return false
}
