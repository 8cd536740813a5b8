package games

import (
	"fmt"
	"strings"

	"waitroom/internal/plugin"
)

type game interface {
	plugin.GameInstance
	plugin.Widget
}

// Plugin is a game descriptor. It builds a fresh game per mount.
type Plugin struct {
	id          string
	name        string
	description string
	opts        Options
	build       func(s *session, full bool) game
}

func (p *Plugin) ID() string          { return p.id }
func (p *Plugin) Name() string        { return p.name }
func (p *Plugin) Description() string { return p.description }

func (p *Plugin) RenderMini(c plugin.Container, st plugin.GameState) (plugin.GameInstance, error) {
	return p.render(c, st, false)
}

func (p *Plugin) RenderFull(c plugin.Container, st plugin.GameState) (plugin.GameInstance, error) {
	return p.render(c, st, true)
}

func (p *Plugin) render(c plugin.Container, st plugin.GameState, full bool) (plugin.GameInstance, error) {
	if c == nil {
		return nil, fmt.Errorf("%s: nil container", p.id)
	}
	g := p.build(newSession(p.id, c, st, p.opts, full), full)
	c.Mount(g)
	return g, nil
}

// IDs lists the built-in game identifiers.
func IDs() []string {
	return []string{"snake", "memory", "click-counter"}
}

// ByID returns the built-in game with the given identifier.
func ByID(id string, opts Options) (*Plugin, error) {
	switch strings.ToLower(strings.TrimSpace(id)) {
	case "snake":
		return NewSnake(opts), nil
	case "memory":
		return NewMemory(opts), nil
	case "click-counter", "clicker":
		return NewClickCounter(opts), nil
	default:
		return nil, fmt.Errorf("unknown game %q", id)
	}
}

var _ plugin.GamePlugin = (*Plugin)(nil)
