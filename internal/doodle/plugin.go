package doodle

import (
	"fmt"

	"waitroom/internal/plugin"
)

type Plugin struct{}

func New() *Plugin { return &Plugin{} }

func (p *Plugin) ID() string          { return "basic-canvas" }
func (p *Plugin) Name() string        { return "Doodle Pad" }
func (p *Plugin) Description() string { return "Draw something while you wait" }

func (p *Plugin) RenderMini(c plugin.Container, cfg *plugin.DoodleConfig) (plugin.DoodleInstance, error) {
	return p.render(c, 40, 12, cfg)
}

func (p *Plugin) RenderFull(c plugin.Container, cfg *plugin.DoodleConfig) (plugin.DoodleInstance, error) {
	return p.render(c, 100, 30, cfg)
}

func (p *Plugin) render(c plugin.Container, cols, rows int, cfg *plugin.DoodleConfig) (plugin.DoodleInstance, error) {
	if c == nil {
		return nil, fmt.Errorf("%s: nil container", p.ID())
	}
	cv, err := newCanvas(c, cols, rows, cfg)
	if err != nil {
		return nil, err
	}
	c.Mount(cv)
	return cv, nil
}

var _ plugin.DoodlePlugin = (*Plugin)(nil)
