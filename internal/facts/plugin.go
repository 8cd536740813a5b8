package facts

import (
	"fmt"

	"waitroom/internal/plugin"
)

// Plugin serves one pack, or several merged, as a facts descriptor.
type Plugin struct {
	id          string
	name        string
	description string
	category    string
	facts       []plugin.Fact
	shuffle     bool
	opts        Options
}

func FromPack(p Pack, opts Options) *Plugin {
	return &Plugin{
		id:          p.PackID,
		name:        p.Name,
		description: p.Description,
		category:    p.Category,
		facts:       p.Facts,
		opts:        opts,
	}
}

// Randomizer merges every pack into one always-shuffled rotation.
func Randomizer(packs []Pack, opts Options) *Plugin {
	var all []plugin.Fact
	for _, p := range packs {
		for _, f := range p.Facts {
			f.ID = p.PackID + ":" + f.ID
			all = append(all, f)
		}
	}
	return &Plugin{
		id:          "fact-randomizer",
		name:        "Random Facts",
		description: "A bit of everything",
		category:    "all",
		facts:       all,
		shuffle:     true,
		opts:        opts,
	}
}

func (p *Plugin) ID() string          { return p.id }
func (p *Plugin) Name() string        { return p.name }
func (p *Plugin) Description() string { return p.description }
func (p *Plugin) Category() string    { return p.category }
func (p *Plugin) Len() int            { return len(p.facts) }

func (p *Plugin) RenderMini(c plugin.Container, cfg *plugin.FactsConfig) (plugin.FactsInstance, error) {
	return p.render(c, cfg)
}

func (p *Plugin) RenderFull(c plugin.Container, cfg *plugin.FactsConfig) (plugin.FactsInstance, error) {
	return p.render(c, cfg)
}

func (p *Plugin) render(c plugin.Container, cfg *plugin.FactsConfig) (plugin.FactsInstance, error) {
	if c == nil {
		return nil, fmt.Errorf("%s: nil container", p.id)
	}
	var eff plugin.FactsConfig
	if cfg != nil {
		eff = *cfg
	}
	if p.shuffle {
		eff.Shuffle = true
	}
	r := newRotator(c, p.facts, &eff, p.opts)
	c.Mount(r)
	return r, nil
}

var _ plugin.FactsPlugin = (*Plugin)(nil)
