package ui

import (
	"math"
	"strings"
	"sync"
	"time"

	"waitroom/internal/engine"
	"waitroom/internal/plugin"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/x/ansi"
	"github.com/lucasb-eyer/go-colorful"
)

// Panel is the terminal region the engine mounts plugins into. Opacity
// follows a spring toward the last SetOpacity target, one step per Tick.
type Panel struct {
	mu      sync.Mutex
	widget  plugin.Widget
	target  float64
	pos     float64
	vel     float64
	spring  harmonica.Spring
	instant bool
	fg      colorful.Color
	bg      colorful.Color
}

// NewPanel returns a fully opaque, empty panel. Any motion level other than
// "full" makes opacity changes take effect immediately.
func NewPanel(theme Theme, motion string) *Panel {
	p := &Panel{target: 1, pos: 1, instant: motion != "full"}
	p.fg, _ = colorful.Hex(theme.Fg)
	p.bg, _ = colorful.Hex(theme.Bg)
	p.spring = springFor(engine.DefaultTransition)
	return p
}

// springFor tunes a critically damped spring to settle within half of total,
// the time each side of a cross-fade gets.
func springFor(total time.Duration) harmonica.Spring {
	half := math.Max(total.Seconds()/2, 0.016)
	return harmonica.NewSpring(harmonica.FPS(60), 6.0/half, 1.0)
}

func (p *Panel) Clear() {
	p.mu.Lock()
	p.widget = nil
	p.mu.Unlock()
}

func (p *Panel) Mount(w plugin.Widget) {
	p.mu.Lock()
	p.widget = w
	p.mu.Unlock()
}

func (p *Panel) SetOpacity(alpha float64) {
	alpha = math.Min(1, math.Max(0, alpha))
	p.mu.Lock()
	defer p.mu.Unlock()
	p.target = alpha
	if p.instant {
		p.pos, p.vel = alpha, 0
	}
}

func (p *Panel) SetTransition(total time.Duration) {
	p.mu.Lock()
	p.spring = springFor(total)
	p.mu.Unlock()
}

func (p *Panel) Opacity() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pos
}

func (p *Panel) Widget() plugin.Widget {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.widget
}

// Animating reports whether the opacity is still moving.
func (p *Panel) Animating() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return math.Abs(p.pos-p.target) > 0.001 || math.Abs(p.vel) > 0.001
}

// Tick advances the fade one frame and forwards the clock to the widget.
func (p *Panel) Tick(now time.Time) {
	p.mu.Lock()
	p.pos, p.vel = p.spring.Update(p.pos, p.vel, p.target)
	if math.Abs(p.pos-p.target) < 0.001 && math.Abs(p.vel) < 0.001 {
		p.pos, p.vel = p.target, 0
	}
	w := p.widget
	p.mu.Unlock()
	if w != nil {
		w.Tick(now)
	}
}

func (p *Panel) HandleKey(key string) bool {
	w := p.Widget()
	if w == nil {
		return false
	}
	return w.HandleKey(key)
}

// View renders the mounted widget, blended toward the background while the
// panel is partly transparent.
func (p *Panel) View(width, height int) string {
	width, height = max(1, width), max(1, height)
	p.mu.Lock()
	w := p.widget
	alpha := math.Min(1, math.Max(0, p.pos))
	fg, bg := p.fg, p.bg
	p.mu.Unlock()

	if w == nil || alpha < 0.02 {
		return blank(width, height)
	}
	out := w.View(width, height)
	if alpha > 0.98 {
		return out
	}
	faded := lipgloss.NewStyle().Foreground(lipgloss.Color(bg.BlendRgb(fg, alpha).Hex()))
	lines := strings.Split(ansi.Strip(out), "\n")
	for i, line := range lines {
		lines[i] = faded.Render(line)
	}
	return strings.Join(lines, "\n")
}

func blank(width, height int) string {
	row := strings.Repeat(" ", width)
	lines := make([]string, height)
	for i := range lines {
		lines[i] = row
	}
	return strings.Join(lines, "\n")
}

var _ plugin.Container = (*Panel)(nil)
