// Package overlay lifts an interaction into a full-viewport modal.
package overlay

import (
	"strings"
	"time"

	"waitroom/internal/plugin"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
)

// Surface is the inner container an overlay renders into.
type Surface interface {
	plugin.Container
	View(width, height int) string
	HandleKey(key string) bool
	Tick(now time.Time)
}

// Portal holds at most one open overlay.
type Portal struct {
	newSurface func() Surface
	surface    Surface
	onClose    func()
	title      string
}

func New(newSurface func() Surface) *Portal {
	return &Portal{newSurface: newSurface}
}

// Open builds a fresh surface and hands it to render. It is a no-op while an
// overlay is already open.
func (p *Portal) Open(title string, render func(c plugin.Container), onClose func()) {
	if p.surface != nil || p.newSurface == nil {
		return
	}
	p.surface = p.newSurface()
	p.onClose = onClose
	p.title = title
	if render != nil {
		render(p.surface)
	}
}

// Close tears the overlay down without calling onClose. Safe to repeat.
func (p *Portal) Close() {
	if p.surface == nil {
		return
	}
	p.surface.Clear()
	p.surface = nil
	p.onClose = nil
	p.title = ""
}

// Dismiss is the close affordance: it closes the overlay and then notifies
// the opener.
func (p *Portal) Dismiss() {
	if p.surface == nil {
		return
	}
	onClose := p.onClose
	p.Close()
	if onClose != nil {
		onClose()
	}
}

func (p *Portal) IsOpen() bool { return p.surface != nil }

func (p *Portal) Title() string { return p.title }

// HandleKey routes input to the overlay. Esc dismisses it; everything else
// goes to the surface.
func (p *Portal) HandleKey(key string) bool {
	if p.surface == nil {
		return false
	}
	if key == "esc" {
		p.Dismiss()
		return true
	}
	return p.surface.HandleKey(key)
}

func (p *Portal) Tick(now time.Time) {
	if p.surface != nil {
		p.surface.Tick(now)
	}
}

var (
	frameStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#5EEBFF"))
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5EEBFF")).Bold(true)
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CAAC6"))
)

// CloseHint is shown in the overlay's top row.
const CloseHint = "Esc to close"

// View renders the framed modal at 80% of the viewport. The surface gets the
// space inside the frame, below the title row.
func (p *Portal) View(cols, rows int) string {
	if p.surface == nil {
		return ""
	}
	w, h := InnerSize(cols, rows)
	innerW, innerH := max(1, w-2), max(1, h-3)
	head := titleStyle.Render(p.title)
	hint := hintStyle.Render(CloseHint)
	gap := innerW - ansi.StringWidth(head) - ansi.StringWidth(hint)
	header := ansi.Truncate(head+strings.Repeat(" ", max(1, gap))+hint, innerW, "")
	return frameStyle.Render(header + "\n" + p.surface.View(innerW, innerH))
}

// InnerSize is the content area of an overlay on a cols x rows viewport.
func InnerSize(cols, rows int) (int, int) {
	w := cols * 8 / 10
	h := rows * 8 / 10
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}
