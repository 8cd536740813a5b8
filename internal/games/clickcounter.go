package games

import (
	"fmt"
	"time"

	"charm.land/bubbles/v2/progress"
	"charm.land/lipgloss/v2"
)

func NewClickCounter(opts Options) *Plugin {
	return &Plugin{
		id:          "click-counter",
		name:        "Click Counter",
		description: "Click as fast as you can!",
		opts:        opts,
		build: func(s *session, _ bool) game {
			bar := progress.New(
				progress.WithWidth(24),
				progress.WithColors(lipgloss.Color("#22C55E"), lipgloss.Color("#F2D16B")),
				progress.WithScaled(true),
			)
			return &clickCounter{session: s, bar: bar}
		},
	}
}

type clickCounter struct {
	*session
	bar     progress.Model
	presses int
}

func (g *clickCounter) HandleKey(key string) bool {
	switch key {
	case "space", " ", "enter":
		g.presses++
		g.addScore(1)
		switch g.presses {
		case 10:
			g.award("click-counter:warmed-up")
		case 100:
			g.award("click-counter:centurion")
		}
		return true
	}
	return false
}

func (g *clickCounter) Tick(now time.Time) { g.tick(now) }

func (g *clickCounter) View(width, height int) string {
	lines := g.header("Click Counter", "Press space as fast as you can!")
	lines = append(lines,
		"",
		fmt.Sprintf("Clicks this round: %d", g.presses),
		"",
		buttonStyle.Render("Click me!"),
		"",
	)
	// Bar fills toward the next level.
	pct := float64(g.st.Progress.Score%levelStep) / float64(levelStep)
	g.bar.SetWidth(max(8, min(40, width-4)))
	lines = append(lines, g.bar.ViewAs(pct))
	return center(lines, width, height)
}

var buttonStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	Padding(0, 2).
	Bold(true)
