package ui

import (
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/lucasb-eyer/go-colorful"
)

// Theme carries the styles for one presentation variant. Fg and Bg are kept
// as hex so the panel can blend between them while fading.
type Theme struct {
	Name string
	Fg   string
	Bg   string

	Header      lipgloss.Style
	Status      lipgloss.Style
	PanelTitle  lipgloss.Style
	PanelBorder lipgloss.Style
	PanelBody   lipgloss.Style
	Tab         lipgloss.Style
	TabActive   lipgloss.Style
	Accent      lipgloss.Style
	Muted       lipgloss.Style
	Fail        lipgloss.Style
}

func DefaultTheme() Theme {
	return ThemeFor("dark", nil)
}

// ThemeFor resolves a theme hint. The custom variant starts from dark and
// takes fg, bg, accent and border overrides from style; bad colors are
// ignored.
func ThemeFor(name string, style map[string]string) Theme {
	switch strings.TrimSpace(name) {
	case "light":
		return lightTheme()
	case "custom":
		return customTheme(style)
	default:
		return darkTheme()
	}
}

type palette struct {
	fg, bg, accent, border, muted, fail string
}

func darkTheme() Theme {
	t := buildTheme(palette{
		fg:     "#EAF2FF",
		bg:     "#0E1420",
		accent: "#5EEBFF",
		border: "#4B5F8A",
		muted:  "#9CAAC6",
		fail:   "#FF6F91",
	})
	t.Name = "dark"
	return t
}

func lightTheme() Theme {
	t := buildTheme(palette{
		fg:     "#1E2430",
		bg:     "#F4F6FA",
		accent: "#2563EB",
		border: "#A3ACC2",
		muted:  "#64748B",
		fail:   "#D17A86",
	})
	t.Name = "light"
	return t
}

func customTheme(style map[string]string) Theme {
	p := palette{
		fg:     "#EAF2FF",
		bg:     "#0E1420",
		accent: "#5EEBFF",
		border: "#4B5F8A",
		muted:  "#9CAAC6",
		fail:   "#FF6F91",
	}
	override := func(dst *string, key string) {
		if c, err := colorful.Hex(strings.TrimSpace(style[key])); err == nil {
			*dst = c.Hex()
		}
	}
	override(&p.fg, "fg")
	override(&p.bg, "bg")
	override(&p.accent, "accent")
	override(&p.border, "border")
	t := buildTheme(p)
	t.Name = "custom"
	return t
}

func buildTheme(p palette) Theme {
	fg := lipgloss.Color(p.fg)
	bg := lipgloss.Color(p.bg)
	accent := lipgloss.Color(p.accent)
	border := lipgloss.Color(p.border)

	return Theme{
		Fg: p.fg,
		Bg: p.bg,
		Header: lipgloss.NewStyle().
			Background(bg).
			Foreground(fg).
			Bold(true).
			Padding(0, 1),
		Status: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.muted)).
			Padding(0, 1),
		PanelTitle:  lipgloss.NewStyle().Foreground(accent).Bold(true),
		PanelBorder: lipgloss.NewStyle().Foreground(border),
		PanelBody:   lipgloss.NewStyle().Foreground(fg),
		Tab:         lipgloss.NewStyle().Foreground(lipgloss.Color(p.muted)).Padding(0, 1),
		TabActive: lipgloss.NewStyle().
			Foreground(bg).
			Background(accent).
			Bold(true).
			Padding(0, 1),
		Accent: lipgloss.NewStyle().Foreground(accent).Bold(true),
		Muted:  lipgloss.NewStyle().Foreground(lipgloss.Color(p.muted)),
		Fail:   lipgloss.NewStyle().Foreground(lipgloss.Color(p.fail)).Bold(true),
	}
}
