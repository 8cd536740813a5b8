package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

func TestPadWidth(t *testing.T) {
	if got := padWidth("abc", 5); got != "abc  " {
		t.Fatalf("pad: %q", got)
	}
	if got := padWidth("abcdef", 3); got != "abc" {
		t.Fatalf("cut: %q", got)
	}
	if got := padWidth("\x1b[1mab\x1b[0m", 4); ansi.StringWidth(got) != 4 || ansi.Strip(got) != "ab  " {
		t.Fatalf("styled pad: %q", got)
	}
	if padWidth("x", 0) != "" {
		t.Fatalf("zero width should be empty")
	}
}

func TestComposeAtKeepsSurroundings(t *testing.T) {
	base := "aaaaaa\nbbbbbb\ncccccc"
	got := composeAt(base, "XX\nYY", 6, 3, 1, 2)
	want := "aaaaaa\nbbXXbb\nccYYcc"
	if got != want {
		t.Fatalf("compose:\n%s\nwant:\n%s", got, want)
	}

	edge := composeAt(base, "ZZZ", 6, 3, 0, 10)
	if strings.Split(edge, "\n")[0] != "aaaZZZ" {
		t.Fatalf("overlay not clamped to right edge: %q", edge)
	}
}

func TestComposeCentered(t *testing.T) {
	base := strings.Repeat("......\n", 4) + "......"
	got := strings.Split(composeCentered(base, "##", 6, 5), "\n")
	if got[2] != "..##.." {
		t.Fatalf("not centered: %q", got)
	}
}

func TestDrawPanelDimensions(t *testing.T) {
	out := drawPanel(DefaultTheme(), "Title", []string{"one", "two"}, 20, 6)
	lines := strings.Split(out, "\n")
	if len(lines) != 6 {
		t.Fatalf("expected 6 lines, got %d", len(lines))
	}
	for i, line := range lines {
		if w := ansi.StringWidth(line); w != 20 {
			t.Fatalf("line %d width %d", i, w)
		}
	}
	if !strings.Contains(ansi.Strip(lines[0]), "Title") || !strings.Contains(ansi.Strip(lines[1]), "one") {
		t.Fatalf("missing title or body:\n%s", ansi.Strip(out))
	}
}

func TestPanelSizeByPosition(t *testing.T) {
	cases := []struct {
		position   string
		cols, rows int
		w, h       int
	}{
		{"corner", 120, 40, 46, 16},
		{"inline", 120, 40, 120, 20},
		{"center", 120, 40, 64, 20},
		{"center", 30, 10, 30, 10},
	}
	for _, tc := range cases {
		w, h := PanelSize(tc.position, tc.cols, tc.rows)
		if w != tc.w || h != tc.h {
			t.Fatalf("%s %dx%d: got %dx%d", tc.position, tc.cols, tc.rows, w, h)
		}
	}
}

func TestTrimForWidth(t *testing.T) {
	if got := trimForWidth("hello world", 6); got != "hello…" {
		t.Fatalf("trim: %q", got)
	}
	if got := trimForWidth("a\nb", 5); got != "a b" {
		t.Fatalf("newline: %q", got)
	}
}

func TestCustomThemeOverrides(t *testing.T) {
	th := ThemeFor("custom", map[string]string{"fg": "#FFF", "bg": "not-a-color"})
	if th.Name != "custom" || th.Fg != "#ffffff" {
		t.Fatalf("fg override not applied: %+v", th.Fg)
	}
	if th.Bg != DefaultTheme().Bg {
		t.Fatalf("bad bg should be ignored, got %s", th.Bg)
	}
	if ThemeFor("light", nil).Name != "light" || ThemeFor("???", nil).Name != "dark" {
		t.Fatalf("unexpected theme resolution")
	}
}
