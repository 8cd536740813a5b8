// Package doodle is a small cell canvas for drawing while waiting. The cursor
// moves with the arrow keys and paints while the pen is down.
package doodle

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"time"

	"waitroom/internal/plugin"

	"charm.land/lipgloss/v2"
	"github.com/lucasb-eyer/go-colorful"
)

const (
	DefaultBrushSize = 3
	DefaultColor     = "#000000"
	MinBrushSize     = 1
	MaxBrushSize     = 5
	historyLimit     = 64
	dataURLPrefix    = "data:image/png;base64,"
)

var ErrBadDataURL = errors.New("doodle: not a png data url")

// Palette is bound to the keys 1 through 6.
var Palette = []string{"#000000", "#EF4444", "#F59E0B", "#22C55E", "#3B82F6", "#A855F7"}

type grid [][]string

func newGrid(cols, rows int) grid {
	g := make(grid, rows)
	for y := range g {
		g[y] = make([]string, cols)
	}
	return g
}

func (g grid) clone() grid {
	out := make(grid, len(g))
	for y := range g {
		out[y] = append([]string(nil), g[y]...)
	}
	return out
}

type point struct{ x, y int }

// Canvas implements plugin.DoodleInstance and plugin.Widget.
type Canvas struct {
	c         plugin.Container
	cols      int
	rows      int
	cells     grid
	cursor    point
	penDown   bool
	// restroke opens a new undo step on the next pen movement.
	restroke  bool
	color     string
	size      int
	undo      []grid
	redo      []grid
	destroyed bool
}

func newCanvas(c plugin.Container, cols, rows int, cfg *plugin.DoodleConfig) (*Canvas, error) {
	cv := &Canvas{
		c:      c,
		cols:   cols,
		rows:   rows,
		cells:  newGrid(cols, rows),
		cursor: point{x: cols / 2, y: rows / 2},
		color:  DefaultColor,
		size:   DefaultBrushSize,
	}
	if cfg != nil {
		if cfg.DefaultColor != "" {
			if err := cv.SetBrushColor(cfg.DefaultColor); err != nil {
				return nil, err
			}
		}
		if cfg.DefaultBrushSize > 0 {
			cv.SetBrushSize(cfg.DefaultBrushSize)
		}
	}
	return cv, nil
}

func (cv *Canvas) Size() (cols, rows int) { return cv.cols, cv.rows }
func (cv *Canvas) BrushColor() string     { return cv.color }
func (cv *Canvas) BrushSize() int         { return cv.size }
func (cv *Canvas) PenDown() bool          { return cv.penDown }

// At returns the color painted at x,y, or "" for an empty cell.
func (cv *Canvas) At(x, y int) string {
	if x < 0 || y < 0 || x >= cv.cols || y >= cv.rows {
		return ""
	}
	return cv.cells[y][x]
}

func (cv *Canvas) checkpoint() {
	cv.restroke = false
	cv.undo = append(cv.undo, cv.cells.clone())
	if len(cv.undo) > historyLimit {
		cv.undo = cv.undo[1:]
	}
	cv.redo = cv.redo[:0]
}

// stamp paints a brush-sized square centered on the cursor.
func (cv *Canvas) stamp() {
	r := (cv.size - 1) / 2
	for dy := -r; dy <= cv.size-1-r; dy++ {
		for dx := -r; dx <= cv.size-1-r; dx++ {
			x, y := cv.cursor.x+dx, cv.cursor.y+dy
			if x >= 0 && y >= 0 && x < cv.cols && y < cv.rows {
				cv.cells[y][x] = cv.color
			}
		}
	}
}

func (cv *Canvas) move(dx, dy int) {
	cv.cursor.x = min(cv.cols-1, max(0, cv.cursor.x+dx))
	cv.cursor.y = min(cv.rows-1, max(0, cv.cursor.y+dy))
	if cv.penDown {
		if cv.restroke {
			cv.checkpoint()
			cv.restroke = false
		}
		cv.stamp()
	}
}

func (cv *Canvas) Clear() {
	cv.checkpoint()
	cv.cells = newGrid(cv.cols, cv.rows)
}

func (cv *Canvas) Undo() {
	if len(cv.undo) == 0 {
		return
	}
	cv.redo = append(cv.redo, cv.cells)
	cv.cells = cv.undo[len(cv.undo)-1]
	cv.undo = cv.undo[:len(cv.undo)-1]
	cv.restroke = true
}

func (cv *Canvas) Redo() {
	if len(cv.redo) == 0 {
		return
	}
	cv.undo = append(cv.undo, cv.cells)
	cv.cells = cv.redo[len(cv.redo)-1]
	cv.redo = cv.redo[:len(cv.redo)-1]
	cv.restroke = true
}

func (cv *Canvas) SetBrushColor(hex string) error {
	c, err := colorful.Hex(strings.TrimSpace(hex))
	if err != nil {
		return fmt.Errorf("doodle: brush color %q: %w", hex, err)
	}
	cv.color = strings.ToUpper(c.Hex())
	return nil
}

func (cv *Canvas) SetBrushSize(size int) {
	cv.size = min(MaxBrushSize, max(MinBrushSize, size))
}

// Save encodes the canvas as a PNG data URL, one pixel per cell. Empty cells
// are transparent.
func (cv *Canvas) Save() (string, error) {
	img := image.NewNRGBA(image.Rect(0, 0, cv.cols, cv.rows))
	for y, row := range cv.cells {
		for x, hex := range row {
			if hex == "" {
				continue
			}
			c, err := colorful.Hex(hex)
			if err != nil {
				return "", fmt.Errorf("doodle: cell %d,%d: %w", x, y, err)
			}
			r, g, b := c.RGB255()
			img.SetNRGBA(x, y, color.NRGBA{R: r, G: g, B: b, A: 0xff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("doodle: encode png: %w", err)
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Load replaces the canvas with a saved image. Pixels outside the canvas are
// dropped. Load is undoable.
func (cv *Canvas) Load(dataURL string) error {
	if !strings.HasPrefix(dataURL, dataURLPrefix) {
		return ErrBadDataURL
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, dataURLPrefix))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadDataURL, err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadDataURL, err)
	}
	next := newGrid(cv.cols, cv.rows)
	bounds := img.Bounds()
	for y := 0; y < min(cv.rows, bounds.Dy()); y++ {
		for x := 0; x < min(cv.cols, bounds.Dx()); x++ {
			px := img.At(bounds.Min.X+x, bounds.Min.Y+y)
			if _, _, _, a := px.RGBA(); a == 0 {
				continue
			}
			c, _ := colorful.MakeColor(px)
			next[y][x] = strings.ToUpper(c.Hex())
		}
	}
	cv.checkpoint()
	cv.cells = next
	return nil
}

func (cv *Canvas) Destroy() {
	if cv.destroyed {
		return
	}
	cv.destroyed = true
	cv.c.Clear()
}

func (cv *Canvas) Tick(time.Time) {}

func (cv *Canvas) HandleKey(key string) bool {
	switch key {
	case "up", "k":
		cv.move(0, -1)
	case "down", "j":
		cv.move(0, 1)
	case "left", "h":
		cv.move(-1, 0)
	case "right", "l":
		cv.move(1, 0)
	case "space", " ":
		cv.penDown = !cv.penDown
		if cv.penDown {
			cv.checkpoint()
			cv.stamp()
		}
	case "enter", ".":
		cv.checkpoint()
		cv.stamp()
	case "c":
		cv.Clear()
	case "u":
		cv.Undo()
	case "r":
		cv.Redo()
	case "[":
		cv.SetBrushSize(cv.size - 1)
	case "]":
		cv.SetBrushSize(cv.size + 1)
	case "1", "2", "3", "4", "5", "6":
		cv.color = Palette[int(key[0]-'1')]
	default:
		return false
	}
	return true
}

var (
	paperStyle  = lipgloss.NewStyle().Background(lipgloss.Color("#FFFFFF"))
	cursorStyle = lipgloss.NewStyle().Background(lipgloss.Color("#FFFFFF")).Foreground(lipgloss.Color("#64748B")).Bold(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

func (cv *Canvas) View(width, height int) string {
	var b strings.Builder
	for y, row := range cv.cells {
		if y > 0 {
			b.WriteByte('\n')
		}
		for x, hex := range row {
			switch {
			case x == cv.cursor.x && y == cv.cursor.y:
				glyph := "+"
				if cv.penDown {
					glyph = "o"
				}
				st := cursorStyle
				if hex != "" {
					st = st.Background(lipgloss.Color(hex))
				}
				b.WriteString(st.Render(glyph))
			case hex != "":
				b.WriteString(lipgloss.NewStyle().Background(lipgloss.Color(hex)).Render(" "))
			default:
				b.WriteString(paperStyle.Render(" "))
			}
		}
	}
	pen := "up"
	if cv.penDown {
		pen = "down"
	}
	swatch := lipgloss.NewStyle().Background(lipgloss.Color(cv.color)).Render("  ")
	status := statusStyle.Render(fmt.Sprintf("pen %s  brush %d  ", pen, cv.size)) + swatch
	help := statusStyle.Render("space pen  1-6 color  [ ] size  u/r undo/redo  c clear")
	body := strings.Join([]string{b.String(), status, help}, "\n")
	return lipgloss.Place(max(1, width), max(1, height), lipgloss.Center, lipgloss.Center, body)
}

var (
	_ plugin.DoodleInstance = (*Canvas)(nil)
	_ plugin.Widget         = (*Canvas)(nil)
)
