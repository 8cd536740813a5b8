package games

import (
	"math/rand/v2"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
)

const (
	snakeStep     = 100 * time.Millisecond
	snakeFoodGain = 10
)

type point struct{ x, y int }

func NewSnake(opts Options) *Plugin {
	return &Plugin{
		id:          "snake",
		name:        "Snake",
		description: "Classic Snake Game",
		opts:        opts,
		build: func(s *session, full bool) game {
			g := &snake{session: s, rng: s.opts.rng(), cols: 24, rows: 10}
			if full {
				g.cols, g.rows = 48, 20
			}
			g.reset()
			return g
		},
	}
}

type snake struct {
	*session
	rng        *rand.Rand
	cols, rows int
	body       []point
	dir        point
	pending    point
	food       point
	lastStep   time.Time
	eaten      int
}

func (g *snake) reset() {
	g.body = []point{{x: g.cols / 2, y: g.rows / 2}}
	g.dir = point{x: 1}
	g.pending = g.dir
	g.placeFood()
}

func (g *snake) placeFood() {
	free := make([]point, 0, g.cols*g.rows)
	for y := 0; y < g.rows; y++ {
		for x := 0; x < g.cols; x++ {
			p := point{x: x, y: y}
			if !g.occupied(p) {
				free = append(free, p)
			}
		}
	}
	if len(free) == 0 {
		g.reset()
		return
	}
	g.food = free[g.rng.IntN(len(free))]
}

func (g *snake) occupied(p point) bool {
	for _, part := range g.body {
		if part == p {
			return true
		}
	}
	return false
}

func (g *snake) HandleKey(key string) bool {
	var next point
	switch key {
	case "up", "w", "k":
		next = point{y: -1}
	case "down", "s", "j":
		next = point{y: 1}
	case "left", "a", "h":
		next = point{x: -1}
	case "right", "d", "l":
		next = point{x: 1}
	default:
		return false
	}
	// Reversing onto the body is ignored.
	if (next.x != 0 && g.dir.x == 0) || (next.y != 0 && g.dir.y == 0) {
		g.pending = next
	}
	return true
}

func (g *snake) Tick(now time.Time) {
	g.tick(now)
	if g.lastStep.IsZero() {
		g.lastStep = now
		return
	}
	if now.Sub(g.lastStep) > time.Second {
		g.lastStep = now.Add(-snakeStep)
	}
	for now.Sub(g.lastStep) >= snakeStep {
		g.lastStep = g.lastStep.Add(snakeStep)
		g.step()
	}
}

func (g *snake) step() {
	g.dir = g.pending
	head := g.body[0]
	head.x = (head.x + g.dir.x + g.cols) % g.cols
	head.y = (head.y + g.dir.y + g.rows) % g.rows

	if g.occupied(head) {
		g.award("snake:first-crash")
		g.reset()
		return
	}
	g.body = append([]point{head}, g.body...)
	if head == g.food {
		g.eaten++
		g.addScore(snakeFoodGain)
		g.award("snake:first-food")
		if len(g.body) >= 10 {
			g.award("snake:length-10")
		}
		g.placeFood()
		return
	}
	g.body = g.body[:len(g.body)-1]
}

var (
	snakeHead = lipgloss.NewStyle().Foreground(lipgloss.Color("#67F0A8")).Bold(true)
	snakeBody = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	snakeFood = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5722")).Bold(true)
	snakeGrid = lipgloss.NewStyle().Foreground(lipgloss.Color("#3A3A3A"))
	boardEdge = lipgloss.NewStyle().Border(lipgloss.RoundedBorder())
)

func (g *snake) View(width, height int) string {
	var b strings.Builder
	for y := 0; y < g.rows; y++ {
		if y > 0 {
			b.WriteByte('\n')
		}
		for x := 0; x < g.cols; x++ {
			p := point{x: x, y: y}
			switch {
			case p == g.body[0]:
				b.WriteString(snakeHead.Render("@"))
			case g.occupied(p):
				b.WriteString(snakeBody.Render("o"))
			case p == g.food:
				b.WriteString(snakeFood.Render("*"))
			default:
				b.WriteString(snakeGrid.Render("·"))
			}
		}
	}
	lines := g.header("Snake", "Use arrow keys to move")
	lines = append(lines, boardEdge.Render(b.String()))
	return center(lines, width, height)
}
