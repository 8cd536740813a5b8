package games

import (
	"math/rand/v2"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
)

const (
	memoryCols     = 4
	memoryMismatch = time.Second
	memoryRestart  = 3 * time.Second
	memoryWinGain  = 100
)

var memorySymbols = []string{"♠", "♥", "♦", "♣", "★", "♪"}

type card struct {
	value   string
	flipped bool
	matched bool
}

func NewMemory(opts Options) *Plugin {
	return &Plugin{
		id:          "memory",
		name:        "Memory Match",
		description: "Find matching pairs",
		opts:        opts,
		build: func(s *session, _ bool) game {
			g := &memory{session: s, rng: s.opts.rng()}
			g.deal()
			return g
		},
	}
}

type memory struct {
	*session
	rng       *rand.Rand
	cards     []card
	open      []int
	cursor    int
	moves     int
	unflipAt  time.Time
	restartAt time.Time
	now       time.Time
	message   string
}

func (g *memory) deal() {
	g.cards = g.cards[:0]
	for _, v := range memorySymbols {
		g.cards = append(g.cards, card{value: v}, card{value: v})
	}
	g.rng.Shuffle(len(g.cards), func(i, j int) { g.cards[i], g.cards[j] = g.cards[j], g.cards[i] })
	g.open = g.open[:0]
	g.moves = 0
	g.message = ""
	g.unflipAt = time.Time{}
	g.restartAt = time.Time{}
}

func (g *memory) locked() bool {
	return !g.unflipAt.IsZero() || !g.restartAt.IsZero()
}

func (g *memory) HandleKey(key string) bool {
	rows := len(g.cards) / memoryCols
	switch key {
	case "left", "h", "a":
		g.cursor = (g.cursor + len(g.cards) - 1) % len(g.cards)
	case "right", "l", "d":
		g.cursor = (g.cursor + 1) % len(g.cards)
	case "up", "k", "w":
		g.cursor = (g.cursor + (rows-1)*memoryCols) % len(g.cards)
	case "down", "j", "s":
		g.cursor = (g.cursor + memoryCols) % len(g.cards)
	case "enter", "space", " ":
		g.flip(g.cursor)
	default:
		return false
	}
	return true
}

func (g *memory) flip(i int) {
	if g.locked() || i < 0 || i >= len(g.cards) {
		return
	}
	c := &g.cards[i]
	if c.flipped || c.matched {
		return
	}
	c.flipped = true
	g.open = append(g.open, i)
	if len(g.open) < 2 {
		return
	}
	g.moves++
	a, b := &g.cards[g.open[0]], &g.cards[g.open[1]]
	if a.value != b.value {
		g.unflipAt = g.now.Add(memoryMismatch)
		return
	}
	a.matched, b.matched = true, true
	g.open = g.open[:0]
	g.checkWin()
}

func (g *memory) checkWin() {
	for _, c := range g.cards {
		if !c.matched {
			return
		}
	}
	g.message = "You won!"
	g.addScore(memoryWinGain)
	g.award("memory:first-win")
	if g.moves <= len(memorySymbols)+2 {
		g.award("memory:sharp-eye")
	}
	g.restartAt = g.now.Add(memoryRestart)
}

func (g *memory) Tick(now time.Time) {
	g.tick(now)
	g.now = now
	if !g.unflipAt.IsZero() && !now.Before(g.unflipAt) {
		for _, i := range g.open {
			g.cards[i].flipped = false
		}
		g.open = g.open[:0]
		g.unflipAt = time.Time{}
	}
	if !g.restartAt.IsZero() && !now.Before(g.restartAt) {
		g.deal()
	}
}

var (
	cardBack   = lipgloss.NewStyle().Background(lipgloss.Color("#22C55E")).Foreground(lipgloss.Color("#0E1420"))
	cardFace   = lipgloss.NewStyle().Background(lipgloss.Color("#EAF2FF")).Foreground(lipgloss.Color("#0E1420")).Bold(true)
	cardCursor = lipgloss.NewStyle().Underline(true).Bold(true)
)

func (g *memory) View(width, height int) string {
	var rows []string
	var row strings.Builder
	for i, c := range g.cards {
		cell := cardBack.Render(" ? ")
		if c.flipped || c.matched {
			cell = cardFace.Render(" " + c.value + " ")
		}
		if i == g.cursor {
			cell = cardCursor.Render("[") + cell + cardCursor.Render("]")
		} else {
			cell = " " + cell + " "
		}
		row.WriteString(cell)
		if (i+1)%memoryCols == 0 {
			rows = append(rows, row.String())
			row.Reset()
		}
	}
	lines := g.header("Memory Match", "Find matching pairs")
	lines = append(lines, "")
	lines = append(lines, rows...)
	if g.message != "" {
		lines = append(lines, "", scoreStyle.Render(g.message))
	}
	return center(lines, width, height)
}
