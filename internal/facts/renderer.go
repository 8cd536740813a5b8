package facts

import (
	"fmt"
	"io"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"waitroom/internal/plugin"

	"charm.land/bubbles/v2/progress"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"
	clog "github.com/charmbracelet/log"
)

const DefaultRotationInterval = 4 * time.Second

type Options struct {
	Logger *clog.Logger
	// Seed fixes the shuffle order; zero seeds from the clock.
	Seed uint64
	// PlainText skips markdown rendering.
	PlainText bool
	// Theme picks the markdown palette: "light" or anything else for dark.
	Theme string
}

func (o Options) logger() *clog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return clog.NewWithOptions(io.Discard, clog.Options{Prefix: "waitroom-facts"})
}

func (o Options) markdownStyle() string {
	if o.Theme == "light" {
		return "light"
	}
	return "dark"
}

func (o Options) rng() *rand.Rand {
	seed := o.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed>>7|1))
}

// Rotator shows one fact at a time and advances on its own every
// RotationInterval. It implements plugin.FactsInstance.
type Rotator struct {
	c         plugin.Container
	facts     []plugin.Fact
	cfg       plugin.FactsConfig
	rng       *rand.Rand
	logger    *clog.Logger
	index     int
	shownAt   time.Time
	now       time.Time
	favorites map[string]bool
	bar       progress.Model
	md        *glamour.TermRenderer
	mdWidth   int
	mdStyle   string
	cache     map[string]string
	plain     bool
	destroyed bool
}

func newRotator(c plugin.Container, facts []plugin.Fact, cfg *plugin.FactsConfig, opts Options) *Rotator {
	r := &Rotator{
		c:         c,
		facts:     facts,
		rng:       opts.rng(),
		logger:    opts.logger(),
		favorites: map[string]bool{},
		cache:     map[string]string{},
		plain:     opts.PlainText,
		mdStyle:   opts.markdownStyle(),
		bar: progress.New(
			progress.WithWidth(24),
			progress.WithColors(lipgloss.Color("#22C55E"), lipgloss.Color("#79E6A6")),
			progress.WithScaled(true),
		),
	}
	if cfg != nil {
		r.cfg = *cfg
	}
	if r.cfg.RotationInterval <= 0 {
		r.cfg.RotationInterval = DefaultRotationInterval
	}
	if r.cfg.Shuffle && len(facts) > 0 {
		r.index = r.rng.IntN(len(facts))
	}
	return r
}

func (r *Rotator) Current() (plugin.Fact, bool) {
	if len(r.facts) == 0 {
		return plugin.Fact{}, false
	}
	return r.facts[r.index], true
}

func (r *Rotator) Next() {
	if len(r.facts) <= 1 {
		return
	}
	if r.cfg.Shuffle {
		next := r.index
		for next == r.index {
			next = r.rng.IntN(len(r.facts))
		}
		r.index = next
	} else {
		r.index = (r.index + 1) % len(r.facts)
	}
	r.shownAt = r.now
}

// Previous steps back in order. Shuffled rotations have no history, so it
// picks another random fact.
func (r *Rotator) Previous() {
	if len(r.facts) <= 1 {
		return
	}
	if r.cfg.Shuffle {
		r.Next()
		return
	}
	r.index = (r.index - 1 + len(r.facts)) % len(r.facts)
	r.shownAt = r.now
}

func (r *Rotator) Favorite(id string) {
	if id == "" {
		return
	}
	r.favorites[id] = true
	r.logger.Info("fact favorited", "id", id)
}

// Favorites lists favorited fact ids in sorted order.
func (r *Rotator) Favorites() []string {
	out := make([]string, 0, len(r.favorites))
	for id := range r.favorites {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (r *Rotator) Destroy() {
	if r.destroyed {
		return
	}
	r.destroyed = true
	r.c.Clear()
}

func (r *Rotator) Tick(now time.Time) {
	r.now = now
	if r.shownAt.IsZero() {
		r.shownAt = now
		return
	}
	if len(r.facts) > 1 && now.Sub(r.shownAt) >= r.cfg.RotationInterval {
		r.Next()
	}
}

func (r *Rotator) HandleKey(key string) bool {
	switch key {
	case "right", "n", "l":
		r.Next()
	case "left", "p", "h":
		r.Previous()
	case "s", "*", "f":
		if f, ok := r.Current(); ok {
			r.Favorite(f.ID)
		}
	default:
		return false
	}
	return true
}

var (
	factTitle    = lipgloss.NewStyle().Bold(true)
	factCategory = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	factFavorite = lipgloss.NewStyle().Foreground(lipgloss.Color("#F2D16B"))
)

func (r *Rotator) View(width, height int) string {
	f, ok := r.Current()
	if !ok {
		return lipgloss.Place(max(1, width), max(1, height), lipgloss.Center, lipgloss.Center, factCategory.Render("No facts loaded"))
	}
	title := factTitle.Render(fmt.Sprintf("Fact #%d", r.index+1))
	if r.favorites[f.ID] {
		title += " " + factFavorite.Render("★")
	}
	lines := []string{title, "", r.text(f, max(10, width-4))}
	if f.Category != "" {
		lines = append(lines, "", factCategory.Render(strings.ToUpper(f.Category)))
	}
	if r.cfg.ShowSource && f.Source != "" {
		lines = append(lines, factCategory.Render("source: "+f.Source))
	}
	if len(r.facts) > 1 && !r.shownAt.IsZero() {
		pct := float64(r.now.Sub(r.shownAt)) / float64(r.cfg.RotationInterval)
		r.bar.SetWidth(max(8, min(40, width-4)))
		lines = append(lines, "", r.bar.ViewAs(min(1, max(0, pct))))
	}
	body := strings.Join(lines, "\n")
	return lipgloss.Place(max(1, width), max(1, height), lipgloss.Center, lipgloss.Center, lipgloss.NewStyle().Align(lipgloss.Center).Render(body))
}

// text renders fact markdown at the given wrap width, caching per width.
func (r *Rotator) text(f plugin.Fact, wrap int) string {
	if r.plain {
		return f.Text
	}
	if r.md == nil || r.mdWidth != wrap {
		md, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(r.mdStyle),
			glamour.WithWordWrap(wrap),
		)
		if err != nil {
			r.logger.Warn("markdown renderer unavailable", "err", err)
			r.plain = true
			return f.Text
		}
		r.md, r.mdWidth = md, wrap
		clear(r.cache)
	}
	if s, ok := r.cache[f.ID]; ok {
		return s
	}
	out, err := r.md.Render(f.Text)
	if err != nil {
		return f.Text
	}
	out = strings.TrimSpace(out)
	r.cache[f.ID] = out
	return out
}

var _ plugin.FactsInstance = (*Rotator)(nil)
