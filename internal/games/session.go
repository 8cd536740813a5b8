// Package games holds the built-in mini-games. Games are pure widgets: input
// arrives through HandleKey, time through Tick, and progress leaves through
// the shared state store.
package games

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"waitroom/internal/plugin"

	"charm.land/lipgloss/v2"
)

const (
	stateVersion = 1
	levelStep    = 50
	saveInterval = time.Second
)

type Options struct {
	Saver plugin.StateSaver
	Now   func() time.Time
	// Seed fixes the RNG for deterministic boards; zero seeds from the clock.
	Seed uint64
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o Options) rng() *rand.Rand {
	seed := o.Seed
	if seed == 0 {
		seed = uint64(o.now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// stateReader lets a session fold its progress into the latest stored record
// when another session of the same game saved in the meantime.
type stateReader interface {
	GetGameState(pluginID string) (plugin.GameState, bool)
}

// session tracks one mounted game's persisted record. base is the record as
// of the last save; the difference between st and base is what this session
// contributed since.
type session struct {
	id        string
	st        plugin.GameState
	base      plugin.GameState
	opts      Options
	c         plugin.Container
	lastTick  time.Time
	lastSave  time.Time
	dirty     bool
	destroyed bool
}

func newSession(id string, c plugin.Container, initial plugin.GameState, opts Options, full bool) *session {
	st := initial.Clone()
	st.GameID = id
	st.Version = stateVersion
	if st.Progress.Level == 0 {
		st.Progress.Level = 1
	}
	now := opts.now()
	ts := now.UTC().Format(time.RFC3339)
	if st.Meta.FirstPlayed == "" {
		st.Meta.FirstPlayed = ts
	}
	base := st.Clone()
	st.Meta.LastPlayed = ts
	if full {
		st.Meta.Expansions++
	} else {
		st.Meta.LoadingInteractions++
	}
	s := &session{id: id, st: st, base: base, opts: opts, c: c, lastSave: now}
	s.save()
	return s
}

func (s *session) addScore(n int) {
	p := &s.st.Progress
	p.Score += n
	if p.Score > p.HighScore {
		p.HighScore = p.Score
	}
	if lvl := 1 + p.Score/levelStep; lvl > p.Level {
		p.Level = lvl
	}
	s.dirty = true
}

// award records an achievement once.
func (s *session) award(id string) {
	if s.st.HasAchievement(id) {
		return
	}
	s.st.Progress.Achievements = append(s.st.Progress.Achievements, id)
	s.dirty = true
}

func (s *session) tick(now time.Time) {
	if !s.lastTick.IsZero() && now.After(s.lastTick) {
		s.st.Progress.TotalPlayTime += now.Sub(s.lastTick).Milliseconds()
	}
	s.lastTick = now
	if s.dirty && now.Sub(s.lastSave) >= saveInterval {
		s.save()
		s.lastSave = now
	}
}

func (s *session) save() {
	s.dirty = false
	if s.opts.Saver == nil {
		return
	}
	if r, ok := s.opts.Saver.(stateReader); ok {
		if latest, found := r.GetGameState(s.id); found {
			s.st = rebase(latest, s.base, s.st)
		}
	}
	s.base = s.st.Clone()
	s.opts.Saver.SaveGameState(s.id, s.st.Clone())
}

// rebase applies the progress made between base and cur on top of latest.
// Counters add their deltas, maxima keep the larger value, and achievements
// are unioned.
func rebase(latest, base, cur plugin.GameState) plugin.GameState {
	out := latest.Clone()
	out.GameID = cur.GameID
	out.Version = cur.Version

	p, lp, bp := cur.Progress, &out.Progress, base.Progress
	lp.Score = max(0, lp.Score+p.Score-bp.Score)
	lp.HighScore = max(lp.HighScore, p.HighScore, lp.Score)
	lp.Level = max(lp.Level, p.Level)
	lp.TotalPlayTime += p.TotalPlayTime - bp.TotalPlayTime
	for _, a := range p.Achievements {
		if !out.HasAchievement(a) {
			lp.Achievements = append(lp.Achievements, a)
		}
	}

	m, lm, bm := cur.Meta, &out.Meta, base.Meta
	lm.LoadingInteractions += m.LoadingInteractions - bm.LoadingInteractions
	lm.Expansions += m.Expansions - bm.Expansions
	if lm.FirstPlayed == "" || (m.FirstPlayed != "" && m.FirstPlayed < lm.FirstPlayed) {
		lm.FirstPlayed = m.FirstPlayed
	}
	if m.LastPlayed > lm.LastPlayed {
		lm.LastPlayed = m.LastPlayed
	}
	return out
}

func (s *session) GetState() plugin.GameState {
	return s.st.Clone()
}

func (s *session) SetState(partial plugin.GameState) {
	s.st = s.st.Merge(partial)
	s.dirty = true
}

// Destroy saves the final record and empties the container.
func (s *session) Destroy() {
	if s.destroyed {
		return
	}
	s.destroyed = true
	s.save()
	s.c.Clear()
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	helperStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	scoreStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E")).Bold(true)
)

func (s *session) header(title, helper string) []string {
	return []string{
		titleStyle.Render(title),
		helperStyle.Render(helper),
		scoreStyle.Render(fmt.Sprintf("Score: %d  Best: %d  Lv %d", s.st.Progress.Score, s.st.Progress.HighScore, s.st.Progress.Level)),
	}
}

func center(lines []string, width, height int) string {
	body := strings.Join(lines, "\n")
	return lipgloss.Place(max(1, width), max(1, height), lipgloss.Center, lipgloss.Center, body)
}
