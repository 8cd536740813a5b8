package engine

import (
	"errors"
	"testing"
	"time"

	"waitroom/internal/plugin"
	"waitroom/internal/state"
)

type fakeContainer struct {
	widgets    []plugin.Widget
	clears     int
	opacity    float64
	transition time.Duration
}

func (c *fakeContainer) Clear()                        { c.clears++; c.widgets = nil }
func (c *fakeContainer) Mount(w plugin.Widget)         { c.widgets = append(c.widgets, w) }
func (c *fakeContainer) SetOpacity(alpha float64)      { c.opacity = alpha }
func (c *fakeContainer) SetTransition(d time.Duration) { c.transition = d }

type fakeWidget struct{ name string }

func (w *fakeWidget) View(int, int) string  { return w.name }
func (w *fakeWidget) HandleKey(string) bool { return false }
func (w *fakeWidget) Tick(time.Time)        {}

type pending struct {
	delay time.Duration
	fn    func()
}

type fakeScheduler struct {
	queue []pending
}

func (s *fakeScheduler) Schedule(d time.Duration, fn func()) {
	s.queue = append(s.queue, pending{delay: d, fn: fn})
}

func (s *fakeScheduler) flush() {
	for len(s.queue) > 0 {
		next := s.queue[0]
		s.queue = s.queue[1:]
		next.fn()
	}
}

// recorder tracks the lifecycle of every instance any fake plugin creates.
type recorder struct {
	mounts   []string
	destroys []string
	live     int
	maxLive  int
	states   []plugin.GameState
}

type fakeInstance struct {
	rec       *recorder
	name      string
	c         plugin.Container
	destroyed int
}

func (i *fakeInstance) Destroy() {
	i.destroyed++
	i.rec.live--
	i.rec.destroys = append(i.rec.destroys, i.name)
	i.c.Clear()
}
func (i *fakeInstance) GetState() plugin.GameState { return plugin.GameState{} }
func (i *fakeInstance) SetState(plugin.GameState)  {}
func (i *fakeInstance) Next()                      {}
func (i *fakeInstance) Previous()                  {}
func (i *fakeInstance) Favorite(string)            {}
func (i *fakeInstance) Clear()                     {}
func (i *fakeInstance) Undo()                      {}
func (i *fakeInstance) Redo()                      {}
func (i *fakeInstance) Save() (string, error)      { return "", nil }
func (i *fakeInstance) Load(string) error          { return nil }
func (i *fakeInstance) SetBrushColor(string) error { return nil }
func (i *fakeInstance) SetBrushSize(int)           {}

func (r *recorder) mount(name string, c plugin.Container) *fakeInstance {
	r.mounts = append(r.mounts, name)
	r.live++
	if r.live > r.maxLive {
		r.maxLive = r.live
	}
	c.Mount(&fakeWidget{name: name})
	return &fakeInstance{rec: r, name: name, c: c}
}

type fakeDescriptor struct{ id string }

func (d fakeDescriptor) ID() string          { return d.id }
func (d fakeDescriptor) Name() string        { return d.id }
func (d fakeDescriptor) Description() string { return "" }

type fakeGame struct {
	fakeDescriptor
	rec *recorder
	err error
}

func (g *fakeGame) RenderMini(c plugin.Container, st plugin.GameState) (plugin.GameInstance, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.rec.states = append(g.rec.states, st)
	return g.rec.mount("game", c), nil
}

func (g *fakeGame) RenderFull(c plugin.Container, st plugin.GameState) (plugin.GameInstance, error) {
	g.rec.states = append(g.rec.states, st)
	return g.rec.mount("game-full", c), nil
}

type fakeFacts struct {
	fakeDescriptor
	rec *recorder
}

func (f *fakeFacts) Category() string { return "all" }
func (f *fakeFacts) RenderMini(c plugin.Container, cfg *plugin.FactsConfig) (plugin.FactsInstance, error) {
	if cfg != nil {
		panic("facts mount must not receive a config from the engine")
	}
	return f.rec.mount("facts", c), nil
}
func (f *fakeFacts) RenderFull(c plugin.Container, _ *plugin.FactsConfig) (plugin.FactsInstance, error) {
	return f.rec.mount("facts-full", c), nil
}

type fakeDoodle struct {
	fakeDescriptor
	rec *recorder
}

func (d *fakeDoodle) RenderMini(c plugin.Container, _ *plugin.DoodleConfig) (plugin.DoodleInstance, error) {
	return d.rec.mount("doodle", c), nil
}
func (d *fakeDoodle) RenderFull(c plugin.Container, _ *plugin.DoodleConfig) (plugin.DoodleInstance, error) {
	return d.rec.mount("doodle-full", c), nil
}

type harness struct {
	container *fakeContainer
	sched     *fakeScheduler
	store     *state.Prefs
	rec       *recorder
	changes   []plugin.Mode
}

func newHarness() *harness {
	return &harness{
		container: &fakeContainer{opacity: 1},
		sched:     &fakeScheduler{},
		store:     state.NewPrefs(state.NewMemory(), state.PrefsOptions{}),
		rec:       &recorder{},
	}
}

func (h *harness) config() Config {
	return Config{
		AvailableModes:        []plugin.Mode{plugin.ModeGame, plugin.ModeFacts, plugin.ModeDoodle},
		PersistModePreference: true,
		TransitionDuration:    400 * time.Millisecond,
		OnModeChange:          func(m plugin.Mode) { h.changes = append(h.changes, m) },
		Game:                  &fakeGame{fakeDescriptor: fakeDescriptor{id: "snake"}, rec: h.rec},
		Facts:                 &fakeFacts{fakeDescriptor: fakeDescriptor{id: "fact-randomizer"}, rec: h.rec},
		Doodle:                &fakeDoodle{fakeDescriptor: fakeDescriptor{id: "basic-doodle"}, rec: h.rec},
	}
}

func (h *harness) engine(cfg Config) *Engine {
	return New(h.container, cfg, Options{Store: h.store, Scheduler: h.sched})
}

func TestColdStartMountsGameWithEmptyState(t *testing.T) {
	h := newHarness()
	cfg := h.config()
	cfg.Mode = plugin.ModeGame
	cfg.AvailableModes = []plugin.Mode{plugin.ModeGame, plugin.ModeFacts}
	e := h.engine(cfg)

	if err := e.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if len(h.rec.mounts) != 0 {
		t.Fatalf("expected mount deferred to fade midpoint, got %v", h.rec.mounts)
	}
	if h.container.opacity != 0 {
		t.Fatalf("expected container faded out, opacity=%v", h.container.opacity)
	}
	h.sched.flush()

	if len(h.rec.mounts) != 1 || h.rec.mounts[0] != "game" {
		t.Fatalf("expected a single game mount, got %v", h.rec.mounts)
	}
	if len(h.rec.states) != 1 || h.rec.states[0].Progress.Score != 0 || h.rec.states[0].GameID != "" {
		t.Fatalf("expected empty initial state, got %+v", h.rec.states)
	}
	if h.container.opacity != 1 {
		t.Fatalf("expected container faded back in, opacity=%v", h.container.opacity)
	}
	if !e.Mounted() || e.ActiveMode() != plugin.ModeGame {
		t.Fatalf("expected game mounted, active=%q mounted=%v", e.ActiveMode(), e.Mounted())
	}
}

func TestGameMountReceivesPersistedState(t *testing.T) {
	h := newHarness()
	h.store.SaveGameState("snake", plugin.GameState{GameID: "snake", Progress: plugin.GameProgress{HighScore: 70}})
	cfg := h.config()
	cfg.Mode = plugin.ModeGame
	e := h.engine(cfg)
	_ = e.Init()
	h.sched.flush()

	if len(h.rec.states) != 1 || h.rec.states[0].Progress.HighScore != 70 {
		t.Fatalf("expected persisted state relayed to game, got %+v", h.rec.states)
	}
}

func TestSwitchSequenceDestroysBeforeEachMount(t *testing.T) {
	h := newHarness()
	cfg := h.config()
	cfg.Mode = plugin.ModeGame
	e := h.engine(cfg)
	_ = e.Init()
	h.sched.flush()

	for _, m := range []plugin.Mode{plugin.ModeFacts, plugin.ModeGame} {
		if err := e.SwitchMode(m); err != nil {
			t.Fatalf("switch %s: %v", m, err)
		}
		if len(h.sched.queue) != 1 || h.sched.queue[0].delay != 200*time.Millisecond {
			t.Fatalf("expected one mount scheduled at 200ms, got %+v", h.sched.queue)
		}
		h.sched.flush()
	}

	if got := h.rec.destroys; len(got) != 2 || got[0] != "game" || got[1] != "facts" {
		t.Fatalf("expected destroys [game facts], got %v", got)
	}
	if got := h.rec.mounts; len(got) != 3 || got[1] != "facts" || got[2] != "game" {
		t.Fatalf("expected two mounts beyond the first, got %v", got)
	}
	if h.rec.maxLive != 1 {
		t.Fatalf("expected at most one live instance, saw %d", h.rec.maxLive)
	}
}

func TestSwitchToActiveModeIsNoop(t *testing.T) {
	h := newHarness()
	cfg := h.config()
	cfg.Mode = plugin.ModeFacts
	e := h.engine(cfg)
	_ = e.Init()
	h.sched.flush()
	changes := len(h.changes)

	if err := e.SwitchMode(plugin.ModeFacts); err != nil {
		t.Fatalf("switch: %v", err)
	}
	if len(h.sched.queue) != 0 || len(h.rec.destroys) != 0 || len(h.rec.mounts) != 1 || len(h.changes) != changes {
		t.Fatalf("expected no activity, queue=%d destroys=%v mounts=%v changes=%v",
			len(h.sched.queue), h.rec.destroys, h.rec.mounts, h.changes)
	}
}

func TestRepeatedNoneIsNoop(t *testing.T) {
	h := newHarness()
	e := h.engine(h.config())
	if err := e.SwitchMode(plugin.ModeNone); err != nil {
		t.Fatalf("switch none: %v", err)
	}
	if len(h.changes) != 0 || len(h.sched.queue) != 0 {
		t.Fatalf("expected none on a fresh engine to be a no-op")
	}
}

func TestRapidDoubleSwitchDiscardsStaleMount(t *testing.T) {
	h := newHarness()
	e := h.engine(h.config())

	_ = e.SwitchMode(plugin.ModeDoodle)
	_ = e.SwitchMode(plugin.ModeFacts)
	h.sched.flush()

	if len(h.rec.mounts) != 1 || h.rec.mounts[0] != "facts" {
		t.Fatalf("expected only facts mounted, got %v", h.rec.mounts)
	}
	if len(h.container.widgets) != 1 {
		t.Fatalf("expected one widget in container, got %d", len(h.container.widgets))
	}
}

func TestBounceBackDoesNotDoubleMount(t *testing.T) {
	h := newHarness()
	e := h.engine(h.config())

	_ = e.SwitchMode(plugin.ModeDoodle)
	_ = e.SwitchMode(plugin.ModeFacts)
	_ = e.SwitchMode(plugin.ModeDoodle)
	h.sched.flush()

	if len(h.rec.mounts) != 1 || h.rec.mounts[0] != "doodle" {
		t.Fatalf("expected a single doodle mount, got %v", h.rec.mounts)
	}
	if h.rec.live != 1 {
		t.Fatalf("expected one live instance, got %d", h.rec.live)
	}
}

func TestModeChangeFiresBeforeMount(t *testing.T) {
	h := newHarness()
	cfg := h.config()
	var mountedAtCallback []bool
	e := New(h.container, cfg, Options{
		Store: h.store,
		Scheduler: SchedulerFunc(func(_ time.Duration, fn func()) {
			fn()
		}),
	})
	cfg.OnModeChange = func(plugin.Mode) { mountedAtCallback = append(mountedAtCallback, e.Mounted()) }
	e.cfg = cfg

	_ = e.SwitchMode(plugin.ModeFacts)

	if len(mountedAtCallback) != 1 || mountedAtCallback[0] {
		t.Fatalf("expected callback before mount, got %v", mountedAtCallback)
	}
	if !e.Mounted() {
		t.Fatalf("expected immediate scheduler to mount after the callback")
	}
}

func TestPersistedModeRoundTrip(t *testing.T) {
	h := newHarness()
	first := h.engine(h.config())
	_ = first.SwitchMode(plugin.ModeFacts)
	h.sched.flush()
	first.Teardown()

	second := h.engine(h.config())
	if err := second.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if second.ActiveMode() != plugin.ModeFacts {
		t.Fatalf("expected restored facts, got %q", second.ActiveMode())
	}
}

func TestPersistedModeFilteredByAvailableModes(t *testing.T) {
	h := newHarness()
	h.store.SavePreferredMode(plugin.ModeDoodle)
	cfg := h.config()
	cfg.AvailableModes = []plugin.Mode{plugin.ModeGame, plugin.ModeFacts}
	e := h.engine(cfg)
	_ = e.Init()

	if e.ActiveMode() == plugin.ModeDoodle {
		t.Fatalf("expected doodle preference filtered out")
	}
	if e.ActiveMode() != plugin.ModeNone {
		t.Fatalf("expected fallback to none, got %q", e.ActiveMode())
	}
}

func TestExplicitModeWinsOverPreference(t *testing.T) {
	h := newHarness()
	h.store.SavePreferredMode(plugin.ModeDoodle)
	cfg := h.config()
	cfg.Mode = plugin.ModeGame
	e := h.engine(cfg)
	_ = e.Init()
	if e.ActiveMode() != plugin.ModeGame {
		t.Fatalf("expected explicit game, got %q", e.ActiveMode())
	}
}

func TestPreferenceNotWrittenWhenDisabledOrNone(t *testing.T) {
	h := newHarness()
	cfg := h.config()
	cfg.PersistModePreference = false
	e := h.engine(cfg)
	_ = e.SwitchMode(plugin.ModeGame)
	if _, ok := h.store.GetPreferredMode(); ok {
		t.Fatalf("expected no preference written when persistence disabled")
	}

	cfg.PersistModePreference = true
	e = h.engine(cfg)
	_ = e.SwitchMode(plugin.ModeFacts)
	_ = e.SwitchMode(plugin.ModeNone)
	if mode, _ := h.store.GetPreferredMode(); mode != plugin.ModeFacts {
		t.Fatalf("expected none not to overwrite facts, got %q", mode)
	}
}

func TestMissingPluginRendersNothing(t *testing.T) {
	h := newHarness()
	cfg := h.config()
	cfg.Game = nil
	cfg.Mode = plugin.ModeGame
	e := h.engine(cfg)
	if err := e.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	h.sched.flush()

	if len(h.container.widgets) != 0 || e.Mounted() {
		t.Fatalf("expected empty container")
	}
	if e.ActiveMode() != plugin.ModeGame {
		t.Fatalf("expected active mode game, got %q", e.ActiveMode())
	}
	if e.Err() != nil {
		t.Fatalf("expected no error, got %v", e.Err())
	}
}

func TestFactoryErrorSurfacesToHost(t *testing.T) {
	h := newHarness()
	cfg := h.config()
	boom := errors.New("canvas unavailable")
	cfg.Game = &fakeGame{fakeDescriptor: fakeDescriptor{id: "snake"}, rec: h.rec, err: boom}
	var reported error
	cfg.OnError = func(_ plugin.Mode, err error) { reported = err }
	e := h.engine(cfg)
	_ = e.SwitchMode(plugin.ModeGame)
	h.sched.flush()

	if !errors.Is(reported, boom) || !errors.Is(e.Err(), boom) {
		t.Fatalf("expected construction error surfaced, reported=%v err=%v", reported, e.Err())
	}
	if e.Mounted() || len(h.container.widgets) != 0 {
		t.Fatalf("expected nothing mounted after failure")
	}
}

func TestFactoryPanicPropagates(t *testing.T) {
	h := newHarness()
	cfg := h.config()
	e := New(h.container, cfg, Options{Store: h.store, Scheduler: SchedulerFunc(func(_ time.Duration, fn func()) { fn() })})
	e.cfg.Facts = panicFacts{}

	defer func() {
		if recover() == nil {
			t.Fatalf("expected plugin panic to propagate")
		}
	}()
	_ = e.SwitchMode(plugin.ModeFacts)
}

type panicFacts struct{ fakeDescriptor }

func (panicFacts) Category() string { return "" }
func (panicFacts) RenderMini(plugin.Container, *plugin.FactsConfig) (plugin.FactsInstance, error) {
	panic("contract violation")
}
func (panicFacts) RenderFull(plugin.Container, *plugin.FactsConfig) (plugin.FactsInstance, error) {
	panic("contract violation")
}

func TestTeardownIsIdempotentAndCancelsPending(t *testing.T) {
	h := newHarness()
	cfg := h.config()
	cfg.Mode = plugin.ModeGame
	e := h.engine(cfg)
	_ = e.Init()
	h.sched.flush()

	_ = e.SwitchMode(plugin.ModeFacts)
	e.Teardown()
	e.Teardown()
	h.sched.flush()

	if len(h.rec.destroys) != 1 {
		t.Fatalf("expected exactly one destroy, got %v", h.rec.destroys)
	}
	if len(h.rec.mounts) != 1 {
		t.Fatalf("expected pending facts mount discarded, got %v", h.rec.mounts)
	}
	if len(h.container.widgets) != 0 {
		t.Fatalf("expected cleared container")
	}
	if err := e.SwitchMode(plugin.ModeGame); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed after teardown, got %v", err)
	}
}

func TestSwitchAcceptsModeOutsideAvailable(t *testing.T) {
	h := newHarness()
	cfg := h.config()
	cfg.AvailableModes = []plugin.Mode{plugin.ModeGame}
	e := h.engine(cfg)
	if err := e.SwitchMode(plugin.ModeDoodle); err != nil {
		t.Fatalf("switch: %v", err)
	}
	h.sched.flush()
	if e.ActiveMode() != plugin.ModeDoodle || !e.Mounted() {
		t.Fatalf("expected doodle mounted")
	}
	if err := e.SwitchMode(plugin.Mode("puzzle")); !errors.Is(err, plugin.ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
}

func TestRenderFullUsesActiveDescriptor(t *testing.T) {
	h := newHarness()
	h.store.SaveGameState("snake", plugin.GameState{Progress: plugin.GameProgress{Score: 5}})
	cfg := h.config()
	cfg.Mode = plugin.ModeGame
	e := h.engine(cfg)
	_ = e.Init()
	h.sched.flush()

	full := &fakeContainer{}
	inst, err := e.RenderFull(full)
	if err != nil || inst == nil {
		t.Fatalf("render full: inst=%v err=%v", inst, err)
	}
	if len(full.widgets) != 1 {
		t.Fatalf("expected full widget mounted into overlay container")
	}
	if last := h.rec.states[len(h.rec.states)-1]; last.Progress.Score != 5 {
		t.Fatalf("expected persisted state for full view, got %+v", last)
	}
	inst.Destroy()
	if !e.Mounted() {
		t.Fatalf("expected mini instance to stay mounted")
	}
}

func TestDefaultTransitionWhenUnset(t *testing.T) {
	h := newHarness()
	cfg := h.config()
	cfg.TransitionDuration = 0
	e := h.engine(cfg)
	_ = e.SwitchMode(plugin.ModeGame)
	if h.sched.queue[0].delay != DefaultTransition/2 {
		t.Fatalf("expected default half transition, got %v", h.sched.queue[0].delay)
	}
	if h.container.transition != DefaultTransition {
		t.Fatalf("expected container transition %v, got %v", DefaultTransition, h.container.transition)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := (Config{Mode: "puzzle"}).Validate(); err == nil {
		t.Fatalf("expected invalid mode error")
	}
	if err := (Config{AvailableModes: []plugin.Mode{plugin.ModeNone}}).Validate(); err == nil {
		t.Fatalf("expected none rejected from available modes")
	}
	if err := (Config{Theme: "neon"}).Validate(); err == nil {
		t.Fatalf("expected invalid theme error")
	}
	if err := (Config{Mode: plugin.ModeGame, Theme: "dark", Position: "corner"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
