// Package ui binds the interaction engine to a Bubble Tea program: it owns the
// panel the engine mounts into, the mode switcher, and the expand overlay.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"waitroom/internal/engine"
	"waitroom/internal/overlay"
	"waitroom/internal/plugin"
	"waitroom/internal/state"
	"waitroom/internal/telemetry"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	clog "github.com/charmbracelet/log"
)

type applyMsg struct {
	fn func(*Root)
}

type frameMsg time.Time

type switcherKeyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Slot1  key.Binding
	Slot2  key.Binding
	Slot3  key.Binding
	Expand key.Binding
	Close  key.Binding
	Quit   key.Binding
}

func (k switcherKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Expand, k.Close, k.Quit}
}

func (k switcherKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Next, k.Prev, k.Slot1, k.Slot2, k.Slot3}, {k.Expand, k.Close, k.Quit}}
}

type Options struct {
	Config  engine.Config
	Store   state.Store
	Journal *telemetry.Journal
	Logger  *clog.Logger
	// Scheduler overrides the program-loop scheduler, mainly for tests.
	Scheduler   engine.Scheduler
	SessionID   string
	MotionLevel string
	// Content is what the host shows once loading finishes.
	Content string
}

type Root struct {
	cfg     engine.Config
	store   state.Store
	journal *telemetry.Journal
	logger  *clog.Logger
	sched   engine.Scheduler
	session string
	motion  string
	theme   Theme
	content string

	mu      sync.Mutex
	program *tea.Program
	running bool

	cols    int
	rows    int
	loading bool
	loadGen uint64
	eng     *engine.Engine
	panel   *Panel
	portal  *overlay.Portal
	expand  plugin.Instance
	lastErr string
	ticking bool

	help   help.Model
	keymap switcherKeyMap
	spin   spinner.Model
}

func New(opts Options) *Root {
	logger := opts.Logger
	if logger == nil {
		logger = clog.NewWithOptions(io.Discard, clog.Options{Prefix: "waitroom-ui"})
	}
	theme := ThemeFor(opts.Config.Theme, opts.Config.Style)
	motion := normalizeMotionLevel(opts.MotionLevel)

	h := help.New()
	if theme.Name == "light" {
		h.Styles = help.DefaultLightStyles()
	} else {
		h.Styles = help.DefaultDarkStyles()
	}

	r := &Root{
		cfg:     opts.Config,
		store:   opts.Store,
		journal: opts.Journal,
		logger:  logger,
		sched:   opts.Scheduler,
		session: opts.SessionID,
		motion:  motion,
		theme:   theme,
		content: opts.Content,
		cols:    80,
		rows:    24,
		panel:   NewPanel(theme, motion),
		help:    h,
		spin: spinner.New(
			spinner.WithSpinner(spinner.MiniDot),
			spinner.WithStyle(theme.Accent),
		),
	}
	if r.sched == nil {
		r.sched = r
	}
	r.portal = overlay.New(func() overlay.Surface { return NewPanel(theme, "off") })
	r.keymap = switcherKeyMap{
		Next:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("Tab", "Next mode")),
		Prev:   key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("Shift+Tab", "Prev mode")),
		Slot1:  key.NewBinding(key.WithKeys("f1"), key.WithHelp("F1", "Mode 1")),
		Slot2:  key.NewBinding(key.WithKeys("f2"), key.WithHelp("F2", "Mode 2")),
		Slot3:  key.NewBinding(key.WithKeys("f3"), key.WithHelp("F3", "Mode 3")),
		Expand: key.NewBinding(key.WithKeys("f5"), key.WithHelp("F5", "Expand")),
		Close:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("Esc", "Close")),
		Quit:   key.NewBinding(key.WithKeys("ctrl+c", "ctrl+q"), key.WithHelp("Ctrl+C", "Quit")),
	}
	return r
}

func (r *Root) Init() tea.Cmd {
	return tea.Batch(spinnerTickCmd(r.spin), r.animateIfNeeded())
}

func (r *Root) Update(msg tea.Msg) (model tea.Model, cmd tea.Cmd) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("update", rec, msg)
			model = r
			cmd = nil
		}
	}()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.cols = msg.Width
		r.rows = msg.Height
		return r, nil
	case applyMsg:
		if msg.fn != nil {
			msg.fn(r)
		}
		return r, r.animateIfNeeded()
	case frameMsg:
		now := time.Time(msg)
		r.panel.Tick(now)
		r.portal.Tick(now)
		if r.needsFrames() {
			return r, frameTickCmd()
		}
		r.ticking = false
		return r, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		r.spin, cmd = r.spin.Update(msg)
		return r, cmd
	case tea.KeyPressMsg:
		return r.handleKey(msg)
	}
	return r, nil
}

func (r *Root) View() (view tea.View) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("view", rec, nil)
			view = tea.NewView(r.theme.Fail.Render("UI recovered from a rendering panic. Check logs."))
		}
	}()
	v := tea.NewView(r.render())
	v.AltScreen = true
	return v
}

func (r *Root) render() string {
	cols, rows := max(20, r.cols), max(8, r.rows)
	r.syncKeymap()
	header := r.theme.Header.Render("waitroom") + r.theme.Status.Render(r.statusText())
	footer := r.help.View(r.keymap)
	bodyH := max(1, rows-2)

	var body string
	switch {
	case !r.loading:
		body = lipgloss.Place(cols, bodyH, lipgloss.Center, lipgloss.Center, r.hostContent())
	case r.eng == nil:
		body = lipgloss.Place(cols, bodyH, lipgloss.Center, lipgloss.Center, r.spin.View()+" Loading…")
	default:
		body = r.renderLoading(cols, bodyH)
	}

	screen := strings.Join([]string{padWidth(header, cols), body, padWidth(footer, cols)}, "\n")
	if r.portal.IsOpen() {
		screen = composeCentered(screen, r.portal.View(cols, rows), cols, rows)
	}
	return screen
}

func (r *Root) renderLoading(cols, height int) string {
	position := r.cfg.Position
	w, h := PanelSize(position, cols, height)
	innerW, innerH := max(1, w-2), max(1, h-2)

	var lines []string
	if r.switcherVisible() {
		lines = append(lines, padWidth(r.renderSwitcher(), innerW), "")
	}
	widgetH := max(1, innerH-len(lines))
	lines = append(lines, strings.Split(r.panel.View(innerW, widgetH), "\n")...)

	title := r.spin.View() + " " + r.eng.ActiveMode().Label()
	frame := drawPanel(r.theme, title, lines, w, h)

	switch position {
	case "corner":
		base := lipgloss.Place(cols, height, lipgloss.Center, lipgloss.Center, r.hostContent())
		return composeAt(base, frame, cols, height, height-h, cols-w)
	case "inline":
		return lipgloss.Place(cols, height, lipgloss.Left, lipgloss.Top, frame)
	default:
		return lipgloss.Place(cols, height, lipgloss.Center, lipgloss.Center, frame)
	}
}

func (r *Root) renderSwitcher() string {
	active := r.eng.ActiveMode()
	tabs := make([]string, 0, 3)
	for i, m := range r.cfg.Modes() {
		label := fmt.Sprintf("F%d %s", i+1, m.Label())
		if m == active {
			tabs = append(tabs, r.theme.TabActive.Render(label))
		} else {
			tabs = append(tabs, r.theme.Tab.Render(label))
		}
	}
	return strings.Join(tabs, " ")
}

func (r *Root) hostContent() string {
	if strings.TrimSpace(r.content) == "" {
		return r.theme.Muted.Render("Ready.")
	}
	return r.theme.PanelBody.Render(r.content)
}

func (r *Root) statusText() string {
	var s string
	switch {
	case !r.loading:
		s = "ready"
	case r.eng == nil:
		s = "loading"
	default:
		s = "loading · " + strings.ToLower(r.eng.ActiveMode().Label())
	}
	if r.lastErr != "" {
		s += "  " + r.theme.Fail.Render(trimForWidth(r.lastErr, 60))
	}
	return s
}

func (r *Root) syncKeymap() {
	switcher := r.switcherVisible()
	modes := r.cfg.Modes()
	r.keymap.Next.SetEnabled(switcher)
	r.keymap.Prev.SetEnabled(switcher)
	for i, b := range []*key.Binding{&r.keymap.Slot1, &r.keymap.Slot2, &r.keymap.Slot3} {
		b.SetEnabled(switcher && i < len(modes))
	}
	r.keymap.Expand.SetEnabled(r.eng != nil && r.eng.ActiveMode() != plugin.ModeNone && !r.portal.IsOpen())
	r.keymap.Close.SetEnabled(r.portal.IsOpen())
}

// Run drives the program until the user quits or ctx is done. Cancellation
// is a clean exit.
func (r *Root) Run(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	p := tea.NewProgram(r, tea.WithContext(ctx))
	r.program = p
	r.running = true
	r.mu.Unlock()

	_, err := p.Run()

	r.mu.Lock()
	r.program = nil
	r.running = false
	r.mu.Unlock()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// SetLoading starts the engine when loading begins, after MinDelay if set,
// and tears it down when loading ends.
func (r *Root) SetLoading(on bool) {
	r.apply(func(m *Root) {
		m.setLoading(on)
	})
}

// SetContent replaces what the host shows once loading ends.
func (r *Root) SetContent(content string) {
	r.apply(func(m *Root) {
		m.content = content
	})
}

// Schedule delivers fn on the program loop after d. Before the program runs,
// fn is called directly from the timer.
func (r *Root) Schedule(d time.Duration, fn func()) {
	time.AfterFunc(d, func() {
		r.apply(func(*Root) { fn() })
	})
}

// Engine returns the live engine, or nil when none is running.
func (r *Root) Engine() *engine.Engine { return r.eng }

func (r *Root) Panel() *Panel { return r.panel }

func (r *Root) OverlayOpen() bool { return r.portal.IsOpen() }

func (r *Root) apply(fn func(*Root)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	p := r.program
	running := r.running
	if !running || p == nil {
		fn(r)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	p.Send(applyMsg{fn: fn})
}

func (r *Root) setLoading(on bool) {
	if on == r.loading {
		return
	}
	r.loading = on
	r.loadGen++
	if !on {
		r.stopEngine()
		return
	}
	if r.cfg.MinDelay <= 0 {
		r.startEngine()
		return
	}
	gen := r.loadGen
	r.sched.Schedule(r.cfg.MinDelay, func() {
		if r.loading && r.loadGen == gen && r.eng == nil {
			r.startEngine()
		}
	})
}

func (r *Root) startEngine() {
	cfg := r.cfg
	cfg.OnModeChange = func(m plugin.Mode) {
		r.journal.ModeChange(string(m))
		if r.cfg.OnModeChange != nil {
			r.cfg.OnModeChange(m)
		}
	}
	cfg.OnError = func(m plugin.Mode, err error) {
		r.lastErr = err.Error()
		r.journal.MountError(string(m), err)
		if r.cfg.OnError != nil {
			r.cfg.OnError(m, err)
		}
	}
	r.lastErr = ""
	r.eng = engine.New(r.panel, cfg, engine.Options{
		Store:     r.store,
		Scheduler: r.sched,
		Logger:    r.logger.WithPrefix("waitroom-engine"),
		SessionID: r.session,
	})
	if err := r.eng.Init(); err != nil {
		r.lastErr = err.Error()
		r.logger.Error("engine init failed", "err", err)
		return
	}
	// Nothing explicit or remembered: land on the first enabled mode.
	if r.cfg.Mode == "" && r.eng.ActiveMode() == plugin.ModeNone {
		if modes := r.cfg.Modes(); len(modes) > 0 {
			r.switchTo(modes[0])
		}
	}
}

func (r *Root) stopEngine() {
	r.closeOverlay()
	if r.eng != nil {
		r.eng.Teardown()
		r.eng = nil
	}
}

func (r *Root) switchTo(mode plugin.Mode) {
	if r.eng == nil {
		return
	}
	if err := r.eng.SwitchMode(mode); err != nil {
		r.lastErr = err.Error()
		r.logger.Warn("mode switch failed", "mode", mode, "err", err)
	}
}

func (r *Root) cycleMode(delta int) {
	modes := r.cfg.Modes()
	if len(modes) == 0 {
		return
	}
	idx := -1
	active := r.eng.ActiveMode()
	for i, m := range modes {
		if m == active {
			idx = i
		}
	}
	if idx < 0 {
		idx = 0
		if delta < 0 {
			idx = len(modes) - 1
		}
	} else {
		idx = wrapIndex(idx+delta, len(modes))
	}
	r.switchTo(modes[idx])
}

func (r *Root) selectSlot(i int) {
	if modes := r.cfg.Modes(); i < len(modes) {
		r.switchTo(modes[i])
	}
}

func (r *Root) switcherVisible() bool {
	return r.cfg.ShowModeSwitcher && len(r.cfg.Modes()) > 1 && r.eng != nil
}

func (r *Root) openExpanded() {
	if r.eng == nil || r.portal.IsOpen() {
		return
	}
	mode := r.eng.ActiveMode()
	if mode == plugin.ModeNone {
		return
	}
	r.portal.Open(mode.Label(), func(c plugin.Container) {
		inst, err := r.eng.RenderFull(c)
		if err != nil {
			r.lastErr = err.Error()
			r.logger.Warn("expanded render failed", "mode", mode, "err", err)
			r.journal.MountError(string(mode), err)
			return
		}
		r.expand = inst
	}, r.releaseExpanded)
	r.journal.Expand(string(mode))
	if r.cfg.OnExpand != nil {
		r.cfg.OnExpand()
	}
}

func (r *Root) releaseExpanded() {
	inst := r.expand
	r.expand = nil
	if inst != nil {
		inst.Destroy()
	}
}

func (r *Root) closeOverlay() {
	r.portal.Close()
	r.releaseExpanded()
}

func (r *Root) interacted(k string) {
	mode := plugin.ModeNone
	if r.eng != nil {
		mode = r.eng.ActiveMode()
	}
	r.journal.Interact(string(mode), k)
	if r.cfg.OnInteract != nil {
		r.cfg.OnInteract()
	}
}

func (r *Root) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, r.keymap.Quit) {
		return r, tea.Quit
	}
	k := msg.String()

	if r.portal.IsOpen() {
		if r.portal.HandleKey(k) && k != "esc" {
			r.interacted(k)
		}
		return r, r.animateIfNeeded()
	}
	if r.eng == nil {
		return r, nil
	}

	r.syncKeymap()
	switch {
	case key.Matches(msg, r.keymap.Next):
		r.cycleMode(1)
	case key.Matches(msg, r.keymap.Prev):
		r.cycleMode(-1)
	case key.Matches(msg, r.keymap.Slot1):
		r.selectSlot(0)
	case key.Matches(msg, r.keymap.Slot2):
		r.selectSlot(1)
	case key.Matches(msg, r.keymap.Slot3):
		r.selectSlot(2)
	case key.Matches(msg, r.keymap.Expand):
		r.openExpanded()
	default:
		if r.panel.HandleKey(k) {
			r.interacted(k)
		}
	}
	return r, r.animateIfNeeded()
}

func (r *Root) needsFrames() bool {
	return r.loading || r.portal.IsOpen() || r.panel.Animating()
}

func (r *Root) animateIfNeeded() tea.Cmd {
	if r.ticking || !r.needsFrames() {
		return nil
	}
	r.ticking = true
	return frameTickCmd()
}

func frameTickCmd() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func spinnerTickCmd(model spinner.Model) tea.Cmd {
	return func() tea.Msg {
		return model.Tick()
	}
}

func wrapIndex(i, n int) int {
	if n <= 0 {
		return 0
	}
	return ((i % n) + n) % n
}

func normalizeMotionLevel(v string) string {
	switch strings.TrimSpace(v) {
	case "off", "reduced", "full":
		return strings.TrimSpace(v)
	default:
		return "full"
	}
}

func (r *Root) onModelPanic(where string, recovered any, msg tea.Msg) {
	msgType := ""
	if msg != nil {
		msgType = fmt.Sprintf("%T", msg)
	}
	r.logger.Error("ui panic recovered",
		"where", where,
		"panic", fmt.Sprintf("%v", recovered),
		"message_type", msgType,
		"cols", r.cols,
		"rows", r.rows,
		"stack", string(debug.Stack()),
	)
}

var (
	_ tea.Model        = (*Root)(nil)
	_ engine.Scheduler = (*Root)(nil)
	_ overlay.Surface  = (*Panel)(nil)
)
