// Package engine owns mode selection, the single mounted plugin instance and
// the cross-fade between modes.
package engine

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"waitroom/internal/plugin"
	"waitroom/internal/state"

	clog "github.com/charmbracelet/log"
	"github.com/google/uuid"
)

var ErrClosed = errors.New("engine torn down")

type Options struct {
	Store     state.Store
	Scheduler Scheduler
	Logger    *clog.Logger
	SessionID string
}

type Engine struct {
	container plugin.Container
	cfg       Config
	store     state.Store
	sched     Scheduler
	logger    *clog.Logger

	mu         sync.Mutex
	active     plugin.Mode
	instance   plugin.Instance
	generation uint64
	closed     bool
	err        error
}

func New(container plugin.Container, cfg Config, opts Options) *Engine {
	sched := opts.Scheduler
	if sched == nil {
		sched = TimerScheduler{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = clog.NewWithOptions(io.Discard, clog.Options{Prefix: "waitroom-engine"})
	}
	session := opts.SessionID
	if session == "" {
		session = uuid.NewString()
	}
	return &Engine{
		container: container,
		cfg:       cfg,
		store:     opts.Store,
		sched:     sched,
		logger:    logger.With("session", session),
		active:    plugin.ModeNone,
	}
}

func (e *Engine) Init() error {
	return e.SwitchMode(e.resolveStartMode())
}

// resolveStartMode prefers the explicit mode, then a persisted preference
// that is still enabled, then none.
func (e *Engine) resolveStartMode() plugin.Mode {
	if e.cfg.Mode != "" {
		return e.cfg.Mode
	}
	if e.cfg.PersistModePreference && e.store != nil {
		if saved, ok := e.store.GetPreferredMode(); ok && plugin.ContainsMode(e.cfg.Modes(), saved) {
			e.logger.Debug("restoring preferred mode", "mode", saved)
			return saved
		}
	}
	return plugin.ModeNone
}

// SwitchMode destroys the current instance and schedules the new mode's
// mount at the midpoint of the fade. OnModeChange fires before the mount.
func (e *Engine) SwitchMode(mode plugin.Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w %q", plugin.ErrUnknownMode, mode)
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if mode == e.active {
		e.mu.Unlock()
		return nil
	}
	e.destroyLocked()
	e.active = mode
	e.generation++
	gen := e.generation
	total := e.cfg.transition()
	e.container.SetTransition(total)
	e.container.SetOpacity(0)
	e.mu.Unlock()

	e.logger.Debug("switching mode", "mode", mode, "transition", total)
	if e.cfg.PersistModePreference && mode != plugin.ModeNone && e.store != nil {
		e.store.SavePreferredMode(mode)
	}
	if e.cfg.OnModeChange != nil {
		e.cfg.OnModeChange(mode)
	}
	// Scheduled last so the callback precedes the mount even with an
	// immediate scheduler.
	e.sched.Schedule(total/2, func() { e.mountScheduled(mode, gen) })
	return nil
}

func (e *Engine) mountScheduled(mode plugin.Mode, gen uint64) {
	err := e.mountIfCurrent(mode, gen)
	if err == nil {
		return
	}
	e.logger.Error("plugin construction failed", "mode", mode, "err", err)
	if e.cfg.OnError != nil {
		e.cfg.OnError(mode, err)
	}
}

func (e *Engine) mountIfCurrent(mode plugin.Mode, gen uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || gen != e.generation || mode != e.active {
		e.logger.Debug("discarding stale mount", "mode", mode)
		return nil
	}
	err := e.renderLocked()
	e.container.SetOpacity(1)
	if err != nil {
		e.err = err
	}
	return err
}

func (e *Engine) renderLocked() error {
	e.container.Clear()
	// At most one instance is live at any time.
	e.destroyLocked()

	var (
		inst plugin.Instance
		err  error
	)
	switch e.active {
	case plugin.ModeNone:
		return nil
	case plugin.ModeGame:
		if e.cfg.Game == nil {
			return nil
		}
		var gi plugin.GameInstance
		gi, err = e.cfg.Game.RenderMini(e.container, e.gameState())
		if gi != nil {
			inst = gi
		}
	case plugin.ModeFacts:
		if e.cfg.Facts == nil {
			return nil
		}
		var fi plugin.FactsInstance
		fi, err = e.cfg.Facts.RenderMini(e.container, nil)
		if fi != nil {
			inst = fi
		}
	case plugin.ModeDoodle:
		if e.cfg.Doodle == nil {
			return nil
		}
		var di plugin.DoodleInstance
		di, err = e.cfg.Doodle.RenderMini(e.container, nil)
		if di != nil {
			inst = di
		}
	}
	if err != nil {
		if inst != nil {
			inst.Destroy()
		}
		e.container.Clear()
		return fmt.Errorf("render %s: %w", e.active, err)
	}
	e.instance = inst
	return nil
}

// RenderFull mounts the active mode's full-size variant into c. The returned
// instance belongs to the caller. It is nil when nothing is mounted for the
// active mode.
func (e *Engine) RenderFull(c plugin.Container) (plugin.Instance, error) {
	e.mu.Lock()
	mode := e.active
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	switch mode {
	case plugin.ModeGame:
		if e.cfg.Game == nil {
			return nil, nil
		}
		gi, err := e.cfg.Game.RenderFull(c, e.gameState())
		if err != nil || gi == nil {
			return nil, err
		}
		return gi, nil
	case plugin.ModeFacts:
		if e.cfg.Facts == nil {
			return nil, nil
		}
		fi, err := e.cfg.Facts.RenderFull(c, nil)
		if err != nil || fi == nil {
			return nil, err
		}
		return fi, nil
	case plugin.ModeDoodle:
		if e.cfg.Doodle == nil {
			return nil, nil
		}
		di, err := e.cfg.Doodle.RenderFull(c, nil)
		if err != nil || di == nil {
			return nil, err
		}
		return di, nil
	}
	return nil, nil
}

func (e *Engine) gameState() plugin.GameState {
	if e.store == nil {
		return plugin.GameState{}
	}
	st, ok := e.store.GetGameState(e.cfg.Game.ID())
	if !ok {
		return plugin.GameState{}
	}
	return st
}

// Teardown destroys the mounted instance and clears the container. Pending
// mounts are discarded. Repeated calls are no-ops.
func (e *Engine) Teardown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.generation++
	e.destroyLocked()
	e.container.Clear()
	e.container.SetOpacity(1)
	e.logger.Debug("engine torn down", "mode", e.active)
}

func (e *Engine) destroyLocked() {
	if e.instance == nil {
		return
	}
	inst := e.instance
	e.instance = nil
	inst.Destroy()
}

func (e *Engine) ActiveMode() plugin.Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Mounted reports whether a plugin instance is currently live.
func (e *Engine) Mounted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.instance != nil
}

// Err returns the last plugin construction failure, if any.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}
