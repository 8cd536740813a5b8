package state

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"waitroom/internal/plugin"

	clog "github.com/charmbracelet/log"
)

const (
	KeyPrefix   = "waitroom_"
	modeKey     = KeyPrefix + "mode"
	gameKeyBase = KeyPrefix + "game_"
)

// Prefs is the Store used in production. Every backend failure is logged as
// a warning and swallowed: reads report absent, writes become no-ops.
type Prefs struct {
	backend Backend
	logger  *clog.Logger
	timeout time.Duration
}

type PrefsOptions struct {
	Logger  *clog.Logger
	Timeout time.Duration
}

func NewPrefs(backend Backend, opts PrefsOptions) *Prefs {
	logger := opts.Logger
	if logger == nil {
		logger = clog.NewWithOptions(io.Discard, clog.Options{Prefix: "waitroom-state"})
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Prefs{backend: backend, logger: logger, timeout: timeout}
}

// GameKey is the namespaced backend key for one game's record.
func GameKey(pluginID string) string {
	return gameKeyBase + strings.TrimSpace(pluginID)
}

func (p *Prefs) GetPreferredMode() (plugin.Mode, bool) {
	raw, ok := p.get(modeKey)
	if !ok {
		return plugin.ModeNone, false
	}
	mode, err := plugin.ParseMode(raw)
	if err != nil {
		p.logger.Warn("failed to load preferred mode", "err", err)
		return plugin.ModeNone, false
	}
	if mode == plugin.ModeNone {
		return plugin.ModeNone, false
	}
	return mode, true
}

func (p *Prefs) SavePreferredMode(mode plugin.Mode) {
	if !mode.Valid() {
		p.logger.Warn("failed to save preferred mode", "err", plugin.ErrUnknownMode, "mode", mode)
		return
	}
	p.set(modeKey, string(mode), "failed to save preferred mode")
}

func (p *Prefs) GetGameState(pluginID string) (plugin.GameState, bool) {
	if strings.TrimSpace(pluginID) == "" {
		return plugin.GameState{}, false
	}
	raw, ok := p.get(GameKey(pluginID))
	if !ok {
		return plugin.GameState{}, false
	}
	var st plugin.GameState
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		p.logger.Warn("failed to load game state", "game", pluginID, "err", err)
		return plugin.GameState{}, false
	}
	return st, true
}

func (p *Prefs) SaveGameState(pluginID string, st plugin.GameState) {
	if strings.TrimSpace(pluginID) == "" {
		return
	}
	b, err := json.Marshal(st)
	if err != nil {
		p.logger.Warn("failed to save game state", "game", pluginID, "err", err)
		return
	}
	p.set(GameKey(pluginID), string(b), "failed to save game state")
}

// Reset drops every waitroom key from the backend. Unlike the Store methods
// it reports failures, since callers run it on explicit user request.
func (p *Prefs) Reset(ctx context.Context) error {
	if p == nil || p.backend == nil {
		return ErrBackendClosed
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.safe(func() error { return p.backend.Delete(ctx, KeyPrefix) }); err != nil {
		p.logger.Warn("failed to reset preferences", "err", err)
		return fmt.Errorf("reset preferences: %w", err)
	}
	return nil
}

func (p *Prefs) get(key string) (string, bool) {
	if p == nil || p.backend == nil {
		return "", false
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	var (
		value string
		ok    bool
	)
	err := p.safe(func() error {
		var err error
		value, ok, err = p.backend.Get(ctx, key)
		return err
	})
	if err != nil {
		p.logger.Warn("failed to read preference", "key", key, "err", err)
		return "", false
	}
	return value, ok
}

func (p *Prefs) set(key, value, warn string) {
	if p == nil || p.backend == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.safe(func() error { return p.backend.Set(ctx, key, value) }); err != nil {
		p.logger.Warn(warn, "key", key, "err", err)
	}
}

// safe turns a backend panic into an error so the store contract holds even
// for misbehaving backends.
func (p *Prefs) safe(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &panicError{value: rec}
		}
	}()
	return fn()
}

type panicError struct{ value any }

func (e *panicError) Error() string {
	return fmt.Sprintf("backend panic: %v", e.value)
}

var _ Store = (*Prefs)(nil)
