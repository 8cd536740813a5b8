// Package app wires the interaction engine into a runnable terminal host:
// configuration, the sqlite-backed store, plugins, logging and the journal.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"waitroom/internal/doodle"
	"waitroom/internal/engine"
	"waitroom/internal/facts"
	"waitroom/internal/games"
	"waitroom/internal/plugin"
	"waitroom/internal/state"
	"waitroom/internal/telemetry"
	"waitroom/internal/ui"

	clog "github.com/charmbracelet/log"
	"github.com/google/uuid"
)

type App struct {
	cfg Config

	logger  *clog.Logger
	logFile io.Closer
	journal *telemetry.Journal
	sqlite  *state.SQLiteStore
	prefs   *state.Prefs
	view    *ui.Root

	sessionID string
}

func New(cfg Config) (*App, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, err
	}
	logger, logFile, err := newLogger(cfg.LogPath, cfg.Debug)
	if err != nil {
		return nil, err
	}
	sessionID := uuid.NewString()
	logger = logger.With("session", sessionID)

	journal, err := telemetry.NewJournal(cfg.JournalPath, sessionID)
	if err != nil {
		closeQuiet(logFile)
		return nil, fmt.Errorf("open journal: %w", err)
	}

	a := &App{
		cfg:       cfg,
		logger:    logger,
		logFile:   logFile,
		journal:   journal,
		sessionID: sessionID,
	}
	a.prefs = state.NewPrefs(a.openBackend(), state.PrefsOptions{Logger: logger.WithPrefix("waitroom-state")})

	icfg, err := a.interactionConfig()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.view = ui.New(ui.Options{
		Config:      icfg,
		Store:       a.prefs,
		Journal:     journal,
		Logger:      logger.WithPrefix("waitroom-ui"),
		SessionID:   sessionID,
		MotionLevel: cfg.UI.MotionLevel,
		Content:     cfg.Content,
	})
	return a, nil
}

// openBackend prefers the on-disk store and falls back to memory so a broken
// database never blocks the loading screen.
func (a *App) openBackend() state.Backend {
	store, err := state.NewSQLite(a.cfg.StatePath())
	if err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = store.EnsureSchema(ctx)
		cancel()
		if err == nil {
			a.sqlite = store
			return store
		}
		_ = store.Close()
	}
	a.logger.Warn("state store unavailable, using memory", "path", a.cfg.StatePath(), "err", err)
	return state.NewMemory()
}

func (a *App) interactionConfig() (engine.Config, error) {
	mode, available := a.cfg.modes()
	icfg := engine.Config{
		MinDelay:              a.cfg.Interaction.MinDelay,
		Mode:                  mode,
		AvailableModes:        available,
		ShowModeSwitcher:      a.cfg.Interaction.ShowModeSwitcher,
		PersistModePreference: a.cfg.Interaction.PersistModePreference,
		TransitionDuration:    time.Duration(a.cfg.Interaction.TransitionMS) * time.Millisecond,
		Theme:                 a.cfg.UI.Theme,
		Position:              a.cfg.UI.Position,
		Style:                 a.cfg.UI.Style,
		OnInteract:            func() { a.logger.Debug("interaction") },
		OnExpand:              func() { a.logger.Debug("expanded") },
		OnModeChange:          func(m plugin.Mode) { a.logger.Debug("mode changed", "mode", m) },
	}

	game, err := games.ByID(a.cfg.Interaction.Game, games.Options{Saver: a.prefs})
	if err != nil {
		return engine.Config{}, err
	}
	icfg.Game = game

	packs, err := loadPacks(a.cfg.Interaction.FactsDir)
	if err != nil {
		return engine.Config{}, err
	}
	icfg.Facts = facts.Randomizer(packs, facts.Options{
		Logger: a.logger.WithPrefix("waitroom-facts"),
		Theme:  a.cfg.UI.Theme,
	})
	icfg.Doodle = doodle.New()

	if err := icfg.Validate(); err != nil {
		return engine.Config{}, err
	}
	return icfg, nil
}

func loadPacks(dir string) ([]facts.Pack, error) {
	packs, err := facts.LoadBuiltin()
	if err != nil {
		return nil, fmt.Errorf("load builtin facts: %w", err)
	}
	if dir == "" {
		return packs, nil
	}
	extra, err := facts.LoadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("load facts from %s: %w", dir, err)
	}
	return append(packs, extra...), nil
}

// Run shows the loading screen for LoadFor, then the host content, until the
// user quits or ctx is done.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("app start", "game", a.cfg.Interaction.Game, "mode", a.cfg.Interaction.Mode)
	a.view.SetLoading(true)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if a.cfg.LoadFor > 0 {
		go func() {
			t := time.NewTimer(a.cfg.LoadFor)
			defer t.Stop()
			select {
			case <-ctx.Done():
			case <-t.C:
				a.view.SetContent(fmt.Sprintf("%s\n\nLoaded in %s.", a.cfg.Content, a.cfg.LoadFor))
				a.view.SetLoading(false)
			}
		}()
	}
	err := a.view.Run(ctx)
	a.view.SetLoading(false)
	return err
}

func (a *App) SessionID() string { return a.sessionID }

func (a *App) Close() {
	if a.journal != nil {
		_ = a.journal.Close()
	}
	if a.sqlite != nil {
		_ = a.sqlite.Close()
	}
	closeQuiet(a.logFile)
}

// Entry is one stored key for state inspection.
type Entry struct {
	Key   string
	Value string
}

// ReadState lists every stored waitroom key in the database at path.
func ReadState(ctx context.Context, path string) ([]Entry, error) {
	store, err := openExisting(ctx, path)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	keys, err := store.Keys(ctx, state.KeyPrefix)
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	out := make([]Entry, 0, len(keys))
	for _, k := range keys {
		v, ok, err := store.Get(ctx, k)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, Entry{Key: k, Value: v})
		}
	}
	return out, nil
}

// ResetState removes the stored preference and every game record.
func ResetState(ctx context.Context, path string) error {
	store, err := openExisting(ctx, path)
	if err != nil {
		return err
	}
	defer store.Close()
	return state.NewPrefs(store, state.PrefsOptions{}).Reset(ctx)
}

func openExisting(ctx context.Context, path string) (*state.SQLiteStore, error) {
	store, err := state.NewSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("open state: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

func newLogger(path string, debug bool) (*clog.Logger, io.Closer, error) {
	level := clog.WarnLevel
	if debug {
		level = clog.DebugLevel
	}
	var (
		w io.Writer = io.Discard
		c io.Closer
	)
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, err
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log: %w", err)
		}
		w, c = f, f
	}
	logger := clog.NewWithOptions(w, clog.Options{
		Prefix:          "waitroom",
		Level:           level,
		ReportTimestamp: true,
	})
	return logger, c, nil
}

func closeQuiet(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}
