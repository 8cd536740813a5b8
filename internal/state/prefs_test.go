package state

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"waitroom/internal/plugin"

	clog "github.com/charmbracelet/log"
)

type failingBackend struct {
	panicOnSet bool
}

func (f failingBackend) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("backend unavailable")
}

func (f failingBackend) Set(context.Context, string, string) error {
	if f.panicOnSet {
		panic("quota exceeded")
	}
	return errors.New("quota exceeded")
}

func (f failingBackend) Delete(context.Context, string) error {
	return errors.New("backend unavailable")
}

func TestPrefsRoundTripModeAndGameState(t *testing.T) {
	prefs := NewPrefs(NewMemory(), PrefsOptions{})

	if _, ok := prefs.GetPreferredMode(); ok {
		t.Fatalf("expected no preferred mode on empty store")
	}
	prefs.SavePreferredMode(plugin.ModeFacts)
	mode, ok := prefs.GetPreferredMode()
	if !ok || mode != plugin.ModeFacts {
		t.Fatalf("expected facts, got %q ok=%v", mode, ok)
	}

	want := plugin.GameState{
		GameID:   "memory",
		Version:  1,
		Progress: plugin.GameProgress{Score: 30, HighScore: 200, Achievements: []string{"memory:first-win"}},
		Meta:     plugin.GameMeta{LoadingInteractions: 2},
	}
	prefs.SaveGameState("memory", want)
	got, ok := prefs.GetGameState("memory")
	if !ok {
		t.Fatalf("expected stored game state")
	}
	if got.Progress.HighScore != 200 || !got.HasAchievement("memory:first-win") || got.Meta.LoadingInteractions != 2 {
		t.Fatalf("unexpected game state: %+v", got)
	}
}

func TestPrefsNamespacesGameKeysPerPlugin(t *testing.T) {
	backend := NewMemory()
	prefs := NewPrefs(backend, PrefsOptions{})
	prefs.SaveGameState("snake", plugin.GameState{Progress: plugin.GameProgress{Score: 1}})
	prefs.SaveGameState("memory", plugin.GameState{Progress: plugin.GameProgress{Score: 2}})

	keys, _ := backend.Keys(context.Background(), KeyPrefix)
	if len(keys) != 2 || keys[0] != "waitroom_game_memory" || keys[1] != "waitroom_game_snake" {
		t.Fatalf("unexpected keys: %v", keys)
	}
	snake, _ := prefs.GetGameState("snake")
	memory, _ := prefs.GetGameState("memory")
	if snake.Progress.Score != 1 || memory.Progress.Score != 2 {
		t.Fatalf("game states collided: snake=%+v memory=%+v", snake, memory)
	}
}

func TestPrefsSwallowsBackendFailures(t *testing.T) {
	var buf bytes.Buffer
	logger := clog.NewWithOptions(&buf, clog.Options{Level: clog.WarnLevel})
	prefs := NewPrefs(failingBackend{}, PrefsOptions{Logger: logger})

	prefs.SavePreferredMode(plugin.ModeGame)
	prefs.SaveGameState("snake", plugin.GameState{})
	if _, ok := prefs.GetPreferredMode(); ok {
		t.Fatalf("expected absent mode from failing backend")
	}
	if _, ok := prefs.GetGameState("snake"); ok {
		t.Fatalf("expected absent game state from failing backend")
	}
	if err := prefs.Reset(context.Background()); err == nil {
		t.Fatalf("expected reset to report backend failure")
	}
	if !strings.Contains(buf.String(), "failed to save preferred mode") {
		t.Fatalf("expected warning in log, got %q", buf.String())
	}
}

func TestPrefsRecoversFromPanickingBackend(t *testing.T) {
	prefs := NewPrefs(failingBackend{panicOnSet: true}, PrefsOptions{})
	prefs.SavePreferredMode(plugin.ModeDoodle)
	prefs.SaveGameState("snake", plugin.GameState{})
}

func TestPrefsIgnoresCorruptRecords(t *testing.T) {
	backend := NewMemory()
	_ = backend.Set(context.Background(), "waitroom_mode", "puzzle")
	_ = backend.Set(context.Background(), GameKey("snake"), "{not json")
	prefs := NewPrefs(backend, PrefsOptions{})
	if _, ok := prefs.GetPreferredMode(); ok {
		t.Fatalf("expected unknown stored mode to read as absent")
	}
	if _, ok := prefs.GetGameState("snake"); ok {
		t.Fatalf("expected corrupt game state to read as absent")
	}
}

func TestPrefsResetClearsNamespace(t *testing.T) {
	backend := NewMemory()
	prefs := NewPrefs(backend, PrefsOptions{})
	prefs.SavePreferredMode(plugin.ModeGame)
	prefs.SaveGameState("snake", plugin.GameState{})
	_ = backend.Set(context.Background(), "unrelated", "keep")

	if err := prefs.Reset(context.Background()); err != nil {
		t.Fatalf("reset: %v", err)
	}

	if _, ok := prefs.GetPreferredMode(); ok {
		t.Fatalf("expected mode cleared")
	}
	if _, ok, _ := backend.Get(context.Background(), "unrelated"); !ok {
		t.Fatalf("expected unrelated key to survive reset")
	}
}

func TestNilPrefsIsSafe(t *testing.T) {
	var prefs *Prefs
	prefs.SavePreferredMode(plugin.ModeGame)
	if _, ok := prefs.GetPreferredMode(); ok {
		t.Fatalf("expected nil prefs to read absent")
	}
}
