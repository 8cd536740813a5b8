// Package telemetry appends interaction events to a JSONL journal.
package telemetry

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	KindModeChange = "mode_change"
	KindInteract   = "interact"
	KindExpand     = "expand"
	KindMountError = "mount_error"
)

type Event struct {
	TS      string         `json:"ts"`
	Level   string         `json:"level"`
	Session string         `json:"session,omitempty"`
	Kind    string         `json:"kind"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// Journal is safe for concurrent use. A nil Journal drops every event.
type Journal struct {
	mu      sync.Mutex
	w       io.WriteCloser
	session string
	now     func() time.Time
}

// NewJournal appends to path, creating it and its directory as needed. An
// empty path discards events.
func NewJournal(path, session string) (*Journal, error) {
	if path == "" {
		return NewJournalWriter(io.Discard, session), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &Journal{w: f, session: session, now: time.Now}, nil
}

func NewJournalWriter(w io.Writer, session string) *Journal {
	wc, ok := w.(io.WriteCloser)
	if !ok {
		wc = nopCloser{Writer: w}
	}
	return &Journal{w: wc, session: session, now: time.Now}
}

func (j *Journal) ModeChange(mode string) {
	j.log("info", KindModeChange, map[string]any{"mode": mode})
}

func (j *Journal) Interact(mode, key string) {
	j.log("info", KindInteract, map[string]any{"mode": mode, "key": key})
}

func (j *Journal) Expand(mode string) {
	j.log("info", KindExpand, map[string]any{"mode": mode})
}

func (j *Journal) MountError(mode string, err error) {
	fields := map[string]any{"mode": mode}
	if err != nil {
		fields["error"] = err.Error()
	}
	j.log("error", KindMountError, fields)
}

func (j *Journal) log(level, kind string, fields map[string]any) {
	if j == nil || j.w == nil {
		return
	}
	b, err := json.Marshal(Event{
		TS:      j.now().UTC().Format(time.RFC3339Nano),
		Level:   level,
		Session: j.session,
		Kind:    kind,
		Fields:  fields,
	})
	if err != nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	_, _ = j.w.Write(append(b, '\n'))
}

func (j *Journal) Close() error {
	if j == nil || j.w == nil {
		return nil
	}
	return j.w.Close()
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
