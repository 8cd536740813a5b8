package state

import (
	"context"
	"errors"

	"waitroom/internal/plugin"
)

// Store is the best-effort preference store shared by every engine in the
// process. Implementations never fail toward the caller.
type Store interface {
	GetPreferredMode() (plugin.Mode, bool)
	SavePreferredMode(mode plugin.Mode)
	GetGameState(pluginID string) (plugin.GameState, bool)
	SaveGameState(pluginID string, state plugin.GameState)
}

// Backend is the raw key/value layer under a Store. Unlike Store it reports
// every failure.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, prefix string) error
}

var ErrBackendClosed = errors.New("state backend closed")
