// Package plugin defines the contract between the interaction engine and the
// widgets it mounts. Every kind shares Instance; the engine never reaches
// past it.
package plugin

import "time"

// Container is the region a plugin renders into. It is owned by one engine.
type Container interface {
	Clear()
	Mount(w Widget)
	SetOpacity(alpha float64)
	SetTransition(total time.Duration)
}

// Widget is the live content a plugin mounts into a Container. Tick is driven
// by the host frame clock; plugins keep no goroutines of their own.
type Widget interface {
	View(width, height int) string
	HandleKey(key string) bool
	Tick(now time.Time)
}

type Instance interface {
	Destroy()
}

type GameInstance interface {
	Instance
	GetState() GameState
	SetState(partial GameState)
}

type FactsInstance interface {
	Instance
	Next()
	Previous()
	Favorite(factID string)
}

type DoodleInstance interface {
	Instance
	Clear()
	Undo()
	Redo()
	Save() (string, error)
	Load(dataURL string) error
	SetBrushColor(color string) error
	SetBrushSize(size int)
}

type Descriptor interface {
	ID() string
	Name() string
	Description() string
}

type GamePlugin interface {
	Descriptor
	RenderMini(c Container, state GameState) (GameInstance, error)
	RenderFull(c Container, state GameState) (GameInstance, error)
}

type FactsPlugin interface {
	Descriptor
	Category() string
	RenderMini(c Container, cfg *FactsConfig) (FactsInstance, error)
	RenderFull(c Container, cfg *FactsConfig) (FactsInstance, error)
}

type DoodlePlugin interface {
	Descriptor
	RenderMini(c Container, cfg *DoodleConfig) (DoodleInstance, error)
	RenderFull(c Container, cfg *DoodleConfig) (DoodleInstance, error)
}

// StateSaver is the write half of the shared store, handed to games so they
// can push progress back without holding the whole store.
type StateSaver interface {
	SaveGameState(pluginID string, state GameState)
}
