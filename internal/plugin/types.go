package plugin

import "time"

// GameState is the persisted per-game record. Zero fields are treated as
// absent when merging, matching the partial snapshots games hand around.
type GameState struct {
	GameID   string       `json:"gameId,omitempty"`
	Version  int          `json:"version,omitempty"`
	Progress GameProgress `json:"progress"`
	Meta     GameMeta     `json:"meta"`
}

type GameProgress struct {
	Level         int      `json:"level,omitempty"`
	Score         int      `json:"score,omitempty"`
	HighScore     int      `json:"highScore,omitempty"`
	Achievements  []string `json:"achievements,omitempty"`
	TotalPlayTime int64    `json:"totalPlayTime,omitempty"` // ms
}

type GameMeta struct {
	FirstPlayed         string `json:"firstPlayed,omitempty"`
	LastPlayed          string `json:"lastPlayed,omitempty"`
	LoadingInteractions int    `json:"loadingInteractions,omitempty"`
	Expansions          int    `json:"expansions,omitempty"`
}

// Merge overlays the non-zero fields of partial onto s.
func (s GameState) Merge(partial GameState) GameState {
	out := s
	if partial.GameID != "" {
		out.GameID = partial.GameID
	}
	if partial.Version != 0 {
		out.Version = partial.Version
	}
	p := partial.Progress
	if p.Level != 0 {
		out.Progress.Level = p.Level
	}
	if p.Score != 0 {
		out.Progress.Score = p.Score
	}
	if p.HighScore != 0 {
		out.Progress.HighScore = p.HighScore
	}
	if p.Achievements != nil {
		out.Progress.Achievements = append([]string(nil), p.Achievements...)
	}
	if p.TotalPlayTime != 0 {
		out.Progress.TotalPlayTime = p.TotalPlayTime
	}
	m := partial.Meta
	if m.FirstPlayed != "" {
		out.Meta.FirstPlayed = m.FirstPlayed
	}
	if m.LastPlayed != "" {
		out.Meta.LastPlayed = m.LastPlayed
	}
	if m.LoadingInteractions != 0 {
		out.Meta.LoadingInteractions = m.LoadingInteractions
	}
	if m.Expansions != 0 {
		out.Meta.Expansions = m.Expansions
	}
	return out
}

// Clone returns a copy that shares no slices with s.
func (s GameState) Clone() GameState {
	out := s
	out.Progress.Achievements = append([]string(nil), s.Progress.Achievements...)
	return out
}

func (s GameState) HasAchievement(id string) bool {
	for _, a := range s.Progress.Achievements {
		if a == id {
			return true
		}
	}
	return false
}

type Fact struct {
	ID       string   `yaml:"id"`
	Text     string   `yaml:"text"`
	Category string   `yaml:"category"`
	Source   string   `yaml:"source"`
	URL      string   `yaml:"url"`
	Tags     []string `yaml:"tags"`
}

type FactsConfig struct {
	RotationInterval time.Duration
	ShowSource       bool
	Shuffle          bool
}

type DoodleConfig struct {
	DefaultBrushSize int
	DefaultColor     string
}
