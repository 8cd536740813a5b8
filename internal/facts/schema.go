// Package facts rotates short developer facts through a panel. Packs are YAML;
// the built-in ones are embedded and more can be loaded from a directory.
package facts

import (
	"fmt"
	"regexp"

	"waitroom/internal/plugin"
)

const (
	PackKind               = "facts"
	SupportedSchemaVersion = 1
)

var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{2,63}$`)

type Pack struct {
	Kind          string        `yaml:"kind"`
	SchemaVersion int           `yaml:"schema_version"`
	PackID        string        `yaml:"pack_id"`
	Name          string        `yaml:"name"`
	Description   string        `yaml:"description"`
	Category      string        `yaml:"category"`
	Facts         []plugin.Fact `yaml:"facts"`

	Path string `yaml:"-"`
}

func (p Pack) Validate() error {
	if p.Kind != PackKind {
		return fmt.Errorf("pack kind must be %q", PackKind)
	}
	if p.SchemaVersion != SupportedSchemaVersion {
		return fmt.Errorf("unsupported schema_version %d", p.SchemaVersion)
	}
	if !idPattern.MatchString(p.PackID) {
		return fmt.Errorf("invalid pack_id %q", p.PackID)
	}
	if p.Name == "" {
		return fmt.Errorf("pack %s: name is required", p.PackID)
	}
	seen := make(map[string]bool, len(p.Facts))
	for i, f := range p.Facts {
		if f.ID == "" {
			return fmt.Errorf("pack %s: fact %d: id is required", p.PackID, i)
		}
		if f.Text == "" {
			return fmt.Errorf("pack %s: fact %s: text is required", p.PackID, f.ID)
		}
		if seen[f.ID] {
			return fmt.Errorf("pack %s: duplicate fact id %s", p.PackID, f.ID)
		}
		seen[f.ID] = true
	}
	return nil
}
