package facts

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed packs/*.yaml
var builtin embed.FS

// LoadBuiltin returns the packs compiled into the binary, sorted by id.
func LoadBuiltin() ([]Pack, error) {
	return loadFS(builtin, "packs")
}

// LoadDir reads every *.yaml or *.yml pack in root. Subdirectories are
// ignored.
func LoadDir(root string) ([]Pack, error) {
	packs, err := loadFS(os.DirFS(root), ".")
	if err != nil {
		return nil, err
	}
	for i := range packs {
		packs[i].Path = filepath.Join(root, packs[i].Path)
	}
	return packs, nil
}

func loadFS(fsys fs.FS, dir string) ([]Pack, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	packs := make([]Pack, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !(strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")) {
			continue
		}
		p := name
		if dir != "." {
			p = dir + "/" + name
		}
		pack, err := readPack(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("load pack %s: %w", p, err)
		}
		pack.Path = name
		packs = append(packs, pack)
	}
	sort.Slice(packs, func(i, j int) bool { return packs[i].PackID < packs[j].PackID })
	return packs, nil
}

func readPack(fsys fs.FS, path string) (Pack, error) {
	var pack Pack
	b, err := fs.ReadFile(fsys, path)
	if err != nil {
		return pack, err
	}
	if err := yaml.Unmarshal(b, &pack); err != nil {
		return pack, err
	}
	if err := pack.Validate(); err != nil {
		return pack, err
	}
	for i := range pack.Facts {
		if pack.Facts[i].Category == "" {
			pack.Facts[i].Category = pack.Category
		}
	}
	return pack, nil
}
