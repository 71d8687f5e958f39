package data

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrInvalidDefinition = errors.New("data: invalid definition")

// Point is a spawn coordinate. Y is height.
type Point struct {
	X float32 `yaml:"x"`
	Y float32 `yaml:"y"`
	Z float32 `yaml:"z"`
}

// SpawnGroup places one npc or mob template at each of its positions. Type
// is the npc kind and is ignored for mobs.
type SpawnGroup struct {
	Type      uint8   `yaml:"type"`
	TypeID    uint16  `yaml:"type_id"`
	Positions []Point `yaml:"positions"`
}

// MapDefinition describes one map and its initial population.
type MapDefinition struct {
	ID   uint16       `yaml:"id"`
	Name string       `yaml:"name"`
	Size int          `yaml:"size"`
	Npcs []SpawnGroup `yaml:"npcs"`
	Mobs []SpawnGroup `yaml:"mobs"`
	// Spawn is where characters entering this map without a saved
	// position appear.
	Spawn *Point `yaml:"spawn"`
}

// SpawnPoint returns the configured entry point, or the map centre.
func (d *MapDefinition) SpawnPoint() Point {
	if d.Spawn != nil {
		return *d.Spawn
	}
	c := float32(d.Size) / 2
	return Point{X: c, Z: c}
}

func (d *MapDefinition) validate() error {
	if d.Size <= 0 {
		return fmt.Errorf("%w: map %d has no size", ErrInvalidDefinition, d.ID)
	}
	for i, g := range d.Npcs {
		if g.TypeID == 0 {
			return fmt.Errorf("%w: map %d npc group %d has no type_id", ErrInvalidDefinition, d.ID, i)
		}
	}
	for i, g := range d.Mobs {
		if g.TypeID == 0 {
			return fmt.Errorf("%w: map %d mob group %d has no type_id", ErrInvalidDefinition, d.ID, i)
		}
	}
	return nil
}

// LoadMapDefinition reads a single map definition file.
func LoadMapDefinition(path string) (*MapDefinition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mapdata: read %s: %w", path, err)
	}

	var def MapDefinition
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("mapdata: parse %s: %w", path, err)
	}
	if err := def.validate(); err != nil {
		return nil, fmt.Errorf("mapdata: %s: %w", path, err)
	}
	return &def, nil
}

// LoadMapDefinitions reads every .yaml/.yml file in dir, sorted by file
// name. Any invalid file fails the whole load.
func LoadMapDefinitions(dir string) ([]*MapDefinition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("mapdata: read dir %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	defs := make([]*MapDefinition, 0, len(names))
	seen := make(map[uint16]string, len(names))
	for _, name := range names {
		def, err := LoadMapDefinition(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[def.ID]; ok {
			return nil, fmt.Errorf("mapdata: %w: map id %d defined in %s and %s",
				ErrInvalidDefinition, def.ID, prev, name)
		}
		seen[def.ID] = name
		defs = append(defs, def)
	}
	return defs, nil
}
