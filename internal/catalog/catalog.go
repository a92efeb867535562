// Package catalog holds the immutable unit/spell prototype tables loaded
// from the game's static data files.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// UnitPrototype is an immutable unit template. Instances derived from it
// copy these values at creation time; the prototype itself is never mutated
// after load.
type UnitPrototype struct {
	ID          string   `json:"id"`
	Cost        int      `json:"cost"`
	Power       int      `json:"power"`
	Attack      int      `json:"attack"`
	Defense     int      `json:"defense"`
	SkillIDs    []string `json:"skill_id_list"`
	Tags        []string `json:"tag_list"`
	Description string   `json:"description"`
}

// SpellPrototype is an immutable spell template.
type SpellPrototype struct {
	ID          string   `json:"id"`
	Cost        int      `json:"cost"`
	SkillIDs    []string `json:"skill_id_list"`
	Tags        []string `json:"tag_list"`
	Description string   `json:"description"`
}

// Catalog is the read-only prototype lookup table consumed by the entity
// factories and the deck builder.
type Catalog struct {
	Units  map[string]*UnitPrototype
	Spells map[string]*SpellPrototype
}

// File names expected under the data directory.
const (
	UnitPrototypeFile  = "unit_prototype.yaml"
	SpellPrototypeFile = "spell_prototype.yaml"
)

type rawUnitPrototype struct {
	Cost        int      `yaml:"cost"`
	Stats       []int    `yaml:"stats"`
	SkillIDList []string `yaml:"skill_id_list"`
	TagList     []string `yaml:"tag_list"`
	Description string   `yaml:"description"`
}

type rawSpellPrototype struct {
	Cost        int      `yaml:"cost"`
	SkillIDList []string `yaml:"skill_id_list"`
	TagList     []string `yaml:"tag_list"`
	Description string   `yaml:"description"`
}

// Load reads both prototype files from dir and returns the catalog.
// A unit id colliding with a spell id is a configuration error: the two id
// sets must be disjoint.
func Load(dir string) (*Catalog, error) {
	units, err := LoadUnitPrototypes(filepath.Join(dir, UnitPrototypeFile))
	if err != nil {
		return nil, err
	}
	spells, err := LoadSpellPrototypes(filepath.Join(dir, SpellPrototypeFile))
	if err != nil {
		return nil, err
	}

	for id := range units {
		if _, dup := spells[id]; dup {
			return nil, fmt.Errorf("catalog: prototype id %q is both a unit and a spell", id)
		}
	}

	return &Catalog{Units: units, Spells: spells}, nil
}

// LoadUnitPrototypes reads a unit prototype file. Each entry carries its
// base stats as a [power, attack, defense] triple.
func LoadUnitPrototypes(path string) (map[string]*UnitPrototype, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read unit prototypes: %w", err)
	}

	raw := make(map[string]*rawUnitPrototype)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("catalog: parse unit prototypes: %w", err)
	}

	units := make(map[string]*UnitPrototype, len(raw))
	for id, entry := range raw {
		if len(entry.Stats) != 3 {
			return nil, fmt.Errorf("catalog: unit %q: stats must be [power, attack, defense], got %d values", id, len(entry.Stats))
		}
		units[id] = &UnitPrototype{
			ID:          id,
			Cost:        entry.Cost,
			Power:       entry.Stats[0],
			Attack:      entry.Stats[1],
			Defense:     entry.Stats[2],
			SkillIDs:    defaultList(entry.SkillIDList),
			Tags:        defaultList(entry.TagList),
			Description: entry.Description,
		}
	}
	return units, nil
}

// LoadSpellPrototypes reads a spell prototype file.
func LoadSpellPrototypes(path string) (map[string]*SpellPrototype, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read spell prototypes: %w", err)
	}

	raw := make(map[string]*rawSpellPrototype)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("catalog: parse spell prototypes: %w", err)
	}

	spells := make(map[string]*SpellPrototype, len(raw))
	for id, entry := range raw {
		spells[id] = &SpellPrototype{
			ID:          id,
			Cost:        entry.Cost,
			SkillIDs:    defaultList(entry.SkillIDList),
			Tags:        defaultList(entry.TagList),
			Description: entry.Description,
		}
	}
	return spells, nil
}

// UnitIDs returns the unit prototype ids in sorted order.
func (c *Catalog) UnitIDs() []string {
	ids := make([]string, 0, len(c.Units))
	for id := range c.Units {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SpellIDs returns the spell prototype ids in sorted order.
func (c *Catalog) SpellIDs() []string {
	ids := make([]string, 0, len(c.Spells))
	for id := range c.Spells {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func defaultList(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
