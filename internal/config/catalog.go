package config

import (
	"errors"
	"fmt"
	"os"

	"arena/internal/game/ability"
	"arena/internal/game/chain"
	"arena/internal/game/summon"

	"gopkg.in/yaml.v3"
)

// Catalog is the hero's kit and the summonable units, loaded from YAML.
type Catalog struct {
	Abilities []ability.Definition `yaml:"abilities"`
	Summons   []summon.Type        `yaml:"summons"`
	Chain     chain.Config         `yaml:"chain"`
}

// DefaultCatalog returns the built-in kit.
func DefaultCatalog() Catalog {
	types := summon.DefaultTypes()
	c := Catalog{
		Abilities: ability.DefaultCatalog(),
		Chain:     chain.DefaultConfig(),
	}
	for _, name := range []string{"totem", "wraith"} {
		c.Summons = append(c.Summons, types[name])
	}
	return c
}

// LoadCatalog loads the catalog from a YAML file.
// If the file doesn't exist, returns defaults. Sections left out of the
// file keep their defaults.
func LoadCatalog(path string) (Catalog, error) {
	cfg := DefaultCatalog()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading catalog %s: %w", path, err)
	}

	var file Catalog
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	if len(file.Abilities) > 0 {
		cfg.Abilities = file.Abilities
	}
	if len(file.Summons) > 0 {
		cfg.Summons = file.Summons
	}
	if file.Chain != (chain.Config{}) {
		cfg.Chain = file.Chain
	}

	if err := cfg.Validate(); err != nil {
		return DefaultCatalog(), fmt.Errorf("catalog %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks ids and cross references.
func (c Catalog) Validate() error {
	summons := make(map[string]bool, len(c.Summons))
	for _, t := range c.Summons {
		if t.Name == "" {
			return errors.New("summon type without name")
		}
		if summons[t.Name] {
			return fmt.Errorf("duplicate summon type %q", t.Name)
		}
		summons[t.Name] = true
	}

	ids := make(map[string]bool, len(c.Abilities))
	for _, def := range c.Abilities {
		if def.ID == "" {
			return errors.New("ability without id")
		}
		if ids[def.ID] {
			return fmt.Errorf("duplicate ability id %q", def.ID)
		}
		ids[def.ID] = true
		if def.Summon != "" && !summons[def.Summon] {
			return fmt.Errorf("ability %q summons unknown type %q", def.ID, def.Summon)
		}
		if def.Status != "" && !def.Status.Valid() {
			return fmt.Errorf("ability %q: unknown status %q", def.ID, def.Status)
		}
	}

	if c.Chain.SummonType != "" && !summons[c.Chain.SummonType] {
		return fmt.Errorf("chain summons unknown type %q", c.Chain.SummonType)
	}
	return nil
}

// SummonTypes indexes the summon catalog by name.
func (c Catalog) SummonTypes() map[string]summon.Type {
	out := make(map[string]summon.Type, len(c.Summons))
	for _, t := range c.Summons {
		out[t.Name] = t
	}
	return out
}
