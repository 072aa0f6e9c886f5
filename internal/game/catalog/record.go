package catalog

import (
	"fmt"
	"os"
	"strings"

	"github.com/magefree/mage-match-engine/internal/game/mana"
	"gopkg.in/yaml.v3"
)

// File is the top-level structure of a YAML card catalog.
type File struct {
	Cards []Record `yaml:"cards"`
}

// Record is the storage form of a card: mana strings instead of parsed costs. Both the YAML
// loader and the Postgres store decode into it.
type Record struct {
	ID              string    `yaml:"id"`
	Name            string    `yaml:"name"`
	ManaCost        string    `yaml:"mana_cost"`
	Colors          []string  `yaml:"colors"`
	Type            string    `yaml:"type"`
	Subtypes        []string  `yaml:"subtypes"`
	Supertypes      []string  `yaml:"supertypes"`
	Basic           bool      `yaml:"basic"`
	Rarity          string    `yaml:"rarity"`
	Text            string    `yaml:"text"`
	Power           *int      `yaml:"power"`
	Toughness       *int      `yaml:"toughness"`
	Keywords        []string  `yaml:"keywords"`
	Produces        string    `yaml:"produces"`
	Abilities       []Ability `yaml:"abilities"`
	SetCode         string    `yaml:"set"`
	CollectorNumber string    `yaml:"number"`
}

// Definition converts the record into an immutable card definition. Color identity comes from
// the explicit colors list when present, otherwise from the mana cost.
func (r Record) Definition() (*CardDefinition, error) {
	id := strings.TrimSpace(r.ID)
	if id == "" {
		return nil, fmt.Errorf("card %q: missing id", r.Name)
	}

	cost, err := mana.ParseCost(r.ManaCost)
	if err != nil {
		return nil, fmt.Errorf("card %s: mana cost: %w", id, err)
	}
	produces, err := mana.ParseCost(r.Produces)
	if err != nil {
		return nil, fmt.Errorf("card %s: produces: %w", id, err)
	}

	colors := cost.Colors()
	if len(r.Colors) > 0 {
		colors = make([]mana.Symbol, 0, len(r.Colors))
		for _, c := range r.Colors {
			symbol := mana.Symbol(strings.ToUpper(strings.TrimSpace(c)))
			if !symbol.IsColor() {
				return nil, fmt.Errorf("card %s: unknown color %q", id, c)
			}
			colors = append(colors, symbol)
		}
	}

	for i, ability := range r.Abilities {
		if !ability.Kind.Valid() {
			return nil, fmt.Errorf("card %s: ability %d has unknown kind %q", id, i, ability.Kind)
		}
	}

	return &CardDefinition{
		ID:              id,
		Name:            r.Name,
		ManaCost:        cost,
		Colors:          colors,
		ConvertedCost:   cost.Converted(),
		Type:            r.Type,
		Subtypes:        append([]string(nil), r.Subtypes...),
		Supertypes:      append([]string(nil), r.Supertypes...),
		Basic:           r.Basic,
		Rarity:          r.Rarity,
		RulesText:       r.Text,
		Power:           r.Power,
		Toughness:       r.Toughness,
		Keywords:        append([]string(nil), r.Keywords...),
		Produces:        produces,
		Abilities:       append([]Ability(nil), r.Abilities...),
		SetCode:         r.SetCode,
		CollectorNumber: r.CollectorNumber,
	}, nil
}

// Parse decodes a YAML catalog document.
func Parse(data []byte) (*MemoryCatalog, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog YAML: %w", err)
	}
	return FromRecords(f.Cards)
}

// FromRecords converts storage records into a catalog.
func FromRecords(records []Record) (*MemoryCatalog, error) {
	defs := make([]*CardDefinition, 0, len(records))
	for _, r := range records {
		def, err := r.Definition()
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return NewMemoryCatalog(defs)
}

// LoadFile reads a YAML catalog from disk.
func LoadFile(path string) (*MemoryCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// ReadRecords reads the raw records of a YAML catalog, for import tooling.
func ReadRecords(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog YAML: %w", err)
	}
	return f.Cards, nil
}
