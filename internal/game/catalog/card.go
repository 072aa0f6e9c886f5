package catalog

import (
	"slices"

	"github.com/magefree/mage-match-engine/internal/game/mana"
)

// AbilityKind is the closed set of ability descriptor tags. The engine never interprets them;
// they are handed to rules collaborators as data.
type AbilityKind string

const (
	AbilityKeyword   AbilityKind = "keyword"
	AbilityStatic    AbilityKind = "static"
	AbilityTriggered AbilityKind = "triggered"
	AbilityActivated AbilityKind = "activated"
	AbilityMana      AbilityKind = "mana"
	AbilitySpell     AbilityKind = "spell"
)

// Valid reports whether the kind is one of the known tags.
func (k AbilityKind) Valid() bool {
	switch k {
	case AbilityKeyword, AbilityStatic, AbilityTriggered, AbilityActivated, AbilityMana, AbilitySpell:
		return true
	}
	return false
}

// Ability is a tagged ability descriptor.
type Ability struct {
	Kind   AbilityKind       `yaml:"kind" json:"kind"`
	Text   string            `yaml:"text" json:"text"`
	Params map[string]string `yaml:"params,omitempty" json:"params,omitempty"`
}

// CardDefinition is an immutable catalog entry. Values handed out by a Catalog are shared
// between matches and must be treated as read-only.
type CardDefinition struct {
	ID              string
	Name            string
	ManaCost        mana.Cost
	Colors          []mana.Symbol
	ConvertedCost   int
	Type            string
	Subtypes        []string
	Supertypes      []string
	Basic           bool
	Rarity          string
	RulesText       string
	Power           *int
	Toughness       *int
	Keywords        []string
	Produces        mana.Cost
	Abilities       []Ability
	SetCode         string
	CollectorNumber string
}

// IsBasicLand reports whether deck construction treats the card as a basic land, either via
// the catalog flag or a Basic supertype on a Land.
func (c *CardDefinition) IsBasicLand() bool {
	if c.Basic {
		return true
	}
	return c.Type == "Land" && slices.Contains(c.Supertypes, "Basic")
}

// IsCreature reports whether the card carries creature stats.
func (c *CardDefinition) IsCreature() bool {
	return c.Type == "Creature" && c.Power != nil && c.Toughness != nil
}

// HasKeyword reports whether the card lists the keyword.
func (c *CardDefinition) HasKeyword(keyword string) bool {
	return slices.Contains(c.Keywords, keyword)
}
