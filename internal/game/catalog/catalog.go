package catalog

import (
	"fmt"
	"strings"
)

// Catalog is the read-only card lookup consumed by deck validation and match construction.
type Catalog interface {
	Get(cardID string) (*CardDefinition, bool)
	GetAll() []*CardDefinition
}

// MemoryCatalog is an immutable in-memory Catalog. It is built once and never written again,
// so concurrent readers need no locking.
type MemoryCatalog struct {
	byID  map[string]*CardDefinition
	order []*CardDefinition
}

// NewMemoryCatalog builds a catalog from the given definitions, preserving their order. Ids
// must be non-empty, unique and free of surrounding whitespace.
func NewMemoryCatalog(defs []*CardDefinition) (*MemoryCatalog, error) {
	c := &MemoryCatalog{
		byID:  make(map[string]*CardDefinition, len(defs)),
		order: make([]*CardDefinition, 0, len(defs)),
	}
	for i, def := range defs {
		if def == nil {
			return nil, fmt.Errorf("card definition %d is nil", i)
		}
		id := strings.TrimSpace(def.ID)
		if id == "" {
			return nil, fmt.Errorf("card definition %d (%q) has no id", i, def.Name)
		}
		if id != def.ID {
			return nil, fmt.Errorf("card id %q has surrounding whitespace", def.ID)
		}
		if _, dup := c.byID[id]; dup {
			return nil, fmt.Errorf("duplicate card id %q", id)
		}
		c.byID[id] = def
		c.order = append(c.order, def)
	}
	return c, nil
}

// Get looks up a card definition by identifier.
func (c *MemoryCatalog) Get(cardID string) (*CardDefinition, bool) {
	def, ok := c.byID[cardID]
	return def, ok
}

// GetAll returns every definition in load order.
func (c *MemoryCatalog) GetAll() []*CardDefinition {
	return append([]*CardDefinition(nil), c.order...)
}

// Len returns the number of cards in the catalog.
func (c *MemoryCatalog) Len() int {
	return len(c.order)
}
