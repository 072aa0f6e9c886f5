package deck

import (
	"fmt"

	"github.com/magefree/mage-match-engine/internal/game/catalog"
)

// Verdict is the outcome of validating a deck list.
type Verdict struct {
	Valid  bool
	Errors []string
}

// Validator checks deck lists against a format's construction rules.
type Validator struct {
	format Format
}

// NewValidator creates a validator for the format.
func NewValidator(format Format) *Validator {
	return &Validator{format: format}
}

// Format returns the format the validator enforces.
func (v *Validator) Format() Format {
	return v.format
}

// Validate checks every rule and collects all violations. Errors follow the deck list's own
// order, so identical inputs always give identical output.
func (v *Validator) Validate(list DeckList, cards catalog.Catalog) Verdict {
	var errs []string

	if total := list.TotalCards(); total < v.format.MinDeckSize {
		errs = append(errs, fmt.Sprintf("deck has %d cards, minimum is %d", total, v.format.MinDeckSize))
	}

	copies := make(map[string]int, len(list.Entries))
	for _, e := range list.Entries {
		if e.Quantity > 0 {
			copies[e.CardID] += e.Quantity
		}
	}

	reported := make(map[string]bool, len(list.Entries))
	for _, e := range list.Entries {
		if e.Quantity <= 0 {
			errs = append(errs, fmt.Sprintf("invalid quantity %d for %s", e.Quantity, e.CardID))
			continue
		}
		if reported[e.CardID] {
			continue
		}
		reported[e.CardID] = true

		def, ok := cards.Get(e.CardID)
		if !ok {
			errs = append(errs, fmt.Sprintf("unknown card: %s", e.CardID))
			continue
		}
		if def.IsBasicLand() {
			continue
		}
		if n := copies[e.CardID]; n > v.format.MaxCopies {
			errs = append(errs, fmt.Sprintf("%s has %d copies, limit is %d", displayName(def), n, v.format.MaxCopies))
		}
	}

	return Verdict{Valid: len(errs) == 0, Errors: errs}
}

func displayName(def *catalog.CardDefinition) string {
	if def.Name != "" {
		return def.Name
	}
	return def.ID
}
