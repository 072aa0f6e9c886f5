package deck

import (
	"fmt"
	"strings"
)

// Format is a named ruleset variant governing deck construction and match setup.
type Format struct {
	Name            string
	MinDeckSize     int
	MaxCopies       int
	OpeningHandSize int
	StartingLife    int
	// SkipFirstDraw skips the draw of the very first Draw step of the match.
	SkipFirstDraw bool
}

// Standard is the canonical constructed format: 60-card minimum, 7-card opening hand.
var Standard = Format{
	Name:            "standard",
	MinDeckSize:     60,
	MaxCopies:       4,
	OpeningHandSize: 7,
	StartingLife:    20,
}

// Limited is the 40-card sealed/draft format.
var Limited = Format{
	Name:            "limited",
	MinDeckSize:     40,
	MaxCopies:       4,
	OpeningHandSize: 7,
	StartingLife:    20,
}

// FormatByName returns a preset by name.
func FormatByName(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", Standard.Name:
		return Standard, nil
	case Limited.Name:
		return Limited, nil
	}
	return Format{}, fmt.Errorf("unknown format %q", name)
}

// Validate checks the format parameters are usable.
func (f Format) Validate() error {
	if f.MinDeckSize < 1 {
		return fmt.Errorf("format %s: min deck size must be positive, got %d", f.Name, f.MinDeckSize)
	}
	if f.MaxCopies < 1 {
		return fmt.Errorf("format %s: max copies must be positive, got %d", f.Name, f.MaxCopies)
	}
	if f.OpeningHandSize < 0 || f.OpeningHandSize > f.MinDeckSize {
		return fmt.Errorf("format %s: opening hand %d must be between 0 and min deck size %d", f.Name, f.OpeningHandSize, f.MinDeckSize)
	}
	if f.StartingLife < 1 {
		return fmt.Errorf("format %s: starting life must be positive, got %d", f.Name, f.StartingLife)
	}
	return nil
}
