package deck

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File represents the top-level YAML structure of a deck file.
type File struct {
	Decks []FileDeck `yaml:"decks"`
}

// FileDeck is a single deck in the YAML file.
type FileDeck struct {
	ID    string  `yaml:"id"`
	Owner string  `yaml:"owner"`
	Name  string  `yaml:"name"`
	Cards []Entry `yaml:"cards"`
}

// ParseFile decodes a YAML deck document into deck lists, preserving file order.
func ParseFile(data []byte) ([]DeckList, error) {
	var df File
	if err := yaml.Unmarshal(data, &df); err != nil {
		return nil, fmt.Errorf("parse deck YAML: %w", err)
	}

	decks := make([]DeckList, 0, len(df.Decks))
	for i, d := range df.Decks {
		if d.ID == "" {
			return nil, fmt.Errorf("deck %d (%q) has no id", i+1, d.Name)
		}
		decks = append(decks, DeckList{
			ID:      d.ID,
			OwnerID: d.Owner,
			Name:    d.Name,
			Entries: append([]Entry(nil), d.Cards...),
		})
	}
	return decks, nil
}

// LoadFile reads a YAML deck file from disk.
func LoadFile(path string) ([]DeckList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseFile(data)
}
