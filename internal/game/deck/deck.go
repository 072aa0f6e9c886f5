package deck

// Entry is one line of a deck list.
type Entry struct {
	CardID   string `yaml:"card" json:"card_id"`
	Quantity int    `yaml:"count" json:"quantity"`
}

// DeckList is an immutable snapshot of a named deck.
type DeckList struct {
	ID      string
	OwnerID string
	Name    string
	Entries []Entry
}

// TotalCards returns the number of copies across all entries. Non-positive quantities are
// ignored.
func (d DeckList) TotalCards() int {
	total := 0
	for _, e := range d.Entries {
		if e.Quantity > 0 {
			total += e.Quantity
		}
	}
	return total
}

// Clone returns a copy that shares no slices with d.
func (d DeckList) Clone() DeckList {
	d.Entries = append([]Entry(nil), d.Entries...)
	return d
}
