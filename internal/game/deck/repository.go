package deck

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Repository supplies deck lists by identifier. Fetch must be idempotent and side-effect free.
type Repository interface {
	Fetch(ctx context.Context, deckID string) (DeckList, bool, error)
	Create(ctx context.Context, deckID, ownerID, name string, entries []Entry) (DeckList, error)
}

// MemoryRepo is an in-memory Repository.
type MemoryRepo struct {
	mu    sync.RWMutex
	decks map[string]DeckList
}

// NewMemoryRepo creates an empty repository.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		decks: make(map[string]DeckList),
	}
}

// Seed stores the given decks, replacing any with the same ID.
func (r *MemoryRepo) Seed(ctx context.Context, decks []DeckList) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range decks {
		if strings.TrimSpace(d.ID) == "" {
			return fmt.Errorf("deck %q has no id", d.Name)
		}
		r.decks[d.ID] = d.Clone()
	}
	return nil
}

// Fetch returns a copy of the stored deck.
func (r *MemoryRepo) Fetch(ctx context.Context, deckID string) (DeckList, bool, error) {
	if err := ctx.Err(); err != nil {
		return DeckList{}, false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.decks[deckID]
	if !ok {
		return DeckList{}, false, nil
	}
	return d.Clone(), true, nil
}

// Create stores a new deck. Creating an ID that already exists is an error.
func (r *MemoryRepo) Create(ctx context.Context, deckID, ownerID, name string, entries []Entry) (DeckList, error) {
	if err := ctx.Err(); err != nil {
		return DeckList{}, err
	}
	deckID = strings.TrimSpace(deckID)
	if deckID == "" {
		return DeckList{}, fmt.Errorf("deck id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.decks[deckID]; exists {
		return DeckList{}, fmt.Errorf("deck %s already exists", deckID)
	}
	d := DeckList{
		ID:      deckID,
		OwnerID: ownerID,
		Name:    name,
		Entries: append([]Entry(nil), entries...),
	}
	r.decks[deckID] = d
	return d.Clone(), nil
}

// Len returns the number of stored decks.
func (r *MemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.decks)
}
