package game

import (
	"context"
	"sync"
	"testing"

	"github.com/magefree/mage-match-engine/internal/game/catalog"
	"github.com/magefree/mage-match-engine/internal/game/deck"
	"github.com/magefree/mage-match-engine/internal/game/rules"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func intPtr(v int) *int { return &v }

func testCatalog(t *testing.T) *catalog.MemoryCatalog {
	t.Helper()
	cat, err := catalog.NewMemoryCatalog([]*catalog.CardDefinition{
		{ID: "forest", Name: "Forest", Type: "Land", Supertypes: []string{"Basic"}},
		{ID: "mountain", Name: "Mountain", Type: "Land", Supertypes: []string{"Basic"}},
		{ID: "grizzly-bears", Name: "Grizzly Bears", Type: "Creature", Power: intPtr(2), Toughness: intPtr(2)},
		{ID: "giant-growth", Name: "Giant Growth", Type: "Instant"},
		{ID: "lightning-bolt", Name: "Lightning Bolt", Type: "Instant"},
		{ID: "shock", Name: "Shock", Type: "Instant"},
	})
	require.NoError(t, err)
	return cat
}

func greenDeck() deck.DeckList {
	return deck.DeckList{ID: "green", OwnerID: "alice", Name: "Green", Entries: []deck.Entry{
		{CardID: "forest", Quantity: 52},
		{CardID: "grizzly-bears", Quantity: 4},
		{CardID: "giant-growth", Quantity: 4},
	}}
}

func redDeck() deck.DeckList {
	return deck.DeckList{ID: "red", OwnerID: "bob", Name: "Red", Entries: []deck.Entry{
		{CardID: "mountain", Quantity: 52},
		{CardID: "lightning-bolt", Quantity: 4},
		{CardID: "shock", Quantity: 4},
	}}
}

// tinyFormat leaves one card in each library after the opening hand.
var tinyFormat = deck.Format{Name: "tiny", MinDeckSize: 8, MaxCopies: 4, OpeningHandSize: 7, StartingLife: 20}

func tinyDeck() deck.DeckList {
	return deck.DeckList{ID: "tiny", Name: "Tiny", Entries: []deck.Entry{{CardID: "forest", Quantity: 8}}}
}

func newTestConstructor(t *testing.T, format deck.Format, decks ...deck.DeckList) *Constructor {
	t.Helper()
	repo := deck.NewMemoryRepo()
	require.NoError(t, repo.Seed(context.Background(), decks))
	c, err := NewConstructor(ConstructorConfig{
		Catalog: testCatalog(t),
		Decks:   repo,
		Format:  format,
		Logger:  zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	return c
}

// eventLog is a sink that keeps every event it receives.
type eventLog struct {
	mu     sync.Mutex
	events []rules.Event
}

func (l *eventLog) Listener(evt rules.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, evt)
}

func (l *eventLog) All() []rules.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]rules.Event(nil), l.events...)
}

func (l *eventLog) Types() []rules.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	types := make([]rules.EventType, len(l.events))
	for i, e := range l.events {
		types[i] = e.Type
	}
	return types
}

func (l *eventLog) OfType(t rules.EventType) []rules.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []rules.Event
	for _, e := range l.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (l *eventLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
}

// newTestMatch creates a seeded two-player standard match between alice (green) and bob (red).
func newTestMatch(t *testing.T, opts ...CreateOption) (*Match, *eventLog) {
	t.Helper()
	c := newTestConstructor(t, deck.Standard, greenDeck(), redDeck())
	log := &eventLog{}
	opts = append([]CreateOption{WithSeed(42), WithGameID("game-1")}, opts...)
	m, err := c.Create(context.Background(), []string{"alice", "bob"},
		map[string]string{"alice": "green", "bob": "red"}, log.Listener, opts...)
	require.NoError(t, err)
	return m, log
}

func newTinyMatch(t *testing.T, players ...string) (*Match, *eventLog) {
	t.Helper()
	c := newTestConstructor(t, tinyFormat, tinyDeck())
	selections := make(map[string]string, len(players))
	for _, p := range players {
		selections[p] = "tiny"
	}
	log := &eventLog{}
	m, err := c.Create(context.Background(), players, selections, log.Listener, WithSeed(7), WithGameID("tiny-game"))
	require.NoError(t, err)
	return m, log
}

func advance(t *testing.T, m *Match, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, m.AdvancePhase(), "advance %d of %d", i+1, n)
	}
}

func requireInvariants(t *testing.T, m *Match) {
	t.Helper()
	require.NoError(t, m.Snapshot().CheckInvariants())
}
