package game

import (
	"context"
	"errors"
	"testing"

	"github.com/magefree/mage-match-engine/internal/game/deck"
	"github.com/magefree/mage-match-engine/internal/game/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEndToEnd(t *testing.T) {
	m, log := newTestMatch(t)

	s := m.Snapshot()
	assert.Equal(t, "game-1", s.GameID)
	assert.Equal(t, 1, s.TurnNumber)
	assert.Equal(t, rules.PhaseUntap, s.CurrentPhase)
	assert.Equal(t, "alice", s.ActivePlayerID)
	assert.False(t, s.GameEnded)
	assert.Empty(t, s.Winner)
	assert.Len(t, s.Objects, 120)

	for _, p := range s.Players {
		assert.Len(t, p.Hand, 7, p.ID)
		assert.Len(t, p.Library, 53, p.ID)
		assert.Equal(t, 53, p.DeckCount, p.ID)
		assert.Equal(t, 60, p.DeckSize, p.ID)
		assert.Equal(t, 20, p.Life, p.ID)
	}
	require.NoError(t, s.CheckInvariants())

	events := log.All()
	require.Len(t, events, 1, "setup must emit exactly one event")
	created := events[0]
	assert.Equal(t, rules.EventMatchCreated, created.Type)
	assert.Equal(t, "game-1", created.GameID)
	assert.Equal(t, []string{"alice", "bob"}, created.PlayerIDs)
	assert.Equal(t, rules.PhaseUntap, created.Phase)
	assert.Equal(t, 1, created.Turn)
	assert.Equal(t, uint64(1), created.Seq)
	assert.Equal(t, s.Checksum(), created.Metadata["checksum"])
	assert.Equal(t, "42", created.Metadata["seed"])
	assert.Equal(t, int64(42), m.Seed())
}

func TestCreateObjectsBelongToOwners(t *testing.T) {
	m, _ := newTestMatch(t)
	s := m.Snapshot()

	cardsByOwner := map[string]map[string]int{}
	for _, obj := range s.Objects {
		assert.Equal(t, obj.OwnerID, obj.ControllerID)
		assert.NotNil(t, obj.Card)
		assert.Equal(t, obj.CardID, obj.Card.ID)
		if cardsByOwner[obj.OwnerID] == nil {
			cardsByOwner[obj.OwnerID] = map[string]int{}
		}
		cardsByOwner[obj.OwnerID][obj.CardID]++
	}
	assert.Equal(t, map[string]int{"forest": 52, "grizzly-bears": 4, "giant-growth": 4}, cardsByOwner["alice"])
	assert.Equal(t, map[string]int{"mountain": 52, "lightning-bolt": 4, "shock": 4}, cardsByOwner["bob"])
}

func TestCreateIsReproducibleForSeedAndGameID(t *testing.T) {
	a, _ := newTestMatch(t)
	b, _ := newTestMatch(t)
	assert.Equal(t, a.Checksum(), b.Checksum())

	sa, sb := a.Snapshot(), b.Snapshot()
	for i := range sa.Players {
		assert.Equal(t, sa.Players[i].Hand, sb.Players[i].Hand)
		assert.Equal(t, sa.Players[i].Library, sb.Players[i].Library)
	}

	c, _ := newTestMatch(t, WithSeed(43))
	assert.NotEqual(t, a.Checksum(), c.Checksum())
	sc := c.Snapshot()
	assert.ElementsMatch(t,
		append(append([]string(nil), sa.Players[0].Library...), sa.Players[0].Hand...),
		append(append([]string(nil), sc.Players[0].Library...), sc.Players[0].Hand...),
		"a different seed reorders the same objects")
}

func TestCreateGeneratesGameID(t *testing.T) {
	c := newTestConstructor(t, deck.Standard, greenDeck(), redDeck())
	m, err := c.Create(context.Background(), []string{"alice", "bob"},
		map[string]string{"alice": "green", "bob": "red"}, nil)
	require.NoError(t, err)
	assert.Len(t, m.ID(), 36)
	assert.NotZero(t, m.Seed())
}

func TestCreateLimitedFormat(t *testing.T) {
	limited := deck.DeckList{ID: "sealed", Entries: []deck.Entry{
		{CardID: "forest", Quantity: 36},
		{CardID: "grizzly-bears", Quantity: 4},
	}}
	c := newTestConstructor(t, deck.Standard, limited)
	log := &eventLog{}

	_, err := c.Create(context.Background(), []string{"alice", "bob"},
		map[string]string{"alice": "sealed", "bob": "sealed"}, log.Listener)
	require.ErrorIs(t, err, ErrInvalidDeck)

	m, err := c.Create(context.Background(), []string{"alice", "bob"},
		map[string]string{"alice": "sealed", "bob": "sealed"}, log.Listener, WithFormat(deck.Limited), WithSeed(5))
	require.NoError(t, err)
	for _, p := range m.Snapshot().Players {
		assert.Len(t, p.Hand, 7)
		assert.Len(t, p.Library, 33)
	}
	assert.Equal(t, "limited", m.Format().Name)
}

type failingRepo struct{ err error }

func (f failingRepo) Fetch(context.Context, string) (deck.DeckList, bool, error) {
	return deck.DeckList{}, false, f.err
}

func (f failingRepo) Create(context.Context, string, string, string, []deck.Entry) (deck.DeckList, error) {
	return deck.DeckList{}, f.err
}

func TestCreateSetupErrors(t *testing.T) {
	short := deck.DeckList{ID: "short", Entries: []deck.Entry{{CardID: "forest", Quantity: 40}}}
	c := newTestConstructor(t, deck.Standard, greenDeck(), short)

	cases := []struct {
		name       string
		players    []string
		selections map[string]string
		sentinel   error
		player     string
		deckID     string
	}{
		{"missing selection", []string{"alice", "bob"}, map[string]string{"alice": "green"}, ErrMissingDeckSelection, "bob", ""},
		{"unknown deck", []string{"alice", "bob"}, map[string]string{"alice": "nope", "bob": "green"}, ErrUnknownDeck, "alice", "nope"},
		{"invalid deck", []string{"alice", "bob"}, map[string]string{"alice": "green", "bob": "short"}, ErrInvalidDeck, "bob", "short"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			log := &eventLog{}
			m, err := c.Create(context.Background(), tc.players, tc.selections, log.Listener)
			require.Error(t, err)
			assert.Nil(t, m)
			assert.ErrorIs(t, err, tc.sentinel)

			var setupErr *SetupError
			require.True(t, errors.As(err, &setupErr))
			assert.Equal(t, tc.player, setupErr.PlayerID)
			assert.Equal(t, tc.deckID, setupErr.DeckID)
			assert.Empty(t, log.All(), "failed setup must not emit events")
		})
	}
}

func TestCreateInvalidDeckCarriesProblems(t *testing.T) {
	short := deck.DeckList{ID: "short", Entries: []deck.Entry{{CardID: "forest", Quantity: 40}}}
	c := newTestConstructor(t, deck.Standard, short, greenDeck())

	_, err := c.Create(context.Background(), []string{"alice", "bob"},
		map[string]string{"alice": "short", "bob": "green"}, nil)

	var setupErr *SetupError
	require.True(t, errors.As(err, &setupErr))
	require.Len(t, setupErr.Problems, 1)
	assert.Contains(t, setupErr.Problems[0], "40")
	assert.Contains(t, setupErr.Problems[0], "60")
	assert.Contains(t, err.Error(), "alice")
	assert.Contains(t, err.Error(), "short")
}

func TestCreateRepositoryFailure(t *testing.T) {
	boom := errors.New("connection refused")
	c, err := NewConstructor(ConstructorConfig{Catalog: testCatalog(t), Decks: failingRepo{err: boom}, Format: deck.Standard})
	require.NoError(t, err)

	_, err = c.Create(context.Background(), []string{"alice", "bob"},
		map[string]string{"alice": "green", "bob": "red"}, nil)
	assert.ErrorIs(t, err, boom)
	var setupErr *SetupError
	require.True(t, errors.As(err, &setupErr))
	assert.Equal(t, "alice", setupErr.PlayerID)
}

func TestCreateRejectsBadPlayerLists(t *testing.T) {
	c := newTestConstructor(t, deck.Standard, greenDeck())
	sel := map[string]string{"alice": "green", "bob": "green"}

	for name, players := range map[string][]string{
		"solo":      {"alice"},
		"duplicate": {"alice", "alice"},
		"blank":     {"alice", ""},
	} {
		_, err := c.Create(context.Background(), players, sel, nil)
		assert.ErrorIs(t, err, ErrInvalidPlayers, name)
	}
}

func TestNewConstructorValidatesConfig(t *testing.T) {
	_, err := NewConstructor(ConstructorConfig{Decks: deck.NewMemoryRepo(), Format: deck.Standard})
	assert.Error(t, err)
	_, err = NewConstructor(ConstructorConfig{Catalog: testCatalog(t), Format: deck.Standard})
	assert.Error(t, err)
	_, err = NewConstructor(ConstructorConfig{Catalog: testCatalog(t), Decks: deck.NewMemoryRepo()})
	assert.Error(t, err, "zero format is unusable")
}

func TestObjectIDsAreStableAndUnique(t *testing.T) {
	assert.Equal(t, objectID("g", "alice", 3), objectID("g", "alice", 3))
	assert.NotEqual(t, objectID("g", "alice", 3), objectID("g", "bob", 3))
	assert.NotEqual(t, objectID("g", "alice", 3), objectID("h", "alice", 3))

	m, _ := newTestMatch(t)
	s := m.Snapshot()
	for _, p := range []string{"alice", "bob"} {
		for n := 0; n < 60; n++ {
			obj, ok := s.Objects[objectID("game-1", p, n)]
			require.True(t, ok, "%s copy %d", p, n)
			assert.Equal(t, p, obj.OwnerID)
		}
	}
}
