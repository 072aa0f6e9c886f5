package game

import (
	"errors"
	"testing"

	"github.com/magefree/mage-match-engine/internal/game/catalog"
	"github.com/magefree/mage-match-engine/internal/game/counters"
	"github.com/magefree/mage-match-engine/internal/game/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildState(t *testing.T, perPlayer int) *GameState {
	t.Helper()
	forest := &catalog.CardDefinition{ID: "forest", Name: "Forest", Type: "Land", Basic: true}
	s := NewGameState("g", []string{"alice", "bob"}, 20)
	for _, p := range []string{"alice", "bob"} {
		for i := 0; i < perPlayer; i++ {
			_, err := s.AddToLibrary(p, objectID("g", p, i), forest)
			require.NoError(t, err)
		}
	}
	return s
}

func TestNewGameState(t *testing.T) {
	s := NewGameState("g", []string{"alice", "bob"}, 20)
	assert.Equal(t, 1, s.TurnNumber)
	assert.Equal(t, rules.PhaseUntap, s.CurrentPhase)
	assert.Equal(t, "alice", s.ActivePlayerID)
	assert.Equal(t, []string{"alice", "bob"}, s.PlayerIDs())
	assert.False(t, s.GameEnded)
	p, ok := s.Player("bob")
	require.True(t, ok)
	assert.Equal(t, 20, p.Life)
}

func TestDrawCardMovesTopOfLibrary(t *testing.T) {
	s := buildState(t, 3)
	alice, _ := s.Player("alice")
	top := alice.Library[0]

	ok, err := s.DrawCard("alice")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, []string{top}, alice.Hand)
	assert.Len(t, alice.Library, 2)
	assert.Equal(t, 2, alice.DeckCount)
	assert.Equal(t, ZoneHand, s.Objects[top].Zone)
	require.NoError(t, s.CheckInvariants())
}

func TestDrawCardEmptyLibrary(t *testing.T) {
	s := buildState(t, 1)
	ok, err := s.DrawCard("alice")
	require.NoError(t, err)
	require.True(t, ok)

	before := s.Checksum()
	ok, err = s.DrawCard("alice")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, before, s.Checksum(), "failed draw must not mutate state")
}

func TestDrawCardUnknownPlayer(t *testing.T) {
	s := buildState(t, 1)
	_, err := s.DrawCard("mallory")
	assert.ErrorIs(t, err, ErrUnknownPlayer)
}

func TestZoneSumInvariantAcrossDraws(t *testing.T) {
	s := buildState(t, 10)
	alice, _ := s.Player("alice")
	for i := 0; i < 12; i++ {
		_, err := s.DrawCard("alice")
		require.NoError(t, err)
		assert.Equal(t, alice.DeckSize, len(alice.Library)+len(alice.Hand)+len(alice.Battlefield)+len(alice.Graveyard))
		require.NoError(t, s.CheckInvariants())
	}
}

func TestMoveObject(t *testing.T) {
	s := buildState(t, 4)
	alice, _ := s.Player("alice")
	_, _ = s.DrawCard("alice")
	id := alice.Hand[0]

	from, err := s.MoveObject(id, ZoneBattlefield)
	require.NoError(t, err)
	assert.Equal(t, ZoneHand, from)
	assert.Equal(t, []string{id}, alice.Battlefield)
	s.Objects[id].Tapped = true

	from, err = s.MoveObject(id, ZoneLibrary)
	require.NoError(t, err)
	assert.Equal(t, ZoneBattlefield, from)
	assert.Equal(t, id, alice.Library[0], "library moves go on top")
	assert.Equal(t, 4, alice.DeckCount)
	assert.False(t, s.Objects[id].Tapped)

	_, err = s.MoveObjectToBottom(id, ZoneLibrary)
	require.NoError(t, err)
	assert.Equal(t, id, alice.Library[len(alice.Library)-1])
	require.NoError(t, s.CheckInvariants())

	_, err = s.MoveObject("missing", ZoneHand)
	assert.ErrorIs(t, err, ErrUnknownObject)
	_, err = s.MoveObject(id, Zone(9))
	assert.Error(t, err)
}

func TestCheckInvariantsDetectsCorruption(t *testing.T) {
	s := buildState(t, 3)
	alice, _ := s.Player("alice")
	alice.Hand = append(alice.Hand, alice.Library[0])
	alice.Library = append(alice.Library, "ghost")

	err := s.CheckInvariants()
	var inv *InvariantError
	require.True(t, errors.As(err, &inv))
	assert.Contains(t, err.Error(), "appears in")
	assert.Contains(t, err.Error(), "missing object ghost")
	assert.Contains(t, err.Error(), "deck count")
}

func TestCheckInvariantsDetectsOrphanObject(t *testing.T) {
	s := buildState(t, 2)
	alice, _ := s.Player("alice")
	alice.Library = alice.Library[1:]
	alice.DeckCount = len(alice.Library)

	err := s.CheckInvariants()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is in no zone")
}

func TestCloneIsIndependent(t *testing.T) {
	s := buildState(t, 3)
	alice, _ := s.Player("alice")
	_, _ = s.MoveObject(alice.Library[0], ZoneBattlefield)
	id := alice.Battlefield[0]
	s.Objects[id].Counters.Add(counters.CounterTypeP1P1, 1)

	cp := s.Clone()
	assert.Equal(t, s.Checksum(), cp.Checksum())

	cpAlice, _ := cp.Player("alice")
	cpAlice.Library = nil
	cp.Objects[id].Counters.Add(counters.CounterTypeP1P1, 2)
	cp.Objects[id].Tapped = true

	assert.Len(t, alice.Library, 2)
	assert.Equal(t, 1, s.Objects[id].Counters.Count(counters.CounterTypeP1P1))
	assert.False(t, s.Objects[id].Tapped)
}

func TestParseZone(t *testing.T) {
	z, err := ParseZone("Battlefield")
	require.NoError(t, err)
	assert.Equal(t, ZoneBattlefield, z)
	_, err = ParseZone("exile")
	assert.Error(t, err)
	assert.Equal(t, "zone_9", Zone(9).String())
}
