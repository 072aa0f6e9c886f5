package game

import (
	"context"
	"testing"

	"github.com/magefree/mage-match-engine/internal/game/deck"
	"github.com/magefree/mage-match-engine/internal/game/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var testSelections = map[string]string{"alice": "green", "bob": "red"}

func TestManagerLifecycle(t *testing.T) {
	logger := zaptest.NewLogger(t)
	dir := t.TempDir()
	recorder := NewReplayRecorder(logger, dir)
	mgr := NewManager(newTestConstructor(t, deck.Standard, greenDeck(), redDeck()), recorder, logger)
	ctx := context.Background()

	log := &eventLog{}
	m, err := mgr.Create(ctx, []string{"alice", "bob"}, testSelections, log.Listener, WithGameID("m1"), WithSeed(1))
	require.NoError(t, err)
	assert.Equal(t, "m1", m.ID())
	require.Len(t, log.All(), 1, "caller's sink still receives events")

	_, err = mgr.Create(ctx, []string{"alice", "bob"}, testSelections, nil, WithGameID("m2"), WithSeed(2))
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2"}, mgr.List())
	assert.Equal(t, 2, mgr.ActiveCount())

	got, err := mgr.Get("m1")
	require.NoError(t, err)
	assert.Same(t, m, got)

	require.NoError(t, mgr.Advance("m1"))
	assert.Equal(t, rules.PhaseUpkeep, m.Snapshot().CurrentPhase)

	require.NoError(t, mgr.Remove("m2"))
	assert.Equal(t, []string{"m1"}, mgr.List())
	assert.ErrorIs(t, mgr.Remove("m2"), ErrUnknownGame)

	replay, err := recorder.LoadReplay("m2")
	require.NoError(t, err)
	last, ok := replay.EventAt(replay.Size() - 1)
	require.True(t, ok)
	assert.Equal(t, rules.EventGameEnded, last.Type)
	assert.Equal(t, ReasonAbandoned, last.Reason)
}

func TestManagerRetiresEndedMatches(t *testing.T) {
	logger := zaptest.NewLogger(t)
	recorder := NewReplayRecorder(logger, t.TempDir())
	mgr := NewManager(newTestConstructor(t, deck.Standard, greenDeck(), redDeck()), recorder, logger)
	ctx := context.Background()

	log := &eventLog{}
	m, err := mgr.Create(ctx, []string{"alice", "bob"}, testSelections, log.Listener, WithGameID("conceded"), WithSeed(1))
	require.NoError(t, err)
	_, err = mgr.Create(ctx, []string{"alice", "bob"}, testSelections, nil, WithGameID("abandoned"), WithSeed(2))
	require.NoError(t, err)

	advance(t, m, 3)
	require.NoError(t, mgr.Concede("conceded", "bob"))
	assert.True(t, m.Ended())
	assert.Equal(t, []string{"abandoned"}, mgr.List())
	assert.Equal(t, 1, mgr.ActiveCount())
	assert.ErrorIs(t, mgr.Advance("conceded"), ErrUnknownGame)

	_, inMemory := recorder.GetReplay("conceded")
	assert.False(t, inMemory, "replay is flushed when the match ends")
	replay, err := recorder.LoadReplay("conceded")
	require.NoError(t, err)
	assert.Equal(t, len(log.All()), replay.Size())
	last, _ := replay.EventAt(replay.Size() - 1)
	assert.Equal(t, rules.EventGameEnded, last.Type)
	assert.Equal(t, "alice", last.Winner)

	require.NoError(t, mgr.Abandon("abandoned"))
	assert.Empty(t, mgr.List())
	assert.Equal(t, 0, mgr.ActiveCount())
	_, err = recorder.LoadReplay("abandoned")
	require.NoError(t, err)

	_, err = mgr.Create(ctx, []string{"alice", "bob"}, testSelections, nil, WithGameID("conceded"), WithSeed(3))
	require.NoError(t, err, "a retired game ID may be reused")
}

func TestManagerUnknownGame(t *testing.T) {
	mgr := NewManager(newTestConstructor(t, deck.Standard, greenDeck(), redDeck()), nil, nil)

	_, err := mgr.Get("nope")
	assert.ErrorIs(t, err, ErrUnknownGame)
	assert.ErrorIs(t, mgr.Advance("nope"), ErrUnknownGame)
	assert.ErrorIs(t, mgr.Concede("nope", "alice"), ErrUnknownGame)
	assert.ErrorIs(t, mgr.Abandon("nope"), ErrUnknownGame)
	assert.ErrorIs(t, mgr.Remove("nope"), ErrUnknownGame)
}

func TestManagerRejectsDuplicateGameID(t *testing.T) {
	logger := zaptest.NewLogger(t)
	recorder := NewReplayRecorder(logger, t.TempDir())
	mgr := NewManager(newTestConstructor(t, deck.Standard, greenDeck(), redDeck()), recorder, logger)
	ctx := context.Background()

	first, err := mgr.Create(ctx, []string{"alice", "bob"}, testSelections, nil, WithGameID("same"), WithSeed(1))
	require.NoError(t, err)
	advance(t, first, 5)
	before, ok := recorder.GetReplay("same")
	require.True(t, ok)
	require.Equal(t, 7, before.Size())

	log := &eventLog{}
	_, err = mgr.Create(ctx, []string{"alice", "bob"}, testSelections, log.Listener, WithGameID("same"), WithSeed(2))
	require.Error(t, err)
	assert.Empty(t, log.All(), "a rejected create emits nothing")
	assert.Len(t, mgr.List(), 1)

	after, ok := recorder.GetReplay("same")
	require.True(t, ok)
	assert.Same(t, before, after)
	assert.Equal(t, 7, after.Size())
	created, _ := after.EventAt(0)
	assert.Equal(t, "1", created.Metadata["seed"])

	got, err := mgr.Get("same")
	require.NoError(t, err)
	assert.Same(t, first, got)
}

func TestManagerGeneratesGameID(t *testing.T) {
	mgr := NewManager(newTestConstructor(t, deck.Standard, greenDeck(), redDeck()), nil, nil)

	m, err := mgr.Create(context.Background(), []string{"alice", "bob"}, testSelections, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, m.ID())
	assert.Equal(t, []string{m.ID()}, mgr.List())
}

func TestManagerPropagatesSetupErrors(t *testing.T) {
	mgr := NewManager(newTestConstructor(t, deck.Standard, greenDeck()), nil, nil)

	_, err := mgr.Create(context.Background(), []string{"alice", "bob"}, testSelections, nil)
	assert.ErrorIs(t, err, ErrUnknownDeck)
	assert.Empty(t, mgr.List())
}
