package game

import (
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/magefree/mage-match-engine/internal/game/counters"
	"github.com/magefree/mage-match-engine/internal/game/deck"
	"github.com/magefree/mage-match-engine/internal/game/rules"
	"go.uber.org/zap"
)

// End reasons recorded on the state and carried by PLAYER_LOST and GAME_ENDED events.
const (
	ReasonDeckOut   = "deck_out"
	ReasonConceded  = "conceded"
	ReasonLifeTotal = "life_total"
	ReasonAbandoned = "abandoned"
	ReasonEnded     = "ended"
)

// Match owns one game state and drives it through the turn structure. All methods are safe
// for concurrent use; they are serialized on the match's mutex. The sink is called with the
// mutex held, so it must not call back into the match.
type Match struct {
	mu      sync.Mutex
	state   *GameState
	order   *rules.TurnOrder
	format  deck.Format
	rng     *rand.Rand
	seed    int64
	sink    rules.Listener
	logger  *zap.Logger
	seq     uint64
	started bool
	drawn   bool
	now     func() time.Time
}

func newMatch(state *GameState, order *rules.TurnOrder, format deck.Format, rng *rand.Rand, seed int64, sink rules.Listener, logger *zap.Logger) *Match {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Match{
		state:  state,
		order:  order,
		format: format,
		rng:    rng,
		seed:   seed,
		sink:   sink,
		logger: logger.With(zap.String("game_id", state.GameID)),
		now:    time.Now,
	}
}

// ID returns the game identifier.
func (m *Match) ID() string {
	return m.state.GameID
}

// Seed returns the seed the match's random source was created from.
func (m *Match) Seed() int64 {
	return m.seed
}

// Format returns the format the match was set up with.
func (m *Match) Format() deck.Format {
	return m.format
}

// Snapshot returns a deep copy of the current state.
func (m *Match) Snapshot() *GameState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// Checksum returns the digest of the current state.
func (m *Match) Checksum() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Checksum()
}

// Ended reports whether the match has reached a terminal state.
func (m *Match) Ended() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.GameEnded
}

// AdvancePhase moves exactly one step along the turn structure and applies the automatic
// effect of the phase entered: Untap untaps the active player's permanents and Draw draws for
// the active player. Advancing past Cleanup passes the turn; the turn number counts rounds
// and goes up when the rotation returns to the start of the seating order.
func (m *Match) AdvancePhase() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.state
	if s.GameEnded {
		return ErrGameEnded
	}
	m.started = true

	next, wrapped := s.CurrentPhase.Next()
	if wrapped {
		player, newRound, ok := m.order.Advance(m.hasLost)
		if !ok {
			m.finish("", ReasonEnded, "")
			return nil
		}
		s.ActivePlayerID = player
		if newRound {
			s.TurnNumber++
		}
	}
	s.CurrentPhase = next
	m.emit(rules.Event{Type: rules.EventPhaseChanged, PlayerID: s.ActivePlayerID})

	switch next {
	case rules.PhaseUntap:
		m.untap(s.ActivePlayerID)
	case rules.PhaseDraw:
		m.drawStep()
	}
	return nil
}

func (m *Match) hasLost(playerID string) bool {
	p, ok := m.state.Player(playerID)
	return !ok || p.Lost
}

// untap readies every permanent the player controls, whichever battlefield it sits on.
func (m *Match) untap(playerID string) {
	for _, p := range m.state.Players {
		for _, id := range p.Battlefield {
			obj, ok := m.state.Objects[id]
			if !ok || !obj.Tapped || obj.ControllerID != playerID {
				continue
			}
			obj.Tapped = false
			m.emit(rules.Event{Type: rules.EventUntapped, PlayerID: playerID, ObjectID: id})
		}
	}
}

func (m *Match) drawStep() {
	first := !m.drawn
	m.drawn = true
	if first && m.format.SkipFirstDraw {
		return
	}

	active := m.state.ActivePlayerID
	id, ok, err := m.state.drawCard(active)
	if err != nil {
		m.logger.Error("draw step failed", zap.String("player_id", active), zap.Error(err))
		return
	}
	if !ok {
		m.eliminate(active, ReasonDeckOut)
		return
	}
	m.emitDraw(active, id)
}

func (m *Match) emitDraw(playerID, objectID string) {
	p, _ := m.state.Player(playerID)
	m.emit(rules.Event{
		Type:     rules.EventCardDrawn,
		PlayerID: playerID,
		ObjectID: objectID,
		FromZone: ZoneLibrary.String(),
		ToZone:   ZoneHand.String(),
		Amount:   1,
		Metadata: map[string]string{"deck_count": strconv.Itoa(p.DeckCount)},
	})
}

// eliminate marks a player as lost. When at most one player remains the game ends; otherwise
// a losing active player's turn skips to Cleanup.
func (m *Match) eliminate(playerID, reason string) {
	s := m.state
	p, _ := s.Player(playerID)
	p.Lost = true
	p.LossReason = reason

	remaining := s.Remaining()
	if len(remaining) <= 1 {
		winner := ""
		if len(remaining) == 1 {
			winner = remaining[0]
		}
		m.finish(winner, reason, playerID)
		return
	}

	m.logger.Info("player lost",
		zap.String("player_id", playerID),
		zap.String("reason", reason),
		zap.Int("remaining", len(remaining)),
	)
	m.emit(rules.Event{Type: rules.EventPlayerLost, PlayerID: playerID, Reason: reason})

	if playerID == s.ActivePlayerID && s.CurrentPhase != rules.PhaseCleanup {
		s.CurrentPhase = rules.PhaseCleanup
		m.emit(rules.Event{Type: rules.EventPhaseChanged, PlayerID: playerID, Reason: reason})
	}
}

func (m *Match) finish(winner, reason, loser string) {
	s := m.state
	s.GameEnded = true
	s.Winner = winner
	s.EndReason = reason

	m.logger.Info("game ended",
		zap.String("winner", winner),
		zap.String("reason", reason),
		zap.Int("turn", s.TurnNumber),
	)
	m.emit(rules.Event{
		Type:      rules.EventGameEnded,
		PlayerID:  loser,
		PlayerIDs: s.PlayerIDs(),
		Winner:    winner,
		Reason:    reason,
	})
}

// End terminates the match. winner may be empty for a game without a winner. Ending a match
// that has already ended is a no-op and emits nothing.
func (m *Match) End(winner, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.GameEnded {
		return nil
	}
	if winner != "" {
		if _, ok := m.state.Player(winner); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownPlayer, winner)
		}
	}
	if reason == "" {
		reason = ReasonEnded
	}
	m.finish(winner, reason, "")
	return nil
}

// Abandon ends the match with no winner. Already-emitted events stay valid history.
func (m *Match) Abandon() error {
	return m.End("", ReasonAbandoned)
}

// Mulligan returns the player's hand to their library, reshuffles, and draws one card fewer
// than last time. It is only allowed before the first phase advance and before the player
// keeps a hand.
func (m *Match) Mulligan(playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.livePlayer(playerID)
	if err != nil {
		return err
	}
	if m.started || p.KeptHand {
		return ErrMulliganClosed
	}

	for len(p.Hand) > 0 {
		if _, err := m.state.MoveObjectToBottom(p.Hand[0], ZoneLibrary); err != nil {
			return err
		}
	}
	Shuffle(p.Library, m.rng)
	p.MulliganCount++

	size := max(m.format.OpeningHandSize-p.MulliganCount, 0)
	for i := 0; i < size; i++ {
		ok, err := m.state.DrawCard(playerID)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
	}

	m.logger.Info("player mulliganed",
		zap.String("player_id", playerID),
		zap.Int("mulligan_count", p.MulliganCount),
		zap.Int("hand_size", len(p.Hand)),
	)
	m.emit(rules.Event{
		Type:     rules.EventMulligan,
		PlayerID: playerID,
		Amount:   len(p.Hand),
		Metadata: map[string]string{"mulligan_count": strconv.Itoa(p.MulliganCount)},
	})
	return nil
}

// KeepHand closes the mulligan window for the player.
func (m *Match) KeepHand(playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.livePlayer(playerID)
	if err != nil {
		return err
	}
	if m.started || p.KeptHand {
		return ErrMulliganClosed
	}
	p.KeptHand = true
	m.emit(rules.Event{Type: rules.EventHandKept, PlayerID: playerID, Amount: len(p.Hand)})
	return nil
}

// Concede eliminates the player. Conceding again after losing is a no-op.
func (m *Match) Concede(playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.GameEnded {
		return ErrGameEnded
	}
	p, ok := m.state.Player(playerID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
	}
	if p.Lost {
		return nil
	}
	m.eliminate(playerID, ReasonConceded)
	return nil
}

// ChangeLife adjusts a player's life total by delta. A total of zero or less eliminates the
// player.
func (m *Match) ChangeLife(playerID string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.livePlayer(playerID)
	if err != nil {
		return err
	}
	if delta == 0 {
		return nil
	}
	p.Life += delta
	m.emit(rules.Event{
		Type:     rules.EventLifeChanged,
		PlayerID: playerID,
		Amount:   delta,
		Metadata: map[string]string{"life": strconv.Itoa(p.Life)},
	})
	if p.Life <= 0 {
		m.eliminate(playerID, ReasonLifeTotal)
	}
	return nil
}

// DrawCard draws one card for the player outside the draw step. It reports false without
// changing anything when the library is empty; deciding what that means is up to the caller.
func (m *Match) DrawCard(playerID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.livePlayer(playerID); err != nil {
		return false, err
	}
	id, ok, err := m.state.drawCard(playerID)
	if err != nil || !ok {
		return false, err
	}
	m.emitDraw(playerID, id)
	return true, nil
}

// MoveObject moves a game object to a zone of its owner.
func (m *Match) MoveObject(objectID string, to Zone) error {
	return m.move(objectID, to, false)
}

// MoveObjectToBottom moves a game object to the end of a zone of its owner.
func (m *Match) MoveObjectToBottom(objectID string, to Zone) error {
	return m.move(objectID, to, true)
}

func (m *Match) move(objectID string, to Zone, bottom bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.GameEnded {
		return ErrGameEnded
	}
	var (
		from Zone
		err  error
	)
	if bottom {
		from, err = m.state.MoveObjectToBottom(objectID, to)
	} else {
		from, err = m.state.MoveObject(objectID, to)
	}
	if err != nil {
		return err
	}

	obj := m.state.Objects[objectID]
	m.logger.Debug("object moved",
		zap.String("object_id", objectID),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
	)
	m.emit(rules.Event{
		Type:     rules.EventZoneChanged,
		PlayerID: obj.OwnerID,
		ObjectID: objectID,
		FromZone: from.String(),
		ToZone:   to.String(),
	})
	return nil
}

// ShuffleLibrary shuffles the player's library with the match's random source.
func (m *Match) ShuffleLibrary(playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.livePlayer(playerID)
	if err != nil {
		return err
	}
	Shuffle(p.Library, m.rng)
	m.emit(rules.Event{Type: rules.EventLibraryShuffled, PlayerID: playerID, Amount: len(p.Library)})
	return nil
}

// SetTapped taps or untaps a permanent. Setting the state it already has emits nothing.
func (m *Match) SetTapped(objectID string, tapped bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	obj, err := m.battlefieldObject(objectID)
	if err != nil {
		return err
	}
	if obj.Tapped == tapped {
		return nil
	}
	obj.Tapped = tapped
	evt := rules.Event{Type: rules.EventUntapped, PlayerID: obj.ControllerID, ObjectID: objectID}
	if tapped {
		evt.Type = rules.EventTapped
	}
	m.emit(evt)
	return nil
}

// AddCounter places n counters of the given type on a permanent.
func (m *Match) AddCounter(objectID string, counterType counters.CounterType, n int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n <= 0 {
		return fmt.Errorf("counter amount must be positive, got %d", n)
	}
	obj, err := m.battlefieldObject(objectID)
	if err != nil {
		return err
	}
	obj.Counters.Add(counterType, n)
	m.emit(rules.Event{
		Type:     rules.EventCounterAdded,
		PlayerID: obj.ControllerID,
		ObjectID: objectID,
		Amount:   n,
		Metadata: map[string]string{
			"counter": string(counterType),
			"total":   strconv.Itoa(obj.Counters.Count(counterType)),
		},
	})
	return nil
}

func (m *Match) livePlayer(playerID string) (*PlayerState, error) {
	if m.state.GameEnded {
		return nil, ErrGameEnded
	}
	p, ok := m.state.Player(playerID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
	}
	if p.Lost {
		return nil, fmt.Errorf("%w: %s", ErrPlayerLost, playerID)
	}
	return p, nil
}

func (m *Match) battlefieldObject(objectID string) (*GameObject, error) {
	if m.state.GameEnded {
		return nil, ErrGameEnded
	}
	obj, ok := m.state.Objects[objectID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownObject, objectID)
	}
	if obj.Zone != ZoneBattlefield {
		return nil, fmt.Errorf("object %s is in %s, not on the battlefield", objectID, obj.Zone)
	}
	return obj, nil
}

func (m *Match) emitCreated() {
	s := m.state
	m.emit(rules.Event{
		Type:      rules.EventMatchCreated,
		PlayerID:  s.ActivePlayerID,
		PlayerIDs: s.PlayerIDs(),
		Metadata: map[string]string{
			"checksum": s.Checksum(),
			"format":   m.format.Name,
			"seed":     strconv.FormatInt(m.seed, 10),
		},
	})
}

// emit stamps the event with sequence, identity and clock data and hands it to the sink.
func (m *Match) emit(evt rules.Event) {
	m.seq++
	s := m.state
	evt.Seq = m.seq
	evt.ID = eventID(s.GameID, m.seq)
	evt.GameID = s.GameID
	evt.Turn = s.TurnNumber
	evt.Phase = s.CurrentPhase
	evt.Timestamp = m.now()
	if m.sink != nil {
		m.sink(evt)
	}
}

func eventID(gameID string, seq uint64) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(gameID+"#"+strconv.FormatUint(seq, 10))).String()
}
