package game

import (
	"fmt"
	"math/rand"
	"slices"
	"strings"

	"github.com/magefree/mage-match-engine/internal/game/catalog"
	"github.com/magefree/mage-match-engine/internal/game/counters"
	"github.com/magefree/mage-match-engine/internal/game/rules"
)

// Zone identifies one of a player's ordered card sequences.
type Zone int

const (
	ZoneLibrary Zone = iota
	ZoneHand
	ZoneBattlefield
	ZoneGraveyard
)

var zoneNames = map[Zone]string{
	ZoneLibrary:     "library",
	ZoneHand:        "hand",
	ZoneBattlefield: "battlefield",
	ZoneGraveyard:   "graveyard",
}

func (z Zone) String() string {
	if name, ok := zoneNames[z]; ok {
		return name
	}
	return fmt.Sprintf("zone_%d", int(z))
}

// ParseZone resolves a zone by name.
func ParseZone(name string) (Zone, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	for z, n := range zoneNames {
		if n == want {
			return z, nil
		}
	}
	return 0, fmt.Errorf("unknown zone %q", name)
}

// GameObject is one physical card instance for the life of a match.
type GameObject struct {
	ID           string
	CardID       string
	Card         *catalog.CardDefinition
	OwnerID      string
	ControllerID string
	Zone         Zone
	Tapped       bool
	Counters     *counters.Counters
}

func (o *GameObject) clone() *GameObject {
	cp := *o
	if o.Counters != nil {
		cp.Counters = o.Counters.Copy()
	}
	return &cp
}

// PlayerState holds one player's life total and zones. Zones store object identifiers; index 0
// of Library is the top card.
type PlayerState struct {
	ID            string
	Life          int
	Library       []string
	Hand          []string
	Battlefield   []string
	Graveyard     []string
	DeckCount     int
	DeckSize      int
	MulliganCount int
	KeptHand      bool
	Lost          bool
	LossReason    string
}

func (p *PlayerState) zone(z Zone) *[]string {
	switch z {
	case ZoneLibrary:
		return &p.Library
	case ZoneHand:
		return &p.Hand
	case ZoneBattlefield:
		return &p.Battlefield
	case ZoneGraveyard:
		return &p.Graveyard
	}
	return nil
}

func (p *PlayerState) clone() *PlayerState {
	cp := *p
	cp.Library = slices.Clone(p.Library)
	cp.Hand = slices.Clone(p.Hand)
	cp.Battlefield = slices.Clone(p.Battlefield)
	cp.Graveyard = slices.Clone(p.Graveyard)
	return &cp
}

// GameState is the complete state of a match. Objects is the single owner of every game
// object; zones only reference them.
type GameState struct {
	GameID         string
	Players        []*PlayerState
	ActivePlayerID string
	TurnNumber     int
	CurrentPhase   rules.Phase
	GameEnded      bool
	Winner         string
	EndReason      string
	Objects        map[string]*GameObject
}

// NewGameState creates an empty state for the given players at turn 1, Untap.
func NewGameState(gameID string, playerIDs []string, startingLife int) *GameState {
	s := &GameState{
		GameID:       gameID,
		Players:      make([]*PlayerState, 0, len(playerIDs)),
		TurnNumber:   1,
		CurrentPhase: rules.PhaseUntap,
		Objects:      make(map[string]*GameObject),
	}
	for _, id := range playerIDs {
		s.Players = append(s.Players, &PlayerState{ID: id, Life: startingLife})
	}
	if len(playerIDs) > 0 {
		s.ActivePlayerID = playerIDs[0]
	}
	return s
}

// Player looks up a player by identifier.
func (s *GameState) Player(playerID string) (*PlayerState, bool) {
	for _, p := range s.Players {
		if p.ID == playerID {
			return p, true
		}
	}
	return nil, false
}

// PlayerIDs returns the players in seating order.
func (s *GameState) PlayerIDs() []string {
	ids := make([]string, len(s.Players))
	for i, p := range s.Players {
		ids[i] = p.ID
	}
	return ids
}

// Remaining returns the players who have not lost, in seating order.
func (s *GameState) Remaining() []string {
	var ids []string
	for _, p := range s.Players {
		if !p.Lost {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// AddToLibrary creates a new object owned by the player at the bottom of their library.
func (s *GameState) AddToLibrary(playerID, objectID string, card *catalog.CardDefinition) (*GameObject, error) {
	p, ok := s.Player(playerID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
	}
	if _, exists := s.Objects[objectID]; exists {
		return nil, fmt.Errorf("object %s already exists", objectID)
	}
	obj := &GameObject{
		ID:           objectID,
		CardID:       card.ID,
		Card:         card,
		OwnerID:      playerID,
		ControllerID: playerID,
		Zone:         ZoneLibrary,
		Counters:     counters.NewCounters(),
	}
	s.Objects[objectID] = obj
	p.Library = append(p.Library, objectID)
	p.DeckCount = len(p.Library)
	p.DeckSize++
	return obj, nil
}

// DrawCard moves the top card of the player's library to the end of their hand. It returns
// false without touching anything when the library is empty.
func (s *GameState) DrawCard(playerID string) (bool, error) {
	_, ok, err := s.drawCard(playerID)
	return ok, err
}

func (s *GameState) drawCard(playerID string) (string, bool, error) {
	p, ok := s.Player(playerID)
	if !ok {
		return "", false, fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
	}
	if len(p.Library) == 0 {
		return "", false, nil
	}
	id := p.Library[0]
	p.Library = p.Library[1:]
	p.Hand = append(p.Hand, id)
	p.DeckCount = len(p.Library)
	if obj, ok := s.Objects[id]; ok {
		obj.Zone = ZoneHand
	}
	return id, true, nil
}

// MoveObject moves an object into its owner's zone. Objects entering the library go on top;
// every other zone appends.
func (s *GameState) MoveObject(objectID string, to Zone) (Zone, error) {
	return s.moveObject(objectID, to, to != ZoneLibrary)
}

// MoveObjectToBottom moves an object to the end of its owner's zone, which for the library is
// the bottom.
func (s *GameState) MoveObjectToBottom(objectID string, to Zone) (Zone, error) {
	return s.moveObject(objectID, to, true)
}

func (s *GameState) moveObject(objectID string, to Zone, bottom bool) (Zone, error) {
	obj, ok := s.Objects[objectID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownObject, objectID)
	}
	owner, ok := s.Player(obj.OwnerID)
	if !ok {
		return 0, fmt.Errorf("%w: %s owns %s", ErrUnknownPlayer, obj.OwnerID, objectID)
	}
	dst := owner.zone(to)
	if dst == nil {
		return 0, fmt.Errorf("cannot move %s to %s", objectID, to)
	}

	from := obj.Zone
	src := owner.zone(from)
	if src == nil {
		return 0, fmt.Errorf("object %s records unknown zone %s", objectID, from)
	}
	i := slices.Index(*src, objectID)
	if i < 0 {
		return 0, fmt.Errorf("object %s missing from %s", objectID, from)
	}
	*src = slices.Delete(*src, i, i+1)

	if bottom {
		*dst = append(*dst, objectID)
	} else {
		*dst = slices.Insert(*dst, 0, objectID)
	}

	obj.Zone = to
	if to != ZoneBattlefield {
		obj.Tapped = false
		obj.ControllerID = obj.OwnerID
	}
	owner.DeckCount = len(owner.Library)
	return from, nil
}

// ShuffleLibrary shuffles the player's library with rng.
func (s *GameState) ShuffleLibrary(playerID string, rng *rand.Rand) error {
	p, ok := s.Player(playerID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
	}
	Shuffle(p.Library, rng)
	return nil
}

// CheckInvariants verifies that every zone entry names a live object exactly once, that each
// object sits in its owner's zone matching its Zone field, and that deck counts agree with
// library lengths.
func (s *GameState) CheckInvariants() error {
	var violations []string
	seen := make(map[string]string, len(s.Objects))
	owned := make(map[string]int, len(s.Players))

	for _, p := range s.Players {
		for z := ZoneLibrary; z <= ZoneGraveyard; z++ {
			for _, id := range *p.zone(z) {
				where := fmt.Sprintf("%s/%s", p.ID, z)
				if prev, dup := seen[id]; dup {
					violations = append(violations, fmt.Sprintf("object %s appears in %s and %s", id, prev, where))
					continue
				}
				seen[id] = where

				obj, ok := s.Objects[id]
				if !ok {
					violations = append(violations, fmt.Sprintf("%s references missing object %s", where, id))
					continue
				}
				if obj.OwnerID != p.ID {
					violations = append(violations, fmt.Sprintf("object %s owned by %s sits in %s", id, obj.OwnerID, where))
				}
				if obj.Zone != z {
					violations = append(violations, fmt.Sprintf("object %s records zone %s but sits in %s", id, obj.Zone, where))
				}
				owned[p.ID]++
			}
		}
		if p.DeckCount != len(p.Library) {
			violations = append(violations, fmt.Sprintf("player %s deck count %d, library holds %d", p.ID, p.DeckCount, len(p.Library)))
		}
	}

	ids := make([]string, 0, len(s.Objects))
	for id := range s.Objects {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			violations = append(violations, fmt.Sprintf("object %s is in no zone", id))
		}
	}

	for _, p := range s.Players {
		if owned[p.ID] != p.DeckSize {
			violations = append(violations, fmt.Sprintf("player %s owns %d objects, deck size is %d", p.ID, owned[p.ID], p.DeckSize))
		}
	}

	if s.TurnNumber < 1 {
		violations = append(violations, fmt.Sprintf("turn number %d is below 1", s.TurnNumber))
	}
	if s.Winner != "" {
		if _, ok := s.Player(s.Winner); !ok {
			violations = append(violations, fmt.Sprintf("winner %s is not a player", s.Winner))
		}
	}

	if len(violations) > 0 {
		return &InvariantError{Violations: violations}
	}
	return nil
}

// Clone returns a deep copy. Card definitions are shared since they are immutable.
func (s *GameState) Clone() *GameState {
	cp := *s
	cp.Players = make([]*PlayerState, len(s.Players))
	for i, p := range s.Players {
		cp.Players[i] = p.clone()
	}
	cp.Objects = make(map[string]*GameObject, len(s.Objects))
	for id, obj := range s.Objects {
		cp.Objects[id] = obj.clone()
	}
	return &cp
}
