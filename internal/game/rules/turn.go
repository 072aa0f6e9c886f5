package rules

import (
	"fmt"
	"strings"
)

// Phase is one step of the skeleton turn structure.
type Phase int

const (
	PhaseUntap Phase = iota
	PhaseUpkeep
	PhaseDraw
	PhaseMain1
	PhaseCombat
	PhaseMain2
	PhaseEnd
	PhaseCleanup
)

var phaseNames = map[Phase]string{
	PhaseUntap:   "UNTAP",
	PhaseUpkeep:  "UPKEEP",
	PhaseDraw:    "DRAW",
	PhaseMain1:   "MAIN1",
	PhaseCombat:  "COMBAT",
	PhaseMain2:   "MAIN2",
	PhaseEnd:     "END",
	PhaseCleanup: "CLEANUP",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// Valid reports whether p is part of the turn structure.
func (p Phase) Valid() bool {
	_, ok := phaseNames[p]
	return ok
}

// Next returns the phase that follows p. wrapped is true when p is Cleanup and the
// sequence starts over at Untap for the next player.
func (p Phase) Next() (next Phase, wrapped bool) {
	if p >= PhaseCleanup || p < PhaseUntap {
		return PhaseUntap, true
	}
	return p + 1, false
}

// ParsePhase resolves a phase name such as "MAIN1", case-insensitively.
func ParsePhase(name string) (Phase, error) {
	want := strings.ToUpper(strings.TrimSpace(name))
	for p, n := range phaseNames {
		if n == want {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", name)
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid phase %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase name.
func (p *Phase) UnmarshalText(text []byte) error {
	parsed, err := ParsePhase(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// TurnOrder rotates the active player through a fixed seating order.
type TurnOrder struct {
	players []string
	index   int
}

// NewTurnOrder creates a rotation starting with the first player.
func NewTurnOrder(players []string) (*TurnOrder, error) {
	if len(players) == 0 {
		return nil, fmt.Errorf("turn order needs at least one player")
	}
	seen := make(map[string]bool, len(players))
	order := make([]string, 0, len(players))
	for _, p := range players {
		id := strings.TrimSpace(p)
		if id == "" {
			return nil, fmt.Errorf("turn order contains an empty player id")
		}
		if seen[id] {
			return nil, fmt.Errorf("player %s appears twice in turn order", id)
		}
		seen[id] = true
		order = append(order, id)
	}
	return &TurnOrder{players: order}, nil
}

// Players returns the seating order.
func (o *TurnOrder) Players() []string {
	return append([]string(nil), o.players...)
}

// Active returns the player whose turn it is.
func (o *TurnOrder) Active() string {
	return o.players[o.index]
}

// SetActive moves the rotation to the given player.
func (o *TurnOrder) SetActive(player string) error {
	for i, p := range o.players {
		if p == player {
			o.index = i
			return nil
		}
	}
	return fmt.Errorf("player %s is not in turn order", player)
}

// Advance passes the turn to the next player for whom skip returns false. wrapped reports
// whether the rotation went past the end of the seating order. ok is false when every player
// is skipped, in which case the rotation does not move.
func (o *TurnOrder) Advance(skip func(player string) bool) (next string, wrapped bool, ok bool) {
	n := len(o.players)
	for step := 1; step <= n; step++ {
		i := o.index + step
		candidate := o.players[i%n]
		if skip != nil && skip(candidate) {
			continue
		}
		o.index = i % n
		return candidate, i >= n, true
	}
	return "", false, false
}
