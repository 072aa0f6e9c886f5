package game

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrGameEnded            = errors.New("game has ended")
	ErrUnknownPlayer        = errors.New("unknown player")
	ErrUnknownObject        = errors.New("unknown game object")
	ErrUnknownGame          = errors.New("unknown game")
	ErrMulliganClosed       = errors.New("mulligan is closed")
	ErrMissingDeckSelection = errors.New("no deck selected")
	ErrUnknownDeck          = errors.New("unknown deck")
	ErrInvalidDeck          = errors.New("invalid deck")
	ErrInvalidPlayers       = errors.New("invalid player list")
	ErrPlayerLost           = errors.New("player has already lost")
)

// SetupError reports why a match could not be constructed for a specific player.
type SetupError struct {
	PlayerID string
	DeckID   string
	Problems []string
	Err      error
}

func (e *SetupError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "match setup failed for player %s", e.PlayerID)
	if e.DeckID != "" {
		fmt.Fprintf(&b, " (deck %s)", e.DeckID)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if len(e.Problems) > 0 {
		fmt.Fprintf(&b, ": %s", strings.Join(e.Problems, "; "))
	}
	return b.String()
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

// InvariantError lists every zone or bookkeeping inconsistency found in a game state.
type InvariantError struct {
	Violations []string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("game state invariant violated: %s", strings.Join(e.Violations, "; "))
}
