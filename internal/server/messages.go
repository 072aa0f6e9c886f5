package server

import (
	"errors"

	"github.com/magefree/mage-match-engine/internal/game"
	"github.com/magefree/mage-match-engine/internal/game/rules"
)

// Client message types.
const (
	MsgCreateMatch = "create_match"
	MsgSubscribe   = "subscribe"
	MsgUnsubscribe = "unsubscribe"
	MsgAdvance     = "advance"
	MsgMulligan    = "mulligan"
	MsgKeepHand    = "keep_hand"
	MsgConcede     = "concede"
	MsgAbandon     = "abandon"
	MsgState       = "state"
)

// Server message types.
const (
	MsgEvent = "event"
	MsgAck   = "ack"
	MsgError = "error"
)

// ClientMessage is a command sent by a websocket client.
type ClientMessage struct {
	Type      string            `json:"type"`
	RequestID string            `json:"request_id,omitempty"`
	GameID    string            `json:"game_id,omitempty"`
	PlayerID  string            `json:"player_id,omitempty"`
	Players   []string          `json:"players,omitempty"`
	Decks     map[string]string `json:"decks,omitempty"`
	Seed      int64             `json:"seed,omitempty"`
	Format    string            `json:"format,omitempty"`
}

// ServerMessage is pushed to websocket clients. Events arrive with Type "event"; command
// replies carry the originating RequestID.
type ServerMessage struct {
	Type      string       `json:"type"`
	RequestID string       `json:"request_id,omitempty"`
	GameID    string       `json:"game_id,omitempty"`
	Event     *rules.Event `json:"event,omitempty"`
	State     *MatchView   `json:"state,omitempty"`
	Error     string       `json:"error,omitempty"`
	Problems  []string     `json:"problems,omitempty"`
}

// MatchView is the public summary of a match.
type MatchView struct {
	GameID       string       `json:"game_id"`
	Turn         int          `json:"turn"`
	Phase        rules.Phase  `json:"phase"`
	ActivePlayer string       `json:"active_player"`
	Ended        bool         `json:"ended"`
	Winner       string       `json:"winner,omitempty"`
	Reason       string       `json:"reason,omitempty"`
	Checksum     string       `json:"checksum"`
	Players      []PlayerView `json:"players"`
}

// PlayerView exposes zone sizes but not hidden contents.
type PlayerView struct {
	ID          string `json:"id"`
	Life        int    `json:"life"`
	Library     int    `json:"library"`
	Hand        int    `json:"hand"`
	Battlefield int    `json:"battlefield"`
	Graveyard   int    `json:"graveyard"`
	Lost        bool   `json:"lost,omitempty"`
}

func newMatchView(state *game.GameState) *MatchView {
	view := &MatchView{
		GameID:       state.GameID,
		Turn:         state.TurnNumber,
		Phase:        state.CurrentPhase,
		ActivePlayer: state.ActivePlayerID,
		Ended:        state.GameEnded,
		Winner:       state.Winner,
		Reason:       state.EndReason,
		Checksum:     state.Checksum(),
		Players:      make([]PlayerView, 0, len(state.Players)),
	}
	for _, p := range state.Players {
		view.Players = append(view.Players, PlayerView{
			ID:          p.ID,
			Life:        p.Life,
			Library:     len(p.Library),
			Hand:        len(p.Hand),
			Battlefield: len(p.Battlefield),
			Graveyard:   len(p.Graveyard),
			Lost:        p.Lost,
		})
	}
	return view
}

func errorMessage(msg ClientMessage, err error) ServerMessage {
	out := ServerMessage{
		Type:      MsgError,
		RequestID: msg.RequestID,
		GameID:    msg.GameID,
		Error:     err.Error(),
	}
	var setupErr *game.SetupError
	if errors.As(err, &setupErr) {
		out.Problems = setupErr.Problems
	}
	return out
}
