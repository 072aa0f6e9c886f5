package game

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// ChecksumVersion is bumped whenever the canonical rendering changes.
const ChecksumVersion = 1

// Checksum computes a SHA-256 digest of the state's canonical rendering. Two states that agree
// on every game-relevant field, including library order, hash the same regardless of map
// iteration order.
func (s *GameState) Checksum() string {
	sum := sha256.Sum256([]byte(s.canonical()))
	return hex.EncodeToString(sum[:])
}

// VerifyChecksum reports whether the state still hashes to expected.
func (s *GameState) VerifyChecksum(expected string) bool {
	return s.Checksum() == expected
}

func (s *GameState) canonical() string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "V%d\n", ChecksumVersion)
	fmt.Fprintf(&buf, "GAME:%s|%d|%s|%s|%t|%s|%s\n",
		s.GameID,
		s.TurnNumber,
		s.CurrentPhase,
		s.ActivePlayerID,
		s.GameEnded,
		s.Winner,
		s.EndReason,
	)

	// Seating order is game state, so players are not sorted.
	for _, p := range s.Players {
		fmt.Fprintf(&buf, "PLAYER:%s|%d|%d|%d|%d|%t|%t|%s\n",
			p.ID,
			p.Life,
			p.DeckCount,
			p.DeckSize,
			p.MulliganCount,
			p.KeptHand,
			p.Lost,
			p.LossReason,
		)
		for z := ZoneLibrary; z <= ZoneGraveyard; z++ {
			fmt.Fprintf(&buf, "  %s:%s\n", strings.ToUpper(z.String()), strings.Join(*p.zone(z), ","))
		}
	}

	ids := make([]string, 0, len(s.Objects))
	for id := range s.Objects {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		obj := s.Objects[id]
		fmt.Fprintf(&buf, "OBJECT:%s|%s|%s|%s|%s|%t\n",
			id,
			obj.CardID,
			obj.OwnerID,
			obj.ControllerID,
			obj.Zone,
			obj.Tapped,
		)
		if obj.Counters != nil {
			for _, c := range obj.Counters.List() {
				fmt.Fprintf(&buf, "  COUNTER:%s=%d\n", c.Name, c.Count)
			}
		}
	}

	return buf.String()
}
