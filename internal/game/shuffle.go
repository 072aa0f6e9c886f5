package game

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"time"
)

// ResolveSeed returns seed unchanged unless it is zero, in which case a fresh seed is drawn
// from the operating system's entropy source.
func ResolveSeed(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		return time.Now().UnixNano()
	}
	s := int64(binary.LittleEndian.Uint64(buf[:]))
	if s == 0 {
		s = 1
	}
	return s
}

// NewRandom creates the generator a match draws all of its randomness from.
func NewRandom(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(ResolveSeed(seed)))
}

// Shuffle permutes zone in place with the Fisher-Yates algorithm: walking from the last index
// down to 1, each element is swapped with one chosen uniformly from the unshuffled prefix,
// itself included.
func Shuffle[T any](zone []T, rng *rand.Rand) {
	for i := len(zone) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		zone[i], zone[j] = zone[j], zone[i]
	}
}
