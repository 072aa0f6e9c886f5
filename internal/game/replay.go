package game

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/magefree/mage-match-engine/internal/game/rules"
	"go.uber.org/zap"
)

const replayVersion = 1

// Replay is the recorded event stream of one match. Together with the seed, the players and
// their decks it is enough to rebuild and audit the match.
type Replay struct {
	GameID       string
	Seed         int64
	Players      []string
	Events       []rules.Event
	CurrentIndex int
	mu           sync.RWMutex
}

// NewReplay creates an empty replay.
func NewReplay(gameID string) *Replay {
	return &Replay{
		GameID: gameID,
		Events: make([]rules.Event, 0),
	}
}

// Record appends an event. The creation event also fills in the seed and the seating order.
func (r *Replay) Record(evt rules.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if evt.Type == rules.EventMatchCreated {
		r.Players = append([]string(nil), evt.PlayerIDs...)
		if seed, err := strconv.ParseInt(evt.Metadata["seed"], 10, 64); err == nil {
			r.Seed = seed
		}
	}
	r.Events = append(r.Events, evt.Clone())
}

// Start resets playback to the beginning.
func (r *Replay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.CurrentIndex = 0
}

// Next returns the event at the playback position and moves forward.
func (r *Replay) Next() (rules.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex < len(r.Events) {
		evt := r.Events[r.CurrentIndex]
		r.CurrentIndex++
		return evt.Clone(), true
	}
	return rules.Event{}, false
}

// Previous moves playback back one event and returns it.
func (r *Replay) Previous() (rules.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex > 0 {
		r.CurrentIndex--
		return r.Events[r.CurrentIndex].Clone(), true
	}
	return rules.Event{}, false
}

// Skip moves playback by count events, clamped to the recorded range.
func (r *Replay) Skip(count int) (rules.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.Events) == 0 {
		return rules.Event{}, false
	}
	r.CurrentIndex = min(max(r.CurrentIndex+count, 0), len(r.Events)-1)
	return r.Events[r.CurrentIndex].Clone(), true
}

// Size returns the number of recorded events.
func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.Events)
}

// EventAt returns the event at a specific index.
func (r *Replay) EventAt(index int) (rules.Event, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index >= 0 && index < len(r.Events) {
		return r.Events[index].Clone(), true
	}
	return rules.Event{}, false
}

// InitialChecksum returns the state checksum published when the match was created.
func (r *Replay) InitialChecksum() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, evt := range r.Events {
		if evt.Type == rules.EventMatchCreated {
			return evt.Metadata["checksum"]
		}
	}
	return ""
}

// SaveToFile writes the replay to <directory>/<game id>.replay as gzip-compressed gob.
func (r *Replay) SaveToFile(directory string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := os.MkdirAll(directory, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", r.GameID))
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	encoder := gob.NewEncoder(gzipWriter)

	metadata := replayMetadata{
		GameID:     r.GameID,
		Seed:       r.Seed,
		Players:    r.Players,
		Timestamp:  time.Now(),
		Version:    replayVersion,
		EventCount: len(r.Events),
	}
	if err := encoder.Encode(&metadata); err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	for i := range r.Events {
		if err := encoder.Encode(&r.Events[i]); err != nil {
			return fmt.Errorf("failed to encode event %d: %w", i, err)
		}
	}

	if err := gzipWriter.Close(); err != nil {
		return fmt.Errorf("failed to flush replay: %w", err)
	}
	return nil
}

// LoadReplayFromFile reads a replay written by SaveToFile.
func LoadReplayFromFile(directory, gameID string) (*Replay, error) {
	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", gameID))

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	decoder := gob.NewDecoder(gzipReader)

	var metadata replayMetadata
	if err := decoder.Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if metadata.Version != replayVersion {
		return nil, fmt.Errorf("unsupported replay version: %d", metadata.Version)
	}

	replay := NewReplay(metadata.GameID)
	replay.Seed = metadata.Seed
	replay.Players = metadata.Players
	for i := 0; i < metadata.EventCount; i++ {
		var evt rules.Event
		if err := decoder.Decode(&evt); err != nil {
			return nil, fmt.Errorf("failed to decode event %d: %w", i, err)
		}
		replay.Events = append(replay.Events, evt)
	}

	return replay, nil
}

type replayMetadata struct {
	GameID     string
	Seed       int64
	Players    []string
	Timestamp  time.Time
	Version    int
	EventCount int
}

// ReplayRecorder keeps one replay per match. Recording starts automatically when a
// MATCH_CREATED event passes through Record.
type ReplayRecorder struct {
	logger  *zap.Logger
	mu      sync.RWMutex
	replays map[string]*Replay
	enabled map[string]bool
	saveDir string
}

// NewReplayRecorder creates a recorder that saves into saveDir.
func NewReplayRecorder(logger *zap.Logger, saveDir string) *ReplayRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReplayRecorder{
		logger:  logger,
		replays: make(map[string]*Replay),
		enabled: make(map[string]bool),
		saveDir: saveDir,
	}
}

// StartRecording begins recording a game. A game that is already being recorded keeps its
// replay and an error is returned; a stopped or cleared game starts over.
func (rr *ReplayRecorder) StartRecording(gameID string) error {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	if rr.enabled[gameID] {
		return fmt.Errorf("game %s is already being recorded", gameID)
	}
	rr.replays[gameID] = NewReplay(gameID)
	rr.enabled[gameID] = true

	rr.logger.Info("started replay recording", zap.String("game_id", gameID))
	return nil
}

// StopRecording stops recording a game but keeps what was recorded.
func (rr *ReplayRecorder) StopRecording(gameID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	rr.enabled[gameID] = false

	rr.logger.Info("stopped replay recording", zap.String("game_id", gameID))
}

// Record stores the event in its game's replay if recording is enabled.
func (rr *ReplayRecorder) Record(evt rules.Event) {
	if evt.Type == rules.EventMatchCreated {
		if err := rr.StartRecording(evt.GameID); err != nil {
			rr.logger.Warn("ignoring second match creation for recorded game",
				zap.String("game_id", evt.GameID),
				zap.String("event_id", evt.ID),
			)
			return
		}
	}

	rr.mu.RLock()
	enabled := rr.enabled[evt.GameID]
	replay := rr.replays[evt.GameID]
	rr.mu.RUnlock()

	if !enabled || replay == nil {
		return
	}
	replay.Record(evt)

	rr.logger.Debug("recorded replay event",
		zap.String("game_id", evt.GameID),
		zap.String("type", string(evt.Type)),
		zap.Int("event_count", replay.Size()),
	)
}

// Tee returns a listener that records each event and then forwards it to next.
func (rr *ReplayRecorder) Tee(next rules.Listener) rules.Listener {
	return func(evt rules.Event) {
		rr.Record(evt)
		if next != nil {
			next(evt)
		}
	}
}

// GetReplay returns the replay for a game.
func (rr *ReplayRecorder) GetReplay(gameID string) (*Replay, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	replay, exists := rr.replays[gameID]
	return replay, exists
}

// SaveReplay writes a replay to disk and drops it from memory.
func (rr *ReplayRecorder) SaveReplay(gameID string) error {
	rr.mu.Lock()
	replay, exists := rr.replays[gameID]
	if !exists {
		rr.mu.Unlock()
		return fmt.Errorf("no replay found for game %s", gameID)
	}
	delete(rr.replays, gameID)
	delete(rr.enabled, gameID)
	rr.mu.Unlock()

	if err := replay.SaveToFile(rr.saveDir); err != nil {
		return fmt.Errorf("failed to save replay: %w", err)
	}

	rr.logger.Info("saved replay to disk",
		zap.String("game_id", gameID),
		zap.Int("event_count", replay.Size()),
		zap.String("directory", rr.saveDir),
	)
	return nil
}

// LoadReplay reads a saved replay from the recorder's directory.
func (rr *ReplayRecorder) LoadReplay(gameID string) (*Replay, error) {
	replay, err := LoadReplayFromFile(rr.saveDir, gameID)
	if err != nil {
		return nil, err
	}

	rr.logger.Info("loaded replay from disk",
		zap.String("game_id", gameID),
		zap.Int("event_count", replay.Size()),
	)
	return replay, nil
}

// ClearReplay drops a replay without saving it.
func (rr *ReplayRecorder) ClearReplay(gameID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	delete(rr.replays, gameID)
	delete(rr.enabled, gameID)

	rr.logger.Debug("cleared replay from memory", zap.String("game_id", gameID))
}

// IsRecording reports whether recording is enabled for a game.
func (rr *ReplayRecorder) IsRecording(gameID string) bool {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	return rr.enabled[gameID]
}
