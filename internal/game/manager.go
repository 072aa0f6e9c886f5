package game

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/magefree/mage-match-engine/internal/game/rules"
	"go.uber.org/zap"
)

// Manager is the registry of live matches. A match is retired as soon as it ends: it is
// unregistered and its replay, if recorded, is written to disk.
type Manager struct {
	mu          sync.RWMutex
	matches     map[string]*Match
	pending     map[string]struct{}
	constructor *Constructor
	recorder    *ReplayRecorder
	logger      *zap.Logger
}

// NewManager creates a manager. recorder may be nil to disable replays.
func NewManager(constructor *Constructor, recorder *ReplayRecorder, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		matches:     make(map[string]*Match),
		pending:     make(map[string]struct{}),
		constructor: constructor,
		recorder:    recorder,
		logger:      logger,
	}
}

// Create builds a match and registers it under its game ID. The ID is reserved before
// construction starts, so a duplicate ID fails without emitting anything.
func (m *Manager) Create(ctx context.Context, playerIDs []string, selections map[string]string, sink rules.Listener, opts ...CreateOption) (*Match, error) {
	var o createOptions
	for _, opt := range opts {
		opt(&o)
	}
	gameID := o.gameID
	if gameID == "" {
		gameID = uuid.NewString()
		opts = append(opts[:len(opts):len(opts)], WithGameID(gameID))
	}

	m.mu.Lock()
	_, live := m.matches[gameID]
	_, building := m.pending[gameID]
	if live || building {
		m.mu.Unlock()
		return nil, fmt.Errorf("game %s already exists", gameID)
	}
	m.pending[gameID] = struct{}{}
	m.mu.Unlock()

	match, err := m.constructor.Create(ctx, playerIDs, selections, m.sinkFor(gameID, sink), opts...)

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, gameID)
	if err != nil {
		return nil, err
	}
	m.matches[gameID] = match

	m.logger.Info("match registered",
		zap.String("game_id", gameID),
		zap.Int("active_matches", len(m.matches)),
	)
	return match, nil
}

// sinkFor records each event, hands it to the caller's sink and retires the match once
// GAME_ENDED has been delivered. It runs with the match mutex held and never calls back into
// the match.
func (m *Manager) sinkFor(gameID string, next rules.Listener) rules.Listener {
	if m.recorder != nil {
		next = m.recorder.Tee(next)
	}
	return func(evt rules.Event) {
		if next != nil {
			next(evt)
		}
		if evt.Type == rules.EventGameEnded {
			m.retire(gameID)
		}
	}
}

// retire unregisters a match and saves its replay. It is safe to call more than once.
func (m *Manager) retire(gameID string) {
	m.mu.Lock()
	_, ok := m.matches[gameID]
	delete(m.matches, gameID)
	remaining := len(m.matches)
	m.mu.Unlock()

	if m.recorder != nil && m.recorder.IsRecording(gameID) {
		if err := m.recorder.SaveReplay(gameID); err != nil {
			m.logger.Warn("failed to save replay", zap.String("game_id", gameID), zap.Error(err))
		}
	}
	if ok {
		m.logger.Info("match retired",
			zap.String("game_id", gameID),
			zap.Int("active_matches", remaining),
		)
	}
}

// Get returns a registered match.
func (m *Manager) Get(gameID string) (*Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	match, ok := m.matches[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGame, gameID)
	}
	return match, nil
}

// Advance moves a match one phase forward.
func (m *Manager) Advance(gameID string) error {
	match, err := m.Get(gameID)
	if err != nil {
		return err
	}
	return match.AdvancePhase()
}

// Concede concedes a match on behalf of a player.
func (m *Manager) Concede(gameID, playerID string) error {
	match, err := m.Get(gameID)
	if err != nil {
		return err
	}
	return match.Concede(playerID)
}

// Abandon ends a match without a winner, which retires it.
func (m *Manager) Abandon(gameID string) error {
	match, err := m.Get(gameID)
	if err != nil {
		return err
	}
	return match.Abandon()
}

// Remove abandons a running match and makes sure it is unregistered and its replay saved.
func (m *Manager) Remove(gameID string) error {
	match, err := m.Get(gameID)
	if err != nil {
		return err
	}
	if err := match.Abandon(); err != nil {
		return err
	}
	m.retire(gameID)

	m.logger.Info("match removed", zap.String("game_id", gameID))
	return nil
}

// List returns the IDs of all registered matches, sorted.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.matches))
	for id := range m.matches {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ActiveCount returns how many registered matches have not ended.
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	matches := make([]*Match, 0, len(m.matches))
	for _, match := range m.matches {
		matches = append(matches, match)
	}
	m.mu.RUnlock()

	count := 0
	for _, match := range matches {
		if !match.Ended() {
			count++
		}
	}
	return count
}
