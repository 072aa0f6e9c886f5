package game

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/magefree/mage-match-engine/internal/game/catalog"
	"github.com/magefree/mage-match-engine/internal/game/deck"
	"github.com/magefree/mage-match-engine/internal/game/rules"
	"go.uber.org/zap"
)

// ConstructorConfig wires the collaborators a Constructor reads from.
type ConstructorConfig struct {
	Catalog catalog.Catalog
	Decks   deck.Repository
	Format  deck.Format
	// Seed is used for matches created without WithSeed. Zero draws a fresh seed per match.
	Seed   int64
	Logger *zap.Logger
}

// Constructor builds matches from player deck selections.
type Constructor struct {
	catalog catalog.Catalog
	decks   deck.Repository
	format  deck.Format
	seed    int64
	logger  *zap.Logger
}

// NewConstructor validates the configuration and returns a Constructor.
func NewConstructor(cfg ConstructorConfig) (*Constructor, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("constructor requires a card catalog")
	}
	if cfg.Decks == nil {
		return nil, errors.New("constructor requires a deck repository")
	}
	if err := cfg.Format.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Constructor{
		catalog: cfg.Catalog,
		decks:   cfg.Decks,
		format:  cfg.Format,
		seed:    cfg.Seed,
		logger:  logger,
	}, nil
}

// Catalog returns the catalog matches are built from.
func (c *Constructor) Catalog() catalog.Catalog {
	return c.catalog
}

// Format returns the default format.
func (c *Constructor) Format() deck.Format {
	return c.format
}

type createOptions struct {
	seed   int64
	gameID string
	format *deck.Format
}

// CreateOption customizes a single Create call.
type CreateOption func(*createOptions)

// WithSeed fixes the seed of the match's random source, making setup and every later shuffle
// reproducible. Zero asks for a fresh seed.
func WithSeed(seed int64) CreateOption {
	return func(o *createOptions) {
		o.seed = seed
	}
}

// WithGameID sets the game identifier instead of generating one.
func WithGameID(gameID string) CreateOption {
	return func(o *createOptions) {
		o.gameID = strings.TrimSpace(gameID)
	}
}

// WithFormat overrides the constructor's default format.
func WithFormat(format deck.Format) CreateOption {
	return func(o *createOptions) {
		o.format = &format
	}
}

// Create resolves and validates every player's deck, builds one game object per card copy,
// shuffles each library, deals opening hands and returns the match positioned at turn 1,
// Untap, with the first listed player active. Exactly one MATCH_CREATED event reaches the
// sink before Create returns. On failure nothing is emitted.
func (c *Constructor) Create(ctx context.Context, playerIDs []string, selections map[string]string, sink rules.Listener, opts ...CreateOption) (*Match, error) {
	o := createOptions{seed: c.seed}
	for _, opt := range opts {
		opt(&o)
	}
	format := c.format
	if o.format != nil {
		if err := o.format.Validate(); err != nil {
			return nil, err
		}
		format = *o.format
	}

	if len(playerIDs) < 2 {
		return nil, fmt.Errorf("%w: need at least two players, got %d", ErrInvalidPlayers, len(playerIDs))
	}
	order, err := rules.NewTurnOrder(playerIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPlayers, err)
	}
	players := order.Players()

	lists, err := c.resolveDecks(ctx, players, selections, format)
	if err != nil {
		return nil, err
	}

	gameID := o.gameID
	if gameID == "" {
		gameID = uuid.New().String()
	}
	seed := ResolveSeed(o.seed)
	rng := NewRandom(seed)

	state := NewGameState(gameID, players, format.StartingLife)
	for i, playerID := range players {
		n := 0
		for _, entry := range lists[i].Entries {
			def, _ := c.catalog.Get(entry.CardID)
			for q := 0; q < entry.Quantity; q++ {
				if _, err := state.AddToLibrary(playerID, objectID(gameID, playerID, n), def); err != nil {
					return nil, fmt.Errorf("build library for %s: %w", playerID, err)
				}
				n++
			}
		}
	}

	for _, playerID := range players {
		if err := state.ShuffleLibrary(playerID, rng); err != nil {
			return nil, err
		}
	}

	// Opening hands are part of setup and are summarized by the creation event.
	for _, playerID := range players {
		for i := 0; i < format.OpeningHandSize; i++ {
			if ok, err := state.DrawCard(playerID); err != nil || !ok {
				return nil, fmt.Errorf("deal opening hand for %s: library ran out after %d cards", playerID, i)
			}
		}
	}

	m := newMatch(state, order, format, rng, seed, sink, c.logger)
	m.emitCreated()

	c.logger.Info("match created",
		zap.String("game_id", gameID),
		zap.Strings("players", players),
		zap.String("format", format.Name),
		zap.Int64("seed", seed),
	)
	return m, nil
}

func (c *Constructor) resolveDecks(ctx context.Context, players []string, selections map[string]string, format deck.Format) ([]deck.DeckList, error) {
	validator := deck.NewValidator(format)
	lists := make([]deck.DeckList, 0, len(players))

	for _, playerID := range players {
		deckID := strings.TrimSpace(selections[playerID])
		if deckID == "" {
			return nil, &SetupError{PlayerID: playerID, Err: ErrMissingDeckSelection}
		}

		list, found, err := c.decks.Fetch(ctx, deckID)
		if err != nil {
			return nil, &SetupError{PlayerID: playerID, DeckID: deckID, Err: fmt.Errorf("fetch deck: %w", err)}
		}
		if !found {
			return nil, &SetupError{PlayerID: playerID, DeckID: deckID, Err: ErrUnknownDeck}
		}

		verdict := validator.Validate(list, c.catalog)
		if !verdict.Valid {
			c.logger.Debug("deck rejected",
				zap.String("player_id", playerID),
				zap.String("deck_id", deckID),
				zap.Strings("problems", verdict.Errors),
			)
			return nil, &SetupError{PlayerID: playerID, DeckID: deckID, Problems: verdict.Errors, Err: ErrInvalidDeck}
		}
		lists = append(lists, list)
	}
	return lists, nil
}

// objectID derives a stable identifier for the n-th card of a player's deck, so that the same
// game ID always yields the same object IDs.
func objectID(gameID, playerID string, n int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(gameID+"/"+playerID+"/"+strconv.Itoa(n))).String()
}
