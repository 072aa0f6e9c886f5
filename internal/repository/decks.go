package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/magefree/mage-match-engine/internal/game/deck"
	"go.uber.org/zap"
)

const uniqueViolation = "23505"

var _ deck.Repository = (*DeckStore)(nil)

// ErrDeckExists is returned by Create for an identifier already in use.
var ErrDeckExists = errors.New("deck already exists")

// DeckStore is a Postgres-backed deck.Repository.
type DeckStore struct {
	db     *DB
	logger *zap.Logger
}

// NewDeckStore creates a deck store.
func NewDeckStore(db *DB, logger *zap.Logger) *DeckStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeckStore{db: db, logger: logger}
}

// Fetch loads a deck and its entries in list order.
func (s *DeckStore) Fetch(ctx context.Context, deckID string) (deck.DeckList, bool, error) {
	list := deck.DeckList{ID: deckID}
	err := s.db.QueryRow(ctx, `SELECT owner_id, name FROM decks WHERE id = $1`, deckID).
		Scan(&list.OwnerID, &list.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return deck.DeckList{}, false, nil
	}
	if err != nil {
		return deck.DeckList{}, false, fmt.Errorf("query deck %s: %w", deckID, err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT card_id, quantity FROM deck_entries WHERE deck_id = $1 ORDER BY position`, deckID)
	if err != nil {
		return deck.DeckList{}, false, fmt.Errorf("query deck entries %s: %w", deckID, err)
	}
	list.Entries, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (deck.Entry, error) {
		var e deck.Entry
		err := row.Scan(&e.CardID, &e.Quantity)
		return e, err
	})
	if err != nil {
		return deck.DeckList{}, false, fmt.Errorf("scan deck entries %s: %w", deckID, err)
	}
	return list, true, nil
}

// Create stores a new deck. An existing identifier yields ErrDeckExists.
func (s *DeckStore) Create(ctx context.Context, deckID, ownerID, name string, entries []deck.Entry) (deck.DeckList, error) {
	deckID = strings.TrimSpace(deckID)
	if deckID == "" {
		return deck.DeckList{}, errors.New("deck id is required")
	}
	list := deck.DeckList{
		ID:      deckID,
		OwnerID: ownerID,
		Name:    name,
		Entries: append([]deck.Entry(nil), entries...),
	}

	err := s.db.InTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `INSERT INTO decks (id, owner_id, name) VALUES ($1, $2, $3)`, deckID, ownerID, name)
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDeckExists, deckID)
		}
		if err != nil {
			return fmt.Errorf("insert deck %s: %w", deckID, err)
		}
		return copyEntries(ctx, tx, deckID, list.Entries)
	})
	if err != nil {
		return deck.DeckList{}, err
	}

	s.logger.Debug("deck created", zap.String("deck_id", deckID), zap.Int("cards", list.TotalCards()))
	return list, nil
}

// Save inserts or replaces a deck inside tx.
func (s *DeckStore) Save(ctx context.Context, tx pgx.Tx, list deck.DeckList) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO decks (id, owner_id, name) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET owner_id = EXCLUDED.owner_id, name = EXCLUDED.name`,
		list.ID, list.OwnerID, list.Name)
	if err != nil {
		return fmt.Errorf("upsert deck %s: %w", list.ID, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM deck_entries WHERE deck_id = $1`, list.ID); err != nil {
		return fmt.Errorf("clear deck entries %s: %w", list.ID, err)
	}
	return copyEntries(ctx, tx, list.ID, list.Entries)
}

func copyEntries(ctx context.Context, tx pgx.Tx, deckID string, entries []deck.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"deck_entries"},
		[]string{"deck_id", "position", "card_id", "quantity"},
		pgx.CopyFromRows(entryRows(deckID, entries)),
	)
	if err != nil {
		return fmt.Errorf("copy deck entries %s: %w", deckID, err)
	}
	return nil
}

func entryRows(deckID string, entries []deck.Entry) [][]any {
	rows := make([][]any, len(entries))
	for i, e := range entries {
		rows[i] = []any{deckID, int32(i), e.CardID, int32(e.Quantity)}
	}
	return rows
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
