package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/magefree/mage-match-engine/internal/game/catalog"
	"go.uber.org/zap"
)

const cardColumns = `id, name, mana_cost, colors, card_type, subtypes, supertypes, basic, rarity,
	rules_text, power, toughness, keywords, produces, abilities, set_code, collector_number`

const upsertCard = `
INSERT INTO cards (` + cardColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	mana_cost = EXCLUDED.mana_cost,
	colors = EXCLUDED.colors,
	card_type = EXCLUDED.card_type,
	subtypes = EXCLUDED.subtypes,
	supertypes = EXCLUDED.supertypes,
	basic = EXCLUDED.basic,
	rarity = EXCLUDED.rarity,
	rules_text = EXCLUDED.rules_text,
	power = EXCLUDED.power,
	toughness = EXCLUDED.toughness,
	keywords = EXCLUDED.keywords,
	produces = EXCLUDED.produces,
	abilities = EXCLUDED.abilities,
	set_code = EXCLUDED.set_code,
	collector_number = EXCLUDED.collector_number`

// CardStore persists catalog records.
type CardStore struct {
	db     Querier
	logger *zap.Logger
}

// NewCardStore creates a store over a pool or transaction.
func NewCardStore(db Querier, logger *zap.Logger) *CardStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CardStore{db: db, logger: logger}
}

// Records returns every stored card ordered by identifier.
func (s *CardStore) Records(ctx context.Context) ([]catalog.Record, error) {
	rows, err := s.db.Query(ctx, `SELECT `+cardColumns+` FROM cards ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}
	records, err := pgx.CollectRows(rows, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("scan cards: %w", err)
	}
	return records, nil
}

// LoadCatalog reads every stored card into an immutable catalog.
func (s *CardStore) LoadCatalog(ctx context.Context) (*catalog.MemoryCatalog, error) {
	records, err := s.Records(ctx)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.FromRecords(records)
	if err != nil {
		return nil, err
	}
	s.logger.Info("card catalog loaded", zap.Int("cards", cat.Len()))
	return cat, nil
}

// Upsert inserts or replaces the given records in one batch.
func (s *CardStore) Upsert(ctx context.Context, tx pgx.Tx, records []catalog.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(upsertCard, recordArgs(r)...)
	}

	results := tx.SendBatch(ctx, batch)
	written := 0
	for _, r := range records {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return written, fmt.Errorf("upsert card %s: %w", r.ID, err)
		}
		written++
	}
	if err := results.Close(); err != nil {
		return written, err
	}
	return written, nil
}

// Count returns the number of stored cards.
func (s *CardStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM cards`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cards: %w", err)
	}
	return n, nil
}

func recordArgs(r catalog.Record) []any {
	abilities := r.Abilities
	if abilities == nil {
		abilities = []catalog.Ability{}
	}
	return []any{
		r.ID,
		r.Name,
		r.ManaCost,
		nonNil(r.Colors),
		r.Type,
		nonNil(r.Subtypes),
		nonNil(r.Supertypes),
		r.Basic,
		r.Rarity,
		r.Text,
		r.Power,
		r.Toughness,
		nonNil(r.Keywords),
		r.Produces,
		abilities,
		r.SetCode,
		r.CollectorNumber,
	}
}

func scanRecord(row pgx.CollectableRow) (catalog.Record, error) {
	var r catalog.Record
	err := row.Scan(
		&r.ID,
		&r.Name,
		&r.ManaCost,
		&r.Colors,
		&r.Type,
		&r.Subtypes,
		&r.Supertypes,
		&r.Basic,
		&r.Rarity,
		&r.Text,
		&r.Power,
		&r.Toughness,
		&r.Keywords,
		&r.Produces,
		&r.Abilities,
		&r.SetCode,
		&r.CollectorNumber,
	)
	return r, err
}

// nonNil keeps NOT NULL array columns from receiving NULL.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
