package repository

// Schema holds the card catalog and deck list tables.
const Schema = `
CREATE TABLE IF NOT EXISTS cards (
	id               TEXT PRIMARY KEY,
	name             TEXT NOT NULL,
	mana_cost        TEXT NOT NULL DEFAULT '',
	colors           TEXT[] NOT NULL DEFAULT '{}',
	card_type        TEXT NOT NULL DEFAULT '',
	subtypes         TEXT[] NOT NULL DEFAULT '{}',
	supertypes       TEXT[] NOT NULL DEFAULT '{}',
	basic            BOOLEAN NOT NULL DEFAULT FALSE,
	rarity           TEXT NOT NULL DEFAULT '',
	rules_text       TEXT NOT NULL DEFAULT '',
	power            INTEGER,
	toughness        INTEGER,
	keywords         TEXT[] NOT NULL DEFAULT '{}',
	produces         TEXT NOT NULL DEFAULT '',
	abilities        JSONB NOT NULL DEFAULT '[]',
	set_code         TEXT NOT NULL DEFAULT '',
	collector_number TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS decks (
	id         TEXT PRIMARY KEY,
	owner_id   TEXT NOT NULL DEFAULT '',
	name       TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS deck_entries (
	deck_id  TEXT NOT NULL REFERENCES decks(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	card_id  TEXT NOT NULL,
	quantity INTEGER NOT NULL,
	PRIMARY KEY (deck_id, position)
);
`
