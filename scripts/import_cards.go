package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/magefree/mage-match-engine/internal/config"
	"github.com/magefree/mage-match-engine/internal/game/catalog"
	"github.com/magefree/mage-match-engine/internal/game/deck"
	"github.com/magefree/mage-match-engine/internal/repository"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	cardsPath := flag.String("cards", "", "card catalog YAML (defaults to catalog.cards_path)")
	decksPath := flag.String("decks", "", "deck list YAML (defaults to catalog.decks_path)")
	reset := flag.Bool("reset", false, "delete existing cards and decks before importing")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *cardsPath == "" {
		*cardsPath = cfg.Catalog.CardsPath
	}
	if *decksPath == "" {
		*decksPath = cfg.Catalog.DecksPath
	}

	fmt.Println("=== Card Catalog Import ===")
	for _, p := range []string{*cardsPath, *decksPath} {
		absPath, err := filepath.Abs(p)
		if err != nil {
			log.Fatalf("Failed to get absolute path: %v", err)
		}
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			log.Fatalf("File not found: %s", absPath)
		}
		fmt.Printf("Source: %s\n", absPath)
	}

	records, err := catalog.ReadRecords(*cardsPath)
	if err != nil {
		log.Fatalf("Failed to read cards: %v", err)
	}
	// Parse every record before touching the database so a bad file imports nothing.
	cards, err := catalog.FromRecords(records)
	if err != nil {
		log.Fatalf("Invalid card catalog: %v", err)
	}
	fmt.Printf("Parsed %d cards\n", cards.Len())

	lists, err := deck.LoadFile(*decksPath)
	if err != nil {
		log.Fatalf("Failed to read decks: %v", err)
	}
	format, err := cfg.Format.Resolve()
	if err != nil {
		log.Fatalf("Invalid format: %v", err)
	}
	validator := deck.NewValidator(format)
	for _, list := range lists {
		if verdict := validator.Validate(list, cards); !verdict.Valid {
			fmt.Printf("Warning: deck %s is not legal in %s: %v\n", list.ID, format.Name, verdict.Errors)
		}
	}
	fmt.Printf("Parsed %d decks\n", len(lists))

	fmt.Printf("Connecting to database...\n")
	db, err := repository.NewDB(ctx, cfg.Database, zap.NewNop())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	fmt.Println("✓ Database connection established")

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	cardStore := repository.NewCardStore(db, nil)
	deckStore := repository.NewDeckStore(db, nil)

	existing, err := cardStore.Count(ctx)
	if err != nil {
		log.Fatalf("Failed to check existing cards: %v", err)
	}
	if existing > 0 {
		fmt.Printf("Database already contains %d cards\n", existing)
	}

	startTime := time.Now()
	var imported int
	err = db.InTx(ctx, func(tx pgx.Tx) error {
		if *reset {
			fmt.Println("Clearing existing cards and decks...")
			if _, err := tx.Exec(ctx, "TRUNCATE deck_entries, decks, cards"); err != nil {
				return fmt.Errorf("clear tables: %w", err)
			}
		}

		n, err := cardStore.Upsert(ctx, tx, records)
		if err != nil {
			return err
		}
		imported = n

		for _, list := range lists {
			if err := deckStore.Save(ctx, tx, list); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Import failed, nothing was written: %v", err)
	}
	duration := time.Since(startTime)

	fmt.Println("\n=== Import Complete ===")
	fmt.Printf("✓ Cards written: %d\n", imported)
	fmt.Printf("✓ Decks written: %d\n", len(lists))
	fmt.Printf("Time taken: %s\n", duration)

	if total, err := cardStore.Count(ctx); err == nil {
		fmt.Printf("\nTotal cards in database: %d\n", total)
	}
}
