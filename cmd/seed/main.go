package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/opsboard/operator-auth/config"
	"github.com/opsboard/operator-auth/internal/domain/entity"
	"github.com/opsboard/operator-auth/pkg/helpers"
)

// Seeds the genesis operator under its reserved id. Safe to run more
// than once: an existing genesis operator is left untouched.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	if cfg.GenesisPassword == "" {
		log.Fatal("GENESIS_PASSWORD must be set")
	}

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	hash, err := helpers.HashPassword(cfg.GenesisPassword)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	_, err = db.Exec(`
		INSERT INTO operators (id, email, display_name, password_hash)
		VALUES ($1, $2, $3, $4)
	`, entity.GenesisID, cfg.GenesisEmail, cfg.GenesisName, hash)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			fmt.Println("genesis operator already exists, skipping seed")
			return
		}
		log.Fatalf("failed to seed genesis operator: %v", err)
	}

	// Keep the sequence clear of the reserved id.
	if _, err := db.Exec(`SELECT setval('operators_id_seq', GREATEST((SELECT MAX(id) FROM operators), $1))`, entity.GenesisID); err != nil {
		log.Fatalf("failed to advance operator sequence: %v", err)
	}

	fmt.Printf("seeded genesis operator: id=%d email=%s name=%s\n", entity.GenesisID, cfg.GenesisEmail, cfg.GenesisName)
}
