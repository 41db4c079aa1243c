package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/GoSim-25-26J-441/erp-backend/config"
)

// NewConnection opens the database/sql handle behind the identity store. It
// may open half as many connections as the tenant pool, and at least 2.
func NewConnection(cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("open identity db: %w", err)
	}

	maxOpen := cfg.MaxConns / 2
	if maxOpen < 2 {
		maxOpen = 2
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(1)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("identity db ping: %w", err)
	}

	return db, nil
}
