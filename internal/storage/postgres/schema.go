package postgres

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// Schema returns the DDL for every table. Statements are idempotent.
func Schema() string {
	return schemaSQL
}

// ApplySchema creates missing tables and indexes. It is meant for development
// databases and tests, not for evolving a production schema.
func ApplySchema(ctx context.Context, db Querier) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
