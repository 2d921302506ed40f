package database

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect/sql"
)

// CreateGINIndexes creates full-text search GIN indexes for PostgreSQL.
// ent has no tsvector field type, so these are issued as raw SQL against
// the driver's underlying *sql.DB after migrations apply, rather than
// expressed in the ent schema DSL.
func CreateGINIndexes(ctx context.Context, driver *sql.Driver) error {
	db := driver.DB()

	// GIN index for chunk text, the lexical half of retrieval candidate
	// generation (spec §4.2).
	_, err := db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_chunks_text_gin
		ON chunks USING gin(to_tsvector('english', text))`)
	if err != nil {
		return fmt.Errorf("failed to create chunks text GIN index: %w", err)
	}

	// GIN index for curated knowledge notes, shared in the same retrieval
	// pool as chunks when tagged appropriately.
	_, err = db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_knowledge_notes_text_gin
		ON knowledge_notes USING gin(to_tsvector('english', text))`)
	if err != nil {
		return fmt.Errorf("failed to create knowledge_notes text GIN index: %w", err)
	}

	return nil
}
