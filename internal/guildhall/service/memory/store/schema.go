package store

import (
	"database/sql"
	"fmt"
)

const (
	TableMemories    = "memories"
	TableMemoriesFTS = "memories_fts"
)

// SchemaResult holds the outcome of schema initialization.
type SchemaResult struct {
	// FTSAvailable indicates whether FTS5 was successfully created.
	FTSAvailable bool

	// FTSError is the error message if FTS5 creation failed.
	FTSError string
}

// EnsureSchema creates the memory tables and indexes. FTS5 is attempted when
// requested; builds without the fts5 tag fall back to substring search, so a
// creation failure is reported, not fatal.
func EnsureSchema(db *sql.DB, ftsEnabled bool) (*SchemaResult, error) {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + TableMemories + ` (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			text TEXT NOT NULL,
			source TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_memories_kind ON ` + TableMemories + `(kind)`,
		`CREATE INDEX IF NOT EXISTS idx_memories_created_at ON ` + TableMemories + `(created_at)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("exec schema: %w", err)
		}
	}

	result := &SchemaResult{}
	if ftsEnabled {
		ftsSQL := `CREATE VIRTUAL TABLE IF NOT EXISTS ` + TableMemoriesFTS + ` USING fts5(
			text,
			id UNINDEXED,
			kind UNINDEXED
		)`
		if _, err := db.Exec(ftsSQL); err != nil {
			result.FTSError = err.Error()
		} else {
			result.FTSAvailable = true
		}
	}
	return result, nil
}
