// Package datastore persists batch outcomes to a local SQLite database.
package datastore

// Store defines the interface for local SQLite storage
type Store interface {
	// Connect establishes a connection to the data store
	Connect() error

	// CreateTable creates a new table with the given schema if it doesn't exist
	CreateTable(schema string) error

	// BatchInsert inserts multiple records into the specified table
	BatchInsert(table string, records []map[string]any) error

	// Close closes the connection to the data store
	Close() error
}

// OutcomesTable holds one row per resolved record per run.
const OutcomesTable = "outcomes"

// OutcomesSchema creates OutcomesTable.
const OutcomesSchema = `CREATE TABLE IF NOT EXISTS outcomes (
	run_id TEXT NOT NULL,
	record_index INTEGER NOT NULL,
	title TEXT,
	author TEXT,
	input_year INTEGER,
	priority_isbn TEXT,
	language TEXT,
	search_title TEXT,
	search_author TEXT,
	status TEXT NOT NULL,
	source_status TEXT,
	found_title TEXT,
	found_author TEXT,
	found_isbn TEXT,
	found_year INTEGER,
	found_source TEXT,
	message TEXT NOT NULL,
	newer INTEGER NOT NULL DEFAULT 0,
	resolved_at TEXT NOT NULL,
	PRIMARY KEY (run_id, record_index)
)`
