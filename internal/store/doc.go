// Package store provides persistent storage for vapi-gateway using SQLite.
//
// The entire state of the system is a flat table of named option rows:
//
//	CREATE TABLE options (
//	    option_name  TEXT PRIMARY KEY,
//	    option_value TEXT NOT NULL,
//	    updated_at   DATETIME NOT NULL
//	);
//
// The settings record is one JSON-valued row; legacy installs may carry
// additional rows that migration consumes and cleanup sweeps away.
// OptionNamesLike and DropTableIfExists exist solely for that sweep.
//
// The store uses WAL mode for concurrent reads and creates its schema on
// open, so a fresh database file needs no setup step.
package store
