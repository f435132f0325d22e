// ABOUTME: SQLite-backed option store using modernc.org/sqlite
// ABOUTME: One options table of name/value rows with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists named option values in a single table, mirroring the
// flat options layout the settings record historically lived in.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) the option database at the given path.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("option store initialized", "path", path)
	return s, nil
}

func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS options (
			option_name  TEXT PRIMARY KEY,
			option_value TEXT NOT NULL,
			updated_at   DATETIME NOT NULL
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetOption returns the value of a named option row. The bool reports
// whether the row exists.
func (s *SQLiteStore) GetOption(ctx context.Context, name string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT option_value FROM options WHERE option_name = ?", name,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying option %s: %w", name, err)
	}
	return value, true, nil
}

// SetOption writes an option row, replacing any existing value. The write
// is a single upsert statement, so individual option updates are atomic.
func (s *SQLiteStore) SetOption(ctx context.Context, name, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO options (option_name, option_value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(option_name) DO UPDATE SET
			option_value = excluded.option_value,
			updated_at = excluded.updated_at
	`, name, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upserting option %s: %w", name, err)
	}
	return nil
}

// DeleteOption removes an option row. Deleting a missing row is not an
// error.
func (s *SQLiteStore) DeleteOption(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM options WHERE option_name = ?", name); err != nil {
		return fmt.Errorf("deleting option %s: %w", name, err)
	}
	return nil
}

// OptionNamesLike returns option names matching any of the LIKE patterns
// (backslash-escaped), excluding the given names. Used by the legacy
// cleanup sweep.
func (s *SQLiteStore) OptionNamesLike(ctx context.Context, patterns []string, exclude []string) ([]string, error) {
	if len(patterns) == 0 {
		return nil, nil
	}

	var clauses []string
	var args []any
	for _, p := range patterns {
		clauses = append(clauses, `option_name LIKE ? ESCAPE '\'`)
		args = append(args, p)
	}
	query := "SELECT option_name FROM options WHERE (" + strings.Join(clauses, " OR ") + ")"
	for _, name := range exclude {
		query += " AND option_name != ?"
		args = append(args, name)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying option names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning option name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// tableNamePattern restricts droppable table names to plain identifiers so
// legacy table names can never smuggle SQL.
var tableNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// DropTableIfExists removes a legacy table left behind by earlier versions.
// Names that are not plain identifiers are rejected.
func (s *SQLiteStore) DropTableIfExists(ctx context.Context, table string) error {
	if !tableNamePattern.MatchString(table) {
		return fmt.Errorf("invalid table name %q", table)
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS "%s"`, table)); err != nil {
		return fmt.Errorf("dropping table %s: %w", table, err)
	}
	return nil
}
