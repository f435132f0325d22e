// ABOUTME: Settings service: load, merge-save, reset over the option store
// ABOUTME: Partial saves always merge into the stored record, never replace it

package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// OptionStore is the persistence surface the settings service needs. The
// SQLite store implements it; tests use small fakes.
type OptionStore interface {
	// GetOption returns the raw value for a named option row. The bool
	// reports whether the row exists.
	GetOption(ctx context.Context, name string) (string, bool, error)
	SetOption(ctx context.Context, name, value string) error
	DeleteOption(ctx context.Context, name string) error

	// OptionNamesLike returns option names matching any of the LIKE
	// patterns, minus the excluded names.
	OptionNamesLike(ctx context.Context, patterns []string, exclude []string) ([]string, error)

	// DropTableIfExists removes a legacy table left behind by earlier
	// versions of the system.
	DropTableIfExists(ctx context.Context, table string) error
}

// Service owns the settings record lifecycle.
type Service struct {
	store  OptionStore
	logger *slog.Logger
}

// NewService creates a settings service backed by the given store.
func NewService(store OptionStore) *Service {
	return &Service{
		store:  store,
		logger: slog.Default().With("component", "settings"),
	}
}

// loadRecord reads the stored record as a raw key map. A missing or
// malformed row yields an empty map; merge semantics depend on key presence,
// so the raw map is the unit of storage.
func (s *Service) loadRecord(ctx context.Context) (map[string]any, error) {
	raw, ok, err := s.store.GetOption(ctx, RecordOption)
	if err != nil {
		return nil, fmt.Errorf("reading settings record: %w", err)
	}
	if !ok || raw == "" {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		s.logger.Warn("stored settings record is not valid JSON, treating as empty", "error", err)
		return map[string]any{}, nil
	}
	return m, nil
}

func (s *Service) saveRecord(ctx context.Context, record map[string]any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding settings record: %w", err)
	}
	if err := s.store.SetOption(ctx, RecordOption, string(data)); err != nil {
		return fmt.Errorf("writing settings record: %w", err)
	}
	return nil
}

// Load returns the current typed settings record.
func (s *Service) Load(ctx context.Context) (Settings, error) {
	record, err := s.loadRecord(ctx)
	if err != nil {
		return Settings{}, err
	}
	return FromMap(record)
}

// Save sanitizes a partial update and merges it into the stored record.
// Fields absent from the partial survive untouched, so concurrent saves of
// different tabs cannot clobber each other. Returns the merged record.
func (s *Service) Save(ctx context.Context, input map[string]any) (Settings, error) {
	partial := Sanitize(input)
	record, err := s.loadRecord(ctx)
	if err != nil {
		return Settings{}, err
	}
	for key, val := range partial {
		record[key] = val
	}
	if err := s.saveRecord(ctx, record); err != nil {
		return Settings{}, err
	}
	s.logger.Info("settings saved", "fields", len(partial))
	return FromMap(record)
}

// Replace overwrites the whole record with an already-sanitized partial.
// Used by import, which is a full restore point rather than a partial edit.
func (s *Service) Replace(ctx context.Context, partial Partial) (Settings, error) {
	record := make(map[string]any, len(partial))
	for key, val := range partial {
		record[key] = val
	}
	if err := s.saveRecord(ctx, record); err != nil {
		return Settings{}, err
	}
	s.logger.Info("settings replaced", "fields", len(record))
	return FromMap(record)
}

// EnsureDefaults initializes the record on first run: legacy settings are
// migrated, conflicting leftovers removed, and defaults filled in under any
// existing values.
func (s *Service) EnsureDefaults(ctx context.Context) error {
	if err := s.migrateLegacySettings(ctx); err != nil {
		return err
	}
	if err := s.cleanupConflicting(ctx); err != nil {
		return err
	}

	existing, err := s.loadRecord(ctx)
	if err != nil {
		return err
	}
	record := DefaultRecord()
	for key, val := range existing {
		record[key] = val
	}
	return s.saveRecord(ctx, record)
}

// Reset deletes the record and stored version, then reinitializes fresh
// defaults, running legacy cleanup first so a reset also clears leftovers
// from earlier versions.
func (s *Service) Reset(ctx context.Context) (Settings, error) {
	if err := s.cleanupConflicting(ctx); err != nil {
		return Settings{}, err
	}
	if err := s.store.DeleteOption(ctx, RecordOption); err != nil {
		return Settings{}, fmt.Errorf("deleting settings record: %w", err)
	}
	if err := s.store.DeleteOption(ctx, VersionOption); err != nil {
		return Settings{}, fmt.Errorf("deleting version option: %w", err)
	}

	if err := s.saveRecord(ctx, DefaultRecord()); err != nil {
		return Settings{}, err
	}
	if err := s.store.SetOption(ctx, VersionOption, Version); err != nil {
		return Settings{}, fmt.Errorf("writing version option: %w", err)
	}
	s.logger.Info("settings reset to defaults")
	return Defaults(), nil
}
