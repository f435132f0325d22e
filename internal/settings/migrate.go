// ABOUTME: One-time legacy settings migration and conflicting-option cleanup
// ABOUTME: Migration sources are data; runs when the stored version is stale

package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// LegacySource describes one place earlier versions kept settings. A source
// with an Option name is a grouped record (one row holding a JSON object);
// a source without one maps standalone option rows.
type LegacySource struct {
	Option string
	Fields map[string]string // legacy key -> unified key
}

// legacySources enumerates every known legacy layout. Values migrate into
// the unified record only where the unified key is currently absent; the
// current record always wins over legacy data.
var legacySources = []LegacySource{
	{
		Option: "voice_ai_agent_vapi_settings",
		Fields: map[string]string{
			"vapi_api_key":         "vapi_api_key",
			"vapi_assistant_id":    "vapi_assistant_id",
			"vapi_button_position": "vapi_button_position",
			"vapi_button_fixed":    "vapi_button_fixed",
			"vapi_button_offset":   "vapi_button_offset",
			"vapi_button_width":    "vapi_button_width",
			"vapi_button_height":   "vapi_button_height",
		},
	},
	{
		Fields: map[string]string{
			"Vapi_api_key":         "vapi_api_key",
			"Vapi_assistant_id":    "vapi_assistant_id",
			"Vapi_private_api_key": "vapi_private_api_key",
			"Vapi_button_position": "vapi_button_position",
			"Vapi_button_fixed":    "vapi_button_fixed",
		},
	},
}

// conflictingOptions are individually-named leftovers from earlier versions
// that are deleted outright after migration.
var conflictingOptions = []string{
	"voice_ai_agent_general_settings",
	"voice_ai_agent_vapi_settings",
	"voice_ai_agent_elevenlabs_settings",
	"Vapi_api_key",
	"Vapi_assistant_id",
	"Vapi_button_position",
	"Vapi_button_fixed",
	"Vapi_private_api_key",
	"Vapi_public_api_key",
	"Vapi_use_widget",
	"Vapi_enable_analytics",
	"Vapi_enable_transcripts",
}

// legacyPrefixes drive the generic sweep for pattern-named leftovers.
var legacyPrefixes = []string{"voice_ai_agent_", "Vapi_", "VAPI_"}

// legacyTables are orphaned analytics tables from earlier versions.
var legacyTables = []string{"vapi_analytics", "Vapi_analytics", "voice_ai_agent_analytics"}

// MigrateLegacy copies mapped values from resolved legacy sources into the
// current record wherever the destination key is absent. Pure and
// idempotent; lookup resolves a legacy value by its old key.
func MigrateLegacy(current map[string]any, sources []LegacySource, lookup func(oldKey string) (any, bool)) map[string]any {
	migrated := make(map[string]any, len(current))
	for k, v := range current {
		migrated[k] = v
	}
	for _, src := range sources {
		for oldKey, newKey := range src.Fields {
			if _, exists := migrated[newKey]; exists {
				continue
			}
			if val, ok := lookup(oldKey); ok {
				migrated[newKey] = val
			}
		}
	}
	return migrated
}

// MigrateIfNeeded runs migration and cleanup whenever the stored installed
// version is older than the running version, then bumps the stored version
// so the pass does not repeat.
func (s *Service) MigrateIfNeeded(ctx context.Context) error {
	installed, ok, err := s.store.GetOption(ctx, VersionOption)
	if err != nil {
		return fmt.Errorf("reading installed version: %w", err)
	}
	if !ok {
		installed = "0.0"
	}
	if compareVersions(installed, Version) >= 0 {
		return nil
	}

	s.logger.Info("running settings migration", "from", installed, "to", Version)
	if err := s.migrateLegacySettings(ctx); err != nil {
		return err
	}
	if err := s.cleanupConflicting(ctx); err != nil {
		return err
	}
	if err := s.store.SetOption(ctx, VersionOption, Version); err != nil {
		return fmt.Errorf("writing installed version: %w", err)
	}
	return nil
}

// migrateLegacySettings resolves the legacy sources against the store and
// folds their values into the current record.
func (s *Service) migrateLegacySettings(ctx context.Context) error {
	current, err := s.loadRecord(ctx)
	if err != nil {
		return err
	}

	// Grouped sources hold a JSON object in a single row; standalone
	// sources are one row per key.
	grouped := map[string]map[string]any{}
	for _, src := range legacySources {
		if src.Option == "" {
			continue
		}
		raw, ok, err := s.store.GetOption(ctx, src.Option)
		if err != nil {
			return fmt.Errorf("reading legacy option %s: %w", src.Option, err)
		}
		if !ok {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			s.logger.Warn("skipping unreadable legacy record", "option", src.Option, "error", err)
			continue
		}
		grouped[src.Option] = m
	}

	migrated := current
	for _, src := range legacySources {
		src := src
		lookup := func(oldKey string) (any, bool) {
			if src.Option != "" {
				val, ok := grouped[src.Option][oldKey]
				return val, ok
			}
			raw, ok, err := s.store.GetOption(ctx, oldKey)
			if err != nil || !ok {
				return nil, false
			}
			return raw, true
		}
		migrated = MigrateLegacy(migrated, []LegacySource{src}, lookup)
	}

	if len(migrated) == 0 {
		return nil
	}
	// Legacy rows were never sanitized on write, so raw checkbox values and
	// markup-bearing strings can reach this point.
	return s.saveRecord(ctx, Sanitize(migrated))
}

// cleanupConflicting deletes known legacy option rows, sweeps pattern-named
// leftovers, and drops orphaned legacy tables. Idempotent.
func (s *Service) cleanupConflicting(ctx context.Context) error {
	for _, name := range conflictingOptions {
		if err := s.store.DeleteOption(ctx, name); err != nil {
			return fmt.Errorf("deleting legacy option %s: %w", name, err)
		}
	}

	patterns := make([]string, len(legacyPrefixes))
	for i, prefix := range legacyPrefixes {
		patterns[i] = escapeLike(prefix) + "%"
	}
	names, err := s.store.OptionNamesLike(ctx, patterns, []string{RecordOption, VersionOption})
	if err != nil {
		return fmt.Errorf("listing legacy options: %w", err)
	}
	for _, name := range names {
		if err := s.store.DeleteOption(ctx, name); err != nil {
			return fmt.Errorf("deleting legacy option %s: %w", name, err)
		}
	}
	if len(names) > 0 {
		s.logger.Info("removed legacy options", "count", len(names))
	}

	for _, table := range legacyTables {
		if err := s.store.DropTableIfExists(ctx, table); err != nil {
			return fmt.Errorf("dropping legacy table %s: %w", table, err)
		}
	}
	return nil
}

// escapeLike escapes LIKE wildcards in a literal prefix, using backslash as
// the escape character.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return s
}

// compareVersions compares dotted numeric versions, returning -1, 0, or 1.
// Non-numeric segments compare as zero.
func compareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		var av, bv int
		if i < len(as) {
			av, _ = strconv.Atoi(as[i])
		}
		if i < len(bs) {
			bv, _ = strconv.Atoi(bs[i])
		}
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}
