// Package settings owns the widget settings record: its schema, sanitization,
// merge-save semantics, legacy migration, and import/export transfer format.
//
// # The Record
//
// All settings live in a single record stored as one option row
// ("vapi_settings") holding a JSON object of namespaced keys. Every key
// carries the "vapi_" prefix:
//
//   - Credentials: vapi_api_key, vapi_private_api_key
//   - Assistant selection: vapi_assistant_id, vapi_selected_assistant
//   - Widget appearance: vapi_button_* and the vapi_{idle,loading,active}_*
//     state groups (color, type, title, subtitle, icon)
//   - Assistant training: vapi_system_prompt, vapi_first_message,
//     vapi_end_call_message, vapi_voicemail_message, vapi_training_notes
//
// The raw key map is the unit of storage because merge and migration
// semantics depend on key presence. The typed Settings struct is a boundary
// projection built from the map via FromMap.
//
// # Sanitization
//
// Sanitize filters and cleans a partial update. Non-namespaced keys are
// dropped. Each kept key is cleaned by kind:
//
//   - text: tags stripped, control characters removed, whitespace collapsed
//   - textarea: newlines and tabs preserved (prompts, notes)
//   - color: 6-digit hex converted to an rgb(r, g, b) string
//   - bool: coerced to a 0/1 flag
//
// Sanitization is idempotent: sanitizing already-clean values is a no-op, so
// exported records re-import byte-for-byte.
//
// # Save Semantics
//
// Save merges a sanitized partial into the stored record; fields absent from
// the partial survive untouched. Replace overwrites the whole record and is
// reserved for import, which restores a known-good snapshot.
//
// # Migration
//
// MigrateIfNeeded runs once per version bump. Legacy sources are declared as
// data (legacySources): a grouped JSON row from the old storage layout plus
// standalone capitalized rows. Current values always win over migrated ones,
// and a prefix sweep removes conflicting leftovers afterwards.
//
// # Transfer
//
// Export wraps the record in a {version, export_date, settings} envelope.
// Import accepts that envelope or a bare settings object, tolerating UTF-8
// BOMs, gzip-compressed payloads, HTML-entity-escaped JSON, and stray
// control characters before giving up.
package settings
