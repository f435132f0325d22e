// ABOUTME: Settings export/import as a JSON document
// ABOUTME: Import tolerates BOMs, gzip payloads, and mangled encodings

package settings

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"
	"time"
)

// Import errors.
var (
	ErrEmptyPayload  = errors.New("the uploaded file is empty")
	ErrInvalidJSON   = errors.New("invalid JSON payload")
	ErrInvalidFormat = errors.New("invalid settings file format")
)

// maxDecompressedSize caps gzip expansion. A settings document is a few KB;
// anything past this is a decompression bomb, not a backup.
const maxDecompressedSize = 10 << 20 // 10 MiB

// exportEnvelope wraps the record for download. Import accepts this shape
// or a bare settings mapping.
type exportEnvelope struct {
	Version    string         `json:"version"`
	ExportDate string         `json:"export_date"`
	Settings   map[string]any `json:"settings"`
}

// Export serializes the current record as a pretty-printed download.
// Returns the document and a timestamped attachment filename.
func (s *Service) Export(ctx context.Context) ([]byte, string, error) {
	record, err := s.loadRecord(ctx)
	if err != nil {
		return nil, "", err
	}

	now := time.Now().UTC()
	envelope := exportEnvelope{
		Version:    Version,
		ExportDate: now.Format("2006-01-02 15:04:05"),
		Settings:   record,
	}
	data, err := json.MarshalIndent(envelope, "", "    ")
	if err != nil {
		return nil, "", fmt.Errorf("encoding export: %w", err)
	}

	filename := "vapi-settings-" + now.Format("2006-01-02-15-04-05") + ".json"
	return data, filename, nil
}

// Import decodes an uploaded settings document, re-sanitizes every field,
// and replaces the stored record with the result. Unlike tab saves, import
// is a full restore point: the whole record is replaced, not merged.
func (s *Service) Import(ctx context.Context, content []byte) (Settings, error) {
	payload, err := parseImport(content)
	if err != nil {
		return Settings{}, err
	}
	sanitized := Sanitize(payload)
	settings, err := s.Replace(ctx, sanitized)
	if err != nil {
		return Settings{}, err
	}
	s.logger.Info("settings imported", "fields", len(sanitized))
	return settings, nil
}

// parseImport extracts the settings mapping from an uploaded document
// without touching the store.
func parseImport(content []byte) (map[string]any, error) {
	content = bytes.TrimLeft(content, "\xEF\xBB\xBF\x00\xFE\xFF")
	content = bytes.TrimSpace(content)
	if len(content) == 0 {
		return nil, ErrEmptyPayload
	}

	// Gzip magic bytes: transparently decompress browser-compressed uploads.
	if len(content) >= 2 && content[0] == 0x1f && content[1] == 0x8b {
		if decoded, err := gunzip(content); err == nil {
			content = decoded
		}
	}

	decoded, err := decodeJSONPayload(content)
	if err != nil {
		return nil, err
	}

	if nested, ok := decoded["settings"].(map[string]any); ok {
		return nested, nil
	}
	for key := range decoded {
		if strings.HasPrefix(key, KeyPrefix) {
			return decoded, nil
		}
	}
	return nil, ErrInvalidFormat
}

// decodeJSONPayload tries a small ordered sequence of decode strategies:
// the raw bytes, an HTML-entity-decoded copy, a UTF-8-repaired copy, and a
// control-character-stripped copy. The first candidate that parses as a
// JSON object wins.
func decodeJSONPayload(content []byte) (map[string]any, error) {
	raw := string(content)
	candidates := []string{raw}

	if unescaped := html.UnescapeString(raw); unescaped != raw {
		candidates = append(candidates, unescaped)
	}
	if repaired := strings.ToValidUTF8(raw, "�"); repaired != raw {
		candidates = append(candidates, repaired)
	}
	if stripped := strings.Map(func(r rune) rune {
		if (r < 0x20 && r != '\t' && r != '\n' && r != '\r') || r == 0x7f {
			return -1
		}
		return r
	}, raw); stripped != raw {
		candidates = append(candidates, stripped)
	}

	var lastErr error
	for _, candidate := range candidates {
		var decoded any
		if err := json.Unmarshal([]byte(candidate), &decoded); err != nil {
			lastErr = err
			continue
		}
		m, ok := decoded.(map[string]any)
		if !ok {
			return nil, ErrInvalidFormat
		}
		return m, nil
	}
	if lastErr == nil {
		lastErr = errors.New("no decodable candidate")
	}
	return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, lastErr)
}

func gunzip(content []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	data, err := io.ReadAll(io.LimitReader(zr, maxDecompressedSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxDecompressedSize {
		return nil, errors.New("decompressed payload exceeds size limit")
	}
	return data, nil
}
