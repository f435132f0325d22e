// ABOUTME: Admin endpoints for the settings record: tab save, export, import, reset
// ABOUTME: Tab saves merge into the record; import replaces it wholesale

package gateway

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

// maxImportSize bounds uploaded settings files.
const maxImportSize = 1 << 20 // 1 MiB

// tabFields scopes each admin tab to the option keys it may touch, so a
// save request for one tab can never clobber another tab's fields.
var tabFields = map[string][]string{
	"api": {
		"vapi_api_key",
		"vapi_assistant_id",
	},
	"api_config": {
		"vapi_private_api_key",
	},
	"appearance": {
		"vapi_button_position",
		"vapi_button_fixed",
		"vapi_button_offset",
		"vapi_button_width",
		"vapi_button_height",
		"vapi_idle_color", "vapi_idle_type", "vapi_idle_title", "vapi_idle_subtitle", "vapi_idle_icon",
		"vapi_loading_color", "vapi_loading_type", "vapi_loading_title", "vapi_loading_subtitle", "vapi_loading_icon",
		"vapi_active_color", "vapi_active_type", "vapi_active_title", "vapi_active_subtitle", "vapi_active_icon",
	},
	"training": {
		"vapi_training_notes",
		"vapi_selected_assistant",
		"vapi_first_message",
		"vapi_end_call_message",
		"vapi_voicemail_message",
		"vapi_system_prompt",
	},
}

// handleGetSettings handles GET /api/settings: the full record for the
// admin UI. This surface is authenticated, so the private key is included.
func (g *Gateway) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	current, err := g.settings.Load(r.Context())
	if err != nil {
		g.logger.Error("failed to load settings", "error", err)
		g.sendError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	g.sendSuccess(w, current)
}

// handleSaveTab handles POST /api/settings/{tab}. The body is a JSON object
// of option keys; only keys belonging to the tab are considered, and the
// result is merged into the stored record.
func (g *Gateway) handleSaveTab(w http.ResponseWriter, r *http.Request) {
	tab := r.PathValue("tab")
	allowed, ok := tabFields[tab]
	if !ok {
		g.sendError(w, http.StatusNotFound, fmt.Sprintf("unknown settings tab %q", tab))
		return
	}

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		g.sendError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	partial := make(map[string]any, len(allowed))
	for _, key := range allowed {
		if val, ok := body[key]; ok {
			partial[key] = val
		}
	}

	// The fixed-position flag is a checkbox: presence of any field on the
	// appearance tab means the form was submitted, so an absent flag means
	// unchecked, not untouched.
	if tab == "appearance" && len(partial) > 0 {
		if _, ok := partial["vapi_button_fixed"]; !ok {
			partial["vapi_button_fixed"] = 0
		}
	}

	saved, err := g.settings.Save(r.Context(), partial)
	if err != nil {
		g.logger.Error("failed to save settings", "tab", tab, "error", err)
		g.sendError(w, http.StatusInternalServerError, "Failed to save settings!")
		return
	}

	g.logger.Info("settings tab saved", "tab", tab, "fields", len(partial))
	g.sendSuccess(w, saved)
}

// handleExportSettings handles POST /api/settings/export: the record as a
// pretty-printed JSON attachment with a timestamped filename.
func (g *Gateway) handleExportSettings(w http.ResponseWriter, r *http.Request) {
	data, filename, err := g.settings.Export(r.Context())
	if err != nil {
		g.logger.Error("failed to export settings", "error", err)
		g.sendError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	w.Write(data)
}

// handleImportSettings handles POST /api/settings/import: a multipart form
// with a "settings_file" JSON upload. A successful import replaces the
// whole record.
func (g *Gateway) handleImportSettings(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		g.sendError(w, http.StatusBadRequest, "Invalid file payload received.")
		return
	}

	file, header, err := r.FormFile("settings_file")
	if err != nil {
		g.sendError(w, http.StatusBadRequest, "File upload error.")
		return
	}
	defer file.Close()

	if msg := validateImportFile(header); msg != "" {
		g.sendError(w, http.StatusBadRequest, msg)
		return
	}

	content, err := io.ReadAll(io.LimitReader(file, maxImportSize))
	if err != nil {
		g.sendError(w, http.StatusBadRequest, "Unable to read the uploaded file.")
		return
	}

	if _, err := g.settings.Import(r.Context(), content); err != nil {
		g.sendError(w, http.StatusBadRequest, fmt.Sprintf("Invalid JSON file: %v", err))
		return
	}

	g.sendSuccess(w, map[string]string{"message": "Settings imported successfully!"})
}

// validateImportFile checks the upload's extension and declared MIME type.
// Returns an error message, or "" when the file is acceptable.
func validateImportFile(header *multipart.FileHeader) string {
	if !strings.EqualFold(filepath.Ext(header.Filename), ".json") {
		return "Invalid file type supplied. Please upload a JSON file."
	}
	declared := header.Header.Get("Content-Type")
	if declared != "" && declared != "application/json" && declared != "text/json" && declared != "application/octet-stream" {
		return "Invalid file type supplied. Please upload a JSON file."
	}
	return ""
}

// handleResetSettings handles POST /api/settings/reset: legacy cleanup,
// record and version deleted, fresh defaults written. The response carries
// a confirmation flag the admin UI turns into a post-redirect notice.
func (g *Gateway) handleResetSettings(w http.ResponseWriter, r *http.Request) {
	if _, err := g.settings.Reset(r.Context()); err != nil {
		g.logger.Error("failed to reset settings", "error", err)
		g.sendError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	g.sendSuccess(w, map[string]any{"cleared": true})
}
