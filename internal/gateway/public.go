// ABOUTME: Public config endpoint consumed by the front-end embed loader
// ABOUTME: Serves the sanitized settings projection with cache-disabling headers

package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/imranhoshain/vapi-agent-gateway/internal/settings"
)

// handlePublicConfig handles GET /vapi/v1/config. No authentication: the
// embed loader runs for anonymous site visitors. The response is a pure
// projection of the settings record with the private key stripped, and it
// must never be cached because the loader cache-busts and expects live data.
func (g *Gateway) handlePublicConfig(w http.ResponseWriter, r *http.Request) {
	current, err := g.settings.Load(r.Context())
	if err != nil {
		g.logger.Error("failed to load settings for public config", "error", err)
		g.sendError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	view := settings.PublicConfig(current)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	json.NewEncoder(w).Encode(view)
}
