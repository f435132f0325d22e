// ABOUTME: HTTP surface for the vapi-gateway: public config plus admin API
// ABOUTME: Registers routes and holds the shared success/error envelope helpers

package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/imranhoshain/vapi-agent-gateway/internal/auth"
	"github.com/imranhoshain/vapi-agent-gateway/internal/settings"
	"github.com/imranhoshain/vapi-agent-gateway/internal/vapi"
)

// Gateway wires the settings service and the Vapi client to HTTP routes.
type Gateway struct {
	settings *settings.Service
	vapi     *vapi.Client
	verifier auth.TokenVerifier
	logger   *slog.Logger
}

// New creates a Gateway.
func New(settingsService *settings.Service, vapiClient *vapi.Client, verifier auth.TokenVerifier) *Gateway {
	return &Gateway{
		settings: settingsService,
		vapi:     vapiClient,
		verifier: verifier,
		logger:   slog.Default().With("component", "gateway"),
	}
}

// RegisterRoutes registers all gateway routes on the mux. The config
// endpoint is public; everything under /api requires a bearer token.
func (g *Gateway) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /vapi/v1/config", g.handlePublicConfig)
	mux.HandleFunc("GET /healthz", g.handleHealth)

	admin := auth.RequireAdmin(g.verifier)

	// Assistant proxy
	mux.HandleFunc("POST /api/assistants/fetch", admin(g.handleFetchAssistants))
	mux.HandleFunc("POST /api/assistants/update", admin(g.handleUpdateAssistant))

	// Settings
	mux.HandleFunc("GET /api/settings", admin(g.handleGetSettings))
	mux.HandleFunc("POST /api/settings/export", admin(g.handleExportSettings))
	mux.HandleFunc("POST /api/settings/import", admin(g.handleImportSettings))
	mux.HandleFunc("POST /api/settings/reset", admin(g.handleResetSettings))
	mux.HandleFunc("POST /api/settings/{tab}", admin(g.handleSaveTab))
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// envelope is the {success, data} response shape every admin endpoint uses.
type envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

func (g *Gateway) sendSuccess(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

func (g *Gateway) sendError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Success: false, Data: map[string]string{"message": message}})
}
