// ABOUTME: Admin endpoints proxying assistant list/update calls to the Vapi API
// ABOUTME: Maps proxy errors to HTTP statuses and keeps PATCH payloads minimal

package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/imranhoshain/vapi-agent-gateway/internal/vapi"
)

// handleFetchAssistants handles POST /api/assistants/fetch. It lists the
// account's assistants using the stored private key, then filters the
// result for the selector: de-duplicated by id, unidentifiable entries
// dropped.
func (g *Gateway) handleFetchAssistants(w http.ResponseWriter, r *http.Request) {
	current, err := g.settings.Load(r.Context())
	if err != nil {
		g.logger.Error("failed to load settings", "error", err)
		g.sendError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	assistants, err := g.vapi.ListAssistants(r.Context(), current.PrivateAPIKey)
	if err != nil {
		g.sendProxyError(w, err, "Private API key is missing. Save it under API Configuration.")
		return
	}

	g.sendSuccess(w, vapi.Dedupe(assistants))
}

// updateAssistantRequest is the JSON request body for POST /api/assistants/update.
type updateAssistantRequest struct {
	AssistantID      string       `json:"assistantId"`
	FirstMessage     string       `json:"firstMessage"`
	EndCallMessage   string       `json:"endCallMessage"`
	VoicemailMessage string       `json:"voicemailMessage"`
	SystemPrompt     string       `json:"systemPrompt"`
	Model            *modelUpdate `json:"model"`
}

// modelUpdate mirrors the assistant's existing model descriptor as fetched
// by the admin UI. Provider and model are carried over on save so a prompt
// update cannot clobber them.
type modelUpdate struct {
	Provider string         `json:"provider"`
	Model    string         `json:"model"`
	Messages []modelMessage `json:"messages"`
}

type modelMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// handleUpdateAssistant handles POST /api/assistants/update. Only supplied
// fields are forwarded upstream; the system prompt may arrive either as
// systemPrompt or embedded in the first model message.
func (g *Gateway) handleUpdateAssistant(w http.ResponseWriter, r *http.Request) {
	var req updateAssistantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.sendError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	assistantID := strings.TrimSpace(req.AssistantID)
	if assistantID == "" {
		g.sendError(w, http.StatusBadRequest, "Assistant ID is required.")
		return
	}

	current, err := g.settings.Load(r.Context())
	if err != nil {
		g.logger.Error("failed to load settings", "error", err)
		g.sendError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	systemPrompt := strings.TrimSpace(req.SystemPrompt)
	if systemPrompt == "" && req.Model != nil && len(req.Model.Messages) > 0 {
		systemPrompt = strings.TrimSpace(req.Model.Messages[0].Content)
	}

	update := vapi.UpdateRequest{
		FirstMessage:     strings.TrimSpace(req.FirstMessage),
		EndCallMessage:   strings.TrimSpace(req.EndCallMessage),
		VoicemailMessage: strings.TrimSpace(req.VoicemailMessage),
		SystemPrompt:     systemPrompt,
	}
	if req.Model != nil {
		update.ModelProvider = strings.TrimSpace(req.Model.Provider)
		update.ModelModel = strings.TrimSpace(req.Model.Model)
	}

	assistant, err := g.vapi.UpdateAssistant(r.Context(), current.PrivateAPIKey, assistantID, update)
	if err != nil {
		g.sendProxyError(w, err, "Private API key is missing. Save it under API Configuration.")
		return
	}

	g.sendSuccess(w, assistant)
}

// sendProxyError maps proxy error classes to HTTP statuses: 400 for a
// missing credential or assistant id, the upstream status for upstream
// failures, 500 for transport and shape problems.
func (g *Gateway) sendProxyError(w http.ResponseWriter, err error, missingCredentialMsg string) {
	var statusErr *vapi.StatusError
	var transportErr *vapi.TransportError

	switch {
	case errors.Is(err, vapi.ErrMissingCredential):
		g.sendError(w, http.StatusBadRequest, missingCredentialMsg)
	case errors.Is(err, vapi.ErrMissingAssistantID):
		g.sendError(w, http.StatusBadRequest, "Assistant ID is required.")
	case errors.As(err, &statusErr):
		g.sendError(w, statusErr.Code, statusErr.Error())
	case errors.As(err, &transportErr):
		g.logger.Error("vapi request failed", "error", transportErr.Err)
		g.sendError(w, http.StatusInternalServerError, "Request failed: could not reach the Vapi API.")
	case errors.Is(err, vapi.ErrUnexpectedShape):
		g.sendError(w, http.StatusInternalServerError, "Unexpected response format from Vapi API.")
	default:
		g.logger.Error("assistant proxy error", "error", err)
		g.sendError(w, http.StatusInternalServerError, "internal server error")
	}
}
