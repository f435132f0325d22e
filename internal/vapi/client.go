// ABOUTME: HTTP client for the external Vapi assistant API
// ABOUTME: Lists assistants and patches assistant fields with minimal payloads

package vapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the production Vapi API endpoint.
const DefaultBaseURL = "https://api.vapi.ai"

// listPageSize bounds the assistant listing request.
const listPageSize = 100

// defaultTimeout bounds every outbound call so a stalled upstream fails
// closed instead of hanging the admin request.
const defaultTimeout = 20 * time.Second

// Client errors.
var (
	// ErrMissingCredential means no private API key was available. The
	// request is never sent upstream.
	ErrMissingCredential = errors.New("private API key is missing")

	// ErrMissingAssistantID means an update was attempted without an
	// assistant id.
	ErrMissingAssistantID = errors.New("assistant ID is required")

	// ErrUnexpectedShape means the upstream returned 2xx but the body did
	// not decode to the expected structure.
	ErrUnexpectedShape = errors.New("unexpected response format from Vapi API")
)

// StatusError is a non-2xx response from the upstream API. The message is
// taken from the upstream body when it decodes, otherwise synthesized from
// the status code.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("API responded with status %d", e.Code)
}

// TransportError is a network-level failure: connection refused, timeout,
// DNS. The admin sees a generic connectivity message; the wrapped error
// carries the detail for logs.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("request failed: %v", e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// Assistant is a loosely-decoded assistant object. The upstream schema is
// not ours to pin, so fields are read through accessors.
type Assistant map[string]any

// ID returns the assistant id, or "".
func (a Assistant) ID() string { return a.stringField("id") }

// Name returns the assistant display name, or "".
func (a Assistant) Name() string { return a.stringField("name") }

// FirstMessage returns the assistant's first message, or "".
func (a Assistant) FirstMessage() string { return a.stringField("firstMessage") }

// Model returns the assistant's model descriptor (provider and model), or
// empty strings when absent.
func (a Assistant) Model() (provider, model string) {
	m, ok := a["model"].(map[string]any)
	if !ok {
		return "", ""
	}
	provider, _ = m["provider"].(string)
	model, _ = m["model"].(string)
	return provider, model
}

func (a Assistant) stringField(key string) string {
	v, _ := a[key].(string)
	return v
}

// Identifiable reports whether the assistant carries any human-identifying
// field. Entries without one are dropped from selector listings.
func (a Assistant) Identifiable() bool {
	if a.Name() != "" || a.FirstMessage() != "" {
		return true
	}
	provider, model := a.Model()
	return provider != "" || model != ""
}

// Client calls the Vapi HTTP API. The private key is supplied per call, not
// held by the client, because it lives in the settings record.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Vapi API client. An empty baseURL selects the
// production endpoint; a zero timeout selects the default.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.Default().With("component", "vapi"),
	}
}

// ListAssistants fetches the account's assistants. Requires a non-empty
// private key; returns ErrMissingCredential without any network call
// otherwise. Accepts both a bare JSON list and a {"data": [...]} wrapper.
func (c *Client) ListAssistants(ctx context.Context, privateKey string) ([]Assistant, error) {
	privateKey = strings.TrimSpace(privateKey)
	if privateKey == "" {
		return nil, ErrMissingCredential
	}

	endpoint := fmt.Sprintf("%s/assistant?limit=%d", c.baseURL, listPageSize)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+privateKey)
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, ErrUnexpectedShape
	}

	// Unwrap the {"data": [...]} envelope if present.
	if m, ok := decoded.(map[string]any); ok {
		if data, ok := m["data"].([]any); ok {
			decoded = data
		}
	}

	list, ok := decoded.([]any)
	if !ok {
		return nil, ErrUnexpectedShape
	}

	assistants := make([]Assistant, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			assistants = append(assistants, Assistant(m))
		}
	}
	c.logger.Debug("listed assistants", "count", len(assistants))
	return assistants, nil
}

// UpdateRequest carries the assistant fields an admin wants to change.
// Provider and Model come from the previously fetched assistant's model
// descriptor; they are carried over, never invented.
type UpdateRequest struct {
	FirstMessage     string
	EndCallMessage   string
	VoicemailMessage string
	SystemPrompt     string
	ModelProvider    string
	ModelModel       string
}

// payload builds the minimal PATCH body: only supplied non-empty fields are
// included, and the model object only when a system prompt was supplied, so
// the upstream never sees a field the admin did not intend to touch.
func (r UpdateRequest) payload() map[string]any {
	payload := map[string]any{}
	if r.FirstMessage != "" {
		payload["firstMessage"] = r.FirstMessage
	}
	if r.EndCallMessage != "" {
		payload["endCallMessage"] = r.EndCallMessage
	}
	if r.VoicemailMessage != "" {
		payload["voicemailMessage"] = r.VoicemailMessage
	}
	if r.SystemPrompt != "" {
		model := map[string]any{
			"messages": []map[string]any{
				{"role": "system", "content": r.SystemPrompt},
			},
		}
		if r.ModelProvider != "" {
			model["provider"] = r.ModelProvider
		}
		if r.ModelModel != "" {
			model["model"] = r.ModelModel
		}
		payload["model"] = model
	}
	return payload
}

// UpdateAssistant PATCHes one assistant with the minimal field set from the
// request. Requires a non-empty private key and assistant id. Returns the
// decoded upstream assistant on success.
func (c *Client) UpdateAssistant(ctx context.Context, privateKey, assistantID string, update UpdateRequest) (Assistant, error) {
	privateKey = strings.TrimSpace(privateKey)
	if privateKey == "" {
		return nil, ErrMissingCredential
	}
	assistantID = strings.TrimSpace(assistantID)
	if assistantID == "" {
		return nil, ErrMissingAssistantID
	}

	body, err := json.Marshal(update.payload())
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}

	endpoint := c.baseURL + "/assistant/" + url.PathEscape(assistantID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+privateKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	respBody, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var assistant Assistant
	if err := json.Unmarshal(respBody, &assistant); err != nil {
		return nil, ErrUnexpectedShape
	}
	c.logger.Info("assistant updated", "assistant_id", assistantID)
	return assistant, nil
}

// do executes the request, mapping transport failures to TransportError and
// non-2xx responses to StatusError.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{Code: resp.StatusCode}
		var upstream struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(body, &upstream); err == nil && upstream.Message != "" {
			statusErr.Message = upstream.Message
		}
		return nil, statusErr
	}
	return body, nil
}

// Dedupe filters a listing for presentation: entries are de-duplicated by
// id and entries lacking any identifying field are dropped. This is a
// selector concern layered outside ListAssistants itself.
func Dedupe(assistants []Assistant) []Assistant {
	seen := make(map[string]bool, len(assistants))
	out := make([]Assistant, 0, len(assistants))
	for _, a := range assistants {
		id := a.ID()
		if id == "" || seen[id] {
			continue
		}
		if !a.Identifiable() {
			continue
		}
		seen[id] = true
		out = append(out, a)
	}
	return out
}
