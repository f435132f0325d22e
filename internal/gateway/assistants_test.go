// ABOUTME: Tests for the assistant proxy endpoints
// ABOUTME: Runs a fake Vapi upstream and checks error mapping and payload shaping

package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchAssistants_FiltersForSelector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk_stored", r.Header.Get("Authorization"))
		w.Write([]byte(`{"data":[
			{"id":"a1","name":"Receptionist"},
			{"id":"a1","name":"Duplicate"},
			{"id":"a2"},
			{"id":"a3","firstMessage":"Hi"}
		]}`))
	}))
	defer srv.Close()

	f := newTestFixture(t, srv.URL)
	f.seedSettings(t, `{"vapi_private_api_key":"sk_stored"}`)

	rec := f.adminRequest(t, http.MethodPost, "/api/assistants/fetch", "application/json", "{}")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool             `json:"success"`
		Data    []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "a1", resp.Data[0]["id"])
	assert.Equal(t, "a3", resp.Data[1]["id"])
}

func TestFetchAssistants_MissingPrivateKey(t *testing.T) {
	f := newTestFixture(t, "")
	f.seedSettings(t, `{"vapi_api_key":"pk_public_only"}`)

	rec := f.adminRequest(t, http.MethodPost, "/api/assistants/fetch", "application/json", "{}")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	data := resp.Data.(map[string]any)
	assert.Contains(t, data["message"], "Private API key is missing")
}

func TestFetchAssistants_UpstreamStatusPassthrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"Key revoked"}`))
	}))
	defer srv.Close()

	f := newTestFixture(t, srv.URL)
	f.seedSettings(t, `{"vapi_private_api_key":"sk_revoked"}`)

	rec := f.adminRequest(t, http.MethodPost, "/api/assistants/fetch", "application/json", "{}")
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Key revoked")
}

func TestFetchAssistants_UpstreamUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	f := newTestFixture(t, srv.URL)
	f.seedSettings(t, `{"vapi_private_api_key":"sk_stored"}`)

	rec := f.adminRequest(t, http.MethodPost, "/api/assistants/fetch", "application/json", "{}")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "could not reach the Vapi API")
}

func TestUpdateAssistant_ForwardsMinimalPayload(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/assistant/a1", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(`{"id":"a1","firstMessage":"Welcome"}`))
	}))
	defer srv.Close()

	f := newTestFixture(t, srv.URL)
	f.seedSettings(t, `{"vapi_private_api_key":"sk_stored"}`)

	rec := f.adminRequest(t, http.MethodPost, "/api/assistants/update", "application/json", `{
		"assistantId": "a1",
		"firstMessage": "Welcome",
		"systemPrompt": "Be helpful.",
		"model": {"provider": "openai", "model": "gpt-4o"}
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "Welcome", captured["firstMessage"])
	_, hasEndCall := captured["endCallMessage"]
	assert.False(t, hasEndCall)

	model := captured["model"].(map[string]any)
	assert.Equal(t, "openai", model["provider"])
	assert.Equal(t, "gpt-4o", model["model"])
}

func TestUpdateAssistant_PromptFromModelMessages(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(`{"id":"a1"}`))
	}))
	defer srv.Close()

	f := newTestFixture(t, srv.URL)
	f.seedSettings(t, `{"vapi_private_api_key":"sk_stored"}`)

	rec := f.adminRequest(t, http.MethodPost, "/api/assistants/update", "application/json", `{
		"assistantId": "a1",
		"model": {"provider": "openai", "model": "gpt-4o", "messages": [
			{"role": "system", "content": "Prompt from the fetched assistant."}
		]}
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	model := captured["model"].(map[string]any)
	messages := model["messages"].([]any)
	first := messages[0].(map[string]any)
	assert.Equal(t, "Prompt from the fetched assistant.", first["content"])
}

func TestUpdateAssistant_RequiresAssistantID(t *testing.T) {
	f := newTestFixture(t, "")
	f.seedSettings(t, `{"vapi_private_api_key":"sk_stored"}`)

	rec := f.adminRequest(t, http.MethodPost, "/api/assistants/update", "application/json",
		`{"firstMessage":"no id"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Assistant ID is required")
}

func TestUpdateAssistant_InvalidBody(t *testing.T) {
	f := newTestFixture(t, "")
	rec := f.adminRequest(t, http.MethodPost, "/api/assistants/update", "application/json", `{broken`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
