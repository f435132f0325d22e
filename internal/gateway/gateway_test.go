// ABOUTME: End-to-end tests of the gateway HTTP surface over an in-memory store
// ABOUTME: Shared fixture wiring the settings service, auth, and a fake Vapi upstream

package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/imranhoshain/vapi-agent-gateway/internal/auth"
	"github.com/imranhoshain/vapi-agent-gateway/internal/settings"
	"github.com/imranhoshain/vapi-agent-gateway/internal/vapi"
)

// memStore is an in-memory settings.OptionStore for handler tests.
type memStore struct {
	mu      sync.Mutex
	options map[string]string
}

func newMemStore() *memStore {
	return &memStore{options: make(map[string]string)}
}

func (m *memStore) GetOption(ctx context.Context, name string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.options[name]
	return val, ok, nil
}

func (m *memStore) SetOption(ctx context.Context, name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.options[name] = value
	return nil
}

func (m *memStore) DeleteOption(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.options, name)
	return nil
}

func (m *memStore) OptionNamesLike(ctx context.Context, patterns []string, exclude []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	excluded := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		excluded[name] = true
	}

	var names []string
	for name := range m.options {
		if excluded[name] {
			continue
		}
		for _, p := range patterns {
			prefix := strings.ReplaceAll(strings.TrimSuffix(p, "%"), `\`, "")
			if strings.HasPrefix(strings.ToLower(name), strings.ToLower(prefix)) {
				names = append(names, name)
				break
			}
		}
	}
	return names, nil
}

func (m *memStore) DropTableIfExists(ctx context.Context, table string) error {
	return nil
}

// testFixture bundles everything a gateway handler test needs.
type testFixture struct {
	mux   *http.ServeMux
	store *memStore
	token string
}

func newTestFixture(t *testing.T, vapiURL string) *testFixture {
	t.Helper()

	store := newMemStore()
	service := settings.NewService(store)

	verifier := auth.NewJWTVerifier([]byte("test-secret"))
	token, err := verifier.Generate("admin", time.Hour)
	require.NoError(t, err)

	g := New(service, vapi.NewClient(vapiURL, 0), verifier)
	mux := http.NewServeMux()
	g.RegisterRoutes(mux)

	return &testFixture{mux: mux, store: store, token: token}
}

// adminRequest performs an authenticated request against the fixture mux.
func (f *testFixture) adminRequest(t *testing.T, method, path, contentType string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+f.token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func (f *testFixture) seedSettings(t *testing.T, record string) {
	t.Helper()
	require.NoError(t, f.store.SetOption(context.Background(), "vapi_settings", record))
}
