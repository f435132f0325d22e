// ABOUTME: Tests for the settings service merge/replace/reset lifecycle
// ABOUTME: Uses an in-memory fake of the option store

package settings

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory OptionStore for tests.
type fakeStore struct {
	options map[string]string
	tables  map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		options: map[string]string{},
		tables:  map[string]bool{},
	}
}

func (f *fakeStore) GetOption(_ context.Context, name string) (string, bool, error) {
	v, ok := f.options[name]
	return v, ok, nil
}

func (f *fakeStore) SetOption(_ context.Context, name, value string) error {
	f.options[name] = value
	return nil
}

func (f *fakeStore) DeleteOption(_ context.Context, name string) error {
	delete(f.options, name)
	return nil
}

func (f *fakeStore) OptionNamesLike(_ context.Context, patterns []string, exclude []string) ([]string, error) {
	excluded := map[string]bool{}
	for _, name := range exclude {
		excluded[name] = true
	}
	var names []string
	for name := range f.options {
		if excluded[name] {
			continue
		}
		for _, p := range patterns {
			prefix := strings.TrimSuffix(p, "%")
			prefix = strings.ReplaceAll(prefix, `\_`, `_`)
			// Case-insensitive like SQLite LIKE on ASCII
			if strings.HasPrefix(strings.ToLower(name), strings.ToLower(prefix)) {
				names = append(names, name)
				break
			}
		}
	}
	return names, nil
}

func (f *fakeStore) DropTableIfExists(_ context.Context, table string) error {
	delete(f.tables, table)
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeStore) {
	t.Helper()
	fs := newFakeStore()
	return NewService(fs), fs
}

func TestSave_MergesDisjointTabs(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	require.NoError(t, svc.EnsureDefaults(ctx))

	_, err := svc.Save(ctx, map[string]any{
		"vapi_api_key":      "pk_live",
		"vapi_assistant_id": "asst_1",
	})
	require.NoError(t, err)

	merged, err := svc.Save(ctx, map[string]any{
		"vapi_first_message": "Hello!",
	})
	require.NoError(t, err)

	// Both saves survive
	assert.Equal(t, "pk_live", merged.APIKey)
	assert.Equal(t, "asst_1", merged.AssistantID)
	assert.Equal(t, "Hello!", merged.FirstMessage)
	// Untouched defaults survive
	assert.Equal(t, "bottom-right", merged.ButtonPosition)
	assert.Equal(t, "rgb(93, 254, 202)", merged.IdleColor)
}

func TestSave_AppearanceTabScenario(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	require.NoError(t, svc.EnsureDefaults(ctx))

	before, err := svc.Load(ctx)
	require.NoError(t, err)

	after, err := svc.Save(ctx, map[string]any{
		"vapi_button_position": "top-left",
		"vapi_idle_color":      "#112233",
	})
	require.NoError(t, err)

	assert.Equal(t, "top-left", after.ButtonPosition)
	assert.Equal(t, "rgb(17, 34, 51)", after.IdleColor)

	// Every training and credential field unchanged from default
	assert.Equal(t, before.APIKey, after.APIKey)
	assert.Equal(t, before.PrivateAPIKey, after.PrivateAPIKey)
	assert.Equal(t, before.AssistantID, after.AssistantID)
	assert.Equal(t, before.TrainingNotes, after.TrainingNotes)
	assert.Equal(t, before.FirstMessage, after.FirstMessage)
	assert.Equal(t, before.EndCallMessage, after.EndCallMessage)
	assert.Equal(t, before.VoicemailMessage, after.VoicemailMessage)
	assert.Equal(t, before.SystemPrompt, after.SystemPrompt)
}

func TestReplace_DropsFieldsAbsentFromPartial(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	require.NoError(t, svc.EnsureDefaults(ctx))

	_, err := svc.Save(ctx, map[string]any{"vapi_api_key": "pk_live"})
	require.NoError(t, err)

	replaced, err := svc.Replace(ctx, Partial{"vapi_assistant_id": "asst_2"})
	require.NoError(t, err)

	assert.Equal(t, "asst_2", replaced.AssistantID)
	assert.Empty(t, replaced.APIKey, "replace must not merge with the previous record")
}

func TestReset_ReinitializesDefaultsAndVersion(t *testing.T) {
	ctx := context.Background()
	svc, fs := newTestService(t)
	require.NoError(t, svc.EnsureDefaults(ctx))

	_, err := svc.Save(ctx, map[string]any{"vapi_api_key": "pk_live"})
	require.NoError(t, err)

	reset, err := svc.Reset(ctx)
	require.NoError(t, err)

	assert.Empty(t, reset.APIKey)
	assert.Equal(t, "bottom-right", reset.ButtonPosition)
	assert.Equal(t, Version, fs.options[VersionOption])
}

func TestEnsureDefaults_KeepsExistingValues(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Save(ctx, map[string]any{"vapi_api_key": "pk_live"})
	require.NoError(t, err)

	require.NoError(t, svc.EnsureDefaults(ctx))

	loaded, err := svc.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "pk_live", loaded.APIKey)
	assert.Equal(t, "50px", loaded.ButtonWidth)
}

func TestLoad_EmptyStoreYieldsZeroRecord(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	loaded, err := svc.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, Settings{}, loaded)
}
