// ABOUTME: Typed settings record for the Vapi voice widget with defaults
// ABOUTME: Bridges between the persisted flat option map and named fields

package settings

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Version is the settings schema version. The migrator compares this
// against the stored installed version to decide whether legacy cleanup
// needs to run again.
const Version = "1.0.0"

// Option row names used in the store.
const (
	RecordOption  = "vapi_settings"
	VersionOption = "vapi_plugin_version"
)

// KeyPrefix is the namespace prefix every recognized settings key carries.
// Keys without it are dropped by the sanitizer.
const KeyPrefix = "vapi_"

// Flag is a boolean stored as 0/1. Older records (and hand-edited imports)
// sometimes carry the value as a string or a bare bool, so unmarshaling is
// tolerant of all three encodings.
type Flag int

// Bool reports whether the flag is set.
func (f Flag) Bool() bool { return f != 0 }

// UnmarshalJSON accepts 1/0, "1"/"0", and true/false. Any other string
// falls back to truthy coercion ("on" counts as set) so a record carrying
// an old raw checkbox value still loads.
func (f *Flag) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "false", "null", "off", "no":
		*f = 0
		return nil
	case "true":
		*f = 1
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 1
		return nil
	}
	if n != 0 {
		*f = 1
	} else {
		*f = 0
	}
	return nil
}

// Settings is the full widget configuration record. Field names follow the
// persisted option keys; an empty string means the field was never set and
// readers substitute the default from Defaults().
type Settings struct {
	// Credentials
	APIKey            string `json:"vapi_api_key"`
	PrivateAPIKey     string `json:"vapi_private_api_key"`
	AssistantID       string `json:"vapi_assistant_id"`
	SelectedAssistant string `json:"vapi_selected_assistant"`

	// Training
	TrainingNotes    string `json:"vapi_training_notes"`
	FirstMessage     string `json:"vapi_first_message"`
	EndCallMessage   string `json:"vapi_end_call_message"`
	VoicemailMessage string `json:"vapi_voicemail_message"`
	SystemPrompt     string `json:"vapi_system_prompt"`

	// Appearance
	ButtonPosition string `json:"vapi_button_position"`
	ButtonFixed    Flag   `json:"vapi_button_fixed"`
	ButtonOffset   string `json:"vapi_button_offset"`
	ButtonWidth    string `json:"vapi_button_width"`
	ButtonHeight   string `json:"vapi_button_height"`

	IdleColor    string `json:"vapi_idle_color"`
	IdleType     string `json:"vapi_idle_type"`
	IdleTitle    string `json:"vapi_idle_title"`
	IdleSubtitle string `json:"vapi_idle_subtitle"`
	IdleIcon     string `json:"vapi_idle_icon"`

	LoadingColor    string `json:"vapi_loading_color"`
	LoadingType     string `json:"vapi_loading_type"`
	LoadingTitle    string `json:"vapi_loading_title"`
	LoadingSubtitle string `json:"vapi_loading_subtitle"`
	LoadingIcon     string `json:"vapi_loading_icon"`

	ActiveColor    string `json:"vapi_active_color"`
	ActiveType     string `json:"vapi_active_type"`
	ActiveTitle    string `json:"vapi_active_title"`
	ActiveSubtitle string `json:"vapi_active_subtitle"`
	ActiveIcon     string `json:"vapi_active_icon"`
}

// Defaults returns the record written on first activation and after a reset.
func Defaults() Settings {
	return Settings{
		ButtonPosition: "bottom-right",
		ButtonFixed:    1,
		ButtonOffset:   "40px",
		ButtonWidth:    "50px",
		ButtonHeight:   "50px",

		IdleColor: "rgb(93, 254, 202)",
		IdleType:  "pill",
		IdleTitle: "Call now?",
		IdleIcon:  "https://unpkg.com/lucide-static@0.544.0/icons/audio-waveform.svg",

		LoadingColor:    "rgb(93, 124, 202)",
		LoadingType:     "pill",
		LoadingTitle:    "Connecting...",
		LoadingSubtitle: "Please wait",
		LoadingIcon:     "https://unpkg.com/lucide-static@0.544.0/icons/loader-2.svg",

		ActiveColor:    "rgb(255, 0, 0)",
		ActiveType:     "pill",
		ActiveTitle:    "Call is in progress...",
		ActiveSubtitle: "End the call.",
		ActiveIcon:     "https://unpkg.com/lucide-static@0.544.0/icons/phone-off.svg",
	}
}

// DefaultRecord returns Defaults() in flat map form, for merging against a
// stored record at the key level.
func DefaultRecord() map[string]any {
	m, _ := Defaults().ToMap()
	return m
}

// ToMap flattens the record into the persisted option-map shape.
func (s Settings) ToMap() (map[string]any, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding settings: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding settings map: %w", err)
	}
	return m, nil
}

// FromMap builds a typed record from the flat option map. Keys outside the
// record are ignored; missing keys leave their fields zero-valued.
func FromMap(m map[string]any) (Settings, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return Settings{}, fmt.Errorf("encoding settings map: %w", err)
	}
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("decoding settings: %w", err)
	}
	return s, nil
}

// ResolvedAssistant returns the assistant id the widget should use: the
// primary assistant id when set, otherwise the last-inspected assistant.
func (s Settings) ResolvedAssistant() string {
	if id := strings.TrimSpace(s.AssistantID); id != "" {
		return id
	}
	return strings.TrimSpace(s.SelectedAssistant)
}

// Configured reports whether the widget has everything it needs to load: a
// public API key and a resolved assistant id.
func (s Settings) Configured() bool {
	return strings.TrimSpace(s.APIKey) != "" && s.ResolvedAssistant() != ""
}
