// ABOUTME: Public projection of the settings record for the embed loader
// ABOUTME: Strips the private key and substitutes defaults for unset fields

package settings

import "strings"

// ButtonState is the appearance of one widget button state.
type ButtonState struct {
	Color    string `json:"color"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Icon     string `json:"icon"`
}

// ButtonConfig is the assembled widget button appearance.
type ButtonConfig struct {
	Position string      `json:"position"`
	Fixed    bool        `json:"fixed"`
	Offset   string      `json:"offset"`
	Width    string      `json:"width"`
	Height   string      `json:"height"`
	Idle     ButtonState `json:"idle"`
	Loading  ButtonState `json:"loading"`
	Active   ButtonState `json:"active"`
}

// ConfigView is the anonymous-visitor view of the settings record. It never
// carries the private API key.
type ConfigView struct {
	Configured   bool         `json:"configured"`
	APIKey       string       `json:"apiKey"`
	Assistant    string       `json:"assistant"`
	ButtonConfig ButtonConfig `json:"buttonConfig"`
}

// PublicConfig projects a record into its public view, substituting the
// default for any appearance field that was never set.
func PublicConfig(s Settings) ConfigView {
	d := Defaults()

	return ConfigView{
		Configured: s.Configured(),
		APIKey:     strings.TrimSpace(s.APIKey),
		Assistant:  s.ResolvedAssistant(),
		ButtonConfig: ButtonConfig{
			Position: orDefault(s.ButtonPosition, d.ButtonPosition),
			Fixed:    s.ButtonFixed.Bool(),
			Offset:   orDefault(s.ButtonOffset, d.ButtonOffset),
			Width:    orDefault(s.ButtonWidth, d.ButtonWidth),
			Height:   orDefault(s.ButtonHeight, d.ButtonHeight),
			Idle: ButtonState{
				Color:    orDefault(s.IdleColor, d.IdleColor),
				Type:     orDefault(s.IdleType, d.IdleType),
				Title:    orDefault(s.IdleTitle, d.IdleTitle),
				Subtitle: s.IdleSubtitle,
				Icon:     orDefault(s.IdleIcon, d.IdleIcon),
			},
			Loading: ButtonState{
				Color:    orDefault(s.LoadingColor, d.LoadingColor),
				Type:     orDefault(s.LoadingType, d.LoadingType),
				Title:    orDefault(s.LoadingTitle, d.LoadingTitle),
				Subtitle: orDefault(s.LoadingSubtitle, d.LoadingSubtitle),
				Icon:     orDefault(s.LoadingIcon, d.LoadingIcon),
			},
			Active: ButtonState{
				Color:    orDefault(s.ActiveColor, d.ActiveColor),
				Type:     orDefault(s.ActiveType, d.ActiveType),
				Title:    orDefault(s.ActiveTitle, d.ActiveTitle),
				Subtitle: orDefault(s.ActiveSubtitle, d.ActiveSubtitle),
				Icon:     orDefault(s.ActiveIcon, d.ActiveIcon),
			},
		},
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
