package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Theme defines the browser's colors
type Theme struct {
	// Preset name ("default" or "monochrome")
	Preset string `yaml:"preset" mapstructure:"preset"`

	Accent   string `yaml:"accent" mapstructure:"accent"`
	Border   string `yaml:"border" mapstructure:"border"`
	Selected string `yaml:"selected" mapstructure:"selected"`
	Subtle   string `yaml:"subtle" mapstructure:"subtle"`
	Normal   string `yaml:"normal" mapstructure:"normal"`
	Error    string `yaml:"error" mapstructure:"error"`
	Success  string `yaml:"success" mapstructure:"success"`
}

// DefaultTheme returns the default theme (purple accent)
func DefaultTheme() Theme {
	return Theme{
		Preset:   "default",
		Accent:   "#874BFD",
		Border:   "#5F87D7",
		Selected: "#D75FD7",
		Subtle:   "#585858",
		Normal:   "#D0D0D0",
		Error:    "#FF0000",
		Success:  "#5FD75F",
	}
}

// MonochromeTheme returns a black and white theme
func MonochromeTheme() Theme {
	return Theme{
		Preset:   "monochrome",
		Accent:   "#FFFFFF",
		Border:   "#FFFFFF",
		Selected: "#FFFFFF",
		Subtle:   "#585858",
		Normal:   "#D0D0D0",
		Error:    "#FFFFFF",
		Success:  "#FFFFFF",
	}
}

// ThemePreset returns a preset theme by name
func ThemePreset(name string) Theme {
	if name == "monochrome" {
		return MonochromeTheme()
	}
	return DefaultTheme()
}

// ApplyDefaults fills in missing colors from the preset
func (t *Theme) ApplyDefaults() {
	preset := ThemePreset(t.Preset)
	if t.Preset == "" {
		t.Preset = preset.Preset
	}

	for _, pair := range []struct {
		field *string
		value string
	}{
		{&t.Accent, preset.Accent},
		{&t.Border, preset.Border},
		{&t.Selected, preset.Selected},
		{&t.Subtle, preset.Subtle},
		{&t.Normal, preset.Normal},
		{&t.Error, preset.Error},
		{&t.Success, preset.Success},
	} {
		if *pair.field == "" {
			*pair.field = pair.value
		}
	}
}

// MergeFrom overrides colors with the non-empty ones of other
func (t *Theme) MergeFrom(other Theme) {
	for _, pair := range []struct {
		field *string
		value string
	}{
		{&t.Preset, other.Preset},
		{&t.Accent, other.Accent},
		{&t.Border, other.Border},
		{&t.Selected, other.Selected},
		{&t.Subtle, other.Subtle},
		{&t.Normal, other.Normal},
		{&t.Error, other.Error},
		{&t.Success, other.Success},
	} {
		if pair.value != "" {
			*pair.field = pair.value
		}
	}
}

// loadThemeFile merges the theme from the CLEX_THEME_FILE environment variable
func loadThemeFile(config *Config) {
	themeFile := os.Getenv(EnvPrefix + "_THEME_FILE")
	if themeFile == "" {
		return
	}

	themeData, err := os.ReadFile(themeFile)
	if err != nil {
		return
	}

	var themeConfig struct {
		Theme Theme `yaml:"theme"`
	}

	if yaml.Unmarshal(themeData, &themeConfig) == nil {
		config.Theme.MergeFrom(themeConfig.Theme)
	}
}
