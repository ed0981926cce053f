package config

// KeyMappings defines all configurable key bindings of the browser
type KeyMappings struct {
	// Navigation
	PrevPane string `yaml:"prev_pane" mapstructure:"prev_pane"`
	NextPane string `yaml:"next_pane" mapstructure:"next_pane"`
	Up       string `yaml:"up" mapstructure:"up"`
	Down     string `yaml:"down" mapstructure:"down"`

	// Editing
	Undo             string `yaml:"undo" mapstructure:"undo"`
	Redo             string `yaml:"redo" mapstructure:"redo"`
	DeleteDefinition string `yaml:"delete_definition" mapstructure:"delete_definition"`

	// Tasks
	CancelTask     string `yaml:"cancel_task" mapstructure:"cancel_task"`
	Reload         string `yaml:"reload" mapstructure:"reload"`
	DefinitionOnly string `yaml:"definition_only" mapstructure:"definition_only"`

	// Other
	Quit string `yaml:"quit" mapstructure:"quit"`
}

// DefaultKeyMappings returns the default key mappings
func DefaultKeyMappings() KeyMappings {
	return KeyMappings{
		// Navigation
		PrevPane: "h",
		NextPane: "l",
		Up:       "k",
		Down:     "j",

		// Editing
		Undo:             "u",
		Redo:             "r",
		DeleteDefinition: "x",

		// Tasks
		CancelTask:     "c",
		Reload:         "R",
		DefinitionOnly: "f",

		// Other
		Quit: "q",
	}
}

// applyDefaults fills in missing key mappings with defaults
func (k *KeyMappings) applyDefaults() {
	defaults := DefaultKeyMappings()

	for _, pair := range []struct {
		field *string
		value string
	}{
		{&k.PrevPane, defaults.PrevPane},
		{&k.NextPane, defaults.NextPane},
		{&k.Up, defaults.Up},
		{&k.Down, defaults.Down},
		{&k.Undo, defaults.Undo},
		{&k.Redo, defaults.Redo},
		{&k.DeleteDefinition, defaults.DeleteDefinition},
		{&k.CancelTask, defaults.CancelTask},
		{&k.Reload, defaults.Reload},
		{&k.DefinitionOnly, defaults.DefinitionOnly},
		{&k.Quit, defaults.Quit},
	} {
		if *pair.field == "" {
			*pair.field = pair.value
		}
	}
}
