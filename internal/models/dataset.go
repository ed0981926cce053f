package models

// Dataset is a complete, parsed snapshot used to (re)build the store
type Dataset struct {
	Technologies []TechnologyRecord
	Definitions  []DefinitionRecord
}

// TechnologyRecord is a technology with the device names listed for it
type TechnologyRecord struct {
	Name    string
	Version string
	Path    string
	Devices []string
}

// DefinitionRecord ties a definition block to a device by name
type DefinitionRecord struct {
	TechnologyName string
	DeviceName     string
	FolderPath     string
	FileName       string
	Text           string
}

// DeviceCount returns the total number of device names across technologies
func (d *Dataset) DeviceCount() int {
	n := 0
	for _, t := range d.Technologies {
		n += len(t.Devices)
	}
	return n
}
