package models

// Technology is the top-level node of the dataset (a process technology)
type Technology struct {
	ID      int
	Name    string
	Version string // Parsed from the "/v<version>" segment of Path, may be empty
	Path    string // Models directory the technology was discovered in
}

// TechnologyStats summarizes a technology's devices and definitions
type TechnologyStats struct {
	TechnologyID          int
	TotalDevices          int
	DevicesWithDefinition int
	TotalDefinitions      int
}

// Coverage returns the share of devices that carry a definition, in percent
func (s TechnologyStats) Coverage() float64 {
	if s.TotalDevices == 0 {
		return 0
	}
	return float64(s.DevicesWithDefinition) * 100 / float64(s.TotalDevices)
}
