package models

// MatchKind tells which field a search hit came from
type MatchKind string

const (
	MatchDeviceName MatchKind = "device_name"
	MatchDefinition MatchKind = "definition"
)

// SearchQuery describes a search over device names and definition text
type SearchQuery struct {
	Text          string
	CaseSensitive bool
	Devices       bool // search device names
	Definitions   bool // search definition text
}

// SearchHit is one match. Context holds the device name for name matches
// and the full matching line for definition matches.
type SearchHit struct {
	DeviceID       int
	DeviceName     string
	TechnologyID   int
	TechnologyName string
	Kind           MatchKind
	Context        string
}
