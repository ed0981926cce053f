package database

// DataStore defines the unified interface for all data operations.
// It is composed of smaller, entity-specific interfaces; consumers should
// depend on the smallest one that covers their needs.
type DataStore interface {
	TechnologyReader
	TechnologyWriter
	DeviceReader
	DeviceWriter
	DefinitionReader
	DefinitionWriter
	Searcher
	DatasetLoader
}

var _ DataStore = (*Store)(nil)
