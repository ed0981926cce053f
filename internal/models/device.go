package models

// Device belongs to exactly one technology and has at most one definition.
// HasDefinition mirrors the existence of a definitions row and is maintained
// by the store in the same transaction as the row itself.
type Device struct {
	ID            int
	Name          string
	TechnologyID  int
	HasDefinition bool
}
