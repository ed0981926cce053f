package models

import "strings"

// Definition is the block of assertion text extracted for a device
type Definition struct {
	ID         int
	DeviceID   int
	FolderPath string
	FileName   string
	Text       string
}

// Equal reports whether two definitions carry the same content.
// Row IDs are ignored: a restored definition may get a new row ID.
func (d *Definition) Equal(other *Definition) bool {
	if d == nil || other == nil {
		return d == other
	}
	return d.DeviceID == other.DeviceID &&
		d.FolderPath == other.FolderPath &&
		d.FileName == other.FileName &&
		d.Text == other.Text
}

// Clone returns a copy that shares no memory with d
func (d *Definition) Clone() *Definition {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

// Body returns the definition text without the "Folder Path:" and
// "File Name:" lines the log embeds in every block.
func (d *Definition) Body() string {
	lines := strings.Split(d.Text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "Folder Path:") || strings.HasPrefix(trimmed, "File Name:") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
