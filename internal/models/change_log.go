package models

import "time"

// AnonymousEditor is recorded when an update request carries no editor name.
const AnonymousEditor = "Anonymous"

// FieldChange holds the stringified before/after values of one field.
// A nil side means the value was absent (null).
type FieldChange struct {
	Previous *string `json:"previous"`
	New      *string `json:"new"`
}

// ChangeLog is one append-only audit entry for an Emission. It exists
// iff the update that produced it changed at least one field.
type ChangeLog struct {
	ID            int64                  `json:"id"`
	EmissionID    int64                  `json:"emission_id"`
	EditorName    string                 `json:"editor_name"`
	ChangedAt     time.Time              `json:"changed_at"`
	ChangedFields map[string]FieldChange `json:"changed_fields"`
}
