package domain

// Field identifiers reported in a ChangeSignal.
const (
	FieldAttendance  = "attendance"
	FieldDisplayName = "displayName"
	FieldRoleTag     = "roleTag"
	FieldAuthToken   = "authToken"
)

// ChangeSignal describes what changed between two session snapshots. It is
// a notification only and is never persisted.
type ChangeSignal struct {
	HasChanges    bool         `json:"has_changes"`
	ChangedFields []string     `json:"changed_fields"`
	Previous      UserSnapshot `json:"previous"`
}

// Has reports whether field is among the changed fields.
func (c ChangeSignal) Has(field string) bool {
	for _, f := range c.ChangedFields {
		if f == field {
			return true
		}
	}
	return false
}
