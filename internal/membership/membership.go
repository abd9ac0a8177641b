// Package membership defines the person-to-group edge. An edge has no
// independent identity: it is unique per (person, group) pair and is
// removed automatically when either endpoint is deleted.
package membership

import id "rollcall/pkg/domain"

// Edge links a person to a group.
type Edge struct {
	PersonID id.PersonID
	GroupID  id.GroupID
}
