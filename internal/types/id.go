// README: Identifier type shared by every module.
package types

import "github.com/google/uuid"

// ID is a string identifier. Estimates, reviews and notices use UUIDs;
// user IDs are Firebase UIDs and are carried verbatim.
type ID string

func NewID() ID {
	return ID(uuid.NewString())
}

// ParseUUID validates a path parameter that must be a UUID.
func ParseUUID(s string) (ID, bool) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", false
	}
	return ID(u.String()), true
}

func (id ID) String() string { return string(id) }

// Ptr returns nil for the empty ID.
func (id ID) Ptr() *ID {
	if id == "" {
		return nil
	}
	return &id
}
