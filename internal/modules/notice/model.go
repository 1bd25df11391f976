// README: Notice board entries (general announcements and app version notes).
package notice

import (
	"strings"
	"time"

	"charter/internal/types"
)

type Type string

const (
	TypeGeneral Type = "GENERAL"
	TypeVersion Type = "VERSION"
)

func ParseType(s string) (Type, bool) {
	t := Type(strings.ToUpper(strings.TrimSpace(s)))
	return t, t == TypeGeneral || t == TypeVersion
}

type Notice struct {
	ID        types.ID
	Type      Type
	Title     string
	Detail    string
	CreatedAt time.Time
	UpdatedAt time.Time
}
