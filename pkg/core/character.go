package core

import "strings"

// Character is an external character descriptor supplied by the roster.
type Character struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Role is the slot a character occupies inside a unit.
type Role string

const (
	RoleGeneral Role = "general"
	RoleSoldier Role = "soldier"
)

// ParseRole accepts "general" or "soldier", case-insensitive.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleGeneral:
		return RoleGeneral, true
	case RoleSoldier:
		return RoleSoldier, true
	}
	return "", false
}
