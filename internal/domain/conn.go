// Package domain contains identifiers and shared errors, no logic.
package domain

import "errors"

const MaxDisplayNameLen = 36

var (
	ErrDuplicateConnection = errors.New("duplicate connection id")
	ErrUnknownConnection   = errors.New("unknown connection id")
)

// ConnID identifies one live transport session. Assigned at connect time,
// never reused; a reconnect is a brand-new ConnID.
type ConnID string

// MemberInfo is a read-only view of a room member (no transport fields).
type MemberInfo struct {
	ID   ConnID `json:"id"`
	Name string `json:"username"`
}

// ClampDisplayName keeps client-supplied names within bounds.
func ClampDisplayName(name string) string {
	if len(name) > MaxDisplayNameLen {
		return name[:MaxDisplayNameLen]
	}
	return name
}
