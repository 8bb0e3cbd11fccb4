// Package types provides type definitions for structured data used throughout the assessment engine.
package types

import (
	"github.com/google/uuid"
)

// Role identifies which side of the marketplace a caller acts for.
type Role string

// Roles recognised by the engine.
const (
	RoleCandidate Role = "candidate"
	RoleCompany   Role = "company"
	RoleValidator Role = "validator"
	RoleAdmin     Role = "admin"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	switch r {
	case RoleCandidate, RoleCompany, RoleValidator, RoleAdmin:
		return true
	default:
		return false
	}
}

// Caller is the identity resolved once at the request boundary and passed
// into every core operation.
type Caller struct {
	UserID uuid.UUID
	Role   Role
}

// IsZero reports whether no identity was resolved.
func (c Caller) IsZero() bool {
	return c.UserID == uuid.Nil
}

// Owns reports whether the caller may act on resources belonging to candidateID.
// Admins may act on any candidate.
func (c Caller) Owns(candidateID uuid.UUID) bool {
	if c.IsZero() {
		return false
	}
	return c.Role == RoleAdmin || c.UserID == candidateID
}

// CanValidate reports whether the caller may submit human ground-truth scores.
func (c Caller) CanValidate() bool {
	return !c.IsZero() && (c.Role == RoleValidator || c.Role == RoleAdmin)
}
