package auth

import (
	"errors"
	"regexp"
)

// subjectPattern defines the valid format for token subjects:
// alphanumeric, dots, hyphens, underscores, @, 1-64 characters.
var subjectPattern = regexp.MustCompile(`^[a-zA-Z0-9@._-]{1,64}$`)

// IsValidSubject checks if a token subject meets format requirements.
func IsValidSubject(subject string) bool {
	return subjectPattern.MatchString(subject)
}

// Role represents an authorisation tier in the system.
type Role string

const (
	// RoleViewer can read device state, history and the live stream.
	RoleViewer Role = "viewer"

	// RoleOperator can also send commands and request status syncs.
	RoleOperator Role = "operator"

	// RoleAdmin has everything operator can do plus bridge administration.
	RoleAdmin Role = "admin"
)

// ValidRoles is the set of roles a token may carry.
var ValidRoles = []Role{RoleViewer, RoleOperator, RoleAdmin}

// IsValidRole returns true if the role is known.
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// ParseRole converts a string to a Role, rejecting unknown values.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !IsValidRole(r) {
		return "", ErrInvalidRole
	}
	return r, nil
}

// Sentinel errors for auth operations.
var (
	ErrTokenInvalid   = errors.New("invalid token")
	ErrInvalidRole    = errors.New("invalid role")
	ErrInvalidSubject = errors.New("invalid subject")
	ErrSecretTooShort = errors.New("signing secret too short")
	ErrForbidden      = errors.New("insufficient permissions")
)
