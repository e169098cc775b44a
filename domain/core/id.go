package core

import (
	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// SessionID identifies one analysis session.
type SessionID ID

// NewSessionID returns a fresh time-ordered session identifier.
func NewSessionID() SessionID { return SessionID(NewID()) }

func (id SessionID) String() string { return ID(id).String() }

// Short returns the first eight characters, enough to tell sessions apart in logs.
func (id SessionID) Short() string {
	s := id.String()
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
