// Package domain holds the strongly typed identifiers shared across the
// service. Wrapping uuid.UUID in distinct types keeps a session ID from ever
// being passed where a user ID is expected; the compiler enforces it.
package domain

import (
	"github.com/google/uuid"

	dErrors "gatehouse/pkg/domain-errors"
)

type (
	// UserID identifies an account.
	UserID uuid.UUID

	// SessionID identifies an authenticated session.
	SessionID uuid.UUID

	// EntryID identifies an audit log entry.
	EntryID uuid.UUID
)

// NewUserID returns a fresh random user ID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewSessionID returns a fresh random session ID. The uuid v4 space is large
// enough that collision handling stays a store-level concern.
func NewSessionID() SessionID { return SessionID(uuid.New()) }

// NewEntryID returns a fresh random audit entry ID.
func NewEntryID() EntryID { return EntryID(uuid.New()) }

func (id UserID) String() string    { return uuid.UUID(id).String() }
func (id SessionID) String() string { return uuid.UUID(id).String() }
func (id EntryID) String() string   { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id EntryID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }

// Text marshaling keeps the canonical uuid string on the wire; without it,
// encoding/json would serialize the underlying byte array.

func (id UserID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id SessionID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id EntryID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(raw []byte) error {
	parsed, err := ParseUserID(string(raw))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *SessionID) UnmarshalText(raw []byte) error {
	parsed, err := ParseSessionID(string(raw))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *EntryID) UnmarshalText(raw []byte) error {
	parsed, err := ParseEntryID(string(raw))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// parseUUID enforces the shared invariant: IDs must be valid, non-nil UUIDs.
func parseUUID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid uuid")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil uuid")
	}
	return parsed, nil
}

// ParseUserID parses a user ID from its string form.
func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return UserID{}, err
	}
	return UserID(parsed), nil
}

// ParseSessionID parses a session ID from its string form.
func ParseSessionID(raw string) (SessionID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return SessionID{}, err
	}
	return SessionID(parsed), nil
}

// ParseEntryID parses an audit entry ID from its string form.
func ParseEntryID(raw string) (EntryID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return EntryID{}, err
	}
	return EntryID(parsed), nil
}
