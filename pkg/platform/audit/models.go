// Package audit defines the append-only record of state-changing requests.
// Entries are captured transparently by the HTTP interceptor and persisted
// asynchronously; nothing in the write path ever deletes one.
package audit

import (
	"encoding/json"
	"time"

	id "gatehouse/pkg/domain"
)

// Entry is one immutable record of a state-changing request.
//
// EntityType is a coarse category ("ticket", "comment", "organization_member",
// ...); EntityID is the entity's id, or a deterministic "a:b" join for
// composite keys. Before and After are snapshots of the entity around the
// request; either may be nil when no snapshot could be resolved.
type Entry struct {
	ID          id.EntryID
	EntityType  string
	EntityID    string
	Action      string     // lower-cased HTTP verb ("post", "patch", ...) or an auth event below
	PerformedBy *id.UserID // nil for unauthenticated mutations
	Before      json.RawMessage
	After       json.RawMessage
	IPAddress   string
	IsDeleted   bool
	CreatedAt   time.Time
}

// Entity types resolved from routes. The composite types join two ids with
// ":" in EntityID.
const (
	EntityComment            = "comment"
	EntityTicket             = "ticket"
	EntityLabel              = "label"
	EntityProject            = "project"
	EntityInvitation         = "invitation"
	EntityOrganization       = "organization"
	EntityAdmin              = "admin"
	EntityUser               = "user"
	EntitySession            = "session"
	EntityOrganizationMember = "organization_member"
	EntityTicketLabel        = "ticket_label"
)

// Auth flow actions recorded by the auth service itself, outside the HTTP
// interceptor.
const (
	ActionLogin       = "login"
	ActionLoginFailed = "login_failed"
	ActionRevoke      = "revoke"
)

// CompositeID joins two component ids deterministically.
func CompositeID(a, b string) string {
	return a + ":" + b
}

// wireEntry is the JSON shape used by the Kafka publisher and tests. Field
// names match the persisted column names so downstream consumers can
// correlate with the materialized table.
type wireEntry struct {
	ID          string          `json:"id"`
	EntityType  string          `json:"entity_type"`
	EntityID    string          `json:"entity_id"`
	Action      string          `json:"action"`
	PerformedBy string          `json:"performed_by,omitempty"`
	Before      json.RawMessage `json:"before,omitempty"`
	After       json.RawMessage `json:"after,omitempty"`
	IPAddress   string          `json:"ip_address"`
	CreatedAt   string          `json:"created_at"`
}

// MarshalWire serializes an entry for the event stream.
func MarshalWire(e *Entry) ([]byte, error) {
	w := wireEntry{
		ID:         e.ID.String(),
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Action:     e.Action,
		Before:     e.Before,
		After:      e.After,
		IPAddress:  e.IPAddress,
		CreatedAt:  e.CreatedAt.Format(time.RFC3339Nano),
	}
	if e.PerformedBy != nil {
		w.PerformedBy = e.PerformedBy.String()
	}
	return json.Marshal(w)
}
