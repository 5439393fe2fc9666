// Package interceptor records state-changing requests as audit entries
// without the business handlers knowing about auditing.
package interceptor

import (
	"encoding/json"
	"strings"

	"gatehouse/pkg/platform/audit"
)

// Rule resolves an entity reference from a request path. Rules are explicit
// and ordered; the first match wins, which replaces the old "first bound
// model by priority" runtime guess with a registered table that yields the
// same result for every known route shape.
type Rule interface {
	Match(path string) (entityType, entityID string, ok bool)
}

// Resolver applies an ordered rule list.
type Resolver struct {
	rules []Rule
}

// NewResolver builds a resolver. Applications with custom routes prepend
// their own rules ahead of DefaultRules().
func NewResolver(rules ...Rule) *Resolver {
	return &Resolver{rules: rules}
}

func (r *Resolver) Resolve(path string) (entityType, entityID string, ok bool) {
	for _, rule := range r.rules {
		if t, id, matched := rule.Match(path); matched {
			return t, id, true
		}
	}
	return "", "", false
}

// DefaultRules covers the tracker's resource routes. Order matters: it
// reproduces the original binding priority (comment before ticket before
// label, and so on), with the organization-member composite ahead of all
// single-entity rules.
func DefaultRules() []Rule {
	return []Rule{
		memberRule{},
		segmentRule{plural: "comments", entityType: audit.EntityComment},
		segmentRule{plural: "tickets", entityType: audit.EntityTicket},
		segmentRule{plural: "labels", entityType: audit.EntityLabel},
		segmentRule{plural: "projects", entityType: audit.EntityProject},
		segmentRule{plural: "invitations", entityType: audit.EntityInvitation},
		segmentRule{plural: "organizations", entityType: audit.EntityOrganization},
		segmentRule{plural: "admins", entityType: audit.EntityAdmin},
		segmentRule{plural: "users", entityType: audit.EntityUser},
		segmentRule{plural: "sessions", entityType: audit.EntitySession},
	}
}

// pluralToType backs the payload-inference fallback.
var pluralToType = map[string]string{
	"comments":      audit.EntityComment,
	"tickets":       audit.EntityTicket,
	"labels":        audit.EntityLabel,
	"projects":      audit.EntityProject,
	"invitations":   audit.EntityInvitation,
	"organizations": audit.EntityOrganization,
	"admins":        audit.EntityAdmin,
	"users":         audit.EntityUser,
	"sessions":      audit.EntitySession,
}

// segmentRule matches "/<plural>/<id>" anywhere in the path.
type segmentRule struct {
	plural     string
	entityType string
}

func (r segmentRule) Match(path string) (string, string, bool) {
	segments := splitPath(path)
	for i := 0; i+1 < len(segments); i++ {
		if segments[i] == r.plural && segments[i+1] != "" {
			return r.entityType, segments[i+1], true
		}
	}
	return "", "", false
}

// memberRule matches the organization-member two-id shape and yields the
// composite "{orgId}:{userId}" entity id.
type memberRule struct{}

func (memberRule) Match(path string) (string, string, bool) {
	segments := splitPath(path)
	for i := 0; i+3 < len(segments); i++ {
		if segments[i] == "organizations" && segments[i+2] == "members" && segments[i+1] != "" && segments[i+3] != "" {
			return audit.EntityOrganizationMember, audit.CompositeID(segments[i+1], segments[i+3]), true
		}
	}
	return "", "", false
}

func splitPath(path string) []string {
	return strings.Split(strings.Trim(path, "/"), "/")
}

// inferFromPayload is the fallback for routes that bind no path entity
// (creation endpoints, pivot attachments). It inspects the "after" snapshot.
func inferFromPayload(path string, after json.RawMessage) (entityType, entityID string, ok bool) {
	if after == nil {
		return "", "", false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(after, &fields); err != nil {
		return "", "", false
	}

	if ticketID, tok := scalarField(fields, "ticket_id"); tok {
		if labelID, lok := scalarField(fields, "label_id"); lok {
			return audit.EntityTicketLabel, audit.CompositeID(ticketID, labelID), true
		}
	}

	if strings.Contains(path, "/members") {
		if orgID, ook := scalarField(fields, "organization_id"); ook {
			if userID, uok := scalarField(fields, "user_id"); uok {
				return audit.EntityOrganizationMember, audit.CompositeID(orgID, userID), true
			}
		}
	}

	if entityID, iok := scalarField(fields, "id"); iok {
		// Last matching plural segment wins: a POST to
		// /api/projects/7/tickets creates a ticket, not a project.
		segments := splitPath(path)
		for i := len(segments) - 1; i >= 0; i-- {
			if t, known := pluralToType[segments[i]]; known {
				return t, entityID, true
			}
		}
	}

	return "", "", false
}

// scalarField renders a string or number field as its string form.
func scalarField(fields map[string]json.RawMessage, name string) (string, bool) {
	raw, ok := fields[name]
	if !ok {
		return "", false
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str, true
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		return num.String(), true
	}
	return "", false
}
