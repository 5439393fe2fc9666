// Package authz decides which users may reach the admin surface. The auth
// core has no role model of its own, so the decision is an injected
// collaborator the embedding application implements.
package authz

import (
	"context"

	id "gatehouse/pkg/domain"
)

// Authorizer answers whether a user may use admin endpoints.
type Authorizer interface {
	IsAdmin(ctx context.Context, userID id.UserID) bool
}

// Static authorizes a fixed set of user ids, typically read from
// configuration at startup.
type Static struct {
	admins map[id.UserID]struct{}
}

func NewStatic(admins []id.UserID) *Static {
	s := &Static{admins: make(map[id.UserID]struct{}, len(admins))}
	for _, a := range admins {
		s.admins[a] = struct{}{}
	}
	return s
}

func (s *Static) IsAdmin(_ context.Context, userID id.UserID) bool {
	_, ok := s.admins[userID]
	return ok
}
