// Package account provides read access to the accounts the session core
// references. Account lifecycle (registration, profile edits) belongs to
// the application; the auth core only looks accounts up and verifies
// passwords against the stored hash.
package account

import (
	"context"

	"gatehouse/internal/auth/models"
	id "gatehouse/pkg/domain"
)

type Store interface {
	FindByID(ctx context.Context, userID id.UserID) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
}
