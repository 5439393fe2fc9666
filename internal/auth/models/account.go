package models

import id "gatehouse/pkg/domain"

// Account is the owning identity of a session. The auth core treats accounts
// as read-mostly; creation and profile management belong to the application.
type Account struct {
	ID           id.UserID
	Email        string
	Name         string
	PasswordHash string
	Active       bool
	Deleted      bool
}

// Usable reports whether sessions owned by this account may authenticate.
func (a *Account) Usable() bool {
	return a.Active && !a.Deleted
}
