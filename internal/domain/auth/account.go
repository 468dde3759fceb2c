package auth

import (
	"context"
	"time"
)

// Account is a registered user. PasswordHash is the salted digest; the
// plaintext never leaves the request handler.
type Account struct {
	ID           uint      `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Salt         string    `json:"-"`
	Nickname     string    `json:"nickname"`
	CreatedAt    time.Time `json:"created_at"`
}

// OwnerID is the stable identifier used to scope meal records and artifact
// keys. It is derived from the numeric account ID so renames never orphan
// history.
func (a *Account) OwnerID() string {
	return ownerIDFor(a.ID)
}

// AccountRepository persists accounts. FindByUsername returns nil without
// error when no account matches.
type AccountRepository interface {
	Create(ctx context.Context, account *Account) error
	FindByUsername(ctx context.Context, username string) (*Account, error)
	FindByID(ctx context.Context, id uint) (*Account, error)
}
