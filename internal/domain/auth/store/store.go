package store

import (
	"context"
	"time"
)

// Session is one logged-in token. Logout removes it, which revokes the token
// before its JWT expiry.
type Session struct {
	ID        string    `json:"id"`
	UserID    uint      `json:"user_id"`
	Username  string    `json:"username"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its lifetime.
func (s Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Store keeps active sessions. Get returns ok=false for unknown and expired
// sessions without an error.
type Store interface {
	Put(ctx context.Context, session Session) error
	Get(ctx context.Context, id string) (Session, bool, error)
	Remove(ctx context.Context, id string) error
	CleanupExpired(ctx context.Context) error
	Close(ctx context.Context) error
}

// Config selects and parameterizes the session backend.
type Config struct {
	Driver string
	TTL    time.Duration
	Redis  *RedisConfig
}

// RedisConfig captures connection options.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string
}
