package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"mealvision-server/internal/domain/auth/store"
	platformerrors "mealvision-server/internal/platform/errors"
	"mealvision-server/internal/platform/logging"
)

const (
	defaultCleanupInterval = 10 * time.Minute
	minPasswordLength      = 6
)

// Options encapsulates the dependencies required to construct a Service.
type Options struct {
	Accounts        AccountRepository
	Sessions        store.Store
	Tokens          *TokenIssuer
	Logger          *logging.Logger
	CleanupInterval time.Duration
}

// Service owns the account and session lifecycle: registration, login,
// logout and token resolution. Tokens are only honored while their session
// exists, so logout revokes access immediately.
type Service struct {
	accounts AccountRepository
	sessions store.Store
	tokens   *TokenIssuer
	logger   *logging.Logger

	cleanupStop chan struct{}
	cleanupOnce sync.Once
}

func NewService(opts Options) (*Service, error) {
	if opts.Accounts == nil {
		return nil, platformerrors.New(platformerrors.KindConfig, "auth.new", "auth service requires an account repository")
	}
	if opts.Sessions == nil {
		return nil, platformerrors.New(platformerrors.KindConfig, "auth.new", "auth service requires a session store")
	}
	if opts.Tokens == nil {
		return nil, platformerrors.New(platformerrors.KindConfig, "auth.new", "auth service requires a token issuer")
	}

	interval := opts.CleanupInterval
	if interval <= 0 {
		interval = defaultCleanupInterval
	}

	svc := &Service{
		accounts:    opts.Accounts,
		sessions:    opts.Sessions,
		tokens:      opts.Tokens,
		logger:      opts.Logger,
		cleanupStop: make(chan struct{}),
	}
	go svc.runCleanup(interval)
	return svc, nil
}

func (s *Service) runCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.sessions.CleanupExpired(context.Background()); err != nil {
				s.logger.WarnTag("AUTH", "session cleanup failed: %v", err)
			}
		case <-s.cleanupStop:
			return
		}
	}
}

// Register creates a new account. Usernames are unique; the password is
// salted and hashed before it touches storage.
func (s *Service) Register(ctx context.Context, username, password, nickname string) (*Account, error) {
	if username == "" || len(password) < minPasswordLength {
		return nil, platformerrors.New(platformerrors.KindDomain, "auth.register",
			"username and a password of at least 6 characters are required")
	}

	existing, err := s.accounts.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, platformerrors.New(platformerrors.KindDomain, "auth.register", "username already taken")
	}

	salt, err := NewSalt()
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindAuth, "auth.register", "generate salt", err)
	}

	account := &Account{
		Username:     username,
		PasswordHash: HashPassword(password, salt),
		Salt:         salt,
		Nickname:     nickname,
		CreatedAt:    time.Now(),
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	s.logger.InfoTag("AUTH", "registered account %s (id %d)", username, account.ID)
	return account, nil
}

// Login verifies credentials, opens a session and issues its token.
func (s *Service) Login(ctx context.Context, username, password string) (*Account, string, error) {
	account, err := s.accounts.FindByUsername(ctx, username)
	if err != nil {
		return nil, "", err
	}
	if account == nil || !VerifyPassword(password, account.Salt, account.PasswordHash) {
		// One message for both cases so login cannot probe for usernames.
		return nil, "", platformerrors.NewCoded(platformerrors.KindAuth,
			platformerrors.CodeUnauthenticated, "auth.login", "invalid username or password")
	}

	sessionID := uuid.NewString()
	token, err := s.tokens.Generate(sessionID, account)
	if err != nil {
		return nil, "", err
	}

	now := time.Now()
	session := store.Session{
		ID:        sessionID,
		UserID:    account.ID,
		Username:  account.Username,
		OwnerID:   account.OwnerID(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.tokens.TTL()),
	}
	if err := s.sessions.Put(ctx, session); err != nil {
		return nil, "", platformerrors.Wrap(platformerrors.KindAuth, "auth.login", "store session", err)
	}

	s.logger.InfoTag("AUTH", "login %s (session %s)", username, sessionID)
	return account, token, nil
}

// Logout removes the token's session. Verification failures are reported the
// same way as unknown sessions.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return err
	}
	if err := s.sessions.Remove(ctx, claims.SessionID); err != nil {
		return platformerrors.Wrap(platformerrors.KindAuth, "auth.logout", "remove session", err)
	}
	s.logger.InfoTag("AUTH", "logout %s (session %s)", claims.Username, claims.SessionID)
	return nil
}

// Resolve turns a bearer token into its live session. Tokens whose session
// was logged out or expired resolve to an unauthenticated error even when
// the JWT itself is still valid.
func (s *Service) Resolve(ctx context.Context, token string) (*store.Session, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	session, ok, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindAuth, "auth.resolve", "load session", err)
	}
	if !ok {
		return nil, platformerrors.NewCoded(platformerrors.KindAuth,
			platformerrors.CodeUnauthenticated, "auth.resolve", "session no longer active")
	}
	return &session, nil
}

// CurrentUser loads the account behind a live session.
func (s *Service) CurrentUser(ctx context.Context, token string) (*Account, error) {
	session, err := s.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	account, err := s.accounts.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, platformerrors.NewCoded(platformerrors.KindAuth,
			platformerrors.CodeUnauthenticated, "auth.current", "account no longer exists")
	}
	return account, nil
}

// Close stops background cleanup and releases the session backend.
func (s *Service) Close() error {
	s.cleanupOnce.Do(func() {
		close(s.cleanupStop)
	})
	return s.sessions.Close(context.Background())
}
