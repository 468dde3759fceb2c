package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	platformerrors "mealvision-server/internal/platform/errors"
)

// TokenIssuer signs and verifies user scoped JWT tokens.
type TokenIssuer struct {
	secretKey []byte
	ttl       time.Duration
}

// TokenClaims is what a verified token asserts about its bearer.
type TokenClaims struct {
	SessionID string
	UserID    uint
	Username  string
}

func NewTokenIssuer(secretKey string, ttl time.Duration) (*TokenIssuer, error) {
	if secretKey == "" {
		return nil, platformerrors.New(platformerrors.KindConfig, "auth.token", "jwt secret is required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secretKey: []byte(secretKey), ttl: ttl}, nil
}

// TTL reports the lifetime stamped into issued tokens.
func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}

// Generate issues a JWT bound to the session and the account.
func (t *TokenIssuer) Generate(sessionID string, account *Account) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"jti":      sessionID,
		"user_id":  float64(account.ID),
		"username": account.Username,
		"iat":      now.Unix(),
		"exp":      now.Add(t.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secretKey)
	if err != nil {
		return "", platformerrors.Wrap(platformerrors.KindAuth, "auth.token", "sign token", err)
	}
	return signed, nil
}

// Verify validates the signature and expiry and extracts the claims.
func (t *TokenIssuer) Verify(tokenString string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secretKey, nil
	})
	if err != nil || !token.Valid {
		return nil, platformerrors.NewCoded(platformerrors.KindAuth,
			platformerrors.CodeUnauthenticated, "auth.token", "invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, platformerrors.NewCoded(platformerrors.KindAuth,
			platformerrors.CodeUnauthenticated, "auth.token", "invalid claims")
	}

	sessionID, _ := claims["jti"].(string)
	username, _ := claims["username"].(string)
	userID, idOK := claims["user_id"].(float64)
	if sessionID == "" || !idOK {
		return nil, platformerrors.NewCoded(platformerrors.KindAuth,
			platformerrors.CodeUnauthenticated, "auth.token", "token missing identity claims")
	}

	return &TokenClaims{
		SessionID: sessionID,
		UserID:    uint(userID),
		Username:  username,
	}, nil
}
