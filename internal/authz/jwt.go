// Package authz mints and validates the short-lived bearer tokens an
// HTTPAgent presents to a remote webhook-style agent process, and the
// client-credentials tokens it uses when a provider requires OAuth2 instead
// of a static API key.
package authz

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("missing authorization token")
)

// Claims identifies the match and player an agent call is acting on behalf
// of, so a remote agent process can scope its response to the right seat.
type Claims struct {
	MatchID string `json:"match_id"`
	Player  int    `json:"player"`
	Game    string `json:"game"`
	jwt.RegisteredClaims
}

// JWTManager mints and validates agent-call tokens for one tournament run.
type JWTManager struct {
	secret []byte
	expiry time.Duration
}

// NewJWTManager creates a JWTManager with the given secret. expiry should
// comfortably exceed one agent call's timeout; callers mint a fresh token
// per Act invocation rather than reusing one across a whole match.
func NewJWTManager(secret string, expiry time.Duration) *JWTManager {
	if expiry <= 0 {
		expiry = time.Minute
	}
	return &JWTManager{secret: []byte(secret), expiry: expiry}
}

// GenerateAgentToken creates a token scoping one agent call to a match/player/game.
func (m *JWTManager) GenerateAgentToken(matchID string, player int, game string) (string, error) {
	subject := matchID
	claims := &Claims{
		MatchID: matchID,
		Player:  player,
		Game:    game,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.expiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   subject,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ValidateToken parses and validates a JWT string, returning the claims.
func (m *JWTManager) ValidateToken(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrMissingToken
	}
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
