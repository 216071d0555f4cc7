package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/smartwaste/civic-core/internal/core/domain"
)

// JWTIssuer signs HS256 tokens that bind a client to a session id.
type JWTIssuer struct {
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
}

func NewJWTIssuer(secret string, tokenTTL time.Duration) *JWTIssuer {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &JWTIssuer{secret: []byte(secret), tokenTTL: tokenTTL, now: time.Now}
}

// Issue returns a signed token for sessionID and its expiry. The role claim
// records the role at login time only; the session store stays authoritative.
func (i *JWTIssuer) Issue(sessionID string, identity domain.Identity) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(i.tokenTTL)
	claims := jwt.MapClaims{
		"sid":  sessionID,
		"sub":  identity.ID,
		"role": identity.Role.String(),
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}
