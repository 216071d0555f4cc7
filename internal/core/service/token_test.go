package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/smartwaste/civic-core/internal/core/domain"
)

func TestJWTIssuer_Issue(t *testing.T) {
	issuer := NewJWTIssuer("secret", time.Hour)
	identity := DemoIdentities()[2]

	issuer.now = func() time.Time { return time.Now().Truncate(time.Second) }
	token, exp, err := issuer.Issue("sid-123", identity)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token, got empty")
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	if claims["sid"] != "sid-123" {
		t.Fatalf("expected sid claim, got %v", claims["sid"])
	}
	if claims["role"] != string(domain.RoleAdmin) {
		t.Fatalf("expected role %s, got %v", domain.RoleAdmin, claims["role"])
	}
	if got, _ := claims.GetExpirationTime(); got == nil || !got.Time.Equal(exp) {
		t.Fatalf("expected exp %v, got %v", exp, got)
	}
}

func TestJWTIssuer_WrongSecret(t *testing.T) {
	token, _, err := NewJWTIssuer("secret", time.Hour).Issue("sid", DemoIdentities()[0])
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	_, err = jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		return []byte("other"), nil
	})
	if err == nil {
		t.Fatalf("expected signature error")
	}
}
