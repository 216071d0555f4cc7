package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func signToken(t *testing.T, claims jwt.MapClaims, method jwt.SigningMethod, key any) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func runAuth(t *testing.T, header string) (*httptest.ResponseRecorder, echo.Context, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Auth("secret")(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, c, called
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	signed := signToken(t, jwt.MapClaims{
		"sid":  "s-1",
		"sub":  "2",
		"role": "worker",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}, jwt.SigningMethodHS256, []byte("secret"))

	rec, c, called := runAuth(t, "Bearer "+signed)
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if c.Get(KeySessionID) != "s-1" {
		t.Fatalf("sid not set: %v", c.Get(KeySessionID))
	}
	if c.Get(KeySubject) != "2" {
		t.Fatalf("sub not set: %v", c.Get(KeySubject))
	}
	if c.Get(KeyRole) != nil {
		t.Fatalf("role must come from the session, not the token")
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	hour := time.Now().Add(time.Hour).Unix()
	tests := map[string]string{
		"missing header": "",
		"wrong scheme":   "Token abc",
		"garbage token":  "Bearer not-a-token",
		"wrong secret":   "Bearer " + signToken(t, jwt.MapClaims{"sid": "s", "exp": hour}, jwt.SigningMethodHS256, []byte("other")),
		"expired":        "Bearer " + signToken(t, jwt.MapClaims{"sid": "s", "exp": time.Now().Add(-time.Hour).Unix()}, jwt.SigningMethodHS256, []byte("secret")),
		"missing sid":    "Bearer " + signToken(t, jwt.MapClaims{"sub": "1", "exp": hour}, jwt.SigningMethodHS256, []byte("secret")),
		"unexpected alg": "Bearer " + signToken(t, jwt.MapClaims{"sid": "s", "exp": hour}, jwt.SigningMethodHS512, []byte("secret")),
	}
	for name, header := range tests {
		t.Run(name, func(t *testing.T) {
			rec, _, called := runAuth(t, header)
			if called {
				t.Fatalf("should not reach next")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}
