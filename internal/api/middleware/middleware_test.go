package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const secret = "segredo-de-teste"

func init() {
	gin.SetMode(gin.TestMode)
}

func sign(t *testing.T, key string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func router(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, Owner(c))
	})
	return r
}

func TestAuth(t *testing.T) {
	valid := sign(t, secret, jwt.MapClaims{"username": "ana", "roles": []string{"user"}, "exp": time.Now().Add(time.Hour).Unix()})
	expired := sign(t, secret, jwt.MapClaims{"username": "ana", "exp": time.Now().Add(-time.Hour).Unix()})
	otherKey := sign(t, "outra-chave", jwt.MapClaims{"username": "ana", "exp": time.Now().Add(time.Hour).Unix()})
	noUser := sign(t, secret, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})

	tests := []struct {
		name   string
		secret string
		header string
		code   int
		owner  string
	}{
		{"desligado", "", "", http.StatusOK, LocalOwner},
		{"token válido", secret, "Bearer " + valid, http.StatusOK, "ana"},
		{"sem header", secret, "", http.StatusUnauthorized, ""},
		{"sem bearer", secret, valid, http.StatusUnauthorized, ""},
		{"expirado", secret, "Bearer " + expired, http.StatusUnauthorized, ""},
		{"outra chave", secret, "Bearer " + otherKey, http.StatusUnauthorized, ""},
		{"sem username", secret, "Bearer " + noUser, http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			router(Auth(tt.secret)).ServeHTTP(w, req)
			if w.Code != tt.code {
				t.Fatalf("code = %d, want %d (%s)", w.Code, tt.code, w.Body.String())
			}
			if tt.code == http.StatusOK && w.Body.String() != tt.owner {
				t.Errorf("owner = %q, want %q", w.Body.String(), tt.owner)
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	r := router(rl.Middleware())

	do := func(ip string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.RemoteAddr = ip + ":1234"
		r.ServeHTTP(w, req)
		return w.Code
	}

	if do("10.0.0.1") != http.StatusOK || do("10.0.0.1") != http.StatusOK {
		t.Fatal("burst should allow two requests")
	}
	if code := do("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Errorf("third request = %d", code)
	}
	if code := do("10.0.0.2"); code != http.StatusOK {
		t.Errorf("other client = %d", code)
	}

	now = now.Add(time.Second)
	if code := do("10.0.0.1"); code != http.StatusOK {
		t.Errorf("after refill = %d", code)
	}
}
