package httpkit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dealership_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type testJWTConfig struct{}

func (testJWTConfig) GetJWTAccessSecret() string { return "test-secret" }

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func newAuthEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/admin", AuthRequired(testJWTConfig{}), RequireRole(RoleAdmin), func(c *gin.Context) {
		actor, _ := ActorFromContext(c)
		c.String(http.StatusOK, actor.UserID.String())
	})
	return engine
}

func TestAuthRequiredAcceptsAdminAccessToken(t *testing.T) {
	userID := uuid.New()
	token := signToken(t, jwt.MapClaims{
		"sub":   userID.String(),
		"type":  "access",
		"roles": []string{"admin"},
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	newAuthEngine().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != userID.String() {
		t.Fatalf("expected actor id %s, got %s", userID, rec.Body.String())
	}
}

func TestAuthRequiredRejectsRefreshTokenAndMissingRole(t *testing.T) {
	tests := []struct {
		name   string
		claims jwt.MapClaims
		want   int
	}{
		{"refresh token", jwt.MapClaims{"sub": uuid.NewString(), "type": "refresh", "roles": []string{"admin"}}, http.StatusUnauthorized},
		{"no admin role", jwt.MapClaims{"sub": uuid.NewString(), "type": "access", "roles": []string{"sales"}}, http.StatusForbidden},
		{"bad subject", jwt.MapClaims{"sub": "nope", "type": "access"}, http.StatusUnauthorized},
	}

	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, tc.claims))
		rec := httptest.NewRecorder()
		newAuthEngine().ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Errorf("%s: expected %d, got %d", tc.name, tc.want, rec.Code)
		}
	}
}

func TestRequestIDKeepsValidHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/", func(c *gin.Context) {
		id, _ := c.Request.Context().Value(logger.RequestIDKey).(string)
		c.String(http.StatusOK, id)
	})

	incoming := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, incoming)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if rec.Body.String() != incoming || rec.Header().Get(HeaderRequestID) != incoming {
		t.Fatalf("expected request id %s, got body %q header %q", incoming, rec.Body.String(), rec.Header().Get(HeaderRequestID))
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "not-an-id")
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if _, err := uuid.Parse(rec.Body.String()); err != nil {
		t.Fatalf("expected generated uuid, got %q", rec.Body.String())
	}
}
