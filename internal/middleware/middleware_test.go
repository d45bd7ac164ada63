package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/indusops/opsdesk/internal/config"
	"github.com/indusops/opsdesk/internal/models"
	"github.com/indusops/opsdesk/internal/session"
	"github.com/indusops/opsdesk/internal/upstream"
	"github.com/indusops/opsdesk/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func tokens(t *testing.T) (string, string) {
	t.Helper()
	access, refresh, err := utils.GenerateTokens(&models.UserAuth{
		ID: "u-1", Email: "asha@example.com", Name: "Asha", Role: models.RoleHOD,
		UpstreamUserID: 4, CompanyID: "2", Fyear: "2026-2027", ProductionUnitID: "1",
	}, &config.Config{JWTSecret: secret})
	require.NoError(t, err)
	return access, refresh
}

func echoIdentity() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, _ := session.UserFrom(r.Context())
		id, _ := upstream.IdentityFrom(r.Context())
		w.Header().Set("X-User", u.Name+"|"+u.Role+"|"+u.IP)
		w.Header().Set("X-Identity", id.CompanyID+"|"+id.UserID+"|"+id.Fyear)
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuth(t *testing.T) {
	access, refresh := tokens(t)
	h := Auth(secret)(echoIdentity())

	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{"bearer", "Bearer " + access, "", http.StatusOK},
		{"query token", "", "?token=" + access, http.StatusOK},
		{"missing", "", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + access, "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", "", http.StatusUnauthorized},
		{"refresh token", "Bearer " + refresh, "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/me"+tt.query, nil)
			req.RemoteAddr = "10.0.0.7:5555"
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, "Asha|hod|10.0.0.7", rec.Header().Get("X-User"))
				assert.Equal(t, "2|4|2026-2027", rec.Header().Get("X-Identity"))
			} else {
				assert.Contains(t, rec.Body.String(), `"error"`)
			}
		})
	}
}

func TestAuthRejectsOtherSecret(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": "x", "exp": time.Now().Add(time.Hour).Unix()})
	signed, err := token.SignedString([]byte("other"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	Auth(secret)(echoIdentity()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(models.RolePurchase, models.RoleOperations)(echoIdentity())

	tests := []struct {
		role string
		want int
	}{
		{models.RolePurchase, http.StatusOK},
		{models.RoleAdmin, http.StatusOK},
		{models.RoleKAM, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/rate-queries/1/rate", nil)
			req = req.WithContext(session.WithUser(req.Context(), session.User{Role: tt.role}, upstream.Identity{}))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{RPS: 1, Burst: 2})
	h := rl.Limit(echoIdentity())

	call := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
		req.Header.Set("X-Forwarded-For", ip+", 172.16.0.1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call("1.1.1.1"))
	assert.Equal(t, http.StatusOK, call("1.1.1.1"))
	assert.Equal(t, http.StatusTooManyRequests, call("1.1.1.1"))
	assert.Equal(t, http.StatusOK, call("2.2.2.2"), "clients are limited separately")
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{})
	now := time.Date(2026, 10, 2, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	rl.get("a")
	now = now.Add(limiterIdleAfter + time.Minute)
	rl.get("b")

	assert.Equal(t, 1, rl.cleanup())
	assert.Len(t, rl.clients, 1)
}
