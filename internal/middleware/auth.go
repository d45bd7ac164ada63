package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/indusops/opsdesk/internal/session"
	"github.com/indusops/opsdesk/internal/upstream"
	"github.com/indusops/opsdesk/internal/utils"
)

// Auth verifies the bearer token and puts the caller and their upstream
// identity on the request context. Browsers cannot set headers on a
// websocket upgrade, so a token query parameter is accepted as well.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "Authorization header required")
				return
			}

			claims, err := utils.ValidateToken(tokenString, secret)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			if t, _ := claims["type"].(string); t == "refresh" {
				writeError(w, http.StatusUnauthorized, "Refresh token cannot be used for API access")
				return
			}

			user, id := ClaimsUser(claims)
			user.IP = clientIP(r)
			ctx := session.WithUser(r.Context(), user, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsUser maps access-token claims onto the caller and upstream identity
func ClaimsUser(claims jwt.MapClaims) (session.User, upstream.Identity) {
	str := func(k string) string {
		s, _ := claims[k].(string)
		return s
	}
	var upstreamID int64
	if f, ok := claims["upstreamUserId"].(float64); ok {
		upstreamID = int64(f)
	}
	user := session.User{
		ID:             str("id"),
		Email:          str("email"),
		Name:           str("name"),
		Role:           str("role"),
		Department:     str("department"),
		UpstreamUserID: upstreamID,
	}
	id := upstream.Identity{
		CompanyID:        str("companyId"),
		Fyear:            str("fyear"),
		ProductionUnitID: str("productionUnitId"),
	}
	return user, id
}

func bearerToken(r *http.Request) (string, bool) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}
	if t := r.URL.Query().Get("token"); t != "" {
		return t, true
	}
	return "", false
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
