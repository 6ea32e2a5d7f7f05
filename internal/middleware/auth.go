// Package middleware provides HTTP middleware for the bridge server.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ContextKey is a type for context keys.
type ContextKey string

const (
	// SubjectKey is the context key for the authenticated subject.
	SubjectKey ContextKey = "subject"
	// RolesKey is the context key for JWT roles.
	RolesKey ContextKey = "roles"
)

// Claims represents JWT claims for the operator endpoints.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

// Auth creates JWT authentication middleware for the operator endpoints.
// Without a configured secret every request is rejected; an empty secret
// must never become a valid signing key.
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if jwtSecret == "" {
				http.Error(w, `{"error":"authentication not configured"}`, http.StatusUnauthorized)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				http.Error(w, `{"error":"invalid authorization header format"}`, http.StatusUnauthorized)
				return
			}

			tokenString := parts[1]

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})

			if err != nil || !token.Valid {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), SubjectKey, claims.Subject)
			ctx = context.WithValue(ctx, RolesKey, claims.Roles)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSubject gets the authenticated subject from context.
func GetSubject(ctx context.Context) string {
	if v := ctx.Value(SubjectKey); v != nil {
		return v.(string)
	}
	return ""
}

// GetRoles gets roles from context.
func GetRoles(ctx context.Context) []string {
	if v := ctx.Value(RolesKey); v != nil {
		return v.([]string)
	}
	return nil
}

// HasAnyRole checks if the context carries at least one of the given roles.
func HasAnyRole(ctx context.Context, allowed []string) bool {
	roles := GetRoles(ctx)
	for _, role := range roles {
		for _, a := range allowed {
			if role == a {
				return true
			}
		}
	}
	return false
}

// RequireRole creates middleware that requires one of the allowed roles.
func RequireRole(allowed []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !HasAnyRole(r.Context(), allowed) {
				http.Error(w, `{"error":"insufficient permissions"}`, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
