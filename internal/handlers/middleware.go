package handlers

import (
	"context"
	"net/http"
	"strings"

	"kintree/internal/security"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const UserIDContextKey ContextKey = "user_id"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	tokens *security.TokenManager
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(tokens *security.TokenManager) *Middleware {
	return &Middleware{tokens: tokens}
}

// RequireAuth requires a valid Bearer token and puts the caller's user id
// on the request context
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
			return
		}

		userID, err := m.tokens.ValidateToken(token)
		if err != nil {
			respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid or expired token"})
			return
		}

		ctx := context.WithValue(r.Context(), UserIDContextKey, userID)
		next(w, r.WithContext(ctx))
	}
}

// userIDFromContext returns the authenticated caller's user id
func userIDFromContext(ctx context.Context) int64 {
	userID, _ := ctx.Value(UserIDContextKey).(int64)
	return userID
}
