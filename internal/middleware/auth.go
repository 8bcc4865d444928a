package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"memwatch/internal/model"
)

// userLoader resolves a bearer token to the user it names. Implemented by
// service.AuthService.
type userLoader interface {
	UserFromToken(ctx context.Context, tokenString string) (model.User, error)
}

type contextKey string

const currentUserContextKey contextKey = "current_user"

type AuthMiddleware struct {
	loader userLoader
}

func NewAuthMiddleware(loader userLoader) *AuthMiddleware {
	return &AuthMiddleware{loader: loader}
}

// RequireAuth authenticates the request from its bearer token and stores
// the resolved user in the request context. Missing, malformed, expired
// and tampered tokens are all a single undifferentiated 401.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid authorization header")
			return
		}

		tokenString := strings.TrimSpace(header[7:])
		user, err := m.loader.UserFromToken(r.Context(), tokenString)
		if err != nil {
			writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "could not validate credentials")
			return
		}

		ctx := context.WithValue(r.Context(), currentUserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireActive rejects deactivated users with a 400. It runs after
// RequireAuth: a deactivated user can still log in and obtain a token, but
// cannot use it against protected resources.
func (m *AuthMiddleware) RequireActive(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
			return
		}

		if !user.Activated {
			writeAuthError(w, http.StatusBadRequest, "INACTIVE", "inactive user")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func UserFromContext(ctx context.Context) (model.User, bool) {
	user, ok := ctx.Value(currentUserContextKey).(model.User)
	return user, ok
}

func writeAuthError(w http.ResponseWriter, status int, code string, message string) {
	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(model.ErrorResponse{
		Error: model.APIError{Code: code, Message: message},
	})
}
