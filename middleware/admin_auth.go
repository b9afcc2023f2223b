package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rickyzatnika/new-spinner/models"
	"github.com/rickyzatnika/new-spinner/utils"
)

// AdminAuthenticator resolves a bearer token to an admin account.
type AdminAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Admin, error)
}

var errNoToken = errors.New("no token")

func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")), nil
	}
	// Browsers cannot set headers on websocket handshakes.
	if tok := strings.TrimSpace(r.URL.Query().Get("token")); tok != "" && r.Method == http.MethodGet {
		return tok, nil
	}
	return "", errNoToken
}

// AdminAuth verifies that the request is from an authenticated admin and
// stores the admin id in the request context. When enabled is false every
// request passes through untouched.
func AdminAuth(auth AdminAuthenticator, enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{
					Success: false,
					Message: "Unauthorized: No token provided",
				})
				return
			}

			admin, err := auth.Authenticate(r.Context(), tokenString)
			if err != nil {
				utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{
					Success: false,
					Message: "Unauthorized: Invalid token",
				})
				return
			}

			ctx := context.WithValue(r.Context(), utils.AdminIDKey, admin.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
