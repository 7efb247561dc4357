package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/viewtube/viewtube-backend/internal/models"
	"github.com/viewtube/viewtube-backend/internal/repository"
	"github.com/viewtube/viewtube-backend/internal/services"
)

type contextKey string

const userContextKey contextKey = "currentUser"

// AccessTokenFromRequest reads the access token from the accessToken
// cookie, falling back to the Authorization: Bearer header.
func AccessTokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie("accessToken"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
}

// RequireAuth verifies the access token and loads the current user (sans
// secrets) into the request context. Requests without a valid token get a
// 401 envelope.
func RequireAuth(tokens *services.TokenService, users repository.Users) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := AccessTokenFromRequest(r)
			if tokenString == "" {
				unauthorized(w, "Unauthorized request")
				return
			}

			claims, err := tokens.VerifyAccessToken(tokenString)
			if err != nil {
				unauthorized(w, "Invalid access token")
				return
			}

			id, err := primitive.ObjectIDFromHex(claims.UserID)
			if err != nil {
				unauthorized(w, "Invalid access token")
				return
			}

			user, err := users.FindByID(r.Context(), id)
			if err != nil {
				unauthorized(w, "Invalid access token")
				return
			}

			sanitized := user.Sanitized()
			ctx := context.WithValue(r.Context(), userContextKey, &sanitized)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CurrentUser returns the authenticated user attached by RequireAuth.
func CurrentUser(r *http.Request) (*models.User, bool) {
	user, ok := r.Context().Value(userContextKey).(*models.User)
	return user, ok
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"statusCode":401,"data":null,"message":"` + message + `","success":false}`))
}
