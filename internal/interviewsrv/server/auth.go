package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/prepstage/prepstage/internal/common/httpx"
)

type contextKey string

// userIDKey carries the authenticated subject through the request context.
const userIDKey contextKey = "userID"

// UserID returns the authenticated user id, or "" when auth is disabled.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// JWTAuth validates a bearer token signed with the shared HS256 secret and
// places the token subject in the request context. Health endpoints stay
// open so probes do not need credentials.
func JWTAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/version" || r.URL.Path == "/ready" {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenString == "" {
				httpx.ErrUnAuthorized("missing bearer token").Send(w)
				return
			}

			token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return secret, nil
			}, jwt.WithValidMethods([]string{"HS256"}))
			if err != nil || !token.Valid {
				httpx.ErrUnAuthorized("invalid token").Send(w)
				return
			}

			subject, err := token.Claims.GetSubject()
			if err != nil || subject == "" {
				httpx.ErrUnAuthorized("token has no subject").Send(w)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
