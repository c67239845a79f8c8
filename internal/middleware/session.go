// Package middleware provides HTTP middlewares for authentication and logging.
package middleware

import (
	"context"
	"net/http"
)

type ctxKey string

const userKey ctxKey = "user"

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "anti-theft-session"

// SessionChecker resolves a session token to an account id.
type SessionChecker interface {
	Check(ctx context.Context, token string) (string, bool, error)
}

// SessionAuth is a middleware that admits only requests carrying a live
// session cookie.
//
// On success it stores the account id bound to the session in the request
// context, so it can be used downstream as the authenticated user ID.
// Otherwise it answers 401 with {"message":"Unauthorized"}.
func SessionAuth(sessions SessionChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				unauthorized(w)
				return
			}

			accountID, ok, err := sessions.Check(r.Context(), cookie.Value)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"message":"internal error"}`))
				return
			}
			if !ok {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, accountID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"message":"Unauthorized"}`))
}

// GetUserIDFromContext extracts the authenticated account ID from the
// request context. Returns an empty string if not found.
func GetUserIDFromContext(ctx context.Context) string {
	val := ctx.Value(userKey)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}

// CloseConnection asks the client to close the connection after the
// response. The bike's modem cannot keep sockets open between readings.
func CloseConnection(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Connection", "close")
		next.ServeHTTP(w, r)
	})
}
