package auth

import (
	"context"
	"encoding/json"
	"net/http"
)

type Role string

const (
	RoleUser   Role = "user"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

// Identity is what the external OAuth gateway tells us about the caller.
// The subject is an opaque provider-issued string; nothing here verifies
// tokens, that happens upstream.
type Identity struct {
	Subject string
	Role    Role
	Banned  bool
}

type ctxKey struct{}

const (
	headerUserID = "X-User-Id"
	headerRole   = "X-User-Role"
	headerBanned = "X-User-Banned"
)

// Middleware extracts the gateway-provided identity headers. Requests
// without a subject are rejected, as are banned accounts: the policy denies
// them too, but cutting them off here keeps every handler behind the gate.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject := r.Header.Get(headerUserID)
		if subject == "" {
			rejectJSON(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if r.Header.Get(headerBanned) == "true" {
			rejectJSON(w, http.StatusForbidden, "account is banned")
			return
		}

		role := Role(r.Header.Get(headerRole))
		switch role {
		case RoleUser, RoleSeller, RoleAdmin:
		default:
			role = RoleUser
		}

		id := Identity{
			Subject: subject,
			Role:    role,
			Banned:  r.Header.Get(headerBanned) == "true",
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

func rejectJSON(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "error": msg})
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
