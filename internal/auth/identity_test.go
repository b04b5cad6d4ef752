package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windly-shop/windly/internal/auth"
)

func TestMiddleware(t *testing.T) {
	t.Run("rejects_missing_subject", func(t *testing.T) {
		called := false
		handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, called)
		assert.JSONEq(t, `{"success": false, "error": "unauthorized"}`, rec.Body.String())
	})

	t.Run("rejects_banned_account", func(t *testing.T) {
		called := false
		handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))

		req := httptest.NewRequest(http.MethodPost, "/cart/items", nil)
		req.Header.Set("X-User-Id", "oauth|123")
		req.Header.Set("X-User-Banned", "true")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.False(t, called, "a banned caller must not reach the handler")
		assert.JSONEq(t, `{"success": false, "error": "account is banned"}`, rec.Body.String())
	})

	t.Run("passes_identity_through_context", func(t *testing.T) {
		var got auth.Identity
		handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := auth.FromContext(r.Context())
			require.True(t, ok)
			got = id
		}))

		req := httptest.NewRequest(http.MethodGet, "/cart", nil)
		req.Header.Set("X-User-Id", "oauth|123")
		req.Header.Set("X-User-Role", "seller")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, auth.Identity{Subject: "oauth|123", Role: auth.RoleSeller}, got)
	})

	t.Run("unknown_role_falls_back_to_user", func(t *testing.T) {
		var got auth.Identity
		handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, _ = auth.FromContext(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/cart", nil)
		req.Header.Set("X-User-Id", "oauth|123")
		req.Header.Set("X-User-Role", "superuser")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, auth.RoleUser, got.Role)
		assert.False(t, got.Banned)
	})
}

func TestFromContext_Missing(t *testing.T) {
	_, ok := auth.FromContext(context.Background())
	assert.False(t, ok)
}
