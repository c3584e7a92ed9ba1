package authgate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookly/internal/auth"
	resp "bookly/internal/lib/api/response"
	"bookly/internal/lib/jwt"
	"bookly/internal/lib/logger/handlers/slogdiscard"
	"bookly/internal/models"
	"bookly/internal/revocation"
	"bookly/internal/storage/memory"
)

type fixture struct {
	gate    *auth.Gate
	tokens  *jwt.Codec
	revoked *revocation.Store
	user    models.User
	admin   models.User
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	log := slogdiscard.NewDiscardLogger()
	store := memory.New()
	tokens := jwt.New("secret", time.Minute, time.Hour)
	revoked := revocation.New(log, nil)

	user, err := store.SaveUser(context.Background(), models.User{
		Username: "john", Email: "john@co.com", Role: models.RoleUser, IsActive: true, IsVerified: true,
	})
	require.NoError(t, err)

	admin, err := store.SaveUser(context.Background(), models.User{
		Username: "root", Email: "root@co.com", Role: models.RoleAdmin, IsActive: true, IsVerified: true,
	})
	require.NoError(t, err)

	return fixture{
		gate:    auth.NewGate(log, tokens, revoked, store),
		tokens:  tokens,
		revoked: revoked,
		user:    user,
		admin:   admin,
	}
}

func serve(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var body resp.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	return body.ErrorCode
}

func TestRequireAccess(t *testing.T) {
	f := newFixture(t)
	log := slogdiscard.NewDiscardLogger()

	var seen models.User
	h := RequireAccess(log, f.gate)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := CurrentUser(r.Context())
		require.True(t, ok)
		seen = user
		w.WriteHeader(http.StatusOK)
	}))

	access, err := f.tokens.NewAccessToken(f.user)
	require.NoError(t, err)

	w := serve(h, access)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, f.user.ID, seen.ID)

	w = serve(h, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
	assert.Equal(t, "not_authenticated", errorCode(t, w))

	refresh, err := f.tokens.NewRefreshToken(f.user)
	require.NoError(t, err)

	w = serve(h, refresh)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "access_token_required", errorCode(t, w))

	claims, err := f.tokens.Decode(access)
	require.NoError(t, err)
	f.revoked.MarkRevoked(context.Background(), claims.ID, time.Hour)

	w = serve(h, access)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_token", errorCode(t, w))
}

func TestRequireRefresh(t *testing.T) {
	f := newFixture(t)
	log := slogdiscard.NewDiscardLogger()

	h := RequireRefresh(log, f.gate)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := Claims(r.Context())
		require.True(t, ok)
		assert.Equal(t, jwt.KindRefresh, claims.Kind())

		_, ok = CurrentUser(r.Context())
		assert.False(t, ok)

		w.WriteHeader(http.StatusOK)
	}))

	refresh, err := f.tokens.NewRefreshToken(f.user)
	require.NoError(t, err)

	w := serve(h, refresh)
	assert.Equal(t, http.StatusOK, w.Code)

	access, err := f.tokens.NewAccessToken(f.user)
	require.NoError(t, err)

	w = serve(h, access)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "refresh_token_required", errorCode(t, w))
}

func TestAdminOnly(t *testing.T) {
	f := newFixture(t)
	log := slogdiscard.NewDiscardLogger()

	h := RequireAccess(log, f.gate)(AdminOnly(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	userToken, err := f.tokens.NewAccessToken(f.user)
	require.NoError(t, err)

	w := serve(h, userToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "insufficient_permissions", errorCode(t, w))

	adminToken, err := f.tokens.NewAccessToken(f.admin)
	require.NoError(t, err)

	w = serve(h, adminToken)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminOnly_WithoutGate(t *testing.T) {
	h := AdminOnly(slogdiscard.NewDiscardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := serve(h, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
