package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookly/internal/config"
	"bookly/internal/email"
	"bookly/internal/lib/hasher"
	"bookly/internal/lib/logger/handlers/slogdiscard"
	"bookly/internal/models"
	"bookly/internal/storage/memory"
)

const api = "/api/v1"

type sentMail struct {
	to      string
	subject string
	body    string
}

type inbox struct {
	mu   sync.Mutex
	sent []sentMail
}

func (i *inbox) Send(_ context.Context, to, subject, htmlBody string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.sent = append(i.sent, sentMail{to: to, subject: subject, body: htmlBody})

	return nil
}

var linkRe = regexp.MustCompile(`href="[^"]*/auth/(?:verify|password-reset-confirm)/([^"]+)"`)

type testApp struct {
	app   *App
	store *memory.Storage
	inbox *inbox
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	cfg := &config.Config{BaseURL: "http://bookly.test/api/v1"}
	cfg.HTTPServer.AuthRateLimit = 1000
	cfg.Tokens = config.Tokens{
		JWTSecret:           "jwt-secret",
		AccessTokenTTL:      15 * time.Minute,
		RefreshTokenTTL:     48 * time.Hour,
		JTIRetention:        time.Hour,
		PurposeSecret:       "purpose-secret",
		PurposeSalt:         "email-configuration",
		VerificationMaxAge:  24 * time.Hour,
		PasswordResetMaxAge: time.Hour,
	}

	store := memory.New()
	box := &inbox{}

	return &testApp{
		app:   New(slogdiscard.NewDiscardLogger(), cfg, Deps{Store: store, Notifier: box}),
		store: store,
		inbox: box,
	}
}

type result struct {
	code   int
	header http.Header
	body   map[string]any
}

func (r result) errorCode() string {
	code, _ := r.body["error_code"].(string)
	return code
}

func (r result) object(key string) map[string]any {
	obj, _ := r.body[key].(map[string]any)
	return obj
}

func (ta *testApp) do(t *testing.T, method, path, token string, body any) result {
	t.Helper()

	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}

	req := httptest.NewRequest(method, api+path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	ta.app.Router.ServeHTTP(w, req)

	res := result{code: w.Code, header: w.Header()}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res.body), w.Body.String())
	}

	return res
}

// lastToken waits for pending deliveries and returns the purpose token of the
// newest email sent to address.
func (ta *testApp) lastToken(t *testing.T, address, subject string) string {
	t.Helper()

	ta.app.Dispatcher.Wait()

	ta.inbox.mu.Lock()
	defer ta.inbox.mu.Unlock()

	for i := len(ta.inbox.sent) - 1; i >= 0; i-- {
		m := ta.inbox.sent[i]
		if m.to != address || m.subject != subject {
			continue
		}

		match := linkRe.FindStringSubmatch(m.body)
		require.Len(t, match, 2, m.body)

		token, err := url.PathUnescape(match[1])
		require.NoError(t, err)

		return token
	}

	t.Fatalf("no %q email for %s", subject, address)
	return ""
}

type account struct {
	uid     string
	email   string
	access  string
	refresh string
}

func (ta *testApp) verifiedAccount(t *testing.T, username string) account {
	t.Helper()

	address := username + "@co.com"

	res := ta.do(t, http.MethodPost, "/auth/signup", "", map[string]any{
		"username": username,
		"email":    address,
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, res.code, res.body)

	token := ta.lastToken(t, address, email.SubjectVerification)
	res = ta.do(t, http.MethodGet, "/auth/verify/"+token, "", nil)
	require.Equal(t, http.StatusOK, res.code, res.body)

	return ta.login(t, address, "password123")
}

func (ta *testApp) login(t *testing.T, address, password string) account {
	t.Helper()

	res := ta.do(t, http.MethodPost, "/auth/login", "", map[string]any{
		"email":    address,
		"password": password,
	})
	require.Equal(t, http.StatusOK, res.code, res.body)

	return account{
		uid:     res.object("user")["uid"].(string),
		email:   address,
		access:  res.body["access_token"].(string),
		refresh: res.body["refresh_token"].(string),
	}
}

func (ta *testApp) admin(t *testing.T) account {
	t.Helper()

	hash, err := hasher.Hash("adminpass123")
	require.NoError(t, err)

	_, err = ta.store.SaveUser(context.Background(), models.User{
		Username:   "root",
		Email:      "root@co.com",
		PassHash:   hash,
		Role:       models.RoleAdmin,
		IsActive:   true,
		IsVerified: true,
	})
	require.NoError(t, err)

	return ta.login(t, "root@co.com", "adminpass123")
}

func TestSignupVerifyLoginFlow(t *testing.T) {
	ta := newTestApp(t)

	res := ta.do(t, http.MethodPost, "/auth/signup", "", map[string]any{
		"username":   "alice",
		"email":      "alice@co.com",
		"password":   "password123",
		"first_name": "Alice",
	})
	require.Equal(t, http.StatusCreated, res.code, res.body)
	assert.Equal(t, false, res.object("user")["is_verified"])
	assert.Equal(t, "user", res.object("user")["role"])
	assert.NotContains(t, res.object("user"), "password_hash")

	res = ta.do(t, http.MethodPost, "/auth/signup", "", map[string]any{
		"username": "alice2",
		"email":    "alice@co.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusForbidden, res.code)
	assert.Equal(t, "email_exists", res.errorCode())

	res = ta.do(t, http.MethodPost, "/auth/login", "", map[string]any{
		"email":    "alice@co.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, res.code)
	assert.Equal(t, "invalid_email_or_password", res.errorCode())
	assert.Equal(t, "Bearer", res.header.Get("WWW-Authenticate"))

	res = ta.do(t, http.MethodPost, "/auth/login", "", map[string]any{
		"email":    "alice@co.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusForbidden, res.code)
	assert.Equal(t, "account_not_verified", res.errorCode())

	token := ta.lastToken(t, "alice@co.com", email.SubjectVerification)

	res = ta.do(t, http.MethodGet, "/auth/verify/"+token, "", nil)
	require.Equal(t, http.StatusOK, res.code, res.body)

	res = ta.do(t, http.MethodGet, "/auth/verify/"+token, "", nil)
	assert.Equal(t, http.StatusBadRequest, res.code)
	assert.Equal(t, "invalid_verification_token", res.errorCode())

	res = ta.do(t, http.MethodPost, "/auth/verify", "", map[string]any{"email": "alice@co.com"})
	require.Equal(t, http.StatusOK, res.code)
	assert.Equal(t, "Email already verified", res.body["message"])

	alice := ta.login(t, "alice@co.com", "password123")

	res = ta.do(t, http.MethodGet, "/users/me", alice.access, nil)
	require.Equal(t, http.StatusOK, res.code, res.body)
	assert.Equal(t, true, res.object("user")["is_verified"])
	assert.Equal(t, "Alice", res.object("user")["first_name"])
}

func TestLogoutAndRefresh(t *testing.T) {
	ta := newTestApp(t)

	first := ta.verifiedAccount(t, "alice")
	second := ta.login(t, "alice@co.com", "password123")

	res := ta.do(t, http.MethodGet, "/auth/refresh-token", first.access, nil)
	assert.Equal(t, http.StatusUnauthorized, res.code)
	assert.Equal(t, "refresh_token_required", res.errorCode())

	res = ta.do(t, http.MethodGet, "/auth/logout", first.refresh, nil)
	assert.Equal(t, http.StatusUnauthorized, res.code)
	assert.Equal(t, "access_token_required", res.errorCode())

	res = ta.do(t, http.MethodGet, "/auth/logout", first.access, nil)
	require.Equal(t, http.StatusOK, res.code, res.body)

	res = ta.do(t, http.MethodGet, "/users/me", first.access, nil)
	assert.Equal(t, http.StatusUnauthorized, res.code)
	assert.Equal(t, "invalid_token", res.errorCode())

	res = ta.do(t, http.MethodGet, "/users/me", second.access, nil)
	assert.Equal(t, http.StatusOK, res.code)

	res = ta.do(t, http.MethodGet, "/auth/refresh-token", first.refresh, nil)
	require.Equal(t, http.StatusOK, res.code, res.body)

	fresh, _ := res.body["access_token"].(string)
	require.NotEmpty(t, fresh)

	res = ta.do(t, http.MethodGet, "/users/me", fresh, nil)
	assert.Equal(t, http.StatusOK, res.code)
}

func TestMissingToken(t *testing.T) {
	ta := newTestApp(t)

	res := ta.do(t, http.MethodGet, "/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.code)
	assert.Equal(t, "not_authenticated", res.errorCode())
	assert.Equal(t, "Bearer", res.header.Get("WWW-Authenticate"))

	res = ta.do(t, http.MethodGet, "/users/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, res.code)
	assert.Equal(t, "invalid_token", res.errorCode())
}

func TestBookOwnership(t *testing.T) {
	ta := newTestApp(t)

	alice := ta.verifiedAccount(t, "alice")
	bob := ta.verifiedAccount(t, "bob")
	root := ta.admin(t)

	res := ta.do(t, http.MethodPost, "/books/", alice.access, map[string]any{
		"title":          "Dune",
		"author":         "Frank Herbert",
		"publisher":      "Chilton",
		"page_count":     412,
		"language":       "en",
		"published_date": "1965-08-01",
	})
	require.Equal(t, http.StatusCreated, res.code, res.body)

	book := res.object("book")
	bookID := book["uid"].(string)
	assert.Equal(t, alice.uid, book["user_uid"])

	res = ta.do(t, http.MethodPost, "/books/", alice.access, map[string]any{
		"title":          "Tomorrow",
		"author":         "Nobody",
		"publisher":      "Nowhere",
		"page_count":     10,
		"language":       "en",
		"published_date": time.Now().AddDate(1, 0, 0).Format("2006-01-02"),
	})
	assert.Equal(t, http.StatusBadRequest, res.code)
	assert.Equal(t, "validation_error", res.errorCode())

	res = ta.do(t, http.MethodPut, "/books/"+bookID, bob.access, map[string]any{"title": "Dune Messiah"})
	assert.Equal(t, http.StatusForbidden, res.code)
	assert.Equal(t, "insufficient_permissions", res.errorCode())

	res = ta.do(t, http.MethodPut, "/books/"+bookID, root.access, map[string]any{"title": "Dune Messiah"})
	require.Equal(t, http.StatusOK, res.code, res.body)
	assert.Equal(t, "Dune Messiah", res.object("book")["title"])

	res = ta.do(t, http.MethodPut, "/books/"+bookID, alice.access, map[string]any{"page_count": 0})
	assert.Equal(t, http.StatusBadRequest, res.code)

	res = ta.do(t, http.MethodPost, "/reviews/book/"+bookID, bob.access, map[string]any{
		"rating":      0,
		"review_text": "not for me",
	})
	require.Equal(t, http.StatusCreated, res.code, res.body)
	reviewID := res.object("review")["uid"].(string)

	res = ta.do(t, http.MethodPut, "/reviews/"+reviewID, alice.access, map[string]any{"rating": 5})
	assert.Equal(t, http.StatusForbidden, res.code)

	res = ta.do(t, http.MethodPost, "/tags/book/"+bookID, bob.access, map[string]any{
		"tags": []map[string]any{{"name": "scifi"}},
	})
	assert.Equal(t, http.StatusForbidden, res.code)

	res = ta.do(t, http.MethodPost, "/tags/book/"+bookID, alice.access, map[string]any{
		"tags": []map[string]any{{"name": "scifi"}, {"name": "classic"}, {"name": "scifi"}},
	})
	require.Equal(t, http.StatusOK, res.code, res.body)
	assert.Len(t, res.body["tags"], 2)

	res = ta.do(t, http.MethodGet, "/books/"+bookID, "", nil)
	require.Equal(t, http.StatusOK, res.code)
	assert.Len(t, res.object("book")["reviews"], 1)
	assert.Len(t, res.object("book")["tags"], 2)

	res = ta.do(t, http.MethodGet, "/books/user/"+alice.uid, "", nil)
	require.Equal(t, http.StatusOK, res.code)
	assert.Len(t, res.body["books"], 1)

	res = ta.do(t, http.MethodDelete, "/books/"+bookID, bob.access, nil)
	assert.Equal(t, http.StatusForbidden, res.code)

	res = ta.do(t, http.MethodDelete, "/books/"+bookID, alice.access, nil)
	assert.Equal(t, http.StatusNoContent, res.code)

	res = ta.do(t, http.MethodGet, "/books/"+bookID, "", nil)
	assert.Equal(t, http.StatusNotFound, res.code)
	assert.Equal(t, "book_not_found", res.errorCode())

	res = ta.do(t, http.MethodGet, "/books/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, res.code)
}

func TestPasswordReset(t *testing.T) {
	ta := newTestApp(t)

	res := ta.do(t, http.MethodPost, "/auth/password-reset-confirm/not-a-token", "", map[string]any{
		"new_password":     "newpassword1",
		"confirm_password": "otherpassword1",
	})
	assert.Equal(t, http.StatusBadRequest, res.code)
	assert.Equal(t, "passwords_do_not_match", res.errorCode())

	ta.verifiedAccount(t, "alice")

	res = ta.do(t, http.MethodPost, "/auth/password-reset-request", "", map[string]any{"email": "ghost@co.com"})
	assert.Equal(t, http.StatusNotFound, res.code)
	assert.Equal(t, "user_not_found", res.errorCode())

	res = ta.do(t, http.MethodPost, "/auth/password-reset-request", "", map[string]any{"email": "alice@co.com"})
	require.Equal(t, http.StatusOK, res.code, res.body)

	token := ta.lastToken(t, "alice@co.com", email.SubjectPasswordReset)

	res = ta.do(t, http.MethodGet, "/auth/password-reset-confirm/"+token, "", nil)
	require.Equal(t, http.StatusOK, res.code, res.body)

	res = ta.do(t, http.MethodPost, "/auth/password-reset-confirm/"+token, "", map[string]any{
		"new_password":     "newpassword1",
		"confirm_password": "newpassword1",
	})
	require.Equal(t, http.StatusOK, res.code, res.body)

	ta.login(t, "alice@co.com", "newpassword1")

	res = ta.do(t, http.MethodPost, "/auth/password-reset-confirm/"+token, "", map[string]any{
		"new_password":     "newpassword2",
		"confirm_password": "newpassword2",
	})
	assert.Equal(t, http.StatusBadRequest, res.code)
	assert.Equal(t, "invalid_verification_token", res.errorCode())
}

func TestUsers(t *testing.T) {
	ta := newTestApp(t)

	alice := ta.verifiedAccount(t, "alice")
	bob := ta.verifiedAccount(t, "bob")
	root := ta.admin(t)

	res := ta.do(t, http.MethodGet, "/users/", alice.access, nil)
	assert.Equal(t, http.StatusForbidden, res.code)
	assert.Equal(t, "insufficient_permissions", res.errorCode())

	res = ta.do(t, http.MethodGet, "/users/", root.access, nil)
	require.Equal(t, http.StatusOK, res.code, res.body)
	assert.Len(t, res.body["users"], 2)

	res = ta.do(t, http.MethodGet, "/users/user-profile/alice", "", nil)
	require.Equal(t, http.StatusOK, res.code)
	assert.Equal(t, "alice", res.object("user")["username"])

	res = ta.do(t, http.MethodGet, "/users/user-profile/root", "", nil)
	assert.Equal(t, http.StatusNotFound, res.code)

	res = ta.do(t, http.MethodPut, "/users/user-profile/"+bob.uid, alice.access, map[string]any{"first_name": "Eve"})
	assert.Equal(t, http.StatusForbidden, res.code)

	res = ta.do(t, http.MethodPut, "/users/user-profile/"+alice.uid, alice.access, map[string]any{"email": bob.email})
	assert.Equal(t, http.StatusForbidden, res.code)
	assert.Equal(t, "email_exists", res.errorCode())

	res = ta.do(t, http.MethodPut, "/users/user-profile/"+bob.uid, root.access, map[string]any{"first_name": "Robert"})
	require.Equal(t, http.StatusOK, res.code, res.body)
	assert.Equal(t, "Robert", res.object("user")["first_name"])

	res = ta.do(t, http.MethodDelete, "/users/user-profile/"+alice.uid, alice.access, nil)
	assert.Equal(t, http.StatusNoContent, res.code)

	res = ta.do(t, http.MethodGet, "/users/me", alice.access, nil)
	assert.Equal(t, http.StatusNotFound, res.code)
}
