package ratelimit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	resp "bookly/internal/lib/api/response"
)

func hit(h http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = ip + ":12345"

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	return w
}

func TestCredentials(t *testing.T) {
	h := Credentials(2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1").Code)

	w := hit(h, "10.0.0.1")
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	var body resp.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, CodeTooManyRequests, body.ErrorCode)

	// other clients have their own budget
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.2").Code)
}

func TestMail_NeverZero(t *testing.T) {
	h := Mail(1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1").Code)
}
