package request

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	resp "bookly/internal/lib/api/response"
	"bookly/internal/lib/logger/handlers/slogdiscard"
	"bookly/internal/lib/validate"
)

type body struct {
	Email string `json:"email" validate:"required,email"`
}

func TestBind(t *testing.T) {
	log := slogdiscard.NewDiscardLogger()
	v := validate.New()

	tests := []struct {
		name   string
		body   string
		ok     bool
		status int
		code   string
	}{
		{name: "valid", body: `{"email":"john@co.com"}`, ok: true},
		{name: "broken json", body: `{"email":`, status: http.StatusBadRequest, code: resp.CodeBadRequest},
		{name: "missing field", body: `{}`, status: http.StatusBadRequest, code: resp.CodeValidationError},
		{name: "bad email", body: `{"email":"nope"}`, status: http.StatusBadRequest, code: resp.CodeValidationError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			var dst body
			ok := Bind(w, r, log, v, &dst)
			require.Equal(t, tt.ok, ok)

			if tt.ok {
				assert.Equal(t, "john@co.com", dst.Email)
				return
			}

			assert.Equal(t, tt.status, w.Code)

			var got resp.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, tt.code, got.ErrorCode)
		})
	}
}

func TestUUIDParam(t *testing.T) {
	log := slogdiscard.NewDiscardLogger()

	withParam := func(value string) *http.Request {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("book_uid", value)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}

	w := httptest.NewRecorder()
	id, ok := UUIDParam(w, withParam("9b2f1c9e-8d5a-4c1e-9f55-3f0c2d8b6a10"), log, "book_uid")
	require.True(t, ok)
	assert.Equal(t, "9b2f1c9e-8d5a-4c1e-9f55-3f0c2d8b6a10", id.String())

	w = httptest.NewRecorder()
	_, ok = UUIDParam(w, withParam("not-a-uuid"), log, "book_uid")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
