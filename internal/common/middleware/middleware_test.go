package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swagly-backend/internal/common/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), HandleErrors(), Recovery())
	r.GET("/x", handlers...)
	return r
}

func TestRequireAdmin(t *testing.T) {
	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }

	tests := []struct {
		name   string
		token  string
		header map[string]string
		want   int
	}{
		{name: "disabled", token: "", want: http.StatusNoContent},
		{name: "missing", token: "s3cret", want: http.StatusUnauthorized},
		{name: "wrong", token: "s3cret", header: map[string]string{AdminTokenHeader: "nope"}, want: http.StatusForbidden},
		{name: "header", token: "s3cret", header: map[string]string{AdminTokenHeader: "s3cret"}, want: http.StatusNoContent},
		{name: "bearer", token: "s3cret", header: map[string]string{"Authorization": "Bearer s3cret"}, want: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(RequireAdmin(tt.token), ok)
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestHandleErrors(t *testing.T) {
	t.Run("app error keeps its code", func(t *testing.T) {
		r := newRouter(func(c *gin.Context) {
			_ = c.Error(errors.New(errors.ErrCodeLedgerRead, "ledger unavailable"))
		})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("X-Request-ID", "req-1")
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadGateway, w.Code)
		var body ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.False(t, body.Success)
		assert.Equal(t, errors.ErrCodeLedgerRead, body.Error.Code)
		assert.Equal(t, "req-1", body.RequestID)
	})

	t.Run("plain error becomes internal", func(t *testing.T) {
		r := newRouter(func(c *gin.Context) {
			_ = c.Error(fmt.Errorf("boom"))
		})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

		require.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), string(errors.ErrCodeInternal))
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("panic recovered", func(t *testing.T) {
		r := newRouter(func(c *gin.Context) { panic("kaboom") })
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(errors.New(errors.ErrCodeCodecInput, "")))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(errors.New(errors.ErrCodeDecode, "")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New(errors.ErrCodeBackupCycle, "")))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(errors.NewNotFoundError("attestation", "0x1")))
}
