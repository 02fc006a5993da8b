package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/racevault/market-server/internal/util"
)

func TestGameSignatureMiddleware(t *testing.T) {
	secret := "test-secret"
	body := `{"event":"car_spawn","vehicleCode":"V1"}`
	validSignature := util.HmacSHA256(secret, []byte(body))

	t.Run("passes through when secret is empty", func(t *testing.T) {
		middleware := NewGameSignatureMiddleware("")
		handler := middleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest("POST", "/api/beammp-webhook", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects request without signature header", func(t *testing.T) {
		middleware := NewGameSignatureMiddleware(secret)
		handler := middleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest("POST", "/api/beammp-webhook", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), `"code":"UNAUTHORIZED"`)
	})

	t.Run("rejects request with invalid signature", func(t *testing.T) {
		middleware := NewGameSignatureMiddleware(secret)
		handler := middleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest("POST", "/api/beammp-webhook", bytes.NewBufferString(body))
		req.Header.Set(GameSignatureHeader, "deadbeef")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("passes the untouched body on a valid signature", func(t *testing.T) {
		middleware := NewGameSignatureMiddleware(secret)
		var seen string
		handler := middleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, _ := io.ReadAll(r.Body)
			seen = string(data)
			w.WriteHeader(http.StatusCreated)
		}))

		req := httptest.NewRequest("POST", "/api/beammp-webhook", bytes.NewBufferString(body))
		req.Header.Set(GameSignatureHeader, validSignature)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, body, seen)
	})
}

func TestGameSignatureMiddleware_OversizeBody(t *testing.T) {
	signed := NewGameSignatureMiddleware("test-secret").Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))
	handler := NewBodyLimitMiddleware(8).Handler(signed)

	req := httptest.NewRequest("POST", "/api/beammp-webhook", bytes.NewBufferString("0123456789"))
	req.ContentLength = -1
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
