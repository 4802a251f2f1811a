package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func newHMACRouter(secret string, reached *bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(VerifyWebhookHMAC(secret, zap.NewNop()))
	router.POST("/hook", func(c *gin.Context) {
		*reached = true
		body, _ := io.ReadAll(c.Request.Body)
		c.String(http.StatusOK, string(body))
	})
	return router
}

func TestVerifyWebhookHMAC(t *testing.T) {
	const secret = "webhook-secret"
	body := []byte(`{"id":1001}`)

	t.Run("valid signature passes through", func(t *testing.T) {
		var reached bool
		router := newHMACRouter(secret, &reached)

		req := httptest.NewRequest(http.MethodPost, "/hook", bytes.NewReader(body))
		req.Header.Set("X-Shopify-Hmac-Sha256", signBody(secret, body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.True(t, reached)
		require.Equal(t, http.StatusOK, w.Code)
		// The body was restored for the handler after verification.
		assert.Equal(t, string(body), w.Body.String())
	})

	t.Run("invalid signature is absorbed as 200", func(t *testing.T) {
		var reached bool
		router := newHMACRouter(secret, &reached)

		req := httptest.NewRequest(http.MethodPost, "/hook", bytes.NewReader(body))
		req.Header.Set("X-Shopify-Hmac-Sha256", "AAAA")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.False(t, reached, "handler must not run on a failed check")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	})

	t.Run("missing header is absorbed as 200", func(t *testing.T) {
		var reached bool
		router := newHMACRouter(secret, &reached)

		req := httptest.NewRequest(http.MethodPost, "/hook", bytes.NewReader(body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.False(t, reached)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("empty secret disables verification", func(t *testing.T) {
		var reached bool
		router := newHMACRouter("", &reached)

		req := httptest.NewRequest(http.MethodPost, "/hook", bytes.NewReader(body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.True(t, reached)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
