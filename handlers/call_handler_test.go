package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestWebhookRejectsBadSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := NewCallHandler(nil, nil, "topsecret")
	r := gin.New()
	r.POST("/voip/webhook", h.Webhook)

	body := `{"call_id":"abc","direction":"inbound","caller":"+3021","callee":"+3022","started_at":"2025-03-01T10:00:00Z"}`

	req := httptest.NewRequest(http.MethodPost, "/voip/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Secret", "wrong")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
}

func TestWebhookRejectsWhenSecretUnset(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// an empty configured secret disables the webhook instead of letting
	// everything through
	h := NewCallHandler(nil, nil, "")
	r := gin.New()
	r.POST("/voip/webhook", h.Webhook)

	req := httptest.NewRequest(http.MethodPost, "/voip/webhook", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookRejectsInvalidDirection(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := NewCallHandler(nil, nil, "topsecret")
	r := gin.New()
	r.POST("/voip/webhook", h.Webhook)

	body := `{"call_id":"abc","direction":"sideways","caller":"+3021","callee":"+3022","started_at":"2025-03-01T10:00:00Z"}`

	req := httptest.NewRequest(http.MethodPost, "/voip/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Secret", "topsecret")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_DIRECTION")
}
