package handlers

import (
	"crypto/subtle"
	"log"
	"net/http"
	"time"

	"logistiko-backend/models"
	"logistiko-backend/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CallHandler handles the VoIP call log and its provider webhook
type CallHandler struct {
	calls         *repository.CallRepository
	clients       *repository.ClientRepository
	webhookSecret string
}

// NewCallHandler creates a new call handler
func NewCallHandler(calls *repository.CallRepository, clients *repository.ClientRepository, webhookSecret string) *CallHandler {
	return &CallHandler{
		calls:         calls,
		clients:       clients,
		webhookSecret: webhookSecret,
	}
}

// List handles GET /api/v1/calls
func (h *CallHandler) List(c *gin.Context) {
	var clientID *uuid.UUID
	if v := c.Query("client_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			fail(c, http.StatusBadRequest, "INVALID_CLIENT_ID", "Invalid client_id format")
			return
		}
		clientID = &id
	}

	limit, offset := pagination(c)
	calls, err := h.calls.List(c.Request.Context(), clientID, limit, offset)
	if err != nil {
		fail(c, http.StatusInternalServerError, "LIST_FAILED", "Could not list calls")
		return
	}
	ok(c, http.StatusOK, calls)
}

// WebhookRequest represents the call event payload sent by the VoIP provider
type WebhookRequest struct {
	CallID    string    `json:"call_id" binding:"required"`
	Direction string    `json:"direction" binding:"required"`
	Caller    string    `json:"caller" binding:"required"`
	Callee    string    `json:"callee" binding:"required"`
	StartedAt time.Time `json:"started_at" binding:"required"`
	Duration  int       `json:"duration"`
	Status    string    `json:"status"`
}

// Webhook handles POST /voip/webhook. Authenticated by the shared secret the
// provider sends in X-Webhook-Secret, not by JWT.
func (h *CallHandler) Webhook(c *gin.Context) {
	if h.webhookSecret == "" ||
		subtle.ConstantTimeCompare([]byte(c.GetHeader("X-Webhook-Secret")), []byte(h.webhookSecret)) != 1 {
		fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid webhook secret")
		return
	}

	var req WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	direction := models.CallDirection(req.Direction)
	if direction != models.CallInbound && direction != models.CallOutbound {
		fail(c, http.StatusBadRequest, "INVALID_DIRECTION", "Direction must be inbound or outbound")
		return
	}

	call := &models.CallLog{
		Direction:       direction,
		Caller:          req.Caller,
		Callee:          req.Callee,
		StartedAt:       req.StartedAt,
		DurationSeconds: req.Duration,
		ProviderCallID:  req.CallID,
		Status:          req.Status,
	}

	// Match the remote party's number to a client. Inbound calls carry the
	// client as caller, outbound as callee.
	remote := req.Caller
	if direction == models.CallOutbound {
		remote = req.Callee
	}
	if client, err := h.clients.GetByPhone(c.Request.Context(), remote); err == nil && client != nil {
		call.ClientID = &client.ID
	}

	created, err := h.calls.CreateIfAbsent(c.Request.Context(), call)
	if err != nil {
		log.Printf("Webhook call %s could not be stored: %v", req.CallID, err)
		fail(c, http.StatusInternalServerError, "STORE_FAILED", "Could not store call")
		return
	}

	// Providers redeliver events; duplicates are acknowledged, not stored
	ok(c, http.StatusOK, gin.H{"created": created})
}
