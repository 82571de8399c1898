package handlers

import (
	"errors"
	"net/http"
	"time"

	"logistiko-backend/auth"
	"logistiko-backend/models"
	"logistiko-backend/repository"
	"logistiko-backend/secrets"
	"logistiko-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EmailHandler handles templates, sending, logs and SMTP settings
type EmailHandler struct {
	emails       *repository.EmailRepository
	emailService *service.EmailService
	box          *secrets.Box
}

// NewEmailHandler creates a new email handler
func NewEmailHandler(emails *repository.EmailRepository, emailService *service.EmailService, box *secrets.Box) *EmailHandler {
	return &EmailHandler{
		emails:       emails,
		emailService: emailService,
		box:          box,
	}
}

// --- templates ---

// TemplateRequest represents the request body for email templates
type TemplateRequest struct {
	Name    string `json:"name" binding:"required"`
	Subject string `json:"subject" binding:"required"`
	Body    string `json:"body" binding:"required"`
}

// CreateTemplate handles POST /api/v1/emails/templates
func (h *EmailHandler) CreateTemplate(c *gin.Context) {
	var req TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	t := &models.EmailTemplate{Name: req.Name, Subject: req.Subject, Body: req.Body}
	if err := h.emails.CreateTemplate(c.Request.Context(), t); err != nil {
		fail(c, http.StatusInternalServerError, "CREATE_FAILED", "Could not create template")
		return
	}
	ok(c, http.StatusCreated, t)
}

// ListTemplates handles GET /api/v1/emails/templates
func (h *EmailHandler) ListTemplates(c *gin.Context) {
	templates, err := h.emails.ListTemplates(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, "LIST_FAILED", "Could not list templates")
		return
	}
	ok(c, http.StatusOK, templates)
}

// UpdateTemplate handles PUT /api/v1/emails/templates/:id
func (h *EmailHandler) UpdateTemplate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid template ID format")
		return
	}

	var req TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	t, err := h.emails.GetTemplateByID(c.Request.Context(), id)
	if err != nil {
		fail(c, http.StatusNotFound, "NOT_FOUND", "Template not found")
		return
	}

	t.Name = req.Name
	t.Subject = req.Subject
	t.Body = req.Body
	if err := h.emails.UpdateTemplate(c.Request.Context(), t); err != nil {
		fail(c, http.StatusInternalServerError, "UPDATE_FAILED", "Could not update template")
		return
	}
	ok(c, http.StatusOK, t)
}

// DeleteTemplate handles DELETE /api/v1/emails/templates/:id
func (h *EmailHandler) DeleteTemplate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid template ID format")
		return
	}

	if err := h.emails.DeleteTemplate(c.Request.Context(), id); err != nil {
		fail(c, http.StatusInternalServerError, "DELETE_FAILED", "Could not delete template")
		return
	}
	ok(c, http.StatusOK, gin.H{"deleted": true})
}

// --- sending ---

// SendRequest represents the request body for POST /emails/send
type SendRequest struct {
	Recipient   string     `json:"recipient" binding:"required,email"`
	Subject     string     `json:"subject" binding:"required"`
	Body        string     `json:"body" binding:"required"`
	ClientID    *string    `json:"client_id"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

// Send handles POST /api/v1/emails/send
func (h *EmailHandler) Send(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	serviceReq := service.SendRequest{
		Recipient:   req.Recipient,
		Subject:     req.Subject,
		Body:        req.Body,
		ScheduledAt: req.ScheduledAt,
	}
	if req.ClientID != nil && *req.ClientID != "" {
		clientID, err := uuid.Parse(*req.ClientID)
		if err != nil {
			fail(c, http.StatusBadRequest, "INVALID_CLIENT_ID", "Invalid client_id format")
			return
		}
		serviceReq.ClientID = &clientID
	}
	if userID, found := auth.UserID(c); found {
		serviceReq.SenderID = &userID
	}

	emailLog, err := h.emailService.Send(c.Request.Context(), serviceReq)
	if errors.Is(err, service.ErrSMTPNotConfigured) {
		fail(c, http.StatusConflict, "SMTP_NOT_CONFIGURED", "SMTP settings are not configured")
		return
	}
	if err != nil && emailLog == nil {
		failFromService(c, err)
		return
	}

	// A failed delivery still returns the log row so the operator can see
	// the recorded outcome
	status := http.StatusOK
	if err != nil {
		status = http.StatusBadGateway
	}
	ok(c, status, emailLog)
}

// Logs handles GET /api/v1/emails/logs
func (h *EmailHandler) Logs(c *gin.Context) {
	filter := repository.EmailLogFilter{}

	if v := c.Query("client_id"); v != "" {
		clientID, err := uuid.Parse(v)
		if err != nil {
			fail(c, http.StatusBadRequest, "INVALID_CLIENT_ID", "Invalid client_id format")
			return
		}
		filter.ClientID = &clientID
	}
	if v := c.Query("status"); v != "" {
		status := models.EmailStatus(v)
		switch status {
		case models.EmailPending, models.EmailQueued, models.EmailSent, models.EmailFailed:
			filter.Status = &status
		default:
			fail(c, http.StatusBadRequest, "INVALID_STATUS", "Status must be pending, queued, sent or failed")
			return
		}
	}

	limit, offset := pagination(c)
	logs, err := h.emails.ListLogs(c.Request.Context(), filter, limit, offset)
	if err != nil {
		fail(c, http.StatusInternalServerError, "LIST_FAILED", "Could not list email logs")
		return
	}
	ok(c, http.StatusOK, logs)
}

// --- settings ---

// GetSettings handles GET /api/v1/emails/settings. The password is never
// returned.
func (h *EmailHandler) GetSettings(c *gin.Context) {
	settings, err := h.emails.GetSettings(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, "LOAD_FAILED", "Could not load settings")
		return
	}
	if settings == nil {
		fail(c, http.StatusNotFound, "NOT_CONFIGURED", "SMTP settings are not configured")
		return
	}
	ok(c, http.StatusOK, settings)
}

// SettingsRequest represents the request body for PUT /emails/settings
type SettingsRequest struct {
	Host          string  `json:"host" binding:"required"`
	Port          int     `json:"port" binding:"required"`
	Username      string  `json:"username"`
	Password      *string `json:"password"` // nil keeps the stored password
	FromAddress   string  `json:"from_address" binding:"required,email"`
	FromName      string  `json:"from_name"`
	UseTLS        bool    `json:"use_tls"`
	RatePerSecond float64 `json:"rate_per_second"`
	Burst         int     `json:"burst"`
}

// SaveSettings handles PUT /api/v1/emails/settings
func (h *EmailHandler) SaveSettings(c *gin.Context) {
	var req SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	settings := &models.EmailSettings{
		Host:          req.Host,
		Port:          req.Port,
		Username:      req.Username,
		FromAddress:   req.FromAddress,
		FromName:      req.FromName,
		UseTLS:        req.UseTLS,
		RatePerSecond: req.RatePerSecond,
		Burst:         req.Burst,
	}

	if req.Password != nil {
		cipher, nonce, err := h.box.Encrypt([]byte(*req.Password))
		if err != nil {
			fail(c, http.StatusInternalServerError, "ENCRYPT_FAILED", "Could not store password")
			return
		}
		settings.PasswordCipher = cipher
		settings.PasswordNonce = nonce
	} else if existing, err := h.emails.GetSettings(c.Request.Context()); err == nil && existing != nil {
		settings.PasswordCipher = existing.PasswordCipher
		settings.PasswordNonce = existing.PasswordNonce
	}

	if err := h.emails.SaveSettings(c.Request.Context(), settings); err != nil {
		fail(c, http.StatusInternalServerError, "SAVE_FAILED", "Could not save settings")
		return
	}
	ok(c, http.StatusOK, settings)
}

// TestSettings handles POST /api/v1/emails/settings/test
func (h *EmailHandler) TestSettings(c *gin.Context) {
	err := h.emailService.TestSettings(c.Request.Context())
	if errors.Is(err, service.ErrSMTPNotConfigured) {
		fail(c, http.StatusConflict, "SMTP_NOT_CONFIGURED", "SMTP settings are not configured")
		return
	}
	if err != nil {
		ok(c, http.StatusOK, gin.H{"ok": false, "error": err.Error()})
		return
	}
	ok(c, http.StatusOK, gin.H{"ok": true})
}
