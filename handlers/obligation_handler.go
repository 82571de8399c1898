package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"logistiko-backend/auth"
	"logistiko-backend/models"
	"logistiko-backend/repository"
	"logistiko-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ObligationHandler handles obligation types, profiles and the monthly
// obligation lifecycle
type ObligationHandler struct {
	obligations       *repository.ObligationRepository
	obligationService *service.ObligationService
}

// NewObligationHandler creates a new obligation handler
func NewObligationHandler(obligations *repository.ObligationRepository, obligationService *service.ObligationService) *ObligationHandler {
	return &ObligationHandler{
		obligations:       obligations,
		obligationService: obligationService,
	}
}

// --- obligation types ---

// TypeRequest represents the request body for obligation types
type TypeRequest struct {
	Name              string  `json:"name" binding:"required"`
	Description       string  `json:"description"`
	DefaultTemplateID *string `json:"default_template_id"`
}

// CreateType handles POST /api/v1/obligation-types
func (h *ObligationHandler) CreateType(c *gin.Context) {
	var req TypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	t := &models.ObligationType{Name: req.Name, Description: req.Description}
	if req.DefaultTemplateID != nil && *req.DefaultTemplateID != "" {
		templateID, err := uuid.Parse(*req.DefaultTemplateID)
		if err != nil {
			fail(c, http.StatusBadRequest, "INVALID_TEMPLATE_ID", "Invalid default_template_id format")
			return
		}
		t.DefaultTemplateID = &templateID
	}

	if err := h.obligations.CreateType(c.Request.Context(), t); err != nil {
		fail(c, http.StatusInternalServerError, "CREATE_FAILED", "Could not create obligation type")
		return
	}
	ok(c, http.StatusCreated, t)
}

// ListTypes handles GET /api/v1/obligation-types
func (h *ObligationHandler) ListTypes(c *gin.Context) {
	types, err := h.obligations.ListTypes(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, "LIST_FAILED", "Could not list obligation types")
		return
	}
	ok(c, http.StatusOK, types)
}

// UpdateType handles PUT /api/v1/obligation-types/:id
func (h *ObligationHandler) UpdateType(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid obligation type ID format")
		return
	}

	var req TypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	t, err := h.obligations.GetTypeByID(c.Request.Context(), id)
	if err != nil {
		fail(c, http.StatusNotFound, "NOT_FOUND", "Obligation type not found")
		return
	}

	t.Name = req.Name
	t.Description = req.Description
	t.DefaultTemplateID = nil
	if req.DefaultTemplateID != nil && *req.DefaultTemplateID != "" {
		templateID, err := uuid.Parse(*req.DefaultTemplateID)
		if err != nil {
			fail(c, http.StatusBadRequest, "INVALID_TEMPLATE_ID", "Invalid default_template_id format")
			return
		}
		t.DefaultTemplateID = &templateID
	}

	if err := h.obligations.UpdateType(c.Request.Context(), t); err != nil {
		fail(c, http.StatusInternalServerError, "UPDATE_FAILED", "Could not update obligation type")
		return
	}
	ok(c, http.StatusOK, t)
}

// DeleteType handles DELETE /api/v1/obligation-types/:id
func (h *ObligationHandler) DeleteType(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid obligation type ID format")
		return
	}

	if err := h.obligations.DeleteType(c.Request.Context(), id); err != nil {
		fail(c, http.StatusInternalServerError, "DELETE_FAILED", "Could not delete obligation type")
		return
	}
	ok(c, http.StatusOK, gin.H{"deleted": true})
}

// --- obligation profiles ---

// ProfileRequest represents the request body for obligation profiles
type ProfileRequest struct {
	Name   string `json:"name" binding:"required"`
	Active *bool  `json:"active"`
	Items  []struct {
		ObligationTypeID string `json:"obligation_type_id" binding:"required"`
		DeadlineDay      int    `json:"deadline_day" binding:"required"`
	} `json:"items" binding:"required"`
}

func (r *ProfileRequest) toModel() (*models.ObligationProfile, error) {
	p := &models.ObligationProfile{Name: r.Name, Active: true}
	if r.Active != nil {
		p.Active = *r.Active
	}
	for _, item := range r.Items {
		typeID, err := uuid.Parse(item.ObligationTypeID)
		if err != nil {
			return nil, errors.New("invalid obligation_type_id format")
		}
		if item.DeadlineDay < 1 || item.DeadlineDay > 28 {
			return nil, errors.New("deadline_day must be between 1 and 28")
		}
		p.Items = append(p.Items, models.ProfileItem{
			ObligationTypeID: typeID,
			DeadlineDay:      item.DeadlineDay,
		})
	}
	return p, nil
}

// CreateProfile handles POST /api/v1/obligation-profiles
func (h *ObligationHandler) CreateProfile(c *gin.Context) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	p, err := req.toModel()
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	if err := h.obligations.CreateProfile(c.Request.Context(), p); err != nil {
		fail(c, http.StatusInternalServerError, "CREATE_FAILED", "Could not create profile")
		return
	}
	ok(c, http.StatusCreated, p)
}

// ListProfiles handles GET /api/v1/obligation-profiles
func (h *ObligationHandler) ListProfiles(c *gin.Context) {
	profiles, err := h.obligations.ListProfiles(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, "LIST_FAILED", "Could not list profiles")
		return
	}
	ok(c, http.StatusOK, profiles)
}

// GetProfile handles GET /api/v1/obligation-profiles/:id
func (h *ObligationHandler) GetProfile(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid profile ID format")
		return
	}

	p, err := h.obligations.GetProfileByID(c.Request.Context(), id)
	if err != nil {
		fail(c, http.StatusNotFound, "NOT_FOUND", "Profile not found")
		return
	}
	ok(c, http.StatusOK, p)
}

// UpdateProfile handles PUT /api/v1/obligation-profiles/:id
func (h *ObligationHandler) UpdateProfile(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid profile ID format")
		return
	}

	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	p, err := req.toModel()
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	p.ID = id

	if err := h.obligations.UpdateProfile(c.Request.Context(), p); err != nil {
		fail(c, http.StatusInternalServerError, "UPDATE_FAILED", "Could not update profile")
		return
	}
	ok(c, http.StatusOK, p)
}

// --- monthly obligations ---

// List handles GET /api/v1/obligations
func (h *ObligationHandler) List(c *gin.Context) {
	filter := repository.ObligationFilter{}

	if v := c.Query("client_id"); v != "" {
		clientID, err := uuid.Parse(v)
		if err != nil {
			fail(c, http.StatusBadRequest, "INVALID_CLIENT_ID", "Invalid client_id format")
			return
		}
		filter.ClientID = &clientID
	}
	if v := c.Query("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			fail(c, http.StatusBadRequest, "INVALID_YEAR", "Invalid year")
			return
		}
		filter.Year = &year
	}
	if v := c.Query("month"); v != "" {
		month, err := strconv.Atoi(v)
		if err != nil || month < 1 || month > 12 {
			fail(c, http.StatusBadRequest, "INVALID_MONTH", "Invalid month")
			return
		}
		filter.Month = &month
	}
	if v := c.Query("status"); v != "" {
		status := models.ObligationStatus(v)
		switch status {
		case models.ObligationPending, models.ObligationCompleted, models.ObligationOverdue:
			filter.Status = &status
		default:
			fail(c, http.StatusBadRequest, "INVALID_STATUS", "Status must be pending, completed or overdue")
			return
		}
	}

	limit, offset := pagination(c)
	obligations, err := h.obligationService.List(c.Request.Context(), filter, limit, offset)
	if err != nil {
		fail(c, http.StatusInternalServerError, "LIST_FAILED", "Could not list obligations")
		return
	}
	ok(c, http.StatusOK, obligations)
}

// GenerateRequest represents the request body for POST /obligations/generate
type GenerateRequest struct {
	Year     int     `json:"year" binding:"required"`
	Month    int     `json:"month" binding:"required"`
	ClientID *string `json:"client_id"`
}

// Generate handles POST /api/v1/obligations/generate
func (h *ObligationHandler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	serviceReq := service.GenerateRequest{Year: req.Year, Month: req.Month}
	if req.ClientID != nil && *req.ClientID != "" {
		clientID, err := uuid.Parse(*req.ClientID)
		if err != nil {
			fail(c, http.StatusBadRequest, "INVALID_CLIENT_ID", "Invalid client_id format")
			return
		}
		serviceReq.ClientID = &clientID
	}

	result, err := h.obligationService.GenerateMonthly(c.Request.Context(), serviceReq)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, result)
}

// CompleteRequest represents the request body for POST /obligations/:id/complete
type CompleteRequest struct {
	Notify     bool    `json:"notify"`
	TemplateID *string `json:"template_id"`
}

// Complete handles POST /api/v1/obligations/:id/complete. An optional file
// can be attached via multipart; plain JSON completes without a document.
func (h *ObligationHandler) Complete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid obligation ID format")
		return
	}

	userID, found := auth.UserID(c)
	if !found {
		fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing authentication")
		return
	}

	serviceReq := service.CompleteRequest{ObligationID: id, UserID: userID}

	if isMultipart(c) {
		serviceReq.Notify = c.PostForm("notify") == "true"
		if v := c.PostForm("template_id"); v != "" {
			templateID, err := uuid.Parse(v)
			if err != nil {
				fail(c, http.StatusBadRequest, "INVALID_TEMPLATE_ID", "Invalid template_id format")
				return
			}
			serviceReq.TemplateID = &templateID
		}

		fileHeader, err := c.FormFile("file")
		if err == nil {
			file, err := fileHeader.Open()
			if err != nil {
				fail(c, http.StatusBadRequest, "INVALID_FILE", "Could not read uploaded file")
				return
			}
			defer file.Close()
			serviceReq.Upload = &service.CompleteUpload{
				Category: c.PostForm("category"),
				Filename: fileHeader.Filename,
				MimeType: fileHeader.Header.Get("Content-Type"),
				Size:     fileHeader.Size,
				Data:     file,
			}
		}
	} else {
		var req CompleteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
			return
		}
		serviceReq.Notify = req.Notify
		if req.TemplateID != nil && *req.TemplateID != "" {
			templateID, err := uuid.Parse(*req.TemplateID)
			if err != nil {
				fail(c, http.StatusBadRequest, "INVALID_TEMPLATE_ID", "Invalid template_id format")
				return
			}
			serviceReq.TemplateID = &templateID
		}
	}

	result, err := h.obligationService.Complete(c.Request.Context(), serviceReq)
	if errors.Is(err, service.ErrAlreadyCompleted) {
		fail(c, http.StatusConflict, "ALREADY_COMPLETED", "Obligation is already completed")
		return
	}
	if err != nil {
		failFromService(c, err)
		return
	}

	response := gin.H{"obligation": result.Obligation}
	if result.Document != nil {
		response["document"] = result.Document
	}
	if result.EmailLog != nil {
		response["email_log"] = result.EmailLog
	}
	if result.NotifyError != nil {
		response["notify_error"] = result.NotifyError.Error()
	}
	ok(c, http.StatusOK, response)
}

// BulkCompleteRequest represents the request body for POST /obligations/complete-bulk
type BulkCompleteRequest struct {
	IDs    []string `json:"ids" binding:"required"`
	Notify bool     `json:"notify"`
}

// CompleteBulk handles POST /api/v1/obligations/complete-bulk
func (h *ObligationHandler) CompleteBulk(c *gin.Context) {
	var req BulkCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	userID, found := auth.UserID(c)
	if !found {
		fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing authentication")
		return
	}

	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid obligation ID format: "+raw)
			return
		}
		ids = append(ids, id)
	}

	result, err := h.obligationService.CompleteBulk(c.Request.Context(), ids, userID, req.Notify)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, result)
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.GetHeader("Content-Type"), "multipart/form-data")
}
