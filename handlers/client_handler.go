package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"logistiko-backend/models"
	"logistiko-backend/repository"
	"logistiko-backend/taxlookup"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ClientHandler handles client management endpoints
type ClientHandler struct {
	clients     *repository.ClientRepository
	obligations *repository.ObligationRepository
	documents   *repository.DocumentRepository
	registry    *taxlookup.Client // nil when TAXLOOKUP_URL is unset
}

// NewClientHandler creates a new client handler
func NewClientHandler(clients *repository.ClientRepository, obligations *repository.ObligationRepository, documents *repository.DocumentRepository, registry *taxlookup.Client) *ClientHandler {
	return &ClientHandler{
		clients:     clients,
		obligations: obligations,
		documents:   documents,
		registry:    registry,
	}
}

// ClientRequest represents the request body for creating or updating a client
type ClientRequest struct {
	Name      string  `json:"name" binding:"required"`
	AFM       string  `json:"afm" binding:"required"`
	DOY       string  `json:"doy"`
	Email     string  `json:"email"`
	Phone     string  `json:"phone"`
	Address   string  `json:"address"`
	ProfileID *string `json:"profile_id"`
	Notes     string  `json:"notes"`
}

func (r *ClientRequest) apply(client *models.Client) error {
	client.Name = r.Name
	client.AFM = r.AFM
	client.DOY = r.DOY
	client.Email = r.Email
	client.Phone = r.Phone
	client.Address = r.Address
	client.Notes = r.Notes
	client.ProfileID = nil
	if r.ProfileID != nil && *r.ProfileID != "" {
		profileID, err := uuid.Parse(*r.ProfileID)
		if err != nil {
			return errors.New("invalid profile_id format")
		}
		client.ProfileID = &profileID
	}
	return nil
}

// Create handles POST /api/v1/clients
func (h *ClientHandler) Create(c *gin.Context) {
	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if len(req.AFM) != 9 {
		fail(c, http.StatusBadRequest, "INVALID_AFM", "AFM must be 9 digits")
		return
	}

	client := &models.Client{Active: true}
	if err := req.apply(client); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	if existing, err := h.clients.GetByAFM(c.Request.Context(), req.AFM); err == nil && existing != nil {
		fail(c, http.StatusConflict, "DUPLICATE_AFM", "A client with this AFM already exists")
		return
	}

	if err := h.clients.Create(c.Request.Context(), client); err != nil {
		fail(c, http.StatusInternalServerError, "CREATE_FAILED", "Could not create client")
		return
	}
	ok(c, http.StatusCreated, client)
}

// List handles GET /api/v1/clients
func (h *ClientHandler) List(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	limit, offset := pagination(c)

	clients, err := h.clients.List(c.Request.Context(), activeOnly, limit, offset)
	if err != nil {
		fail(c, http.StatusInternalServerError, "LIST_FAILED", "Could not list clients")
		return
	}
	ok(c, http.StatusOK, clients)
}

// Get handles GET /api/v1/clients/:id
func (h *ClientHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid client ID format")
		return
	}

	client, err := h.clients.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, http.StatusNotFound, "NOT_FOUND", "Client not found")
		return
	}
	ok(c, http.StatusOK, client)
}

// Update handles PUT /api/v1/clients/:id
func (h *ClientHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid client ID format")
		return
	}

	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	client, err := h.clients.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, http.StatusNotFound, "NOT_FOUND", "Client not found")
		return
	}

	if err := req.apply(client); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	if err := h.clients.Update(c.Request.Context(), client); err != nil {
		fail(c, http.StatusInternalServerError, "UPDATE_FAILED", "Could not update client")
		return
	}
	ok(c, http.StatusOK, client)
}

// Deactivate handles POST /api/v1/clients/:id/deactivate. Clients are never
// deleted; their history must survive.
func (h *ClientHandler) Deactivate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid client ID format")
		return
	}

	if err := h.clients.Deactivate(c.Request.Context(), id); err != nil {
		fail(c, http.StatusInternalServerError, "DEACTIVATE_FAILED", "Could not deactivate client")
		return
	}
	ok(c, http.StatusOK, gin.H{"deactivated": true})
}

// Obligations handles GET /api/v1/clients/:id/obligations
func (h *ClientHandler) Obligations(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid client ID format")
		return
	}

	limit, offset := pagination(c)
	obligations, err := h.obligations.List(c.Request.Context(), repository.ObligationFilter{ClientID: &id}, limit, offset)
	if err != nil {
		fail(c, http.StatusInternalServerError, "LIST_FAILED", "Could not list obligations")
		return
	}
	ok(c, http.StatusOK, obligations)
}

// Documents handles GET /api/v1/clients/:id/documents
func (h *ClientHandler) Documents(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid client ID format")
		return
	}

	limit, offset := pagination(c)
	documents, err := h.documents.List(c.Request.Context(), repository.DocumentFilter{ClientID: &id, CurrentOnly: true}, limit, offset)
	if err != nil {
		fail(c, http.StatusInternalServerError, "LIST_FAILED", "Could not list documents")
		return
	}
	ok(c, http.StatusOK, documents)
}

// Lookup handles GET /api/v1/clients/lookup/:afm. Queries the tax registry
// to prefill a new client record.
func (h *ClientHandler) Lookup(c *gin.Context) {
	if h.registry == nil {
		fail(c, http.StatusServiceUnavailable, "LOOKUP_DISABLED", "Tax registry lookup is not configured")
		return
	}

	info, err := h.registry.Lookup(c.Request.Context(), c.Param("afm"))
	switch {
	case errors.Is(err, taxlookup.ErrNotFound):
		fail(c, http.StatusNotFound, "NOT_FOUND", "No company registered under this AFM")
		return
	case errors.Is(err, taxlookup.ErrTimeout):
		fail(c, http.StatusGatewayTimeout, "REGISTRY_TIMEOUT", "The tax registry did not answer in time")
		return
	case errors.Is(err, taxlookup.ErrUnreachable):
		fail(c, http.StatusBadGateway, "REGISTRY_UNREACHABLE", "The tax registry is unreachable")
		return
	case err != nil:
		fail(c, http.StatusBadGateway, "LOOKUP_FAILED", "Tax registry lookup failed")
		return
	}
	ok(c, http.StatusOK, info)
}

// pagination reads limit/offset query params with sane bounds
func pagination(c *gin.Context) (int, int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 200 {
		limit = 50
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
